package person_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/igreja/core"
	"github.com/trezcool/igreja/core/church"
	"github.com/trezcool/igreja/core/person"
	"github.com/trezcool/igreja/core/user"
	sqlxrepos "github.com/trezcool/igreja/storage/database/sqlx"
	testutil "github.com/trezcool/igreja/tests"
)

type fixture struct {
	db     core.DB
	svc    *person.Service
	church church.Church
	admin  core.Actor
}

func setup(t *testing.T, plan string) fixture {
	t.Helper()
	db := testutil.OpenDB(t)
	audit := testutil.NopActionLogger{}
	churchSvc := church.NewService(db, sqlxrepos.NewChurchRepository(), audit)

	ch := testutil.CreateChurch(t, db, "Igreja Central", plan)
	admin := testutil.CreateUser(t, db, ch.ID, "Admin", "admin@igreja.com", "Adm1n!pass", user.ProfileAdmin, true)
	return fixture{
		db:     db,
		svc:    person.NewService(db, sqlxrepos.NewPersonRepository(), churchSvc, audit),
		church: ch,
		admin:  admin.Actor(),
	}
}

func TestService_Create(t *testing.T) {
	f := setup(t, church.PlanBasic)
	ctx := context.Background()

	p, err := f.svc.Create(ctx, f.admin, person.Input{
		Name: "  Ana Paula ", Email: "ANA@mail.com", Mobile: "(11) 98765-4321", BirthDate: "1990-05-20",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana Paula", p.Name)
	assert.Equal(t, "ana@mail.com", p.Email)
	assert.Equal(t, person.StatusVisitor, p.Status)
	assert.True(t, p.IsActive)
	assert.Equal(t, time.Date(1990, 5, 20, 0, 0, 0, 0, time.UTC), p.BirthDate.Time)

	t.Run("invalid", func(t *testing.T) {
		_, err := f.svc.Create(ctx, f.admin, person.Input{Name: "X", Status: "santo", Gender: "Z"})
		assert.Error(t, err)
	})

	t.Run("duplicates", func(t *testing.T) {
		for name, in := range map[string]person.Input{
			"same name":   {Name: "ana paula"},
			"same email":  {Name: "Outra", Email: "ana@mail.com"},
			"same mobile": {Name: "Outra", Mobile: "(11) 98765-4321"},
		} {
			t.Run(name, func(t *testing.T) {
				_, err := f.svc.Create(ctx, f.admin, in)
				var verr *core.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, "name", verr.Fields[0].Field)
			})
		}
	})

	t.Run("unknown family", func(t *testing.T) {
		_, err := f.svc.Create(ctx, f.admin, person.Input{Name: "Sem Família", FamilyID: "nope"})
		var verr *core.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "family_id", verr.Fields[0].Field)
	})

	t.Run("new convert gets a conversion date", func(t *testing.T) {
		testutil.FreezeTime(t, time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC))
		p, err := f.svc.Create(ctx, f.admin, person.Input{Name: "Lucas", Status: person.StatusNewConvert})
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), p.ConversionDate.Time)
	})
}

func TestService_CreateMemberLimit(t *testing.T) {
	f := setup(t, church.PlanBasic)
	ctx := context.Background()
	for i := 0; i < church.Plans[church.PlanBasic].MaxMembers; i++ {
		testutil.CreatePerson(t, f.db, f.church.ID, fmt.Sprintf("Pessoa %03d", i), person.StatusMember)
	}
	_, err := f.svc.Create(ctx, f.admin, person.Input{Name: "Mais Uma"})
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "plan", verr.Fields[0].Field)
}

func TestService_Query(t *testing.T) {
	f := setup(t, church.PlanPremium)
	ctx := context.Background()

	other := testutil.CreateChurch(t, f.db, "Outra Igreja", church.PlanPremium)
	testutil.CreatePerson(t, f.db, other.ID, "Zeca de Fora", person.StatusMember)

	ana := testutil.CreatePerson(t, f.db, f.church.ID, "Ana", person.StatusMember, testutil.WithEmail("ana@mail.com"))
	bia := testutil.CreatePerson(t, f.db, f.church.ID, "Bia", person.StatusVisitor, testutil.WithMobile("11999990000"))
	deleted := testutil.CreatePerson(t, f.db, f.church.ID, "Carla", person.StatusMember)
	require.NoError(t, f.svc.Delete(ctx, f.admin, deleted.ID))

	youth, err := f.svc.CreateTag(ctx, f.admin, person.NewTag{Name: "Jovens"})
	require.NoError(t, err)
	assert.Equal(t, "#3498db", youth.Color)
	require.NoError(t, f.svc.SetTags(ctx, f.admin, bia.ID, []string{youth.ID}))

	names := func(items []person.ListItem) []string {
		out := make([]string, 0, len(items))
		for _, it := range items {
			out = append(out, it.Name)
		}
		return out
	}

	tests := []struct {
		name   string
		filter person.QueryFilter
		want   []string
	}{
		{name: "all active", want: []string{"Ana", "Bia"}},
		{name: "by status", filter: person.QueryFilter{Status: person.StatusMember}, want: []string{"Ana"}},
		{name: "search email", filter: person.QueryFilter{Search: "ANA@"}, want: []string{"Ana"}},
		{name: "search mobile", filter: person.QueryFilter{Search: "9999"}, want: []string{"Bia"}},
		{name: "by tag", filter: person.QueryFilter{TagID: youth.ID}, want: []string{"Bia"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := f.svc.Query(ctx, f.admin, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(items))
		})
	}

	items, err := f.svc.Query(ctx, f.admin, person.QueryFilter{TagID: youth.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"Jovens"}, items[0].Tags)

	_, err = f.svc.Get(ctx, f.admin, deleted.ID)
	assert.True(t, core.IsNotFound(err))
	_, err = f.svc.Get(ctx, f.admin, ana.ID)
	assert.NoError(t, err)

	t.Run("duplicate tag", func(t *testing.T) {
		_, err := f.svc.CreateTag(ctx, f.admin, person.NewTag{Name: "jovens"})
		assert.Error(t, err)
	})
}

func TestService_Delete(t *testing.T) {
	f := setup(t, church.PlanPremium)
	ctx := context.Background()

	err := f.svc.Delete(ctx, f.admin, "unknown")
	assert.True(t, core.IsNotFound(err))

	p := testutil.CreatePerson(t, f.db, f.church.ID, "Ana", person.StatusMember)
	require.NoError(t, f.svc.Delete(ctx, f.admin, p.ID))

	// a soft-deleted person no longer counts as a duplicate
	dup, err := f.svc.CheckDuplicate(ctx, f.admin, "Ana", "", "", "")
	require.NoError(t, err)
	assert.False(t, dup)
}

func TestService_UpdateStatus(t *testing.T) {
	f := setup(t, church.PlanPremium)
	ctx := context.Background()
	testutil.FreezeTime(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	p := testutil.CreatePerson(t, f.db, f.church.ID, "Ana", person.StatusVisitor)

	_, err := f.svc.UpdateStatus(ctx, f.admin, p.ID, "santo")
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)

	p, err = f.svc.UpdateStatus(ctx, f.admin, p.ID, person.StatusNewConvert)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), p.ConversionDate.Time)
	assert.False(t, p.MembershipDate.Valid)

	testutil.FreezeTime(t, time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC))
	p, err = f.svc.UpdateStatus(ctx, f.admin, p.ID, person.StatusMember)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), p.ConversionDate.Time)
	assert.Equal(t, time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC), p.MembershipDate.Time)

	// existing dates are kept
	p, err = f.svc.UpdateStatus(ctx, f.admin, p.ID, person.StatusMember)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC), p.MembershipDate.Time)

	got, err := f.svc.Get(ctx, f.admin, p.ID)
	require.NoError(t, err)
	assert.Equal(t, person.StatusMember, got.Status)
}

func TestService_Families(t *testing.T) {
	f := setup(t, church.PlanPremium)
	ctx := context.Background()

	fam, err := f.svc.CreateFamily(ctx, f.admin, person.NewFamily{Name: " Família Silva "})
	require.NoError(t, err)
	assert.Equal(t, "Família Silva", fam.Name)

	_, err = f.svc.Create(ctx, f.admin, person.Input{Name: "João Silva", FamilyID: fam.ID})
	require.NoError(t, err)

	families, err := f.svc.QueryFamilies(ctx, f.admin)
	require.NoError(t, err)
	require.Len(t, families, 1)
	assert.Equal(t, 1, families[0].MemberCount)

	items, err := f.svc.Query(ctx, f.admin, person.QueryFilter{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Família Silva", items[0].FamilyName.String)
}

func TestService_History(t *testing.T) {
	f := setup(t, church.PlanPremium)
	ctx := context.Background()
	p := testutil.CreatePerson(t, f.db, f.church.ID, "Ana", person.StatusMember)
	counselor := testutil.CreatePerson(t, f.db, f.church.ID, "Pr. Marcos", person.StatusPastor)

	now := core.NowFunc()
	_, err := f.db.ExecContext(ctx, f.db.Rebind(`INSERT INTO counseling_sessions
		(id, church_id, person_id, counselor_id, session_date, session_type, created_at, updated_at)
		VALUES ('cs1', ?, ?, ?, ?, 'familiar', ?, ?)`), f.church.ID, p.ID, counselor.ID, now, now, now)
	require.NoError(t, err)

	h, err := f.svc.History(ctx, f.admin, p.ID)
	require.NoError(t, err)
	require.Len(t, h.Counseling, 1)
	assert.Equal(t, "Pr. Marcos", h.Counseling[0].CounselorName)

	secretary := f.admin
	secretary.Profile = user.ProfileSecretary
	h, err = f.svc.History(ctx, secretary, p.ID)
	require.NoError(t, err)
	assert.Empty(t, h.Counseling)
	assert.NotNil(t, h.Attendance)
}

func TestService_LGPD(t *testing.T) {
	f := setup(t, church.PlanPremium)
	ctx := context.Background()
	p := testutil.CreatePerson(t, f.db, f.church.ID, "Ana Souza", person.StatusMember, testutil.WithEmail("ana@mail.com"))

	now := core.NowFunc()
	_, err := f.db.ExecContext(ctx, f.db.Rebind(`INSERT INTO donations
		(id, church_id, person_id, amount, donation_type, donated_at, created_at)
		VALUES ('d1', ?, ?, 15000, 'dizimo', ?, ?)`), f.church.ID, p.ID, core.Today(now), now)
	require.NoError(t, err)

	consent, err := f.svc.RecordConsent(ctx, f.admin, p.ID, person.NewConsent{ConsentType: "Comunicacao", Granted: true})
	require.NoError(t, err)
	assert.Equal(t, "comunicacao", consent.ConsentType)

	exp, err := f.svc.ExportData(ctx, f.admin, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana@mail.com", exp.Person.Email)
	require.Len(t, exp.Donations, 1)
	assert.Equal(t, core.Money(15000), exp.Donations[0].Amount)
	require.Len(t, exp.Consents, 1)

	require.NoError(t, f.svc.Anonymize(ctx, f.admin, p.ID))
	_, err = f.svc.Get(ctx, f.admin, p.ID)
	assert.True(t, core.IsNotFound(err))

	var row struct {
		PersonID    *string `db:"person_id"`
		IsAnonymous bool    `db:"is_anonymous"`
	}
	require.NoError(t, f.db.GetContext(ctx, &row, "SELECT person_id, is_anonymous FROM donations WHERE id = 'd1'"))
	assert.Nil(t, row.PersonID)
	assert.True(t, row.IsAnonymous)

	var name string
	require.NoError(t, f.db.GetContext(ctx, &name, f.db.Rebind("SELECT name FROM people WHERE id = ?"), p.ID))
	assert.Equal(t, "Anônimo", name)
}

package event_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/igreja/core"
	"github.com/trezcool/igreja/core/church"
	"github.com/trezcool/igreja/core/event"
	"github.com/trezcool/igreja/core/person"
	"github.com/trezcool/igreja/core/user"
	sqlxrepos "github.com/trezcool/igreja/storage/database/sqlx"
	testutil "github.com/trezcool/igreja/tests"
)

func setup(t *testing.T) (core.DB, *event.Service, core.Actor) {
	t.Helper()
	db := testutil.OpenDB(t)
	ch := testutil.CreateChurch(t, db, "Igreja Central", church.PlanPremium)
	usr := testutil.CreateUser(t, db, ch.ID, "Secretaria", "sec@igreja.com", "Adm1n!pass", user.ProfileSecretary, true)
	svc := event.NewService(db, sqlxrepos.NewEventRepository(), testutil.NopActionLogger{})
	return db, svc, usr.Actor()
}

func TestService_Query(t *testing.T) {
	_, svc, actor := setup(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)
	testutil.FreezeTime(t, now)

	for name, startsAt := range map[string]time.Time{
		"Culto passado":  now.AddDate(0, 0, -7),
		"Culto de hoje":  now.Add(-5 * time.Hour),
		"Culto à noite":  now.Add(4 * time.Hour),
		"Retiro de maio": now.AddDate(0, 2, 0),
	} {
		_, err := svc.Create(ctx, actor, event.EventInput{Name: name, Type: "Culto Dominical", StartsAt: startsAt})
		require.NoError(t, err)
	}

	names := func(events []event.EventListItem) []string {
		res := make([]string, 0, len(events))
		for _, e := range events {
			res = append(res, e.Name)
		}
		return res
	}

	tests := []struct {
		filter string
		want   []string
	}{
		{event.FilterUpcoming, []string{"Culto de hoje", "Culto à noite", "Retiro de maio"}},
		{event.FilterPast, []string{"Culto passado"}},
		{event.FilterToday, []string{"Culto de hoje", "Culto à noite"}},
		{event.FilterAll, []string{"Culto passado", "Culto de hoje", "Culto à noite", "Retiro de maio"}},
	}
	for _, tc := range tests {
		t.Run(tc.filter, func(t *testing.T) {
			events, err := svc.Query(ctx, actor, tc.filter)
			require.NoError(t, err)
			assert.Equal(t, tc.want, names(events))
		})
	}
}

func TestService_Create(t *testing.T) {
	_, svc, actor := setup(t)
	ctx := context.Background()
	starts := time.Date(2024, 3, 10, 19, 0, 0, 0, time.UTC)

	e, err := svc.Create(ctx, actor, event.EventInput{Name: "Conferência", Type: "Conferência", StartsAt: starts})
	require.NoError(t, err)
	assert.Len(t, e.CheckinCode, 8)
	assert.Regexp(t, `^[0-9A-F]{8}$`, e.CheckinCode)

	tests := []struct {
		name  string
		in    event.EventInput
		field string
	}{
		{"unknown type", event.EventInput{Name: "X", Type: "Festa", StartsAt: starts}, "type"},
		{"missing start", event.EventInput{Name: "X", Type: "Outro"}, "starts_at"},
		{"ends before start", event.EventInput{Name: "X", Type: "Outro", StartsAt: starts, EndsAt: null.TimeFrom(starts.Add(-time.Hour))}, "ends_at"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, actor, tc.in)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.field)
		})
	}

	t.Run("update keeps the code", func(t *testing.T) {
		updated, err := svc.Update(ctx, actor, e.ID, event.EventInput{Name: "Conferência 2024", Type: "Conferência", StartsAt: starts})
		require.NoError(t, err)
		assert.Equal(t, e.CheckinCode, updated.CheckinCode)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, svc.Delete(ctx, actor, e.ID))
		_, err := svc.Get(ctx, actor, e.ID)
		assert.True(t, core.IsNotFound(err))
	})
}

func TestService_Attendance(t *testing.T) {
	db, svc, actor := setup(t)
	ctx := context.Background()
	ana := testutil.CreatePerson(t, db, actor.ChurchID, "Ana Souza", person.StatusMember)
	bia := testutil.CreatePerson(t, db, actor.ChurchID, "Bia Costa", person.StatusVisitor)
	caio := testutil.CreatePerson(t, db, actor.ChurchID, "Caio Reis", person.StatusMember)

	e, err := svc.Create(ctx, actor, event.EventInput{
		Name:     "Retiro",
		Type:     "Retiro",
		StartsAt: time.Date(2024, 3, 10, 19, 0, 0, 0, time.UTC),
		Capacity: 2,
	})
	require.NoError(t, err)

	regAna, err := svc.Register(ctx, actor, e.ID, ana.ID)
	require.NoError(t, err)
	again, err := svc.Register(ctx, actor, e.ID, ana.ID)
	require.NoError(t, err)
	assert.Equal(t, regAna.ID, again.ID)
	assert.Equal(t, regAna.Code, again.Code)

	regBia, err := svc.Register(ctx, actor, e.ID, bia.ID)
	require.NoError(t, err)
	assert.NotEqual(t, regAna.Code, regBia.Code)

	_, err = svc.Register(ctx, actor, e.ID, caio.ID)
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "evento lotado", verr.Fields[0].Error)

	ok, err := svc.CheckIn(ctx, actor, e.ID, ana.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = svc.CheckIn(ctx, actor, e.ID, ana.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	reg, ok, err := svc.CheckInByCode(ctx, actor, " "+regBia.Code+" ")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, bia.ID, reg.PersonID)

	_, _, err = svc.CheckInByCode(ctx, actor, "NOPE1234")
	assert.True(t, core.IsNotFound(err))

	// walk-ins don't need a registration
	ok, err = svc.CheckIn(ctx, actor, e.ID, caio.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	item, err := svc.Get(ctx, actor, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, item.Registrations)
	assert.Equal(t, 3, item.Attendance)

	registrants, err := svc.Registrants(ctx, actor, e.ID)
	require.NoError(t, err)
	require.Len(t, registrants, 2)
	assert.True(t, registrants[0].Present)

	attendees, err := svc.Attendees(ctx, actor, e.ID)
	require.NoError(t, err)
	assert.Len(t, attendees, 3)

	candidates, err := svc.NotCheckedIn(ctx, actor, e.ID)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

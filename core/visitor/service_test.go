package visitor_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/trezcool/igreja/core"
	"github.com/trezcool/igreja/core/church"
	"github.com/trezcool/igreja/core/person"
	"github.com/trezcool/igreja/core/user"
	"github.com/trezcool/igreja/core/visitor"
	logsvc "github.com/trezcool/igreja/services/logger"
	sqlxrepos "github.com/trezcool/igreja/storage/database/sqlx"
	testutil "github.com/trezcool/igreja/tests"
)

type fixture struct {
	db     core.DB
	svc    *visitor.Service
	church church.Church
	staff  core.Actor
	logs   *observer.ObservedLogs
}

func setup(t *testing.T, repo visitor.Repository) fixture {
	t.Helper()
	db := testutil.OpenDB(t)
	obs, logs := observer.New(zapcore.WarnLevel)
	logger := logsvc.NewRollbarLogger(zap.New(obs), core.NewTestConfig())

	if repo == nil {
		repo = sqlxrepos.NewVisitorRepository()
	}
	ch := testutil.CreateChurch(t, db, "Igreja Central", church.PlanPremium)
	receptionist := testutil.CreatePerson(t, db, ch.ID, "Recepção", person.StatusWorker)
	usr := testutil.CreateUser(t, db, ch.ID, "Secretaria", "sec@igreja.com", "Adm1n!pass", user.ProfileSecretary, true)
	staff := usr.Actor()
	staff.PersonID = receptionist.ID

	return fixture{
		db:     db,
		svc:    visitor.NewService(db, repo, logger, testutil.NopActionLogger{}),
		church: ch,
		staff:  staff,
		logs:   logs,
	}
}

func (f fixture) createFlows(t *testing.T, days ...int) {
	t.Helper()
	for _, d := range days {
		_, err := f.svc.CreateFlow(context.Background(), f.staff, visitor.FlowInput{
			Name:      fmt.Sprintf("Contato %d dias", d),
			DaysAfter: d,
			Template:  "Olá {nome}!",
		})
		require.NoError(t, err)
	}
}

func TestService_RegisterVisit(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()
	testutil.FreezeTime(t, time.Date(2024, 5, 5, 10, 30, 0, 0, time.UTC))

	f.createFlows(t, 1, 7, 30)
	inactive := false
	_, err := f.svc.CreateFlow(ctx, f.staff, visitor.FlowInput{Name: "Desativado", DaysAfter: 2, IsActive: &inactive})
	require.NoError(t, err)
	_, err = f.svc.CreateFlow(ctx, f.staff, visitor.FlowInput{Name: "Conversão", Trigger: visitor.TriggerConversion})
	require.NoError(t, err)

	ana := testutil.CreatePerson(t, f.db, f.church.ID, "Ana Lima", person.StatusVisitor, testutil.WithMobile("11987654321"))
	v, err := f.svc.RegisterVisit(ctx, f.staff, visitor.NewVisit{PersonID: ana.ID, ServiceType: "Culto Dominical", HowHeard: "Amigo"})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 5, 10, 30, 0, 0, time.UTC), v.VisitDate)
	assert.Equal(t, f.staff.PersonID, v.ReceptionistID.String)

	var receptionist sql.NullString
	require.NoError(t, f.db.GetContext(ctx, &receptionist,
		f.db.Rebind("SELECT receptionist_id FROM visits WHERE id = ?"), v.ID))
	assert.Equal(t, f.staff.PersonID, receptionist.String)

	fus, err := f.svc.PendingFollowUps(ctx, f.staff)
	require.NoError(t, err)
	require.Len(t, fus, 3)
	wantDue := []time.Time{
		time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 5, 12, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC),
	}
	for i, fu := range fus {
		assert.True(t, wantDue[i].Equal(fu.DueDate), "due date %d: got %s", i, fu.DueDate)
		assert.Equal(t, visitor.FollowUpPending, fu.Status)
		assert.Equal(t, "Olá {nome}!", fu.Notes)
		assert.Equal(t, "Ana Lima", fu.PersonName)
		assert.Equal(t, "https://wa.me/5511987654321?text=Ol%C3%A1%20Ana%21", fu.WhatsAppLink)
	}

	t.Run("unknown person", func(t *testing.T) {
		_, err := f.svc.RegisterVisit(ctx, f.staff, visitor.NewVisit{PersonID: "nope"})
		assert.True(t, core.IsNotFound(err))
	})

	t.Run("other church flows are ignored", func(t *testing.T) {
		other := testutil.CreateChurch(t, f.db, "Outra", church.PlanPremium)
		otherActor := core.Actor{ChurchID: other.ID, UserID: f.staff.UserID}
		bob := testutil.CreatePerson(t, f.db, other.ID, "Bob", person.StatusVisitor)
		v, err := f.svc.RegisterVisit(ctx, otherActor, visitor.NewVisit{PersonID: bob.ID})
		require.NoError(t, err)
		assert.False(t, v.ReceptionistID.Valid)
		fus, err := f.svc.PendingFollowUps(ctx, otherActor)
		require.NoError(t, err)
		assert.Empty(t, fus)
	})
}

type failingFollowUps struct {
	visitor.Repository
}

func (failingFollowUps) CreateFollowUp(context.Context, core.DBExecutor, visitor.FollowUp) (visitor.FollowUp, error) {
	return visitor.FollowUp{}, errors.New("disk full")
}

func TestService_RegisterVisitSwallowsFollowUpErrors(t *testing.T) {
	f := setup(t, failingFollowUps{sqlxrepos.NewVisitorRepository()})
	ctx := context.Background()
	f.createFlows(t, 1, 7)

	ana := testutil.CreatePerson(t, f.db, f.church.ID, "Ana", person.StatusVisitor)
	_, err := f.svc.RegisterVisit(ctx, f.staff, visitor.NewVisit{PersonID: ana.ID})
	require.NoError(t, err)

	warnings := f.logs.FilterMessage("creating automatic follow-up").All()
	assert.Len(t, warnings, 2)

	recent, err := f.svc.RecentVisitors(ctx, f.staff, 0)
	require.NoError(t, err)
	require.Len(t, recent, 1)
}

func TestService_UpdateFollowUp(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()
	f.createFlows(t, 1)
	ana := testutil.CreatePerson(t, f.db, f.church.ID, "Ana", person.StatusVisitor)
	_, err := f.svc.RegisterVisit(ctx, f.staff, visitor.NewVisit{PersonID: ana.ID})
	require.NoError(t, err)
	fus, err := f.svc.PendingFollowUps(ctx, f.staff)
	require.NoError(t, err)
	require.Len(t, fus, 1)
	id := fus[0].ID

	_, err = f.svc.UpdateFollowUp(ctx, f.staff, id, visitor.FollowUpUpdate{Status: "pendente"})
	require.Error(t, err, "cannot move back to pending")

	fu, err := f.svc.UpdateFollowUp(ctx, f.staff, id, visitor.FollowUpUpdate{Status: "Realizado", Result: " Ligou, virá domingo "})
	require.NoError(t, err)
	assert.Equal(t, visitor.FollowUpDone, fu.Status)
	assert.Equal(t, "Ligou, virá domingo", fu.Result)
	assert.True(t, fu.CompletedAt.Valid)
	assert.Equal(t, f.staff.PersonID, fu.ResponsibleID.String)

	fus, err = f.svc.PendingFollowUps(ctx, f.staff)
	require.NoError(t, err)
	assert.Empty(t, fus)

	for _, status := range []string{visitor.FollowUpCanceled, visitor.FollowUpDone} {
		_, err = f.svc.UpdateFollowUp(ctx, f.staff, id, visitor.FollowUpUpdate{Status: status})
		var verr *core.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, visitor.ErrFollowUpFinished, verr.Err)
	}

	_, err = f.svc.UpdateFollowUp(ctx, f.staff, "unknown", visitor.FollowUpUpdate{Status: visitor.FollowUpDone})
	assert.True(t, core.IsNotFound(err))
}

func TestService_VisitorReports(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()

	visit := func(p person.Person, at time.Time) {
		testutil.FreezeTime(t, at)
		_, err := f.svc.RegisterVisit(ctx, f.staff, visitor.NewVisit{PersonID: p.ID, HowHeard: "Instagram"})
		require.NoError(t, err)
	}
	ana := testutil.CreatePerson(t, f.db, f.church.ID, "Ana", person.StatusVisitor)
	bia := testutil.CreatePerson(t, f.db, f.church.ID, "Bia", person.StatusVisitor)
	caio := testutil.CreatePerson(t, f.db, f.church.ID, "Caio", person.StatusVisitor)

	visit(ana, time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC))
	visit(ana, time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC))
	visit(bia, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	visit(caio, time.Date(2024, 5, 10, 10, 0, 0, 0, time.UTC))

	testutil.FreezeTime(t, time.Date(2024, 5, 24, 9, 0, 0, 0, time.UTC))

	t.Run("recent", func(t *testing.T) {
		recent, err := f.svc.RecentVisitors(ctx, f.staff, 30)
		require.NoError(t, err)
		require.Len(t, recent, 3)
		assert.Equal(t, "Ana", recent[0].Name)
		assert.Equal(t, 2, recent[0].TotalVisits)
		assert.Equal(t, 20, recent[0].LastVisit.Day())

		recent, err = f.svc.RecentVisitors(ctx, f.staff, 10)
		require.NoError(t, err)
		require.Len(t, recent, 1)
	})

	t.Run("not returned", func(t *testing.T) {
		absent, err := f.svc.NotReturned(ctx, f.staff, 14)
		require.NoError(t, err)
		require.Len(t, absent, 2)
		assert.Equal(t, "Bia", absent[0].Name)
		assert.Equal(t, 23, absent[0].DaysAbsent)
		assert.Equal(t, "Caio", absent[1].Name)
		assert.Equal(t, 14, absent[1].DaysAbsent)
	})

	t.Run("conversion report", func(t *testing.T) {
		pSvc := person.NewService(f.db, sqlxrepos.NewPersonRepository(), church.NewService(f.db, sqlxrepos.NewChurchRepository(), testutil.NopActionLogger{}), testutil.NopActionLogger{})
		_, err := pSvc.UpdateStatus(ctx, f.staff, caio.ID, person.StatusMember)
		require.NoError(t, err)

		rep, err := f.svc.ConversionReport(ctx, f.staff)
		require.NoError(t, err)
		assert.Equal(t, 2, rep.Visitors)
		assert.Equal(t, 1, rep.NewMembers)
		assert.Equal(t, 3, rep.DistinctVisitors)
		assert.Equal(t, 1, rep.Returning)
		assert.InDelta(t, 50.0, rep.ConversionRate, 0.001)
		assert.InDelta(t, 33.333, rep.ReturnRate, 0.001)
		assert.Equal(t, []visitor.MonthCount{{Month: "2024-04", Total: 1}, {Month: "2024-05", Total: 3}}, rep.VisitorsPerMonth)

		stats, err := f.svc.FunnelStats(ctx, f.staff)
		require.NoError(t, err)
		assert.Equal(t, 2, stats.Stages[person.StatusVisitor])
		assert.Equal(t, 1, stats.Stages[person.StatusMember])
		assert.InDelta(t, 14.0, stats.AvgDaysToMember, 0.001)
	})
}

func TestService_PrayerRequestsAndInterests(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()
	ana := testutil.CreatePerson(t, f.db, f.church.ID, "Ana", person.StatusVisitor)

	_, err := f.svc.AddPrayerRequest(ctx, f.staff, visitor.NewPrayerRequest{PersonID: ana.ID, Request: "Saúde da família"})
	require.NoError(t, err)
	_, err = f.svc.AddPrayerRequest(ctx, f.staff, visitor.NewPrayerRequest{Request: "Emprego", IsPrivate: true})
	require.NoError(t, err)
	_, err = f.svc.AddPrayerRequest(ctx, f.staff, visitor.NewPrayerRequest{Request: " "})
	assert.Error(t, err)

	public, err := f.svc.PrayerRequests(ctx, f.staff, false)
	require.NoError(t, err)
	assert.Len(t, public, 1)
	all, err := f.svc.PrayerRequests(ctx, f.staff, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	saved, err := f.svc.AddInterests(ctx, f.staff, ana.ID, []string{"Célula", " ", "Batismo"})
	require.NoError(t, err)
	assert.Len(t, saved, 2)
	interests, err := f.svc.Interests(ctx, f.staff, ana.ID)
	require.NoError(t, err)
	assert.Len(t, interests, 2)
}

func TestRenderTemplate(t *testing.T) {
	msg := visitor.RenderTemplate(visitor.TemplateReturnInvite, visitor.TemplateVars{Name: "Ana", Days: 21})
	assert.Contains(t, msg, "Olá Ana!")
	assert.Contains(t, msg, "Já faz 21 dias")

	msg = visitor.RenderTemplate(visitor.TemplateBirthday, visitor.TemplateVars{Name: "Ana", Church: "Igreja Central"})
	assert.Contains(t, msg, "família Igreja Central")
	assert.Empty(t, visitor.RenderTemplate("unknown", visitor.TemplateVars{}))
}

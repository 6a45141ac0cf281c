package notification_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/igreja/core"
	"github.com/trezcool/igreja/core/church"
	"github.com/trezcool/igreja/core/event"
	"github.com/trezcool/igreja/core/goal"
	"github.com/trezcool/igreja/core/notification"
	"github.com/trezcool/igreja/core/person"
	"github.com/trezcool/igreja/core/user"
	"github.com/trezcool/igreja/core/visitor"
	sqlxrepos "github.com/trezcool/igreja/storage/database/sqlx"
	testutil "github.com/trezcool/igreja/tests"
)

type fixture struct {
	svc       *notification.Service
	churchID  string
	admin     core.Actor
	pastor    core.Actor
	secretary core.Actor
}

func setup(t *testing.T) fixture {
	t.Helper()
	db := testutil.OpenDB(t)
	testutil.FreezeTime(t, time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC))

	ch := testutil.CreateChurch(t, db, "Igreja Central", church.PlanPro)
	admin := testutil.CreateUser(t, db, ch.ID, "Ana Admin", "admin@igreja.com", "Adm1n!pass", user.ProfileAdmin, true)
	pastor := testutil.CreateUser(t, db, ch.ID, "Pr. Marcos", "pastor@igreja.com", "Adm1n!pass", user.ProfilePastor, true)
	secretary := testutil.CreateUser(t, db, ch.ID, "Rui", "rui@igreja.com", "Adm1n!pass", user.ProfileSecretary, true)

	return fixture{
		svc:       notification.NewService(db, sqlxrepos.NewNotificationRepository()),
		churchID:  ch.ID,
		admin:     admin.Actor(),
		pastor:    pastor.Actor(),
		secretary: secretary.Actor(),
	}
}

func TestService_Notifications(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	t.Run("invalid", func(t *testing.T) {
		_, err := f.svc.Create(ctx, f.admin, notification.NewNotification{UserID: f.pastor.UserID})
		assert.Error(t, err)
		_, err = f.svc.Create(ctx, f.admin, notification.NewNotification{UserID: f.pastor.UserID, Title: "x", Priority: "urgente"})
		assert.Error(t, err)
		_, err = f.svc.Create(ctx, f.admin, notification.NewNotification{UserID: "nope", Title: "x"})
		assert.ErrorIs(t, err, notification.ErrUserNotFound)
	})

	first, err := f.svc.Create(ctx, f.admin, notification.NewNotification{
		UserID: f.pastor.UserID,
		Title:  "Bem-vindo",
		Data:   map[string]interface{}{"origem": "cadastro"},
	})
	require.NoError(t, err)
	assert.Equal(t, notification.TypeSystem, first.Type)
	assert.Equal(t, notification.PriorityNormal, first.Priority)
	assert.JSONEq(t, `{"origem": "cadastro"}`, first.Data)

	testutil.FreezeTime(t, core.NowFunc().Add(time.Minute))
	second, err := f.svc.Create(ctx, f.admin, notification.NewNotification{
		UserID:   f.pastor.UserID,
		Type:     notification.TypeEvent,
		Title:    "Culto especial",
		Priority: notification.PriorityHigh,
	})
	require.NoError(t, err)

	n, err := f.svc.UnreadCount(ctx, f.pastor)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	list, err := f.svc.Query(ctx, f.pastor, notification.Filter{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)

	// notifications belong to their user
	assert.ErrorIs(t, f.svc.MarkRead(ctx, f.admin, first.ID), notification.ErrNotFound)
	require.NoError(t, f.svc.MarkRead(ctx, f.pastor, first.ID))

	list, err = f.svc.Query(ctx, f.pastor, notification.Filter{Read: "false"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, second.ID, list[0].ID)

	list, err = f.svc.Query(ctx, f.pastor, notification.Filter{Read: "TRUE"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].ReadAt.Valid)

	_, err = f.svc.Query(ctx, f.pastor, notification.Filter{Read: "talvez"})
	assert.Error(t, err)

	marked, err := f.svc.MarkAllRead(ctx, f.pastor)
	require.NoError(t, err)
	assert.Equal(t, 1, marked)
	n, err = f.svc.UnreadCount(ctx, f.pastor)
	require.NoError(t, err)
	assert.Zero(t, n)

	t.Run("purge", func(t *testing.T) {
		testutil.FreezeTime(t, core.NowFunc().AddDate(0, 0, 10))
		purged, err := f.svc.Purge(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, 2, purged)

		list, err := f.svc.Query(ctx, f.pastor, notification.Filter{})
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("delete", func(t *testing.T) {
		nt, err := f.svc.Create(ctx, f.admin, notification.NewNotification{UserID: f.admin.UserID, Title: "Lembrete"})
		require.NoError(t, err)
		assert.ErrorIs(t, f.svc.Delete(ctx, f.pastor, nt.ID), notification.ErrNotFound)
		require.NoError(t, f.svc.Delete(ctx, f.admin, nt.ID))
	})
}

func TestService_Settings(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	s, err := f.svc.Settings(ctx, f.pastor)
	require.NoError(t, err)
	assert.Equal(t, notification.DefaultSettings(f.pastor.UserID), s)

	s.Birthdays = false
	s.WhatsAppEnabled = false
	_, err = f.svc.SaveSettings(ctx, f.pastor, s)
	require.NoError(t, err)

	s.Events = false
	_, err = f.svc.SaveSettings(ctx, f.pastor, s)
	require.NoError(t, err)

	got, err := f.svc.Settings(ctx, f.pastor)
	require.NoError(t, err)
	assert.False(t, got.Birthdays)
	assert.False(t, got.WhatsAppEnabled)
	assert.False(t, got.Events)
	assert.True(t, got.Visitors)
	assert.True(t, core.NowFunc().Equal(got.UpdatedAt))
}

func TestService_Alerts(t *testing.T) {
	f := alertsFixture(t)
	ctx := context.Background()

	alerts, err := f.svc.Alerts(ctx, f.churchID)
	require.NoError(t, err)

	titles := make([]string, 0, len(alerts))
	for _, a := range alerts {
		titles = append(titles, a.Title)
	}
	assert.Equal(t, []string{
		"Aniversário: Ana Souza",
		"Follow-up pendente: Davi Lima",
		"Evento: Congresso",
		"Meta vence em breve: Oferta",
		"Meta vence em breve: Células",
	}, titles)
	assert.Equal(t, "Aniversário em 03/07", alerts[0].Message)
	assert.Equal(t, "Previsto para 20/06/2024", alerts[1].Message)
	assert.Equal(t, "05/07/2024 às 19:00 - Templo", alerts[2].Message)
	assert.Equal(t, "Prazo: 10/07/2024 | Progresso: 10%", alerts[3].Message)
	assert.Equal(t, notification.PriorityHigh, alerts[3].Priority)
	assert.Equal(t, notification.PriorityNormal, alerts[4].Priority)

	t.Run("deliver", func(t *testing.T) {
		// the pastor opted out of birthday alerts
		s := notification.DefaultSettings(f.pastor.UserID)
		s.Birthdays = false
		_, err := f.svc.SaveSettings(ctx, f.pastor, s)
		require.NoError(t, err)

		created, err := f.svc.Deliver(ctx, f.churchID)
		require.NoError(t, err)
		assert.Equal(t, 9, created)

		created, err = f.svc.Deliver(ctx, f.churchID)
		require.NoError(t, err)
		assert.Zero(t, created)

		n, err := f.svc.UnreadCount(ctx, f.pastor)
		require.NoError(t, err)
		assert.Equal(t, 4, n)
		n, err = f.svc.UnreadCount(ctx, f.secretary)
		require.NoError(t, err)
		assert.Zero(t, n)

		testutil.FreezeTime(t, core.NowFunc().AddDate(0, 0, 1))
		created, err = f.svc.Deliver(ctx, f.churchID)
		require.NoError(t, err)
		assert.NotZero(t, created)
	})
}

func alertsFixture(t *testing.T) fixture {
	t.Helper()
	db := testutil.OpenDB(t)
	testutil.FreezeTime(t, time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC))
	ctx := context.Background()

	ch := testutil.CreateChurch(t, db, "Igreja Central", church.PlanPro)
	admin := testutil.CreateUser(t, db, ch.ID, "Ana Admin", "admin@igreja.com", "Adm1n!pass", user.ProfileAdmin, true)
	pastor := testutil.CreateUser(t, db, ch.ID, "Pr. Marcos", "pastor@igreja.com", "Adm1n!pass", user.ProfilePastor, true)
	secretary := testutil.CreateUser(t, db, ch.ID, "Rui", "rui@igreja.com", "Adm1n!pass", user.ProfileSecretary, true)

	date := func(s string) time.Time { return core.ParseDateOrZero(s).Time }
	testutil.CreatePerson(t, db, ch.ID, "Ana Souza", person.StatusMember, testutil.WithBirthDate(date("1990-07-03")))
	testutil.CreatePerson(t, db, ch.ID, "Bruno Reis", person.StatusMember, testutil.WithBirthDate(date("1985-07-20")))
	testutil.CreatePerson(t, db, ch.ID, "Carla Dias", person.StatusMember, testutil.WithBirthDate(date("1992-06-30")))

	visitors := sqlxrepos.NewVisitorRepository()
	followUp := func(personID, due string) {
		_, err := visitors.CreateFollowUp(ctx, db, visitor.FollowUp{
			ChurchID:  ch.ID,
			PersonID:  personID,
			Type:      "Boas-vindas",
			DueDate:   date(due),
			Status:    visitor.FollowUpPending,
			CreatedAt: core.NowFunc(),
		})
		require.NoError(t, err)
	}
	davi := testutil.CreatePerson(t, db, ch.ID, "Davi Lima", person.StatusVisitor)
	eva := testutil.CreatePerson(t, db, ch.ID, "Eva Rocha", person.StatusVisitor)
	followUp(davi.ID, "2024-06-20")
	followUp(davi.ID, "2024-06-22")
	followUp(eva.ID, "2024-06-28")

	events := sqlxrepos.NewEventRepository()
	for _, e := range []event.Event{
		{Name: "Congresso", StartsAt: time.Date(2024, 7, 5, 19, 0, 0, 0, time.UTC), Location: "Templo"},
		{Name: "Retiro", StartsAt: time.Date(2024, 7, 15, 9, 0, 0, 0, time.UTC)},
	} {
		e.ChurchID = ch.ID
		e.Type = "Outro"
		e.CheckinCode = e.Name
		e.IsActive = true
		e.CreatedAt = core.NowFunc()
		_, err := events.CreateEvent(ctx, db, e)
		require.NoError(t, err)
	}

	goals := sqlxrepos.NewGoalRepository()
	for _, g := range []goal.Goal{
		{Title: "Oferta", TargetValue: 100, CurrentValue: 10, EndDate: date("2024-07-10")},
		{Title: "Células", TargetValue: 100, CurrentValue: 80, EndDate: date("2024-07-12")},
		{Title: "Batismos", TargetValue: 100, CurrentValue: 0, EndDate: date("2024-08-30")},
	} {
		g.ChurchID = ch.ID
		g.MetricType = goal.MetricNumber
		g.Status = goal.StatusInProgress
		g.StartDate = date("2024-01-01")
		g.CreatedAt = core.NowFunc()
		g.UpdatedAt = core.NowFunc()
		_, err := goals.CreateGoal(ctx, db, g)
		require.NoError(t, err)
	}

	return fixture{
		svc:       notification.NewService(db, sqlxrepos.NewNotificationRepository()),
		churchID:  ch.ID,
		admin:     admin.Actor(),
		pastor:    pastor.Actor(),
		secretary: secretary.Actor(),
	}
}

package main

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/trezcool/igreja/core"
	"github.com/trezcool/igreja/core/agenda"
	"github.com/trezcool/igreja/core/church"
	"github.com/trezcool/igreja/core/goal"
	"github.com/trezcool/igreja/core/messaging"
	"github.com/trezcool/igreja/core/notification"
	"github.com/trezcool/igreja/core/person"
	"github.com/trezcool/igreja/core/user"
	logsvc "github.com/trezcool/igreja/services/logger"
	"github.com/trezcool/igreja/services/metrics"
	sqlxrepos "github.com/trezcool/igreja/storage/database/sqlx"
	testutil "github.com/trezcool/igreja/tests"
)

func TestMain(m *testing.M) {
	// rollbar-go starts its async transport when the package loads
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("github.com/rollbar/rollbar-go.NewAsyncTransport.func1"))
}

type fakeSender struct {
	mu   sync.Mutex
	sent []messaging.Message
}

func (s *fakeSender) Send(_ context.Context, msg messaging.Message) error {
	if msg.To == "" {
		return messaging.ErrNoAddress
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return nil
}

type fixture struct {
	db     *sqlx.DB
	jobs   *jobs
	sender *fakeSender
	church church.Church
	admin  user.User
	agenda *agenda.Service
}

func setup(t *testing.T) fixture {
	t.Helper()
	conf := core.NewTestConfig()
	logger := logsvc.NewNopLogger()
	db := testutil.OpenDB(t)
	testutil.FreezeTime(t, time.Date(2024, 4, 10, 8, 0, 0, 0, time.UTC))

	ch := testutil.CreateChurch(t, db, "Igreja Central", church.PlanPro)
	admin := testutil.CreateUser(t, db, ch.ID, "Admin", "admin@igreja.com", "Adm1n!pass", user.ProfileAdmin, true)

	sender := new(fakeSender)
	agendaSvc := agenda.NewService(db, sqlxrepos.NewAgendaRepository(), testutil.NopActionLogger{})
	j := newJobs(jobsParams{
		Conf:          conf,
		Logger:        logger,
		Metrics:       metrics.New(prometheus.NewRegistry()),
		Churches:      church.NewService(db, sqlxrepos.NewChurchRepository(), testutil.NopActionLogger{}),
		Notifications: notification.NewService(db, sqlxrepos.NewNotificationRepository()),
		Goals:         goal.NewService(db, sqlxrepos.NewGoalRepository(), testutil.NopActionLogger{}),
		Agenda:        agendaSvc,
		Senders: map[string]messaging.Sender{
			messaging.ChannelWhatsApp: sender,
			messaging.ChannelEmail:    sender,
		},
	})
	return fixture{db: db, jobs: j, sender: sender, church: ch, admin: admin, agenda: agendaSvc}
}

func TestJobs_deliverAlerts(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	testutil.CreatePerson(t, f.db, f.church.ID, "Ana Souza", person.StatusMember,
		testutil.WithBirthDate(time.Date(1990, 4, 12, 0, 0, 0, 0, time.UTC)))

	run := f.jobs.wrap(ctx, jobAlerts, f.jobs.deliverAlerts)
	run()
	delivered := promtest.ToFloat64(f.jobs.metrics.Notifications)
	assert.GreaterOrEqual(t, delivered, 1.0)
	assert.Equal(t, 1.0, promtest.ToFloat64(f.jobs.metrics.JobRuns.WithLabelValues(jobAlerts, "ok")))

	count, err := f.jobs.notifications.UnreadCount(ctx, f.admin.Actor())
	require.NoError(t, err)
	assert.Equal(t, int(delivered), count)

	t.Run("once a day", func(t *testing.T) {
		run()
		assert.Equal(t, delivered, promtest.ToFloat64(f.jobs.metrics.Notifications))
		assert.Equal(t, 2.0, promtest.ToFloat64(f.jobs.metrics.JobRuns.WithLabelValues(jobAlerts, "ok")))
	})
}

func TestJobs_sendReminders(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	actor := f.admin.Actor()

	ana := testutil.CreatePerson(t, f.db, f.church.ID, "Ana Souza", person.StatusMember, testutil.WithMobile("11988887777"))
	bia := testutil.CreatePerson(t, f.db, f.church.ID, "Bia Lima", person.StatusMember)

	entry, err := f.agenda.Create(ctx, actor, agenda.EntryInput{
		Title:    "Ensaio",
		StartsAt: time.Date(2024, 4, 10, 19, 30, 0, 0, time.UTC),
		Location: "Templo",
	})
	require.NoError(t, err)
	remind := func(p person.Person, at time.Time, channel string) {
		_, err := f.agenda.CreateReminder(ctx, actor, entry.ID, agenda.ReminderInput{PersonID: p.ID, RemindAt: at, Channel: channel})
		require.NoError(t, err)
	}
	remind(ana, time.Date(2024, 4, 10, 7, 0, 0, 0, time.UTC), messaging.ChannelWhatsApp)
	remind(bia, time.Date(2024, 4, 10, 7, 30, 0, 0, time.UTC), messaging.ChannelEmail) // no email
	remind(ana, time.Date(2024, 4, 10, 18, 0, 0, 0, time.UTC), messaging.ChannelWhatsApp) // not due yet

	require.NoError(t, f.jobs.sendReminders(ctx))
	require.Len(t, f.sender.sent, 1)
	msg := f.sender.sent[0]
	assert.Equal(t, "11988887777", msg.To)
	assert.Equal(t, messaging.ChannelWhatsApp, msg.Channel)
	assert.Equal(t, "Olá Ana! Lembrete: Ensaio em 10/04/2024 19:30 (Templo)", msg.Content)
	assert.Equal(t, 1.0, promtest.ToFloat64(f.jobs.metrics.MessagesSent.WithLabelValues(messaging.ChannelWhatsApp)))

	due, err := f.agenda.DueReminders(ctx, f.church.ID)
	require.NoError(t, err)
	assert.Empty(t, due, "sent and unreachable reminders are marked sent")

	t.Run("later", func(t *testing.T) {
		testutil.FreezeTime(t, time.Date(2024, 4, 10, 18, 0, 0, 0, time.UTC))
		require.NoError(t, f.jobs.sendReminders(ctx))
		assert.Len(t, f.sender.sent, 2)
	})
}

func TestJobs_purgeNotifications(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.jobs.notifications.Create(ctx, f.admin.Actor(), notification.NewNotification{
		UserID: f.admin.ID,
		Type:   notification.TypeSystem,
		Title:  "Bem-vindo",
	})
	require.NoError(t, err)
	_, err = f.jobs.notifications.MarkAllRead(ctx, f.admin.Actor())
	require.NoError(t, err)

	testutil.FreezeTime(t, time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC))
	f.jobs.wrap(ctx, jobPurge, f.jobs.purgeNotifications)()
	assert.Equal(t, 1.0, promtest.ToFloat64(f.jobs.metrics.JobRuns.WithLabelValues(jobPurge, "ok")))

	notifs, err := f.jobs.notifications.Query(ctx, f.admin.Actor(), notification.Filter{})
	require.NoError(t, err)
	assert.Empty(t, notifs)
}

func TestNewScheduler(t *testing.T) {
	f := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c, err := newScheduler(ctx, f.jobs, zap.NewNop())
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 3)
	c.Start()
	<-c.Stop().Done()

	t.Run("invalid schedule", func(t *testing.T) {
		f.jobs.conf.Worker.PurgeSchedule = "every day"
		_, err := newScheduler(ctx, f.jobs, zap.NewNop())
		assert.ErrorContains(t, err, "scheduling purge job")
	})
}

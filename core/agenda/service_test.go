package agenda_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/igreja/core"
	"github.com/trezcool/igreja/core/agenda"
	"github.com/trezcool/igreja/core/church"
	"github.com/trezcool/igreja/core/ministry"
	"github.com/trezcool/igreja/core/person"
	"github.com/trezcool/igreja/core/user"
	sqlxrepos "github.com/trezcool/igreja/storage/database/sqlx"
	testutil "github.com/trezcool/igreja/tests"
)

type fixture struct {
	svc      *agenda.Service
	actor    core.Actor
	ministry ministry.Ministry
	person   person.Person
}

func setup(t *testing.T) fixture {
	t.Helper()
	db := testutil.OpenDB(t)
	testutil.FreezeTime(t, time.Date(2024, 4, 10, 8, 0, 0, 0, time.UTC))

	ch := testutil.CreateChurch(t, db, "Igreja Central", church.PlanPro)
	usr := testutil.CreateUser(t, db, ch.ID, "Secretaria", "sec@igreja.com", "Adm1n!pass", user.ProfileSecretary, true)
	m, err := sqlxrepos.NewMinistryRepository().CreateMinistry(context.Background(), db, ministry.Ministry{
		ChurchID:  ch.ID,
		Name:      "Jovens",
		Color:     "#3498db",
		IsActive:  true,
		CreatedAt: core.NowFunc(),
	})
	require.NoError(t, err)

	return fixture{
		svc:      agenda.NewService(db, sqlxrepos.NewAgendaRepository(), testutil.NopActionLogger{}),
		actor:    usr.Actor(),
		ministry: m,
		person:   testutil.CreatePerson(t, db, ch.ID, "Ana Souza", person.StatusMember, testutil.WithMobile("11988887777")),
	}
}

func (f fixture) create(t *testing.T, in agenda.EntryInput) agenda.Entry {
	t.Helper()
	e, err := f.svc.Create(context.Background(), f.actor, in)
	require.NoError(t, err)
	return e
}

func titles(entries []agenda.EntryListItem) []string {
	res := make([]string, 0, len(entries))
	for _, e := range entries {
		res = append(res, e.Title)
	}
	return res
}

func TestService_Entries(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	at := func(day, hour int) time.Time { return time.Date(2024, 4, day, hour, 0, 0, 0, time.UTC) }

	t.Run("invalid", func(t *testing.T) {
		tests := []struct {
			name string
			in   agenda.EntryInput
		}{
			{"no title", agenda.EntryInput{StartsAt: at(10, 19)}},
			{"bad type", agenda.EntryInput{Title: "X", Type: "festa", StartsAt: at(10, 19)}},
			{"bad color", agenda.EntryInput{Title: "X", Color: "azul", StartsAt: at(10, 19)}},
			{"ends before start", agenda.EntryInput{Title: "X", StartsAt: at(10, 19), EndsAt: null.TimeFrom(at(10, 18))}},
			{"unknown ministry", agenda.EntryInput{Title: "X", StartsAt: at(10, 19), MinistryID: "nope"}},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				_, err := f.svc.Create(ctx, f.actor, tc.in)
				assert.Error(t, err)
			})
		}
	})

	retreat := f.create(t, agenda.EntryInput{Title: "Retiro", Type: agenda.TypeSpecial, StartsAt: at(12, 15), AllDay: true})
	assert.Equal(t, at(12, 0), retreat.StartsAt)
	assert.Equal(t, agenda.TypeSpecial, retreat.Type)
	assert.Equal(t, agenda.DefaultColor, retreat.Color)

	f.create(t, agenda.EntryInput{Title: "Culto", Type: agenda.TypeService, StartsAt: at(10, 19)})
	f.create(t, agenda.EntryInput{Title: "Reunião de jovens", Type: agenda.TypeMeeting, StartsAt: at(10, 9), MinistryID: f.ministry.ID})
	f.create(t, agenda.EntryInput{Title: "Ensaio", StartsAt: at(9, 20)})
	f.create(t, agenda.EntryInput{Title: "Conferência", StartsAt: at(25, 19)})

	entries, err := f.svc.Query(ctx, f.actor, agenda.Filter{From: "2024-04-10", To: "2024-04-12"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Reunião de jovens", "Culto", "Retiro"}, titles(entries))
	assert.Equal(t, null.StringFrom("Jovens"), entries[0].MinistryName)

	entries, err = f.svc.Query(ctx, f.actor, agenda.Filter{From: "2024-04-01", To: "2024-04-30", MinistryID: f.ministry.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"Reunião de jovens"}, titles(entries))

	entries, err = f.svc.Query(ctx, f.actor, agenda.Filter{From: "2024-04-01", To: "2024-04-30", Type: "CULTO"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Culto"}, titles(entries))

	_, err = f.svc.Query(ctx, f.actor, agenda.Filter{From: "2024-04-01"})
	assert.Error(t, err)

	entries, err = f.svc.Today(ctx, f.actor)
	require.NoError(t, err)
	assert.Equal(t, []string{"Reunião de jovens", "Culto"}, titles(entries))

	entries, err = f.svc.Upcoming(ctx, f.actor, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Reunião de jovens", "Culto", "Retiro"}, titles(entries))

	entries, err = f.svc.Upcoming(ctx, f.actor, 30)
	require.NoError(t, err)
	assert.Len(t, entries, 4)

	updated, err := f.svc.Update(ctx, f.actor, retreat.ID, agenda.EntryInput{Title: "Retiro de casais", StartsAt: at(13, 0), AllDay: true})
	require.NoError(t, err)
	assert.Equal(t, agenda.TypeEvent, updated.Type)

	require.NoError(t, f.svc.Delete(ctx, f.actor, retreat.ID))
	_, err = f.svc.Get(ctx, f.actor, retreat.ID)
	assert.ErrorIs(t, err, agenda.ErrNotFound)
	assert.ErrorIs(t, f.svc.Delete(ctx, f.actor, retreat.ID), agenda.ErrNotFound)
}

func TestService_Reminders(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	e := f.create(t, agenda.EntryInput{Title: "Culto", StartsAt: time.Date(2024, 4, 14, 19, 0, 0, 0, time.UTC)})

	_, err := f.svc.CreateReminder(ctx, f.actor, e.ID, agenda.ReminderInput{PersonID: "nope", RemindAt: core.NowFunc()})
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "person_id", verr.Fields[0].Field)

	_, err = f.svc.CreateReminder(ctx, f.actor, e.ID, agenda.ReminderInput{PersonID: f.person.ID, RemindAt: core.NowFunc(), Channel: "sms"})
	assert.Error(t, err)

	due, err := f.svc.CreateReminder(ctx, f.actor, e.ID, agenda.ReminderInput{
		PersonID: f.person.ID,
		RemindAt: core.NowFunc().Add(-time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "whatsapp", due.Channel)
	_, err = f.svc.CreateReminder(ctx, f.actor, e.ID, agenda.ReminderInput{
		PersonID: f.person.ID,
		RemindAt: core.NowFunc().Add(72 * time.Hour),
		Channel:  "email",
	})
	require.NoError(t, err)

	reminders, err := f.svc.Reminders(ctx, f.actor, e.ID)
	require.NoError(t, err)
	assert.Len(t, reminders, 2)

	pending, err := f.svc.DueReminders(ctx, f.actor.ChurchID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, due.ID, pending[0].ID)
	assert.Equal(t, "Culto", pending[0].Title)
	assert.Equal(t, "11988887777", pending[0].Mobile)

	require.NoError(t, f.svc.MarkReminderSent(ctx, due.ID))
	pending, err = f.svc.DueReminders(ctx, f.actor.ChurchID)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

package schedule_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/igreja/core"
	"github.com/trezcool/igreja/core/church"
	"github.com/trezcool/igreja/core/ministry"
	"github.com/trezcool/igreja/core/person"
	"github.com/trezcool/igreja/core/schedule"
	"github.com/trezcool/igreja/core/user"
	sqlxrepos "github.com/trezcool/igreja/storage/database/sqlx"
	testutil "github.com/trezcool/igreja/tests"
)

type fixture struct {
	svc      *schedule.Service
	actor    core.Actor
	ministry ministry.Ministry
	people   []person.Person
}

func setup(t *testing.T) fixture {
	t.Helper()
	db := testutil.OpenDB(t)
	ctx := context.Background()
	testutil.FreezeTime(t, time.Date(2024, 6, 12, 15, 0, 0, 0, time.UTC))

	ch := testutil.CreateChurch(t, db, "Igreja Central", church.PlanPro)
	usr := testutil.CreateUser(t, db, ch.ID, "Líder", "lider@igreja.com", "Adm1n!pass", user.ProfileLeader, true)

	ministryRepo := sqlxrepos.NewMinistryRepository()
	m, err := ministryRepo.CreateMinistry(ctx, db, ministry.Ministry{
		ChurchID:  ch.ID,
		Name:      "Louvor",
		Color:     "#3498db",
		IsActive:  true,
		CreatedAt: core.NowFunc(),
	})
	require.NoError(t, err)

	people := []person.Person{
		testutil.CreatePerson(t, db, ch.ID, "Ana Souza", person.StatusMember, testutil.WithMobile("11988887777")),
		testutil.CreatePerson(t, db, ch.ID, "Bruno Lima", person.StatusMember),
		testutil.CreatePerson(t, db, ch.ID, "Carla Dias", person.StatusLeader),
	}
	for _, p := range people {
		require.NoError(t, ministryRepo.UpsertMinistryMember(ctx, db, m.ID, p.ID, "membro", core.NowFunc()))
	}

	actor := usr.Actor()
	actor.PersonID = people[0].ID
	return fixture{
		svc:      schedule.NewService(db, sqlxrepos.NewScheduleRepository(), testutil.NopActionLogger{}),
		actor:    actor,
		ministry: m,
		people:   people,
	}
}

func (f fixture) createRoster(t *testing.T) schedule.Roster {
	t.Helper()
	r, err := f.svc.CreateRoster(context.Background(), f.actor, schedule.RosterInput{
		MinistryID: f.ministry.ID,
		Name:       "Junho",
		StartDate:  "2024-06-01",
		EndDate:    "2024-06-30",
		Recurrence: "Semanal",
	})
	require.NoError(t, err)
	return r
}

func TestService_Rosters(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	t.Run("invalid", func(t *testing.T) {
		tests := []struct {
			name  string
			in    schedule.RosterInput
			field string
		}{
			{"end before start", schedule.RosterInput{MinistryID: f.ministry.ID, Name: "X", StartDate: "2024-06-30", EndDate: "2024-06-01"}, "end_date"},
			{"unknown ministry", schedule.RosterInput{MinistryID: "nope", Name: "X", StartDate: "2024-06-01", EndDate: "2024-06-30"}, "ministry_id"},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				_, err := f.svc.CreateRoster(ctx, f.actor, tc.in)
				var verr *core.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, tc.field, verr.Fields[0].Field)
			})
		}

		_, err := f.svc.CreateRoster(ctx, f.actor, schedule.RosterInput{
			MinistryID: f.ministry.ID, Name: "X", StartDate: "01/06/2024", EndDate: "2024-06-30",
		})
		assert.Error(t, err)
	})

	r := f.createRoster(t)
	assert.Equal(t, schedule.RecurrenceWeekly, r.Recurrence)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), r.StartDate)

	rosters, err := f.svc.QueryRosters(ctx, f.actor, f.ministry.ID)
	require.NoError(t, err)
	require.Len(t, rosters, 1)
	assert.Equal(t, "Louvor", rosters[0].MinistryName)

	rosters, err = f.svc.QueryRosters(ctx, f.actor, "other")
	require.NoError(t, err)
	assert.Empty(t, rosters)

	_, err = f.svc.AddItem(ctx, f.actor, r.ID, schedule.ItemInput{PersonID: f.people[0].ID, ServeDate: "2024-06-16"})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteRoster(ctx, f.actor, r.ID))
	_, err = f.svc.GetRoster(ctx, f.actor, r.ID)
	assert.ErrorIs(t, err, schedule.ErrNotFound)
}

func TestService_Items(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	r := f.createRoster(t)

	past, err := f.svc.AddItem(ctx, f.actor, r.ID, schedule.ItemInput{PersonID: f.people[0].ID, ServeDate: "2024-06-09", Role: "vocal"})
	require.NoError(t, err)
	next, err := f.svc.AddItem(ctx, f.actor, r.ID, schedule.ItemInput{
		PersonID:  f.people[0].ID,
		ServeDate: "2024-06-16",
		Role:      "vocal",
		ServeTime: "18:30",
	})
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, f.actor, r.ID, schedule.ItemInput{PersonID: f.people[1].ID, ServeDate: "2024-06-16", Role: "baixo"})
	require.NoError(t, err)

	_, err = f.svc.AddItem(ctx, f.actor, r.ID, schedule.ItemInput{PersonID: "nope", ServeDate: "2024-06-16"})
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "person_id", verr.Fields[0].Field)

	_, err = f.svc.AddItem(ctx, f.actor, r.ID, schedule.ItemInput{PersonID: f.people[0].ID, ServeDate: "2024-06-16", ServeTime: "25:00"})
	assert.Error(t, err)

	items, err := f.svc.Items(ctx, f.actor, r.ID)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, past.ID, items[0].ID)
	assert.True(t, strings.HasPrefix(items[0].ReminderLink, "https://wa.me/5511988887777?text="))
	assert.Contains(t, items[0].ReminderLink, "Louvor")
	assert.Equal(t, f.people[1].ID, items[1].PersonID)
	assert.Empty(t, items[1].ReminderLink, "no mobile")

	t.Run("confirm", func(t *testing.T) {
		item, err := f.svc.Confirm(ctx, f.actor, next.ID, true)
		require.NoError(t, err)
		assert.True(t, item.Confirmed)
		assert.Equal(t, null.TimeFrom(core.NowFunc()), item.ConfirmedAt)

		item, err = f.svc.Confirm(ctx, f.actor, next.ID, false)
		require.NoError(t, err)
		assert.False(t, item.Confirmed)
		assert.False(t, item.ConfirmedAt.Valid)
	})

	t.Run("my schedule", func(t *testing.T) {
		mine, err := f.svc.MySchedule(ctx, f.actor)
		require.NoError(t, err)
		require.Len(t, mine, 1)
		assert.Equal(t, next.ID, mine[0].ID)
		assert.Equal(t, "Junho", mine[0].RosterName)
		assert.Equal(t, "Louvor", mine[0].MinistryName)

		unlinked := f.actor
		unlinked.PersonID = ""
		mine, err = f.svc.MySchedule(ctx, unlinked)
		require.NoError(t, err)
		assert.Empty(t, mine)
	})

	require.NoError(t, f.svc.RemoveItem(ctx, f.actor, past.ID))
	assert.ErrorIs(t, f.svc.RemoveItem(ctx, f.actor, past.ID), schedule.ErrItemNotFound)
}

func TestService_Swaps(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	r := f.createRoster(t)

	item, err := f.svc.AddItem(ctx, f.actor, r.ID, schedule.ItemInput{PersonID: f.people[0].ID, ServeDate: "2024-06-16"})
	require.NoError(t, err)
	_, err = f.svc.Confirm(ctx, f.actor, item.ID, true)
	require.NoError(t, err)

	s, err := f.svc.RequestSwap(ctx, f.actor, item.ID, " viagem ")
	require.NoError(t, err)
	assert.Equal(t, schedule.SwapPending, s.Status)
	assert.Equal(t, f.people[0].ID, s.RequesterID)
	assert.Equal(t, "viagem", s.Reason)

	_, err = f.svc.RequestSwap(ctx, f.actor, item.ID, "de novo")
	assert.ErrorIs(t, err, schedule.ErrSwapPending)

	pending, err := f.svc.PendingSwaps(ctx, f.actor)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Ana Souza", pending[0].RequesterName)
	assert.False(t, pending[0].SubstituteName.Valid)

	_, err = f.svc.AcceptSwap(ctx, f.actor, s.ID, "nope")
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "substitute_id", verr.Fields[0].Field)

	s, err = f.svc.AcceptSwap(ctx, f.actor, s.ID, f.people[2].ID)
	require.NoError(t, err)
	assert.Equal(t, schedule.SwapAccepted, s.Status)
	assert.Equal(t, null.StringFrom(f.people[2].ID), s.SubstituteID)

	items, err := f.svc.Items(ctx, f.actor, r.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, f.people[2].ID, items[0].PersonID)
	assert.False(t, items[0].Confirmed)

	_, err = f.svc.AcceptSwap(ctx, f.actor, s.ID, f.people[1].ID)
	assert.ErrorIs(t, err, schedule.ErrSwapResolved)

	pending, err = f.svc.PendingSwaps(ctx, f.actor)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestService_Generate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	r := f.createRoster(t)

	shuffles := 0
	orig := schedule.Shuffle
	schedule.Shuffle = func(n int, swap func(i, j int)) { shuffles++ }
	t.Cleanup(func() { schedule.Shuffle = orig })

	items, err := f.svc.Generate(ctx, f.actor, r.ID, schedule.GenerateInput{
		Dates: []string{"2024-06-16", "2024-06-23", "2024-06-30"},
		Roles: []string{"vocal", " ", "baixo"},
	})
	require.NoError(t, err)
	require.Len(t, items, 6)
	assert.Equal(t, 2, shuffles, "the pool is reshuffled once exhausted")

	got := make([]string, 0, len(items))
	for _, item := range items {
		got = append(got, item.ServeDate.Format(core.DateLayout)+" "+item.Role+" "+item.PersonID)
	}
	ana, bruno, carla := f.people[0].ID, f.people[1].ID, f.people[2].ID
	assert.Equal(t, []string{
		"2024-06-16 vocal " + ana,
		"2024-06-16 baixo " + bruno,
		"2024-06-23 vocal " + carla,
		"2024-06-23 baixo " + ana,
		"2024-06-30 vocal " + bruno,
		"2024-06-30 baixo " + carla,
	}, got)

	t.Run("without roles", func(t *testing.T) {
		items, err := f.svc.Generate(ctx, f.actor, r.ID, schedule.GenerateInput{Dates: []string{"2024-06-02"}})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Empty(t, items[0].Role)
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := f.svc.Generate(ctx, f.actor, r.ID, schedule.GenerateInput{})
		assert.Error(t, err)
		_, err = f.svc.Generate(ctx, f.actor, r.ID, schedule.GenerateInput{Dates: []string{"amanhã"}})
		assert.Error(t, err)
	})
}

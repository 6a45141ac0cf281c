package ministry_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/igreja/core"
	"github.com/trezcool/igreja/core/church"
	"github.com/trezcool/igreja/core/ministry"
	"github.com/trezcool/igreja/core/person"
	"github.com/trezcool/igreja/core/user"
	sqlxrepos "github.com/trezcool/igreja/storage/database/sqlx"
	testutil "github.com/trezcool/igreja/tests"
)

type fixture struct {
	db     core.DB
	svc    *ministry.Service
	church church.Church
	pastor core.Actor
}

func setup(t *testing.T) fixture {
	t.Helper()
	db := testutil.OpenDB(t)
	ch := testutil.CreateChurch(t, db, "Igreja Central", church.PlanPremium)
	usr := testutil.CreateUser(t, db, ch.ID, "Pastor João", "pastor@igreja.com", "Adm1n!pass", user.ProfilePastor, true)
	return fixture{
		db:     db,
		svc:    ministry.NewService(db, sqlxrepos.NewMinistryRepository(), testutil.NopActionLogger{}),
		church: ch,
		pastor: usr.Actor(),
	}
}

func (f fixture) leaderActor(t *testing.T, email string, p person.Person) core.Actor {
	t.Helper()
	usr := testutil.CreateUser(t, f.db, f.church.ID, p.Name, email, "Adm1n!pass", user.ProfileLeader, true)
	actor := usr.Actor()
	actor.PersonID = p.ID
	return actor
}

func TestService_Ministries(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	leader := testutil.CreatePerson(t, f.db, f.church.ID, "Ana Souza", person.StatusMember)
	singer := testutil.CreatePerson(t, f.db, f.church.ID, "Bruno Lima", person.StatusMember)

	m, err := f.svc.CreateMinistry(ctx, f.pastor, ministry.MinistryInput{Name: " Louvor ", LeaderID: leader.ID})
	require.NoError(t, err)
	assert.Equal(t, "Louvor", m.Name)
	assert.Equal(t, ministry.DefaultColor, m.Color)

	t.Run("unknown leader", func(t *testing.T) {
		_, err := f.svc.CreateMinistry(ctx, f.pastor, ministry.MinistryInput{Name: "Mídia", LeaderID: "nope"})
		var verr *core.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "leader_id", verr.Fields[0].Field)
	})

	t.Run("invalid color", func(t *testing.T) {
		_, err := f.svc.CreateMinistry(ctx, f.pastor, ministry.MinistryInput{Name: "Mídia", Color: "azul"})
		assert.Error(t, err)
	})

	require.NoError(t, f.svc.AddMinistryMember(ctx, f.pastor, m.ID, ministry.NewMember{PersonID: singer.ID}))
	require.NoError(t, f.svc.AddMinistryMember(ctx, f.pastor, m.ID, ministry.NewMember{PersonID: leader.ID, Role: "Líder"}))

	item, err := f.svc.GetMinistry(ctx, f.pastor, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, item.MemberCount)
	assert.Equal(t, "Ana Souza", item.LeaderName.String)

	members, err := f.svc.MinistryMembers(ctx, f.pastor, m.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "líder", members[0].Role)
	assert.Equal(t, ministry.RoleMember, members[1].Role)

	t.Run("remove then re-add", func(t *testing.T) {
		require.NoError(t, f.svc.RemoveMinistryMember(ctx, f.pastor, m.ID, singer.ID))
		err := f.svc.RemoveMinistryMember(ctx, f.pastor, m.ID, singer.ID)
		assert.True(t, core.IsNotFound(err))

		members, err := f.svc.MinistryMembers(ctx, f.pastor, m.ID)
		require.NoError(t, err)
		assert.Len(t, members, 1)

		require.NoError(t, f.svc.AddMinistryMember(ctx, f.pastor, m.ID, ministry.NewMember{PersonID: singer.ID, Role: "vocal"}))
		members, err = f.svc.MinistryMembers(ctx, f.pastor, m.ID)
		require.NoError(t, err)
		require.Len(t, members, 2)
		assert.Equal(t, "vocal", members[1].Role)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, f.svc.DeleteMinistry(ctx, f.pastor, m.ID))
		_, err := f.svc.GetMinistry(ctx, f.pastor, m.ID)
		assert.True(t, core.IsNotFound(err))

		list, err := f.svc.QueryMinistries(ctx, f.pastor)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("other church", func(t *testing.T) {
		other := testutil.CreateChurch(t, f.db, "Outra Igreja", church.PlanBasic)
		outsider := f.pastor
		outsider.ChurchID = other.ID
		list, err := f.svc.QueryMinistries(ctx, outsider)
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}

func TestService_Cells(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	testutil.FreezeTime(t, time.Date(2024, 6, 20, 12, 0, 0, 0, time.UTC))

	ana := testutil.CreatePerson(t, f.db, f.church.ID, "Ana Souza", person.StatusMember)
	bruno := testutil.CreatePerson(t, f.db, f.church.ID, "Bruno Lima", person.StatusMember)
	carla := testutil.CreatePerson(t, f.db, f.church.ID, "Carla Dias", person.StatusMember)

	network, err := f.svc.CreateNetwork(ctx, f.pastor, ministry.NetworkInput{Name: "Rede Jovem", SupervisorID: ana.ID})
	require.NoError(t, err)

	cell, err := f.svc.CreateCell(ctx, f.pastor, ministry.CellInput{
		Name:        "Célula Esperança",
		NetworkID:   network.ID,
		LeaderID:    ana.ID,
		Weekday:     "Quarta",
		MeetingTime: "19:30",
	})
	require.NoError(t, err)
	assert.Equal(t, "quarta", cell.Weekday)

	t.Run("invalid input", func(t *testing.T) {
		_, err := f.svc.CreateCell(ctx, f.pastor, ministry.CellInput{Name: "X", Weekday: "feriado"})
		assert.Error(t, err)
		_, err = f.svc.CreateCell(ctx, f.pastor, ministry.CellInput{Name: "X", MeetingTime: "7pm"})
		assert.Error(t, err)
		_, err = f.svc.CreateCell(ctx, f.pastor, ministry.CellInput{Name: "X", NetworkID: "nope"})
		var verr *core.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "network_id", verr.Fields[0].Field)
	})

	for _, p := range []person.Person{ana, bruno, carla} {
		require.NoError(t, f.svc.AddCellMember(ctx, f.pastor, cell.ID, ministry.NewMember{PersonID: p.ID}))
	}

	_, err = f.svc.RegisterMeeting(ctx, f.pastor, cell.ID, ministry.NewMeeting{
		Date:       "2024-06-12",
		PresentIDs: []string{ana.ID, bruno.ID, ana.ID, " "},
		Offering:   2500,
	})
	require.NoError(t, err)
	meeting, err := f.svc.RegisterMeeting(ctx, f.pastor, cell.ID, ministry.NewMeeting{
		Date:          "2024-06-19",
		Theme:         "Fé",
		PresentIDs:    []string{ana.ID, bruno.ID, carla.ID},
		VisitorsCount: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, meeting.PresentCount)
	// older than 30 days: ignored by the average
	_, err = f.svc.RegisterMeeting(ctx, f.pastor, cell.ID, ministry.NewMeeting{Date: "2024-04-01", PresentIDs: []string{ana.ID}})
	require.NoError(t, err)

	item, err := f.svc.GetCell(ctx, f.pastor, cell.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, item.MemberCount)
	assert.InDelta(t, 2.5, item.AvgAttendance, 0.001)
	assert.Equal(t, "Ana Souza", item.LeaderName.String)
	assert.Equal(t, "Rede Jovem", item.NetworkName.String)

	history, err := f.svc.MeetingHistory(ctx, f.pastor, cell.ID, 0)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "Fé", history[0].Theme)
	assert.Equal(t, 2, history[1].PresentCount)
	assert.Equal(t, core.Money(2500), history[1].Offering)

	history, err = f.svc.MeetingHistory(ctx, f.pastor, cell.ID, 1)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	t.Run("unknown present person", func(t *testing.T) {
		_, err := f.svc.RegisterMeeting(ctx, f.pastor, cell.ID, ministry.NewMeeting{Date: "2024-06-20", PresentIDs: []string{"nope"}})
		var verr *core.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "present_ids", verr.Fields[0].Field)
	})

	t.Run("networks", func(t *testing.T) {
		networks, err := f.svc.QueryNetworks(ctx, f.pastor)
		require.NoError(t, err)
		require.Len(t, networks, 1)
		assert.Equal(t, 1, networks[0].CellCount)
		assert.Equal(t, "Ana Souza", networks[0].SupervisorName.String)

		n, err := f.svc.UpdateNetwork(ctx, f.pastor, network.ID, ministry.NetworkInput{Name: "Rede Jovens", Color: "#ff0000"})
		require.NoError(t, err)
		assert.Equal(t, "Rede Jovens", n.Name)
		assert.False(t, n.SupervisorID.Valid)
	})

	t.Run("leaders only edit their own cells", func(t *testing.T) {
		leader := f.leaderActor(t, "ana@igreja.com", ana)
		other := f.leaderActor(t, "bruno@igreja.com", bruno)

		in := ministry.CellInput{Name: "Célula Esperança II", LeaderID: ana.ID, CoLeaderID: carla.ID}
		updated, err := f.svc.UpdateCell(ctx, leader, cell.ID, in)
		require.NoError(t, err)
		assert.Equal(t, "Célula Esperança II", updated.Name)

		_, err = f.svc.UpdateCell(ctx, other, cell.ID, in)
		assert.Equal(t, core.ErrForbidden, err)
		_, err = f.svc.RegisterMeeting(ctx, other, cell.ID, ministry.NewMeeting{Date: "2024-06-20"})
		assert.Equal(t, core.ErrForbidden, err)
		assert.Equal(t, core.ErrForbidden, f.svc.DeleteCell(ctx, other, cell.ID))

		// reading is not restricted
		_, err = f.svc.GetCell(ctx, other, cell.ID)
		assert.NoError(t, err)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, f.svc.DeleteCell(ctx, f.pastor, cell.ID))
		cells, err := f.svc.QueryCells(ctx, f.pastor)
		require.NoError(t, err)
		assert.Empty(t, cells)
	})
}

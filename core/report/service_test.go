package report_test

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
	"github.com/trezcool/igreja/core/finance"
	"github.com/trezcool/igreja/core/ministry"
	"github.com/trezcool/igreja/core/person"
	"github.com/trezcool/igreja/core/report"
	"github.com/trezcool/igreja/core/user"
	"github.com/trezcool/igreja/core/visitor"
	logsvc "github.com/trezcool/igreja/services/logger"
	"github.com/trezcool/igreja/storage/cache"
	sqlxrepos "github.com/trezcool/igreja/storage/database/sqlx"
	testutil "github.com/trezcool/igreja/tests"
)

func TestCellHealth_Evaluate(t *testing.T) {
	tests := []struct {
		name       string
		cell       report.CellHealth
		wantScore  int
		wantStatus string
	}{
		{"healthy", report.CellHealth{Members: 8, AvgAttendance: nullFloat(6), Meetings: 4}, 100, report.HealthGood},
		{"low attendance", report.CellHealth{Members: 10, AvgAttendance: nullFloat(5), Meetings: 4}, 75, report.HealthGood},
		{"empty", report.CellHealth{}, 50, report.HealthWarning},
		{"too big and idle", report.CellHealth{Members: 20, AvgAttendance: nullFloat(4), Meetings: 1}, 25, report.HealthCritical},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.cell
			c.Evaluate()
			assert.Equal(t, tt.wantScore, c.Score)
			assert.Equal(t, tt.wantStatus, c.Status)
		})
	}
}

type fixture struct {
	svc      *report.Service
	db       core.DB
	churchID string
	actor    core.Actor
}

func setup(t *testing.T) fixture {
	t.Helper()
	db := testutil.OpenDB(t)
	testutil.FreezeTime(t, time.Date(2024, 5, 15, 10, 0, 0, 0, time.UTC))
	ctx := context.Background()
	date := func(s string) time.Time { return core.ParseDateOrZero(s).Time }

	ch := testutil.CreateChurch(t, db, "Igreja Central", church.PlanPro)
	actor := testutil.CreateUser(t, db, ch.ID, "Pr. Marcos", "pastor@igreja.com", "Adm1n!pass", user.ProfilePastor, true).Actor()

	ana := testutil.CreatePerson(t, db, ch.ID, "Ana", person.StatusMember, testutil.WithMembershipDate(date("2024-05-02")))
	bruno := testutil.CreatePerson(t, db, ch.ID, "Bruno", person.StatusMember, testutil.WithMembershipDate(date("2024-03-10")))
	carla := testutil.CreatePerson(t, db, ch.ID, "Carla", person.StatusMember, testutil.WithMembershipDate(date("2023-04-01")))
	davi := testutil.CreatePerson(t, db, ch.ID, "Davi", person.StatusVisitor)
	eva := testutil.CreatePerson(t, db, ch.ID, "Eva", person.StatusVisitor)
	testutil.CreatePerson(t, db, ch.ID, "Fábio", person.StatusNewConvert)

	visits := sqlxrepos.NewVisitorRepository()
	for _, v := range []visitor.Visit{
		{PersonID: davi.ID, VisitDate: date("2024-05-05")},
		{PersonID: davi.ID, VisitDate: date("2024-05-12")},
		{PersonID: eva.ID, VisitDate: date("2024-04-20")},
	} {
		v.ChurchID = ch.ID
		v.CreatedAt = core.NowFunc()
		_, err := visits.CreateVisit(ctx, db, v)
		require.NoError(t, err)
	}

	ministries := sqlxrepos.NewMinistryRepository()
	_, err := ministries.CreateMinistry(ctx, db, ministry.Ministry{ChurchID: ch.ID, Name: "Louvor", Color: "#000000", IsActive: true, CreatedAt: core.NowFunc()})
	require.NoError(t, err)
	alfa, err := ministries.CreateCell(ctx, db, ministry.Cell{ChurchID: ch.ID, Name: "Alfa", LeaderID: core.NullString(ana.ID), IsActive: true, CreatedAt: core.NowFunc()})
	require.NoError(t, err)
	_, err = ministries.CreateCell(ctx, db, ministry.Cell{ChurchID: ch.ID, Name: "Beta", IsActive: true, CreatedAt: core.NowFunc()})
	require.NoError(t, err)
	for _, p := range []person.Person{ana, bruno, carla, davi, eva} {
		require.NoError(t, ministries.UpsertCellMember(ctx, db, alfa.ID, p.ID, "membro", core.NowFunc()))
	}
	for _, d := range []string{"2024-03-01", "2024-04-24", "2024-05-01", "2024-05-08", "2024-05-15"} {
		_, err = ministries.CreateMeeting(ctx, db, ministry.Meeting{CellID: alfa.ID, MeetingDate: date(d), PresentCount: 4, CreatedAt: core.NowFunc()}, nil)
		require.NoError(t, err)
	}

	donations := sqlxrepos.NewFinanceRepository()
	for _, d := range []finance.Donation{
		{Amount: 10000, DonatedAt: date("2024-05-03")},
		{Amount: 5050, DonatedAt: date("2024-05-10")},
		{Amount: 2000, DonatedAt: date("2024-02-01")},
		{Amount: 3000, DonatedAt: date("2023-11-01")},
	} {
		d.ChurchID = ch.ID
		d.Type = "oferta"
		d.CreatedAt = core.NowFunc()
		_, err = donations.CreateDonation(ctx, db, d)
		require.NoError(t, err)
	}

	events := sqlxrepos.NewEventRepository()
	checkIns := map[string][]person.Person{"Culto A": {ana, bruno}, "Culto B": {carla}, "Culto C": {ana, bruno, carla}}
	for _, e := range []event.Event{
		{Name: "Culto A", StartsAt: time.Date(2024, 5, 5, 19, 0, 0, 0, time.UTC)},
		{Name: "Culto B", StartsAt: time.Date(2024, 5, 12, 19, 0, 0, 0, time.UTC)},
		{Name: "Culto C", StartsAt: time.Date(2024, 3, 1, 19, 0, 0, 0, time.UTC)},
	} {
		e.ChurchID = ch.ID
		e.Type = "Culto Dominical"
		e.CheckinCode = e.Name
		e.IsActive = true
		e.CreatedAt = core.NowFunc()
		e, err = events.CreateEvent(ctx, db, e)
		require.NoError(t, err)
		for _, p := range checkIns[e.Name] {
			_, err = events.CreateAttendance(ctx, db, e.ID, p.ID, e.StartsAt)
			require.NoError(t, err)
		}
	}

	return fixture{
		svc:      report.NewService(db, sqlxrepos.NewReportRepository(), cache.NewMemory(), logsvc.NewNopLogger()),
		db:       db,
		churchID: ch.ID,
		actor:    actor,
	}
}

func TestService_Reports(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	t.Run("general", func(t *testing.T) {
		g, err := f.svc.General(ctx, f.churchID)
		require.NoError(t, err)
		assert.Equal(t, report.General{
			ByStatus:            map[string]int{person.StatusMember: 3, person.StatusVisitor: 2, person.StatusNewConvert: 1},
			Total:               6,
			Members:             3,
			Visitors:            2,
			NewConverts:         1,
			NewMembersThisMonth: 1,
			VisitorsThisMonth:   1,
			Cells:               2,
			Ministries:          1,
		}, g)
	})

	t.Run("growth", func(t *testing.T) {
		growth, err := f.svc.Growth(ctx, f.churchID, 3)
		require.NoError(t, err)
		assert.Equal(t, []report.MonthCount{{Month: "2024-03", Count: 1}, {Month: "2024-04"}, {Month: "2024-05", Count: 1}}, growth)

		growth, err = f.svc.Growth(ctx, f.churchID, 0)
		require.NoError(t, err)
		assert.Len(t, growth, report.DefaultMonths)
		assert.Equal(t, "2023-06", growth[0].Month)
	})

	t.Run("cells", func(t *testing.T) {
		cells, err := f.svc.CellHealth(ctx, f.churchID)
		require.NoError(t, err)
		require.Len(t, cells, 2)

		assert.Equal(t, "Alfa", cells[0].Name)
		assert.Equal(t, "Ana", cells[0].LeaderName.String)
		assert.Equal(t, 5, cells[0].Members)
		assert.Equal(t, 4, cells[0].Meetings)
		assert.InDelta(t, 4.0, cells[0].AvgAttendance.Float64, 0.001)
		assert.Equal(t, 100, cells[0].Score)
		assert.Equal(t, report.HealthGood, cells[0].Status)

		assert.Equal(t, "Beta", cells[1].Name)
		assert.False(t, cells[1].AvgAttendance.Valid)
		assert.Equal(t, report.HealthWarning, cells[1].Status)
	})

	t.Run("donations", func(t *testing.T) {
		donations, err := f.svc.Donations(ctx, f.churchID, 0)
		require.NoError(t, err)
		assert.Equal(t, []report.MonthAmount{
			{Month: "2023-12"},
			{Month: "2024-01"},
			{Month: "2024-02", Total: 2000},
			{Month: "2024-03"},
			{Month: "2024-04"},
			{Month: "2024-05", Total: 15050},
		}, donations)
	})

	t.Run("attendance", func(t *testing.T) {
		a, err := f.svc.Attendance(ctx, f.churchID, 0)
		require.NoError(t, err)
		require.Len(t, a.Events, 2)
		assert.Equal(t, "Culto B", a.Events[0].Name)
		assert.InDelta(t, 1.5, a.Average, 0.001)

		a, err = f.svc.Attendance(ctx, f.churchID, 90)
		require.NoError(t, err)
		assert.Len(t, a.Events, 3)
		assert.InDelta(t, 2.0, a.Average, 0.001)
	})
}

func TestService_Dashboard(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	d, err := f.svc.Dashboard(ctx, f.actor)
	require.NoError(t, err)
	assert.Equal(t, 6, d.General.Total)
	assert.Len(t, d.Growth, report.DefaultMonths)
	assert.Len(t, d.Cells, 2)
	assert.Len(t, d.Donations, report.DefaultDonationMonths)
	assert.Len(t, d.Attendance.Events, 2)

	// cached until invalidated
	testutil.CreatePerson(t, f.db, f.churchID, "Gil", person.StatusVisitor)
	d, err = f.svc.Dashboard(ctx, f.actor)
	require.NoError(t, err)
	assert.Equal(t, 6, d.General.Total)
	assert.Equal(t, core.Money(15050), d.Donations[5].Total)
	assert.Equal(t, report.HealthGood, d.Cells[0].Status)

	require.NoError(t, f.svc.Invalidate(ctx, f.churchID))
	d, err = f.svc.Dashboard(ctx, f.actor)
	require.NoError(t, err)
	assert.Equal(t, 7, d.General.Total)
}

func nullFloat(f float64) null.Float64 { return null.Float64From(f) }

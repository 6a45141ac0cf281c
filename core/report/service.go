package report

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/igreja/core"
	"github.com/trezcool/igreja/core/person"
)

const monthLayout = "2006-01"

type (
	Repository interface {
		CountByStatus(ctx context.Context, db core.DBExecutor, churchID string) ([]StatusCount, error)
		// MembershipDates returns the membership dates of the active people who became members since the given time.
		MembershipDates(ctx context.Context, db core.DBExecutor, churchID string, since time.Time) ([]time.Time, error)
		// CountVisitors counts the distinct people who visited since the given time.
		CountVisitors(ctx context.Context, db core.DBExecutor, churchID string, since time.Time) (int, error)
		CountCells(ctx context.Context, db core.DBExecutor, churchID string) (int, error)
		CountMinistries(ctx context.Context, db core.DBExecutor, churchID string) (int, error)
		// QueryCellHealth lists the active cells with their members and the meetings held since the given time.
		QueryCellHealth(ctx context.Context, db core.DBExecutor, churchID string, since time.Time) ([]CellHealth, error)
		QueryDonations(ctx context.Context, db core.DBExecutor, churchID string, since time.Time) ([]DonationRow, error)
		// QueryEventAttendance lists the active events started within [from, to), newest first.
		QueryEventAttendance(ctx context.Context, db core.DBExecutor, churchID string, from, to time.Time) ([]EventAttendance, error)
	}

	Service struct {
		db     core.DB
		repo   Repository
		cache  core.Cache
		logger core.Logger
	}
)

func NewService(db core.DB, repo Repository, cache core.Cache, logger core.Logger) *Service {
	return &Service{db: db, repo: repo, cache: cache, logger: logger}
}

func monthStart(t time.Time) time.Time {
	y, m, _ := t.UTC().Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// lastMonths returns the keys of the n months ending with the current one, oldest first.
func lastMonths(now time.Time, n int) []string {
	start := monthStart(now)
	keys := make([]string, 0, n)
	for i := n - 1; i >= 0; i-- {
		keys = append(keys, start.AddDate(0, -i, 0).Format(monthLayout))
	}
	return keys
}

func (svc *Service) General(ctx context.Context, churchID string) (General, error) {
	counts, err := svc.repo.CountByStatus(ctx, svc.db, churchID)
	if err != nil {
		return General{}, errors.Wrap(err, "counting people")
	}
	g := General{ByStatus: make(map[string]int, len(counts))}
	for _, c := range counts {
		g.ByStatus[c.Status] = c.Count
		g.Total += c.Count
	}
	g.Members = g.ByStatus[person.StatusMember]
	g.Visitors = g.ByStatus[person.StatusVisitor]
	g.NewConverts = g.ByStatus[person.StatusNewConvert]

	start := monthStart(core.NowFunc())
	dates, err := svc.repo.MembershipDates(ctx, svc.db, churchID, start)
	if err != nil {
		return General{}, errors.Wrap(err, "counting new members")
	}
	g.NewMembersThisMonth = len(dates)

	if g.VisitorsThisMonth, err = svc.repo.CountVisitors(ctx, svc.db, churchID, start); err != nil {
		return General{}, errors.Wrap(err, "counting visitors")
	}
	if g.Cells, err = svc.repo.CountCells(ctx, svc.db, churchID); err != nil {
		return General{}, errors.Wrap(err, "counting cells")
	}
	if g.Ministries, err = svc.repo.CountMinistries(ctx, svc.db, churchID); err != nil {
		return General{}, errors.Wrap(err, "counting ministries")
	}
	return g, nil
}

// Growth counts new members per month over the last months (DefaultMonths if not positive).
func (svc *Service) Growth(ctx context.Context, churchID string, months int) ([]MonthCount, error) {
	if months <= 0 {
		months = DefaultMonths
	}
	now := core.NowFunc()
	keys := lastMonths(now, months)
	dates, err := svc.repo.MembershipDates(ctx, svc.db, churchID, monthStart(now).AddDate(0, -(months - 1), 0))
	if err != nil {
		return nil, errors.Wrap(err, "querying membership dates")
	}

	counts := make(map[string]int, months)
	for _, d := range dates {
		counts[d.UTC().Format(monthLayout)]++
	}
	growth := make([]MonthCount, 0, months)
	for _, k := range keys {
		growth = append(growth, MonthCount{Month: k, Count: counts[k]})
	}
	return growth, nil
}

// CellHealth scores the church's active cells over the last 30 days.
func (svc *Service) CellHealth(ctx context.Context, churchID string) ([]CellHealth, error) {
	since := core.Today(core.NowFunc()).AddDate(0, 0, -cellWindowDays)
	cells, err := svc.repo.QueryCellHealth(ctx, svc.db, churchID, since)
	if err != nil {
		return nil, errors.Wrap(err, "querying cells")
	}
	for i := range cells {
		cells[i].Evaluate()
	}
	return cells, nil
}

// Donations sums donations per month over the last months (DefaultDonationMonths if not positive).
func (svc *Service) Donations(ctx context.Context, churchID string, months int) ([]MonthAmount, error) {
	if months <= 0 {
		months = DefaultDonationMonths
	}
	now := core.NowFunc()
	keys := lastMonths(now, months)
	rows, err := svc.repo.QueryDonations(ctx, svc.db, churchID, monthStart(now).AddDate(0, -(months - 1), 0))
	if err != nil {
		return nil, errors.Wrap(err, "querying donations")
	}

	totals := make(map[string]core.Money, months)
	for _, r := range rows {
		totals[r.DonatedAt.UTC().Format(monthLayout)] += r.Amount
	}
	res := make([]MonthAmount, 0, months)
	for _, k := range keys {
		res = append(res, MonthAmount{Month: k, Total: totals[k]})
	}
	return res, nil
}

// Attendance averages the check-ins of the events held in the last days (DefaultAttendanceDays if not positive).
func (svc *Service) Attendance(ctx context.Context, churchID string, days int) (Attendance, error) {
	if days <= 0 {
		days = DefaultAttendanceDays
	}
	now := core.NowFunc()
	events, err := svc.repo.QueryEventAttendance(ctx, svc.db, churchID, core.Today(now).AddDate(0, 0, -days), now)
	if err != nil {
		return Attendance{}, errors.Wrap(err, "querying attendance")
	}
	a := Attendance{Events: events}
	if len(events) > 0 {
		var total int
		for _, e := range events {
			total += e.Present
		}
		a.Average = float64(total) / float64(len(events))
	}
	return a, nil
}

func dashboardKey(churchID string) string {
	return "report:dashboard:" + churchID
}

// Dashboard gathers every report of the actor's church. Results are cached for CacheTTL.
func (svc *Service) Dashboard(ctx context.Context, actor core.Actor) (Dashboard, error) {
	key := dashboardKey(actor.ChurchID)
	if raw, err := svc.cache.Get(ctx, key); err == nil {
		var d Dashboard
		if err = json.Unmarshal(raw, &d); err == nil {
			return d, nil
		}
		svc.logger.Warn("decoding cached dashboard", err, map[string]interface{}{"church": actor.ChurchID})
	} else if !errors.Is(err, core.ErrCacheMiss) {
		svc.logger.Warn("reading cached dashboard", err, map[string]interface{}{"church": actor.ChurchID})
	}

	d := Dashboard{GeneratedAt: core.NowFunc()}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.General, err = svc.General(gctx, actor.ChurchID)
		return err
	})
	g.Go(func() (err error) {
		d.Growth, err = svc.Growth(gctx, actor.ChurchID, DefaultMonths)
		return err
	})
	g.Go(func() (err error) {
		d.Cells, err = svc.CellHealth(gctx, actor.ChurchID)
		return err
	})
	g.Go(func() (err error) {
		d.Donations, err = svc.Donations(gctx, actor.ChurchID, DefaultDonationMonths)
		return err
	})
	g.Go(func() (err error) {
		d.Attendance, err = svc.Attendance(gctx, actor.ChurchID, DefaultAttendanceDays)
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	if raw, err := json.Marshal(d); err == nil {
		if err = svc.cache.Set(ctx, key, raw, CacheTTL); err != nil {
			svc.logger.Warn("caching dashboard", err, map[string]interface{}{"church": actor.ChurchID})
		}
	}
	return d, nil
}

// Invalidate drops the cached dashboard of a church.
func (svc *Service) Invalidate(ctx context.Context, churchID string) error {
	return svc.cache.Delete(ctx, dashboardKey(churchID))
}

package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/igreja/core"
)

const topContributors = 5

var (
	ErrNotFound       = core.NewNotFoundError("donation")
	ErrPersonNotFound = core.NewNotFoundError("person")
)

type (
	Repository interface {
		PersonExists(ctx context.Context, db core.DBExecutor, churchID, personID string) (bool, error)
		QueryDonations(ctx context.Context, db core.DBExecutor, churchID string, filter Filter) ([]DonationListItem, error)
		CreateDonation(ctx context.Context, db core.DBExecutor, d Donation) (Donation, error)
		// QueryTotalsByType sums the donations made on or after since.
		QueryTotalsByType(ctx context.Context, db core.DBExecutor, churchID string, since time.Time) (map[string]TypeTotal, error)
		// SumBetween sums the donations made in [from, to).
		SumBetween(ctx context.Context, db core.DBExecutor, churchID string, from, to time.Time) (core.Money, error)
		QueryTopContributors(ctx context.Context, db core.DBExecutor, churchID string, since time.Time, limit int) ([]Contributor, error)
		QueryPersonDonations(ctx context.Context, db core.DBExecutor, churchID, personID string) ([]Donation, error)
		// QueryDailyTotals sums the donations per day in [from, to).
		QueryDailyTotals(ctx context.Context, db core.DBExecutor, churchID string, from, to time.Time) ([]DailyTotal, error)
	}

	Service struct {
		db    core.DB
		repo  Repository
		audit core.ActionLogger
	}
)

func NewService(db core.DB, repo Repository, audit core.ActionLogger) *Service {
	return &Service{db: db, repo: repo, audit: audit}
}

// Query lists donations, newest first.
func (svc *Service) Query(ctx context.Context, actor core.Actor, filter Filter) ([]DonationListItem, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	return svc.repo.QueryDonations(ctx, svc.db, actor.ChurchID, filter)
}

// Register records a donation on behalf of the actor.
func (svc *Service) Register(ctx context.Context, actor core.Actor, nd NewDonation) (Donation, error) {
	if err := nd.Validate(); err != nil {
		return Donation{}, err
	}
	if nd.PersonID != "" {
		ok, err := svc.repo.PersonExists(ctx, svc.db, actor.ChurchID, nd.PersonID)
		if err != nil {
			return Donation{}, errors.Wrap(err, "checking person")
		}
		if !ok {
			return Donation{}, core.NewValidationError(ErrPersonNotFound, core.FieldError{Field: "person_id", Error: "pessoa não encontrada"})
		}
	}

	now := core.NowFunc()
	date := core.Today(now)
	if nd.Date != "" {
		date = core.ParseDateOrZero(nd.Date).Time
	}
	d, err := svc.repo.CreateDonation(ctx, svc.db, Donation{
		ChurchID:      actor.ChurchID,
		PersonID:      core.NullString(nd.PersonID),
		Amount:        nd.Amount,
		Type:          nd.Type,
		PaymentMethod: nd.PaymentMethod,
		Reference:     nd.Reference,
		Notes:         nd.Notes,
		DonatedAt:     date,
		IsAnonymous:   nd.IsAnonymous,
		RegisteredBy:  core.NullString(actor.UserID),
		CreatedAt:     now,
	})
	if err != nil {
		return Donation{}, err
	}
	svc.audit.LogAction(ctx, actor, "doacao.registrar", fmt.Sprintf("Doação registrada: R$ %.2f - %s", d.Amount.Reais(), d.Type))
	return d, nil
}

// PeriodStart returns the first day covered by a summary period.
func PeriodStart(period string, now time.Time) time.Time {
	today := core.Today(now)
	switch period {
	case PeriodMonth:
		return today.AddDate(0, 0, 1-today.Day())
	case PeriodYear:
		return time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	case PeriodWeek:
		sinceMonday := (int(today.Weekday()) + 6) % 7
		return today.AddDate(0, 0, -sinceMonday)
	default:
		return today.AddDate(0, 0, -30)
	}
}

// Summary totals the donations of a period and compares them with the previous window of the same length.
func (svc *Service) Summary(ctx context.Context, actor core.Actor, period string) (Summary, error) {
	now := core.NowFunc()
	since := PeriodStart(period, now)
	sum := Summary{Period: period, Since: since}

	var err error
	if sum.ByType, err = svc.repo.QueryTotalsByType(ctx, svc.db, actor.ChurchID, since); err != nil {
		return Summary{}, errors.Wrap(err, "querying totals")
	}
	for _, tt := range sum.ByType {
		sum.Total += tt.Total
		sum.Count += tt.Count
	}

	days := int(core.Today(now).Sub(since).Hours()/24) + 1
	prevSince := since.AddDate(0, 0, -days)
	if sum.PreviousTotal, err = svc.repo.SumBetween(ctx, svc.db, actor.ChurchID, prevSince, since); err != nil {
		return Summary{}, errors.Wrap(err, "querying previous total")
	}
	if sum.PreviousTotal > 0 {
		sum.Variation = float64(sum.Total-sum.PreviousTotal) / float64(sum.PreviousTotal) * 100
	}

	if sum.TopContributors, err = svc.repo.QueryTopContributors(ctx, svc.db, actor.ChurchID, since, topContributors); err != nil {
		return Summary{}, errors.Wrap(err, "querying top contributors")
	}
	for i := range sum.TopContributors {
		sum.TopContributors[i].Name = core.FirstName(sum.TopContributors[i].Name) + "***"
	}
	return sum, nil
}

// PersonHistory returns every donation of a person with the overall and tithe totals.
func (svc *Service) PersonHistory(ctx context.Context, actor core.Actor, personID string) (PersonHistory, error) {
	donations, err := svc.repo.QueryPersonDonations(ctx, svc.db, actor.ChurchID, personID)
	if err != nil {
		return PersonHistory{}, err
	}
	h := PersonHistory{Donations: donations}
	for _, d := range donations {
		h.Total += d.Amount
		if d.Type == TypeTithe {
			h.TitheTotal += d.Amount
		}
	}
	return h, nil
}

// MonthlyTotals returns the totals of the 12 months of a year.
func (svc *Service) MonthlyTotals(ctx context.Context, actor core.Actor, year int) ([]MonthTotal, error) {
	if year <= 0 {
		year = core.NowFunc().Year()
	}
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return svc.monthlyTotals(ctx, actor.ChurchID, from, 12)
}

// LastMonths returns the totals of the last n months, current month included.
func (svc *Service) LastMonths(ctx context.Context, churchID string, n int) ([]MonthTotal, error) {
	if n <= 0 {
		n = 12
	}
	today := core.Today(core.NowFunc())
	from := today.AddDate(0, 0, 1-today.Day()).AddDate(0, 1-n, 0)
	return svc.monthlyTotals(ctx, churchID, from, n)
}

func (svc *Service) monthlyTotals(ctx context.Context, churchID string, from time.Time, months int) ([]MonthTotal, error) {
	to := from.AddDate(0, months, 0)
	daily, err := svc.repo.QueryDailyTotals(ctx, svc.db, churchID, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "querying daily totals")
	}

	totals := make([]MonthTotal, months)
	index := make(map[string]int, months)
	for i := range totals {
		month := from.AddDate(0, i, 0).Format("2006-01")
		totals[i].Month = month
		index[month] = i
	}
	for _, d := range daily {
		if i, ok := index[d.Date.Format("2006-01")]; ok {
			totals[i].Total += d.Total
			totals[i].Count += d.Count
		}
	}
	return totals, nil
}

package visitor

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/igreja/core"
	"github.com/trezcool/igreja/core/person"
)

var (
	ErrNotFound         = core.NewNotFoundError("follow-up")
	ErrFlowNotFound     = core.NewNotFoundError("flow")
	ErrPersonNotFound   = core.NewNotFoundError("person")
	ErrFollowUpFinished = errors.New("este follow-up já foi finalizado")
)

const (
	DefaultRecentDays  = 30
	DefaultAbsenceDays = 14
)

type (
	Repository interface {
		PersonExists(ctx context.Context, db core.DBExecutor, churchID, personID string) (bool, error)
		CreateVisit(ctx context.Context, db core.DBExecutor, v Visit) (Visit, error)
		QueryRecentVisitors(ctx context.Context, db core.DBExecutor, churchID string, since time.Time) ([]RecentVisitor, error)
		QueryAbsentVisitors(ctx context.Context, db core.DBExecutor, churchID string, lastVisitBefore time.Time) ([]AbsentVisitor, error)

		CreateFollowUp(ctx context.Context, db core.DBExecutor, fu FollowUp) (FollowUp, error)
		GetFollowUp(ctx context.Context, db core.DBExecutor, churchID, id string) (FollowUp, error)
		UpdateFollowUp(ctx context.Context, db core.DBExecutor, fu FollowUp) (FollowUp, error)
		QueryPendingFollowUps(ctx context.Context, db core.DBExecutor, churchID string) ([]PendingFollowUp, error)

		QueryFlows(ctx context.Context, db core.DBExecutor, churchID string, activeOnly bool, trigger string) ([]Flow, error)
		GetFlow(ctx context.Context, db core.DBExecutor, churchID, id string) (Flow, error)
		CreateFlow(ctx context.Context, db core.DBExecutor, f Flow) (Flow, error)
		UpdateFlow(ctx context.Context, db core.DBExecutor, f Flow) (Flow, error)
		DeleteFlow(ctx context.Context, db core.DBExecutor, churchID, id string) error

		CountByStatus(ctx context.Context, db core.DBExecutor, churchID string) (map[string]int, error)
		CountConvertedSince(ctx context.Context, db core.DBExecutor, churchID string, since time.Time) (int, error)
		CountMembersSince(ctx context.Context, db core.DBExecutor, churchID string, since time.Time) (int, error)
		QueryVisitDates(ctx context.Context, db core.DBExecutor, churchID string, since time.Time) ([]VisitDate, error)
		QueryConversionDates(ctx context.Context, db core.DBExecutor, churchID string, since time.Time) ([]time.Time, error)
		QueryMembershipPaths(ctx context.Context, db core.DBExecutor, churchID string) ([]MembershipPath, error)
		CountBySource(ctx context.Context, db core.DBExecutor, churchID string) ([]SourceCount, error)
		CountVisitors(ctx context.Context, db core.DBExecutor, churchID string) (distinct int, returning int, err error)

		CreatePrayerRequest(ctx context.Context, db core.DBExecutor, pr PrayerRequest) (PrayerRequest, error)
		QueryPrayerRequests(ctx context.Context, db core.DBExecutor, churchID string, includePrivate bool) ([]PrayerRequest, error)
		CreateInterest(ctx context.Context, db core.DBExecutor, in Interest) (Interest, error)
		QueryInterests(ctx context.Context, db core.DBExecutor, churchID, personID string) ([]Interest, error)
	}

	Service struct {
		db     core.DB
		repo   Repository
		logger core.Logger
		audit  core.ActionLogger
	}
)

func NewService(db core.DB, repo Repository, logger core.Logger, audit core.ActionLogger) *Service {
	return &Service{db: db, repo: repo, logger: logger, audit: audit}
}

// RegisterVisit records a visit, then schedules one follow-up per active first-visit flow.
// Follow-up failures are logged and never fail the registration.
func (svc *Service) RegisterVisit(ctx context.Context, actor core.Actor, nv NewVisit) (Visit, error) {
	if err := nv.Validate(); err != nil {
		return Visit{}, err
	}
	exists, err := svc.repo.PersonExists(ctx, svc.db, actor.ChurchID, nv.PersonID)
	if err != nil {
		return Visit{}, errors.Wrap(err, "checking person")
	}
	if !exists {
		return Visit{}, ErrPersonNotFound
	}

	now := core.NowFunc()
	v, err := svc.repo.CreateVisit(ctx, svc.db, Visit{
		ChurchID:       actor.ChurchID,
		PersonID:       nv.PersonID,
		EventID:        core.NullString(nv.EventID),
		ReceptionistID: core.NullString(actor.PersonID),
		VisitDate:      now,
		ServiceType:    nv.ServiceType,
		HowHeard:       nv.HowHeard,
		CreatedAt:      now,
	})
	if err != nil {
		return Visit{}, errors.Wrap(err, "registering visit")
	}

	svc.scheduleFollowUps(ctx, actor, v.PersonID, now)
	svc.audit.LogAction(ctx, actor, "visita.registrar", "visita registrada para pessoa "+v.PersonID)
	return v, nil
}

func (svc *Service) scheduleFollowUps(ctx context.Context, actor core.Actor, personID string, now time.Time) {
	flows, err := svc.repo.QueryFlows(ctx, svc.db, actor.ChurchID, true, TriggerFirstVisit)
	if err != nil {
		svc.logger.Warn("loading follow-up flows", err, actor)
		return
	}
	today := core.Today(now)
	for _, flow := range flows {
		_, err = svc.repo.CreateFollowUp(ctx, svc.db, FollowUp{
			ChurchID:  actor.ChurchID,
			PersonID:  personID,
			Type:      flow.Name,
			DueDate:   today.AddDate(0, 0, flow.DaysAfter),
			Status:    FollowUpPending,
			Notes:     flow.Template,
			CreatedAt: now,
		})
		if err != nil {
			svc.logger.Warn("creating automatic follow-up", err, actor, map[string]interface{}{"flow": flow.ID})
		}
	}
}

// RecentVisitors lists the people still in the visitor stage who visited in the last `days` days.
func (svc *Service) RecentVisitors(ctx context.Context, actor core.Actor, days int) ([]RecentVisitor, error) {
	if days <= 0 {
		days = DefaultRecentDays
	}
	since := core.Today(core.NowFunc()).AddDate(0, 0, -days)
	return svc.repo.QueryRecentVisitors(ctx, svc.db, actor.ChurchID, since)
}

// NotReturned lists visitors whose last visit is at least minDays old, most absent first.
func (svc *Service) NotReturned(ctx context.Context, actor core.Actor, minDays int) ([]AbsentVisitor, error) {
	if minDays <= 0 {
		minDays = DefaultAbsenceDays
	}
	now := core.NowFunc()
	// visits on the limit day count as absent
	limit := core.Today(now).AddDate(0, 0, -minDays+1)
	visitors, err := svc.repo.QueryAbsentVisitors(ctx, svc.db, actor.ChurchID, limit)
	if err != nil {
		return nil, err
	}
	for i := range visitors {
		visitors[i].DaysAbsent = int(core.Today(now).Sub(core.Today(visitors[i].LastVisit)).Hours() / 24)
	}
	sort.SliceStable(visitors, func(i, j int) bool { return visitors[i].DaysAbsent > visitors[j].DaysAbsent })
	return visitors, nil
}

// PendingFollowUps lists the scheduled follow-ups, earliest first, each with a WhatsApp link when possible.
func (svc *Service) PendingFollowUps(ctx context.Context, actor core.Actor) ([]PendingFollowUp, error) {
	fus, err := svc.repo.QueryPendingFollowUps(ctx, svc.db, actor.ChurchID)
	if err != nil {
		return nil, err
	}
	for i, fu := range fus {
		if fu.Mobile == "" {
			continue
		}
		msg := fu.Notes
		if msg == "" {
			msg = messageTemplates[TemplateFirstFollowUp]
		}
		fus[i].WhatsAppLink = core.WhatsAppLink(fu.Mobile, RenderMessage(msg, TemplateVars{Name: core.FirstName(fu.PersonName)}))
	}
	return fus, nil
}

// UpdateFollowUp completes or cancels a scheduled follow-up on behalf of the caller.
func (svc *Service) UpdateFollowUp(ctx context.Context, actor core.Actor, id string, upd FollowUpUpdate) (FollowUp, error) {
	if err := upd.Validate(); err != nil {
		return FollowUp{}, err
	}
	fu, err := svc.repo.GetFollowUp(ctx, svc.db, actor.ChurchID, id)
	if err != nil {
		return FollowUp{}, err
	}
	if fu.Status != FollowUpPending {
		return FollowUp{}, core.NewValidationError(
			ErrFollowUpFinished, core.FieldError{Field: "status", Error: ErrFollowUpFinished.Error()},
		)
	}

	fu.Status = upd.Status
	fu.Result = upd.Result
	fu.CompletedAt = null.TimeFrom(core.NowFunc())
	fu.ResponsibleID = core.NullString(actor.PersonID)
	if fu, err = svc.repo.UpdateFollowUp(ctx, svc.db, fu); err != nil {
		return FollowUp{}, errors.Wrap(err, "updating follow-up")
	}
	svc.audit.LogAction(ctx, actor, "followup.atualizar", fmt.Sprintf("follow-up %s atualizado para %s", fu.ID, fu.Status))
	return fu, nil
}

// ConversionReport summarizes how visitors move through the funnel.
func (svc *Service) ConversionReport(ctx context.Context, actor core.Actor) (ConversionReport, error) {
	today := core.Today(core.NowFunc())
	var (
		rep ConversionReport
		err error
	)

	byStatus, err := svc.repo.CountByStatus(ctx, svc.db, actor.ChurchID)
	if err != nil {
		return rep, errors.Wrap(err, "counting statuses")
	}
	rep.Visitors = byStatus[person.StatusVisitor]
	rep.Onboarding = byStatus[person.StatusOnboarding]

	if rep.NewConverts, err = svc.repo.CountConvertedSince(ctx, svc.db, actor.ChurchID, today.AddDate(0, 0, -90)); err != nil {
		return rep, errors.Wrap(err, "counting new converts")
	}
	if rep.NewMembers, err = svc.repo.CountMembersSince(ctx, svc.db, actor.ChurchID, today.AddDate(0, 0, -365)); err != nil {
		return rep, errors.Wrap(err, "counting new members")
	}

	visits, err := svc.repo.QueryVisitDates(ctx, svc.db, actor.ChurchID, today.AddDate(0, 0, -180))
	if err != nil {
		return rep, errors.Wrap(err, "querying visits")
	}
	rep.VisitorsPerMonth = distinctPerMonth(visits)

	if rep.PerSource, err = svc.repo.CountBySource(ctx, svc.db, actor.ChurchID); err != nil {
		return rep, errors.Wrap(err, "counting sources")
	}
	if rep.DistinctVisitors, rep.Returning, err = svc.repo.CountVisitors(ctx, svc.db, actor.ChurchID); err != nil {
		return rep, errors.Wrap(err, "counting visitors")
	}

	rep.ConversionRate = percent(rep.NewMembers, rep.Visitors)
	rep.ReturnRate = percent(rep.Returning, rep.DistinctVisitors)
	return rep, nil
}

// FunnelStats counts the first funnel stages and measures conversions over the last months.
func (svc *Service) FunnelStats(ctx context.Context, actor core.Actor) (FunnelStats, error) {
	today := core.Today(core.NowFunc())
	byStatus, err := svc.repo.CountByStatus(ctx, svc.db, actor.ChurchID)
	if err != nil {
		return FunnelStats{}, errors.Wrap(err, "counting statuses")
	}
	stats := FunnelStats{Stages: make(map[string]int, 4)}
	for _, s := range []string{person.StatusVisitor, person.StatusNewConvert, person.StatusOnboarding, person.StatusMember} {
		stats.Stages[s] = byStatus[s]
	}

	dates, err := svc.repo.QueryConversionDates(ctx, svc.db, actor.ChurchID, today.AddDate(0, 0, -180))
	if err != nil {
		return FunnelStats{}, errors.Wrap(err, "querying conversions")
	}
	counts := make(map[string]int)
	for _, d := range dates {
		counts[d.Format("2006-01")]++
	}
	stats.ConversionsByMonth = monthCounts(counts)

	paths, err := svc.repo.QueryMembershipPaths(ctx, svc.db, actor.ChurchID)
	if err != nil {
		return FunnelStats{}, errors.Wrap(err, "querying membership paths")
	}
	if len(paths) > 0 {
		var total float64
		for _, p := range paths {
			total += p.MembershipDate.Sub(core.Today(p.FirstVisit)).Hours() / 24
		}
		stats.AvgDaysToMember = total / float64(len(paths))
	}
	return stats, nil
}

func (svc *Service) QueryFlows(ctx context.Context, actor core.Actor) ([]Flow, error) {
	return svc.repo.QueryFlows(ctx, svc.db, actor.ChurchID, false, "")
}

func (svc *Service) CreateFlow(ctx context.Context, actor core.Actor, in FlowInput) (Flow, error) {
	if err := in.Validate(); err != nil {
		return Flow{}, err
	}
	f := Flow{ChurchID: actor.ChurchID, IsActive: true}
	in.apply(&f)
	return svc.repo.CreateFlow(ctx, svc.db, f)
}

func (svc *Service) UpdateFlow(ctx context.Context, actor core.Actor, id string, in FlowInput) (Flow, error) {
	if err := in.Validate(); err != nil {
		return Flow{}, err
	}
	f, err := svc.repo.GetFlow(ctx, svc.db, actor.ChurchID, id)
	if err != nil {
		return Flow{}, err
	}
	in.apply(&f)
	return svc.repo.UpdateFlow(ctx, svc.db, f)
}

func (svc *Service) DeleteFlow(ctx context.Context, actor core.Actor, id string) error {
	return svc.repo.DeleteFlow(ctx, svc.db, actor.ChurchID, id)
}

// AddPrayerRequest records a prayer request, usually captured at check-in.
func (svc *Service) AddPrayerRequest(ctx context.Context, actor core.Actor, np NewPrayerRequest) (PrayerRequest, error) {
	if err := np.Validate(); err != nil {
		return PrayerRequest{}, err
	}
	if np.PersonID != "" {
		exists, err := svc.repo.PersonExists(ctx, svc.db, actor.ChurchID, np.PersonID)
		if err != nil {
			return PrayerRequest{}, errors.Wrap(err, "checking person")
		}
		if !exists {
			return PrayerRequest{}, ErrPersonNotFound
		}
	}
	return svc.repo.CreatePrayerRequest(ctx, svc.db, PrayerRequest{
		ChurchID:  actor.ChurchID,
		PersonID:  core.NullString(np.PersonID),
		Request:   np.Request,
		IsPrivate: np.IsPrivate,
		CreatedAt: core.NowFunc(),
	})
}

// PrayerRequests lists prayer requests, newest first. Private ones are only shown to pastoral profiles.
func (svc *Service) PrayerRequests(ctx context.Context, actor core.Actor, includePrivate bool) ([]PrayerRequest, error) {
	return svc.repo.QueryPrayerRequests(ctx, svc.db, actor.ChurchID, includePrivate)
}

// AddInterests records what a visitor is interested in (cells, baptism, courses...). Blank entries are skipped.
func (svc *Service) AddInterests(ctx context.Context, actor core.Actor, personID string, interests []string) ([]Interest, error) {
	exists, err := svc.repo.PersonExists(ctx, svc.db, actor.ChurchID, personID)
	if err != nil {
		return nil, errors.Wrap(err, "checking person")
	}
	if !exists {
		return nil, ErrPersonNotFound
	}

	now := core.NowFunc()
	saved := make([]Interest, 0, len(interests))
	err = core.InTx(ctx, svc.db, func(tx core.DBExecutor) error {
		for _, s := range interests {
			if s = core.CleanString(s); s == "" {
				continue
			}
			in, err := svc.repo.CreateInterest(ctx, tx, Interest{ChurchID: actor.ChurchID, PersonID: personID, Interest: s, CreatedAt: now})
			if err != nil {
				return err
			}
			saved = append(saved, in)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "saving interests")
	}
	return saved, nil
}

func (svc *Service) Interests(ctx context.Context, actor core.Actor, personID string) ([]Interest, error) {
	return svc.repo.QueryInterests(ctx, svc.db, actor.ChurchID, personID)
}

// distinctPerMonth counts distinct people per visit month.
func distinctPerMonth(visits []VisitDate) []MonthCount {
	seen := make(map[string]map[string]struct{})
	for _, v := range visits {
		month := v.VisitDate.UTC().Format("2006-01")
		if seen[month] == nil {
			seen[month] = make(map[string]struct{})
		}
		seen[month][v.PersonID] = struct{}{}
	}
	counts := make(map[string]int, len(seen))
	for month, people := range seen {
		counts[month] = len(people)
	}
	return monthCounts(counts)
}

func monthCounts(counts map[string]int) []MonthCount {
	out := make([]MonthCount, 0, len(counts))
	for month, n := range counts {
		out = append(out, MonthCount{Month: month, Total: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

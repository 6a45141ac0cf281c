package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/igreja/core"
	"github.com/trezcool/igreja/core/person"
	"github.com/trezcool/igreja/core/visitor"
)

const (
	visitColumns    = "id, church_id, person_id, event_id, receptionist_id, visit_date, service_type, how_heard, created_at"
	followUpColumns = "id, church_id, person_id, responsible_id, type, due_date, status, notes, result, completed_at, created_at"
	flowColumns     = "id, church_id, name, trigger_event, days_after, action_type, template, is_active"
)

type visitorRepository struct{}

var _ visitor.Repository = (*visitorRepository)(nil)

func NewVisitorRepository() visitor.Repository {
	return &visitorRepository{}
}

func (repo *visitorRepository) PersonExists(ctx context.Context, db core.DBExecutor, churchID, personID string) (bool, error) {
	n, err := count(ctx, db, "SELECT COUNT(*) FROM people WHERE church_id = ? AND id = ? AND is_active = TRUE", churchID, personID)
	return n > 0, err
}

func (repo *visitorRepository) CreateVisit(ctx context.Context, db core.DBExecutor, v visitor.Visit) (visitor.Visit, error) {
	v.ID = newID()
	_, err := namedExec(ctx, db, `INSERT INTO visits (`+visitColumns+`)
		VALUES (:id, :church_id, :person_id, :event_id, :receptionist_id, :visit_date, :service_type, :how_heard, :created_at)`, v)
	if err != nil {
		return visitor.Visit{}, errors.Wrap(err, "inserting visit")
	}
	return v, nil
}

func (repo *visitorRepository) QueryRecentVisitors(
	ctx context.Context,
	db core.DBExecutor,
	churchID string,
	since time.Time,
) ([]visitor.RecentVisitor, error) {
	var rows []struct {
		visitor.RecentVisitor
		LastVisit flexTime `db:"last_visit"`
	}
	err := selectAll(ctx, db, &rows, `SELECT p.id AS person_id, p.name, p.mobile, p.email,
			MAX(v.visit_date) AS last_visit, COUNT(v.id) AS total_visits,
			(SELECT lv.service_type FROM visits lv WHERE lv.person_id = p.id ORDER BY lv.visit_date DESC LIMIT 1) AS service_type,
			(SELECT lv.how_heard FROM visits lv WHERE lv.person_id = p.id ORDER BY lv.visit_date DESC LIMIT 1) AS how_heard
		FROM people p JOIN visits v ON v.person_id = p.id
		WHERE p.church_id = ? AND p.status = ? AND p.is_active = TRUE
		GROUP BY p.id, p.name, p.mobile, p.email
		HAVING MAX(v.visit_date) >= ?
		ORDER BY last_visit DESC`, churchID, person.StatusVisitor, since)
	if err != nil {
		return nil, errors.Wrap(err, "querying recent visitors")
	}

	visitors := make([]visitor.RecentVisitor, 0, len(rows))
	for _, r := range rows {
		r.RecentVisitor.LastVisit = r.LastVisit.Time.Time
		visitors = append(visitors, r.RecentVisitor)
	}
	return visitors, nil
}

func (repo *visitorRepository) QueryAbsentVisitors(
	ctx context.Context,
	db core.DBExecutor,
	churchID string,
	lastVisitBefore time.Time,
) ([]visitor.AbsentVisitor, error) {
	var rows []struct {
		visitor.AbsentVisitor
		LastVisit flexTime `db:"last_visit"`
	}
	err := selectAll(ctx, db, &rows, `SELECT p.id AS person_id, p.name, p.mobile, p.email,
			MAX(v.visit_date) AS last_visit, COUNT(v.id) AS total_visits
		FROM people p JOIN visits v ON v.person_id = p.id
		WHERE p.church_id = ? AND p.status = ? AND p.is_active = TRUE
		GROUP BY p.id, p.name, p.mobile, p.email
		HAVING MAX(v.visit_date) < ?
		ORDER BY last_visit`, churchID, person.StatusVisitor, lastVisitBefore)
	if err != nil {
		return nil, errors.Wrap(err, "querying absent visitors")
	}

	visitors := make([]visitor.AbsentVisitor, 0, len(rows))
	for _, r := range rows {
		r.AbsentVisitor.LastVisit = r.LastVisit.Time.Time
		visitors = append(visitors, r.AbsentVisitor)
	}
	return visitors, nil
}

func (repo *visitorRepository) CreateFollowUp(ctx context.Context, db core.DBExecutor, fu visitor.FollowUp) (visitor.FollowUp, error) {
	fu.ID = newID()
	_, err := namedExec(ctx, db, `INSERT INTO follow_ups (`+followUpColumns+`) VALUES (:id, :church_id, :person_id,
		:responsible_id, :type, :due_date, :status, :notes, :result, :completed_at, :created_at)`, fu)
	if err != nil {
		return visitor.FollowUp{}, errors.Wrap(err, "inserting follow-up")
	}
	return fu, nil
}

func (repo *visitorRepository) GetFollowUp(ctx context.Context, db core.DBExecutor, churchID, id string) (visitor.FollowUp, error) {
	var fu visitor.FollowUp
	err := get(ctx, db, &fu, visitor.ErrNotFound,
		"SELECT "+followUpColumns+" FROM follow_ups WHERE church_id = ? AND id = ?", churchID, id)
	return fu, err
}

func (repo *visitorRepository) UpdateFollowUp(ctx context.Context, db core.DBExecutor, fu visitor.FollowUp) (visitor.FollowUp, error) {
	_, err := namedExec(ctx, db, `UPDATE follow_ups SET responsible_id = :responsible_id, status = :status,
		result = :result, completed_at = :completed_at WHERE id = :id AND church_id = :church_id`, fu)
	if err != nil {
		return visitor.FollowUp{}, err
	}
	return fu, nil
}

func (repo *visitorRepository) QueryPendingFollowUps(ctx context.Context, db core.DBExecutor, churchID string) ([]visitor.PendingFollowUp, error) {
	fus := make([]visitor.PendingFollowUp, 0)
	err := selectAll(ctx, db, &fus, `SELECT f.id, f.church_id, f.person_id, f.responsible_id, f.type, f.due_date,
			f.status, f.notes, f.result, f.completed_at, f.created_at,
			p.name AS person_name, p.mobile, p.email, r.name AS responsible_name
		FROM follow_ups f
		JOIN people p ON p.id = f.person_id
		LEFT JOIN people r ON r.id = f.responsible_id
		WHERE f.church_id = ? AND f.status = ? AND p.is_active = TRUE
		ORDER BY f.due_date, f.created_at`, churchID, visitor.FollowUpPending)
	return fus, errors.Wrap(err, "querying pending follow-ups")
}

func (repo *visitorRepository) QueryFlows(
	ctx context.Context,
	db core.DBExecutor,
	churchID string,
	activeOnly bool,
	trigger string,
) ([]visitor.Flow, error) {
	q := "SELECT " + flowColumns + " FROM follow_up_flows WHERE church_id = ?"
	args := []interface{}{churchID}
	if activeOnly {
		q += " AND is_active = TRUE"
	}
	if trigger != "" {
		q += " AND trigger_event = ?"
		args = append(args, trigger)
	}
	q += " ORDER BY days_after, name"

	flows := make([]visitor.Flow, 0)
	err := selectAll(ctx, db, &flows, q, args...)
	return flows, errors.Wrap(err, "querying flows")
}

func (repo *visitorRepository) GetFlow(ctx context.Context, db core.DBExecutor, churchID, id string) (visitor.Flow, error) {
	var f visitor.Flow
	err := get(ctx, db, &f, visitor.ErrFlowNotFound,
		"SELECT "+flowColumns+" FROM follow_up_flows WHERE church_id = ? AND id = ?", churchID, id)
	return f, err
}

func (repo *visitorRepository) CreateFlow(ctx context.Context, db core.DBExecutor, f visitor.Flow) (visitor.Flow, error) {
	f.ID = newID()
	_, err := namedExec(ctx, db, `INSERT INTO follow_up_flows (`+flowColumns+`)
		VALUES (:id, :church_id, :name, :trigger_event, :days_after, :action_type, :template, :is_active)`, f)
	if err != nil {
		return visitor.Flow{}, errors.Wrap(err, "inserting flow")
	}
	return f, nil
}

func (repo *visitorRepository) UpdateFlow(ctx context.Context, db core.DBExecutor, f visitor.Flow) (visitor.Flow, error) {
	_, err := namedExec(ctx, db, `UPDATE follow_up_flows SET name = :name, trigger_event = :trigger_event,
		days_after = :days_after, action_type = :action_type, template = :template, is_active = :is_active
		WHERE id = :id AND church_id = :church_id`, f)
	if err != nil {
		return visitor.Flow{}, errors.Wrap(err, "updating flow")
	}
	return f, nil
}

func (repo *visitorRepository) DeleteFlow(ctx context.Context, db core.DBExecutor, churchID, id string) error {
	return execOne(ctx, db, visitor.ErrFlowNotFound, "DELETE FROM follow_up_flows WHERE church_id = ? AND id = ?", churchID, id)
}

func (repo *visitorRepository) CountByStatus(ctx context.Context, db core.DBExecutor, churchID string) (map[string]int, error) {
	var rows []struct {
		Status string `db:"status"`
		Total  int    `db:"total"`
	}
	err := selectAll(ctx, db, &rows, `SELECT status, COUNT(*) AS total FROM people
		WHERE church_id = ? AND is_active = TRUE GROUP BY status`, churchID)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Total
	}
	return counts, nil
}

func (repo *visitorRepository) CountConvertedSince(ctx context.Context, db core.DBExecutor, churchID string, since time.Time) (int, error) {
	return count(ctx, db, `SELECT COUNT(*) FROM people
		WHERE church_id = ? AND is_active = TRUE AND status = ? AND conversion_date >= ?`,
		churchID, person.StatusNewConvert, since)
}

func (repo *visitorRepository) CountMembersSince(ctx context.Context, db core.DBExecutor, churchID string, since time.Time) (int, error) {
	return count(ctx, db, `SELECT COUNT(*) FROM people
		WHERE church_id = ? AND is_active = TRUE AND status = ? AND membership_date >= ?`,
		churchID, person.StatusMember, since)
}

func (repo *visitorRepository) QueryVisitDates(
	ctx context.Context,
	db core.DBExecutor,
	churchID string,
	since time.Time,
) ([]visitor.VisitDate, error) {
	visits := make([]visitor.VisitDate, 0)
	err := selectAll(ctx, db, &visits,
		"SELECT person_id, visit_date FROM visits WHERE church_id = ? AND visit_date >= ?", churchID, since)
	return visits, err
}

func (repo *visitorRepository) QueryConversionDates(ctx context.Context, db core.DBExecutor, churchID string, since time.Time) ([]time.Time, error) {
	dates := make([]time.Time, 0)
	err := selectAll(ctx, db, &dates, `SELECT conversion_date FROM people
		WHERE church_id = ? AND conversion_date IS NOT NULL AND conversion_date >= ?`, churchID, since)
	return dates, err
}

func (repo *visitorRepository) QueryMembershipPaths(ctx context.Context, db core.DBExecutor, churchID string) ([]visitor.MembershipPath, error) {
	var rows []struct {
		MembershipDate flexTime `db:"membership_date"`
		FirstVisit     flexTime `db:"first_visit"`
	}
	err := selectAll(ctx, db, &rows, `SELECT p.membership_date,
			(SELECT MIN(v.visit_date) FROM visits v WHERE v.person_id = p.id) AS first_visit
		FROM people p WHERE p.church_id = ? AND p.membership_date IS NOT NULL`, churchID)
	if err != nil {
		return nil, err
	}

	paths := make([]visitor.MembershipPath, 0, len(rows))
	for _, r := range rows {
		if !r.FirstVisit.Valid || !r.MembershipDate.Valid {
			continue
		}
		paths = append(paths, visitor.MembershipPath{FirstVisit: r.FirstVisit.Time.Time, MembershipDate: r.MembershipDate.Time.Time})
	}
	return paths, nil
}

func (repo *visitorRepository) CountBySource(ctx context.Context, db core.DBExecutor, churchID string) ([]visitor.SourceCount, error) {
	sources := make([]visitor.SourceCount, 0)
	err := selectAll(ctx, db, &sources, `SELECT how_heard AS source, COUNT(*) AS total FROM people
		WHERE church_id = ? AND how_heard <> '' GROUP BY how_heard ORDER BY total DESC, source`, churchID)
	return sources, err
}

func (repo *visitorRepository) CountVisitors(ctx context.Context, db core.DBExecutor, churchID string) (int, int, error) {
	distinct, err := count(ctx, db, "SELECT COUNT(DISTINCT person_id) FROM visits WHERE church_id = ?", churchID)
	if err != nil {
		return 0, 0, err
	}
	returning, err := count(ctx, db, `SELECT COUNT(*) FROM (
		SELECT person_id FROM visits WHERE church_id = ? GROUP BY person_id HAVING COUNT(*) > 1
	) r`, churchID)
	if err != nil {
		return 0, 0, err
	}
	return distinct, returning, nil
}

func (repo *visitorRepository) CreatePrayerRequest(ctx context.Context, db core.DBExecutor, pr visitor.PrayerRequest) (visitor.PrayerRequest, error) {
	pr.ID = newID()
	_, err := namedExec(ctx, db, `INSERT INTO prayer_requests (id, church_id, person_id, request, is_private, created_at)
		VALUES (:id, :church_id, :person_id, :request, :is_private, :created_at)`, pr)
	if err != nil {
		return visitor.PrayerRequest{}, errors.Wrap(err, "inserting prayer request")
	}
	return pr, nil
}

func (repo *visitorRepository) QueryPrayerRequests(
	ctx context.Context,
	db core.DBExecutor,
	churchID string,
	includePrivate bool,
) ([]visitor.PrayerRequest, error) {
	q := "SELECT id, church_id, person_id, request, is_private, created_at FROM prayer_requests WHERE church_id = ?"
	if !includePrivate {
		q += " AND is_private = FALSE"
	}
	q += " ORDER BY created_at DESC"

	requests := make([]visitor.PrayerRequest, 0)
	err := selectAll(ctx, db, &requests, q, churchID)
	return requests, errors.Wrap(err, "querying prayer requests")
}

func (repo *visitorRepository) CreateInterest(ctx context.Context, db core.DBExecutor, in visitor.Interest) (visitor.Interest, error) {
	in.ID = newID()
	_, err := namedExec(ctx, db, `INSERT INTO visitor_interests (id, church_id, person_id, interest, created_at)
		VALUES (:id, :church_id, :person_id, :interest, :created_at)`, in)
	if err != nil {
		return visitor.Interest{}, errors.Wrap(err, "inserting interest")
	}
	return in, nil
}

func (repo *visitorRepository) QueryInterests(ctx context.Context, db core.DBExecutor, churchID, personID string) ([]visitor.Interest, error) {
	interests := make([]visitor.Interest, 0)
	err := selectAll(ctx, db, &interests, `SELECT id, church_id, person_id, interest, created_at FROM visitor_interests
		WHERE church_id = ? AND person_id = ? ORDER BY created_at, interest`, churchID, personID)
	return interests, err
}

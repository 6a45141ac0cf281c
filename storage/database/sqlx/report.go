package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/igreja/core"
	"github.com/trezcool/igreja/core/report"
)

type reportRepository struct{}

var _ report.Repository = (*reportRepository)(nil)

func NewReportRepository() report.Repository {
	return &reportRepository{}
}

func (repo *reportRepository) CountByStatus(ctx context.Context, db core.DBExecutor, churchID string) ([]report.StatusCount, error) {
	counts := make([]report.StatusCount, 0)
	err := selectAll(ctx, db, &counts, `SELECT status, COUNT(*) AS n FROM people
		WHERE church_id = ? AND is_active = TRUE GROUP BY status ORDER BY status`, churchID)
	if err != nil {
		return nil, errors.Wrap(err, "counting people per status")
	}
	return counts, nil
}

func (repo *reportRepository) MembershipDates(ctx context.Context, db core.DBExecutor, churchID string, since time.Time) ([]time.Time, error) {
	dates := make([]time.Time, 0)
	err := selectAll(ctx, db, &dates, `SELECT membership_date FROM people
		WHERE church_id = ? AND is_active = TRUE AND membership_date IS NOT NULL AND membership_date >= ?`, churchID, since)
	if err != nil {
		return nil, errors.Wrap(err, "querying membership dates")
	}
	return dates, nil
}

func (repo *reportRepository) CountVisitors(ctx context.Context, db core.DBExecutor, churchID string, since time.Time) (int, error) {
	return count(ctx, db, "SELECT COUNT(DISTINCT person_id) FROM visits WHERE church_id = ? AND visit_date >= ?", churchID, since)
}

func (repo *reportRepository) CountCells(ctx context.Context, db core.DBExecutor, churchID string) (int, error) {
	return count(ctx, db, "SELECT COUNT(*) FROM cells WHERE church_id = ? AND is_active = TRUE", churchID)
}

func (repo *reportRepository) CountMinistries(ctx context.Context, db core.DBExecutor, churchID string) (int, error) {
	return count(ctx, db, "SELECT COUNT(*) FROM ministries WHERE church_id = ? AND is_active = TRUE", churchID)
}

func (repo *reportRepository) QueryCellHealth(ctx context.Context, db core.DBExecutor, churchID string, since time.Time) ([]report.CellHealth, error) {
	cells := make([]report.CellHealth, 0)
	err := selectAll(ctx, db, &cells, `SELECT c.id, c.name, l.name AS leader_name,
			(SELECT COUNT(*) FROM cell_members cm WHERE cm.cell_id = c.id AND cm.is_active = TRUE) AS members,
			(SELECT AVG(cmt.present_count) FROM cell_meetings cmt
				WHERE cmt.cell_id = c.id AND cmt.meeting_date >= ?) AS avg_attendance,
			(SELECT COUNT(*) FROM cell_meetings cmt WHERE cmt.cell_id = c.id AND cmt.meeting_date >= ?) AS meetings
		FROM cells c LEFT JOIN people l ON l.id = c.leader_id
		WHERE c.church_id = ? AND c.is_active = TRUE
		ORDER BY c.name`, since, since, churchID)
	if err != nil {
		return nil, errors.Wrap(err, "querying cell health")
	}
	return cells, nil
}

func (repo *reportRepository) QueryDonations(ctx context.Context, db core.DBExecutor, churchID string, since time.Time) ([]report.DonationRow, error) {
	rows := make([]report.DonationRow, 0)
	err := selectAll(ctx, db, &rows, "SELECT amount, donated_at FROM donations WHERE church_id = ? AND donated_at >= ?",
		churchID, since)
	if err != nil {
		return nil, errors.Wrap(err, "querying donations")
	}
	return rows, nil
}

func (repo *reportRepository) QueryEventAttendance(
	ctx context.Context,
	db core.DBExecutor,
	churchID string,
	from, to time.Time,
) ([]report.EventAttendance, error) {
	events := make([]report.EventAttendance, 0)
	err := selectAll(ctx, db, &events, `SELECT e.id, e.name, e.starts_at,
			(SELECT COUNT(*) FROM event_attendance a WHERE a.event_id = e.id) AS present
		FROM events e
		WHERE e.church_id = ? AND e.is_active = TRUE AND e.starts_at >= ? AND e.starts_at < ?
		ORDER BY e.starts_at DESC`, churchID, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "querying event attendance")
	}
	return events, nil
}

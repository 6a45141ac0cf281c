package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/igreja/core"
	"github.com/trezcool/igreja/core/schedule"
)

const (
	rosterListQuery = `SELECT r.id, r.church_id, r.ministry_id, r.name, r.start_date, r.end_date, r.recurrence, r.created_at,
		m.name AS ministry_name,
		(SELECT COUNT(*) FROM roster_items ri WHERE ri.roster_id = r.id) AS items
	FROM rosters r JOIN ministries m ON m.id = r.ministry_id
	WHERE r.church_id = ?`
	itemColumns = "ri.id, ri.roster_id, ri.person_id, ri.serve_date, ri.role, ri.serve_time, ri.confirmed, ri.confirmed_at, ri.notes"
	swapColumns = "s.id, s.item_id, s.requester_id, s.substitute_id, s.reason, s.status, s.created_at, s.resolved_at"
)

type scheduleRepository struct{}

var _ schedule.Repository = (*scheduleRepository)(nil)

func NewScheduleRepository() schedule.Repository {
	return &scheduleRepository{}
}

func (repo *scheduleRepository) MinistryExists(ctx context.Context, db core.DBExecutor, churchID, id string) (bool, error) {
	n, err := count(ctx, db, "SELECT COUNT(*) FROM ministries WHERE church_id = ? AND id = ? AND is_active = TRUE", churchID, id)
	return n > 0, err
}

func (repo *scheduleRepository) PersonExists(ctx context.Context, db core.DBExecutor, churchID, id string) (bool, error) {
	n, err := count(ctx, db, "SELECT COUNT(*) FROM people WHERE church_id = ? AND id = ? AND is_active = TRUE", churchID, id)
	return n > 0, err
}

func (repo *scheduleRepository) QueryMinistryMembers(ctx context.Context, db core.DBExecutor, ministryID string) ([]schedule.Member, error) {
	members := make([]schedule.Member, 0)
	err := selectAll(ctx, db, &members, `SELECT p.id, p.name, p.mobile
		FROM ministry_members mm JOIN people p ON p.id = mm.person_id
		WHERE mm.ministry_id = ? AND mm.is_active = TRUE AND p.is_active = TRUE
		ORDER BY p.name`, ministryID)
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (repo *scheduleRepository) QueryRosters(
	ctx context.Context,
	db core.DBExecutor,
	churchID, ministryID string,
) ([]schedule.RosterListItem, error) {
	query := rosterListQuery
	args := []interface{}{churchID}
	if ministryID != "" {
		query += " AND r.ministry_id = ?"
		args = append(args, ministryID)
	}

	rosters := make([]schedule.RosterListItem, 0)
	if err := selectAll(ctx, db, &rosters, query+" ORDER BY r.start_date DESC, r.name", args...); err != nil {
		return nil, errors.Wrap(err, "querying rosters")
	}
	return rosters, nil
}

func (repo *scheduleRepository) GetRoster(ctx context.Context, db core.DBExecutor, churchID, id string) (schedule.RosterListItem, error) {
	var r schedule.RosterListItem
	if err := get(ctx, db, &r, schedule.ErrNotFound, rosterListQuery+" AND r.id = ?", churchID, id); err != nil {
		return schedule.RosterListItem{}, err
	}
	return r, nil
}

func (repo *scheduleRepository) CreateRoster(ctx context.Context, db core.DBExecutor, r schedule.Roster) (schedule.Roster, error) {
	r.ID = newID()
	_, err := namedExec(ctx, db, `INSERT INTO rosters (id, church_id, ministry_id, name, start_date, end_date, recurrence, created_at)
		VALUES (:id, :church_id, :ministry_id, :name, :start_date, :end_date, :recurrence, :created_at)`, r)
	if err != nil {
		return schedule.Roster{}, errors.Wrap(err, "inserting roster")
	}
	return r, nil
}

func (repo *scheduleRepository) UpdateRoster(ctx context.Context, db core.DBExecutor, r schedule.Roster) (schedule.Roster, error) {
	_, err := namedExec(ctx, db, `UPDATE rosters SET
		ministry_id = :ministry_id, name = :name, start_date = :start_date, end_date = :end_date, recurrence = :recurrence
		WHERE id = :id AND church_id = :church_id`, r)
	if err != nil {
		return schedule.Roster{}, errors.Wrap(err, "updating roster")
	}
	return r, nil
}

func (repo *scheduleRepository) DeleteRoster(ctx context.Context, db core.DBExecutor, churchID, id string) error {
	return execOne(ctx, db, schedule.ErrNotFound, "DELETE FROM rosters WHERE church_id = ? AND id = ?", churchID, id)
}

func (repo *scheduleRepository) QueryItems(ctx context.Context, db core.DBExecutor, rosterID string) ([]schedule.ItemListItem, error) {
	items := make([]schedule.ItemListItem, 0)
	err := selectAll(ctx, db, &items, `SELECT `+itemColumns+`, p.name AS person_name, p.mobile
		FROM roster_items ri JOIN people p ON p.id = ri.person_id
		WHERE ri.roster_id = ?
		ORDER BY ri.serve_date, ri.serve_time, ri.role, p.name`, rosterID)
	if err != nil {
		return nil, errors.Wrap(err, "querying roster items")
	}
	return items, nil
}

func (repo *scheduleRepository) QueryPersonItems(
	ctx context.Context,
	db core.DBExecutor,
	churchID, personID string,
	from time.Time,
) ([]schedule.MyItem, error) {
	items := make([]schedule.MyItem, 0)
	err := selectAll(ctx, db, &items, `SELECT `+itemColumns+`, r.name AS roster_name, m.name AS ministry_name
		FROM roster_items ri
		JOIN rosters r ON r.id = ri.roster_id
		JOIN ministries m ON m.id = r.ministry_id
		WHERE r.church_id = ? AND ri.person_id = ? AND ri.serve_date >= ?
		ORDER BY ri.serve_date, ri.serve_time`, churchID, personID, from)
	if err != nil {
		return nil, errors.Wrap(err, "querying person schedule")
	}
	return items, nil
}

func (repo *scheduleRepository) GetItem(ctx context.Context, db core.DBExecutor, churchID, id string) (schedule.Item, error) {
	var item schedule.Item
	err := get(ctx, db, &item, schedule.ErrItemNotFound, `SELECT `+itemColumns+`
		FROM roster_items ri JOIN rosters r ON r.id = ri.roster_id
		WHERE r.church_id = ? AND ri.id = ?`, churchID, id)
	if err != nil {
		return schedule.Item{}, err
	}
	return item, nil
}

func (repo *scheduleRepository) CreateItem(ctx context.Context, db core.DBExecutor, item schedule.Item) (schedule.Item, error) {
	item.ID = newID()
	_, err := namedExec(ctx, db, `INSERT INTO roster_items
		(id, roster_id, person_id, serve_date, role, serve_time, confirmed, confirmed_at, notes)
		VALUES (:id, :roster_id, :person_id, :serve_date, :role, :serve_time, :confirmed, :confirmed_at, :notes)`, item)
	if err != nil {
		return schedule.Item{}, errors.Wrap(err, "inserting roster item")
	}
	return item, nil
}

func (repo *scheduleRepository) UpdateItem(ctx context.Context, db core.DBExecutor, item schedule.Item) (schedule.Item, error) {
	_, err := namedExec(ctx, db, `UPDATE roster_items SET
		person_id = :person_id, serve_date = :serve_date, role = :role, serve_time = :serve_time,
		confirmed = :confirmed, confirmed_at = :confirmed_at, notes = :notes
		WHERE id = :id`, item)
	if err != nil {
		return schedule.Item{}, errors.Wrap(err, "updating roster item")
	}
	return item, nil
}

func (repo *scheduleRepository) DeleteItem(ctx context.Context, db core.DBExecutor, id string) error {
	return execOne(ctx, db, schedule.ErrItemNotFound, "DELETE FROM roster_items WHERE id = ?", id)
}

func (repo *scheduleRepository) HasPendingSwap(ctx context.Context, db core.DBExecutor, itemID string) (bool, error) {
	n, err := count(ctx, db, "SELECT COUNT(*) FROM roster_swaps WHERE item_id = ? AND status = ?", itemID, schedule.SwapPending)
	return n > 0, err
}

func (repo *scheduleRepository) QueryPendingSwaps(ctx context.Context, db core.DBExecutor, churchID string) ([]schedule.SwapListItem, error) {
	swaps := make([]schedule.SwapListItem, 0)
	err := selectAll(ctx, db, &swaps, `SELECT `+swapColumns+`,
			ri.serve_date, ri.role, ri.serve_time,
			p.name AS requester_name, ps.name AS substitute_name,
			r.name AS roster_name, m.name AS ministry_name
		FROM roster_swaps s
		JOIN roster_items ri ON ri.id = s.item_id
		JOIN rosters r ON r.id = ri.roster_id
		JOIN ministries m ON m.id = r.ministry_id
		JOIN people p ON p.id = s.requester_id
		LEFT JOIN people ps ON ps.id = s.substitute_id
		WHERE r.church_id = ? AND s.status = ?
		ORDER BY ri.serve_date`, churchID, schedule.SwapPending)
	if err != nil {
		return nil, errors.Wrap(err, "querying pending swaps")
	}
	return swaps, nil
}

func (repo *scheduleRepository) GetSwap(ctx context.Context, db core.DBExecutor, churchID, id string) (schedule.Swap, error) {
	var s schedule.Swap
	err := get(ctx, db, &s, schedule.ErrSwapNotFound, `SELECT `+swapColumns+`
		FROM roster_swaps s
		JOIN roster_items ri ON ri.id = s.item_id
		JOIN rosters r ON r.id = ri.roster_id
		WHERE r.church_id = ? AND s.id = ?`, churchID, id)
	if err != nil {
		return schedule.Swap{}, err
	}
	return s, nil
}

func (repo *scheduleRepository) CreateSwap(ctx context.Context, db core.DBExecutor, s schedule.Swap) (schedule.Swap, error) {
	s.ID = newID()
	_, err := namedExec(ctx, db, `INSERT INTO roster_swaps
		(id, item_id, requester_id, substitute_id, reason, status, created_at, resolved_at)
		VALUES (:id, :item_id, :requester_id, :substitute_id, :reason, :status, :created_at, :resolved_at)`, s)
	if err != nil {
		return schedule.Swap{}, errors.Wrap(err, "inserting swap request")
	}
	return s, nil
}

func (repo *scheduleRepository) UpdateSwap(ctx context.Context, db core.DBExecutor, s schedule.Swap) (schedule.Swap, error) {
	_, err := namedExec(ctx, db, `UPDATE roster_swaps SET
		substitute_id = :substitute_id, reason = :reason, status = :status, resolved_at = :resolved_at
		WHERE id = :id`, s)
	if err != nil {
		return schedule.Swap{}, errors.Wrap(err, "updating swap request")
	}
	return s, nil
}

package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/igreja/core"
	"github.com/trezcool/igreja/core/ministry"
)

const (
	ministryColumns = "m.id, m.church_id, m.name, m.description, m.leader_id, m.vice_leader_id, m.color, m.is_active, m.created_at"
	cellColumns     = "c.id, c.church_id, c.network_id, c.name, c.description, c.leader_id, c.co_leader_id, c.host_id, c.address, c.weekday, c.meeting_time, c.is_active, c.created_at"
	meetingColumns  = "id, cell_id, meeting_date, theme, present_count, visitors_count, offering, notes, created_at"
)

type ministryRepository struct{}

var _ ministry.Repository = (*ministryRepository)(nil)

func NewMinistryRepository() ministry.Repository {
	return &ministryRepository{}
}

func (repo *ministryRepository) PeopleExist(ctx context.Context, db core.DBExecutor, churchID string, ids ...string) (bool, error) {
	if len(ids) == 0 {
		return true, nil
	}
	distinct := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		distinct[id] = struct{}{}
	}
	q, args, err := sqlx.In(
		"SELECT COUNT(*) FROM people WHERE church_id = ? AND is_active = TRUE AND id IN (?)",
		churchID, ids,
	)
	if err != nil {
		return false, err
	}
	n, err := count(ctx, db, q, args...)
	if err != nil {
		return false, errors.Wrap(err, "counting people")
	}
	return n == len(distinct), nil
}

// Ministries

const ministryListQuery = `SELECT ` + ministryColumns + `,
		l.name AS leader_name, vl.name AS vice_leader_name,
		(SELECT COUNT(*) FROM ministry_members mm WHERE mm.ministry_id = m.id AND mm.is_active = TRUE) AS member_count
	FROM ministries m
	LEFT JOIN people l ON l.id = m.leader_id
	LEFT JOIN people vl ON vl.id = m.vice_leader_id
	WHERE m.church_id = ? AND m.is_active = TRUE`

func (repo *ministryRepository) QueryMinistries(ctx context.Context, db core.DBExecutor, churchID string) ([]ministry.MinistryListItem, error) {
	ministries := make([]ministry.MinistryListItem, 0)
	if err := selectAll(ctx, db, &ministries, ministryListQuery+" ORDER BY m.name", churchID); err != nil {
		return nil, errors.Wrap(err, "querying ministries")
	}
	return ministries, nil
}

func (repo *ministryRepository) GetMinistry(ctx context.Context, db core.DBExecutor, churchID, id string) (ministry.MinistryListItem, error) {
	var m ministry.MinistryListItem
	if err := get(ctx, db, &m, ministry.ErrNotFound, ministryListQuery+" AND m.id = ?", churchID, id); err != nil {
		return ministry.MinistryListItem{}, err
	}
	return m, nil
}

func (repo *ministryRepository) CreateMinistry(ctx context.Context, db core.DBExecutor, m ministry.Ministry) (ministry.Ministry, error) {
	m.ID = newID()
	_, err := namedExec(ctx, db, `INSERT INTO ministries
		(id, church_id, name, description, leader_id, vice_leader_id, color, is_active, created_at)
		VALUES (:id, :church_id, :name, :description, :leader_id, :vice_leader_id, :color, :is_active, :created_at)`, m)
	if err != nil {
		return ministry.Ministry{}, errors.Wrap(err, "inserting ministry")
	}
	return m, nil
}

func (repo *ministryRepository) UpdateMinistry(ctx context.Context, db core.DBExecutor, m ministry.Ministry) (ministry.Ministry, error) {
	_, err := namedExec(ctx, db, `UPDATE ministries SET
		name = :name, description = :description, leader_id = :leader_id, vice_leader_id = :vice_leader_id,
		color = :color, is_active = :is_active
		WHERE id = :id AND church_id = :church_id`, m)
	if err != nil {
		return ministry.Ministry{}, errors.Wrap(err, "updating ministry")
	}
	return m, nil
}

func (repo *ministryRepository) QueryMinistryMembers(ctx context.Context, db core.DBExecutor, ministryID string) ([]ministry.Member, error) {
	members := make([]ministry.Member, 0)
	err := selectAll(ctx, db, &members, `SELECT p.id AS person_id, p.name, p.mobile, p.email, mm.role, mm.joined_at
		FROM ministry_members mm JOIN people p ON p.id = mm.person_id
		WHERE mm.ministry_id = ? AND mm.is_active = TRUE AND p.is_active = TRUE
		ORDER BY p.name`, ministryID)
	if err != nil {
		return nil, errors.Wrap(err, "querying ministry members")
	}
	return members, nil
}

// upsertMember reactivates an existing membership row or inserts a new one.
func upsertMember(ctx context.Context, db core.DBExecutor, table, groupColumn, groupID, personID, role string, joinedAt time.Time) error {
	res, err := exec(ctx, db, `UPDATE `+table+` SET role = ?, is_active = TRUE, left_at = NULL, joined_at = ?
		WHERE `+groupColumn+` = ? AND person_id = ?`, role, joinedAt, groupID, personID)
	if err != nil {
		return errors.Wrapf(err, "updating %s", table)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n > 0 {
		return nil
	}

	_, err = exec(ctx, db, `INSERT INTO `+table+` (`+groupColumn+`, person_id, role, joined_at, is_active)
		VALUES (?, ?, ?, ?, TRUE)`, groupID, personID, role, joinedAt)
	return errors.Wrapf(err, "inserting into %s", table)
}

func deactivateMember(ctx context.Context, db core.DBExecutor, table, groupColumn, groupID, personID string, leftAt time.Time) error {
	return execOne(ctx, db, ministry.ErrMemberNotFound, `UPDATE `+table+` SET is_active = FALSE, left_at = ?
		WHERE `+groupColumn+` = ? AND person_id = ? AND is_active = TRUE`, leftAt, groupID, personID)
}

func (repo *ministryRepository) UpsertMinistryMember(
	ctx context.Context,
	db core.DBExecutor,
	ministryID, personID, role string,
	joinedAt time.Time,
) error {
	return upsertMember(ctx, db, "ministry_members", "ministry_id", ministryID, personID, role, joinedAt)
}

func (repo *ministryRepository) DeactivateMinistryMember(
	ctx context.Context,
	db core.DBExecutor,
	ministryID, personID string,
	leftAt time.Time,
) error {
	return deactivateMember(ctx, db, "ministry_members", "ministry_id", ministryID, personID, leftAt)
}

// Cells

const cellListQuery = `SELECT ` + cellColumns + `,
		l.name AS leader_name, cl.name AS co_leader_name, h.name AS host_name, n.name AS network_name,
		(SELECT COUNT(*) FROM cell_members cm WHERE cm.cell_id = c.id AND cm.is_active = TRUE) AS member_count,
		COALESCE((SELECT AVG(me.present_count) FROM cell_meetings me
			WHERE me.cell_id = c.id AND me.meeting_date >= ?), 0) AS avg_attendance
	FROM cells c
	LEFT JOIN people l ON l.id = c.leader_id
	LEFT JOIN people cl ON cl.id = c.co_leader_id
	LEFT JOIN people h ON h.id = c.host_id
	LEFT JOIN networks n ON n.id = c.network_id
	WHERE c.church_id = ? AND c.is_active = TRUE`

func (repo *ministryRepository) QueryCells(
	ctx context.Context,
	db core.DBExecutor,
	churchID string,
	attendanceSince time.Time,
) ([]ministry.CellListItem, error) {
	cells := make([]ministry.CellListItem, 0)
	if err := selectAll(ctx, db, &cells, cellListQuery+" ORDER BY c.name", attendanceSince, churchID); err != nil {
		return nil, errors.Wrap(err, "querying cells")
	}
	return cells, nil
}

func (repo *ministryRepository) GetCell(
	ctx context.Context,
	db core.DBExecutor,
	churchID, id string,
	attendanceSince time.Time,
) (ministry.CellListItem, error) {
	var c ministry.CellListItem
	if err := get(ctx, db, &c, ministry.ErrCellNotFound, cellListQuery+" AND c.id = ?", attendanceSince, churchID, id); err != nil {
		return ministry.CellListItem{}, err
	}
	return c, nil
}

func (repo *ministryRepository) CreateCell(ctx context.Context, db core.DBExecutor, c ministry.Cell) (ministry.Cell, error) {
	c.ID = newID()
	_, err := namedExec(ctx, db, `INSERT INTO cells
		(id, church_id, network_id, name, description, leader_id, co_leader_id, host_id, address, weekday, meeting_time, is_active, created_at)
		VALUES (:id, :church_id, :network_id, :name, :description, :leader_id, :co_leader_id, :host_id,
			:address, :weekday, :meeting_time, :is_active, :created_at)`, c)
	if err != nil {
		return ministry.Cell{}, errors.Wrap(err, "inserting cell")
	}
	return c, nil
}

func (repo *ministryRepository) UpdateCell(ctx context.Context, db core.DBExecutor, c ministry.Cell) (ministry.Cell, error) {
	_, err := namedExec(ctx, db, `UPDATE cells SET
		network_id = :network_id, name = :name, description = :description, leader_id = :leader_id,
		co_leader_id = :co_leader_id, host_id = :host_id, address = :address, weekday = :weekday,
		meeting_time = :meeting_time, is_active = :is_active
		WHERE id = :id AND church_id = :church_id`, c)
	if err != nil {
		return ministry.Cell{}, errors.Wrap(err, "updating cell")
	}
	return c, nil
}

func (repo *ministryRepository) QueryCellMembers(ctx context.Context, db core.DBExecutor, cellID string) ([]ministry.Member, error) {
	members := make([]ministry.Member, 0)
	err := selectAll(ctx, db, &members, `SELECT p.id AS person_id, p.name, p.mobile, p.email, cm.role, cm.joined_at
		FROM cell_members cm JOIN people p ON p.id = cm.person_id
		WHERE cm.cell_id = ? AND cm.is_active = TRUE AND p.is_active = TRUE
		ORDER BY p.name`, cellID)
	if err != nil {
		return nil, errors.Wrap(err, "querying cell members")
	}
	return members, nil
}

func (repo *ministryRepository) UpsertCellMember(
	ctx context.Context,
	db core.DBExecutor,
	cellID, personID, role string,
	joinedAt time.Time,
) error {
	return upsertMember(ctx, db, "cell_members", "cell_id", cellID, personID, role, joinedAt)
}

func (repo *ministryRepository) DeactivateCellMember(
	ctx context.Context,
	db core.DBExecutor,
	cellID, personID string,
	leftAt time.Time,
) error {
	return deactivateMember(ctx, db, "cell_members", "cell_id", cellID, personID, leftAt)
}

func (repo *ministryRepository) CreateMeeting(
	ctx context.Context,
	db core.DBExecutor,
	m ministry.Meeting,
	presentIDs []string,
) (ministry.Meeting, error) {
	m.ID = newID()
	_, err := namedExec(ctx, db, `INSERT INTO cell_meetings (`+meetingColumns+`)
		VALUES (:id, :cell_id, :meeting_date, :theme, :present_count, :visitors_count, :offering, :notes, :created_at)`, m)
	if err != nil {
		return ministry.Meeting{}, errors.Wrap(err, "inserting meeting")
	}
	for _, personID := range presentIDs {
		_, err = exec(ctx, db, "INSERT INTO cell_attendance (meeting_id, person_id, present) VALUES (?, ?, TRUE)", m.ID, personID)
		if err != nil {
			return ministry.Meeting{}, errors.Wrap(err, "inserting attendance")
		}
	}
	return m, nil
}

func (repo *ministryRepository) QueryMeetings(ctx context.Context, db core.DBExecutor, cellID string, limit int) ([]ministry.Meeting, error) {
	meetings := make([]ministry.Meeting, 0)
	err := selectAll(ctx, db, &meetings, `SELECT `+meetingColumns+` FROM cell_meetings
		WHERE cell_id = ? ORDER BY meeting_date DESC, created_at DESC LIMIT ?`, cellID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "querying meetings")
	}
	return meetings, nil
}

// Networks

func (repo *ministryRepository) QueryNetworks(ctx context.Context, db core.DBExecutor, churchID string) ([]ministry.NetworkListItem, error) {
	networks := make([]ministry.NetworkListItem, 0)
	err := selectAll(ctx, db, &networks, `SELECT n.id, n.church_id, n.name, n.supervisor_id, n.color, n.is_active,
			s.name AS supervisor_name,
			(SELECT COUNT(*) FROM cells c WHERE c.network_id = n.id AND c.is_active = TRUE) AS cell_count
		FROM networks n LEFT JOIN people s ON s.id = n.supervisor_id
		WHERE n.church_id = ? AND n.is_active = TRUE
		ORDER BY n.name`, churchID)
	if err != nil {
		return nil, errors.Wrap(err, "querying networks")
	}
	return networks, nil
}

func (repo *ministryRepository) GetNetwork(ctx context.Context, db core.DBExecutor, churchID, id string) (ministry.Network, error) {
	var n ministry.Network
	err := get(ctx, db, &n, ministry.ErrNetworkNotFound, `SELECT id, church_id, name, supervisor_id, color, is_active
		FROM networks WHERE church_id = ? AND id = ? AND is_active = TRUE`, churchID, id)
	if err != nil {
		return ministry.Network{}, err
	}
	return n, nil
}

func (repo *ministryRepository) CreateNetwork(ctx context.Context, db core.DBExecutor, n ministry.Network) (ministry.Network, error) {
	n.ID = newID()
	_, err := namedExec(ctx, db, `INSERT INTO networks (id, church_id, name, supervisor_id, color, is_active)
		VALUES (:id, :church_id, :name, :supervisor_id, :color, :is_active)`, n)
	if err != nil {
		return ministry.Network{}, errors.Wrap(err, "inserting network")
	}
	return n, nil
}

func (repo *ministryRepository) UpdateNetwork(ctx context.Context, db core.DBExecutor, n ministry.Network) (ministry.Network, error) {
	_, err := namedExec(ctx, db, `UPDATE networks SET name = :name, supervisor_id = :supervisor_id, color = :color, is_active = :is_active
		WHERE id = :id AND church_id = :church_id`, n)
	if err != nil {
		return ministry.Network{}, errors.Wrap(err, "updating network")
	}
	return n, nil
}

package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/igreja/core"
	"github.com/trezcool/igreja/core/counseling"
	"github.com/trezcool/igreja/core/person"
	"github.com/trezcool/igreja/core/user"
)

const sessionInfoQuery = `SELECT s.id, s.person_id, p.name AS person_name, s.counselor_id, c.name AS counselor_name,
		s.session_date, s.session_type, s.status, s.follow_up_date
	FROM counseling_sessions s
	JOIN people p ON p.id = s.person_id
	JOIN people c ON c.id = s.counselor_id
	WHERE s.church_id = ?`

type counselingRepository struct{}

var _ counseling.Repository = (*counselingRepository)(nil)

func NewCounselingRepository() counseling.Repository {
	return &counselingRepository{}
}

func (repo *counselingRepository) PersonExists(ctx context.Context, db core.DBExecutor, churchID, personID string) (bool, error) {
	n, err := count(ctx, db, "SELECT COUNT(*) FROM people WHERE church_id = ? AND id = ? AND is_active = TRUE", churchID, personID)
	return n > 0, err
}

func (repo *counselingRepository) QuerySessions(
	ctx context.Context,
	db core.DBExecutor,
	churchID string,
	filter counseling.Filter,
) ([]counseling.SessionInfo, error) {
	query := sessionInfoQuery
	args := []interface{}{churchID}
	if filter.PersonID != "" {
		query += " AND s.person_id = ?"
		args = append(args, filter.PersonID)
	}
	if filter.CounselorID != "" {
		query += " AND s.counselor_id = ?"
		args = append(args, filter.CounselorID)
	}
	if filter.Status != "" {
		query += " AND s.status = ?"
		args = append(args, filter.Status)
	}

	sessions := make([]counseling.SessionInfo, 0)
	if err := selectAll(ctx, db, &sessions, query+" ORDER BY s.session_date DESC", args...); err != nil {
		return nil, errors.Wrap(err, "querying counseling sessions")
	}
	return sessions, nil
}

func (repo *counselingRepository) GetSession(
	ctx context.Context,
	db core.DBExecutor,
	churchID, id string,
) (counseling.Session, counseling.SessionInfo, error) {
	var s counseling.Session
	err := get(ctx, db, &s, counseling.ErrNotFound, `SELECT id, church_id, person_id, counselor_id, session_date, session_type,
			summary, notes, follow_up_date, status, created_at, updated_at
		FROM counseling_sessions WHERE church_id = ? AND id = ?`, churchID, id)
	if err != nil {
		return counseling.Session{}, counseling.SessionInfo{}, err
	}

	var info counseling.SessionInfo
	if err = get(ctx, db, &info, counseling.ErrNotFound, sessionInfoQuery+" AND s.id = ?", churchID, id); err != nil {
		return counseling.Session{}, counseling.SessionInfo{}, err
	}
	return s, info, nil
}

func (repo *counselingRepository) CreateSession(ctx context.Context, db core.DBExecutor, s counseling.Session) (counseling.Session, error) {
	s.ID = newID()
	_, err := namedExec(ctx, db, `INSERT INTO counseling_sessions
		(id, church_id, person_id, counselor_id, session_date, session_type, summary, notes, follow_up_date, status,
			created_at, updated_at)
		VALUES (:id, :church_id, :person_id, :counselor_id, :session_date, :session_type, :summary, :notes, :follow_up_date,
			:status, :created_at, :updated_at)`, s)
	if err != nil {
		return counseling.Session{}, errors.Wrap(err, "inserting counseling session")
	}
	return s, nil
}

func (repo *counselingRepository) UpdateSession(ctx context.Context, db core.DBExecutor, s counseling.Session) (counseling.Session, error) {
	_, err := namedExec(ctx, db, `UPDATE counseling_sessions SET
		person_id = :person_id, counselor_id = :counselor_id, session_date = :session_date, session_type = :session_type,
		summary = :summary, notes = :notes, follow_up_date = :follow_up_date, status = :status, updated_at = :updated_at
		WHERE id = :id AND church_id = :church_id`, s)
	if err != nil {
		return counseling.Session{}, errors.Wrap(err, "updating counseling session")
	}
	return s, nil
}

func (repo *counselingRepository) QueryCounselors(ctx context.Context, db core.DBExecutor, churchID string) ([]counseling.Counselor, error) {
	counselors := make([]counseling.Counselor, 0)
	err := selectIn(ctx, db, &counselors, `SELECT DISTINCT p.id, p.name
		FROM people p LEFT JOIN users u ON u.person_id = p.id AND u.is_active = TRUE
		WHERE p.church_id = ? AND p.is_active = TRUE AND (p.status IN (?) OR u.profile IN (?))
		ORDER BY p.name`,
		churchID,
		[]string{person.StatusLeader, person.StatusMember},
		[]string{user.ProfileAdmin, user.ProfilePastor, user.ProfileLeader},
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying counselors")
	}
	return counselors, nil
}

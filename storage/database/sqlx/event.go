package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/igreja/core"
	"github.com/trezcool/igreja/core/event"
)

const eventListQuery = `SELECT e.id, e.church_id, e.name, e.description, e.event_type, e.starts_at, e.ends_at, e.location,
		e.capacity, e.checkin_code, e.requires_registration, e.is_active, e.created_at,
		(SELECT COUNT(*) FROM event_registrations er WHERE er.event_id = e.id) AS registrations,
		(SELECT COUNT(*) FROM event_attendance ea WHERE ea.event_id = e.id) AS attendance
	FROM events e
	WHERE e.church_id = ? AND e.is_active = TRUE`

type eventRepository struct{}

var _ event.Repository = (*eventRepository)(nil)

func NewEventRepository() event.Repository {
	return &eventRepository{}
}

func (repo *eventRepository) PersonExists(ctx context.Context, db core.DBExecutor, churchID, personID string) (bool, error) {
	n, err := count(ctx, db, "SELECT COUNT(*) FROM people WHERE church_id = ? AND id = ? AND is_active = TRUE", churchID, personID)
	return n > 0, err
}

func (repo *eventRepository) QueryEvents(
	ctx context.Context,
	db core.DBExecutor,
	churchID string,
	from, to null.Time,
) ([]event.EventListItem, error) {
	query := eventListQuery
	args := []interface{}{churchID}
	if from.Valid {
		query += " AND e.starts_at >= ?"
		args = append(args, from.Time)
	}
	if to.Valid {
		query += " AND e.starts_at < ?"
		args = append(args, to.Time)
	}

	events := make([]event.EventListItem, 0)
	if err := selectAll(ctx, db, &events, query+" ORDER BY e.starts_at", args...); err != nil {
		return nil, errors.Wrap(err, "querying events")
	}
	return events, nil
}

func (repo *eventRepository) GetEvent(ctx context.Context, db core.DBExecutor, churchID, id string) (event.EventListItem, error) {
	var e event.EventListItem
	if err := get(ctx, db, &e, event.ErrNotFound, eventListQuery+" AND e.id = ?", churchID, id); err != nil {
		return event.EventListItem{}, err
	}
	return e, nil
}

func (repo *eventRepository) CreateEvent(ctx context.Context, db core.DBExecutor, e event.Event) (event.Event, error) {
	e.ID = newID()
	_, err := namedExec(ctx, db, `INSERT INTO events
		(id, church_id, name, description, event_type, starts_at, ends_at, location, capacity, checkin_code,
			requires_registration, is_active, created_at)
		VALUES (:id, :church_id, :name, :description, :event_type, :starts_at, :ends_at, :location, :capacity, :checkin_code,
			:requires_registration, :is_active, :created_at)`, e)
	if err != nil {
		return event.Event{}, errors.Wrap(err, "inserting event")
	}
	return e, nil
}

func (repo *eventRepository) UpdateEvent(ctx context.Context, db core.DBExecutor, e event.Event) (event.Event, error) {
	_, err := namedExec(ctx, db, `UPDATE events SET
		name = :name, description = :description, event_type = :event_type, starts_at = :starts_at, ends_at = :ends_at,
		location = :location, capacity = :capacity, requires_registration = :requires_registration, is_active = :is_active
		WHERE id = :id AND church_id = :church_id`, e)
	if err != nil {
		return event.Event{}, errors.Wrap(err, "updating event")
	}
	return e, nil
}

const registrationColumns = "r.id, r.event_id, r.person_id, r.code, r.registered_at"

func (repo *eventRepository) GetRegistration(ctx context.Context, db core.DBExecutor, eventID, personID string) (event.Registration, error) {
	var r event.Registration
	err := get(ctx, db, &r, event.ErrRegistrationNotFound, `SELECT `+registrationColumns+`
		FROM event_registrations r WHERE r.event_id = ? AND r.person_id = ?`, eventID, personID)
	if err != nil {
		return event.Registration{}, err
	}
	return r, nil
}

func (repo *eventRepository) GetRegistrationByCode(ctx context.Context, db core.DBExecutor, churchID, code string) (event.Registration, error) {
	var r event.Registration
	err := get(ctx, db, &r, event.ErrRegistrationNotFound, `SELECT `+registrationColumns+`
		FROM event_registrations r JOIN events e ON e.id = r.event_id
		WHERE e.church_id = ? AND e.is_active = TRUE AND r.code = ?`, churchID, code)
	if err != nil {
		return event.Registration{}, err
	}
	return r, nil
}

func (repo *eventRepository) CreateRegistration(ctx context.Context, db core.DBExecutor, r event.Registration) (event.Registration, error) {
	r.ID = newID()
	_, err := namedExec(ctx, db, `INSERT INTO event_registrations (id, event_id, person_id, code, registered_at)
		VALUES (:id, :event_id, :person_id, :code, :registered_at)`, r)
	if err != nil {
		return event.Registration{}, errors.Wrap(err, "inserting registration")
	}
	return r, nil
}

func (repo *eventRepository) QueryRegistrants(ctx context.Context, db core.DBExecutor, eventID string) ([]event.Registrant, error) {
	registrants := make([]event.Registrant, 0)
	err := selectAll(ctx, db, &registrants, `SELECT p.id AS person_id, p.name, p.mobile, p.email, r.code, r.registered_at,
			EXISTS (SELECT 1 FROM event_attendance a WHERE a.event_id = r.event_id AND a.person_id = p.id) AS present
		FROM event_registrations r JOIN people p ON p.id = r.person_id
		WHERE r.event_id = ?
		ORDER BY p.name`, eventID)
	if err != nil {
		return nil, errors.Wrap(err, "querying registrants")
	}
	return registrants, nil
}

func (repo *eventRepository) CreateAttendance(ctx context.Context, db core.DBExecutor, eventID, personID string, at time.Time) (bool, error) {
	n, err := count(ctx, db, "SELECT COUNT(*) FROM event_attendance WHERE event_id = ? AND person_id = ?", eventID, personID)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	_, err = exec(ctx, db, "INSERT INTO event_attendance (id, event_id, person_id, checked_in_at) VALUES (?, ?, ?, ?)",
		newID(), eventID, personID, at)
	if err != nil {
		return false, errors.Wrap(err, "inserting attendance")
	}
	return true, nil
}

func (repo *eventRepository) QueryAttendees(ctx context.Context, db core.DBExecutor, eventID string) ([]event.Attendee, error) {
	attendees := make([]event.Attendee, 0)
	err := selectAll(ctx, db, &attendees, `SELECT p.id AS person_id, p.name, p.mobile, a.checked_in_at
		FROM event_attendance a JOIN people p ON p.id = a.person_id
		WHERE a.event_id = ?
		ORDER BY a.checked_in_at DESC, p.name`, eventID)
	if err != nil {
		return nil, errors.Wrap(err, "querying attendees")
	}
	return attendees, nil
}

func (repo *eventRepository) QueryCandidates(ctx context.Context, db core.DBExecutor, churchID, eventID string) ([]event.Candidate, error) {
	candidates := make([]event.Candidate, 0)
	err := selectAll(ctx, db, &candidates, `SELECT p.id AS person_id, p.name, p.mobile
		FROM people p
		WHERE p.church_id = ? AND p.is_active = TRUE
			AND NOT EXISTS (SELECT 1 FROM event_attendance a WHERE a.event_id = ? AND a.person_id = p.id)
		ORDER BY p.name`, churchID, eventID)
	if err != nil {
		return nil, errors.Wrap(err, "querying check-in candidates")
	}
	return candidates, nil
}

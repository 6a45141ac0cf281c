package sqlxrepos

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/igreja/core"
	"github.com/trezcool/igreja/core/agenda"
)

const agendaListQuery = `SELECT a.id, a.church_id, a.title, a.description, a.entry_type, a.starts_at, a.ends_at, a.location,
		a.all_day, a.color, a.ministry_id, a.created_by, a.created_at,
		m.name AS ministry_name
	FROM agenda_entries a LEFT JOIN ministries m ON m.id = a.ministry_id
	WHERE a.church_id = ?`

type agendaRepository struct{}

var _ agenda.Repository = (*agendaRepository)(nil)

func NewAgendaRepository() agenda.Repository {
	return &agendaRepository{}
}

func (repo *agendaRepository) MinistryExists(ctx context.Context, db core.DBExecutor, churchID, id string) (bool, error) {
	n, err := count(ctx, db, "SELECT COUNT(*) FROM ministries WHERE church_id = ? AND id = ? AND is_active = TRUE", churchID, id)
	return n > 0, err
}

func (repo *agendaRepository) PersonExists(ctx context.Context, db core.DBExecutor, churchID, id string) (bool, error) {
	n, err := count(ctx, db, "SELECT COUNT(*) FROM people WHERE church_id = ? AND id = ? AND is_active = TRUE", churchID, id)
	return n > 0, err
}

func (repo *agendaRepository) QueryEntries(
	ctx context.Context,
	db core.DBExecutor,
	churchID string,
	from, to time.Time,
	entryType, ministryID string,
	limit int,
) ([]agenda.EntryListItem, error) {
	query := agendaListQuery + " AND a.starts_at >= ? AND a.starts_at < ?"
	args := []interface{}{churchID, from, to}
	if entryType != "" {
		query += " AND a.entry_type = ?"
		args = append(args, entryType)
	}
	if ministryID != "" {
		query += " AND a.ministry_id = ?"
		args = append(args, ministryID)
	}
	query += " ORDER BY a.starts_at, a.title"
	if limit > 0 {
		query += " LIMIT " + strconv.Itoa(limit)
	}

	entries := make([]agenda.EntryListItem, 0)
	if err := selectAll(ctx, db, &entries, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying agenda")
	}
	return entries, nil
}

func (repo *agendaRepository) GetEntry(ctx context.Context, db core.DBExecutor, churchID, id string) (agenda.EntryListItem, error) {
	var e agenda.EntryListItem
	if err := get(ctx, db, &e, agenda.ErrNotFound, agendaListQuery+" AND a.id = ?", churchID, id); err != nil {
		return agenda.EntryListItem{}, err
	}
	return e, nil
}

func (repo *agendaRepository) CreateEntry(ctx context.Context, db core.DBExecutor, e agenda.Entry) (agenda.Entry, error) {
	e.ID = newID()
	_, err := namedExec(ctx, db, `INSERT INTO agenda_entries
		(id, church_id, title, description, entry_type, starts_at, ends_at, location, all_day, color, ministry_id, created_by,
			created_at)
		VALUES (:id, :church_id, :title, :description, :entry_type, :starts_at, :ends_at, :location, :all_day, :color,
			:ministry_id, :created_by, :created_at)`, e)
	if err != nil {
		return agenda.Entry{}, errors.Wrap(err, "inserting agenda entry")
	}
	return e, nil
}

func (repo *agendaRepository) UpdateEntry(ctx context.Context, db core.DBExecutor, e agenda.Entry) (agenda.Entry, error) {
	_, err := namedExec(ctx, db, `UPDATE agenda_entries SET
		title = :title, description = :description, entry_type = :entry_type, starts_at = :starts_at, ends_at = :ends_at,
		location = :location, all_day = :all_day, color = :color, ministry_id = :ministry_id
		WHERE id = :id AND church_id = :church_id`, e)
	if err != nil {
		return agenda.Entry{}, errors.Wrap(err, "updating agenda entry")
	}
	return e, nil
}

func (repo *agendaRepository) DeleteEntry(ctx context.Context, db core.DBExecutor, churchID, id string) error {
	return execOne(ctx, db, agenda.ErrNotFound, "DELETE FROM agenda_entries WHERE church_id = ? AND id = ?", churchID, id)
}

func (repo *agendaRepository) QueryReminders(ctx context.Context, db core.DBExecutor, entryID string) ([]agenda.Reminder, error) {
	reminders := make([]agenda.Reminder, 0)
	err := selectAll(ctx, db, &reminders, `SELECT id, entry_id, person_id, remind_at, channel, sent
		FROM reminders WHERE entry_id = ? ORDER BY remind_at`, entryID)
	if err != nil {
		return nil, errors.Wrap(err, "querying reminders")
	}
	return reminders, nil
}

func (repo *agendaRepository) CreateReminder(ctx context.Context, db core.DBExecutor, r agenda.Reminder) (agenda.Reminder, error) {
	r.ID = newID()
	_, err := namedExec(ctx, db, `INSERT INTO reminders (id, entry_id, person_id, remind_at, channel, sent)
		VALUES (:id, :entry_id, :person_id, :remind_at, :channel, :sent)`, r)
	if err != nil {
		return agenda.Reminder{}, errors.Wrap(err, "inserting reminder")
	}
	return r, nil
}

func (repo *agendaRepository) QueryDueReminders(
	ctx context.Context,
	db core.DBExecutor,
	churchID string,
	before time.Time,
) ([]agenda.DueReminder, error) {
	reminders := make([]agenda.DueReminder, 0)
	err := selectAll(ctx, db, &reminders, `SELECT r.id, r.entry_id, r.person_id, r.remind_at, r.channel, r.sent,
			a.title, a.starts_at, a.location, p.name AS person_name, p.mobile, p.email
		FROM reminders r
		JOIN agenda_entries a ON a.id = r.entry_id
		JOIN people p ON p.id = r.person_id
		WHERE a.church_id = ? AND r.sent = FALSE AND r.remind_at <= ?
		ORDER BY r.remind_at`, churchID, before)
	if err != nil {
		return nil, errors.Wrap(err, "querying due reminders")
	}
	return reminders, nil
}

func (repo *agendaRepository) MarkReminderSent(ctx context.Context, db core.DBExecutor, id string) error {
	return execOne(ctx, db, agenda.ErrNotFound, "UPDATE reminders SET sent = TRUE WHERE id = ?", id)
}

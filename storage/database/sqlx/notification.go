package sqlxrepos

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/igreja/core"
	"github.com/trezcool/igreja/core/goal"
	"github.com/trezcool/igreja/core/notification"
	"github.com/trezcool/igreja/core/person"
	"github.com/trezcool/igreja/core/visitor"
)

const notificationColumns = `id, church_id, user_id, type, title, message, link, data, priority, is_read, read_at, created_at`

type notificationRepository struct{}

var _ notification.Repository = (*notificationRepository)(nil)

func NewNotificationRepository() notification.Repository {
	return &notificationRepository{}
}

func (repo *notificationRepository) UserExists(ctx context.Context, db core.DBExecutor, churchID, id string) (bool, error) {
	n, err := count(ctx, db, "SELECT COUNT(*) FROM users WHERE church_id = ? AND id = ? AND is_active = TRUE", churchID, id)
	return n > 0, err
}

func (repo *notificationRepository) QueryNotifications(
	ctx context.Context,
	db core.DBExecutor,
	userID string,
	read *bool,
	limit int,
) ([]notification.Notification, error) {
	query := "SELECT " + notificationColumns + " FROM notifications WHERE user_id = ?"
	args := []interface{}{userID}
	if read != nil {
		query += " AND is_read = ?"
		args = append(args, *read)
	}
	query += " ORDER BY created_at DESC, id"
	if limit > 0 {
		query += " LIMIT " + strconv.Itoa(limit)
	}

	notifications := make([]notification.Notification, 0)
	if err := selectAll(ctx, db, &notifications, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying notifications")
	}
	return notifications, nil
}

func (repo *notificationRepository) CreateNotification(
	ctx context.Context,
	db core.DBExecutor,
	n notification.Notification,
) (notification.Notification, error) {
	n.ID = newID()
	_, err := namedExec(ctx, db, `INSERT INTO notifications (`+notificationColumns+`)
		VALUES (:id, :church_id, :user_id, :type, :title, :message, :link, :data, :priority, :is_read, :read_at,
			:created_at)`, n)
	if err != nil {
		return notification.Notification{}, errors.Wrap(err, "inserting notification")
	}
	return n, nil
}

func (repo *notificationRepository) MarkRead(ctx context.Context, db core.DBExecutor, userID, id string, at time.Time) error {
	return execOne(ctx, db, notification.ErrNotFound,
		"UPDATE notifications SET is_read = TRUE, read_at = COALESCE(read_at, ?) WHERE user_id = ? AND id = ?", at, userID, id)
}

func (repo *notificationRepository) MarkAllRead(ctx context.Context, db core.DBExecutor, userID string, at time.Time) (int, error) {
	res, err := exec(ctx, db, "UPDATE notifications SET is_read = TRUE, read_at = ? WHERE user_id = ? AND is_read = FALSE", at, userID)
	if err != nil {
		return 0, errors.Wrap(err, "marking notifications as read")
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (repo *notificationRepository) CountUnread(ctx context.Context, db core.DBExecutor, userID string) (int, error) {
	return count(ctx, db, "SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = FALSE", userID)
}

func (repo *notificationRepository) DeleteNotification(ctx context.Context, db core.DBExecutor, userID, id string) error {
	return execOne(ctx, db, notification.ErrNotFound, "DELETE FROM notifications WHERE user_id = ? AND id = ?", userID, id)
}

func (repo *notificationRepository) PurgeRead(ctx context.Context, db core.DBExecutor, before time.Time) (int, error) {
	res, err := exec(ctx, db, "DELETE FROM notifications WHERE is_read = TRUE AND created_at < ?", before)
	if err != nil {
		return 0, errors.Wrap(err, "purging notifications")
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (repo *notificationRepository) NotificationExists(
	ctx context.Context,
	db core.DBExecutor,
	userID, typ, title string,
	since time.Time,
) (bool, error) {
	n, err := count(ctx, db, "SELECT COUNT(*) FROM notifications WHERE user_id = ? AND type = ? AND title = ? AND created_at >= ?",
		userID, typ, title, since)
	return n > 0, err
}

func (repo *notificationRepository) GetSettings(ctx context.Context, db core.DBExecutor, userID string) (notification.Settings, error) {
	var s notification.Settings
	err := get(ctx, db, &s, core.ErrNotFound, `SELECT user_id, email_enabled, whatsapp_enabled, push_enabled, birthdays, visitors,
			events, goals, updated_at
		FROM notification_settings WHERE user_id = ?`, userID)
	if err != nil {
		return notification.Settings{}, err
	}
	return s, nil
}

func (repo *notificationRepository) SaveSettings(ctx context.Context, db core.DBExecutor, s notification.Settings) (notification.Settings, error) {
	_, err := namedExec(ctx, db, `INSERT INTO notification_settings
		(user_id, email_enabled, whatsapp_enabled, push_enabled, birthdays, visitors, events, goals, updated_at)
		VALUES (:user_id, :email_enabled, :whatsapp_enabled, :push_enabled, :birthdays, :visitors, :events, :goals,
			:updated_at)
		ON CONFLICT (user_id) DO UPDATE SET
			email_enabled = excluded.email_enabled, whatsapp_enabled = excluded.whatsapp_enabled,
			push_enabled = excluded.push_enabled, birthdays = excluded.birthdays, visitors = excluded.visitors,
			events = excluded.events, goals = excluded.goals, updated_at = excluded.updated_at`, s)
	if err != nil {
		return notification.Settings{}, errors.Wrap(err, "saving notification settings")
	}
	return s, nil
}

func (repo *notificationRepository) QueryRecipients(
	ctx context.Context,
	db core.DBExecutor,
	churchID string,
	profiles []string,
) ([]notification.Recipient, error) {
	recipients := make([]notification.Recipient, 0)
	err := selectIn(ctx, db, &recipients, `SELECT u.id AS user_id, u.name,
			COALESCE(s.email_enabled, TRUE) AS email_enabled, COALESCE(s.whatsapp_enabled, TRUE) AS whatsapp_enabled,
			COALESCE(s.push_enabled, TRUE) AS push_enabled, COALESCE(s.birthdays, TRUE) AS birthdays,
			COALESCE(s.visitors, TRUE) AS visitors, COALESCE(s.events, TRUE) AS events, COALESCE(s.goals, TRUE) AS goals
		FROM users u LEFT JOIN notification_settings s ON s.user_id = u.id
		WHERE u.church_id = ? AND u.is_active = TRUE AND u.profile IN (?)
		ORDER BY u.name`, churchID, profiles)
	if err != nil {
		return nil, errors.Wrap(err, "querying alert recipients")
	}
	return recipients, nil
}

func (repo *notificationRepository) QueryBirthdays(ctx context.Context, db core.DBExecutor, churchID string) ([]notification.BirthdayRow, error) {
	rows := make([]notification.BirthdayRow, 0)
	err := selectAll(ctx, db, &rows, `SELECT id, name, birth_date FROM people
		WHERE church_id = ? AND is_active = TRUE AND birth_date IS NOT NULL ORDER BY name`, churchID)
	if err != nil {
		return nil, errors.Wrap(err, "querying birthdays")
	}
	return rows, nil
}

func (repo *notificationRepository) QueryOverdueFollowUps(
	ctx context.Context,
	db core.DBExecutor,
	churchID string,
	before time.Time,
) ([]notification.FollowUpRow, error) {
	rows := make([]notification.FollowUpRow, 0)
	err := selectAll(ctx, db, &rows, `SELECT f.person_id, p.name, f.due_date
		FROM follow_ups f JOIN people p ON p.id = f.person_id
		WHERE f.church_id = ? AND f.status = ? AND f.due_date < ? AND p.status = ? AND p.is_active = TRUE
		ORDER BY f.due_date, p.name`, churchID, visitor.FollowUpPending, before, person.StatusVisitor)
	if err != nil {
		return nil, errors.Wrap(err, "querying overdue follow-ups")
	}
	return rows, nil
}

func (repo *notificationRepository) QueryUpcomingEvents(
	ctx context.Context,
	db core.DBExecutor,
	churchID string,
	from, to time.Time,
) ([]notification.EventRow, error) {
	rows := make([]notification.EventRow, 0)
	err := selectAll(ctx, db, &rows, `SELECT id, name, starts_at, location FROM events
		WHERE church_id = ? AND is_active = TRUE AND starts_at >= ? AND starts_at < ?
		ORDER BY starts_at`, churchID, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "querying upcoming events")
	}
	return rows, nil
}

func (repo *notificationRepository) QueryEndingGoals(
	ctx context.Context,
	db core.DBExecutor,
	churchID string,
	from, to time.Time,
) ([]notification.GoalRow, error) {
	rows := make([]notification.GoalRow, 0)
	err := selectAll(ctx, db, &rows, `SELECT id, title, target_value, current_value, end_date FROM goals
		WHERE church_id = ? AND status = ? AND end_date >= ? AND end_date <= ?
		ORDER BY end_date`, churchID, goal.StatusInProgress, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "querying ending goals")
	}
	return rows, nil
}

package notification

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/igreja/core"
	"github.com/trezcool/igreja/core/user"
)

const (
	birthdayDays    = 7
	overdueDays     = 7
	eventDays       = 7
	goalDays        = 14
	goalLowProgress = 50
)

var (
	ErrNotFound     = core.NewNotFoundError("notification")
	ErrUserNotFound = core.NewNotFoundError("user")

	alertProfiles = []string{user.ProfileAdmin, user.ProfilePastor}
)

type (
	Repository interface {
		UserExists(ctx context.Context, db core.DBExecutor, churchID, id string) (bool, error)

		// QueryNotifications lists a user's notifications, newest first. A nil read matches both states.
		QueryNotifications(ctx context.Context, db core.DBExecutor, userID string, read *bool, limit int) ([]Notification, error)
		CreateNotification(ctx context.Context, db core.DBExecutor, n Notification) (Notification, error)
		MarkRead(ctx context.Context, db core.DBExecutor, userID, id string, at time.Time) error
		MarkAllRead(ctx context.Context, db core.DBExecutor, userID string, at time.Time) (int, error)
		CountUnread(ctx context.Context, db core.DBExecutor, userID string) (int, error)
		DeleteNotification(ctx context.Context, db core.DBExecutor, userID, id string) error
		// PurgeRead deletes the read notifications created before the given time.
		PurgeRead(ctx context.Context, db core.DBExecutor, before time.Time) (int, error)
		// NotificationExists reports whether the user got a notification with this type and title since the given time.
		NotificationExists(ctx context.Context, db core.DBExecutor, userID, typ, title string, since time.Time) (bool, error)

		// GetSettings returns the saved settings of a user, or ErrNotFound.
		GetSettings(ctx context.Context, db core.DBExecutor, userID string) (Settings, error)
		SaveSettings(ctx context.Context, db core.DBExecutor, s Settings) (Settings, error)
		// QueryRecipients lists the active users with the given profiles, with their settings (or the defaults).
		QueryRecipients(ctx context.Context, db core.DBExecutor, churchID string, profiles []string) ([]Recipient, error)

		QueryBirthdays(ctx context.Context, db core.DBExecutor, churchID string) ([]BirthdayRow, error)
		QueryOverdueFollowUps(ctx context.Context, db core.DBExecutor, churchID string, before time.Time) ([]FollowUpRow, error)
		QueryUpcomingEvents(ctx context.Context, db core.DBExecutor, churchID string, from, to time.Time) ([]EventRow, error)
		QueryEndingGoals(ctx context.Context, db core.DBExecutor, churchID string, from, to time.Time) ([]GoalRow, error)
	}

	Service struct {
		db   core.DB
		repo Repository
	}
)

func NewService(db core.DB, repo Repository) *Service {
	return &Service{db: db, repo: repo}
}

func (svc *Service) Query(ctx context.Context, actor core.Actor, filter Filter) ([]Notification, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	var read *bool
	if filter.Read != "" {
		r := filter.Read == "true"
		read = &r
	}
	return svc.repo.QueryNotifications(ctx, svc.db, actor.UserID, read, filter.Limit)
}

// Create sends a notification to a user of the actor's church.
func (svc *Service) Create(ctx context.Context, actor core.Actor, nn NewNotification) (Notification, error) {
	if err := nn.Validate(); err != nil {
		return Notification{}, err
	}
	ok, err := svc.repo.UserExists(ctx, svc.db, actor.ChurchID, nn.UserID)
	if err != nil {
		return Notification{}, errors.Wrap(err, "checking user")
	}
	if !ok {
		return Notification{}, core.NewValidationError(ErrUserNotFound, core.FieldError{Field: "user_id", Error: "usuário não encontrado"})
	}
	n, err := nn.notification(actor.ChurchID)
	if err != nil {
		return Notification{}, errors.Wrap(err, "encoding notification data")
	}
	return svc.repo.CreateNotification(ctx, svc.db, n)
}

func (svc *Service) MarkRead(ctx context.Context, actor core.Actor, id string) error {
	return svc.repo.MarkRead(ctx, svc.db, actor.UserID, id, core.NowFunc())
}

// MarkAllRead marks every unread notification of the actor as read and returns how many were.
func (svc *Service) MarkAllRead(ctx context.Context, actor core.Actor) (int, error) {
	return svc.repo.MarkAllRead(ctx, svc.db, actor.UserID, core.NowFunc())
}

func (svc *Service) UnreadCount(ctx context.Context, actor core.Actor) (int, error) {
	return svc.repo.CountUnread(ctx, svc.db, actor.UserID)
}

func (svc *Service) Delete(ctx context.Context, actor core.Actor, id string) error {
	return svc.repo.DeleteNotification(ctx, svc.db, actor.UserID, id)
}

// Purge deletes read notifications older than the given number of days (DefaultPurgeDays if not positive).
func (svc *Service) Purge(ctx context.Context, days int) (int, error) {
	if days <= 0 {
		days = DefaultPurgeDays
	}
	return svc.repo.PurgeRead(ctx, svc.db, core.NowFunc().AddDate(0, 0, -days))
}

func (svc *Service) Settings(ctx context.Context, actor core.Actor) (Settings, error) {
	s, err := svc.repo.GetSettings(ctx, svc.db, actor.UserID)
	if core.IsNotFound(err) {
		return DefaultSettings(actor.UserID), nil
	}
	return s, err
}

func (svc *Service) SaveSettings(ctx context.Context, actor core.Actor, s Settings) (Settings, error) {
	s.UserID = actor.UserID
	s.UpdatedAt = core.NowFunc()
	return svc.repo.SaveSettings(ctx, svc.db, s)
}

// Alerts

func nextBirthday(birth, today time.Time) time.Time {
	bd := time.Date(today.Year(), birth.Month(), birth.Day(), 0, 0, 0, 0, time.UTC)
	if bd.Before(today) {
		bd = bd.AddDate(1, 0, 0)
	}
	return bd
}

// Alerts computes the church's automatic alerts: birthdays and events in the next days,
// visitors with overdue follow-ups, and goals about to end.
func (svc *Service) Alerts(ctx context.Context, churchID string) ([]Alert, error) {
	today := core.Today(core.NowFunc())
	alerts := make([]Alert, 0)

	people, err := svc.repo.QueryBirthdays(ctx, svc.db, churchID)
	if err != nil {
		return nil, err
	}
	type birthday struct {
		BirthdayRow
		next time.Time
	}
	birthdays := make([]birthday, 0)
	limit := today.AddDate(0, 0, birthdayDays)
	for _, p := range people {
		if next := nextBirthday(p.BirthDate, today); !next.After(limit) {
			birthdays = append(birthdays, birthday{p, next})
		}
	}
	sort.SliceStable(birthdays, func(i, j int) bool { return birthdays[i].next.Before(birthdays[j].next) })
	for _, b := range birthdays {
		alerts = append(alerts, Alert{
			Type:     TypeBirthday,
			Title:    "Aniversário: " + b.Name,
			Message:  "Aniversário em " + b.next.Format("02/01"),
			Link:     "/pessoas/" + b.ID,
			Priority: PriorityNormal,
		})
	}

	followUps, err := svc.repo.QueryOverdueFollowUps(ctx, svc.db, churchID, today.AddDate(0, 0, -overdueDays))
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(followUps))
	for _, f := range followUps {
		if seen[f.PersonID] {
			continue
		}
		seen[f.PersonID] = true
		alerts = append(alerts, Alert{
			Type:     TypeVisitor,
			Title:    "Follow-up pendente: " + f.Name,
			Message:  "Previsto para " + f.DueDate.Format("02/01/2006"),
			Link:     "/pessoas/" + f.PersonID,
			Priority: PriorityHigh,
		})
	}

	events, err := svc.repo.QueryUpcomingEvents(ctx, svc.db, churchID, today, today.AddDate(0, 0, eventDays+1))
	if err != nil {
		return nil, err
	}
	for _, e := range events {
		msg := e.StartsAt.Format("02/01/2006 às 15:04")
		if e.Location != "" {
			msg += " - " + e.Location
		}
		alerts = append(alerts, Alert{
			Type:     TypeEvent,
			Title:    "Evento: " + e.Name,
			Message:  msg,
			Link:     "/eventos/" + e.ID,
			Priority: PriorityNormal,
		})
	}

	goals, err := svc.repo.QueryEndingGoals(ctx, svc.db, churchID, today, today.AddDate(0, 0, goalDays))
	if err != nil {
		return nil, err
	}
	for _, g := range goals {
		var progress float64
		if g.TargetValue > 0 {
			progress = g.CurrentValue / g.TargetValue * 100
		}
		priority := PriorityNormal
		if progress < goalLowProgress {
			priority = PriorityHigh
		}
		alerts = append(alerts, Alert{
			Type:     TypeGoal,
			Title:    "Meta vence em breve: " + g.Title,
			Message:  fmt.Sprintf("Prazo: %s | Progresso: %.0f%%", g.EndDate.Format("02/01/2006"), progress),
			Link:     "/metas/" + g.ID,
			Priority: priority,
		})
	}
	return alerts, nil
}

// Deliver turns the church's alerts into notifications for its admins and pastors,
// honoring their settings. An alert is delivered at most once a day per user.
// It returns how many notifications were created.
func (svc *Service) Deliver(ctx context.Context, churchID string) (int, error) {
	alerts, err := svc.Alerts(ctx, churchID)
	if err != nil {
		return 0, errors.Wrap(err, "computing alerts")
	}
	if len(alerts) == 0 {
		return 0, nil
	}
	recipients, err := svc.repo.QueryRecipients(ctx, svc.db, churchID, alertProfiles)
	if err != nil {
		return 0, errors.Wrap(err, "querying recipients")
	}

	today := core.Today(core.NowFunc())
	var created int
	for _, r := range recipients {
		for _, a := range alerts {
			if !r.Wants(a.Type) {
				continue
			}
			exists, err := svc.repo.NotificationExists(ctx, svc.db, r.UserID, a.Type, a.Title, today)
			if err != nil {
				return created, err
			}
			if exists {
				continue
			}
			_, err = svc.repo.CreateNotification(ctx, svc.db, Notification{
				ChurchID:  churchID,
				UserID:    r.UserID,
				Type:      a.Type,
				Title:     a.Title,
				Message:   a.Message,
				Link:      a.Link,
				Priority:  a.Priority,
				CreatedAt: core.NowFunc(),
			})
			if err != nil {
				return created, err
			}
			created++
		}
	}
	return created, nil
}

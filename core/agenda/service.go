package agenda

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/igreja/core"
)

var (
	ErrNotFound         = core.NewNotFoundError("agenda entry")
	ErrMinistryNotFound = core.NewNotFoundError("ministry")
	ErrPersonNotFound   = core.NewNotFoundError("person")
)

type (
	Repository interface {
		MinistryExists(ctx context.Context, db core.DBExecutor, churchID, id string) (bool, error)
		PersonExists(ctx context.Context, db core.DBExecutor, churchID, id string) (bool, error)

		// QueryEntries lists the entries starting in [from, to), optionally of one type or ministry, limit <= 0 meaning all.
		QueryEntries(ctx context.Context, db core.DBExecutor, churchID string, from, to time.Time, entryType, ministryID string, limit int) ([]EntryListItem, error)
		GetEntry(ctx context.Context, db core.DBExecutor, churchID, id string) (EntryListItem, error)
		CreateEntry(ctx context.Context, db core.DBExecutor, e Entry) (Entry, error)
		UpdateEntry(ctx context.Context, db core.DBExecutor, e Entry) (Entry, error)
		DeleteEntry(ctx context.Context, db core.DBExecutor, churchID, id string) error

		QueryReminders(ctx context.Context, db core.DBExecutor, entryID string) ([]Reminder, error)
		CreateReminder(ctx context.Context, db core.DBExecutor, r Reminder) (Reminder, error)
		QueryDueReminders(ctx context.Context, db core.DBExecutor, churchID string, before time.Time) ([]DueReminder, error)
		MarkReminderSent(ctx context.Context, db core.DBExecutor, id string) error
	}

	Service struct {
		db    core.DB
		repo  Repository
		audit core.ActionLogger
	}
)

func NewService(db core.DB, repo Repository, audit core.ActionLogger) *Service {
	return &Service{db: db, repo: repo, audit: audit}
}

func (svc *Service) Query(ctx context.Context, actor core.Actor, filter Filter) ([]EntryListItem, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	from, to := filter.Range()
	return svc.repo.QueryEntries(ctx, svc.db, actor.ChurchID, from, to, filter.Type, filter.MinistryID, 0)
}

func (svc *Service) Get(ctx context.Context, actor core.Actor, id string) (EntryListItem, error) {
	return svc.repo.GetEntry(ctx, svc.db, actor.ChurchID, id)
}

func (svc *Service) checkMinistry(ctx context.Context, actor core.Actor, id string) error {
	if id == "" {
		return nil
	}
	ok, err := svc.repo.MinistryExists(ctx, svc.db, actor.ChurchID, id)
	if err != nil {
		return errors.Wrap(err, "checking ministry")
	}
	if !ok {
		return core.NewValidationError(ErrMinistryNotFound, core.FieldError{Field: "ministry_id", Error: "ministério não encontrado"})
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, actor core.Actor, in EntryInput) (Entry, error) {
	if err := in.Validate(); err != nil {
		return Entry{}, err
	}
	if err := svc.checkMinistry(ctx, actor, in.MinistryID); err != nil {
		return Entry{}, err
	}
	e := Entry{ChurchID: actor.ChurchID, CreatedBy: core.NullString(actor.UserID), CreatedAt: core.NowFunc()}
	in.apply(&e)
	e, err := svc.repo.CreateEntry(ctx, svc.db, e)
	if err != nil {
		return Entry{}, err
	}
	svc.audit.LogAction(ctx, actor, "agenda.criar", "Compromisso criado: "+e.Title)
	return e, nil
}

func (svc *Service) Update(ctx context.Context, actor core.Actor, id string, in EntryInput) (Entry, error) {
	if err := in.Validate(); err != nil {
		return Entry{}, err
	}
	item, err := svc.repo.GetEntry(ctx, svc.db, actor.ChurchID, id)
	if err != nil {
		return Entry{}, err
	}
	if err = svc.checkMinistry(ctx, actor, in.MinistryID); err != nil {
		return Entry{}, err
	}
	e := item.Entry
	in.apply(&e)
	return svc.repo.UpdateEntry(ctx, svc.db, e)
}

// Delete removes an entry with its reminders.
func (svc *Service) Delete(ctx context.Context, actor core.Actor, id string) error {
	if err := svc.repo.DeleteEntry(ctx, svc.db, actor.ChurchID, id); err != nil {
		return err
	}
	svc.audit.LogAction(ctx, actor, "agenda.excluir", "Compromisso excluído: "+id)
	return nil
}

// Upcoming lists the next entries (at most ten) from today until `days` days from now.
func (svc *Service) Upcoming(ctx context.Context, actor core.Actor, days int) ([]EntryListItem, error) {
	if days <= 0 {
		days = DefaultUpcomingDays
	}
	today := core.Today(core.NowFunc())
	return svc.repo.QueryEntries(ctx, svc.db, actor.ChurchID, today, today.AddDate(0, 0, days+1), "", "", upcomingLimit)
}

func (svc *Service) Today(ctx context.Context, actor core.Actor) ([]EntryListItem, error) {
	today := core.Today(core.NowFunc())
	return svc.repo.QueryEntries(ctx, svc.db, actor.ChurchID, today, today.AddDate(0, 0, 1), "", "", 0)
}

// Reminders

func (svc *Service) Reminders(ctx context.Context, actor core.Actor, entryID string) ([]Reminder, error) {
	if _, err := svc.repo.GetEntry(ctx, svc.db, actor.ChurchID, entryID); err != nil {
		return nil, err
	}
	return svc.repo.QueryReminders(ctx, svc.db, entryID)
}

func (svc *Service) CreateReminder(ctx context.Context, actor core.Actor, entryID string, in ReminderInput) (Reminder, error) {
	if err := in.Validate(); err != nil {
		return Reminder{}, err
	}
	if _, err := svc.repo.GetEntry(ctx, svc.db, actor.ChurchID, entryID); err != nil {
		return Reminder{}, err
	}
	ok, err := svc.repo.PersonExists(ctx, svc.db, actor.ChurchID, in.PersonID)
	if err != nil {
		return Reminder{}, errors.Wrap(err, "checking person")
	}
	if !ok {
		return Reminder{}, core.NewValidationError(ErrPersonNotFound, core.FieldError{Field: "person_id", Error: "pessoa não encontrada"})
	}
	return svc.repo.CreateReminder(ctx, svc.db, Reminder{
		EntryID:  entryID,
		PersonID: in.PersonID,
		RemindAt: in.RemindAt.UTC(),
		Channel:  in.Channel,
	})
}

// DueReminders lists a church's unsent reminders whose time has come.
func (svc *Service) DueReminders(ctx context.Context, churchID string) ([]DueReminder, error) {
	return svc.repo.QueryDueReminders(ctx, svc.db, churchID, core.NowFunc())
}

func (svc *Service) MarkReminderSent(ctx context.Context, id string) error {
	return svc.repo.MarkReminderSent(ctx, svc.db, id)
}

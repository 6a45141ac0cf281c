package event

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/igreja/core"
)

var (
	ErrNotFound             = core.NewNotFoundError("event")
	ErrRegistrationNotFound = core.NewNotFoundError("registration")
	ErrPersonNotFound       = core.NewNotFoundError("person")
	ErrFull                 = errors.New("event is full")
)

// NewCode returns an 8 characters, upper case, check-in code.
var NewCode = func() string { // mockable
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

type (
	Repository interface {
		PersonExists(ctx context.Context, db core.DBExecutor, churchID, personID string) (bool, error)
		QueryEvents(ctx context.Context, db core.DBExecutor, churchID string, from, to null.Time) ([]EventListItem, error)
		GetEvent(ctx context.Context, db core.DBExecutor, churchID, id string) (EventListItem, error)
		CreateEvent(ctx context.Context, db core.DBExecutor, e Event) (Event, error)
		UpdateEvent(ctx context.Context, db core.DBExecutor, e Event) (Event, error)

		GetRegistration(ctx context.Context, db core.DBExecutor, eventID, personID string) (Registration, error)
		GetRegistrationByCode(ctx context.Context, db core.DBExecutor, churchID, code string) (Registration, error)
		CreateRegistration(ctx context.Context, db core.DBExecutor, r Registration) (Registration, error)
		QueryRegistrants(ctx context.Context, db core.DBExecutor, eventID string) ([]Registrant, error)

		// CreateAttendance records a check-in; it returns false if the person was already checked in.
		CreateAttendance(ctx context.Context, db core.DBExecutor, eventID, personID string, at time.Time) (bool, error)
		QueryAttendees(ctx context.Context, db core.DBExecutor, eventID string) ([]Attendee, error)
		QueryCandidates(ctx context.Context, db core.DBExecutor, churchID, eventID string) ([]Candidate, error)
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

// Query lists active events: upcoming (from today on), past, today's or all of them.
func (svc *Service) Query(ctx context.Context, actor core.Actor, filter string) ([]EventListItem, error) {
	today := core.Today(core.NowFunc())
	var from, to null.Time
	switch filter {
	case FilterUpcoming, "":
		from = null.TimeFrom(today)
	case FilterPast:
		to = null.TimeFrom(today)
	case FilterToday:
		from = null.TimeFrom(today)
		to = null.TimeFrom(today.AddDate(0, 0, 1))
	}
	return svc.repo.QueryEvents(ctx, svc.db, actor.ChurchID, from, to)
}

func (svc *Service) Get(ctx context.Context, actor core.Actor, id string) (EventListItem, error) {
	return svc.repo.GetEvent(ctx, svc.db, actor.ChurchID, id)
}

func (svc *Service) Create(ctx context.Context, actor core.Actor, in EventInput) (Event, error) {
	if err := in.Validate(); err != nil {
		return Event{}, err
	}
	e := Event{
		ChurchID:    actor.ChurchID,
		CheckinCode: NewCode(),
		IsActive:    true,
		CreatedAt:   core.NowFunc(),
	}
	in.apply(&e)
	e, err := svc.repo.CreateEvent(ctx, svc.db, e)
	if err != nil {
		return Event{}, err
	}
	svc.audit.LogAction(ctx, actor, "evento.criar", "Evento criado: "+e.Name)
	return e, nil
}

func (svc *Service) Update(ctx context.Context, actor core.Actor, id string, in EventInput) (Event, error) {
	if err := in.Validate(); err != nil {
		return Event{}, err
	}
	item, err := svc.repo.GetEvent(ctx, svc.db, actor.ChurchID, id)
	if err != nil {
		return Event{}, err
	}
	e := item.Event
	in.apply(&e)
	if e, err = svc.repo.UpdateEvent(ctx, svc.db, e); err != nil {
		return Event{}, err
	}
	svc.audit.LogAction(ctx, actor, "evento.atualizar", fmt.Sprintf("Evento %s atualizado", e.ID))
	return e, nil
}

func (svc *Service) Delete(ctx context.Context, actor core.Actor, id string) error {
	item, err := svc.repo.GetEvent(ctx, svc.db, actor.ChurchID, id)
	if err != nil {
		return err
	}
	e := item.Event
	e.IsActive = false
	if _, err = svc.repo.UpdateEvent(ctx, svc.db, e); err != nil {
		return err
	}
	svc.audit.LogAction(ctx, actor, "evento.excluir", e.Name)
	return nil
}

func (svc *Service) checkPerson(ctx context.Context, actor core.Actor, personID string) error {
	ok, err := svc.repo.PersonExists(ctx, svc.db, actor.ChurchID, personID)
	if err != nil {
		return errors.Wrap(err, "checking person")
	}
	if !ok {
		return core.NewValidationError(ErrPersonNotFound, core.FieldError{Field: "person_id", Error: "pessoa não encontrada"})
	}
	return nil
}

// Register signs a person up for an event. Registering twice returns the existing registration.
func (svc *Service) Register(ctx context.Context, actor core.Actor, eventID, personID string) (Registration, error) {
	e, err := svc.repo.GetEvent(ctx, svc.db, actor.ChurchID, eventID)
	if err != nil {
		return Registration{}, err
	}
	if err = svc.checkPerson(ctx, actor, personID); err != nil {
		return Registration{}, err
	}

	reg, err := svc.repo.GetRegistration(ctx, svc.db, eventID, personID)
	if err == nil {
		return reg, nil
	}
	if !core.IsNotFound(err) {
		return Registration{}, err
	}
	if e.Capacity > 0 && e.Registrations >= e.Capacity {
		return Registration{}, core.NewValidationError(ErrFull, core.FieldError{Field: "event_id", Error: "evento lotado"})
	}
	return svc.repo.CreateRegistration(ctx, svc.db, Registration{
		EventID:      eventID,
		PersonID:     personID,
		Code:         NewCode(),
		RegisteredAt: core.NowFunc(),
	})
}

// CheckIn marks a person as present. It returns false when they were already checked in.
func (svc *Service) CheckIn(ctx context.Context, actor core.Actor, eventID, personID string) (bool, error) {
	if _, err := svc.repo.GetEvent(ctx, svc.db, actor.ChurchID, eventID); err != nil {
		return false, err
	}
	if err := svc.checkPerson(ctx, actor, personID); err != nil {
		return false, err
	}
	ok, err := svc.repo.CreateAttendance(ctx, svc.db, eventID, personID, core.NowFunc())
	if err != nil {
		return false, errors.Wrap(err, "checking in")
	}
	if ok {
		svc.audit.LogAction(ctx, actor, "evento.presenca", fmt.Sprintf("Presença registrada: evento %s, pessoa %s", eventID, personID))
	}
	return ok, nil
}

// CheckInByCode checks in the holder of a registration code.
func (svc *Service) CheckInByCode(ctx context.Context, actor core.Actor, code string) (Registration, bool, error) {
	reg, err := svc.repo.GetRegistrationByCode(ctx, svc.db, actor.ChurchID, core.CleanString(strings.ToUpper(code)))
	if err != nil {
		return Registration{}, false, err
	}
	ok, err := svc.CheckIn(ctx, actor, reg.EventID, reg.PersonID)
	return reg, ok, err
}

func (svc *Service) Registrants(ctx context.Context, actor core.Actor, eventID string) ([]Registrant, error) {
	if _, err := svc.repo.GetEvent(ctx, svc.db, actor.ChurchID, eventID); err != nil {
		return nil, err
	}
	return svc.repo.QueryRegistrants(ctx, svc.db, eventID)
}

func (svc *Service) Attendees(ctx context.Context, actor core.Actor, eventID string) ([]Attendee, error) {
	if _, err := svc.repo.GetEvent(ctx, svc.db, actor.ChurchID, eventID); err != nil {
		return nil, err
	}
	return svc.repo.QueryAttendees(ctx, svc.db, eventID)
}

// NotCheckedIn lists the church's active people who have not checked in yet.
func (svc *Service) NotCheckedIn(ctx context.Context, actor core.Actor, eventID string) ([]Candidate, error) {
	if _, err := svc.repo.GetEvent(ctx, svc.db, actor.ChurchID, eventID); err != nil {
		return nil, err
	}
	return svc.repo.QueryCandidates(ctx, svc.db, actor.ChurchID, eventID)
}

package event

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/igreja/core"
)

// List filters.
const (
	FilterUpcoming = "proximos"
	FilterPast     = "passados"
	FilterToday    = "hoje"
	FilterAll      = "todos"
)

var Types = []string{
	"Culto Dominical",
	"Culto de Oração",
	"Célula",
	"Congresso",
	"Conferência",
	"Curso",
	"Batismo",
	"Casamento",
	"Retiro",
	"Outro",
}

type Event struct {
	ID                   string    `json:"id" db:"id"`
	ChurchID             string    `json:"-" db:"church_id"`
	Name                 string    `json:"name" db:"name"`
	Description          string    `json:"description" db:"description"`
	Type                 string    `json:"type" db:"event_type"`
	StartsAt             time.Time `json:"starts_at" db:"starts_at"`
	EndsAt               null.Time `json:"ends_at" db:"ends_at"`
	Location             string    `json:"location" db:"location"`
	Capacity             int       `json:"capacity" db:"capacity"`
	CheckinCode          string    `json:"checkin_code" db:"checkin_code"`
	RequiresRegistration bool      `json:"requires_registration" db:"requires_registration"`
	IsActive             bool      `json:"is_active" db:"is_active"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`
}

type EventListItem struct {
	Event
	Registrations int `json:"registrations" db:"registrations"`
	Attendance    int `json:"attendance" db:"attendance"`
}

type EventInput struct {
	Name                 string    `json:"name" validate:"required,max=200"`
	Description          string    `json:"description" validate:"omitempty,max=2000"`
	Type                 string    `json:"type" validate:"required,eventtype"`
	StartsAt             time.Time `json:"starts_at" validate:"required"`
	EndsAt               null.Time `json:"ends_at"`
	Location             string    `json:"location" validate:"omitempty,max=300"`
	Capacity             int       `json:"capacity" validate:"min=0"`
	RequiresRegistration bool      `json:"requires_registration"`
}

func (in *EventInput) Validate() error {
	in.Name = core.CleanString(in.Name)
	in.Description = core.CleanString(in.Description)
	in.Type = core.CleanString(in.Type)
	in.Location = core.CleanString(in.Location)
	if err := core.Validate.Struct(in); err != nil {
		return err
	}
	if in.EndsAt.Valid && in.EndsAt.Time.Before(in.StartsAt) {
		return core.NewValidationError(nil, core.FieldError{Field: "ends_at", Error: "o término deve ser após o início"})
	}
	return nil
}

func (in EventInput) apply(e *Event) {
	e.Name = in.Name
	e.Description = in.Description
	e.Type = in.Type
	e.StartsAt = in.StartsAt.UTC()
	e.EndsAt = in.EndsAt
	e.Location = in.Location
	e.Capacity = in.Capacity
	e.RequiresRegistration = in.RequiresRegistration
}

type Registration struct {
	ID           string    `json:"id" db:"id"`
	EventID      string    `json:"event_id" db:"event_id"`
	PersonID     string    `json:"person_id" db:"person_id"`
	Code         string    `json:"code" db:"code"`
	RegisteredAt time.Time `json:"registered_at" db:"registered_at"`
}

type Registrant struct {
	PersonID     string    `json:"person_id" db:"person_id"`
	Name         string    `json:"name" db:"name"`
	Mobile       string    `json:"mobile" db:"mobile"`
	Email        string    `json:"email" db:"email"`
	Code         string    `json:"code" db:"code"`
	RegisteredAt time.Time `json:"registered_at" db:"registered_at"`
	Present      bool      `json:"present" db:"present"`
}

type Attendee struct {
	PersonID    string    `json:"person_id" db:"person_id"`
	Name        string    `json:"name" db:"name"`
	Mobile      string    `json:"mobile" db:"mobile"`
	CheckedInAt time.Time `json:"checked_in_at" db:"checked_in_at"`
}

// Candidate is an active person not yet checked in to an event.
type Candidate struct {
	PersonID string `json:"person_id" db:"person_id"`
	Name     string `json:"name" db:"name"`
	Mobile   string `json:"mobile" db:"mobile"`
}

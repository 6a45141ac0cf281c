package agenda

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/igreja/core"
)

// Entry types
const (
	TypeEvent   = "evento"
	TypeService = "culto"
	TypeMeeting = "reuniao"
	TypeCell    = "celula"
	TypeSpecial = "especial"
)

const (
	DefaultColor        = "#3498db"
	DefaultUpcomingDays = 7
	upcomingLimit       = 10
)

var Types = []string{TypeEvent, TypeService, TypeMeeting, TypeCell, TypeSpecial}

type Entry struct {
	ID          string      `json:"id" db:"id"`
	ChurchID    string      `json:"-" db:"church_id"`
	Title       string      `json:"title" db:"title"`
	Description string      `json:"description" db:"description"`
	Type        string      `json:"type" db:"entry_type"`
	StartsAt    time.Time   `json:"starts_at" db:"starts_at"`
	EndsAt      null.Time   `json:"ends_at" db:"ends_at"`
	Location    string      `json:"location" db:"location"`
	AllDay      bool        `json:"all_day" db:"all_day"`
	Color       string      `json:"color" db:"color"`
	MinistryID  null.String `json:"ministry_id" db:"ministry_id"`
	CreatedBy   null.String `json:"created_by" db:"created_by"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
}

type EntryListItem struct {
	Entry
	MinistryName null.String `json:"ministry_name" db:"ministry_name"`
}

// EntryInput describes an entry. All-day entries start at midnight.
type EntryInput struct {
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description" validate:"omitempty,max=2000"`
	Type        string    `json:"type" validate:"omitempty,agendatype"`
	StartsAt    time.Time `json:"starts_at" validate:"required"`
	EndsAt      null.Time `json:"ends_at"`
	Location    string    `json:"location" validate:"omitempty,max=300"`
	AllDay      bool      `json:"all_day"`
	Color       string    `json:"color" validate:"omitempty,hexcolor"`
	MinistryID  string    `json:"ministry_id"`
}

func (in *EntryInput) Validate() error {
	in.Title = core.CleanString(in.Title)
	in.Description = core.CleanString(in.Description)
	in.Type = core.CleanString(in.Type, true /* lower */)
	in.Location = core.CleanString(in.Location)
	in.Color = core.CleanString(in.Color, true /* lower */)
	in.MinistryID = core.CleanString(in.MinistryID)
	if in.Type == "" {
		in.Type = TypeEvent
	}
	if in.Color == "" {
		in.Color = DefaultColor
	}
	if err := core.Validate.Struct(in); err != nil {
		return err
	}
	if in.AllDay {
		in.StartsAt = core.Today(in.StartsAt)
	}
	if in.EndsAt.Valid && in.EndsAt.Time.Before(in.StartsAt) {
		return core.NewValidationError(nil, core.FieldError{Field: "ends_at", Error: "o término deve ser após o início"})
	}
	return nil
}

func (in EntryInput) apply(e *Entry) {
	e.Title = in.Title
	e.Description = in.Description
	e.Type = in.Type
	e.StartsAt = in.StartsAt.UTC()
	e.EndsAt = in.EndsAt
	e.Location = in.Location
	e.AllDay = in.AllDay
	e.Color = in.Color
	e.MinistryID = core.NullString(in.MinistryID)
}

// Filter selects the entries starting between two dates, both inclusive.
type Filter struct {
	From       string `query:"from" json:"from" validate:"required,datetime=2006-01-02"`
	To         string `query:"to" json:"to" validate:"required,datetime=2006-01-02"`
	Type       string `query:"type" json:"type" validate:"omitempty,agendatype"`
	MinistryID string `query:"ministry_id" json:"ministry_id"`
}

func (f *Filter) Validate() error {
	f.From = core.CleanString(f.From)
	f.To = core.CleanString(f.To)
	f.Type = core.CleanString(f.Type, true /* lower */)
	f.MinistryID = core.CleanString(f.MinistryID)
	return core.Validate.Struct(f)
}

// Range returns the [from, to) interval of a validated filter.
func (f Filter) Range() (time.Time, time.Time) {
	return core.ParseDateOrZero(f.From).Time, core.ParseDateOrZero(f.To).Time.AddDate(0, 0, 1)
}

type Reminder struct {
	ID       string    `json:"id" db:"id"`
	EntryID  string    `json:"entry_id" db:"entry_id"`
	PersonID string    `json:"person_id" db:"person_id"`
	RemindAt time.Time `json:"remind_at" db:"remind_at"`
	Channel  string    `json:"channel" db:"channel"`
	Sent     bool      `json:"sent" db:"sent"`
}

type ReminderInput struct {
	PersonID string    `json:"person_id" validate:"required"`
	RemindAt time.Time `json:"remind_at" validate:"required"`
	Channel  string    `json:"channel" validate:"omitempty,oneof=whatsapp email"`
}

func (in *ReminderInput) Validate() error {
	in.PersonID = core.CleanString(in.PersonID)
	in.Channel = core.CleanString(in.Channel, true /* lower */)
	if in.Channel == "" {
		in.Channel = "whatsapp"
	}
	return core.Validate.Struct(in)
}

// DueReminder is a pending reminder with what is needed to deliver it.
type DueReminder struct {
	Reminder
	Title      string    `json:"title" db:"title"`
	StartsAt   time.Time `json:"starts_at" db:"starts_at"`
	Location   string    `json:"location" db:"location"`
	PersonName string    `json:"person_name" db:"person_name"`
	Mobile     string    `json:"mobile" db:"mobile"`
	Email      string    `json:"email" db:"email"`
}

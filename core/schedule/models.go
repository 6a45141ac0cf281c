package schedule

import (
	"fmt"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/igreja/core"
)

// Recurrences
const (
	RecurrenceWeekly   = "semanal"
	RecurrenceBiweekly = "quinzenal"
	RecurrenceMonthly  = "mensal"
)

// Swap statuses
const (
	SwapPending  = "pendente"
	SwapAccepted = "aceita"
)

var Recurrences = []string{RecurrenceWeekly, RecurrenceBiweekly, RecurrenceMonthly}

type Roster struct {
	ID         string    `json:"id" db:"id"`
	ChurchID   string    `json:"-" db:"church_id"`
	MinistryID string    `json:"ministry_id" db:"ministry_id"`
	Name       string    `json:"name" db:"name"`
	StartDate  time.Time `json:"start_date" db:"start_date"`
	EndDate    time.Time `json:"end_date" db:"end_date"`
	Recurrence string    `json:"recurrence" db:"recurrence"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

type RosterListItem struct {
	Roster
	MinistryName string `json:"ministry_name" db:"ministry_name"`
	Items        int    `json:"items" db:"items"`
}

type RosterInput struct {
	MinistryID string `json:"ministry_id" validate:"required"`
	Name       string `json:"name" validate:"required,max=100"`
	StartDate  string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate    string `json:"end_date" validate:"required,datetime=2006-01-02"`
	Recurrence string `json:"recurrence" validate:"omitempty,recurrence"`

	start, end time.Time
}

func (in *RosterInput) Validate() error {
	in.MinistryID = core.CleanString(in.MinistryID)
	in.Name = core.CleanString(in.Name)
	in.StartDate = core.CleanString(in.StartDate)
	in.EndDate = core.CleanString(in.EndDate)
	in.Recurrence = core.CleanString(in.Recurrence, true /* lower */)
	if err := core.Validate.Struct(in); err != nil {
		return err
	}
	in.start = core.ParseDateOrZero(in.StartDate).Time
	in.end = core.ParseDateOrZero(in.EndDate).Time
	if in.end.Before(in.start) {
		return core.NewValidationError(nil, core.FieldError{Field: "end_date", Error: "a data final deve ser após a inicial"})
	}
	return nil
}

func (in RosterInput) apply(r *Roster) {
	r.MinistryID = in.MinistryID
	r.Name = in.Name
	r.StartDate = in.start
	r.EndDate = in.end
	r.Recurrence = in.Recurrence
}

type Item struct {
	ID          string    `json:"id" db:"id"`
	RosterID    string    `json:"roster_id" db:"roster_id"`
	PersonID    string    `json:"person_id" db:"person_id"`
	ServeDate   time.Time `json:"serve_date" db:"serve_date"`
	Role        string    `json:"role" db:"role"`
	ServeTime   string    `json:"serve_time" db:"serve_time"`
	Confirmed   bool      `json:"confirmed" db:"confirmed"`
	ConfirmedAt null.Time `json:"confirmed_at" db:"confirmed_at"`
	Notes       string    `json:"notes" db:"notes"`
}

type ItemListItem struct {
	Item
	PersonName   string `json:"person_name" db:"person_name"`
	Mobile       string `json:"mobile" db:"mobile"`
	ReminderLink string `json:"reminder_link,omitempty" db:"-"`
}

// MyItem is an upcoming item of the caller, with its roster and ministry names.
type MyItem struct {
	Item
	RosterName   string `json:"roster_name" db:"roster_name"`
	MinistryName string `json:"ministry_name" db:"ministry_name"`
}

type ItemInput struct {
	PersonID  string `json:"person_id" validate:"required"`
	ServeDate string `json:"serve_date" validate:"required,datetime=2006-01-02"`
	Role      string `json:"role" validate:"omitempty,max=50"`
	ServeTime string `json:"serve_time" validate:"omitempty,datetime=15:04"`
	Notes     string `json:"notes" validate:"omitempty,max=500"`
}

func (in *ItemInput) Validate() error {
	in.PersonID = core.CleanString(in.PersonID)
	in.ServeDate = core.CleanString(in.ServeDate)
	in.Role = core.CleanString(in.Role)
	in.ServeTime = core.CleanString(in.ServeTime)
	in.Notes = core.CleanString(in.Notes)
	return core.Validate.Struct(in)
}

// GenerateInput lists the dates and roles to fill. Without roles, each date gets a single slot.
type GenerateInput struct {
	Dates []string `json:"dates" validate:"required,min=1,dive,datetime=2006-01-02"`
	Roles []string `json:"roles" validate:"dive,max=50"`
}

func (in *GenerateInput) Validate() error {
	for i := range in.Dates {
		in.Dates[i] = core.CleanString(in.Dates[i])
	}
	roles := make([]string, 0, len(in.Roles))
	for _, r := range in.Roles {
		if r = core.CleanString(r); r != "" {
			roles = append(roles, r)
		}
	}
	if len(roles) == 0 {
		roles = append(roles, "")
	}
	in.Roles = roles
	return core.Validate.Struct(in)
}

type Member struct {
	ID     string `json:"id" db:"id"`
	Name   string `json:"name" db:"name"`
	Mobile string `json:"mobile" db:"mobile"`
}

type Swap struct {
	ID           string      `json:"id" db:"id"`
	ItemID       string      `json:"item_id" db:"item_id"`
	RequesterID  string      `json:"requester_id" db:"requester_id"`
	SubstituteID null.String `json:"substitute_id" db:"substitute_id"`
	Reason       string      `json:"reason" db:"reason"`
	Status       string      `json:"status" db:"status"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	ResolvedAt   null.Time   `json:"resolved_at" db:"resolved_at"`
}

type SwapListItem struct {
	Swap
	ServeDate      time.Time   `json:"serve_date" db:"serve_date"`
	Role           string      `json:"role" db:"role"`
	ServeTime      string      `json:"serve_time" db:"serve_time"`
	RequesterName  string      `json:"requester_name" db:"requester_name"`
	SubstituteName null.String `json:"substitute_name" db:"substitute_name"`
	RosterName     string      `json:"roster_name" db:"roster_name"`
	MinistryName   string      `json:"ministry_name" db:"ministry_name"`
}

// ReminderMessage is the WhatsApp reminder sent to a scheduled person.
func ReminderMessage(name, ministry string, date time.Time) string {
	return fmt.Sprintf("Olá %s! Lembrete: você está escalado(a) para %s no dia %s.", name, ministry, date.Format("02/01/2006"))
}

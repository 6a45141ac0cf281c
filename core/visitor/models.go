package visitor

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/igreja/core"
)

// Follow-up statuses. A follow-up leaves FollowUpPending exactly once.
const (
	FollowUpPending  = "pendente"
	FollowUpDone     = "realizado"
	FollowUpCanceled = "cancelado"
)

// Flow triggers.
const (
	TriggerFirstVisit = "primeira_visita"
	TriggerConversion = "conversao"
)

var (
	FollowUpStatuses = []string{FollowUpPending, FollowUpDone, FollowUpCanceled}
	Triggers         = []string{TriggerFirstVisit, TriggerConversion}
	ActionTypes      = []string{"whatsapp", "ligacao", "email", "visita"}
)

type Visit struct {
	ID             string      `json:"id" db:"id"`
	ChurchID       string      `json:"-" db:"church_id"`
	PersonID       string      `json:"person_id" db:"person_id"`
	EventID        null.String `json:"event_id" db:"event_id"`
	ReceptionistID null.String `json:"receptionist_id" db:"receptionist_id"`
	VisitDate      time.Time   `json:"visit_date" db:"visit_date"`
	ServiceType    string      `json:"service_type" db:"service_type"`
	HowHeard       string      `json:"how_heard" db:"how_heard"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`
}

type NewVisit struct {
	PersonID    string `json:"person_id" validate:"required"`
	EventID     string `json:"event_id"`
	ServiceType string `json:"service_type" validate:"omitempty,max=100"`
	HowHeard    string `json:"how_heard" validate:"omitempty,max=100"`
}

func (nv *NewVisit) Validate() error {
	nv.PersonID = core.CleanString(nv.PersonID)
	nv.EventID = core.CleanString(nv.EventID)
	nv.ServiceType = core.CleanString(nv.ServiceType)
	nv.HowHeard = core.CleanString(nv.HowHeard)
	return core.Validate.Struct(nv)
}

type FollowUp struct {
	ID            string      `json:"id" db:"id"`
	ChurchID      string      `json:"-" db:"church_id"`
	PersonID      string      `json:"person_id" db:"person_id"`
	ResponsibleID null.String `json:"responsible_id" db:"responsible_id"`
	Type          string      `json:"type" db:"type"`
	DueDate       time.Time   `json:"due_date" db:"due_date"`
	Status        string      `json:"status" db:"status"`
	Notes         string      `json:"notes" db:"notes"`
	Result        string      `json:"result" db:"result"`
	CompletedAt   null.Time   `json:"completed_at" db:"completed_at"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
}

// PendingFollowUp is a follow-up with what staff need to reach the person.
type PendingFollowUp struct {
	FollowUp
	PersonName      string      `json:"person_name" db:"person_name"`
	Mobile          string      `json:"mobile" db:"mobile"`
	Email           string      `json:"email" db:"email"`
	ResponsibleName null.String `json:"responsible_name" db:"responsible_name"`
	WhatsAppLink    string      `json:"whatsapp_link,omitempty" db:"-"`
}

type FollowUpUpdate struct {
	Status string `json:"status" validate:"required,oneof=realizado cancelado"`
	Result string `json:"result" validate:"omitempty,max=2000"`
}

func (fu *FollowUpUpdate) Validate() error {
	fu.Status = core.CleanString(fu.Status, true /* lower */)
	fu.Result = core.CleanString(fu.Result)
	return core.Validate.Struct(fu)
}

// Flow drives the automatic creation of follow-ups.
type Flow struct {
	ID        string `json:"id" db:"id"`
	ChurchID  string `json:"-" db:"church_id"`
	Name      string `json:"name" db:"name"`
	Trigger   string `json:"trigger" db:"trigger_event"`
	DaysAfter int    `json:"days_after" db:"days_after"`
	Action    string `json:"action_type" db:"action_type"`
	Template  string `json:"template" db:"template"`
	IsActive  bool   `json:"is_active" db:"is_active"`
}

type FlowInput struct {
	Name      string `json:"name" validate:"required,max=100"`
	Trigger   string `json:"trigger" validate:"omitempty,flowtrigger"`
	DaysAfter int    `json:"days_after" validate:"min=0,max=365"`
	Action    string `json:"action_type" validate:"omitempty,flowaction"`
	Template  string `json:"template"`
	IsActive  *bool  `json:"is_active"`
}

func (in *FlowInput) Validate() error {
	in.Name = core.CleanString(in.Name)
	if in.Trigger == "" {
		in.Trigger = TriggerFirstVisit
	}
	if in.Action == "" {
		in.Action = "whatsapp"
	}
	return core.Validate.Struct(in)
}

func (in FlowInput) apply(f *Flow) {
	f.Name = in.Name
	f.Trigger = in.Trigger
	f.DaysAfter = in.DaysAfter
	f.Action = in.Action
	f.Template = in.Template
	if in.IsActive != nil {
		f.IsActive = *in.IsActive
	}
}

type RecentVisitor struct {
	PersonID    string    `json:"person_id" db:"person_id"`
	Name        string    `json:"name" db:"name"`
	Mobile      string    `json:"mobile" db:"mobile"`
	Email       string    `json:"email" db:"email"`
	LastVisit   time.Time `json:"last_visit" db:"-"`
	ServiceType string    `json:"service_type" db:"service_type"`
	HowHeard    string    `json:"how_heard" db:"how_heard"`
	TotalVisits int       `json:"total_visits" db:"total_visits"`
}

type AbsentVisitor struct {
	PersonID    string    `json:"person_id" db:"person_id"`
	Name        string    `json:"name" db:"name"`
	Mobile      string    `json:"mobile" db:"mobile"`
	Email       string    `json:"email" db:"email"`
	LastVisit   time.Time `json:"last_visit" db:"-"`
	TotalVisits int       `json:"total_visits" db:"total_visits"`
	DaysAbsent  int       `json:"days_absent" db:"-"`
}

// VisitDate is one visit of a person, as used by the monthly aggregations.
type VisitDate struct {
	PersonID  string    `db:"person_id"`
	VisitDate time.Time `db:"visit_date"`
}

// MembershipPath holds the dates needed to measure the time from first visit to membership.
type MembershipPath struct {
	FirstVisit     time.Time
	MembershipDate time.Time
}

type MonthCount struct {
	Month string `json:"month"` // YYYY-MM
	Total int    `json:"total"`
}

type SourceCount struct {
	Source string `json:"source" db:"source"`
	Total  int    `json:"total" db:"total"`
}

type ConversionReport struct {
	Visitors         int           `json:"visitors"`
	NewConverts      int           `json:"new_converts"`
	Onboarding       int           `json:"onboarding"`
	NewMembers       int           `json:"new_members"`
	VisitorsPerMonth []MonthCount  `json:"visitors_per_month"`
	PerSource        []SourceCount `json:"per_source"`
	Returning        int           `json:"returning"`
	DistinctVisitors int           `json:"distinct_visitors"`
	ConversionRate   float64       `json:"conversion_rate"`
	ReturnRate       float64       `json:"return_rate"`
}

type FunnelStats struct {
	Stages             map[string]int `json:"stages"`
	ConversionsByMonth []MonthCount   `json:"conversions_by_month"`
	AvgDaysToMember    float64        `json:"avg_days_to_member"`
}

type PrayerRequest struct {
	ID        string      `json:"id" db:"id"`
	ChurchID  string      `json:"-" db:"church_id"`
	PersonID  null.String `json:"person_id" db:"person_id"`
	Request   string      `json:"request" db:"request"`
	IsPrivate bool        `json:"is_private" db:"is_private"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
}

type NewPrayerRequest struct {
	PersonID  string `json:"person_id"`
	Request   string `json:"request" validate:"required,max=2000"`
	IsPrivate bool   `json:"is_private"`
}

func (np *NewPrayerRequest) Validate() error {
	np.Request = core.CleanString(np.Request)
	return core.Validate.Struct(np)
}

type Interest struct {
	ID        string    `json:"id" db:"id"`
	ChurchID  string    `json:"-" db:"church_id"`
	PersonID  string    `json:"person_id" db:"person_id"`
	Interest  string    `json:"interest" db:"interest"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

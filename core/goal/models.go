package goal

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/igreja/core"
)

// Statuses
const (
	StatusInProgress = "em_andamento"
	StatusReached    = "atingida"
	StatusMissed     = "nao_atingida"
)

// Metric types
const (
	MetricNumber     = "numero"
	MetricPercentage = "percentual"
	MetricCurrency   = "moeda"
)

var (
	Statuses    = []string{StatusInProgress, StatusReached, StatusMissed}
	MetricTypes = []string{MetricNumber, MetricPercentage, MetricCurrency}
	Categories  = []string{"crescimento", "financeiro", "discipulado", "evangelismo", "social"}
)

type Goal struct {
	ID           string      `json:"id" db:"id"`
	ChurchID     string      `json:"-" db:"church_id"`
	Title        string      `json:"title" db:"title"`
	Description  string      `json:"description" db:"description"`
	Category     string      `json:"category" db:"category"`
	MetricType   string      `json:"metric_type" db:"metric_type"`
	TargetValue  float64     `json:"target_value" db:"target_value"`
	CurrentValue float64     `json:"current_value" db:"current_value"`
	StartDate    time.Time   `json:"start_date" db:"start_date"`
	EndDate      time.Time   `json:"end_date" db:"end_date"`
	Status       string      `json:"status" db:"status"`
	OwnerID      null.String `json:"owner_id" db:"owner_id"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"`
}

// Progress returns the share of the target reached, in percent. It may exceed 100.
func (g Goal) Progress() float64 {
	if g.TargetValue <= 0 {
		return 0
	}
	return g.CurrentValue / g.TargetValue * 100
}

type GoalListItem struct {
	Goal
	OwnerName null.String `json:"owner_name" db:"owner_name"`
	Progress  float64     `json:"progress" db:"-"`
}

type Filter struct {
	Status   string `query:"status" json:"status" validate:"omitempty,goalstatus"`
	Category string `query:"category" json:"category"`
}

func (f *Filter) Validate() error {
	f.Status = core.CleanString(f.Status, true /* lower */)
	f.Category = core.CleanString(f.Category, true /* lower */)
	return core.Validate.Struct(f)
}

type GoalInput struct {
	Title        string  `json:"title" validate:"required,max=200"`
	Description  string  `json:"description" validate:"omitempty,max=2000"`
	Category     string  `json:"category" validate:"omitempty,goalcategory"`
	MetricType   string  `json:"metric_type" validate:"omitempty,metrictype"`
	TargetValue  float64 `json:"target_value" validate:"gt=0"`
	CurrentValue float64 `json:"current_value" validate:"min=0"`
	StartDate    string  `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate      string  `json:"end_date" validate:"required,datetime=2006-01-02"`
	Status       string  `json:"status" validate:"omitempty,goalstatus"`
	OwnerID      string  `json:"owner_id"`
}

func (in *GoalInput) Validate() error {
	in.Title = core.CleanString(in.Title)
	in.Description = core.CleanString(in.Description)
	in.Category = core.CleanString(in.Category, true /* lower */)
	in.MetricType = core.CleanString(in.MetricType, true /* lower */)
	in.StartDate = core.CleanString(in.StartDate)
	in.EndDate = core.CleanString(in.EndDate)
	in.Status = core.CleanString(in.Status, true /* lower */)
	in.OwnerID = core.CleanString(in.OwnerID)
	if in.MetricType == "" {
		in.MetricType = MetricNumber
	}
	if in.Status == "" {
		in.Status = StatusInProgress
	}
	if err := core.Validate.Struct(in); err != nil {
		return err
	}
	if core.ParseDateOrZero(in.EndDate).Time.Before(core.ParseDateOrZero(in.StartDate).Time) {
		return core.NewValidationError(nil, core.FieldError{Field: "end_date", Error: "a data final deve ser após a inicial"})
	}
	return nil
}

func (in GoalInput) apply(g *Goal) {
	g.Title = in.Title
	g.Description = in.Description
	g.Category = in.Category
	g.MetricType = in.MetricType
	g.TargetValue = in.TargetValue
	g.StartDate = core.ParseDateOrZero(in.StartDate).Time
	g.EndDate = core.ParseDateOrZero(in.EndDate).Time
	g.Status = in.Status
	g.OwnerID = core.NullString(in.OwnerID)
}

type Update struct {
	ID            string      `json:"id" db:"id"`
	GoalID        string      `json:"goal_id" db:"goal_id"`
	PreviousValue float64     `json:"previous_value" db:"previous_value"`
	NewValue      float64     `json:"new_value" db:"new_value"`
	Note          string      `json:"note" db:"note"`
	UserID        null.String `json:"user_id" db:"user_id"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
}

type UpdateListItem struct {
	Update
	UserName null.String `json:"user_name" db:"user_name"`
}

type ProgressInput struct {
	Value float64 `json:"value" validate:"min=0"`
	Note  string  `json:"note" validate:"omitempty,max=500"`
}

func (in *ProgressInput) Validate() error {
	in.Note = core.CleanString(in.Note)
	return core.Validate.Struct(in)
}

type Stats struct {
	Total           int     `json:"total"`
	InProgress      int     `json:"in_progress"`
	Reached         int     `json:"reached"`
	Missed          int     `json:"missed"`
	DueSoon         int     `json:"due_soon"`
	AverageProgress float64 `json:"average_progress"`
}

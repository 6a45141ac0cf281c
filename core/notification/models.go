package notification

import (
	"encoding/json"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/igreja/core"
)

// Types
const (
	TypeBirthday = "aniversario"
	TypeVisitor  = "visitante"
	TypeEvent    = "evento"
	TypeGoal     = "meta"
	TypeSystem   = "sistema"
)

// Priorities
const (
	PriorityLow    = "baixa"
	PriorityNormal = "normal"
	PriorityHigh   = "alta"
)

const (
	DefaultLimit     = 50
	DefaultPurgeDays = 30
)

var (
	Types      = []string{TypeBirthday, TypeVisitor, TypeEvent, TypeGoal, TypeSystem}
	Priorities = []string{PriorityLow, PriorityNormal, PriorityHigh}
)

type Notification struct {
	ID        string    `json:"id" db:"id"`
	ChurchID  string    `json:"-" db:"church_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Type      string    `json:"type" db:"type"`
	Title     string    `json:"title" db:"title"`
	Message   string    `json:"message" db:"message"`
	Link      string    `json:"link" db:"link"`
	Data      string    `json:"data" db:"data"` // JSON object, may be empty
	Priority  string    `json:"priority" db:"priority"`
	IsRead    bool      `json:"is_read" db:"is_read"`
	ReadAt    null.Time `json:"read_at" db:"read_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Filter narrows a user's notifications. Read is "true", "false" or empty for all.
type Filter struct {
	Read  string `query:"read" json:"read" validate:"omitempty,oneof=true false"`
	Limit int    `query:"limit" json:"limit" validate:"min=0,max=200"`
}

func (f *Filter) Validate() error {
	f.Read = core.CleanString(f.Read, true /* lower */)
	if f.Limit == 0 {
		f.Limit = DefaultLimit
	}
	return core.Validate.Struct(f)
}

type NewNotification struct {
	UserID   string                 `json:"user_id" validate:"required"`
	Type     string                 `json:"type" validate:"omitempty,notificationtype"`
	Title    string                 `json:"title" validate:"required,max=200"`
	Message  string                 `json:"message" validate:"omitempty,max=1000"`
	Link     string                 `json:"link" validate:"omitempty,max=500"`
	Data     map[string]interface{} `json:"data"`
	Priority string                 `json:"priority" validate:"omitempty,priority"`
}

func (nn *NewNotification) Validate() error {
	nn.UserID = core.CleanString(nn.UserID)
	nn.Type = core.CleanString(nn.Type, true /* lower */)
	nn.Title = core.CleanString(nn.Title)
	nn.Message = core.CleanString(nn.Message)
	nn.Link = core.CleanString(nn.Link)
	nn.Priority = core.CleanString(nn.Priority, true /* lower */)
	if nn.Type == "" {
		nn.Type = TypeSystem
	}
	if nn.Priority == "" {
		nn.Priority = PriorityNormal
	}
	return core.Validate.Struct(nn)
}

func (nn NewNotification) notification(churchID string) (Notification, error) {
	n := Notification{
		ChurchID:  churchID,
		UserID:    nn.UserID,
		Type:      nn.Type,
		Title:     nn.Title,
		Message:   nn.Message,
		Link:      nn.Link,
		Priority:  nn.Priority,
		CreatedAt: core.NowFunc(),
	}
	if len(nn.Data) > 0 {
		data, err := json.Marshal(nn.Data)
		if err != nil {
			return Notification{}, err
		}
		n.Data = string(data)
	}
	return n, nil
}

// Settings are a user's notification preferences: delivery channels and alert kinds.
type Settings struct {
	UserID          string    `json:"-" db:"user_id"`
	EmailEnabled    bool      `json:"email_enabled" db:"email_enabled"`
	WhatsAppEnabled bool      `json:"whatsapp_enabled" db:"whatsapp_enabled"`
	PushEnabled     bool      `json:"push_enabled" db:"push_enabled"`
	Birthdays       bool      `json:"birthdays" db:"birthdays"`
	Visitors        bool      `json:"visitors" db:"visitors"`
	Events          bool      `json:"events" db:"events"`
	Goals           bool      `json:"goals" db:"goals"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

func DefaultSettings(userID string) Settings {
	return Settings{
		UserID:          userID,
		EmailEnabled:    true,
		WhatsAppEnabled: true,
		PushEnabled:     true,
		Birthdays:       true,
		Visitors:        true,
		Events:          true,
		Goals:           true,
	}
}

// Wants reports whether alerts of the given type should reach the user.
func (s Settings) Wants(alertType string) bool {
	switch alertType {
	case TypeBirthday:
		return s.Birthdays
	case TypeVisitor:
		return s.Visitors
	case TypeEvent:
		return s.Events
	case TypeGoal:
		return s.Goals
	}
	return true
}

// Alert is computed from the church's data. The worker turns alerts into notifications.
type Alert struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Message  string `json:"message"`
	Link     string `json:"link"`
	Priority string `json:"priority"`
}

type (
	BirthdayRow struct {
		ID        string    `db:"id"`
		Name      string    `db:"name"`
		BirthDate time.Time `db:"birth_date"`
	}

	FollowUpRow struct {
		PersonID string    `db:"person_id"`
		Name     string    `db:"name"`
		DueDate  time.Time `db:"due_date"`
	}

	EventRow struct {
		ID       string    `db:"id"`
		Name     string    `db:"name"`
		StartsAt time.Time `db:"starts_at"`
		Location string    `db:"location"`
	}

	GoalRow struct {
		ID           string    `db:"id"`
		Title        string    `db:"title"`
		TargetValue  float64   `db:"target_value"`
		CurrentValue float64   `db:"current_value"`
		EndDate      time.Time `db:"end_date"`
	}

	// Recipient is a user alerts are delivered to, with their settings.
	Recipient struct {
		Settings
		Name string `db:"name"`
	}
)

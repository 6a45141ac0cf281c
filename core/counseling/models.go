package counseling

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/igreja/core"
)

const (
	StatusOngoing  = "em_andamento"
	StatusFinished = "concluido"
	StatusPaused   = "pausado"
)

var (
	Statuses = []string{StatusOngoing, StatusFinished, StatusPaused}
	Types    = []string{"Casamento", "Família", "Emocional", "Espiritual", "Financeiro", "Profissional", "Outro"}
)

// Session is a counseling session as stored: Summary and Notes are encrypted.
type Session struct {
	ID           string    `db:"id"`
	ChurchID     string    `db:"church_id"`
	PersonID     string    `db:"person_id"`
	CounselorID  string    `db:"counselor_id"`
	SessionDate  time.Time `db:"session_date"`
	Type         string    `db:"session_type"`
	Summary      string    `db:"summary"`
	Notes        string    `db:"notes"`
	FollowUpDate null.Time `db:"follow_up_date"`
	Status       string    `db:"status"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// SessionInfo holds the metadata of a session, never its contents.
type SessionInfo struct {
	ID            string    `json:"id" db:"id"`
	PersonID      string    `json:"person_id" db:"person_id"`
	PersonName    string    `json:"person_name" db:"person_name"`
	CounselorID   string    `json:"counselor_id" db:"counselor_id"`
	CounselorName string    `json:"counselor_name" db:"counselor_name"`
	SessionDate   time.Time `json:"session_date" db:"session_date"`
	Type          string    `json:"type" db:"session_type"`
	Status        string    `json:"status" db:"status"`
	FollowUpDate  null.Time `json:"follow_up_date" db:"follow_up_date"`
}

// SessionDetails is a session with its decrypted contents.
type SessionDetails struct {
	SessionInfo
	Summary   string    `json:"summary"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type SessionInput struct {
	PersonID     string `json:"person_id" validate:"required"`
	CounselorID  string `json:"counselor_id" validate:"required"`
	Date         string `json:"date" validate:"required,datetime=2006-01-02"`
	Type         string `json:"type" validate:"omitempty,counselingtype"`
	Summary      string `json:"summary" validate:"omitempty,max=5000"`
	Notes        string `json:"notes" validate:"omitempty,max=20000"`
	Status       string `json:"status" validate:"omitempty,counselingstatus"`
	FollowUpDate string `json:"follow_up_date" validate:"omitempty,datetime=2006-01-02"`
}

func (in *SessionInput) Validate() error {
	in.PersonID = core.CleanString(in.PersonID)
	in.CounselorID = core.CleanString(in.CounselorID)
	in.Type = core.CleanString(in.Type)
	in.Summary = core.CleanString(in.Summary)
	in.Notes = core.CleanString(in.Notes)
	in.Status = core.CleanString(in.Status, true /* lower */)
	if in.Status == "" {
		in.Status = StatusOngoing
	}
	return core.Validate.Struct(in)
}

type Filter struct {
	PersonID    string `query:"person_id"`
	CounselorID string `query:"counselor_id"`
	Status      string `query:"status"`
}

type Counselor struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

package ministry

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/igreja/core"
)

const (
	DefaultColor = "#3498db"
	RoleMember   = "membro"
)

var Weekdays = []string{"domingo", "segunda", "terca", "quarta", "quinta", "sexta", "sabado"}

type Ministry struct {
	ID           string      `json:"id" db:"id"`
	ChurchID     string      `json:"-" db:"church_id"`
	Name         string      `json:"name" db:"name"`
	Description  string      `json:"description" db:"description"`
	LeaderID     null.String `json:"leader_id" db:"leader_id"`
	ViceLeaderID null.String `json:"vice_leader_id" db:"vice_leader_id"`
	Color        string      `json:"color" db:"color"`
	IsActive     bool        `json:"is_active" db:"is_active"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
}

type MinistryListItem struct {
	Ministry
	LeaderName     null.String `json:"leader_name" db:"leader_name"`
	ViceLeaderName null.String `json:"vice_leader_name" db:"vice_leader_name"`
	MemberCount    int         `json:"member_count" db:"member_count"`
}

type MinistryInput struct {
	Name         string `json:"name" validate:"required,max=100"`
	Description  string `json:"description" validate:"omitempty,max=1000"`
	LeaderID     string `json:"leader_id"`
	ViceLeaderID string `json:"vice_leader_id"`
	Color        string `json:"color" validate:"omitempty,hexcolor"`
}

func (in *MinistryInput) Validate() error {
	in.Name = core.CleanString(in.Name)
	in.Description = core.CleanString(in.Description)
	if in.Color == "" {
		in.Color = DefaultColor
	}
	return core.Validate.Struct(in)
}

func (in MinistryInput) apply(m *Ministry) {
	m.Name = in.Name
	m.Description = in.Description
	m.LeaderID = core.NullString(in.LeaderID)
	m.ViceLeaderID = core.NullString(in.ViceLeaderID)
	m.Color = in.Color
}

// Member is a person taking part in a ministry or a cell.
type Member struct {
	PersonID string    `json:"person_id" db:"person_id"`
	Name     string    `json:"name" db:"name"`
	Mobile   string    `json:"mobile" db:"mobile"`
	Email    string    `json:"email" db:"email"`
	Role     string    `json:"role" db:"role"`
	JoinedAt time.Time `json:"joined_at" db:"joined_at"`
}

type NewMember struct {
	PersonID string `json:"person_id" validate:"required"`
	Role     string `json:"role" validate:"omitempty,max=50"`
}

func (nm *NewMember) Validate() error {
	nm.PersonID = core.CleanString(nm.PersonID)
	nm.Role = core.CleanString(nm.Role, true /* lower */)
	if nm.Role == "" {
		nm.Role = RoleMember
	}
	return core.Validate.Struct(nm)
}

type Cell struct {
	ID          string      `json:"id" db:"id"`
	ChurchID    string      `json:"-" db:"church_id"`
	NetworkID   null.String `json:"network_id" db:"network_id"`
	Name        string      `json:"name" db:"name"`
	Description string      `json:"description" db:"description"`
	LeaderID    null.String `json:"leader_id" db:"leader_id"`
	CoLeaderID  null.String `json:"co_leader_id" db:"co_leader_id"`
	HostID      null.String `json:"host_id" db:"host_id"`
	Address     string      `json:"address" db:"address"`
	Weekday     string      `json:"weekday" db:"weekday"`
	MeetingTime string      `json:"meeting_time" db:"meeting_time"`
	IsActive    bool        `json:"is_active" db:"is_active"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
}

// LedBy reports whether personID leads or co-leads the cell.
func (c Cell) LedBy(personID string) bool {
	if personID == "" {
		return false
	}
	return c.LeaderID.String == personID || c.CoLeaderID.String == personID
}

type CellListItem struct {
	Cell
	LeaderName    null.String `json:"leader_name" db:"leader_name"`
	CoLeaderName  null.String `json:"co_leader_name" db:"co_leader_name"`
	HostName      null.String `json:"host_name" db:"host_name"`
	NetworkName   null.String `json:"network_name" db:"network_name"`
	MemberCount   int         `json:"member_count" db:"member_count"`
	AvgAttendance float64     `json:"avg_attendance" db:"avg_attendance"` // last 30 days
}

type CellInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"omitempty,max=1000"`
	NetworkID   string `json:"network_id"`
	LeaderID    string `json:"leader_id"`
	CoLeaderID  string `json:"co_leader_id"`
	HostID      string `json:"host_id"`
	Address     string `json:"address" validate:"omitempty,max=300"`
	Weekday     string `json:"weekday" validate:"omitempty,weekday"`
	MeetingTime string `json:"meeting_time" validate:"omitempty,datetime=15:04"`
}

func (in *CellInput) Validate() error {
	in.Name = core.CleanString(in.Name)
	in.Description = core.CleanString(in.Description)
	in.Address = core.CleanString(in.Address)
	in.Weekday = core.CleanString(in.Weekday, true /* lower */)
	in.MeetingTime = core.CleanString(in.MeetingTime)
	return core.Validate.Struct(in)
}

func (in CellInput) apply(c *Cell) {
	c.Name = in.Name
	c.Description = in.Description
	c.NetworkID = core.NullString(in.NetworkID)
	c.LeaderID = core.NullString(in.LeaderID)
	c.CoLeaderID = core.NullString(in.CoLeaderID)
	c.HostID = core.NullString(in.HostID)
	c.Address = in.Address
	c.Weekday = in.Weekday
	c.MeetingTime = in.MeetingTime
}

type Meeting struct {
	ID            string     `json:"id" db:"id"`
	CellID        string     `json:"cell_id" db:"cell_id"`
	MeetingDate   time.Time  `json:"meeting_date" db:"meeting_date"`
	Theme         string     `json:"theme" db:"theme"`
	PresentCount  int        `json:"present_count" db:"present_count"`
	VisitorsCount int        `json:"visitors_count" db:"visitors_count"`
	Offering      core.Money `json:"offering" db:"offering"`
	Notes         string     `json:"notes" db:"notes"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}

type NewMeeting struct {
	Date          string     `json:"date" validate:"required,datetime=2006-01-02"`
	Theme         string     `json:"theme" validate:"omitempty,max=200"`
	PresentIDs    []string   `json:"present_ids"`
	VisitorsCount int        `json:"visitors_count" validate:"min=0"`
	Offering      core.Money `json:"offering" validate:"min=0"`
	Notes         string     `json:"notes"`
}

func (nm *NewMeeting) Validate() error {
	nm.Theme = core.CleanString(nm.Theme)
	return core.Validate.Struct(nm)
}

// presentIDs returns the distinct, non-blank present person ids.
func (nm NewMeeting) presentIDs() []string {
	seen := make(map[string]struct{}, len(nm.PresentIDs))
	ids := make([]string, 0, len(nm.PresentIDs))
	for _, id := range nm.PresentIDs {
		id = core.CleanString(id)
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

type Network struct {
	ID           string      `json:"id" db:"id"`
	ChurchID     string      `json:"-" db:"church_id"`
	Name         string      `json:"name" db:"name"`
	SupervisorID null.String `json:"supervisor_id" db:"supervisor_id"`
	Color        string      `json:"color" db:"color"`
	IsActive     bool        `json:"is_active" db:"is_active"`
}

type NetworkListItem struct {
	Network
	SupervisorName null.String `json:"supervisor_name" db:"supervisor_name"`
	CellCount      int         `json:"cell_count" db:"cell_count"`
}

type NetworkInput struct {
	Name         string `json:"name" validate:"required,max=100"`
	SupervisorID string `json:"supervisor_id"`
	Color        string `json:"color" validate:"omitempty,hexcolor"`
}

func (in *NetworkInput) Validate() error {
	in.Name = core.CleanString(in.Name)
	if in.Color == "" {
		in.Color = DefaultColor
	}
	return core.Validate.Struct(in)
}

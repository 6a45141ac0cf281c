package report

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/igreja/core"
)

// Cell health statuses
const (
	HealthGood     = "saudavel"
	HealthWarning  = "atencao"
	HealthCritical = "critico"
)

const (
	DefaultMonths         = 12
	DefaultDonationMonths = 6
	DefaultAttendanceDays = 30
	CacheTTL              = 120 * time.Second

	cellWindowDays = 30
)

type General struct {
	ByStatus            map[string]int `json:"by_status"`
	Total               int            `json:"total"`
	Members             int            `json:"members"`
	Visitors            int            `json:"visitors"`
	NewConverts         int            `json:"new_converts"`
	NewMembersThisMonth int            `json:"new_members_this_month"`
	VisitorsThisMonth   int            `json:"visitors_this_month"`
	Cells               int            `json:"cells"`
	Ministries          int            `json:"ministries"`
}

type StatusCount struct {
	Status string `db:"status"`
	Count  int    `db:"n"`
}

// MonthCount is a count for a month formatted as "2006-01".
type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

type MonthAmount struct {
	Month string     `json:"month"`
	Total core.Money `json:"total"`
}

type DonationRow struct {
	Amount    core.Money `db:"amount"`
	DonatedAt time.Time  `db:"donated_at"`
}

type CellHealth struct {
	ID            string       `json:"id" db:"id"`
	Name          string       `json:"name" db:"name"`
	LeaderName    null.String  `json:"leader_name" db:"leader_name"`
	Members       int          `json:"members" db:"members"`
	AvgAttendance null.Float64 `json:"avg_attendance" db:"avg_attendance"`
	Meetings      int          `json:"meetings" db:"meetings"`
	Score         int          `json:"score" db:"-"`
	Status        string       `json:"status" db:"-"`
}

// Evaluate scores the cell: 25 points each for at least 5 members, an average attendance of
// at least 70% of the members, at least 4 meetings in the period and at most 15 members.
func (c *CellHealth) Evaluate() {
	avg := c.AvgAttendance.Float64
	c.Score = 0
	if c.Members >= 5 {
		c.Score += 25
	}
	if avg >= float64(c.Members)*0.7 {
		c.Score += 25
	}
	if c.Meetings >= 4 {
		c.Score += 25
	}
	if c.Members <= 15 {
		c.Score += 25
	}

	switch {
	case c.Score >= 75:
		c.Status = HealthGood
	case c.Score >= 50:
		c.Status = HealthWarning
	default:
		c.Status = HealthCritical
	}
}

type EventAttendance struct {
	ID       string    `json:"id" db:"id"`
	Name     string    `json:"name" db:"name"`
	StartsAt time.Time `json:"starts_at" db:"starts_at"`
	Present  int       `json:"present" db:"present"`
}

type Attendance struct {
	Events  []EventAttendance `json:"events"`
	Average float64           `json:"average"`
}

type Dashboard struct {
	General     General       `json:"general"`
	Growth      []MonthCount  `json:"growth"`
	Cells       []CellHealth  `json:"cells"`
	Donations   []MonthAmount `json:"donations"`
	Attendance  Attendance    `json:"attendance"`
	GeneratedAt time.Time     `json:"generated_at"`
}

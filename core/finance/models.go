package finance

import (
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/igreja/core"
)

const TypeTithe = "Dízimo"

// Summary periods. Any other value covers the last 30 days.
const (
	PeriodWeek  = "semana"
	PeriodMonth = "mes"
	PeriodYear  = "ano"
)

var (
	Types          = []string{TypeTithe, "Oferta", "Missões", "Construção", "Ação Social", "Outro"}
	PaymentMethods = []string{"Dinheiro", "PIX", "Cartão Débito", "Cartão Crédito", "Transferência", "Cheque"}
)

type Donation struct {
	ID            string      `json:"id" db:"id"`
	ChurchID      string      `json:"-" db:"church_id"`
	PersonID      null.String `json:"person_id" db:"person_id"`
	Amount        core.Money  `json:"amount" db:"amount"`
	Type          string      `json:"type" db:"donation_type"`
	PaymentMethod string      `json:"payment_method" db:"payment_method"`
	Reference     string      `json:"reference" db:"reference"`
	Notes         string      `json:"notes" db:"notes"`
	DonatedAt     time.Time   `json:"donated_at" db:"donated_at"`
	IsAnonymous   bool        `json:"is_anonymous" db:"is_anonymous"`
	RegisteredBy  null.String `json:"registered_by" db:"registered_by"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
}

type DonationListItem struct {
	Donation
	PersonName null.String `json:"person_name" db:"person_name"`
}

type NewDonation struct {
	PersonID      string     `json:"person_id"`
	Amount        core.Money `json:"amount" validate:"gt=0"`
	Type          string     `json:"type" validate:"required,donationtype"`
	Date          string     `json:"date" validate:"omitempty,datetime=2006-01-02"`
	PaymentMethod string     `json:"payment_method" validate:"omitempty,paymentmethod"`
	Reference     string     `json:"reference" validate:"omitempty,max=100"`
	Notes         string     `json:"notes" validate:"omitempty,max=1000"`
	IsAnonymous   bool       `json:"is_anonymous"`
}

func (nd *NewDonation) Validate() error {
	nd.PersonID = core.CleanString(nd.PersonID)
	nd.Type = core.CleanString(nd.Type)
	nd.Date = core.CleanString(nd.Date)
	nd.PaymentMethod = core.CleanString(nd.PaymentMethod)
	nd.Reference = core.CleanString(nd.Reference)
	nd.Notes = core.CleanString(nd.Notes)
	return core.Validate.Struct(nd)
}

type Filter struct {
	From     string `query:"from" json:"from" validate:"omitempty,datetime=2006-01-02"`
	To       string `query:"to" json:"to" validate:"omitempty,datetime=2006-01-02"`
	Type     string `query:"type" json:"type" validate:"omitempty,donationtype"`
	PersonID string `query:"person_id" json:"person_id"`

	from, to null.Time
}

func (f *Filter) Validate() error {
	f.From = core.CleanString(f.From)
	f.To = core.CleanString(f.To)
	f.Type = core.CleanString(f.Type)
	f.PersonID = core.CleanString(f.PersonID)
	if err := core.Validate.Struct(f); err != nil {
		return err
	}
	var err error
	if f.from, err = core.ParseDate(f.From); err != nil {
		return errors.Wrap(err, "parsing from")
	}
	if f.to, err = core.ParseDate(f.To); err != nil {
		return errors.Wrap(err, "parsing to")
	}
	return nil
}

// Range returns the parsed bounds of the filter, valid after Validate.
func (f Filter) Range() (from, to null.Time) {
	return f.from, f.to
}

type TypeTotal struct {
	Total core.Money `json:"total"`
	Count int        `json:"count"`
}

// Contributor is one of the top givers of a period, with a partially hidden name.
type Contributor struct {
	PersonID string     `json:"person_id"`
	Name     string     `json:"name"`
	Total    core.Money `json:"total"`
}

type Summary struct {
	Period          string               `json:"period"`
	Since           time.Time            `json:"since"`
	Total           core.Money           `json:"total"`
	Count           int                  `json:"count"`
	ByType          map[string]TypeTotal `json:"by_type"`
	PreviousTotal   core.Money           `json:"previous_total"`
	Variation       float64              `json:"variation"` // percent, versus the previous window
	TopContributors []Contributor        `json:"top_contributors"`
}

type PersonHistory struct {
	Donations  []Donation `json:"donations"`
	Total      core.Money `json:"total"`
	TitheTotal core.Money `json:"tithe_total"`
}

type MonthTotal struct {
	Month string     `json:"month"` // YYYY-MM
	Total core.Money `json:"total"`
	Count int        `json:"count"`
}

// DailyTotal is the sum of the donations of a single day.
type DailyTotal struct {
	Date  time.Time
	Total core.Money
	Count int
}

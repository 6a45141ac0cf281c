package church

import (
	"time"

	"github.com/trezcool/igreja/core"
)

// Plans
const (
	PlanBasic   = "BASICO"
	PlanPro     = "PRO"
	PlanPremium = "PREMIUM"

	Unlimited = -1
)

var Plans = map[string]Plan{
	PlanBasic: {
		Code:       PlanBasic,
		Name:       "Básico",
		MaxMembers: 200,
		MaxUsers:   3,
		Resources:  []string{"pessoas", "visitantes", "celulas", "eventos"},
	},
	PlanPro: {
		Code:       PlanPro,
		Name:       "Profissional",
		MaxMembers: 1000,
		MaxUsers:   10,
		Resources:  []string{"pessoas", "visitantes", "celulas", "eventos", "comunicacao", "doacoes", "relatorios"},
	},
	PlanPremium: {
		Code:        PlanPremium,
		Name:        "Premium",
		MaxMembers:  Unlimited,
		MaxUsers:    Unlimited,
		Resources:   []string{"*"},
		MultiCampus: true,
	},
}

type Plan struct {
	Code        string   `json:"code"`
	Name        string   `json:"name"`
	MaxMembers  int      `json:"max_members"`
	MaxUsers    int      `json:"max_users"`
	Resources   []string `json:"resources"`
	MultiCampus bool     `json:"multi_campus"`
}

// HasResource reports whether the plan includes the given resource.
func (p Plan) HasResource(res string) bool {
	for _, r := range p.Resources {
		if r == "*" || r == res {
			return true
		}
	}
	return false
}

// allows reports whether a plan limit lets one more record in.
func allows(limit, current int) bool {
	return limit == Unlimited || current < limit
}

type Church struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CNPJ      string    `json:"cnpj" db:"cnpj"`
	Email     string    `json:"email" db:"email"`
	Phone     string    `json:"phone" db:"phone"`
	Address   string    `json:"address" db:"address"`
	City      string    `json:"city" db:"city"`
	State     string    `json:"state" db:"state"`
	Plan      string    `json:"plan" db:"plan"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

func (c Church) GetPlan() Plan {
	if p, ok := Plans[c.Plan]; ok {
		return p
	}
	return Plans[PlanBasic]
}

// NewChurch contains information needed to create a new Church.
type NewChurch struct {
	Name    string `json:"name" validate:"required,max=200"`
	CNPJ    string `json:"cnpj" validate:"omitempty,max=20"`
	Email   string `json:"email" validate:"omitempty,email"`
	Phone   string `json:"phone" validate:"omitempty,phone"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state" validate:"omitempty,len=2"`
	Plan    string `json:"plan" validate:"omitempty,plan"`
}

func (nc *NewChurch) Validate() error {
	nc.Name = core.CleanString(nc.Name)
	nc.Email = core.CleanString(nc.Email, true /* lower */)
	nc.State = core.CleanString(nc.State)
	if nc.Plan == "" {
		nc.Plan = PlanBasic
	}
	return core.Validate.Struct(nc)
}

// UpdateChurch defines what information may be provided to modify the caller's Church.
// The plan is not editable here.
type UpdateChurch struct {
	Name    string `json:"name" validate:"required,max=200"`
	CNPJ    string `json:"cnpj" validate:"omitempty,max=20"`
	Email   string `json:"email" validate:"omitempty,email"`
	Phone   string `json:"phone" validate:"omitempty,phone"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state" validate:"omitempty,len=2"`
}

func (uc *UpdateChurch) Validate() error {
	uc.Name = core.CleanString(uc.Name)
	uc.Email = core.CleanString(uc.Email, true /* lower */)
	uc.State = core.CleanString(uc.State)
	return core.Validate.Struct(uc)
}

package user

import (
	"time"

	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/igreja/core"
)

type User struct {
	ID           string      `json:"id" db:"id"`
	ChurchID     string      `json:"church_id" db:"church_id"`
	PersonID     null.String `json:"person_id" db:"person_id"`
	Name         string      `json:"name" db:"name"`
	Email        string      `json:"email" db:"email"`
	Profile      string      `json:"profile" db:"profile"`
	IsActive     bool        `json:"is_active" db:"is_active"`
	PasswordHash string      `json:"-" db:"password_hash"`
	LastAccess   null.Time   `json:"last_access" db:"last_access"` // UTC
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`   // UTC
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"`   // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(pwd))
}

func (u User) HasPermission(perm string) bool {
	return HasPermission(u.Profile, perm)
}

// Actor returns the identity services use to scope and log operations run by u.
func (u User) Actor() core.Actor {
	return core.Actor{
		UserID:   u.ID,
		ChurchID: u.ChurchID,
		PersonID: u.PersonID.String,
		Profile:  u.Profile,
		Name:     u.Name,
	}
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name            string `json:"name" validate:"required,max=150"`
	Email           string `json:"email" validate:"required,email"`
	Profile         string `json:"profile" validate:"required,profile"`
	PersonID        string `json:"person_id" validate:"omitempty,uuid"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (nu *NewUser) Validate() error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Profile = core.CleanString(nu.Profile)
	return core.Validate.Struct(nu)
}

// UpdateUser defines what information may be provided to modify an existing User.
type UpdateUser struct {
	Name            string  `json:"name" validate:"omitempty,max=150"`
	Email           string  `json:"email" validate:"omitempty,email"`
	Profile         string  `json:"profile" validate:"omitempty,profile"`
	PersonID        *string `json:"person_id" validate:"omitempty"`
	IsActive        *bool   `json:"is_active"`
	Password        string  `json:"password" validate:"omitempty"`
	PasswordConfirm string  `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

func (uu *UpdateUser) Validate(origUsr User) error {
	if name := core.CleanString(uu.Name); name != "" {
		uu.Name = name
	} else {
		uu.Name = origUsr.Name
	}
	if email := core.CleanString(uu.Email, true /* lower */); email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}
	if profile := core.CleanString(uu.Profile); profile != "" {
		uu.Profile = profile
	} else {
		uu.Profile = origUsr.Profile
	}
	return core.Validate.Struct(uu)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate() error { return core.Validate.Struct(rp) }

type QueryFilter struct {
	Search   string `query:"search"`
	Profile  string `query:"profile"`
	IsActive *bool  `query:"is_active"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Profile = core.CleanString(qf.Profile)
}

// LoginMeta describes the client a login request came from.
type LoginMeta struct {
	IP        string
	UserAgent string
}

type AccessLog struct {
	ID        string      `json:"id" db:"id"`
	ChurchID  string      `json:"-" db:"church_id"`
	UserID    null.String `json:"user_id" db:"user_id"`
	UserName  null.String `json:"user_name" db:"user_name"`
	Action    string      `json:"action" db:"action"`
	Details   string      `json:"details" db:"details"`
	IP        string      `json:"ip" db:"ip"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
}

type AccessLogFilter struct {
	Action string    `query:"action"`
	UserID string    `query:"user_id"`
	From   time.Time `query:"from"`
	To     time.Time `query:"to"`
	Limit  int       `query:"limit"`
}

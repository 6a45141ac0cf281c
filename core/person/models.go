package person

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/igreja/core"
)

// Funnel statuses, in funnel order.
const (
	StatusVisitor         = "visitante"
	StatusNewConvert      = "novo_convertido"
	StatusOnboarding      = "em_integracao"
	StatusMember          = "membro"
	StatusTither          = "dizimista"
	StatusLeader          = "lider"
	StatusWorker          = "obreiro"
	StatusDeacon          = "diacono"
	StatusElder           = "presbitero"
	StatusEvangelist      = "evangelista"
	StatusMissionary      = "missionario"
	StatusAssistantPastor = "pastor_auxiliar"
	StatusPastor          = "pastor"
	StatusApostle         = "apostolo"
	StatusInactive        = "inativo"
)

var (
	Funnel = []string{
		StatusVisitor, StatusNewConvert, StatusOnboarding, StatusMember, StatusTither, StatusLeader,
		StatusWorker, StatusDeacon, StatusElder, StatusEvangelist, StatusMissionary,
		StatusAssistantPastor, StatusPastor, StatusApostle,
	}
	AllStatuses = append(append([]string{}, Funnel...), StatusInactive)

	StatusLabels = map[string]string{
		StatusVisitor:         "Visitante",
		StatusNewConvert:      "Novo Convertido",
		StatusOnboarding:      "Em Integração",
		StatusMember:          "Membro",
		StatusTither:          "Dizimista",
		StatusLeader:          "Líder",
		StatusWorker:          "Obreiro",
		StatusDeacon:          "Diácono",
		StatusElder:           "Presbítero",
		StatusEvangelist:      "Evangelista",
		StatusMissionary:      "Missionário",
		StatusAssistantPastor: "Pastor Auxiliar",
		StatusPastor:          "Pastor",
		StatusApostle:         "Apóstolo",
		StatusInactive:        "Inativo",
	}
)

type Person struct {
	ID             string      `json:"id" db:"id"`
	ChurchID       string      `json:"-" db:"church_id"`
	FamilyID       null.String `json:"family_id" db:"family_id"`
	Name           string      `json:"name" db:"name"`
	Email          string      `json:"email" db:"email"`
	Phone          string      `json:"phone" db:"phone"`
	Mobile         string      `json:"mobile" db:"mobile"`
	BirthDate      null.Time   `json:"birth_date" db:"birth_date"`
	Gender         string      `json:"gender" db:"gender"`
	MaritalStatus  string      `json:"marital_status" db:"marital_status"`
	Address        string      `json:"address" db:"address"`
	Neighborhood   string      `json:"neighborhood" db:"neighborhood"`
	City           string      `json:"city" db:"city"`
	State          string      `json:"state" db:"state"`
	ZipCode        string      `json:"zip_code" db:"zip_code"`
	Status         string      `json:"status" db:"status"`
	ConversionDate null.Time   `json:"conversion_date" db:"conversion_date"`
	BaptismDate    null.Time   `json:"baptism_date" db:"baptism_date"`
	MembershipDate null.Time   `json:"membership_date" db:"membership_date"`
	HowHeard       string      `json:"how_heard" db:"how_heard"`
	Notes          string      `json:"notes" db:"notes"`
	PhotoURL       string      `json:"photo_url" db:"photo_url"`
	IsActive       bool        `json:"is_active" db:"is_active"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at" db:"updated_at"`
}

// Contact returns the best phone number to reach the person.
func (p Person) Contact() string {
	if p.Mobile != "" {
		return p.Mobile
	}
	return p.Phone
}

// ListItem is a Person as shown in listings.
type ListItem struct {
	Person
	FamilyName null.String `json:"family_name" db:"family_name"`
	Tags       []string    `json:"tags" db:"-"`
}

// Input contains the editable fields of a Person, for both creation and update.
type Input struct {
	Name           string   `json:"name" validate:"required,max=200"`
	Email          string   `json:"email" validate:"omitempty,email"`
	Phone          string   `json:"phone" validate:"omitempty,phone"`
	Mobile         string   `json:"mobile" validate:"omitempty,phone"`
	BirthDate      string   `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	Gender         string   `json:"gender" validate:"omitempty,oneof=M F"`
	MaritalStatus  string   `json:"marital_status" validate:"omitempty,max=30"`
	Address        string   `json:"address"`
	Neighborhood   string   `json:"neighborhood"`
	City           string   `json:"city"`
	State          string   `json:"state" validate:"omitempty,len=2"`
	ZipCode        string   `json:"zip_code" validate:"omitempty,max=10"`
	Status         string   `json:"status" validate:"omitempty,funnelstatus"`
	ConversionDate string   `json:"conversion_date" validate:"omitempty,datetime=2006-01-02"`
	BaptismDate    string   `json:"baptism_date" validate:"omitempty,datetime=2006-01-02"`
	MembershipDate string   `json:"membership_date" validate:"omitempty,datetime=2006-01-02"`
	HowHeard       string   `json:"how_heard"`
	Notes          string   `json:"notes"`
	PhotoURL       string   `json:"photo_url" validate:"omitempty,url"`
	FamilyID       string   `json:"family_id"`
	TagIDs         []string `json:"tag_ids"`
}

func (in *Input) Validate() error {
	in.Name = core.CleanString(in.Name)
	in.Email = core.CleanString(in.Email, true /* lower */)
	in.Phone = core.CleanString(in.Phone)
	in.Mobile = core.CleanString(in.Mobile)
	in.State = core.CleanString(in.State)
	if in.Status == "" {
		in.Status = StatusVisitor
	}
	return core.Validate.Struct(in)
}

// apply copies the input onto p.
func (in Input) apply(p *Person) {
	p.Name = in.Name
	p.Email = in.Email
	p.Phone = in.Phone
	p.Mobile = in.Mobile
	p.BirthDate = core.ParseDateOrZero(in.BirthDate)
	p.Gender = in.Gender
	p.MaritalStatus = in.MaritalStatus
	p.Address = in.Address
	p.Neighborhood = in.Neighborhood
	p.City = in.City
	p.State = in.State
	p.ZipCode = in.ZipCode
	p.Status = in.Status
	p.ConversionDate = core.ParseDateOrZero(in.ConversionDate)
	p.BaptismDate = core.ParseDateOrZero(in.BaptismDate)
	p.MembershipDate = core.ParseDateOrZero(in.MembershipDate)
	p.HowHeard = in.HowHeard
	p.Notes = in.Notes
	p.PhotoURL = in.PhotoURL
	p.FamilyID = core.NullString(in.FamilyID)
}

type QueryFilter struct {
	Status string `query:"status"`
	Search string `query:"search"`
	TagID  string `query:"tag_id"`
}

func (qf *QueryFilter) Clean() {
	qf.Status = core.CleanString(qf.Status)
	qf.Search = core.CleanString(qf.Search)
	qf.TagID = core.CleanString(qf.TagID)
}

type Tag struct {
	ID       string `json:"id" db:"id"`
	ChurchID string `json:"-" db:"church_id"`
	Name     string `json:"name" db:"name"`
	Color    string `json:"color" db:"color"`
}

type NewTag struct {
	Name  string `json:"name" validate:"required,max=50"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

func (nt *NewTag) Validate() error {
	nt.Name = core.CleanString(nt.Name)
	if nt.Color == "" {
		nt.Color = "#3498db"
	}
	return core.Validate.Struct(nt)
}

// personTag links a person to a tag, as loaded for listings.
type PersonTag struct {
	PersonID string `db:"person_id"`
	Name     string `db:"name"`
}

type Family struct {
	ID          string    `json:"id" db:"id"`
	ChurchID    string    `json:"-" db:"church_id"`
	Name        string    `json:"name" db:"name"`
	MemberCount int       `json:"member_count" db:"member_count"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

type NewFamily struct {
	Name string `json:"name" validate:"required,max=150"`
}

func (nf *NewFamily) Validate() error {
	nf.Name = core.CleanString(nf.Name)
	return core.Validate.Struct(nf)
}

// History groups a person's participation records.
type History struct {
	Attendance []AttendanceRecord `json:"attendance"`
	Ministries []Membership       `json:"ministries"`
	Cells      []Membership       `json:"cells"`
	FollowUps  []FollowUpRecord   `json:"follow_ups"`
	Counseling []CounselingRecord `json:"counseling,omitempty"`
}

type AttendanceRecord struct {
	EventID     string    `json:"event_id" db:"event_id"`
	EventName   string    `json:"event_name" db:"event_name"`
	EventType   string    `json:"event_type" db:"event_type"`
	StartsAt    time.Time `json:"starts_at" db:"starts_at"`
	CheckedInAt time.Time `json:"checked_in_at" db:"checked_in_at"`
}

type Membership struct {
	ID       string    `json:"id" db:"id"`
	Name     string    `json:"name" db:"name"`
	Role     string    `json:"role" db:"role"`
	JoinedAt time.Time `json:"joined_at" db:"joined_at"`
	IsActive bool      `json:"is_active" db:"is_active"`
}

type FollowUpRecord struct {
	ID          string    `json:"id" db:"id"`
	Type        string    `json:"type" db:"type"`
	DueDate     time.Time `json:"due_date" db:"due_date"`
	Status      string    `json:"status" db:"status"`
	Result      string    `json:"result" db:"result"`
	CompletedAt null.Time `json:"completed_at" db:"completed_at"`
}

// CounselingRecord holds counseling metadata only; contents stay encrypted elsewhere.
type CounselingRecord struct {
	ID            string    `json:"id" db:"id"`
	SessionDate   time.Time `json:"session_date" db:"session_date"`
	SessionType   string    `json:"session_type" db:"session_type"`
	Status        string    `json:"status" db:"status"`
	CounselorName string    `json:"counselor_name" db:"counselor_name"`
}

type DonationRecord struct {
	ID        string     `json:"id" db:"id"`
	Amount    core.Money `json:"amount" db:"amount"`
	Type      string     `json:"type" db:"donation_type"`
	DonatedAt time.Time  `json:"donated_at" db:"donated_at"`
}

type Consent struct {
	ID          string    `json:"id" db:"id"`
	ChurchID    string    `json:"-" db:"church_id"`
	PersonID    string    `json:"person_id" db:"person_id"`
	ConsentType string    `json:"consent_type" db:"consent_type"`
	Granted     bool      `json:"granted" db:"granted"`
	IP          string    `json:"ip" db:"ip"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

type NewConsent struct {
	ConsentType string `json:"consent_type" validate:"required,max=50"`
	Granted     bool   `json:"granted"`
}

func (nc *NewConsent) Validate() error {
	nc.ConsentType = core.CleanString(nc.ConsentType)
	return core.Validate.Struct(nc)
}

// Export is everything the church holds about a person.
type Export struct {
	Person    Person           `json:"person"`
	History   History          `json:"history"`
	Donations []DonationRecord `json:"donations"`
	Consents  []Consent        `json:"consents"`
	Generated time.Time        `json:"generated_at"`
}

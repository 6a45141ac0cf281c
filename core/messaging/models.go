package messaging

import (
	"strings"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/igreja/core"
)

// Channels
const (
	ChannelWhatsApp = "whatsapp"
	ChannelEmail    = "email"
)

// Campaign segments. Any other value is the name of a tag.
const (
	SegmentAll       = "todos"
	SegmentVisitors  = "visitantes"
	SegmentMembers   = "membros"
	SegmentLeaders   = "lideres"
	SegmentBirthdays = "aniversariantes"
)

// Campaign statuses
const (
	CampaignDraft = "rascunho"
	CampaignSent  = "enviada"
)

// Sent message statuses
const (
	SentOK     = "enviado"
	SentFailed = "falha"
)

var Channels = []string{ChannelWhatsApp, ChannelEmail}

type Template struct {
	ID        string    `json:"id" db:"id"`
	ChurchID  string    `json:"-" db:"church_id"`
	Name      string    `json:"name" db:"name"`
	Category  string    `json:"category" db:"category"`
	Subject   string    `json:"subject" db:"subject"`
	Content   string    `json:"content" db:"content"`
	Channel   string    `json:"channel" db:"channel"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type TemplateInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Category string `json:"category" validate:"omitempty,max=50"`
	Subject  string `json:"subject" validate:"omitempty,max=200"`
	Content  string `json:"content" validate:"required,max=4000"`
	Channel  string `json:"channel" validate:"omitempty,channel"`
}

func (in *TemplateInput) Validate() error {
	in.Name = core.CleanString(in.Name)
	in.Category = core.CleanString(in.Category)
	in.Subject = core.CleanString(in.Subject)
	in.Content = strings.TrimSpace(in.Content)
	in.Channel = core.CleanString(in.Channel, true /* lower */)
	if in.Channel == "" {
		in.Channel = ChannelWhatsApp
	}
	return core.Validate.Struct(in)
}

func (in TemplateInput) apply(t *Template) {
	t.Name = in.Name
	t.Category = in.Category
	t.Subject = in.Subject
	t.Content = in.Content
	t.Channel = in.Channel
}

type Campaign struct {
	ID         string      `json:"id" db:"id"`
	ChurchID   string      `json:"-" db:"church_id"`
	Name       string      `json:"name" db:"name"`
	TemplateID null.String `json:"template_id" db:"template_id"`
	Segment    string      `json:"segment" db:"segment"`
	Channel    string      `json:"channel" db:"channel"`
	Subject    string      `json:"subject" db:"subject"`
	Content    string      `json:"content" db:"content"`
	Status     string      `json:"status" db:"status"`
	TotalSent  int         `json:"total_sent" db:"total_sent"`
	SentAt     null.Time   `json:"sent_at" db:"sent_at"`
	CreatedBy  null.String `json:"created_by" db:"created_by"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at"`
}

type CampaignListItem struct {
	Campaign
	TemplateName null.String `json:"template_name" db:"template_name"`
}

// CampaignInput describes a campaign. Subject and content default to the template's.
type CampaignInput struct {
	Name       string `json:"name" validate:"required,max=150"`
	TemplateID string `json:"template_id"`
	Segment    string `json:"segment" validate:"required,max=100"`
	Channel    string `json:"channel" validate:"omitempty,channel"`
	Subject    string `json:"subject" validate:"omitempty,max=200"`
	Content    string `json:"content" validate:"omitempty,max=4000"`
}

func (in *CampaignInput) Validate() error {
	in.Name = core.CleanString(in.Name)
	in.TemplateID = core.CleanString(in.TemplateID)
	in.Segment = core.CleanString(in.Segment)
	in.Channel = core.CleanString(in.Channel, true /* lower */)
	in.Subject = core.CleanString(in.Subject)
	in.Content = strings.TrimSpace(in.Content)
	if in.Channel == "" {
		in.Channel = ChannelWhatsApp
	}
	return core.Validate.Struct(in)
}

// DirectMessage is a message sent to a single person, outside any campaign.
type DirectMessage struct {
	PersonID   string `json:"person_id" validate:"required"`
	Channel    string `json:"channel" validate:"omitempty,channel"`
	TemplateID string `json:"template_id"`
	Subject    string `json:"subject" validate:"omitempty,max=200"`
	Content    string `json:"content" validate:"omitempty,max=4000"`
}

func (dm *DirectMessage) Validate() error {
	dm.PersonID = core.CleanString(dm.PersonID)
	dm.Channel = core.CleanString(dm.Channel, true /* lower */)
	dm.TemplateID = core.CleanString(dm.TemplateID)
	dm.Subject = core.CleanString(dm.Subject)
	dm.Content = strings.TrimSpace(dm.Content)
	if dm.Channel == "" {
		dm.Channel = ChannelWhatsApp
	}
	return core.Validate.Struct(dm)
}

type Recipient struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Mobile    string    `json:"mobile" db:"mobile"`
	Email     string    `json:"email" db:"email"`
	BirthDate null.Time `json:"-" db:"birth_date"`
}

// Address returns the recipient's address on a channel; empty when they have none.
func (r Recipient) Address(channel string) string {
	if channel == ChannelEmail {
		return r.Email
	}
	return r.Mobile
}

// Message is a rendered message ready to be delivered to one recipient.
type Message struct {
	Channel string
	Name    string
	To      string
	Subject string
	Content string
}

type SentMessage struct {
	ID         string      `json:"id" db:"id"`
	ChurchID   string      `json:"-" db:"church_id"`
	CampaignID null.String `json:"campaign_id" db:"campaign_id"`
	PersonID   null.String `json:"person_id" db:"person_id"`
	Channel    string      `json:"channel" db:"channel"`
	Recipient  string      `json:"recipient" db:"recipient"`
	Content    string      `json:"content" db:"content"`
	Status     string      `json:"status" db:"status"`
	SentAt     time.Time   `json:"sent_at" db:"sent_at"`
}

// Render fills the {nome}, {nome_completo} and {email} placeholders for a recipient.
func Render(content string, r Recipient) string {
	return strings.NewReplacer(
		"{nome_completo}", r.Name,
		"{nome}", core.FirstName(r.Name),
		"{email}", r.Email,
	).Replace(content)
}

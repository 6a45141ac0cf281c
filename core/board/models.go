package board

import (
	"strings"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/igreja/core"
)

// Post types
const (
	TypeNotice       = "aviso"
	TypeDevotional   = "devocional"
	TypeTestimony    = "testemunho"
	TypeAnnouncement = "anuncio"
)

// Audiences
const (
	AudienceAll      = "todos"
	AudienceLeaders  = "lideres"
	AudienceMinistry = "ministerio"
	AudienceCell     = "celula"
)

const DefaultLimit = 20

var (
	Types     = []string{TypeNotice, TypeDevotional, TypeTestimony, TypeAnnouncement}
	Audiences = []string{AudienceAll, AudienceLeaders, AudienceMinistry, AudienceCell}
)

type Post struct {
	ID            string      `json:"id" db:"id"`
	ChurchID      string      `json:"-" db:"church_id"`
	AuthorID      null.String `json:"author_id" db:"author_id"`
	Title         string      `json:"title" db:"title"`
	Content       string      `json:"content" db:"content"`
	Type          string      `json:"type" db:"post_type"`
	Audience      string      `json:"audience" db:"audience"`
	MinistryID    null.String `json:"ministry_id" db:"ministry_id"`
	CellID        null.String `json:"cell_id" db:"cell_id"`
	Pinned        bool        `json:"pinned" db:"pinned"`
	AllowComments bool        `json:"allow_comments" db:"allow_comments"`
	ExpiresAt     null.Time   `json:"expires_at" db:"expires_at"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
}

type PostListItem struct {
	Post
	AuthorName   null.String `json:"author_name" db:"author_name"`
	MinistryName null.String `json:"ministry_name" db:"ministry_name"`
	CellName     null.String `json:"cell_name" db:"cell_name"`
	Likes        int         `json:"likes" db:"likes"`
	Comments     int         `json:"comments" db:"comments"`
	Liked        bool        `json:"liked" db:"liked"`
}

type PostInput struct {
	Title         string    `json:"title" validate:"required,max=200"`
	Content       string    `json:"content" validate:"required,max=5000"`
	Type          string    `json:"type" validate:"omitempty,posttype"`
	Audience      string    `json:"audience" validate:"omitempty,audience"`
	MinistryID    string    `json:"ministry_id"`
	CellID        string    `json:"cell_id"`
	Pinned        bool      `json:"pinned"`
	AllowComments *bool     `json:"allow_comments"`
	ExpiresAt     null.Time `json:"expires_at"`
}

func (in *PostInput) Validate() error {
	in.Title = core.CleanString(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	in.Type = core.CleanString(in.Type, true /* lower */)
	in.Audience = core.CleanString(in.Audience, true /* lower */)
	in.MinistryID = core.CleanString(in.MinistryID)
	in.CellID = core.CleanString(in.CellID)
	if in.Type == "" {
		in.Type = TypeNotice
	}
	if in.Audience == "" {
		in.Audience = AudienceAll
	}
	if err := core.Validate.Struct(in); err != nil {
		return err
	}
	if in.Audience == AudienceMinistry && in.MinistryID == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "ministry_id", Error: "este campo é obrigatório"})
	}
	if in.Audience == AudienceCell && in.CellID == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "cell_id", Error: "este campo é obrigatório"})
	}
	return nil
}

// Filter narrows the feed. The "todos" audience means every audience.
type Filter struct {
	Type     string `query:"type" json:"type" validate:"omitempty,posttype"`
	Audience string `query:"audience" json:"audience" validate:"omitempty,audience"`
	Limit    int    `query:"limit" json:"limit" validate:"min=0,max=100"`
}

func (f *Filter) Validate() error {
	f.Type = core.CleanString(f.Type, true /* lower */)
	f.Audience = core.CleanString(f.Audience, true /* lower */)
	if f.Audience == AudienceAll {
		f.Audience = ""
	}
	if f.Limit == 0 {
		f.Limit = DefaultLimit
	}
	return core.Validate.Struct(f)
}

type Comment struct {
	ID        string      `json:"id" db:"id"`
	PostID    string      `json:"post_id" db:"post_id"`
	AuthorID  null.String `json:"author_id" db:"author_id"`
	Content   string      `json:"content" db:"content"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
}

type CommentListItem struct {
	Comment
	AuthorName null.String `json:"author_name" db:"author_name"`
}

type NewComment struct {
	Content string `json:"content" validate:"required,max=2000"`
}

func (nc *NewComment) Validate() error {
	nc.Content = strings.TrimSpace(nc.Content)
	return core.Validate.Struct(nc)
}

type PrayerRequest struct {
	ID           string      `json:"id" db:"id"`
	ChurchID     string      `json:"-" db:"church_id"`
	AuthorID     null.String `json:"author_id" db:"author_id"`
	Request      string      `json:"request" db:"request"`
	IsAnonymous  bool        `json:"is_anonymous" db:"is_anonymous"`
	PrayingCount int         `json:"praying_count" db:"praying_count"`
	Answered     bool        `json:"answered" db:"answered"`
	Testimony    string      `json:"testimony" db:"testimony"`
	AnsweredAt   null.Time   `json:"answered_at" db:"answered_at"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
}

// PrayerListItem hides the author of anonymous requests.
type PrayerListItem struct {
	PrayerRequest
	AuthorName null.String `json:"author_name" db:"author_name"`
}

type NewPrayerRequest struct {
	Request     string `json:"request" validate:"required,max=2000"`
	IsAnonymous bool   `json:"is_anonymous"`
}

func (np *NewPrayerRequest) Validate() error {
	np.Request = strings.TrimSpace(np.Request)
	return core.Validate.Struct(np)
}

package gallery

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/igreja/core"
)

type Album struct {
	ID          string      `json:"id" db:"id"`
	ChurchID    string      `json:"-" db:"church_id"`
	Name        string      `json:"name" db:"name"`
	Description string      `json:"description" db:"description"`
	EventID     null.String `json:"event_id" db:"event_id"`
	Date        null.Time   `json:"date" db:"album_date"`
	IsPublic    bool        `json:"is_public" db:"is_public"`
	CoverURL    string      `json:"cover_url" db:"cover_url"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
}

type AlbumListItem struct {
	Album
	EventName null.String `json:"event_name" db:"event_name"`
	Photos    int         `json:"photos" db:"photos"`
}

type AlbumInput struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"omitempty,max=2000"`
	EventID     string `json:"event_id"`
	Date        string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	IsPublic    *bool  `json:"is_public"`
	CoverURL    string `json:"cover_url" validate:"omitempty,url"`
}

func (in *AlbumInput) Validate() error {
	in.Name = core.CleanString(in.Name)
	in.Description = core.CleanString(in.Description)
	in.EventID = core.CleanString(in.EventID)
	in.Date = core.CleanString(in.Date)
	in.CoverURL = core.CleanString(in.CoverURL)
	return core.Validate.Struct(in)
}

func (in AlbumInput) apply(a *Album) {
	a.Name = in.Name
	a.Description = in.Description
	a.EventID = core.NullString(in.EventID)
	a.Date = core.ParseDateOrZero(in.Date)
	a.IsPublic = in.IsPublic == nil || *in.IsPublic
	if in.CoverURL != "" {
		a.CoverURL = in.CoverURL
	}
}

type Photo struct {
	ID        string    `json:"id" db:"id"`
	AlbumID   string    `json:"album_id" db:"album_id"`
	URL       string    `json:"url" db:"url"`
	Caption   string    `json:"caption" db:"caption"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type PhotoInput struct {
	URL     string `json:"url" validate:"required,url"`
	Caption string `json:"caption" validate:"omitempty,max=500"`
}

func (in *PhotoInput) Validate() error {
	in.URL = core.CleanString(in.URL)
	in.Caption = core.CleanString(in.Caption)
	return core.Validate.Struct(in)
}

type Stats struct {
	Albums       int `json:"albums" db:"albums"`
	PublicAlbums int `json:"public_albums" db:"public_albums"`
	Photos       int `json:"photos" db:"photos"`
}

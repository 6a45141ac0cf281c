package gallery

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/igreja/core"
)

var (
	ErrNotFound      = core.NewNotFoundError("album")
	ErrPhotoNotFound = core.NewNotFoundError("photo")
	ErrEventNotFound = core.NewNotFoundError("event")
)

type (
	Repository interface {
		EventExists(ctx context.Context, db core.DBExecutor, churchID, id string) (bool, error)

		// QueryAlbums lists albums, newest first, with their photo counts.
		QueryAlbums(ctx context.Context, db core.DBExecutor, churchID string, publicOnly bool) ([]AlbumListItem, error)
		GetAlbum(ctx context.Context, db core.DBExecutor, churchID, id string) (AlbumListItem, error)
		CreateAlbum(ctx context.Context, db core.DBExecutor, a Album) (Album, error)
		UpdateAlbum(ctx context.Context, db core.DBExecutor, a Album) (Album, error)
		// DeleteAlbum also deletes its photos.
		DeleteAlbum(ctx context.Context, db core.DBExecutor, churchID, id string) error

		QueryPhotos(ctx context.Context, db core.DBExecutor, albumID string) ([]Photo, error)
		GetPhoto(ctx context.Context, db core.DBExecutor, churchID, id string) (Photo, error)
		CreatePhoto(ctx context.Context, db core.DBExecutor, p Photo) (Photo, error)
		UpdateCaption(ctx context.Context, db core.DBExecutor, id, caption string) error
		DeletePhoto(ctx context.Context, db core.DBExecutor, id string) error

		Stats(ctx context.Context, db core.DBExecutor, churchID string) (Stats, error)
	}

	Service struct {
		db    core.DB
		repo  Repository
		audit core.ActionLogger
	}
)

func NewService(db core.DB, repo Repository, audit core.ActionLogger) *Service {
	return &Service{db: db, repo: repo, audit: audit}
}

func (svc *Service) Albums(ctx context.Context, actor core.Actor, publicOnly bool) ([]AlbumListItem, error) {
	return svc.repo.QueryAlbums(ctx, svc.db, actor.ChurchID, publicOnly)
}

func (svc *Service) Album(ctx context.Context, actor core.Actor, id string) (AlbumListItem, error) {
	return svc.repo.GetAlbum(ctx, svc.db, actor.ChurchID, id)
}

func (svc *Service) checkEvent(ctx context.Context, actor core.Actor, in AlbumInput) error {
	if in.EventID == "" {
		return nil
	}
	ok, err := svc.repo.EventExists(ctx, svc.db, actor.ChurchID, in.EventID)
	if err != nil {
		return errors.Wrap(err, "checking event")
	}
	if !ok {
		return core.NewValidationError(ErrEventNotFound, core.FieldError{Field: "event_id", Error: "evento não encontrado"})
	}
	return nil
}

func (svc *Service) CreateAlbum(ctx context.Context, actor core.Actor, in AlbumInput) (Album, error) {
	if err := in.Validate(); err != nil {
		return Album{}, err
	}
	if err := svc.checkEvent(ctx, actor, in); err != nil {
		return Album{}, err
	}
	a := Album{ChurchID: actor.ChurchID, CreatedAt: core.NowFunc()}
	in.apply(&a)
	a, err := svc.repo.CreateAlbum(ctx, svc.db, a)
	if err != nil {
		return Album{}, err
	}
	svc.audit.LogAction(ctx, actor, "galeria.criar", "Álbum criado: "+a.Name)
	return a, nil
}

func (svc *Service) UpdateAlbum(ctx context.Context, actor core.Actor, id string, in AlbumInput) (Album, error) {
	if err := in.Validate(); err != nil {
		return Album{}, err
	}
	item, err := svc.repo.GetAlbum(ctx, svc.db, actor.ChurchID, id)
	if err != nil {
		return Album{}, err
	}
	if err = svc.checkEvent(ctx, actor, in); err != nil {
		return Album{}, err
	}
	a := item.Album
	in.apply(&a)
	return svc.repo.UpdateAlbum(ctx, svc.db, a)
}

func (svc *Service) DeleteAlbum(ctx context.Context, actor core.Actor, id string) error {
	a, err := svc.repo.GetAlbum(ctx, svc.db, actor.ChurchID, id)
	if err != nil {
		return err
	}
	err = core.InTx(ctx, svc.db, func(tx core.DBExecutor) error {
		return svc.repo.DeleteAlbum(ctx, tx, actor.ChurchID, id)
	})
	if err != nil {
		return err
	}
	svc.audit.LogAction(ctx, actor, "galeria.excluir", "Álbum excluído: "+a.Name)
	return nil
}

func (svc *Service) Photos(ctx context.Context, actor core.Actor, albumID string) ([]Photo, error) {
	if _, err := svc.repo.GetAlbum(ctx, svc.db, actor.ChurchID, albumID); err != nil {
		return nil, err
	}
	return svc.repo.QueryPhotos(ctx, svc.db, albumID)
}

// AddPhoto adds a photo to an album. The first photo of an album without a cover becomes its cover.
func (svc *Service) AddPhoto(ctx context.Context, actor core.Actor, albumID string, in PhotoInput) (Photo, error) {
	if err := in.Validate(); err != nil {
		return Photo{}, err
	}
	var p Photo
	err := core.InTx(ctx, svc.db, func(tx core.DBExecutor) error {
		a, err := svc.repo.GetAlbum(ctx, tx, actor.ChurchID, albumID)
		if err != nil {
			return err
		}
		p, err = svc.repo.CreatePhoto(ctx, tx, Photo{AlbumID: albumID, URL: in.URL, Caption: in.Caption, CreatedAt: core.NowFunc()})
		if err != nil {
			return err
		}
		if a.CoverURL == "" {
			a.CoverURL = p.URL
			_, err = svc.repo.UpdateAlbum(ctx, tx, a.Album)
		}
		return err
	})
	if err != nil {
		return Photo{}, err
	}
	return p, nil
}

func (svc *Service) UpdateCaption(ctx context.Context, actor core.Actor, id, caption string) error {
	if _, err := svc.repo.GetPhoto(ctx, svc.db, actor.ChurchID, id); err != nil {
		return err
	}
	caption = core.CleanString(caption)
	if len(caption) > 500 {
		return core.NewValidationError(nil, core.FieldError{Field: "caption", Error: "legenda muito longa"})
	}
	return svc.repo.UpdateCaption(ctx, svc.db, id, caption)
}

func (svc *Service) DeletePhoto(ctx context.Context, actor core.Actor, id string) error {
	if _, err := svc.repo.GetPhoto(ctx, svc.db, actor.ChurchID, id); err != nil {
		return err
	}
	return svc.repo.DeletePhoto(ctx, svc.db, id)
}

func (svc *Service) Stats(ctx context.Context, actor core.Actor) (Stats, error) {
	return svc.repo.Stats(ctx, svc.db, actor.ChurchID)
}

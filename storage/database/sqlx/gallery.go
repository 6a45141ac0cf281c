package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/igreja/core"
	"github.com/trezcool/igreja/core/gallery"
)

const albumListQuery = `SELECT a.id, a.church_id, a.name, a.description, a.event_id, a.album_date, a.is_public, a.cover_url,
		a.created_at, e.name AS event_name,
		(SELECT COUNT(*) FROM photos p WHERE p.album_id = a.id) AS photos
	FROM albums a LEFT JOIN events e ON e.id = a.event_id
	WHERE a.church_id = ?`

type galleryRepository struct{}

var _ gallery.Repository = (*galleryRepository)(nil)

func NewGalleryRepository() gallery.Repository {
	return &galleryRepository{}
}

func (repo *galleryRepository) EventExists(ctx context.Context, db core.DBExecutor, churchID, id string) (bool, error) {
	n, err := count(ctx, db, "SELECT COUNT(*) FROM events WHERE church_id = ? AND id = ?", churchID, id)
	return n > 0, err
}

func (repo *galleryRepository) QueryAlbums(ctx context.Context, db core.DBExecutor, churchID string, publicOnly bool) ([]gallery.AlbumListItem, error) {
	query := albumListQuery
	if publicOnly {
		query += " AND a.is_public = TRUE"
	}
	query += " ORDER BY a.created_at DESC, a.name"

	albums := make([]gallery.AlbumListItem, 0)
	if err := selectAll(ctx, db, &albums, query, churchID); err != nil {
		return nil, errors.Wrap(err, "querying albums")
	}
	return albums, nil
}

func (repo *galleryRepository) GetAlbum(ctx context.Context, db core.DBExecutor, churchID, id string) (gallery.AlbumListItem, error) {
	var a gallery.AlbumListItem
	if err := get(ctx, db, &a, gallery.ErrNotFound, albumListQuery+" AND a.id = ?", churchID, id); err != nil {
		return gallery.AlbumListItem{}, err
	}
	return a, nil
}

func (repo *galleryRepository) CreateAlbum(ctx context.Context, db core.DBExecutor, a gallery.Album) (gallery.Album, error) {
	a.ID = newID()
	_, err := namedExec(ctx, db, `INSERT INTO albums
		(id, church_id, name, description, event_id, album_date, is_public, cover_url, created_at)
		VALUES (:id, :church_id, :name, :description, :event_id, :album_date, :is_public, :cover_url, :created_at)`, a)
	if err != nil {
		return gallery.Album{}, errors.Wrap(err, "inserting album")
	}
	return a, nil
}

func (repo *galleryRepository) UpdateAlbum(ctx context.Context, db core.DBExecutor, a gallery.Album) (gallery.Album, error) {
	_, err := namedExec(ctx, db, `UPDATE albums SET
		name = :name, description = :description, event_id = :event_id, album_date = :album_date, is_public = :is_public,
		cover_url = :cover_url
		WHERE id = :id AND church_id = :church_id`, a)
	if err != nil {
		return gallery.Album{}, errors.Wrap(err, "updating album")
	}
	return a, nil
}

func (repo *galleryRepository) DeleteAlbum(ctx context.Context, db core.DBExecutor, churchID, id string) error {
	if _, err := exec(ctx, db, "DELETE FROM photos WHERE album_id = ?", id); err != nil {
		return errors.Wrap(err, "deleting photos")
	}
	return execOne(ctx, db, gallery.ErrNotFound, "DELETE FROM albums WHERE church_id = ? AND id = ?", churchID, id)
}

func (repo *galleryRepository) QueryPhotos(ctx context.Context, db core.DBExecutor, albumID string) ([]gallery.Photo, error) {
	photos := make([]gallery.Photo, 0)
	err := selectAll(ctx, db, &photos, `SELECT id, album_id, url, caption, created_at FROM photos
		WHERE album_id = ? ORDER BY created_at, id`, albumID)
	if err != nil {
		return nil, errors.Wrap(err, "querying photos")
	}
	return photos, nil
}

func (repo *galleryRepository) GetPhoto(ctx context.Context, db core.DBExecutor, churchID, id string) (gallery.Photo, error) {
	var p gallery.Photo
	err := get(ctx, db, &p, gallery.ErrPhotoNotFound, `SELECT p.id, p.album_id, p.url, p.caption, p.created_at
		FROM photos p JOIN albums a ON a.id = p.album_id
		WHERE a.church_id = ? AND p.id = ?`, churchID, id)
	if err != nil {
		return gallery.Photo{}, err
	}
	return p, nil
}

func (repo *galleryRepository) CreatePhoto(ctx context.Context, db core.DBExecutor, p gallery.Photo) (gallery.Photo, error) {
	p.ID = newID()
	_, err := namedExec(ctx, db, `INSERT INTO photos (id, album_id, url, caption, created_at)
		VALUES (:id, :album_id, :url, :caption, :created_at)`, p)
	if err != nil {
		return gallery.Photo{}, errors.Wrap(err, "inserting photo")
	}
	return p, nil
}

func (repo *galleryRepository) UpdateCaption(ctx context.Context, db core.DBExecutor, id, caption string) error {
	return execOne(ctx, db, gallery.ErrPhotoNotFound, "UPDATE photos SET caption = ? WHERE id = ?", caption, id)
}

func (repo *galleryRepository) DeletePhoto(ctx context.Context, db core.DBExecutor, id string) error {
	return execOne(ctx, db, gallery.ErrPhotoNotFound, "DELETE FROM photos WHERE id = ?", id)
}

func (repo *galleryRepository) Stats(ctx context.Context, db core.DBExecutor, churchID string) (gallery.Stats, error) {
	var s gallery.Stats
	err := get(ctx, db, &s, core.ErrNotFound, `SELECT
			(SELECT COUNT(*) FROM albums WHERE church_id = ?) AS albums,
			(SELECT COUNT(*) FROM albums WHERE church_id = ? AND is_public = TRUE) AS public_albums,
			(SELECT COUNT(*) FROM photos p JOIN albums a ON a.id = p.album_id WHERE a.church_id = ?) AS photos`,
		churchID, churchID, churchID)
	if err != nil {
		return gallery.Stats{}, errors.Wrap(err, "querying gallery stats")
	}
	return s, nil
}

package gallery_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/igreja/core"
	"github.com/trezcool/igreja/core/church"
	"github.com/trezcool/igreja/core/event"
	"github.com/trezcool/igreja/core/gallery"
	"github.com/trezcool/igreja/core/user"
	sqlxrepos "github.com/trezcool/igreja/storage/database/sqlx"
	testutil "github.com/trezcool/igreja/tests"
)

func TestService_Gallery(t *testing.T) {
	db := testutil.OpenDB(t)
	testutil.FreezeTime(t, time.Date(2024, 8, 5, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	ch := testutil.CreateChurch(t, db, "Igreja Central", church.PlanPro)
	other := testutil.CreateChurch(t, db, "Outra Igreja", church.PlanBasic)
	actor := testutil.CreateUser(t, db, ch.ID, "Rui", "rui@igreja.com", "Adm1n!pass", user.ProfileSecretary, true).Actor()
	outsider := testutil.CreateUser(t, db, other.ID, "Zé", "ze@outra.com", "Adm1n!pass", user.ProfileAdmin, true).Actor()
	ev, err := sqlxrepos.NewEventRepository().CreateEvent(ctx, db, event.Event{
		ChurchID:    ch.ID,
		Name:        "Batismo nas águas",
		Type:        "Batismo",
		StartsAt:    core.NowFunc(),
		CheckinCode: "BATISMO",
		IsActive:    true,
		CreatedAt:   core.NowFunc(),
	})
	require.NoError(t, err)

	svc := gallery.NewService(db, sqlxrepos.NewGalleryRepository(), testutil.NopActionLogger{})

	t.Run("invalid", func(t *testing.T) {
		tests := []struct {
			name string
			in   gallery.AlbumInput
		}{
			{"no name", gallery.AlbumInput{}},
			{"bad date", gallery.AlbumInput{Name: "X", Date: "05/08/2024"}},
			{"bad cover", gallery.AlbumInput{Name: "X", CoverURL: "capa"}},
			{"unknown event", gallery.AlbumInput{Name: "X", EventID: "nope"}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := svc.CreateAlbum(ctx, actor, tt.in)
				assert.Error(t, err)
			})
		}
	})

	baptism, err := svc.CreateAlbum(ctx, actor, gallery.AlbumInput{Name: " Batismo 2024 ", EventID: ev.ID, Date: "2024-08-04"})
	require.NoError(t, err)
	assert.Equal(t, "Batismo 2024", baptism.Name)
	assert.True(t, baptism.IsPublic)

	testutil.FreezeTime(t, core.NowFunc().Add(time.Hour))
	private := false
	staff, err := svc.CreateAlbum(ctx, actor, gallery.AlbumInput{Name: "Equipe", IsPublic: &private})
	require.NoError(t, err)

	t.Run("photos", func(t *testing.T) {
		p1, err := svc.AddPhoto(ctx, actor, baptism.ID, gallery.PhotoInput{URL: "https://fotos.igreja.com/1.jpg", Caption: "Entrada"})
		require.NoError(t, err)
		testutil.FreezeTime(t, core.NowFunc().Add(time.Minute))
		_, err = svc.AddPhoto(ctx, actor, baptism.ID, gallery.PhotoInput{URL: "https://fotos.igreja.com/2.jpg"})
		require.NoError(t, err)

		_, err = svc.AddPhoto(ctx, actor, baptism.ID, gallery.PhotoInput{URL: "foto"})
		assert.Error(t, err)
		_, err = svc.AddPhoto(ctx, outsider, baptism.ID, gallery.PhotoInput{URL: "https://fotos.igreja.com/3.jpg"})
		assert.ErrorIs(t, err, gallery.ErrNotFound)

		// the first photo became the cover
		a, err := svc.Album(ctx, actor, baptism.ID)
		require.NoError(t, err)
		assert.Equal(t, p1.URL, a.CoverURL)
		assert.Equal(t, 2, a.Photos)
		assert.Equal(t, "Batismo nas águas", a.EventName.String)

		require.NoError(t, svc.UpdateCaption(ctx, actor, p1.ID, "  Chegada dos batizandos "))
		assert.ErrorIs(t, svc.UpdateCaption(ctx, outsider, p1.ID, "x"), gallery.ErrPhotoNotFound)

		photos, err := svc.Photos(ctx, actor, baptism.ID)
		require.NoError(t, err)
		require.Len(t, photos, 2)
		assert.Equal(t, "Chegada dos batizandos", photos[0].Caption)

		assert.ErrorIs(t, svc.DeletePhoto(ctx, outsider, photos[1].ID), gallery.ErrPhotoNotFound)
		require.NoError(t, svc.DeletePhoto(ctx, actor, photos[1].ID))
	})

	t.Run("albums", func(t *testing.T) {
		albums, err := svc.Albums(ctx, actor, false)
		require.NoError(t, err)
		require.Len(t, albums, 2)
		assert.Equal(t, staff.ID, albums[0].ID)
		assert.Equal(t, 1, albums[1].Photos)

		albums, err = svc.Albums(ctx, actor, true)
		require.NoError(t, err)
		require.Len(t, albums, 1)
		assert.Equal(t, baptism.ID, albums[0].ID)

		albums, err = svc.Albums(ctx, outsider, false)
		require.NoError(t, err)
		assert.Empty(t, albums)

		stats, err := svc.Stats(ctx, actor)
		require.NoError(t, err)
		assert.Equal(t, gallery.Stats{Albums: 2, PublicAlbums: 1, Photos: 1}, stats)

		updated, err := svc.UpdateAlbum(ctx, actor, staff.ID, gallery.AlbumInput{Name: "Equipe de louvor"})
		require.NoError(t, err)
		assert.True(t, updated.IsPublic)
	})

	t.Run("delete", func(t *testing.T) {
		assert.ErrorIs(t, svc.DeleteAlbum(ctx, outsider, baptism.ID), gallery.ErrNotFound)
		require.NoError(t, svc.DeleteAlbum(ctx, actor, baptism.ID))

		stats, err := svc.Stats(ctx, actor)
		require.NoError(t, err)
		assert.Equal(t, gallery.Stats{Albums: 1, PublicAlbums: 1, Photos: 0}, stats)
	})
}

package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/igreja/core/gallery"
)

type galleryApi struct {
	gallery *gallery.Service
}

func registerGalleryAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps Deps) {
	api := galleryApi{gallery: deps.Gallery}
	canView := requirePermission("eventos.ver")
	canEdit := requirePermission("eventos.editar")

	ag := g.Group("/albums", jwt)
	ag.GET("", api.albums, canView)
	ag.POST("", api.createAlbum, canEdit)
	ag.GET("/:id", api.album, canView)
	ag.PUT("/:id", api.updateAlbum, canEdit)
	ag.DELETE("/:id", api.destroyAlbum, canEdit)
	ag.GET("/:id/photos", api.photos, canView)
	ag.POST("/:id/photos", api.addPhoto, canEdit)

	pg := g.Group("/photos", jwt)
	pg.PUT("/:id", api.updateCaption, canEdit)
	pg.DELETE("/:id", api.destroyPhoto, canEdit)

	g.GET("/gallery/stats", api.stats, jwt, canView)
}

func (api *galleryApi) albums(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	albums, err := api.gallery.Albums(ctx.Request().Context(), actor, boolQuery(ctx, "public"))
	if err != nil {
		return errors.Wrap(err, "querying albums")
	}
	return sendList(ctx, albums)
}

func (api *galleryApi) album(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	a, err := api.gallery.Album(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *galleryApi) createAlbum(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data gallery.AlbumInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AlbumInput")
	}
	a, err := api.gallery.CreateAlbum(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating album")
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *galleryApi) updateAlbum(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data gallery.AlbumInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AlbumInput")
	}
	a, err := api.gallery.UpdateAlbum(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating album")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *galleryApi) destroyAlbum(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	if err = api.gallery.DeleteAlbum(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting album")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *galleryApi) photos(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	photos, err := api.gallery.Photos(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying photos")
	}
	return sendList(ctx, photos)
}

func (api *galleryApi) addPhoto(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data gallery.PhotoInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PhotoInput")
	}
	p, err := api.gallery.AddPhoto(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "adding photo")
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *galleryApi) updateCaption(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data CaptionRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CaptionRequest")
	}
	if err = api.gallery.UpdateCaption(ctx.Request().Context(), actor, ctx.Param("id"), data.Caption); err != nil {
		return errors.Wrap(err, "updating caption")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{"legenda atualizada"})
}

func (api *galleryApi) destroyPhoto(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	if err = api.gallery.DeletePhoto(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting photo")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *galleryApi) stats(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	stats, err := api.gallery.Stats(ctx.Request().Context(), actor)
	if err != nil {
		return errors.Wrap(err, "computing gallery stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}

type CaptionRequest struct {
	Caption string `json:"caption"`
}

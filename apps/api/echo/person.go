package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/igreja/core/person"
)

type personApi struct {
	people *person.Service
}

func registerPersonAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps Deps) {
	api := personApi{people: deps.People}
	canView := requirePermission("pessoas.ver")
	canEdit := requirePermission("pessoas.editar")
	lgpd := requirePermission("configuracoes.igreja")

	pg := g.Group("/people", jwt)
	pg.GET("", api.query, canView)
	pg.POST("", api.create, canEdit)
	pg.GET("/duplicates", api.checkDuplicate, canView)
	pg.GET("/:id", api.retrieve, canView)
	pg.PUT("/:id", api.update, canEdit)
	pg.DELETE("/:id", api.destroy, canEdit)
	pg.PUT("/:id/status", api.updateStatus, canEdit)
	pg.PUT("/:id/tags", api.setTags, canEdit)
	pg.GET("/:id/history", api.history, canView)
	pg.GET("/:id/export", api.export, lgpd)
	pg.POST("/:id/anonymize", api.anonymize, lgpd)
	pg.POST("/:id/consents", api.recordConsent, lgpd)

	tg := g.Group("/tags", jwt)
	tg.GET("", api.queryTags, canView)
	tg.POST("", api.createTag, canEdit)

	fg := g.Group("/families", jwt)
	fg.GET("", api.queryFamilies, canView)
	fg.POST("", api.createFamily, canEdit)
}

func (api *personApi) query(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var filter person.QueryFilter
	if err = ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	people, err := api.people.Query(ctx.Request().Context(), actor, filter)
	if err != nil {
		return errors.Wrap(err, "querying people")
	}
	return sendList(ctx, people)
}

func (api *personApi) create(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data person.Input
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to person.Input")
	}
	p, err := api.people.Create(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating person")
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *personApi) checkDuplicate(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	dup, err := api.people.CheckDuplicate(
		ctx.Request().Context(), actor,
		ctx.QueryParam("name"), ctx.QueryParam("email"), ctx.QueryParam("mobile"), ctx.QueryParam("exclude_id"),
	)
	if err != nil {
		return errors.Wrap(err, "checking duplicate")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"duplicate": dup})
}

func (api *personApi) retrieve(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	p, err := api.people.Get(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *personApi) update(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data person.Input
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to person.Input")
	}
	p, err := api.people.Update(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating person")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *personApi) destroy(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	if err = api.people.Delete(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting person")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *personApi) updateStatus(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data StatusRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StatusRequest")
	}
	p, err := api.people.UpdateStatus(ctx.Request().Context(), actor, ctx.Param("id"), data.Status)
	if err != nil {
		return errors.Wrap(err, "updating person status")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *personApi) setTags(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data TagsRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TagsRequest")
	}
	if err = api.people.SetTags(ctx.Request().Context(), actor, ctx.Param("id"), data.TagIDs); err != nil {
		return errors.Wrap(err, "setting person tags")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *personApi) history(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	h, err := api.people.History(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "loading person history")
	}
	return ctx.JSON(http.StatusOK, h)
}

func (api *personApi) export(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	data, err := api.people.ExportData(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "exporting person data")
	}
	return ctx.JSON(http.StatusOK, data)
}

func (api *personApi) anonymize(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	if err = api.people.Anonymize(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "anonymizing person")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *personApi) recordConsent(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data person.NewConsent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewConsent")
	}
	c, err := api.people.RecordConsent(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "recording consent")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *personApi) queryTags(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	tags, err := api.people.QueryTags(ctx.Request().Context(), actor)
	if err != nil {
		return errors.Wrap(err, "querying tags")
	}
	return sendList(ctx, tags)
}

func (api *personApi) createTag(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data person.NewTag
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTag")
	}
	tag, err := api.people.CreateTag(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating tag")
	}
	return ctx.JSON(http.StatusCreated, tag)
}

func (api *personApi) queryFamilies(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	families, err := api.people.QueryFamilies(ctx.Request().Context(), actor)
	if err != nil {
		return errors.Wrap(err, "querying families")
	}
	return sendList(ctx, families)
}

func (api *personApi) createFamily(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data person.NewFamily
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewFamily")
	}
	f, err := api.people.CreateFamily(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating family")
	}
	return ctx.JSON(http.StatusCreated, f)
}

type (
	StatusRequest struct {
		Status string `json:"status"`
	}

	TagsRequest struct {
		TagIDs []string `json:"tag_ids"`
	}
)

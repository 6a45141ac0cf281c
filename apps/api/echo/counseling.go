package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/igreja/core/counseling"
)

type counselingApi struct {
	counseling *counseling.Service
}

func registerCounselingAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps Deps) {
	api := counselingApi{counseling: deps.Counseling}
	canView := requirePermission("aconselhamento.ver")
	canEdit := requirePermission("aconselhamento.editar")

	cg := g.Group("/counseling", jwt)
	cg.GET("", api.query, canView)
	cg.POST("", api.create, canEdit)
	cg.GET("/counselors", api.counselors, canView)
	cg.GET("/:id", api.retrieve, canView)
	cg.PUT("/:id", api.update, canEdit)
}

func (api *counselingApi) query(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var filter counseling.Filter
	if err = ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to counseling.Filter")
	}
	sessions, err := api.counseling.Query(ctx.Request().Context(), actor, filter)
	if err != nil {
		return errors.Wrap(err, "querying counseling sessions")
	}
	return sendList(ctx, sessions)
}

func (api *counselingApi) retrieve(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	details, err := api.counseling.Details(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, details)
}

func (api *counselingApi) create(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data counseling.SessionInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SessionInput")
	}
	s, err := api.counseling.Create(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating counseling session")
	}
	details, err := api.counseling.Details(ctx.Request().Context(), actor, s.ID)
	if err != nil {
		return errors.Wrap(err, "loading counseling session")
	}
	return ctx.JSON(http.StatusCreated, details)
}

func (api *counselingApi) update(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data counseling.SessionInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SessionInput")
	}
	s, err := api.counseling.Update(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating counseling session")
	}
	details, err := api.counseling.Details(ctx.Request().Context(), actor, s.ID)
	if err != nil {
		return errors.Wrap(err, "loading counseling session")
	}
	return ctx.JSON(http.StatusOK, details)
}

func (api *counselingApi) counselors(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	list, err := api.counseling.Counselors(ctx.Request().Context(), actor)
	if err != nil {
		return errors.Wrap(err, "querying counselors")
	}
	return sendList(ctx, list)
}

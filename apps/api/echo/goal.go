package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/igreja/core/goal"
)

type goalApi struct {
	goals *goal.Service
}

func registerGoalAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps Deps) {
	api := goalApi{goals: deps.Goals}
	canView := requirePermission("dashboard.ver")
	canEdit := requirePermission("dashboard.editar")

	gg := g.Group("/goals", jwt)
	gg.GET("", api.query, canView)
	gg.POST("", api.create, canEdit)
	gg.GET("/stats", api.stats, canView)
	gg.GET("/:id", api.retrieve, canView)
	gg.PUT("/:id", api.update, canEdit)
	gg.DELETE("/:id", api.destroy, canEdit)
	gg.POST("/:id/progress", api.updateProgress, canEdit)
	gg.GET("/:id/history", api.history, canView)
}

func (api *goalApi) query(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var filter goal.Filter
	if err = ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to goal.Filter")
	}
	goals, err := api.goals.Query(ctx.Request().Context(), actor, filter)
	if err != nil {
		return errors.Wrap(err, "querying goals")
	}
	return sendList(ctx, goals)
}

func (api *goalApi) retrieve(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	gl, err := api.goals.Get(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, gl)
}

func (api *goalApi) create(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data goal.GoalInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GoalInput")
	}
	gl, err := api.goals.Create(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating goal")
	}
	return ctx.JSON(http.StatusCreated, gl)
}

func (api *goalApi) update(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data goal.GoalInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GoalInput")
	}
	gl, err := api.goals.Update(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating goal")
	}
	return ctx.JSON(http.StatusOK, gl)
}

func (api *goalApi) destroy(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	if err = api.goals.Delete(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting goal")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *goalApi) updateProgress(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data goal.ProgressInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ProgressInput")
	}
	gl, err := api.goals.UpdateProgress(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating goal progress")
	}
	return ctx.JSON(http.StatusOK, gl)
}

func (api *goalApi) history(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	list, err := api.goals.History(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying goal history")
	}
	return sendList(ctx, list)
}

func (api *goalApi) stats(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	stats, err := api.goals.Stats(ctx.Request().Context(), actor)
	if err != nil {
		return errors.Wrap(err, "computing goal stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}

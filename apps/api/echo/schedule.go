package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/igreja/core/schedule"
)

type scheduleApi struct {
	schedules *schedule.Service
}

func registerScheduleAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps Deps) {
	api := scheduleApi{schedules: deps.Schedules}
	canView := requirePermission("ministerios.ver")
	canEdit := requirePermission("ministerios.editar")

	rg := g.Group("/rosters", jwt)
	rg.GET("", api.queryRosters, canView)
	rg.POST("", api.createRoster, canEdit)
	rg.GET("/:id", api.retrieveRoster, canView)
	rg.PUT("/:id", api.updateRoster, canEdit)
	rg.DELETE("/:id", api.destroyRoster, canEdit)
	rg.GET("/:id/items", api.items, canView)
	rg.POST("/:id/items", api.addItem, canEdit)
	rg.POST("/:id/generate", api.generate, canEdit)

	ig := g.Group("/roster-items", jwt)
	ig.DELETE("/:id", api.removeItem, canEdit)
	ig.PUT("/:id/confirmation", api.confirm)
	ig.POST("/:id/swaps", api.requestSwap)

	sg := g.Group("/swaps", jwt)
	sg.GET("/pending", api.pendingSwaps, canView)
	sg.POST("/:id/accept", api.acceptSwap, canEdit)

	g.GET("/me/schedule", api.mySchedule, jwt)
}

func (api *scheduleApi) queryRosters(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	rosters, err := api.schedules.QueryRosters(ctx.Request().Context(), actor, ctx.QueryParam("ministry_id"))
	if err != nil {
		return errors.Wrap(err, "querying rosters")
	}
	return sendList(ctx, rosters)
}

func (api *scheduleApi) createRoster(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data schedule.RosterInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RosterInput")
	}
	r, err := api.schedules.CreateRoster(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating roster")
	}
	return ctx.JSON(http.StatusCreated, r)
}

func (api *scheduleApi) retrieveRoster(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	r, err := api.schedules.GetRoster(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, r)
}

func (api *scheduleApi) updateRoster(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data schedule.RosterInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RosterInput")
	}
	r, err := api.schedules.UpdateRoster(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating roster")
	}
	return ctx.JSON(http.StatusOK, r)
}

func (api *scheduleApi) destroyRoster(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	if err = api.schedules.DeleteRoster(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting roster")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *scheduleApi) items(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	items, err := api.schedules.Items(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying roster items")
	}
	return sendList(ctx, items)
}

func (api *scheduleApi) addItem(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data schedule.ItemInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ItemInput")
	}
	item, err := api.schedules.AddItem(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "adding roster item")
	}
	return ctx.JSON(http.StatusCreated, item)
}

func (api *scheduleApi) generate(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data schedule.GenerateInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GenerateInput")
	}
	items, err := api.schedules.Generate(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "generating roster")
	}
	if items == nil {
		items = []schedule.Item{}
	}
	return ctx.JSON(http.StatusCreated, items)
}

func (api *scheduleApi) removeItem(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	if err = api.schedules.RemoveItem(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "removing roster item")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *scheduleApi) confirm(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data ConfirmationRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ConfirmationRequest")
	}
	item, err := api.schedules.Confirm(ctx.Request().Context(), actor, ctx.Param("id"), data.Confirmed)
	if err != nil {
		return errors.Wrap(err, "confirming roster item")
	}
	return ctx.JSON(http.StatusOK, item)
}

func (api *scheduleApi) requestSwap(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data SwapRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SwapRequest")
	}
	swap, err := api.schedules.RequestSwap(ctx.Request().Context(), actor, ctx.Param("id"), data.Reason)
	if err != nil {
		return errors.Wrap(err, "requesting swap")
	}
	return ctx.JSON(http.StatusCreated, swap)
}

func (api *scheduleApi) pendingSwaps(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	swaps, err := api.schedules.PendingSwaps(ctx.Request().Context(), actor)
	if err != nil {
		return errors.Wrap(err, "querying pending swaps")
	}
	return sendList(ctx, swaps)
}

func (api *scheduleApi) acceptSwap(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data SwapAcceptRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SwapAcceptRequest")
	}
	swap, err := api.schedules.AcceptSwap(ctx.Request().Context(), actor, ctx.Param("id"), data.SubstituteID)
	if err != nil {
		return errors.Wrap(err, "accepting swap")
	}
	return ctx.JSON(http.StatusOK, swap)
}

func (api *scheduleApi) mySchedule(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	items, err := api.schedules.MySchedule(ctx.Request().Context(), actor)
	if err != nil {
		return errors.Wrap(err, "querying my schedule")
	}
	return sendList(ctx, items)
}

type (
	ConfirmationRequest struct {
		Confirmed bool `json:"confirmed"`
	}

	SwapRequest struct {
		Reason string `json:"reason"`
	}

	SwapAcceptRequest struct {
		SubstituteID string `json:"substitute_id"`
	}
)

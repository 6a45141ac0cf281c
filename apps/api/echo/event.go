package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/igreja/core/event"
)

type eventApi struct {
	events *event.Service
}

func registerEventAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps Deps) {
	api := eventApi{events: deps.Events}
	canView := requirePermission("eventos.ver")
	canEdit := requirePermission("eventos.editar")

	eg := g.Group("/events", jwt)
	eg.GET("", api.query, canView)
	eg.POST("", api.create, canEdit)
	eg.POST("/check-in", api.checkInByCode, canEdit)
	eg.GET("/:id", api.retrieve, canView)
	eg.PUT("/:id", api.update, canEdit)
	eg.DELETE("/:id", api.destroy, canEdit)
	eg.GET("/:id/registrations", api.registrants, canView)
	eg.POST("/:id/registrations", api.register, canEdit)
	eg.GET("/:id/attendees", api.attendees, canView)
	eg.POST("/:id/attendees", api.checkIn, canEdit)
	eg.GET("/:id/absentees", api.notCheckedIn, canView)
}

func (api *eventApi) query(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	events, err := api.events.Query(ctx.Request().Context(), actor, ctx.QueryParam("filter"))
	if err != nil {
		return errors.Wrap(err, "querying events")
	}
	return sendList(ctx, events)
}

func (api *eventApi) create(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data event.EventInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EventInput")
	}
	e, err := api.events.Create(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating event")
	}
	return ctx.JSON(http.StatusCreated, e)
}

func (api *eventApi) retrieve(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	e, err := api.events.Get(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *eventApi) update(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data event.EventInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EventInput")
	}
	e, err := api.events.Update(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating event")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *eventApi) destroy(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	if err = api.events.Delete(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting event")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *eventApi) register(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data PersonRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PersonRequest")
	}
	reg, err := api.events.Register(ctx.Request().Context(), actor, ctx.Param("id"), data.PersonID)
	if err != nil {
		return errors.Wrap(err, "registering for event")
	}
	return ctx.JSON(http.StatusCreated, reg)
}

func (api *eventApi) registrants(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	list, err := api.events.Registrants(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying registrants")
	}
	return sendList(ctx, list)
}

func (api *eventApi) checkIn(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data PersonRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PersonRequest")
	}
	created, err := api.events.CheckIn(ctx.Request().Context(), actor, ctx.Param("id"), data.PersonID)
	if err != nil {
		return errors.Wrap(err, "checking in")
	}
	return ctx.JSON(http.StatusOK, CheckInResponse{CheckedIn: created})
}

func (api *eventApi) checkInByCode(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data CheckInCodeRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CheckInCodeRequest")
	}
	reg, created, err := api.events.CheckInByCode(ctx.Request().Context(), actor, data.Code)
	if err != nil {
		return errors.Wrap(err, "checking in by code")
	}
	return ctx.JSON(http.StatusOK, CheckInResponse{CheckedIn: created, Registration: &reg})
}

func (api *eventApi) attendees(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	list, err := api.events.Attendees(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying attendees")
	}
	return sendList(ctx, list)
}

func (api *eventApi) notCheckedIn(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	list, err := api.events.NotCheckedIn(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying absentees")
	}
	return sendList(ctx, list)
}

type (
	CheckInCodeRequest struct {
		Code string `json:"code"`
	}

	// CheckInResponse reports whether a new attendance was recorded; false means it already existed.
	CheckInResponse struct {
		CheckedIn    bool                `json:"checked_in"`
		Registration *event.Registration `json:"registration,omitempty"`
	}
)

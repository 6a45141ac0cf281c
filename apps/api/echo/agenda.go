package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/igreja/core/agenda"
)

type agendaApi struct {
	agenda *agenda.Service
}

func registerAgendaAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps Deps) {
	api := agendaApi{agenda: deps.Agenda}
	canView := requirePermission("eventos.ver")
	canEdit := requirePermission("eventos.editar")

	ag := g.Group("/agenda", jwt)
	ag.GET("", api.query, canView)
	ag.POST("", api.create, canEdit)
	ag.GET("/upcoming", api.upcoming, canView)
	ag.GET("/today", api.today, canView)
	ag.GET("/:id", api.retrieve, canView)
	ag.PUT("/:id", api.update, canEdit)
	ag.DELETE("/:id", api.destroy, canEdit)
	ag.GET("/:id/reminders", api.reminders, canView)
	ag.POST("/:id/reminders", api.createReminder, canEdit)
}

func (api *agendaApi) query(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var filter agenda.Filter
	if err = ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to agenda.Filter")
	}
	entries, err := api.agenda.Query(ctx.Request().Context(), actor, filter)
	if err != nil {
		return errors.Wrap(err, "querying agenda")
	}
	return sendList(ctx, entries)
}

func (api *agendaApi) upcoming(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	entries, err := api.agenda.Upcoming(ctx.Request().Context(), actor, intQuery(ctx, "days", 7))
	if err != nil {
		return errors.Wrap(err, "querying upcoming entries")
	}
	return sendList(ctx, entries)
}

func (api *agendaApi) today(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	entries, err := api.agenda.Today(ctx.Request().Context(), actor)
	if err != nil {
		return errors.Wrap(err, "querying today's entries")
	}
	return sendList(ctx, entries)
}

func (api *agendaApi) create(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data agenda.EntryInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EntryInput")
	}
	e, err := api.agenda.Create(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating agenda entry")
	}
	return ctx.JSON(http.StatusCreated, e)
}

func (api *agendaApi) retrieve(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	e, err := api.agenda.Get(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *agendaApi) update(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data agenda.EntryInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EntryInput")
	}
	e, err := api.agenda.Update(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating agenda entry")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *agendaApi) destroy(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	if err = api.agenda.Delete(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting agenda entry")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *agendaApi) reminders(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	list, err := api.agenda.Reminders(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying reminders")
	}
	return sendList(ctx, list)
}

func (api *agendaApi) createReminder(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data agenda.ReminderInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReminderInput")
	}
	r, err := api.agenda.CreateReminder(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "creating reminder")
	}
	return ctx.JSON(http.StatusCreated, r)
}

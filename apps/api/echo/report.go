package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/igreja/core/report"
)

type reportApi struct {
	reports *report.Service
}

func registerReportAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps Deps) {
	api := reportApi{reports: deps.Reports}
	canView := requirePermission("dashboard.ver")

	rg := g.Group("/reports", jwt)
	rg.GET("/dashboard", api.dashboard, canView)
	rg.GET("/general", api.general, canView)
	rg.GET("/growth", api.growth, canView)
	rg.GET("/cells", api.cellHealth, canView)
	rg.GET("/attendance", api.attendance, canView)
	rg.GET("/donations", api.donations, requireAnyPermission("relatorios.financeiro", "dashboard.financeiro"))
}

func (api *reportApi) dashboard(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	d, err := api.reports.Dashboard(ctx.Request().Context(), actor)
	if err != nil {
		return errors.Wrap(err, "building dashboard")
	}
	return ctx.JSON(http.StatusOK, d)
}

func (api *reportApi) general(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	g, err := api.reports.General(ctx.Request().Context(), actor.ChurchID)
	if err != nil {
		return errors.Wrap(err, "computing general report")
	}
	return ctx.JSON(http.StatusOK, g)
}

func (api *reportApi) growth(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	months := intQuery(ctx, "months", report.DefaultMonths)
	list, err := api.reports.Growth(ctx.Request().Context(), actor.ChurchID, months)
	if err != nil {
		return errors.Wrap(err, "computing growth report")
	}
	return sendList(ctx, list)
}

func (api *reportApi) cellHealth(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	list, err := api.reports.CellHealth(ctx.Request().Context(), actor.ChurchID)
	if err != nil {
		return errors.Wrap(err, "computing cell health")
	}
	return sendList(ctx, list)
}

func (api *reportApi) donations(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	months := intQuery(ctx, "months", report.DefaultDonationMonths)
	list, err := api.reports.Donations(ctx.Request().Context(), actor.ChurchID, months)
	if err != nil {
		return errors.Wrap(err, "computing donations report")
	}
	return sendList(ctx, list)
}

func (api *reportApi) attendance(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	days := intQuery(ctx, "days", report.DefaultAttendanceDays)
	a, err := api.reports.Attendance(ctx.Request().Context(), actor.ChurchID, days)
	if err != nil {
		return errors.Wrap(err, "computing attendance report")
	}
	return ctx.JSON(http.StatusOK, a)
}

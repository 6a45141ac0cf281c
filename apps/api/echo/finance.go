package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/igreja/core"
	"github.com/trezcool/igreja/core/finance"
)

type financeApi struct {
	finance *finance.Service
}

func registerFinanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps Deps) {
	api := financeApi{finance: deps.Finance}
	canView := requirePermission("doacoes.ver")
	canEdit := requirePermission("doacoes.editar")

	dg := g.Group("/donations", jwt)
	dg.GET("", api.query, canView)
	dg.POST("", api.register, canEdit)
	dg.GET("/summary", api.summary, canView)
	dg.GET("/monthly", api.monthly, requireAnyPermission("doacoes.ver", "relatorios.financeiro"))
	dg.GET("/people/:id", api.personHistory, canView)
}

func (api *financeApi) query(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var filter finance.Filter
	if err = ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to finance.Filter")
	}
	donations, err := api.finance.Query(ctx.Request().Context(), actor, filter)
	if err != nil {
		return errors.Wrap(err, "querying donations")
	}
	return sendList(ctx, donations)
}

func (api *financeApi) register(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data finance.NewDonation
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewDonation")
	}
	d, err := api.finance.Register(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "registering donation")
	}
	return ctx.JSON(http.StatusCreated, d)
}

func (api *financeApi) summary(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	period := ctx.QueryParam("period")
	if period == "" {
		period = finance.PeriodMonth
	}
	sum, err := api.finance.Summary(ctx.Request().Context(), actor, period)
	if err != nil {
		return errors.Wrap(err, "summarizing donations")
	}
	return ctx.JSON(http.StatusOK, sum)
}

func (api *financeApi) monthly(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	year := intQuery(ctx, "year", core.NowFunc().Year())
	totals, err := api.finance.MonthlyTotals(ctx.Request().Context(), actor, year)
	if err != nil {
		return errors.Wrap(err, "computing monthly totals")
	}
	return sendList(ctx, totals)
}

func (api *financeApi) personHistory(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	h, err := api.finance.PersonHistory(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying donation history")
	}
	return ctx.JSON(http.StatusOK, h)
}

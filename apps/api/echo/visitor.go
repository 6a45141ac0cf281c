package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/igreja/core"
	"github.com/trezcool/igreja/core/church"
	"github.com/trezcool/igreja/core/person"
	"github.com/trezcool/igreja/core/visitor"
)

type visitorApi struct {
	visitors *visitor.Service
	people   *person.Service
	churches *church.Service
}

func registerVisitorAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps Deps) {
	api := visitorApi{visitors: deps.Visitors, people: deps.People, churches: deps.Churches}
	canView := requirePermission("visitantes.ver")
	canEdit := requirePermission("visitantes.editar")

	g.POST("/visits", api.registerVisit, jwt, canEdit)

	vg := g.Group("/visitors", jwt)
	vg.GET("/recent", api.recent, canView)
	vg.GET("/not-returned", api.notReturned, canView)
	vg.GET("/conversion", api.conversionReport, canView)
	vg.GET("/funnel", api.funnelStats, canView)
	vg.GET("/templates", api.templates, canView)
	vg.GET("/:id/whatsapp", api.whatsApp, canView)
	vg.GET("/:id/interests", api.interests, canView)
	vg.POST("/:id/interests", api.addInterests, canEdit)

	fg := g.Group("/follow-ups", jwt)
	fg.GET("/pending", api.pendingFollowUps, canView)
	fg.PUT("/:id", api.updateFollowUp, canEdit)

	flg := g.Group("/follow-up-flows", jwt)
	flg.GET("", api.queryFlows, canView)
	flg.POST("", api.createFlow, canEdit)
	flg.PUT("/:id", api.updateFlow, canEdit)
	flg.DELETE("/:id", api.destroyFlow, canEdit)

	prg := g.Group("/prayer-requests", jwt)
	prg.GET("", api.prayerRequests, canView)
	prg.POST("", api.addPrayerRequest, canEdit)
}

func (api *visitorApi) registerVisit(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data visitor.NewVisit
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewVisit")
	}
	v, err := api.visitors.RegisterVisit(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "registering visit")
	}
	return ctx.JSON(http.StatusCreated, v)
}

func (api *visitorApi) recent(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	visitors, err := api.visitors.RecentVisitors(ctx.Request().Context(), actor, intQuery(ctx, "days", 0))
	if err != nil {
		return errors.Wrap(err, "querying recent visitors")
	}
	return sendList(ctx, visitors)
}

func (api *visitorApi) notReturned(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	visitors, err := api.visitors.NotReturned(ctx.Request().Context(), actor, intQuery(ctx, "min_days", 0))
	if err != nil {
		return errors.Wrap(err, "querying absent visitors")
	}
	return sendList(ctx, visitors)
}

func (api *visitorApi) conversionReport(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	report, err := api.visitors.ConversionReport(ctx.Request().Context(), actor)
	if err != nil {
		return errors.Wrap(err, "building conversion report")
	}
	return ctx.JSON(http.StatusOK, report)
}

func (api *visitorApi) funnelStats(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	stats, err := api.visitors.FunnelStats(ctx.Request().Context(), actor)
	if err != nil {
		return errors.Wrap(err, "building funnel stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *visitorApi) templates(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, visitor.Templates())
}

// whatsApp renders a visitor template for a person and returns the matching wa.me link.
func (api *visitorApi) whatsApp(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	key := ctx.QueryParam("template")
	if _, ok := visitor.Templates()[key]; !ok {
		return core.NewValidationError(nil, core.FieldError{Field: "template", Error: "modelo desconhecido"})
	}
	p, err := api.people.Get(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return err
	}
	ch, err := api.churches.Get(ctx.Request().Context(), actor)
	if err != nil {
		return errors.Wrap(err, "finding church")
	}

	phone := p.Contact()
	if phone == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "mobile", Error: "pessoa sem telefone cadastrado"})
	}
	msg := visitor.RenderTemplate(key, visitor.TemplateVars{
		Name:   core.FirstName(p.Name),
		Days:   intQuery(ctx, "days", 0),
		Church: ch.Name,
	})
	return ctx.JSON(http.StatusOK, WhatsAppResponse{Message: msg, Link: core.WhatsAppLink(phone, msg)})
}

func (api *visitorApi) interests(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	interests, err := api.visitors.Interests(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying interests")
	}
	return sendList(ctx, interests)
}

func (api *visitorApi) addInterests(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data InterestsRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to InterestsRequest")
	}
	interests, err := api.visitors.AddInterests(ctx.Request().Context(), actor, ctx.Param("id"), data.Interests)
	if err != nil {
		return errors.Wrap(err, "adding interests")
	}
	return sendList(ctx, interests)
}

func (api *visitorApi) pendingFollowUps(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	followUps, err := api.visitors.PendingFollowUps(ctx.Request().Context(), actor)
	if err != nil {
		return errors.Wrap(err, "querying pending follow-ups")
	}
	return sendList(ctx, followUps)
}

func (api *visitorApi) updateFollowUp(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data visitor.FollowUpUpdate
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to FollowUpUpdate")
	}
	fu, err := api.visitors.UpdateFollowUp(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating follow-up")
	}
	return ctx.JSON(http.StatusOK, fu)
}

func (api *visitorApi) queryFlows(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	flows, err := api.visitors.QueryFlows(ctx.Request().Context(), actor)
	if err != nil {
		return errors.Wrap(err, "querying flows")
	}
	return sendList(ctx, flows)
}

func (api *visitorApi) createFlow(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data visitor.FlowInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to FlowInput")
	}
	flow, err := api.visitors.CreateFlow(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating flow")
	}
	return ctx.JSON(http.StatusCreated, flow)
}

func (api *visitorApi) updateFlow(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data visitor.FlowInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to FlowInput")
	}
	flow, err := api.visitors.UpdateFlow(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating flow")
	}
	return ctx.JSON(http.StatusOK, flow)
}

func (api *visitorApi) destroyFlow(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	if err = api.visitors.DeleteFlow(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting flow")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *visitorApi) prayerRequests(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	requests, err := api.visitors.PrayerRequests(ctx.Request().Context(), actor, boolQuery(ctx, "private"))
	if err != nil {
		return errors.Wrap(err, "querying prayer requests")
	}
	return sendList(ctx, requests)
}

func (api *visitorApi) addPrayerRequest(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data visitor.NewPrayerRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPrayerRequest")
	}
	pr, err := api.visitors.AddPrayerRequest(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "adding prayer request")
	}
	return ctx.JSON(http.StatusCreated, pr)
}

type (
	InterestsRequest struct {
		Interests []string `json:"interests"`
	}

	WhatsAppResponse struct {
		Message string `json:"message"`
		Link    string `json:"link"`
	}
)

package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/igreja/core/messaging"
	"github.com/trezcool/igreja/services/metrics"
)

type messagingApi struct {
	messaging *messaging.Service
	metrics   *metrics.Metrics
}

func registerMessagingAPI(g *echo.Group, jwt echo.MiddlewareFunc, m *metrics.Metrics, deps Deps) {
	api := messagingApi{messaging: deps.Messaging, metrics: m}
	canView := requirePermission("comunicacao.ver")
	canSend := requirePermission("comunicacao.enviar")

	tg := g.Group("/message-templates", jwt)
	tg.GET("", api.queryTemplates, canView)
	tg.POST("", api.createTemplate, canSend)
	tg.GET("/:id", api.retrieveTemplate, canView)
	tg.PUT("/:id", api.updateTemplate, canSend)
	tg.DELETE("/:id", api.destroyTemplate, canSend)

	cg := g.Group("/campaigns", jwt)
	cg.GET("", api.queryCampaigns, canView)
	cg.POST("", api.createCampaign, canSend)
	cg.POST("/:id/send", api.sendCampaign, canSend)
	cg.GET("/:id/messages", api.campaignMessages, canView)

	g.GET("/recipients", api.recipients, jwt, canView)
	g.POST("/messages", api.send, jwt, canSend)
}

func (api *messagingApi) queryTemplates(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	templates, err := api.messaging.QueryTemplates(ctx.Request().Context(), actor)
	if err != nil {
		return errors.Wrap(err, "querying templates")
	}
	return sendList(ctx, templates)
}

func (api *messagingApi) retrieveTemplate(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	t, err := api.messaging.GetTemplate(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *messagingApi) createTemplate(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data messaging.TemplateInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TemplateInput")
	}
	t, err := api.messaging.CreateTemplate(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating template")
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (api *messagingApi) updateTemplate(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data messaging.TemplateInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TemplateInput")
	}
	t, err := api.messaging.UpdateTemplate(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating template")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *messagingApi) destroyTemplate(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	if err = api.messaging.DeleteTemplate(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting template")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *messagingApi) queryCampaigns(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	campaigns, err := api.messaging.QueryCampaigns(ctx.Request().Context(), actor)
	if err != nil {
		return errors.Wrap(err, "querying campaigns")
	}
	return sendList(ctx, campaigns)
}

func (api *messagingApi) createCampaign(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data messaging.CampaignInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CampaignInput")
	}
	c, err := api.messaging.CreateCampaign(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating campaign")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *messagingApi) sendCampaign(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	c, err := api.messaging.SendCampaign(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "sending campaign")
	}
	api.metrics.MessagesSent.WithLabelValues(c.Channel).Add(float64(c.TotalSent))
	return ctx.JSON(http.StatusOK, c)
}

func (api *messagingApi) campaignMessages(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	msgs, err := api.messaging.CampaignMessages(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying campaign messages")
	}
	return sendList(ctx, msgs)
}

func (api *messagingApi) recipients(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	list, err := api.messaging.Recipients(ctx.Request().Context(), actor, ctx.QueryParam("segment"))
	if err != nil {
		return errors.Wrap(err, "querying recipients")
	}
	return sendList(ctx, list)
}

func (api *messagingApi) send(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data messaging.DirectMessage
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to DirectMessage")
	}
	if err = api.messaging.Send(ctx.Request().Context(), actor, data); err != nil {
		return errors.Wrap(err, "sending message")
	}
	channel := data.Channel
	if channel == "" {
		channel = messaging.ChannelWhatsApp
	}
	api.metrics.MessagesSent.WithLabelValues(channel).Inc()
	return ctx.JSON(http.StatusOK, SuccessResponse{"mensagem enviada"})
}

package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/igreja/core/notification"
)

type notificationApi struct {
	notifications *notification.Service
}

// notifications are scoped to the caller, so only authentication is required
func registerNotificationAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps Deps) {
	api := notificationApi{notifications: deps.Notifications}

	ng := g.Group("/notifications", jwt)
	ng.GET("", api.query)
	ng.POST("", api.create, requirePermission("configuracoes.usuarios"))
	ng.GET("/unread-count", api.unreadCount)
	ng.POST("/read-all", api.markAllRead)
	ng.GET("/settings", api.settings)
	ng.PUT("/settings", api.saveSettings)
	ng.POST("/:id/read", api.markRead)
	ng.DELETE("/:id", api.destroy)
}

func (api *notificationApi) query(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var filter notification.Filter
	if err = ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to notification.Filter")
	}
	list, err := api.notifications.Query(ctx.Request().Context(), actor, filter)
	if err != nil {
		return errors.Wrap(err, "querying notifications")
	}
	return sendList(ctx, list)
}

func (api *notificationApi) create(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data notification.NewNotification
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewNotification")
	}
	n, err := api.notifications.Create(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating notification")
	}
	return ctx.JSON(http.StatusCreated, n)
}

func (api *notificationApi) markRead(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	if err = api.notifications.MarkRead(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "marking notification as read")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *notificationApi) markAllRead(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	n, err := api.notifications.MarkAllRead(ctx.Request().Context(), actor)
	if err != nil {
		return errors.Wrap(err, "marking notifications as read")
	}
	return ctx.JSON(http.StatusOK, CountResponse{Count: n})
}

func (api *notificationApi) unreadCount(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	n, err := api.notifications.UnreadCount(ctx.Request().Context(), actor)
	if err != nil {
		return errors.Wrap(err, "counting unread notifications")
	}
	return ctx.JSON(http.StatusOK, CountResponse{Count: n})
}

func (api *notificationApi) destroy(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	if err = api.notifications.Delete(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting notification")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *notificationApi) settings(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	s, err := api.notifications.Settings(ctx.Request().Context(), actor)
	if err != nil {
		return errors.Wrap(err, "loading notification settings")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *notificationApi) saveSettings(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data notification.Settings
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to notification.Settings")
	}
	s, err := api.notifications.SaveSettings(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "saving notification settings")
	}
	return ctx.JSON(http.StatusOK, s)
}

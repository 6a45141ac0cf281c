package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/igreja/core/ministry"
)

type ministryApi struct {
	ministries *ministry.Service
}

func registerMinistryAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps Deps) {
	api := ministryApi{ministries: deps.Ministries}
	canView := requirePermission("ministerios.ver")
	canEdit := requirePermission("ministerios.editar")
	canViewCells := requirePermission("celulas.ver")
	canEditCells := requirePermission("celulas.editar")

	mg := g.Group("/ministries", jwt)
	mg.GET("", api.queryMinistries, canView)
	mg.POST("", api.createMinistry, canEdit)
	mg.GET("/:id", api.retrieveMinistry, canView)
	mg.PUT("/:id", api.updateMinistry, canEdit)
	mg.DELETE("/:id", api.destroyMinistry, canEdit)
	mg.GET("/:id/members", api.ministryMembers, canView)
	mg.POST("/:id/members", api.addMinistryMember, canEdit)
	mg.DELETE("/:id/members/:personId", api.removeMinistryMember, canEdit)

	cg := g.Group("/cells", jwt)
	cg.GET("", api.queryCells, canViewCells)
	cg.POST("", api.createCell, canEditCells)
	cg.GET("/:id", api.retrieveCell, canViewCells)
	cg.PUT("/:id", api.updateCell, canEditCells)
	cg.DELETE("/:id", api.destroyCell, canEditCells)
	cg.GET("/:id/members", api.cellMembers, canViewCells)
	cg.POST("/:id/members", api.addCellMember, canEditCells)
	cg.DELETE("/:id/members/:personId", api.removeCellMember, canEditCells)
	cg.GET("/:id/meetings", api.meetingHistory, canViewCells)
	cg.POST("/:id/meetings", api.registerMeeting, canEditCells)

	ng := g.Group("/networks", jwt)
	ng.GET("", api.queryNetworks, canViewCells)
	ng.POST("", api.createNetwork, canEdit)
	ng.PUT("/:id", api.updateNetwork, canEdit)
}

// Ministries

func (api *ministryApi) queryMinistries(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	ministries, err := api.ministries.QueryMinistries(ctx.Request().Context(), actor)
	if err != nil {
		return errors.Wrap(err, "querying ministries")
	}
	return sendList(ctx, ministries)
}

func (api *ministryApi) createMinistry(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data ministry.MinistryInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MinistryInput")
	}
	m, err := api.ministries.CreateMinistry(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating ministry")
	}
	return ctx.JSON(http.StatusCreated, m)
}

func (api *ministryApi) retrieveMinistry(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	m, err := api.ministries.GetMinistry(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, m)
}

func (api *ministryApi) updateMinistry(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data ministry.MinistryInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MinistryInput")
	}
	m, err := api.ministries.UpdateMinistry(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating ministry")
	}
	return ctx.JSON(http.StatusOK, m)
}

func (api *ministryApi) destroyMinistry(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	if err = api.ministries.DeleteMinistry(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting ministry")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *ministryApi) ministryMembers(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	members, err := api.ministries.MinistryMembers(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying ministry members")
	}
	return sendList(ctx, members)
}

func (api *ministryApi) addMinistryMember(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data ministry.NewMember
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMember")
	}
	if err = api.ministries.AddMinistryMember(ctx.Request().Context(), actor, ctx.Param("id"), data); err != nil {
		return errors.Wrap(err, "adding ministry member")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *ministryApi) removeMinistryMember(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	err = api.ministries.RemoveMinistryMember(ctx.Request().Context(), actor, ctx.Param("id"), ctx.Param("personId"))
	if err != nil {
		return errors.Wrap(err, "removing ministry member")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Cells

func (api *ministryApi) queryCells(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	cells, err := api.ministries.QueryCells(ctx.Request().Context(), actor)
	if err != nil {
		return errors.Wrap(err, "querying cells")
	}
	return sendList(ctx, cells)
}

func (api *ministryApi) createCell(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data ministry.CellInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CellInput")
	}
	cell, err := api.ministries.CreateCell(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating cell")
	}
	return ctx.JSON(http.StatusCreated, cell)
}

func (api *ministryApi) retrieveCell(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	cell, err := api.ministries.GetCell(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, cell)
}

func (api *ministryApi) updateCell(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data ministry.CellInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CellInput")
	}
	cell, err := api.ministries.UpdateCell(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating cell")
	}
	return ctx.JSON(http.StatusOK, cell)
}

func (api *ministryApi) destroyCell(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	if err = api.ministries.DeleteCell(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting cell")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *ministryApi) cellMembers(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	members, err := api.ministries.CellMembers(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying cell members")
	}
	return sendList(ctx, members)
}

func (api *ministryApi) addCellMember(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data ministry.NewMember
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMember")
	}
	if err = api.ministries.AddCellMember(ctx.Request().Context(), actor, ctx.Param("id"), data); err != nil {
		return errors.Wrap(err, "adding cell member")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *ministryApi) removeCellMember(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	err = api.ministries.RemoveCellMember(ctx.Request().Context(), actor, ctx.Param("id"), ctx.Param("personId"))
	if err != nil {
		return errors.Wrap(err, "removing cell member")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *ministryApi) meetingHistory(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	meetings, err := api.ministries.MeetingHistory(ctx.Request().Context(), actor, ctx.Param("id"), intQuery(ctx, "limit", 0))
	if err != nil {
		return errors.Wrap(err, "querying meetings")
	}
	return sendList(ctx, meetings)
}

func (api *ministryApi) registerMeeting(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data ministry.NewMeeting
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMeeting")
	}
	meeting, err := api.ministries.RegisterMeeting(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "registering meeting")
	}
	return ctx.JSON(http.StatusCreated, meeting)
}

// Networks

func (api *ministryApi) queryNetworks(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	networks, err := api.ministries.QueryNetworks(ctx.Request().Context(), actor)
	if err != nil {
		return errors.Wrap(err, "querying networks")
	}
	return sendList(ctx, networks)
}

func (api *ministryApi) createNetwork(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data ministry.NetworkInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NetworkInput")
	}
	n, err := api.ministries.CreateNetwork(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating network")
	}
	return ctx.JSON(http.StatusCreated, n)
}

func (api *ministryApi) updateNetwork(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data ministry.NetworkInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NetworkInput")
	}
	n, err := api.ministries.UpdateNetwork(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating network")
	}
	return ctx.JSON(http.StatusOK, n)
}

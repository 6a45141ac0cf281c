package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/igreja/core/board"
)

type boardApi struct {
	board *board.Service
}

func registerBoardAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps Deps) {
	api := boardApi{board: deps.Board}
	canView := requirePermission("comunicacao.ver")
	canPost := requirePermission("comunicacao.enviar")

	pg := g.Group("/posts", jwt)
	pg.GET("", api.query, canView)
	pg.POST("", api.create, canPost)
	pg.GET("/:id", api.retrieve, canView)
	pg.DELETE("/:id", api.destroy, canView)
	pg.POST("/:id/like", api.toggleLike, canView)
	pg.GET("/:id/comments", api.comments, canView)
	pg.POST("/:id/comments", api.comment, canView)

	wg := g.Group("/prayer-wall", jwt)
	wg.GET("", api.prayers, canView)
	wg.POST("", api.createPrayer, canView)
	wg.POST("/:id/pray", api.pray, canView)
	wg.PUT("/:id/answered", api.markAnswered, canView)
}

func (api *boardApi) query(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var filter board.Filter
	if err = ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to board.Filter")
	}
	posts, err := api.board.Query(ctx.Request().Context(), actor, filter)
	if err != nil {
		return errors.Wrap(err, "querying posts")
	}
	return sendList(ctx, posts)
}

func (api *boardApi) retrieve(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	p, err := api.board.Get(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *boardApi) create(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data board.PostInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PostInput")
	}
	p, err := api.board.Create(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating post")
	}
	return ctx.JSON(http.StatusCreated, p)
}

// destroy removes a post; the service only lets its author, admins and pastors through.
func (api *boardApi) destroy(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	if err = api.board.Delete(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting post")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *boardApi) toggleLike(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	liked, err := api.board.ToggleLike(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "toggling like")
	}
	return ctx.JSON(http.StatusOK, LikeResponse{Liked: liked})
}

func (api *boardApi) comments(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	list, err := api.board.Comments(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying comments")
	}
	return sendList(ctx, list)
}

func (api *boardApi) comment(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data board.NewComment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewComment")
	}
	c, err := api.board.Comment(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "commenting post")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *boardApi) prayers(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	list, err := api.board.Prayers(ctx.Request().Context(), actor, boolQuery(ctx, "answered"))
	if err != nil {
		return errors.Wrap(err, "querying prayer wall")
	}
	return sendList(ctx, list)
}

func (api *boardApi) createPrayer(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data board.NewPrayerRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPrayerRequest")
	}
	p, err := api.board.CreatePrayer(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating prayer request")
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *boardApi) pray(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	count, err := api.board.Pray(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "praying")
	}
	return ctx.JSON(http.StatusOK, CountResponse{Count: count})
}

func (api *boardApi) markAnswered(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data AnsweredRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AnsweredRequest")
	}
	p, err := api.board.MarkAnswered(ctx.Request().Context(), actor, ctx.Param("id"), data.Testimony)
	if err != nil {
		return errors.Wrap(err, "marking prayer as answered")
	}
	return ctx.JSON(http.StatusOK, p)
}

type (
	LikeResponse struct {
		Liked bool `json:"liked"`
	}

	AnsweredRequest struct {
		Testimony string `json:"testimony"`
	}
)

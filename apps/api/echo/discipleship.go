package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/igreja/core/discipleship"
)

type discipleshipApi struct {
	discipleship *discipleship.Service
}

func registerDiscipleshipAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps Deps) {
	api := discipleshipApi{discipleship: deps.Discipleship}
	canView := requirePermission("pessoas.ver")
	canEdit := requirePermission("pessoas.editar")

	cg := g.Group("/courses", jwt)
	cg.GET("", api.queryCourses, canView)
	cg.POST("", api.createCourse, canEdit)
	cg.GET("/:id", api.retrieveCourse, canView)
	cg.PUT("/:id", api.updateCourse, canEdit)
	cg.DELETE("/:id", api.destroyCourse, canEdit)

	kg := g.Group("/classes", jwt)
	kg.GET("", api.queryClasses, canView)
	kg.POST("", api.createClass, canEdit)
	kg.GET("/:id", api.retrieveClass, canView)
	kg.PUT("/:id", api.updateClass, canEdit)
	kg.GET("/:id/enrollments", api.enrollments, canView)
	kg.POST("/:id/enrollments", api.enroll, canEdit)

	g.PUT("/enrollments/:id", api.updateEnrollment, jwt, canEdit)
	g.GET("/people/:id/trail", api.trail, jwt, canView)
	g.GET("/discipleship/stats", api.stats, jwt, canView)
}

func (api *discipleshipApi) queryCourses(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	courses, err := api.discipleship.QueryCourses(ctx.Request().Context(), actor)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	return sendList(ctx, courses)
}

func (api *discipleshipApi) retrieveCourse(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	c, err := api.discipleship.GetCourse(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *discipleshipApi) createCourse(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data discipleship.CourseInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CourseInput")
	}
	c, err := api.discipleship.CreateCourse(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *discipleshipApi) updateCourse(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data discipleship.CourseInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CourseInput")
	}
	c, err := api.discipleship.UpdateCourse(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *discipleshipApi) destroyCourse(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	if err = api.discipleship.DeleteCourse(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *discipleshipApi) queryClasses(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	classes, err := api.discipleship.QueryClasses(
		ctx.Request().Context(), actor, ctx.QueryParam("course_id"), ctx.QueryParam("status"),
	)
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	return sendList(ctx, classes)
}

func (api *discipleshipApi) retrieveClass(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	c, err := api.discipleship.GetClass(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *discipleshipApi) createClass(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data discipleship.ClassInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ClassInput")
	}
	c, err := api.discipleship.CreateClass(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating class")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *discipleshipApi) updateClass(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data discipleship.ClassInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ClassInput")
	}
	c, err := api.discipleship.UpdateClass(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating class")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *discipleshipApi) enrollments(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	list, err := api.discipleship.Enrollments(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying enrollments")
	}
	return sendList(ctx, list)
}

func (api *discipleshipApi) enroll(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data PersonRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PersonRequest")
	}
	e, err := api.discipleship.Enroll(ctx.Request().Context(), actor, ctx.Param("id"), data.PersonID)
	if err != nil {
		return errors.Wrap(err, "enrolling person")
	}
	return ctx.JSON(http.StatusCreated, e)
}

func (api *discipleshipApi) updateEnrollment(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data discipleship.EnrollmentUpdate
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EnrollmentUpdate")
	}
	e, err := api.discipleship.UpdateEnrollment(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating enrollment")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *discipleshipApi) trail(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	t, err := api.discipleship.Trail(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "building discipleship trail")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *discipleshipApi) stats(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	stats, err := api.discipleship.Stats(ctx.Request().Context(), actor)
	if err != nil {
		return errors.Wrap(err, "computing discipleship stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}

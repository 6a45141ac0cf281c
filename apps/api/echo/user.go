package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/igreja/core"
	"github.com/trezcool/igreja/core/church"
	"github.com/trezcool/igreja/core/user"
	"github.com/trezcool/igreja/services/metrics"
)

type authApi struct {
	auth    *Auth
	metrics *metrics.Metrics
	users   *user.Service
}

func registerAuthAPI(g *echo.Group, jwt, limit echo.MiddlewareFunc, auth *Auth, m *metrics.Metrics, deps Deps) {
	api := authApi{auth: auth, metrics: m, users: deps.Users}

	ag := g.Group("/auth")

	// un-authed endpoints
	ag.POST("/login", api.login, limit)
	ag.POST("/password-reset", api.resetPassword, limit)
	ag.POST("/password-reset-confirm", api.confirmPasswordReset, limit)

	// authed endpoints
	ag.POST("/token-refresh", api.refreshToken, jwt)
	ag.POST("/logout", api.logout, jwt)
	ag.GET("/me", api.me, jwt)
}

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	usr, err := api.users.Login(ctx.Request().Context(), data.Email, data.Password, user.LoginMeta{
		IP:        ctx.RealIP(),
		UserAgent: ctx.Request().UserAgent(),
	})
	api.metrics.IncrementLogin(err == nil)
	if err != nil {
		switch errors.Cause(err) {
		case user.ErrInvalidCredentials:
			return errAuthenticationFailed
		case user.ErrAccountDeactivated:
			return errAccountDeactivated
		case user.ErrChurchDeactivated:
			return errChurchDeactivated
		}
		return errors.Wrap(err, "authenticating")
	}

	token, err := api.auth.GenerateToken(api.auth.UserClaims(usr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, User: usr})
}

func (api *authApi) logout(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	if err = api.auth.Revoke(ctx.Request().Context(), claims); err != nil {
		return err
	}
	actor := claims.Actor()
	actor.IP = ctx.RealIP()
	api.users.Logout(ctx.Request().Context(), actor)
	return ctx.NoContent(http.StatusNoContent)
}

func (api *authApi) refreshToken(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	usr, err := api.users.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		if core.IsNotFound(err) {
			return errUnauthorized
		}
		return errors.Wrap(err, "finding user by ID")
	}
	token, err := api.auth.Refresh(ctx.Request().Context(), claims, usr)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, User: usr})
}

func (api *authApi) me(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	usr, err := api.users.Get(ctx.Request().Context(), actor, actor.UserID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, MeResponse{User: usr, Permissions: user.Permissions(usr.Profile)})
}

func (api *authApi) resetPassword(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	if err := api.users.RequestPasswordReset(ctx.Request().Context(), data.Email); err != nil && !core.IsNotFound(err) {
		// do not return errors to attackers
		ctx.Logger().Errorf("%+v", errors.Wrap(err, "requesting password reset"))
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: "Se o email informado pertencer a uma conta ativa, você receberá em instantes " +
			"as instruções para redefinir sua senha.",
	})
}

func (api *authApi) confirmPasswordReset(ctx echo.Context) error {
	var data user.ResetUserPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetUserPassword")
	}
	if err := api.users.ResetPassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Senha redefinida com sucesso."})
}

type userApi struct {
	users     *user.Service
	accessLog *user.AccessLogger
	churches  *church.Service
}

func registerUserAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps Deps) {
	api := userApi{users: deps.Users, accessLog: deps.AccessLog, churches: deps.Churches}

	ug := g.Group("/users", jwt, requirePermission("configuracoes.usuarios"))
	ug.GET("", api.query)
	ug.POST("", api.create)
	ug.GET("/profiles", api.queryProfiles)
	ug.GET("/:id", api.retrieve)
	ug.PUT("/:id", api.update)
	ug.DELETE("/:id", api.destroy)

	g.GET("/access-logs", api.queryAccessLogs, jwt, requirePermission("configuracoes.logs"))

	cg := g.Group("/church", jwt, requirePermission("configuracoes.igreja"))
	cg.GET("", api.retrieveChurch)
	cg.PUT("", api.updateChurch)
}

func (api *userApi) create(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data user.NewUser
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	usr, err := api.users.Create(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *userApi) query(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var filter user.QueryFilter
	if err = ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []user.User{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	users, err := api.users.Query(ctx.Request().Context(), actor, filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *userApi) retrieve(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	usr, err := api.users.Get(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) update(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data user.UpdateUser
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}
	usr, err := api.users.Update(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) destroy(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	// Say No to Suicide! ctxUser cannot delete themselves
	if ctx.Param("id") == actor.UserID {
		return errHttpForbidden
	}
	if err = api.users.Delete(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *userApi) queryProfiles(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, user.Profiles)
}

func (api *userApi) queryAccessLogs(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var filter user.AccessLogFilter
	if err = ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to AccessLogFilter")
	}
	logs, err := api.accessLog.Query(ctx.Request().Context(), actor, filter)
	if err != nil {
		return errors.Wrap(err, "querying access logs")
	}
	if logs == nil {
		logs = []user.AccessLog{}
	}
	return ctx.JSON(http.StatusOK, logs)
}

func (api *userApi) retrieveChurch(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	ch, err := api.churches.Get(ctx.Request().Context(), actor)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ch)
}

func (api *userApi) updateChurch(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	var data church.UpdateChurch
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateChurch")
	}
	ch, err := api.churches.Update(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "updating church")
	}
	return ctx.JSON(http.StatusOK, ch)
}

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string    `json:"token"`
		User  user.User `json:"user"`
	}

	MeResponse struct {
		User        user.User `json:"user"`
		Permissions []string  `json:"permissions"`
	}

	PasswordResetRequest struct {
		Email string `json:"email" validate:"required,email"`
	}
)

func (lr *LoginRequest) Validate() error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return core.Validate.Struct(lr)
}

func (pr *PasswordResetRequest) Validate() error {
	pr.Email = core.CleanString(pr.Email, true /* lower */)
	return core.Validate.Struct(pr)
}

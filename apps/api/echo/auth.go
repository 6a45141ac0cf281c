package echoapi

import (
	"context"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/igreja/core"
	"github.com/trezcool/igreja/core/user"
)

const (
	contextTokenKey  = "userToken"
	revokedKeyPrefix = "jwt:revoked:"
	tokenAudience    = "igreja"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	ChurchID     string `json:"church_id"`
	PersonID     string `json:"person_id,omitempty"`
	Profile      string `json:"profile"`
	Name         string `json:"name,omitempty"`
	Email        string `json:"email,omitempty"`
}

// Actor returns the identity the services scope every operation to.
func (c Claims) Actor() core.Actor {
	return core.Actor{
		UserID:   c.Subject,
		ChurchID: c.ChurchID,
		PersonID: c.PersonID,
		Profile:  c.Profile,
		Name:     c.Name,
	}
}

// Auth issues, refreshes and revokes JWTs. Revoked token IDs live in the cache until the token expires.
type Auth struct {
	conf      *core.Config
	cache     core.Cache
	jwtConfig middleware.JWTConfig
}

func NewAuth(conf *core.Config, cache core.Cache) *Auth {
	return &Auth{
		conf:  conf,
		cache: cache,
		jwtConfig: middleware.JWTConfig{
			SigningKey:    []byte(conf.SecretKey),
			SigningMethod: middleware.AlgorithmHS256,
			ContextKey:    contextTokenKey,
			Claims:        new(Claims),
		},
	}
}

// UserClaims builds the claims of a fresh token for usr.
// origIat carries the first issue time over refreshes.
func (a *Auth) UserClaims(usr user.User, origIat ...int64) *Claims {
	now := core.NowFunc()
	nownix := now.Unix()

	oriat := nownix
	if len(origIat) > 0 {
		oriat = origIat[0]
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.New().String(),
			Issuer:    a.conf.AppName,
			Subject:   usr.ID,
			Audience:  tokenAudience,
			ExpiresAt: now.Add(a.conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		ChurchID:     usr.ChurchID,
		PersonID:     usr.PersonID.String,
		Profile:      usr.Profile,
		Name:         usr.Name,
		Email:        usr.Email,
	}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func (a *Auth) GenerateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(a.jwtConfig.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(a.jwtConfig.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// Middleware validates the bearer token and rejects revoked ones.
func (a *Auth) Middleware() echo.MiddlewareFunc {
	jwtMiddleware := middleware.JWTWithConfig(a.jwtConfig)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return jwtMiddleware(func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			revoked, err := a.IsRevoked(ctx.Request().Context(), claims.Id)
			if err != nil {
				return errors.Wrap(err, "checking token revocation")
			}
			if revoked {
				return errTokenRevoked
			}
			return next(ctx)
		})
	}
}

// Revoke blacklists the token until it expires.
func (a *Auth) Revoke(ctx context.Context, claims Claims) error {
	if claims.Id == "" {
		return nil
	}
	ttl := time.Unix(claims.ExpiresAt, 0).Sub(core.NowFunc())
	if ttl <= 0 {
		return nil
	}
	return errors.Wrap(a.cache.Set(ctx, revokedKeyPrefix+claims.Id, []byte("1"), ttl), "revoking token")
}

func (a *Auth) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	_, err := a.cache.Get(ctx, revokedKeyPrefix+jti)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, core.ErrCacheMiss):
		return false, nil
	default:
		return false, err
	}
}

// Refresh issues a new token for usr, keeping the original issue time, and revokes the old one.
// Refreshing stops working JWTRefreshExpirationDelta after the first login.
func (a *Auth) Refresh(ctx context.Context, claims Claims, usr user.User) (string, error) {
	if !usr.IsActive {
		return "", errAccountDeactivated
	}

	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(a.conf.Server.JWTRefreshExpirationDelta)
	if core.NowFunc().After(expTime) {
		return "", errRefreshExpired
	}

	token, err := a.GenerateToken(a.UserClaims(usr, claims.OrigIssuedAt))
	if err != nil {
		return "", err
	}
	if err = a.Revoke(ctx, claims); err != nil {
		return "", err
	}
	return token, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// contextActor returns the caller identity, with the client IP.
func contextActor(ctx echo.Context) (core.Actor, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return core.Actor{}, err
	}
	actor := claims.Actor()
	actor.IP = ctx.RealIP()
	return actor, nil
}

package middleware

import (
	"errors"
	"fmt"

	"inmobiliaria/internal/common"
	"inmobiliaria/internal/models"

	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

const actorContextKey = "actor"

// TokenValidator verifies a signed token for one purpose
type TokenValidator interface {
	ValidateToken(token string, purpose models.TokenPurpose) (*models.TokenClaims, error)
}

// JWTMiddleware accepts only access-purpose bearer tokens and stores the
// caller in the request context
func JWTMiddleware(validator TokenValidator) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  actorContextKey,
		TokenLookup: "header:Authorization:Bearer ",
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			claims, err := validator.ValidateToken(auth, models.PurposeAccess)
			if err != nil {
				return nil, err
			}
			userID, err := uuid.Parse(claims.UserID)
			if err != nil {
				return nil, fmt.Errorf("invalid user_id in token: %w", err)
			}
			if !claims.Role.Valid() {
				return nil, fmt.Errorf("invalid role %q in token", claims.Role)
			}
			return models.Actor{UserID: userID, Role: claims.Role}, nil
		},
		SuccessHandler: func(c echo.Context) {
			actor, ok := c.Get(actorContextKey).(models.Actor)
			if !ok {
				return
			}
			c.SetRequest(c.Request().WithContext(common.WithActor(c.Request().Context(), actor)))
		},
		ErrorHandler: func(c echo.Context, err error) error {
			if errors.Is(err, echojwt.ErrJWTMissing) {
				return common.SendError(c, common.NewUnauthorizedError("Missing token"))
			}
			return common.SendError(c, common.NewUnauthorizedError("Invalid or expired token"))
		},
	})
}

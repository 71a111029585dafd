package middleware

import (
	"inmobiliaria/internal/authz"
	"inmobiliaria/internal/common"

	"github.com/labstack/echo/v4"
)

// RequireOperation rejects callers whose role may not run op. Services
// repeat the check; this only fails fast at the route.
func RequireOperation(op authz.Operation) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, err := common.ActorFrom(c)
			if err != nil {
				return common.SendError(c, err)
			}
			if err := authz.Check(actor, op); err != nil {
				return common.SendError(c, err)
			}
			return next(c)
		}
	}
}

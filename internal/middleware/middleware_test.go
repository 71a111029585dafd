package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"inmobiliaria/internal/authz"
	"inmobiliaria/internal/common"
	"inmobiliaria/internal/models"
	"inmobiliaria/pkg/logger"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeValidator struct {
	claims map[string]*models.TokenClaims
}

func (f *fakeValidator) ValidateToken(token string, purpose models.TokenPurpose) (*models.TokenClaims, error) {
	claims, ok := f.claims[token]
	if !ok || claims.Purpose != purpose {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func newProtectedServer(validator TokenValidator, op authz.Operation) *echo.Echo {
	e := echo.New()
	g := e.Group("", JWTMiddleware(validator))
	g.GET("/whoami", func(c echo.Context) error {
		actor, err := common.ActorFrom(c)
		if err != nil {
			return common.SendError(c, err)
		}
		return c.String(http.StatusOK, actor.UserID.String()+"|"+string(actor.Role))
	}, RequireOperation(op))
	return e
}

func TestJWTMiddleware(t *testing.T) {
	userID := uuid.New()
	validator := &fakeValidator{claims: map[string]*models.TokenClaims{
		"access-client": {UserID: userID.String(), Role: models.RoleClient, Purpose: models.PurposeAccess},
		"reset-client":  {UserID: userID.String(), Role: models.RoleClient, Purpose: models.PurposePasswordReset},
		"bad-user":      {UserID: "nope", Role: models.RoleClient, Purpose: models.PurposeAccess},
	}}
	e := newProtectedServer(validator, authz.PropertyList)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid access token", "Bearer access-client", http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"reset token rejected", "Bearer reset-client", http.StatusUnauthorized},
		{"malformed user id", "Bearer bad-user", http.StatusUnauthorized},
		{"unknown token", "Bearer garbage", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, userID.String()+"|client", rec.Body.String())
			}
		})
	}
}

func TestRequireOperation_Forbidden(t *testing.T) {
	validator := &fakeValidator{claims: map[string]*models.TokenClaims{
		"agent": {UserID: uuid.NewString(), Role: models.RoleAgent, Purpose: models.PurposeAccess},
	}}
	e := newProtectedServer(validator, authz.AuditList)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer agent")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"FORBIDDEN"`)
}

func TestVersionRoute_SetsHeaders(t *testing.T) {
	e := echo.New()
	vm := NewVersionMiddleware("1.2.3")
	vm.VersionRoute(e, "v1").GET("/ping", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "v1", rec.Header().Get("X-API-Version"))
	assert.Equal(t, "1.2.3", rec.Header().Get("X-App-Version"))
}

func TestRequestLogger_HandlesErrors(t *testing.T) {
	e := echo.New()
	e.Use(RequestContext(), RequestLogger(logger.NewNop()))
	e.GET("/boom", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot, "short and stout")
	})

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set(echo.HeaderXRequestID, "req-1")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
}

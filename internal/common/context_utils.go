package common

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"inmobiliaria/internal/models"
	"inmobiliaria/pkg/logger"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type contextKey string

const (
	ActorKey contextKey = "actor"
)

// Response is the envelope every endpoint answers with
type Response struct {
	Status  int         `json:"status"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

// ErrorBody carries the machine readable part of a failure
type ErrorBody struct {
	Code    string            `json:"code"`
	Details map[string]string `json:"details,omitempty"`
}

// SendSuccess writes data and an optional message
func SendSuccess(c echo.Context, status int, data interface{}, message string) error {
	return c.JSON(status, Response{Status: status, Data: data, Message: message})
}

// SendMessage writes a message without data
func SendMessage(c echo.Context, status int, message string) error {
	return c.JSON(status, Response{Status: status, Message: message})
}

// SendError maps err onto the envelope; internal causes are logged, not returned
func SendError(c echo.Context, err error) error {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = NewInternalError("process request", err)
	}

	status := appErr.HTTPStatus()
	if status >= http.StatusInternalServerError {
		logger.Get().WithContext(c.Request().Context()).Error("request failed",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Error(errors.Unwrap(appErr)),
		)
	}

	return c.JSON(status, Response{
		Status:  status,
		Message: appErr.Message,
		Error:   &ErrorBody{Code: string(appErr.Kind), Details: appErr.Details},
	})
}

// SendValidationError sends a single-field validation error response
func SendValidationError(c echo.Context, field, message string) error {
	return SendError(c, NewValidationError(field, message))
}

// WithActor stores the authenticated caller in ctx
func WithActor(ctx context.Context, actor models.Actor) context.Context {
	ctx = context.WithValue(ctx, ActorKey, actor)
	return context.WithValue(ctx, logger.ActorKey, actor.UserID.String())
}

// GetActorFromContext extracts the authenticated caller from ctx
func GetActorFromContext(ctx context.Context) (models.Actor, bool) {
	actor, ok := ctx.Value(ActorKey).(models.Actor)
	return actor, ok
}

// ActorFrom returns the caller of an echo request or an unauthorized error
func ActorFrom(c echo.Context) (models.Actor, error) {
	actor, ok := GetActorFromContext(c.Request().Context())
	if !ok {
		return models.Actor{}, NewUnauthorizedError("Unauthorized access")
	}
	return actor, nil
}

// ParamUUID validates the named path parameter as a UUID
func ParamUUID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := ValidateUUID(c.Param(name), name)
	if err != nil {
		return uuid.Nil, NewValidationError(name, err.Error())
	}
	return id, nil
}

// QueryBool reads a boolean query parameter, false when absent or malformed
func QueryBool(c echo.Context, name string) bool {
	v, err := strconv.ParseBool(c.QueryParam(name))
	return err == nil && v
}

// Pagination reads limit/offset query parameters
func Pagination(c echo.Context) (int, int, error) {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, offset, err := ValidatePaginationParams(limit, offset)
	if err != nil {
		return 0, 0, NewValidationError("offset", err.Error())
	}
	return limit, offset, nil
}

// ValidateUUID validates UUID format
func ValidateUUID(idStr string, fieldName string) (uuid.UUID, error) {
	idStr = strings.TrimSpace(idStr)
	if idStr == "" {
		return uuid.Nil, fmt.Errorf("%s is required", fieldName)
	}
	if len(idStr) != 36 {
		return uuid.Nil, fmt.Errorf("%s must be exactly 36 characters (including hyphens)", fieldName)
	}
	for _, pos := range []int{8, 13, 18, 23} {
		if idStr[pos] != '-' {
			return uuid.Nil, fmt.Errorf("%s has invalid UUID format: hyphens must be at positions 9, 14, 19, and 24", fieldName)
		}
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s contains invalid characters: %v", fieldName, err)
	}
	return id, nil
}

// ValidatePositiveFloat validates positive float values with upper bounds
func ValidatePositiveFloat(value float64, fieldName string, maxValue float64) error {
	if value <= 0 {
		return fmt.Errorf("%s must be positive", fieldName)
	}
	if value > maxValue {
		return fmt.Errorf("%s cannot exceed %.2f", fieldName, maxValue)
	}
	return nil
}

// ValidateRequiredString validates required string fields
func ValidateRequiredString(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	return nil
}

// ValidateOptionalString trims an optional field and bounds its length
func ValidateOptionalString(value *string, fieldName string, maxLength int) error {
	if value != nil {
		*value = strings.TrimSpace(*value)
		if len(*value) > maxLength {
			return fmt.Errorf("%s cannot exceed %d characters", fieldName, maxLength)
		}
	}
	return nil
}

// ValidateEmail checks the address parses as a bare mailbox
func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("email has invalid format")
	}
	return nil
}

// ValidatePaginationParams validates pagination parameters
func ValidatePaginationParams(limit, offset int) (int, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 1000 {
		limit = 1000
	}
	if offset < 0 {
		offset = 0
	}
	if offset > 1000000 {
		return 0, 0, fmt.Errorf("offset cannot exceed 1,000,000")
	}
	return limit, offset, nil
}

// ValidateDateRange requires end strictly after start
func ValidateDateRange(startDate, endDate time.Time) error {
	if !endDate.After(startDate) {
		return fmt.Errorf("end date must be after start date")
	}
	if endDate.Sub(startDate) > time.Hour*24*365*50 {
		return fmt.Errorf("date range cannot exceed 50 years")
	}
	return nil
}

// SafeString safely handles string pointer operations
func SafeString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// SanitizeHTMLField escapes string pointer fields for HTML display
func SanitizeHTMLField(field *string, fieldName string) error {
	if field != nil && *field != "" {
		sanitized := html.EscapeString(*field)
		if len(sanitized) > 2000 {
			return fmt.Errorf("%s content exceeds maximum allowed length", fieldName)
		}
		*field = sanitized
	}
	return nil
}

// HTTPErrorHandler renders errors that escape handlers (unknown routes,
// bad methods, body limits) in the same envelope as service errors
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		kind := KindInternal
		switch he.Code {
		case http.StatusBadRequest, http.StatusRequestEntityTooLarge, http.StatusUnsupportedMediaType:
			kind = KindValidation
		case http.StatusUnauthorized:
			kind = KindUnauthorized
		case http.StatusForbidden:
			kind = KindForbidden
		case http.StatusNotFound, http.StatusMethodNotAllowed:
			kind = KindNotFound
		case http.StatusTooManyRequests:
			kind = KindRateLimited
		}
		message := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok && m != "" {
			message = m
		}
		_ = c.JSON(he.Code, Response{Status: he.Code, Message: message, Error: &ErrorBody{Code: string(kind)}})
		return
	}

	_ = SendError(c, err)
}

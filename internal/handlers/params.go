package handlers

import (
	"strings"
	"time"

	"inmobiliaria/internal/common"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// parseDate accepts a plain calendar date or an RFC 3339 timestamp
func parseDate(value, field string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, common.NewValidationError(field, field+" must be a date (YYYY-MM-DD)")
}

func parseOptionalDate(value *string, field string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := parseDate(*value, field)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// queryUUID reads an optional UUID query parameter
func queryUUID(c echo.Context, name string) (*uuid.UUID, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	id, err := common.ValidateUUID(raw, name)
	if err != nil {
		return nil, common.NewValidationError(name, err.Error())
	}
	return &id, nil
}

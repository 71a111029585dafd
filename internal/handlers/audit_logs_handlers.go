package handlers

import (
	"net/http"

	"inmobiliaria/internal/common"
	"inmobiliaria/internal/models"
	"inmobiliaria/internal/services"

	"github.com/labstack/echo/v4"
)

// AuditLogsHandlers handles audit logs related HTTP requests
type AuditLogsHandlers struct {
	auditLogsService services.AuditLogsService
}

// NewAuditLogsHandlers creates a new audit logs handlers instance
func NewAuditLogsHandlers(auditLogsService services.AuditLogsService) *AuditLogsHandlers {
	return &AuditLogsHandlers{auditLogsService: auditLogsService}
}

// ListAuditLogs retrieves audit logs with filtering and pagination
func (h *AuditLogsHandlers) ListAuditLogs(c echo.Context) error {
	actor, err := common.ActorFrom(c)
	if err != nil {
		return common.SendError(c, err)
	}
	limit, offset, err := common.Pagination(c)
	if err != nil {
		return common.SendError(c, err)
	}

	filters := &models.AuditLogFilters{Limit: limit, Offset: offset}
	if entity := c.QueryParam("entity"); entity != "" {
		filters.Entity = &entity
	}
	if filters.EntityID, err = queryUUID(c, "entity_id"); err != nil {
		return common.SendError(c, err)
	}
	if filters.ActorID, err = queryUUID(c, "actor_id"); err != nil {
		return common.SendError(c, err)
	}
	if err := h.auditLogsService.ValidateAuditFilters(filters); err != nil {
		return common.SendError(c, err)
	}

	logs, err := h.auditLogsService.ListAuditLogs(c.Request().Context(), actor, filters)
	if err != nil {
		return common.SendError(c, err)
	}
	return common.SendSuccess(c, http.StatusOK, logs, "")
}

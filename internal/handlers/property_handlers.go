package handlers

import (
	"net/http"

	"inmobiliaria/internal/common"
	"inmobiliaria/internal/models"
	"inmobiliaria/internal/services"

	"github.com/labstack/echo/v4"
)

type PropertyHandlers struct {
	propertyService services.PropertyService
}

func NewPropertyHandlers(propertyService services.PropertyService) *PropertyHandlers {
	return &PropertyHandlers{propertyService: propertyService}
}

func (h *PropertyHandlers) ListProperties(c echo.Context) error {
	actor, err := common.ActorFrom(c)
	if err != nil {
		return common.SendError(c, err)
	}
	limit, offset, err := common.Pagination(c)
	if err != nil {
		return common.SendError(c, err)
	}

	filter := &models.PropertyFilter{
		IncludeInactive: common.QueryBool(c, "include_inactive"),
		Limit:           limit,
		Offset:          offset,
	}
	if s := c.QueryParam("status"); s != "" {
		status := models.PropertyStatus(s)
		if !status.Valid() {
			return common.SendValidationError(c, "status", "status must be one of available, rented, sold")
		}
		filter.Status = &status
	}
	if t := c.QueryParam("type_id"); t != "" {
		typeID, err := common.ValidateUUID(t, "type_id")
		if err != nil {
			return common.SendValidationError(c, "type_id", err.Error())
		}
		filter.TypeID = &typeID
	}
	if a := c.QueryParam("agent_id"); a != "" {
		agentID, err := common.ValidateUUID(a, "agent_id")
		if err != nil {
			return common.SendValidationError(c, "agent_id", err.Error())
		}
		filter.AgentID = &agentID
	}

	properties, err := h.propertyService.ListProperties(c.Request().Context(), actor, filter)
	if err != nil {
		return common.SendError(c, err)
	}
	return common.SendSuccess(c, http.StatusOK, properties, "")
}

func (h *PropertyHandlers) GetProperty(c echo.Context) error {
	actor, err := common.ActorFrom(c)
	if err != nil {
		return common.SendError(c, err)
	}
	id, err := common.ParamUUID(c, "id")
	if err != nil {
		return common.SendError(c, err)
	}

	property, err := h.propertyService.GetProperty(c.Request().Context(), actor, id)
	if err != nil {
		return common.SendError(c, err)
	}
	return common.SendSuccess(c, http.StatusOK, property, "")
}

func (h *PropertyHandlers) CreateProperty(c echo.Context) error {
	actor, err := common.ActorFrom(c)
	if err != nil {
		return common.SendError(c, err)
	}
	var in models.PropertyInput
	if err := c.Bind(&in); err != nil {
		return common.SendValidationError(c, "body", "Invalid request format")
	}

	property, err := h.propertyService.CreateProperty(c.Request().Context(), actor, &in)
	if err != nil {
		return common.SendError(c, err)
	}
	return common.SendSuccess(c, http.StatusCreated, property, "Property created")
}

func (h *PropertyHandlers) UpdateProperty(c echo.Context) error {
	actor, err := common.ActorFrom(c)
	if err != nil {
		return common.SendError(c, err)
	}
	id, err := common.ParamUUID(c, "id")
	if err != nil {
		return common.SendError(c, err)
	}
	var in models.PropertyInput
	if err := c.Bind(&in); err != nil {
		return common.SendValidationError(c, "body", "Invalid request format")
	}

	property, err := h.propertyService.UpdateProperty(c.Request().Context(), actor, id, &in)
	if err != nil {
		return common.SendError(c, err)
	}
	return common.SendSuccess(c, http.StatusOK, property, "Property updated")
}

// DeactivateProperty is the soft delete behind DELETE /propiedades/:id
func (h *PropertyHandlers) DeactivateProperty(c echo.Context) error {
	actor, err := common.ActorFrom(c)
	if err != nil {
		return common.SendError(c, err)
	}
	id, err := common.ParamUUID(c, "id")
	if err != nil {
		return common.SendError(c, err)
	}

	if err := h.propertyService.DeactivateProperty(c.Request().Context(), actor, id); err != nil {
		return common.SendError(c, err)
	}
	return common.SendMessage(c, http.StatusOK, "Property deactivated")
}

func (h *PropertyHandlers) DeletePropertyPermanently(c echo.Context) error {
	actor, err := common.ActorFrom(c)
	if err != nil {
		return common.SendError(c, err)
	}
	id, err := common.ParamUUID(c, "id")
	if err != nil {
		return common.SendError(c, err)
	}

	if err := h.propertyService.DeletePropertyPermanently(c.Request().Context(), actor, id); err != nil {
		return common.SendError(c, err)
	}
	return common.SendMessage(c, http.StatusOK, "Property deleted permanently")
}

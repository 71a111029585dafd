package handlers

import (
	"net/http"

	"inmobiliaria/internal/common"
	"inmobiliaria/internal/services"

	"github.com/labstack/echo/v4"
)

type PropertyTypeHandlers struct {
	typeService services.PropertyTypeService
}

func NewPropertyTypeHandlers(typeService services.PropertyTypeService) *PropertyTypeHandlers {
	return &PropertyTypeHandlers{typeService: typeService}
}

type propertyTypeRequest struct {
	Name string `json:"name"`
}

func (h *PropertyTypeHandlers) ListTypes(c echo.Context) error {
	actor, err := common.ActorFrom(c)
	if err != nil {
		return common.SendError(c, err)
	}

	types, err := h.typeService.ListTypes(c.Request().Context(), actor, common.QueryBool(c, "include_inactive"))
	if err != nil {
		return common.SendError(c, err)
	}
	return common.SendSuccess(c, http.StatusOK, types, "")
}

func (h *PropertyTypeHandlers) CreateType(c echo.Context) error {
	actor, err := common.ActorFrom(c)
	if err != nil {
		return common.SendError(c, err)
	}
	var req propertyTypeRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "body", "Invalid request format")
	}

	pt, err := h.typeService.CreateType(c.Request().Context(), actor, req.Name)
	if err != nil {
		return common.SendError(c, err)
	}
	return common.SendSuccess(c, http.StatusCreated, pt, "Property type created")
}

func (h *PropertyTypeHandlers) UpdateType(c echo.Context) error {
	actor, err := common.ActorFrom(c)
	if err != nil {
		return common.SendError(c, err)
	}
	id, err := common.ParamUUID(c, "id")
	if err != nil {
		return common.SendError(c, err)
	}
	var req propertyTypeRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "body", "Invalid request format")
	}

	pt, err := h.typeService.UpdateType(c.Request().Context(), actor, id, req.Name)
	if err != nil {
		return common.SendError(c, err)
	}
	return common.SendSuccess(c, http.StatusOK, pt, "Property type updated")
}

func (h *PropertyTypeHandlers) DeactivateType(c echo.Context) error {
	actor, err := common.ActorFrom(c)
	if err != nil {
		return common.SendError(c, err)
	}
	id, err := common.ParamUUID(c, "id")
	if err != nil {
		return common.SendError(c, err)
	}

	if err := h.typeService.DeactivateType(c.Request().Context(), actor, id); err != nil {
		return common.SendError(c, err)
	}
	return common.SendMessage(c, http.StatusOK, "Property type deactivated")
}

func (h *PropertyTypeHandlers) DeleteTypePermanently(c echo.Context) error {
	actor, err := common.ActorFrom(c)
	if err != nil {
		return common.SendError(c, err)
	}
	id, err := common.ParamUUID(c, "id")
	if err != nil {
		return common.SendError(c, err)
	}

	if err := h.typeService.DeleteTypePermanently(c.Request().Context(), actor, id); err != nil {
		return common.SendError(c, err)
	}
	return common.SendMessage(c, http.StatusOK, "Property type deleted permanently")
}

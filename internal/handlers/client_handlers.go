package handlers

import (
	"net/http"

	"inmobiliaria/internal/common"
	"inmobiliaria/internal/models"
	"inmobiliaria/internal/services"

	"github.com/labstack/echo/v4"
)

type ClientHandlers struct {
	clientService services.ClientService
}

func NewClientHandlers(clientService services.ClientService) *ClientHandlers {
	return &ClientHandlers{clientService: clientService}
}

func (h *ClientHandlers) ListClients(c echo.Context) error {
	actor, err := common.ActorFrom(c)
	if err != nil {
		return common.SendError(c, err)
	}
	limit, offset, err := common.Pagination(c)
	if err != nil {
		return common.SendError(c, err)
	}

	clients, err := h.clientService.ListClients(c.Request().Context(), actor, common.QueryBool(c, "include_inactive"), limit, offset)
	if err != nil {
		return common.SendError(c, err)
	}
	return common.SendSuccess(c, http.StatusOK, clients, "")
}

func (h *ClientHandlers) GetClient(c echo.Context) error {
	actor, err := common.ActorFrom(c)
	if err != nil {
		return common.SendError(c, err)
	}
	id, err := common.ParamUUID(c, "id")
	if err != nil {
		return common.SendError(c, err)
	}

	client, err := h.clientService.GetClient(c.Request().Context(), actor, id)
	if err != nil {
		return common.SendError(c, err)
	}
	return common.SendSuccess(c, http.StatusOK, client, "")
}

func (h *ClientHandlers) CreateClient(c echo.Context) error {
	actor, err := common.ActorFrom(c)
	if err != nil {
		return common.SendError(c, err)
	}
	var in models.ClientInput
	if err := c.Bind(&in); err != nil {
		return common.SendValidationError(c, "body", "Invalid request format")
	}

	client, err := h.clientService.CreateClient(c.Request().Context(), actor, &in)
	if err != nil {
		return common.SendError(c, err)
	}
	return common.SendSuccess(c, http.StatusCreated, client, "Client created")
}

func (h *ClientHandlers) UpdateClient(c echo.Context) error {
	actor, err := common.ActorFrom(c)
	if err != nil {
		return common.SendError(c, err)
	}
	id, err := common.ParamUUID(c, "id")
	if err != nil {
		return common.SendError(c, err)
	}
	var in models.ClientInput
	if err := c.Bind(&in); err != nil {
		return common.SendValidationError(c, "body", "Invalid request format")
	}

	client, err := h.clientService.UpdateClient(c.Request().Context(), actor, id, &in)
	if err != nil {
		return common.SendError(c, err)
	}
	return common.SendSuccess(c, http.StatusOK, client, "Client updated")
}

func (h *ClientHandlers) DeactivateClient(c echo.Context) error {
	actor, err := common.ActorFrom(c)
	if err != nil {
		return common.SendError(c, err)
	}
	id, err := common.ParamUUID(c, "id")
	if err != nil {
		return common.SendError(c, err)
	}

	if err := h.clientService.DeactivateClient(c.Request().Context(), actor, id); err != nil {
		return common.SendError(c, err)
	}
	return common.SendMessage(c, http.StatusOK, "Client deactivated")
}

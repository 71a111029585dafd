package handlers

import (
	"context"
	"net/http"

	"inmobiliaria/internal/common"
	"inmobiliaria/internal/models"
	"inmobiliaria/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type SaleHandlers struct {
	saleService services.SaleService
}

func NewSaleHandlers(saleService services.SaleService) *SaleHandlers {
	return &SaleHandlers{saleService: saleService}
}

type saleRequestBody struct {
	PropertyID  uuid.UUID  `json:"property_id"`
	ClientID    *uuid.UUID `json:"client_id,omitempty"`
	SaleDate    *string    `json:"sale_date,omitempty"`
	TotalAmount float64    `json:"total_amount"`
}

type saleUpdateBody struct {
	SaleDate    *string            `json:"sale_date,omitempty"`
	TotalAmount *float64           `json:"total_amount,omitempty"`
	Status      *models.SaleStatus `json:"status,omitempty"`
}

func (h *SaleHandlers) ListSales(c echo.Context) error {
	actor, err := common.ActorFrom(c)
	if err != nil {
		return common.SendError(c, err)
	}
	limit, offset, err := common.Pagination(c)
	if err != nil {
		return common.SendError(c, err)
	}

	filter := &models.SaleFilter{
		IncludeInactive: common.QueryBool(c, "include_inactive"),
		Limit:           limit,
		Offset:          offset,
	}
	if s := c.QueryParam("status"); s != "" {
		status := models.SaleStatus(s)
		if !status.Valid() {
			return common.SendValidationError(c, "status", "status must be one of pending, finalized, cancelled")
		}
		filter.Status = &status
	}
	if filter.ClientID, err = queryUUID(c, "client_id"); err != nil {
		return common.SendError(c, err)
	}
	if filter.PropertyID, err = queryUUID(c, "property_id"); err != nil {
		return common.SendError(c, err)
	}

	sales, err := h.saleService.ListSales(c.Request().Context(), actor, filter)
	if err != nil {
		return common.SendError(c, err)
	}
	return common.SendSuccess(c, http.StatusOK, sales, "")
}

func (h *SaleHandlers) ListPendingSales(c echo.Context) error {
	actor, err := common.ActorFrom(c)
	if err != nil {
		return common.SendError(c, err)
	}
	limit, offset, err := common.Pagination(c)
	if err != nil {
		return common.SendError(c, err)
	}

	sales, err := h.saleService.ListPendingSales(c.Request().Context(), actor, limit, offset)
	if err != nil {
		return common.SendError(c, err)
	}
	return common.SendSuccess(c, http.StatusOK, sales, "")
}

func (h *SaleHandlers) ListClientSales(c echo.Context) error {
	actor, err := common.ActorFrom(c)
	if err != nil {
		return common.SendError(c, err)
	}
	clientID, err := common.ParamUUID(c, "clientId")
	if err != nil {
		return common.SendError(c, err)
	}
	limit, offset, err := common.Pagination(c)
	if err != nil {
		return common.SendError(c, err)
	}

	sales, err := h.saleService.ListClientSales(c.Request().Context(), actor, clientID, limit, offset)
	if err != nil {
		return common.SendError(c, err)
	}
	return common.SendSuccess(c, http.StatusOK, sales, "")
}

func (h *SaleHandlers) GetSale(c echo.Context) error {
	actor, err := common.ActorFrom(c)
	if err != nil {
		return common.SendError(c, err)
	}
	id, err := common.ParamUUID(c, "id")
	if err != nil {
		return common.SendError(c, err)
	}

	sale, err := h.saleService.GetSale(c.Request().Context(), actor, id)
	if err != nil {
		return common.SendError(c, err)
	}
	return common.SendSuccess(c, http.StatusOK, sale, "")
}

func (h *SaleHandlers) RequestSale(c echo.Context) error {
	actor, err := common.ActorFrom(c)
	if err != nil {
		return common.SendError(c, err)
	}
	var body saleRequestBody
	if err := c.Bind(&body); err != nil {
		return common.SendValidationError(c, "body", "Invalid request format")
	}
	saleDate, err := parseOptionalDate(body.SaleDate, "sale_date")
	if err != nil {
		return common.SendError(c, err)
	}

	sale, err := h.saleService.RequestSale(c.Request().Context(), actor, &models.SaleRequest{
		PropertyID:  body.PropertyID,
		ClientID:    body.ClientID,
		SaleDate:    saleDate,
		TotalAmount: body.TotalAmount,
	})
	if err != nil {
		return common.SendError(c, err)
	}
	return common.SendSuccess(c, http.StatusCreated, sale, "Sale requested")
}

func (h *SaleHandlers) ApproveSale(c echo.Context) error {
	return h.transition(c, h.saleService.ApproveSale, "Sale finalized")
}

func (h *SaleHandlers) RejectSale(c echo.Context) error {
	return h.transition(c, h.saleService.RejectSale, "Sale rejected")
}

// CancelSale backs DELETE /ventas/:id
func (h *SaleHandlers) CancelSale(c echo.Context) error {
	return h.transition(c, h.saleService.CancelSale, "Sale cancelled")
}

func (h *SaleHandlers) transition(c echo.Context, op func(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Sale, error), message string) error {
	actor, err := common.ActorFrom(c)
	if err != nil {
		return common.SendError(c, err)
	}
	id, err := common.ParamUUID(c, "id")
	if err != nil {
		return common.SendError(c, err)
	}

	sale, err := op(c.Request().Context(), actor, id)
	if err != nil {
		return common.SendError(c, err)
	}
	return common.SendSuccess(c, http.StatusOK, sale, message)
}

func (h *SaleHandlers) UpdateSale(c echo.Context) error {
	actor, err := common.ActorFrom(c)
	if err != nil {
		return common.SendError(c, err)
	}
	id, err := common.ParamUUID(c, "id")
	if err != nil {
		return common.SendError(c, err)
	}
	var body saleUpdateBody
	if err := c.Bind(&body); err != nil {
		return common.SendValidationError(c, "body", "Invalid request format")
	}

	upd := &models.SaleUpdate{TotalAmount: body.TotalAmount, Status: body.Status}
	if upd.SaleDate, err = parseOptionalDate(body.SaleDate, "sale_date"); err != nil {
		return common.SendError(c, err)
	}

	sale, err := h.saleService.UpdateSale(c.Request().Context(), actor, id, upd)
	if err != nil {
		return common.SendError(c, err)
	}
	return common.SendSuccess(c, http.StatusOK, sale, "Sale updated")
}

func (h *SaleHandlers) DeleteSale(c echo.Context) error {
	actor, err := common.ActorFrom(c)
	if err != nil {
		return common.SendError(c, err)
	}
	id, err := common.ParamUUID(c, "id")
	if err != nil {
		return common.SendError(c, err)
	}

	if err := h.saleService.DeleteSale(c.Request().Context(), actor, id); err != nil {
		return common.SendError(c, err)
	}
	return common.SendMessage(c, http.StatusOK, "Sale deleted permanently")
}

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

type RentalHandlers struct {
	rentalService services.RentalService
}

func NewRentalHandlers(rentalService services.RentalService) *RentalHandlers {
	return &RentalHandlers{rentalService: rentalService}
}

type rentalRequestBody struct {
	PropertyID    uuid.UUID  `json:"property_id"`
	ClientID      *uuid.UUID `json:"client_id,omitempty"`
	StartDate     string     `json:"start_date"`
	EndDate       string     `json:"end_date"`
	MonthlyAmount float64    `json:"monthly_amount"`
}

type rentalUpdateBody struct {
	StartDate     *string              `json:"start_date,omitempty"`
	EndDate       *string              `json:"end_date,omitempty"`
	MonthlyAmount *float64             `json:"monthly_amount,omitempty"`
	Status        *models.RentalStatus `json:"status,omitempty"`
}

func (h *RentalHandlers) ListRentals(c echo.Context) error {
	actor, err := common.ActorFrom(c)
	if err != nil {
		return common.SendError(c, err)
	}
	limit, offset, err := common.Pagination(c)
	if err != nil {
		return common.SendError(c, err)
	}

	filter := &models.RentalFilter{
		IncludeInactive: common.QueryBool(c, "include_inactive"),
		Limit:           limit,
		Offset:          offset,
	}
	if s := c.QueryParam("status"); s != "" {
		status := models.RentalStatus(s)
		if !status.Valid() {
			return common.SendValidationError(c, "status", "status must be one of pending, active, finished, cancelled")
		}
		filter.Status = &status
	}
	if filter.ClientID, err = queryUUID(c, "client_id"); err != nil {
		return common.SendError(c, err)
	}
	if filter.PropertyID, err = queryUUID(c, "property_id"); err != nil {
		return common.SendError(c, err)
	}

	rentals, err := h.rentalService.ListRentals(c.Request().Context(), actor, filter)
	if err != nil {
		return common.SendError(c, err)
	}
	return common.SendSuccess(c, http.StatusOK, rentals, "")
}

func (h *RentalHandlers) ListPendingRentals(c echo.Context) error {
	actor, err := common.ActorFrom(c)
	if err != nil {
		return common.SendError(c, err)
	}
	limit, offset, err := common.Pagination(c)
	if err != nil {
		return common.SendError(c, err)
	}

	rentals, err := h.rentalService.ListPendingRentals(c.Request().Context(), actor, limit, offset)
	if err != nil {
		return common.SendError(c, err)
	}
	return common.SendSuccess(c, http.StatusOK, rentals, "")
}

func (h *RentalHandlers) ListClientRentals(c echo.Context) error {
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

	rentals, err := h.rentalService.ListClientRentals(c.Request().Context(), actor, clientID, limit, offset)
	if err != nil {
		return common.SendError(c, err)
	}
	return common.SendSuccess(c, http.StatusOK, rentals, "")
}

func (h *RentalHandlers) GetRental(c echo.Context) error {
	actor, err := common.ActorFrom(c)
	if err != nil {
		return common.SendError(c, err)
	}
	id, err := common.ParamUUID(c, "id")
	if err != nil {
		return common.SendError(c, err)
	}

	rental, err := h.rentalService.GetRental(c.Request().Context(), actor, id)
	if err != nil {
		return common.SendError(c, err)
	}
	return common.SendSuccess(c, http.StatusOK, rental, "")
}

func (h *RentalHandlers) RequestRental(c echo.Context) error {
	actor, err := common.ActorFrom(c)
	if err != nil {
		return common.SendError(c, err)
	}
	var body rentalRequestBody
	if err := c.Bind(&body); err != nil {
		return common.SendValidationError(c, "body", "Invalid request format")
	}
	start, err := parseDate(body.StartDate, "start_date")
	if err != nil {
		return common.SendError(c, err)
	}
	end, err := parseDate(body.EndDate, "end_date")
	if err != nil {
		return common.SendError(c, err)
	}

	rental, err := h.rentalService.RequestRental(c.Request().Context(), actor, &models.RentalRequest{
		PropertyID:    body.PropertyID,
		ClientID:      body.ClientID,
		StartDate:     start,
		EndDate:       end,
		MonthlyAmount: body.MonthlyAmount,
	})
	if err != nil {
		return common.SendError(c, err)
	}
	return common.SendSuccess(c, http.StatusCreated, rental, "Rental requested")
}

func (h *RentalHandlers) ApproveRental(c echo.Context) error {
	return h.transition(c, h.rentalService.ApproveRental, "Rental approved")
}

func (h *RentalHandlers) RejectRental(c echo.Context) error {
	return h.transition(c, h.rentalService.RejectRental, "Rental rejected")
}

// CancelRental backs DELETE /alquileres/:id
func (h *RentalHandlers) CancelRental(c echo.Context) error {
	return h.transition(c, h.rentalService.CancelRental, "Rental cancelled")
}

func (h *RentalHandlers) transition(c echo.Context, op func(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Rental, error), message string) error {
	actor, err := common.ActorFrom(c)
	if err != nil {
		return common.SendError(c, err)
	}
	id, err := common.ParamUUID(c, "id")
	if err != nil {
		return common.SendError(c, err)
	}

	rental, err := op(c.Request().Context(), actor, id)
	if err != nil {
		return common.SendError(c, err)
	}
	return common.SendSuccess(c, http.StatusOK, rental, message)
}

func (h *RentalHandlers) UpdateRental(c echo.Context) error {
	actor, err := common.ActorFrom(c)
	if err != nil {
		return common.SendError(c, err)
	}
	id, err := common.ParamUUID(c, "id")
	if err != nil {
		return common.SendError(c, err)
	}
	var body rentalUpdateBody
	if err := c.Bind(&body); err != nil {
		return common.SendValidationError(c, "body", "Invalid request format")
	}

	upd := &models.RentalUpdate{MonthlyAmount: body.MonthlyAmount, Status: body.Status}
	if upd.StartDate, err = parseOptionalDate(body.StartDate, "start_date"); err != nil {
		return common.SendError(c, err)
	}
	if upd.EndDate, err = parseOptionalDate(body.EndDate, "end_date"); err != nil {
		return common.SendError(c, err)
	}

	rental, err := h.rentalService.UpdateRental(c.Request().Context(), actor, id, upd)
	if err != nil {
		return common.SendError(c, err)
	}
	return common.SendSuccess(c, http.StatusOK, rental, "Rental updated")
}

func (h *RentalHandlers) DeleteRental(c echo.Context) error {
	actor, err := common.ActorFrom(c)
	if err != nil {
		return common.SendError(c, err)
	}
	id, err := common.ParamUUID(c, "id")
	if err != nil {
		return common.SendError(c, err)
	}

	if err := h.rentalService.DeleteRental(c.Request().Context(), actor, id); err != nil {
		return common.SendError(c, err)
	}
	return common.SendMessage(c, http.StatusOK, "Rental deleted permanently")
}

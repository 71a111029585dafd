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

// DocumentHandlers serves rental contracts and sale receipts as PDF
type DocumentHandlers struct {
	documentService services.DocumentService
}

func NewDocumentHandlers(documentService services.DocumentService) *DocumentHandlers {
	return &DocumentHandlers{documentService: documentService}
}

type documentLink struct {
	URL string `json:"url"`
}

func (h *DocumentHandlers) RentalContract(c echo.Context) error {
	return h.serve(c, h.documentService.RentalContract, h.documentService.RentalContractLink)
}

func (h *DocumentHandlers) SaleReceipt(c echo.Context) error {
	return h.serve(c, h.documentService.SaleReceipt, h.documentService.SaleReceiptLink)
}

// serve streams the PDF, or with ?link=true returns a presigned URL to the
// archived copy
func (h *DocumentHandlers) serve(
	c echo.Context,
	render func(ctx context.Context, actor models.Actor, id uuid.UUID) (*services.Document, error),
	link func(ctx context.Context, actor models.Actor, id uuid.UUID) (string, error),
) error {
	actor, err := common.ActorFrom(c)
	if err != nil {
		return common.SendError(c, err)
	}
	id, err := common.ParamUUID(c, "id")
	if err != nil {
		return common.SendError(c, err)
	}
	ctx := c.Request().Context()

	if common.QueryBool(c, "link") {
		url, err := link(ctx, actor, id)
		if err != nil {
			return common.SendError(c, err)
		}
		return common.SendSuccess(c, http.StatusOK, documentLink{URL: url}, "")
	}

	doc, err := render(ctx, actor, id)
	if err != nil {
		return common.SendError(c, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+doc.Filename+`"`)
	return c.Blob(http.StatusOK, "application/pdf", doc.Content)
}

package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"inmobiliaria/internal/authz"
	"inmobiliaria/internal/common"
	"inmobiliaria/internal/models"
	"inmobiliaria/internal/repositories"
	"inmobiliaria/pkg/logger"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"
)

// Document is a generated PDF ready to be served
type Document struct {
	Filename string
	Content  []byte
}

type DocumentService interface {
	// RentalContract renders the contract of an active or finished rental
	RentalContract(ctx context.Context, actor models.Actor, rentalID uuid.UUID) (*Document, error)
	// SaleReceipt renders the receipt of a finalized sale
	SaleReceipt(ctx context.Context, actor models.Actor, saleID uuid.UUID) (*Document, error)
	// RentalContractLink archives the contract and returns a presigned download URL
	RentalContractLink(ctx context.Context, actor models.Actor, rentalID uuid.UUID) (string, error)
	SaleReceiptLink(ctx context.Context, actor models.Actor, saleID uuid.UUID) (string, error)
}

type documentService struct {
	store   repositories.Store
	archive DocumentArchive // nil when MinIO is disabled
	linkTTL time.Duration
	agency  string
	log     *logger.Logger
	clock   func() time.Time
}

func NewDocumentService(store repositories.Store, archive DocumentArchive, linkTTL time.Duration, agency string, log *logger.Logger) DocumentService {
	return &documentService{
		store:   store,
		archive: archive,
		linkTTL: linkTTL,
		agency:  agency,
		log:     log.Named("documents"),
		clock:   time.Now,
	}
}

// parties loads what both documents print about the property and the client
type parties struct {
	property *models.Property
	client   *models.Client
	user     *models.User
}

func (s *documentService) loadParties(ctx context.Context, actor models.Actor, propertyID, clientID uuid.UUID) (*parties, error) {
	if err := requireClientOwner(ctx, s.store, actor, clientID); err != nil {
		return nil, err
	}

	property, err := s.store.Properties().GetByID(ctx, propertyID)
	if err != nil {
		return nil, translateStoreErr("get property", err)
	}
	if property == nil {
		return nil, common.NewNotFoundError("property")
	}
	client, err := s.store.Clients().GetByID(ctx, clientID)
	if err != nil {
		return nil, translateStoreErr("get client", err)
	}
	if client == nil {
		return nil, common.NewNotFoundError("client")
	}
	user, err := s.store.Users().GetByID(ctx, client.UserID)
	if err != nil {
		return nil, translateStoreErr("get user", err)
	}
	if user == nil {
		return nil, common.NewNotFoundError("user")
	}
	return &parties{property: property, client: client, user: user}, nil
}

func (s *documentService) RentalContract(ctx context.Context, actor models.Actor, rentalID uuid.UUID) (*Document, error) {
	if err := authz.Check(actor, authz.DocumentRental); err != nil {
		return nil, err
	}

	rental, err := s.store.Rentals().GetByID(ctx, rentalID)
	if err != nil {
		return nil, translateStoreErr("get rental", err)
	}
	if rental == nil || !rental.Active {
		return nil, common.NewNotFoundError("rental")
	}
	if rental.Status != models.RentalActive && rental.Status != models.RentalFinished {
		return nil, common.NewConflictError("a contract is only issued for active or finished rentals (status: %s)", rental.Status)
	}

	p, err := s.loadParties(ctx, actor, rental.PropertyID, rental.ClientID)
	if err != nil {
		return nil, err
	}

	content, err := s.renderRentalContract(rental, p)
	if err != nil {
		return nil, common.SecureErrorMessage("render rental contract", err)
	}
	return &Document{Filename: fmt.Sprintf("contrato-alquiler-%s.pdf", rental.ID), Content: content}, nil
}

func (s *documentService) SaleReceipt(ctx context.Context, actor models.Actor, saleID uuid.UUID) (*Document, error) {
	if err := authz.Check(actor, authz.DocumentSale); err != nil {
		return nil, err
	}

	sale, err := s.store.Sales().GetByID(ctx, saleID)
	if err != nil {
		return nil, translateStoreErr("get sale", err)
	}
	if sale == nil || !sale.Active {
		return nil, common.NewNotFoundError("sale")
	}
	if sale.Status != models.SaleFinalized {
		return nil, common.NewConflictError("a receipt is only issued for finalized sales (status: %s)", sale.Status)
	}

	p, err := s.loadParties(ctx, actor, sale.PropertyID, sale.ClientID)
	if err != nil {
		return nil, err
	}

	content, err := s.renderSaleReceipt(sale, p)
	if err != nil {
		return nil, common.SecureErrorMessage("render sale receipt", err)
	}
	return &Document{Filename: fmt.Sprintf("recibo-venta-%s.pdf", sale.ID), Content: content}, nil
}

func (s *documentService) RentalContractLink(ctx context.Context, actor models.Actor, rentalID uuid.UUID) (string, error) {
	doc, err := s.RentalContract(ctx, actor, rentalID)
	if err != nil {
		return "", err
	}
	return s.archiveAndLink(ctx, "contratos/"+doc.Filename, doc)
}

func (s *documentService) SaleReceiptLink(ctx context.Context, actor models.Actor, saleID uuid.UUID) (string, error) {
	doc, err := s.SaleReceipt(ctx, actor, saleID)
	if err != nil {
		return "", err
	}
	return s.archiveAndLink(ctx, "recibos/"+doc.Filename, doc)
}

func (s *documentService) archiveAndLink(ctx context.Context, objectName string, doc *Document) (string, error) {
	if s.archive == nil {
		return "", common.NewConflictError("document links are not available: storage is disabled")
	}
	if err := s.archive.UploadDocument(ctx, objectName, doc.Content); err != nil {
		return "", common.SecureErrorMessage("archive document", err)
	}
	url, err := s.archive.GetPresignedURL(ctx, objectName, s.linkTTL)
	if err != nil {
		return "", common.SecureErrorMessage("presign document", err)
	}

	s.log.WithContext(ctx).Info("Document archived", zap.String("object", objectName))
	return url, nil
}

func (s *documentService) newPDF(title string) (*gofpdf.Fpdf, func(string) string) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.SetTextColor(33, 37, 41)
	pdf.Cell(0, 10, tr(s.agency))
	pdf.Ln(10)
	pdf.SetFont("Arial", "B", 13)
	pdf.Cell(0, 10, tr(title))
	pdf.Ln(14)
	return pdf, tr
}

// row prints a label/value line
func row(pdf *gofpdf.Fpdf, tr func(string) string, label, value string) {
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(55, 7, tr(label), "", 0, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 7, tr(value), "", 1, "L", false, 0, "")
}

func (s *documentService) partiesSection(pdf *gofpdf.Fpdf, tr func(string) string, p *parties) {
	row(pdf, tr, "Cliente:", p.user.Name)
	row(pdf, tr, "Documento:", p.client.DocumentID)
	row(pdf, tr, "Teléfono:", p.client.Phone)
	row(pdf, tr, "Email:", p.user.Email)
	pdf.Ln(4)
	row(pdf, tr, "Propiedad:", p.property.Address)
	if p.property.SizeM2 != nil {
		row(pdf, tr, "Superficie:", fmt.Sprintf("%.2f m²", *p.property.SizeM2))
	}
	if p.property.Description != nil && *p.property.Description != "" {
		row(pdf, tr, "Descripción:", *p.property.Description)
	}
	pdf.Ln(4)
}

func (s *documentService) footer(pdf *gofpdf.Fpdf, tr func(string) string) ([]byte, error) {
	pdf.Ln(10)
	pdf.SetFont("Arial", "I", 8)
	pdf.SetTextColor(128, 128, 128)
	pdf.Cell(0, 5, tr(fmt.Sprintf("Documento generado el %s", s.clock().Format("02/01/2006 15:04"))))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *documentService) renderRentalContract(rental *models.Rental, p *parties) ([]byte, error) {
	pdf, tr := s.newPDF("Contrato de alquiler")

	row(pdf, tr, "Contrato N°:", rental.ID.String())
	row(pdf, tr, "Estado:", string(rental.Status))
	pdf.Ln(4)
	s.partiesSection(pdf, tr, p)

	row(pdf, tr, "Inicio:", rental.StartDate.Format("02/01/2006"))
	row(pdf, tr, "Fin:", rental.EndDate.Format("02/01/2006"))
	row(pdf, tr, "Monto mensual:", fmt.Sprintf("$ %.2f", rental.MonthlyAmount))

	pdf.Ln(6)
	pdf.SetFont("Arial", "", 9)
	pdf.MultiCell(0, 5, tr("El locatario se compromete a abonar el monto mensual pactado dentro de los primeros diez días de cada mes "+
		"y a restituir el inmueble al finalizar el contrato en el estado en que lo recibió."), "", "L", false)

	return s.footer(pdf, tr)
}

func (s *documentService) renderSaleReceipt(sale *models.Sale, p *parties) ([]byte, error) {
	pdf, tr := s.newPDF("Recibo de venta")

	row(pdf, tr, "Recibo N°:", sale.ID.String())
	row(pdf, tr, "Fecha de venta:", sale.SaleDate.Format("02/01/2006"))
	pdf.Ln(4)
	s.partiesSection(pdf, tr, p)

	pdf.SetFont("Arial", "B", 11)
	pdf.SetTextColor(220, 20, 60)
	pdf.CellFormat(55, 8, tr("TOTAL:"), "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 8, fmt.Sprintf("$ %.2f", sale.TotalAmount), "", 1, "L", false, 0, "")
	pdf.SetTextColor(33, 37, 41)

	return s.footer(pdf, tr)
}

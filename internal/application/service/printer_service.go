package service

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sangkips/receipts-api/internal/domain/entity"
	"github.com/sangkips/receipts-api/internal/domain/repository"
	"github.com/sangkips/receipts-api/internal/infrastructure/logger"
	"github.com/sangkips/receipts-api/pkg/apperror"
	"github.com/sangkips/receipts-api/pkg/money"
	"github.com/sangkips/receipts-api/pkg/printer"
)

const receiptDateLayout = "2006-01-02 15:04"

// PrinterService formats receipts for thermal printers and sends them.
type PrinterService struct {
	printer     printer.Printer
	receipts    repository.ReceiptRepository
	businesses  repository.BusinessRepository
	printerType string
	paperWidth  int
}

// NewPrinterService creates a new printer service.
func NewPrinterService(
	p printer.Printer,
	receipts repository.ReceiptRepository,
	businesses repository.BusinessRepository,
	printerType string,
	paperWidth int,
) *PrinterService {
	return &PrinterService{
		printer:     p,
		receipts:    receipts,
		businesses:  businesses,
		printerType: printerType,
		paperWidth:  paperWidth,
	}
}

// PrinterStatus describes the configured printer.
type PrinterStatus struct {
	Configured bool   `json:"configured"`
	Connected  bool   `json:"connected"`
	Type       string `json:"type"`
	PaperWidth int    `json:"paper_width"`
}

// GetStatus reports whether a printer is configured and reachable.
func (s *PrinterService) GetStatus(ctx context.Context) *PrinterStatus {
	return &PrinterStatus{
		Configured: s.printerType != printer.TypeNone && s.printerType != "",
		Connected:  s.printer.IsConnected(ctx),
		Type:       s.printerType,
		PaperWidth: s.paperWidth,
	}
}

// PrintReceipt prints one of the caller's receipts.
func (s *PrinterService) PrintReceipt(ctx context.Context, p Principal, id uuid.UUID) error {
	receipt, err := s.receipts.FindByID(ctx, p.writeScope(), id)
	if err != nil {
		return apperror.NewPersistenceError(err)
	}
	if receipt == nil {
		return apperror.NewNotFoundError("Receipt")
	}
	business, err := s.businesses.GetByID(ctx, receipt.BusinessID)
	if err != nil {
		return apperror.NewPersistenceError(err)
	}
	if business == nil {
		return apperror.NewNotFoundError("Business")
	}

	data := FormatReceipt(business, receipt, s.paperWidth)
	if err := s.printer.Print(ctx, data); err != nil {
		if errors.Is(err, printer.ErrNotConfigured) {
			return apperror.NewBadRequestError("No printer is configured")
		}
		logger.FromContext(ctx).Error("print failed",
			zap.String("receipt_id", id.String()),
			zap.String("printer_type", s.printerType),
			zap.Error(err),
		)
		return apperror.NewAppError(http.StatusBadGateway, "Failed to print receipt")
	}
	return nil
}

// FormatReceipt lays a receipt out as ESC/POS bytes.
func FormatReceipt(b *entity.Business, r *entity.Receipt, width int) []byte {
	doc := printer.NewDocument(width)
	amount := func(v decimal.Decimal) string {
		return b.Currency + " " + v.StringFixed(money.MoneyPlaces)
	}

	doc.SetAlign(printer.AlignCenter).
		SetBold(true).
		SetFontSize(printer.FontDouble).
		Text(b.Name).
		SetFontSize(printer.FontNormal).
		SetBold(false).
		Text(b.AddressOne).
		Text(b.AddressTwo).
		Text(b.Phone)
	if b.RegistrationNumber != "" {
		doc.Text("Reg: " + b.RegistrationNumber)
	}

	doc.SetAlign(printer.AlignLeft).
		Separator('-').
		KeyValue("Receipt:", r.ReceiptNumber).
		KeyValue("Date:", r.ReceiptDate.Format(receiptDateLayout)).
		KeyValue("Customer:", r.CustomerName)
	if r.CustomerPhone != "" {
		doc.KeyValue("Phone:", r.CustomerPhone)
	}
	doc.Separator('-')

	for _, item := range r.Items {
		doc.ItemLine(item.Quantity.String(), item.Description, item.Total.StringFixed(money.MoneyPlaces))
	}

	doc.Separator('-').
		KeyValue("Subtotal:", amount(r.Subtotal))
	if r.TaxAmount.IsPositive() {
		doc.KeyValue("Tax ("+r.TaxRate.Shift(2).String()+"%):", amount(r.TaxAmount))
	}
	if r.Discount.IsPositive() {
		doc.KeyValue("Discount:", "-"+amount(r.Discount))
	}
	doc.SetBold(true).
		KeyValue("TOTAL:", amount(r.GrandTotal)).
		SetBold(false)
	if r.IsPaid {
		doc.KeyValue("Status:", "PAID")
	}

	doc.Separator('-').
		SetAlign(printer.AlignCenter)
	if b.Motto != "" {
		doc.Text(b.Motto)
	}
	doc.Text(r.Notes).
		Text("Thank you for your business!").
		SetAlign(printer.AlignLeft).
		FeedLines(3).
		PartialCut()

	return doc.Bytes()
}

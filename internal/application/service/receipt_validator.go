package service

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sangkips/receipts-api/internal/domain/entity"
	"github.com/sangkips/receipts-api/internal/domain/repository"
	"github.com/sangkips/receipts-api/pkg/apperror"
	"github.com/sangkips/receipts-api/pkg/money"
)

// Column bounds: numeric(12,2) for money and numeric(10,3) for quantities
var (
	maxMoney    = decimal.New(1, 10)
	maxQuantity = decimal.New(1, 7)
)

const invalidReceipt = "Invalid receipt"

// ReceiptValidator rejects receipt drafts that are inconsistent before they
// reach storage. It only reads.
type ReceiptValidator struct {
	validate  *validator.Validate
	receipts  repository.ReceiptRepository
	templates repository.TemplateRepository
}

// NewReceiptValidator creates a new receipt validator
func NewReceiptValidator(receipts repository.ReceiptRepository, templates repository.TemplateRepository) *ReceiptValidator {
	return &ReceiptValidator{
		validate:  newStructValidator(),
		receipts:  receipts,
		templates: templates,
	}
}

// Validate checks required fields, precision, template visibility, receipt
// number uniqueness and financial integrity, in that order
func (v *ReceiptValidator) Validate(ctx context.Context, ownerID uuid.UUID, draft entity.ReceiptDraft) error {
	if fields := v.checkFields(draft); len(fields) > 0 {
		return apperror.NewValidationError(invalidReceipt, fields...)
	}

	if draft.TemplateID != nil {
		tmpl, err := v.templates.GetVisible(ctx, *draft.TemplateID, ownerID)
		if err != nil {
			return apperror.NewPersistenceError(err)
		}
		if tmpl == nil {
			return apperror.NewValidationError(invalidReceipt, apperror.FieldError{
				Field:   "template",
				Message: "template does not exist",
			})
		}
	}

	taken, err := v.receipts.NumberTaken(ctx, draft.BusinessID, draft.ReceiptNumber, draft.ID)
	if err != nil {
		return apperror.NewPersistenceError(err)
	}
	if taken {
		return apperror.NewDuplicateReceiptNumberError(draft.ReceiptNumber)
	}

	return CheckFinancialIntegrity(draft)
}

func (v *ReceiptValidator) checkFields(draft entity.ReceiptDraft) []apperror.FieldError {
	var fields []apperror.FieldError

	if draft.BusinessID == uuid.Nil {
		fields = append(fields, required("business"))
	}
	fields = append(fields, structErrors(v.validate.Struct(draft))...)
	if draft.ReceiptDate == nil {
		fields = append(fields, required("receipt_date"))
	}

	fields = append(fields, checkMoney("subtotal", draft.Subtotal, true)...)
	fields = append(fields, checkMoney("tax_amount", draft.TaxAmount, false)...)
	fields = append(fields, checkMoney("discount", draft.Discount, false)...)
	fields = append(fields, checkMoney("grand_total", draft.GrandTotal, true)...)
	fields = append(fields, checkTaxRate("tax_rate", draft.TaxRate, true)...)

	for i, item := range draft.Items {
		prefix := fmt.Sprintf("items[%d].", i)
		if !item.Quantity.IsPositive() {
			fields = append(fields, apperror.FieldError{Field: prefix + "quantity", Message: "must be greater than 0"})
		} else if !fitsPlaces(item.Quantity, money.QuantityPlaces) || item.Quantity.GreaterThanOrEqual(maxQuantity) {
			fields = append(fields, apperror.FieldError{
				Field:   prefix + "quantity",
				Message: fmt.Sprintf("must have at most %d decimal places and 7 digits before the point", money.QuantityPlaces),
			})
		}
		fields = append(fields, checkMoney(prefix+"unit_price", &item.UnitPrice, true)...)
		fields = append(fields, checkMoney(prefix+"total", item.Total, false)...)
	}
	return fields
}

// CheckFinancialIntegrity recomputes the totals of draft from its items and
// rates and compares them to the submitted values
func CheckFinancialIntegrity(draft entity.ReceiptDraft) error {
	discount := decimal.Zero
	if draft.Discount != nil {
		discount = *draft.Discount
	}
	expected := money.CalculateTotals(draft.LineItems(), true, *draft.TaxRate, discount)

	subtotal := money.Subtotal(draft.LineItems())
	if !money.Matches(subtotal, *draft.Subtotal) {
		return integrityError("subtotal", expected.Subtotal, *draft.Subtotal)
	}
	if draft.TaxAmount != nil && !money.Matches(expected.TaxAmount, *draft.TaxAmount) {
		return integrityError("tax_amount", expected.TaxAmount, *draft.TaxAmount)
	}
	if !money.Matches(expected.GrandTotal, *draft.GrandTotal) {
		return integrityError("grand_total", expected.GrandTotal, *draft.GrandTotal)
	}
	return nil
}

func integrityError(field string, expected, received decimal.Decimal) error {
	return apperror.NewFinancialIntegrityError(field, expected.StringFixed(money.MoneyPlaces), received.StringFixed(money.MoneyPlaces))
}

func checkMoney(field string, value *decimal.Decimal, mandatory bool) []apperror.FieldError {
	if value == nil {
		if mandatory {
			return []apperror.FieldError{required(field)}
		}
		return nil
	}
	switch {
	case value.IsNegative():
		return []apperror.FieldError{{Field: field, Message: "must not be negative"}}
	case !fitsPlaces(*value, money.MoneyPlaces):
		return []apperror.FieldError{{Field: field, Message: "must have at most 2 decimal places"}}
	case value.GreaterThanOrEqual(maxMoney):
		return []apperror.FieldError{{Field: field, Message: "must have at most 10 digits before the decimal point"}}
	}
	return nil
}

func checkTaxRate(field string, value *decimal.Decimal, mandatory bool) []apperror.FieldError {
	if value == nil {
		if mandatory {
			return []apperror.FieldError{required(field)}
		}
		return nil
	}
	if value.IsNegative() || value.GreaterThan(decimal.NewFromInt(1)) {
		return []apperror.FieldError{{Field: field, Message: "must be a fraction between 0 and 1", Received: value.String()}}
	}
	if !fitsPlaces(*value, money.TaxRatePlaces) {
		return []apperror.FieldError{{Field: field, Message: "must have at most 4 decimal places"}}
	}
	return nil
}

// fitsPlaces reports whether d has no significant digits beyond places
func fitsPlaces(d decimal.Decimal, places int32) bool {
	return d.Equal(d.Truncate(places))
}

func required(field string) apperror.FieldError {
	return apperror.FieldError{Field: field, Message: "This field is required."}
}

// newStructValidator returns a validator that names fields by their json tag
func newStructValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// structErrors converts validator output into field errors keyed by json path
func structErrors(err error) []apperror.FieldError {
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []apperror.FieldError{{Field: "non_field_errors", Message: err.Error()}}
	}

	fields := make([]apperror.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		path := fe.Namespace()
		if i := strings.Index(path, "."); i >= 0 {
			path = path[i+1:]
		}
		fields = append(fields, apperror.FieldError{Field: path, Message: tagMessage(fe)})
	}
	return fields
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return "Ensure this field has no more than " + fe.Param() + " characters."
	case "email":
		return "Enter a valid email address."
	case "len":
		return "Ensure this field has exactly " + fe.Param() + " characters."
	case "min":
		return "Ensure this field has at least " + fe.Param() + " characters."
	default:
		return "Failed on the " + fe.Tag() + " rule."
	}
}

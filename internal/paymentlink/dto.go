package paymentlink

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/frahmantamala/paylink/internal"
	"github.com/frahmantamala/paylink/internal/core/common/validation"
)

var (
	zero    = decimal.Zero
	hundred = decimal.NewFromInt(100)
)

type CreateLinkDTO struct {
	ProductName        string           `json:"product_name"`
	NormalPrice        *decimal.Decimal `json:"normal_price"`
	DiscountPercent    *decimal.Decimal `json:"discount_percent,omitempty"`
	PaymentMethods     []string         `json:"payment_methods"`
	BankBRIAccount     string           `json:"bank_bri_account,omitempty"`
	BankMandiriAccount string           `json:"bank_mandiri_account,omitempty"`
}

func (dto CreateLinkDTO) Normalize() CreateLinkDTO {
	dto.ProductName = strings.TrimSpace(dto.ProductName)
	dto.BankBRIAccount = strings.TrimSpace(dto.BankBRIAccount)
	dto.BankMandiriAccount = strings.TrimSpace(dto.BankMandiriAccount)
	return dto
}

func (dto CreateLinkDTO) Discount() decimal.Decimal {
	return decimalOrZero(dto.DiscountPercent)
}

func (dto CreateLinkDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("product_name", dto.ProductName).Required().MaxLength(200)
	v.Field("normal_price", dto.NormalPrice).Required().DecimalRange(&zero, nil, internal.ErrCodeInvalidPrice)
	v.Field("discount_percent", dto.DiscountPercent).DecimalRange(&zero, &hundred, internal.ErrCodeInvalidDiscount)
	v.Field("payment_methods", dto.PaymentMethods).Required().OneOf(internal.ErrCodeValidationFailed, MethodNames()...)
	v.Field("bank_bri_account", dto.BankBRIAccount).MaxLength(64)
	v.Field("bank_mandiri_account", dto.BankMandiriAccount).MaxLength(64)
	return v.Validate()
}

type QuoteDTO struct {
	NormalPrice     *decimal.Decimal `json:"normal_price"`
	DiscountPercent *decimal.Decimal `json:"discount_percent,omitempty"`
}

func (dto QuoteDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("normal_price", dto.NormalPrice).Required().DecimalRange(&zero, nil, internal.ErrCodeInvalidPrice)
	v.Field("discount_percent", dto.DiscountPercent).DecimalRange(&zero, &hundred, internal.ErrCodeInvalidDiscount)
	return v.Validate()
}

type CreateLinkResult struct {
	Link *PaymentLink `json:"link"`
	URL  string       `json:"url"`
}

type LinkView struct {
	*PaymentLink
	URL string `json:"url"`
}

type LinksResponse struct {
	Links []LinkView `json:"links"`
}

type DeleteLinkResult struct {
	ID              string `json:"id"`
	Slug            string `json:"slug"`
	DeletedPayments int64  `json:"deleted_payments"`
}

func decimalOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

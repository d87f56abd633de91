package payment

import (
	"strings"

	"github.com/frahmantamala/paylink/internal"
	"github.com/frahmantamala/paylink/internal/core/common/validation"
)

type SubmitPaymentDTO struct {
	PaymentMethod string `json:"payment_method" validate:"required"`
	BuyerName     string `json:"buyer_name" validate:"required,max=200"`
	BuyerEmail    string `json:"buyer_email" validate:"required,email,max=320"`
	BuyerWhatsapp string `json:"buyer_whatsapp" validate:"required,max=32"`
}

func (dto SubmitPaymentDTO) Normalize() SubmitPaymentDTO {
	return SubmitPaymentDTO{
		PaymentMethod: strings.ToLower(strings.TrimSpace(dto.PaymentMethod)),
		BuyerName:     strings.TrimSpace(dto.BuyerName),
		BuyerEmail:    strings.TrimSpace(dto.BuyerEmail),
		BuyerWhatsapp: strings.TrimSpace(dto.BuyerWhatsapp),
	}
}

func (dto SubmitPaymentDTO) Validate() *internal.AppError {
	return validation.Struct(dto)
}

type PaymentsResponse struct {
	Payments []*Payment `json:"payments"`
}

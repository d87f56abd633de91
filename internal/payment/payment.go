package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	paymentDatamodel "github.com/frahmantamala/paylink/internal/core/datamodel/payment"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusRejected  Status = "rejected"
)

func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPending, StatusConfirmed, StatusRejected:
		return Status(s), true
	}
	return "", false
}

func (s Status) IsTerminal() bool {
	return s == StatusConfirmed || s == StatusRejected
}

// CanTransitionTo allows pending -> confirmed and pending -> rejected only.
func (s Status) CanTransitionTo(to Status) bool {
	return s == StatusPending && to.IsTerminal()
}

type Payment struct {
	ID            string    `json:"id"`
	PaymentLinkID string    `json:"payment_link_id"`
	BuyerName     string    `json:"buyer_name"`
	BuyerEmail    string    `json:"buyer_email"`
	BuyerWhatsapp string    `json:"buyer_whatsapp"`
	PaymentMethod string    `json:"payment_method"`
	ProofImageURL *string   `json:"proof_image_url"`
	Status        Status    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Populated from the parent link when the row was loaded with it.
	ProductName string           `json:"product_name,omitempty"`
	FinalPrice  *decimal.Decimal `json:"final_price,omitempty"`
}

func ToDataModel(p *Payment) *paymentDatamodel.Payment {
	m := &paymentDatamodel.Payment{
		BuyerName:     p.BuyerName,
		BuyerEmail:    p.BuyerEmail,
		BuyerWhatsapp: p.BuyerWhatsapp,
		PaymentMethod: p.PaymentMethod,
		ProofImageURL: p.ProofImageURL,
		Status:        string(p.Status),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	if id, err := uuid.Parse(p.ID); err == nil {
		m.ID = id
	}
	if linkID, err := uuid.Parse(p.PaymentLinkID); err == nil {
		m.PaymentLinkID = linkID
	}
	return m
}

func FromDataModel(m *paymentDatamodel.Payment) *Payment {
	p := &Payment{
		ID:            m.ID.String(),
		PaymentLinkID: m.PaymentLinkID.String(),
		BuyerName:     m.BuyerName,
		BuyerEmail:    m.BuyerEmail,
		BuyerWhatsapp: m.BuyerWhatsapp,
		PaymentMethod: m.PaymentMethod,
		ProofImageURL: m.ProofImageURL,
		Status:        Status(m.Status),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
	if m.PaymentLink != nil {
		p.ProductName = m.PaymentLink.ProductName
		price := m.PaymentLink.FinalPrice
		p.FinalPrice = &price
	}
	return p
}

func FromDataModels(ms []*paymentDatamodel.Payment) []*Payment {
	out := make([]*Payment, 0, len(ms))
	for _, m := range ms {
		out = append(out, FromDataModel(m))
	}
	return out
}

package paymentlink

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	linkDatamodel "github.com/frahmantamala/paylink/internal/core/datamodel/paymentlink"
)

// Method is a settlement channel a link accepts.
type Method string

const (
	MethodBRI     Method = "bri"
	MethodMandiri Method = "mandiri"
	MethodQRIS    Method = "qris"
)

// Methods lists every method in canonical order.
var Methods = []Method{MethodBRI, MethodMandiri, MethodQRIS}

func MethodNames() []string {
	names := make([]string, len(Methods))
	for i, m := range Methods {
		names[i] = string(m)
	}
	return names
}

func ParseMethod(s string) (Method, bool) {
	m := Method(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Methods {
		if m == known {
			return m, true
		}
	}
	return "", false
}

// NormalizeMethods drops unknown entries and duplicates and returns canonical order.
func NormalizeMethods(in []string) []string {
	seen := make(map[Method]bool, len(in))
	for _, s := range in {
		if m, ok := ParseMethod(s); ok {
			seen[m] = true
		}
	}
	out := make([]string, 0, len(seen))
	for _, m := range Methods {
		if seen[m] {
			out = append(out, string(m))
		}
	}
	return out
}

type PaymentLink struct {
	ID                 string          `json:"id"`
	Slug               string          `json:"slug"`
	ProductName        string          `json:"product_name"`
	NormalPrice        decimal.Decimal `json:"normal_price"`
	DiscountPercent    decimal.Decimal `json:"discount_percent"`
	FinalPrice         decimal.Decimal `json:"final_price"`
	PaymentMethods     []string        `json:"payment_methods"`
	BankBRIAccount     *string         `json:"bank_bri_account"`
	BankMandiriAccount *string         `json:"bank_mandiri_account"`
	QRISImageURL       *string         `json:"qris_image_url"`
	CreatedBy          *string         `json:"created_by,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
}

func (l *PaymentLink) Accepts(method string) bool {
	m, ok := ParseMethod(method)
	if !ok {
		return false
	}
	for _, accepted := range l.PaymentMethods {
		if accepted == string(m) {
			return true
		}
	}
	return false
}

func (l *PaymentLink) PublicPath() string {
	return "/pay/" + l.Slug
}

func ToDataModel(l *PaymentLink) *linkDatamodel.PaymentLink {
	m := &linkDatamodel.PaymentLink{
		Slug:               l.Slug,
		ProductName:        l.ProductName,
		NormalPrice:        l.NormalPrice,
		DiscountPercent:    l.DiscountPercent,
		FinalPrice:         l.FinalPrice,
		PaymentMethods:     append([]string(nil), l.PaymentMethods...),
		BankBRIAccount:     l.BankBRIAccount,
		BankMandiriAccount: l.BankMandiriAccount,
		QRISImageURL:       l.QRISImageURL,
		CreatedAt:          l.CreatedAt,
	}
	if id, err := uuid.Parse(l.ID); err == nil {
		m.ID = id
	}
	if l.CreatedBy != nil {
		if by, err := uuid.Parse(*l.CreatedBy); err == nil {
			m.CreatedBy = &by
		}
	}
	return m
}

func FromDataModel(m *linkDatamodel.PaymentLink) *PaymentLink {
	l := &PaymentLink{
		ID:                 m.ID.String(),
		Slug:               m.Slug,
		ProductName:        m.ProductName,
		NormalPrice:        m.NormalPrice,
		DiscountPercent:    m.DiscountPercent,
		FinalPrice:         m.FinalPrice,
		PaymentMethods:     append([]string{}, m.PaymentMethods...),
		BankBRIAccount:     m.BankBRIAccount,
		BankMandiriAccount: m.BankMandiriAccount,
		QRISImageURL:       m.QRISImageURL,
		CreatedAt:          m.CreatedAt,
	}
	if m.CreatedBy != nil {
		by := m.CreatedBy.String()
		l.CreatedBy = &by
	}
	return l
}

func nonEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Package pricing derives a link's final price from its normal price and discount.
package pricing

import "github.com/shopspring/decimal"

// Scale is the number of fractional digits stored for money values.
const Scale = 2

var hundred = decimal.NewFromInt(100)

// FinalPrice returns normal - normal*discountPercent/100 rounded to Scale places.
// Inputs are not range checked; callers validate normal >= 0 and discount in [0,100].
func FinalPrice(normal, discountPercent decimal.Decimal) decimal.Decimal {
	return normal.Sub(DiscountAmount(normal, discountPercent)).Round(Scale)
}

func DiscountAmount(normal, discountPercent decimal.Decimal) decimal.Decimal {
	return normal.Mul(discountPercent).Div(hundred)
}

// Quote is the breakdown shown to an operator before a link is created.
type Quote struct {
	NormalPrice     decimal.Decimal `json:"normal_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	FinalPrice      decimal.Decimal `json:"final_price"`
}

// NewQuote rounds both inputs to Scale first so the stored values reproduce the final price.
func NewQuote(normal, discountPercent decimal.Decimal) Quote {
	normal = normal.Round(Scale)
	discountPercent = discountPercent.Round(Scale)
	final := FinalPrice(normal, discountPercent)
	return Quote{
		NormalPrice:     normal,
		DiscountPercent: discountPercent,
		DiscountAmount:  normal.Sub(final),
		FinalPrice:      final,
	}
}

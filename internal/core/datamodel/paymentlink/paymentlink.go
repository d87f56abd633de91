package paymentlink

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PaymentLink struct {
	ID                 uuid.UUID                   `gorm:"type:uuid;primaryKey"`
	Slug               string                      `gorm:"column:slug;type:varchar(8);uniqueIndex;not null"`
	ProductName        string                      `gorm:"column:product_name;not null"`
	NormalPrice        decimal.Decimal             `gorm:"column:normal_price;type:numeric(14,2);not null"`
	DiscountPercent    decimal.Decimal             `gorm:"column:discount_percent;type:numeric(5,2);not null;default:0"`
	FinalPrice         decimal.Decimal             `gorm:"column:final_price;type:numeric(14,2);not null"`
	PaymentMethods     datatypes.JSONSlice[string] `gorm:"column:payment_methods;not null"`
	BankBRIAccount     *string                     `gorm:"column:bank_bri_account"`
	BankMandiriAccount *string                     `gorm:"column:bank_mandiri_account"`
	QRISImageURL       *string                     `gorm:"column:qris_image_url"`
	CreatedBy          *uuid.UUID                  `gorm:"column:created_by;type:uuid"`
	CreatedAt          time.Time                   `gorm:"column:created_at;autoCreateTime;index"`
}

func (PaymentLink) TableName() string {
	return "payment_links"
}

func (l *PaymentLink) BeforeCreate(_ *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

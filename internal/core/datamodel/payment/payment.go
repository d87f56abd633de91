package payment

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	linkDatamodel "github.com/frahmantamala/paylink/internal/core/datamodel/paymentlink"
)

type Payment struct {
	ID            uuid.UUID                  `gorm:"type:uuid;primaryKey"`
	PaymentLinkID uuid.UUID                  `gorm:"column:payment_link_id;type:uuid;not null;index"`
	PaymentLink   *linkDatamodel.PaymentLink `gorm:"foreignKey:PaymentLinkID;constraint:OnDelete:CASCADE"`
	BuyerName     string                     `gorm:"column:buyer_name;not null"`
	BuyerEmail    string                     `gorm:"column:buyer_email;not null"`
	BuyerWhatsapp string                     `gorm:"column:buyer_whatsapp;not null"`
	PaymentMethod string                     `gorm:"column:payment_method;not null"`
	ProofImageURL *string                    `gorm:"column:proof_image_url"`
	Status        string                     `gorm:"column:status;not null;default:pending"`
	CreatedAt     time.Time                  `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt     time.Time                  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Payment) TableName() string {
	return "payments"
}

func (p *Payment) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/frahmantamala/paylink/internal"
	"github.com/frahmantamala/paylink/internal/core/datamodel/payment"
	linkDatamodel "github.com/frahmantamala/paylink/internal/core/datamodel/paymentlink"
	"github.com/frahmantamala/paylink/internal/core/dberr"
	"github.com/frahmantamala/paylink/internal/paymentlink"
)

type PaymentLinkRepository struct {
	db *gorm.DB
}

func NewPaymentLinkRepository(db *gorm.DB) paymentlink.RepositoryAPI {
	return &PaymentLinkRepository{db: db}
}

func (r *PaymentLinkRepository) Create(ctx context.Context, link *linkDatamodel.PaymentLink) error {
	err := r.db.WithContext(ctx).Create(link).Error
	if dberr.IsUniqueViolation(err) {
		return internal.ErrSlugTaken.WithCause(err)
	}
	return err
}

func (r *PaymentLinkRepository) List(ctx context.Context) ([]*linkDatamodel.PaymentLink, error) {
	var links []*linkDatamodel.PaymentLink
	err := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&links).Error
	return links, err
}

func (r *PaymentLinkRepository) ListByOwner(ctx context.Context, owner uuid.UUID) ([]*linkDatamodel.PaymentLink, error) {
	var links []*linkDatamodel.PaymentLink
	err := r.db.WithContext(ctx).Where("created_by = ?", owner).Order("created_at DESC").Order("id DESC").Find(&links).Error
	return links, err
}

func (r *PaymentLinkRepository) GetByID(ctx context.Context, id uuid.UUID) (*linkDatamodel.PaymentLink, error) {
	var link linkDatamodel.PaymentLink
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &link, nil
}

func (r *PaymentLinkRepository) GetBySlug(ctx context.Context, slug string) (*linkDatamodel.PaymentLink, error) {
	var link linkDatamodel.PaymentLink
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &link, nil
}

// Delete removes the link row; dependent payments go with it through ON DELETE CASCADE.
func (r *PaymentLinkRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&linkDatamodel.PaymentLink{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *PaymentLinkRepository) CountPayments(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&payment.Payment{}).Where("payment_link_id = ?", id).Count(&count).Error
	return count, err
}

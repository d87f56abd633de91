package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/frahmantamala/paylink/internal"
	paymentDatamodel "github.com/frahmantamala/paylink/internal/core/datamodel/payment"
	"github.com/frahmantamala/paylink/internal/core/dberr"
	paymentpkg "github.com/frahmantamala/paylink/internal/payment"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) paymentpkg.RepositoryAPI {
	return &PaymentRepository{
		db: db,
	}
}

// Create inserts the payment. A missing parent link surfaces as ErrLinkNotFound.
func (r *PaymentRepository) Create(ctx context.Context, p *paymentDatamodel.Payment) error {
	err := r.db.WithContext(ctx).Omit("PaymentLink").Create(p).Error
	if dberr.IsForeignKeyViolation(err) {
		return internal.ErrLinkNotFound.WithCause(err)
	}
	return err
}

func (r *PaymentRepository) withLink(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Joins("PaymentLink").
		Order("payments.created_at DESC").
		Order("payments.id DESC")
}

func (r *PaymentRepository) List(ctx context.Context) ([]*paymentDatamodel.Payment, error) {
	var payments []*paymentDatamodel.Payment
	err := r.withLink(ctx).Find(&payments).Error
	return payments, err
}

func (r *PaymentRepository) ListByLink(ctx context.Context, linkID uuid.UUID) ([]*paymentDatamodel.Payment, error) {
	var payments []*paymentDatamodel.Payment
	err := r.withLink(ctx).Where("payments.payment_link_id = ?", linkID).Find(&payments).Error
	return payments, err
}

func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*paymentDatamodel.Payment, error) {
	var p paymentDatamodel.Payment
	err := r.db.WithContext(ctx).Joins("PaymentLink").Where("payments.id = ?", id).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// UpdateStatus moves a payment from one status to another. It reports false when the
// payment does not exist or is no longer in the from status.
func (r *PaymentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&paymentDatamodel.Payment{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *PaymentRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&paymentDatamodel.Payment{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Package moderation lets admins review buyer submissions and settle their status.
package moderation

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/frahmantamala/paylink/internal"
	"github.com/frahmantamala/paylink/internal/core/events"
	"github.com/frahmantamala/paylink/internal/payment"
)

type AssetStore interface {
	RemoveProof(ctx context.Context, publicURL string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type Service struct {
	repo      payment.RepositoryAPI
	assets    AssetStore
	publisher EventPublisher
	logger    *slog.Logger
}

func NewService(repo payment.RepositoryAPI, assets AssetStore, publisher EventPublisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		assets:    assets,
		publisher: publisher,
		logger:    logger,
	}
}

// ListPayments returns every payment with its link's product name and final price, newest first.
func (s *Service) ListPayments(ctx context.Context) ([]*payment.Payment, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list payments", "error", err)
		return nil, internal.NewInternalError("failed to list payments", err)
	}
	return payment.FromDataModels(records), nil
}

func (s *Service) ListLinkPayments(ctx context.Context, linkID string) ([]*payment.Payment, error) {
	id, err := uuid.Parse(linkID)
	if err != nil {
		return nil, internal.ErrLinkNotFound
	}
	records, err := s.repo.ListByLink(ctx, id)
	if err != nil {
		s.logger.Error("failed to list link payments", "error", err, "link_id", linkID)
		return nil, internal.NewInternalError("failed to list payments", err)
	}
	return payment.FromDataModels(records), nil
}

// SetStatus settles a pending payment as confirmed or rejected. Settled payments are final.
func (s *Service) SetStatus(ctx context.Context, session internal.Session, paymentID, newStatus string) (*StatusChangeResult, error) {
	to, ok := payment.ParseStatus(newStatus)
	if !ok || !to.IsTerminal() {
		return nil, internal.ErrInvalidPaymentStatus.WithDetails(internal.ValidationErrors{Errors: []internal.ValidationError{{
			Field:   "status",
			Message: "status must be one of confirmed, rejected",
			Code:    string(internal.ErrCodeInvalidPaymentStatus),
		}}})
	}

	id, err := uuid.Parse(paymentID)
	if err != nil {
		return nil, internal.ErrPaymentNotFound
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get payment", "error", err, "payment_id", paymentID)
		return nil, internal.NewInternalError("failed to update payment status", err)
	}
	if current == nil {
		return nil, internal.ErrPaymentNotFound
	}

	from := payment.Status(current.Status)
	if !from.CanTransitionTo(to) {
		s.logger.Warn("refusing payment status transition",
			"payment_id", paymentID,
			"from", from,
			"to", to,
			"actor_id", session.UserID)
		return nil, internal.ErrInvalidPaymentStatus
	}

	updated, err := s.repo.UpdateStatus(ctx, id, string(from), string(to))
	if err != nil {
		s.logger.Error("failed to update payment status", "error", err, "payment_id", paymentID)
		return nil, internal.NewInternalError("failed to update payment status", err)
	}
	if !updated {
		// settled or deleted since the read
		s.logger.Warn("payment status changed concurrently", "payment_id", paymentID, "to", to)
		return nil, internal.ErrInvalidPaymentStatus
	}

	if err := s.publisher.Publish(ctx, events.NewPaymentStatusChangedEvent(paymentID, string(from), string(to), session.UserID)); err != nil {
		s.logger.Warn("failed to publish payment status event", "error", err, "payment_id", paymentID)
	}

	s.logger.Info("payment status updated",
		"payment_id", paymentID,
		"from", from,
		"to", to,
		"actor_id", session.UserID)

	return &StatusChangeResult{ID: paymentID, FromStatus: string(from), Status: string(to)}, nil
}

func (s *Service) DeletePayment(ctx context.Context, session internal.Session, paymentID string) (*DeletePaymentResult, error) {
	id, err := uuid.Parse(paymentID)
	if err != nil {
		return nil, internal.ErrPaymentNotFound
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get payment", "error", err, "payment_id", paymentID)
		return nil, internal.NewInternalError("failed to delete payment", err)
	}
	if current == nil {
		return nil, internal.ErrPaymentNotFound
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		s.logger.Error("failed to delete payment", "error", err, "payment_id", paymentID)
		return nil, internal.NewInternalError("failed to delete payment", err)
	}
	if !deleted {
		return nil, internal.ErrPaymentNotFound
	}

	if current.ProofImageURL != nil {
		if err := s.assets.RemoveProof(ctx, *current.ProofImageURL); err != nil {
			s.logger.Warn("failed to remove payment proof", "error", err, "payment_id", paymentID)
		}
	}

	s.logger.Info("payment deleted", "payment_id", paymentID, "actor_id", session.UserID)
	return &DeletePaymentResult{ID: paymentID}, nil
}

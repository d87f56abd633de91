package payment

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/frahmantamala/paylink/internal"
	paymentDatamodel "github.com/frahmantamala/paylink/internal/core/datamodel/payment"
	"github.com/frahmantamala/paylink/internal/core/events"
	"github.com/frahmantamala/paylink/internal/paymentlink"
	"github.com/frahmantamala/paylink/internal/storage"
)

type RepositoryAPI interface {
	Create(ctx context.Context, p *paymentDatamodel.Payment) error
	List(ctx context.Context) ([]*paymentDatamodel.Payment, error)
	ListByLink(ctx context.Context, linkID uuid.UUID) ([]*paymentDatamodel.Payment, error)
	GetByID(ctx context.Context, id uuid.UUID) (*paymentDatamodel.Payment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type LinkResolver interface {
	GetLink(ctx context.Context, slug string) (*paymentlink.PaymentLink, error)
}

type AssetStore interface {
	PutProof(ctx context.Context, f *storage.File) (*storage.Object, error)
	Remove(ctx context.Context, obj storage.Object) error
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type Service struct {
	repo      RepositoryAPI
	links     LinkResolver
	assets    AssetStore
	publisher EventPublisher
	inflight  *inflight
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, links LinkResolver, assets AssetStore, publisher EventPublisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		links:     links,
		assets:    assets,
		publisher: publisher,
		inflight:  newInflight(),
		logger:    logger,
	}
}

func failed(err error) (*SubmissionResult, error) {
	result := &SubmissionResult{State: SubmissionError}
	if appErr, ok := internal.IsAppError(err); ok {
		result.Error = appErr
	}
	return result, err
}

// SubmitPayment records a buyer's payment against the link behind slug. Every check runs
// before the proof is uploaded, and a failed insert removes the uploaded proof.
func (s *Service) SubmitPayment(ctx context.Context, slug string, dto SubmitPaymentDTO, proof *storage.File) (*SubmissionResult, error) {
	link, err := s.links.GetLink(ctx, slug)
	if err != nil {
		return failed(err)
	}

	dto = dto.Normalize()
	if appErr := dto.Validate(); appErr != nil {
		s.logger.Warn("payment submission validation failed", "error", appErr.GetDetailedMessage(), "slug", slug)
		return failed(appErr)
	}
	if !link.Accepts(dto.PaymentMethod) {
		s.logger.Warn("payment method not accepted by link", "slug", slug, "method", dto.PaymentMethod, "accepted", link.PaymentMethods)
		return failed(internal.ErrMethodNotAllowed.WithDetails(internal.ValidationErrors{Errors: []internal.ValidationError{{
			Field:   "payment_method",
			Message: "payment_method must be one of " + strings.Join(link.PaymentMethods, ", "),
			Code:    string(internal.ErrCodeMethodNotAllowed),
		}}}))
	}

	key := submissionKey(link.ID, dto)
	if !s.inflight.begin(key) {
		s.logger.Warn("duplicate payment submission refused", "slug", slug, "buyer_email", dto.BuyerEmail)
		return failed(internal.ErrSubmissionInProgress)
	}
	defer s.inflight.end(key)

	var uploaded *storage.Object
	if proof != nil {
		obj, err := s.assets.PutProof(ctx, proof)
		if err != nil {
			s.logger.Error("failed to upload payment proof", "error", err, "slug", slug)
			return failed(err)
		}
		uploaded = obj
	}

	p := &Payment{
		PaymentLinkID: link.ID,
		BuyerName:     dto.BuyerName,
		BuyerEmail:    dto.BuyerEmail,
		BuyerWhatsapp: dto.BuyerWhatsapp,
		PaymentMethod: dto.PaymentMethod,
		Status:        StatusPending,
	}
	if uploaded != nil {
		p.ProofImageURL = &uploaded.URL
	}

	record := ToDataModel(p)
	if err := s.repo.Create(ctx, record); err != nil {
		s.logger.Error("failed to insert payment", "error", err, "link_id", link.ID)
		s.compensate(ctx, uploaded)
		if errors.Is(err, internal.ErrLinkNotFound) {
			return failed(internal.ErrLinkNotFound)
		}
		return failed(internal.NewInternalError("failed to submit payment", err))
	}

	created := FromDataModel(record)
	created.ProductName = link.ProductName
	price := link.FinalPrice
	created.FinalPrice = &price

	if err := s.publisher.Publish(ctx, events.NewPaymentSubmittedEvent(created.ID, link.ID, created.PaymentMethod, uploaded != nil)); err != nil {
		s.logger.Warn("failed to publish payment submitted event", "error", err, "payment_id", created.ID)
	}

	s.logger.Info("payment submitted",
		"payment_id", created.ID,
		"link_id", link.ID,
		"method", created.PaymentMethod,
		"has_proof", uploaded != nil)

	return &SubmissionResult{State: SubmissionSubmitted, Payment: created}, nil
}

func (s *Service) compensate(ctx context.Context, obj *storage.Object) {
	if obj == nil {
		return
	}
	if err := s.assets.Remove(ctx, *obj); err != nil {
		s.logger.Error("failed to remove orphaned payment proof", "error", err, "bucket", obj.Bucket, "name", obj.Name)
	}
}

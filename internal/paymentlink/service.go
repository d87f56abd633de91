package paymentlink

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/frahmantamala/paylink/internal"
	linkDatamodel "github.com/frahmantamala/paylink/internal/core/datamodel/paymentlink"
	"github.com/frahmantamala/paylink/internal/core/events"
	"github.com/frahmantamala/paylink/internal/core/pricing"
	"github.com/frahmantamala/paylink/internal/core/slug"
	"github.com/frahmantamala/paylink/internal/storage"
)

type RepositoryAPI interface {
	Create(ctx context.Context, link *linkDatamodel.PaymentLink) error
	List(ctx context.Context) ([]*linkDatamodel.PaymentLink, error)
	ListByOwner(ctx context.Context, owner uuid.UUID) ([]*linkDatamodel.PaymentLink, error)
	GetByID(ctx context.Context, id uuid.UUID) (*linkDatamodel.PaymentLink, error)
	GetBySlug(ctx context.Context, slug string) (*linkDatamodel.PaymentLink, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	CountPayments(ctx context.Context, id uuid.UUID) (int64, error)
}

type AssetStore interface {
	PutQRIS(ctx context.Context, f *storage.File) (*storage.Object, error)
	Remove(ctx context.Context, obj storage.Object) error
	RemoveQRIS(ctx context.Context, publicURL string) error
}

type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, keys ...string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type Service struct {
	repo      RepositoryAPI
	assets    AssetStore
	cache     Cache
	publisher EventPublisher
	origin    string
	newSlug   func() string
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, assets AssetStore, cache Cache, publisher EventPublisher, origin string, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		assets:    assets,
		cache:     cache,
		publisher: publisher,
		origin:    origin,
		newSlug:   slug.Generate,
		logger:    logger,
	}
}

// WithSlugGenerator replaces the random slug source.
func (s *Service) WithSlugGenerator(gen func() string) *Service {
	s.newSlug = gen
	return s
}

func CacheKey(slug string) string {
	return "payment_link:slug:" + slug
}

// URLFor returns the shareable buyer URL for a slug.
func (s *Service) URLFor(slug string) string {
	return s.origin + "/pay/" + slug
}

func (s *Service) view(l *PaymentLink) LinkView {
	return LinkView{PaymentLink: l, URL: s.URLFor(l.Slug)}
}

// CreateLink uploads the optional QRIS image, then inserts the link. When the insert fails
// the uploaded object is deleted again.
func (s *Service) CreateLink(ctx context.Context, session internal.Session, dto CreateLinkDTO, qris *storage.File) (*CreateLinkResult, error) {
	dto = dto.Normalize()
	if err := dto.Validate(); err != nil {
		s.logger.Warn("payment link validation failed", "error", err.GetDetailedMessage(), "user_id", session.UserID)
		return nil, err
	}

	methods := NormalizeMethods(dto.PaymentMethods)
	has := func(m Method) bool {
		for _, name := range methods {
			if name == string(m) {
				return true
			}
		}
		return false
	}

	var uploaded *storage.Object
	if qris != nil && has(MethodQRIS) {
		obj, err := s.assets.PutQRIS(ctx, qris)
		if err != nil {
			s.logger.Error("failed to upload qris image", "error", err, "user_id", session.UserID)
			return nil, err
		}
		uploaded = obj
	} else if qris != nil {
		s.logger.Debug("ignoring qris image for link without qris method", "filename", qris.Filename)
	}

	quote := pricing.NewQuote(*dto.NormalPrice, dto.Discount())
	link := &PaymentLink{
		Slug:            s.newSlug(),
		ProductName:     dto.ProductName,
		NormalPrice:     quote.NormalPrice,
		DiscountPercent: quote.DiscountPercent,
		FinalPrice:      quote.FinalPrice,
		PaymentMethods:  methods,
	}
	if has(MethodBRI) {
		link.BankBRIAccount = nonEmpty(dto.BankBRIAccount)
	}
	if has(MethodMandiri) {
		link.BankMandiriAccount = nonEmpty(dto.BankMandiriAccount)
	}
	if uploaded != nil {
		link.QRISImageURL = &uploaded.URL
	}
	if session.IsAuthenticated() {
		by := session.UserID
		link.CreatedBy = &by
	}

	record := ToDataModel(link)
	if err := s.repo.Create(ctx, record); err != nil {
		s.logger.Error("failed to insert payment link", "error", err, "slug", link.Slug)
		s.compensate(ctx, uploaded)
		if errors.Is(err, internal.ErrSlugTaken) {
			return nil, internal.ErrSlugTaken.WithCause(err)
		}
		return nil, internal.NewInternalError("failed to create payment link", err)
	}

	created := FromDataModel(record)
	createdBy := ""
	if created.CreatedBy != nil {
		createdBy = *created.CreatedBy
	}
	if err := s.publisher.Publish(ctx, events.NewPaymentLinkCreatedEvent(created.ID, created.Slug, created.FinalPrice.StringFixed(pricing.Scale), createdBy)); err != nil {
		s.logger.Warn("failed to publish payment link created event", "error", err, "link_id", created.ID)
	}

	s.logger.Info("payment link created",
		"link_id", created.ID,
		"slug", created.Slug,
		"methods", created.PaymentMethods,
		"final_price", created.FinalPrice.String())

	return &CreateLinkResult{Link: created, URL: s.URLFor(created.Slug)}, nil
}

func (s *Service) compensate(ctx context.Context, obj *storage.Object) {
	if obj == nil {
		return
	}
	if err := s.assets.Remove(ctx, *obj); err != nil {
		s.logger.Error("failed to remove orphaned qris image", "error", err, "bucket", obj.Bucket, "name", obj.Name)
		return
	}
	s.logger.Info("removed orphaned qris image", "bucket", obj.Bucket, "name", obj.Name)
}

// ownerScope limits link management to the caller's own rows. Admins get a nil scope.
func ownerScope(session internal.Session) (*uuid.UUID, error) {
	if session.Role == internal.RoleAdmin {
		return nil, nil
	}
	if !session.IsAuthenticated() {
		return nil, internal.ErrLoginRequired
	}
	owner, err := uuid.Parse(session.UserID)
	if err != nil {
		return nil, internal.ErrInvalidToken.WithCause(err)
	}
	return &owner, nil
}

func ownedBy(record *linkDatamodel.PaymentLink, owner *uuid.UUID) bool {
	if owner == nil {
		return true
	}
	return record.CreatedBy != nil && *record.CreatedBy == *owner
}

// ListLinks returns every link for admins and the caller's own links for everyone else.
func (s *Service) ListLinks(ctx context.Context, session internal.Session) ([]LinkView, error) {
	owner, err := ownerScope(session)
	if err != nil {
		return nil, err
	}

	var records []*linkDatamodel.PaymentLink
	if owner == nil {
		records, err = s.repo.List(ctx)
	} else {
		records, err = s.repo.ListByOwner(ctx, *owner)
	}
	if err != nil {
		s.logger.Error("failed to list payment links", "error", err)
		return nil, internal.NewInternalError("failed to list payment links", err)
	}

	views := make([]LinkView, 0, len(records))
	for _, r := range records {
		views = append(views, s.view(FromDataModel(r)))
	}
	return views, nil
}

// GetLink resolves a public slug. Unknown or malformed slugs are ErrLinkNotFound.
func (s *Service) GetLink(ctx context.Context, slugValue string) (*PaymentLink, error) {
	if !slug.Valid(slugValue) {
		return nil, internal.ErrLinkNotFound
	}

	key := CacheKey(slugValue)
	var cached PaymentLink
	hit, err := s.cache.GetJSON(ctx, key, &cached)
	if err != nil {
		s.logger.Warn("payment link cache read failed", "error", err, "slug", slugValue)
	} else if hit {
		return &cached, nil
	}

	record, err := s.repo.GetBySlug(ctx, slugValue)
	if err != nil {
		s.logger.Error("failed to get payment link", "error", err, "slug", slugValue)
		return nil, internal.NewInternalError("failed to get payment link", err)
	}
	if record == nil {
		return nil, internal.ErrLinkNotFound
	}

	link := FromDataModel(record)
	if err := s.cache.SetJSON(ctx, key, link); err != nil {
		s.logger.Warn("payment link cache write failed", "error", err, "slug", slugValue)
	}
	return link, nil
}

// DeleteLink removes a link. Its payments are removed by the database cascade. Links owned by
// someone else look missing to a non-admin caller.
func (s *Service) DeleteLink(ctx context.Context, session internal.Session, id string) (*DeleteLinkResult, error) {
	owner, err := ownerScope(session)
	if err != nil {
		return nil, err
	}

	linkID, err := uuid.Parse(id)
	if err != nil {
		return nil, internal.ErrLinkNotFound
	}

	record, err := s.repo.GetByID(ctx, linkID)
	if err != nil {
		s.logger.Error("failed to get payment link", "error", err, "link_id", id)
		return nil, internal.NewInternalError("failed to get payment link", err)
	}
	if record == nil {
		return nil, internal.ErrLinkNotFound
	}
	if !ownedBy(record, owner) {
		s.logger.Warn("refused to delete payment link owned by another user", "link_id", id, "actor_id", session.UserID)
		return nil, internal.ErrLinkNotFound
	}

	count, err := s.repo.CountPayments(ctx, linkID)
	if err != nil {
		s.logger.Error("failed to count link payments", "error", err, "link_id", id)
		return nil, internal.NewInternalError("failed to delete payment link", err)
	}

	deleted, err := s.repo.Delete(ctx, linkID)
	if err != nil {
		s.logger.Error("failed to delete payment link", "error", err, "link_id", id)
		return nil, internal.NewInternalError("failed to delete payment link", err)
	}
	if !deleted {
		return nil, internal.ErrLinkNotFound
	}

	if err := s.cache.Delete(ctx, CacheKey(record.Slug)); err != nil {
		s.logger.Warn("failed to invalidate payment link cache", "error", err, "slug", record.Slug)
	}

	if err := s.publisher.Publish(ctx, events.NewPaymentLinkDeletedEvent(id, record.Slug, count)); err != nil {
		s.logger.Warn("failed to publish payment link deleted event", "error", err, "link_id", id)
	}

	if record.QRISImageURL != nil {
		if err := s.assets.RemoveQRIS(ctx, *record.QRISImageURL); err != nil {
			s.logger.Warn("failed to remove qris image", "error", err, "link_id", id)
		}
	}

	s.logger.Info("payment link deleted",
		"link_id", id,
		"slug", record.Slug,
		"deleted_payments", count,
		"actor_id", session.UserID)

	return &DeleteLinkResult{ID: id, Slug: record.Slug, DeletedPayments: count}, nil
}

func (s *Service) Quote(dto QuoteDTO) (*pricing.Quote, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	discount := decimalOrZero(dto.DiscountPercent)
	q := pricing.NewQuote(*dto.NormalPrice, discount)
	return &q, nil
}

package paymentlink

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi"
	"github.com/shopspring/decimal"

	"github.com/frahmantamala/paylink/internal"
	"github.com/frahmantamala/paylink/internal/core/pricing"
	"github.com/frahmantamala/paylink/internal/storage"
	"github.com/frahmantamala/paylink/internal/transport"
	"github.com/frahmantamala/paylink/pkg/logger"
)

type ServiceAPI interface {
	CreateLink(ctx context.Context, session internal.Session, dto CreateLinkDTO, qris *storage.File) (*CreateLinkResult, error)
	ListLinks(ctx context.Context, session internal.Session) ([]LinkView, error)
	GetLink(ctx context.Context, slug string) (*PaymentLink, error)
	DeleteLink(ctx context.Context, session internal.Session, id string) (*DeleteLinkResult, error)
	Quote(dto QuoteDTO) (*pricing.Quote, error)
}

type Handler struct {
	*transport.BaseHandler
	Service        ServiceAPI
	MaxUploadBytes int64
}

func NewHandler(service ServiceAPI, maxUploadBytes int64) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler:    transport.NewBaseHandler(lg),
		Service:        service,
		MaxUploadBytes: maxUploadBytes,
	}
}

// CreateLink accepts multipart/form-data (with an optional "qris" image) or a JSON body.
func (h *Handler) CreateLink(w http.ResponseWriter, r *http.Request) {
	session := internal.SessionFromContext(r.Context())

	var (
		dto  CreateLinkDTO
		qris *storage.File
	)

	if transport.IsMultipart(r) {
		if appErr := h.ParseMultipart(w, r, h.MaxUploadBytes+(1<<20)); appErr != nil {
			h.Logger.Warn("CreateLink: invalid multipart body", "error", appErr)
			h.WriteAppError(w, appErr)
			return
		}

		var appErr *internal.AppError
		if dto, appErr = createLinkFromForm(r); appErr != nil {
			h.WriteAppError(w, appErr)
			return
		}

		file, closeFile, err := h.FormFile(r, "qris")
		if err != nil {
			h.Logger.Warn("CreateLink: unreadable qris file", "error", err)
			h.WriteError(w, http.StatusBadRequest, "invalid qris file")
			return
		}
		defer closeFile()
		qris = file
	} else if err := h.DecodeJSON(r, &dto); err != nil {
		h.Logger.Warn("CreateLink: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.Service.CreateLink(r.Context(), session, dto, qris)
	if err != nil {
		h.Logger.Error("CreateLink: service error", "error", err, "user_id", session.UserID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("CreateLink: payment link created", "slug", result.Link.Slug, "user_id", session.UserID)
	h.WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) ListLinks(w http.ResponseWriter, r *http.Request) {
	session := internal.SessionFromContext(r.Context())

	links, err := h.Service.ListLinks(r.Context(), session)
	if err != nil {
		h.Logger.Error("ListLinks: service error", "error", err, "user_id", session.UserID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, LinksResponse{Links: links})
}

// GetPublicLink serves the buyer view of a link addressed by slug.
func (h *Handler) GetPublicLink(w http.ResponseWriter, r *http.Request) {
	slugValue := chi.URLParam(r, "slug")

	link, err := h.Service.GetLink(r.Context(), slugValue)
	if err != nil {
		h.Logger.Warn("GetPublicLink: lookup failed", "error", err, "slug", slugValue)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, link)
}

func (h *Handler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	session := internal.SessionFromContext(r.Context())
	id := chi.URLParam(r, "id")

	result, err := h.Service.DeleteLink(r.Context(), session, id)
	if err != nil {
		h.Logger.Error("DeleteLink: service error", "error", err, "link_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	var dto QuoteDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.Logger.Warn("Quote: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	quote, err := h.Service.Quote(dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, quote)
}

func createLinkFromForm(r *http.Request) (CreateLinkDTO, *internal.AppError) {
	dto := CreateLinkDTO{
		ProductName:        r.FormValue("product_name"),
		PaymentMethods:     transport.FormValues(r, "payment_methods"),
		BankBRIAccount:     r.FormValue("bank_bri_account"),
		BankMandiriAccount: r.FormValue("bank_mandiri_account"),
	}

	var appErr *internal.AppError
	if dto.NormalPrice, appErr = decimalField(r, "normal_price", internal.ErrCodeInvalidPrice); appErr != nil {
		return dto, appErr
	}
	if dto.DiscountPercent, appErr = decimalField(r, "discount_percent", internal.ErrCodeInvalidDiscount); appErr != nil {
		return dto, appErr
	}
	return dto, nil
}

func decimalField(r *http.Request, field string, code internal.ErrorCode) (*decimal.Decimal, *internal.AppError) {
	raw := strings.TrimSpace(r.FormValue(field))
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, internal.NewValidationFieldError(field, field+" must be a number", code)
	}
	return &d, nil
}

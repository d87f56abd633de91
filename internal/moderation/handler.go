package moderation

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/paylink/internal"
	"github.com/frahmantamala/paylink/internal/payment"
	"github.com/frahmantamala/paylink/internal/transport"
	"github.com/frahmantamala/paylink/pkg/logger"
)

type ServiceAPI interface {
	ListPayments(ctx context.Context) ([]*payment.Payment, error)
	ListLinkPayments(ctx context.Context, linkID string) ([]*payment.Payment, error)
	SetStatus(ctx context.Context, session internal.Session, paymentID, newStatus string) (*StatusChangeResult, error)
	DeletePayment(ctx context.Context, session internal.Session, paymentID string) (*DeletePaymentResult, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.Service.ListPayments(r.Context())
	if err != nil {
		h.Logger.Error("ListPayments: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, payment.PaymentsResponse{Payments: payments})
}

func (h *Handler) ListLinkPayments(w http.ResponseWriter, r *http.Request) {
	linkID := chi.URLParam(r, "id")

	payments, err := h.Service.ListLinkPayments(r.Context(), linkID)
	if err != nil {
		h.Logger.Error("ListLinkPayments: service error", "error", err, "link_id", linkID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, payment.PaymentsResponse{Payments: payments})
}

func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	session := internal.SessionFromContext(r.Context())
	paymentID := chi.URLParam(r, "id")

	var dto SetStatusDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.Logger.Warn("SetStatus: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.Service.SetStatus(r.Context(), session, paymentID, dto.Status)
	if err != nil {
		h.Logger.Warn("SetStatus: service error", "error", err, "payment_id", paymentID, "status", dto.Status)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	session := internal.SessionFromContext(r.Context())
	paymentID := chi.URLParam(r, "id")

	result, err := h.Service.DeletePayment(r.Context(), session, paymentID)
	if err != nil {
		h.Logger.Error("DeletePayment: service error", "error", err, "payment_id", paymentID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

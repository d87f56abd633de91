package payment

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/paylink/internal/storage"
	"github.com/frahmantamala/paylink/internal/transport"
	"github.com/frahmantamala/paylink/pkg/logger"
)

type ServiceAPI interface {
	SubmitPayment(ctx context.Context, slug string, dto SubmitPaymentDTO, proof *storage.File) (*SubmissionResult, error)
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

// SubmitPayment takes the buyer form as multipart/form-data with an optional "proof"
// image, or as a JSON body without one.
func (h *Handler) SubmitPayment(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	var (
		dto   SubmitPaymentDTO
		proof *storage.File
	)

	if transport.IsMultipart(r) {
		if appErr := h.ParseMultipart(w, r, h.MaxUploadBytes+(1<<20)); appErr != nil {
			h.Logger.Warn("SubmitPayment: invalid multipart body", "error", appErr, "slug", slug)
			h.WriteAppError(w, appErr)
			return
		}
		dto = SubmitPaymentDTO{
			PaymentMethod: r.FormValue("payment_method"),
			BuyerName:     r.FormValue("buyer_name"),
			BuyerEmail:    r.FormValue("buyer_email"),
			BuyerWhatsapp: r.FormValue("buyer_whatsapp"),
		}

		file, closeFile, err := h.FormFile(r, "proof")
		if err != nil {
			h.Logger.Warn("SubmitPayment: unreadable proof file", "error", err, "slug", slug)
			h.WriteError(w, http.StatusBadRequest, "invalid proof file")
			return
		}
		defer closeFile()
		proof = file
	} else if err := h.DecodeJSON(r, &dto); err != nil {
		h.Logger.Warn("SubmitPayment: invalid request body", "error", err, "slug", slug)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.Service.SubmitPayment(r.Context(), slug, dto, proof)
	if err != nil {
		h.Logger.Warn("SubmitPayment: submission failed", "error", err, "slug", slug)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("SubmitPayment: payment submitted", "payment_id", result.Payment.ID, "slug", slug)
	h.WriteJSON(w, http.StatusCreated, result)
}

package user

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/paylink/internal"
	"github.com/frahmantamala/paylink/internal/transport"
	"github.com/frahmantamala/paylink/pkg/logger"
)

type ServiceAPI interface {
	GetProfile(ctx context.Context, session internal.Session) (*User, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// GetCurrentUser handles GET /users/me
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	session := internal.SessionFromContext(r.Context())

	u, err := h.Service.GetProfile(r.Context(), session)
	if err != nil {
		h.Logger.Error("GetCurrentUser: service GetProfile failed", "user_id", session.UserID, "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, u)
}

package middleware

import (
	"net/http"

	"github.com/frahmantamala/paylink/internal"
	"github.com/frahmantamala/paylink/pkg/logger"
)

// SessionFields adds the resolved actor to the request logger. It runs after the session is attached.
func SessionFields(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := internal.SessionFromContext(r.Context())
		if !session.IsAuthenticated() {
			next.ServeHTTP(w, r)
			return
		}
		ctx := logger.With(r.Context(), "user_id", session.UserID, "role", session.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

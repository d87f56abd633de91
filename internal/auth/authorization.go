package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/frahmantamala/paylink/internal"
	"github.com/frahmantamala/paylink/internal/transport"
)

// SessionResolver turns a bearer token into a session.
type SessionResolver interface {
	ResolveSession(tokenString string) internal.Session
}

// Authorize is the single capability check: what the session may do.
func Authorize(session internal.Session) internal.Role {
	if !session.IsAuthenticated() {
		return internal.RoleAnonymous
	}
	switch session.Role {
	case internal.RoleAdmin:
		return internal.RoleAdmin
	default:
		return internal.RoleUser
	}
}

// SessionMiddleware attaches the request's session, anonymous when no usable token is sent.
func SessionMiddleware(resolver SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := resolver.ResolveSession(transport.BearerToken(r))
			next.ServeHTTP(w, r.WithContext(internal.ContextWithSession(r.Context(), session)))
		})
	}
}

type guardResponse struct {
	Error      *internal.AppError `json:"error"`
	RedirectTo string             `json:"redirect_to"`
}

type Guard struct {
	*transport.BaseHandler
}

func NewGuard(logger *slog.Logger) *Guard {
	return &Guard{BaseHandler: transport.NewBaseHandler(logger)}
}

// RequireRole turns away sessions below min. Anonymous callers are sent to /login and
// signed-in callers without the role to their own home page.
func (g *Guard) RequireRole(min internal.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := internal.SessionFromContext(r.Context())
			role := Authorize(session)
			if role.AtLeast(min) {
				next.ServeHTTP(w, r)
				return
			}

			redirectTo := role.HomePath()
			var appErr *internal.AppError
			if role == internal.RoleAnonymous {
				appErr = internal.ErrLoginRequired
			} else {
				appErr = internal.NewForbiddenError("Admin access required", internal.ErrCodeAdminRequired)
			}

			g.Logger.Warn("access denied",
				"path", r.URL.Path,
				"user_id", session.UserID,
				"role", role,
				"required", min,
				"redirect_to", redirectTo)

			if wantsHTML(r) {
				http.Redirect(w, r, redirectTo, http.StatusSeeOther)
				return
			}
			g.WriteJSON(w, appErr.StatusCode, guardResponse{Error: appErr, RedirectTo: redirectTo})
		})
	}
}

func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

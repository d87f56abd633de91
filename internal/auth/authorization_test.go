package auth_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/paylink/internal"
	"github.com/frahmantamala/paylink/internal/auth"
)

type staticResolver struct {
	sessions map[string]internal.Session
}

func (s staticResolver) ResolveSession(token string) internal.Session {
	if session, ok := s.sessions[token]; ok {
		return session
	}
	return internal.AnonymousSession()
}

var _ = Describe("Authorization", func() {
	admin := internal.Session{UserID: "u-1", Email: "admin@example.com", Role: internal.RoleAdmin}
	user := internal.Session{UserID: "u-2", Email: "user@example.com", Role: internal.RoleUser}

	DescribeTable("Authorize",
		func(session internal.Session, expected internal.Role) {
			Expect(auth.Authorize(session)).To(Equal(expected))
		},
		Entry("anonymous", internal.AnonymousSession(), internal.RoleAnonymous),
		Entry("admin role without a user id", internal.Session{Role: internal.RoleAdmin}, internal.RoleAnonymous),
		Entry("user", user, internal.RoleUser),
		Entry("admin", admin, internal.RoleAdmin),
	)

	Describe("RequireRole", func() {
		var handler http.Handler

		BeforeEach(func() {
			resolver := staticResolver{sessions: map[string]internal.Session{"admin-token": admin, "user-token": user}}
			guard := auth.NewGuard(quietLogger)
			ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
			handler = auth.SessionMiddleware(resolver)(guard.RequireRole(internal.RoleAdmin)(ok))
		})

		serve := func(token, accept string) *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/payments", nil)
			if token != "" {
				req.Header.Set("Authorization", "Bearer "+token)
			}
			if accept != "" {
				req.Header.Set("Accept", accept)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			return w
		}

		redirectOf := func(w *httptest.ResponseRecorder) (string, string) {
			var body struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
				RedirectTo string `json:"redirect_to"`
			}
			Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
			return body.Error.Code, body.RedirectTo
		}

		It("lets admins through", func() {
			Expect(serve("admin-token", "").Code).To(Equal(http.StatusOK))
		})

		It("sends anonymous API clients to /login", func() {
			w := serve("", "application/json")
			Expect(w.Code).To(Equal(http.StatusUnauthorized))
			code, redirect := redirectOf(w)
			Expect(code).To(Equal("LOGIN_REQUIRED"))
			Expect(redirect).To(Equal("/login"))
		})

		It("treats an unknown token as anonymous", func() {
			w := serve("forged", "")
			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})

		It("sends signed-in users to /dashboard", func() {
			w := serve("user-token", "")
			Expect(w.Code).To(Equal(http.StatusForbidden))
			code, redirect := redirectOf(w)
			Expect(code).To(Equal("ADMIN_REQUIRED"))
			Expect(redirect).To(Equal("/dashboard"))
		})

		It("redirects browsers", func() {
			w := serve("", "text/html,application/xhtml+xml")
			Expect(w.Code).To(Equal(http.StatusSeeOther))
			Expect(w.Header().Get("Location")).To(Equal("/login"))

			w = serve("user-token", "text/html")
			Expect(w.Code).To(Equal(http.StatusSeeOther))
			Expect(w.Header().Get("Location")).To(Equal("/dashboard"))
		})
	})
})

package auth_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/paylink/internal/auth"
	authPostgres "github.com/frahmantamala/paylink/internal/auth/postgres"
	"github.com/frahmantamala/paylink/internal/transport"
)

var _ = Describe("Auth Handler", func() {
	var handler *auth.Handler

	BeforeEach(func() {
		service := auth.NewService(authPostgres.NewRepository(openUsersDB()), auth.NewJWTTokenGenerator(securityConfig), securityConfig, quietLogger)
		handler = &auth.Handler{BaseHandler: &transport.BaseHandler{Logger: quietLogger}, Service: service}
	})

	post := func(fn http.HandlerFunc, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		fn(w, req)
		return w
	}

	It("registers, logs in and logs out", func() {
		w := post(handler.Register, `{"email":"new@example.com","password":"secret1","confirm_password":"secret1","name":"New"}`)
		Expect(w.Code).To(Equal(http.StatusCreated))

		w = post(handler.Register, `{"email":"new@example.com","password":"secret1","confirm_password":"secret1"}`)
		Expect(w.Code).To(Equal(http.StatusConflict))
		Expect(w.Body.String()).To(ContainSubstring("EMAIL_TAKEN"))

		w = post(handler.Login, `{"email":"new@example.com","password":"secret1"}`)
		Expect(w.Code).To(Equal(http.StatusOK))
		var tokens auth.AuthTokens
		Expect(json.NewDecoder(w.Body).Decode(&tokens)).To(Succeed())
		Expect(tokens.RedirectTo).To(Equal("/dashboard"))

		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
		req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
		rec := httptest.NewRecorder()
		handler.Logout(rec, req)
		Expect(rec.Code).To(Equal(http.StatusNoContent))
	})

	It("returns 401 for bad credentials", func() {
		w := post(handler.Login, `{"email":"ghost@example.com","password":"secret1"}`)
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
		Expect(w.Body.String()).To(ContainSubstring("INVALID_CREDENTIALS"))
	})

	It("returns 400 for a password mismatch", func() {
		w := post(handler.Register, `{"email":"new@example.com","password":"secret1","confirm_password":"secret2"}`)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(w.Body.String()).To(ContainSubstring("PASSWORD_MISMATCH"))
	})

	It("rejects logout without a token", func() {
		w := post(handler.Logout, "")
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})
})

package auth_test

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/paylink/internal"
	"github.com/frahmantamala/paylink/internal/auth"
	authPostgres "github.com/frahmantamala/paylink/internal/auth/postgres"
	userDatamodel "github.com/frahmantamala/paylink/internal/core/datamodel/user"
)

var _ = Describe("Auth Service", func() {
	var (
		ctx     context.Context
		repo    auth.RepositoryAPI
		tokens  *auth.JWTTokenGenerator
		service *auth.Service
	)

	seedUser := func(email, password string, role internal.Role, active bool) *userDatamodel.User {
		hash, err := auth.HashPassword(password, securityConfig.BCryptCost)
		Expect(err).NotTo(HaveOccurred())
		now := time.Now().UTC()
		u := &userDatamodel.User{
			ID:           uuid.New(),
			Email:        email,
			Name:         "seed",
			PasswordHash: hash,
			Role:         string(role),
			IsActive:     active,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		Expect(repo.Create(ctx, u)).To(Succeed())
		return u
	}

	BeforeEach(func() {
		ctx = context.Background()
		repo = authPostgres.NewRepository(openUsersDB())
		tokens = auth.NewJWTTokenGenerator(securityConfig)
		service = auth.NewService(repo, tokens, securityConfig, quietLogger)
	})

	Describe("Register", func() {
		It("creates a regular user with a hashed password", func() {
			result, err := service.Register(ctx, auth.RegisterDTO{
				Email:           "  Buyer@Example.com ",
				Password:        "secret1",
				ConfirmPassword: "secret1",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Email).To(Equal("buyer@example.com"))
			Expect(result.Name).To(Equal("buyer"))
			Expect(result.Role).To(Equal(internal.RoleUser))

			stored, err := repo.GetByEmail(ctx, "buyer@example.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(stored).NotTo(BeNil())
			Expect(stored.PasswordHash).NotTo(Equal("secret1"))
			Expect(auth.VerifyPassword(stored.PasswordHash, "secret1")).To(Succeed())
		})

		It("rejects a mismatched confirmation", func() {
			_, err := service.Register(ctx, auth.RegisterDTO{Email: "a@b.co", Password: "secret1", ConfirmPassword: "secret2"})
			Expect(err).To(MatchError(internal.NewValidationError("", internal.ErrCodePasswordMismatch)))
		})

		It("rejects short passwords and bad emails", func() {
			_, err := service.Register(ctx, auth.RegisterDTO{Email: "nope", Password: "123", ConfirmPassword: "123"})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeValidationFailed))
		})

		It("rejects a duplicate email", func() {
			seedUser("taken@example.com", "secret1", internal.RoleUser, true)
			_, err := service.Register(ctx, auth.RegisterDTO{Email: "taken@example.com", Password: "secret1", ConfirmPassword: "secret1"})
			Expect(err).To(MatchError(internal.ErrEmailTaken))
		})
	})

	Describe("Authenticate", func() {
		It("sends admins to /admin", func() {
			seedUser("admin@example.com", "secret1", internal.RoleAdmin, true)
			result, err := service.Authenticate(ctx, auth.LoginDTO{Email: "admin@example.com", Password: "secret1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Role).To(Equal(internal.RoleAdmin))
			Expect(result.RedirectTo).To(Equal("/admin"))
			Expect(result.AccessToken).NotTo(BeEmpty())

			session := service.ResolveSession(result.AccessToken)
			Expect(session.Role).To(Equal(internal.RoleAdmin))
			Expect(session.Email).To(Equal("admin@example.com"))
		})

		It("sends users to /dashboard", func() {
			seedUser("user@example.com", "secret1", internal.RoleUser, true)
			result, err := service.Authenticate(ctx, auth.LoginDTO{Email: "user@example.com", Password: "secret1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.RedirectTo).To(Equal("/dashboard"))
		})

		It("does not distinguish unknown emails from wrong passwords", func() {
			seedUser("user@example.com", "secret1", internal.RoleUser, true)
			_, err := service.Authenticate(ctx, auth.LoginDTO{Email: "user@example.com", Password: "wrong-password"})
			Expect(err).To(MatchError(internal.ErrInvalidCredentials))
			_, err = service.Authenticate(ctx, auth.LoginDTO{Email: "ghost@example.com", Password: "secret1"})
			Expect(err).To(MatchError(internal.ErrInvalidCredentials))
		})

		It("refuses inactive users", func() {
			seedUser("gone@example.com", "secret1", internal.RoleUser, false)
			_, err := service.Authenticate(ctx, auth.LoginDTO{Email: "gone@example.com", Password: "secret1"})
			Expect(err).To(MatchError(internal.ErrUserInactive))
		})
	})

	Describe("Tokens", func() {
		var tokensOut *auth.AuthTokens

		BeforeEach(func() {
			seedUser("user@example.com", "secret1", internal.RoleUser, true)
			var err error
			tokensOut, err = service.Authenticate(ctx, auth.LoginDTO{Email: "user@example.com", Password: "secret1"})
			Expect(err).NotTo(HaveOccurred())
		})

		It("refreshes with a refresh token", func() {
			refreshed, err := service.RefreshTokens(ctx, tokensOut.RefreshToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(refreshed.AccessToken).NotTo(BeEmpty())
			Expect(refreshed.Role).To(Equal(internal.RoleUser))
		})

		It("does not accept an access token as a refresh token or vice versa", func() {
			_, err := service.RefreshTokens(ctx, tokensOut.AccessToken)
			Expect(err).To(MatchError(internal.ErrInvalidToken))

			_, err = service.ValidateAccessToken(tokensOut.RefreshToken)
			Expect(err).To(MatchError(internal.ErrInvalidToken))
			Expect(service.ResolveSession(tokensOut.RefreshToken).Role).To(Equal(internal.RoleAnonymous))
		})

		It("reports expired tokens", func() {
			expired := *tokens
			expired.AccessTokenTTL = -time.Minute
			token, err := expired.GenerateAccessToken(auth.Principal{UserID: uuid.NewString(), Role: internal.RoleUser})
			Expect(err).NotTo(HaveOccurred())

			_, err = tokens.ValidateAccessToken(token)
			Expect(err).To(MatchError(internal.ErrTokenExpired))
		})

		It("rejects tokens signed with another algorithm", func() {
			claims := auth.Claims{UserID: uuid.NewString(), Role: "admin", Type: auth.TokenTypeAccess,
				RegisteredClaims: jwt.RegisteredClaims{Issuer: "paylink", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}}
			unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
			Expect(err).NotTo(HaveOccurred())

			Expect(service.ResolveSession(unsigned).Role).To(Equal(internal.RoleAnonymous))
		})

		It("treats a missing token as anonymous", func() {
			Expect(service.ResolveSession("")).To(Equal(internal.AnonymousSession()))
		})
	})
})

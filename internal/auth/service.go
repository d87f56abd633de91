package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/paylink/internal"
	userDatamodel "github.com/frahmantamala/paylink/internal/core/datamodel/user"
)

// RepositoryAPI is the credential store. Lookups return nil, nil when no row matches.
type RepositoryAPI interface {
	Create(ctx context.Context, u *userDatamodel.User) error
	GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*userDatamodel.User, error)
}

// Service is the main auth service with dependencies
type Service struct {
	repo       RepositoryAPI
	tokens     TokenGenerator
	bcryptCost int
	accessTTL  time.Duration
	logger     *slog.Logger
}

func NewService(repo RepositoryAPI, tokens TokenGenerator, cfg internal.SecurityConfig, logger *slog.Logger) *Service {
	cost := cfg.BCryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Service{
		repo:       repo,
		tokens:     tokens,
		bcryptCost: cost,
		accessTTL:  cfg.AccessTokenDuration,
		logger:     logger,
	}
}

// Register creates a regular user account. Admins are only ever seeded or promoted in the database.
func (s *Service) Register(ctx context.Context, dto RegisterDTO) (*RegisterResult, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByEmail(ctx, dto.Email)
	if err != nil {
		s.logger.Error("failed to look up email", "error", err)
		return nil, internal.NewInternalError("failed to register user", err)
	}
	if existing != nil {
		return nil, internal.ErrEmailTaken
	}

	hash, err := HashPassword(dto.Password, s.bcryptCost)
	if err != nil {
		return nil, internal.NewInternalError("failed to register user", err)
	}

	now := time.Now().UTC()
	u := &userDatamodel.User{
		ID:           uuid.New(),
		Email:        dto.Email,
		Name:         dto.DisplayName(),
		PasswordHash: hash,
		Role:         string(internal.RoleUser),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, internal.ErrEmailTaken) {
			return nil, err
		}
		s.logger.Error("failed to create user", "error", err)
		return nil, internal.NewInternalError("failed to register user", err)
	}

	s.logger.Info("user registered", "user_id", u.ID.String())
	return &RegisterResult{ID: u.ID.String(), Email: u.Email, Name: u.Name, Role: internal.RoleUser}, nil
}

// Authenticate validates credentials and returns tokens
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (*AuthTokens, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	u, err := s.repo.GetByEmail(ctx, dto.Email)
	if err != nil {
		s.logger.Error("failed to load credentials", "error", err)
		return nil, internal.NewInternalError("failed to authenticate", err)
	}
	if u == nil {
		return nil, internal.ErrInvalidCredentials
	}
	if err := VerifyPassword(u.PasswordHash, dto.Password); err != nil {
		return nil, internal.ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, internal.ErrUserInactive
	}

	return s.issue(principalOf(u))
}

// RefreshTokens validates refresh token and returns new tokens. The role is re-read so a
// demotion takes effect on the next refresh.
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (*AuthTokens, error) {
	if err := (RefreshTokenDTO{RefreshToken: refreshToken}).Validate(); err != nil {
		return nil, err
	}

	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, internal.ErrInvalidToken
	}
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to load user for refresh", "error", err, "user_id", claims.UserID)
		return nil, internal.NewInternalError("failed to refresh tokens", err)
	}
	if u == nil {
		return nil, internal.ErrInvalidToken
	}
	if !u.IsActive {
		return nil, internal.ErrUserInactive
	}

	return s.issue(principalOf(u))
}

func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokens.ValidateAccessToken(tokenString)
}

// ResolveSession never fails: a missing, expired or forged token yields the anonymous session.
func (s *Service) ResolveSession(tokenString string) internal.Session {
	if tokenString == "" {
		return internal.AnonymousSession()
	}
	claims, err := s.tokens.ValidateAccessToken(tokenString)
	if err != nil {
		s.logger.Debug("ignoring unusable access token", "error", err)
		return internal.AnonymousSession()
	}
	return claims.Session()
}

func (s *Service) issue(p Principal) (*AuthTokens, error) {
	access, err := s.tokens.GenerateAccessToken(p)
	if err != nil {
		return nil, internal.NewInternalError("failed to issue tokens", err)
	}
	refresh, err := s.tokens.GenerateRefreshToken(p)
	if err != nil {
		return nil, internal.NewInternalError("failed to issue tokens", err)
	}

	return &AuthTokens{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessTTL.Seconds()),
		Role:         p.Role,
		RedirectTo:   p.Role.HomePath(),
	}, nil
}

func principalOf(u *userDatamodel.User) Principal {
	return Principal{UserID: u.ID.String(), Email: u.Email, Role: internal.ParseRole(u.Role)}
}

func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

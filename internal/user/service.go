package user

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/frahmantamala/paylink/internal"
	userDatamodel "github.com/frahmantamala/paylink/internal/core/datamodel/user"
)

// Repository returns nil, nil when the user does not exist.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*userDatamodel.User, error)
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// GetProfile loads the signed-in account. The role comes from storage, not from the token.
func (s *Service) GetProfile(ctx context.Context, session internal.Session) (*User, error) {
	if !session.IsAuthenticated() {
		return nil, internal.ErrInvalidToken
	}

	id, err := uuid.Parse(session.UserID)
	if err != nil {
		return nil, internal.ErrUserNotFound
	}

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get user by id", "error", err, "user_id", session.UserID)
		return nil, internal.NewInternalError("failed to get user", err)
	}
	if u == nil || !u.IsActive {
		return nil, internal.ErrUserNotFound
	}

	return FromDataModel(u), nil
}

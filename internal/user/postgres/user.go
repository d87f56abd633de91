package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	userDatamodel "github.com/frahmantamala/paylink/internal/core/datamodel/user"
	"github.com/frahmantamala/paylink/internal/user"
)

func NewPostgresRepo(db *sqlx.DB) user.Repository {
	return &pgRepo{db: db}
}

type pgRepo struct {
	db *sqlx.DB
}

func (p *pgRepo) GetByID(ctx context.Context, id uuid.UUID) (*userDatamodel.User, error) {
	var u userDatamodel.User
	query := p.db.Rebind(`SELECT id, email, name, password_hash, role, is_active, created_at, updated_at FROM users WHERE id = ?`)
	if err := p.db.GetContext(ctx, &u, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &u, nil
}

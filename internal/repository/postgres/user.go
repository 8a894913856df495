package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/medbridge/portal-api/internal/model"
	"github.com/medbridge/portal-api/internal/repository"
)

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `
		SELECT id, name, email, role, COALESCE(specialty, '') AS specialty
		FROM users
		WHERE id = $1
	`
	var user model.User
	err := r.do(ctx, "user_get", func(ctx context.Context) error {
		return r.db.GetContext(ctx, &user, query, id)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

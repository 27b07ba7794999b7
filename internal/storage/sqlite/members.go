package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/esusuhq/esusu/internal/models"
	"github.com/esusuhq/esusu/internal/storage"
)

// CreateMember inserts a new member into the database.
func (s *SQLiteStore) CreateMember(ctx context.Context, member *models.Member) error {
	query := `
		INSERT INTO members (id, name, email, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		member.ID,
		member.Name,
		member.Email,
		member.PasswordHash,
		member.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create member: %w", err)
	}

	return nil
}

// GetMemberByID retrieves a member by their ID.
func (s *SQLiteStore) GetMemberByID(ctx context.Context, id string) (*models.Member, error) {
	return s.getMember(ctx, "id", id)
}

// GetMemberByEmail retrieves a member by their email address.
func (s *SQLiteStore) GetMemberByEmail(ctx context.Context, email string) (*models.Member, error) {
	return s.getMember(ctx, "email", email)
}

func (s *SQLiteStore) getMember(ctx context.Context, column, value string) (*models.Member, error) {
	query := fmt.Sprintf(`
		SELECT id, name, email, password_hash, created_at
		FROM members
		WHERE %s = ?
	`, column)

	member := &models.Member{}
	err := s.db.QueryRowContext(ctx, query, value).Scan(
		&member.ID,
		&member.Name,
		&member.Email,
		&member.PasswordHash,
		&member.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: member %s=%s", storage.ErrNotFound, column, value)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}

	return member, nil
}

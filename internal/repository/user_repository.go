package repository

import (
	"context"
	"database/sql"

	"github.com/facilityinspect/server/internal/models"
)

// UserRepository handles user persistence
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

// Add inserts a new user
func (r *UserRepository) Add(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, org_id, email, display_name, role, api_key_hash, password_hash, created_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.OrgID,
		user.Email,
		user.DisplayName,
		user.Role,
		user.APIKeyHash,
		user.PasswordHash,
		user.CreatedAt,
		user.IsActive,
	)

	return err
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, org_id, email, display_name, role, api_key_hash, password_hash, created_at, is_active
		FROM users WHERE id = $1
	`

	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// GetByAPIKeyHash retrieves a user by the SHA256 hash of their API key
func (r *UserRepository) GetByAPIKeyHash(ctx context.Context, keyHash string) (*models.User, error) {
	query := `
		SELECT id, org_id, email, display_name, role, api_key_hash, password_hash, created_at, is_active
		FROM users WHERE api_key_hash = $1
	`

	return r.scanOne(r.db.QueryRowContext(ctx, query, keyHash))
}

func (r *UserRepository) scanOne(row *sql.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.OrgID,
		&user.Email,
		&user.DisplayName,
		&user.Role,
		&user.APIKeyHash,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.IsActive,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

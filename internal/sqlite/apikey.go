package sqlite

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/ganot/placement-desk/internal/repository"
)

// APIKeyRepository implements repository.APIKeyRepository for SQLite.
// Only the SHA-256 of each token is stored.
type APIKeyRepository struct {
	db *DB
}

// NewAPIKeyRepository creates a new APIKeyRepository
func NewAPIKeyRepository(db *DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

// Create stores token for operator.
func (r *APIKeyRepository) Create(ctx context.Context, token, operator, description string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO api_keys (key_hash, operator, created_at, description) VALUES (?, ?, ?, ?)`,
		HashToken(token), operator, time.Now().UTC(), description)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("api key for %s: %w", operator, repository.ErrConflict)
		}
		return fmt.Errorf("failed to create api key: %w", err)
	}
	return nil
}

// Resolve returns the operator owning token and stamps its last use.
func (r *APIKeyRepository) Resolve(ctx context.Context, token string) (string, error) {
	hash := HashToken(token)

	var operator string
	err := r.db.QueryRowContext(ctx, `SELECT operator FROM api_keys WHERE key_hash = ?`, hash).Scan(&operator)
	if errors.Is(err, sql.ErrNoRows) {
		return "", repository.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve api key: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, `UPDATE api_keys SET last_used = ? WHERE key_hash = ?`, time.Now().UTC(), hash); err != nil {
		return "", fmt.Errorf("failed to record api key use: %w", err)
	}
	return operator, nil
}

// HashToken returns the hex SHA-256 of token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

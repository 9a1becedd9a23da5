package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/artconnect/artconnect/internal/db"
	"github.com/artconnect/artconnect/internal/models"
)

// PostgresFollowRepository provides PostgreSQL-backed persistence for follow relationships.
type PostgresFollowRepository struct {
	pool db.Pool
}

// NewPostgresFollowRepository constructs a follow repository backed by PostgreSQL.
func NewPostgresFollowRepository(pool db.Pool) *PostgresFollowRepository {
	return &PostgresFollowRepository{pool: pool}
}

// Toggle follows or unfollows followedID and returns the resulting state.
func (r *PostgresFollowRepository) Toggle(ctx context.Context, followerID, followedID string) (models.FollowState, error) {
	var state models.FollowState

	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM follows WHERE follower_id = $1 AND followed_id = $2`, followerID, followedID)
		if err != nil {
			return fmt.Errorf("delete follow: %w", err)
		}

		if tag.RowsAffected() == 0 {
			if _, err := tx.Exec(ctx, `
                INSERT INTO follows (id, follower_id, followed_id, created_at)
                VALUES ($1, $2, $3, NOW())
            `, uuid.NewString(), followerID, followedID); err != nil {
				if translate(err) == ErrNotFound {
					return ErrNotFound
				}
				return fmt.Errorf("insert follow: %w", err)
			}
			state.Following = true
		}

		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM follows WHERE followed_id = $1`, followedID).Scan(&state.FollowerCount); err != nil {
			return fmt.Errorf("count followers: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.FollowState{}, err
	}

	return state, nil
}

// FollowerCount reports how many accounts follow userID.
func (r *PostgresFollowRepository) FollowerCount(ctx context.Context, userID string) (int, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var count int
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM follows WHERE followed_id = $1`, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count followers: %w", err)
	}
	return count, nil
}

var _ FollowRepository = (*PostgresFollowRepository)(nil)

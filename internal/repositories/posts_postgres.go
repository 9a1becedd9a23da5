package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/artconnect/artconnect/internal/db"
	"github.com/artconnect/artconnect/internal/models"
)

// PostgresPostRepository provides PostgreSQL-backed persistence for posts, likes and comments.
type PostgresPostRepository struct {
	pool db.Pool
}

// NewPostgresPostRepository constructs a post repository backed by PostgreSQL.
func NewPostgresPostRepository(pool db.Pool) *PostgresPostRepository {
	return &PostgresPostRepository{pool: pool}
}

// Create stores a new post.
func (r *PostgresPostRepository) Create(ctx context.Context, post models.Post) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	status := post.ImageStatus
	if strings.TrimSpace(status) == "" {
		status = models.ImageStatusExternal
	}

	_, err = conn.Exec(ctx, `
        INSERT INTO posts (id, user_id, image_url, image_status, caption, hashtags, story, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `, post.ID, post.UserID, post.ImageURL, status, post.Caption, post.Hashtags, post.Story, post.CreatedAt)
	if err != nil {
		switch translate(err) {
		case ErrConflict:
			return ErrConflict
		case ErrNotFound:
			return ErrNotFound
		}
		return fmt.Errorf("insert post: %w", err)
	}

	return nil
}

// ListFeed returns one page of posts, newest first, with engagement counts.
func (r *PostgresPostRepository) ListFeed(ctx context.Context, page, perPage int) ([]models.Post, error) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 10
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT p.id, p.user_id, u.username, p.image_url, p.image_status, p.caption, p.hashtags, p.story, p.created_at,
               (SELECT COUNT(*) FROM likes l WHERE l.post_id = p.id),
               (SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id)
        FROM posts p
        JOIN users u ON u.id = p.user_id
        ORDER BY p.created_at DESC
        LIMIT $1 OFFSET $2
    `, perPage, (page-1)*perPage)
	if err != nil {
		return nil, fmt.Errorf("query feed: %w", err)
	}
	return collectPosts(rows)
}

// ListByUser returns every post by userID, newest first.
func (r *PostgresPostRepository) ListByUser(ctx context.Context, userID string) ([]models.Post, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT p.id, p.user_id, u.username, p.image_url, p.image_status, p.caption, p.hashtags, p.story, p.created_at,
               (SELECT COUNT(*) FROM likes l WHERE l.post_id = p.id),
               (SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id)
        FROM posts p
        JOIN users u ON u.id = p.user_id
        WHERE p.user_id = $1
        ORDER BY p.created_at DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query user posts: %w", err)
	}
	return collectPosts(rows)
}

// ToggleLike flips the user's like on a post and reports the resulting state.
func (r *PostgresPostRepository) ToggleLike(ctx context.Context, userID, postID string) (models.LikeState, error) {
	var state models.LikeState

	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := requirePost(ctx, tx, postID); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `DELETE FROM likes WHERE user_id = $1 AND post_id = $2`, userID, postID)
		if err != nil {
			return fmt.Errorf("delete like: %w", err)
		}

		if tag.RowsAffected() == 0 {
			if _, err := tx.Exec(ctx, `
                INSERT INTO likes (id, user_id, post_id, created_at)
                VALUES ($1, $2, $3, NOW())
            `, uuid.NewString(), userID, postID); err != nil {
				if translate(err) == ErrNotFound {
					return ErrNotFound
				}
				return fmt.Errorf("insert like: %w", err)
			}
			state.Liked = true
		}

		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM likes WHERE post_id = $1`, postID).Scan(&state.LikeCount); err != nil {
			return fmt.Errorf("count likes: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.LikeState{}, err
	}

	return state, nil
}

// CreateComment stores a comment on an existing post.
func (r *PostgresPostRepository) CreateComment(ctx context.Context, comment models.Comment) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := requirePost(ctx, tx, comment.PostID); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `
            INSERT INTO comments (id, user_id, post_id, content, created_at)
            VALUES ($1, $2, $3, $4, $5)
        `, comment.ID, comment.UserID, comment.PostID, comment.Content, comment.CreatedAt); err != nil {
			if translate(err) == ErrNotFound {
				return ErrNotFound
			}
			return fmt.Errorf("insert comment: %w", err)
		}
		return nil
	})
}

// ListComments returns the comments on a post, oldest first.
func (r *PostgresPostRepository) ListComments(ctx context.Context, postID string) ([]models.Comment, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var exists bool
	if err := conn.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM posts WHERE id = $1)`, postID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check post: %w", err)
	}
	if !exists {
		return nil, ErrNotFound
	}

	rows, err := conn.Query(ctx, `
        SELECT c.id, c.post_id, c.user_id, u.username, c.content, c.created_at
        FROM comments c
        JOIN users u ON u.id = c.user_id
        WHERE c.post_id = $1
        ORDER BY c.created_at ASC
    `, postID)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		var comment models.Comment
		if err := rows.Scan(&comment.ID, &comment.PostID, &comment.UserID, &comment.Username, &comment.Content, &comment.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comment.CreatedAt = comment.CreatedAt.UTC()
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}

	return comments, nil
}

// MarkImageReady records the mirrored location of a post image.
func (r *PostgresPostRepository) MarkImageReady(ctx context.Context, postID, location string) error {
	return r.updateImage(ctx, postID, models.ImageStatusReady, location)
}

// MarkImageFailed records a failed mirroring attempt; the original URL is kept.
func (r *PostgresPostRepository) MarkImageFailed(ctx context.Context, postID string) error {
	return r.updateImage(ctx, postID, models.ImageStatusFailed, "")
}

func (r *PostgresPostRepository) updateImage(ctx context.Context, postID, status, location string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE posts
        SET image_status = $2,
            image_url = COALESCE(NULLIF($3, ''), image_url)
        WHERE id = $1
    `, postID, status, location)
	if err != nil {
		return fmt.Errorf("update post image status %s: %w", status, err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func collectPosts(rows pgx.Rows) ([]models.Post, error) {
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		var post models.Post
		if err := rows.Scan(&post.ID, &post.UserID, &post.Username, &post.ImageURL, &post.ImageStatus,
			&post.Caption, &post.Hashtags, &post.Story, &post.CreatedAt, &post.LikeCount, &post.CommentCount); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		post.CreatedAt = post.CreatedAt.UTC()
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return posts, nil
}

func requirePost(ctx context.Context, tx pgx.Tx, postID string) error {
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM posts WHERE id = $1)`, postID).Scan(&exists); err != nil {
		return fmt.Errorf("check post: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return nil
}

var _ PostRepository = (*PostgresPostRepository)(nil)

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"photoShare/models"
)

// TimestampLayout is the fixed-width UTC layout used for posts.created_at.
// Fixed width keeps lexical order equal to chronological order.
const TimestampLayout = "2006-01-02 15:04:05.000000"

// PostRepository is the post store backed by the posts table.
type PostRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostRepository creates a PostRepository stamping posts with the wall clock.
func NewPostRepository(db *sql.DB) *PostRepository {
	return &PostRepository{db: db, now: time.Now}
}

// WithClock returns a copy of the repository that stamps posts using now.
func (r *PostRepository) WithClock(now func() time.Time) *PostRepository {
	cp := *r
	cp.now = now
	return &cp
}

// Create records a post whose image bytes are already stored at imagePath.
// Captions are not validated; an empty caption is accepted. The author must
// exist, otherwise the foreign key rejects the insert.
func (r *PostRepository) Create(ctx context.Context, username, imagePath, caption string) (*models.Post, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	conn, err := r.db.Conn(ctx)
	if err != nil {
		return nil, persistErr("acquire connection", err)
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, persistErr("begin create post", err)
	}
	defer func() { _ = tx.Rollback() }()

	createdAt := r.now().UTC()
	res, err := tx.ExecContext(ctx, `INSERT INTO posts (username, image_path, caption, created_at) VALUES (?, ?, ?, ?)`,
		username, imagePath, caption, createdAt.Format(TimestampLayout))
	if err != nil {
		return nil, persistErr("create post", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, persistErr("create post", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, persistErr("commit create post", err)
	}
	return &models.Post{
		ID:        id,
		Username:  username,
		ImagePath: imagePath,
		Caption:   caption,
		CreatedAt: createdAt.Truncate(time.Microsecond),
	}, nil
}

// ListFeed returns every post, newest first. Posts sharing a timestamp are
// ordered by id, newest first, so the sequence is stable between reads.
func (r *PostRepository) ListFeed(ctx context.Context) ([]models.Post, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT id, username, image_path, caption, created_at FROM posts ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, persistErr("list feed", err)
	}
	defer rows.Close()

	out := []models.Post{}
	for rows.Next() {
		var (
			p       models.Post
			created string
		)
		if err := rows.Scan(&p.ID, &p.Username, &p.ImagePath, &p.Caption, &created); err != nil {
			return nil, persistErr("scan post", err)
		}
		if p.CreatedAt, err = parseTimestamp(created); err != nil {
			return nil, persistErr("scan post", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("list feed", err)
	}
	return out, nil
}

// CountByUser returns how many posts username has authored.
func (r *PostRepository) CountByUser(ctx context.Context, username string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts WHERE username = ?`, username).Scan(&n); err != nil {
		return 0, persistErr("count posts", err)
	}
	return n, nil
}

// parseTimestamp accepts TimestampLayout as well as SQLite's
// CURRENT_TIMESTAMP format for rows written by hand.
func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{TimestampLayout, "2006-01-02 15:04:05", time.RFC3339Nano} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported created_at format: %q", s)
}

package models

import "time"

// Post is a single feed entry. ImagePath is an opaque reference to bytes
// already written to blob storage, never the bytes themselves.
type Post struct {
	ID        int64     `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	ImagePath string    `db:"image_path" json:"image"`
	Caption   string    `db:"caption" json:"caption"`
	CreatedAt time.Time `db:"created_at" json:"timestamp"`
}

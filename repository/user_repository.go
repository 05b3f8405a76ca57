package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"photoShare/models"
)

// UserRepository is the credential store backed by the users table.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a user. storedPassword is already in the form the password
// scheme expects. Only seeding calls this; there is no signup flow.
func (r *UserRepository) Create(ctx context.Context, username, storedPassword string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, `INSERT INTO users (username, password) VALUES (?, ?)`, username, storedPassword); err != nil {
		return nil, persistErr("create user", err)
	}
	return &models.User{Username: username, Password: storedPassword}, nil
}

// EnsureUser inserts the user unless the username is already taken.
// It reports whether a row was written.
func (r *UserRepository) EnsureUser(ctx context.Context, username, storedPassword string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `INSERT OR IGNORE INTO users (username, password) VALUES (?, ?)`, username, storedPassword)
	if err != nil {
		return false, persistErr("ensure user", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, persistErr("ensure user", err)
	}
	return n > 0, nil
}

// GetByUsername returns the stored user, or nil when no such user exists.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var u models.User
	err := r.db.QueryRowContext(ctx, `SELECT username, password FROM users WHERE username = ?`, username).Scan(&u.Username, &u.Password)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, persistErr("get user", err)
	}
	return &u, nil
}

// Delete removes a user. Nothing in the request path calls it; it exists so
// the gate's "user no longer exists" branch can be exercised.
func (r *UserRepository) Delete(ctx context.Context, username string) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE username = ?`, username)
	return persistErr("delete user", err)
}

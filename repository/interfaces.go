package repository

import (
	"context"

	"photoShare/models"
)

// UserRepositoryI is the credential store contract.
type UserRepositoryI interface {
	Create(ctx context.Context, username, storedPassword string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// PostRepositoryI is the post store contract.
type PostRepositoryI interface {
	Create(ctx context.Context, username, imagePath, caption string) (*models.Post, error)
	ListFeed(ctx context.Context) ([]models.Post, error)
	CountByUser(ctx context.Context, username string) (int, error)
}

var (
	_ UserRepositoryI = (*UserRepository)(nil)
	_ PostRepositoryI = (*PostRepository)(nil)
)

// Package seed loads the initial accounts and posts. It never drops data and
// can run on every start.
package seed

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"photoShare/internal/auth"
	"photoShare/models"
)

// Users is the part of the credential store seeding writes to.
type Users interface {
	EnsureUser(ctx context.Context, username, storedPassword string) (bool, error)
}

// Posts is the part of the post store seeding writes to.
type Posts interface {
	Create(ctx context.Context, username, imagePath, caption string) (*models.Post, error)
	CountByUser(ctx context.Context, username string) (int, error)
}

// Account is a seeded login. An empty Password is replaced by a random one,
// which makes the account usable as a post author but not for logging in.
type Account struct {
	Username string
	Password string
}

// Post is a seeded feed entry.
type Post struct {
	Username  string
	ImagePath string
	Caption   string
}

// DefaultAccounts are created on first start.
var DefaultAccounts = []Account{
	{Username: "admin", Password: "12345"},
	{Username: "nasa"},
	{Username: "isro"},
}

// DefaultPosts are created for authors that have no posts yet.
var DefaultPosts = []Post{
	{Username: "nasa", ImagePath: "/static/nasa.png", Caption: "Exploring the cosmos! 🚀"},
	{Username: "isro", ImagePath: "/static/isro.png", Caption: "Indian space achievements! 🛸"},
}

// Run creates missing accounts and the default posts of authors that have
// none. Existing accounts keep their passwords and posts, and a run that
// stopped halfway is completed by the next one.
func Run(ctx context.Context, users Users, posts Posts, hasher auth.PasswordHasher, log logrus.FieldLogger) error {
	created := map[string]bool{}
	for _, a := range DefaultAccounts {
		password := a.Password
		if password == "" {
			password = uuid.NewString()
		}
		stored, err := hasher.Hash(password)
		if err != nil {
			return fmt.Errorf("seed %s: %w", a.Username, err)
		}
		ok, err := users.EnsureUser(ctx, a.Username, stored)
		if err != nil {
			return fmt.Errorf("seed %s: %w", a.Username, err)
		}
		created[a.Username] = ok
	}
	seeded := 0
	for _, p := range DefaultPosts {
		n, err := posts.CountByUser(ctx, p.Username)
		if err != nil {
			return fmt.Errorf("seed post for %s: %w", p.Username, err)
		}
		if n > 0 {
			continue
		}
		if _, err := posts.Create(ctx, p.Username, p.ImagePath, p.Caption); err != nil {
			return fmt.Errorf("seed post for %s: %w", p.Username, err)
		}
		seeded++
	}
	log.WithFields(logrus.Fields{"created": created, "posts": seeded}).Info("seed complete")
	return nil
}

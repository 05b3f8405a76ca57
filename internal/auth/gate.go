package auth

import (
	"context"
	"errors"
	"fmt"

	"photoShare/models"
)

// ErrUnauthorized is the only failure callers of the gate see for bad
// credentials or bad tokens.
var ErrUnauthorized = errors.New("unauthorized")

// dummyStored is verified against when the username is unknown so both
// login failure paths do comparable work.
const dummyStored = "$2a$10$7EqJtq98hPqEX7fNZaFWoOa5Q8X6Q1kY5cSxQbp0YjUOyRaHzL8aG"

// UserLookup is the part of the credential store the gate needs.
type UserLookup interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// Token is the result of a successful login.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Gate turns credentials into tokens and tokens into usernames. Every
// protected operation goes through Authenticate.
type Gate struct {
	tokens *TokenService
	users  UserLookup
	hasher PasswordHasher
}

func NewGate(tokens *TokenService, users UserLookup, hasher PasswordHasher) *Gate {
	if hasher == nil {
		hasher = PlaintextHasher{}
	}
	return &Gate{tokens: tokens, users: users, hasher: hasher}
}

// Login checks the password and issues a token with the default TTL.
// Unknown users and wrong passwords are indistinguishable to the caller.
func (g *Gate) Login(ctx context.Context, username, password string) (Token, error) {
	u, err := g.users.GetByUsername(ctx, username)
	if err != nil {
		return Token{}, err
	}
	if u == nil {
		_ = g.hasher.Verify(password, dummyStored)
		return Token{}, ErrUnauthorized
	}
	if !g.hasher.Verify(password, u.Password) {
		return Token{}, ErrUnauthorized
	}
	tok, err := g.tokens.Issue(u.Username, 0)
	if err != nil {
		return Token{}, err
	}
	return Token{AccessToken: tok, TokenType: TokenType}, nil
}

// Authenticate validates the token and confirms its subject still exists.
// A valid signature alone is not enough. Validation failures wrap both
// ErrUnauthorized and the specific kind (ErrExpired and friends); storage
// faults are returned unchanged.
func (g *Gate) Authenticate(ctx context.Context, token string) (string, error) {
	subject, err := g.tokens.Validate(token)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	u, err := g.users.GetByUsername(ctx, subject)
	if err != nil {
		return "", err
	}
	if u == nil {
		return "", fmt.Errorf("%w: subject %q no longer exists", ErrUnauthorized, subject)
	}
	return u.Username, nil
}

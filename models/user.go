package models

// User is an account allowed to log in and author posts.
// It maps to the `users` table in SQLite. Password holds whatever the
// configured password scheme stores (plaintext or a bcrypt hash).
type User struct {
	Username string `db:"username" json:"username"`
	Password string `db:"password" json:"-"`
}

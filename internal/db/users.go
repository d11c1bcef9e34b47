package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"healthmate/pkg"
)

// ErrUsernameTaken is returned when registering an existing username.
var ErrUsernameTaken = errors.New("username already taken")

// ErrInvalidCredentials is returned on a failed login.  The same error covers
// an unknown username and a wrong password.
var ErrInvalidCredentials = errors.New("invalid username or password")

// pqUniqueViolation is the Postgres error code for unique constraint hits.
const pqUniqueViolation = "23505"

// UserRepository wraps account storage.  Passwords are stored as bcrypt
// hashes only.
type UserRepository struct {
	DB *sql.DB
}

// NewUserRepository constructs a UserRepository from an existing sql.DB.
// The caller is responsible for managing the DB connection lifecycle.
func NewUserRepository(db *sql.DB) *UserRepository { return &UserRepository{DB: db} }

// CreateUser registers a new account with a freshly minted id.
func (r *UserRepository) CreateUser(ctx context.Context, username, password string) (*pkg.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &pkg.User{ID: uuid.New().String(), Username: username}
	err = r.DB.QueryRowContext(ctx,
		`INSERT INTO users (id, username, password_hash)
         VALUES ($1, $2, $3)
         RETURNING created_at`,
		u.ID, u.Username, string(hash),
	).Scan(&u.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// Authenticate verifies a username/password pair and returns the account.
func (r *UserRepository) Authenticate(ctx context.Context, username, password string) (*pkg.User, error) {
	var u pkg.User
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at
         FROM users
         WHERE username = $1`,
		username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return &u, nil
}

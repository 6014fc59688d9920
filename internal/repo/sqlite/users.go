package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/addressbook/internal/domain/user"
	"github.com/geocoder89/addressbook/internal/observability"
)

type UsersRepo struct {
	db      *sql.DB
	metrics *observability.Prom
	now     func() time.Time
}

func NewUsersRepo(db *sql.DB, metrics *observability.Prom) *UsersRepo {
	return &UsersRepo{db: db, metrics: metrics, now: time.Now}
}

func (r *UsersRepo) Create(ctx context.Context, username, email, passwordHash string) (user.User, error) {
	u := user.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    fromMillis(toMillis(r.now())),
	}

	err := r.metrics.ObserveDB("users.create", func() error {
		return r.db.QueryRowContext(ctx,
			`INSERT INTO users (username, email, password_hash, created_at)
			 VALUES (?, ?, ?, ?)
			 RETURNING id`,
			username, email, passwordHash, toMillis(u.CreatedAt),
		).Scan(&u.ID)
	})

	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrConflict
		}
		return user.User{}, fmt.Errorf("insert user: %w", err)
	}

	return u, nil
}

func (r *UsersRepo) GetByUsername(ctx context.Context, username string) (user.User, error) {
	var (
		u         user.User
		createdAt int64
	)

	err := r.metrics.ObserveDB("users.get_by_username", func() error {
		return r.db.QueryRowContext(ctx,
			`SELECT id, username, email, password_hash, created_at
			 FROM users
			 WHERE username = ?`,
			username,
		).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &createdAt)
	})

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, fmt.Errorf("get user: %w", err)
	}

	u.CreatedAt = fromMillis(createdAt)
	return u, nil
}

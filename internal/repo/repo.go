// Package repo defines the storage contracts shared by the Postgres and SQLite backends.
package repo

import (
	"context"

	"github.com/geocoder89/addressbook/internal/domain/contact"
	"github.com/geocoder89/addressbook/internal/domain/user"
)

type UserStore interface {
	Create(ctx context.Context, username, email, passwordHash string) (user.User, error)
	GetByUsername(ctx context.Context, username string) (user.User, error)
}

// ContactStore operations are always scoped to ownerID.
type ContactStore interface {
	ListByOwner(ctx context.Context, ownerID int64) ([]contact.Contact, error)
	Create(ctx context.Context, ownerID int64, f contact.Fields) (contact.Contact, error)
	Update(ctx context.Context, ownerID, id int64, f contact.Fields) (contact.Contact, error)
	Delete(ctx context.Context, ownerID, id int64) error
}

// Store bundles one backend's repositories with its lifecycle hooks.
type Store struct {
	Users    UserStore
	Contacts ContactStore
	Ping     func(ctx context.Context) error
	Close    func()
}

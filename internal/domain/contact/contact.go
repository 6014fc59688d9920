package contact

import (
	"errors"
	"time"
)

// ErrNotFound covers both a missing contact and one owned by somebody else.
var ErrNotFound = errors.New("contact not found")

type Contact struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	OwnerID   int64     `json:"-"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// Fields is the full payload for both create and update. Updates replace every field.
type Fields struct {
	Name    string `json:"name" binding:"required,max=255"`
	Email   string `json:"email" binding:"required,max=255"`
	Phone   string `json:"phone" binding:"required,max=255"`
	Address string `json:"address" binding:"required,max=255"`
}

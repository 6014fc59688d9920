package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/addressbook/internal/domain/contact"
	"github.com/geocoder89/addressbook/internal/observability"
)

type ContactsRepo struct {
	db      *sql.DB
	metrics *observability.Prom
	now     func() time.Time
}

func NewContactsRepo(db *sql.DB, metrics *observability.Prom) *ContactsRepo {
	return &ContactsRepo{db: db, metrics: metrics, now: time.Now}
}

const contactColumns = `id, name, email, phone, address, owner_id, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(row rowScanner) (contact.Contact, error) {
	var (
		c                    contact.Contact
		createdAt, updatedAt int64
	)

	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.OwnerID, &createdAt, &updatedAt); err != nil {
		return contact.Contact{}, err
	}

	c.CreatedAt = fromMillis(createdAt)
	c.UpdatedAt = fromMillis(updatedAt)
	return c, nil
}

func (r *ContactsRepo) ListByOwner(ctx context.Context, ownerID int64) ([]contact.Contact, error) {
	out := make([]contact.Contact, 0)

	err := r.metrics.ObserveDB("contacts.list", func() error {
		rows, err := r.db.QueryContext(ctx,
			`SELECT `+contactColumns+`
			 FROM contacts
			 WHERE owner_id = ?
			 ORDER BY id ASC`,
			ownerID,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			c, err := scanContact(rows)
			if err != nil {
				return err
			}
			out = append(out, c)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}

	return out, nil
}

func (r *ContactsRepo) Create(ctx context.Context, ownerID int64, f contact.Fields) (contact.Contact, error) {
	var c contact.Contact
	now := toMillis(r.now())

	err := r.metrics.ObserveDB("contacts.create", func() error {
		var err error
		c, err = scanContact(r.db.QueryRowContext(ctx,
			`INSERT INTO contacts (name, email, phone, address, owner_id, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)
			 RETURNING `+contactColumns,
			f.Name, f.Email, f.Phone, f.Address, ownerID, now, now,
		))
		return err
	})

	if err != nil {
		return contact.Contact{}, fmt.Errorf("insert contact: %w", err)
	}

	return c, nil
}

func (r *ContactsRepo) Update(ctx context.Context, ownerID, id int64, f contact.Fields) (contact.Contact, error) {
	var c contact.Contact

	err := r.metrics.ObserveDB("contacts.update", func() error {
		var err error
		c, err = scanContact(r.db.QueryRowContext(ctx,
			`UPDATE contacts
			 SET name = ?, email = ?, phone = ?, address = ?, updated_at = ?
			 WHERE id = ? AND owner_id = ?
			 RETURNING `+contactColumns,
			f.Name, f.Email, f.Phone, f.Address, toMillis(r.now()), id, ownerID,
		))
		return err
	})

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return contact.Contact{}, contact.ErrNotFound
		}
		return contact.Contact{}, fmt.Errorf("update contact: %w", err)
	}

	return c, nil
}

func (r *ContactsRepo) Delete(ctx context.Context, ownerID, id int64) error {
	var affected int64

	err := r.metrics.ObserveDB("contacts.delete", func() error {
		res, err := r.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = ? AND owner_id = ?`, id, ownerID)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})

	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}

	if affected == 0 {
		return contact.ErrNotFound
	}

	return nil
}

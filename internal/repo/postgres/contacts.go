package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/addressbook/internal/domain/contact"
	"github.com/geocoder89/addressbook/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ContactsRepo struct {
	pool    *pgxpool.Pool
	metrics *observability.Prom
}

// constructor function

func NewContactsRepo(pool *pgxpool.Pool, metrics *observability.Prom) *ContactsRepo {
	return &ContactsRepo{
		pool:    pool,
		metrics: metrics,
	}
}

func (r *ContactsRepo) ListByOwner(ctx context.Context, ownerID int64) ([]contact.Contact, error) {
	output := make([]contact.Contact, 0)

	err := r.metrics.ObserveDB("contacts.list", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT id, name, email, phone, address, owner_id, created_at, updated_at
			 FROM contacts
			 WHERE owner_id = $1
			 ORDER BY id ASC`,
			ownerID,
		)

		if err != nil {
			return err
		}

		defer rows.Close()

		for rows.Next() {
			var c contact.Contact

			err = rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.OwnerID, &c.CreatedAt, &c.UpdatedAt)

			if err != nil {
				return err
			}

			output = append(output, c)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}

	return output, nil
}

func (r *ContactsRepo) Create(ctx context.Context, ownerID int64, f contact.Fields) (contact.Contact, error) {
	var c contact.Contact

	err := r.metrics.ObserveDB("contacts.create", func() error {
		return r.pool.QueryRow(ctx,
			`INSERT INTO contacts (name, email, phone, address, owner_id)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id, name, email, phone, address, owner_id, created_at, updated_at`,
			f.Name, f.Email, f.Phone, f.Address, ownerID,
		).Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.OwnerID, &c.CreatedAt, &c.UpdatedAt)
	})

	if err != nil {
		return contact.Contact{}, fmt.Errorf("insert contact: %w", err)
	}

	return c, nil
}

// Update replaces every field. A contact owned by someone else is reported as not found.
func (r *ContactsRepo) Update(ctx context.Context, ownerID, id int64, f contact.Fields) (contact.Contact, error) {
	var c contact.Contact

	err := r.metrics.ObserveDB("contacts.update", func() error {
		return r.pool.QueryRow(
			ctx,
			`UPDATE contacts
				SET name = $3,
						email = $4,
						phone = $5,
						address = $6,
						updated_at = NOW()
			WHERE id = $1 AND owner_id = $2
			RETURNING id, name, email, phone, address, owner_id, created_at, updated_at`,
			id,
			ownerID,
			f.Name,
			f.Email,
			f.Phone,
			f.Address,
		).Scan(
			&c.ID,
			&c.Name,
			&c.Email,
			&c.Phone,
			&c.Address,
			&c.OwnerID,
			&c.CreatedAt,
			&c.UpdatedAt,
		)
	})

	if err != nil {
		// no row with that id for this owner
		if errors.Is(err, pgx.ErrNoRows) {
			return contact.Contact{}, contact.ErrNotFound
		}

		return contact.Contact{}, fmt.Errorf("update contact: %w", err)
	}

	return c, nil
}

func (r *ContactsRepo) Delete(ctx context.Context, ownerID, id int64) error {
	var affected int64

	err := r.metrics.ObserveDB("contacts.delete", func() error {
		tag, err := r.pool.Exec(ctx, `
			DELETE FROM contacts WHERE id = $1 AND owner_id = $2
		`, id, ownerID)

		if err != nil {
			return err
		}

		affected = tag.RowsAffected()
		return nil
	})

	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}

	// nothing deleted: absent, or not the caller's
	if affected == 0 {
		return contact.ErrNotFound
	}

	return nil
}

package sqlite_test

import (
	"context"
	"strings"
	"testing"

	"github.com/geocoder89/addressbook/internal/db"
	"github.com/geocoder89/addressbook/internal/domain/contact"
	"github.com/geocoder89/addressbook/internal/domain/user"
	"github.com/geocoder89/addressbook/internal/repo/sqlite"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	users    *sqlite.UsersRepo
	contacts *sqlite.ContactsRepo
}

func setup(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	sqlDB, err := db.OpenSQLite(ctx, "file:"+name+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(ctx, sqlDB, db.DialectSQLite))

	return fixture{
		users:    sqlite.NewUsersRepo(sqlDB, nil),
		contacts: sqlite.NewContactsRepo(sqlDB, nil),
	}
}

func mustUser(t *testing.T, f fixture, name string) user.User {
	t.Helper()
	u, err := f.users.Create(context.Background(), name, name+"@example.com", "hash-"+name)
	require.NoError(t, err)
	return u
}

func TestUsers_CreateAndGet(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created := mustUser(t, f, "alice")
	require.NotZero(t, created.ID)

	got, err := f.users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)
	require.Equal(t, "alice@example.com", got.Email)
	require.Equal(t, "hash-alice", got.PasswordHash)
	require.Equal(t, created.CreatedAt, got.CreatedAt)
}

func TestUsers_GetMissing(t *testing.T) {
	f := setup(t)

	_, err := f.users.GetByUsername(context.Background(), "ghost")
	require.ErrorIs(t, err, user.ErrNotFound)
}

func TestUsers_DuplicateUsernameOrEmail(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	mustUser(t, f, "alice")

	_, err := f.users.Create(ctx, "alice", "other@example.com", "h")
	require.ErrorIs(t, err, user.ErrConflict)

	_, err = f.users.Create(ctx, "alice2", "alice@example.com", "h")
	require.ErrorIs(t, err, user.ErrConflict)
}

func TestContacts_CRUD(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	alice := mustUser(t, f, "alice")

	list, err := f.contacts.ListByOwner(ctx, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, list)
	require.Empty(t, list)

	c, err := f.contacts.Create(ctx, alice.ID, contact.Fields{Name: "Bob", Email: "bob@example.com", Phone: "555-0100", Address: "1 Main St"})
	require.NoError(t, err)
	require.NotZero(t, c.ID)
	require.Equal(t, alice.ID, c.OwnerID)

	updated, err := f.contacts.Update(ctx, alice.ID, c.ID, contact.Fields{Name: "Robert", Email: "robert@example.com", Phone: "555-0199", Address: "2 Side St"})
	require.NoError(t, err)
	require.Equal(t, c.ID, updated.ID)
	require.Equal(t, "Robert", updated.Name)
	require.Equal(t, "robert@example.com", updated.Email)
	require.Equal(t, "555-0199", updated.Phone)
	require.Equal(t, "2 Side St", updated.Address)

	list, err = f.contacts.ListByOwner(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Robert", list[0].Name)

	require.NoError(t, f.contacts.Delete(ctx, alice.ID, c.ID))

	err = f.contacts.Delete(ctx, alice.ID, c.ID)
	require.ErrorIs(t, err, contact.ErrNotFound)
}

func TestContacts_OwnerScoping(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	alice := mustUser(t, f, "alice")
	bob := mustUser(t, f, "bob")

	c, err := f.contacts.Create(ctx, alice.ID, contact.Fields{Name: "Carol", Email: "carol@example.com", Phone: "1", Address: "x"})
	require.NoError(t, err)

	list, err := f.contacts.ListByOwner(ctx, bob.ID)
	require.NoError(t, err)
	require.Empty(t, list)

	_, err = f.contacts.Update(ctx, bob.ID, c.ID, contact.Fields{Name: "Mallory", Email: "m@example.com", Phone: "2", Address: "y"})
	require.ErrorIs(t, err, contact.ErrNotFound)

	err = f.contacts.Delete(ctx, bob.ID, c.ID)
	require.ErrorIs(t, err, contact.ErrNotFound)

	// still intact for the owner
	list, err = f.contacts.ListByOwner(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Carol", list[0].Name)
}

func TestContacts_UpdateMissing(t *testing.T) {
	f := setup(t)
	alice := mustUser(t, f, "alice")

	_, err := f.contacts.Update(context.Background(), alice.ID, 999, contact.Fields{Name: "a", Email: "b", Phone: "c", Address: "d"})
	require.ErrorIs(t, err, contact.ErrNotFound)
}

func TestContacts_ListOrderedByID(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	alice := mustUser(t, f, "alice")

	for _, n := range []string{"z", "a", "m"} {
		_, err := f.contacts.Create(ctx, alice.ID, contact.Fields{Name: n, Email: n, Phone: n, Address: n})
		require.NoError(t, err)
	}

	list, err := f.contacts.ListByOwner(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, []string{"z", "a", "m"}, []string{list[0].Name, list[1].Name, list[2].Name})
}

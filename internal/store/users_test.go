// internal/store/users_test.go
package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scribe-api/internal/common/database"
	"scribe-api/internal/models"
)

func userStoreFixture(t *testing.T) (*UserStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewUserStore(&database.PostgresClient{DB: db}), mock
}

func userRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"username", "email", "realm", "active", "admin", "admin_domains",
		"notify_on_job", "notify_on_deletion", "notify_on_user",
		"created_at", "last_seen_at",
	}).AddRow(
		"alice@example.org", "alice@example.org", "example.org", true, false,
		"{}", true, false, false, now, now,
	)
}

func TestUserStoreUpsert(t *testing.T) {
	store, mock := userStoreFixture(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("alice@example.org", "alice@example.org", "example.org", sqlmock.AnyArg()).
		WillReturnRows(userRows(now))

	user, err := store.Upsert(context.Background(), "alice@example.org", "alice@example.org", "example.org")

	require.NoError(t, err)
	assert.Equal(t, "alice@example.org", user.Username)
	assert.Equal(t, "example.org", user.Realm)
	assert.True(t, user.Active)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserStoreGetNotFound(t *testing.T) {
	store, mock := userStoreFixture(t)

	mock.ExpectQuery(`FROM users WHERE username = \$1`).
		WithArgs("missing@example.org").
		WillReturnRows(sqlmock.NewRows([]string{"username"}))

	_, err := store.Get(context.Background(), "missing@example.org")
	assert.Error(t, err)
}

func TestUserStoreListByRealm(t *testing.T) {
	store, mock := userStoreFixture(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`FROM users WHERE realm = \$1 ORDER BY username`).
		WithArgs("example.org").
		WillReturnRows(userRows(now))

	users, err := store.List(context.Background(), "example.org")

	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "alice@example.org", users[0].Username)
}

func TestUserStoreListRealms(t *testing.T) {
	store, mock := userStoreFixture(t)

	mock.ExpectQuery(`SELECT DISTINCT realm FROM users ORDER BY realm`).
		WillReturnRows(sqlmock.NewRows([]string{"realm"}).
			AddRow("example.org").
			AddRow("other.org"))

	realms, err := store.ListRealms(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"example.org", "other.org"}, realms)
}

func TestUserStoreUpdate(t *testing.T) {
	store, mock := userStoreFixture(t)
	now := time.Now().UTC()

	active := true
	mock.ExpectQuery(`UPDATE users SET`).
		WillReturnRows(userRows(now))

	user, err := store.Update(context.Background(), "alice@example.org", models.UserUpdate{
		Active: &active,
	})

	require.NoError(t, err)
	assert.Equal(t, "alice@example.org", user.Username)
}

func TestUserStoreUpdateNotFound(t *testing.T) {
	store, mock := userStoreFixture(t)

	mock.ExpectQuery(`UPDATE users SET`).
		WillReturnRows(sqlmock.NewRows([]string{"username"}))

	_, err := store.Update(context.Background(), "missing@example.org", models.UserUpdate{})
	assert.Error(t, err)
}

func TestUserStoreDelete(t *testing.T) {
	store, mock := userStoreFixture(t)

	mock.ExpectExec(`DELETE FROM users WHERE username = \$1`).
		WithArgs("alice@example.org").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, store.Delete(context.Background(), "alice@example.org"))
}

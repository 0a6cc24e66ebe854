// internal/store/users.go
package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"scribe-api/internal/common/database"
	apperrors "scribe-api/internal/common/errors"
	"scribe-api/internal/models"
)

// UserStore persists user accounts in Postgres.
type UserStore struct {
	db *database.PostgresClient
}

// NewUserStore returns a user store on the given database.
func NewUserStore(db *database.PostgresClient) *UserStore {
	return &UserStore{db: db}
}

const userColumns = `username, email, realm, active, admin, admin_domains,
	notify_on_job, notify_on_deletion, notify_on_user, created_at, last_seen_at`

// Upsert registers a user on first login and refreshes the last seen
// timestamp on every later one. New accounts start inactive.
func (s *UserStore) Upsert(ctx context.Context, username, email, realm string) (*models.User, error) {
	now := time.Now().UTC()
	row := s.db.QueryRow(ctx,
		`INSERT INTO users (username, email, realm, active, created_at, last_seen_at)
		 VALUES ($1, $2, $3, false, $4, $4)
		 ON CONFLICT (username)
		 DO UPDATE SET email = EXCLUDED.email, last_seen_at = EXCLUDED.last_seen_at
		 RETURNING `+userColumns,
		username, email, realm, now)
	return scanUser(row)
}

// Get loads a user by username.
func (s *UserStore) Get(ctx context.Context, username string) (*models.User, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return scanUser(row)
}

// List returns all users, optionally restricted to one realm.
func (s *UserStore) List(ctx context.Context, realm string) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY username`
	args := []interface{}{}
	if realm != "" {
		query = `SELECT ` + userColumns + ` FROM users WHERE realm = $1 ORDER BY username`
		args = append(args, realm)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list users", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to read users", err)
	}
	return users, nil
}

// ListRealms returns the distinct realms users belong to.
func (s *UserStore) ListRealms(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx,
		`SELECT DISTINCT realm FROM users ORDER BY realm`)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list realms", err)
	}
	defer rows.Close()

	var realms []string
	for rows.Next() {
		var realm string
		if err := rows.Scan(&realm); err != nil {
			return nil, apperrors.NewInternalError("failed to scan realm", err)
		}
		realms = append(realms, realm)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to read realms", err)
	}
	return realms, nil
}

// Update applies the admin-editable attributes. Only the fields set in
// the update are touched.
func (s *UserStore) Update(ctx context.Context, username string, update models.UserUpdate) (*models.User, error) {
	row := s.db.QueryRow(ctx,
		`UPDATE users SET
		        active = COALESCE($2, active),
		        admin = COALESCE($3, admin),
		        admin_domains = COALESCE($4, admin_domains)
		 WHERE username = $1
		 RETURNING `+userColumns,
		username, update.Active, update.Admin, domainsParam(update.AdminDomains))
	return scanUser(row)
}

// UpdateAccount applies the self-service attributes.
func (s *UserStore) UpdateAccount(ctx context.Context, username string, update models.AccountUpdate) (*models.User, error) {
	row := s.db.QueryRow(ctx,
		`UPDATE users SET
		        email = COALESCE($2, email),
		        notify_on_job = COALESCE($3, notify_on_job),
		        notify_on_deletion = COALESCE($4, notify_on_deletion),
		        notify_on_user = COALESCE($5, notify_on_user)
		 WHERE username = $1
		 RETURNING `+userColumns,
		username, update.Email, update.NotifyOnJob, update.NotifyOnDeletion, update.NotifyOnUser)
	return scanUser(row)
}

// TouchLastSeen refreshes the last seen timestamp.
func (s *UserStore) TouchLastSeen(ctx context.Context, username string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE users SET last_seen_at = $2 WHERE username = $1`,
		username, time.Now().UTC())
	if err != nil {
		return apperrors.NewInternalError("failed to touch user", err)
	}
	return nil
}

// SetPassphrase stores the hash of a user's result encryption passphrase.
func (s *UserStore) SetPassphrase(ctx context.Context, username, hash string) error {
	res, err := s.db.Exec(ctx,
		`UPDATE users SET passphrase_hash = $2 WHERE username = $1`,
		username, hash)
	if err != nil {
		return apperrors.NewInternalError("failed to set passphrase", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return apperrors.NewNotFoundError("user")
	}
	return nil
}

// PassphraseHash loads the stored passphrase hash. An empty hash means no
// passphrase is set.
func (s *UserStore) PassphraseHash(ctx context.Context, username string) (string, error) {
	var hash sql.NullString
	err := s.db.QueryRow(ctx,
		`SELECT passphrase_hash FROM users WHERE username = $1`, username).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", apperrors.NewNotFoundError("user")
	}
	if err != nil {
		return "", apperrors.NewInternalError("failed to load passphrase", err)
	}
	return hash.String, nil
}

// ClearPassphrase removes the stored passphrase hash.
func (s *UserStore) ClearPassphrase(ctx context.Context, username string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE users SET passphrase_hash = NULL WHERE username = $1`, username)
	if err != nil {
		return apperrors.NewInternalError("failed to clear passphrase", err)
	}
	return nil
}

// Delete removes a user account.
func (s *UserStore) Delete(ctx context.Context, username string) error {
	res, err := s.db.Exec(ctx, `DELETE FROM users WHERE username = $1`, username)
	if err != nil {
		return apperrors.NewInternalError("failed to delete user", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return apperrors.NewNotFoundError("user")
	}
	return nil
}

func domainsParam(domains []string) interface{} {
	if domains == nil {
		return nil
	}
	return pq.Array(domains)
}

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	var domains pq.StringArray

	err := row.Scan(&user.Username, &user.Email, &user.Realm, &user.Active,
		&user.Admin, &domains, &user.NotifyOnJob, &user.NotifyOnDeletion,
		&user.NotifyOnUser, &user.CreatedAt, &user.LastSeenAt)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("user")
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to scan user", err)
	}

	user.AdminDomains = []string(domains)
	return &user, nil
}

// internal/store/groups.go
package store

import (
	"context"
	"database/sql"

	"scribe-api/internal/common/database"
	apperrors "scribe-api/internal/common/errors"
	"scribe-api/internal/models"
)

// GroupStore persists groups, their memberships and quota usage in
// Postgres.
type GroupStore struct {
	db *database.PostgresClient
}

// NewGroupStore returns a group store on the given database.
func NewGroupStore(db *database.PostgresClient) *GroupStore {
	return &GroupStore{db: db}
}

// Create inserts a group and its members. Quota is given in minutes and
// stored in seconds.
func (s *GroupStore) Create(ctx context.Context, write models.GroupWrite) (*models.Group, error) {
	var group models.Group
	err := s.db.QueryRow(ctx,
		`INSERT INTO groups (name, realm, quota_seconds)
		 VALUES ($1, $2, $3)
		 RETURNING id, name, realm, quota_seconds`,
		write.Name, write.Realm, write.QuotaMinutes*60).
		Scan(&group.ID, &group.Name, &group.Realm, &group.QuotaSeconds)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to create group", err)
	}

	if err := s.replaceMembers(ctx, group.ID, write.Members); err != nil {
		return nil, err
	}
	group.Members = write.Members
	return &group, nil
}

// Update rewrites a group's attributes and membership.
func (s *GroupStore) Update(ctx context.Context, id int64, write models.GroupWrite) (*models.Group, error) {
	var group models.Group
	err := s.db.QueryRow(ctx,
		`UPDATE groups SET name = $2, realm = $3, quota_seconds = $4
		 WHERE id = $1
		 RETURNING id, name, realm, quota_seconds`,
		id, write.Name, write.Realm, write.QuotaMinutes*60).
		Scan(&group.ID, &group.Name, &group.Realm, &group.QuotaSeconds)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("group")
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to update group", err)
	}

	if err := s.replaceMembers(ctx, id, write.Members); err != nil {
		return nil, err
	}
	group.Members = write.Members
	return &group, nil
}

// Delete removes a group and its memberships.
func (s *GroupStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.Exec(ctx, `DELETE FROM groups WHERE id = $1`, id)
	if err != nil {
		return apperrors.NewInternalError("failed to delete group", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return apperrors.NewNotFoundError("group")
	}
	return nil
}

// Get loads a group with its members.
func (s *GroupStore) Get(ctx context.Context, id int64) (*models.Group, error) {
	var group models.Group
	err := s.db.QueryRow(ctx,
		`SELECT id, name, realm, quota_seconds FROM groups WHERE id = $1`, id).
		Scan(&group.ID, &group.Name, &group.Realm, &group.QuotaSeconds)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("group")
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load group", err)
	}

	members, err := s.members(ctx, id)
	if err != nil {
		return nil, err
	}
	group.Members = members
	return &group, nil
}

// List returns all groups, optionally restricted to one realm. Members
// are not populated.
func (s *GroupStore) List(ctx context.Context, realm string) ([]*models.Group, error) {
	query := `SELECT id, name, realm, quota_seconds FROM groups ORDER BY name`
	args := []interface{}{}
	if realm != "" {
		query = `SELECT id, name, realm, quota_seconds FROM groups WHERE realm = $1 ORDER BY name`
		args = append(args, realm)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list groups", err)
	}
	defer rows.Close()

	var groups []*models.Group
	for rows.Next() {
		var group models.Group
		if err := rows.Scan(&group.ID, &group.Name, &group.Realm, &group.QuotaSeconds); err != nil {
			return nil, apperrors.NewInternalError("failed to scan group", err)
		}
		groups = append(groups, &group)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to read groups", err)
	}
	return groups, nil
}

// GroupForUser finds the group a user belongs to, or nil when the user is
// ungrouped.
func (s *GroupStore) GroupForUser(ctx context.Context, username string) (*models.Group, error) {
	var id int64
	err := s.db.QueryRow(ctx,
		`SELECT group_id FROM group_members WHERE username = $1`, username).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to resolve group membership", err)
	}
	return s.Get(ctx, id)
}

// ConsumedSeconds sums the transcribed media duration of all group
// members, the figure the quota is checked against.
func (s *GroupStore) ConsumedSeconds(ctx context.Context, id int64) (float64, error) {
	var consumed float64
	err := s.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(j.duration_seconds), 0)
		 FROM jobs j
		 JOIN group_members m ON m.username = j.username
		 WHERE m.group_id = $1 AND j.status = $2`,
		id, string(models.JobStatusCompleted)).Scan(&consumed)
	if err != nil {
		return 0, apperrors.NewInternalError("failed to sum group usage", err)
	}
	return consumed, nil
}

// Stats aggregates job counts and minutes for a group's members.
func (s *GroupStore) Stats(ctx context.Context, id int64) (*models.GroupStats, error) {
	stats := models.GroupStats{GroupID: id}
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(j.duration_seconds), 0) / 60,
		        COUNT(*) FILTER (WHERE j.created_at >= NOW() - INTERVAL '30 days'),
		        COALESCE(SUM(j.duration_seconds) FILTER (WHERE j.created_at >= NOW() - INTERVAL '30 days'), 0) / 60
		 FROM jobs j
		 JOIN group_members m ON m.username = j.username
		 WHERE m.group_id = $1 AND j.status = $2`,
		id, string(models.JobStatusCompleted)).
		Scan(&stats.TranscribedFiles, &stats.TotalTranscribedMinutes,
			&stats.TranscribedFilesLastMonth, &stats.TranscribedMinutesLastMonth)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to aggregate group stats", err)
	}
	return &stats, nil
}

func (s *GroupStore) members(ctx context.Context, id int64) ([]string, error) {
	rows, err := s.db.Query(ctx,
		`SELECT username FROM group_members WHERE group_id = $1 ORDER BY username`, id)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list group members", err)
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var username string
		if err := rows.Scan(&username); err != nil {
			return nil, apperrors.NewInternalError("failed to scan group member", err)
		}
		members = append(members, username)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to read group members", err)
	}
	return members, nil
}

func (s *GroupStore) replaceMembers(ctx context.Context, id int64, members []string) error {
	if _, err := s.db.Exec(ctx,
		`DELETE FROM group_members WHERE group_id = $1`, id); err != nil {
		return apperrors.NewInternalError("failed to clear group members", err)
	}
	for _, username := range members {
		if _, err := s.db.Exec(ctx,
			`INSERT INTO group_members (group_id, username) VALUES ($1, $2)`,
			id, username); err != nil {
			return apperrors.NewInternalError("failed to add group member", err)
		}
	}
	return nil
}

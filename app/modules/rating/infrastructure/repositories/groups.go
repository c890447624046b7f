package ratingdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new rating repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

// resolveDB returns the provided db handle, falling back to the repository's
// default connection if db is nil.
func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

// EnsureGroup returns the group, creating it on first use.
func (r *Impl) EnsureGroup(ctx context.Context, db bun.IDB, groupID string, baseline int) (*Group, error) {
	db = r.resolveDB(db)
	group := &Group{
		ID:                  groupID,
		BaselineRating:      baseline,
		AchievementsEnabled: true,
	}
	_, err := db.NewInsert().
		Model(group).
		On("CONFLICT (id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("ratingdb.EnsureGroup: %w", err)
	}
	return r.GetGroup(ctx, db, groupID)
}

// GetGroup retrieves a group by ID.
func (r *Impl) GetGroup(ctx context.Context, db bun.IDB, groupID string) (*Group, error) {
	db = r.resolveDB(db)
	group := new(Group)
	err := db.NewSelect().
		Model(group).
		Where("id = ?", groupID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ratingdb.GetGroup: %w", err)
	}
	return group, nil
}

// LockGroup selects the group row FOR UPDATE.
func (r *Impl) LockGroup(ctx context.Context, db bun.IDB, groupID string) (*Group, error) {
	db = r.resolveDB(db)
	group := new(Group)
	err := db.NewSelect().
		Model(group).
		Where("id = ?", groupID).
		For("UPDATE").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ratingdb.LockGroup: %w", err)
	}
	return group, nil
}

// UpdateGroupSettings writes the group's settings.
func (r *Impl) UpdateGroupSettings(ctx context.Context, db bun.IDB, group *Group) error {
	db = r.resolveDB(db)
	group.UpdatedAt = time.Now().UTC()
	result, err := db.NewUpdate().
		Model(group).
		Column("baseline_rating", "achievements_enabled", "require_confirmation", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("ratingdb.UpdateGroupSettings: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// ListGroupIDs returns every known group.
func (r *Impl) ListGroupIDs(ctx context.Context, db bun.IDB) ([]string, error) {
	db = r.resolveDB(db)
	var ids []string
	err := db.NewSelect().
		Model((*Group)(nil)).
		Column("id").
		Order("id ASC").
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("ratingdb.ListGroupIDs: %w", err)
	}
	return ids, nil
}

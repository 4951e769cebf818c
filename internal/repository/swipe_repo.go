package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/pahilobhet/internal/db"
	"github.com/oggyb/pahilobhet/internal/utils/pagination"
)

// SwipeRepository provides data access methods for the Swipe model.
// It encapsulates all queries related to likes/passes between users.
type SwipeRepository struct {
	db *gorm.DB
}

// NewSwipeRepository creates a new repository bound to the given DB connection.
func NewSwipeRepository(database *gorm.DB) *SwipeRepository {
	return &SwipeRepository{db: database}
}

// Upsert records actor's decision about target.
//
// Behavior:
//   - If the (actor_id, target_id) pair exists → the row is updated with the new action.
//   - If it doesn't exist → a new row is inserted.
//   - Composite PK guarantees a single row per ordered pair.
func (r *SwipeRepository) Upsert(ctx context.Context, actorID, targetID uint64, action db.SwipeAction) error {
	swipe := db.Swipe{
		ActorID:  actorID,
		TargetID: targetID,
		Action:   action,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "actor_id"}, {Name: "target_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"action", "updated_at"}),
		}).
		Create(&swipe).Error
}

// Get returns the swipe actor made on target, or nil when there is none.
func (r *SwipeRepository) Get(ctx context.Context, actorID, targetID uint64) (*db.Swipe, error) {
	var s db.Swipe
	err := r.db.WithContext(ctx).
		Where("actor_id = ? AND target_id = ?", actorID, targetID).
		Take(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// HasLikedPositively checks whether actor's current swipe on target is like or super_like.
// Used by the match detector for the reverse direction.
func (r *SwipeRepository) HasLikedPositively(ctx context.Context, actorID, targetID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Swipe{}).
		Where("actor_id = ? AND target_id = ? AND action IN ?", actorID, targetID, db.PositiveActions).
		Count(&count).Error
	return count > 0, err
}

// likersQuery selects positive swipes on target, excluding actors the
// target has passed.
func (r *SwipeRepository) likersQuery(ctx context.Context, targetID uint64) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("swipes s").
		Where("s.target_id = ? AND s.action IN ?", targetID, db.PositiveActions).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM swipes s2
				WHERE s2.actor_id = ?
				  AND s2.target_id = s.actor_id
				  AND s2.action = ?
			)`, targetID, db.ActionPass)
}

// GetLikers returns swipes from users who liked the given target.
//
// Behavior:
//   - Only like/super_like swipes on the target are returned.
//   - Excludes users that the target explicitly passed.
//   - Ordered by updated_at DESC, actor_id DESC.
//   - Supports cursor-based pagination via pageToken.
func (r *SwipeRepository) GetLikers(
	ctx context.Context,
	targetID uint64,
	pageToken *string,
	limit int,
) ([]db.Swipe, *string, error) {
	return r.page(r.likersQuery(ctx, targetID), pageToken, limit)
}

// GetNewLikers returns users who liked the target but have not been liked back.
//
// Behavior:
//   - Same filters as GetLikers.
//   - Excludes mutual likes (target already liked them back).
func (r *SwipeRepository) GetNewLikers(
	ctx context.Context,
	targetID uint64,
	pageToken *string,
	limit int,
) ([]db.Swipe, *string, error) {
	mutual := r.db.
		Table("swipes").
		Select("1").
		Where("actor_id = s.target_id AND target_id = s.actor_id AND action IN ?", db.PositiveActions)

	return r.page(r.likersQuery(ctx, targetID).Where("NOT EXISTS (?)", mutual), pageToken, limit)
}

// CountLikers returns how many users liked the given target, with the
// same exclusions as GetLikers. The service caches this in Redis.
func (r *SwipeRepository) CountLikers(ctx context.Context, targetID uint64) (int64, error) {
	var count int64
	if err := r.likersQuery(ctx, targetID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// page applies keyset pagination over (updated_at DESC, actor_id DESC).
func (r *SwipeRepository) page(query *gorm.DB, pageToken *string, limit int) ([]db.Swipe, *string, error) {
	cursor, err := pagination.Decode(getString(pageToken))
	if err != nil {
		return nil, nil, err
	}

	if !cursor.Empty() {
		ts := cursor.Time()
		query = query.Where(
			"(s.updated_at < ? OR (s.updated_at = ? AND s.actor_id < ?))",
			ts, ts, cursor.ID,
		)
	}

	var swipes []db.Swipe
	err = query.
		Select("s.*").
		Order("s.updated_at DESC, s.actor_id DESC").
		Limit(limit + 1).
		Find(&swipes).Error
	if err != nil {
		return nil, nil, err
	}

	// pagination: build next cursor if needed
	var nextToken *string
	if len(swipes) > limit {
		last := swipes[limit-1]
		token, err := pagination.Encode(pagination.After(last.ActorID, last.UpdatedAt))
		if err != nil {
			return nil, nil, err
		}
		nextToken = &token
		swipes = swipes[:limit]
	}
	return swipes, nextToken, nil
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

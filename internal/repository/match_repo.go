package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/pahilobhet/internal/db"
)

// MatchRepository stores one row per canonical pair (low, high).
type MatchRepository struct {
	db *gorm.DB
}

func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// Materialize makes the pair's match row exist with status matched and
// returns it.
//
// Behavior:
//   - The pair is normalized, so (a, b) and (b, a) hit the same row.
//   - A concurrent or repeated insert collides on uq_match_pair and turns
//     into an update of status; it never fails and never adds a row.
//   - The row is re-read afterwards; the id gorm writes back after an
//     upsert is not reliable on MySQL.
func (r *MatchRepository) Materialize(ctx context.Context, a, b uint64) (*db.Match, error) {
	low, high := db.CanonicalPair(a, b)
	m := db.Match{UserLowID: low, UserHighID: high, Status: db.MatchStatusMatched}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_low_id"}, {Name: "user_high_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"status":     db.MatchStatusMatched,
				"updated_at": time.Now().UTC(),
			}),
		}).
		Create(&m).Error
	if err != nil {
		return nil, err
	}
	return r.FindByPair(ctx, low, high)
}

// FindByPair returns the pair's row in any status, or gorm.ErrRecordNotFound.
func (r *MatchRepository) FindByPair(ctx context.Context, a, b uint64) (*db.Match, error) {
	low, high := db.CanonicalPair(a, b)
	var m db.Match
	err := r.db.WithContext(ctx).
		Where("user_low_id = ? AND user_high_id = ?", low, high).
		Take(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Deactivate marks the pair's match inactive. Reports whether a matched
// row was changed.
func (r *MatchRepository) Deactivate(ctx context.Context, a, b uint64) (bool, error) {
	low, high := db.CanonicalPair(a, b)
	res := r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("user_low_id = ? AND user_high_id = ? AND status = ?", low, high, db.MatchStatusMatched).
		Update("status", db.MatchStatusInactive)
	return res.RowsAffected > 0, res.Error
}

// GetActive returns a matched row by id.
func (r *MatchRepository) GetActive(ctx context.Context, id uint64) (*db.Match, error) {
	var m db.Match
	err := r.db.WithContext(ctx).
		Where("id = ? AND status = ?", id, db.MatchStatusMatched).
		Take(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListActiveForUser returns the user's matched rows, newest first.
func (r *MatchRepository) ListActiveForUser(ctx context.Context, userID uint64) ([]db.Match, error) {
	var matches []db.Match
	err := r.db.WithContext(ctx).
		Where("(user_low_id = ? OR user_high_id = ?) AND status = ?", userID, userID, db.MatchStatusMatched).
		Order("updated_at DESC, id DESC").
		Find(&matches).Error
	return matches, err
}

// CountPair returns how many rows exist for the pair in any status.
func (r *MatchRepository) CountPair(ctx context.Context, a, b uint64) (int64, error) {
	low, high := db.CanonicalPair(a, b)
	var n int64
	err := r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("user_low_id = ? AND user_high_id = ?", low, high).
		Count(&n).Error
	return n, err
}

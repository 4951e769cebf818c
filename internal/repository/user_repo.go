package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/pahilobhet/internal/db"
)

// UserRepository provides access to accounts and profiles.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// Create inserts u and fills its ID. A duplicate email surfaces as
// gorm.ErrDuplicatedKey when the connection translates errors.
func (r *UserRepository) Create(ctx context.Context, u *db.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

// GetByID returns the user regardless of status.
func (r *UserRepository) GetByID(ctx context.Context, id uint64) (*db.User, error) {
	var u db.User
	if err := r.db.WithContext(ctx).Take(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetActiveByID returns the user only when active; otherwise gorm.ErrRecordNotFound.
func (r *UserRepository) GetActiveByID(ctx context.Context, id uint64) (*db.User, error) {
	var u db.User
	err := r.db.WithContext(ctx).
		Where("id = ? AND active = ?", id, true).
		Take(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*db.User, error) {
	var u db.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).Take(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// EmailExists reports whether an account already uses email.
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

// GetManyActive returns the active users among ids keyed by id.
func (r *UserRepository) GetManyActive(ctx context.Context, ids []uint64) (map[uint64]db.User, error) {
	out := make(map[uint64]db.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []db.User
	err := r.db.WithContext(ctx).
		Where("id IN ? AND active = ?", ids, true).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

// UpdateProfile writes the given columns for user id. Only keys present
// in fields are touched.
func (r *UserRepository) UpdateProfile(ctx context.Context, id uint64, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&db.User{ID: id}).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// TouchLogin stamps last_login_at.
func (r *UserRepository) TouchLogin(ctx context.Context, id uint64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&db.User{ID: id}).
		UpdateColumn("last_login_at", at).Error
}

// SetActive flips the soft status flag.
func (r *UserRepository) SetActive(ctx context.Context, id uint64, active bool) error {
	return r.db.WithContext(ctx).
		Model(&db.User{ID: id}).
		Update("active", active).Error
}

// ListCandidates returns active users the actor has not swiped on yet,
// excluding the actor. Any action counts as swiped.
func (r *UserRepository) ListCandidates(ctx context.Context, actorID uint64, limit int) ([]db.User, error) {
	swiped := r.db.
		Table("swipes").
		Select("target_id").
		Where("actor_id = ?", actorID)

	var users []db.User
	err := r.db.WithContext(ctx).
		Where("id <> ? AND active = ?", actorID, true).
		Where("id NOT IN (?)", swiped).
		Order("id").
		Limit(limit).
		Find(&users).Error
	return users, err
}

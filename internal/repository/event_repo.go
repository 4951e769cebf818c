package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/pahilobhet/internal/db"
)

type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(database *gorm.DB) *EventRepository {
	return &EventRepository{db: database}
}

func (r *EventRepository) Create(ctx context.Context, e *db.Event) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *EventRepository) Get(ctx context.Context, id uint64) (*db.Event, error) {
	var e db.Event
	if err := r.db.WithContext(ctx).Take(&e, id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

// ListUpcoming returns events starting at or after from, soonest first.
func (r *EventRepository) ListUpcoming(ctx context.Context, from time.Time, limit int) ([]db.Event, error) {
	var events []db.Event
	err := r.db.WithContext(ctx).
		Where("starts_at >= ?", from).
		Order("starts_at, id").
		Limit(limit).
		Find(&events).Error
	return events, err
}

// UpsertRSVP records the user's answer; answering again overwrites status.
func (r *EventRepository) UpsertRSVP(ctx context.Context, eventID, userID uint64, status db.RSVPStatus) error {
	rsvp := db.RSVP{EventID: eventID, UserID: userID, Status: status}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
		}).
		Create(&rsvp).Error
}

// CountByStatus returns the number of RSVPs per status for an event.
func (r *EventRepository) CountByStatus(ctx context.Context, eventID uint64) (map[db.RSVPStatus]int64, error) {
	var rows []struct {
		Status db.RSVPStatus
		N      int64
	}
	err := r.db.WithContext(ctx).
		Model(&db.RSVP{}).
		Select("status, COUNT(*) AS n").
		Where("event_id = ?", eventID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[db.RSVPStatus]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.N
	}
	return out, nil
}

// Attendees returns active users who answered "going".
func (r *EventRepository) Attendees(ctx context.Context, eventID uint64) ([]db.User, error) {
	var users []db.User
	err := r.db.WithContext(ctx).
		Table("users u").
		Select("u.*").
		Joins("JOIN event_rsvps r ON r.user_id = u.id").
		Where("r.event_id = ? AND r.status = ? AND u.active = ?", eventID, db.RSVPGoing, true).
		Order("r.updated_at, u.id").
		Find(&users).Error
	return users, err
}

// RSVPsForUser returns every RSVP the user made, most recent first.
func (r *EventRepository) RSVPsForUser(ctx context.Context, userID uint64) ([]db.RSVP, error) {
	var out []db.RSVP
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&out).Error
	return out, err
}

// GetMany returns events by id keyed by id.
func (r *EventRepository) GetMany(ctx context.Context, ids []uint64) (map[uint64]db.Event, error) {
	out := make(map[uint64]db.Event, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var events []db.Event
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&events).Error; err != nil {
		return nil, err
	}
	for _, e := range events {
		out[e.ID] = e
	}
	return out, nil
}

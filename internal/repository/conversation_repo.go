package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/pahilobhet/internal/db"
)

type ConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(database *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: database}
}

// GetOrCreate returns the match's conversation, creating it on first use.
// The unique index on match_id makes racing creators converge on one row.
func (r *ConversationRepository) GetOrCreate(ctx context.Context, matchID uint64) (*db.Conversation, error) {
	c := db.Conversation{MatchID: matchID}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "match_id"}}, DoNothing: true}).
		Create(&c).Error
	if err != nil {
		return nil, err
	}
	return r.GetByMatch(ctx, matchID)
}

// GetByMatch returns the conversation of a match or gorm.ErrRecordNotFound.
func (r *ConversationRepository) GetByMatch(ctx context.Context, matchID uint64) (*db.Conversation, error) {
	var c db.Conversation
	if err := r.db.WithContext(ctx).Where("match_id = ?", matchID).Take(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// ConversationSummary is a conversation joined with its match.
type ConversationSummary struct {
	ConversationID uint64
	MatchID        uint64
	UserLowID      uint64
	UserHighID     uint64
	UpdatedAt      time.Time
}

// ListForUser returns conversations of the user's active matches, most
// recently active first.
func (r *ConversationRepository) ListForUser(ctx context.Context, userID uint64) ([]ConversationSummary, error) {
	var out []ConversationSummary
	err := r.db.WithContext(ctx).
		Table("conversations c").
		Select("c.id AS conversation_id, c.match_id, m.user_low_id, m.user_high_id, c.updated_at").
		Joins("JOIN matches m ON m.id = c.match_id").
		Where("(m.user_low_id = ? OR m.user_high_id = ?) AND m.status = ?", userID, userID, db.MatchStatusMatched).
		Order("c.updated_at DESC, c.id DESC").
		Scan(&out).Error
	return out, err
}

// AddMessage stores a message and bumps the conversation's updated_at.
func (r *ConversationRepository) AddMessage(ctx context.Context, m *db.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		return tx.Model(&db.Conversation{ID: m.ConversationID}).
			UpdateColumn("updated_at", m.CreatedAt).Error
	})
}

// ListMessages returns up to limit messages older than beforeID (0 = newest),
// newest first.
func (r *ConversationRepository) ListMessages(ctx context.Context, conversationID, beforeID uint64, limit int) ([]db.Message, error) {
	q := r.db.WithContext(ctx).Where("conversation_id = ?", conversationID)
	if beforeID > 0 {
		q = q.Where("id < ?", beforeID)
	}
	var msgs []db.Message
	err := q.Order("id DESC").Limit(limit).Find(&msgs).Error
	return msgs, err
}

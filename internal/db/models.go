package db

import (
	"time"
)

// SwipeAction is a user's decision about a discovery candidate.
type SwipeAction string

const (
	ActionLike      SwipeAction = "like"
	ActionPass      SwipeAction = "pass"
	ActionSuperLike SwipeAction = "super_like"
)

// Valid reports whether a is one of the known actions.
func (a SwipeAction) Valid() bool {
	switch a {
	case ActionLike, ActionPass, ActionSuperLike:
		return true
	}
	return false
}

// Positive reports whether a counts toward a mutual match.
func (a SwipeAction) Positive() bool {
	return a == ActionLike || a == ActionSuperLike
}

// PositiveActions lists every action that counts toward a mutual match.
var PositiveActions = []SwipeAction{ActionLike, ActionSuperLike}

type MatchStatus string

const (
	MatchStatusMatched  MatchStatus = "matched"
	MatchStatusInactive MatchStatus = "inactive"
)

type RSVPStatus string

const (
	RSVPGoing      RSVPStatus = "going"
	RSVPInterested RSVPStatus = "interested"
	RSVPNotGoing   RSVPStatus = "not_going"
)

func (s RSVPStatus) Valid() bool {
	switch s {
	case RSVPGoing, RSVPInterested, RSVPNotGoing:
		return true
	}
	return false
}

// User holds account and profile data. Users are never hard-deleted;
// Active=false hides them from discovery and makes them unknown targets.
type User struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement"`
	Name         string `gorm:"size:100;not null"`
	Email        string `gorm:"uniqueIndex;size:128;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	Age          int
	Gender       string `gorm:"size:16"`
	Bio          string `gorm:"size:1000"`
	Location     string `gorm:"size:128"`
	ProfileImage string `gorm:"size:512"`
	Active       bool   `gorm:"not null;default:true;index"`
	LastLoginAt  *time.Time
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// Swipe is one user's decision about another.
//
// Composite PK: (ActorID, TargetID)
//   - Ensures a single row per ordered pair; later swipes overwrite Action.
//
// Indexes:
//   - idx_target_action_updated_actor(target_id, action, updated_at DESC, actor_id)
//     Serves "who liked me" lists with cursor pagination.
//   - idx_actor_target_action(actor_id, target_id, action)
//     Serves the reverse-swipe lookup of the match detector.
type Swipe struct {
	ActorID   uint64      `gorm:"primaryKey;autoIncrement:false;index:idx_actor_target_action,priority:1"`
	TargetID  uint64      `gorm:"primaryKey;autoIncrement:false;index:idx_target_action_updated_actor,priority:1;index:idx_actor_target_action,priority:2"`
	Action    SwipeAction `gorm:"size:16;not null;index:idx_target_action_updated_actor,priority:2;index:idx_actor_target_action,priority:3"`
	CreatedAt time.Time   `gorm:"autoCreateTime"`
	UpdatedAt time.Time   `gorm:"autoUpdateTime;index:idx_target_action_updated_actor,priority:3,sort:desc"`
}

// Match is stored once per unordered pair: UserLowID < UserHighID.
// The unique index on the pair turns concurrent inserts into no-op updates.
type Match struct {
	ID         uint64      `gorm:"primaryKey;autoIncrement"`
	UserLowID  uint64      `gorm:"not null;uniqueIndex:uq_match_pair,priority:1"`
	UserHighID uint64      `gorm:"not null;uniqueIndex:uq_match_pair,priority:2;index"`
	Status     MatchStatus `gorm:"size:16;not null;default:matched"`
	CreatedAt  time.Time   `gorm:"autoCreateTime"`
	UpdatedAt  time.Time   `gorm:"autoUpdateTime"`
}

// Other returns the member of m that is not userID.
func (m Match) Other(userID uint64) uint64 {
	if m.UserLowID == userID {
		return m.UserHighID
	}
	return m.UserLowID
}

// Has reports whether userID is a member of m.
func (m Match) Has(userID uint64) bool {
	return m.UserLowID == userID || m.UserHighID == userID
}

// CanonicalPair orders two user ids so that the smaller comes first.
func CanonicalPair(a, b uint64) (low, high uint64) {
	if a < b {
		return a, b
	}
	return b, a
}

// Conversation belongs to exactly one match and is created on the first message.
type Conversation struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	MatchID   uint64    `gorm:"not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

type Message struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement"`
	ConversationID uint64    `gorm:"not null;index:idx_conversation_id_desc,priority:1"`
	SenderID       uint64    `gorm:"not null"`
	Body           string    `gorm:"size:2000;not null"`
	CreatedAt      time.Time `gorm:"autoCreateTime;index:idx_conversation_id_desc,priority:2"`
}

type Event struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	Title       string    `gorm:"size:200;not null"`
	Description string    `gorm:"size:2000"`
	Location    string    `gorm:"size:200"`
	StartsAt    time.Time `gorm:"not null;index"`
	CreatedBy   uint64    `gorm:"not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

// RSVP is keyed by (EventID, UserID); answering again overwrites Status.
type RSVP struct {
	EventID   uint64     `gorm:"primaryKey;autoIncrement:false"`
	UserID    uint64     `gorm:"primaryKey;autoIncrement:false;index"`
	Status    RSVPStatus `gorm:"size:16;not null"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
}

func (RSVP) TableName() string { return "event_rsvps" }

// All lists every model for migrations.
func All() []any {
	return []any{&User{}, &Swipe{}, &Match{}, &Conversation{}, &Message{}, &Event{}, &RSVP{}}
}

package db

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var seedLocations = []string{"Kathmandu", "Pokhara", "Lalitpur", "Bhaktapur", "Chitwan"}

// SeedTestData resets the database and populates it with demo users, swipes,
// the matches those swipes imply, and a few community events.
//
// Behavior:
//  1. Clears every table.
//  2. Creates 20 users (10 male, 10 female), all with password "password".
//  3. Generates ~200 swipes (~70% positive); every 3rd pair is made mutual.
//  4. Materializes one match row per mutual positive pair.
//
// Compatible with both MySQL and SQLite.
func SeedTestData(db *gorm.DB, log *slog.Logger) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	if err := clearAll(db); err != nil {
		return err
	}
	log.Info("cleared existing data")

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	users := make([]User, 0, 20)
	for i := 1; i <= 20; i++ {
		gender := "male"
		if i > 10 {
			gender = "female"
		}
		users = append(users, User{
			Name:         fmt.Sprintf("user%d", i),
			Email:        fmt.Sprintf("user%d@example.com", i),
			PasswordHash: string(hash),
			Age:          20 + r.Intn(15),
			Gender:       gender,
			Bio:          "Namaste! Looking for someone to share momo with.",
			Location:     seedLocations[r.Intn(len(seedLocations))],
			Active:       true,
		})
	}
	if err := db.Create(&users).Error; err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}
	log.Info("seeded users", "count", len(users))

	upsert := clause.OnConflict{
		Columns:   []clause.Column{{Name: "actor_id"}, {Name: "target_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"action", "updated_at"}),
	}

	counter := 0
	for _, actor := range users {
		for j := 0; j < 12; j++ {
			target := users[r.Intn(len(users))]
			if actor.ID == target.ID || actor.Gender == target.Gender {
				continue
			}

			action := ActionPass
			if r.Intn(100) < 70 {
				action = ActionLike
				if r.Intn(10) == 0 {
					action = ActionSuperLike
				}
			}

			if counter%3 == 0 {
				action = ActionLike
				back := Swipe{ActorID: target.ID, TargetID: actor.ID, Action: ActionLike}
				if err := db.Clauses(upsert).Create(&back).Error; err != nil {
					return fmt.Errorf("failed to seed swipe: %w", err)
				}
			}

			s := Swipe{ActorID: actor.ID, TargetID: target.ID, Action: action}
			if err := db.Clauses(upsert).Create(&s).Error; err != nil {
				return fmt.Errorf("failed to seed swipe: %w", err)
			}
			counter++
		}
	}
	log.Info("seeded swipes", "count", counter)

	matches, err := seedMatches(db)
	if err != nil {
		return err
	}
	log.Info("seeded matches", "count", matches)

	events := []Event{
		{Title: "Dashain Mixer", Location: "Thamel, Kathmandu", StartsAt: time.Now().UTC().Add(7 * 24 * time.Hour), CreatedBy: users[0].ID},
		{Title: "Tihar Lights Walk", Location: "Lakeside, Pokhara", StartsAt: time.Now().UTC().Add(14 * 24 * time.Hour), CreatedBy: users[10].ID},
	}
	if err := db.Create(&events).Error; err != nil {
		return fmt.Errorf("failed to seed events: %w", err)
	}

	return nil
}

// seedMatches inserts a match for every pair whose swipes are positive both ways.
func seedMatches(db *gorm.DB) (int, error) {
	var pairs []struct {
		ActorID  uint64
		TargetID uint64
	}
	err := db.Table("swipes a").
		Select("a.actor_id, a.target_id").
		Joins("JOIN swipes b ON b.actor_id = a.target_id AND b.target_id = a.actor_id").
		Where("a.actor_id < a.target_id AND a.action IN ? AND b.action IN ?", PositiveActions, PositiveActions).
		Scan(&pairs).Error
	if err != nil {
		return 0, fmt.Errorf("failed to find mutual swipes: %w", err)
	}

	for _, p := range pairs {
		m := Match{UserLowID: p.ActorID, UserHighID: p.TargetID, Status: MatchStatusMatched}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&m).Error; err != nil {
			return 0, fmt.Errorf("failed to seed match: %w", err)
		}
	}
	return len(pairs), nil
}

func clearAll(db *gorm.DB) error {
	for _, table := range []string{"messages", "conversations", "event_rsvps", "events", "matches", "swipes", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	// Reset auto-increment sequences
	switch db.Dialector.Name() {
	case "mysql":
		for _, table := range []string{"messages", "conversations", "events", "matches", "users"} {
			db.Exec("ALTER TABLE " + table + " AUTO_INCREMENT = 1")
		}
	case "sqlite":
		db.Exec("DELETE FROM sqlite_sequence")
	}
	return nil
}

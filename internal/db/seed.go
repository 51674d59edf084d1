package db

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// seed area: central London, users are scattered within ~30km.
const (
	seedLat = 51.5072
	seedLon = -0.1276
)

// SeedTestData resets the database and populates it with demo profiles and
// reactions.
//
// Behavior:
//  1. Clears messages, chats, reports, reactions and users.
//  2. Creates 20 users (10 male, 10 female) aged 20-40 around seedLat/seedLon.
//  3. Generates reactions with ~70% likes; every 3rd pair is made mutual.
//
// Ratings are left at the default; seeded reactions carry a zero delta.
// Compatible with both MySQL and SQLite.
func SeedTestData(db *gorm.DB, log *slog.Logger) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	if err := clearAll(db); err != nil {
		return err
	}
	log.Info("cleared existing data")

	now := time.Now().UTC()
	ids := make([]uint64, 0, 20)
	for i := 1; i <= 20; i++ {
		gender, preferred := GenderMale, GenderFemale
		if i > 10 {
			gender, preferred = GenderFemale, GenderMale
		}
		if i%7 == 0 {
			preferred = GenderBoth
		}

		user := User{
			Name:            fmt.Sprintf("user%d", i),
			BirthDate:       now.AddDate(-(20 + r.Intn(20)), -r.Intn(12), 0),
			Gender:          gender,
			PreferredGender: preferred,
			Latitude:        seedLat + (r.Float64()-0.5)*0.4,
			Longitude:       seedLon + (r.Float64()-0.5)*0.6,
			Rating:          DefaultRating,
			Active:          true,
		}
		if i%4 == 0 {
			lo, hi := 22, 35
			user.MinAge, user.MaxAge = &lo, &hi
		}
		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to seed user: %w", err)
		}
		ids = append(ids, user.ID)
	}
	log.Info("seeded users", "count", len(ids))

	upsert := clause.OnConflict{
		Columns:   []clause.Column{{Name: "from_user_id"}, {Name: "to_user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"reaction_type", "updated_at"}),
	}

	counter := 0
	for _, from := range ids {
		for j := 0; j < 6; j++ {
			to := ids[r.Intn(len(ids))]
			if to == from {
				continue
			}

			typ := ReactionDislike
			if r.Intn(100) < 70 {
				typ = ReactionLike
			}

			// guarantee mutual likes every 3rd pair
			if counter%3 == 0 {
				typ = ReactionLike
				back := Reaction{FromUserID: to, ToUserID: from, ReactionType: ReactionLike}
				if err := db.Clauses(upsert).Create(&back).Error; err != nil {
					return fmt.Errorf("failed to seed reaction: %w", err)
				}
			}

			reaction := Reaction{FromUserID: from, ToUserID: to, ReactionType: typ}
			if err := db.Clauses(upsert).Create(&reaction).Error; err != nil {
				return fmt.Errorf("failed to seed reaction: %w", err)
			}
			counter++
		}
	}
	log.Info("seeded reactions", "count", counter)

	return nil
}

func clearAll(db *gorm.DB) error {
	for _, table := range []string{"messages", "chat_members", "chats", "reports", "reactions", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	switch db.Dialector.Name() {
	case "mysql":
		db.Exec("ALTER TABLE users AUTO_INCREMENT = 1")
		db.Exec("ALTER TABLE chats AUTO_INCREMENT = 1")
	case "sqlite":
		db.Exec("DELETE FROM sqlite_sequence WHERE name IN ('users', 'chats')")
	}
	return nil
}

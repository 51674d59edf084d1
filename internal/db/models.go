package db

import (
	"time"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	// GenderBoth is only valid as a preference.
	GenderBoth Gender = "both"
)

type ReactionType string

const (
	ReactionLike    ReactionType = "like"
	ReactionDislike ReactionType = "dislike"
)

// Valid reports whether t is one of the known reaction types.
func (t ReactionType) Valid() bool {
	return t == ReactionLike || t == ReactionDislike
}

type ReportStatus string

const (
	ReportPending  ReportStatus = "pending"
	ReportResolved ReportStatus = "resolved"
)

// DefaultRating is the Elo rating new users start with.
const DefaultRating = 1400

// User table. Preferences are stored inline.
//
// MinAge/MaxAge form an optional inclusive age window; either bound may be
// set on its own.
type User struct {
	ID              uint64    `gorm:"primaryKey;autoIncrement"`
	Name            string    `gorm:"size:64;not null"`
	BirthDate       time.Time `gorm:"not null;index"`
	Gender          Gender    `gorm:"size:16;not null;index"`
	PreferredGender Gender    `gorm:"size:16;not null;index"`
	MinAge          *int
	MaxAge          *int
	Latitude        float64
	Longitude       float64
	Rating          int       `gorm:"not null;default:1400"`
	Active          bool      `gorm:"not null;default:true;index"`
	Superuser       bool      `gorm:"not null;default:false"`
	CreatedAt       time.Time `gorm:"autoCreateTime"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

// Age returns the user's age in whole years at now.
func (u *User) Age(now time.Time) int {
	by, bm, bd := u.BirthDate.Date()
	ny, nm, nd := now.Date()
	age := ny - by
	if nm < bm || (nm == bm && nd < bd) {
		age--
	}
	return age
}

// HasAgeWindow reports whether the user declared any age preference.
func (u *User) HasAgeWindow() bool {
	return u.MinAge != nil || u.MaxAge != nil
}

// Reaction represents a like/dislike from one user to another.
//
// Composite PK: (FromUserID, ToUserID)
//   - At most one row per ordered pair; a second reaction updates it.
//
// AddedRating is the signed change the last write applied to the target's
// rating, kept so it can be reversed exactly.
//
// Indexes:
//   - idx_reaction_from_updated(from_user_id, updated_at DESC) for rewind.
//   - idx_reaction_to_type(to_user_id, reaction_type) for likers/mutual checks.
type Reaction struct {
	FromUserID      uint64       `gorm:"primaryKey;index:idx_reaction_from_updated,priority:1"`
	ToUserID        uint64       `gorm:"primaryKey;index:idx_reaction_to_type,priority:1"`
	ReactionType    ReactionType `gorm:"size:16;not null;index:idx_reaction_to_type,priority:2"`
	AddedRating     int          `gorm:"not null;default:0"`
	IsMatchNotified bool         `gorm:"not null;default:false"`
	CreatedAt       time.Time    `gorm:"autoCreateTime"`
	UpdatedAt       time.Time    `gorm:"autoUpdateTime;index:idx_reaction_from_updated,priority:2,sort:desc"`
}

// Report excludes the pair from candidate pools and chats in both directions.
type Report struct {
	ID         uint64       `gorm:"primaryKey;autoIncrement"`
	FromUserID uint64       `gorm:"not null;index"`
	ToUserID   uint64       `gorm:"not null;index"`
	Reason     string       `gorm:"size:255;not null"`
	Status     ReportStatus `gorm:"size:16;not null;default:pending;index"`
	CreatedAt  time.Time    `gorm:"autoCreateTime"`
	UpdatedAt  time.Time    `gorm:"autoUpdateTime"`
}

// Chat joins exactly two users. The pair is stored normalized
// (UserLowID < UserHighID) under a unique index so concurrent creators
// converge on one row.
type Chat struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	UserLowID  uint64    `gorm:"not null;uniqueIndex:uq_chat_pair,priority:1"`
	UserHighID uint64    `gorm:"not null;uniqueIndex:uq_chat_pair,priority:2"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

type ChatMember struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	ChatID    uint64    `gorm:"not null;uniqueIndex:uq_chat_member,priority:1"`
	UserID    uint64    `gorm:"not null;uniqueIndex:uq_chat_member,priority:2;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// Message is an append-only chat log entry; ID order is commit order.
type Message struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	ChatID    uint64    `gorm:"not null;index"`
	UserID    uint64    `gorm:"not null;index"`
	Text      string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Models lists every table, in migration order.
func Models() []any {
	return []any{&User{}, &Reaction{}, &Report{}, &Chat{}, &ChatMember{}, &Message{}}
}

// PairKey normalizes an unordered pair.
func PairKey(a, b uint64) (low, high uint64) {
	if a < b {
		return a, b
	}
	return b, a
}

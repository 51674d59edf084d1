// Package dbtest provides in-memory SQLite databases and profile fixtures for
// package tests.
package dbtest

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/oggyb/muzz-match/internal/db"
)

// Now is the fixed reference time fixtures derive ages from.
var Now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

// Open spins up an isolated in-memory SQLite DB with the full schema.
//
// A single connection is used so concurrent tests serialize on it instead of
// failing with "database table is locked".
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(gdb))
	return gdb
}

// UserOpt tweaks a fixture user before insert.
type UserOpt func(*db.User)

func Age(years int) UserOpt {
	return func(u *db.User) { u.BirthDate = Now.AddDate(-years, 0, -1) }
}

func Gender(g, preferred db.Gender) UserOpt {
	return func(u *db.User) { u.Gender, u.PreferredGender = g, preferred }
}

func At(lat, lon float64) UserOpt {
	return func(u *db.User) { u.Latitude, u.Longitude = lat, lon }
}

func Rating(r int) UserOpt {
	return func(u *db.User) { u.Rating = r }
}

func AgeWindow(min, max int) UserOpt {
	return func(u *db.User) { u.MinAge, u.MaxAge = &min, &max }
}

func Inactive() UserOpt {
	return func(u *db.User) { u.Active = false }
}

// CreateUser inserts a 30 year old active male looking for women, located at
// 0,0 with the default rating, then applies opts.
func CreateUser(t *testing.T, gdb *gorm.DB, name string, opts ...UserOpt) db.User {
	t.Helper()

	u := db.User{
		Name:            name,
		BirthDate:       Now.AddDate(-30, 0, -1),
		Gender:          db.GenderMale,
		PreferredGender: db.GenderFemale,
		Rating:          db.DefaultRating,
		Active:          true,
	}
	for _, opt := range opts {
		opt(&u)
	}
	require.NoError(t, gdb.Create(&u).Error)

	// gorm skips zero values that carry a column default
	if !u.Active {
		require.NoError(t, gdb.Model(&u).Update("active", false).Error)
	}
	return u
}

// React inserts a raw reaction row, bypassing the ledger.
func React(t *testing.T, gdb *gorm.DB, from, to uint64, typ db.ReactionType) {
	t.Helper()
	require.NoError(t, gdb.Create(&db.Reaction{FromUserID: from, ToUserID: to, ReactionType: typ}).Error)
}

// Report inserts a report row.
func Report(t *testing.T, gdb *gorm.DB, from, to uint64) {
	t.Helper()
	require.NoError(t, gdb.Create(&db.Report{FromUserID: from, ToUserID: to, Reason: "spam", Status: db.ReportPending}).Error)
}

// Reload re-reads a user from the DB.
func Reload(t *testing.T, gdb *gorm.DB, id uint64) db.User {
	t.Helper()
	var u db.User
	require.NoError(t, gdb.First(&u, id).Error)
	return u
}

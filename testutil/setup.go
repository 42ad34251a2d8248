package testutil

import (
	"testing"

	"github.com/lingokit/server/cache"
	"github.com/lingokit/server/config"
	dbadapter "github.com/lingokit/server/db"
	"github.com/lingokit/server/model"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// SetupTestDB creates an isolated in-memory SQLite DB and runs AutoMigrate.
// It requires no external services and is safe to use in parallel tests.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := dbadapter.Open(config.DatabaseConfig{
		Mode: dbadapter.ModeSQLiteMemory,
	})
	require.NoError(t, err, "SetupTestDB: Open")
	require.NoError(t, model.AutoMigrate(db), "SetupTestDB: AutoMigrate")
	return db
}

// SetupTestCache creates LocalCache and LocalPubSub (no Redis required).
func SetupTestCache(t *testing.T) (cache.Cache, cache.PubSub) {
	t.Helper()
	cfg := cache.CacheConfig{} // empty RedisAddr → LocalCache
	c, err := cache.NewCache(cfg)
	require.NoError(t, err, "SetupTestCache: NewCache")
	ps, err := cache.NewPubSub(cfg)
	require.NoError(t, err, "SetupTestCache: NewPubSub")
	return c, ps
}

// CreateUser inserts a user with a profile and returns the user.
func CreateUser(t *testing.T, db *gorm.DB, username string, hidden bool) *model.User {
	t.Helper()
	u := &model.User{Username: username, PasswordHash: "x", Status: 1}
	require.NoError(t, db.Create(u).Error, "CreateUser: user")
	p := &model.Profile{UserID: u.ID, Hidden: hidden}
	require.NoError(t, db.Create(p).Error, "CreateUser: profile")
	return u
}

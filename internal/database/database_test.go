package database_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pigjjun/board/backend/internal/config"
	"github.com/pigjjun/board/backend/internal/database"
	"github.com/pigjjun/board/backend/internal/models"
)

func TestNewSQLite(t *testing.T) {
	svc, err := database.New(config.Database{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	defer svc.Close()

	health := svc.Health()
	assert.Equal(t, "up", health["status"])
	assert.Equal(t, "sqlite", health["driver"])

	db := svc.GetDB()
	require.True(t, db.Migrator().HasTable(&models.Post{}))
	require.True(t, db.Migrator().HasTable(&models.CommentLike{}))
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	_, err := database.New(config.Database{Driver: "oracle"})
	require.Error(t, err)
}

func TestIsUniqueViolation(t *testing.T) {
	svc, err := database.New(config.Database{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	defer svc.Close()
	db := svc.GetDB()

	require.NoError(t, db.Create(&models.User{Handle: "alice", Email: "a@x.test", Password: "x"}).Error)
	err = db.Create(&models.User{Handle: "alice", Email: "b@x.test", Password: "x"}).Error

	require.Error(t, err)
	assert.True(t, database.IsUniqueViolation(err))
	assert.False(t, database.IsUniqueViolation(nil))
}

package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&Notification{}))
	return db
}

func TestStoreNotifierPersists(t *testing.T) {
	db := newTestDB(t)
	n := NewStoreNotifier(db)

	n.Notify(7, TypeMatchApplied, "New match applicant", "A team applied to your match.", "/matches/3/applicants")

	var stored Notification
	require.NoError(t, db.First(&stored).Error)
	assert.Equal(t, uint(7), stored.RecipientID)
	assert.Equal(t, TypeMatchApplied, stored.Type)
	assert.False(t, stored.Read)
	assert.Equal(t, "/matches/3/applicants", stored.DeepLink)
}

func TestStoreNotifierIgnoresZeroRecipient(t *testing.T) {
	db := newTestDB(t)
	n := NewStoreNotifier(db)

	n.Notify(0, TypeMatchClosed, "Match filled", "", "")

	var count int64
	require.NoError(t, db.Model(&Notification{}).Count(&count).Error)
	assert.Zero(t, count)
}

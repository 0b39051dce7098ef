package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenInMemoryMigratesAllTables(t *testing.T) {
	db, err := OpenInMemory()
	require.NoError(t, err)

	for _, table := range []string{"user_billing", "entitlements", "checkout_outcomes", "report_purchases", "processed_notifications"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

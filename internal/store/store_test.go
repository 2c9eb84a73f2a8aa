package store

import (
	"database/sql"
	"testing"
	"time"

	"github.com/dukerupert/carewatch/internal/database"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// fixedClock returns a Clock that starts at start and advances by one
// second on every call.
func fixedClock(start time.Time) Clock {
	next := start
	return func() time.Time {
		t := next
		next = next.Add(time.Second)
		return t
	}
}

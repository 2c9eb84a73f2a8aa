package store

import (
	"context"
	"database/sql"
	"time"
)

// Clock returns the current time. Stores stamp every record themselves so
// stored timestamps share one format and range comparisons stay correct.
type Clock func() time.Time

// Now is the default Clock: UTC with millisecond precision.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

type scanner interface{ Scan(...any) error }

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

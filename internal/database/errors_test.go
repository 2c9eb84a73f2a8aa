package database

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
)

func TestIsConnError(t *testing.T) {
	if IsConnError(nil) {
		t.Error("nil is not a connection error")
	}
	if IsConnError(errors.New("UNIQUE constraint failed")) {
		t.Error("constraint failure is not a connection error")
	}
	if !IsConnError(fmt.Errorf("list sos alerts: %w", sql.ErrConnDone)) {
		t.Error("wrapped ErrConnDone should be a connection error")
	}
}

func TestIsConnErrorClosedHandle(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	db.Close()

	_, err = db.Exec(`SELECT 1`)
	if err == nil {
		t.Fatal("expected error on closed handle")
	}
	if !IsConnError(err) {
		t.Errorf("IsConnError(%v) = false, want true", err)
	}
}

func TestIsConnErrorCannotOpen(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "missing-dir", "carewatch.db"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer db.Close()

	err = db.Ping()
	if err == nil {
		t.Fatal("expected ping to fail for a missing directory")
	}
	if !IsConnError(err) {
		t.Errorf("IsConnError(%v) = false, want true", err)
	}
}

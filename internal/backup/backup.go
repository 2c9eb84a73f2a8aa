// Package backup writes consistent point-in-time copies of the CareWatch
// database, optionally encrypted with a passphrase, and restores them.
package backup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Snapshot copies the live database to dst using VACUUM INTO, which is
// safe while the API is serving. A non-empty passphrase encrypts the copy.
// dst must not exist.
func Snapshot(ctx context.Context, db *sql.DB, dst, passphrase string) (int64, error) {
	if _, err := os.Stat(dst); err == nil {
		return 0, fmt.Errorf("%s already exists", dst)
	}

	tmpDir, err := os.MkdirTemp(filepath.Dir(dst), ".carewatch-snapshot-")
	if err != nil {
		return 0, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	plain := filepath.Join(tmpDir, "snapshot.db")
	if _, err := db.ExecContext(ctx, `VACUUM INTO ?`, plain); err != nil {
		return 0, fmt.Errorf("vacuum into: %w", err)
	}

	data, err := os.ReadFile(plain)
	if err != nil {
		return 0, fmt.Errorf("read snapshot: %w", err)
	}
	if passphrase != "" {
		if data, err = Encrypt(data, passphrase); err != nil {
			return 0, fmt.Errorf("encrypt snapshot: %w", err)
		}
	}

	if err := os.WriteFile(dst, data, 0o600); err != nil {
		return 0, fmt.Errorf("write snapshot: %w", err)
	}
	return int64(len(data)), nil
}

// Restore writes the snapshot at src to dst after checking the result is an
// intact SQLite database. Encrypted snapshots need the passphrase they were
// written with. dst must not exist; restoring over a live database is left
// to the operator.
func Restore(ctx context.Context, src, dst, passphrase string) error {
	if _, err := os.Stat(dst); err == nil {
		return fmt.Errorf("%s already exists", dst)
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	if IsEncrypted(data) {
		if passphrase == "" {
			return errors.New("snapshot is encrypted; a passphrase is required")
		}
		if data, err = Decrypt(data, passphrase); err != nil {
			return err
		}
	}

	tmp := dst + ".restoring"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write restored db: %w", err)
	}
	defer os.Remove(tmp)

	if err := checkIntegrity(ctx, tmp); err != nil {
		return err
	}
	if err := os.Rename(tmp, dst); err != nil {
		return fmt.Errorf("move restored db: %w", err)
	}
	return nil
}

func checkIntegrity(ctx context.Context, path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open restored db: %w", err)
	}
	defer db.Close()

	var integrity string
	if err := db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&integrity); err != nil {
		return fmt.Errorf("integrity check: %w", err)
	}
	if integrity != "ok" {
		return fmt.Errorf("integrity check failed: %s", integrity)
	}

	var tables int
	err = db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'sos_alerts'`,
	).Scan(&tables)
	if err != nil {
		return fmt.Errorf("inspect restored db: %w", err)
	}
	if tables == 0 {
		return errors.New("snapshot is not a carewatch database")
	}
	return nil
}

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/carewatch/internal/backup"
	"github.com/dukerupert/carewatch/internal/config"
	"github.com/dukerupert/carewatch/internal/database"
)

func runBackup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	out := backupOut
	if out == "" {
		out = fmt.Sprintf("carewatch-%s.snapshot", time.Now().UTC().Format("2006-01-02T150405Z"))
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	size, err := backup.Snapshot(cmd.Context(), db, out, cfg.BackupPassphrase)
	if err != nil {
		return err
	}

	mode := "plain"
	if cfg.BackupPassphrase != "" {
		mode = "encrypted"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s snapshot %s (%d bytes)\n", mode, out, size)
	return nil
}

func runRestore(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	out := restoreOut
	if out == "" {
		out = cfg.DBPath
	}
	if err := backup.Restore(cmd.Context(), restoreIn, out, cfg.BackupPassphrase); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "restored %s to %s\n", restoreIn, out)
	return nil
}

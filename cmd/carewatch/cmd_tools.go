package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/carewatch/internal/config"
	"github.com/dukerupert/carewatch/internal/database"
	"github.com/dukerupert/carewatch/internal/handler"
	"github.com/dukerupert/carewatch/internal/push"
	"github.com/dukerupert/carewatch/internal/store"
	"github.com/dukerupert/carewatch/internal/summary"
)

func runSummary(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ref := time.Now()
	if summaryDate != "" {
		if ref, err = handler.ParseDate(summaryDate, cfg.Timezone); err != nil {
			return err
		}
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	svc := summary.NewService(store.NewAlertStore(db), store.NewVitalStore(db), store.NewVisitStore(db), cfg.Timezone)
	s, err := svc.Monthly(cmd.Context(), ref)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

func runVAPIDKeys(cmd *cobra.Command, _ []string) error {
	pub, priv, err := push.GenerateVAPIDKeys()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "CAREWATCH_VAPID_PUBLIC_KEY=%s\n", pub)
	fmt.Fprintf(out, "CAREWATCH_VAPID_PRIVATE_KEY=%s\n", priv)
	return nil
}

func runHashCode(cmd *cobra.Command, args []string) error {
	cost := hashCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(args[0]), cost)
	if err != nil {
		return fmt.Errorf("hash access code: %w", err)
	}
	// Single quotes stop .env loading from expanding the $ segments.
	fmt.Fprintf(cmd.OutOrStdout(), "CAREWATCH_ACCESS_CODE_HASH='%s'\n", hash)
	return nil
}

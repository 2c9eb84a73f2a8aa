package main

import (
	"github.com/spf13/cobra"
)

var (
	summaryDate string
	hashCost    int
	backupOut   string
	restoreIn   string
	restoreOut  string

	rootCmd = &cobra.Command{
		Use:   "carewatch",
		Short: "Elder care monitoring API",
		Long: `CareWatch serves SOS alerts, vital readings, caregiver visits and
monthly summaries to the family, elder, caregiver and doctor dashboards.`,
		SilenceUsage: true,
		RunE:         runServe,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}

	summaryCmd = &cobra.Command{
		Use:   "summary",
		Short: "Print the monthly summary from the local database as JSON",
		Args:  cobra.NoArgs,
		RunE:  runSummary,
	}

	vapidKeysCmd = &cobra.Command{
		Use:   "vapid-keys",
		Short: "Generate a VAPID key pair for web push",
		Args:  cobra.NoArgs,
		RunE:  runVAPIDKeys,
	}

	backupCmd = &cobra.Command{
		Use:   "backup",
		Short: "Write a snapshot of the database, encrypted when CAREWATCH_BACKUP_PASSPHRASE is set",
		Args:  cobra.NoArgs,
		RunE:  runBackup,
	}

	restoreCmd = &cobra.Command{
		Use:   "restore",
		Short: "Restore a snapshot into a new database file",
		Args:  cobra.NoArgs,
		RunE:  runRestore,
	}

	hashCodeCmd = &cobra.Command{
		Use:   "hash-code [code]",
		Short: "Hash a dashboard access code for CAREWATCH_ACCESS_CODE_HASH",
		Args:  cobra.ExactArgs(1),
		RunE:  runHashCode,
	}
)

func init() {
	summaryCmd.Flags().StringVar(&summaryDate, "date", "", "reference date (YYYY-MM-DD or RFC 3339); defaults to now")
	hashCodeCmd.Flags().IntVar(&hashCost, "cost", 0, "bcrypt cost (0 uses the library default)")

	backupCmd.Flags().StringVarP(&backupOut, "out", "o", "", "snapshot path (default carewatch-<timestamp>.snapshot)")
	restoreCmd.Flags().StringVarP(&restoreIn, "in", "i", "", "snapshot to restore")
	restoreCmd.Flags().StringVarP(&restoreOut, "out", "o", "", "database file to create (default CAREWATCH_DB_PATH)")
	restoreCmd.MarkFlagRequired("in")

	rootCmd.AddCommand(serveCmd, summaryCmd, backupCmd, restoreCmd, vapidKeysCmd, hashCodeCmd)
}

// Package config reads CareWatch settings from the environment, loading a
// .env file first when one is present.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	DBPath   string
	LogLevel string
	LogFile  string
	Timezone *time.Location

	CORSOrigins    []string
	EnforceRoles   bool
	AccessCodeHash []byte
	SOSRateLimit   int

	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubscriber string
	EscalateAfter   time.Duration

	PostmarkToken    string
	EmailFrom        string
	EscalationEmails []string

	// BackupPassphrase encrypts snapshots written by the backup command.
	BackupPassphrase string
}

// Load reads .env (if any) from the working directory, then the process
// environment. Variables already set in the environment win over .env.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv.
func FromEnv(getenv func(string) string) (*Config, error) {
	env := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		Port:            env("CAREWATCH_PORT", "5001"),
		DBPath:          env("CAREWATCH_DB_PATH", "carewatch.db"),
		LogLevel:        env("CAREWATCH_LOG_LEVEL", "info"),
		LogFile:         env("CAREWATCH_LOG_FILE", ""),
		CORSOrigins:     splitList(env("CAREWATCH_CORS_ORIGINS", "*")),
		VAPIDPublicKey:  env("CAREWATCH_VAPID_PUBLIC_KEY", ""),
		VAPIDPrivateKey: env("CAREWATCH_VAPID_PRIVATE_KEY", ""),
		VAPIDSubscriber: env("CAREWATCH_VAPID_SUBSCRIBER", ""),

		PostmarkToken:    env("CAREWATCH_POSTMARK_TOKEN", ""),
		EmailFrom:        env("CAREWATCH_EMAIL_FROM", ""),
		EscalationEmails: splitList(env("CAREWATCH_ESCALATION_EMAILS", "")),
		BackupPassphrase: getenv("CAREWATCH_BACKUP_PASSPHRASE"),
	}

	if h := env("CAREWATCH_ACCESS_CODE_HASH", ""); h != "" {
		cfg.AccessCodeHash = []byte(h)
	}

	var err error
	if cfg.Timezone, err = loadLocation(env("CAREWATCH_TIMEZONE", "")); err != nil {
		return nil, err
	}
	if cfg.EnforceRoles, err = strconv.ParseBool(env("CAREWATCH_ENFORCE_ROLES", "false")); err != nil {
		return nil, fmt.Errorf("CAREWATCH_ENFORCE_ROLES: %w", err)
	}
	if cfg.SOSRateLimit, err = strconv.Atoi(env("CAREWATCH_SOS_RATE_LIMIT", "30")); err != nil || cfg.SOSRateLimit < 0 {
		return nil, fmt.Errorf("CAREWATCH_SOS_RATE_LIMIT must be a non-negative integer")
	}
	if cfg.EscalateAfter, err = time.ParseDuration(env("CAREWATCH_ESCALATE_AFTER", "5m")); err != nil {
		return nil, fmt.Errorf("CAREWATCH_ESCALATE_AFTER: %w", err)
	}

	if (cfg.VAPIDPublicKey == "") != (cfg.VAPIDPrivateKey == "") {
		return nil, errors.New("CAREWATCH_VAPID_PUBLIC_KEY and CAREWATCH_VAPID_PRIVATE_KEY must be set together")
	}

	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("CAREWATCH_TIMEZONE: %w", err)
	}
	return loc, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

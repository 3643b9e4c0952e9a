package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	OpenAIAPIKey     string
	NotionAPIKey     string
	NotionDatabaseID string

	GmailCredentialsFile string
	GmailTokenFile       string

	MaxEmails int
	LogLevel  string
}

// Load reads configuration from environment variables. A .env file is loaded
// first if present. All three API secrets are required; missing ones are
// reported together so the user fixes them in one pass.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		OpenAIAPIKey:         os.Getenv("OPENAI_API_KEY"),
		NotionAPIKey:         os.Getenv("NOTION_API_KEY"),
		NotionDatabaseID:     os.Getenv("NOTION_DATABASE_ID"),
		GmailCredentialsFile: "credentials.json",
		GmailTokenFile:       "token.json",
		MaxEmails:            20,
		LogLevel:             "info",
	}

	if v := os.Getenv("GMAIL_CREDENTIALS_FILE"); v != "" {
		cfg.GmailCredentialsFile = v
	}
	if v := os.Getenv("GMAIL_TOKEN_FILE"); v != "" {
		cfg.GmailTokenFile = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("MAX_EMAILS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("MAX_EMAILS must be a positive integer, got %q", v)
		}
		cfg.MaxEmails = n
	}

	var missing []string
	if cfg.OpenAIAPIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if cfg.NotionAPIKey == "" {
		missing = append(missing, "NOTION_API_KEY")
	}
	if cfg.NotionDatabaseID == "" {
		missing = append(missing, "NOTION_DATABASE_ID")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

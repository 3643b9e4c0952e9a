package config

import (
	"os"
	"strings"
	"testing"
)

func setRequired(t *testing.T) {
	t.Helper()
	os.Setenv("OPENAI_API_KEY", "test-openai-key")
	os.Setenv("NOTION_API_KEY", "test-notion-key")
	os.Setenv("NOTION_DATABASE_ID", "test-db-id")
	t.Cleanup(func() {
		os.Unsetenv("OPENAI_API_KEY")
		os.Unsetenv("NOTION_API_KEY")
		os.Unsetenv("NOTION_DATABASE_ID")
		os.Unsetenv("MAX_EMAILS")
		os.Unsetenv("LOG_LEVEL")
		os.Unsetenv("GMAIL_TOKEN_FILE")
	})
}

func TestLoad_Success(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.OpenAIAPIKey != "test-openai-key" {
		t.Errorf("expected OpenAIAPIKey to be set, got %s", cfg.OpenAIAPIKey)
	}
	if cfg.NotionDatabaseID != "test-db-id" {
		t.Errorf("expected NotionDatabaseID to be set, got %s", cfg.NotionDatabaseID)
	}

	// Check defaults
	if cfg.MaxEmails != 20 {
		t.Errorf("expected MaxEmails to be 20, got %d", cfg.MaxEmails)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected LogLevel to be info, got %s", cfg.LogLevel)
	}
	if cfg.GmailCredentialsFile != "credentials.json" {
		t.Errorf("expected default credentials file, got %s", cfg.GmailCredentialsFile)
	}
	if cfg.GmailTokenFile != "token.json" {
		t.Errorf("expected default token file, got %s", cfg.GmailTokenFile)
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	os.Setenv("MAX_EMAILS", "5")
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("GMAIL_TOKEN_FILE", "/tmp/token.json")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.MaxEmails != 5 {
		t.Errorf("expected MaxEmails to be 5, got %d", cfg.MaxEmails)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected LogLevel to be debug, got %s", cfg.LogLevel)
	}
	if cfg.GmailTokenFile != "/tmp/token.json" {
		t.Errorf("expected overridden token file, got %s", cfg.GmailTokenFile)
	}
}

func TestLoad_MissingSecrets(t *testing.T) {
	os.Unsetenv("OPENAI_API_KEY")
	os.Unsetenv("NOTION_API_KEY")
	os.Unsetenv("NOTION_DATABASE_ID")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when secrets are missing, got nil")
	}

	// All missing variables are reported together.
	for _, name := range []string{"OPENAI_API_KEY", "NOTION_API_KEY", "NOTION_DATABASE_ID"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("expected error to mention %s, got %q", name, err.Error())
		}
	}
}

func TestLoad_InvalidMaxEmails(t *testing.T) {
	setRequired(t)
	os.Setenv("MAX_EMAILS", "zero")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for non-numeric MAX_EMAILS, got nil")
	}

	os.Setenv("MAX_EMAILS", "-3")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for negative MAX_EMAILS, got nil")
	}
}

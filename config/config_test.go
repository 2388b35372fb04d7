package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	// Setup: Create a temporary config directory and config file.
	tempDir := t.TempDir()
	configContent := `{"source": "ics", "ics_feeds": ["https://example.com/cal.ics"], "listen": ":9000"}`
	configPath := filepath.Join(tempDir, "config.json")
	if err := os.WriteFile(configPath, []byte(configContent), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	loader := &FileLoader{configDir: tempDir}
	config, err := loader.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.Source != SourceICS {
		t.Errorf("Expected Source to be %q, got %q", SourceICS, config.Source)
	}
	if len(config.ICSFeeds) != 1 || config.ICSFeeds[0] != "https://example.com/cal.ics" {
		t.Errorf("Unexpected ICSFeeds: %v", config.ICSFeeds)
	}
	if config.Listen != ":9000" {
		t.Errorf("Expected Listen to be ':9000', got %q", config.Listen)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	loader := &FileLoader{configDir: t.TempDir()}
	config, err := loader.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed on missing file: %v", err)
	}
	if config.Source != SourceGoogle {
		t.Errorf("Expected default Source %q, got %q", SourceGoogle, config.Source)
	}
	if config.Listen != DefaultListen {
		t.Errorf("Expected default Listen %q, got %q", DefaultListen, config.Listen)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	loader := &FileLoader{configDir: filepath.Join(t.TempDir(), "nested")}
	token := []byte(`{"access_token":"abc"}`)
	if err := loader.SaveToken(token); err != nil {
		t.Fatalf("SaveToken failed: %v", err)
	}
	got, err := loader.LoadToken()
	if err != nil {
		t.Fatalf("LoadToken failed: %v", err)
	}
	if !bytes.Equal(got, token) {
		t.Errorf("LoadToken() = %s, want %s", got, token)
	}
}

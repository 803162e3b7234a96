package cfg

import (
	"testing"
)

func TestGetVersion(t *testing.T) {
	// Test default version
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}

	version := GetVersion()
	if version != "dev" && version != "unknown" {
		// This is fine, version could be set at build time
		t.Logf("Version: %s", version)
	}
}

func TestConfigFields(t *testing.T) {
	cfg := &Cfg{
		ConfigPath: "configs/go-weekly.yml",
		StateDir:   "state",
		OutputDir:  "digests",
		DryRun:     true,
		Date:       "2025-06-02",
		UserAgent:  "Test Agent",
		Timeout:    45,
		Verbose:    true,
		Version:    "test-version",
	}

	if cfg.ConfigPath != "configs/go-weekly.yml" {
		t.Errorf("Expected config path 'configs/go-weekly.yml', got '%s'", cfg.ConfigPath)
	}
	if cfg.StateDir != "state" {
		t.Errorf("Expected state dir 'state', got '%s'", cfg.StateDir)
	}
	if cfg.OutputDir != "digests" {
		t.Errorf("Expected output dir 'digests', got '%s'", cfg.OutputDir)
	}
	if !cfg.DryRun {
		t.Error("Expected dry run to be enabled")
	}
	if cfg.Date != "2025-06-02" {
		t.Errorf("Expected date '2025-06-02', got '%s'", cfg.Date)
	}
	if cfg.UserAgent != "Test Agent" {
		t.Errorf("Expected user agent 'Test Agent', got '%s'", cfg.UserAgent)
	}
	if cfg.Timeout != 45 {
		t.Errorf("Expected timeout 45, got %d", cfg.Timeout)
	}
	if !cfg.Verbose {
		t.Error("Expected verbose to be enabled")
	}
	if cfg.Version != "test-version" {
		t.Errorf("Expected version 'test-version', got '%s'", cfg.Version)
	}
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "driftwatch.yaml")

	tests := []struct {
		name          string
		setup         func()
		validate      func(*testing.T, *Config)
		checkFile     func(*testing.T)
		expectedError bool
	}{
		{
			name:  "NewFile_Defaults",
			setup: func() {}, // No file
			validate: func(t *testing.T, cfg *Config) {
				if cfg.Segment.Map.LonJumpDeg != 20 || cfg.Segment.Globe.LonJumpDeg != 15 {
					t.Errorf("unexpected segment defaults: %+v", cfg.Segment)
				}
				if time.Duration(cfg.Predict.StepDelay) != 200*time.Millisecond {
					t.Errorf("expected step delay 200ms, got %v", time.Duration(cfg.Predict.StepDelay))
				}
				if cfg.Request.Providers["open-meteo"].Workers != 3 {
					t.Errorf("expected 3 open-meteo workers, got %d", cfg.Request.Providers["open-meteo"].Workers)
				}
			},
			checkFile: func(t *testing.T) {
				content, err := os.ReadFile(configPath)
				if err != nil {
					t.Fatalf("failed to read config file: %v", err)
				}
				if !strings.Contains(string(content), "base_url: https://a.windbornesystems.com/treasure") {
					t.Error("config file missing default feed url")
				}
				if !strings.Contains(string(content), "# 0 means 1") {
					t.Error("config file missing max_hour_gap comment")
				}
			},
		},
		{
			name: "ExistingFile_Override",
			setup: func() {
				err := os.WriteFile(configPath, []byte("segment:\n  globe:\n    lon_jump_deg: 12\nmisalign:\n  batch_delay: 2s\n"), 0o644)
				if err != nil {
					t.Fatalf("failed to setup test file: %v", err)
				}
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.Segment.Globe.LonJumpDeg != 12 {
					t.Errorf("expected globe lon jump 12, got %v", cfg.Segment.Globe.LonJumpDeg)
				}
				if cfg.Segment.Map.LatJumpDeg != 15 {
					t.Errorf("untouched map threshold should keep default, got %v", cfg.Segment.Map.LatJumpDeg)
				}
				if time.Duration(cfg.Misalign.BatchDelay) != 2*time.Second {
					t.Errorf("expected batch delay 2s, got %v", time.Duration(cfg.Misalign.BatchDelay))
				}
			},
			checkFile: func(t *testing.T) {
				content, err := os.ReadFile(configPath)
				if err != nil {
					t.Fatalf("failed to read config file: %v", err)
				}
				if strings.Contains(string(content), "Driftwatch Configuration") {
					t.Error("existing file should not be rewritten")
				}
			},
		},
		{
			name: "ProviderMap_Merge",
			setup: func() {
				err := os.WriteFile(configPath, []byte("request:\n  providers:\n    windborne:\n      workers: 4\n      gap: 50ms\n"), 0o644)
				if err != nil {
					t.Fatalf("failed to setup test file: %v", err)
				}
			},
			validate: func(t *testing.T, cfg *Config) {
				wb := cfg.Request.Providers["windborne"]
				if wb.Workers != 4 || time.Duration(wb.Gap) != 50*time.Millisecond {
					t.Errorf("unexpected windborne provider: %+v", wb)
				}
				if cfg.Request.Providers["open-meteo"].Workers != 3 {
					t.Error("default provider entries should survive a partial override")
				}
			},
			checkFile: func(t *testing.T) {},
		},
		{
			name: "Env_Override",
			setup: func() {
				t.Setenv(EnvFeedURL, "http://mirror.local/treasure")
				t.Setenv(EnvAddress, "0.0.0.0:9000")
				err := os.WriteFile(configPath, []byte("server:\n  address: localhost:1\n"), 0o644)
				if err != nil {
					t.Fatalf("failed to setup test file: %v", err)
				}
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.Feed.BaseURL != "http://mirror.local/treasure" {
					t.Errorf("expected env feed url, got %q", cfg.Feed.BaseURL)
				}
				if cfg.Server.Address != "0.0.0.0:9000" {
					t.Errorf("expected env address, got %q", cfg.Server.Address)
				}
			},
			checkFile: func(t *testing.T) {
				content, err := os.ReadFile(configPath)
				if err != nil {
					t.Fatalf("failed to read config file: %v", err)
				}
				if strings.Contains(string(content), "mirror.local") {
					t.Error("environment override should NOT be persisted to config file")
				}
			},
		},
		{
			name: "Invalid_YAML",
			setup: func() {
				err := os.WriteFile(configPath, []byte("segment: [not a map]"), 0o644)
				if err != nil {
					t.Fatalf("failed to setup test file: %v", err)
				}
			},
			expectedError: true,
		},
		{
			name: "Invalid_JumpThresholds",
			setup: func() {
				err := os.WriteFile(configPath, []byte("quality:\n  jump_error_deg: 10\n"), 0o644)
				if err != nil {
					t.Fatalf("failed to setup test file: %v", err)
				}
			},
			expectedError: true,
		},
		{
			name: "Invalid_NoFeed",
			setup: func() {
				err := os.WriteFile(configPath, []byte("feed:\n  base_url: \"\"\n"), 0o644)
				if err != nil {
					t.Fatalf("failed to setup test file: %v", err)
				}
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Remove(configPath)
			tt.setup()

			cfg, err := Load(configPath)
			if (err != nil) != tt.expectedError {
				t.Fatalf("Load() error = %v, expectedError %v", err, tt.expectedError)
			}
			if err == nil {
				tt.validate(t, cfg)
				tt.checkFile(t)
			}
		})
	}
}

func TestGenerateDefault(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "default_config.yaml")

	err := GenerateDefault(configPath)
	if err != nil {
		t.Fatalf("GenerateDefault() error = %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("GenerateDefault() did not create file")
	}

	// Running again should not fail
	err = GenerateDefault(configPath)
	if err != nil {
		t.Errorf("GenerateDefault() error on second run = %v", err)
	}

	// The generated file must load back into the same values
	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() of generated file error = %v", err)
	}
	if cfg.Quality.FlatMinSamples != 5 {
		t.Errorf("expected flat min samples 5, got %d", cfg.Quality.FlatMinSamples)
	}
}

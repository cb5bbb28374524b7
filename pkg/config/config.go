package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables that override file values when set.
const (
	EnvFeedURL = "DRIFTWATCH_FEED_URL"
	EnvAddress = "DRIFTWATCH_ADDRESS"
)

// Config holds the application configuration.
type Config struct {
	Feed     FeedConfig     `yaml:"feed"`
	Wind     WindConfig     `yaml:"wind"`
	Weather  WeatherConfig  `yaml:"weather"`
	Request  RequestConfig  `yaml:"request"`
	Segment  SegmentConfig  `yaml:"segment"`
	Quality  QualityConfig  `yaml:"quality"`
	Predict  PredictConfig  `yaml:"predict"`
	Misalign MisalignConfig `yaml:"misalign"`
	Log      LogConfig      `yaml:"log"`
	Server   ServerConfig   `yaml:"server"`
}

// FeedConfig holds settings for the hourly position feed.
type FeedConfig struct {
	BaseURL string   `yaml:"base_url"`
	Dir     string   `yaml:"dir"` // replay hour files from disk instead of BaseURL
	Refresh Duration `yaml:"refresh"`
}

// WindConfig holds settings for the upper-air wind field.
type WindConfig struct {
	BaseURL string   `yaml:"base_url"`
	Timeout Duration `yaml:"timeout"`
}

// WeatherConfig holds settings for surface weather lookups.
type WeatherConfig struct {
	BaseURL  string   `yaml:"base_url"`
	CacheTTL Duration `yaml:"cache_ttl"`
}

// RequestConfig holds HTTP request settings.
type RequestConfig struct {
	Retries   int                       `yaml:"retries"`
	Timeout   Duration                  `yaml:"timeout"`
	Backoff   BackoffConfig             `yaml:"backoff"`
	Providers map[string]ProviderConfig `yaml:"providers"`
}

// BackoffConfig holds exponential backoff settings.
type BackoffConfig struct {
	BaseDelay Duration `yaml:"base_delay"`
	MaxDelay  Duration `yaml:"max_delay"`
}

// ProviderConfig controls concurrency against one upstream.
type ProviderConfig struct {
	Workers int      `yaml:"workers"`
	Gap     Duration `yaml:"gap"`
}

// SegmentConfig holds the break thresholds per rendering context.
type SegmentConfig struct {
	Map   Thresholds `yaml:"map"`
	Globe Thresholds `yaml:"globe"`
}

// Thresholds are the discontinuity limits for one rendering context.
type Thresholds struct {
	LonJumpDeg float64 `yaml:"lon_jump_deg"`
	LatJumpDeg float64 `yaml:"lat_jump_deg"`
	MaxHourGap int     `yaml:"max_hour_gap"`
}

// QualityConfig holds the data quality policy.
type QualityConfig struct {
	MinSamples          int     `yaml:"min_samples"`
	MinAltitudeKm       float64 `yaml:"min_altitude_km"`
	MaxAltitudeKm       float64 `yaml:"max_altitude_km"`
	JumpWarningDeg      float64 `yaml:"jump_warning_deg"`
	JumpErrorDeg        float64 `yaml:"jump_error_deg"`
	FlatAltitudeRangeKm float64 `yaml:"flat_altitude_range_km"`
	FlatMinSamples      int     `yaml:"flat_min_samples"`
}

// PredictConfig holds settings for trajectory prediction.
type PredictConfig struct {
	StepDelay Duration `yaml:"step_delay"`
	CacheTTL  Duration `yaml:"cache_ttl"`
}

// MisalignConfig holds settings for the wind misalignment sweep.
type MisalignConfig struct {
	SampleSize       int      `yaml:"sample_size"`
	SegmentsPerTrack int      `yaml:"segments_per_track"`
	BatchSize        int      `yaml:"batch_size"`
	BatchDelay       Duration `yaml:"batch_delay"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Server   LogSettings `yaml:"server"`
	Requests LogSettings `yaml:"requests"`
	Events   LogSettings `yaml:"events"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// LogSettings holds settings for a specific logger.
type LogSettings struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Feed: FeedConfig{
			BaseURL: "https://a.windbornesystems.com/treasure",
			Refresh: Duration(time.Hour),
		},
		Wind: WindConfig{
			BaseURL: "https://api.open-meteo.com/v1/forecast",
			Timeout: Duration(10 * time.Second),
		},
		Weather: WeatherConfig{
			BaseURL:  "https://api.open-meteo.com/v1/forecast",
			CacheTTL: Duration(30 * time.Minute),
		},
		Request: RequestConfig{
			Retries: 3,
			Timeout: Duration(10 * time.Second),
			Backoff: BackoffConfig{
				BaseDelay: Duration(500 * time.Millisecond),
				MaxDelay:  Duration(30 * time.Second),
			},
			Providers: map[string]ProviderConfig{
				"windborne":  {Workers: 24},
				"open-meteo": {Workers: 3},
				"default":    {Workers: 1},
			},
		},
		Segment: SegmentConfig{
			Map:   Thresholds{LonJumpDeg: 20, LatJumpDeg: 15, MaxHourGap: 1},
			Globe: Thresholds{LonJumpDeg: 15, LatJumpDeg: 10, MaxHourGap: 1},
		},
		Quality: QualityConfig{
			MinSamples:          24,
			MinAltitudeKm:       5,
			MaxAltitudeKm:       40,
			JumpWarningDeg:      15,
			JumpErrorDeg:        30,
			FlatAltitudeRangeKm: 0.5,
			FlatMinSamples:      5,
		},
		Predict: PredictConfig{
			StepDelay: Duration(200 * time.Millisecond),
			CacheTTL:  Duration(time.Hour),
		},
		Misalign: MisalignConfig{
			SampleSize:       50,
			SegmentsPerTrack: 2,
			BatchSize:        3,
			BatchDelay:       Duration(time.Second),
		},
		Log: LogConfig{
			Server: LogSettings{
				Path:  "./logs/server.log",
				Level: "INFO",
			},
			Requests: LogSettings{
				Path:  "./logs/requests.log",
				Level: "INFO",
			},
			Events: LogSettings{
				Path:  "./logs/events.log",
				Level: "INFO",
			},
		},
		Server: ServerConfig{
			Address: "localhost:1930",
		},
	}
}

// Load loads the configuration from the given path.
// If the file does not exist, it creates it with default values.
// If the file exists, it merges defaults with existing values but does NOT save back to disk (to preserve user formatting and comments).
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if err := Save(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to save config file: %w", err)
	}

	// Env wins over the file but is never written back
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvFeedURL); v != "" {
		cfg.Feed.BaseURL = v
	}
	if v := os.Getenv(EnvAddress); v != "" {
		cfg.Server.Address = v
	}
}

// Validate rejects values the analysis cannot run with.
func (c *Config) Validate() error {
	if c.Feed.BaseURL == "" && c.Feed.Dir == "" {
		return fmt.Errorf("feed: either base_url or dir must be set")
	}
	if c.Quality.JumpErrorDeg < c.Quality.JumpWarningDeg {
		return fmt.Errorf("quality: jump_error_deg (%.1f) below jump_warning_deg (%.1f)", c.Quality.JumpErrorDeg, c.Quality.JumpWarningDeg)
	}
	if c.Quality.MinAltitudeKm >= c.Quality.MaxAltitudeKm {
		return fmt.Errorf("quality: min_altitude_km must be below max_altitude_km")
	}
	if c.Misalign.BatchSize < 1 {
		return fmt.Errorf("misalign: batch_size must be at least 1")
	}
	return nil
}

// Save writes the configuration to the path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# Driftwatch Configuration
# ------------------------
# Supported Units:
#   Duration: ns, us (or µs), ms, s, m, h, d (day), w (week)
# Environment overrides: DRIFTWATCH_FEED_URL, DRIFTWATCH_ADDRESS

`)
	data = append(header, data...)

	// Inject comments for non-obvious keys.
	reDir := regexp.MustCompile(`(?m)^(\s+)dir:`)
	data = reDir.ReplaceAll(data, []byte("${1}# Local directory holding 00.json..23.json; overrides base_url when set\n${1}dir:"))

	reGap := regexp.MustCompile(`(?m)^(\s+)max_hour_gap:`)
	data = reGap.ReplaceAll(data, []byte("${1}# 0 means 1\n${1}max_hour_gap:"))

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault creates a default config file at the given path.
// Returns nil if the file already exists.
func GenerateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil // File exists, do nothing
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return Save(path, DefaultConfig())
}

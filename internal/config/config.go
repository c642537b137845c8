package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/merchpilot/merchpilot/internal/domain"
)

// Config holds all application configuration
type Config struct {
	General       GeneralConfig       `toml:"general"`
	Pipeline      PipelineConfig      `toml:"pipeline"`
	Pricing       PricingConfig       `toml:"pricing"`
	Schedule      ScheduleConfig      `toml:"schedule"`
	Notifications NotificationsConfig `toml:"notifications"`
	Web           WebConfig           `toml:"web"`
}

// GeneralConfig holds general settings
type GeneralConfig struct {
	DatabasePath  string `toml:"database_path"`
	ArtifactDir   string `toml:"artifact_dir"`
	BrandListPath string `toml:"brand_list_path"`
	LogJSON       bool   `toml:"log_json"`
	LogLevel      string `toml:"log_level"`
}

// PipelineConfig holds thresholds and limits for a pipeline run
type PipelineConfig struct {
	BatchSize          int      `toml:"batch_size"`
	MaxNiches          int      `toml:"max_niches"`
	ConceptsPerNiche   int      `toml:"concepts_per_niche"`
	VariantsPerConcept int      `toml:"variants_per_concept"`
	SaturationLimit    int      `toml:"saturation_limit"`
	ScoreFloor         float64  `toml:"score_floor"`
	AcceptedTiers      []string `toml:"accepted_tiers"`
	QualityThreshold   float64  `toml:"quality_threshold"`
	MutationInterval   int      `toml:"mutation_interval"`
	MinContrastRatio   float64  `toml:"min_contrast_ratio"`
	RiskCeiling        float64  `toml:"risk_ceiling"`

	ResearchTimeout   time.Duration `toml:"research_timeout"`
	GateTimeout       time.Duration `toml:"gate_timeout"`
	ImageTimeout      time.Duration `toml:"image_timeout"`
	ImageMaxRetries   int           `toml:"image_max_retries"`
	ImageRetryBackoff time.Duration `toml:"image_retry_backoff"`
}

// PricingConfig holds base prices per product type
type PricingConfig struct {
	StandardTee float64 `toml:"standard_tee"`
	PremiumTee  float64 `toml:"premium_tee"`
	Hoodie      float64 `toml:"hoodie"`
}

// ScheduleConfig holds the trigger settings
type ScheduleConfig struct {
	// Cron uses standard 5-field syntax. Default fires every 3 hours.
	Cron    string `toml:"cron"`
	Enabled bool   `toml:"enabled"`
}

// NotificationsConfig holds notification settings
type NotificationsConfig struct {
	SlackWebhook string `toml:"slack_webhook"`
	Desktop      bool   `toml:"desktop"`
}

// WebConfig holds status server settings
type WebConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		General: GeneralConfig{
			DatabasePath: filepath.Join(home, ".merchpilot", "merchpilot.db"),
			ArtifactDir:  filepath.Join(home, ".merchpilot", "artifacts"),
			LogLevel:     "info",
		},
		Pipeline: PipelineConfig{
			BatchSize:          3,
			MaxNiches:          5,
			ConceptsPerNiche:   2,
			VariantsPerConcept: 3,
			SaturationLimit:    1000,
			ScoreFloor:         7.0,
			AcceptedTiers:      []string{"excellent", "good"},
			QualityThreshold:   8.5,
			MutationInterval:   5,
			MinContrastRatio:   4.5,
			RiskCeiling:        3.0,
			ResearchTimeout:    30 * time.Second,
			GateTimeout:        20 * time.Second,
			ImageTimeout:       30 * time.Second,
			ImageMaxRetries:    3,
			ImageRetryBackoff:  5 * time.Second,
		},
		Pricing: PricingConfig{
			StandardTee: 19.99,
			PremiumTee:  25.99,
			Hoodie:      38.99,
		},
		Schedule: ScheduleConfig{
			Cron:    "0 */3 * * *",
			Enabled: true,
		},
		Web: WebConfig{
			Port: 8080,
			Host: "127.0.0.1",
		},
	}
}

// Load reads configuration from a TOML file, falling back to defaults
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.General.DatabasePath = ExpandPath(cfg.General.DatabasePath)
	cfg.General.ArtifactDir = ExpandPath(cfg.General.ArtifactDir)
	cfg.General.BrandListPath = ExpandPath(cfg.General.BrandListPath)

	return cfg, nil
}

// DefaultConfigPath returns the standard config file location
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".merchpilot", "config.toml")
}

// ExpandPath expands ~ to the user's home directory
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// Targets converts pipeline config into run-level thresholds
func (c *Config) Targets() domain.Targets {
	tiers := make([]domain.BSRTier, 0, len(c.Pipeline.AcceptedTiers))
	for _, t := range c.Pipeline.AcceptedTiers {
		tiers = append(tiers, domain.BSRTier(t))
	}
	return domain.Targets{
		SaturationLimit:  c.Pipeline.SaturationLimit,
		ScoreFloor:       c.Pipeline.ScoreFloor,
		AcceptedTiers:    tiers,
		QualityThreshold: c.Pipeline.QualityThreshold,
		MutationInterval: c.Pipeline.MutationInterval,
	}
}

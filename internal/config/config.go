package config

import (
	"time"

	"searchabull-keyword-engine/pkg/api"
	"searchabull-keyword-engine/pkg/backend"
	"searchabull-keyword-engine/pkg/logger"
)

type Config struct {
	Server     ServerConfig          `mapstructure:"server"`
	DataForSEO api.DataForSEOConfig  `mapstructure:"dataforseo"`
	GoogleAds  api.GoogleAdsConfig   `mapstructure:"googleads"`
	DeepL      api.DeepLConfig       `mapstructure:"deepl"`
	Connection api.ConnectionConfig  `mapstructure:"connection"`
	Pipeline   PipelineConfig        `mapstructure:"pipeline"`
	Export     ExportConfig          `mapstructure:"export"`
	Reference  ReferenceConfig       `mapstructure:"reference"`
	Backend    backend.BackendConfig `mapstructure:"backend"`
	Logger     logger.Config         `mapstructure:"logger"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	BodyLimit    int           `mapstructure:"body_limit"`
	// RunTimeout bounds one volume or translation request end to end.
	RunTimeout time.Duration `mapstructure:"run_timeout"`
}

// PipelineConfig selects the provider and tunes retries and pacing.
type PipelineConfig struct {
	Provider          string        `mapstructure:"provider"`
	Mode              string        `mapstructure:"mode"`
	MaxAttempts       int           `mapstructure:"max_attempts"`
	BaseDelay         time.Duration `mapstructure:"base_delay"`
	BackoffMultiplier float64       `mapstructure:"backoff_multiplier"`
	PauseBase         time.Duration `mapstructure:"pause_base"`
	PauseJitter       time.Duration `mapstructure:"pause_jitter"`
}

// RetryPolicy converts the retry settings.
func (p PipelineConfig) RetryPolicy() api.RetryPolicy {
	return api.RetryPolicy{
		MaxAttempts:       p.MaxAttempts,
		BaseDelay:         p.BaseDelay,
		BackoffMultiplier: p.BackoffMultiplier,
	}
}

type ExportConfig struct {
	Timezone  string `mapstructure:"timezone"`
	OutputDir string `mapstructure:"output_dir"`
}

// ReferenceConfig points at optional location/language tables that
// extend the built-in ones.
type ReferenceConfig struct {
	LocationsFile string `mapstructure:"locations_file"`
	LanguagesFile string `mapstructure:"languages_file"`
}

// Provider names accepted in pipeline.provider.
const (
	ProviderDataForSEO = "dataforseo"
	ProviderGoogleAds  = "googleads"
)

type Manager interface {
	Load(configPath string) (*Config, error)
	Reload() error
	GetConfig() *Config
	Watch(onChange func(*Config, error))
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"searchabull-keyword-engine/pkg/api"
)

const envPrefix = "SEARCHABULL"

// EnvFiles are loaded, when present, before the environment is read.
// Variables already set in the process environment win.
var EnvFiles = []string{".env.local", ".env"}

// defaults registers every key so that env overrides reach Unmarshal.
var defaults = map[string]interface{}{
	"server.host":          "0.0.0.0",
	"server.port":          8080,
	"server.read_timeout":  "30s",
	"server.write_timeout": "30m",
	"server.body_limit":    32 * 1024 * 1024,
	"server.run_timeout":   "2h",

	"dataforseo.login":         "",
	"dataforseo.password":      "",
	"dataforseo.sandbox":       false,
	"dataforseo.base_url":      "",
	"dataforseo.sort_by":       "search_volume",
	"dataforseo.include_adult": true,
	"dataforseo.timeout":       "30s",

	"googleads.developer_token":   "",
	"googleads.customer_id":       "",
	"googleads.login_customer_id": "",
	"googleads.client_id":         "",
	"googleads.client_secret":     "",
	"googleads.refresh_token":     "",
	"googleads.base_url":          api.GoogleAdsBaseURL,
	"googleads.token_url":         api.GoogleOAuthTokenURL,
	"googleads.api_version":       api.GoogleAdsAPIVersion,
	"googleads.include_adult":     false,
	"googleads.timeout":           "90s",

	"deepl.auth_key":    "",
	"deepl.base_url":    "",
	"deepl.source_lang": "EN",
	"deepl.target_lang": "DE",
	"deepl.timeout":     "30s",

	"connection.max_conns_per_host":     4,
	"connection.max_idle_conn_duration": "90s",
	"connection.read_timeout":           "90s",
	"connection.write_timeout":          "30s",
	"connection.request_timeout":        "30s",
	"connection.user_agent":             "searchabull-keyword-engine/1.0",

	"pipeline.provider":           ProviderDataForSEO,
	"pipeline.mode":               string(api.ModeHistorical),
	"pipeline.max_attempts":       3,
	"pipeline.base_delay":         "5s",
	"pipeline.backoff_multiplier": 2.0,
	"pipeline.pause_base":         "5s",
	"pipeline.pause_jitter":       "1500ms",

	"export.timezone":   "Europe/Bratislava",
	"export.output_dir": "output",

	"reference.locations_file": "",
	"reference.languages_file": "",

	"backend.url":         "",
	"backend.api_key":     "",
	"backend.batch_size":  300,
	"backend.enable_gzip": true,
	"backend.timeout":     "60s",

	"logger.level":       "info",
	"logger.format":      "json",
	"logger.output":      "stdout",
	"logger.time_format": "",
}

// legacyEnv maps keys to the unprefixed variable names used by existing
// deployments. The prefixed name is checked first.
var legacyEnv = map[string]string{
	"dataforseo.login":          "DATAFORSEO_LOGIN",
	"dataforseo.password":       "DATAFORSEO_PASSWORD",
	"deepl.auth_key":            "DEEPL_API_KEY",
	"googleads.developer_token": "GOOGLE_ADS_DEVELOPER_TOKEN",
	"googleads.customer_id":     "GOOGLE_ADS_CUSTOMER_ID",
	"googleads.client_id":       "GOOGLE_ADS_CLIENT_ID",
	"googleads.client_secret":   "GOOGLE_ADS_CLIENT_SECRET",
	"googleads.refresh_token":   "GOOGLE_ADS_REFRESH_TOKEN",
	"logger.level":              "LOG_LEVEL",
}

type manager struct {
	mu     sync.RWMutex
	config *Config
	viper  *viper.Viper
}

func NewManager() Manager {
	return &manager{
		viper: viper.New(),
	}
}

// Load reads configPath (optional, YAML) and the environment. An empty
// path uses defaults and environment only.
func (m *manager) Load(configPath string) (*Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := loadEnvFiles(EnvFiles); err != nil {
		return nil, fmt.Errorf("failed to load env files: %w", err)
	}
	if err := m.setupViper(configPath); err != nil {
		return nil, fmt.Errorf("failed to setup viper: %w", err)
	}
	if configPath != "" {
		if err := m.viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	config, err := m.decode()
	if err != nil {
		return nil, err
	}
	m.config = config
	return config, nil
}

func (m *manager) Reload() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.config == nil {
		return fmt.Errorf("config not loaded")
	}
	if m.viper.ConfigFileUsed() != "" {
		if err := m.viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to reload config: %w", err)
		}
	}

	config, err := m.decode()
	if err != nil {
		return err
	}
	m.config = config
	return nil
}

// Watch reloads the config file when it changes on disk and passes the
// new config to onChange. Invalid edits are reported and the previous
// config is kept. It is a no-op when no file was loaded.
func (m *manager) Watch(onChange func(*Config, error)) {
	m.mu.RLock()
	path := m.viper.ConfigFileUsed()
	m.mu.RUnlock()
	if path == "" {
		return
	}

	m.viper.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		m.mu.Lock()
		config, err := m.decode()
		if err == nil {
			m.config = config
		}
		m.mu.Unlock()
		onChange(config, err)
	})
	m.viper.WatchConfig()
}

func (m *manager) GetConfig() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

func (m *manager) decode() (*Config, error) {
	var config Config
	if err := m.viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &config, nil
}

func (m *manager) setupViper(configPath string) error {
	for key, value := range defaults {
		m.viper.SetDefault(key, value)
	}

	m.viper.SetEnvPrefix(envPrefix)
	m.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	m.viper.AutomaticEnv()
	for key, legacy := range legacyEnv {
		prefixed := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := m.viper.BindEnv(key, prefixed, legacy); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return fmt.Errorf("config file: %w", err)
		}
		m.viper.SetConfigFile(configPath)
	}
	return nil
}

func loadEnvFiles(files []string) error {
	for _, name := range files {
		err := godotenv.Load(name)
		if err == nil || errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	switch config.Pipeline.Provider {
	case ProviderDataForSEO, ProviderGoogleAds:
	default:
		return fmt.Errorf("unknown provider %q (want %s or %s)", config.Pipeline.Provider, ProviderDataForSEO, ProviderGoogleAds)
	}
	if _, ok := api.ParseMode(config.Pipeline.Mode); !ok {
		return fmt.Errorf("unknown mode %q", config.Pipeline.Mode)
	}

	if config.Pipeline.MaxAttempts <= 0 {
		return fmt.Errorf("pipeline.max_attempts must be positive")
	}
	if config.Pipeline.BaseDelay < 0 || config.Pipeline.PauseBase < 0 || config.Pipeline.PauseJitter < 0 {
		return fmt.Errorf("pipeline delays cannot be negative")
	}
	if config.Pipeline.BackoffMultiplier < 1 {
		return fmt.Errorf("pipeline.backoff_multiplier must be at least 1")
	}

	if config.Export.Timezone == "" {
		return fmt.Errorf("export.timezone cannot be empty")
	}
	return nil
}

package api

import (
	"time"

	"github.com/valyala/fasthttp"
)

// ConnectionConfig holds configuration for provider HTTP connections
type ConnectionConfig struct {
	MaxConnsPerHost     int           `mapstructure:"max_conns_per_host"`
	MaxIdleConnDuration time.Duration `mapstructure:"max_idle_conn_duration"`
	ReadTimeout         time.Duration `mapstructure:"read_timeout"`
	WriteTimeout        time.Duration `mapstructure:"write_timeout"`
	RequestTimeout      time.Duration `mapstructure:"request_timeout"`
	UserAgent           string        `mapstructure:"user_agent"`
}

// DefaultConnectionConfig suits a tool that sends one request at a time.
// Read timeout covers the slowest provider (Google Ads, 90s).
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		MaxConnsPerHost:     4,
		MaxIdleConnDuration: 90 * time.Second,
		ReadTimeout:         90 * time.Second,
		WriteTimeout:        30 * time.Second,
		RequestTimeout:      30 * time.Second,
		UserAgent:           "searchabull-keyword-engine/1.0",
	}
}

func newFastHTTPClient(config ConnectionConfig) *fasthttp.Client {
	return &fasthttp.Client{
		Name:                     config.UserAgent,
		ReadTimeout:              config.ReadTimeout,
		WriteTimeout:             config.WriteTimeout,
		MaxConnsPerHost:          config.MaxConnsPerHost,
		MaxIdleConnDuration:      config.MaxIdleConnDuration,
		NoDefaultUserAgentHeader: config.UserAgent != "",
	}
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	EnvFiles = nil
	cfg, err := NewManager().Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Pipeline.Provider != ProviderDataForSEO {
		t.Errorf("Pipeline.Provider = %q", cfg.Pipeline.Provider)
	}
	policy := cfg.Pipeline.RetryPolicy()
	if policy.MaxAttempts != 3 || policy.BaseDelay != 5*time.Second || policy.BackoffMultiplier != 2 {
		t.Errorf("RetryPolicy() = %+v", policy)
	}
	if cfg.Pipeline.PauseJitter != 1500*time.Millisecond {
		t.Errorf("Pipeline.PauseJitter = %v", cfg.Pipeline.PauseJitter)
	}
	if cfg.Export.Timezone != "Europe/Bratislava" {
		t.Errorf("Export.Timezone = %q", cfg.Export.Timezone)
	}
	if cfg.Backend.BatchSize != 300 {
		t.Errorf("Backend.BatchSize = %d", cfg.Backend.BatchSize)
	}
	if cfg.GoogleAds.APIVersion == "" {
		t.Error("GoogleAds.APIVersion should have a default")
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	EnvFiles = nil
	path := writeFile(t, "config.yaml", `
server:
  port: 9090
pipeline:
  mode: ideas
  pause_base: 2s
dataforseo:
  login: file-login
  sandbox: true
`)
	t.Setenv("SEARCHABULL_PIPELINE_PROVIDER", "googleads")
	t.Setenv("DATAFORSEO_PASSWORD", "legacy-secret")
	t.Setenv("SEARCHABULL_DATAFORSEO_LOGIN", "env-login")

	m := NewManager()
	cfg, err := m.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Pipeline.Mode != "ideas" || cfg.Pipeline.PauseBase != 2*time.Second {
		t.Errorf("Pipeline = %+v", cfg.Pipeline)
	}
	if cfg.Pipeline.Provider != ProviderGoogleAds {
		t.Errorf("Pipeline.Provider = %q, want env override", cfg.Pipeline.Provider)
	}
	if cfg.DataForSEO.Login != "env-login" {
		t.Errorf("DataForSEO.Login = %q, want env-login", cfg.DataForSEO.Login)
	}
	if cfg.DataForSEO.Password != "legacy-secret" {
		t.Errorf("DataForSEO.Password = %q, want legacy variable", cfg.DataForSEO.Password)
	}
	if !cfg.DataForSEO.Sandbox {
		t.Error("DataForSEO.Sandbox = false, want true")
	}
	if m.GetConfig() != cfg {
		t.Error("GetConfig() should return the loaded config")
	}
}

func TestLoadEnvFile(t *testing.T) {
	dotenv := writeFile(t, ".env", "DEEPL_API_KEY=from-dotenv\n")
	EnvFiles = []string{dotenv, filepath.Join(t.TempDir(), "absent.env")}
	t.Cleanup(func() {
		EnvFiles = nil
		os.Unsetenv("DEEPL_API_KEY")
	})

	cfg, err := NewManager().Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DeepL.AuthKey != "from-dotenv" {
		t.Errorf("DeepL.AuthKey = %q, want from-dotenv", cfg.DeepL.AuthKey)
	}
}

func TestLoadErrors(t *testing.T) {
	EnvFiles = nil
	tests := []struct {
		name    string
		path    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing file",
			path:    filepath.Join(t.TempDir(), "nope.yaml"),
			wantErr: "config file",
		},
		{
			name:    "unknown provider",
			env:     map[string]string{"SEARCHABULL_PIPELINE_PROVIDER": "bing"},
			wantErr: "unknown provider",
		},
		{
			name:    "unknown mode",
			env:     map[string]string{"SEARCHABULL_PIPELINE_MODE": "forecast"},
			wantErr: "unknown mode",
		},
		{
			name:    "bad port",
			env:     map[string]string{"SEARCHABULL_SERVER_PORT": "70000"},
			wantErr: "invalid server port",
		},
		{
			name:    "zero attempts",
			env:     map[string]string{"SEARCHABULL_PIPELINE_MAX_ATTEMPTS": "0"},
			wantErr: "max_attempts",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := NewManager().Load(tt.path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestReloadBeforeLoad(t *testing.T) {
	if err := NewManager().Reload(); err == nil {
		t.Error("Reload() before Load() should fail")
	}
}

func TestWatchReloadsOnWrite(t *testing.T) {
	EnvFiles = nil
	path := writeFile(t, "config.yaml", "server:\n  port: 9090\n")

	m := NewManager()
	if _, err := m.Load(path); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	changed := make(chan *Config, 4)
	m.Watch(func(cfg *Config, err error) {
		if err == nil {
			changed <- cfg
		}
	})

	if err := os.WriteFile(path, []byte("server:\n  port: 9191\n"), 0o600); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case cfg := <-changed:
			if cfg.Server.Port == 9191 {
				if m.GetConfig().Server.Port != 9191 {
					t.Error("GetConfig() should return the reloaded config")
				}
				return
			}
		case <-deadline:
			t.Fatal("config change was not picked up")
		}
	}
}

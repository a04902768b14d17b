package config

import (
	"os"
	"path/filepath"
	"testing"
)

// writeConfig writes a config file into a temp dir and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
mqtt:
  broker:
    host: "broker.local"
    port: 1883
    client_id: "test-client"
  qos: 1
api:
  host: "0.0.0.0"
  port: 8080
query:
  rollup_window_days: 30
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}
	if cfg.MQTT.Broker.Host != "broker.local" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "broker.local")
	}
	if cfg.Query.RollupWindowDays != 30 {
		t.Errorf("Query.RollupWindowDays = %d, want 30", cfg.Query.RollupWindowDays)
	}
}

func TestLoad_Defaults(t *testing.T) {
	// A minimal file should still produce a fully usable config.
	path := writeConfig(t, `
database:
  path: "/tmp/test.db"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Ingest.Workers != 4 {
		t.Errorf("Ingest.Workers = %d, want default 4", cfg.Ingest.Workers)
	}
	if cfg.Ingest.MergeRetries != 3 {
		t.Errorf("Ingest.MergeRetries = %d, want default 3", cfg.Ingest.MergeRetries)
	}
	if cfg.Query.RollupWindowDays != 30 {
		t.Errorf("Query.RollupWindowDays = %d, want default 30", cfg.Query.RollupWindowDays)
	}
	if cfg.MQTT.Broker.ClientID != "aquasense-core" {
		t.Errorf("MQTT.Broker.ClientID = %q, want default", cfg.MQTT.Broker.ClientID)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "invalid: [yaml: content")

	_, err := Load(path)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
database:
  path: "/tmp/test.db"
mqtt:
  auth:
    username: "file-user"
`)

	t.Setenv("AQUASENSE_MQTT_PASSWORD", "secret-from-env")
	t.Setenv("AQUASENSE_DATABASE_PATH", "/tmp/override.db")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.Auth.Password != "secret-from-env" {
		t.Errorf("MQTT.Auth.Password = %q, want env override", cfg.MQTT.Auth.Password)
	}
	if cfg.Database.Path != "/tmp/override.db" {
		t.Errorf("Database.Path = %q, want env override", cfg.Database.Path)
	}
	if cfg.MQTT.Auth.Username != "file-user" {
		t.Errorf("MQTT.Auth.Username = %q, want file value", cfg.MQTT.Auth.Username)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return defaultConfig()
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "defaults are valid",
			mutate:  func(_ *Config) {},
			wantErr: false,
		},
		{
			name:    "empty database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: true,
		},
		{
			name:    "invalid qos",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: true,
		},
		{
			name:    "invalid api port",
			mutate:  func(c *Config) { c.API.Port = 0 },
			wantErr: true,
		},
		{
			name:    "zero ingest workers",
			mutate:  func(c *Config) { c.Ingest.Workers = 0 },
			wantErr: true,
		},
		{
			name:    "zero rollup window",
			mutate:  func(c *Config) { c.Query.RollupWindowDays = 0 },
			wantErr: true,
		},
		{
			name:    "influxdb enabled without url",
			mutate:  func(c *Config) { c.InfluxDB.Enabled = true },
			wantErr: true,
		},
		{
			name: "influxdb enabled with url and bucket",
			mutate: func(c *Config) {
				c.InfluxDB.Enabled = true
				c.InfluxDB.URL = "http://localhost:8086"
				c.InfluxDB.Bucket = "readings"
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_TimeoutGetters(t *testing.T) {
	cfg := defaultConfig()
	if got := cfg.GetReadTimeout().Seconds(); got != 30 {
		t.Errorf("GetReadTimeout() = %vs, want 30s", got)
	}
	if got := cfg.GetIdleTimeout().Seconds(); got != 60 {
		t.Errorf("GetIdleTimeout() = %vs, want 60s", got)
	}
}

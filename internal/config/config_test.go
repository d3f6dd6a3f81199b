package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APPGEN_CONFIG", "APPGEN_TEMPLATE_DIR", "APPGEN_OUTPUT_DIR", "APPGEN_DATA_DIR",
		"APPGEN_LISTEN_ADDR", "APPGEN_ALLOWED_ORIGIN", "APPGEN_LOG_LEVEL", "APPGEN_EXCLUDE",
		"APPGEN_WORKERS", "APPGEN_MAX_BODY_BYTES", "WHATSAPP_ENABLED", "WHATSAPP_DATA_DIR",
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "appgen.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.OutputDir != "generated_apps" || cfg.ListenAddr != ":4000" || cfg.Workers != 4 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if len(cfg.Exclude) != 1 || cfg.Exclude[0] != "widget_test.dart" {
		t.Errorf("Exclude = %v", cfg.Exclude)
	}
	if cfg.WhatsApp.Enabled || cfg.WhatsApp.DataDir != cfg.DataDir {
		t.Errorf("WhatsApp = %+v", cfg.WhatsApp)
	}
}

func TestLoadConfigMissingFileIsFine(t *testing.T) {
	clearEnv(t)
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err != nil {
		t.Errorf("LoadConfig error: %v", err)
	}
}

func TestLoadConfigYAMLThenEnv(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
output_dir: /srv/apps
workers: 8
exclude: ["*_test.dart", ".DS_Store"]
whatsapp:
  enabled: true
  data_dir: /srv/wa
`)
	t.Setenv("APPGEN_WORKERS", "2")
	t.Setenv("APPGEN_LISTEN_ADDR", ":9000")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.OutputDir != "/srv/apps" {
		t.Errorf("OutputDir = %q", cfg.OutputDir)
	}
	if cfg.Workers != 2 {
		t.Errorf("Workers = %d, env should win", cfg.Workers)
	}
	if cfg.ListenAddr != ":9000" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if len(cfg.Exclude) != 2 || cfg.Exclude[1] != ".DS_Store" {
		t.Errorf("Exclude = %v", cfg.Exclude)
	}
	if !cfg.WhatsApp.Enabled || cfg.WhatsApp.DataDir != "/srv/wa" {
		t.Errorf("WhatsApp = %+v", cfg.WhatsApp)
	}
	if cfg.DataDir != "data" {
		t.Errorf("DataDir = %q, default should survive", cfg.DataDir)
	}
}

func TestLoadConfigFromEnvPath(t *testing.T) {
	clearEnv(t)
	t.Setenv("APPGEN_CONFIG", writeConfig(t, "listen_addr: \":7000\"\n"))

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.ListenAddr != ":7000" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		env  map[string]string
	}{
		{name: "bad_yaml", yaml: "workers: [1,"},
		{name: "zero_workers", yaml: "workers: 0\n"},
		{name: "workers_not_a_number", env: map[string]string{"APPGEN_WORKERS": "many"}},
		{name: "bad_bool", env: map[string]string{"WHATSAPP_ENABLED": "maybe"}},
		{name: "negative_body_limit", env: map[string]string{"APPGEN_MAX_BODY_BYTES": "-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.yaml != "" {
				path = writeConfig(t, tt.yaml)
			}
			if _, err := LoadConfig(path); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("LoadConfig error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

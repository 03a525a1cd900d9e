package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoad_TOML(t *testing.T) {
	path := writeFile(t, "quadbench.toml", `
[log]
level = "debug"

[integration]
function = "exp"
from = 0.0
to = 1.0
partitions = 2000
parallelism = 3
shutdown_timeout = "5s"

[profile]
levels = [1, 2, 3]
repeats = 7

[table]
mode = "join"
points = 64
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Log.Level != "debug" || cfg.Log.Format != "text" {
		t.Errorf("log = %+v", cfg.Log)
	}
	if cfg.Integration.Function != "exp" || cfg.Integration.To != 1 || cfg.Integration.Partitions != 2000 {
		t.Errorf("integration = %+v", cfg.Integration)
	}
	if cfg.Integration.ShutdownTimeout.Duration != 5*time.Second {
		t.Errorf("shutdown_timeout = %v, want 5s", cfg.Integration.ShutdownTimeout)
	}
	if len(cfg.Profile.Levels) != 3 || cfg.Profile.Repeats != 7 {
		t.Errorf("profile = %+v", cfg.Profile)
	}
	if cfg.Table.Mode != "join" || cfg.Table.Points != 64 || cfg.Table.Workers != 4 {
		t.Errorf("table = %+v", cfg.Table)
	}
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "quadbench.yml", `
log:
  format: json
integration:
  partitions: 500
  shutdown_timeout: 250ms
table:
  mode: readwrite
  factor: 1.5
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Log.Format != "json" || cfg.Log.Level != "info" {
		t.Errorf("log = %+v", cfg.Log)
	}
	if cfg.Integration.Partitions != 500 {
		t.Errorf("partitions = %d, want 500", cfg.Integration.Partitions)
	}
	if cfg.Integration.ShutdownTimeout.Duration != 250*time.Millisecond {
		t.Errorf("shutdown_timeout = %v, want 250ms", cfg.Integration.ShutdownTimeout)
	}
	if cfg.Table.Mode != "readwrite" || cfg.Table.Factor != 1.5 {
		t.Errorf("table = %+v", cfg.Table)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name, file, content string
	}{
		{"unknown extension", "quadbench.ini", "level=debug"},
		{"bad toml", "bad.toml", "[log\nlevel="},
		{"bad duration", "bad.yaml", "integration:\n  shutdown_timeout: soon\n"},
		{"bad mode", "mode.toml", "[table]\nmode = \"parallel\"\n"},
		{"bad format", "format.yaml", "log:\n  format: xml\n"},
		{"bad level", "levels.toml", "[profile]\nlevels = [1, 0]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeFile(t, tt.file, tt.content)); err == nil {
				t.Error("expected an error")
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestLoadFromEnv(t *testing.T) {
	path := writeFile(t, "env.toml", "[table]\npoints = 12\n")
	t.Setenv(EnvPath, path)

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.Table.Points != 12 {
		t.Errorf("points = %d, want 12", cfg.Table.Points)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults do not validate: %v", err)
	}
	if cfg.Integration.Function != "sin" || cfg.Integration.To == 0 {
		t.Errorf("integration defaults = %+v", cfg.Integration)
	}
	if cfg.Integration.ShutdownTimeout.Duration != time.Minute {
		t.Errorf("shutdown_timeout = %v, want 1m", cfg.Integration.ShutdownTimeout)
	}
}

func TestDuration_MarshalText(t *testing.T) {
	text, err := Duration{90 * time.Second}.MarshalText()
	if err != nil {
		t.Fatal(err)
	}
	if string(text) != "1m30s" {
		t.Errorf("MarshalText = %q, want 1m30s", text)
	}
}

package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/winscope/pkg/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigDefaultLocationAbsent(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	want := DefaultConfig()
	if cfg.TimelineWidth != want.TimelineWidth || cfg.Cache.Backend != want.Cache.Backend {
		t.Errorf("LoadConfig() = %+v, want defaults %+v", cfg, want)
	}
}

func TestLoadConfigDefaultLocation(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	if err := os.MkdirAll(filepath.Join(home, appName), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(home, appName, "config.toml"), []byte("timeline_width = 42\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.TimelineWidth != 42 {
		t.Errorf("TimelineWidth = %d, want 42", cfg.TimelineWidth)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfig(t, `
only_visible = true
timeline_width = 120
packages = ["com.android.launcher3", "com.example"]

[cache]
backend = "redis"
redis_addr = "redis:6379"
redis_db = 2
prefix = "staging:"

[server]
addr = "127.0.0.1:9000"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if !cfg.OnlyVisible {
		t.Error("OnlyVisible = false, want true")
	}
	if cfg.TimelineWidth != 120 {
		t.Errorf("TimelineWidth = %d, want 120", cfg.TimelineWidth)
	}
	if len(cfg.Packages) != 2 || cfg.Packages[0] != "com.android.launcher3" {
		t.Errorf("Packages = %v", cfg.Packages)
	}
	rc := cfg.Cache.redisConfig()
	if rc.Addr != "redis:6379" || rc.DB != 2 {
		t.Errorf("redisConfig() = %+v", rc)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
	if got := cfg.Cache.keyer().TraceKey("abc"); got != "staging:trace:abc" {
		t.Errorf("keyer().TraceKey() = %q, want staging:trace:abc", got)
	}
}

func TestCacheConfigKeyerDefault(t *testing.T) {
	if got := DefaultConfig().Cache.keyer().TraceKey("abc"); got != "trace:abc" {
		t.Errorf("default keyer TraceKey() = %q, want trace:abc", got)
	}
}

func TestLoadConfigKeepsUnsetDefaults(t *testing.T) {
	path := writeConfig(t, "only_visible = true\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.Server.Addr != defaultServerAddr {
		t.Errorf("Server.Addr = %q, want %q", cfg.Server.Addr, defaultServerAddr)
	}
	if cfg.Cache.Backend != backendFile {
		t.Errorf("Cache.Backend = %q, want %q", cfg.Cache.Backend, backendFile)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
		code errors.Code
	}{
		{
			name: "explicit path missing",
			path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "missing.toml") },
			code: errors.ErrCodeFileNotFound,
		},
		{
			name: "malformed toml",
			path: func(t *testing.T) string { return writeConfig(t, "timeline_width = [") },
			code: errors.ErrCodeInvalidConfig,
		},
		{
			name: "wrong type",
			path: func(t *testing.T) string { return writeConfig(t, `timeline_width = "wide"`) },
			code: errors.ErrCodeInvalidConfig,
		},
		{
			name: "unknown backend",
			path: func(t *testing.T) string { return writeConfig(t, "[cache]\nbackend = \"memcached\"\n") },
			code: errors.ErrCodeInvalidConfig,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(tt.path(t))
			if got := errors.GetCode(err); got != tt.code {
				t.Errorf("LoadConfig() code = %q, want %q (err = %v)", got, tt.code, err)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"backend none", func(c *Config) { c.Cache.Backend = backendNone }, false},
		{"backend redis", func(c *Config) { c.Cache.Backend = backendRedis }, false},
		{"empty backend", func(c *Config) { c.Cache.Backend = "" }, true},
		{"zero width", func(c *Config) { c.TimelineWidth = 0 }, true},
		{"negative width", func(c *Config) { c.TimelineWidth = -5 }, true},
		{"valid package", func(c *Config) { c.Packages = []string{"com.example"} }, false},
		{"package with slash", func(c *Config) { c.Packages = []string{"com/example"} }, true},
		{"empty package", func(c *Config) { c.Packages = []string{""} }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

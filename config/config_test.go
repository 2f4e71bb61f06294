package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/undeconstructed/ladders/board"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ladders.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func envOf(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	if cfg.ReconnectDelay != 3*time.Second || cfg.BoardSize != 100 {
		t.Errorf("bad defaults: %+v", cfg)
	}
	if got, want := len(cfg.Shortcuts()), len(board.DefaultShortcuts()); got != want {
		t.Errorf("shortcuts %d, want %d", got, want)
	}
	if cfg.Snakes[16] != 6 || cfg.Ladders[1] != 38 {
		t.Errorf("bad split: %v %v", cfg.Snakes, cfg.Ladders)
	}
}

func TestLoadFile_overlay(t *testing.T) {
	path := writeFile(t, `
endpoint = "tcp://game.local:7000"
reconnect_delay = "500ms"
board_size = 25

[snakes]
"20" = 3

[ladders]
"2" = 12
`)
	cfg, err := loadFile(DefaultConfig(), path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Endpoint != "tcp://game.local:7000" || cfg.ReconnectDelay != 500*time.Millisecond || cfg.BoardSize != 25 {
		t.Errorf("bad overlay: %+v", cfg)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("undefined key changed: %q", cfg.LogLevel)
	}
	if len(cfg.Snakes) != 1 || cfg.Snakes[20] != 3 || len(cfg.Ladders) != 1 || cfg.Ladders[2] != 12 {
		t.Errorf("bad tables: %v %v", cfg.Snakes, cfg.Ladders)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("invalid: %v", err)
	}
}

func TestLoadFile_errors(t *testing.T) {
	for _, body := range []string{
		`reconnect_delay = "soon"`,
		"[snakes]\n\"top\" = 3\n",
		`endpoint = `,
	} {
		if _, err := loadFile(DefaultConfig(), writeFile(t, body)); err == nil {
			t.Errorf("expected error for %q", body)
		}
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BoardSize = 50
	if err := cfg.Validate(); err == nil {
		t.Errorf("50 is not square")
	}

	cfg = DefaultConfig()
	cfg.Snakes[30] = 40
	if err := cfg.Validate(); err == nil {
		t.Errorf("snake going up")
	}

	// would pass the board check once merged, with the snake lost
	cfg = DefaultConfig()
	cfg.Ladders[16] = 30
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "both") {
		t.Errorf("snake and ladder on one cell: %v", err)
	}

	cfg = DefaultConfig()
	cfg.Endpoint = " "
	if err := cfg.Validate(); err == nil {
		t.Errorf("empty endpoint")
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GatewayAddr = ":8080"
	applyEnv(&cfg, envOf(map[string]string{
		EnvEndpoint: " ws://other:5000 ",
		EnvLogLevel: "",
		EnvGateway:  "",
	}))
	if cfg.Endpoint != "ws://other:5000" {
		t.Errorf("endpoint %q", cfg.Endpoint)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("empty level applied: %q", cfg.LogLevel)
	}
	if cfg.GatewayAddr != "" {
		t.Errorf("gateway not turned off: %q", cfg.GatewayAddr)
	}
}

func TestLoad_noFile(t *testing.T) {
	t.Setenv(EnvEndpoint, "ws://env:1")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Endpoint != "ws://env:1" {
		t.Errorf("env not applied: %q", cfg.Endpoint)
	}
}

// Package config reads the session settings from a TOML file and the
// environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/undeconstructed/ladders/board"
	"github.com/undeconstructed/ladders/game"
)

const (
	EnvEndpoint = "LADDERS_ENDPOINT"
	EnvLogLevel = "LADDERS_LOG_LEVEL"
	EnvGateway  = "LADDERS_GATEWAY"
)

type Config struct {
	Endpoint       string
	ReconnectDelay time.Duration
	BoardSize      int
	LogLevel       string
	// GatewayAddr is where the local HTTP view listens; empty turns it off.
	GatewayAddr string
	Snakes      map[int]int
	Ladders     map[int]int
}

type fileConfig struct {
	Endpoint       string         `toml:"endpoint"`
	ReconnectDelay string         `toml:"reconnect_delay"`
	BoardSize      int            `toml:"board_size"`
	LogLevel       string         `toml:"log_level"`
	GatewayAddr    string         `toml:"gateway_addr"`
	Snakes         map[string]int `toml:"snakes"`
	Ladders        map[string]int `toml:"ladders"`
}

func DefaultConfig() Config {
	cfg := Config{
		Endpoint:       "ws://localhost:5000",
		ReconnectDelay: 3 * time.Second,
		BoardSize:      game.DefaultBoardSize,
		LogLevel:       "info",
		Snakes:         map[int]int{},
		Ladders:        map[int]int{},
	}
	for from, to := range board.DefaultShortcuts() {
		if to < from {
			cfg.Snakes[from] = to
		} else {
			cfg.Ladders[from] = to
		}
	}
	return cfg
}

// Shortcuts is the snakes and ladders together, as the board wants them.
func (c Config) Shortcuts() map[int]int {
	out := make(map[int]int, len(c.Snakes)+len(c.Ladders))
	for from, to := range c.Snakes {
		out[from] = to
	}
	for from, to := range c.Ladders {
		out[from] = to
	}
	return out
}

// Validate checks everything that would stop a session starting.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return fmt.Errorf("config: endpoint is empty")
	}
	if c.ReconnectDelay <= 0 {
		return fmt.Errorf("config: reconnect_delay must be positive, got %s", c.ReconnectDelay)
	}
	for from, to := range c.Snakes {
		if to >= from {
			return fmt.Errorf("config: snake %d -> %d does not go down", from, to)
		}
	}
	for from, to := range c.Ladders {
		if to <= from {
			return fmt.Errorf("config: ladder %d -> %d does not go up", from, to)
		}
	}
	for from := range c.Snakes {
		if _, ok := c.Ladders[from]; ok {
			return fmt.Errorf("config: cell %d has both a snake and a ladder", from)
		}
	}
	if _, err := board.New(c.BoardSize, c.Shortcuts()); err != nil {
		return err
	}
	return nil
}

// Load starts from the defaults, applies the file at path if there is one,
// then the environment.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		var err error
		cfg, err = loadFile(cfg, path)
		if err != nil {
			return Config{}, err
		}
	}
	applyEnv(&cfg, os.LookupEnv)
	return cfg, nil
}

func loadFile(cfg Config, path string) (Config, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("endpoint") {
		cfg.Endpoint = strings.TrimSpace(raw.Endpoint)
	}

	if meta.IsDefined("reconnect_delay") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.ReconnectDelay))
		if err != nil {
			return Config{}, fmt.Errorf("parse reconnect_delay: %w", err)
		}
		cfg.ReconnectDelay = d
	}

	if meta.IsDefined("board_size") {
		cfg.BoardSize = raw.BoardSize
	}

	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}

	if meta.IsDefined("gateway_addr") {
		cfg.GatewayAddr = strings.TrimSpace(raw.GatewayAddr)
	}

	if meta.IsDefined("snakes") {
		cfg.Snakes, err = cells("snakes", raw.Snakes)
		if err != nil {
			return Config{}, err
		}
	}

	if meta.IsDefined("ladders") {
		cfg.Ladders, err = cells("ladders", raw.Ladders)
		if err != nil {
			return Config{}, err
		}
	}

	return cfg, nil
}

// cells turns a TOML table, whose keys are always strings, into cell numbers.
func cells(table string, in map[string]int) (map[int]int, error) {
	out := make(map[int]int, len(in))
	for k, v := range in {
		from, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil {
			return nil, fmt.Errorf("parse %s: bad cell %q", table, k)
		}
		out[from] = v
	}
	return out, nil
}

// applyEnv takes os.LookupEnv or a stand-in. LADDERS_GATEWAY counts even when
// set to empty, which turns the gateway off.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvEndpoint); ok && strings.TrimSpace(v) != "" {
		cfg.Endpoint = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvLogLevel); ok && strings.TrimSpace(v) != "" {
		cfg.LogLevel = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvGateway); ok {
		cfg.GatewayAddr = strings.TrimSpace(v)
	}
}

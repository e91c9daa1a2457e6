// Package config provides Viper-based configuration loading for the dungeon server.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds top-level server settings.
type ServerConfig struct {
	// Name identifies this server in logs.
	Name string `mapstructure:"name"`
}

// TelnetConfig holds the line protocol TCP acceptor settings.
type TelnetConfig struct {
	// Host is the bind address for the TCP listener.
	Host string `mapstructure:"host"`
	// Port is the TCP port for the listener.
	Port int `mapstructure:"port"`
	// ReadTimeout is the per-line read timeout. Zero waits forever, since a
	// player may legitimately sit on a turn.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the per-write timeout for connections.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// Negotiate sends telnet option negotiation on connect, for interactive
	// telnet clients. Protocol clients expect it off.
	Negotiate bool `mapstructure:"negotiate"`
}

// Addr returns the "host:port" listen address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (t TelnetConfig) Addr() string {
	return fmt.Sprintf("%s:%d", t.Host, t.Port)
}

// WebSocketConfig holds the WebSocket transport settings.
type WebSocketConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	// Path is the HTTP path that upgrades to the game protocol.
	Path string `mapstructure:"path"`
}

// Addr returns the "host:port" listen address.
func (w WebSocketConfig) Addr() string {
	return fmt.Sprintf("%s:%d", w.Host, w.Port)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// GameConfig holds the dungeon session settings.
type GameConfig struct {
	// MapFile is the dungeon map to load, in text or YAML format.
	MapFile string `mapstructure:"map_file"`
	// MinPlayers is how many players must join before the first turn starts.
	MinPlayers int `mapstructure:"min_players"`
	// OutboxSize is the per-connection outbound message buffer.
	OutboxSize int `mapstructure:"outbox_size"`
}

// BotsConfig holds the in-process bot players started with the server.
type BotsConfig struct {
	// Policies lists one entry per bot: wander, objective, aggressive, friendly or scripted.
	Policies []string `mapstructure:"policies"`
	// TickInterval is how often each bot checks whether it may act.
	TickInterval time.Duration `mapstructure:"tick_interval"`
	// ScriptFile is the Lua decide(state) script used by scripted bots.
	ScriptFile string `mapstructure:"script_file"`
	// InstructionLimit caps the Lua opcodes per decision; 0 uses the default.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Telnet    TelnetConfig    `mapstructure:"telnet"`
	WebSocket WebSocketConfig `mapstructure:"websocket"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Game      GameConfig      `mapstructure:"game"`
	Bots      BotsConfig      `mapstructure:"bots"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	for _, err := range []error{
		validateServer(c.Server),
		validateTelnet(c.Telnet),
		validateWebSocket(c.WebSocket),
		validateLogging(c.Logging),
		validateGame(c.Game),
		validateBots(c.Bots),
	} {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateServer(s ServerConfig) error {
	if s.Name == "" {
		return errors.New("server.name must not be empty")
	}
	return nil
}

func validatePort(key string, port int) string {
	if port < 1 || port > 65535 {
		return fmt.Sprintf("%s must be 1-65535, got %d", key, port)
	}
	return ""
}

func joined(errs []string) error {
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateTelnet(t TelnetConfig) error {
	var errs []string
	if msg := validatePort("telnet.port", t.Port); msg != "" {
		errs = append(errs, msg)
	}
	if t.ReadTimeout < 0 {
		errs = append(errs, "telnet.read_timeout must not be negative")
	}
	if t.WriteTimeout < 0 {
		errs = append(errs, "telnet.write_timeout must not be negative")
	}
	return joined(errs)
}

func validateWebSocket(w WebSocketConfig) error {
	if !w.Enabled {
		return nil
	}
	var errs []string
	if msg := validatePort("websocket.port", w.Port); msg != "" {
		errs = append(errs, msg)
	}
	if !strings.HasPrefix(w.Path, "/") {
		errs = append(errs, fmt.Sprintf("websocket.path must start with /, got %q", w.Path))
	}
	return joined(errs)
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateGame(g GameConfig) error {
	var errs []string
	if g.MapFile == "" {
		errs = append(errs, "game.map_file must not be empty")
	}
	if g.MinPlayers < 1 {
		errs = append(errs, fmt.Sprintf("game.min_players must be >= 1, got %d", g.MinPlayers))
	}
	if g.OutboxSize < 1 {
		errs = append(errs, fmt.Sprintf("game.outbox_size must be >= 1, got %d", g.OutboxSize))
	}
	return joined(errs)
}

// BotPolicies are the accepted bots.policies entries.
var BotPolicies = []string{"wander", "objective", "aggressive", "friendly", "scripted"}

func validateBots(b BotsConfig) error {
	var errs []string
	scripted := false
	for _, p := range b.Policies {
		known := false
		for _, v := range BotPolicies {
			if p == v {
				known = true
			}
		}
		if !known {
			errs = append(errs, fmt.Sprintf("bots.policies entry must be one of [%s], got %q", strings.Join(BotPolicies, ", "), p))
		}
		scripted = scripted || p == "scripted"
	}
	if b.TickInterval <= 0 {
		errs = append(errs, "bots.tick_interval must be positive")
	}
	if scripted && b.ScriptFile == "" {
		errs = append(errs, "bots.script_file must be set when a scripted bot is configured")
	}
	if b.InstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("bots.instruction_limit must be >= 0, got %d", b.InstructionLimit))
	}
	return joined(errs)
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with DOD_ prefix
	v.SetEnvPrefix("DOD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Defaults returns a Viper instance holding only the default settings.
func Defaults() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.name", "dungeon-of-dooom")

	v.SetDefault("telnet.host", "0.0.0.0")
	v.SetDefault("telnet.port", 49155)
	v.SetDefault("telnet.read_timeout", "0s")
	v.SetDefault("telnet.write_timeout", "30s")
	v.SetDefault("telnet.negotiate", false)

	v.SetDefault("websocket.enabled", false)
	v.SetDefault("websocket.host", "0.0.0.0")
	v.SetDefault("websocket.port", 8080)
	v.SetDefault("websocket.path", "/play")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("game.map_file", "content/maps/default.map")
	v.SetDefault("game.min_players", 1)
	v.SetDefault("game.outbox_size", 256)

	v.SetDefault("bots.policies", []string{})
	v.SetDefault("bots.tick_interval", "1s")
	v.SetDefault("bots.script_file", "")
	v.SetDefault("bots.instruction_limit", 0)
}

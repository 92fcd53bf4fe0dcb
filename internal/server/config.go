package server

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/Anshuman71/salute/internal/game"
	"github.com/Anshuman71/salute/internal/ratelimit"
)

// ServerConfig represents the complete server configuration
type ServerConfig struct {
	Server     ServerSettings    `hcl:"server,block"`
	Rooms      RoomsSettings     `hcl:"rooms,block"`
	RateLimits []RateLimitConfig `hcl:"rate_limit,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
	DataDir  string `hcl:"data_dir,optional"`
}

// RoomsSettings contains room lifecycle and rules configuration.
type RoomsSettings struct {
	DefaultRounds  int    `hcl:"default_rounds,optional"`
	RetentionHours int    `hcl:"retention_hours,optional"`
	TieBreak       string `hcl:"tie_break,optional"`
}

// RateLimitConfig bounds one action's volume per IP.
type RateLimitConfig struct {
	Action        string `hcl:"action,label"`
	MaxRequests   int    `hcl:"max_requests"`
	WindowSeconds int    `hcl:"window_seconds"`
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Server: ServerSettings{
			Address:  "localhost",
			Port:     3001,
			LogLevel: "info",
		},
		Rooms: RoomsSettings{
			DefaultRounds:  5,
			RetentionHours: 24,
			TieBreak:       string(game.TieBreakOpponent),
		},
		RateLimits: []RateLimitConfig{
			{Action: "create_room", MaxRequests: 5, WindowSeconds: 3600},
			{Action: "join_room", MaxRequests: 10, WindowSeconds: 60},
		},
	}
}

// LoadServerConfig loads server configuration from an HCL file, falling back
// to defaults when the file does not exist.
func LoadServerConfig(filename string) (*ServerConfig, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultServerConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config ServerConfig
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	// Apply defaults for missing values
	defaults := DefaultServerConfig()
	if config.Server.Address == "" {
		config.Server.Address = defaults.Server.Address
	}
	if config.Server.Port == 0 {
		config.Server.Port = defaults.Server.Port
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = defaults.Server.LogLevel
	}
	if config.Rooms.DefaultRounds == 0 {
		config.Rooms.DefaultRounds = defaults.Rooms.DefaultRounds
	}
	if config.Rooms.RetentionHours == 0 {
		config.Rooms.RetentionHours = defaults.Rooms.RetentionHours
	}
	if config.Rooms.TieBreak == "" {
		config.Rooms.TieBreak = defaults.Rooms.TieBreak
	}
	if len(config.RateLimits) == 0 {
		config.RateLimits = defaults.RateLimits
	}

	return &config, nil
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	if c.Rooms.DefaultRounds < game.MinTotalRounds || c.Rooms.DefaultRounds > game.MaxTotalRounds {
		return fmt.Errorf("default_rounds must be between %d and %d, got %d",
			game.MinTotalRounds, game.MaxTotalRounds, c.Rooms.DefaultRounds)
	}
	if c.Rooms.RetentionHours < 1 {
		return fmt.Errorf("retention_hours must be positive, got %d", c.Rooms.RetentionHours)
	}
	switch game.TieBreak(c.Rooms.TieBreak) {
	case game.TieBreakOpponent, game.TieBreakCaller:
	default:
		return fmt.Errorf("tie_break must be %q or %q, got %q",
			game.TieBreakOpponent, game.TieBreakCaller, c.Rooms.TieBreak)
	}

	for _, rl := range c.RateLimits {
		switch ratelimit.Action(rl.Action) {
		case ratelimit.ActionCreateRoom, ratelimit.ActionJoinRoom:
		default:
			return fmt.Errorf("rate_limit %q: unknown action", rl.Action)
		}
		if rl.MaxRequests <= 0 {
			return fmt.Errorf("rate_limit %q: max_requests must be positive", rl.Action)
		}
		if rl.WindowSeconds <= 0 {
			return fmt.Errorf("rate_limit %q: window_seconds must be positive", rl.Action)
		}
	}

	return nil
}

// GetServerAddress returns the full server address
func (c *ServerConfig) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// Retention returns the room retention window.
func (c *ServerConfig) Retention() time.Duration {
	return time.Duration(c.Rooms.RetentionHours) * time.Hour
}

// Limits converts the rate limit blocks into limiter configuration.
func (c *ServerConfig) Limits() map[ratelimit.Action]ratelimit.Config {
	limits := make(map[ratelimit.Action]ratelimit.Config, len(c.RateLimits))
	for _, rl := range c.RateLimits {
		limits[ratelimit.Action(rl.Action)] = ratelimit.Config{
			MaxRequests: rl.MaxRequests,
			Window:      time.Duration(rl.WindowSeconds) * time.Second,
		}
	}
	return limits
}

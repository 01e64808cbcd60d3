// Package config loads engine configuration from YAML: logging, loop
// limits, and playmat definitions that become game.GameConfig.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/cklapperich/lobstertcg/internal/game"
)

// LoggingConfig controls zap logger construction.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoopConfig mirrors game.LoopConfig; zero values take engine defaults.
type LoopConfig struct {
	MaxIterations    int `mapstructure:"max_iterations"`
	MaxFollowUpDepth int `mapstructure:"max_follow_up_depth"`
	MaxReplacements  int `mapstructure:"max_replacements"`
}

// ZoneDef is one zone in a playmat file.
type ZoneDef struct {
	ID          string `mapstructure:"id"`
	Name        string `mapstructure:"name"`
	Shared      bool   `mapstructure:"shared"`
	Ordered     bool   `mapstructure:"ordered"`
	Visibility  string `mapstructure:"visibility"`
	Orientation string `mapstructure:"orientation"`
	MaxCards    int    `mapstructure:"max_cards"`
	OpenAccess  bool   `mapstructure:"open_access"`
}

// PlaymatConfig describes the board layout for one game.
type PlaymatConfig struct {
	Name     string    `mapstructure:"name"`
	DeckZone string    `mapstructure:"deck_zone"`
	HandZone string    `mapstructure:"hand_zone"`
	Zones    []ZoneDef `mapstructure:"zones"`
}

// Config is the root configuration.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Loop    LoopConfig    `mapstructure:"loop"`
	Playmat PlaymatConfig `mapstructure:"playmat"`
}

// Load reads configuration from the given file, applying defaults and
// LOBSTERTCG_* environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("loop.max_iterations", 1000)
	v.SetDefault("loop.max_follow_up_depth", 25)
	v.SetDefault("loop.max_replacements", 10)

	v.SetEnvPrefix("LOBSTERTCG")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Playmat.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (p PlaymatConfig) validate() error {
	seen := make(map[string]bool)
	for _, z := range p.Zones {
		if z.ID == "" {
			return fmt.Errorf("playmat %s: zone with empty id", p.Name)
		}
		if seen[z.ID] {
			return fmt.Errorf("playmat %s: duplicate zone id %q", p.Name, z.ID)
		}
		seen[z.ID] = true
		switch z.Visibility {
		case "", "public", "owner", "hidden":
		default:
			return fmt.Errorf("playmat %s: zone %s has invalid visibility %q", p.Name, z.ID, z.Visibility)
		}
		switch z.Orientation {
		case "", "face_up", "face_down":
		default:
			return fmt.Errorf("playmat %s: zone %s has invalid orientation %q", p.Name, z.ID, z.Orientation)
		}
	}
	return nil
}

func (z ZoneDef) toZoneConfig() game.ZoneConfig {
	cfg := game.ZoneConfig{
		ID:          z.ID,
		Name:        z.Name,
		Shared:      z.Shared,
		Ordered:     z.Ordered,
		Visibility:  game.Visibility(z.Visibility),
		Orientation: game.Orientation(z.Orientation),
		MaxCards:    z.MaxCards,
		OpenAccess:  z.OpenAccess,
	}
	if cfg.Name == "" {
		cfg.Name = z.ID
	}
	if cfg.Visibility == "" {
		cfg.Visibility = game.VisibilityPublic
	}
	if cfg.Orientation == "" {
		cfg.Orientation = game.OrientationFaceUp
	}
	return cfg
}

// GameConfig converts the playmat into the engine's construction config.
func (p PlaymatConfig) GameConfig(playerNames [game.NumPlayers]string) game.GameConfig {
	cfg := game.GameConfig{
		PlayerNames: playerNames,
		DeckZone:    p.DeckZone,
		HandZone:    p.HandZone,
	}
	for _, z := range p.Zones {
		zc := z.toZoneConfig()
		if zc.Shared {
			cfg.SharedZones = append(cfg.SharedZones, zc)
		} else {
			cfg.PlayerZones = append(cfg.PlayerZones, zc)
		}
	}
	return cfg
}

// GameLoopConfig converts the loop limits into the engine's type.
func (c LoopConfig) GameLoopConfig() game.LoopConfig {
	return game.LoopConfig{
		MaxIterations:    c.MaxIterations,
		MaxFollowUpDepth: c.MaxFollowUpDepth,
		MaxReplacements:  c.MaxReplacements,
	}
}

// DefaultPlaymat is the standard two-player layout the demos use: deck,
// hand, bench, active slot and discard per player, plus a shared stadium.
func DefaultPlaymat() PlaymatConfig {
	return PlaymatConfig{
		Name:     "standard",
		DeckZone: "deck",
		HandZone: "hand",
		Zones: []ZoneDef{
			{ID: "deck", Name: "Deck", Ordered: true, Visibility: "hidden", Orientation: "face_down"},
			{ID: "hand", Name: "Hand", Visibility: "owner", Orientation: "face_up"},
			{ID: "active", Name: "Active", Visibility: "public", Orientation: "face_up", MaxCards: 1},
			{ID: "bench", Name: "Bench", Visibility: "public", Orientation: "face_up", MaxCards: 5},
			{ID: "discard", Name: "Discard", Visibility: "public", Orientation: "face_up", OpenAccess: true},
			{ID: "stadium", Name: "Stadium", Shared: true, Visibility: "public", Orientation: "face_up", MaxCards: 1},
		},
	}
}

// Command lobstertcg is the engine's CLI: a scripted demo game, a deck
// validator, and a JSON schema dump of the wire contracts.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/cklapperich/lobstertcg/internal/config"
)

type CLI struct {
	Config string `short:"c" help:"Path to a config YAML file" type:"path"`

	Demo   DemoCmd   `cmd:"" help:"Run a scripted demo game and print the log and a player's view"`
	Deck   DeckCmd   `cmd:"" help:"Validate a deck list against a card library"`
	Schema SchemaCmd `cmd:"" help:"Dump JSON schemas for the action and readable-state contracts"`
}

// loadConfig resolves the effective config: the given file, or built-in
// defaults when none was passed.
func (c *CLI) loadConfig() (*config.Config, error) {
	if c.Config == "" {
		return &config.Config{
			Logging: config.LoggingConfig{Level: "info", Format: "console"},
			Playmat: config.DefaultPlaymat(),
		}, nil
	}
	return config.Load(c.Config)
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("lobstertcg"),
		kong.Description("Turn-based card game engine tools."),
		kong.UsageOnError(),
	)

	cfg, err := cli.loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		ctx.Exit(1)
	}
	logger, err := config.BuildLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		ctx.Exit(1)
	}
	defer logger.Sync()

	if err := ctx.Run(&Context{Config: cfg, Logger: logger}); err != nil {
		logger.Error("command failed", zap.Error(err))
		ctx.Exit(1)
	}
}

// Context is passed to every subcommand.
type Context struct {
	Config *config.Config
	Logger *zap.Logger
}

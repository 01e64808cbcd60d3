package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"

	"github.com/cklapperich/lobstertcg/internal/game"
)

type SchemaCmd struct {
	Out string `help:"Directory to write schema files into (stdout if empty)" type:"path"`
}

// Run reflects the wire contracts into JSON schemas: the flat action
// envelope clients submit and the readable state they receive.
func (c *SchemaCmd) Run(ctx *Context) error {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
	}
	schemas := map[string]*jsonschema.Schema{
		"action.schema.json":         reflector.Reflect(new(game.ActionEnvelope)),
		"readable_state.schema.json": reflector.Reflect(new(game.ReadableGameState)),
	}
	schemas["action.schema.json"].Title = "Action Envelope"
	schemas["action.schema.json"].Description = "Flat JSON shape of every submittable action; the type field selects the variant."
	schemas["readable_state.schema.json"].Title = "Readable Game State"
	schemas["readable_state.schema.json"].Description = "Per-player projection of the game state; hidden cards appear as placeholders."

	for name, schema := range schemas {
		data, err := json.MarshalIndent(schema, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal %s: %w", name, err)
		}
		if c.Out == "" {
			fmt.Printf("// %s\n%s\n", name, data)
			continue
		}
		if err := os.MkdirAll(c.Out, 0o755); err != nil {
			return fmt.Errorf("create schema directory: %w", err)
		}
		if err := os.WriteFile(filepath.Join(c.Out, name), append(data, '\n'), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}

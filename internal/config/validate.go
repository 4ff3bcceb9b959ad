// CUE schema validation code
package config

import (
	"fmt"
	"os"

	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/encoding/yaml"

	"relaychain-sim/schemas"
)

// ValidateWithCue validates YAML config bytes against a CUE schema file.
// An empty schemaPath selects the embedded relay simulation schema.
func ValidateWithCue(filename string, yamlBytes []byte, schemaPath string) error {
	schemaBytes := schemas.RelaySim
	if schemaPath != "" {
		b, err := os.ReadFile(schemaPath)
		if err != nil {
			return fmt.Errorf("cannot read CUE schema: %w", err)
		}
		schemaBytes = b
	}

	ctx := cuecontext.New()
	schemaVal := ctx.CompileBytes(schemaBytes)
	if err := schemaVal.Err(); err != nil {
		return fmt.Errorf("cannot compile CUE schema: %w", err)
	}

	file, err := yaml.Extract(filename, yamlBytes)
	if err != nil {
		return fmt.Errorf("cannot parse YAML config: %w", err)
	}
	configVal := ctx.BuildFile(file)
	if err := configVal.Err(); err != nil {
		return fmt.Errorf("cannot build YAML config: %w", err)
	}

	// Merge values with schema
	final := schemaVal.Unify(configVal)
	if err := final.Err(); err != nil {
		return fmt.Errorf("schema unify failed: %w", err)
	}
	if err := final.Validate(); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ryandumpert/flint/internal/store"
)

var stdout io.Writer = os.Stdout

// errTextFormat is returned for commands that have no text rendering.
var errTextFormat = errors.New("--format text is not supported by this command; use json or yaml")

// writeOutput encodes v as JSON or YAML. YAML keys follow the JSON field
// names so both formats round-trip through import.
func writeOutput(w io.Writer, v any, format string) error {
	switch format {
	case "text":
		return errTextFormat
	case "", "json":
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case "yaml", "yml":
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var generic any
		if err := json.Unmarshal(b, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// printOut writes v to stdout in the global --format.
func printOut(v any) {
	if err := writeOutput(stdout, v, formatFlag); err != nil {
		exitErr("write output", err)
	}
}

// decodeBundles reads an export in either JSON or YAML.
func decodeBundles(data []byte) ([]store.Analysis, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty input")
	}

	if trimmed[0] != '[' && trimmed[0] != '{' {
		var generic any
		if err := yaml.Unmarshal(trimmed, &generic); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
		b, err := json.Marshal(generic)
		if err != nil {
			return nil, fmt.Errorf("convert yaml: %w", err)
		}
		trimmed = b
	}

	var bundles []store.Analysis
	if err := json.Unmarshal(trimmed, &bundles); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return bundles, nil
}

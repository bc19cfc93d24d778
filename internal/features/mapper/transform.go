package mapper

import (
	"fmt"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
)

// Transform is an optional per-target row rewrite. The script sees the
// converted row as `row` and may mutate it; whatever `row` holds afterwards
// is what gets upserted.
type Transform struct {
	source string
}

// NewTransform validates the script by compiling it against an empty row.
func NewTransform(source string) (*Transform, error) {
	if source == "" {
		return nil, fmt.Errorf("transform script is empty")
	}

	probe := tengo.NewScript([]byte(source))
	probe.SetImports(stdlib.GetModuleMap("text", "math", "times", "fmt"))
	if err := probe.Add("row", map[string]interface{}{}); err != nil {
		return nil, fmt.Errorf("failed to bind row variable: %w", err)
	}
	if _, err := probe.Compile(); err != nil {
		return nil, fmt.Errorf("failed to compile transform script: %w", err)
	}

	return &Transform{source: source}, nil
}

// Apply runs the script over one row and returns the rewritten row.
func (t *Transform) Apply(row map[string]any) (map[string]any, error) {
	script := tengo.NewScript([]byte(t.source))
	script.SetImports(stdlib.GetModuleMap("text", "math", "times", "fmt"))

	if err := script.Add("row", row); err != nil {
		return nil, fmt.Errorf("failed to bind row variable: %w", err)
	}

	compiled, err := script.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to run transform script: %w", err)
	}

	out, ok := compiled.Get("row").Value().(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("transform script replaced row with a non-map value")
	}
	return out, nil
}

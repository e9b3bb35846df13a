package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dshills/diffsense/internal/analysis"
)

// JSONWriter outputs the full result as indented JSON. The response is
// markdown, so HTML characters are written as they are.
type JSONWriter struct{}

func (j *JSONWriter) Write(w io.Writer, res *analysis.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("writing JSON: %w", err)
	}
	return nil
}

package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ramkansal/tagscout/pkg/plugin"
)

// JSONWriter writes a discovery result as indented JSON.
type JSONWriter struct {
	path string
}

func NewJSONWriter(path string) *JSONWriter {
	return &JSONWriter{path: path}
}

func (w *JSONWriter) Name() string { return "json" }

func (w *JSONWriter) Write(result *plugin.DiscoveryResult) error {
	f, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("create %s: %w", w.path, err)
	}
	defer f.Close()

	if err := EncodeJSON(f, result); err != nil {
		return fmt.Errorf("write %s: %w", w.path, err)
	}
	return f.Close()
}

// EncodeJSON writes result to w in the wire format consumed by the banner
// configuration store.
func EncodeJSON(w io.Writer, result *plugin.DiscoveryResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(result)
}

// ForPath picks a writer from the file extension: .json gets JSON,
// anything else plain text.
func ForPath(path, target string) plugin.OutputWriter {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return NewJSONWriter(path)
	}
	return NewTextWriter(path, target)
}

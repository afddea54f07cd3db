package snapshot

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/atomtree/pkg/errors"
)

// Format is a snapshot encoding.
type Format string

// Supported snapshot formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// DetectFormat picks the format from a file extension. Unknown extensions
// are read as JSON.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// Read decodes a snapshot from r. The document must be an object; an empty
// document yields an empty snapshot.
func Read(r io.Reader, format Format) (Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return Decode(data, format)
}

// Decode decodes a snapshot from data.
func Decode(data []byte, format Format) (Snapshot, error) {
	var raw any
	switch format {
	case FormatJSON, "":
		if len(strings.TrimSpace(string(data))) == 0 {
			return Snapshot{}, nil
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidSnapshot, err, "decode JSON")
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidSnapshot, err, "decode YAML")
		}
		raw = normalize(raw)
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown snapshot format %q", format)
	}

	switch v := raw.(type) {
	case nil:
		return Snapshot{}, nil
	case map[string]any:
		return Snapshot(v), nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidSnapshot, "snapshot must be an object, got %T", raw)
	}
}

// Import reads the snapshot file at path.
func Import(path string) (Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f, DetectFormat(path))
}

// normalize turns the map[any]any values yaml produces for non-string keys
// into map[string]any so both formats convert alike.
func normalize(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, e := range x {
			x[k] = normalize(e)
		}
		return x
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[fmt.Sprint(k)] = normalize(e)
		}
		return out
	case []any:
		for i, e := range x {
			x[i] = normalize(e)
		}
		return x
	}
	return v
}

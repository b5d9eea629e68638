package timeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format selects the text encoding of a dump.
type Format string

const (
	// FormatYAML writes one YAML sequence item per entry.
	FormatYAML Format = "yaml"
	// FormatJSON writes an indented JSON array.
	FormatJSON Format = "json"
)

// ParseFormat resolves a format name. The empty string selects FormatYAML.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown timeline format %q", name)
	}
}

// DumpYAML serializes the retained entries as YAML.
func (t *Timeline) DumpYAML() ([]byte, error) {
	return Encode(t.Entries(), FormatYAML)
}

// DumpJSON serializes the retained entries as indented JSON.
func (t *Timeline) DumpJSON() ([]byte, error) {
	return Encode(t.Entries(), FormatJSON)
}

// WriteTo writes the retained entries to w in the given format.
func (t *Timeline) WriteTo(w io.Writer, format Format) error {
	data, err := Encode(t.Entries(), format)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write timeline: %w", err)
	}
	return nil
}

// Encode serializes entries in the given format.
func Encode(entries []Entry, format Format) ([]byte, error) {
	if entries == nil {
		entries = []Entry{}
	}
	switch format {
	case FormatYAML, "":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return nil, fmt.Errorf("failed to encode timeline as yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("failed to encode timeline as yaml: %w", err)
		}
		return buf.Bytes(), nil
	case FormatJSON:
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode timeline as json: %w", err)
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("unknown timeline format %q", format)
	}
}

// Load parses a dump produced by Encode.
func Load(data []byte, format Format) ([]Entry, error) {
	var entries []Entry
	switch format {
	case FormatYAML, "":
		if err := yaml.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("failed to decode yaml timeline: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("failed to decode json timeline: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown timeline format %q", format)
	}
	return entries, nil
}

package rules

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format identifies the rule file encoding.
type Format string

// Supported rule file formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseError describes a rule file that could not be decoded.
type ParseError struct {
	Path    string
	Message string
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("invalid rule set: %s", e.Message)
	}
	return fmt.Sprintf("invalid rule set %s: %s", e.Path, e.Message)
}

// Load reads and parses a rule file. The format is chosen by extension;
// anything that is not .yaml/.yml is treated as JSON.
func Load(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule file: %w", err)
	}

	format := FormatJSON
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = FormatYAML
	}

	set, err := Parse(data, format)
	if err != nil {
		if pe, ok := err.(*ParseError); ok {
			pe.Path = path
		}
		return nil, err
	}
	return set, nil
}

// Parse decodes rule file content. Unknown fields are rejected so typos in
// rule files fail loudly instead of silently dropping signals.
func Parse(data []byte, format Format) (*RuleSet, error) {
	var set RuleSet

	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&set); err != nil {
			return nil, &ParseError{Message: err.Error()}
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&set); err != nil {
			return nil, &ParseError{Message: err.Error()}
		}
	default:
		return nil, &ParseError{Message: fmt.Sprintf("unsupported format %q", format)}
	}

	if set.Version == 0 {
		set.Version = 1
	}
	return &set, nil
}

package rbd

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DecodeJSON reads a diagram in the editor's JSON format.
func DecodeJSON(r io.Reader) (*Graph, error) {
	var g Graph
	dec := json.NewDecoder(r)
	if err := dec.Decode(&g); err != nil {
		return nil, fmt.Errorf("decode graph json: %w", err)
	}
	return &g, nil
}

// DecodeYAML reads a diagram written as YAML with the same field names.
func DecodeYAML(r io.Reader) (*Graph, error) {
	var g Graph
	if err := yaml.NewDecoder(r).Decode(&g); err != nil {
		return nil, fmt.Errorf("decode graph yaml: %w", err)
	}
	return &g, nil
}

// DecodeFile picks JSON or YAML from the file extension.
func DecodeFile(name string, r io.Reader) (*Graph, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return DecodeYAML(r)
	default:
		return DecodeJSON(r)
	}
}

package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	apperrors "github.com/kbukum/flowforge/errors"
)

// Extension is the native pipeline file extension.
const Extension = ".ffpipe"

// Format is a pipeline file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatOf picks the encoding from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case Extension, ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unsupported pipeline file extension %q (want %s, .json, .yaml or .yml)", filepath.Ext(path), Extension)
}

// Load reads a pipeline file. Every failure is a PIPELINE_LOAD error.
func Load(path string) (*Graph, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, apperrors.PipelineLoad(path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.PipelineLoad(path, err)
	}
	g, err := Decode(data, format)
	if err != nil {
		return nil, apperrors.PipelineLoad(path, err)
	}
	return g, nil
}

// Decode parses a pipeline document.
func Decode(data []byte, format Format) (*Graph, error) {
	var g Graph
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&g); err != nil {
			return nil, fmt.Errorf("parsing pipeline JSON: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &g); err != nil {
			return nil, fmt.Errorf("parsing pipeline YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown pipeline format %q", format)
	}
	g.normalize()
	return &g, nil
}

// Encode renders a pipeline document.
func Encode(g *Graph, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(g, "", "  ")
	case FormatYAML:
		return yaml.Marshal(g)
	}
	return nil, fmt.Errorf("unknown pipeline format %q", format)
}

// Save writes g to path atomically: the document goes to a temporary file
// next to path which is then renamed over it. UpdatedAt is set to now.
func Save(g *Graph, path string) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	g.UpdatedAt = time.Now().UTC()
	if g.CreatedAt.IsZero() {
		g.CreatedAt = g.UpdatedAt
	}
	data, err := Encode(g, format)
	if err != nil {
		return fmt.Errorf("encoding pipeline: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

// normalize fills defaults a hand-written file may omit.
func (g *Graph) normalize() {
	if g.Version == "" {
		g.Version = DefaultVersion
	}
	for i := range g.Nodes {
		if g.Nodes[i].Config == nil {
			g.Nodes[i].Config = map[string]any{}
		}
	}
	for i := range g.Connections {
		if g.Connections[i].FromPort == "" {
			g.Connections[i].FromPort = PortOut
		}
		if g.Connections[i].ToPort == "" {
			g.Connections[i].ToPort = PortIn
		}
	}
}

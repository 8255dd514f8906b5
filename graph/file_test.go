package graph

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	apperrors "github.com/kbukum/flowforge/errors"
)

func TestSaveLoad_FFPipe(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rename.ffpipe")

	g := New("rename")
	in := g.AddNode("FolderInput", map[string]any{"path": "/photos", "recursive": true})
	out := g.AddNode("FolderOutput", map[string]any{"path": "/out"})
	g.Connect(in, out)
	before := g.UpdatedAt

	if err := Save(g, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file should be gone after Save")
	}
	if g.UpdatedAt.Before(before) {
		t.Error("Save should bump UpdatedAt")
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.ID != g.ID || loaded.Name != "rename" || len(loaded.Nodes) != 2 {
		t.Errorf("unexpected graph %+v", loaded)
	}
	n, ok := loaded.Node(in)
	if !ok || n.Config["path"] != "/photos" || n.Config["recursive"] != true {
		t.Errorf("config lost on round trip: %+v", n)
	}
	if loaded.Connections[0].FromPort != PortOut || loaded.Connections[0].ToPort != PortIn {
		t.Errorf("ports lost: %+v", loaded.Connections[0])
	}
}

func TestLoad_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "p.yaml")
	doc := `
name: yaml pipeline
nodes:
  - id: in
    typeKey: FolderInput
    config:
      path: ./photos
      filter: "*.jpg"
  - id: filter
    typeKey: Filter
    config:
      conditions:
        - {field: extension, operator: equals, value: .jpg}
  - id: out
    typeKey: FolderOutput
connections:
  - {fromNode: in, toNode: filter}
  - {fromNode: filter, toNode: out}
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	g, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if g.Version != DefaultVersion {
		t.Errorf("expected default version, got %q", g.Version)
	}
	out, _ := g.Node("out")
	if out.Config == nil {
		t.Error("missing config should become an empty map")
	}
	if g.Connections[1].FromPort != PortOut {
		t.Errorf("default port not applied: %+v", g.Connections[1])
	}
	f, _ := g.Node("filter")
	conds, ok := f.Config["conditions"].([]any)
	if !ok || len(conds) != 1 {
		t.Fatalf("conditions not decoded as a list: %#v", f.Config["conditions"])
	}
	order, err := TopologicalSort(g)
	if err != nil || strings.Join(order, ",") != "in,filter,out" {
		t.Errorf("order = %v err = %v", order, err)
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.ffpipe")
	if err := os.WriteFile(bad, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(dir, "missing.ffpipe")},
		{"bad extension", filepath.Join(dir, "pipeline.txt")},
		{"malformed JSON", bad},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path)
			if !apperrors.HasCode(err, apperrors.ErrCodePipelineLoad) {
				t.Errorf("expected PIPELINE_LOAD, got %v", err)
			}
		})
	}
}

func TestSave_RejectsUnknownExtension(t *testing.T) {
	if err := Save(New("x"), filepath.Join(t.TempDir(), "x.txt")); err == nil {
		t.Error("expected error for .txt")
	}
}

package graph

import (
	"testing"

	apperrors "github.com/kbukum/flowforge/errors"
)

func TestTemplates_Listed(t *testing.T) {
	want := []string{"batch-sequential-rename", "bulk-image-compress", "image-web-export", "photo-import-by-date"}
	got := Templates()
	if len(got) != len(want) {
		t.Fatalf("expected %d templates, got %d", len(want), len(got))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("template %d = %s, want %s", i, got[i].ID, id)
		}
	}
}

func TestFromTemplate_FreshIDsAndTopology(t *testing.T) {
	for _, tmpl := range Templates() {
		t.Run(tmpl.ID, func(t *testing.T) {
			a, err := FromTemplate(tmpl.ID)
			if err != nil {
				t.Fatal(err)
			}
			b, err := FromTemplate(tmpl.ID)
			if err != nil {
				t.Fatal(err)
			}
			if a.ID == b.ID || a.Nodes[0].ID == b.Nodes[0].ID {
				t.Error("each instantiation must get new ids")
			}
			if len(a.Connections) != len(a.Nodes)-1 {
				t.Errorf("expected a linear chain, got %d connections for %d nodes", len(a.Connections), len(a.Nodes))
			}
			order, err := TopologicalSort(a)
			if err != nil {
				t.Fatal(err)
			}
			for i, id := range order {
				if a.Nodes[i].ID != id {
					t.Errorf("position %d: expected %s, got %s", i, a.Nodes[i].TypeKey, id)
				}
			}
			if a.Nodes[0].TypeKey != "FolderInput" || a.Nodes[len(a.Nodes)-1].TypeKey != "FolderOutput" {
				t.Error("templates start with FolderInput and end with FolderOutput")
			}
		})
	}
}

func TestFromTemplate_Independent(t *testing.T) {
	a, _ := FromTemplate("batch-sequential-rename")
	a.Nodes[0].Config["path"] = "/changed"
	b, _ := FromTemplate("batch-sequential-rename")
	if b.Nodes[0].Config["path"] != "" {
		t.Error("mutating one instance must not affect the next")
	}
}

func TestFromTemplate_Unknown(t *testing.T) {
	_, err := FromTemplate("nope")
	if !apperrors.HasCode(err, apperrors.ErrCodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

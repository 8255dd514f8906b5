package node_test

import (
	"errors"
	"testing"

	apperrors "github.com/kbukum/flowforge/errors"
	"github.com/kbukum/flowforge/graph"
	"github.com/kbukum/flowforge/node"
	"github.com/kbukum/flowforge/node/nodetest"
)

func TestRegistry_Register(t *testing.T) {
	reg := node.NewRegistry()
	src := nodetest.NewSource("Src")
	good := node.Registration{
		TypeKey:  "Src",
		Category: node.CategorySource,
		Factory:  func() node.Node { return node.NewSource(src) },
	}
	if err := reg.Register(good); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := reg.Register(good); !apperrors.HasCode(err, apperrors.ErrCodeDuplicateRegistration) {
		t.Errorf("expected DUPLICATE_REGISTRATION, got %v", err)
	}

	bad := []node.Registration{
		{Category: node.CategorySource, Factory: good.Factory},
		{TypeKey: "NoFactory", Category: node.CategorySource},
		{TypeKey: "NoCategory", Factory: good.Factory},
	}
	for _, r := range bad {
		if err := reg.Register(r); err == nil {
			t.Errorf("expected %+v to be rejected", r.TypeKey)
		}
	}
}

func TestRegistry_StaticMetadata(t *testing.T) {
	reg := node.NewRegistry()
	schema := node.Schema{{Key: "path", Kind: node.KindString, Required: true}}
	reg.MustRegister(node.Registration{
		TypeKey:     "Out",
		DisplayName: "Folder Output",
		Category:    node.CategoryOutput,
		Schema:      schema,
		Factory: func() node.Node {
			t.Fatal("metadata lookups must not build instances")
			return node.Node{}
		},
	})
	reg.MustRegister(node.Registration{
		TypeKey:  "A",
		Category: node.CategoryTransform,
		Factory:  func() node.Node { return node.NewTransform(nodetest.NewTransform("A", nil)) },
	})

	if !reg.IsRegistered("Out") || reg.IsRegistered("Nope") {
		t.Error("IsRegistered mismatch")
	}
	if c, _ := reg.CategoryOf("Out"); c != node.CategoryOutput {
		t.Errorf("CategoryOf = %s", c)
	}
	if s, _ := reg.SchemaOf("Out"); len(s) != 1 || s[0].Key != "path" {
		t.Errorf("SchemaOf = %+v", s)
	}
	if name, _ := reg.DisplayNameOf("Out"); name != "Folder Output" {
		t.Errorf("DisplayNameOf = %q", name)
	}
	if name, _ := reg.DisplayNameOf("A"); name != "A" {
		t.Errorf("display name should default to the key, got %q", name)
	}
	list := reg.List()
	if len(list) != 2 || list[0].TypeKey != "A" || list[1].TypeKey != "Out" {
		t.Errorf("List not sorted: %+v", list)
	}
}

func TestRegistry_Instantiate(t *testing.T) {
	out := nodetest.NewOutput("Out", nil)
	reg := node.NewRegistry()
	reg.MustRegister(node.Registration{
		TypeKey:  "Out",
		Category: node.CategoryOutput,
		Schema: node.Schema{
			{Key: "path", Kind: node.KindString, Required: true},
			{Key: "mode", Kind: node.KindString, Default: "copy", Options: []string{"copy", "move"}},
		},
		Factory: func() node.Node { return node.NewOutput(out) },
	})

	n, err := reg.Instantiate(graph.NodeDefinition{ID: "o", TypeKey: "Out", Config: map[string]any{"path": "/tmp/x"}})
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	if n.Category() != node.CategoryOutput || n.Output() == nil || n.Source() != nil {
		t.Errorf("unexpected variant %s", n.Category())
	}
	if out.Values().String("mode") != "copy" {
		t.Errorf("Configure should receive defaults, got %q", out.Values().String("mode"))
	}

	_, err = reg.Instantiate(graph.NodeDefinition{ID: "o", TypeKey: "Out", Config: map[string]any{"mode": "zip"}})
	appErr, ok := apperrors.AsAppError(err)
	if !ok || appErr.Code != apperrors.ErrCodeNodeConfiguration || appErr.Details["node_id"] != "o" {
		t.Errorf("expected NODE_CONFIGURATION for node o, got %v", err)
	}
}

func TestRegistry_InstantiateErrors(t *testing.T) {
	reg := node.NewRegistry()
	reg.MustRegister(node.Registration{
		TypeKey:  "Liar",
		Category: node.CategorySource,
		Factory:  func() node.Node { return node.NewOutput(nodetest.NewOutput("Liar", nil)) },
	})
	reg.MustRegister(node.Registration{
		TypeKey:  "Picky",
		Category: node.CategoryTransform,
		Factory: func() node.Node {
			return node.NewTransform(nodetest.NewTransform("Picky", nil).FailConfigure(errors.New("needs more")))
		},
	})

	tests := []struct {
		typeKey string
		code    apperrors.ErrorCode
	}{
		{"Missing", apperrors.ErrCodeUnknownNodeType},
		{"Liar", apperrors.ErrCodeCategoryMismatch},
		{"Picky", apperrors.ErrCodeNodeConfiguration},
	}
	for _, tt := range tests {
		t.Run(tt.typeKey, func(t *testing.T) {
			_, err := reg.Instantiate(graph.NodeDefinition{ID: "x", TypeKey: tt.typeKey})
			if !apperrors.HasCode(err, tt.code) {
				t.Errorf("expected %s, got %v", tt.code, err)
			}
		})
	}
}

func TestNode_Variants(t *testing.T) {
	buf := node.NewBuffered(nodetest.NewBuffered("Sort", nil))
	if buf.Category() != node.CategoryTransform || !buf.Buffered() || buf.Flusher() == nil || buf.Transform() == nil {
		t.Error("buffered node should be a transform with a flusher")
	}
	plain := node.NewTransform(nodetest.NewTransform("T", nil))
	if plain.Buffered() || plain.Flusher() != nil {
		t.Error("plain transform must not be buffered")
	}
	if (node.Node{}).Category().String() != "Invalid" {
		t.Error("zero Node should be invalid")
	}
	if src := node.NewSource(nodetest.NewSource("S")); src.TypeKey() != "S" {
		t.Errorf("TypeKey = %q", src.TypeKey())
	}
}

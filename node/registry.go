package node

import (
	"sort"
	"sync"

	apperrors "github.com/kbukum/flowforge/errors"
	"github.com/kbukum/flowforge/graph"
)

// Factory returns a fresh, unconfigured node.
type Factory func() Node

// Registration is the static description of a node type.
type Registration struct {
	TypeKey     string
	DisplayName string
	Description string
	Category    Category
	Schema      Schema
	Factory     Factory
}

// Registry maps type keys to registrations. Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Registration
}

var _ graph.TypeChecker = (*Registry)(nil)

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Registration)}
}

// Register adds a node type. It rejects an empty key, a missing factory, an
// invalid category and a key that is already registered.
func (r *Registry) Register(reg Registration) error {
	if reg.TypeKey == "" {
		return apperrors.InvalidConfig("node registration needs a type key")
	}
	if reg.Factory == nil {
		return apperrors.InvalidConfig("node registration " + reg.TypeKey + " needs a factory")
	}
	switch reg.Category {
	case CategorySource, CategoryTransform, CategoryOutput:
	default:
		return apperrors.InvalidConfig("node registration " + reg.TypeKey + " has no category")
	}
	if reg.DisplayName == "" {
		reg.DisplayName = reg.TypeKey
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[reg.TypeKey]; exists {
		return apperrors.DuplicateRegistration(reg.TypeKey)
	}
	r.entries[reg.TypeKey] = reg
	return nil
}

// MustRegister is Register for package initialization; it panics on error.
func (r *Registry) MustRegister(reg Registration) {
	if err := r.Register(reg); err != nil {
		panic(err)
	}
}

// IsRegistered reports whether typeKey is known.
func (r *Registry) IsRegistered(typeKey string) bool {
	_, ok := r.Lookup(typeKey)
	return ok
}

// Lookup returns the registration for typeKey.
func (r *Registry) Lookup(typeKey string) (Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.entries[typeKey]
	return reg, ok
}

// CategoryOf returns the registered category of typeKey.
func (r *Registry) CategoryOf(typeKey string) (Category, bool) {
	reg, ok := r.Lookup(typeKey)
	return reg.Category, ok
}

// SchemaOf returns the declared configuration schema of typeKey.
func (r *Registry) SchemaOf(typeKey string) (Schema, bool) {
	reg, ok := r.Lookup(typeKey)
	return reg.Schema, ok
}

// DisplayNameOf returns the human-readable name of typeKey.
func (r *Registry) DisplayNameOf(typeKey string) (string, bool) {
	reg, ok := r.Lookup(typeKey)
	return reg.DisplayName, ok
}

// List returns every registration sorted by type key.
func (r *Registry) List() []Registration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Registration, 0, len(r.entries))
	for _, reg := range r.entries {
		out = append(out, reg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TypeKey < out[j].TypeKey })
	return out
}

// Instantiate builds and configures the node described by def.
//
// It fails with UNKNOWN_NODE_TYPE for an unregistered key, CATEGORY_MISMATCH
// when the factory builds a variant other than the registered category, and
// NODE_CONFIGURATION when def.Config violates the schema or the node's own
// Configure rejects it.
func (r *Registry) Instantiate(def graph.NodeDefinition) (Node, error) {
	reg, ok := r.Lookup(def.TypeKey)
	if !ok {
		return Node{}, apperrors.UnknownNodeType(def.TypeKey).WithDetail("node_id", def.ID)
	}

	n := reg.Factory()
	if n.Category() != reg.Category {
		return Node{}, apperrors.CategoryMismatch(def.TypeKey, reg.Category.String(), n.Category().String()).
			WithDetail("node_id", def.ID)
	}

	values, err := reg.Schema.Bind(def.TypeKey, def.Config)
	if err != nil {
		return Node{}, withNodeID(err, def.ID)
	}

	if err := n.Configure(values); err != nil {
		if apperrors.HasCode(err, apperrors.ErrCodeNodeConfiguration) {
			return Node{}, withNodeID(err, def.ID)
		}
		return Node{}, apperrors.NodeConfiguration(def.TypeKey, "", err.Error()).
			WithCause(err).
			WithDetail("node_id", def.ID)
	}
	return n, nil
}

func withNodeID(err error, nodeID string) error {
	if appErr, ok := apperrors.AsAppError(err); ok {
		appErr.WithDetail("node_id", nodeID)
		return appErr
	}
	return err
}

package testutil

import (
	"github.com/vk/nodeflow/internal/node"
	"github.com/vk/nodeflow/internal/registry"
	"github.com/vk/nodeflow/internal/schema"
)

// StaticModule is a registry.Module assembled inline by a test: a set of
// handlers plus the node types bound to them.
type StaticModule struct {
	Handlers map[string]node.Handler
	// Types maps each node type descriptor to its handler name.
	Types map[*schema.NodeType]string
}

// Register implements registry.Module.
func (m *StaticModule) Register(r *registry.Registry) {
	for name, fn := range m.Handlers {
		r.RegisterHandler(name, fn)
	}
	for nt, handler := range m.Types {
		r.RegisterType(nt, handler)
	}
}

// NewRegistry builds a registry from the given modules.
func NewRegistry(mods ...registry.Module) *registry.Registry {
	r := registry.New()
	for _, m := range mods {
		m.Register(r)
	}
	return r
}

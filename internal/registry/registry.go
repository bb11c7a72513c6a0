package registry

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/vk/nodeflow/internal/node"
	"github.com/vk/nodeflow/internal/schema"
)

// Module is the interface built-in node packages implement to be registered.
type Module interface {
	Register(r *Registry)
}

// RegisteredNode pairs a node type's descriptor with its invocation entry
// point.
type RegisteredNode struct {
	Manifest    *schema.NodeType
	HandlerName string
	Fn          node.Handler
}

// UnknownTypeError reports a schema lookup miss for a node type name.
type UnknownTypeError struct {
	Name string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown node type %q", e.Name)
}

// Registry holds the node type descriptors and Go handlers for a single
// application instance. It is populated once at startup and read-only
// afterwards; tests construct isolated instances instead of sharing a
// process-wide one.
type Registry struct {
	handlers map[string]node.Handler
	types    map[string]*RegisteredNode
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		handlers: make(map[string]node.Handler),
		types:    make(map[string]*RegisteredNode),
	}
}

// RegisterHandler registers a Go handler function under a handler name.
// Double registration is a programmer error and panics.
func (r *Registry) RegisterHandler(name string, fn node.Handler) {
	if _, exists := r.handlers[name]; exists {
		panic(fmt.Sprintf("handler with name '%s' already registered", name))
	}
	slog.Debug("Registering node handler.", "name", name)
	r.handlers[name] = fn
}

// RegisterType registers a node type descriptor bound to a previously
// registered handler. Intended for built-in modules; a missing handler or a
// duplicate type is a programmer error and panics.
func (r *Registry) RegisterType(nt *schema.NodeType, handlerName string) {
	if err := r.addType(nt, handlerName); err != nil {
		panic(err.Error())
	}
}

func (r *Registry) addType(nt *schema.NodeType, handlerName string) error {
	if nt == nil || nt.Type == "" {
		return fmt.Errorf("node type descriptor must have a type name")
	}
	if _, exists := r.types[nt.Type]; exists {
		return fmt.Errorf("node type '%s' already registered", nt.Type)
	}
	fn, ok := r.handlers[handlerName]
	if !ok {
		return fmt.Errorf("node type '%s' references unregistered handler '%s'", nt.Type, handlerName)
	}
	slog.Debug("Registering node type.", "type", nt.Type, "handler", handlerName)
	r.types[nt.Type] = &RegisteredNode{Manifest: nt, HandlerName: handlerName, Fn: fn}
	return nil
}

// Lookup resolves a node type name to its descriptor and handler.
func (r *Registry) Lookup(typeName string) (*RegisteredNode, error) {
	rn, ok := r.types[typeName]
	if !ok {
		return nil, &UnknownTypeError{Name: typeName}
	}
	return rn, nil
}

// Types returns the registered node type names in sorted order.
func (r *Registry) Types() []string {
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered node types.
func (r *Registry) Len() int {
	return len(r.types)
}

package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/nodeflow/internal/ctxlog"
	"github.com/vk/nodeflow/internal/schema"
)

// Validate performs a consistency check over the populated registry: every
// node type must bind to a live handler, input declarations must be
// internally coherent, and declared defaults must match their type tags.
// Handlers no manifest references are only warned about.
func (r *Registry) Validate(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	used := make(map[string]struct{}, len(r.types))
	for typeName, rn := range r.types {
		used[rn.HandlerName] = struct{}{}
		if rn.Fn == nil {
			errs = append(errs, fmt.Sprintf("node type '%s': handler '%s' is not registered", typeName, rn.HandlerName))
			continue
		}

		seen := make(map[string]struct{})
		for _, in := range allInputs(rn.Manifest) {
			if _, dup := seen[in.Name]; dup {
				errs = append(errs, fmt.Sprintf("node type '%s': input '%s' declared more than once", typeName, in.Name))
				continue
			}
			seen[in.Name] = struct{}{}
			errs = append(errs, validateInput(typeName, in)...)
		}
	}

	for name := range r.handlers {
		if _, ok := used[name]; !ok {
			logger.Warn("Handler is registered but no node type references it.", "handler", name)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func allInputs(nt *schema.NodeType) []*schema.InputSpec {
	all := make([]*schema.InputSpec, 0, len(nt.Inputs)+len(nt.OptionalInputs))
	all = append(all, nt.Inputs...)
	all = append(all, nt.OptionalInputs...)
	return all
}

func validateInput(typeName string, in *schema.InputSpec) []string {
	var errs []string

	if len(in.Options) > 0 && in.Type != schema.TypeString {
		errs = append(errs, fmt.Sprintf("node type '%s', input '%s': options require type %s, got '%s'", typeName, in.Name, schema.TypeString, in.Type))
	}
	if len(in.Options) > 0 && in.Default != nil {
		def, ok := in.Default.(string)
		found := false
		for _, opt := range in.Options {
			if ok && opt == def {
				found = true
				break
			}
		}
		if !found {
			errs = append(errs, fmt.Sprintf("node type '%s', input '%s': default %v is not one of the declared options", typeName, in.Name, in.Default))
		}
	}

	if in.Default == nil {
		return errs
	}
	switch in.Type {
	case schema.TypeString:
		if _, ok := in.Default.(string); !ok {
			errs = append(errs, fmt.Sprintf("node type '%s', input '%s': default %v does not match type STRING", typeName, in.Name, in.Default))
		}
	case schema.TypeInt, schema.TypeFloat:
		switch in.Default.(type) {
		case int, int64, float64:
		default:
			errs = append(errs, fmt.Sprintf("node type '%s', input '%s': default %v is not numeric", typeName, in.Name, in.Default))
		}
	case schema.TypeBool:
		if _, ok := in.Default.(bool); !ok {
			errs = append(errs, fmt.Sprintf("node type '%s', input '%s': default %v does not match type BOOL", typeName, in.Name, in.Default))
		}
	}
	return errs
}

// Package registry maps node type names to handler descriptors: the input
// schema, output slots, invocation capabilities, and the Go entry point the
// engine dispatches to. Descriptors come from built-in modules registering
// programmatically and from HCL manifest files loaded at startup; after
// startup the registry is read-only.
package registry

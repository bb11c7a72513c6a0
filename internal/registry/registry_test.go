package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/nodeflow/internal/node"
	"github.com/vk/nodeflow/internal/schema"
)

func noopHandler(_ context.Context, _ *node.Call) (node.Result, error) {
	return node.Single(nil), nil
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := New()
	r.RegisterHandler("OnRunNoop", noopHandler)
	r.RegisterType(&schema.NodeType{Type: "Noop"}, "OnRunNoop")

	rn, err := r.Lookup("Noop")
	require.NoError(t, err)
	assert.Equal(t, "Noop", rn.Manifest.Type)
	assert.Equal(t, "OnRunNoop", rn.HandlerName)
	assert.NotNil(t, rn.Fn)

	_, err = r.Lookup("Ghost")
	var uerr *UnknownTypeError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "Ghost", uerr.Name)
}

func TestRegistry_RegistrationPanics(t *testing.T) {
	t.Run("duplicate handler", func(t *testing.T) {
		r := New()
		r.RegisterHandler("OnRunNoop", noopHandler)
		assert.Panics(t, func() { r.RegisterHandler("OnRunNoop", noopHandler) })
	})

	t.Run("duplicate node type", func(t *testing.T) {
		r := New()
		r.RegisterHandler("OnRunNoop", noopHandler)
		r.RegisterType(&schema.NodeType{Type: "Noop"}, "OnRunNoop")
		assert.Panics(t, func() { r.RegisterType(&schema.NodeType{Type: "Noop"}, "OnRunNoop") })
	})

	t.Run("dangling handler reference", func(t *testing.T) {
		r := New()
		assert.Panics(t, func() { r.RegisterType(&schema.NodeType{Type: "Noop"}, "OnRunGhost") })
	})
}

func TestRegistry_TypesAreSorted(t *testing.T) {
	r := New()
	r.RegisterHandler("OnRunNoop", noopHandler)
	r.RegisterType(&schema.NodeType{Type: "Zeta"}, "OnRunNoop")
	r.RegisterType(&schema.NodeType{Type: "Alpha"}, "OnRunNoop")
	r.RegisterType(&schema.NodeType{Type: "Mid"}, "OnRunNoop")

	assert.Equal(t, []string{"Alpha", "Mid", "Zeta"}, r.Types())
	assert.Equal(t, 3, r.Len())
}

const thresholdManifest = `
node "Threshold" {
  handler      = "OnRunThreshold"
  display_name = "Threshold"
  category     = "Test/Process"
  blocking     = true

  input "level" {
    type    = "FLOAT"
    default = 0.5
    min     = 0
    max     = 1
  }

  input "mode" {
    type    = "STRING"
    options = ["binary", "truncate"]
  }

  optional_input "label" {
    type        = "STRING"
    default     = ""
    placeholder = "optional label"
  }

  output "result" {
    type = "CHUNKED_ARRAY"
  }
}
`

func TestLoadManifests(t *testing.T) {
	ctx := context.Background()

	t.Run("declares a node type", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "threshold.hcl"), []byte(thresholdManifest), 0o644))

		r := New()
		r.RegisterHandler("OnRunThreshold", noopHandler)
		require.NoError(t, r.LoadManifests(ctx, dir))

		rn, err := r.Lookup("Threshold")
		require.NoError(t, err)

		nt := rn.Manifest
		assert.True(t, nt.Blocking)
		assert.False(t, nt.Terminal)
		assert.Equal(t, "Test/Process", nt.Category)

		level := nt.Input("level")
		require.NotNil(t, level)
		assert.Equal(t, schema.TypeFloat, level.Type)
		assert.Equal(t, 0.5, level.Default)
		require.NotNil(t, level.Min)
		assert.Equal(t, 0.0, *level.Min)
		require.NotNil(t, level.Max)
		assert.Equal(t, 1.0, *level.Max)

		mode := nt.Input("mode")
		require.NotNil(t, mode)
		assert.Equal(t, []string{"binary", "truncate"}, mode.Options)

		label := nt.Input("label")
		require.NotNil(t, label)
		assert.Equal(t, "", label.Default)
		assert.Equal(t, "optional label", label.Placeholder)
		require.Len(t, nt.OptionalInputs, 1)

		require.Len(t, nt.Outputs, 1)
		assert.Equal(t, schema.TypeChunkedArray, nt.Outputs[0].Type)

		require.NoError(t, r.Validate(ctx))
	})

	t.Run("dangling handler is an error, not a panic", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "threshold.hcl"), []byte(thresholdManifest), 0o644))

		r := New()
		err := r.LoadManifests(ctx, dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "OnRunThreshold")
	})

	t.Run("empty directory loads nothing", func(t *testing.T) {
		r := New()
		require.NoError(t, r.LoadManifests(ctx, t.TempDir()))
		assert.Equal(t, 0, r.Len())
	})

	t.Run("malformed manifest is an error", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.hcl"), []byte(`node "X" {`), 0o644))

		r := New()
		assert.Error(t, r.LoadManifests(ctx, dir))
	})
}

func TestValidate(t *testing.T) {
	ctx := context.Background()

	register := func(nt *schema.NodeType) *Registry {
		r := New()
		r.RegisterHandler("OnRunNoop", noopHandler)
		r.RegisterType(nt, "OnRunNoop")
		return r
	}

	t.Run("options require string type", func(t *testing.T) {
		r := register(&schema.NodeType{
			Type:   "Bad",
			Inputs: []*schema.InputSpec{{Name: "n", Type: schema.TypeInt, Options: []string{"a"}}},
		})
		err := r.Validate(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "options require type STRING")
	})

	t.Run("default must be a declared option", func(t *testing.T) {
		r := register(&schema.NodeType{
			Type: "Bad",
			Inputs: []*schema.InputSpec{
				{Name: "mode", Type: schema.TypeString, Options: []string{"a", "b"}, Default: "c"},
			},
		})
		err := r.Validate(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not one of the declared options")
	})

	t.Run("default must match the type tag", func(t *testing.T) {
		r := register(&schema.NodeType{
			Type:   "Bad",
			Inputs: []*schema.InputSpec{{Name: "sigma", Type: schema.TypeFloat, Default: "high"}},
		})
		err := r.Validate(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not numeric")
	})

	t.Run("duplicate input names across required and optional", func(t *testing.T) {
		r := register(&schema.NodeType{
			Type:           "Bad",
			Inputs:         []*schema.InputSpec{{Name: "x", Type: schema.TypeString}},
			OptionalInputs: []*schema.InputSpec{{Name: "x", Type: schema.TypeString}},
		})
		err := r.Validate(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "declared more than once")
	})

	t.Run("unused handler is only a warning", func(t *testing.T) {
		r := New()
		r.RegisterHandler("OnRunUnused", noopHandler)
		assert.NoError(t, r.Validate(ctx))
	})
}

func TestCatalog(t *testing.T) {
	r := New()
	r.RegisterHandler("OnRunNoop", noopHandler)
	r.RegisterType(&schema.NodeType{
		Type:     "Writer",
		Terminal: true,
		Inputs: []*schema.InputSpec{
			{Name: "compression", Type: schema.TypeString, Options: []string{"default", "zstd"}},
		},
		OptionalInputs: []*schema.InputSpec{
			{Name: "output_path", Type: schema.TypeString, Default: ""},
		},
		Outputs: []*schema.OutputSpec{{Name: "saved_path", Type: schema.TypeString}},
	}, "OnRunNoop")

	catalog := r.Catalog()
	require.Contains(t, catalog, "Writer")
	info := catalog["Writer"]

	assert.Equal(t, "Writer", info.DisplayName, "display name falls back to the type name")
	assert.Equal(t, "No description.", info.Description)
	assert.True(t, info.OutputNode)
	assert.Equal(t, []string{schema.TypeString}, info.Output)
	assert.Equal(t, []string{"saved_path"}, info.OutputName)

	require.Contains(t, info.Input.Required, "compression")
	assert.Equal(t, []string{"default", "zstd"}, info.Input.Required["compression"].Options)
	require.Contains(t, info.Input.Optional, "output_path")
}

package app_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/flowgrid/internal/app"
	"github.com/vk/flowgrid/internal/scheduler"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNewConfig(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		cfg, err := app.NewConfig(app.Config{FlowPath: "flow.hcl"})
		require.NoError(t, err)
		assert.Equal(t, "text", cfg.LogFormat)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, scheduler.DefaultWorkers, cfg.WorkerCount)
		assert.Equal(t, scheduler.DefaultMaxWaves, cfg.MaxWaves)
	})

	tests := []struct {
		name string
		cfg  app.Config
		want string
	}{
		{name: "log format", cfg: app.Config{LogFormat: "xml"}, want: "LogFormat"},
		{name: "log level", cfg: app.Config{LogLevel: "loud"}, want: "LogLevel"},
		{name: "workers", cfg: app.Config{WorkerCount: -1}, want: "WorkerCount"},
		{name: "port", cfg: app.Config{HTTPPort: 70000}, want: "HTTPPort"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := app.NewConfig(tc.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestRun_HCL(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "main.hcl", `
vertex "text" "greeting" {
  value = "hello"
}

vertex "print" "out" {
  label = "greeting"
  value = vertex.text.greeting.text
}
`)
	cfg, err := app.NewConfig(app.Config{FlowPath: path})
	require.NoError(t, err)
	a, out := app.SetupAppTest(t, cfg)

	require.NoError(t, a.Run(context.Background()))
	assert.Contains(t, out.String(), `      greeting = "hello"`)
	assert.Contains(t, out.String(), "print.out")
}

func TestRun_DirectoryMergesFormats(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "a.hcl", `
vertex "text" "greeting" {
  value = "hi"
}
`)
	writeFile(t, dir, "b.yaml", `
vertices:
  - id: print.out
edges:
  - from: text.greeting.text
    to: print.out.value
`)
	cfg, err := app.NewConfig(app.Config{FlowPath: dir})
	require.NoError(t, err)
	a, out := app.SetupAppTest(t, cfg)

	require.NoError(t, a.Run(context.Background()))
	assert.Contains(t, out.String(), `      "hi"`)
}

func TestRun_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tests := []struct {
		name string
		path string
		want string
	}{
		{
			name: "missing path",
			path: filepath.Join(dir, "nope.hcl"),
			want: "failed to load flow",
		},
		{
			name: "unsupported extension",
			path: writeFile(t, dir, "flow.txt", "hello"),
			want: "unsupported file type",
		},
		{
			name: "unknown component",
			path: writeFile(t, dir, "unknown.hcl", `vertex "nope" "x" {}`),
			want: "failed to build flow graph",
		},
		{
			name: "failing vertex",
			path: writeFile(t, dir, "failing.hcl", `
vertex "combine" "c" {
  texts = []
}
`),
			want: "1 of 1 vertices did not succeed",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg, err := app.NewConfig(app.Config{FlowPath: tc.path})
			require.NoError(t, err)
			a, _ := app.SetupAppTest(t, cfg)

			err = a.Run(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestRun_RequiresFlowPath(t *testing.T) {
	t.Parallel()

	cfg, err := app.NewConfig(app.Config{})
	require.NoError(t, err)
	a, _ := app.SetupAppTest(t, cfg)
	require.Error(t, a.Run(context.Background()))
}

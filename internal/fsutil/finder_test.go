package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	for _, p := range []string{"b.yaml", "a.hcl", "sub/c.yml", "sub/notes.txt", ".git/d.hcl"} {
		full := filepath.Join(root, p)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, nil, 0o600))
	}

	got, err := FindFiles(root, ".yaml", ".yml")
	require.NoError(t, err)
	want := []string{filepath.Join(root, "b.yaml"), filepath.Join(root, "sub", "c.yml")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FindFiles() mismatch (-want +got):\n%s", diff)
	}

	got, err = FindFiles(root, ".hcl")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "a.hcl")}, got)

	_, err = FindFiles(root)
	require.Error(t, err)

	_, err = FindFiles(filepath.Join(root, "missing"), ".hcl")
	require.Error(t, err)
}

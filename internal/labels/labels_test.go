package labels_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canhld94/HeteroServing/internal/labels"
)

func TestLoadAndLookup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "labels.txt")
	require.NoError(t, os.WriteFile(path, []byte("person\ncar\n\nbicycle\n"), 0o644))

	l, err := labels.Load(path)
	require.NoError(t, err)
	require.Len(t, l, 3)

	assert.Equal(t, "person", l.Lookup(0))
	assert.Equal(t, "car", l.Lookup(1))
	assert.Equal(t, "bicycle", l.Lookup(2))
	assert.Equal(t, labels.Unknown, l.Lookup(3))
	assert.Equal(t, labels.Unknown, l.Lookup(-1))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := labels.Load("/nonexistent/path/labels.txt")
	require.Error(t, err)
}

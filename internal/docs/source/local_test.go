package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalReadFile_MissingFileIsErrNotExist(t *testing.T) {
	src := NewLocal(t.TempDir(), nil)

	_, err := src.ReadFile(context.Background(), "main", "docs/missing.md")
	require.ErrorIs(t, err, ErrNotExist)
}

func TestLocalReadFile_IgnoresRef(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.md"), []byte("content"), 0o644))
	src := NewLocal(root, nil)

	for _, ref := range []string{"main", "v1.2.3", ""} {
		data, err := src.ReadFile(context.Background(), ref, "a.md")
		require.NoError(t, err)
		require.Equal(t, "content", string(data))
	}
}

func TestLocalListTags_DefaultsWhenUnconfigured(t *testing.T) {
	tags, err := NewLocal(t.TempDir(), nil).ListTags(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"v0.0.0"}, tags)

	tags, err = NewLocal(t.TempDir(), []string{"1.0.0", "2.0.0"}).ListTags(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"1.0.0", "2.0.0"}, tags)
}

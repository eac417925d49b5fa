package document

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ouroborosapi/ouroboros/ouroerrors"
)

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "openapi.yaml")
	store := NewStore(path)

	doc := MapOf(
		"openapi", "3.1.0",
		"info", MapOf("title", "Demo", "version", "0.1.0"),
	)
	require.NoError(t, store.Save(doc))
	assert.True(t, store.Exists())

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, doc.ToPlain(), loaded.ToPlain())
	assert.Equal(t, []string{"openapi", "info"}, loaded.Keys())
}

func TestStoreLoadMissingFile(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := store.Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestStoreLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a: [unclosed"), 0o644))

	_, err := NewStore(path).Load()
	require.Error(t, err)
	var perr *ouroerrors.ParseError
	assert.ErrorAs(t, err, &perr)
	assert.ErrorIs(t, err, ouroerrors.ErrParse)
}

func TestStoreSaveAtomicKeepsPreviousOnMarshalFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spec.yaml")
	store := NewStore(path)
	require.NoError(t, store.Save(MapOf("openapi", "3.1.0")))

	// A value the YAML encoder cannot represent fails before any write.
	bad := MapOf("fn", func() {})
	require.Error(t, store.Save(bad))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "3.1.0", loaded.GetString("openapi"))
}

func TestLoadBytes(t *testing.T) {
	doc, err := LoadBytes([]byte("info:\n  title: T\n"))
	require.NoError(t, err)
	assert.Equal(t, "T", doc.GetMap("info").GetString("title"))

	_, err = LoadBytes([]byte("{{not yaml"))
	assert.ErrorIs(t, err, ouroerrors.ErrParse)
}

func TestMarshalIndent(t *testing.T) {
	doc := MapOf("info", MapOf("title", "T"))
	data, err := Marshal(doc)
	require.NoError(t, err)
	assert.Equal(t, "info:\n  title: T\n", string(data))
}

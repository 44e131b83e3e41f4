package vault

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notegraph/notegraph/internal/storage"
	"github.com/notegraph/notegraph/pkg/rdf"
	"github.com/notegraph/notegraph/pkg/store"
)

func writeNote(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func docPaths(docs []*Document) []string {
	paths := make([]string, len(docs))
	for i, d := range docs {
		paths[i] = d.Path
	}
	sort.Strings(paths)
	return paths
}

func TestDocumentsScansRecursively(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "a.md", "---\ntitle: A\n---\n")
	writeNote(t, root, "sub/b.md", "---\ntitle: B\n---\n")
	writeNote(t, root, "sub/deep/c.md", "no frontmatter")
	writeNote(t, root, "ignored.txt", "not markdown")

	v, err := Open(root, WithVaultLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)

	docs, err := v.Documents()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.md", "sub/b.md", "sub/deep/c.md"}, docPaths(docs))
}

func TestDocumentsExcludeGlobs(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "keep.md", "")
	writeNote(t, root, "templates/daily.md", "")
	writeNote(t, root, ".trash/old.md", "")

	v, err := Open(root,
		WithVaultLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithExcludes("templates/**", ".trash/**"),
	)
	require.NoError(t, err)

	docs, err := v.Documents()
	require.NoError(t, err)
	assert.Equal(t, []string{"keep.md"}, docPaths(docs))
}

func TestDocumentsSkipsMalformedFrontmatter(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "good.md", "---\ntitle: Good\n---\n")
	writeNote(t, root, "bad.md", "---\ntitle: [unclosed\n---\n")

	v, err := Open(root, WithVaultLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)

	docs, err := v.Documents()
	require.NoError(t, err)
	assert.Equal(t, []string{"good.md"}, docPaths(docs))
}

func TestOpenRejectsMissingRoot(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.Error(t, err)
}

func TestOpenRejectsFileRoot(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "file.md", "")
	_, err := Open(filepath.Join(root, "file.md"))
	assert.Error(t, err)
}

func TestLoadIndexesWholeVault(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "one.md", "---\nstatus: active\n---\n")
	writeNote(t, root, "two.md", "---\nstatus: done\n---\n")

	st, err := storage.NewMemoryStorage()
	require.NoError(t, err)
	s := store.NewTripleStore(st)
	t.Cleanup(func() { _ = s.Close() })

	v, err := Open(root, WithVaultLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)

	ix := NewIndexer(s)
	require.NoError(t, v.Load(ix))

	assert.Equal(t, []string{"one.md", "two.md"}, ix.Paths())

	ok, err := s.Contains(rdf.NewTriple(DocumentIRI("one.md"), PropertyIRI("status"), rdf.NewLiteral("active")))
	require.NoError(t, err)
	assert.True(t, ok)
}

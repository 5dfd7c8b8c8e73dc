package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KamilGolis/Apex-Indexer-LS/internal/config"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestResolveRoot_FindsMarkerInParent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "sfdx-project.json", "{}")
	nested := filepath.Join(root, "force-app", "main", "classes")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	got, found, err := ResolveRoot(nested, []string{"sfdx-project.json"})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, root, got)
}

func TestResolveRoot_FileStartPathUsesItsDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "sfdx-project.json", "{}")
	file := writeFile(t, root, "sub/A.cls", "class A {}")

	got, found, err := ResolveRoot(file, []string{"sfdx-project.json"})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, root, got)
}

func TestResolveRoot_NoMarkerFallsBackToStartPath(t *testing.T) {
	dir := t.TempDir()
	got, found, err := ResolveRoot(dir, []string{"definitely-not-present.json"})
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, dir, got)
}

func TestResolveRoot_MissingStartPath(t *testing.T) {
	_, _, err := ResolveRoot(filepath.Join(t.TempDir(), "gone"), []string{"x"})
	require.Error(t, err)
}

func TestRelPath(t *testing.T) {
	root := t.TempDir()

	rel, err := RelPath(root, filepath.Join(root, "force-app", "A.cls"))
	require.NoError(t, err)
	assert.Equal(t, "force-app/A.cls", rel)

	_, err = RelPath(root, filepath.Join(filepath.Dir(root), "elsewhere", "B.cls"))
	require.Error(t, err)
}

func TestEnumerateFiles(t *testing.T) {
	root := t.TempDir()
	a := writeFile(t, root, "force-app/A.cls", "")
	trg := writeFile(t, root, "triggers/T.trigger", "")
	writeFile(t, root, "force-app/A.cls-meta.xml", "")
	writeFile(t, root, "node_modules/dep/B.cls", "")
	writeFile(t, root, ".sfdx/tools/C.cls", "")

	files, err := EnumerateFiles(root, config.Default())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a, trg}, files)
}

func TestEnumerateFiles_HonorsIgnoreFiles(t *testing.T) {
	root := t.TempDir()
	keep := writeFile(t, root, "src/Keep.cls", "")
	writeFile(t, root, "src/generated/Gen.cls", "")
	writeFile(t, root, "src/Scratch.cls", "")
	writeFile(t, root, ".gitignore", "src/generated/\n")
	writeFile(t, root, ".forceignore", "# tooling scratch\nsrc/Scratch.cls\n")

	files, err := EnumerateFiles(root, config.Default())
	require.NoError(t, err)
	assert.Equal(t, []string{keep}, files)
}

func TestEnumerateFiles_MissingRootFails(t *testing.T) {
	_, err := EnumerateFiles(filepath.Join(t.TempDir(), "gone"), config.Default())
	require.Error(t, err)
}

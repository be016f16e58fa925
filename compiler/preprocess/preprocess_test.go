package preprocess

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProcessFileExpandsInclude(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "util.o"), []byte("fn helper() {}\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.o"), []byte("include \"util.o\";\nfn main() {}\n"), 0644))

	out, err := ProcessFile(context.Background(), filepath.Join(dir, "main.o"))
	require.NoError(t, err)
	require.Contains(t, string(out), "fn helper() {}")
	require.Contains(t, string(out), "fn main() {}")
}

func TestProcessFileSuppressesCycle(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.o"), []byte("include \"b.o\";\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.o"), []byte("include \"a.o\";\nfn b() {}\n"), 0644))

	out, err := ProcessFile(context.Background(), filepath.Join(dir, "a.o"))
	require.NoError(t, err)
	require.Contains(t, string(out), "fn b() {}")
}

func TestProcessFileToleratesMissingInclude(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.o"), []byte("include \"missing.o\";\nfn main() {}\n"), 0644))

	out, err := ProcessFile(context.Background(), filepath.Join(dir, "main.o"))
	require.NoError(t, err)
	require.Contains(t, string(out), "fn main() {}")
}

func TestProcessFileToleratesMalformedDirective(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.o"), []byte(`include "unterminated`), 0644))

	out, err := ProcessFile(context.Background(), filepath.Join(dir, "main.o"))
	require.NoError(t, err)
	require.Contains(t, string(out), "unterminated")
}

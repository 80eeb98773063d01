package directory_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearpathhq/clearpath/internal/adapter/directory"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "candidates.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestYAMLFile_List(t *testing.T) {
	t.Parallel()
	path := writeFile(t, `
candidates:
  - id: ext-1
    name: Maya Chen
    email: maya@example.com
    skills: [Go, Kubernetes]
    experience: 8 years
    current_role: Platform Engineer
    location: Berlin
  - id: ""
    name: Missing ID
  - id: ext-2
    name: Omar Haddad
`)
	src, err := directory.NewYAMLFile(path)
	require.NoError(t, err)

	cands, err := src.List(context.Background())
	require.NoError(t, err)
	require.Len(t, cands, 2, "profiles without an id are dropped")
	assert.Equal(t, "Maya Chen", cands[0].Name)
	assert.Equal(t, []string{"Go", "Kubernetes"}, cands[0].Skills)
	assert.Equal(t, "ext-2", cands[1].ID)
}

func TestYAMLFile_ListPicksUpEdits(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "candidates:\n  - id: a\n    name: A\n")
	src, err := directory.NewYAMLFile(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("candidates:\n  - id: a\n    name: A\n  - id: b\n    name: B\n"), 0o600))
	cands, err := src.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, cands, 2)
}

func TestNewYAMLFile_Errors(t *testing.T) {
	t.Parallel()
	_, err := directory.NewYAMLFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	bad := writeFile(t, "candidates: {this is: [not, valid")
	_, err = directory.NewYAMLFile(bad)
	require.Error(t, err)
}

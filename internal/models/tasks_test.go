package models

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTaskCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.yaml")
	content := []byte(`
screens:
  - id: signup
    title: Sign up
    route: /account/new
    task_type: form
  - id: explore
    title: Explore
    route: /explore
    task_type: browsing
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	catalog, err := LoadTaskCatalog(path)
	require.NoError(t, err)
	require.Len(t, catalog.Screens, 2)

	assert.Equal(t, TaskForm, catalog.Resolve("/account/new"))
	assert.Equal(t, TaskBrowsing, catalog.Resolve("/explore/"))
	// Not in the catalog: substring inference applies.
	assert.Equal(t, TaskInteractive, catalog.Resolve("/interactive"))
}

func TestLoadTaskCatalogRejectsUnknownTaskType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.yaml")
	require.NoError(t, os.WriteFile(path, []byte("screens:\n  - id: x\n    route: /x\n    task_type: checkout\n"), 0o600))

	_, err := LoadTaskCatalog(path)
	require.ErrorIs(t, err, ErrUnknownTaskType)
}

func TestDefaultTaskCatalogResolve(t *testing.T) {
	catalog := DefaultTaskCatalog()
	assert.Equal(t, TaskLogin, catalog.Resolve("/login"))
	assert.Equal(t, TaskInteractive, catalog.Resolve("/interactive"))
	assert.Equal(t, TaskForm, catalog.Resolve("/dashboard"))

	var nilCatalog *TaskCatalog
	assert.Equal(t, TaskBrowsing, nilCatalog.Resolve("/browsing"))
}

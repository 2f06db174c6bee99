package database

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/lib/pq"
)

func TestResolveMigrationPath(t *testing.T) {
	path, err := resolveMigrationPath("")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(path))
	assert.Equal(t, "migrations", filepath.Base(path))
}

func TestCreateMigrationFile(t *testing.T) {
	dir := t.TempDir()

	up, err := CreateMigrationFile(dir, "Create Scenes")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "000001_create_scenes.up.sql"), up)
	assert.FileExists(t, filepath.Join(dir, "000001_create_scenes.down.sql"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "000007_manual.up.sql"), nil, 0o644))
	up, err = CreateMigrationFile(dir, "add index!")
	require.NoError(t, err)
	assert.Equal(t, "000008_add_index.up.sql", filepath.Base(up))

	_, err = CreateMigrationFile(dir, "!!!")
	assert.Error(t, err)
}

func TestMigrationManager(t *testing.T) {
	dbURL := os.Getenv("TEST_DB_URL")
	if dbURL == "" {
		t.Skip("Skipping migration test: TEST_DB_URL not set")
	}

	db, err := sql.Open("postgres", dbURL)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Ping())

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "000001_test_migration.up.sql"),
		[]byte(`CREATE TABLE IF NOT EXISTS test_migration (id SERIAL PRIMARY KEY, name VARCHAR(100));`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "000001_test_migration.down.sql"),
		[]byte(`DROP TABLE IF EXISTS test_migration;`), 0o644))

	manager, err := NewMigrationManager(db, dir, nil)
	require.NoError(t, err)
	defer manager.Close()

	pending, err := manager.Pending()
	require.NoError(t, err)
	assert.True(t, pending)

	require.NoError(t, manager.Up())
	version, dirty, err := manager.Version()
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(1), version)

	pending, err = manager.Pending()
	require.NoError(t, err)
	assert.False(t, pending)

	require.NoError(t, manager.Down())
	version, _, err = manager.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)
}

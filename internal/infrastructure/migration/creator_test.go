package migration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pendencias/backend/migrations"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"create search audits", "create_search_audits"},
		{"Add-Fingerprint-Index", "add_fingerprint_index"},
		{"ADD_CLIENT_ID", "add_client_id"},
		{"add__client__id", "add_client_id"},
		{"Audit Outcomes 2", "audit_outcomes_2"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 6, 1, 12, 30, 45, 0, time.UTC)

	mf, err := createMigrationAt(dir, "add audit index", "Index audits by client", now)
	require.NoError(t, err)

	assert.Equal(t, "20250601123045", mf.Version)
	assert.Equal(t, filepath.Join(dir, "20250601123045_add_audit_index.up.sql"), mf.UpPath)
	assert.Equal(t, filepath.Join(dir, "20250601123045_add_audit_index.down.sql"), mf.DownPath)

	upContent, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(upContent), "add audit index")
	assert.Contains(t, string(upContent), "Index audits by client")
	assert.Contains(t, string(upContent), "Write your UP migration SQL here")

	downContent, err := os.ReadFile(mf.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(downContent), "Rollback")
	assert.Contains(t, string(downContent), "Write your DOWN migration SQL here")
}

func TestCreateMigration_CreatesDirectory(t *testing.T) {
	nested := filepath.Join(t.TempDir(), "nested", "migrations")

	mf, err := CreateMigration(nested, "test", "test migration")
	require.NoError(t, err)
	assert.Len(t, mf.Version, 14)

	info, err := os.Stat(nested)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestCreateMigration_EmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "")
	assert.ErrorIs(t, err, ErrEmptyMigrationName)
}

func TestCreateMigration_DoesNotOverwrite(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	_, err := createMigrationAt(dir, "same", "", now)
	require.NoError(t, err)
	_, err = createMigrationAt(dir, "same", "", now)
	assert.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"000002_add_index.up.sql":     {Data: []byte("--")},
		"000002_add_index.down.sql":   {Data: []byte("--")},
		"000001_init_schema.up.sql":   {Data: []byte("--")},
		"000001_init_schema.down.sql": {Data: []byte("--")},
		"000003_half.up.sql":          {Data: []byte("--")},
		"README.md":                   {Data: []byte("docs")},
		".gitkeep":                    {},
		"embed.go":                    {Data: []byte("package migrations")},
		"subdir.up.sql/inner.sql":     {Data: []byte("--")},
	}

	got, err := ListMigrations(fsys)
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Equal(t, "000001_init_schema", got[0].Name)
	assert.Equal(t, "000002_add_index", got[1].Name)
	assert.Equal(t, "000003_half", got[2].Name)
	assert.True(t, got[0].Complete())
	assert.False(t, got[2].Complete())
	assert.True(t, got[2].HasUp)
}

func TestListMigrationsDir(t *testing.T) {
	t.Run("nonexistent directory", func(t *testing.T) {
		got, err := ListMigrationsDir("/nonexistent/path/to/migrations")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("empty directory", func(t *testing.T) {
		got, err := ListMigrationsDir(t.TempDir())
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("created pair is listed", func(t *testing.T) {
		dir := t.TempDir()
		mf, err := CreateMigration(dir, "first", "")
		require.NoError(t, err)

		got, err := ListMigrationsDir(dir)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, strings.TrimSuffix(filepath.Base(mf.UpPath), ".up.sql"), got[0].Name)
		assert.True(t, got[0].Complete())
	})
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	got, err := ListMigrations(migrations.FS)
	require.NoError(t, err)
	require.NotEmpty(t, got)

	for _, m := range got {
		assert.True(t, m.Complete(), "migration %s is missing a half", m.Name)
	}
	assert.Contains(t, got[0].Name, "create_search_audits")
}

package migration

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()

	mf, err := CreateMigration(dir, "Add Payout Requests Table")
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(mf.UpPath, "_add_payout_requests_table.up.sql"))
	assert.True(t, strings.HasSuffix(mf.DownPath, "_add_payout_requests_table.down.sql"))
	assert.Len(t, mf.Version, 14)

	for _, path := range []string{mf.UpPath, mf.DownPath} {
		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), "Add Payout Requests Table")
	}
}

func TestListMigrations(t *testing.T) {
	t.Run("returns up files in version order", func(t *testing.T) {
		dir := t.TempDir()
		for _, name := range []string{
			"000002_second.up.sql",
			"000001_first.up.sql",
			"000001_first.down.sql",
			"notes.txt",
		} {
			require.NoError(t, os.WriteFile(dir+"/"+name, nil, 0o644))
		}

		names, err := ListMigrations(dir)
		require.NoError(t, err)
		assert.Equal(t, []string{"000001_first.up.sql", "000002_second.up.sql"}, names)
	})

	t.Run("missing directory yields empty list", func(t *testing.T) {
		names, err := ListMigrations("/nonexistent/migrations")
		require.NoError(t, err)
		assert.Empty(t, names)
	})
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "add_ledger_entries", sanitizeName("Add Ledger-Entries"))
	assert.Equal(t, "v2_schema", sanitizeName("V2  Schema "))
}

package database

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "test.db")}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestDSN(t *testing.T) {
	dsn := DSN(Config{Path: "data/paint.db"})
	assert.Contains(t, dsn, "file:data/paint.db?")
	assert.Contains(t, dsn, "_txlock=immediate")
	assert.Contains(t, dsn, "_busy_timeout=5000")
	assert.Contains(t, dsn, "_foreign_keys=on")
}

func TestLoadMigrations_SortsByVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"010_later.sql":   {Data: []byte("SELECT 1;")},
		"002_second.sql":  {Data: []byte("SELECT 1;")},
		"001_initial.sql": {Data: []byte("SELECT 1;")},
		"README.md":       {Data: []byte("ignored")},
	}

	migrations, err := LoadMigrations(fsys)
	require.NoError(t, err)
	require.Len(t, migrations, 3)
	assert.Equal(t, []int{1, 2, 10}, []int{migrations[0].Version, migrations[1].Version, migrations[2].Version})
	assert.Equal(t, "initial", migrations[0].Name)
}

func TestLoadMigrations_BadName(t *testing.T) {
	_, err := LoadMigrations(fstest.MapFS{"init.sql": {Data: []byte("SELECT 1;")}})
	assert.ErrorContains(t, err, "invalid migration filename")
}

func TestMigrator_RunIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	m := NewMigrator(db, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, m.Run(ctx, Migrations()))
	require.NoError(t, m.Run(ctx, Migrations()))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestAuditLog_AppendOnly(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, NewMigrator(db, zap.NewNop()).Run(context.Background(), Migrations()))

	_, err := db.Exec(`INSERT INTO audit_log (id, tenant_id, entity_type, entity_id, action, actor_id, created_at)
		VALUES ('a1', 't1', 'quote', 'q1', 'quote_created', 'u1', CURRENT_TIMESTAMP)`)
	require.NoError(t, err)

	_, err = db.Exec(`UPDATE audit_log SET action = 'tampered' WHERE id = 'a1'`)
	assert.ErrorContains(t, err, "append-only")

	_, err = db.Exec(`DELETE FROM audit_log WHERE id = 'a1'`)
	assert.ErrorContains(t, err, "append-only")

	var action string
	require.NoError(t, db.QueryRow(`SELECT action FROM audit_log WHERE id = 'a1'`).Scan(&action))
	assert.Equal(t, "quote_created", action)
}

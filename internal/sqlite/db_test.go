package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rpggio/waitline/internal/domain/member"
	"github.com/rpggio/waitline/internal/domain/queue"
	"github.com/stretchr/testify/require"
)

// NewTestDB creates a new in-memory SQLite database for testing
func NewTestDB(t *testing.T) *DB {
	t.Helper()
	return openTestDB(t, ":memory:")
}

// NewTestFileDB creates a file-backed database in a temp dir. Separate
// handles opened on the same path behave like separate processes.
func NewTestFileDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "waitline.db")
}

func openTestDB(t *testing.T, path string) *DB {
	t.Helper()

	db, err := New(path)
	require.NoError(t, err, "failed to create test database")

	err = db.RunMigrations(context.Background())
	require.NoError(t, err, "failed to run migrations")

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func insertMember(t *testing.T, db *DB, id string, role member.Role) {
	t.Helper()
	err := NewMemberRepository(db).Create(context.Background(), &member.Member{
		ID: id, Name: id, Role: role, CreatedAt: time.Now(),
	})
	require.NoError(t, err)
}

func insertQueue(t *testing.T, db *DB, id, creatorID string, capacity int) {
	t.Helper()
	err := NewQueueRepository(db).Create(context.Background(), &queue.Queue{
		ID: id, CreatorID: creatorID, Name: id, Description: "queue " + id, MaxCapacity: capacity, CreatedAt: time.Now(),
	})
	require.NoError(t, err)
}

// TestMigrations verifies that migrations run successfully
func TestMigrations(t *testing.T) {
	db := NewTestDB(t)

	tables := []string{
		"schema_migrations",
		"members",
		"queues",
		"tickets",
		"activity_log",
	}

	for _, table := range tables {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err, "failed to query table %s", table)
		require.Equal(t, 1, count, "table %s not found", table)
	}
}

// TestMigrationsIdempotent verifies a second run applies nothing
func TestMigrationsIdempotent(t *testing.T) {
	db := NewTestDB(t)
	require.NoError(t, db.RunMigrations(context.Background()))

	var applied int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&applied))
	require.Equal(t, 1, applied)
}

// TestForeignKeys verifies that foreign key constraints are enabled
func TestForeignKeys(t *testing.T) {
	db := NewTestDB(t)

	var enabled int
	err := db.QueryRow("PRAGMA foreign_keys").Scan(&enabled)
	require.NoError(t, err)
	require.Equal(t, 1, enabled, "foreign keys not enabled")
}

// TestTicketsTable verifies ticket constraints
func TestTicketsTable(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertMember(t, db, "adm", member.RoleAdmitter)
	insertMember(t, db, "m1", member.RoleJoiner)
	insertQueue(t, db, "q1", "adm", 3)

	insert := `INSERT INTO tickets (id, queue_id, member_id, position, status, joined_at) VALUES (?, ?, ?, ?, ?, ?)`

	_, err := db.ExecContext(ctx, insert, "t1", "q1", "m1", 1, "waiting", 0)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, insert, "t2", "q1", "m1", 2, "waiting", 0)
	require.Error(t, err, "second waiting ticket for the same member must fail")
	require.True(t, isUniqueViolation(err))

	_, err = db.ExecContext(ctx, insert, "t3", "missing", "m1", 1, "waiting", 0)
	require.Error(t, err)
	require.True(t, isForeignKeyViolation(err))

	_, err = db.ExecContext(ctx, insert, "t4", "q1", "m1", 0, "served", 0)
	require.Error(t, err, "position must be positive")

	_, err = db.ExecContext(ctx, insert, "t5", "q1", "m1", 1, "gone", 0)
	require.Error(t, err, "status must be known")
}

func TestNew_RequiresPath(t *testing.T) {
	_, err := New(" ")
	require.Error(t, err)
}

func TestUpSection(t *testing.T) {
	content := "-- +migrate Up\nCREATE TABLE a (id TEXT);\n-- +migrate Down\nDROP TABLE a;\n"
	require.Equal(t, "\nCREATE TABLE a (id TEXT);\n", upSection(content))
	require.Equal(t, "SELECT 1;", upSection("SELECT 1;"))
}

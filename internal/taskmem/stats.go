package taskmem

import (
	"crypto/md5"
	"database/sql"
	"embed"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// StatsStore is a small per-workspace sqlite database tracking command and
// edit counts across sessions — an ambient observability addition beyond
// the plain-text memory file, migrated with a schema_migrations table
// against go:embed'd *.sql files.
type StatsStore struct {
	db *sql.DB
}

// statsDBPath keys the stats db the way memory files are keyed by task
// id, but for a workspace: basename of the workspace path plus an md5 of
// its absolute path, so two workspaces sharing a basename never collide.
func statsDBPath(workspaceAbsPath string) string {
	sum := md5.Sum([]byte(workspaceAbsPath))
	name := fmt.Sprintf("%s_%s.db", filepath.Base(workspaceAbsPath), hex.EncodeToString(sum[:]))
	return filepath.Join(DataDir(), "workspace_stats", name)
}

// OpenStatsStore opens (creating if needed) the stats db for
// workspaceAbsPath, applying any pending migrations.
func OpenStatsStore(workspaceAbsPath string) (*StatsStore, error) {
	path := statsDBPath(workspaceAbsPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create stats dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open stats db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &StatsStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate stats db: %w", err)
	}
	if _, err := db.Exec(`INSERT INTO workspace_stats(path) VALUES (?) ON CONFLICT(path) DO NOTHING`, workspaceAbsPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("seed workspace row: %w", err)
	}
	return s, nil
}

func (s *StatsStore) Close() error { return s.db.Close() }

func (s *StatsStore) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, f := range files {
		var applied int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_migrations WHERE version = ?", f).Scan(&applied); err != nil {
			return fmt.Errorf("check migration %s: %w", f, err)
		}
		if applied > 0 {
			continue
		}
		content, err := migrationsFS.ReadFile("migrations/" + f)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", f, err)
		}
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin tx for %s: %w", f, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration %s: %w", f, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations(version) VALUES (?)", f); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %s: %w", f, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", f, err)
		}
	}
	return nil
}

// RecordCommand increments the workspace's run-command counter.
func (s *StatsStore) RecordCommand(workspaceAbsPath, threadID string) error {
	_, err := s.db.Exec(`UPDATE workspace_stats SET commands_run = commands_run + 1, last_thread_id = ?, updated_at = CURRENT_TIMESTAMP WHERE path = ?`, threadID, workspaceAbsPath)
	return err
}

// RecordEdit increments the workspace's files-edited counter.
func (s *StatsStore) RecordEdit(workspaceAbsPath string) error {
	_, err := s.db.Exec(`UPDATE workspace_stats SET files_edited = files_edited + 1, updated_at = CURRENT_TIMESTAMP WHERE path = ?`, workspaceAbsPath)
	return err
}

// RecordWrite increments the workspace's files-written counter.
func (s *StatsStore) RecordWrite(workspaceAbsPath string) error {
	_, err := s.db.Exec(`UPDATE workspace_stats SET files_written = files_written + 1, updated_at = CURRENT_TIMESTAMP WHERE path = ?`, workspaceAbsPath)
	return err
}

// Stats is a snapshot of one workspace's counters.
type Stats struct {
	CommandsRun  int
	FilesEdited  int
	FilesWritten int
}

// Get returns the current counters for workspaceAbsPath.
func (s *StatsStore) Get(workspaceAbsPath string) (Stats, error) {
	var st Stats
	err := s.db.QueryRow(`SELECT commands_run, files_edited, files_written FROM workspace_stats WHERE path = ?`, workspaceAbsPath).
		Scan(&st.CommandsRun, &st.FilesEdited, &st.FilesWritten)
	return st, err
}

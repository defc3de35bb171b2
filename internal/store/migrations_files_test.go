package store

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"testing"
)

func migrationFiles(t *testing.T) []string {
	t.Helper()
	migrationsDir := filepath.Join("..", "..", "db", "migrations")
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		files = append(files, filepath.Join(migrationsDir, entry.Name()))
	}
	if len(files) == 0 {
		t.Fatal("no migrations discovered")
	}
	return files
}

func TestMigrationFilenamesAreOrderedUpMigrations(t *testing.T) {
	pattern := regexp.MustCompile(`^(\d{4})_[a-z0-9_]+\.up\.sql$`)
	seen := map[string]bool{}

	files := migrationFiles(t)
	if !sort.StringsAreSorted(files) {
		t.Fatal("migrations must apply in lexical order")
	}
	for _, file := range files {
		name := filepath.Base(file)
		match := pattern.FindStringSubmatch(name)
		if match == nil {
			t.Fatalf("migration %q does not follow NNNN_name.up.sql", name)
		}
		if seen[match[1]] {
			t.Fatalf("duplicate migration version %s", match[1])
		}
		seen[match[1]] = true
	}
}

func TestInitMigrationCreatesCoreTables(t *testing.T) {
	contents, err := os.ReadFile(filepath.Join("..", "..", "db", "migrations", "0001_init.up.sql"))
	if err != nil {
		t.Fatalf("read init migration: %v", err)
	}
	schema := string(contents)

	tables := []string{
		"users",
		"refresh_sessions",
		"password_resets",
		"revoked_tokens",
		"cases",
		"case_documents",
		"messages",
		"spotlight_posts",
		"access_requests",
		"case_access",
		"deployments",
	}
	for _, table := range tables {
		if !strings.Contains(schema, "CREATE TABLE IF NOT EXISTS "+table+" (") {
			t.Errorf("init migration missing table %s", table)
		}
	}

	// Postgres full-text search backs the fallback search path.
	if !strings.Contains(schema, "USING GIN (fts)") {
		t.Error("init migration missing full-text indexes")
	}
}

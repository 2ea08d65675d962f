package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseFilename(t *testing.T) {
	tests := []struct {
		filename string
		valid    bool
		version  int
		name     string
	}{
		{"0001_create_transactions.sql", true, 1, "create_transactions"},
		{"0012_add_index.sql", true, 12, "add_index"},
		{"001_invalid.sql", false, 0, ""},      // wrong number format
		{"0001_test", false, 0, ""},            // missing .sql
		{"0001.sql", false, 0, ""},             // missing name
		{"invalid_0001_test.sql", false, 0, ""}, // wrong order
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			version, name, ok := parseFilename(tt.filename)
			if ok != tt.valid {
				t.Fatalf("parseFilename(%q) ok = %v, want %v", tt.filename, ok, tt.valid)
			}
			if version != tt.version || name != tt.name {
				t.Errorf("parseFilename(%q) = (%d, %q), want (%d, %q)", tt.filename, version, name, tt.version, tt.name)
			}
		})
	}
}

func writeMigrations(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestReadMigrations(t *testing.T) {
	dir := writeMigrations(t, map[string]string{
		"0002_reports.sql":      "CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.fraud_reports` (x INT64);",
		"0001_transactions.sql": "CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.transactions` (x INT64);",
		"README.md":             "not a migration",
	})

	migrations, err := readMigrations(dir, "acme", "fraud")
	if err != nil {
		t.Fatalf("readMigrations() error = %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("got %d migrations, want 2", len(migrations))
	}
	if migrations[0].Version != 1 || migrations[1].Version != 2 {
		t.Errorf("migrations not sorted by version: %d, %d", migrations[0].Version, migrations[1].Version)
	}
	if !strings.Contains(migrations[0].SQL, "`acme.fraud.transactions`") {
		t.Errorf("placeholders not substituted: %s", migrations[0].SQL)
	}

	// The checksum ignores the target dataset.
	other, err := readMigrations(dir, "other", "staging")
	if err != nil {
		t.Fatal(err)
	}
	if other[0].Checksum != migrations[0].Checksum {
		t.Error("checksum depends on project or dataset")
	}
	if migrations[0].Checksum == migrations[1].Checksum {
		t.Error("different files share a checksum")
	}
}

func TestReadMigrations_DuplicateVersion(t *testing.T) {
	dir := writeMigrations(t, map[string]string{
		"0001_a.sql": "SELECT 1;",
		"0001_b.sql": "SELECT 2;",
	})
	if _, err := readMigrations(dir, "p", "d"); err == nil {
		t.Error("expected duplicate version error")
	}
}

func TestPendingAndDrift(t *testing.T) {
	all := []Migration{
		{Version: 1, Name: "transactions", Checksum: "aaa"},
		{Version: 2, Name: "reports", Checksum: "bbb"},
		{Version: 3, Name: "knowledge", Checksum: "ccc"},
	}
	applied := []AppliedMigration{
		{Version: 1, Checksum: "aaa"},
		{Version: 2, Checksum: "changed"},
	}

	pending := pendingMigrations(all, applied)
	if len(pending) != 1 || pending[0].Version != 3 {
		t.Errorf("pendingMigrations() = %+v, want only version 3", pending)
	}

	drift := checksumDrift(all, applied)
	if len(drift) != 1 || drift[0].Version != 2 {
		t.Errorf("checksumDrift() = %+v, want only version 2", drift)
	}
}

func TestRepositoryMigrationsParse(t *testing.T) {
	dir, err := findMigrationsDir("migrations/bigquery")
	if err != nil {
		t.Skip("migrations directory not reachable from test working directory")
	}
	migrations, err := readMigrations(dir, "p", "d")
	if err != nil {
		t.Fatal(err)
	}
	for i, m := range migrations {
		if m.Version != i+1 {
			t.Errorf("migration %s has version %d, want %d", m.Filename, m.Version, i+1)
		}
		if strings.Contains(m.SQL, "{{") {
			t.Errorf("migration %s has unsubstituted placeholders", m.Filename)
		}
	}
}

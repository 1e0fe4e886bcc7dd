package memory_test

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

func TestSQLiteSmokeTest(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "smoke.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	defer db.Close()

	// Enable WAL mode
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		t.Fatalf("failed to enable WAL mode: %v", err)
	}

	// Verify WAL mode is active
	var mode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("failed to query journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Fatalf("expected WAL mode, got %q", mode)
	}
}

func TestSQLiteBlobRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "blob.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE vectors (id TEXT PRIMARY KEY, data BLOB)`); err != nil {
		t.Fatalf("failed to create table: %v", err)
	}

	want := []byte{0x00, 0x01, 0xfe, 0xff, 0x80, 0x3f}
	if _, err := db.Exec(`INSERT INTO vectors (id, data) VALUES (?, ?)`, "v1", want); err != nil {
		t.Fatalf("failed to insert blob: %v", err)
	}

	var got []byte
	if err := db.QueryRow(`SELECT data FROM vectors WHERE id = ?`, "v1").Scan(&got); err != nil {
		t.Fatalf("failed to read blob: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("blob length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("blob[%d] = %#x, want %#x", i, got[i], want[i])
		}
	}
}

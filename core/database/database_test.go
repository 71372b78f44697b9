package database

import (
	"testing"
	"testing/fstest"
)

func TestConfigURL(t *testing.T) {
	cfg := Config{Host: "db", Port: "5432", User: "bot", Password: "p@ss", Name: "gamebot"}
	want := "postgres://bot:p%40ss@db:5432/gamebot?sslmode=disable"
	if got := cfg.URL(); got != want {
		t.Fatalf("URL() = %q, want %q", got, want)
	}
	if got := cfg.DSN(); got != "user=bot password=p@ss host=db port=5432 dbname=gamebot sslmode=disable" {
		t.Fatalf("DSN() = %q", got)
	}
}

func TestListAndSelectApplied(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/0002_index.up.sql":      {Data: []byte("")},
		"migrations/0001_sessions.up.sql":   {Data: []byte("")},
		"migrations/0001_sessions.down.sql": {Data: []byte("")},
	}
	files := listMigrationFiles(fsys, "migrations")
	if len(files) != 2 || files[0] != "0001_sessions.up.sql" {
		t.Fatalf("unexpected files: %v", files)
	}
	if got := selectApplied(files, 1, 2); len(got) != 1 || got[0] != "0002_index.up.sql" {
		t.Fatalf("selectApplied = %v", got)
	}
	if got := selectApplied(files, 2, 2); got != nil {
		t.Fatalf("expected nothing applied, got %v", got)
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("got port %d, want 3000", cfg.Server.Port)
	}
	if cfg.Postgres.Database != "golfdraft" {
		t.Errorf("got database %q, want golfdraft", cfg.Postgres.Database)
	}
	if cfg.Tourney.Rounds != 4 {
		t.Errorf("got rounds %d, want 4", cfg.Tourney.Rounds)
	}
}

func TestLoadFile(t *testing.T) {
	raw := `
server:
  port: 8080
postgres:
  host: db.internal
  database: draft
nats:
  enabled: true
  url: nats://broker:4222
tourney:
  name: The Open
  rounds: 3
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("got port %d, want 8080", cfg.Server.Port)
	}
	if cfg.Postgres.Host != "db.internal" {
		t.Errorf("got host %q", cfg.Postgres.Host)
	}
	if !cfg.NATS.Enabled {
		t.Error("NATS not enabled")
	}
	if cfg.Tourney.Name != "The Open" || cfg.Tourney.Rounds != 3 {
		t.Errorf("got tourney %+v", cfg.Tourney)
	}
	// Unset fields still pick up defaults.
	if cfg.Server.WriteTimeout != 15*time.Second {
		t.Errorf("got write timeout %s, want default 15s", cfg.Server.WriteTimeout)
	}
}

func TestPostgresDSN(t *testing.T) {
	cfg := PostgresConfig{
		Host: "localhost", Port: 5432, User: "u", Password: "p", Database: "d",
	}
	want := "postgres://u:p@localhost:5432/d?sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

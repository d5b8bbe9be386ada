// cliparse/cliparse_test.go
package cliparse

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseFlags_Defaults(t *testing.T) {
	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 3318 {
		t.Errorf("expected port 3318, got %d", cfg.Port)
	}
	if cfg.Backend != BackendEth {
		t.Errorf("expected eth backend, got %s", cfg.Backend)
	}
	if cfg.ChainID != 137 {
		t.Errorf("expected chain 137, got %d", cfg.ChainID)
	}
	if cfg.Highlight != 1200*time.Millisecond {
		t.Errorf("expected 1.2s highlight, got %s", cfg.Highlight)
	}
}

func TestParseFlags_EnvVars(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("LEDGER_BACKEND", "sqlite")
	t.Setenv("DATABASE_URL", "file:test.db")
	t.Setenv("VOTE_HIGHLIGHT", "2s")

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.Backend != BackendSQLite || cfg.DatabaseURL != "file:test.db" {
		t.Errorf("unexpected backend config: %+v", cfg)
	}
	if cfg.Highlight != 2*time.Second {
		t.Errorf("expected 2s highlight, got %s", cfg.Highlight)
	}
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	t.Setenv("PORT", "9000")

	cfg, err := ParseFlags([]string{"-p", "8080", "--backend", "sqlite", "-d", "file:cli.db"})
	if err != nil {
		t.Fatal(err)
	}

	// CLI should override env
	if cfg.Port != 8080 {
		t.Errorf("CLI should override env: expected 8080, got %d", cfg.Port)
	}
	if cfg.DatabaseURL != "file:cli.db" {
		t.Errorf("expected file:cli.db, got %s", cfg.DatabaseURL)
	}
}

func TestParseFlags_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voteledger.toml")
	data := `
port = 4000

[ledger]
backend = "postgres"
database_url = "postgres://localhost/voteledger"

[ui]
highlight = "500ms"
visit_ttl = "5m"

[logging]
format = "json"
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PORT", "4100")

	cfg, err := ParseFlags([]string{"-c", path})
	if err != nil {
		t.Fatal(err)
	}

	// env beats file
	if cfg.Port != 4100 {
		t.Errorf("expected port 4100, got %d", cfg.Port)
	}
	if cfg.Backend != BackendPostgres {
		t.Errorf("expected postgres backend, got %s", cfg.Backend)
	}
	if cfg.Highlight != 500*time.Millisecond || cfg.VisitTTL != 5*time.Minute {
		t.Errorf("unexpected durations: %s %s", cfg.Highlight, cfg.VisitTTL)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("expected json log format, got %s", cfg.LogFormat)
	}
}

func TestParseFlags_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
		env  map[string]string
	}{
		{"unknown backend", []string{"--backend", "mongo"}, nil},
		{"bad contract", []string{"--contract", "0x123"}, nil},
		{"postgres without url", []string{"--backend", "postgres"}, nil},
		{"key and keystore", []string{"--wallet-key", "ab", "--keystore", "/tmp/ks"}, nil},
		{"bad log level", []string{"--log-level", "loud"}, nil},
		{"bad port env", nil, map[string]string{"PORT": "abc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := ParseFlags(tt.args); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := LoadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("missing file should be ignored: %v", err)
	}

	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("VOTELEDGER_DOTENV_TEST=yes\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("VOTELEDGER_DOTENV_TEST") })

	if err := LoadDotEnv(path); err != nil {
		t.Fatal(err)
	}
	if os.Getenv("VOTELEDGER_DOTENV_TEST") != "yes" {
		t.Error("expected variable from .env")
	}
}

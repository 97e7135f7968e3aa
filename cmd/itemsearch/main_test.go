package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRootCommand_Subcommands(t *testing.T) {
	want := map[string]bool{"serve": false, "regenerate": false, "migrate": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestBootstrap_ExplicitConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	yml := `
http:
  port: 8081
database:
  driver: postgres
  dsn: postgres://localhost/itemsearch
embedding:
  api_key: sk-test
auth:
  jwt_secret: secret
`
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}

	prevPath, prevEnv := configPath, envName
	t.Cleanup(func() { configPath, envName = prevPath, prevEnv })
	configPath, envName = path, "test"

	cfg, logger, err := bootstrap()
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if logger == nil {
		t.Fatal("logger is nil")
	}
	if cfg.HTTP.Port != 8081 || cfg.Regen.BatchSize != 5 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestBootstrap_MissingConfig(t *testing.T) {
	prevPath := configPath
	t.Cleanup(func() { configPath = prevPath })
	configPath = filepath.Join(t.TempDir(), "absent.yaml")

	_, _, err := bootstrap()
	if err == nil || !strings.Contains(err.Error(), "load config") {
		t.Errorf("expected load config error, got %v", err)
	}
}

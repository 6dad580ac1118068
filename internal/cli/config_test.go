package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigSaveAndLoad(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	cfg := CLIConfig{
		ServerURL: "http://myhost:9090",
		Token:     "eyJhbGciOiJIUzI1NiJ9.test",
		Email:     "awa@example.ci",
	}

	if err := saveConfig(cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	path := filepath.Join(tmp, ".config", "betna", "config.yaml")
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("config file not found: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("config mode = %v, want 0600", info.Mode().Perm())
	}

	loaded, err := loadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded != cfg {
		t.Errorf("loaded = %+v, want %+v", loaded, cfg)
	}
}

func TestConfigLoadMissing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("load missing: %v", err)
	}
	if cfg != (CLIConfig{}) {
		t.Error("expected zero-value config for missing file")
	}
}

func TestConfigLoadCorrupt(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	dir := filepath.Join(tmp, ".config", "betna")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("token: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := loadConfig(); err == nil {
		t.Error("expected parse error")
	}
}

func TestGetServerURLFromEnv(t *testing.T) {
	t.Setenv("BETNA_SERVER_URL", "http://custom:1234")
	t.Setenv("HOME", t.TempDir())

	if url := getServerURL(); url != "http://custom:1234" {
		t.Errorf("url = %q, want %q", url, "http://custom:1234")
	}
}

func TestGetServerURLFromConfig(t *testing.T) {
	t.Setenv("BETNA_SERVER_URL", "")
	t.Setenv("HOME", t.TempDir())

	if err := saveConfig(CLIConfig{ServerURL: "https://api.betna.ci"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if url := getServerURL(); url != "https://api.betna.ci" {
		t.Errorf("url = %q, want config value", url)
	}
}

func TestGetServerURLDefault(t *testing.T) {
	t.Setenv("BETNA_SERVER_URL", "")
	t.Setenv("HOME", t.TempDir())

	if url := getServerURL(); url != "http://localhost:8080" {
		t.Errorf("url = %q, want %q", url, "http://localhost:8080")
	}
}

func TestGetTokenFromEnv(t *testing.T) {
	t.Setenv("BETNA_TOKEN", "envtoken")
	t.Setenv("HOME", t.TempDir())

	if tok := getToken(); tok != "envtoken" {
		t.Errorf("token = %q, want %q", tok, "envtoken")
	}
}

func TestGetTokenFromConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("BETNA_TOKEN", "")

	if err := saveConfig(CLIConfig{Token: "configtoken"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if tok := getToken(); tok != "configtoken" {
		t.Errorf("token = %q, want %q", tok, "configtoken")
	}
}

func TestGetTokenEmpty(t *testing.T) {
	t.Setenv("BETNA_TOKEN", "")
	t.Setenv("HOME", t.TempDir())

	if tok := getToken(); tok != "" {
		t.Errorf("token = %q, want empty", tok)
	}
}

func TestStoreSessionKeepsServer(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if err := saveConfig(CLIConfig{ServerURL: "http://myhost:9090", Token: "old"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := storeSession("", "new", "awa@example.ci"); err != nil {
		t.Fatalf("storeSession: %v", err)
	}

	loaded, err := loadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := CLIConfig{ServerURL: "http://myhost:9090", Token: "new", Email: "awa@example.ci"}
	if loaded != want {
		t.Errorf("loaded = %+v, want %+v", loaded, want)
	}

	if err := storeSession("http://other:1", "newer", "awa@example.ci"); err != nil {
		t.Fatalf("storeSession: %v", err)
	}
	loaded, _ = loadConfig()
	if loaded.ServerURL != "http://other:1" {
		t.Errorf("server_url = %q, want flag value", loaded.ServerURL)
	}
}

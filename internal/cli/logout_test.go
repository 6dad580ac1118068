package cli

import "testing"

func TestLogoutClearsToken(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg := CLIConfig{Token: "sometoken", Email: "awa@example.ci", ServerURL: "http://myhost:9090"}
	if err := saveConfig(cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := runLogout(); err != nil {
		t.Fatalf("logout: %v", err)
	}

	loaded, err := loadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Token != "" || loaded.Email != "" {
		t.Errorf("token = %q email = %q, want both empty after logout", loaded.Token, loaded.Email)
	}
	if loaded.ServerURL != "http://myhost:9090" {
		t.Errorf("server_url = %q, want preserved after logout", loaded.ServerURL)
	}
}

func TestLogoutWhenNotLoggedIn(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if err := runLogout(); err != nil {
		t.Fatalf("logout with no config: %v", err)
	}
}

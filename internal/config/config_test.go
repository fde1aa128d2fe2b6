package config

import (
	"strings"
	"testing"
	"time"
)

// clearEnv はテスト対象の環境変数を空にする。t.Setenvにより終了時に元に戻る。
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"STORE_DRIVER", "DATABASE_URL", "MONGO_URL", "SEED_ON_START",
		"ADMIN_EMAIL", "GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET", "GOOGLE_REDIRECT_URL",
		"SESSION_MAX_AGE", "IMPORT_TIMEOUT", "IMPORT_MAX_SIZE", "LOG_LEVEL",
		"SERVER_PORT", "BASE_URL", "SITE_URL", "COOKIE_DOMAIN", "CORS_ALLOWED_ORIGIN",
	} {
		t.Setenv(key, "")
	}
}

func setOAuthEnvVars(t *testing.T) {
	t.Helper()
	t.Setenv("ADMIN_EMAIL", "  Owner@Example.com ")
	t.Setenv("GOOGLE_CLIENT_ID", "test-client-id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "test-client-secret")
	t.Setenv("GOOGLE_REDIRECT_URL", "http://localhost:8080/auth/google/callback")
}

func TestLoad_DefaultValues(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.StoreDriver != StoreDriverPostgres {
		t.Errorf("StoreDriver = %q, want %q", cfg.StoreDriver, StoreDriverPostgres)
	}
	if cfg.StoreURL() != "" {
		t.Errorf("StoreURL() = %q, want empty (store unconfigured)", cfg.StoreURL())
	}
	if !cfg.SeedOnStart {
		t.Error("SeedOnStart should default to true")
	}
	if cfg.AdminEmail != "" || cfg.OAuthEnabled() {
		t.Error("admin login should be disabled by default")
	}
	if cfg.SessionMaxAge != 86400 {
		t.Errorf("SessionMaxAge = %d, want %d", cfg.SessionMaxAge, 86400)
	}
	if cfg.ImportTimeout != 10*time.Second {
		t.Errorf("ImportTimeout = %v, want %v", cfg.ImportTimeout, 10*time.Second)
	}
	if cfg.ImportMaxSize != 5242880 {
		t.Errorf("ImportMaxSize = %d, want %d", cfg.ImportMaxSize, 5242880)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want %q", cfg.ServerPort, "8080")
	}
	if cfg.BaseURL != "http://localhost:8080" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.SiteURL != cfg.BaseURL {
		t.Errorf("SiteURL = %q, want BaseURL", cfg.SiteURL)
	}
	if cfg.CookieSecure {
		t.Error("CookieSecure should be false for http BaseURL")
	}
	if cfg.CORSAllowedOrigin != "http://localhost:3000" {
		t.Errorf("CORSAllowedOrigin = %q, want %q", cfg.CORSAllowedOrigin, "http://localhost:3000")
	}
}

func TestLoad_StoreDriver(t *testing.T) {
	tests := []struct {
		name    string
		driver  string
		wantURL string
		wantErr bool
	}{
		{"postgres", "postgres", "postgres://db", false},
		{"mongo upper case", "MONGO", "mongodb://db", false},
		{"unknown", "sqlite", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("STORE_DRIVER", tt.driver)
			t.Setenv("DATABASE_URL", "postgres://db")
			t.Setenv("MONGO_URL", "mongodb://db")

			cfg, err := Load()
			if tt.wantErr {
				if err == nil || !strings.Contains(err.Error(), "STORE_DRIVER") {
					t.Fatalf("expected STORE_DRIVER error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.StoreURL() != tt.wantURL {
				t.Errorf("StoreURL() = %q, want %q", cfg.StoreURL(), tt.wantURL)
			}
		})
	}
}

func TestLoad_AdminEmailNormalizedAndOAuthEnabled(t *testing.T) {
	clearEnv(t)
	setOAuthEnvVars(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AdminEmail != "owner@example.com" {
		t.Errorf("AdminEmail = %q, want trimmed lower-case", cfg.AdminEmail)
	}
	if !cfg.OAuthEnabled() {
		t.Error("OAuthEnabled() should be true")
	}
}

func TestLoad_AdminEmailRequiresOAuth(t *testing.T) {
	clearEnv(t)
	t.Setenv("ADMIN_EMAIL", "owner@example.com")
	t.Setenv("GOOGLE_CLIENT_ID", "id")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when OAuth settings are incomplete")
	}
	for _, key := range []string{"GOOGLE_CLIENT_SECRET", "GOOGLE_REDIRECT_URL"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error %q should mention %s", err.Error(), key)
		}
	}
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("SEED_ON_START", "false")
	t.Setenv("SESSION_MAX_AGE", "3600")
	t.Setenv("IMPORT_TIMEOUT", "30s")
	t.Setenv("IMPORT_MAX_SIZE", "1024")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("BASE_URL", "https://portfolio.example.com/")
	t.Setenv("SITE_URL", "https://www.example.com")
	t.Setenv("COOKIE_DOMAIN", ".example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SeedOnStart {
		t.Error("SeedOnStart should be false")
	}
	if cfg.SessionMaxAge != 3600 || cfg.ImportTimeout != 30*time.Second || cfg.ImportMaxSize != 1024 {
		t.Errorf("numeric settings = %d %v %d", cfg.SessionMaxAge, cfg.ImportTimeout, cfg.ImportMaxSize)
	}
	if cfg.ServerPort != "9090" {
		t.Errorf("ServerPort = %q", cfg.ServerPort)
	}
	if cfg.BaseURL != "https://portfolio.example.com" {
		t.Errorf("BaseURL = %q, want trailing slash trimmed", cfg.BaseURL)
	}
	if !cfg.CookieSecure {
		t.Error("CookieSecure should be true for https BaseURL")
	}
	if cfg.SiteURL != "https://www.example.com" {
		t.Errorf("SiteURL = %q", cfg.SiteURL)
	}
	if cfg.CookieDomain != ".example.com" {
		t.Errorf("CookieDomain = %q", cfg.CookieDomain)
	}
}

func TestLoad_InvalidValuesFallBackToDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("SEED_ON_START", "sometimes")
	t.Setenv("SESSION_MAX_AGE", "abc")
	t.Setenv("IMPORT_TIMEOUT", "soon")
	t.Setenv("IMPORT_MAX_SIZE", "big")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.SeedOnStart {
		t.Error("SeedOnStart should fall back to true")
	}
	if cfg.SessionMaxAge != 86400 {
		t.Errorf("SessionMaxAge = %d, want 86400", cfg.SessionMaxAge)
	}
	if cfg.ImportTimeout != 10*time.Second {
		t.Errorf("ImportTimeout = %v, want 10s", cfg.ImportTimeout)
	}
	if cfg.ImportMaxSize != 5242880 {
		t.Errorf("ImportMaxSize = %d, want 5242880", cfg.ImportMaxSize)
	}
}

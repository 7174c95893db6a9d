package config

import (
	"os"
	"testing"
	"time"
)

// chdirTemp keeps Load from picking up a developer's .env file.
func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.Port)
	}
	if cfg.StoreBackend != BackendMemory {
		t.Errorf("expected memory backend, got %s", cfg.StoreBackend)
	}
	if cfg.JWTTTL != 24*time.Hour {
		t.Errorf("expected 24h ttl, got %s", cfg.JWTTTL)
	}
	if len(cfg.CORSOrigins) != 1 {
		t.Errorf("expected one default origin, got %v", cfg.CORSOrigins)
	}
	if !cfg.IsDev() {
		t.Error("expected development by default")
	}
}

func TestLoad_FromEnv(t *testing.T) {
	chdirTemp(t)
	clearEnv(t)
	t.Setenv("ENV", "production")
	t.Setenv("API_PORT", "9000")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("STORE_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/medconnect")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9000" || cfg.JWTSecret != "s3cret" || cfg.JWTTTL != 2*time.Hour {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Errorf("unexpected origins: %v", cfg.CORSOrigins)
	}
}

func TestLoad_Validation(t *testing.T) {
	cases := []map[string]string{
		{"ENV": "production"},
		{"STORE_BACKEND": "mongo"},
		{"STORE_BACKEND": "postgres"},
		{"STORE_BACKEND": "redis"},
	}
	for i, env := range cases {
		chdirTemp(t)
		clearEnv(t)
		for k, v := range env {
			t.Setenv(k, v)
		}
		if _, err := Load(); err == nil {
			t.Errorf("case %d: expected an error for %v", i, env)
		}
	}
}

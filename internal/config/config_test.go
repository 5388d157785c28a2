package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Port)
	}
	if cfg.Client.FilterDebounce != 300*time.Millisecond {
		t.Errorf("expected 300ms debounce, got %s", cfg.Client.FilterDebounce)
	}
	if !cfg.IsDevelopment() {
		t.Error("expected development mode by default")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("FILTER_DEBOUNCE", "50ms")
	t.Setenv("QOLLECT_API_URL", "http://api.internal/api/v1")
	t.Setenv("ENV", "production")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Port)
	}
	if cfg.Client.FilterDebounce != 50*time.Millisecond {
		t.Errorf("expected 50ms debounce, got %s", cfg.Client.FilterDebounce)
	}
	if cfg.Client.APIURL != "http://api.internal/api/v1" {
		t.Errorf("unexpected api url %q", cfg.Client.APIURL)
	}
	if cfg.IsDevelopment() {
		t.Error("expected production mode")
	}
}

func TestLoad_InvalidIntFallsBackToDefault(t *testing.T) {
	t.Setenv("PORT", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("expected fallback port 8080, got %d", cfg.Port)
	}
}

func TestLoad_RejectsShortBootstrapKey(t *testing.T) {
	t.Setenv("BOOTSTRAP_ADMIN_KEY", "short")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for short bootstrap key")
	}
}

func TestLoad_RejectsNegativeDebounce(t *testing.T) {
	t.Setenv("FILTER_DEBOUNCE", "-1s")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for negative debounce")
	}
}

func TestDSN_AppendsDefaultPort(t *testing.T) {
	d := DatabaseConfig{Host: "mydb", User: "u", Password: "p@ss", Name: "qollect"}
	dsn := d.DSN()
	if !strings.Contains(dsn, "tcp(mydb:3306)") {
		t.Errorf("expected default port in DSN, got %q", dsn)
	}
	if !strings.Contains(dsn, "parseTime=true") {
		t.Errorf("expected parseTime in DSN, got %q", dsn)
	}
}

func TestDSN_OverrideWins(t *testing.T) {
	d := DatabaseConfig{Host: "mydb", dsnOverride: "root:root@tcp(db:3306)/x"}
	if got := d.DSN(); got != "root:root@tcp(db:3306)/x" {
		t.Errorf("expected override DSN, got %q", got)
	}
}

func TestLoad_TrustedProxiesList(t *testing.T) {
	t.Setenv("TRUSTED_PROXIES", "10.1.0.0/16, ,192.168.1.0/24")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.TrustedProxies) != 2 || cfg.TrustedProxies[1] != "192.168.1.0/24" {
		t.Errorf("unexpected proxies %v", cfg.TrustedProxies)
	}
}

func TestLoad_RejectsZeroRateLimit(t *testing.T) {
	t.Setenv("RATE_LIMIT_PER_MINUTE", "0")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for zero rate limit")
	}
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		level, env string
		want       slog.Level
	}{
		{"warn", "production", slog.LevelWarn},
		{"ERROR", "production", slog.LevelError},
		{"", "development", slog.LevelDebug},
		{"verbose", "production", slog.LevelInfo},
	}
	for _, tt := range tests {
		c := &Config{LogLevel: tt.level, Env: tt.env}
		if got := c.SlogLevel(); got != tt.want {
			t.Errorf("SlogLevel(%q, %q) = %v, want %v", tt.level, tt.env, got, tt.want)
		}
	}
}

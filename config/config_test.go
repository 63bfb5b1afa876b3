package config_test

import (
	"testing"

	"github.com/brightroom/brightroom/config"
)

func TestDefaultIsValid(t *testing.T) {
	if err := config.Validate(config.Default()); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BRIGHTROOM_ADDR", ":8080")
	t.Setenv("BRIGHTROOM_BACKEND", "vips")
	t.Setenv("BRIGHTROOM_QUALITY", "70")
	t.Setenv("BRIGHTROOM_MAX_UPLOAD_BYTES", "1048576")
	t.Setenv("BRIGHTROOM_LOG_LEVEL", "debug")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q, want :8080", cfg.Addr)
	}
	if cfg.Backend != config.BackendVips {
		t.Errorf("Backend = %q, want vips", cfg.Backend)
	}
	if cfg.Quality != 70 {
		t.Errorf("Quality = %d, want 70", cfg.Quality)
	}
	if cfg.MaxUploadBytes != 1048576 {
		t.Errorf("MaxUploadBytes = %d, want 1 MiB", cfg.MaxUploadBytes)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
}

func TestLoad_BadQuality(t *testing.T) {
	t.Setenv("BRIGHTROOM_QUALITY", "not-a-number")
	if _, err := config.Load(); err == nil {
		t.Fatal("expected error for malformed quality")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"zero quality", func(c *config.Config) { c.Quality = 0 }},
		{"quality above range", func(c *config.Config) { c.Quality = 101 }},
		{"non-positive upload limit", func(c *config.Config) { c.MaxUploadBytes = 0 }},
		{"unknown backend", func(c *config.Config) { c.Backend = "imagemagick" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			if err := config.Validate(cfg); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

// Package config holds the service configuration.
package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Backend selects the image processing backend.
type Backend string

const (
	BackendNative Backend = "native"
	BackendVips   Backend = "vips"
)

// Config is the top-level configuration struct.  All fields have safe
// defaults so callers can start with Default() and override only what they
// need.
type Config struct {
	// HTTP listen address, e.g. ":3000".
	Addr string

	// Directory uploaded and enhanced assets are written to, also served
	// under /uploads.
	UploadDir string

	// Directory holding the users and history collections.
	DataDir string

	// Image processing backend.
	Backend Backend

	// Default encode quality (1-100) for lossy formats.
	Quality int

	// Authoritative upload size limit in bytes.
	MaxUploadBytes int64

	// Logging: "debug", "info", "warn", "error".
	LogLevel string
}

// MaxUploadBytesDefault is the 50 MiB upload cap, enforced advisorially at
// the HTTP layer and authoritatively on receipt.
const MaxUploadBytesDefault = 50 * 1024 * 1024

// Default returns a Config populated with sensible production defaults.
func Default() Config {
	return Config{
		Addr:           ":3000",
		UploadDir:      "public/uploads",
		DataDir:        "database",
		Backend:        BackendNative,
		Quality:        85,
		MaxUploadBytes: MaxUploadBytesDefault,
		LogLevel:       "info",
	}
}

// Load builds a Config from the environment, reading an optional .env file
// first (ignored when absent).
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if v := os.Getenv("BRIGHTROOM_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("BRIGHTROOM_UPLOAD_DIR"); v != "" {
		cfg.UploadDir = v
	}
	if v := os.Getenv("BRIGHTROOM_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("BRIGHTROOM_BACKEND"); v != "" {
		cfg.Backend = Backend(v)
	}
	if v := os.Getenv("BRIGHTROOM_QUALITY"); v != "" {
		q, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, errors.New("config: BRIGHTROOM_QUALITY must be an integer")
		}
		cfg.Quality = q
	}
	if v := os.Getenv("BRIGHTROOM_MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Config{}, errors.New("config: BRIGHTROOM_MAX_UPLOAD_BYTES must be an integer")
		}
		cfg.MaxUploadBytes = n
	}
	if v := os.Getenv("BRIGHTROOM_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	return cfg, Validate(cfg)
}

// Validate returns an error if the configuration is inconsistent.
func Validate(c Config) error {
	if c.Quality < 1 || c.Quality > 100 {
		return errors.New("config: Quality must be between 1 and 100")
	}
	if c.MaxUploadBytes <= 0 {
		return errors.New("config: MaxUploadBytes must be positive")
	}
	if c.Backend != BackendNative && c.Backend != BackendVips {
		return errors.New("config: Backend must be native or vips")
	}
	return nil
}

// Package config loads process-wide settings from the environment.
// A .env file in the working directory is honored when present.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/sdrao/facemark/internal/recognize"
)

// Defaults tuned for reasonably lit classroom photos.
const (
	DefaultTolerance     = 0.4
	DefaultReqConsec     = 3
	DefaultProcessEveryN = 2
	DefaultGraceFrames   = 15
	DefaultCameraID      = 0
	DefaultAddr          = ":8080"
	DefaultFPS           = 15
)

// Config holds every tunable consumed at startup. Values are immutable
// for the duration of a session.
type Config struct {
	// Recognition engine tunables.
	Tolerance     float64
	ReqConsec     int
	ProcessEveryN int
	GraceFrames   int

	// I/O collaborators.
	CameraID    int
	FPS         int
	Addr        string
	DBPath      string
	DataDir     string
	EmbedScript string
}

// Load reads configuration from the environment, applying defaults for
// anything unset, and validates the result.
func Load() (*Config, error) {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()

	dataDir := os.Getenv("FACEMARK_DATA_DIR")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".facemark")
	}

	cfg := &Config{
		Tolerance:     DefaultTolerance,
		ReqConsec:     DefaultReqConsec,
		ProcessEveryN: DefaultProcessEveryN,
		GraceFrames:   DefaultGraceFrames,
		CameraID:      DefaultCameraID,
		FPS:           DefaultFPS,
		Addr:          DefaultAddr,
		DataDir:       dataDir,
		DBPath:        filepath.Join(dataDir, "facemark.db"),
		EmbedScript:   os.Getenv("FACEMARK_EMBED_SCRIPT"),
	}

	var err error
	if cfg.Tolerance, err = envFloat("FACEMARK_TOLERANCE", cfg.Tolerance); err != nil {
		return nil, err
	}
	if cfg.ReqConsec, err = envInt("FACEMARK_REQ_CONSEC", cfg.ReqConsec); err != nil {
		return nil, err
	}
	if cfg.ProcessEveryN, err = envInt("FACEMARK_PROCESS_EVERY_N", cfg.ProcessEveryN); err != nil {
		return nil, err
	}
	if cfg.GraceFrames, err = envInt("FACEMARK_GRACE_FRAMES", cfg.GraceFrames); err != nil {
		return nil, err
	}
	if cfg.CameraID, err = envInt("FACEMARK_CAMERA_ID", cfg.CameraID); err != nil {
		return nil, err
	}
	if cfg.FPS, err = envInt("FACEMARK_FPS", cfg.FPS); err != nil {
		return nil, err
	}
	if addr := os.Getenv("FACEMARK_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if db := os.Getenv("FACEMARK_DB"); db != "" {
		cfg.DBPath = db
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks all tunables. A failure here is fatal at startup;
// recognition never starts on a bad configuration.
func (c *Config) Validate() error {
	if err := c.Recognition().Validate(); err != nil {
		return err
	}
	if c.CameraID < 0 {
		return fmt.Errorf("%w: camera id must be >= 0, got %d", recognize.ErrInvalidConfig, c.CameraID)
	}
	if c.FPS < 1 {
		return fmt.Errorf("%w: fps must be >= 1, got %d", recognize.ErrInvalidConfig, c.FPS)
	}
	return nil
}

// Recognition returns the engine's view of the configuration.
func (c *Config) Recognition() recognize.Config {
	return recognize.Config{
		Tolerance:      c.Tolerance,
		RequiredConsec: c.ReqConsec,
		ProcessEveryN:  c.ProcessEveryN,
		GraceFrames:    c.GraceFrames,
	}
}

// PhotoDir is where enrollment photos are written.
func (c *Config) PhotoDir() string {
	return filepath.Join(c.DataDir, "photos")
}

// QRDir is where generated QR code images are written.
func (c *Config) QRDir() string {
	return filepath.Join(c.DataDir, "qrcodes")
}

func envFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not a number", recognize.ErrInvalidConfig, key, v)
	}
	return f, nil
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not an integer", recognize.ErrInvalidConfig, key, v)
	}
	return n, nil
}

package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all client configuration.
type Config struct {
	APIBaseURL string `validate:"required,url"`
	WSBaseURL  string `validate:"omitempty,uri"`
	LogLevel   string
	LogFormat  string

	// HTTPTimeout bounds every single request round-trip.
	HTTPTimeout time.Duration

	// Proctoring capture pipeline.
	SnapshotWarmup   time.Duration `validate:"min=0"`
	SnapshotInterval time.Duration `validate:"required,min=1s"`
	CaptureCommand   string
	CameraDevice     string

	// Answer persistence.
	AutosaveDebounce time.Duration `validate:"required,min=100ms"`

	// Display characteristics reported with every snapshot.
	ScreenResolution string  `validate:"required"`
	PixelRatio       float64 `validate:"gt=0"`

	// StateDir holds the local draft database and the auth token.
	StateDir string `validate:"required"`
}

// Load reads configuration from environment variables with sensible defaults.
// It loads .env file if present but does not fail if missing.
func Load() *Config {
	_ = godotenv.Load() // .env is optional

	return &Config{
		APIBaseURL:       getEnv("API_BASE_URL", "http://localhost:8080/api/v1"),
		WSBaseURL:        getEnv("WS_BASE_URL", ""),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "pretty"),
		HTTPTimeout:      time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 15)) * time.Second,
		SnapshotWarmup:   time.Duration(getEnvInt("SNAPSHOT_WARMUP_SECONDS", 5)) * time.Second,
		SnapshotInterval: time.Duration(getEnvInt("SNAPSHOT_INTERVAL_SECONDS", 30)) * time.Second,
		CaptureCommand:   getEnv("CAPTURE_COMMAND", ""),
		CameraDevice:     getEnv("CAMERA_DEVICE", "/dev/video0"),
		AutosaveDebounce: time.Duration(getEnvInt("AUTOSAVE_DEBOUNCE_MS", 1000)) * time.Millisecond,
		ScreenResolution: getEnv("SCREEN_RESOLUTION", "1920x1080"),
		PixelRatio:       getEnvFloat("PIXEL_RATIO", 1.0),
		StateDir:         getEnv("STATE_DIR", defaultStateDir()),
	}
}

func defaultStateDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ".exstem-client"
	}
	return filepath.Join(base, "exstem-client")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

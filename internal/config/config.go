package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all cropcast configuration.
type Config struct {
	Artifacts ArtifactsConfig
	Engine    EngineConfig
	Batch     BatchConfig
	Server    ServerConfig
	Log       LogConfig
}

// ArtifactsConfig locates the persisted model, encoders, and feature order.
type ArtifactsConfig struct {
	Dir            string
	RuntimeLib     string // ONNX Runtime shared library; empty = next to the model
	IntraOpThreads int
	Watch          bool
	Debounce       time.Duration
}

// EngineConfig holds inference settings.
type EngineConfig struct {
	ChunkSize int
}

// BatchConfig bounds batch uploads.
type BatchConfig struct {
	Policy   string // "strict" or "lenient"
	MaxRows  int
	Timeout  time.Duration
	MaxBytes int64
}

// ServerConfig holds HTTP and export settings.
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	ExportTTL       time.Duration
	ExportMax       int
}

// LogConfig selects the slog handler and level.
type LogConfig struct {
	Level  string
	Format string // "text" or "json"
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is applied first if present; variables
// already set in the environment win.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Artifacts: ArtifactsConfig{
			Dir:            getenv("CROPCAST_ARTIFACT_DIR", "models"),
			RuntimeLib:     os.Getenv("CROPCAST_ORT_LIB"),
			IntraOpThreads: getenvInt("CROPCAST_ORT_THREADS", 0),
			Watch:          getenvBool("CROPCAST_WATCH", false),
			Debounce:       getenvDuration("CROPCAST_WATCH_DEBOUNCE", 500*time.Millisecond),
		},
		Engine: EngineConfig{
			ChunkSize: getenvInt("CROPCAST_BATCH_CHUNK", 512),
		},
		Batch: BatchConfig{
			Policy:   getenv("CROPCAST_BATCH_POLICY", "strict"),
			MaxRows:  getenvInt("CROPCAST_BATCH_MAX_ROWS", 100000),
			Timeout:  getenvDuration("CROPCAST_BATCH_TIMEOUT", 60*time.Second),
			MaxBytes: getenvInt64("CROPCAST_MAX_UPLOAD_BYTES", 32<<20),
		},
		Server: ServerConfig{
			Addr:            getenv("CROPCAST_ADDR", ":8080"),
			ReadTimeout:     getenvDuration("CROPCAST_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getenvDuration("CROPCAST_WRITE_TIMEOUT", 90*time.Second),
			ShutdownTimeout: getenvDuration("CROPCAST_SHUTDOWN_TIMEOUT", 10*time.Second),
			ExportTTL:       getenvDuration("CROPCAST_EXPORT_TTL", 15*time.Minute),
			ExportMax:       getenvInt("CROPCAST_EXPORT_MAX", 64),
		},
		Log: LogConfig{
			Level:  getenv("CROPCAST_LOG_LEVEL", "info"),
			Format: getenv("CROPCAST_LOG_FORMAT", "text"),
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func getenvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return fallback
	}
	return b
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

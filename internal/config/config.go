package config

import (
	_ "embed"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Gallery  GalleryConfig
	Matcher  MatcherConfig
	Detector DetectorConfig
	Web      WebConfig
	Database DatabaseConfig
}

type GalleryConfig struct {
	Dir string // directory for signature records (default known_faces)
}

type MatcherConfig struct {
	Threshold float64 // minimum average correlation to accept a match
}

type DetectorConfig struct {
	URL string // face detection service base URL (empty = full-frame fallback)
}

type WebConfig struct {
	Port              int
	SessionSecret     string // HMAC key for session cookies (random per process if unset)
	SessionTTLMinutes int
	MaxUploadBytes    int64
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL (empty = filesystem store)
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

// defaults is the embedded baseline; environment variables override it.
type defaults struct {
	Matcher struct {
		Threshold float64 `yaml:"threshold"`
	} `yaml:"matcher"`
	Web struct {
		SessionTTLMinutes int   `yaml:"session_ttl_minutes"`
		MaxUploadBytes    int64 `yaml:"max_upload_bytes"`
	} `yaml:"web"`
}

// envStr reads an environment variable, falling back to a default when unset.
func envStr(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a float in (0, 1].
// Returns the default value if the env var is unset, empty, or out of range.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 && f <= 1 {
		return f
	}
	return defaultVal
}

func Load() *Config {
	var def defaults
	if err := yaml.Unmarshal(defaultsYAML, &def); err != nil {
		// Embedded file, cannot fail in practice.
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}

	return &Config{
		Gallery: GalleryConfig{
			Dir: envStr("FACELOCK_GALLERY_DIR", "known_faces"),
		},
		Matcher: MatcherConfig{
			Threshold: envFloat("FACE_SIMILARITY_THRESHOLD", def.Matcher.Threshold),
		},
		Detector: DetectorConfig{
			URL: os.Getenv("FACE_DETECTOR_URL"),
		},
		Web: WebConfig{
			Port:              envInt("WEB_PORT", 8080),
			SessionSecret:     os.Getenv("WEB_SESSION_SECRET"),
			SessionTTLMinutes: envInt("WEB_SESSION_TTL_MINUTES", def.Web.SessionTTLMinutes),
			MaxUploadBytes:    int64(envInt("WEB_MAX_UPLOAD_BYTES", int(def.Web.MaxUploadBytes))),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
	}
}

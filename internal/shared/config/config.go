package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultMaxUploadBytes caps inbound files on the hosted service.
const DefaultMaxUploadBytes int64 = 10 << 20

// Config holds application configuration.
type Config struct {
	Port            string
	CORSAllowOrigin []string
	Env             string

	BackendURL       string
	NotesListPath    string
	NotesHTTPTimeout time.Duration

	DatabaseURL     string
	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	S3Endpoint      string
	S3AccessKeyID   string
	S3SecretKey     string
	SSEKMSKeyID     string
	MaxUploadBytes  int64

	SessionFile string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (Config, error) {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	timeout, err := parseOptionalDuration("NOTES_HTTP_TIMEOUT")
	if err != nil {
		return Config{}, err
	}
	maxUpload, err := parsePositiveInt("MAX_UPLOAD_BYTES", DefaultMaxUploadBytes)
	if err != nil {
		return Config{}, err
	}
	sessionFile, err := expandHome(getEnv("SESSION_FILE", "~/.notes-upload/session.json"))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port:             getEnv("PORT", "8080"),
		CORSAllowOrigin:  splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000")),
		Env:              env,
		BackendURL:       strings.TrimRight(getEnv("BACKEND_URL", "http://localhost:5000"), "/"),
		NotesListPath:    getEnv("NOTES_LIST_PATH", "/notes"),
		NotesHTTPTimeout: timeout,
		DatabaseURL:      dbURL,
		ObjectStoreType:  normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:    getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:        getEnv("AWS_REGION", ""),
		S3Bucket:         getEnv("S3_BUCKET", ""),
		S3Prefix:         getEnv("S3_PREFIX", ""),
		S3Endpoint:       getEnv("S3_ENDPOINT", ""),
		S3AccessKeyID:    getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretKey:      getEnv("S3_SECRET_ACCESS_KEY", ""),
		SSEKMSKeyID:      getEnv("SSE_KMS_KEY_ID", ""),
		MaxUploadBytes:   maxUpload,
		SessionFile:      sessionFile,
	}
	return cfg, nil
}

// Validate checks the settings the hosted service needs.
func (c Config) Validate() error {
	var errs []error
	if c.Env == "production" && c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required in production"))
	}
	if c.ObjectStoreType == "s3" && c.S3Bucket == "" {
		errs = append(errs, errors.New("S3_BUCKET is required when OBJECT_STORE=s3"))
	}
	if c.BackendURL == "" {
		errs = append(errs, errors.New("BACKEND_URL is required"))
	}
	return errors.Join(errs...)
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func parseOptionalDuration(key string) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%s: invalid duration %q", key, raw)
	}
	return d, nil
}

func parsePositiveInt(key string, def int64) (int64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s: expected a positive integer, got %q", key, raw)
	}
	return n, nil
}

func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home for %s: %w", p, err)
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

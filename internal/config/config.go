package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Auth      AuthConfig
	CORS      CORSConfig
	Scan      ScanConfig
	Reference ReferenceConfig
	Master    MasterConfig
	Output    OutputConfig
	Log       LogConfig
	S3        S3Config
	Email     EmailConfig
}

// ScanConfig holds folder indexing settings.
type ScanConfig struct {
	Root       string `mapstructure:"root"`
	Workers    int    `mapstructure:"workers"`
	HashFiles  bool   `mapstructure:"hash_files"`
	SkipHidden bool   `mapstructure:"skip_hidden"`
}

// ReferenceConfig locates the naming syntax and requirement matrix.
type ReferenceConfig struct {
	Dir          string `mapstructure:"dir"`
	IgnoreCase   bool   `mapstructure:"ignore_case"`
	FallbackType string `mapstructure:"fallback_type"`
}

// MasterConfig holds declaration master settings.
type MasterConfig struct {
	Path      string `mapstructure:"path"`
	KeyDigits int    `mapstructure:"key_digits"`
	Require   bool   `mapstructure:"require"`
}

// OutputConfig holds report artifact settings.
type OutputConfig struct {
	// Dir defaults to the scanned root when empty.
	Dir     string `mapstructure:"dir"`
	XLSX    bool   `mapstructure:"xlsx"`
	Publish bool   `mapstructure:"publish"`
	Prefix  string `mapstructure:"prefix"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
	// BaseDir bounds the paths an HTTP request may name. Empty disables
	// request path overrides.
	BaseDir      string        `mapstructure:"base_dir"`
}

// AuthConfig holds bearer token settings for the HTTP API.
type AuthConfig struct {
	Secret   string        `mapstructure:"secret"`
	Issuer   string        `mapstructure:"issuer"`
	Audience string        `mapstructure:"audience"`
	TokenTTL time.Duration `mapstructure:"token_ttl"`
}

// CORSConfig holds CORS settings for the HTTP trigger.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// S3Config holds AWS S3 settings used for publishing artifacts.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	KeyPrefix     string `mapstructure:"key_prefix"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// EmailConfig holds run notification settings.
type EmailConfig struct {
	Provider    string   `mapstructure:"provider"`
	Region      string   `mapstructure:"region"`
	FromAddress string   `mapstructure:"from_address"`
	FromName    string   `mapstructure:"from_name"`
	Recipients  []string `mapstructure:"recipients"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from environment variables with the DOCSTRACKER_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DOCSTRACKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "5m")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.base_dir", "")

	// Auth defaults
	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.issuer", "docstracker")
	v.SetDefault("auth.audience", "docstracker-api")
	v.SetDefault("auth.token_ttl", "24h")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Scan defaults
	v.SetDefault("scan.root", "")
	v.SetDefault("scan.workers", 6)
	v.SetDefault("scan.hash_files", false)
	v.SetDefault("scan.skip_hidden", true)

	// Reference defaults
	v.SetDefault("reference.dir", "reference")
	v.SetDefault("reference.ignore_case", false)
	v.SetDefault("reference.fallback_type", "")

	// Master defaults
	v.SetDefault("master.path", "")
	v.SetDefault("master.key_digits", 12)
	v.SetDefault("master.require", false)

	// Output defaults
	v.SetDefault("output.dir", "")
	v.SetDefault("output.xlsx", true)
	v.SetDefault("output.publish", false)
	v.SetDefault("output.prefix", "report")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// S3 defaults
	v.SetDefault("s3.region", "ap-southeast-1")
	v.SetDefault("s3.bucket", "docstracker-reports")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.key_prefix", "runs")
	v.SetDefault("s3.presign_expiry", 3600)

	// Email defaults
	v.SetDefault("email.provider", "noop")
	v.SetDefault("email.region", "ap-southeast-1")
	v.SetDefault("email.from_address", "noreply@docstracker.local")
	v.SetDefault("email.from_name", "Docs Tracker")
	v.SetDefault("email.recipients", "")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":             "DOCSTRACKER_SERVER_PORT",
		"server.read_timeout":     "DOCSTRACKER_SERVER_READ_TIMEOUT",
		"server.write_timeout":    "DOCSTRACKER_SERVER_WRITE_TIMEOUT",
		"server.environment":      "DOCSTRACKER_SERVER_ENVIRONMENT",
		"server.base_dir":         "DOCSTRACKER_SERVER_BASE_DIR",
		"auth.secret":             "DOCSTRACKER_AUTH_SECRET",
		"auth.issuer":             "DOCSTRACKER_AUTH_ISSUER",
		"auth.audience":           "DOCSTRACKER_AUTH_AUDIENCE",
		"auth.token_ttl":          "DOCSTRACKER_AUTH_TOKEN_TTL",
		"cors.allowed_origins":    "DOCSTRACKER_CORS_ALLOWED_ORIGINS",
		"scan.root":               "DOCSTRACKER_SCAN_ROOT",
		"scan.workers":            "DOCSTRACKER_SCAN_WORKERS",
		"scan.hash_files":         "DOCSTRACKER_SCAN_HASH_FILES",
		"scan.skip_hidden":        "DOCSTRACKER_SCAN_SKIP_HIDDEN",
		"reference.dir":           "DOCSTRACKER_REFERENCE_DIR",
		"reference.ignore_case":   "DOCSTRACKER_REFERENCE_IGNORE_CASE",
		"reference.fallback_type": "DOCSTRACKER_REFERENCE_FALLBACK_TYPE",
		"master.path":             "DOCSTRACKER_MASTER_PATH",
		"master.key_digits":       "DOCSTRACKER_MASTER_KEY_DIGITS",
		"master.require":          "DOCSTRACKER_MASTER_REQUIRE",
		"output.dir":              "DOCSTRACKER_OUTPUT_DIR",
		"output.xlsx":             "DOCSTRACKER_OUTPUT_XLSX",
		"output.publish":          "DOCSTRACKER_OUTPUT_PUBLISH",
		"output.prefix":           "DOCSTRACKER_OUTPUT_PREFIX",
		"log.level":               "DOCSTRACKER_LOG_LEVEL",
		"log.format":              "DOCSTRACKER_LOG_FORMAT",
		"s3.region":               "DOCSTRACKER_S3_REGION",
		"s3.bucket":               "DOCSTRACKER_S3_BUCKET",
		"s3.endpoint":             "DOCSTRACKER_S3_ENDPOINT",
		"s3.access_key":           "DOCSTRACKER_S3_ACCESS_KEY",
		"s3.secret_key":           "DOCSTRACKER_S3_SECRET_KEY",
		"s3.key_prefix":           "DOCSTRACKER_S3_KEY_PREFIX",
		"s3.presign_expiry":       "DOCSTRACKER_S3_PRESIGN_EXPIRY",
		"email.provider":          "DOCSTRACKER_EMAIL_PROVIDER",
		"email.region":            "DOCSTRACKER_EMAIL_REGION",
		"email.from_address":      "DOCSTRACKER_EMAIL_FROM_ADDRESS",
		"email.from_name":         "DOCSTRACKER_EMAIL_FROM_NAME",
		"email.recipients":        "DOCSTRACKER_EMAIL_RECIPIENTS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Container platforms set PORT. Use it unless DOCSTRACKER_SERVER_PORT is set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("DOCSTRACKER_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
		BaseDir:      v.GetString("server.base_dir"),
	}
	cfg.Auth = AuthConfig{
		Secret:   v.GetString("auth.secret"),
		Issuer:   v.GetString("auth.issuer"),
		Audience: v.GetString("auth.audience"),
		TokenTTL: v.GetDuration("auth.token_ttl"),
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: splitList(v.GetString("cors.allowed_origins")),
	}
	cfg.Scan = ScanConfig{
		Root:       v.GetString("scan.root"),
		Workers:    v.GetInt("scan.workers"),
		HashFiles:  v.GetBool("scan.hash_files"),
		SkipHidden: v.GetBool("scan.skip_hidden"),
	}
	cfg.Reference = ReferenceConfig{
		Dir:          v.GetString("reference.dir"),
		IgnoreCase:   v.GetBool("reference.ignore_case"),
		FallbackType: v.GetString("reference.fallback_type"),
	}
	cfg.Master = MasterConfig{
		Path:      v.GetString("master.path"),
		KeyDigits: v.GetInt("master.key_digits"),
		Require:   v.GetBool("master.require"),
	}
	cfg.Output = OutputConfig{
		Dir:     v.GetString("output.dir"),
		XLSX:    v.GetBool("output.xlsx"),
		Publish: v.GetBool("output.publish"),
		Prefix:  v.GetString("output.prefix"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		KeyPrefix:     v.GetString("s3.key_prefix"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}
	cfg.Email = EmailConfig{
		Provider:    v.GetString("email.provider"),
		Region:      v.GetString("email.region"),
		FromAddress: v.GetString("email.from_address"),
		FromName:    v.GetString("email.from_name"),
		Recipients:  splitList(v.GetString("email.recipients")),
	}

	return cfg, nil
}

// splitList parses a comma-separated list, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Archive drivers.
const (
	ArchiveNone = "none"
	ArchiveFS   = "fs"
	ArchiveS3   = "s3"
)

// Config represents the overall console configuration.
type Config struct {
	Backend  BackendConfig  `yaml:"backend"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Archive  ArchiveConfig  `yaml:"archive"`
}

// BackendConfig locates the maintenance backend and the service account the
// console signs in with.
type BackendConfig struct {
	BaseURL    string `yaml:"base_url"`
	CSRFCookie string `yaml:"csrf_cookie"`
	CSRFHeader string `yaml:"csrf_header"`
	Email      string `yaml:"email"`
	Password   string `yaml:"password"`
}

// ServerConfig holds the console HTTP server configuration.
type ServerConfig struct {
	Port            string        `yaml:"port"`
	Token           string        `yaml:"token"`
	RateLimitPerSec float64       `yaml:"rate_limit_per_sec"`
	RateBurst       int           `yaml:"rate_burst"`
	CacheTTLSeconds int           `yaml:"cache_ttl_seconds"`
	CacheTTL        time.Duration `yaml:"-"`
}

// DatabaseConfig holds the snapshot mirror location.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ArchiveConfig selects where exported documents are copied.
type ArchiveConfig struct {
	Driver string   `yaml:"driver"`
	Dir    string   `yaml:"dir"`
	S3     S3Config `yaml:"s3"`
}

// S3Config addresses an S3 compatible bucket.
type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	PathStyle bool   `yaml:"path_style"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Backend: BackendConfig{
			BaseURL:    "http://localhost:8000",
			CSRFCookie: "csrftoken",
			CSRFHeader: "X-CSRFToken",
		},
		Server: ServerConfig{
			Port:            "8080",
			RateLimitPerSec: 10,
			RateBurst:       20,
			CacheTTLSeconds: 30,
		},
		Database: DatabaseConfig{Path: "./machine_console.db"},
		Archive:  ArchiveConfig{Driver: ArchiveNone, S3: S3Config{Region: "us-east-1"}},
	}
}

// Load reads the YAML file at path over the defaults. An empty path skips
// the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return &cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &cfg, nil
}

// FromEnv loads an optional .env file, reads the YAML file named by
// CONSOLE_CONFIG, applies environment overrides and validates the result.
func FromEnv() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return Resolve(os.Getenv("CONSOLE_CONFIG"), os.Getenv)
}

// Resolve loads path, applies overrides from getenv and validates.
func Resolve(path string, getenv func(string) string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(getenv); err != nil {
		return nil, err
	}
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.Backend.BaseURL, "BACKEND_URL")
	set(&c.Backend.Email, "BACKEND_EMAIL")
	set(&c.Backend.Password, "BACKEND_PASSWORD")
	set(&c.Server.Token, "API_TOKEN")
	set(&c.Server.Port, "PORT")
	set(&c.Database.Path, "DB_PATH")
	set(&c.Archive.Driver, "ARCHIVE_DRIVER")
	set(&c.Archive.Dir, "ARCHIVE_DIR")
	set(&c.Archive.S3.Bucket, "ARCHIVE_S3_BUCKET")
	set(&c.Archive.S3.Region, "ARCHIVE_S3_REGION")
	set(&c.Archive.S3.Endpoint, "ARCHIVE_S3_ENDPOINT")

	if v := getenv("ARCHIVE_S3_PATH_STYLE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("ARCHIVE_S3_PATH_STYLE: %w", err)
		}
		c.Archive.S3.PathStyle = b
	}
	return nil
}

func (c *Config) finish() error {
	if c.Server.Token == "" {
		return fmt.Errorf("API_TOKEN environment variable is required")
	}
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	d := Default()
	if c.Backend.CSRFCookie == "" {
		c.Backend.CSRFCookie = d.Backend.CSRFCookie
	}
	if c.Backend.CSRFHeader == "" {
		c.Backend.CSRFHeader = d.Backend.CSRFHeader
	}
	if c.Server.Port == "" {
		c.Server.Port = d.Server.Port
	}
	if c.Server.RateLimitPerSec <= 0 {
		c.Server.RateLimitPerSec = d.Server.RateLimitPerSec
	}
	if c.Server.RateBurst <= 0 {
		c.Server.RateBurst = d.Server.RateBurst
	}
	if c.Server.CacheTTLSeconds <= 0 {
		c.Server.CacheTTLSeconds = d.Server.CacheTTLSeconds
	}
	c.Server.CacheTTL = time.Duration(c.Server.CacheTTLSeconds) * time.Second

	switch c.Archive.Driver {
	case "", ArchiveNone:
		c.Archive.Driver = ArchiveNone
	case ArchiveFS:
		if c.Archive.Dir == "" {
			return fmt.Errorf("archive.dir is required for the fs driver")
		}
	case ArchiveS3:
		if c.Archive.S3.Bucket == "" {
			return fmt.Errorf("archive.s3.bucket is required for the s3 driver")
		}
	default:
		return fmt.Errorf("unknown archive driver %q", c.Archive.Driver)
	}
	return nil
}

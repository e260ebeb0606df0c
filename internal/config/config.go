package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DBPath     string   `validate:"required"`
	SourceURL  string   `yaml:"zip_url" toml:"zip_url" validate:"omitempty,url"`
	ArchiveDir string   `yaml:"zip_path" toml:"zip_path" validate:"required"`
	RawDir     string   `yaml:"extracted_to" toml:"extracted_to" validate:"required"`
	CleanDir   string   `yaml:"processed_to" toml:"processed_to" validate:"required"`
	OutputDir  string   `validate:"required"`
	FileSuffix string   `yaml:"file_suffix" toml:"file_suffix"`
	Files      []string `yaml:"files" toml:"files" validate:"min=1,dive,required"`

	SourceEncoding   string `yaml:"source_encoding" toml:"source_encoding" validate:"oneof=utf-8 utf8 windows-1252 cp1252 iso-8859-1 latin1"`
	CSVBOM           bool   `yaml:"csv_bom" toml:"csv_bom"`
	NormalizeWorkers int    `yaml:"normalize_workers" toml:"normalize_workers" validate:"min=1"`

	HTTPTimeoutMs    int `validate:"min=1"`
	HTTPRateLimitRPS int `validate:"min=1"`
	HTTPMaxAttempts  int `validate:"min=1"`

	ListenerIntervalSec int `validate:"min=1"`
	ListenerAutoExport  bool

	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=json text"`
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:     getEnv("DB_PATH", filepath.Join(cwd, "data", "app.db")),
		SourceURL:  getEnv("SOURCE_URL", ""),
		ArchiveDir: getEnv("ARCHIVE_DIR", filepath.Join(cwd, "data", "archives")),
		RawDir:     getEnv("RAW_DIR", filepath.Join(cwd, "data", "raw")),
		CleanDir:   getEnv("CLEAN_DIR", filepath.Join(cwd, "data", "clean")),
		OutputDir:  getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),
		FileSuffix: getEnv("FILE_SUFFIX", "_clean"),
		Files:      getEnvList("FILES", []string{"item.csv", "promotion.csv", "sales.csv", "supermarkets.csv"}),

		SourceEncoding:   getEnv("SOURCE_ENCODING", "utf-8"),
		CSVBOM:           getEnvBool("CSV_BOM", false),
		NormalizeWorkers: getEnvInt("NORMALIZE_WORKERS", runtime.GOMAXPROCS(0)),

		HTTPTimeoutMs:    getEnvInt("HTTP_TIMEOUT_MS", 60000),
		HTTPRateLimitRPS: getEnvInt("HTTP_RATE_LIMIT_RPS", 2),
		HTTPMaxAttempts:  getEnvInt("HTTP_MAX_ATTEMPTS", 5),

		ListenerIntervalSec: getEnvInt("LISTENER_INTERVAL_SEC", 3600),
		ListenerAutoExport:  getEnvBool("LISTENER_AUTO_EXPORT", true),

		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}

	if path := getEnv("POSCLEAN_CONFIG", ""); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return Config{}, err
		}
	}

	return cfg, nil
}

// overlayFile decodes a YAML or TOML file over the env-derived values. Keys follow the
// legacy config.json layout (zip_url, extracted_to, processed_to, ...).
func (c *Config) overlayFile(path string) error {
	blob, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("configuration file not found: %s: %w", path, err)
	}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(blob, c)
	} else {
		err = yaml.Unmarshal(blob, c)
	}
	if err != nil {
		return fmt.Errorf("error decoding config in %s: %w", path, err)
	}
	return nil
}

func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	value := strings.TrimSpace(getEnv(key, ""))
	if value == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

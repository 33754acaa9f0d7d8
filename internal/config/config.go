package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	DocumentRoot    string
	ServerPort      string
	FrontendURL     string
	EnableHSTS      bool
	ServerDebugMode bool
	OTELEnabled     bool
	OTELEndpoint    string

	// Engine limits; zero means use the resolver defaults
	MaxImportDepth int
	MaxImportFiles int
}

// FileConfig is the optional YAML settings file named by PLANWEAVE_CONFIG.
// Values from the file fill in anything the environment left unset.
type FileConfig struct {
	DocumentRoot   string `yaml:"document_root"`
	ServerPort     string `yaml:"server_port"`
	FrontendURL    string `yaml:"frontend_url"`
	MaxImportDepth int    `yaml:"max_import_depth"`
	MaxImportFiles int    `yaml:"max_import_files"`
}

// Load loads configuration from environment variables, with the optional
// YAML file as fallback
func Load() (*Config, error) {
	cfg := &Config{
		DocumentRoot:    getEnv("DOCUMENT_ROOT", ""),
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		FrontendURL:     getEnv("FRONTEND_URL", "http://localhost:3000"),
		EnableHSTS:      getEnvBool("ENABLE_HSTS", false),
		ServerDebugMode: getEnvBool("SERVER_DEBUG_MODE", false),
		OTELEnabled:     getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		MaxImportDepth:  getEnvInt("MAX_IMPORT_DEPTH", 0),
		MaxImportFiles:  getEnvInt("MAX_IMPORT_FILES", 0),
	}

	if file := getEnv("PLANWEAVE_CONFIG", ""); file != "" {
		if err := applyFile(cfg, file); err != nil {
			return nil, err
		}
	}

	if cfg.DocumentRoot == "" {
		return nil, fmt.Errorf("DOCUMENT_ROOT is required")
	}
	if cfg.MaxImportDepth < 0 || cfg.MaxImportFiles < 0 {
		return nil, fmt.Errorf("import limits must be non-negative")
	}

	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if cfg.DocumentRoot == "" {
		cfg.DocumentRoot = fc.DocumentRoot
	}
	if os.Getenv("SERVER_PORT") == "" && fc.ServerPort != "" {
		cfg.ServerPort = fc.ServerPort
	}
	if os.Getenv("FRONTEND_URL") == "" && fc.FrontendURL != "" {
		cfg.FrontendURL = fc.FrontendURL
	}
	if cfg.MaxImportDepth == 0 {
		cfg.MaxImportDepth = fc.MaxImportDepth
	}
	if cfg.MaxImportFiles == 0 {
		cfg.MaxImportFiles = fc.MaxImportFiles
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

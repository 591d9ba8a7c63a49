package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the VSCO downloader
type Config struct {
	// Remote service settings
	VSCO VSCOConfig `yaml:"vsco" json:"vsco"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// VSCOConfig holds settings for talking to the content host
type VSCOConfig struct {
	Host      string `yaml:"host" json:"host"`
	UserAgent string `yaml:"user_agent" json:"user_agent"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	// Concurrency is the worker pool size; 0 downloads sequentially.
	Concurrency int           `yaml:"concurrency" json:"concurrency"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	Directory         string `yaml:"directory" json:"directory"`
	CreateUserFolders bool   `yaml:"create_user_folders" json:"create_user_folders"`
	SaveMetadata      bool   `yaml:"save_metadata" json:"save_metadata"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultHost is the content host used when none is configured
const DefaultHost = "https://vsco.co"

// DefaultUserAgent identifies the client as a common desktop browser
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/116.0.0.0 Safari/537.36"

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		VSCO: VSCOConfig{
			Host:      DefaultHost,
			UserAgent: DefaultUserAgent,
		},
		Download: DownloadConfig{
			Concurrency: 4,
			Timeout:     30 * time.Second,
		},
		Output: OutputConfig{
			Directory:         "./downloads",
			CreateUserFolders: true,
			SaveMetadata:      false,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if host := os.Getenv("VSCODL_HOST"); host != "" {
		c.VSCO.Host = host
	}
	if userAgent := os.Getenv("VSCODL_USER_AGENT"); userAgent != "" {
		c.VSCO.UserAgent = userAgent
	}

	if concurrency := os.Getenv("VSCODL_CONCURRENCY"); concurrency != "" {
		var val int
		if _, err := fmt.Sscanf(concurrency, "%d", &val); err != nil {
			return fmt.Errorf("invalid VSCODL_CONCURRENCY %q: %w", concurrency, err)
		}
		c.Download.Concurrency = val
	}

	if timeout := os.Getenv("VSCODL_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("invalid VSCODL_TIMEOUT %q: %w", timeout, err)
		}
		c.Download.Timeout = d
	}

	if outputDir := os.Getenv("VSCODL_OUTPUT_DIR"); outputDir != "" {
		c.Output.Directory = outputDir
	}
	if saveMeta := os.Getenv("VSCODL_SAVE_METADATA"); saveMeta != "" {
		c.Output.SaveMetadata = strings.ToLower(saveMeta) == "true"
	}

	if logLevel := os.Getenv("VSCODL_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile := os.Getenv("VSCODL_LOG_FILE"); logFile != "" {
		c.Logging.File = logFile
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".vscodl.yaml",
		".vscodl.yml",
		filepath.Join(home, ".config", "vscodl", "config.yaml"),
		filepath.Join(home, ".config", "vscodl", "config.yml"),
		filepath.Join(home, ".vscodl.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.VSCO.Host == "" {
		errs = append(errs, errors.New("host is required"))
	} else if u, err := url.Parse(c.VSCO.Host); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("host %q is not an absolute URL", c.VSCO.Host))
	}
	if c.VSCO.UserAgent == "" {
		errs = append(errs, errors.New("user agent is required"))
	}

	if c.Download.Concurrency < 0 {
		errs = append(errs, errors.New("concurrency cannot be negative"))
	}
	if c.Download.Concurrency > 32 {
		errs = append(errs, errors.New("concurrency should not exceed 32"))
	}
	if c.Download.Timeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}

	if c.Output.Directory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if host, ok := flags["host"].(string); ok && host != "" {
		c.VSCO.Host = host
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.Directory = outputDir
	}
	if concurrency, ok := flags["concurrency"].(int); ok && concurrency >= 0 {
		c.Download.Concurrency = concurrency
	}
	if saveMeta, ok := flags["metadata"].(bool); ok {
		c.Output.SaveMetadata = saveMeta
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// .env files are optional
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".vscodl.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

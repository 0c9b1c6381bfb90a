package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultPath = "config.yaml"

// Limits where 0 means "no limit". They are seeded before decoding so an
// explicit 0 in the file survives.
const (
	defaultMaxPDFBytes   = 20 << 20
	defaultMaxInputChars = 100000
)

// PaperSize is a page size in inches, as used by the Chrome print engine.
type PaperSize struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// Config is the full runtime configuration. It is built once at startup and
// passed by value into the components that need it.
type Config struct {
	Server struct {
		Host    string `yaml:"host"`
		Port    string `yaml:"port"`
		Prefork bool   `yaml:"prefork"`
	} `yaml:"server"`

	Limits struct {
		MaxUploadBytes int `yaml:"max_upload_bytes"`
		MaxPDFBytes    int `yaml:"max_pdf_bytes"`
	} `yaml:"limits"`

	Logger struct {
		File       string `yaml:"file"`
		Level      string `yaml:"level"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
		Compress   bool   `yaml:"compress"`
	} `yaml:"logger"`

	RateLimiter struct {
		Enabled   bool          `yaml:"enabled"`
		UserLimit int           `yaml:"user_limit"`
		Interval  time.Duration `yaml:"interval"`
		RedisHost string        `yaml:"redis_host"`
		RedisDB   int           `yaml:"redis_db"`
	} `yaml:"rate_limiter"`

	LLM LLMConfig `yaml:"llm"`

	PDF struct {
		Engine          string               `yaml:"engine"`
		Paper           string               `yaml:"paper"`
		Orientation     string               `yaml:"orientation"`
		MarginMM        float64              `yaml:"margin_mm"`
		FontFamily      string               `yaml:"font_family"`
		FontSize        float64              `yaml:"font_size"`
		LineHeight      float64              `yaml:"line_height"`
		Compress        *bool                `yaml:"compress"`
		Filename        string               `yaml:"filename"`
		PaperSizes      map[string]PaperSize `yaml:"paper_sizes"`
		ChromePath      string               `yaml:"chrome_path"`
		ChromeNoSandbox bool                 `yaml:"chrome_no_sandbox"`
		TimeoutSecs     int                  `yaml:"timeout_secs"`
	} `yaml:"pdf"`

	Storage struct {
		TempDir string `yaml:"temp_dir"`
	} `yaml:"storage"`
}

// LLMConfig configures the remote completion service.
type LLMConfig struct {
	Provider      string        `yaml:"provider"`
	Model         string        `yaml:"model"`
	BaseURL       string        `yaml:"base_url"`
	APIKey        string        `yaml:"api_key"`
	Temperature   float32       `yaml:"temperature"`
	Timeout       time.Duration `yaml:"timeout"`
	MaxTokens     int           `yaml:"max_tokens"`
	MaxInputChars int           `yaml:"max_input_chars"`
}

// providerKeyEnv maps a provider to the environment variable holding its credential.
var providerKeyEnv = map[string]string{
	"openai": "OPENAI_API_KEY",
	"claude": "ANTHROPIC_API_KEY",
	"gemini": "GEMINI_API_KEY",
}

// Default returns the built-in configuration used when no file is present.
func Default() Config {
	cfg := seeded()
	applyDefaults(&cfg)
	return cfg
}

func seeded() Config {
	var cfg Config
	cfg.Limits.MaxPDFBytes = defaultMaxPDFBytes
	cfg.LLM.MaxInputChars = defaultMaxInputChars
	return cfg
}

// Load reads the file named by CONFIG_PATH, or config.yaml. When CONFIG_PATH is
// unset and config.yaml does not exist the defaults are used.
func Load() Config {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		if _, err := os.Stat(defaultPath); errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			applyEnv(&cfg)
			if err := cfg.Validate(); err != nil {
				panic(err)
			}
			return cfg
		}
		path = defaultPath
	}
	return LoadFrom(path)
}

// LoadFrom parses the YAML file at path. It panics on unreadable files and
// invalid values, since the service cannot run with a broken config.
func LoadFrom(path string) Config {
	raw, err := os.ReadFile(path)
	if err != nil {
		panic(fmt.Errorf("read config %s: %w", path, err))
	}

	cfg := seeded()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		panic(fmt.Errorf("decode config %s: %w", path, err))
	}
	applyDefaults(&cfg)
	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = ":5000"
	}
	if cfg.Limits.MaxUploadBytes == 0 {
		cfg.Limits.MaxUploadBytes = 16 << 20
	}
	if cfg.Logger.Level == "" {
		cfg.Logger.Level = "info"
	}
	if cfg.RateLimiter.Interval == 0 {
		cfg.RateLimiter.Interval = time.Minute
	}

	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "openai"
	}
	cfg.LLM.Provider = strings.ToLower(cfg.LLM.Provider)
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = defaultModel(cfg.LLM.Provider)
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.3
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 2 * time.Minute
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 2048
	}

	if cfg.PDF.Engine == "" {
		cfg.PDF.Engine = "fpdf"
	}
	if cfg.PDF.Paper == "" {
		cfg.PDF.Paper = "A4"
	}
	cfg.PDF.Paper = strings.ToUpper(cfg.PDF.Paper)
	if cfg.PDF.Orientation == "" {
		cfg.PDF.Orientation = "portrait"
	}
	if cfg.PDF.MarginMM == 0 {
		cfg.PDF.MarginMM = 10
	}
	if cfg.PDF.FontFamily == "" {
		cfg.PDF.FontFamily = "Arial"
	}
	if cfg.PDF.FontSize == 0 {
		cfg.PDF.FontSize = 12
	}
	if cfg.PDF.LineHeight == 0 {
		cfg.PDF.LineHeight = 10
	}
	if cfg.PDF.Compress == nil {
		on := true
		cfg.PDF.Compress = &on
	}
	if cfg.PDF.Filename == "" {
		cfg.PDF.Filename = "summary.pdf"
	}
	if len(cfg.PDF.PaperSizes) == 0 {
		cfg.PDF.PaperSizes = map[string]PaperSize{
			"A4":     {Width: 8.27, Height: 11.69},
			"LETTER": {Width: 8.5, Height: 11},
		}
	}
	if cfg.PDF.TimeoutSecs == 0 {
		cfg.PDF.TimeoutSecs = 30
	}

	if cfg.Storage.TempDir == "" {
		cfg.Storage.TempDir = os.TempDir()
	}
}

// applyEnv fills in values that are only ever read from the process environment.
func applyEnv(cfg *Config) {
	if cfg.LLM.APIKey == "" {
		if name, ok := providerKeyEnv[cfg.LLM.Provider]; ok {
			cfg.LLM.APIKey = os.Getenv(name)
		}
	}
	if cfg.PDF.ChromePath == "" {
		if v := os.Getenv("CHROME_BIN"); v != "" {
			cfg.PDF.ChromePath = v
		}
	}
}

func defaultModel(provider string) string {
	switch provider {
	case "claude":
		return "claude-3-5-sonnet-latest"
	case "gemini":
		return "gemini-2.0-flash"
	default:
		return "gpt-4"
	}
}

// Validate reports the first invalid value.
func (c Config) Validate() error {
	if _, ok := providerKeyEnv[c.LLM.Provider]; !ok {
		return fmt.Errorf("llm.provider %q is not supported", c.LLM.Provider)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0 and 2")
	}
	if c.LLM.MaxInputChars < 0 {
		return fmt.Errorf("llm.max_input_chars must not be negative")
	}
	if c.Limits.MaxUploadBytes < 0 || c.Limits.MaxPDFBytes < 0 {
		return fmt.Errorf("limits must not be negative")
	}
	if c.RateLimiter.UserLimit < 0 {
		return fmt.Errorf("rate_limiter.user_limit must not be negative")
	}
	if c.RateLimiter.Interval < 0 {
		return fmt.Errorf("rate_limiter.interval must be positive")
	}
	switch c.PDF.Engine {
	case "fpdf", "chrome":
	default:
		return fmt.Errorf("pdf.engine %q is not supported", c.PDF.Engine)
	}
	if c.PDF.Orientation != "portrait" && c.PDF.Orientation != "landscape" {
		return fmt.Errorf("pdf.orientation must be 'portrait' or 'landscape'")
	}
	if _, ok := c.PDF.PaperSizes[c.PDF.Paper]; !ok {
		return fmt.Errorf("pdf.paper %q is not configured in pdf.paper_sizes", c.PDF.Paper)
	}
	if c.PDF.FontSize <= 0 || c.PDF.LineHeight <= 0 || c.PDF.MarginMM < 0 {
		return fmt.Errorf("pdf font size, line height and margin must be positive")
	}
	return nil
}

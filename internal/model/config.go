package model

import "time"

// Config holds the full landlock configuration
type Config struct {
	Data        DataConfig        `yaml:"data" mapstructure:"data"`
	Extract     ExtractConfig     `yaml:"extract" mapstructure:"extract"`
	Scrape      ScrapeConfig      `yaml:"scrape" mapstructure:"scrape"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Analysis    AnalysisConfig    `yaml:"analysis" mapstructure:"analysis"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// DataConfig locates raw documents, the source registry and the panel store
type DataConfig struct {
	Dir          string `yaml:"dir" mapstructure:"dir"`
	RawDir       string `yaml:"raw_dir" mapstructure:"raw_dir"`
	RegistryPath string `yaml:"registry_path" mapstructure:"registry_path"`
	StorePath    string `yaml:"store_path" mapstructure:"store_path"` // Empty disables panel persistence
}

// ExtractConfig tunes document decoding
type ExtractConfig struct {
	MaxFeedItems  int    `yaml:"max_feed_items" mapstructure:"max_feed_items"`
	PdfToTextPath string `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
}

// ScrapeConfig configures the document collaborator
type ScrapeConfig struct {
	Timeout             time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent           string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes        int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	MaxDepth            int           `yaml:"max_depth" mapstructure:"max_depth"`
	MaxPagesPerCategory int           `yaml:"max_pages_per_category" mapstructure:"max_pages_per_category"`
	LinksPerPage        int           `yaml:"links_per_page" mapstructure:"links_per_page"`
	RequestsPerSecond   float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize           int           `yaml:"burst_size" mapstructure:"burst_size"`
	RespectRobots       bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
}

// CacheConfig configures the fetch cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// AnalysisMode selects the analysis strategy
type AnalysisMode string

const (
	ModeDeterministic AnalysisMode = "deterministic"
	ModeLLM           AnalysisMode = "llm"
)

// AnalysisConfig selects between the deterministic analysts and the LLM alternate
type AnalysisConfig struct {
	Mode AnalysisMode `yaml:"mode" mapstructure:"mode"`
}

// LLMConfig configures the optional LLM analysis provider
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama, or empty
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ConcurrencyConfig configures batch processing
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Host string `yaml:"host" mapstructure:"host"`
	Port int    `yaml:"port" mapstructure:"port"`
}

// OutputConfig configures report rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
}

// LogConfig configures logging
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // json or console
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			Dir:          "data",
			RawDir:       "data/raw",
			RegistryPath: "data/sources_registry.jsonl",
			StorePath:    "data/panels.db",
		},
		Extract: ExtractConfig{
			MaxFeedItems:  20,
			PdfToTextPath: "pdftotext",
		},
		Scrape: ScrapeConfig{
			Timeout:             30 * time.Second,
			UserAgent:           "LandlockBot/1.0",
			MaxBodyBytes:        20_000_000,
			MaxDepth:            3,
			MaxPagesPerCategory: 50,
			LinksPerPage:        10,
			RequestsPerSecond:   0.5,
			BurstSize:           1,
			RespectRobots:       true,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       "data/cache",
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Analysis: AnalysisConfig{
			Mode: ModeDeterministic,
		},
		LLM: LLMConfig{
			Timeout:   60,
			MaxTokens: 2000,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8000,
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

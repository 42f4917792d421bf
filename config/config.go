package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the news feed pipeline
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Search    SearchConfig    `mapstructure:"search"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Email     EmailConfig     `mapstructure:"email"`
	Output    OutputConfig    `mapstructure:"output"`
	Knowledge KnowledgeConfig `mapstructure:"knowledge"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	LogLevel       string        `mapstructure:"log_level"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// SearchConfig contains web search provider settings and fan-out limits
type SearchConfig struct {
	Provider       string        `mapstructure:"provider"` // serper or brave
	APIKey         string        `mapstructure:"api_key"`
	MonthsBack     int           `mapstructure:"months_back"`
	MaxResults     int           `mapstructure:"max_results"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxConcurrency int           `mapstructure:"max_concurrency"`
	RPMMultiplier  int           `mapstructure:"rpm_multiplier"` // rpm ceiling = max_concurrency * rpm_multiplier
}

func (s SearchConfig) Validate() error {
	if s.Provider == "" {
		return fmt.Errorf("search.provider is required (serper or brave)")
	}
	if s.ResolveAPIKey() == "" {
		return fmt.Errorf("search api key missing: set %s", s.APIKeyEnvVar())
	}
	if s.MaxConcurrency <= 0 {
		return fmt.Errorf("search.max_concurrency must be > 0")
	}
	if s.MonthsBack <= 0 {
		return fmt.Errorf("search.months_back must be > 0")
	}
	return nil
}

// APIKeyEnvVar names the environment variable holding the provider key.
func (s SearchConfig) APIKeyEnvVar() string {
	if s.Provider == "brave" {
		return "BRAVE_API_KEY"
	}
	return "SERPER_API_KEY"
}

// ResolveAPIKey returns the configured key, falling back to the provider env var.
func (s SearchConfig) ResolveAPIKey() string {
	if s.APIKey != "" {
		return s.APIKey
	}
	return os.Getenv(s.APIKeyEnvVar())
}

// RPM derives the requests-per-minute ceiling for the downstream provider.
func (s SearchConfig) RPM() int {
	m := s.RPMMultiplier
	if m <= 0 {
		m = 20
	}
	return s.MaxConcurrency * m
}

// LLMConfig contains language model settings for the two pipeline roles
type LLMConfig struct {
	APIKey        string        `mapstructure:"api_key"`
	SearchModel   LLMModel      `mapstructure:"search_model"`
	AnalysisModel LLMModel      `mapstructure:"analysis_model"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxRetries    int           `mapstructure:"max_retries"`
}

// LLMModel represents a specific model configuration
type LLMModel struct {
	Name            string  `mapstructure:"name"`
	Temperature     float64 `mapstructure:"temperature"`
	MaxTokens       int     `mapstructure:"max_tokens"`
	CostPer1K       float64 `mapstructure:"cost_per_1k_input"`
	CostPer1KOutput float64 `mapstructure:"cost_per_1k_output"`
}

func (l LLMConfig) Validate() error {
	if l.ResolveAPIKey() == "" {
		return fmt.Errorf("llm api key missing: set OPENAI_API_KEY")
	}
	if l.SearchModel.Name == "" || l.AnalysisModel.Name == "" {
		return fmt.Errorf("llm.search_model.name and llm.analysis_model.name are required")
	}
	return nil
}

func (l LLMConfig) ResolveAPIKey() string {
	if l.APIKey != "" {
		return l.APIKey
	}
	return os.Getenv("OPENAI_API_KEY")
}

// EmailConfig contains transactional email provider settings
type EmailConfig struct {
	Provider    string        `mapstructure:"provider"` // brevo or sendgrid
	APIKey      string        `mapstructure:"api_key"`
	SenderName  string        `mapstructure:"sender_name"`
	SenderEmail string        `mapstructure:"sender_email"`
	TeamEmail   string        `mapstructure:"team_email"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxRetries  int           `mapstructure:"max_retries"`
}

func (e EmailConfig) Validate() error {
	if e.Provider == "" {
		return fmt.Errorf("email.provider is required (brevo or sendgrid)")
	}
	if e.ResolveAPIKey() == "" {
		return fmt.Errorf("email api key missing: set %s", e.APIKeyEnvVar())
	}
	if strings.TrimSpace(e.TeamEmail) == "" {
		return fmt.Errorf("email.team_email is required")
	}
	if strings.TrimSpace(e.SenderEmail) == "" {
		return fmt.Errorf("email.sender_email is required")
	}
	return nil
}

func (e EmailConfig) APIKeyEnvVar() string {
	if e.Provider == "sendgrid" {
		return "SENDGRID_API_KEY"
	}
	return "BREVO_API_KEY"
}

func (e EmailConfig) ResolveAPIKey() string {
	if e.APIKey != "" {
		return e.APIKey
	}
	return os.Getenv(e.APIKeyEnvVar())
}

// OutputConfig contains artifact persistence settings
type OutputConfig struct {
	Dir               string `mapstructure:"dir"`
	SearchResultsFile string `mapstructure:"search_results_file"`
	ReportFile        string `mapstructure:"report_file"`
}

// SearchResultsPath returns the full path of the phase-1 artifact.
func (o OutputConfig) SearchResultsPath() string {
	return filepath.Join(o.Dir, o.SearchResultsFile)
}

// ReportPath returns the full path of the phase-2 artifact.
func (o OutputConfig) ReportPath() string {
	return filepath.Join(o.Dir, o.ReportFile)
}

// KnowledgeConfig contains run input settings
type KnowledgeConfig struct {
	MPListPath      string `mapstructure:"mp_list_path"`
	TimeframeMonths int    `mapstructure:"timeframe_months"`
	FocusAreas      string `mapstructure:"focus_areas"`
	AgentsFile      string `mapstructure:"agents_file"`
}

// TelemetryConfig contains telemetry and cost tracking settings
type TelemetryConfig struct {
	Enabled      bool `mapstructure:"enabled"`
	MetricsPort  int  `mapstructure:"metrics_port"`
	CostTracking bool `mapstructure:"cost_tracking"`
}

func (t TelemetryConfig) Validate() error {
	if t.Enabled && t.MetricsPort <= 0 {
		return fmt.Errorf("telemetry.metrics_port must be > 0 when telemetry is enabled")
	}
	return nil
}

// LoadConfig loads config from file, with MPFEED_* env overrides
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetDefault("general.log_level", "info")
	v.SetDefault("general.default_timeout", 2*time.Minute)
	v.SetDefault("search.provider", "serper")
	v.SetDefault("search.months_back", 8)
	v.SetDefault("search.max_results", 10)
	v.SetDefault("search.timeout", 30*time.Second)
	v.SetDefault("search.max_concurrency", 10)
	v.SetDefault("search.rpm_multiplier", 20)
	v.SetDefault("llm.search_model.name", "gpt-4o-mini")
	v.SetDefault("llm.search_model.temperature", 0.3)
	v.SetDefault("llm.search_model.max_tokens", 4096)
	v.SetDefault("llm.analysis_model.name", "gpt-4o")
	v.SetDefault("llm.analysis_model.temperature", 0.2)
	v.SetDefault("llm.analysis_model.max_tokens", 8192)
	v.SetDefault("llm.timeout", 120*time.Second)
	v.SetDefault("llm.max_retries", 2)
	v.SetDefault("email.provider", "brevo")
	v.SetDefault("email.sender_name", "MP News Feed")
	v.SetDefault("email.timeout", 30*time.Second)
	v.SetDefault("email.max_retries", 3)
	v.SetDefault("output.dir", "output")
	v.SetDefault("output.search_results_file", "search_results.json")
	v.SetDefault("output.report_file", "summary_report.md")
	v.SetDefault("knowledge.mp_list_path", "knowledge/mp_list.json")
	v.SetDefault("knowledge.timeframe_months", 8)
	v.SetDefault("knowledge.focus_areas", "european politics")
	v.SetDefault("knowledge.agents_file", "config/agents.yaml")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.metrics_port", 9090)
	v.SetDefault("telemetry.cost_tracking", true)

	if path == "" {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		v.AddConfigPath(exeDir)
		v.AddConfigPath(filepath.Join(exeDir, "..", "config"))
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("MPFEED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// Config file is optional when a path was not given; defaults plus
		// env vars are enough to run.
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := config.Telemetry.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

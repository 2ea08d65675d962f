package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration shared by all binaries.
type Config struct {
	ProjectID       string `yaml:"project_id"`
	Dataset         string `yaml:"dataset" validate:"required"`
	CredentialsFile string `yaml:"credentials_file" validate:"omitempty,file"`
	LogLevel        string `yaml:"log_level" validate:"omitempty,oneof=trace debug info warn error fatal panic disabled"`

	LLM       LLMConfig       `yaml:"llm"`
	Knowledge KnowledgeConfig `yaml:"knowledge"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Storage   StorageConfig   `yaml:"storage"`
	Notion    NotionConfig    `yaml:"notion"`
	Server    ServerConfig    `yaml:"server"`
}

// LLMConfig selects the narrative model.
type LLMConfig struct {
	// Provider is "gemini", "local" (OpenAI-compatible server) or "none".
	Provider       string        `yaml:"provider" validate:"oneof=gemini local none"`
	Model          string        `yaml:"model" validate:"required_unless=Provider none"`
	EmbeddingModel string        `yaml:"embedding_model"`
	LocalURLs      []string      `yaml:"local_urls" validate:"dive,url"`
	APIKey         string        `yaml:"api_key"`
	Timeout        time.Duration `yaml:"timeout" validate:"gt=0"`
}

// KnowledgeConfig selects the knowledge-base backend.
type KnowledgeConfig struct {
	// Backend is "memory" (lexical, offline) or "bigquery" (vector search).
	Backend           string        `yaml:"backend" validate:"oneof=memory bigquery"`
	PatternResults    int           `yaml:"pattern_results" validate:"gte=1"`
	ComplianceResults int           `yaml:"compliance_results" validate:"gte=1"`
	Timeout           time.Duration `yaml:"timeout" validate:"gt=0"`
}

// AnalysisConfig tunes the report assembler.
type AnalysisConfig struct {
	Workers       int `yaml:"workers" validate:"gte=1,lte=64"`
	KnowledgeTopN int `yaml:"knowledge_top_n" validate:"gte=0"`
	NarrativeTopN int `yaml:"narrative_top_n" validate:"gte=0"`
}

// StorageConfig holds report output locations.
type StorageConfig struct {
	ReportsBucket string `yaml:"reports_bucket"`
	OutputPath    string `yaml:"output_path"`
}

// NotionConfig holds the report sync target.
type NotionConfig struct {
	Token       string `yaml:"token"`
	ReportsDBID string `yaml:"reports_db_id" validate:"required_with=Token"`
}

// ServerConfig configures the API server and worker.
type ServerConfig struct {
	Port       string `yaml:"port" validate:"required,numeric"`
	QueueSize  int    `yaml:"queue_size" validate:"gte=1"`
	Workers    int    `yaml:"workers" validate:"gte=1"`
	MaxRetries int    `yaml:"max_retries" validate:"gte=0"`
	// APIKey, when set, is required as a bearer token on /api routes.
	APIKey string `yaml:"api_key"`
	// Schedule is an optional cron spec that enqueues ScheduleSource.
	Schedule       string `yaml:"schedule"`
	ScheduleSource string `yaml:"schedule_source" validate:"required_with=Schedule"`
}

// Default returns a configuration that runs fully offline.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads the YAML file at path (optional), applies environment
// overrides and then defaults, and validates. A .env file in the working
// directory is loaded first when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	// Env first: the default model depends on the provider.
	applyEnv(cfg)
	applyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Dataset == "" {
		cfg.Dataset = "fraud"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "none"
	}
	if cfg.LLM.Model == "" {
		switch cfg.LLM.Provider {
		case "gemini":
			cfg.LLM.Model = "gemini-2.5-flash"
		case "local":
			cfg.LLM.Model = "gemma3:1b"
		}
	}
	if cfg.LLM.EmbeddingModel == "" {
		cfg.LLM.EmbeddingModel = "text-embedding-004"
	}
	if len(cfg.LLM.LocalURLs) == 0 {
		cfg.LLM.LocalURLs = []string{"http://localhost:11434", "http://localhost:1234"}
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = "ollama"
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 60 * time.Second
	}
	if cfg.Knowledge.Backend == "" {
		cfg.Knowledge.Backend = "memory"
	}
	if cfg.Knowledge.PatternResults == 0 {
		cfg.Knowledge.PatternResults = 3
	}
	if cfg.Knowledge.ComplianceResults == 0 {
		cfg.Knowledge.ComplianceResults = 2
	}
	if cfg.Knowledge.Timeout == 0 {
		cfg.Knowledge.Timeout = 10 * time.Second
	}
	if cfg.Analysis.Workers == 0 {
		cfg.Analysis.Workers = 4
	}
	if cfg.Analysis.KnowledgeTopN == 0 {
		cfg.Analysis.KnowledgeTopN = 3
	}
	if cfg.Analysis.NarrativeTopN == 0 {
		cfg.Analysis.NarrativeTopN = 2
	}
	if cfg.Storage.OutputPath == "" {
		cfg.Storage.OutputPath = "analysis_reports.json"
	}
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Server.QueueSize == 0 {
		cfg.Server.QueueSize = 100
	}
	if cfg.Server.Workers == 0 {
		cfg.Server.Workers = 5
	}
	if cfg.Server.MaxRetries == 0 {
		cfg.Server.MaxRetries = 3
	}
}

func applyEnv(cfg *Config) {
	cfg.ProjectID = getEnv("FRAUD_PROJECT_ID", cfg.ProjectID)
	cfg.Dataset = getEnv("FRAUD_DATASET", cfg.Dataset)
	cfg.CredentialsFile = getEnv("GOOGLE_APPLICATION_CREDENTIALS", cfg.CredentialsFile)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LLM.Provider = getEnv("FRAUD_LLM_PROVIDER", cfg.LLM.Provider)
	cfg.LLM.Model = getEnv("FRAUD_LLM_MODEL", cfg.LLM.Model)
	cfg.Knowledge.Backend = getEnv("FRAUD_KNOWLEDGE_BACKEND", cfg.Knowledge.Backend)
	cfg.Analysis.Workers = getEnvAsInt("FRAUD_WORKERS", cfg.Analysis.Workers)
	cfg.Storage.ReportsBucket = getEnv("FRAUD_REPORTS_BUCKET", cfg.Storage.ReportsBucket)
	cfg.Notion.Token = getEnv("NOTION_TOKEN", cfg.Notion.Token)
	cfg.Notion.ReportsDBID = getEnv("NOTION_REPORTS_DB_ID", cfg.Notion.ReportsDBID)
	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.Server.APIKey = getEnv("FRAUD_API_KEY", cfg.Server.APIKey)
	cfg.Server.Schedule = getEnv("FRAUD_SCHEDULE", cfg.Server.Schedule)
	cfg.Server.ScheduleSource = getEnv("FRAUD_SCHEDULE_SOURCE", cfg.Server.ScheduleSource)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct constraints and reports every violation at once.
func Validate(cfg *Config) error {
	var msgs []string

	if err := validate.Struct(cfg); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return fmt.Errorf("config validation: %w", err)
		}
		for _, fe := range verrs {
			msgs = append(msgs, describe(fe))
		}
	}

	if cfg.Knowledge.Backend == "bigquery" && cfg.ProjectID == "" {
		msgs = append(msgs, "ProjectID is required when knowledge backend is bigquery")
	}

	if len(msgs) == 0 {
		return nil
	}
	return fmt.Errorf("config validation errors:\n  - %s", strings.Join(msgs, "\n  - "))
}

// RequireProject returns an error when no GCP project is configured.
// Commands that touch BigQuery or Cloud Storage call it before dialing.
func (c *Config) RequireProject() error {
	if c.ProjectID == "" {
		return fmt.Errorf("project_id is not set (config file or FRAUD_PROJECT_ID)")
	}
	return nil
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required", "required_if", "required_with", "required_unless":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fe.Value())
	case "gte", "gt", "lte":
		return fmt.Sprintf("%s must be %s %s", field, fe.Tag(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

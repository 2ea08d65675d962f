package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"FRAUD_PROJECT_ID", "FRAUD_DATASET", "GOOGLE_APPLICATION_CREDENTIALS", "LOG_LEVEL",
		"FRAUD_LLM_PROVIDER", "FRAUD_LLM_MODEL", "FRAUD_KNOWLEDGE_BACKEND", "FRAUD_WORKERS",
		"FRAUD_REPORTS_BUCKET", "NOTION_TOKEN", "NOTION_REPORTS_DB_ID", "PORT",
		"FRAUD_API_KEY", "FRAUD_SCHEDULE", "FRAUD_SCHEDULE_SOURCE",
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "fraud", cfg.Dataset)
	assert.Equal(t, "none", cfg.LLM.Provider)
	assert.Equal(t, "memory", cfg.Knowledge.Backend)
	assert.Equal(t, 3, cfg.Knowledge.PatternResults)
	assert.Equal(t, 2, cfg.Knowledge.ComplianceResults)
	assert.Equal(t, 4, cfg.Analysis.Workers)
	assert.Equal(t, 3, cfg.Analysis.KnowledgeTopN)
	assert.Equal(t, 2, cfg.Analysis.NarrativeTopN)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 60*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, []string{"http://localhost:11434", "http://localhost:1234"}, cfg.LLM.LocalURLs)
}

func TestLoad_FromYAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
project_id: my-project
dataset: risk
llm:
  provider: gemini
  timeout: 15s
knowledge:
  backend: bigquery
analysis:
  workers: 8
server:
  port: "9090"
  schedule: "@every 1h"
  schedule_source: testdata/transactions.csv
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "my-project", cfg.ProjectID)
	assert.Equal(t, "risk", cfg.Dataset)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "gemini-2.5-flash", cfg.LLM.Model)
	assert.Equal(t, 15*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "bigquery", cfg.Knowledge.Backend)
	assert.Equal(t, 8, cfg.Analysis.Workers)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "@every 1h", cfg.Server.Schedule)
}

func TestLoad_LocalProviderDefaultsModel(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "llm:\n  provider: local\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gemma3:1b", cfg.LLM.Model)
	assert.Equal(t, "ollama", cfg.LLM.APIKey)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "dataset: from_file\nserver:\n  port: \"9090\"\n")

	t.Setenv("FRAUD_DATASET", "from_env")
	t.Setenv("PORT", "7070")
	t.Setenv("FRAUD_WORKERS", "2")
	t.Setenv("FRAUD_LLM_PROVIDER", "local")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from_env", cfg.Dataset)
	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, 2, cfg.Analysis.Workers)
	assert.Equal(t, "local", cfg.LLM.Provider)
	assert.Equal(t, "gemma3:1b", cfg.LLM.Model)
}

func TestLoad_EnvProviderPicksDefaultModel(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		model    string
		want     string
	}{
		{"gemini", "gemini", "", "gemini-2.5-flash"},
		{"local", "local", "", "gemma3:1b"},
		{"explicit model wins", "gemini", "gemini-2.5-pro", "gemini-2.5-pro"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("FRAUD_LLM_PROVIDER", tt.provider)
			if tt.model != "" {
				t.Setenv("FRAUD_LLM_MODEL", tt.model)
			}

			cfg, err := Load("")
			require.NoError(t, err)
			assert.Equal(t, tt.provider, cfg.LLM.Provider)
			assert.Equal(t, tt.want, cfg.LLM.Model)
		})
	}
}

func TestLoad_InvalidWorkersEnvIgnored(t *testing.T) {
	clearEnv(t)
	t.Setenv("FRAUD_WORKERS", "many")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Analysis.Workers)
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_MalformedYAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "llm: [unterminated\n")

	_, err := Load(path)
	assert.ErrorContains(t, err, "parse config")
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.LLM.Provider = "openai"
	cfg.Knowledge.Backend = "bigquery"
	cfg.Analysis.Workers = 500
	cfg.Notion.Token = "secret"

	err := Validate(cfg)
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "config validation errors:")
	assert.Contains(t, msg, "LLM.Provider must be one of [gemini local none]")
	assert.Contains(t, msg, "Analysis.Workers must be lte 64")
	assert.Contains(t, msg, "Notion.ReportsDBID is required")
	assert.Contains(t, msg, "ProjectID is required when knowledge backend is bigquery")
}

func TestValidate_ScheduleNeedsSource(t *testing.T) {
	cfg := Default()
	cfg.Server.Schedule = "0 * * * *"

	err := Validate(cfg)
	assert.ErrorContains(t, err, "Server.ScheduleSource is required")
}

func TestDefault_IsValid(t *testing.T) {
	assert.NoError(t, Validate(Default()))
}

func TestRequireProject(t *testing.T) {
	cfg := Default()
	assert.Error(t, cfg.RequireProject())

	cfg.ProjectID = "p"
	assert.NoError(t, cfg.RequireProject())
}

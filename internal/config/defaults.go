// Package config provides configuration loading and defaults for readmegen.
package config

// DefaultRepoPath is the repository inspected when nothing else is configured.
const DefaultRepoPath = "."

// DefaultCommitDepth is how many recent commits are read from the repository.
const DefaultCommitDepth = 100

// DefaultConfigDir is the default location for readmegen configuration.
const DefaultConfigDir = "~/.config/readmegen"

// DefaultDBName is the filename for the SQLite run history database.
const DefaultDBName = "readmegen.db"

// RepoConfigName is the per-repository config file name (without extension).
const RepoConfigName = ".readmegen"

// Output file names, relative to the repository root.
const (
	DefaultReadmeFile   = "README.md"
	DefaultMetadataFile = "project_metadata.json"
	DefaultMetricsFile  = "ml_metrics.json"
)

// Supported LLM providers.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
)

// DefaultLLM holds the default LLM settings.
var DefaultLLM = LLM{
	Provider: ProviderAnthropic,
}

// DefaultModels maps a provider to the model used when llm.model is empty.
var DefaultModels = map[string]string{
	ProviderAnthropic: "claude-sonnet-4-20250514",
	ProviderOpenAI:    "gpt-4",
	ProviderGemini:    "gemini-2.5-flash",
}

// apiKeyEnv maps a provider to the environment variable holding its key.
var apiKeyEnv = map[string]string{
	ProviderAnthropic: "ANTHROPIC_API_KEY",
	ProviderOpenAI:    "OPENAI_API_KEY",
	ProviderGemini:    "GEMINI_API_KEY",
}

// DefaultGitHub holds the default GitHub settings.
var DefaultGitHub = GitHub{
	APIURL: "https://api.github.com",
}

// DefaultGit holds the default auto-commit settings.
var DefaultGit = Git{
	Remote: "origin",
}

// DefaultLogging holds the default logging settings.
var DefaultLogging = Logging{
	Level:          "info",
	RemoteEndpoint: "https://in.logs.betterstack.com",
}

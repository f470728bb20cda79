package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the top-level readmegen configuration.
type Config struct {
	RepoPath    string  `mapstructure:"repo_path"`
	CommitDepth int     `mapstructure:"commit_depth"`
	CI          bool    `mapstructure:"ci"`
	LLM         LLM     `mapstructure:"llm"`
	GitHub      GitHub  `mapstructure:"github"`
	Git         Git     `mapstructure:"git"`
	Logging     Logging `mapstructure:"logging"`
	Files       Files   `mapstructure:"files"`
	Store       Store   `mapstructure:"store"`
}

// LLM selects the completion backend.
type LLM struct {
	Provider string `mapstructure:"provider"`
	Model    string `mapstructure:"model"`
	APIKey   string `mapstructure:"api_key"`
	BaseURL  string `mapstructure:"base_url"`
}

// GitHub configures the pull request strategy.
type GitHub struct {
	Token      string `mapstructure:"token"`
	Repository string `mapstructure:"repository"`
	APIURL     string `mapstructure:"api_url"`
	CreatePR   bool   `mapstructure:"create_pr"`
}

// Git configures auto-commit after a local write.
type Git struct {
	AutoCommit bool   `mapstructure:"auto_commit"`
	AutoPush   bool   `mapstructure:"auto_push"`
	Remote     string `mapstructure:"remote"`
	Branch     string `mapstructure:"branch"`
}

// Logging configures the console and remote log sinks.
type Logging struct {
	Level          string `mapstructure:"level"`
	RemoteToken    string `mapstructure:"remote_token"`
	RemoteEndpoint string `mapstructure:"remote_endpoint"`
}

// Files names the artifacts written into the repository.
type Files struct {
	Readme   string `mapstructure:"readme"`
	Metadata string `mapstructure:"metadata"`
	Metrics  string `mapstructure:"metrics"`
}

// Store locates the run history database.
type Store struct {
	Path     string `mapstructure:"path"`
	Disabled bool   `mapstructure:"disabled"`
}

// ErrMissingAPIKey is returned by Validate when the selected LLM provider
// has no credential.
var ErrMissingAPIKey = errors.New("missing LLM API key")

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// envBindings maps config keys to the environment variables that set them.
// When several variables are listed the first non-empty one wins.
var envBindings = map[string][]string{
	"repo_path":               {"REPO_PATH", "GITHUB_WORKSPACE"},
	"commit_depth":            {"COMMIT_DEPTH"},
	"ci":                      {"CI"},
	"llm.provider":            {"LLM_PROVIDER"},
	"llm.model":               {"LLM_MODEL"},
	"llm.base_url":            {"LLM_BASE_URL"},
	"github.token":            {"GITHUB_TOKEN"},
	"github.repository":       {"GITHUB_REPOSITORY"},
	"github.api_url":          {"GITHUB_API_URL"},
	"github.create_pr":        {"CREATE_PR"},
	"git.auto_commit":         {"AUTO_COMMIT"},
	"git.auto_push":           {"AUTO_PUSH"},
	"git.remote":              {"GIT_REMOTE"},
	"git.branch":              {"GIT_BRANCH"},
	"logging.level":           {"LOG_LEVEL"},
	"logging.remote_token":    {"LOGTAIL_SOURCE_TOKEN"},
	"logging.remote_endpoint": {"LOGTAIL_ENDPOINT"},
	"store.path":              {"READMEGEN_DB"},
	"store.disabled":          {"READMEGEN_NO_STORE"},
}

// Load reads configuration from the given path (or the default locations),
// the environment and an optional .env file, and returns a Config with all
// defaults applied. The returned Config has not been validated.
func Load(cfgFile string) (*Config, error) {
	// A missing .env file is normal.
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("repo_path", DefaultRepoPath)
	v.SetDefault("commit_depth", DefaultCommitDepth)
	v.SetDefault("ci", false)
	v.SetDefault("llm.provider", DefaultLLM.Provider)
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("github.token", "")
	v.SetDefault("github.repository", "")
	v.SetDefault("github.api_url", DefaultGitHub.APIURL)
	v.SetDefault("github.create_pr", false)
	v.SetDefault("git.auto_commit", false)
	v.SetDefault("git.auto_push", false)
	v.SetDefault("git.remote", DefaultGit.Remote)
	v.SetDefault("git.branch", "")
	v.SetDefault("logging.level", DefaultLogging.Level)
	v.SetDefault("logging.remote_token", "")
	v.SetDefault("logging.remote_endpoint", DefaultLogging.RemoteEndpoint)
	v.SetDefault("files.readme", DefaultReadmeFile)
	v.SetDefault("files.metadata", DefaultMetadataFile)
	v.SetDefault("files.metrics", DefaultMetricsFile)
	v.SetDefault("store.path", filepath.Join(DefaultConfigDir, DefaultDBName))
	v.SetDefault("store.disabled", false)

	for key, envs := range envBindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(expandPath(cfgFile))
	} else {
		v.SetConfigName(RepoConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(expandPath(DefaultConfigDir))
	}

	// Read config file if it exists; missing file is not an error.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	if cfg.LLM.APIKey == "" {
		if env, ok := apiKeyEnv[cfg.LLM.Provider]; ok {
			cfg.LLM.APIKey = os.Getenv(env)
		}
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = DefaultModels[cfg.LLM.Provider]
	}

	cfg.RepoPath = expandPath(cfg.RepoPath)
	cfg.Store.Path = expandPath(cfg.Store.Path)

	return &cfg, nil
}

// Validate checks the configuration once at startup. A missing LLM
// credential is the only fatal condition; it wraps ErrMissingAPIKey.
func (c *Config) Validate() error {
	if _, ok := DefaultModels[c.LLM.Provider]; !ok {
		return fmt.Errorf("unknown llm provider %q (want anthropic, openai or gemini)", c.LLM.Provider)
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("%w: set %s", ErrMissingAPIKey, apiKeyEnv[c.LLM.Provider])
	}
	if c.CommitDepth <= 0 {
		return fmt.Errorf("commit_depth must be positive, got %d", c.CommitDepth)
	}
	return nil
}

// PRConfigured reports whether the pull request strategy can be used.
func (c *Config) PRConfigured() bool {
	return c.GitHub.CreatePR && c.GitHub.Token != "" && c.GitHub.Repository != ""
}

// RemoteLogging reports whether log records are shipped to the remote sink.
// Remote shipping is suppressed in CI.
func (c *Config) RemoteLogging() bool {
	return c.Logging.RemoteToken != "" && !c.CI
}

// APIKeyEnv returns the environment variable consulted for the provider's key.
func APIKeyEnv(provider string) string {
	return apiKeyEnv[provider]
}

// RepoFile joins name onto the repository root.
func (c *Config) RepoFile(name string) string {
	return filepath.Join(c.RepoPath, name)
}

// ConfigDir returns the expanded configuration directory.
func ConfigDir() string {
	return expandPath(DefaultConfigDir)
}

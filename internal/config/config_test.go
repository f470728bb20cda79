package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate clears every variable Load consults and moves into an empty
// directory so no stray .env or .readmegen.yaml is picked up.
func isolate(t *testing.T) {
	t.Helper()
	for _, envs := range envBindings {
		for _, e := range envs {
			t.Setenv(e, "")
		}
	}
	for _, e := range apiKeyEnv {
		t.Setenv(e, "")
	}
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultRepoPath, cfg.RepoPath)
	assert.Equal(t, DefaultCommitDepth, cfg.CommitDepth)
	assert.Equal(t, ProviderAnthropic, cfg.LLM.Provider)
	assert.Equal(t, DefaultModels[ProviderAnthropic], cfg.LLM.Model)
	assert.Equal(t, "origin", cfg.Git.Remote)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, DefaultReadmeFile, cfg.Files.Readme)
	assert.False(t, cfg.CI)
	assert.False(t, cfg.PRConfigured())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("GITHUB_WORKSPACE", "/github/workspace")
	t.Setenv("COMMIT_DEPTH", "25")
	t.Setenv("CI", "true")
	t.Setenv("AUTO_COMMIT", "true")
	t.Setenv("LLM_PROVIDER", "OpenAI")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("GITHUB_TOKEN", "ghp_x")
	t.Setenv("GITHUB_REPOSITORY", "octo/hello")
	t.Setenv("CREATE_PR", "1")
	t.Setenv("LOGTAIL_SOURCE_TOKEN", "tok")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/github/workspace", cfg.RepoPath)
	assert.Equal(t, 25, cfg.CommitDepth)
	assert.True(t, cfg.CI)
	assert.True(t, cfg.Git.AutoCommit)
	assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, "gpt-4", cfg.LLM.Model)
	assert.True(t, cfg.PRConfigured())
	// CI suppresses the remote sink even with a token.
	assert.False(t, cfg.RemoteLogging())
	require.NoError(t, cfg.Validate())
}

func TestLoad_RepoPathPrefersExplicitOverride(t *testing.T) {
	isolate(t)
	t.Setenv("REPO_PATH", "/explicit")
	t.Setenv("GITHUB_WORKSPACE", "/github/workspace")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/explicit", cfg.RepoPath)
}

func TestLoad_ConfigFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	content := "commit_depth: 7\nllm:\n  provider: gemini\n  api_key: g-key\ngit:\n  remote: upstream\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.CommitDepth)
	assert.Equal(t, ProviderGemini, cfg.LLM.Provider)
	assert.Equal(t, "g-key", cfg.LLM.APIKey)
	assert.Equal(t, "gemini-2.5-flash", cfg.LLM.Model)
	assert.Equal(t, "upstream", cfg.Git.Remote)
}

func TestLoad_DotEnv(t *testing.T) {
	isolate(t)
	os.Unsetenv("ANTHROPIC_API_KEY")
	require.NoError(t, os.WriteFile(".env", []byte("ANTHROPIC_API_KEY=from-dotenv\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("ANTHROPIC_API_KEY") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.LLM.APIKey)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
		missing bool
	}{
		{name: "ok", cfg: Config{CommitDepth: 10, LLM: LLM{Provider: "anthropic", APIKey: "k"}}},
		{name: "missing key", cfg: Config{CommitDepth: 10, LLM: LLM{Provider: "anthropic"}}, wantErr: true, missing: true},
		{name: "unknown provider", cfg: Config{CommitDepth: 10, LLM: LLM{Provider: "llama", APIKey: "k"}}, wantErr: true},
		{name: "zero depth", cfg: Config{LLM: LLM{Provider: "openai", APIKey: "k"}}, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if !tc.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tc.missing, errors.Is(err, ErrMissingAPIKey))
		})
	}
}

func TestRemoteLogging(t *testing.T) {
	cfg := Config{Logging: Logging{RemoteToken: "tok"}}
	assert.True(t, cfg.RemoteLogging())
	cfg.CI = true
	assert.False(t, cfg.RemoteLogging())
	cfg = Config{}
	assert.False(t, cfg.RemoteLogging())
}

package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	OpenAIAPIKey   string `mapstructure:"openai_api_key"`
	OpenAIModel    string `mapstructure:"openai_model"`
	AnthropicKey   string `mapstructure:"anthropic_api_key"`
	AnthropicModel string `mapstructure:"anthropic_model"`
	GithubToken    string `mapstructure:"github_token"`
	GithubOwner    string `mapstructure:"github_owner"`
	GithubRepo     string `mapstructure:"github_repo"`
	HistoryDir     string `mapstructure:"history_dir"`
	TutorialDir    string `mapstructure:"tutorial_dir"`
	DocsCacheDir   string `mapstructure:"docs_cache_dir"`
	LogLevel       string `mapstructure:"log_level"`
	LogFile        string `mapstructure:"log_file"`
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		OpenAIModel:    "gpt-4-turbo-preview",
		AnthropicModel: "claude-3-opus-20240229",
		HistoryDir:     ".sdk-sessions",
		TutorialDir:    "tutorials",
		DocsCacheDir:   ".docs-cache",
		LogLevel:       "info",
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Provider keys are optional at load time - commands that need them
	// validate explicitly via ValidateForAnalysis
	if c.OpenAIAPIKey != "" {
		if err := ValidateAPIKey(c.OpenAIAPIKey, "openai"); err != nil {
			return fmt.Errorf("invalid openai_api_key: %w", err)
		}
	}
	if c.AnthropicKey != "" {
		if err := ValidateAPIKey(c.AnthropicKey, "anthropic"); err != nil {
			return fmt.Errorf("invalid anthropic_api_key: %w", err)
		}
	}
	if c.GithubToken != "" {
		if err := ValidateGitHubToken(c.GithubToken); err != nil {
			return fmt.Errorf("invalid github_token: %w", err)
		}
	}
	if c.GithubOwner != "" || c.GithubRepo != "" {
		if err := ValidateGitHubOwnerRepo(c.GithubOwner, c.GithubRepo); err != nil {
			return fmt.Errorf("invalid github configuration: %w", err)
		}
	}
	for name, dir := range map[string]string{
		"history_dir":    c.HistoryDir,
		"tutorial_dir":   c.TutorialDir,
		"docs_cache_dir": c.DocsCacheDir,
	} {
		if dir == "" {
			return fmt.Errorf("%s cannot be empty", name)
		}
		if strings.Contains(dir, "..") {
			return fmt.Errorf("%s contains invalid path traversal", name)
		}
	}
	return nil
}

// ValidateForAnalysis validates that both AI provider keys are present.
func (c *Config) ValidateForAnalysis() error {
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("openai_api_key is required: set OPENAI_API_KEY")
	}
	if c.AnthropicKey == "" {
		return fmt.Errorf("anthropic_api_key is required: set ANTHROPIC_API_KEY")
	}
	return c.Validate()
}

// ValidateForGitHubOperations validates that GitHub settings are present
// for operations that file issues.
func (c *Config) ValidateForGitHubOperations() error {
	if c.GithubToken == "" {
		return fmt.Errorf("github_token is required for GitHub operations")
	}
	if c.GithubOwner == "" || c.GithubRepo == "" {
		return fmt.Errorf("github_owner and github_repo are required for GitHub operations")
	}
	return c.Validate()
}

// GitHubConfigured reports whether issue reporting can be enabled.
func (c *Config) GitHubConfigured() bool {
	return c.GithubToken != "" && c.GithubOwner != "" && c.GithubRepo != ""
}

// ValidateAPIKey validates API key format for a given provider.
func ValidateAPIKey(key, provider string) error {
	key = strings.TrimSpace(key)
	patterns := map[string]*regexp.Regexp{
		"openai":    regexp.MustCompile(`^sk-[A-Za-z0-9_-]{20,}$`),
		"anthropic": regexp.MustCompile(`^sk-ant-[A-Za-z0-9_-]{20,}$`),
	}
	pattern, ok := patterns[provider]
	if !ok {
		return fmt.Errorf("unknown provider: %s", provider)
	}
	if !pattern.MatchString(key) {
		return fmt.Errorf("invalid %s key format", provider)
	}
	return nil
}

// ValidateGitHubToken validates GitHub token format (exported for reuse)
func ValidateGitHubToken(token string) error {
	token = strings.TrimSpace(token)
	if len(token) < 40 {
		return fmt.Errorf("token too short: expected at least 40 characters")
	}
	classicPAT := regexp.MustCompile(`^[a-fA-F0-9]{40}$`)
	fineGrainedPAT := regexp.MustCompile(`^github_pat_[a-zA-Z0-9_]{82}$`)
	appToken := regexp.MustCompile(`^ghs_[a-zA-Z0-9]{36}$`)
	oauthToken := regexp.MustCompile(`^gho_[a-zA-Z0-9]{36}$`)
	if !classicPAT.MatchString(token) &&
		!fineGrainedPAT.MatchString(token) &&
		!appToken.MatchString(token) &&
		!oauthToken.MatchString(token) {
		return fmt.Errorf("invalid token format")
	}
	return nil
}

// ValidateGitHubOwnerRepo validates GitHub owner and repository names (exported for reuse)
func ValidateGitHubOwnerRepo(owner, repo string) error {
	if owner == "" {
		return fmt.Errorf("owner cannot be empty")
	}
	if repo == "" {
		return fmt.Errorf("repository cannot be empty")
	}
	validName := regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9\-_.]*[a-zA-Z0-9]$|^[a-zA-Z0-9]$`)
	if !validName.MatchString(owner) {
		return fmt.Errorf("invalid owner format: %s", owner)
	}
	if len(owner) > 39 {
		return fmt.Errorf("owner too long: maximum 39 characters")
	}
	if !validName.MatchString(repo) {
		return fmt.Errorf("invalid repository format: %s", repo)
	}
	if len(repo) > 100 {
		return fmt.Errorf("repository too long: maximum 100 characters")
	}
	return nil
}

func LoadConfig() (*Config, error) {
	// Best-effort .env load so keys work the same whether exported or
	// kept in a dotfile
	_ = godotenv.Load()
	viper.SetConfigName(".sdk-assistant")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.SetEnvPrefix("SDK_ASSISTANT")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	// BindEnv allows multiple env vars - it will check them in order
	bindings := map[string][]string{
		"openai_api_key":    {"OPENAI_API_KEY"},
		"openai_model":      {"OPENAI_MODEL"},
		"anthropic_api_key": {"ANTHROPIC_API_KEY"},
		"anthropic_model":   {"ANTHROPIC_MODEL"},
		"github_token":      {"GITHUB_TOKEN"},
		"github_owner":      {"GITHUB_OWNER"},
		"github_repo":       {"GITHUB_REPO"},
		"history_dir":       {"HISTORY_DIR"},
		"tutorial_dir":      {"TUTORIAL_DIR"},
		"docs_cache_dir":    {"DOCS_CACHE_DIR"},
		"log_level":         {"LOG_LEVEL"},
		"log_file":          {"LOG_FILE"},
	}
	for key, envs := range bindings {
		args := append([]string{key}, envs...)
		if err := viper.BindEnv(args...); err != nil {
			return nil, fmt.Errorf("failed to bind %s env: %w", key, err)
		}
	}
	defaults := DefaultConfig()
	viper.SetDefault("openai_model", defaults.OpenAIModel)
	viper.SetDefault("anthropic_model", defaults.AnthropicModel)
	viper.SetDefault("history_dir", defaults.HistoryDir)
	viper.SetDefault("tutorial_dir", defaults.TutorialDir)
	viper.SetDefault("docs_cache_dir", defaults.DocsCacheDir)
	viper.SetDefault("log_level", defaults.LogLevel)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}
	if config.GithubOwner == "" || config.GithubRepo == "" {
		if err := populateRepositoryDefaults(&config); err != nil {
			return nil, err
		}
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &config, nil
}

// populateRepositoryDefaults fills GithubOwner/GithubRepo from the
// GITHUB_REPOSITORY slug or, failing that, the origin remote of the
// repository in the working directory.
func populateRepositoryDefaults(cfg *Config) error {
	if slug := os.Getenv("GITHUB_REPOSITORY"); slug != "" {
		if idx := strings.Index(slug, "/"); idx > 0 && idx < len(slug)-1 {
			if cfg.GithubOwner == "" {
				cfg.GithubOwner = slug[:idx]
			}
			if cfg.GithubRepo == "" {
				cfg.GithubRepo = slug[idx+1:]
			}
			return nil
		}
	}
	if owner := os.Getenv("GITHUB_REPOSITORY_OWNER"); owner != "" && cfg.GithubOwner == "" {
		cfg.GithubOwner = owner
	}
	if repoName := os.Getenv("GITHUB_REPOSITORY_NAME"); repoName != "" && cfg.GithubRepo == "" {
		cfg.GithubRepo = repoName
	}
	if cfg.GithubOwner != "" && cfg.GithubRepo != "" {
		return nil
	}
	repo, err := git.PlainOpen(".")
	if err != nil {
		// Not running inside a repository - leave the fields unset
		return nil
	}
	remote, err := repo.Remote("origin")
	if err != nil || len(remote.Config().URLs) == 0 {
		return nil
	}
	owner, repoName, err := parseGitRemoteURL(remote.Config().URLs[0])
	if err != nil {
		return nil
	}
	if cfg.GithubOwner == "" {
		cfg.GithubOwner = owner
	}
	if cfg.GithubRepo == "" {
		cfg.GithubRepo = repoName
	}
	return nil
}

// parseGitRemoteURL extracts owner and repository from https, ssh and
// plain path remote URLs.
func parseGitRemoteURL(url string) (string, string, error) {
	trimmed := strings.TrimSuffix(url, ".git")
	if idx := strings.Index(trimmed, ":"); idx >= 0 && !strings.HasPrefix(trimmed, "http") {
		trimmed = trimmed[idx+1:]
	}
	trimmed = strings.ReplaceAll(trimmed, "\\", "/")
	parts := strings.Split(strings.Trim(trimmed, "/"), "/")
	if len(parts) < 2 {
		return "", "", fmt.Errorf("unparseable remote url: %s", url)
	}
	owner := parts[len(parts)-2]
	repoName := parts[len(parts)-1]
	if owner == "" || repoName == "" {
		return "", "", fmt.Errorf("unparseable remote url: %s", url)
	}
	return owner, repoName, nil
}

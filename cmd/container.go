package cmd

import (
	"fmt"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/sdkassist/sdkassist/internal/config"
	"github.com/sdkassist/sdkassist/internal/logger"
	"github.com/sdkassist/sdkassist/internal/repository"
	"github.com/sdkassist/sdkassist/internal/service"
)

// container holds all the dependencies for the application.

type container struct {
	cfg *config.Config
	log *zap.Logger

	fs       afero.Fs
	store    repository.SessionStore
	runner   service.RunnerService
	analyzer service.AnalyzerService
	docs     service.DocsService
	gitRepo  repository.GitRepository
	issues   repository.IssueRepository
}

// newContainer creates a new container with all the dependencies.
func newContainer() (*container, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	fs := afero.NewOsFs()
	store := repository.NewJSONSessionStore(fs, cfg.HistoryDir)
	runner := service.NewRunnerService()
	docs := service.NewDocsService(fs, cfg.DocsCacheDir)

	analyzer, err := buildAnalyzer(cfg, log)
	if err != nil {
		return nil, err
	}

	// Repo context is optional - the working directory may not be a repo
	gitRepo, err := repository.NewGitRepository()
	if err != nil {
		log.Debug("no git repository detected", zap.Error(err))
		gitRepo = nil
	}

	issues, err := buildIssueRepository(cfg)
	if err != nil {
		return nil, err
	}

	return &container{
		cfg:      cfg,
		log:      log,
		fs:       fs,
		store:    store,
		runner:   runner,
		analyzer: analyzer,
		docs:     docs,
		gitRepo:  gitRepo,
		issues:   issues,
	}, nil
}

// buildAnalyzer creates one LLM client per configured provider. With no
// API keys at all the analyzer is nil and analysis steps are skipped.
func buildAnalyzer(cfg *config.Config, log *zap.Logger) (service.AnalyzerService, error) {
	var clients []service.LLMClient
	if cfg.OpenAIAPIKey != "" {
		client, err := service.NewLLMClient(service.LLMConfig{
			Provider: service.ProviderOpenAI,
			APIKey:   cfg.OpenAIAPIKey,
			Model:    cfg.OpenAIModel,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize openai client: %w", err)
		}
		clients = append(clients, client)
	}
	if cfg.AnthropicKey != "" {
		client, err := service.NewLLMClient(service.LLMConfig{
			Provider: service.ProviderAnthropic,
			APIKey:   cfg.AnthropicKey,
			Model:    cfg.AnthropicModel,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize anthropic client: %w", err)
		}
		clients = append(clients, client)
	}
	if len(clients) == 0 {
		log.Warn("no AI provider configured, analysis disabled")
		return nil, nil
	}
	return service.NewDualAnalyzer(log, clients...)
}

// buildIssueRepository returns the real GitHub-backed repository when a
// token is configured, otherwise a no-op that makes write attempts fail
// with a descriptive error.
func buildIssueRepository(cfg *config.Config) (repository.IssueRepository, error) {
	if cfg.GitHubConfigured() {
		return repository.NewIssueRepository(cfg.GithubToken, cfg.GithubOwner, cfg.GithubRepo)
	}
	return repository.NewIssueNoopRepository(cfg.GithubOwner, cfg.GithubRepo), nil
}

// InitCommands initializes all commands with their dependencies
func InitCommands() error {
	c, err := newContainer()
	if err != nil {
		return err
	}

	rootCmd.AddCommand(newStartCmd(c))
	rootCmd.AddCommand(newHistoryCmd(c))
	rootCmd.AddCommand(newVersionCmd())
	return nil
}

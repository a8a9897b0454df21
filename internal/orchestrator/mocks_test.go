package orchestrator

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sdkassist/sdkassist/internal/domain"
	"github.com/sdkassist/sdkassist/internal/service"
)

// Mock for SessionStore
type mockSessionStore struct{ mock.Mock }

func (m *mockSessionStore) Save(ctx context.Context, session *domain.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *mockSessionStore) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	args := m.Called(ctx, sessionID)
	if s := args.Get(0); s != nil {
		return s.(*domain.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSessionStore) LoadLatest(ctx context.Context) (*domain.Session, error) {
	args := m.Called(ctx)
	if s := args.Get(0); s != nil {
		return s.(*domain.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSessionStore) List(ctx context.Context) ([]domain.Session, error) {
	args := m.Called(ctx)
	if s := args.Get(0); s != nil {
		return s.([]domain.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSessionStore) Delete(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *mockSessionStore) Exists(ctx context.Context, sessionID string) (bool, error) {
	args := m.Called(ctx, sessionID)
	return args.Bool(0), args.Error(1)
}

// Mock for RunnerService
type mockRunnerService struct{ mock.Mock }

func (m *mockRunnerService) Run(ctx context.Context, command string) (*domain.CommandRecord, error) {
	args := m.Called(ctx, command)
	if r := args.Get(0); r != nil {
		return r.(*domain.CommandRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

// Mock for AnalyzerService
type mockAnalyzerService struct{ mock.Mock }

func (m *mockAnalyzerService) Analyze(
	ctx context.Context,
	req service.AnalysisRequest,
) ([]domain.ProviderResult, error) {
	args := m.Called(ctx, req)
	if r := args.Get(0); r != nil {
		return r.([]domain.ProviderResult), args.Error(1)
	}
	return nil, args.Error(1)
}

// Mock for DocsService
type mockDocsService struct{ mock.Mock }

func (m *mockDocsService) Lookup(ctx context.Context, pin domain.PackagePin) (*domain.PackageDoc, error) {
	args := m.Called(ctx, pin)
	if d := args.Get(0); d != nil {
		return d.(*domain.PackageDoc), args.Error(1)
	}
	return nil, args.Error(1)
}

// Mock for GitRepository
type mockGitRepository struct{ mock.Mock }

func (m *mockGitRepository) Describe(ctx context.Context) (*domain.RepoContext, error) {
	args := m.Called(ctx)
	if r := args.Get(0); r != nil {
		return r.(*domain.RepoContext), args.Error(1)
	}
	return nil, args.Error(1)
}

// Mock for IssueRepository
type mockIssueRepository struct{ mock.Mock }

func (m *mockIssueRepository) CreateIssue(
	ctx context.Context,
	title, body string,
	labels []string,
) (int, string, error) {
	args := m.Called(ctx, title, body, labels)
	return args.Int(0), args.String(1), args.Error(2)
}

func (m *mockIssueRepository) FindSimilarIssues(ctx context.Context, query string) ([]domain.IssueRef, error) {
	args := m.Called(ctx, query)
	if r := args.Get(0); r != nil {
		return r.([]domain.IssueRef), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockIssueRepository) AddComment(ctx context.Context, number int, body string) error {
	args := m.Called(ctx, number, body)
	return args.Error(0)
}

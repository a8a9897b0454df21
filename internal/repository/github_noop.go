package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/sdkassist/sdkassist/internal/domain"
)

var ErrGithubTokenRequired = errors.New("github token is required for GitHub operations")

// issueNoopRepository stands in when GitHub is not configured or the
// session runs in dry-run mode. Searches report no matches; writes fail
// with ErrGithubTokenRequired.
type issueNoopRepository struct {
	owner string
	repo  string
}

func NewIssueNoopRepository(owner, repo string) IssueRepository {
	return &issueNoopRepository{owner: owner, repo: repo}
}

func (r *issueNoopRepository) CreateIssue(_ context.Context, _, _ string, _ []string) (int, string, error) {
	return 0, "", r.operationError("create issue")
}

func (r *issueNoopRepository) FindSimilarIssues(_ context.Context, _ string) ([]domain.IssueRef, error) {
	return nil, nil
}

func (r *issueNoopRepository) AddComment(_ context.Context, _ int, _ string) error {
	return r.operationError("add comment")
}

func (r *issueNoopRepository) operationError(action string) error {
	return fmt.Errorf("%w: unable to %s for %s/%s", ErrGithubTokenRequired, action, r.owner, r.repo)
}

package repository

import (
	"context"
	"fmt"

	"github.com/go-git/go-git/v5"

	"github.com/sdkassist/sdkassist/internal/domain"
)

// gitRepository is the implementation of the GitRepository interface.

type gitRepository struct {
	repo *git.Repository
}

// NewGitRepository opens the repository in the working directory.
func NewGitRepository() (GitRepository, error) {
	repo, err := git.PlainOpen(".")
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository: %w", err)
	}
	return &gitRepository{repo: repo}, nil
}

// NewGitRepositoryAt opens the repository at the given path.
func NewGitRepositoryAt(path string) (GitRepository, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository: %w", err)
	}
	return &gitRepository{repo: repo}, nil
}

// Describe returns the current branch, short commit hash and worktree
// dirty flag. A repository without commits yields an error.
func (r *gitRepository) Describe(_ context.Context) (*domain.RepoContext, error) {
	head, err := r.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	rc := &domain.RepoContext{
		Branch: head.Name().Short(),
		Commit: head.Hash().String()[:8],
	}
	worktree, err := r.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to open worktree: %w", err)
	}
	status, err := worktree.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to compute worktree status: %w", err)
	}
	rc.Dirty = !status.IsClean()
	if remote, err := r.repo.Remote("origin"); err == nil {
		if urls := remote.Config().URLs; len(urls) > 0 {
			rc.RemoteURL = urls[0]
		}
	}
	return rc, nil
}

package repository

import (
	"context"

	"github.com/sdkassist/sdkassist/internal/domain"
)

// GitRepository defines the interface for reading working-repository state.

type GitRepository interface {
	// Describe returns the branch, commit and dirty flag of the
	// repository in the working directory
	Describe(ctx context.Context) (*domain.RepoContext, error)
}

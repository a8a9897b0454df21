package repository

import (
	"context"

	"github.com/sdkassist/sdkassist/internal/domain"
)

// IssueRepository defines the interface for GitHub issue operations.

type IssueRepository interface {
	// CreateIssue files a new issue and returns its number and URL
	CreateIssue(ctx context.Context, title, body string, labels []string) (int, string, error)
	// FindSimilarIssues searches open issues matching the given text
	FindSimilarIssues(ctx context.Context, query string) ([]domain.IssueRef, error)
	// AddComment adds a comment to an existing issue
	AddComment(ctx context.Context, number int, body string) error
}

package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-github/v74/github"
	"golang.org/x/oauth2"

	"github.com/sdkassist/sdkassist/internal/config"
	"github.com/sdkassist/sdkassist/internal/domain"
)

// issueRepository is the implementation of the IssueRepository interface.
type issueRepository struct {
	client *github.Client
	owner  string
	repo   string
}

// NewIssueRepository creates a new IssueRepository with validation.
func NewIssueRepository(token, owner, repo string) (IssueRepository, error) {
	if err := config.ValidateGitHubToken(token); err != nil {
		return nil, fmt.Errorf("invalid GitHub token: %w", err)
	}
	if err := config.ValidateGitHubOwnerRepo(owner, repo); err != nil {
		return nil, fmt.Errorf("invalid repository configuration: %w", err)
	}

	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: strings.TrimSpace(token)},
	)
	tc := oauth2.NewClient(context.Background(), ts)
	client := github.NewClient(tc)

	return &issueRepository{
		client: client,
		owner:  owner,
		repo:   repo,
	}, nil
}

// CreateIssue files a new issue with the given title, body and labels.
func (r *issueRepository) CreateIssue(
	ctx context.Context,
	title, body string,
	labels []string,
) (int, string, error) {
	req := &github.IssueRequest{
		Title: github.Ptr(title),
		Body:  github.Ptr(body),
	}
	if len(labels) > 0 {
		req.Labels = &labels
	}
	issue, _, err := r.client.Issues.Create(ctx, r.owner, r.repo, req)
	if err != nil {
		return 0, "", fmt.Errorf("failed to create issue: %w", err)
	}
	return issue.GetNumber(), issue.GetHTMLURL(), nil
}

// FindSimilarIssues searches open issues in the repository matching the
// query text. Used to avoid filing duplicate reports.
func (r *issueRepository) FindSimilarIssues(ctx context.Context, query string) ([]domain.IssueRef, error) {
	q := fmt.Sprintf("repo:%s/%s is:issue is:open %s", r.owner, r.repo, sanitizeSearchQuery(query))
	result, _, err := r.client.Search.Issues(ctx, q, &github.SearchOptions{
		ListOptions: github.ListOptions{PerPage: 5},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search issues: %w", err)
	}
	refs := make([]domain.IssueRef, 0, len(result.Issues))
	for _, issue := range result.Issues {
		refs = append(refs, domain.IssueRef{
			Number: issue.GetNumber(),
			Title:  issue.GetTitle(),
			URL:    issue.GetHTMLURL(),
		})
	}
	return refs, nil
}

// AddComment adds a comment to an existing issue.
func (r *issueRepository) AddComment(ctx context.Context, number int, body string) error {
	comment := &github.IssueComment{
		Body: github.Ptr(body),
	}
	_, _, err := r.client.Issues.CreateComment(ctx, r.owner, r.repo, number, comment)
	if err != nil {
		return fmt.Errorf("failed to add comment to issue #%d: %w", number, err)
	}
	return nil
}

// sanitizeSearchQuery strips characters with special meaning in the
// GitHub search syntax so raw error text can be used as a query.
func sanitizeSearchQuery(query string) string {
	replacer := strings.NewReplacer(
		`"`, " ",
		":", " ",
		"(", " ",
		")", " ",
		"[", " ",
		"]", " ",
		">", " ",
		"<", " ",
	)
	cleaned := strings.Join(strings.Fields(replacer.Replace(query)), " ")
	// GitHub rejects queries over 256 characters
	if len(cleaned) > 200 {
		cleaned = cleaned[:200]
	}
	return cleaned
}

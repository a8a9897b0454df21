package usecase

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/sdkassist/sdkassist/internal/domain"
)

// PrepareIssueUseCase renders the markdown body for a GitHub issue
// describing a persistent command failure.
type PrepareIssueUseCase struct{}

// IssueInput collects everything the body template needs. Repo and
// Analysis are optional and their sections are omitted when nil.
type IssueInput struct {
	Session *domain.Session
	Record  *domain.CommandRecord
	Report  *domain.ErrorReport
	Repo    *domain.RepoContext
}

// Execute returns the issue title and body. The record's analysis, when
// present, contributes the AI insights section.
func (uc *PrepareIssueUseCase) Execute(input IssueInput) (string, string, error) {
	if input.Record == nil {
		return "", "", fmt.Errorf("command record cannot be nil")
	}
	if input.Report == nil {
		return "", "", fmt.Errorf("error report cannot be nil")
	}

	title := fmt.Sprintf("[%s] %s", input.Report.Type, input.Report.Summary)

	data := issueTemplateData{
		Summary:   input.Report.Summary,
		ErrorType: string(input.Report.Type),
		Severity:  string(input.Report.Severity),
		Command:   input.Record.Command,
		ExitCode:  input.Record.ExitCode,
		Duration:  input.Record.Duration.String(),
		Stderr:    truncateOutput(input.Record.Stderr, maxIssueOutputLength),
	}
	if input.Session != nil {
		data.Goal = input.Session.Goal
		data.Failures = input.Session.FailureCount(input.Record.Command)
	}
	if input.Repo != nil {
		data.Repo = &issueRepoData{
			Branch: input.Repo.Branch,
			Commit: input.Repo.Commit,
			Dirty:  input.Repo.Dirty,
		}
	}
	if input.Record.Analysis != nil {
		data.Insights = input.Record.Analysis.Insights
		data.Degraded = input.Record.Analysis.Degraded
	}

	tmpl, err := template.New("issue-body").Parse(issueBodyTemplate)
	if err != nil {
		return "", "", fmt.Errorf("failed to parse issue body template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("failed to render issue body: %w", err)
	}
	return title, strings.TrimSpace(buf.String()) + "\n", nil
}

const maxIssueOutputLength = 4000

func truncateOutput(output string, limit int) string {
	output = strings.TrimSpace(output)
	if len(output) <= limit {
		return output
	}
	return output[:limit] + "\n... (truncated)"
}

type issueTemplateData struct {
	Summary   string
	ErrorType string
	Severity  string
	Command   string
	ExitCode  int
	Duration  string
	Stderr    string
	Goal      string
	Failures  int
	Repo      *issueRepoData
	Insights  []string
	Degraded  bool
}

type issueRepoData struct {
	Branch string
	Commit string
	Dirty  bool
}

const issueBodyTemplate = `## Summary

{{.Summary}}

- **Error type:** {{.ErrorType}}
- **Severity:** {{.Severity}}
{{- if .Goal}}
- **Session goal:** {{.Goal}}
{{- end}}
{{- if gt .Failures 1}}
- **Occurrences this session:** {{.Failures}}
{{- end}}

## Command

` + "```sh\n{{.Command}}\n```" + `

- **Exit code:** {{.ExitCode}}
- **Duration:** {{.Duration}}

## Error Output

` + "```\n{{.Stderr}}\n```" + `
{{- if .Repo}}

## Repository Context

- **Branch:** {{.Repo.Branch}}
- **Commit:** {{.Repo.Commit}}
{{- if .Repo.Dirty}}
- **Working tree:** dirty
{{- end}}
{{- end}}
{{- if .Insights}}

## AI Analysis
{{if .Degraded}}
_Partial analysis: one provider was unavailable._
{{end}}
{{- range .Insights}}
- {{.}}
{{- end}}
{{- end}}

---
_Filed automatically by sdk-assistant._
`

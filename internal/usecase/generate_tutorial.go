package usecase

import (
	"bytes"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/spf13/afero"

	"github.com/sdkassist/sdkassist/internal/domain"
)

// GenerateTutorialUseCase renders a markdown walkthrough of a completed
// session and writes it to the tutorial directory.
type GenerateTutorialUseCase struct {
	fs  afero.Fs
	dir string
}

// NewGenerateTutorialUseCase creates the use case writing into dir.
func NewGenerateTutorialUseCase(fs afero.Fs, dir string) *GenerateTutorialUseCase {
	return &GenerateTutorialUseCase{fs: fs, dir: dir}
}

// TutorialInput carries the session plus optional enrichment. Insights
// come from the session-digest analysis and may be empty when no AI
// provider was reachable; the tutorial is still generated from the
// tracked data alone.
type TutorialInput struct {
	Session  *domain.Session
	Insights []string
	Docs     []domain.PackageDoc
}

// Execute renders the tutorial and returns the path it was written to.
func (uc *GenerateTutorialUseCase) Execute(input TutorialInput) (string, error) {
	if input.Session == nil {
		return "", fmt.Errorf("session cannot be nil")
	}
	if len(input.Session.Commands) == 0 {
		return "", fmt.Errorf("session has no tracked commands")
	}

	body, err := uc.render(input)
	if err != nil {
		return "", err
	}

	if err := uc.fs.MkdirAll(uc.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create tutorial directory: %w", err)
	}

	path := filepath.Join(uc.dir, tutorialFilename(input.Session))
	tmpPath := path + ".tmp"
	if err := afero.WriteFile(uc.fs, tmpPath, []byte(body), 0o644); err != nil {
		return "", fmt.Errorf("failed to write tutorial: %w", err)
	}
	if err := uc.fs.Rename(tmpPath, path); err != nil {
		_ = uc.fs.Remove(tmpPath)
		return "", fmt.Errorf("failed to finalize tutorial: %w", err)
	}
	return path, nil
}

func (uc *GenerateTutorialUseCase) render(input TutorialInput) (string, error) {
	session := input.Session

	data := tutorialTemplateData{
		Title:     tutorialTitle(session.Goal),
		Goal:      session.Goal,
		Date:      session.StartedAt.Format("2006-01-02"),
		Duration:  session.Duration().Round(time.Second).String(),
		Succeeded: len(session.Commands) - len(session.FailedCommands()),
		Total:     len(session.Commands),
		Insights:  input.Insights,
	}

	for _, cmd := range session.Commands {
		step := tutorialStep{
			Seq:      cmd.Seq,
			Command:  cmd.Command,
			ExitCode: cmd.ExitCode,
			Output:   truncateOutput(cmd.Output, maxTutorialOutputLength),
		}
		data.Steps = append(data.Steps, step)
		if cmd.Failed() {
			issue := tutorialIssue{
				Command: cmd.Command,
				Stderr:  truncateOutput(cmd.Stderr, maxTutorialOutputLength),
			}
			if cmd.Report != nil {
				issue.ErrorType = string(cmd.Report.Type)
			}
			if cmd.Analysis != nil {
				issue.Insights = cmd.Analysis.Insights
			}
			data.Issues = append(data.Issues, issue)
		}
	}

	seen := make(map[string]bool)
	for _, doc := range input.Docs {
		if doc.URL == "" || seen[doc.URL] {
			continue
		}
		seen[doc.URL] = true
		data.Resources = append(data.Resources, tutorialResource{
			Name:        doc.Name,
			URL:         doc.URL,
			Description: doc.Description,
		})
	}

	tmpl, err := template.New("tutorial").Parse(tutorialTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse tutorial template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render tutorial: %w", err)
	}
	return strings.TrimSpace(buf.String()) + "\n", nil
}

const maxTutorialOutputLength = 1500

var slugInvalidChars = regexp.MustCompile(`[^a-z0-9]+`)

// tutorialFilename builds a stable, filesystem-safe name from the goal
// and the session start time.
func tutorialFilename(session *domain.Session) string {
	slug := slugInvalidChars.ReplaceAllString(strings.ToLower(session.Goal), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "session"
	}
	if len(slug) > 60 {
		slug = strings.Trim(slug[:60], "-")
	}
	return fmt.Sprintf("%s-%s.md", session.StartedAt.Format("20060102-150405"), slug)
}

func tutorialTitle(goal string) string {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return "SDK Session Walkthrough"
	}
	first, size := utf8.DecodeRuneInString(goal)
	return string(unicode.ToUpper(first)) + goal[size:]
}

type tutorialTemplateData struct {
	Title     string
	Goal      string
	Date      string
	Duration  string
	Succeeded int
	Total     int
	Steps     []tutorialStep
	Issues    []tutorialIssue
	Insights  []string
	Resources []tutorialResource
}

type tutorialStep struct {
	Seq      int
	Command  string
	ExitCode int
	Output   string
}

type tutorialIssue struct {
	Command   string
	ErrorType string
	Stderr    string
	Insights  []string
}

type tutorialResource struct {
	Name        string
	URL         string
	Description string
}

const tutorialTemplate = `# {{.Title}}

## Overview

This tutorial documents a working session with the goal: **{{.Goal}}**.
It was recorded on {{.Date}} and took {{.Duration}}. {{.Succeeded}} of
{{.Total}} commands completed successfully.
{{- if .Insights}}

{{range .Insights}}- {{.}}
{{end}}
{{- end}}

## Prerequisites

- A POSIX shell.
- Network access for any package installs shown below.
{{- range .Resources}}
- [{{.Name}}]({{.URL}}) installed or available.
{{- end}}

## Steps
{{range .Steps}}
### Step {{.Seq}}

` + "```sh\n{{.Command}}\n```" + `
{{if eq .ExitCode 0}}The command completed successfully.
{{- if .Output}}

` + "```\n{{.Output}}\n```" + `
{{- end}}
{{else}}The command failed with exit code {{.ExitCode}}. See Common Issues below.
{{end}}
{{- end}}
{{- if .Issues}}

## Common Issues and Solutions
{{range .Issues}}
### {{.Command}}
{{if .ErrorType}}
Error type: ` + "`{{.ErrorType}}`" + `
{{end}}
` + "```\n{{.Stderr}}\n```" + `
{{- if .Insights}}
{{range .Insights}}
- {{.}}
{{- end}}
{{- end}}
{{end}}
{{- end}}
{{- if .Resources}}

## Additional Resources
{{range .Resources}}
- [{{.Name}}]({{.URL}}){{if .Description}}: {{.Description}}{{end}}
{{- end}}
{{- end}}
`

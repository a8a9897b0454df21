package usecase

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/sdkassist/sdkassist/internal/domain"
)

// ClassifyErrorUseCase turns a failed command record into a structured
// error report ready for issue filing.

type ClassifyErrorUseCase struct{}

// errorPatterns map stderr shapes to error types. Order matters: the
// first match wins.
var errorPatterns = []struct {
	errType domain.ErrorType
	pattern *regexp.Regexp
}{
	{domain.ErrorTypeCommandNotFound, regexp.MustCompile(`(?i)command not found|not recognized as an internal`)},
	{domain.ErrorTypePermissionDenied, regexp.MustCompile(`(?i)permission denied|PermissionError|operation not permitted`)},
	{domain.ErrorTypeModuleNotFound, regexp.MustCompile(`(?i)ModuleNotFoundError|ImportError|no module named|cannot find (module|package)`)},
	{domain.ErrorTypeSyntaxError, regexp.MustCompile(`(?i)SyntaxError|syntax error`)},
	{domain.ErrorTypeConnectionError, regexp.MustCompile(`(?i)ConnectionError|connection refused|could not resolve|network is unreachable`)},
	{domain.ErrorTypeFileNotFound, regexp.MustCompile(`(?i)no such file or directory|FileNotFoundError`)},
	{domain.ErrorTypeTimeout, regexp.MustCompile(`(?i)timed? ?out|deadline exceeded`)},
}

const maxSummaryLength = 100

// Execute classifies the failure and builds the report skeleton. The
// record must have a nonzero exit code.
func (uc *ClassifyErrorUseCase) Execute(record *domain.CommandRecord) (*domain.ErrorReport, error) {
	if record == nil || !record.Failed() {
		return nil, fmt.Errorf("record is not a failure")
	}

	errType := classifyErrorType(record.Stderr)
	severity := determineSeverity(record.Stderr, record.ExitCode)

	return &domain.ErrorReport{
		Type:     errType,
		Summary:  summarize(record),
		Severity: severity,
		Labels:   []string{"bug", string(errType), "severity:" + string(severity)},
	}, nil
}

func classifyErrorType(stderr string) domain.ErrorType {
	for _, entry := range errorPatterns {
		if entry.pattern.MatchString(stderr) {
			return entry.errType
		}
	}
	return domain.ErrorTypeUnknown
}

func determineSeverity(stderr string, exitCode int) domain.Severity {
	lower := strings.ToLower(stderr)
	switch {
	case exitCode > 2 || strings.Contains(lower, "critical") ||
		strings.Contains(lower, "panic") || strings.Contains(lower, "fatal"):
		return domain.SeverityCritical
	case exitCode == 2 || strings.Contains(lower, "warning"):
		return domain.SeverityWarning
	case exitCode == 1:
		return domain.SeverityMinor
	default:
		return domain.SeverityLow
	}
}

// summarize extracts the first nonempty stderr line, truncated to fit
// an issue title.
func summarize(record *domain.CommandRecord) string {
	for _, line := range strings.Split(record.Stderr, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		return truncateRunes(trimmed, maxSummaryLength)
	}
	summary := fmt.Sprintf("command %q failed with exit code %d", record.Command, record.ExitCode)
	return truncateRunes(summary, maxSummaryLength)
}

// truncateRunes cuts s to at most limit bytes without splitting a rune.
func truncateRunes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

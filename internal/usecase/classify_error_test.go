package usecase

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdkassist/sdkassist/internal/domain"
)

func TestClassifyErrorUseCase_Execute(t *testing.T) {
	uc := &ClassifyErrorUseCase{}

	t.Run("Should classify command not found", func(t *testing.T) {
		report, err := uc.Execute(&domain.CommandRecord{
			Command:  "pipp install requests",
			Stderr:   "sh: pipp: command not found",
			ExitCode: 127,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.ErrorTypeCommandNotFound, report.Type)
	})
	t.Run("Should classify permission denied", func(t *testing.T) {
		report, err := uc.Execute(&domain.CommandRecord{
			Command:  "pip install requests",
			Stderr:   "ERROR: Could not install packages: Permission denied",
			ExitCode: 1,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.ErrorTypePermissionDenied, report.Type)
	})
	t.Run("Should classify missing module", func(t *testing.T) {
		report, err := uc.Execute(&domain.CommandRecord{
			Command:  "python app.py",
			Stderr:   "ModuleNotFoundError: No module named 'requests'",
			ExitCode: 1,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.ErrorTypeModuleNotFound, report.Type)
	})
	t.Run("Should classify connection error", func(t *testing.T) {
		report, err := uc.Execute(&domain.CommandRecord{
			Command:  "curl https://api.example.com",
			Stderr:   "curl: (7) Failed to connect: Connection refused",
			ExitCode: 7,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.ErrorTypeConnectionError, report.Type)
	})
	t.Run("Should fall back to unknown error type", func(t *testing.T) {
		report, err := uc.Execute(&domain.CommandRecord{
			Command:  "make build",
			Stderr:   "something entirely unexpected happened",
			ExitCode: 1,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.ErrorTypeUnknown, report.Type)
	})
	t.Run("Should mark high exit codes as critical", func(t *testing.T) {
		report, err := uc.Execute(&domain.CommandRecord{
			Command:  "deploy.sh",
			Stderr:   "deployment aborted",
			ExitCode: 5,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.SeverityCritical, report.Severity)
	})
	t.Run("Should mark panic output as critical regardless of exit code", func(t *testing.T) {
		report, err := uc.Execute(&domain.CommandRecord{
			Command:  "go run .",
			Stderr:   "panic: runtime error: index out of range",
			ExitCode: 1,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.SeverityCritical, report.Severity)
	})
	t.Run("Should mark exit code two as warning", func(t *testing.T) {
		report, err := uc.Execute(&domain.CommandRecord{
			Command:  "ls missing",
			Stderr:   "ls: cannot access 'missing': No such file or directory",
			ExitCode: 2,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.SeverityWarning, report.Severity)
	})
	t.Run("Should mark exit code one as minor", func(t *testing.T) {
		report, err := uc.Execute(&domain.CommandRecord{
			Command:  "grep foo bar.txt",
			Stderr:   "grep: bar.txt: no matches",
			ExitCode: 1,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.SeverityMinor, report.Severity)
	})
	t.Run("Should use first stderr line as summary", func(t *testing.T) {
		report, err := uc.Execute(&domain.CommandRecord{
			Command:  "python app.py",
			Stderr:   "\nTraceback (most recent call last):\n  File \"app.py\", line 1",
			ExitCode: 1,
		})
		require.NoError(t, err)
		assert.Equal(t, "Traceback (most recent call last):", report.Summary)
	})
	t.Run("Should truncate long summaries", func(t *testing.T) {
		report, err := uc.Execute(&domain.CommandRecord{
			Command:  "run",
			Stderr:   strings.Repeat("x", 300),
			ExitCode: 1,
		})
		require.NoError(t, err)
		assert.Len(t, report.Summary, maxSummaryLength)
	})
	t.Run("Should truncate on rune boundaries", func(t *testing.T) {
		// Multibyte text positioned so a byte cut would split a rune.
		report, err := uc.Execute(&domain.CommandRecord{
			Command:  "run",
			Stderr:   strings.Repeat("é", 200),
			ExitCode: 1,
		})
		require.NoError(t, err)
		assert.True(t, utf8.ValidString(report.Summary))
		assert.LessOrEqual(t, len(report.Summary), maxSummaryLength)
	})
	t.Run("Should synthesize summary when stderr is empty", func(t *testing.T) {
		report, err := uc.Execute(&domain.CommandRecord{
			Command:  "false",
			ExitCode: 1,
		})
		require.NoError(t, err)
		assert.Contains(t, report.Summary, "false")
		assert.Contains(t, report.Summary, "exit code 1")
	})
	t.Run("Should attach type and severity labels", func(t *testing.T) {
		report, err := uc.Execute(&domain.CommandRecord{
			Command:  "pip install requests",
			Stderr:   "Permission denied",
			ExitCode: 1,
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"bug", "permission-denied", "severity:minor"}, report.Labels)
	})
	t.Run("Should reject a successful record", func(t *testing.T) {
		_, err := uc.Execute(&domain.CommandRecord{Command: "ls", ExitCode: 0})
		assert.Error(t, err)
	})
	t.Run("Should reject nil record", func(t *testing.T) {
		_, err := uc.Execute(nil)
		assert.Error(t, err)
	})
}

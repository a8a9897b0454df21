package usecase

import (
	"path/filepath"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdkassist/sdkassist/internal/domain"
)

func completedSession() *domain.Session {
	session := domain.NewSession("install the payments sdk")
	session.StartedAt = time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	session.AddCommand(domain.CommandRecord{
		Command: "pip install payments-sdk==1.2.0",
		Output:  "Successfully installed payments-sdk-1.2.0",
	})
	session.AddCommand(domain.CommandRecord{
		Command:  "python quickstart.py",
		Stderr:   "ModuleNotFoundError: No module named 'payments_sdk'",
		ExitCode: 1,
		Report:   &domain.ErrorReport{Type: domain.ErrorTypeModuleNotFound},
		Analysis: &domain.Analysis{Insights: []string{"Activate the virtualenv first"}},
	})
	session.AddCommand(domain.CommandRecord{
		Command: "python quickstart.py",
		Output:  "charge created",
	})
	session.Close(domain.SessionStatusCompleted)
	return session
}

func TestGenerateTutorialUseCase_Execute(t *testing.T) {
	t.Run("Should write tutorial with all sections", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		uc := NewGenerateTutorialUseCase(fs, "/tutorials")
		path, err := uc.Execute(TutorialInput{
			Session:  completedSession(),
			Insights: []string{"Always pin SDK versions"},
			Docs: []domain.PackageDoc{
				{Name: "payments-sdk", URL: "https://pypi.org/project/payments-sdk/", Description: "Payments client"},
			},
		})
		require.NoError(t, err)

		content, err := afero.ReadFile(fs, path)
		require.NoError(t, err)
		body := string(content)
		assert.Contains(t, body, "# Install the payments sdk")
		assert.Contains(t, body, "## Overview")
		assert.Contains(t, body, "## Prerequisites")
		assert.Contains(t, body, "## Steps")
		assert.Contains(t, body, "## Common Issues and Solutions")
		assert.Contains(t, body, "## Additional Resources")
		assert.Contains(t, body, "```sh\npip install payments-sdk==1.2.0\n```")
		assert.Contains(t, body, "Always pin SDK versions")
		assert.Contains(t, body, "Activate the virtualenv first")
		assert.Contains(t, body, "[payments-sdk](https://pypi.org/project/payments-sdk/): Payments client")
	})
	t.Run("Should report success ratio in overview", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		uc := NewGenerateTutorialUseCase(fs, "/tutorials")
		path, err := uc.Execute(TutorialInput{Session: completedSession()})
		require.NoError(t, err)
		content, err := afero.ReadFile(fs, path)
		require.NoError(t, err)
		assert.Contains(t, string(content), "2 of\n3 commands completed successfully")
	})
	t.Run("Should generate without AI insights", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		uc := NewGenerateTutorialUseCase(fs, "/tutorials")
		session := domain.NewSession("try the sdk")
		session.AddCommand(domain.CommandRecord{Command: "ls", Output: "README.md"})
		session.Close(domain.SessionStatusCompleted)
		path, err := uc.Execute(TutorialInput{Session: session})
		require.NoError(t, err)
		content, err := afero.ReadFile(fs, path)
		require.NoError(t, err)
		assert.Contains(t, string(content), "## Steps")
		assert.NotContains(t, string(content), "## Common Issues")
	})
	t.Run("Should slug the filename from the goal", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		uc := NewGenerateTutorialUseCase(fs, "/tutorials")
		path, err := uc.Execute(TutorialInput{Session: completedSession()})
		require.NoError(t, err)
		assert.Equal(t, "20240301-103000-install-the-payments-sdk.md", filepath.Base(path))
	})
	t.Run("Should capitalize multibyte goals safely", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		uc := NewGenerateTutorialUseCase(fs, "/tutorials")
		session := domain.NewSession("éprouver le sdk")
		session.AddCommand(domain.CommandRecord{Command: "ls"})
		session.Close(domain.SessionStatusCompleted)
		path, err := uc.Execute(TutorialInput{Session: session})
		require.NoError(t, err)
		content, err := afero.ReadFile(fs, path)
		require.NoError(t, err)
		assert.True(t, utf8.Valid(content))
		assert.Contains(t, string(content), "# Éprouver le sdk")
	})
	t.Run("Should fall back to generic slug for symbol-only goal", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		uc := NewGenerateTutorialUseCase(fs, "/tutorials")
		session := domain.NewSession("???")
		session.AddCommand(domain.CommandRecord{Command: "ls"})
		session.Close(domain.SessionStatusCompleted)
		path, err := uc.Execute(TutorialInput{Session: session})
		require.NoError(t, err)
		assert.Contains(t, filepath.Base(path), "session.md")
	})
	t.Run("Should not leave temp file behind", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		uc := NewGenerateTutorialUseCase(fs, "/tutorials")
		path, err := uc.Execute(TutorialInput{Session: completedSession()})
		require.NoError(t, err)
		exists, err := afero.Exists(fs, path+".tmp")
		require.NoError(t, err)
		assert.False(t, exists)
	})
	t.Run("Should reject a session without commands", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		uc := NewGenerateTutorialUseCase(fs, "/tutorials")
		session := domain.NewSession("empty")
		_, err := uc.Execute(TutorialInput{Session: session})
		assert.Error(t, err)
	})
	t.Run("Should reject nil session", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		uc := NewGenerateTutorialUseCase(fs, "/tutorials")
		_, err := uc.Execute(TutorialInput{})
		assert.Error(t, err)
	})
}

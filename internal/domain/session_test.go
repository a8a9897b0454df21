package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSession(t *testing.T) {
	t.Run("Should create active session with fresh ID and goal", func(t *testing.T) {
		session := NewSession("test the storage SDK")
		assert.NotEmpty(t, session.ID)
		assert.Equal(t, "test the storage SDK", session.Goal)
		assert.Equal(t, SessionStatusActive, session.Status)
		assert.Empty(t, session.Commands)
		assert.True(t, session.Active())
	})
	t.Run("Should create sessions with distinct IDs", func(t *testing.T) {
		a := NewSession("first")
		b := NewSession("second")
		assert.NotEqual(t, a.ID, b.ID)
	})
}

func TestSession_AddCommand(t *testing.T) {
	t.Run("Should stamp strictly increasing sequence numbers", func(t *testing.T) {
		session := NewSession("goal")
		first := session.AddCommand(CommandRecord{Command: "ls"})
		second := session.AddCommand(CommandRecord{Command: "pwd"})
		third := session.AddCommand(CommandRecord{Command: "ls"})
		assert.Equal(t, 1, first.Seq)
		assert.Equal(t, 2, second.Seq)
		assert.Equal(t, 3, third.Seq)
	})
	t.Run("Should preserve insertion order", func(t *testing.T) {
		session := NewSession("goal")
		commands := []string{"go build", "go test", "go vet"}
		for _, c := range commands {
			session.AddCommand(CommandRecord{Command: c})
		}
		for i, cmd := range session.Commands {
			assert.Equal(t, commands[i], cmd.Command)
			assert.Equal(t, i+1, cmd.Seq)
		}
	})
	t.Run("Should count failures", func(t *testing.T) {
		session := NewSession("goal")
		session.AddCommand(CommandRecord{Command: "ok", ExitCode: 0})
		session.AddCommand(CommandRecord{Command: "bad", ExitCode: 1})
		session.AddCommand(CommandRecord{Command: "worse", ExitCode: 127})
		assert.Equal(t, 2, session.ErrorCount)
		assert.Len(t, session.FailedCommands(), 2)
	})
	t.Run("Should return pointer into the session slice", func(t *testing.T) {
		session := NewSession("goal")
		rec := session.AddCommand(CommandRecord{Command: "ls"})
		rec.Repeated = true
		assert.True(t, session.Commands[0].Repeated)
	})
}

func TestSession_FailureCount(t *testing.T) {
	t.Run("Should count only failures of the same command line", func(t *testing.T) {
		session := NewSession("goal")
		session.AddCommand(CommandRecord{Command: "make build", ExitCode: 2})
		session.AddCommand(CommandRecord{Command: "make build", ExitCode: 0})
		session.AddCommand(CommandRecord{Command: "make build", ExitCode: 2})
		session.AddCommand(CommandRecord{Command: "make test", ExitCode: 1})
		assert.Equal(t, 2, session.FailureCount("make build"))
		assert.Equal(t, 1, session.FailureCount("make test"))
		assert.Equal(t, 0, session.FailureCount("make lint"))
	})
}

func TestSession_Close(t *testing.T) {
	t.Run("Should mark session completed with end time", func(t *testing.T) {
		session := NewSession("goal")
		session.Close(SessionStatusCompleted)
		require.NotNil(t, session.EndedAt)
		assert.Equal(t, SessionStatusCompleted, session.Status)
		assert.False(t, session.Active())
		assert.WithinDuration(t, time.Now(), *session.EndedAt, time.Second)
	})
}

func TestSession_LastCommand(t *testing.T) {
	t.Run("Should return nil for empty session", func(t *testing.T) {
		session := NewSession("goal")
		assert.Nil(t, session.LastCommand())
	})
	t.Run("Should return most recent command", func(t *testing.T) {
		session := NewSession("goal")
		session.AddCommand(CommandRecord{Command: "first"})
		session.AddCommand(CommandRecord{Command: "second"})
		last := session.LastCommand()
		require.NotNil(t, last)
		assert.Equal(t, "second", last.Command)
	})
}

func TestNewPackagePin(t *testing.T) {
	t.Run("Should keep valid semver version", func(t *testing.T) {
		pin := NewPackagePin("requests", "2.31.0", EcosystemPyPI, "pip install requests==2.31.0")
		assert.True(t, pin.Pinned())
		assert.Equal(t, "requests==2.31.0", pin.String())
	})
	t.Run("Should keep v-prefixed go module version", func(t *testing.T) {
		pin := NewPackagePin("golang.org/x/text", "v0.14.0", EcosystemGo, "go get golang.org/x/text@v0.14.0")
		assert.True(t, pin.Pinned())
		assert.Equal(t, "golang.org/x/text@v0.14.0", pin.String())
	})
	t.Run("Should drop unparseable version", func(t *testing.T) {
		pin := NewPackagePin("requests", "latest-and-greatest", EcosystemPyPI, "pip install requests")
		assert.False(t, pin.Pinned())
		assert.Equal(t, "requests", pin.String())
	})
	t.Run("Should allow unversioned pin", func(t *testing.T) {
		pin := NewPackagePin("lodash", "", EcosystemNPM, "npm install lodash")
		assert.False(t, pin.Pinned())
		assert.Equal(t, "lodash", pin.String())
	})
}

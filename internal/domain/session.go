package domain

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus represents the overall status of a tracked session
type SessionStatus string

const (
	SessionStatusPending   SessionStatus = "pending"
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusAborted   SessionStatus = "aborted"
)

// Session is a bounded sequence of tracked shell commands with a stated goal.
type Session struct {
	ID         string            `json:"id"`
	Goal       string            `json:"goal"`
	Context    map[string]string `json:"context,omitempty"`
	StartedAt  time.Time         `json:"started_at"`
	EndedAt    *time.Time        `json:"ended_at,omitempty"`
	Status     SessionStatus     `json:"status"`
	Commands   []CommandRecord   `json:"commands"`
	ErrorCount int               `json:"error_count"`
}

// CommandRecord represents a single executed command within a session.
// Records are append-only and ordered by Seq.
type CommandRecord struct {
	Seq       int           `json:"seq"`
	Command   string        `json:"command"`
	Output    string        `json:"output,omitempty"`
	Stderr    string        `json:"stderr,omitempty"`
	ExitCode  int           `json:"exit_code"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Repeated  bool          `json:"repeated,omitempty"`
	Frequency int           `json:"frequency,omitempty"`
	Analysis  *Analysis     `json:"analysis,omitempty"`
	Report    *ErrorReport  `json:"report,omitempty"`
}

// Failed reports whether the command exited with a nonzero code.
func (c *CommandRecord) Failed() bool {
	return c.ExitCode != 0
}

// NewSession creates a new active session with a fresh ID.
func NewSession(goal string) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Goal:      goal,
		StartedAt: time.Now(),
		Status:    SessionStatusActive,
		Commands:  []CommandRecord{},
	}
}

// AddCommand appends a record, stamping the next sequence number.
// Sequence numbers are strictly increasing and records are never reordered.
func (s *Session) AddCommand(record CommandRecord) *CommandRecord {
	record.Seq = len(s.Commands) + 1
	if record.Failed() {
		s.ErrorCount++
	}
	s.Commands = append(s.Commands, record)
	return &s.Commands[len(s.Commands)-1]
}

// LastCommand returns the most recently tracked command, or nil.
func (s *Session) LastCommand() *CommandRecord {
	if len(s.Commands) == 0 {
		return nil
	}
	return &s.Commands[len(s.Commands)-1]
}

// FailedCommands returns all commands that exited nonzero, in order.
func (s *Session) FailedCommands() []CommandRecord {
	var failed []CommandRecord
	for _, cmd := range s.Commands {
		if cmd.Failed() {
			failed = append(failed, cmd)
		}
	}
	return failed
}

// FailureCount returns how many times the given command line has failed
// within this session.
func (s *Session) FailureCount(command string) int {
	count := 0
	for _, cmd := range s.Commands {
		if cmd.Command == command && cmd.Failed() {
			count++
		}
	}
	return count
}

// Close marks the session finished with the given status.
func (s *Session) Close(status SessionStatus) {
	now := time.Now()
	s.EndedAt = &now
	s.Status = status
}

// Active reports whether the session is still accepting commands.
func (s *Session) Active() bool {
	return s.Status == SessionStatusActive
}

// Duration returns the session wall-clock time. For an open session it
// is measured against the current time.
func (s *Session) Duration() time.Duration {
	if s.EndedAt != nil {
		return s.EndedAt.Sub(s.StartedAt)
	}
	return time.Since(s.StartedAt)
}

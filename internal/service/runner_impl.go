package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/sdkassist/sdkassist/internal/domain"
)

// dangerousPatterns are command shapes that are never executed.
var dangerousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`rm\s+(-[a-zA-Z]*\s+)*-[a-zA-Z]*[rf][a-zA-Z]*\s+/(\s|$)`),
	regexp.MustCompile(`rm\s+-[a-zA-Z]*[rf][a-zA-Z]*\s+~(/|\s|$)`),
	regexp.MustCompile(`>\s*/dev/sd[a-z]`),
	regexp.MustCompile(`\bmkfs(\.\w+)?\b`),
	regexp.MustCompile(`\bdd\s+if=.+\bof=/dev/sd[a-z]`),
}

// runnerService is the implementation of the RunnerService interface.
type runnerService struct {
	// shell used to interpret the command line
	shell string
	// timeout for command execution
	timeout time.Duration
}

// NewRunnerService creates a new RunnerService.
func NewRunnerService() RunnerService {
	return &runnerService{
		shell:   "sh",
		timeout: DefaultCommandTimeout,
	}
}

// ValidateCommand rejects empty and known-destructive command lines.
func ValidateCommand(command string) error {
	if strings.TrimSpace(command) == "" {
		return fmt.Errorf("command cannot be empty")
	}
	for _, pattern := range dangerousPatterns {
		if pattern.MatchString(command) {
			return fmt.Errorf("refusing to run destructive command: matches %s", pattern.String())
		}
	}
	return nil
}

// Run executes the command line in a shell, capturing stdout, stderr,
// exit code and wall-clock duration. A nonzero exit code is not an
// error: it is recorded in the returned CommandRecord.
func (s *runnerService) Run(ctx context.Context, command string) (*domain.CommandRecord, error) {
	if err := ValidateCommand(command); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, s.shell, "-c", command)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	started := time.Now()
	err := cmd.Run()
	duration := time.Since(started)

	record := &domain.CommandRecord{
		Command:   command,
		Output:    stdout.String(),
		Stderr:    stderr.String(),
		StartedAt: started,
		Duration:  duration,
	}

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("command timed out after %v", s.timeout)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			record.ExitCode = exitErr.ExitCode()
			return record, nil
		}
		return nil, fmt.Errorf("command failed to start: %w", err)
	}
	return record, nil
}

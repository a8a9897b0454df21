package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sdkassist/sdkassist/internal/domain"
	"github.com/sdkassist/sdkassist/internal/orchestrator"
	"github.com/sdkassist/sdkassist/internal/usecase"
)

// newStartCmd creates the start command running the interactive session loop.
func newStartCmd(c *container) *cobra.Command {
	var (
		startGoal   string
		startDryRun bool
		startResume bool
	)
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a tracked SDK development session",
		Long: `Start an interactive session that tracks every command you run.

Each command is executed in a shell and recorded in order. Failures are
classified and analyzed by the configured AI providers; a command that
keeps failing is filed as a GitHub issue. Closing the session with
"exit" generates a markdown tutorial from the recorded steps.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !startDryRun {
				if err := c.cfg.ValidateForAnalysis(); err != nil {
					return fmt.Errorf("analysis is not configured: %w", err)
				}
			}
			tutorial := usecase.NewGenerateTutorialUseCase(c.fs, c.cfg.TutorialDir)
			orch := orchestrator.NewSessionOrchestrator(
				c.cfg,
				c.store,
				c.runner,
				c.analyzer,
				c.docs,
				c.gitRepo,
				c.issues,
				tutorial,
				c.log,
				orchestrator.SessionConfig{DryRun: startDryRun},
			)

			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			var session *domain.Session
			var err error
			if startResume {
				session, err = orch.Resume(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Resumed session %s (goal: %s, %d commands so far)\n",
					session.ID, session.Goal, len(session.Commands))
			} else {
				if startGoal == "" {
					return fmt.Errorf("--goal is required for a new session")
				}
				session, err = orch.Start(ctx, startGoal)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Session %s started. Type commands to run them, 'exit' to finish.\n", session.ID)
			}

			status := runSessionLoop(cmd, orch)

			tutorialPath, err := orch.Close(ctx, status)
			if err != nil {
				return err
			}
			if tutorialPath != "" {
				fmt.Fprintf(out, "Tutorial written to %s\n", tutorialPath)
			}
			fmt.Fprintf(out, "Session %s %s.\n", session.ID, status)
			return nil
		},
	}

	cmd.Flags().StringVar(&startGoal, "goal", "", "What this session is trying to accomplish")
	cmd.Flags().BoolVar(&startDryRun, "dry-run", false, "Track commands without AI analysis or issue filing")
	cmd.Flags().BoolVar(&startResume, "resume", false, "Resume the most recent active session")
	return cmd
}

// runSessionLoop reads command lines until 'exit', 'quit' or EOF. The
// returned status is aborted only when the loop ends on 'abort'.
func runSessionLoop(cmd *cobra.Command, orch *orchestrator.SessionOrchestrator) domain.SessionStatus {
	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "sdk> ")
		if !scanner.Scan() {
			return domain.SessionStatusCompleted
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "exit", "quit":
			return domain.SessionStatusCompleted
		case "abort":
			return domain.SessionStatusAborted
		}

		record, err := orch.Execute(cmd.Context(), line)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		printRecord(out, record)
	}
}

func printRecord(out io.Writer, record *domain.CommandRecord) {
	if record.Output != "" {
		fmt.Fprint(out, record.Output)
		if !strings.HasSuffix(record.Output, "\n") {
			fmt.Fprintln(out)
		}
	}
	if record.Stderr != "" {
		fmt.Fprint(out, record.Stderr)
		if !strings.HasSuffix(record.Stderr, "\n") {
			fmt.Fprintln(out)
		}
	}
	if record.Failed() {
		fmt.Fprintf(out, "(exit %d", record.ExitCode)
		if record.Repeated {
			fmt.Fprintf(out, ", failure %d of this command", record.Frequency)
		}
		fmt.Fprintln(out, ")")
		if record.Analysis != nil {
			fmt.Fprintln(out, "Suggestions:")
			for _, insight := range record.Analysis.Insights {
				fmt.Fprintf(out, "  - %s\n", insight)
			}
		}
		if record.Report != nil && record.Report.IssueURL != "" {
			fmt.Fprintf(out, "Tracked at %s\n", record.Report.IssueURL)
		}
	}
}

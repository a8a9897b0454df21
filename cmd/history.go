package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sdkassist/sdkassist/internal/orchestrator"
)

// newHistoryCmd creates the history command listing tracked sessions.
func newHistoryCmd(c *container) *cobra.Command {
	var historyShow string
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List tracked sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if historyShow != "" {
				return showSession(cmd, c, historyShow)
			}
			return listSessions(cmd, c)
		},
	}
	cmd.Flags().StringVar(&historyShow, "show", "", "Show the full command log of one session")
	return cmd
}

func listSessions(cmd *cobra.Command, c *container) error {
	sessions, err := c.store.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	if len(sessions) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No sessions recorded yet.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tSTATUS\tCOMMANDS\tERRORS\tGOAL")
	for i := range sessions {
		s := &sessions[i]
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
			s.ID,
			s.StartedAt.Format(time.RFC3339),
			s.Status,
			len(s.Commands),
			s.ErrorCount,
			s.Goal,
		)
	}
	return w.Flush()
}

func showSession(cmd *cobra.Command, c *container, id string) error {
	if err := orchestrator.ValidateSessionID(id); err != nil {
		return err
	}
	session, err := c.store.Load(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Session %s (%s)\nGoal: %s\nStarted: %s\n\n",
		session.ID, session.Status, session.Goal, session.StartedAt.Format(time.RFC3339))
	for _, record := range session.Commands {
		marker := "ok"
		if record.Failed() {
			marker = fmt.Sprintf("exit %d", record.ExitCode)
		}
		fmt.Fprintf(out, "%3d. [%s] %s\n", record.Seq, marker, record.Command)
		if record.Report != nil && record.Report.IssueURL != "" {
			fmt.Fprintf(out, "     issue: %s\n", record.Report.IssueURL)
		}
	}
	return nil
}

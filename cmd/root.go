package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sdkassist/sdkassist/pkg/version"
)

var rootCmd = &cobra.Command{
	Use:     "sdk-assistant",
	Short:   "An AI-assisted companion for SDK development sessions",
	Version: version.Summary(),
	Long: `sdk-assistant tracks the shell commands of an SDK integration session,
analyzes failures with AI providers, files GitHub issues for persistent
errors and generates a markdown tutorial from the completed session.`,
}

func Execute() error {
	return rootCmd.Execute()
}

package orchestrator

import (
	"os"
	"strings"
	"time"
)

// Timeout constants for different operations
var (
	// DefaultCommandStepTimeout bounds one full Execute step: run,
	// track, docs and failure handling
	DefaultCommandStepTimeout = getTimeoutOrDefault("COMMAND_STEP_TIMEOUT", 10*time.Minute, 5*time.Second)
	// DefaultAnalysisTimeout bounds a single dual-provider analysis
	DefaultAnalysisTimeout = getTimeoutOrDefault("ANALYSIS_TIMEOUT", 2*time.Minute, 2*time.Second)
	// DefaultIssueTimeout bounds GitHub issue search and filing
	DefaultIssueTimeout = getTimeoutOrDefault("ISSUE_TIMEOUT", 1*time.Minute, 2*time.Second)
)

// PersistentFailureThreshold is the number of failures of the same
// command line after which an issue is filed.
const PersistentFailureThreshold = 2

// isTestEnvironment detects if we're running in a test environment
func isTestEnvironment() bool {
	// Check for testing flags
	for _, arg := range os.Args {
		if strings.Contains(arg, ".test") || strings.Contains(arg, "go test") {
			return true
		}
	}
	// Check for test environment variables
	return os.Getenv("GO_TEST") == "true" || os.Getenv("TEST_MODE") == "true"
}

// getTimeoutOrDefault returns production timeout or test timeout based on environment
func getTimeoutOrDefault(envVar string, prodDefault, testDefault time.Duration) time.Duration {
	if env := os.Getenv(envVar); env != "" {
		if duration, err := time.ParseDuration(env); err == nil {
			return duration
		}
	}
	if isTestEnvironment() {
		return testDefault
	}
	return prodDefault
}

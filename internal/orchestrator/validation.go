package orchestrator

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

const maxGoalLength = 200

// sessionIDRegex matches the UUID form assigned to sessions
var sessionIDRegex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// ValidateGoal validates a session goal string.
func ValidateGoal(goal string) error {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return fmt.Errorf("goal cannot be empty")
	}
	if len(goal) > maxGoalLength {
		return fmt.Errorf("goal too long: %d characters (max: %d)", len(goal), maxGoalLength)
	}
	return nil
}

// ValidateSessionID validates a session identifier.
func ValidateSessionID(id string) error {
	if id == "" {
		return fmt.Errorf("session ID cannot be empty")
	}
	if !sessionIDRegex.MatchString(id) {
		return fmt.Errorf("invalid session ID format: %s", id)
	}
	return nil
}

// ValidateEnvironmentVariables checks for required environment variables.
func ValidateEnvironmentVariables(requiredVars []string) error {
	var missing []string
	for _, v := range requiredVars {
		if value := os.Getenv(v); value == "" {
			missing = append(missing, v)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

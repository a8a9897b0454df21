package usecase

import (
	"fmt"

	"github.com/sdkassist/sdkassist/internal/domain"
)

// TrackCommandUseCase appends a command record to a session and
// maintains repeat-frequency bookkeeping across the session.

type TrackCommandUseCase struct{}

// TrackResult reports how the tracked command relates to earlier ones.
type TrackResult struct {
	Record             *domain.CommandRecord
	Repeated           bool
	Frequency          int
	PreviousExecutions []domain.CommandRecord
}

// Execute appends the record to the session in order. When the same
// command line was tracked before, the record is marked repeated and
// the prior executions are returned.
func (uc *TrackCommandUseCase) Execute(session *domain.Session, record domain.CommandRecord) (*TrackResult, error) {
	if !session.Active() {
		return nil, fmt.Errorf("session %s is not active", session.ID)
	}
	if record.Command == "" {
		return nil, fmt.Errorf("command cannot be empty")
	}

	var previous []domain.CommandRecord
	for _, cmd := range session.Commands {
		if cmd.Command == record.Command {
			previous = append(previous, cmd)
		}
	}

	frequency := len(previous) + 1
	if frequency > 1 {
		record.Repeated = true
		record.Frequency = frequency
	}

	stored := session.AddCommand(record)
	return &TrackResult{
		Record:             stored,
		Repeated:           stored.Repeated,
		Frequency:          frequency,
		PreviousExecutions: previous,
	}, nil
}

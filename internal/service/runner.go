package service

import (
	"context"

	"github.com/sdkassist/sdkassist/internal/domain"
)

// RunnerService defines the interface for executing tracked shell commands.

type RunnerService interface {
	Run(ctx context.Context, command string) (*domain.CommandRecord, error)
}

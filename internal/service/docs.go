package service

import (
	"context"

	"github.com/sdkassist/sdkassist/internal/domain"
)

// DocsService defines the interface for fetching package registry metadata.

type DocsService interface {
	Lookup(ctx context.Context, pin domain.PackagePin) (*domain.PackageDoc, error)
}

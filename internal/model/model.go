// Package model provides the completion provider interface and the gateway
// that selects a tier, consults the response cache and meters usage.
package model

import "context"

// Model is a completion provider.
type Model interface {
	// Generate runs a single completion.
	Generate(ctx context.Context, req *Request) (*Response, error)

	// IsAvailable reports whether credentials are configured.
	IsAvailable() bool

	// Name returns the provider identifier.
	Name() string

	// Status returns the current status of the provider.
	Status() *ModelStatus
}

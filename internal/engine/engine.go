// Package engine defines the boundary to the external authorization-server
// engine. The orchestrator consumes these interfaces; token minting, signing,
// and session cookies live entirely behind them.
package engine

import (
	"context"
)

// Provider exposes the engine's interaction primitives.
//
// Error Contract:
// - InteractionDetails returns sentinel.ErrSessionNotFound (wrapped) when the
//   engine no longer knows the uid (expired or already completed)
// - FinishInteraction returns the same for unknown uids and
//   sentinel.ErrInvalidState when a submission violates merge semantics
type Provider interface {
	// InteractionDetails fetches the pending interaction state.
	InteractionDetails(ctx context.Context, uid string) (*Interaction, error)
	// FinishInteraction submits a result and returns the redirect target the
	// browser should be sent to next.
	FinishInteraction(ctx context.Context, uid string, result Result, opts FinishOptions) (string, error)
}

// GrantStore persists consent grants.
type GrantStore interface {
	// Find loads a grant; sentinel.ErrNotFound when absent.
	Find(ctx context.Context, grantID string) (*Grant, error)
	// Save persists the grant and returns its id, assigning one when new.
	// Saving the same grant again is idempotent at the storage layer.
	Save(ctx context.Context, grant *Grant) (string, error)
}

// CodeStore mints and persists authorization codes.
type CodeStore interface {
	// Save stores the code artifact, assigning the opaque code value, and
	// returns it.
	Save(ctx context.Context, code *AuthorizationCode) (string, error)
}

// ClientRegistry resolves registered client metadata. Only the redirect URIs
// are needed on this side of the boundary.
type ClientRegistry interface {
	RedirectURIs(ctx context.Context, clientID string) ([]string, error)
}

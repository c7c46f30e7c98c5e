// Package grant builds and extends consent grants across consent steps. All
// additions are unions: a grant only ever accumulates scopes, claims, and
// resource scopes, never loses them.
package grant

import (
	"context"
	"errors"

	"parley/internal/engine"
	dErrors "parley/pkg/domain-errors"
	"parley/pkg/platform/sentinel"
	pstrings "parley/pkg/platform/strings"
)

// Accumulator creates and loads grant handles backed by the engine's grant
// store.
type Accumulator struct {
	store engine.GrantStore
}

// NewAccumulator constructs an Accumulator.
func NewAccumulator(store engine.GrantStore) *Accumulator {
	return &Accumulator{store: store}
}

// New starts a fresh grant for the (account, client) pair.
func (a *Accumulator) New(accountID, clientID string) *Handle {
	return &Handle{
		accumulator: a,
		grant: &engine.Grant{
			AccountID: accountID,
			ClientID:  clientID,
		},
		isNew: true,
	}
}

// Load fetches an existing grant for extension.
func (a *Accumulator) Load(ctx context.Context, grantID string) (*Handle, error) {
	grant, err := a.store.Find(ctx, grantID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "grant not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "grant store unavailable")
	}
	return &Handle{accumulator: a, grant: grant}, nil
}

// Handle is a mutable view over one grant for the duration of a consent step.
type Handle struct {
	accumulator *Accumulator
	grant       *engine.Grant
	isNew       bool
}

// IsNew reports whether this handle created the grant rather than loading an
// existing one. The consent result includes a grant id only for new grants.
func (h *Handle) IsNew() bool {
	return h.isNew
}

// AddOIDCScope unions scopes into the grant. Already-present entries are a
// no-op, never an error.
func (h *Handle) AddOIDCScope(scopes ...string) {
	h.grant.OIDCScope = pstrings.Union(h.grant.OIDCScope, scopes)
}

// AddOIDCClaims unions claim names into the grant.
func (h *Handle) AddOIDCClaims(claims ...string) {
	h.grant.OIDCClaims = pstrings.Union(h.grant.OIDCClaims, claims)
}

// AddResourceScope unions scopes for a resource indicator into the grant.
func (h *Handle) AddResourceScope(indicator string, scopes ...string) {
	if indicator == "" {
		return
	}
	if h.grant.ResourceScopes == nil {
		h.grant.ResourceScopes = make(map[string][]string)
	}
	h.grant.ResourceScopes[indicator] = pstrings.Union(h.grant.ResourceScopes[indicator], scopes)
}

// OIDCScope returns the accumulated scope set.
func (h *Handle) OIDCScope() []string {
	return append([]string(nil), h.grant.OIDCScope...)
}

// OIDCClaims returns the accumulated claim set.
func (h *Handle) OIDCClaims() []string {
	return append([]string(nil), h.grant.OIDCClaims...)
}

// ResourceScopes returns the accumulated resource-indicator scope mapping.
func (h *Handle) ResourceScopes() map[string][]string {
	out := make(map[string][]string, len(h.grant.ResourceScopes))
	for k, v := range h.grant.ResourceScopes {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Save persists the grant and returns its id. Storage is idempotent per id,
// so calling Save again returns the same id rather than minting a new grant.
func (h *Handle) Save(ctx context.Context) (string, error) {
	grantID, err := h.accumulator.store.Save(ctx, h.grant)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeUnavailable, "could not save grant")
	}
	h.grant.ID = grantID
	return grantID, nil
}

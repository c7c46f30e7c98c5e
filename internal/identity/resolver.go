package identity

import (
	"context"
	"errors"
	"log/slog"

	"parley/internal/identity/store"
	dErrors "parley/pkg/domain-errors"
	"parley/pkg/platform/sentinel"
)

// Resolver turns credentials or subject identifiers into Accounts. It owns
// the process-wide account cache and delegates record lookup to the injected
// user store.
type Resolver struct {
	store  store.UserStore
	cache  *Cache
	logger *slog.Logger
}

// NewResolver constructs a Resolver.
func NewResolver(userStore store.UserStore, cache *Cache, logger *slog.Logger) *Resolver {
	return &Resolver{store: userStore, cache: cache, logger: logger}
}

// ResolveByCredential resolves a login identifier into an account.
//
// The password is accepted but not verified against any stored credential;
// the identity store carries no secret material for these accounts. This is
// a known gap preserved deliberately; do not add verification here without a
// contract change.
//
// Failures carry CodeNotFound for a missing record and CodeUnavailable for a
// store failure so callers and logs can tell them apart, even where external
// behavior collapses both into an auth failure.
func (r *Resolver) ResolveByCredential(ctx context.Context, login, password string) (*Account, error) {
	_ = password

	record, err := r.store.FindByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			r.logger.WarnContext(ctx, "no account for login",
				"login", login,
			)
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "could not get user")
		}
		r.logger.ErrorContext(ctx, "identity store lookup failed",
			"login", login,
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "identity store unavailable")
	}

	account := NewAccount(record.SubjectID, Project(record))
	r.cache.Put(account)
	return account, nil
}

// ResolveBySubject resolves a stable subject id into an account. Store errors
// are swallowed and logged; the caller sees nil for both "no such account"
// and "store failed" and must abort the flow on nil.
func (r *Resolver) ResolveBySubject(ctx context.Context, subjectID string) *Account {
	record, err := r.store.FindBySubject(ctx, subjectID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			r.logger.WarnContext(ctx, "no account for subject",
				"subject_id", subjectID,
			)
		} else {
			r.logger.ErrorContext(ctx, "identity store lookup failed",
				"subject_id", subjectID,
				"error", err,
			)
		}
		return nil
	}

	account := NewAccount(record.SubjectID, Project(record))
	r.cache.Put(account)
	return account
}

// FindByFederated resolves an upstream-provider identity into an account,
// synthesizing the subject as "{provider}.{externalSubject}". Resolution is
// idempotent per process: the same (provider, sub) pair always yields the
// same Account instance.
func (r *Resolver) FindByFederated(ctx context.Context, provider string, claims Profile) (*Account, error) {
	sub, _ := claims["sub"].(string)
	if provider == "" || sub == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "federated claims missing sub")
	}

	key := provider + "." + sub
	account := r.cache.GetOrCreateFederated(key, func() *Account {
		r.logger.InfoContext(ctx, "creating federated account",
			"provider", provider,
			"subject_id", key,
		)
		return NewAccount(key, claims)
	})
	return account, nil
}

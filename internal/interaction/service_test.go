package interaction

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parley/internal/audit"
	"parley/internal/engine"
	"parley/internal/grant"
	"parley/internal/identity"
	"parley/internal/identity/store"
	"parley/internal/platform/config"
	dErrors "parley/pkg/domain-errors"
	"parley/pkg/requestcontext"
)

type serviceFixture struct {
	service    *Service
	engine     *engine.InMemoryEngine
	grants     *engine.InMemoryGrantStore
	codes      *engine.InMemoryCodeStore
	users      *store.InMemoryUserStore
	auditStore *audit.InMemoryStore
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	users := store.NewInMemory()
	users.Seed(&store.UserRecord{
		SubjectID: "sub-1",
		Email:     "ada@example.com",
		FirstName: "Ada",
		LastName:  "Lovelace",
	})

	eng := engine.NewInMemoryEngine()
	grants := engine.NewInMemoryGrantStore()
	codes := engine.NewInMemoryCodeStore()
	clients := engine.NewStaticClientRegistry(map[string][]string{
		"dev-client": {"http://localhost:8080/cb", "http://localhost:8080/alt"},
	})
	auditStore := audit.NewInMemoryStore()

	service := NewService(
		eng,
		codes,
		clients,
		identity.NewResolver(users, identity.NewCache(), logger),
		grant.NewAccumulator(grants),
		config.DirectCodeConfig{ClientID: "dev-client"},
		audit.NewPublisher(auditStore),
		nil,
		logger,
	)

	return &serviceFixture{
		service:    service,
		engine:     eng,
		grants:     grants,
		codes:      codes,
		users:      users,
		auditStore: auditStore,
	}
}

func seedLoginInteraction(f *serviceFixture) string {
	return f.engine.SeedInteraction(&engine.Interaction{
		Prompt: engine.Prompt{Name: engine.PromptLogin},
		Params: map[string]string{
			"client_id":    "web-app",
			"redirect_uri": "https://client.example.com/cb",
			"scope":        "openid profile",
			"state":        "xyz",
		},
	})
}

func TestDetailsUnknownUID(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.Details(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeSessionExpired))
}

func TestLoginAdvancesToConsent(t *testing.T) {
	f := newServiceFixture(t)
	uid := seedLoginInteraction(f)

	redirect, err := f.service.Login(context.Background(), uid, "ADA@example.com", "whatever")
	require.NoError(t, err)
	assert.Equal(t, "/interaction/"+uid, redirect)

	details, err := f.service.Details(context.Background(), uid)
	require.NoError(t, err)
	assert.Equal(t, engine.PromptConsent, details.Prompt.Name)
	assert.Equal(t, "sub-1", details.AccountID())
	assert.Equal(t, []string{"openid", "profile"}, details.Prompt.Details.MissingOIDCScope)

	events, err := f.auditStore.ListBySubject(context.Background(), "sub-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.ActionLoginSucceeded, events[0].Action)
}

func TestLoginWrongPromptIsProtocolViolation(t *testing.T) {
	f := newServiceFixture(t)
	uid := f.engine.SeedInteraction(&engine.Interaction{
		Prompt:  engine.Prompt{Name: engine.PromptConsent},
		Params:  map[string]string{"client_id": "web-app"},
		Session: &engine.Session{AccountID: "sub-1"},
	})

	_, err := f.service.Login(context.Background(), uid, "ada@example.com", "pw")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeProtocolViolation))

	// Nothing was submitted; the interaction is still live.
	_, err = f.service.Details(context.Background(), uid)
	require.NoError(t, err)
}

func TestLoginUnknownUser(t *testing.T) {
	f := newServiceFixture(t)
	uid := seedLoginInteraction(f)

	_, err := f.service.Login(context.Background(), uid, "nobody@example.com", "pw")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	events := f.auditStore.All()
	require.Len(t, events, 1)
	assert.Equal(t, audit.ActionLoginFailed, events[0].Action)
	assert.Equal(t, uid, events[0].UID)
}

func TestConfirmCreatesGrant(t *testing.T) {
	f := newServiceFixture(t)
	uid := f.engine.SeedInteraction(&engine.Interaction{
		Prompt: engine.Prompt{
			Name: engine.PromptConsent,
			Details: engine.PromptDetails{
				MissingOIDCScope:  []string{"openid", "profile"},
				MissingOIDCClaims: []string{"email"},
				MissingResourceScopes: map[string][]string{
					"https://api.example.com": {"read", "write"},
				},
			},
		},
		Params: map[string]string{
			"client_id":    "web-app",
			"redirect_uri": "https://client.example.com/cb",
			"state":        "xyz",
		},
		Session: &engine.Session{AccountID: "sub-1"},
	})

	redirect, err := f.service.Confirm(context.Background(), uid)
	require.NoError(t, err)

	parsed, err := url.Parse(redirect)
	require.NoError(t, err)
	assert.Equal(t, "client.example.com", parsed.Host)
	assert.NotEmpty(t, parsed.Query().Get("code"))
	assert.Equal(t, "xyz", parsed.Query().Get("state"))

	// Interaction is terminal now.
	_, err = f.service.Details(context.Background(), uid)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeSessionExpired))

	events, err := f.auditStore.ListBySubject(context.Background(), "sub-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	grantIDs := f.grants.IDs()
	require.Len(t, grantIDs, 1)
	saved, err := f.grants.Find(context.Background(), grantIDs[0])
	require.NoError(t, err)
	assert.Equal(t, "sub-1", saved.AccountID)
	assert.Equal(t, "web-app", saved.ClientID)
	assert.Equal(t, []string{"openid", "profile"}, saved.OIDCScope)
	assert.Equal(t, []string{"email"}, saved.OIDCClaims)
	assert.Equal(t, []string{"read", "write"}, saved.ResourceScopes["https://api.example.com"])
}

func TestConfirmExtendsExistingGrant(t *testing.T) {
	f := newServiceFixture(t)
	grantID, err := f.grants.Save(context.Background(), &engine.Grant{
		AccountID: "sub-1",
		ClientID:  "web-app",
		OIDCScope: []string{"openid", "profile"},
	})
	require.NoError(t, err)

	uid := f.engine.SeedInteraction(&engine.Interaction{
		Prompt: engine.Prompt{
			Name: engine.PromptConsent,
			Details: engine.PromptDetails{
				MissingOIDCScope: []string{"profile", "email"},
			},
		},
		Params: map[string]string{
			"client_id":    "web-app",
			"redirect_uri": "https://client.example.com/cb",
		},
		Session: &engine.Session{AccountID: "sub-1"},
		GrantID: grantID,
	})

	// Passing a grant id for an already-bound interaction would be rejected
	// by the engine, so success here shows the result omitted it.
	_, err = f.service.Confirm(context.Background(), uid)
	require.NoError(t, err)

	saved, err := f.grants.Find(context.Background(), grantID)
	require.NoError(t, err)
	assert.Equal(t, []string{"openid", "profile", "email"}, saved.OIDCScope)
}

func TestConfirmWrongPrompt(t *testing.T) {
	f := newServiceFixture(t)
	uid := seedLoginInteraction(f)

	_, err := f.service.Confirm(context.Background(), uid)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeProtocolViolation))
}

func TestConfirmWithoutSession(t *testing.T) {
	f := newServiceFixture(t)
	uid := f.engine.SeedInteraction(&engine.Interaction{
		Prompt: engine.Prompt{Name: engine.PromptConsent},
		Params: map[string]string{"client_id": "web-app"},
	})

	_, err := f.service.Confirm(context.Background(), uid)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeProtocolViolation))
}

func TestAbort(t *testing.T) {
	f := newServiceFixture(t)
	uid := seedLoginInteraction(f)

	redirect, err := f.service.Abort(context.Background(), uid)
	require.NoError(t, err)

	parsed, err := url.Parse(redirect)
	require.NoError(t, err)
	assert.Equal(t, "access_denied", parsed.Query().Get("error"))
	assert.Equal(t, "End-User aborted interaction", parsed.Query().Get("error_description"))

	_, err = f.service.Details(context.Background(), uid)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeSessionExpired))
}

func TestAbortUnknownUID(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.Abort(context.Background(), "gone")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeSessionExpired))
}

func TestIssueCode(t *testing.T) {
	f := newServiceFixture(t)
	resolvedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), resolvedAt)

	code, err := f.service.IssueCode(ctx, "ada@example.com", "pw", []string{"openid", "email"})
	require.NoError(t, err)
	require.NotEmpty(t, code)

	record, err := f.codes.FindByCode(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, "sub-1", record.AccountID)
	assert.Equal(t, "dev-client", record.ClientID)
	assert.Equal(t, "http://localhost:8080/cb", record.RedirectURI)
	assert.Equal(t, "openid email", record.Scope)
	assert.Equal(t, resolvedAt, record.AuthTime)
	assert.True(t, record.ExpiresAt.After(resolvedAt))

	saved, err := f.grants.Find(ctx, record.GrantID)
	require.NoError(t, err)
	assert.Equal(t, []string{"openid", "email"}, saved.OIDCScope)
	assert.Equal(t, []string{"sub", "name", "email", "email_verified"}, saved.OIDCClaims)
}

func TestIssueCodeInvalidCredentials(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.IssueCode(context.Background(), "nobody@example.com", "pw", []string{"openid"})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	assert.Equal(t, "Invalid credentials", dErrors.MessageOf(err))
}

func TestIssueCodeStoreUnavailable(t *testing.T) {
	f := newServiceFixture(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.service.resolver = identity.NewResolver(failingUserStore{}, identity.NewCache(), logger)

	_, err := f.service.IssueCode(context.Background(), "ada@example.com", "pw", []string{"openid"})
	require.Error(t, err)
	// Externally indistinguishable from a bad credential.
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	assert.Equal(t, "Invalid credentials", dErrors.MessageOf(err))
}

type failingUserStore struct{}

func (failingUserStore) FindByLogin(context.Context, string) (*store.UserRecord, error) {
	return nil, errors.New("connection refused")
}

func (failingUserStore) FindBySubject(context.Context, string) (*store.UserRecord, error) {
	return nil, errors.New("connection refused")
}

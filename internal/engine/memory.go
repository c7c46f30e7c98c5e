package engine

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"parley/pkg/platform/sentinel"
)

// codeTTL bounds how long a minted authorization code stays exchangeable.
const codeTTL = 10 * time.Minute

// InMemoryEngine is a reference engine implementation for dev and tests. It
// keeps interactions in memory, enforces the engine's merge semantics, and
// decides redirects the way the production engine would: next prompt for
// intermediate steps, back to the client for terminal ones.
type InMemoryEngine struct {
	mu           sync.Mutex
	interactions map[string]*Interaction
	submissions  map[string]Result
}

// NewInMemoryEngine constructs an empty in-memory engine.
func NewInMemoryEngine() *InMemoryEngine {
	return &InMemoryEngine{
		interactions: make(map[string]*Interaction),
		submissions:  make(map[string]Result),
	}
}

// SeedInteraction registers a pending interaction, assigning a uid when
// empty, and returns the uid.
func (e *InMemoryEngine) SeedInteraction(interaction *Interaction) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if interaction.UID == "" {
		interaction.UID = uuid.NewString()
	}
	e.interactions[interaction.UID] = interaction
	return interaction.UID
}

func (e *InMemoryEngine) InteractionDetails(_ context.Context, uid string) (*Interaction, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	interaction, ok := e.interactions[uid]
	if !ok {
		return nil, fmt.Errorf("interaction %s: %w", uid, sentinel.ErrSessionNotFound)
	}
	clone := *interaction
	return &clone, nil
}

func (e *InMemoryEngine) FinishInteraction(_ context.Context, uid string, result Result, opts FinishOptions) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	interaction, ok := e.interactions[uid]
	if !ok {
		return "", fmt.Errorf("interaction %s: %w", uid, sentinel.ErrSessionNotFound)
	}

	if opts.MergeWithLastSubmission {
		result = mergeResults(e.submissions[uid], result)
	}
	e.submissions[uid] = result

	switch {
	case result.Error != "":
		delete(e.interactions, uid)
		delete(e.submissions, uid)
		return clientRedirect(interaction, url.Values{
			"error":             {result.Error},
			"error_description": {result.ErrorDescription},
		}), nil

	case result.Consent != nil:
		if interaction.Prompt.Name != PromptConsent {
			return "", fmt.Errorf("consent result for %s prompt: %w", interaction.Prompt.Name, sentinel.ErrInvalidState)
		}
		// A new grant reference may only be introduced when the interaction
		// did not already carry one.
		if result.Consent.GrantID != "" && interaction.GrantID != "" {
			return "", fmt.Errorf("grant already bound to interaction: %w", sentinel.ErrInvalidState)
		}
		if result.Consent.GrantID != "" {
			interaction.GrantID = result.Consent.GrantID
		}
		delete(e.interactions, uid)
		delete(e.submissions, uid)
		return clientRedirect(interaction, url.Values{
			"code": {uuid.NewString()},
		}), nil

	case result.Login != nil:
		interaction.Session = &Session{AccountID: result.Login.AccountID}
		interaction.Prompt = Prompt{
			Name: PromptConsent,
			Details: PromptDetails{
				MissingOIDCScope: splitScope(interaction.Params["scope"]),
			},
		}
		return "/interaction/" + uid, nil

	default:
		return "", fmt.Errorf("empty interaction result: %w", sentinel.ErrInvalidState)
	}
}

func mergeResults(prev, next Result) Result {
	merged := prev
	if next.Login != nil {
		merged.Login = next.Login
	}
	if next.Consent != nil {
		merged.Consent = next.Consent
	}
	if next.Error != "" {
		merged.Error = next.Error
		merged.ErrorDescription = next.ErrorDescription
	}
	return merged
}

func clientRedirect(interaction *Interaction, params url.Values) string {
	redirectURI := interaction.Params["redirect_uri"]
	if redirectURI == "" {
		return "/"
	}
	if state := interaction.Params["state"]; state != "" {
		params.Set("state", state)
	}
	return redirectURI + "?" + params.Encode()
}

func splitScope(scope string) []string {
	fields := strings.Fields(scope)
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// InMemoryGrantStore stores grants in memory for tests/dev.
type InMemoryGrantStore struct {
	mu     sync.RWMutex
	grants map[string]*Grant
}

// NewInMemoryGrantStore constructs an empty in-memory grant store.
func NewInMemoryGrantStore() *InMemoryGrantStore {
	return &InMemoryGrantStore{grants: make(map[string]*Grant)}
}

func (s *InMemoryGrantStore) Find(_ context.Context, grantID string) (*Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	grant, ok := s.grants[grantID]
	if !ok {
		return nil, fmt.Errorf("grant %s: %w", grantID, sentinel.ErrNotFound)
	}
	clone := cloneGrant(grant)
	return clone, nil
}

func (s *InMemoryGrantStore) Save(_ context.Context, grant *Grant) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if grant.ID == "" {
		grant.ID = uuid.NewString()
	}
	s.grants[grant.ID] = cloneGrant(grant)
	return grant.ID, nil
}

// IDs returns every stored grant id, for test assertions.
func (s *InMemoryGrantStore) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.grants))
	for id := range s.grants {
		ids = append(ids, id)
	}
	return ids
}

func cloneGrant(grant *Grant) *Grant {
	clone := *grant
	clone.OIDCScope = append([]string(nil), grant.OIDCScope...)
	clone.OIDCClaims = append([]string(nil), grant.OIDCClaims...)
	if grant.ResourceScopes != nil {
		clone.ResourceScopes = make(map[string][]string, len(grant.ResourceScopes))
		for k, v := range grant.ResourceScopes {
			clone.ResourceScopes[k] = append([]string(nil), v...)
		}
	}
	return &clone
}

// InMemoryCodeStore stores authorization codes in memory for tests/dev.
type InMemoryCodeStore struct {
	mu    sync.RWMutex
	codes map[string]*AuthorizationCode
}

// NewInMemoryCodeStore constructs an empty in-memory code store.
func NewInMemoryCodeStore() *InMemoryCodeStore {
	return &InMemoryCodeStore{codes: make(map[string]*AuthorizationCode)}
}

func (s *InMemoryCodeStore) Save(_ context.Context, code *AuthorizationCode) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if code.Code == "" {
		code.Code = uuid.NewString()
	}
	if code.ExpiresAt.IsZero() {
		code.ExpiresAt = code.AuthTime.Add(codeTTL)
	}
	clone := *code
	s.codes[code.Code] = &clone
	return code.Code, nil
}

// FindByCode returns a stored code for test assertions.
func (s *InMemoryCodeStore) FindByCode(_ context.Context, code string) (*AuthorizationCode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.codes[code]
	if !ok {
		return nil, fmt.Errorf("authorization code not found: %w", sentinel.ErrNotFound)
	}
	clone := *record
	return &clone, nil
}

// StaticClientRegistry serves redirect URIs from a fixed table.
type StaticClientRegistry struct {
	clients map[string][]string
}

// NewStaticClientRegistry constructs a registry from clientID → redirect URIs.
func NewStaticClientRegistry(clients map[string][]string) *StaticClientRegistry {
	return &StaticClientRegistry{clients: clients}
}

func (r *StaticClientRegistry) RedirectURIs(_ context.Context, clientID string) ([]string, error) {
	uris, ok := r.clients[clientID]
	if !ok {
		return nil, fmt.Errorf("client %s: %w", clientID, sentinel.ErrNotFound)
	}
	return append([]string(nil), uris...), nil
}

package engine

import (
	"time"
)

// Prompt names the engine reports on a pending interaction.
const (
	PromptLogin   = "login"
	PromptConsent = "consent"
)

// PromptDetails describes what the engine still needs from the end user.
type PromptDetails struct {
	MissingOIDCScope      []string            `json:"missingOIDCScope,omitempty"`
	MissingOIDCClaims     []string            `json:"missingOIDCClaims,omitempty"`
	MissingResourceScopes map[string][]string `json:"missingResourceScopes,omitempty"`
}

// Prompt is the kind of user interaction the engine currently requires.
type Prompt struct {
	Name    string        `json:"name"`
	Details PromptDetails `json:"details"`
}

// Session is the browser session state the engine has bound to the
// interaction, if any.
type Session struct {
	AccountID string `json:"accountId"`
}

// Interaction is a pending authorization transaction awaiting end-user input.
// It is owned by the engine; the orchestrator reads it and submits results.
type Interaction struct {
	UID     string            `json:"uid"`
	Prompt  Prompt            `json:"prompt"`
	Params  map[string]string `json:"params"`
	Session *Session          `json:"session,omitempty"`
	GrantID string            `json:"grantId,omitempty"`
}

// ClientID returns the client the original authorization request was for.
func (i *Interaction) ClientID() string {
	return i.Params["client_id"]
}

// AccountID returns the subject already bound to the browser session, if any.
func (i *Interaction) AccountID() string {
	if i.Session == nil {
		return ""
	}
	return i.Session.AccountID
}

// Grant is the persisted record of what an account has consented to share
// with a client.
type Grant struct {
	ID             string              `json:"id"`
	AccountID      string              `json:"accountId"`
	ClientID       string              `json:"clientId"`
	OIDCScope      []string            `json:"oidcScope,omitempty"`
	OIDCClaims     []string            `json:"oidcClaims,omitempty"`
	ResourceScopes map[string][]string `json:"resourceScopes,omitempty"`
}

// AuthorizationCode is the engine-owned code-exchange artifact. The
// orchestrator populates the fields; minting and storage stay engine-side.
type AuthorizationCode struct {
	Code        string    `json:"code"`
	AccountID   string    `json:"accountId"`
	GrantID     string    `json:"grantId"`
	ClientID    string    `json:"clientId"`
	RedirectURI string    `json:"redirectUri"`
	Scope       string    `json:"scope"`
	AuthTime    time.Time `json:"authTime"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// LoginResult binds a resolved account to the interaction.
type LoginResult struct {
	AccountID string `json:"accountId"`
}

// ConsentResult reports a confirmed consent step. GrantID is set only when
// the step created a brand-new grant; modifying an existing grant needs no
// new reference.
type ConsentResult struct {
	GrantID string `json:"grantId,omitempty"`
}

// Result is the completion payload submitted back to the engine. Exactly one
// of Login, Consent, or Error is populated.
type Result struct {
	Login            *LoginResult   `json:"login,omitempty"`
	Consent          *ConsentResult `json:"consent,omitempty"`
	Error            string         `json:"error,omitempty"`
	ErrorDescription string         `json:"error_description,omitempty"`
}

// FinishOptions controls how the engine folds this result into earlier
// submissions for the same interaction.
type FinishOptions struct {
	MergeWithLastSubmission bool
}

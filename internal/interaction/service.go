// Package interaction drives a pending login/consent exchange to completion.
// The service reads interaction state from the engine, dispatches on the
// prompt, and submits exactly one result per non-abort path.
package interaction

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"parley/internal/audit"
	"parley/internal/engine"
	"parley/internal/grant"
	"parley/internal/identity"
	"parley/internal/platform/config"
	"parley/internal/platform/metrics"
	dErrors "parley/pkg/domain-errors"
	"parley/pkg/platform/sentinel"
	"parley/pkg/requestcontext"
)

// directCodeClaims is the fixed claim set bound to grants minted through the
// programmatic code-issuance path.
var directCodeClaims = []string{"sub", "name", "email", "email_verified"}

// Service orchestrates interactions against the engine boundary.
type Service struct {
	provider engine.Provider
	codes    engine.CodeStore
	clients  engine.ClientRegistry
	resolver *identity.Resolver
	grants   *grant.Accumulator
	direct   config.DirectCodeConfig
	audit    *audit.Publisher
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewService constructs the orchestrator.
func NewService(
	provider engine.Provider,
	codes engine.CodeStore,
	clients engine.ClientRegistry,
	resolver *identity.Resolver,
	grants *grant.Accumulator,
	direct config.DirectCodeConfig,
	auditor *audit.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		provider: provider,
		codes:    codes,
		clients:  clients,
		resolver: resolver,
		grants:   grants,
		direct:   direct,
		audit:    auditor,
		metrics:  m,
		logger:   logger,
	}
}

// Details fetches the pending interaction for rendering.
func (s *Service) Details(ctx context.Context, uid string) (*engine.Interaction, error) {
	return s.interactionDetails(ctx, uid)
}

// Login resolves the submitted credential and binds the account to the
// interaction. The prompt must still be "login"; anything else is a protocol
// violation and nothing is submitted.
func (s *Service) Login(ctx context.Context, uid, login, password string) (string, error) {
	interaction, err := s.interactionDetails(ctx, uid)
	if err != nil {
		return "", err
	}
	if interaction.Prompt.Name != engine.PromptLogin {
		return "", dErrors.New(dErrors.CodeProtocolViolation, "prompt is not login")
	}

	account, err := s.resolver.ResolveByCredential(ctx, login, password)
	if err != nil {
		s.metrics.RecordLogin("failure")
		s.emitAudit(ctx, audit.Event{
			Action:   audit.ActionLoginFailed,
			Subject:  login,
			ClientID: interaction.ClientID(),
			UID:      uid,
			Reason:   string(dErrors.CodeOf(err)),
		})
		return "", err
	}

	redirect, err := s.finish(ctx, uid, engine.Result{
		Login: &engine.LoginResult{AccountID: account.SubjectID},
	}, engine.FinishOptions{MergeWithLastSubmission: false})
	if err != nil {
		return "", err
	}

	s.metrics.RecordLogin("success")
	s.emitAudit(ctx, audit.Event{
		Action:   audit.ActionLoginSucceeded,
		Subject:  account.SubjectID,
		ClientID: interaction.ClientID(),
		UID:      uid,
	})
	return redirect, nil
}

// Confirm applies the consent step: it unions everything the prompt reports
// missing into the interaction's grant (creating one when none is bound yet),
// saves it once, and submits the result. The result carries the grant id only
// when this step created the grant; extending an existing grant needs no new
// reference and passing one would violate the engine's merge semantics.
func (s *Service) Confirm(ctx context.Context, uid string) (string, error) {
	interaction, err := s.interactionDetails(ctx, uid)
	if err != nil {
		return "", err
	}
	if interaction.Prompt.Name != engine.PromptConsent {
		return "", dErrors.New(dErrors.CodeProtocolViolation, "prompt is not consent")
	}

	var handle *grant.Handle
	if interaction.GrantID != "" {
		handle, err = s.grants.Load(ctx, interaction.GrantID)
		if err != nil {
			return "", err
		}
	} else {
		accountID := interaction.AccountID()
		if accountID == "" {
			return "", dErrors.New(dErrors.CodeProtocolViolation, "consent without a bound session")
		}
		handle = s.grants.New(accountID, interaction.ClientID())
	}

	details := interaction.Prompt.Details
	if len(details.MissingOIDCScope) > 0 {
		handle.AddOIDCScope(details.MissingOIDCScope...)
	}
	if len(details.MissingOIDCClaims) > 0 {
		handle.AddOIDCClaims(details.MissingOIDCClaims...)
	}
	for indicator, scopes := range details.MissingResourceScopes {
		handle.AddResourceScope(indicator, scopes...)
	}

	grantID, err := handle.Save(ctx)
	if err != nil {
		return "", err
	}

	consent := &engine.ConsentResult{}
	if interaction.GrantID == "" {
		consent.GrantID = grantID
	}

	redirect, err := s.finish(ctx, uid, engine.Result{Consent: consent},
		engine.FinishOptions{MergeWithLastSubmission: true})
	if err != nil {
		return "", err
	}

	s.metrics.RecordConsentConfirmed()
	s.emitAudit(ctx, audit.Event{
		Action:   audit.ActionConsentConfirmed,
		Subject:  interaction.AccountID(),
		ClientID: interaction.ClientID(),
		UID:      uid,
	})
	return redirect, nil
}

// Abort cancels the interaction on the end user's behalf. Terminal for the
// interaction regardless of its prompt state.
func (s *Service) Abort(ctx context.Context, uid string) (string, error) {
	redirect, err := s.finish(ctx, uid, engine.Result{
		Error:            "access_denied",
		ErrorDescription: "End-User aborted interaction",
	}, engine.FinishOptions{MergeWithLastSubmission: false})
	if err != nil {
		return "", err
	}

	s.metrics.RecordAbort()
	s.emitAudit(ctx, audit.Event{
		Action: audit.ActionInteractionAborted,
		UID:    uid,
	})
	return redirect, nil
}

// IssueCode is the direct programmatic issuance path: no interaction uid, no
// state machine. Resolve, grant, code — any failure aborts the whole chain.
func (s *Service) IssueCode(ctx context.Context, login, password string, scopes []string) (string, error) {
	account, err := s.resolver.ResolveByCredential(ctx, login, password)
	if err != nil {
		s.metrics.RecordLogin("failure")
		// NotFound and store failure collapse externally; logs keep them apart.
		return "", dErrors.Wrap(err, dErrors.CodeUnauthorized, "Invalid credentials")
	}
	authTime := requestcontext.Now(ctx)

	handle := s.grants.New(account.SubjectID, s.direct.ClientID)
	handle.AddOIDCScope(scopes...)
	handle.AddOIDCClaims(directCodeClaims...)

	grantID, err := handle.Save(ctx)
	if err != nil {
		return "", err
	}

	redirectURIs, err := s.clients.RedirectURIs(ctx, s.direct.ClientID)
	if err != nil || len(redirectURIs) == 0 {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "direct-code client has no redirect URI")
	}

	code, err := s.codes.Save(ctx, &engine.AuthorizationCode{
		AccountID:   account.SubjectID,
		GrantID:     grantID,
		ClientID:    s.direct.ClientID,
		RedirectURI: redirectURIs[0],
		Scope:       strings.Join(scopes, " "),
		AuthTime:    authTime,
	})
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeUnavailable, "could not save authorization code")
	}

	s.metrics.RecordCodeIssued()
	s.emitAudit(ctx, audit.Event{
		Action:   audit.ActionCodeIssued,
		Subject:  account.SubjectID,
		ClientID: s.direct.ClientID,
	})
	return code, nil
}

func (s *Service) interactionDetails(ctx context.Context, uid string) (*engine.Interaction, error) {
	interaction, err := s.provider.InteractionDetails(ctx, uid)
	if err != nil {
		return nil, s.engineError(ctx, uid, err)
	}
	return interaction, nil
}

func (s *Service) finish(ctx context.Context, uid string, result engine.Result, opts engine.FinishOptions) (string, error) {
	redirect, err := s.provider.FinishInteraction(ctx, uid, result, opts)
	if err != nil {
		return "", s.engineError(ctx, uid, err)
	}
	return redirect, nil
}

func (s *Service) engineError(ctx context.Context, uid string, err error) error {
	switch {
	case errors.Is(err, sentinel.ErrSessionNotFound):
		s.logger.WarnContext(ctx, "interaction expired",
			"uid", uid,
		)
		return dErrors.Wrap(err, dErrors.CodeSessionExpired, "interaction session not found")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.Wrap(err, dErrors.CodeProtocolViolation, "engine rejected submission")
	default:
		s.logger.ErrorContext(ctx, "engine call failed",
			"uid", uid,
			"error", err,
		)
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "engine unavailable")
	}
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed",
			"action", string(event.Action),
			"error", err,
		)
	}
}

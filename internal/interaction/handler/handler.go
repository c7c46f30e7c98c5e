// Package handler exposes the interaction flow over HTTP: the browser-facing
// prompt pages and submissions, plus the programmatic code-issuance endpoint.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"parley/internal/engine"
	"parley/internal/platform/metrics"
	"parley/internal/platform/middleware"
	"parley/internal/transport/http/shared"
	dErrors "parley/pkg/domain-errors"
	"parley/pkg/requestcontext"
)

// Service defines the interface for interaction operations.
type Service interface {
	Details(ctx context.Context, uid string) (*engine.Interaction, error)
	Login(ctx context.Context, uid, login, password string) (string, error)
	Confirm(ctx context.Context, uid string) (string, error)
	Abort(ctx context.Context, uid string) (string, error)
	IssueCode(ctx context.Context, login, password string, scopes []string) (string, error)
}

// Renderer produces the user-facing representation of a prompt. The default
// renderer emits JSON; a deployment with server-rendered views swaps its own.
type Renderer interface {
	Login(w http.ResponseWriter, interaction *engine.Interaction) error
	Consent(w http.ResponseWriter, interaction *engine.Interaction) error
	SessionExpired(w http.ResponseWriter) error
}

// Handler handles the interaction endpoints.
type Handler struct {
	logger   *slog.Logger
	service  Service
	renderer Renderer
	metrics  *metrics.Metrics
	timeout  time.Duration
}

// New creates a new interaction Handler.
func New(
	service Service,
	renderer Renderer,
	logger *slog.Logger,
	m *metrics.Metrics,
	timeout time.Duration) *Handler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Handler{
		logger:   logger,
		service:  service,
		renderer: renderer,
		metrics:  m,
		timeout:  timeout,
	}
}

// Register registers the interaction routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	ir := chi.NewRouter()
	ir.Use(middleware.Recovery(h.logger))
	ir.Use(middleware.RequestID)
	ir.Use(middleware.ClientMetadata)
	ir.Use(middleware.Logger(h.logger))
	ir.Use(middleware.Timeout(h.timeout))
	ir.Use(middleware.Latency(h.metrics))
	ir.Use(middleware.NoStore)
	ir.Get("/interaction/{uid}", h.handleDetails)
	ir.Post("/interaction/{uid}/login", h.handleLogin)
	ir.Post("/interaction/{uid}/confirm", h.handleConfirm)
	// Abort is a link the user follows from the prompt page.
	ir.Get("/interaction/{uid}/abort", h.handleAbort)
	ir.Post("/get-code", h.handleIssueCode)

	r.Mount("/", ir)
}

// handleDetails renders the pending prompt for the interaction.
func (h *Handler) handleDetails(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid := chi.URLParam(r, "uid")

	interaction, err := h.service.Details(ctx, uid)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeSessionExpired) {
			if renderErr := h.renderer.SessionExpired(w); renderErr != nil {
				h.logger.ErrorContext(ctx, "render failed",
					"uid", uid,
					"error", renderErr.Error(),
				)
			}
			return
		}
		h.logger.ErrorContext(ctx, "failed to load interaction",
			"uid", uid,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	switch interaction.Prompt.Name {
	case engine.PromptLogin:
		err = h.renderer.Login(w, interaction)
	case engine.PromptConsent:
		err = h.renderer.Consent(w, interaction)
	default:
		// Prompts this surface does not render; nothing is submitted.
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "render failed",
			"uid", uid,
			"prompt", interaction.Prompt.Name,
			"error", err.Error(),
		)
	}
}

// handleLogin accepts the login form submission and redirects into the next
// step of the flow.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid := chi.URLParam(r, "uid")

	if err := r.ParseForm(); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid form body"))
		return
	}
	login := r.PostFormValue("login")
	if login == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "login is required"))
		return
	}

	redirect, err := h.service.Login(ctx, uid, login, r.PostFormValue("password"))
	if err != nil {
		h.logger.WarnContext(ctx, "login submission failed",
			"uid", uid,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	http.Redirect(w, r, redirect, http.StatusSeeOther)
}

// handleConfirm applies the consent step and redirects back to the client.
func (h *Handler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid := chi.URLParam(r, "uid")

	redirect, err := h.service.Confirm(ctx, uid)
	if err != nil {
		h.logger.WarnContext(ctx, "consent submission failed",
			"uid", uid,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	http.Redirect(w, r, redirect, http.StatusSeeOther)
}

// handleAbort cancels the interaction and redirects the denial to the client.
func (h *Handler) handleAbort(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid := chi.URLParam(r, "uid")

	redirect, err := h.service.Abort(ctx, uid)
	if err != nil {
		h.logger.WarnContext(ctx, "abort failed",
			"uid", uid,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	http.Redirect(w, r, redirect, http.StatusSeeOther)
}

type issueCodeRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
	Scopes   string `json:"scopes"`
}

type issueCodeResponse struct {
	Code string `json:"code"`
}

// handleIssueCode is the programmatic issuance endpoint. Authentication
// failures answer with the fixed envelope {"error":"Invalid credentials"}.
func (h *Handler) handleIssueCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req issueCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.Login == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "login is required"))
		return
	}

	code, err := h.service.IssueCode(ctx, req.Login, req.Password, strings.Fields(req.Scopes))
	if err != nil {
		if dErrors.Is(err, dErrors.CodeUnauthorized) {
			shared.WriteJSON(w, http.StatusUnauthorized, map[string]string{
				"error": dErrors.MessageOf(err),
			})
			return
		}
		h.logger.ErrorContext(ctx, "code issuance failed",
			"login", req.Login,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, issueCodeResponse{Code: code})
}

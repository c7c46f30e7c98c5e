package handler

import (
	"net/http"

	"parley/internal/engine"
	"parley/internal/transport/http/shared"
)

// JSONRenderer renders prompts as JSON documents. It is the default renderer;
// deployments with server-rendered views provide their own Renderer.
type JSONRenderer struct{}

// NewJSONRenderer constructs the JSON prompt renderer.
func NewJSONRenderer() *JSONRenderer {
	return &JSONRenderer{}
}

type promptView struct {
	UID     string               `json:"uid"`
	Prompt  string               `json:"prompt"`
	Client  string               `json:"client_id"`
	Scope   string               `json:"scope,omitempty"`
	Details engine.PromptDetails `json:"details,omitempty"`
}

func (JSONRenderer) Login(w http.ResponseWriter, interaction *engine.Interaction) error {
	shared.WriteJSON(w, http.StatusOK, promptView{
		UID:    interaction.UID,
		Prompt: engine.PromptLogin,
		Client: interaction.ClientID(),
		Scope:  interaction.Params["scope"],
	})
	return nil
}

func (JSONRenderer) Consent(w http.ResponseWriter, interaction *engine.Interaction) error {
	shared.WriteJSON(w, http.StatusOK, promptView{
		UID:     interaction.UID,
		Prompt:  engine.PromptConsent,
		Client:  interaction.ClientID(),
		Scope:   interaction.Params["scope"],
		Details: interaction.Prompt.Details,
	})
	return nil
}

func (JSONRenderer) SessionExpired(w http.ResponseWriter) error {
	shared.WriteJSON(w, http.StatusGone, shared.ErrorResponse{
		Error:   "session_expired",
		Message: "interaction session not found",
	})
	return nil
}

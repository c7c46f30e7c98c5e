package audit

import (
	"time"
)

// Action labels what happened during an interaction.
type Action string

const (
	ActionLoginSucceeded     Action = "login.succeeded"
	ActionLoginFailed        Action = "login.failed"
	ActionConsentConfirmed   Action = "consent.confirmed"
	ActionInteractionAborted Action = "interaction.aborted"
	ActionCodeIssued         Action = "code.issued"
)

// Event is emitted from the orchestrator to capture key interaction actions.
// It never carries credentials; Subject is a subject id or login identifier
// depending on what was known at the time.
type Event struct {
	Timestamp time.Time
	Action    Action
	Subject   string
	ClientID  string
	UID       string
	Reason    string
	RequestID string
	ClientIP  string
	UserAgent string
}

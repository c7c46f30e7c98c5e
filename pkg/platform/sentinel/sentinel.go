package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and engine adapters return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrSessionNotFound: the engine no longer knows the interaction (expired)
// - ErrExpired: authorization code or grant has expired
// - ErrAlreadyUsed: resource (auth code) already consumed
// - ErrInvalidState: entity in wrong state for requested operation
// - ErrUnavailable: backing store or engine temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound        = errors.New("not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrConflict        = errors.New("conflict")
	ErrExpired         = errors.New("expired")
	ErrAlreadyUsed     = errors.New("already used")
	ErrInvalidState    = errors.New("invalid state")
	ErrUnavailable     = errors.New("unavailable")
)

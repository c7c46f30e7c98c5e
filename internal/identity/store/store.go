package store

import (
	"context"
	"time"
)

// UserRecord is a raw identity-store row. Field names mirror the backing
// schema, not OpenID claims; projection happens in the identity package.
type UserRecord struct {
	SubjectID string
	Email     string
	FirstName string
	LastName  string
	Birthdate string
	Telephone string
	UpdatedAt time.Time
}

// UserStore is the identity store query boundary.
//
// Error Contract:
// - Return sentinel.ErrNotFound (wrapped) when no record matches
// - Return wrapped driver errors for infrastructure failures
// - Return nil error only with a non-nil record
type UserStore interface {
	// FindByLogin looks up a record by case-insensitive email match.
	FindByLogin(ctx context.Context, email string) (*UserRecord, error)
	// FindBySubject looks up a record by its stable subject identifier.
	FindBySubject(ctx context.Context, subjectID string) (*UserRecord, error)
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	// Registers the postgres driver for database/sql.
	_ "github.com/lib/pq"

	"parley/pkg/platform/sentinel"
)

// PostgresUserStore reads user records from PostgreSQL.
type PostgresUserStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed user store.
func NewPostgres(db *sql.DB) *PostgresUserStore {
	return &PostgresUserStore{db: db}
}

const userColumns = `subject_id, email, first_name, last_name, birthdate, telephone, updated_at`

// FindByLogin matches the email case-insensitively, mirroring the store's
// ILIKE lookup contract.
func (s *PostgresUserStore) FindByLogin(ctx context.Context, email string) (*UserRecord, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email ILIKE $1 LIMIT 1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, email), "email", email)
}

func (s *PostgresUserStore) FindBySubject(ctx context.Context, subjectID string) (*UserRecord, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE subject_id = $1 LIMIT 1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, subjectID), "subject", subjectID)
}

func (s *PostgresUserStore) scanOne(row *sql.Row, field, value string) (*UserRecord, error) {
	var r UserRecord
	var birthdate, telephone sql.NullString
	err := row.Scan(&r.SubjectID, &r.Email, &r.FirstName, &r.LastName, &birthdate, &telephone, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user with %s %q: %w", field, value, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("query user by %s: %w", field, err)
	}
	r.Birthdate = birthdate.String
	r.Telephone = telephone.String
	return &r, nil
}

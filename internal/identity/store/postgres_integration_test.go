//go:build integration

package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"parley/internal/identity/store"
	"parley/pkg/platform/sentinel"
	"parley/pkg/testutil/containers"
)

const usersSchema = `
CREATE TABLE IF NOT EXISTS users (
    subject_id TEXT PRIMARY KEY,
    email      TEXT NOT NULL,
    first_name TEXT NOT NULL DEFAULT '',
    last_name  TEXT NOT NULL DEFAULT '',
    birthdate  TEXT,
    telephone  TEXT,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

type PostgresUserStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresUserStore
}

func TestPostgresUserStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresUserStoreSuite))
}

func (s *PostgresUserStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	_, err := s.postgres.DB.ExecContext(context.Background(), usersSchema)
	s.Require().NoError(err)
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresUserStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "users"))
}

func (s *PostgresUserStoreSuite) insertUser(subjectID, email string) {
	_, err := s.postgres.DB.ExecContext(context.Background(),
		`INSERT INTO users (subject_id, email, first_name, last_name, birthdate, telephone, updated_at)
		 VALUES ($1, $2, 'J', 'D', '1987-10-16', '+45 00000000', $3)`,
		subjectID, email, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	s.Require().NoError(err)
}

func (s *PostgresUserStoreSuite) TestFindByLoginCaseInsensitive() {
	s.insertUser("u1", "J@X.com")
	ctx := context.Background()

	record, err := s.store.FindByLogin(ctx, "j@x.COM")
	s.Require().NoError(err)
	s.Equal("u1", record.SubjectID)
	s.Equal("J@X.com", record.Email)
	s.Equal("1987-10-16", record.Birthdate)
}

func (s *PostgresUserStoreSuite) TestFindByLoginNotFound() {
	ctx := context.Background()

	record, err := s.store.FindByLogin(ctx, "missing@x.com")
	s.Nil(record)
	s.True(errors.Is(err, sentinel.ErrNotFound))
}

func (s *PostgresUserStoreSuite) TestFindBySubject() {
	s.insertUser("u1", "j@x.com")
	ctx := context.Background()

	record, err := s.store.FindBySubject(ctx, "u1")
	s.Require().NoError(err)
	s.Equal("j@x.com", record.Email)

	_, err = s.store.FindBySubject(ctx, "u2")
	s.True(errors.Is(err, sentinel.ErrNotFound))
}

func (s *PostgresUserStoreSuite) TestNullableColumns() {
	_, err := s.postgres.DB.ExecContext(context.Background(),
		`INSERT INTO users (subject_id, email) VALUES ('u3', 'n@x.com')`)
	s.Require().NoError(err)

	record, err := s.store.FindBySubject(context.Background(), "u3")
	s.Require().NoError(err)
	s.Empty(record.Birthdate)
	s.Empty(record.Telephone)
}

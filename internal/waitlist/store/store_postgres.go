package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"pocketly/internal/waitlist/models"
)

const insertSubscriberQuery = `
	INSERT INTO newsletter_subscribers (email)
	VALUES ($1)
	RETURNING id, email, created_at
`

// PostgresStore persists subscribers in PostgreSQL. It works with either the
// lib/pq or the pgx database/sql driver.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed subscriber store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Insert adds one subscriber in a single statement and returns the stored row.
// Constraint and policy failures come back as *Error with the SQLSTATE kept.
func (s *PostgresStore) Insert(ctx context.Context, email string) (*models.Subscriber, error) {
	var sub models.Subscriber
	err := s.db.QueryRowContext(ctx, insertSubscriberQuery, email).Scan(&sub.ID, &sub.Email, &sub.CreatedAt)
	if err != nil {
		return nil, classify(err)
	}
	return &sub, nil
}

func classify(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return NewError(string(pqErr.Code), pqErr.Message, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return NewError(pgErr.Code, pgErr.Message, err)
	}
	return NewError("", err.Error(), err)
}

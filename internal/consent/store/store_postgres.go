package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"sofie/internal/consent/models"
	"sofie/pkg/platform/sentinel"
)

// PostgresStore persists consent records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
	tx *sql.Tx
}

// NewPostgres constructs a PostgreSQL-backed consent store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// NewPostgresTx constructs a PostgreSQL-backed consent store bound to a transaction.
func NewPostgresTx(tx *sql.Tx) *PostgresStore {
	return &PostgresStore{tx: tx}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer() dbExecutor {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// Save upserts the record; a grant overwrites every column of the previous one.
func (s *PostgresStore) Save(ctx context.Context, consent *models.Record) error {
	if consent == nil {
		return fmt.Errorf("consent record is required")
	}
	query := `
		INSERT INTO consents (user_id, consent_type, status, purpose, granted_at, expires_at, revoked_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (user_id, consent_type) DO UPDATE SET
			status = EXCLUDED.status,
			purpose = EXCLUDED.purpose,
			granted_at = EXCLUDED.granted_at,
			expires_at = EXCLUDED.expires_at,
			revoked_at = EXCLUDED.revoked_at,
			updated_at = now()
	`
	_, err := s.execer().ExecContext(ctx, query,
		consent.UserID,
		string(consent.Type),
		string(consent.Status),
		consent.Purpose,
		consent.GrantedAt,
		consent.ExpiresAt,
		consent.RevokedAt,
	)
	if err != nil {
		return fmt.Errorf("save consent: %w", err)
	}
	return nil
}

// Find reads one record. Inside a transaction the row is locked until commit.
func (s *PostgresStore) Find(ctx context.Context, userID string, consentType models.ConsentType) (*models.Record, error) {
	query := `
		SELECT user_id, consent_type, status, purpose, granted_at, expires_at, revoked_at
		FROM consents
		WHERE user_id = $1 AND consent_type = $2
	`
	if s.tx != nil {
		query += " FOR UPDATE"
	}
	record, err := scanConsent(s.execer().QueryRowContext(ctx, query, userID, string(consentType)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find consent: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID string) ([]*models.Record, error) {
	query := `
		SELECT user_id, consent_type, status, purpose, granted_at, expires_at, revoked_at
		FROM consents
		WHERE user_id = $1
		ORDER BY consent_type
	`
	rows, err := s.execer().QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list consents: %w", err)
	}
	defer rows.Close()

	var records []*models.Record
	for rows.Next() {
		record, err := scanConsent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan consent: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate consents: %w", err)
	}
	return records, nil
}

// LockKey takes a transaction-scoped advisory lock on key so concurrent
// processes serialize read-then-mutate sequences on the same consent.
func (s *PostgresStore) LockKey(ctx context.Context, key string) error {
	if s.tx == nil {
		return fmt.Errorf("advisory lock requires a transaction")
	}
	if _, err := s.tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
		return fmt.Errorf("lock consent key: %w", err)
	}
	return nil
}

// Health pings the database.
func (s *PostgresStore) Health(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	return s.db.PingContext(ctx)
}

type consentRow interface {
	Scan(dest ...any) error
}

func scanConsent(row consentRow) (*models.Record, error) {
	var record models.Record
	var consentType, status string
	var grantedAt, expiresAt, revokedAt sql.NullTime
	if err := row.Scan(&record.UserID, &consentType, &status, &record.Purpose, &grantedAt, &expiresAt, &revokedAt); err != nil {
		return nil, err
	}
	record.Type = models.ConsentType(consentType)
	record.Status = models.Status(status)
	record.GrantedAt = nullTime(grantedAt)
	record.ExpiresAt = nullTime(expiresAt)
	record.RevokedAt = nullTime(revokedAt)
	return &record, nil
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

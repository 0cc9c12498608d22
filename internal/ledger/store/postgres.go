package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"idledger/internal/ledger/models"
	id "idledger/pkg/domain"
	dErrors "idledger/pkg/domain-errors"
	"idledger/pkg/platform/sentinel"
)

// Schema is the DDL for the ledger tables, applied by postgres.Migrate.
//
//go:embed schema.sql
var Schema string

// ledgerLockKey identifies the ledger-wide transaction-scoped advisory lock.
const ledgerLockKey int64 = 0x1d1ed9e7

const pqUniqueViolation = "23505"

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore persists ledger state in PostgreSQL.
type PostgresStore struct {
	db      *sql.DB
	timeout time.Duration
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// WithTimeout overrides the default transaction timeout.
func (s *PostgresStore) WithTimeout(d time.Duration) *PostgresStore {
	s.timeout = d
	return s
}

// RunInTx opens a transaction, takes the ledger advisory lock so writers are
// totally ordered, and commits only if fn returns nil.
func (s *PostgresStore) RunInTx(ctx context.Context, fn func(st Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	ctx, cancel := txContext(ctx, s.timeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ledger tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, ledgerLockKey); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return dErrors.Wrap(ctxErr, dErrors.CodeTimeout, "transaction aborted: context cancelled")
		}
		return fmt.Errorf("acquire ledger lock: %w", err)
	}

	if err := fn(&postgresTx{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ledger tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindIdentity(ctx context.Context, account id.Address) (*models.IdentityRecord, error) {
	return findIdentity(ctx, s.db, account)
}

func (s *PostgresStore) FindVerifier(ctx context.Context, address id.Address) (*models.VerifierRecord, error) {
	return findVerifier(ctx, s.db, address)
}

func (s *PostgresStore) Counters(ctx context.Context) (models.Counters, error) {
	var c models.Counters
	var identities, verifiers int64
	err := s.db.QueryRowContext(ctx,
		`SELECT total_identities, total_verifiers FROM ledger_counters WHERE id = 1`,
	).Scan(&identities, &verifiers)
	if errors.Is(err, sql.ErrNoRows) {
		return c, nil
	}
	if err != nil {
		return c, fmt.Errorf("read ledger counters: %w", err)
	}
	c.TotalIdentities = uint64(identities)
	c.TotalVerifiers = uint64(verifiers)
	return c, nil
}

const eventColumns = `sequence, id, event_type, account, verifier, fingerprint, occurred_at, published_at`

func (s *PostgresStore) ListEvents(ctx context.Context, after uint64, limit int) ([]*models.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM ledger_events WHERE sequence > $1 ORDER BY sequence LIMIT $2`,
		int64(after), limit)
	if err != nil {
		return nil, fmt.Errorf("list ledger events: %w", err)
	}
	return scanEvents(rows)
}

func (s *PostgresStore) ListUnpublished(ctx context.Context, limit int) ([]*models.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM ledger_events WHERE published_at IS NULL ORDER BY sequence LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("list unpublished events: %w", err)
	}
	return scanEvents(rows)
}

func (s *PostgresStore) MarkPublished(ctx context.Context, sequences []uint64, at time.Time) error {
	if len(sequences) == 0 {
		return nil
	}
	seqs := make([]int64, len(sequences))
	for i, seq := range sequences {
		seqs[i] = int64(seq)
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE ledger_events SET published_at = $1 WHERE sequence = ANY($2)`,
		at, pq.Array(seqs))
	if err != nil {
		return fmt.Errorf("mark events published: %w", err)
	}
	return nil
}

// Ping reports database reachability for health checks.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// postgresTx is the Store bound to one locked transaction.
type postgresTx struct {
	q queryer
}

func (t *postgresTx) FindIdentity(ctx context.Context, account id.Address) (*models.IdentityRecord, error) {
	return findIdentity(ctx, t.q, account)
}

func (t *postgresTx) FindVerifier(ctx context.Context, address id.Address) (*models.VerifierRecord, error) {
	return findVerifier(ctx, t.q, address)
}

// SaveIdentity upserts the record and reconciles its attestation rows with
// AttestedBy. Fingerprint and registered_at are never overwritten.
func (t *postgresTx) SaveIdentity(ctx context.Context, record *models.IdentityRecord) error {
	account := record.Account.String()
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO identities (account, fingerprint, registered_at, attestation_count, active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (account) DO UPDATE SET
			attestation_count = EXCLUDED.attestation_count,
			active = EXCLUDED.active`,
		account, record.Fingerprint.String(), record.RegisteredAt,
		int64(record.AttestationCount), record.Active)
	if err != nil {
		return translate(err, "save identity")
	}

	verifiers := make([]string, 0, len(record.AttestedBy))
	for _, v := range record.Verifiers() {
		verifiers = append(verifiers, v.String())
	}
	if _, err := t.q.ExecContext(ctx,
		`DELETE FROM identity_attestations WHERE account = $1 AND NOT (verifier = ANY($2))`,
		account, pq.Array(verifiers)); err != nil {
		return translate(err, "remove attestations")
	}
	if len(verifiers) == 0 {
		return nil
	}
	if _, err := t.q.ExecContext(ctx, `
		INSERT INTO identity_attestations (account, verifier)
		SELECT $1, unnest($2::text[])
		ON CONFLICT (account, verifier) DO NOTHING`,
		account, pq.Array(verifiers)); err != nil {
		return translate(err, "add attestations")
	}
	return nil
}

func (t *postgresTx) SaveVerifier(ctx context.Context, verifier *models.VerifierRecord) error {
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO verifiers (address, authorized, attestations_given, verifier_type)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (address) DO UPDATE SET
			authorized = EXCLUDED.authorized,
			attestations_given = EXCLUDED.attestations_given,
			verifier_type = EXCLUDED.verifier_type`,
		verifier.Address.String(), verifier.Authorized,
		int64(verifier.AttestationsGiven), verifier.VerifierType)
	return translate(err, "save verifier")
}

func (t *postgresTx) IncrementCounters(ctx context.Context, identities, verifiers uint64) error {
	_, err := t.q.ExecContext(ctx, `
		UPDATE ledger_counters
		SET total_identities = total_identities + $1,
		    total_verifiers = total_verifiers + $2
		WHERE id = 1`,
		int64(identities), int64(verifiers))
	return translate(err, "increment counters")
}

func (t *postgresTx) AppendEvent(ctx context.Context, event *models.Event) error {
	var verifier, fingerprint sql.NullString
	if event.Verifier != nil {
		verifier = sql.NullString{String: event.Verifier.String(), Valid: true}
	}
	if event.Fingerprint != nil {
		fingerprint = sql.NullString{String: event.Fingerprint.String(), Valid: true}
	}
	var seq int64
	err := t.q.QueryRowContext(ctx, `
		INSERT INTO ledger_events (sequence, id, event_type, account, verifier, fingerprint, occurred_at)
		SELECT COALESCE(MAX(sequence), 0) + 1, $1::uuid, $2::text, $3::text, $4::text, $5::text, $6::timestamptz
		FROM ledger_events
		RETURNING sequence`,
		event.ID, string(event.Type), event.Account.String(), verifier, fingerprint, event.Timestamp,
	).Scan(&seq)
	if err != nil {
		return translate(err, "append event")
	}
	event.Sequence = uint64(seq)
	return nil
}

func findIdentity(ctx context.Context, q queryer, account id.Address) (*models.IdentityRecord, error) {
	var (
		fingerprint string
		count       int64
		verifiers   []string
	)
	rec := &models.IdentityRecord{Account: account}
	err := q.QueryRowContext(ctx, `
		SELECT i.fingerprint, i.registered_at, i.attestation_count, i.active,
		       COALESCE(array_agg(a.verifier ORDER BY a.verifier) FILTER (WHERE a.verifier IS NOT NULL), '{}')
		FROM identities i
		LEFT JOIN identity_attestations a ON a.account = i.account
		WHERE i.account = $1
		GROUP BY i.account`,
		account.String(),
	).Scan(&fingerprint, &rec.RegisteredAt, &count, &rec.Active, pq.Array(&verifiers))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find identity: %w", err)
	}

	if rec.Fingerprint, err = id.ParseFingerprint(fingerprint); err != nil {
		return nil, fmt.Errorf("decode stored fingerprint: %w", err)
	}
	rec.AttestationCount = uint64(count)
	rec.AttestedBy = make(map[id.Address]struct{}, len(verifiers))
	for _, v := range verifiers {
		addr, err := id.ParseAddress(v)
		if err != nil {
			return nil, fmt.Errorf("decode stored verifier: %w", err)
		}
		rec.AttestedBy[addr] = struct{}{}
	}
	return rec, nil
}

func findVerifier(ctx context.Context, q queryer, address id.Address) (*models.VerifierRecord, error) {
	v := &models.VerifierRecord{Address: address}
	var given int64
	err := q.QueryRowContext(ctx,
		`SELECT authorized, attestations_given, verifier_type FROM verifiers WHERE address = $1`,
		address.String(),
	).Scan(&v.Authorized, &given, &v.VerifierType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find verifier: %w", err)
	}
	v.AttestationsGiven = uint64(given)
	return v, nil
}

func scanEvents(rows *sql.Rows) ([]*models.Event, error) {
	defer rows.Close()
	out := make([]*models.Event, 0)
	for rows.Next() {
		var (
			seq         int64
			eventID     uuid.UUID
			eventType   string
			account     string
			verifier    sql.NullString
			fingerprint sql.NullString
			occurredAt  time.Time
			publishedAt sql.NullTime
		)
		if err := rows.Scan(&seq, &eventID, &eventType, &account, &verifier, &fingerprint, &occurredAt, &publishedAt); err != nil {
			return nil, fmt.Errorf("scan ledger event: %w", err)
		}
		e := &models.Event{
			ID:        eventID,
			Sequence:  uint64(seq),
			Type:      models.EventType(eventType),
			Timestamp: occurredAt,
		}
		var err error
		if e.Account, err = id.ParseAddress(account); err != nil {
			return nil, fmt.Errorf("decode event account: %w", err)
		}
		if verifier.Valid {
			v, err := id.ParseAddress(verifier.String)
			if err != nil {
				return nil, fmt.Errorf("decode event verifier: %w", err)
			}
			e.Verifier = &v
		}
		if fingerprint.Valid {
			fp, err := id.ParseFingerprint(fingerprint.String)
			if err != nil {
				return nil, fmt.Errorf("decode event fingerprint: %w", err)
			}
			e.Fingerprint = &fp
		}
		if publishedAt.Valid {
			p := publishedAt.Time
			e.PublishedAt = &p
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger events: %w", err)
	}
	return out, nil
}

// translate maps driver errors to sentinel facts. Nil stays nil.
func translate(err error, op string) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
		return fmt.Errorf("%s: %w", op, sentinel.ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}

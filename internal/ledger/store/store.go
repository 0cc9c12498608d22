// Package store persists ledger state. Two backends share one contract:
// InMemoryStore for development and tests, PostgresStore for deployments.
//
// Writers go through RunInTx, which serializes every state-changing
// operation behind a single ledger-wide lock and applies the callback's
// writes only when it returns nil.
package store

import (
	"context"
	"time"

	"idledger/internal/ledger/models"
	id "idledger/pkg/domain"
)

// Store is the transaction-scoped view of ledger state handed to RunInTx
// callbacks. Find methods return sentinel.ErrNotFound for missing records and
// always return copies.
type Store interface {
	FindIdentity(ctx context.Context, account id.Address) (*models.IdentityRecord, error)
	SaveIdentity(ctx context.Context, record *models.IdentityRecord) error
	FindVerifier(ctx context.Context, address id.Address) (*models.VerifierRecord, error)
	SaveVerifier(ctx context.Context, verifier *models.VerifierRecord) error
	// IncrementCounters adds to the monotonic creation counters.
	IncrementCounters(ctx context.Context, identities, verifiers uint64) error
	// AppendEvent assigns the next sequence number to event and appends it.
	AppendEvent(ctx context.Context, event *models.Event) error
}

const defaultTxTimeout = 5 * time.Second

// txContext bounds a transaction by the store timeout. A caller deadline that
// is already tighter still wins.
func txContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = defaultTxTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

package store

import (
	"context"
	"sync"
	"time"

	"idledger/internal/ledger/models"
	id "idledger/pkg/domain"
	dErrors "idledger/pkg/domain-errors"
	"idledger/pkg/platform/sentinel"
)

// InMemoryStore keeps ledger state in maps.
//
// txMu is the single writer lock: it is held for the whole of RunInTx so
// every state-changing operation is atomic and totally ordered. mu guards the
// committed state for concurrent readers.
type InMemoryStore struct {
	txMu sync.Mutex

	mu         sync.RWMutex
	identities map[id.Address]*models.IdentityRecord
	verifiers  map[id.Address]*models.VerifierRecord
	counters   models.Counters
	events     []*models.Event

	timeout time.Duration
}

type MemoryOption func(*InMemoryStore)

// WithTxTimeout overrides the default transaction timeout.
func WithTxTimeout(d time.Duration) MemoryOption {
	return func(s *InMemoryStore) {
		s.timeout = d
	}
}

func NewInMemoryStore(opts ...MemoryOption) *InMemoryStore {
	s := &InMemoryStore{
		identities: make(map[id.Address]*models.IdentityRecord),
		verifiers:  make(map[id.Address]*models.VerifierRecord),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunInTx runs fn against a staged view of the store and commits the staged
// writes only if fn returns nil.
func (s *InMemoryStore) RunInTx(ctx context.Context, fn func(st Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	ctx, cancel := txContext(ctx, s.timeout)
	defer cancel()

	s.txMu.Lock()
	defer s.txMu.Unlock()

	// Check again after acquiring lock
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	staged := newMemoryTx(s)
	if err := fn(staged); err != nil {
		return err
	}
	s.commit(staged)
	return nil
}

func (s *InMemoryStore) commit(t *memoryTx) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range t.identities {
		s.identities[k] = v
	}
	for k, v := range t.verifiers {
		s.verifiers[k] = v
	}
	s.counters.TotalIdentities += t.counters.TotalIdentities
	s.counters.TotalVerifiers += t.counters.TotalVerifiers
	s.events = append(s.events, t.events...)
}

func (s *InMemoryStore) FindIdentity(_ context.Context, account id.Address) (*models.IdentityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.identities[account]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return rec.Clone(), nil
}

func (s *InMemoryStore) FindVerifier(_ context.Context, address id.Address) (*models.VerifierRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.verifiers[address]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return v.Clone(), nil
}

func (s *InMemoryStore) Counters(_ context.Context) (models.Counters, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counters, nil
}

// ListEvents returns up to limit events with a sequence greater than after.
// Sequences start at 1 and are gap-free, so event n lives at index n-1.
func (s *InMemoryStore) ListEvents(_ context.Context, after uint64, limit int) ([]*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if after >= uint64(len(s.events)) {
		return []*models.Event{}, nil
	}
	end := min(int(after)+limit, len(s.events))
	out := make([]*models.Event, 0, end-int(after))
	for _, e := range s.events[after:end] {
		out = append(out, e.Clone())
	}
	return out, nil
}

// ListUnpublished returns up to limit events not yet delivered, oldest first.
func (s *InMemoryStore) ListUnpublished(_ context.Context, limit int) ([]*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Event, 0)
	for _, e := range s.events {
		if e.PublishedAt != nil {
			continue
		}
		out = append(out, e.Clone())
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// MarkPublished stamps the given sequences as delivered.
func (s *InMemoryStore) MarkPublished(_ context.Context, sequences []uint64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, seq := range sequences {
		if seq == 0 || seq > uint64(len(s.events)) {
			return sentinel.ErrNotFound
		}
	}
	for _, seq := range sequences {
		stamped := at
		s.events[seq-1].PublishedAt = &stamped
	}
	return nil
}

// memoryTx stages writes for one transaction. Reads fall through to the
// committed state for keys the transaction has not written.
type memoryTx struct {
	base       *InMemoryStore
	identities map[id.Address]*models.IdentityRecord
	verifiers  map[id.Address]*models.VerifierRecord
	counters   models.Counters
	events     []*models.Event
}

func newMemoryTx(base *InMemoryStore) *memoryTx {
	return &memoryTx{
		base:       base,
		identities: make(map[id.Address]*models.IdentityRecord),
		verifiers:  make(map[id.Address]*models.VerifierRecord),
	}
}

func (t *memoryTx) FindIdentity(ctx context.Context, account id.Address) (*models.IdentityRecord, error) {
	if rec, ok := t.identities[account]; ok {
		return rec.Clone(), nil
	}
	return t.base.FindIdentity(ctx, account)
}

func (t *memoryTx) SaveIdentity(_ context.Context, record *models.IdentityRecord) error {
	t.identities[record.Account] = record.Clone()
	return nil
}

func (t *memoryTx) FindVerifier(ctx context.Context, address id.Address) (*models.VerifierRecord, error) {
	if v, ok := t.verifiers[address]; ok {
		return v.Clone(), nil
	}
	return t.base.FindVerifier(ctx, address)
}

func (t *memoryTx) SaveVerifier(_ context.Context, verifier *models.VerifierRecord) error {
	t.verifiers[verifier.Address] = verifier.Clone()
	return nil
}

func (t *memoryTx) IncrementCounters(_ context.Context, identities, verifiers uint64) error {
	t.counters.TotalIdentities += identities
	t.counters.TotalVerifiers += verifiers
	return nil
}

func (t *memoryTx) AppendEvent(_ context.Context, event *models.Event) error {
	t.base.mu.RLock()
	committed := len(t.base.events)
	t.base.mu.RUnlock()

	event.Sequence = uint64(committed + len(t.events) + 1)
	t.events = append(t.events, event.Clone())
	return nil
}

package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"idledger/internal/ledger/metrics"
	"idledger/internal/ledger/models"
	"idledger/internal/ledger/store"
	id "idledger/pkg/domain"
	dErrors "idledger/pkg/domain-errors"
	"idledger/pkg/platform/sentinel"
)

// LedgerTx runs state-changing operations atomically and in a total order.
type LedgerTx interface {
	RunInTx(ctx context.Context, fn func(st store.Store) error) error
}

// Reader serves read-only queries from committed state.
type Reader interface {
	FindIdentity(ctx context.Context, account id.Address) (*models.IdentityRecord, error)
	FindVerifier(ctx context.Context, address id.Address) (*models.VerifierRecord, error)
	Counters(ctx context.Context) (models.Counters, error)
	ListEvents(ctx context.Context, after uint64, limit int) ([]*models.Event, error)
}

// Ledger is a backend that supports both reads and transactions.
type Ledger interface {
	LedgerTx
	Reader
}

// Service implements the identity registry and verification ledger.
// The administrator is fixed at construction and cannot change.
type Service struct {
	ledger  Ledger
	admin   id.Address
	cache   RegistrationCache
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithRegistrationCache puts a positive-only cache in front of
// IsIdentityRegistered.
func WithRegistrationCache(cache RegistrationCache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// New constructs a Service. admin must be non-null.
func New(ledger Ledger, admin id.Address, opts ...Option) (*Service, error) {
	if ledger == nil {
		return nil, errors.New("ledger store is required")
	}
	if admin.IsZero() {
		return nil, errors.New("administrator address must be non-null")
	}
	s := &Service{ledger: ledger, admin: admin}
	for _, opt := range opts {
		opt(s)
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer("idledger/internal/ledger/service")
	}
	return s, nil
}

// Administrator returns the immutable administrator address.
func (s *Service) Administrator() id.Address {
	return s.admin
}

// identityFinder and verifierFinder are satisfied by both the committed
// Reader and the transaction-scoped store.Store.
type identityFinder interface {
	FindIdentity(ctx context.Context, account id.Address) (*models.IdentityRecord, error)
}

type verifierFinder interface {
	FindVerifier(ctx context.Context, address id.Address) (*models.VerifierRecord, error)
}

// findIdentity loads a record, mapping absence to nil.
func findIdentity(ctx context.Context, r identityFinder, account id.Address) (*models.IdentityRecord, error) {
	rec, err := r.FindIdentity(ctx, account)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load identity")
	}
	return rec, nil
}

// findVerifier loads a verifier record, mapping absence to nil.
func findVerifier(ctx context.Context, r verifierFinder, address id.Address) (*models.VerifierRecord, error) {
	v, err := r.FindVerifier(ctx, address)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verifier")
	}
	return v, nil
}

// wrapStoreErr leaves domain errors untouched and wraps everything else as
// an internal failure.
func wrapStoreErr(err error, msg string) error {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, sentinel.ErrConflict) {
		return dErrors.Wrap(err, dErrors.CodeConflict, msg)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

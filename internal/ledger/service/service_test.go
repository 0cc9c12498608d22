package service

//go:generate mockgen -source=cache.go -destination=mocks/cache_mock.go -package=mocks RegistrationCache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"idledger/internal/ledger/metrics"
	"idledger/internal/ledger/models"
	"idledger/internal/ledger/service/mocks"
	"idledger/internal/ledger/store"
	id "idledger/pkg/domain"
	"idledger/pkg/requestcontext"
)

// =============================================================================
// Ledger Service Test Suite
// =============================================================================
// Justification for unit tests: the ledger's precondition order, counter
// bookkeeping and all-or-nothing semantics are the contract; they are
// exercised here against the in-memory store with a pinned clock.

var (
	admin = id.MustParseAddress("0x000000000000000000000000000000000000ad01")
	userU = id.MustParseAddress("0x00000000000000000000000000000000000000a1")
	userX = id.MustParseAddress("0x00000000000000000000000000000000000000a2")
	kycV  = id.MustParseAddress("0x00000000000000000000000000000000000000f1")
	kycW  = id.MustParseAddress("0x00000000000000000000000000000000000000f2")
	fpAB  = id.MustParseFingerprint("0xabababababababababababababababababababababababababababababababab")
	fpCD  = id.MustParseFingerprint("0xcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcd")
)

type LedgerServiceSuite struct {
	suite.Suite
	store   *store.InMemoryStore
	metrics *metrics.Metrics
	service *Service
	ctx     context.Context
	now     time.Time
}

func TestLedgerServiceSuite(t *testing.T) {
	suite.Run(t, new(LedgerServiceSuite))
}

func (s *LedgerServiceSuite) SetupTest() {
	s.store = store.NewInMemoryStore()
	s.metrics = metrics.NewWithRegisterer(prometheus.NewRegistry())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var err error
	s.service, err = New(s.store, admin, WithLogger(logger), WithMetrics(s.metrics))
	s.Require().NoError(err)

	s.now = time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func (s *LedgerServiceSuite) authorize(verifier id.Address, label string) {
	_, err := s.service.AddVerifier(s.ctx, admin, verifier, label)
	s.Require().NoError(err)
}

func (s *LedgerServiceSuite) register(account id.Address, fp id.Fingerprint) {
	_, err := s.service.RegisterIdentity(s.ctx, account, fp)
	s.Require().NoError(err)
}

// snapshot captures everything a failed operation must leave untouched.
type snapshot struct {
	counters models.Counters
	events   int
	identity *models.IdentityRecord
	verifier *models.VerifierRecord
}

func (s *LedgerServiceSuite) snapshot(account, verifier id.Address) snapshot {
	c, err := s.store.Counters(s.ctx)
	s.Require().NoError(err)
	events, err := s.store.ListEvents(s.ctx, 0, models.MaxEventPageSize)
	s.Require().NoError(err)
	rec, _ := s.store.FindIdentity(s.ctx, account)
	v, _ := s.store.FindVerifier(s.ctx, verifier)
	return snapshot{counters: c, events: len(events), identity: rec, verifier: v}
}

// =============================================================================
// Constructor Tests
// =============================================================================

func (s *LedgerServiceSuite) TestNew() {
	s.Run("nil ledger returns error", func() {
		_, err := New(nil, admin)
		s.Require().Error(err)
		s.Contains(err.Error(), "ledger store is required")
	})

	s.Run("null administrator returns error", func() {
		_, err := New(s.store, id.ZeroAddress)
		s.Require().Error(err)
		s.Contains(err.Error(), "administrator")
	})

	s.Run("administrator is fixed at construction", func() {
		s.Equal(admin, s.service.Administrator())
	})
}

// =============================================================================
// RegisterIdentity
// =============================================================================

func (s *LedgerServiceSuite) TestRegisterIdentity() {
	s.Run("unregistered until registration succeeds", func() {
		registered, err := s.service.IsIdentityRegistered(s.ctx, userU)
		s.Require().NoError(err)
		s.False(registered)

		ev, err := s.service.RegisterIdentity(s.ctx, userU, fpAB)
		s.Require().NoError(err)
		s.Equal(models.EventIdentityRegistered, ev.Type)
		s.Equal(uint64(1), ev.Sequence)
		s.Equal(s.now, ev.Timestamp)

		registered, err = s.service.IsIdentityRegistered(s.ctx, userU)
		s.Require().NoError(err)
		s.True(registered)

		stats, err := s.service.Stats(s.ctx)
		s.Require().NoError(err)
		s.Equal(uint64(1), stats.TotalIdentities)
	})

	s.Run("second registration fails and leaves state unchanged", func() {
		before := s.snapshot(userU, kycV)

		_, err := s.service.RegisterIdentity(s.ctx, userU, fpCD)
		s.ErrorIs(err, models.ErrAlreadyRegistered)

		after := s.snapshot(userU, kycV)
		s.Equal(before, after)
		s.Equal(fpAB, after.identity.Fingerprint, "fingerprint is set exactly once")
	})

	s.Run("zero fingerprint rejected without creating a record", func() {
		before := s.snapshot(userX, kycV)

		_, err := s.service.RegisterIdentity(s.ctx, userX, id.ZeroFingerprint)
		s.ErrorIs(err, models.ErrInvalidFingerprint)

		s.Equal(before, s.snapshot(userX, kycV))
		registered, err := s.service.IsIdentityRegistered(s.ctx, userX)
		s.Require().NoError(err)
		s.False(registered)
	})

	s.Run("existing registration is checked before fingerprint", func() {
		before := s.snapshot(userU, kycV)

		_, err := s.service.RegisterIdentity(s.ctx, userU, id.ZeroFingerprint)
		s.ErrorIs(err, models.ErrAlreadyRegistered)
		s.Equal(before, s.snapshot(userU, kycV))
	})

	s.Run("null caller rejected", func() {
		_, err := s.service.RegisterIdentity(s.ctx, id.ZeroAddress, fpAB)
		s.ErrorIs(err, models.ErrInvalidAddress)
	})

	s.Equal(float64(1), testutil.ToFloat64(s.metrics.IdentitiesRegistered))
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.Rejected.WithLabelValues(opRegisterIdentity, "invalid_fingerprint")))
	s.Equal(float64(2), testutil.ToFloat64(s.metrics.Rejected.WithLabelValues(opRegisterIdentity, "already_registered")))
}

// =============================================================================
// AttestIdentity
// =============================================================================

func (s *LedgerServiceSuite) TestAttestIdentity() {
	s.authorize(kycV, "KYC")
	s.register(userU, fpAB)

	s.Run("unauthorized verifier is checked first", func() {
		_, err := s.service.AttestIdentity(s.ctx, kycW, userX, id.ZeroFingerprint)
		s.ErrorIs(err, models.ErrUnauthorized)
	})

	s.Run("unknown identity before proof", func() {
		_, err := s.service.AttestIdentity(s.ctx, kycV, userX, id.ZeroFingerprint)
		s.ErrorIs(err, models.ErrUnknownIdentity)
	})

	s.Run("zero proof is invalid", func() {
		_, err := s.service.AttestIdentity(s.ctx, kycV, userU, id.ZeroFingerprint)
		s.ErrorIs(err, models.ErrInvalidProof)
	})

	s.Run("mismatched proof is invalid and changes nothing", func() {
		before := s.snapshot(userU, kycV)
		_, err := s.service.AttestIdentity(s.ctx, kycV, userU, fpCD)
		s.ErrorIs(err, models.ErrInvalidProof)
		s.Equal(before, s.snapshot(userU, kycV))
	})

	s.Run("matching proof attests", func() {
		ev, err := s.service.AttestIdentity(s.ctx, kycV, userU, fpAB)
		s.Require().NoError(err)
		s.Equal(models.EventIdentityVerified, ev.Type)
		s.Equal(userU, ev.Account)
		s.Equal(kycV, *ev.Verifier)

		status, err := s.service.CheckVerificationStatus(s.ctx, userU, kycV)
		s.Require().NoError(err)
		s.True(status.IsVerified)
		s.Equal(uint64(1), status.AttestationCount)

		info, err := s.service.GetVerifierInfo(s.ctx, kycV)
		s.Require().NoError(err)
		s.Equal(uint64(1), info.AttestationsGiven)
	})

	s.Run("duplicate attestation is not double counted", func() {
		before := s.snapshot(userU, kycV)
		_, err := s.service.AttestIdentity(s.ctx, kycV, userU, fpAB)
		s.ErrorIs(err, models.ErrDuplicateAttestation)
		s.Equal(before, s.snapshot(userU, kycV))
	})
}

// =============================================================================
// RevokeAttestation
// =============================================================================

func (s *LedgerServiceSuite) TestRevokeAttestation() {
	s.authorize(kycV, "KYC")
	s.register(userU, fpAB)

	s.Run("unauthorized caller", func() {
		_, err := s.service.RevokeAttestation(s.ctx, kycW, userU)
		s.ErrorIs(err, models.ErrUnauthorized)
	})

	s.Run("unknown identity", func() {
		_, err := s.service.RevokeAttestation(s.ctx, kycV, userX)
		s.ErrorIs(err, models.ErrUnknownIdentity)
	})

	s.Run("revoking with no attestation does not underflow", func() {
		_, err := s.service.RevokeAttestation(s.ctx, kycV, userU)
		s.ErrorIs(err, models.ErrNoSuchAttestation)

		status, err := s.service.CheckVerificationStatus(s.ctx, userU, kycV)
		s.Require().NoError(err)
		s.Zero(status.AttestationCount)
	})

	s.Run("revoke then re-attest", func() {
		_, err := s.service.AttestIdentity(s.ctx, kycV, userU, fpAB)
		s.Require().NoError(err)

		ev, err := s.service.RevokeAttestation(s.ctx, kycV, userU)
		s.Require().NoError(err)
		s.Equal(models.EventVerificationRevoked, ev.Type)

		status, err := s.service.CheckVerificationStatus(s.ctx, userU, kycV)
		s.Require().NoError(err)
		s.False(status.IsVerified)
		s.Zero(status.AttestationCount)

		info, err := s.service.GetVerifierInfo(s.ctx, kycV)
		s.Require().NoError(err)
		s.Zero(info.AttestationsGiven)

		_, err = s.service.AttestIdentity(s.ctx, kycV, userU, fpAB)
		s.Require().NoError(err, "re-attestation after revoke is allowed")
	})
}

// =============================================================================
// AddVerifier
// =============================================================================

func (s *LedgerServiceSuite) TestAddVerifier() {
	s.Run("non-administrator is rejected", func() {
		_, err := s.service.AddVerifier(s.ctx, userU, kycV, "KYC")
		s.ErrorIs(err, models.ErrUnauthorized)

		info, err := s.service.GetVerifierInfo(s.ctx, kycV)
		s.Require().NoError(err)
		s.False(info.Authorized)
	})

	s.Run("null address is rejected", func() {
		_, err := s.service.AddVerifier(s.ctx, admin, id.ZeroAddress, "KYC")
		s.ErrorIs(err, models.ErrInvalidAddress)
	})

	s.Run("oversized label is rejected", func() {
		label := make([]byte, models.MaxVerifierTypeLength+1)
		for i := range label {
			label[i] = 'k'
		}
		_, err := s.service.AddVerifier(s.ctx, admin, kycV, string(label))
		s.ErrorIs(err, models.ErrInvalidVerifierType)
	})

	s.Run("administrator authorizes with trimmed label", func() {
		info, err := s.service.AddVerifier(s.ctx, admin, kycV, "  KYC ")
		s.Require().NoError(err)
		s.Equal("KYC", info.VerifierType)

		got, err := s.service.GetVerifierInfo(s.ctx, kycV)
		s.Require().NoError(err)
		s.Equal(models.VerifierInfo{Authorized: true, VerifierType: "KYC"}, *got)
	})

	s.Run("already authorized", func() {
		_, err := s.service.AddVerifier(s.ctx, admin, kycV, "AML")
		s.ErrorIs(err, models.ErrAlreadyAuthorized)
	})

	s.Run("verifier addition emits no event", func() {
		events, err := s.service.ListEvents(s.ctx, 0, 0)
		s.Require().NoError(err)
		s.Empty(events)

		stats, err := s.service.Stats(s.ctx)
		s.Require().NoError(err)
		s.Equal(uint64(1), stats.TotalVerifiers)
		s.Equal(admin, stats.Administrator)
	})
}

// =============================================================================
// Read Queries
// =============================================================================

func (s *LedgerServiceSuite) TestReadQueries() {
	s.Run("unknown verifier yields zero info", func() {
		info, err := s.service.GetVerifierInfo(s.ctx, kycW)
		s.Require().NoError(err)
		s.Equal(models.VerifierInfo{}, *info)
	})

	s.Run("status of unknown identity", func() {
		_, err := s.service.CheckVerificationStatus(s.ctx, userX, kycV)
		s.ErrorIs(err, models.ErrUnknownIdentity)
	})

	s.Run("status reports registration time", func() {
		s.register(userU, fpAB)
		status, err := s.service.CheckVerificationStatus(s.ctx, userU, kycV)
		s.Require().NoError(err)
		s.Equal(s.now, status.RegisteredAt)
		s.False(status.IsVerified)
	})
}

// =============================================================================
// Scenario: KYC attestation lifecycle
// =============================================================================

func (s *LedgerServiceSuite) TestKYCScenario() {
	ctx := s.ctx

	_, err := s.service.AddVerifier(ctx, admin, kycV, "KYC")
	s.Require().NoError(err)
	_, err = s.service.RegisterIdentity(ctx, userU, fpAB)
	s.Require().NoError(err)

	_, err = s.service.AttestIdentity(ctx, kycV, userU, fpAB)
	s.Require().NoError(err)
	status, err := s.service.CheckVerificationStatus(ctx, userU, kycV)
	s.Require().NoError(err)
	s.Equal(models.VerificationStatus{IsVerified: true, AttestationCount: 1, RegisteredAt: s.now}, *status)

	_, err = s.service.AttestIdentity(ctx, kycV, userU, fpAB)
	s.ErrorIs(err, models.ErrDuplicateAttestation)

	_, err = s.service.RevokeAttestation(ctx, kycV, userU)
	s.Require().NoError(err)
	status, err = s.service.CheckVerificationStatus(ctx, userU, kycV)
	s.Require().NoError(err)
	s.False(status.IsVerified)
	s.Zero(status.AttestationCount)

	_, err = s.service.AttestIdentity(ctx, kycW, userU, fpAB)
	s.ErrorIs(err, models.ErrUnauthorized)

	events, err := s.service.ListEvents(ctx, 0, 0)
	s.Require().NoError(err)
	s.Require().Len(events, 3, "failed operations emit no event")
	s.Equal([]models.EventType{
		models.EventIdentityRegistered,
		models.EventIdentityVerified,
		models.EventVerificationRevoked,
	}, []models.EventType{events[0].Type, events[1].Type, events[2].Type})
	for i, ev := range events {
		s.Equal(uint64(i+1), ev.Sequence, "sequence numbers are gap-free")
	}

	page, err := s.service.ListEvents(ctx, 1, 1)
	s.Require().NoError(err)
	s.Require().Len(page, 1)
	s.Equal(uint64(2), page[0].Sequence)
}

// =============================================================================
// Atomicity and Concurrency
// =============================================================================

// failingLedger wraps the in-memory store and fails AppendEvent, after every
// other write of the operation has been staged.
type failingLedger struct {
	*store.InMemoryStore
}

type failingStore struct {
	store.Store
}

func (f failingStore) AppendEvent(context.Context, *models.Event) error {
	return errors.New("disk full")
}

func (l failingLedger) RunInTx(ctx context.Context, fn func(st store.Store) error) error {
	return l.InMemoryStore.RunInTx(ctx, func(st store.Store) error {
		return fn(failingStore{Store: st})
	})
}

func (s *LedgerServiceSuite) TestFailedWriteLeavesNoPartialState() {
	ledger := failingLedger{InMemoryStore: s.store}
	svc, err := New(ledger, admin)
	s.Require().NoError(err)

	_, err = svc.RegisterIdentity(s.ctx, userU, fpAB)
	s.Require().Error(err)
	s.Contains(err.Error(), "disk full")

	registered, err := s.service.IsIdentityRegistered(s.ctx, userU)
	s.Require().NoError(err)
	s.False(registered)
	c, err := s.store.Counters(s.ctx)
	s.Require().NoError(err)
	s.Zero(c.TotalIdentities)
}

func (s *LedgerServiceSuite) TestConcurrentAttestationsKeepCountsConsistent() {
	s.register(userU, fpAB)
	verifiers := make([]id.Address, 32)
	for i := range verifiers {
		verifiers[i] = id.Address{0xee, byte(i + 1)}
		s.authorize(verifiers[i], "KYC")
	}

	var wg sync.WaitGroup
	for _, v := range verifiers {
		for range 3 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = s.service.AttestIdentity(s.ctx, v, userU, fpAB)
			}()
		}
	}
	wg.Wait()

	rec, err := s.store.FindIdentity(s.ctx, userU)
	s.Require().NoError(err)
	s.Require().NoError(rec.CheckInvariants())
	s.Equal(uint64(len(verifiers)), rec.AttestationCount)

	events, err := s.service.ListEvents(s.ctx, 0, 0)
	s.Require().NoError(err)
	s.Len(events, len(verifiers)+1)
}

func (s *LedgerServiceSuite) TestCancelledContextAbortsTransaction() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	_, err := s.service.RegisterIdentity(ctx, userU, fpAB)
	s.Require().Error(err)

	registered, err := s.service.IsIdentityRegistered(s.ctx, userU)
	s.Require().NoError(err)
	s.False(registered)
}

// =============================================================================
// Registration Cache
// =============================================================================

func (s *LedgerServiceSuite) TestRegistrationCache() {
	ctrl := gomock.NewController(s.T())
	cache := mocks.NewMockRegistrationCache(ctrl)
	svc, err := New(s.store, admin, WithRegistrationCache(cache), WithMetrics(s.metrics))
	s.Require().NoError(err)

	s.Run("hit short-circuits the store", func() {
		cache.EXPECT().IsRegistered(gomock.Any(), userX).Return(true, nil)
		registered, err := svc.IsIdentityRegistered(s.ctx, userX)
		s.Require().NoError(err)
		s.True(registered)
	})

	s.Run("miss falls through and does not cache negatives", func() {
		cache.EXPECT().IsRegistered(gomock.Any(), userU).Return(false, nil)
		registered, err := svc.IsIdentityRegistered(s.ctx, userU)
		s.Require().NoError(err)
		s.False(registered)
	})

	s.Run("registration populates the cache", func() {
		cache.EXPECT().MarkRegistered(gomock.Any(), userU).Return(nil)
		_, err := svc.RegisterIdentity(s.ctx, userU, fpAB)
		s.Require().NoError(err)
	})

	s.Run("cache errors fall back to the store", func() {
		cache.EXPECT().IsRegistered(gomock.Any(), userU).Return(false, errors.New("connection refused"))
		cache.EXPECT().MarkRegistered(gomock.Any(), userU).Return(errors.New("connection refused"))
		registered, err := svc.IsIdentityRegistered(s.ctx, userU)
		s.Require().NoError(err)
		s.True(registered)
	})

	s.Equal(float64(1), testutil.ToFloat64(s.metrics.RegistrationCache.WithLabelValues(cacheHit)))
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.RegistrationCache.WithLabelValues(cacheMiss)))
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.RegistrationCache.WithLabelValues(cacheError)))
}

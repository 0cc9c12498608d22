package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"idledger/internal/ledger/models"
	id "idledger/pkg/domain"
	dErrors "idledger/pkg/domain-errors"
	"idledger/pkg/requestcontext"
)

// Cache lookup results for the registration cache metric.
const (
	cacheHit   = "hit"
	cacheMiss  = "miss"
	cacheError = "error"
)

// CheckVerificationStatus reports whether verifier currently attests target.
// The fingerprint is never returned.
func (s *Service) CheckVerificationStatus(ctx context.Context, target, verifier id.Address) (status *models.VerificationStatus, err error) {
	ctx, done := s.start(ctx, opCheckVerificationStatus,
		attribute.Stringer("ledger.account", target),
		attribute.Stringer("ledger.verifier", verifier),
	)
	defer done(&err)

	record, err := requireActiveIdentity(ctx, s.ledger, target)
	if err != nil {
		return nil, err
	}
	return &models.VerificationStatus{
		IsVerified:       record.HasAttestation(verifier),
		AttestationCount: record.AttestationCount,
		RegisteredAt:     record.RegisteredAt,
	}, nil
}

// GetVerifierInfo returns the verifier record for address. Unknown addresses
// yield the zero value, not an error.
func (s *Service) GetVerifierInfo(ctx context.Context, address id.Address) (info *models.VerifierInfo, err error) {
	ctx, done := s.start(ctx, opGetVerifierInfo, attribute.Stringer("ledger.verifier", address))
	defer done(&err)

	v, err := findVerifier(ctx, s.ledger, address)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return &models.VerifierInfo{}, nil
	}
	return &models.VerifierInfo{
		Authorized:        v.Authorized,
		AttestationsGiven: v.AttestationsGiven,
		VerifierType:      v.VerifierType,
	}, nil
}

// IsIdentityRegistered reports whether account has an active identity.
// A configured cache answers positive lookups; the store answers the rest.
func (s *Service) IsIdentityRegistered(ctx context.Context, account id.Address) (registered bool, err error) {
	ctx, done := s.start(ctx, opIsIdentityRegistered, attribute.Stringer("ledger.account", account))
	defer done(&err)

	if s.cache != nil {
		hit, cacheErr := s.cache.IsRegistered(ctx, account)
		switch {
		case cacheErr != nil:
			s.recordCache(cacheError)
			if s.logger != nil {
				s.logger.WarnContext(ctx, "registration cache lookup failed",
					"error", cacheErr,
					"account", account.String(),
					"request_id", requestcontext.RequestID(ctx),
				)
			}
		case hit:
			s.recordCache(cacheHit)
			return true, nil
		default:
			s.recordCache(cacheMiss)
		}
	}

	record, err := findIdentity(ctx, s.ledger, account)
	if err != nil {
		return false, err
	}
	registered = record != nil && record.Active
	if registered {
		s.markRegistered(ctx, account)
	}
	return registered, nil
}

// Stats returns the ledger-wide counters and the administrator.
func (s *Service) Stats(ctx context.Context) (stats *models.Stats, err error) {
	ctx, done := s.start(ctx, opStats)
	defer done(&err)

	c, err := s.ledger.Counters(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read counters")
	}
	return &models.Stats{
		TotalIdentities: c.TotalIdentities,
		TotalVerifiers:  c.TotalVerifiers,
		Administrator:   s.admin,
	}, nil
}

// ListEvents returns a page of the event log after the given sequence, in
// sequence order. limit is clamped to [1, MaxEventPageSize].
func (s *Service) ListEvents(ctx context.Context, after uint64, limit int) (events []*models.Event, err error) {
	ctx, done := s.start(ctx, opListEvents, attribute.Int64("ledger.after", int64(after)))
	defer done(&err)

	events, err = s.ledger.ListEvents(ctx, after, models.ClampEventLimit(limit))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list events")
	}
	return events, nil
}

// markRegistered populates the cache. Failures are logged and dropped.
func (s *Service) markRegistered(ctx context.Context, account id.Address) {
	if s.cache == nil {
		return
	}
	if err := s.cache.MarkRegistered(ctx, account); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "registration cache write failed",
			"error", err,
			"account", account.String(),
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}

func (s *Service) recordCache(result string) {
	if s.metrics != nil {
		s.metrics.IncrementCache(result)
	}
}

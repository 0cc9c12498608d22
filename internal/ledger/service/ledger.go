package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"idledger/internal/ledger/models"
	"idledger/internal/ledger/store"
	id "idledger/pkg/domain"
	"idledger/pkg/requestcontext"
)

// RegisterIdentity binds fingerprint to caller's account.
//
// Errors, in check order: ErrInvalidAddress (null caller),
// ErrAlreadyRegistered, ErrInvalidFingerprint.
func (s *Service) RegisterIdentity(ctx context.Context, caller id.Address, fingerprint id.Fingerprint) (event *models.Event, err error) {
	ctx, done := s.start(ctx, opRegisterIdentity, attribute.Stringer("ledger.account", caller))
	defer done(&err)

	if caller.IsZero() {
		return nil, models.ErrInvalidAddress
	}
	now := requestcontext.Now(ctx)

	err = s.ledger.RunInTx(ctx, func(st store.Store) error {
		existing, err := findIdentity(ctx, st, caller)
		if err != nil {
			return err
		}
		if existing != nil && existing.Active {
			return models.ErrAlreadyRegistered
		}
		if fingerprint.IsZero() {
			return models.ErrInvalidFingerprint
		}

		record, err := models.NewIdentityRecord(caller, fingerprint, now)
		if err != nil {
			return err
		}
		if err := st.SaveIdentity(ctx, record); err != nil {
			return wrapStoreErr(err, "failed to save identity")
		}
		if err := st.IncrementCounters(ctx, 1, 0); err != nil {
			return wrapStoreErr(err, "failed to update counters")
		}
		ev := models.NewIdentityRegistered(caller, fingerprint, now)
		if err := st.AppendEvent(ctx, ev); err != nil {
			return wrapStoreErr(err, "failed to append event")
		}
		event = ev
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.markRegistered(ctx, caller)
	s.logAudit(ctx, auditIdentityRegistered,
		"account", caller.String(),
		"sequence", event.Sequence,
	)
	if s.metrics != nil {
		s.metrics.IncrementIdentitiesRegistered()
	}
	return event, nil
}

// AttestIdentity records that caller, an authorized verifier, checked proof
// against target's registered fingerprint.
//
// Errors, in check order: ErrUnauthorized, ErrUnknownIdentity,
// ErrInvalidProof, ErrDuplicateAttestation.
func (s *Service) AttestIdentity(ctx context.Context, caller, target id.Address, proof id.Fingerprint) (event *models.Event, err error) {
	ctx, done := s.start(ctx, opAttestIdentity,
		attribute.Stringer("ledger.account", target),
		attribute.Stringer("ledger.verifier", caller),
	)
	defer done(&err)
	now := requestcontext.Now(ctx)

	err = s.ledger.RunInTx(ctx, func(st store.Store) error {
		verifier, err := s.requireVerifier(ctx, st, caller)
		if err != nil {
			return err
		}
		record, err := requireActiveIdentity(ctx, st, target)
		if err != nil {
			return err
		}
		if proof.IsZero() || !record.MatchesProof(proof) {
			return models.ErrInvalidProof
		}
		if record.HasAttestation(caller) {
			return models.ErrDuplicateAttestation
		}

		if err := record.AddAttestation(caller); err != nil {
			return err
		}
		verifier.IncrementGiven()
		if err := st.SaveIdentity(ctx, record); err != nil {
			return wrapStoreErr(err, "failed to save identity")
		}
		if err := st.SaveVerifier(ctx, verifier); err != nil {
			return wrapStoreErr(err, "failed to save verifier")
		}
		ev := models.NewIdentityVerified(target, caller, now)
		if err := st.AppendEvent(ctx, ev); err != nil {
			return wrapStoreErr(err, "failed to append event")
		}
		event = ev
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logAudit(ctx, auditIdentityAttested,
		"account", target.String(),
		"verifier", caller.String(),
		"sequence", event.Sequence,
	)
	if s.metrics != nil {
		s.metrics.IncrementAttestations()
	}
	return event, nil
}

// RevokeAttestation withdraws caller's attestation from target. The verifier
// may attest again afterwards.
//
// Errors, in check order: ErrUnauthorized, ErrUnknownIdentity,
// ErrNoSuchAttestation.
func (s *Service) RevokeAttestation(ctx context.Context, caller, target id.Address) (event *models.Event, err error) {
	ctx, done := s.start(ctx, opRevokeAttestation,
		attribute.Stringer("ledger.account", target),
		attribute.Stringer("ledger.verifier", caller),
	)
	defer done(&err)
	now := requestcontext.Now(ctx)

	err = s.ledger.RunInTx(ctx, func(st store.Store) error {
		verifier, err := s.requireVerifier(ctx, st, caller)
		if err != nil {
			return err
		}
		record, err := requireActiveIdentity(ctx, st, target)
		if err != nil {
			return err
		}
		if !record.HasAttestation(caller) {
			return models.ErrNoSuchAttestation
		}

		if err := record.RemoveAttestation(caller); err != nil {
			return err
		}
		if err := verifier.DecrementGiven(); err != nil {
			return err
		}
		if err := st.SaveIdentity(ctx, record); err != nil {
			return wrapStoreErr(err, "failed to save identity")
		}
		if err := st.SaveVerifier(ctx, verifier); err != nil {
			return wrapStoreErr(err, "failed to save verifier")
		}
		ev := models.NewVerificationRevoked(target, caller, now)
		if err := st.AppendEvent(ctx, ev); err != nil {
			return wrapStoreErr(err, "failed to append event")
		}
		event = ev
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logAudit(ctx, auditAttestationRevoked,
		"account", target.String(),
		"verifier", caller.String(),
		"sequence", event.Sequence,
	)
	if s.metrics != nil {
		s.metrics.IncrementAttestationsRevoked()
	}
	return event, nil
}

// AddVerifier authorizes address as a verifier. Only the administrator may
// call it. No ledger event is emitted.
//
// Errors, in check order: ErrUnauthorized, ErrInvalidAddress,
// ErrInvalidVerifierType, ErrAlreadyAuthorized.
func (s *Service) AddVerifier(ctx context.Context, caller, address id.Address, verifierType string) (info *models.VerifierInfo, err error) {
	ctx, done := s.start(ctx, opAddVerifier,
		attribute.Stringer("ledger.caller", caller),
		attribute.Stringer("ledger.verifier", address),
	)
	defer done(&err)

	if caller != s.admin {
		return nil, models.ErrUnauthorized
	}
	if address.IsZero() {
		return nil, models.ErrInvalidAddress
	}
	label, err := models.NormalizeVerifierType(verifierType)
	if err != nil {
		return nil, err
	}

	err = s.ledger.RunInTx(ctx, func(st store.Store) error {
		existing, err := findVerifier(ctx, st, address)
		if err != nil {
			return err
		}
		if existing != nil && existing.Authorized {
			return models.ErrAlreadyAuthorized
		}
		if err := st.SaveVerifier(ctx, models.NewVerifierRecord(address, label)); err != nil {
			return wrapStoreErr(err, "failed to save verifier")
		}
		if err := st.IncrementCounters(ctx, 0, 1); err != nil {
			return wrapStoreErr(err, "failed to update counters")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logAudit(ctx, auditVerifierAuthorized,
		"verifier", address.String(),
		"verifier_type", label,
	)
	if s.metrics != nil {
		s.metrics.IncrementVerifiersAdded()
	}
	return &models.VerifierInfo{Authorized: true, VerifierType: label}, nil
}

// requireVerifier loads caller's verifier record, failing with
// ErrUnauthorized unless it is authorized.
func (s *Service) requireVerifier(ctx context.Context, st store.Store, caller id.Address) (*models.VerifierRecord, error) {
	verifier, err := findVerifier(ctx, st, caller)
	if err != nil {
		return nil, err
	}
	if verifier == nil || !verifier.Authorized {
		return nil, models.ErrUnauthorized
	}
	return verifier, nil
}

func requireActiveIdentity(ctx context.Context, r identityFinder, account id.Address) (*models.IdentityRecord, error) {
	record, err := findIdentity(ctx, r, account)
	if err != nil {
		return nil, err
	}
	if record == nil || !record.Active {
		return nil, models.ErrUnknownIdentity
	}
	return record, nil
}

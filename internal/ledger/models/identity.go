package models

import (
	"fmt"
	"slices"
	"time"

	id "idledger/pkg/domain"
	dErrors "idledger/pkg/domain-errors"
)

// IdentityRecord is the aggregate root for one account's registered identity.
//
// Invariants:
//   - Fingerprint is non-zero and set exactly once, at creation
//   - RegisteredAt is immutable after creation
//   - Active is true from creation and never reset
//   - AttestationCount == len(AttestedBy) at all times
//
// AttestedBy is the source of truth for who attested; AttestationCount is
// co-maintained so reads never walk the set.
type IdentityRecord struct {
	Account          id.Address
	Fingerprint      id.Fingerprint
	RegisteredAt     time.Time
	AttestationCount uint64
	Active           bool
	AttestedBy       map[id.Address]struct{}
}

// NewIdentityRecord creates an active record with no attestations.
func NewIdentityRecord(account id.Address, fingerprint id.Fingerprint, now time.Time) (*IdentityRecord, error) {
	if fingerprint.IsZero() {
		return nil, ErrInvalidFingerprint
	}
	return &IdentityRecord{
		Account:      account,
		Fingerprint:  fingerprint,
		RegisteredAt: now,
		Active:       true,
		AttestedBy:   make(map[id.Address]struct{}),
	}, nil
}

// HasAttestation reports whether verifier currently attests this identity.
func (r *IdentityRecord) HasAttestation(verifier id.Address) bool {
	_, ok := r.AttestedBy[verifier]
	return ok
}

// MatchesProof compares proof against the stored fingerprint in constant time.
func (r *IdentityRecord) MatchesProof(proof id.Fingerprint) bool {
	return r.Fingerprint.Equal(proof)
}

// AddAttestation records verifier's attestation.
// Call HasAttestation first; a duplicate is an invariant violation here.
func (r *IdentityRecord) AddAttestation(verifier id.Address) error {
	if r.HasAttestation(verifier) {
		return dErrors.New(dErrors.CodeInvariantViolation, "attestation already present")
	}
	if r.AttestedBy == nil {
		r.AttestedBy = make(map[id.Address]struct{})
	}
	r.AttestedBy[verifier] = struct{}{}
	r.AttestationCount++
	return nil
}

// RemoveAttestation drops verifier's attestation. The count is only touched
// after set membership is confirmed, so it can never underflow.
func (r *IdentityRecord) RemoveAttestation(verifier id.Address) error {
	if !r.HasAttestation(verifier) {
		return dErrors.New(dErrors.CodeInvariantViolation, "attestation not present")
	}
	if r.AttestationCount == 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "attestation count underflow")
	}
	delete(r.AttestedBy, verifier)
	r.AttestationCount--
	return nil
}

// Verifiers returns the attesting verifiers in byte order.
func (r *IdentityRecord) Verifiers() []id.Address {
	out := make([]id.Address, 0, len(r.AttestedBy))
	for v := range r.AttestedBy {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b id.Address) int {
		return slices.Compare(a[:], b[:])
	})
	return out
}

// Clone returns a deep copy. Stores hand out clones so callers can mutate
// freely inside a transaction without touching committed state.
func (r *IdentityRecord) Clone() *IdentityRecord {
	if r == nil {
		return nil
	}
	c := *r
	c.AttestedBy = make(map[id.Address]struct{}, len(r.AttestedBy))
	for v := range r.AttestedBy {
		c.AttestedBy[v] = struct{}{}
	}
	return &c
}

// CheckInvariants validates the record's structural invariants.
func (r *IdentityRecord) CheckInvariants() error {
	if r.Fingerprint.IsZero() {
		return dErrors.New(dErrors.CodeInvariantViolation, "identity fingerprint is zero")
	}
	if !r.Active {
		return dErrors.New(dErrors.CodeInvariantViolation, "identity is not active")
	}
	if r.AttestationCount != uint64(len(r.AttestedBy)) {
		return dErrors.New(dErrors.CodeInvariantViolation,
			fmt.Sprintf("attestation count %d does not match %d attesters", r.AttestationCount, len(r.AttestedBy)))
	}
	return nil
}

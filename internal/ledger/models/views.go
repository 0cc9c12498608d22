package models

import (
	"time"

	id "idledger/pkg/domain"
)

// VerificationStatus answers checkVerificationStatus. It never exposes the
// fingerprint.
type VerificationStatus struct {
	IsVerified       bool      `json:"is_verified"`
	AttestationCount uint64    `json:"attestation_count"`
	RegisteredAt     time.Time `json:"registered_at"`
}

// VerifierInfo answers getVerifierInfo. Unknown addresses yield the zero value.
type VerifierInfo struct {
	Authorized        bool   `json:"authorized"`
	AttestationsGiven uint64 `json:"attestations_given"`
	VerifierType      string `json:"verifier_type"`
}

// Counters are the monotonic ledger-wide creation counts.
type Counters struct {
	TotalIdentities uint64
	TotalVerifiers  uint64
}

// Stats is the public ledger summary.
type Stats struct {
	TotalIdentities uint64     `json:"total_identities"`
	TotalVerifiers  uint64     `json:"total_verifiers"`
	Administrator   id.Address `json:"administrator"`
}

const (
	DefaultEventPageSize = 100
	MaxEventPageSize     = 1000
)

// ClampEventLimit applies the event page bounds.
func ClampEventLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultEventPageSize
	case limit > MaxEventPageSize:
		return MaxEventPageSize
	default:
		return limit
	}
}

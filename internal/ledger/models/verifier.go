package models

import (
	"strings"
	"unicode/utf8"

	id "idledger/pkg/domain"
	dErrors "idledger/pkg/domain-errors"
)

// MaxVerifierTypeLength bounds the free-text verifier label.
const MaxVerifierTypeLength = 64

// VerifierRecord describes an address the administrator authorized to attest.
//
// Invariants:
//   - Authorized is set only by the administrator and never reset
//   - AttestationsGiven equals the number of identities whose attestation set
//     currently contains this address
type VerifierRecord struct {
	Address           id.Address
	Authorized        bool
	AttestationsGiven uint64
	VerifierType      string
}

// NormalizeVerifierType trims the label and enforces its length bound.
func NormalizeVerifierType(s string) (string, error) {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > MaxVerifierTypeLength {
		return "", ErrInvalidVerifierType
	}
	return s, nil
}

// NewVerifierRecord creates an authorized verifier with no attestations.
func NewVerifierRecord(address id.Address, verifierType string) *VerifierRecord {
	return &VerifierRecord{
		Address:      address,
		Authorized:   true,
		VerifierType: verifierType,
	}
}

func (v *VerifierRecord) IncrementGiven() {
	v.AttestationsGiven++
}

// DecrementGiven refuses to go below zero.
func (v *VerifierRecord) DecrementGiven() error {
	if v.AttestationsGiven == 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "verifier attestation count underflow")
	}
	v.AttestationsGiven--
	return nil
}

func (v *VerifierRecord) Clone() *VerifierRecord {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

package handler

import (
	"idledger/internal/ledger/models"
	id "idledger/pkg/domain"
)

// RegisterIdentityRequest is the body of POST /identities.
type RegisterIdentityRequest struct {
	Fingerprint string `json:"fingerprint"`

	fingerprint id.Fingerprint
}

// Validate parses the fingerprint. The zero fingerprint parses and is
// rejected by the ledger with its own reason.
func (r *RegisterIdentityRequest) Validate() error {
	fp, err := id.ParseFingerprint(r.Fingerprint)
	if err != nil {
		return err
	}
	r.fingerprint = fp
	return nil
}

// AttestIdentityRequest is the body of POST /identities/{account}/attestations.
type AttestIdentityRequest struct {
	Proof string `json:"proof"`

	proof id.Fingerprint
}

func (r *AttestIdentityRequest) Validate() error {
	proof, err := id.ParseFingerprint(r.Proof)
	if err != nil {
		return err
	}
	r.proof = proof
	return nil
}

// AddVerifierRequest is the body of POST /verifiers. The verifier type is
// checked by the ledger after the administrator check.
type AddVerifierRequest struct {
	Address      string `json:"address"`
	VerifierType string `json:"verifier_type"`

	address id.Address
}

func (r *AddVerifierRequest) Validate() error {
	addr, err := id.ParseAddress(r.Address)
	if err != nil {
		return err
	}
	r.address = addr
	return nil
}

type RegisteredResponse struct {
	Account    id.Address `json:"account"`
	Registered bool       `json:"registered"`
}

type VerifierResponse struct {
	Address id.Address `json:"address"`
	models.VerifierInfo
}

type EventsResponse struct {
	Events    []*models.Event `json:"events"`
	NextAfter uint64          `json:"next_after"`
}

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

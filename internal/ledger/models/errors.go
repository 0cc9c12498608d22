package models

import dErrors "idledger/pkg/domain-errors"

// Ledger error kinds. The reason string is stable and part of the API;
// clients switch on it rather than on the message.
var (
	ErrAlreadyRegistered    = dErrors.NewReason(dErrors.CodeConflict, "already_registered", "account already has an active identity")
	ErrInvalidFingerprint   = dErrors.NewReason(dErrors.CodeInvalidInput, "invalid_fingerprint", "fingerprint must be non-zero")
	ErrUnauthorized         = dErrors.NewReason(dErrors.CodeForbidden, "unauthorized", "caller is not permitted to perform this operation")
	ErrUnknownIdentity      = dErrors.NewReason(dErrors.CodeNotFound, "unknown_identity", "account has no active identity")
	ErrInvalidProof         = dErrors.NewReason(dErrors.CodeInvalidInput, "invalid_proof", "proof does not match the registered fingerprint")
	ErrDuplicateAttestation = dErrors.NewReason(dErrors.CodeConflict, "duplicate_attestation", "verifier already attested this identity")
	ErrNoSuchAttestation    = dErrors.NewReason(dErrors.CodeConflict, "no_such_attestation", "verifier has no attestation on this identity")
	ErrInvalidAddress       = dErrors.NewReason(dErrors.CodeInvalidInput, "invalid_address", "address must be non-null")
	ErrAlreadyAuthorized    = dErrors.NewReason(dErrors.CodeConflict, "already_authorized", "address is already an authorized verifier")
	ErrInvalidVerifierType  = dErrors.NewReason(dErrors.CodeValidation, "invalid_verifier_type", "verifier type must be at most 64 characters")
)

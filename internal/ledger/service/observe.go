package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	dErrors "idledger/pkg/domain-errors"
	"idledger/pkg/requestcontext"
)

// Operation names used for spans, metric labels and log lines.
const (
	opRegisterIdentity        = "register_identity"
	opAttestIdentity          = "attest_identity"
	opRevokeAttestation       = "revoke_attestation"
	opAddVerifier             = "add_verifier"
	opCheckVerificationStatus = "check_verification_status"
	opGetVerifierInfo         = "get_verifier_info"
	opIsIdentityRegistered    = "is_identity_registered"
	opStats                   = "stats"
	opListEvents              = "list_events"
)

// Audit log events for committed state changes.
const (
	auditIdentityRegistered = "identity_registered"
	auditIdentityAttested   = "identity_attested"
	auditAttestationRevoked = "attestation_revoked"
	auditVerifierAuthorized = "verifier_authorized"
)

// start opens a span for op and returns the finish func to defer.
func (s *Service) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(err *error)) {
	begin := time.Now()
	ctx, span := s.tracer.Start(ctx, "ledger."+op, trace.WithAttributes(attrs...))
	return ctx, func(errp *error) {
		var err error
		if errp != nil {
			err = *errp
		}
		s.finish(ctx, span, op, begin, err)
	}
}

func (s *Service) finish(ctx context.Context, span trace.Span, op string, begin time.Time, err error) {
	defer span.End()
	if s.metrics != nil {
		s.metrics.ObserveOperation(op, begin)
	}
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	reason := dErrors.ReasonOf(err)
	if reason != "" {
		span.SetAttributes(attribute.String("ledger.reason", reason))
		if s.metrics != nil {
			s.metrics.IncrementRejected(op, reason)
		}
		if s.logger != nil {
			s.logger.InfoContext(ctx, "ledger operation rejected",
				"operation", op,
				"reason", reason,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
		return
	}
	if s.logger != nil {
		s.logger.ErrorContext(ctx, "ledger operation failed",
			"operation", op,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if s.logger == nil {
		return
	}
	// Add request_id from context if available
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	s.logger.InfoContext(ctx, event, args...)
}

package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"idledger/internal/ledger/models"
	id "idledger/pkg/domain"
	dErrors "idledger/pkg/domain-errors"
	"idledger/pkg/platform/httputil"
	authmw "idledger/pkg/platform/middleware/auth"
	"idledger/pkg/platform/middleware/request"
	"idledger/pkg/requestcontext"
)

// Service defines the ledger operations exposed over HTTP.
type Service interface {
	RegisterIdentity(ctx context.Context, caller id.Address, fingerprint id.Fingerprint) (*models.Event, error)
	AttestIdentity(ctx context.Context, caller, target id.Address, proof id.Fingerprint) (*models.Event, error)
	RevokeAttestation(ctx context.Context, caller, target id.Address) (*models.Event, error)
	AddVerifier(ctx context.Context, caller, address id.Address, verifierType string) (*models.VerifierInfo, error)
	CheckVerificationStatus(ctx context.Context, target, verifier id.Address) (*models.VerificationStatus, error)
	GetVerifierInfo(ctx context.Context, address id.Address) (*models.VerifierInfo, error)
	IsIdentityRegistered(ctx context.Context, account id.Address) (bool, error)
	Stats(ctx context.Context) (*models.Stats, error)
	ListEvents(ctx context.Context, after uint64, limit int) ([]*models.Event, error)
}

// HealthCheck probes one backing dependency.
type HealthCheck func(ctx context.Context) error

// Handler handles the ledger endpoints.
type Handler struct {
	logger       *slog.Logger
	ledger       Service
	jwtValidator authmw.JWTValidator
	checks       map[string]HealthCheck
}

// Option configures a Handler.
type Option func(*Handler)

// WithHealthCheck adds a named dependency probe to /health.
func WithHealthCheck(name string, check HealthCheck) Option {
	return func(h *Handler) {
		h.checks[name] = check
	}
}

// New creates a new ledger Handler.
func New(
	ledger Service,
	logger *slog.Logger,
	jwtValidator authmw.JWTValidator,
	opts ...Option) *Handler {
	h := &Handler{
		logger:       logger,
		ledger:       ledger,
		jwtValidator: jwtValidator,
		checks:       make(map[string]HealthCheck),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register registers the ledger routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/health", h.handleHealth)

	r.Get("/identities/{account}", h.handleIsRegistered)
	r.Get("/identities/{account}/attestations/{verifier}", h.handleVerificationStatus)
	r.Get("/verifiers/{address}", h.handleGetVerifier)
	r.Get("/ledger/stats", h.handleStats)
	r.Get("/ledger/events", h.handleListEvents)

	r.Group(func(authed chi.Router) {
		authed.Use(authmw.RequireAuth(h.jwtValidator, h.logger))
		withBody := authed.With(request.ContentTypeJSON)
		withBody.Post("/identities", h.handleRegister)
		withBody.Post("/identities/{account}/attestations", h.handleAttest)
		withBody.Post("/verifiers", h.handleAddVerifier)
		authed.Delete("/identities/{account}/attestations", h.handleRevoke)
	})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[RegisterIdentityRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}

	event, err := h.ledger.RegisterIdentity(ctx, caller, req.fingerprint)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, event)
}

func (h *Handler) handleAttest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	target, ok := pathAddress(w, r, "account")
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AttestIdentityRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}

	event, err := h.ledger.AttestIdentity(ctx, caller, target, req.proof)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, event)
}

func (h *Handler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	target, ok := pathAddress(w, r, "account")
	if !ok {
		return
	}

	event, err := h.ledger.RevokeAttestation(ctx, caller, target)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, event)
}

func (h *Handler) handleAddVerifier(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AddVerifierRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}

	info, err := h.ledger.AddVerifier(ctx, caller, req.address, req.VerifierType)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, VerifierResponse{Address: req.address, VerifierInfo: *info})
}

func (h *Handler) handleIsRegistered(w http.ResponseWriter, r *http.Request) {
	account, ok := pathAddress(w, r, "account")
	if !ok {
		return
	}
	registered, err := h.ledger.IsIdentityRegistered(r.Context(), account)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, RegisteredResponse{Account: account, Registered: registered})
}

func (h *Handler) handleVerificationStatus(w http.ResponseWriter, r *http.Request) {
	target, ok := pathAddress(w, r, "account")
	if !ok {
		return
	}
	verifier, ok := pathAddress(w, r, "verifier")
	if !ok {
		return
	}
	status, err := h.ledger.CheckVerificationStatus(r.Context(), target, verifier)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, status)
}

func (h *Handler) handleGetVerifier(w http.ResponseWriter, r *http.Request) {
	address, ok := pathAddress(w, r, "address")
	if !ok {
		return
	}
	info, err := h.ledger.GetVerifierInfo(r.Context(), address)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, VerifierResponse{Address: address, VerifierInfo: *info})
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.ledger.Stats(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var after uint64
	if v := q.Get("after"); v != "" {
		parsed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "after must be a non-negative integer"))
			return
		}
		after = parsed
	}
	limit := 0
	if v := q.Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a non-negative integer"))
			return
		}
		limit = parsed
	}

	events, err := h.ledger.ListEvents(r.Context(), after, limit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	resp := EventsResponse{Events: events, NextAfter: after}
	if n := len(events); n > 0 {
		resp.NextAfter = events[n-1].Sequence
	}
	if resp.Events == nil {
		resp.Events = []*models.Event{}
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := HealthResponse{Status: "ok", Checks: make(map[string]string, len(h.checks))}
	status := http.StatusOK
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.logger.WarnContext(ctx, "health check failed",
				"check", name,
				"error", err,
				"request_id", request.GetRequestID(ctx),
			)
			resp.Checks[name] = "unavailable"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	httputil.WriteJSON(w, status, resp)
}

// caller returns the authenticated account bound by RequireAuth.
func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (id.Address, bool) {
	ctx := r.Context()
	account, ok := requestcontext.Account(ctx)
	if !ok {
		// This should never happen if RequireAuth middleware is configured correctly
		h.logger.ErrorContext(ctx, "caller missing from context despite auth middleware",
			"request_id", request.GetRequestID(ctx),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return id.ZeroAddress, false
	}
	return account, true
}

func pathAddress(w http.ResponseWriter, r *http.Request, param string) (id.Address, bool) {
	addr, err := id.ParseAddress(chi.URLParam(r, param))
	if err != nil {
		httputil.WriteError(w, err)
		return id.ZeroAddress, false
	}
	return addr, true
}

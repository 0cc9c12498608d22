package models

import (
	"time"

	"github.com/google/uuid"

	id "idledger/pkg/domain"
)

// EventType names a ledger event.
type EventType string

const (
	EventIdentityRegistered  EventType = "IdentityRegistered"
	EventIdentityVerified    EventType = "IdentityVerified"
	EventVerificationRevoked EventType = "VerificationRevoked"
)

func (t EventType) IsValid() bool {
	switch t {
	case EventIdentityRegistered, EventIdentityVerified, EventVerificationRevoked:
		return true
	}
	return false
}

// Event is one entry of the append-only ledger event log. Sequence is
// assigned by the store when the event is appended and is gap-free.
// Verifier is zero for IdentityRegistered; Fingerprint is zero for the
// attestation events.
type Event struct {
	ID          uuid.UUID       `json:"id"`
	Sequence    uint64          `json:"sequence"`
	Type        EventType       `json:"type"`
	Account     id.Address      `json:"account"`
	Verifier    *id.Address     `json:"verifier,omitempty"`
	Fingerprint *id.Fingerprint `json:"fingerprint,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
	PublishedAt *time.Time      `json:"-"`
}

func NewIdentityRegistered(account id.Address, fingerprint id.Fingerprint, at time.Time) *Event {
	fp := fingerprint
	return &Event{
		ID:          uuid.New(),
		Type:        EventIdentityRegistered,
		Account:     account,
		Fingerprint: &fp,
		Timestamp:   at,
	}
}

func NewIdentityVerified(account, verifier id.Address, at time.Time) *Event {
	v := verifier
	return &Event{
		ID:        uuid.New(),
		Type:      EventIdentityVerified,
		Account:   account,
		Verifier:  &v,
		Timestamp: at,
	}
}

func NewVerificationRevoked(account, verifier id.Address, at time.Time) *Event {
	v := verifier
	return &Event{
		ID:        uuid.New(),
		Type:      EventVerificationRevoked,
		Account:   account,
		Verifier:  &v,
		Timestamp: at,
	}
}

func (e *Event) Clone() *Event {
	if e == nil {
		return nil
	}
	c := *e
	if e.Verifier != nil {
		v := *e.Verifier
		c.Verifier = &v
	}
	if e.Fingerprint != nil {
		fp := *e.Fingerprint
		c.Fingerprint = &fp
	}
	if e.PublishedAt != nil {
		p := *e.PublishedAt
		c.PublishedAt = &p
	}
	return &c
}

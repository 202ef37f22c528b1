// Package events carries the registry's domain events. Every successful
// mutating operation emits exactly one event; consumers rely on them for
// off-band indexing, so they are transport-agnostic and flow through a
// Publisher into a Store (in-memory, or a postgres outbox drained to Kafka).
package events

import (
	"time"

	"folio/internal/registry/models"
)

// Type names a domain event.
type Type string

const (
	TypePageCreated             Type = "page.created"
	TypePageContentUpdated      Type = "page.content_updated"
	TypePageOwnershipTransfered Type = "page.ownership_transferred"
	TypePageDestroyed           Type = "page.destroyed"

	TypeNameReserved Type = "name.reserved"
	TypeNameExtended Type = "name.extended"
	TypeNameReleased Type = "name.released"

	TypeDonationReceived     Type = "funds.donation_received"
	TypeFundsReceived        Type = "funds.received"
	TypeFundsWithdrawn       Type = "funds.withdrawn"
	TypePayoutAddressUpdated Type = "funds.payout_address_updated"
	TypePricingUpdated       Type = "pricing.updated"

	TypeOwnershipTransferred Type = "access.ownership_transferred"
	TypeAdminGranted         Type = "access.admin_granted"
	TypeAdminRevoked         Type = "access.admin_revoked"
	TypeBlacklistAdded       Type = "access.blacklist_added"
	TypeBlacklistRemoved     Type = "access.blacklist_removed"
)

// Event captures one completed operation. Only the fields relevant to the
// event type are populated.
type Event struct {
	ID        string
	Type      Type
	Timestamp time.Time
	RequestID string

	// Actor is the caller that triggered the operation.
	Actor models.Address

	PageID  models.PageID  `json:",omitempty"`
	Name    string         `json:",omitempty"`
	Target  models.Address `json:",omitempty"`
	Subject models.Address `json:",omitempty"`

	// Amount semantics depend on the type: payment kept for reservations,
	// donation or withdrawal amount for fund events.
	Amount models.Amount `json:",omitempty"`
	Refund models.Amount `json:",omitempty"`

	// Expiry is set for reservation and extension events.
	Expiry time.Time `json:",omitempty"`
}

// Package models holds the registry's domain types. They are plain values so
// stores can copy them freely and services stay free of storage concerns.
package models

import (
	"encoding/binary"
	"encoding/hex"
	"time"

	"golang.org/x/crypto/sha3"
)

// Address identifies an account. The surrounding execution environment
// authenticates callers; the core treats addresses as opaque strings.
type Address string

// ZeroAddress is the sentinel for "no account". A page whose owner is the
// zero address does not exist.
const ZeroAddress Address = ""

// IsZero reports whether the address is the zero sentinel.
func (a Address) IsZero() bool { return a == ZeroAddress }

// Amount is a value amount in micropay units (µp).
type Amount uint64

// PageID is the hex form of a 32-byte identifier derived deterministically
// from (registry ID, creator, target, per-creator sequence number).
type PageID string

// DerivePageID computes the identifier for the seq-th page a creator
// registers for a target. The registry ID salts the derivation so distinct
// deployments never mint colliding identifiers. Sequence numbers are never
// reused, so a destroyed page's identifier can never be recreated.
func DerivePageID(registryID string, creator, target Address, seq uint64) PageID {
	h := sha3.New256()
	writeField := func(b []byte) {
		var n [8]byte
		binary.BigEndian.PutUint64(n[:], uint64(len(b)))
		h.Write(n[:])
		h.Write(b)
	}
	writeField([]byte(registryID))
	writeField([]byte(creator))
	writeField([]byte(target))
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], seq)
	h.Write(n[:])
	return PageID(hex.EncodeToString(h.Sum(nil)))
}

// Page binds a creator-derived identifier to an owner, a target address, and
// a content hash. A page exists iff Owner is not the zero address.
type Page struct {
	ID          PageID
	Owner       Address
	Target      Address
	ContentHash []byte
}

// Exists reports whether the page record represents a live page.
func (p Page) Exists() bool { return !p.Owner.IsZero() }

// ReservationMonth is the fixed 30-day month approximation used for all
// reservation expiry arithmetic.
const ReservationMonth = 30 * 24 * time.Hour

// Valid reservation terms. Any other term fails with InvalidTerm.
const (
	TermOneMonth     = 1
	TermTwelveMonths = 12
)

// ValidTerm reports whether months is an accepted reservation term.
func ValidTerm(months int) bool {
	return months == TermOneMonth || months == TermTwelveMonths
}

// TermDuration converts a validated term into its expiry duration.
func TermDuration(months int) time.Duration {
	return time.Duration(months) * ReservationMonth
}

// ValidName reports whether a name is URL-safe: ASCII digits, upper and
// lower letters, hyphen and underscore only. Emptiness is a separate error
// class and is checked by the caller first.
func ValidName(name string) bool {
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c == '-' || c == '_':
		default:
			return false
		}
	}
	return len(name) > 0
}

// Pricing is the owner-mutable reservation pricing configuration. Changes
// apply prospectively; existing reservations are never repriced.
type Pricing struct {
	// MonthlyCost is the base cost of a one-month reservation.
	MonthlyCost Amount
	// TwelveMonthDiscountPct is the percentage discount applied to
	// twelve-month terms. At most 100.
	TwelveMonthDiscountPct uint64
	// ShortNameThreshold: names strictly shorter than this are "short".
	ShortNameThreshold int
	// ShortNameMultiplier scales the cost of short names.
	ShortNameMultiplier uint64
}

// Reservation is the read-side view of an active name binding.
type Reservation struct {
	Name   string
	PageID PageID
	Expiry time.Time
}

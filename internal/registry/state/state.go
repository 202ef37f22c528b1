// Package state owns the registry's single mutable state container and the
// stores that persist it.
//
// All mutating operations run through Store.Update, which serializes writers
// and applies the mutation to a staged copy: the closure either returns nil
// and the whole staged state becomes current, or returns an error and every
// write it made is discarded. There is no partially applied state and no
// suspension point mid-operation.
package state

import (
	"context"
	"maps"
	"time"

	"folio/internal/registry/models"
)

// Registry is the complete mutable state of one registry deployment. It is
// constructed once at service start with an explicit initial owner and
// default pricing, and passed explicitly to every operation closure; there
// are no ambient globals.
type Registry struct {
	// Access control.
	Owner     models.Address
	Admins    map[models.Address]struct{}
	Blacklist map[models.Address]struct{}

	// Page table and per-creator sequence counters. Counters never decrease
	// and are never reused.
	Pages     map[models.PageID]models.Page
	Sequences map[models.Address]uint64

	// Name reservation tables. Kept as three separate indexes so expiry is a
	// derived read-time predicate: entries for an expired reservation persist
	// until released or overwritten (lazy, tombstoned expiry).
	NameToPage map[string]models.PageID
	PageToName map[models.PageID]string
	Expiries   map[models.PageID]time.Time

	// Pricing configuration, payout address and held balance.
	Pricing       models.Pricing
	PayoutAddress models.Address
	Balance       models.Amount
}

// NewRegistry builds the initial state for a fresh deployment.
func NewRegistry(owner, payout models.Address, pricing models.Pricing) *Registry {
	return &Registry{
		Owner:         owner,
		Admins:        make(map[models.Address]struct{}),
		Blacklist:     make(map[models.Address]struct{}),
		Pages:         make(map[models.PageID]models.Page),
		Sequences:     make(map[models.Address]uint64),
		NameToPage:    make(map[string]models.PageID),
		PageToName:    make(map[models.PageID]string),
		Expiries:      make(map[models.PageID]time.Time),
		Pricing:       pricing,
		PayoutAddress: payout,
	}
}

// Clone deep-copies the state. Update closures mutate the clone so a failed
// operation leaves the current state untouched.
func (r *Registry) Clone() *Registry {
	c := *r
	c.Admins = maps.Clone(r.Admins)
	c.Blacklist = maps.Clone(r.Blacklist)
	c.Pages = make(map[models.PageID]models.Page, len(r.Pages))
	for id, p := range r.Pages {
		if p.ContentHash != nil {
			hash := make([]byte, len(p.ContentHash))
			copy(hash, p.ContentHash)
			p.ContentHash = hash
		}
		c.Pages[id] = p
	}
	c.Sequences = maps.Clone(r.Sequences)
	c.NameToPage = maps.Clone(r.NameToPage)
	c.PageToName = maps.Clone(r.PageToName)
	c.Expiries = maps.Clone(r.Expiries)
	return &c
}

// ActiveReservation resolves a name through the lazy-expiry predicate: the
// forward mapping counts only while its expiry has not passed. The lookup
// never mutates storage; stale entries stay behind as tombstones.
func (r *Registry) ActiveReservation(name string, now time.Time) (models.PageID, bool) {
	pageID, ok := r.NameToPage[name]
	if !ok {
		return "", false
	}
	expiry, ok := r.Expiries[pageID]
	if !ok || !now.Before(expiry) {
		return "", false
	}
	return pageID, true
}

// ActiveName is the reverse lookup under the same lazy-expiry predicate.
// A destroyed or overwritten binding can leave the reverse mapping stale;
// callers that need the forward truth must resolve through NameToPage.
func (r *Registry) ActiveName(pageID models.PageID, now time.Time) (string, bool) {
	name, ok := r.PageToName[pageID]
	if !ok {
		return "", false
	}
	expiry, ok := r.Expiries[pageID]
	if !ok || !now.Before(expiry) {
		return "", false
	}
	return name, true
}

// Store serializes access to a Registry.
//
// Update runs fn against a staged copy under an exclusive lock; the copy
// replaces the current state only when fn returns nil. View runs fn against
// the current state under a shared lock and must not mutate it.
type Store interface {
	View(ctx context.Context, fn func(*Registry) error) error
	Update(ctx context.Context, fn func(*Registry) error) error
	Close() error
}

package state

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio/internal/registry/models"
)

func testRegistry() *Registry {
	return NewRegistry("addr-owner", "addr-payout", models.Pricing{
		MonthlyCost:            5000,
		TwelveMonthDiscountPct: 20,
		ShortNameThreshold:     6,
		ShortNameMultiplier:    10,
	})
}

// Store behavior shared by both implementations: commit on nil, discard on
// error, no partial state either way.
func runStoreContract(t *testing.T, store Store) {
	ctx := context.Background()

	err := store.Update(ctx, func(r *Registry) error {
		r.Pages["page-1"] = models.Page{ID: "page-1", Owner: "addr-alice", Target: "addr-target"}
		r.Balance = 100
		return nil
	})
	require.NoError(t, err)

	failed := errors.New("operation failed")
	err = store.Update(ctx, func(r *Registry) error {
		r.Pages["page-2"] = models.Page{ID: "page-2", Owner: "addr-bob", Target: "addr-target"}
		r.Balance = 999
		delete(r.Pages, "page-1")
		return failed
	})
	require.ErrorIs(t, err, failed)

	err = store.View(ctx, func(r *Registry) error {
		assert.Contains(t, r.Pages, models.PageID("page-1"))
		assert.NotContains(t, r.Pages, models.PageID("page-2"))
		assert.Equal(t, models.Amount(100), r.Balance)
		return nil
	})
	require.NoError(t, err)
}

func TestMemoryStoreContract(t *testing.T) {
	store := NewMemory(testRegistry())
	defer store.Close()
	runStoreContract(t, store)
}

func TestBoltStoreContract(t *testing.T) {
	store, err := OpenBolt(filepath.Join(t.TempDir(), "state.db"), testRegistry())
	require.NoError(t, err)
	defer store.Close()
	runStoreContract(t, store)
}

func TestBoltReopenKeepsState(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "state.db")
	expiry := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	store, err := OpenBolt(dbPath, testRegistry())
	require.NoError(t, err)
	err = store.Update(context.Background(), func(r *Registry) error {
		r.Pages["page-1"] = models.Page{ID: "page-1", Owner: "addr-alice", Target: "addr-target", ContentHash: []byte{0x01}}
		r.NameToPage["alpha"] = "page-1"
		r.PageToName["page-1"] = "alpha"
		r.Expiries["page-1"] = expiry
		r.Admins["addr-admin"] = struct{}{}
		r.Balance = 5000
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// The seed state is ignored on reopen; the snapshot wins.
	reopened, err := OpenBolt(dbPath, NewRegistry("addr-someone-else", "addr-elsewhere", models.Pricing{}))
	require.NoError(t, err)
	defer reopened.Close()

	err = reopened.View(context.Background(), func(r *Registry) error {
		assert.Equal(t, models.Address("addr-owner"), r.Owner)
		assert.Equal(t, models.Address("addr-alice"), r.Pages["page-1"].Owner)
		assert.Equal(t, []byte{0x01}, r.Pages["page-1"].ContentHash)
		assert.Equal(t, models.PageID("page-1"), r.NameToPage["alpha"])
		assert.True(t, expiry.Equal(r.Expiries["page-1"]))
		assert.Contains(t, r.Admins, models.Address("addr-admin"))
		assert.Equal(t, models.Amount(5000), r.Balance)
		return nil
	})
	require.NoError(t, err)

	// gob drops empty maps; a write after reopen must not panic on nil.
	err = reopened.Update(context.Background(), func(r *Registry) error {
		r.Blacklist["addr-bad"] = struct{}{}
		r.Sequences["addr-alice"] = 1
		return nil
	})
	require.NoError(t, err)
}

func TestCloneIsDeep(t *testing.T) {
	r := testRegistry()
	r.Pages["page-1"] = models.Page{ID: "page-1", Owner: "addr-alice", ContentHash: []byte{0x01, 0x02}}
	r.NameToPage["alpha"] = "page-1"
	r.Admins["addr-admin"] = struct{}{}

	c := r.Clone()
	c.Pages["page-2"] = models.Page{ID: "page-2", Owner: "addr-bob"}
	c.Pages["page-1"].ContentHash[0] = 0xff
	delete(c.NameToPage, "alpha")
	delete(c.Admins, "addr-admin")
	c.Balance = 42

	assert.NotContains(t, r.Pages, models.PageID("page-2"))
	assert.Equal(t, []byte{0x01, 0x02}, r.Pages["page-1"].ContentHash)
	assert.Contains(t, r.NameToPage, "alpha")
	assert.Contains(t, r.Admins, models.Address("addr-admin"))
	assert.Equal(t, models.Amount(0), r.Balance)
}

func TestActiveReservation(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r := testRegistry()
	r.NameToPage["alpha"] = "page-1"
	r.Expiries["page-1"] = now.Add(time.Hour)

	pageID, active := r.ActiveReservation("alpha", now)
	assert.True(t, active)
	assert.Equal(t, models.PageID("page-1"), pageID)

	_, active = r.ActiveReservation("alpha", now.Add(time.Hour))
	assert.False(t, active, "expiry instant itself is expired")

	_, active = r.ActiveReservation("missing", now)
	assert.False(t, active)

	// Forward mapping without an expiry entry counts as unreserved.
	r.NameToPage["orphan"] = "page-2"
	_, active = r.ActiveReservation("orphan", now)
	assert.False(t, active)
}

func TestActiveName(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r := testRegistry()
	r.PageToName["page-1"] = "alpha"
	r.Expiries["page-1"] = now.Add(time.Hour)

	name, active := r.ActiveName("page-1", now)
	assert.True(t, active)
	assert.Equal(t, "alpha", name)

	_, active = r.ActiveName("page-1", now.Add(2*time.Hour))
	assert.False(t, active)
	_, active = r.ActiveName("page-2", now)
	assert.False(t, active)
}

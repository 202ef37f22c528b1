// Package bank abstracts outbound value transfer. The registry core never
// moves funds itself; refunds and withdrawals go through this port, and a
// rejected transfer aborts the operation that requested it.
package bank

//go:generate mockgen -source=bank.go -destination=mock/bank_mock.go -package=mock

import (
	"context"
	"errors"
	"sync"

	"folio/internal/registry/models"
)

// ErrTransferRejected is returned when the recipient refuses the payment.
var ErrTransferRejected = errors.New("transfer rejected by recipient")

// Bank sends value out of the registry's escrow.
type Bank interface {
	Transfer(ctx context.Context, to models.Address, amount models.Amount) error
}

// Memory records transfers for tests and single-node runs. Recipients can be
// programmed to reject payments, driving the rollback paths.
type Memory struct {
	mu        sync.Mutex
	transfers map[models.Address]models.Amount
	rejecting map[models.Address]struct{}
}

func NewMemory() *Memory {
	return &Memory{
		transfers: make(map[models.Address]models.Amount),
		rejecting: make(map[models.Address]struct{}),
	}
}

func (m *Memory) Transfer(_ context.Context, to models.Address, amount models.Amount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rejecting[to]; ok {
		return ErrTransferRejected
	}
	m.transfers[to] += amount
	return nil
}

// Received returns the total amount transferred to an address.
func (m *Memory) Received(addr models.Address) models.Amount {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transfers[addr]
}

// Reject makes future transfers to addr fail.
func (m *Memory) Reject(addr models.Address) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejecting[addr] = struct{}{}
}

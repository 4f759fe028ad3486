// Package repository defines the storage contracts for the raffle: the
// ticket store with its exclusive transactional unit, the buyer ledger that
// rides inside that unit, and the independent settings store. The postgres
// subpackage is the production implementation; inmemory backs the tests.
package repository

import (
	"context"
	"time"

	"github.com/granrifa/rifa-go/internal/domain"
)

// BuyerOrder selects the ordering of a buyer listing.
type BuyerOrder int

const (
	// ByCreatedDesc is the admin listing order, newest purchase first.
	ByCreatedDesc BuyerOrder = iota
	// ByTicketAsc is the export order.
	ByTicketAsc
)

// Tx is the set of mutations available inside one exclusive transactional
// unit. Implementations must guarantee that two units touching the same
// ticket number cannot interleave: the loser blocks until the winner commits
// and then observes the committed state.
type Tx interface {
	// TicketForUpdate reads a ticket and locks it for the remainder of the
	// unit. Returns ErrNotFound for numbers outside the seeded range.
	TicketForUpdate(ctx context.Context, number int) (domain.Ticket, error)
	// SetTicketSold marks the locked ticket sold with its buyer reference.
	SetTicketSold(ctx context.Context, number int, buyerID int64, soldAt time.Time) error
	// ClearTicket returns a ticket to available, dropping buyer reference and
	// sold timestamp. Clearing an already-available ticket is a no-op.
	ClearTicket(ctx context.Context, number int) error
	// ResetTickets returns every ticket to available.
	ResetTickets(ctx context.Context) error

	InsertBuyer(ctx context.Context, b domain.Buyer) (int64, error)
	DeleteBuyersByTicket(ctx context.Context, number int) (int64, error)
	DeleteAllBuyers(ctx context.Context) error
}

// Store owns ticket and buyer state. Reads outside InTx see committed state
// only.
type Store interface {
	Ticket(ctx context.Context, number int) (domain.Ticket, error)
	Tickets(ctx context.Context) ([]domain.Ticket, error)
	Counts(ctx context.Context) (domain.TicketCounts, error)
	Buyers(ctx context.Context, order BuyerOrder) ([]domain.BuyerWithStatus, error)

	// InTx runs fn as one atomic unit. Any error from fn rolls the whole unit
	// back; no partial buyer-without-ticket or ticket-without-buyer state is
	// ever observable.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// SettingsStore is independent of ticket state and has no consistency
// coupling to it.
type SettingsStore interface {
	All(ctx context.Context) (domain.Settings, error)
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, values map[string]string) error
}

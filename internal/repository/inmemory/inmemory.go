// Package inmemory holds a mutex-guarded implementation of the raffle stores.
// Transactions are copy-on-write: mutations apply to a staging copy that
// replaces the live state only when the whole unit succeeds, mirroring the
// rollback guarantee of the postgres implementation. Used by the tests and
// usable as a throwaway dev backend.
package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/granrifa/rifa-go/internal/domain"
	"github.com/granrifa/rifa-go/internal/repository"
)

type Store struct {
	mu          sync.Mutex
	tickets     map[int]domain.Ticket
	buyers      []domain.Buyer
	settings    map[string]string
	nextBuyerID int64
}

// NewStore seeds tickets 1..ticketCount available and copies the default
// settings, the same initial state the postgres schema bootstrap produces.
func NewStore(ticketCount int, defaultSettings map[string]string) *Store {
	tickets := make(map[int]domain.Ticket, ticketCount)
	for n := 1; n <= ticketCount; n++ {
		tickets[n] = domain.Ticket{Number: n, Status: domain.TicketAvailable}
	}

	settings := make(map[string]string, len(defaultSettings))
	for k, v := range defaultSettings {
		settings[k] = v
	}

	return &Store{
		tickets:     tickets,
		buyers:      []domain.Buyer{},
		settings:    settings,
		nextBuyerID: 1,
	}
}

func (s *Store) Ticket(_ context.Context, number int) (domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tickets[number]
	if !ok {
		return domain.Ticket{}, repository.ErrNotFound
	}
	return t, nil
}

func (s *Store) Tickets(_ context.Context) ([]domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tickets := make([]domain.Ticket, 0, len(s.tickets))
	for _, t := range s.tickets {
		tickets = append(tickets, t)
	}
	sort.Slice(tickets, func(i, j int) bool { return tickets[i].Number < tickets[j].Number })

	return tickets, nil
}

func (s *Store) Counts(_ context.Context) (domain.TicketCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := domain.TicketCounts{Total: int64(len(s.tickets))}
	for _, t := range s.tickets {
		if t.Status == domain.TicketSold {
			c.Sold++
		} else {
			c.Available++
		}
	}

	return c, nil
}

func (s *Store) Buyers(_ context.Context, order repository.BuyerOrder) ([]domain.BuyerWithStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	buyers := make([]domain.BuyerWithStatus, 0, len(s.buyers))
	for _, b := range s.buyers {
		status := domain.TicketAvailable
		if t, ok := s.tickets[b.TicketNumber]; ok {
			status = t.Status
		}
		buyers = append(buyers, domain.BuyerWithStatus{Buyer: b, TicketStatus: status})
	}

	switch order {
	case repository.ByTicketAsc:
		sort.Slice(buyers, func(i, j int) bool {
			return buyers[i].TicketNumber < buyers[j].TicketNumber
		})
	default:
		sort.Slice(buyers, func(i, j int) bool {
			return buyers[i].CreatedAt.After(buyers[j].CreatedAt)
		})
	}

	return buyers, nil
}

// InTx serializes all units behind one mutex; fn mutates a staging copy that
// is swapped in only on success.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := &memTx{
		tickets:     make(map[int]domain.Ticket, len(s.tickets)),
		buyers:      append([]domain.Buyer(nil), s.buyers...),
		nextBuyerID: s.nextBuyerID,
	}
	for n, t := range s.tickets {
		staged.tickets[n] = t
	}

	if err := fn(ctx, staged); err != nil {
		return err
	}

	s.tickets = staged.tickets
	s.buyers = staged.buyers
	s.nextBuyerID = staged.nextBuyerID

	return nil
}

type memTx struct {
	tickets     map[int]domain.Ticket
	buyers      []domain.Buyer
	nextBuyerID int64
}

func (t *memTx) TicketForUpdate(_ context.Context, number int) (domain.Ticket, error) {
	tk, ok := t.tickets[number]
	if !ok {
		return domain.Ticket{}, repository.ErrNotFound
	}
	return tk, nil
}

func (t *memTx) SetTicketSold(_ context.Context, number int, buyerID int64, soldAt time.Time) error {
	tk, ok := t.tickets[number]
	if !ok {
		return repository.ErrNotFound
	}
	tk.Status = domain.TicketSold
	tk.BuyerID = &buyerID
	tk.SoldAt = &soldAt
	t.tickets[number] = tk
	return nil
}

func (t *memTx) ClearTicket(_ context.Context, number int) error {
	tk, ok := t.tickets[number]
	if !ok {
		return repository.ErrNotFound
	}
	tk.Status = domain.TicketAvailable
	tk.BuyerID = nil
	tk.SoldAt = nil
	t.tickets[number] = tk
	return nil
}

func (t *memTx) ResetTickets(_ context.Context) error {
	for n, tk := range t.tickets {
		tk.Status = domain.TicketAvailable
		tk.BuyerID = nil
		tk.SoldAt = nil
		t.tickets[n] = tk
	}
	return nil
}

func (t *memTx) InsertBuyer(_ context.Context, b domain.Buyer) (int64, error) {
	if b.Name == "" || b.Phone == "" {
		return 0, fmt.Errorf("insert buyer: %w", repository.ErrConflict)
	}
	b.ID = t.nextBuyerID
	t.nextBuyerID++
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	t.buyers = append(t.buyers, b)
	return b.ID, nil
}

func (t *memTx) DeleteBuyersByTicket(_ context.Context, number int) (int64, error) {
	kept := t.buyers[:0]
	var removed int64
	for _, b := range t.buyers {
		if b.TicketNumber == number {
			removed++
			continue
		}
		kept = append(kept, b)
	}
	t.buyers = kept
	return removed, nil
}

func (t *memTx) DeleteAllBuyers(_ context.Context) error {
	t.buyers = t.buyers[:0]
	return nil
}

// Settings implements repository.SettingsStore on the same store.

func (s *Store) All(_ context.Context) (domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(domain.Settings, len(s.settings))
	for k, v := range s.settings {
		out[k] = v
	}
	return out, nil
}

func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.settings[key]
	if !ok {
		return "", repository.ErrNotFound
	}
	return v, nil
}

func (s *Store) Set(_ context.Context, values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, v := range values {
		s.settings[k] = v
	}
	return nil
}

// Package query serves the read side: ticket grid, buyer listings and the
// admin statistics. It never mutates state.
package query

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/granrifa/rifa-go/internal/domain"
	"github.com/granrifa/rifa-go/internal/repository"
)

type Service struct {
	store    repository.Store
	settings repository.SettingsStore
}

func New(store repository.Store, settings repository.SettingsStore) *Service {
	return &Service{store: store, settings: settings}
}

// Tickets returns the whole grid ordered by number.
func (s *Service) Tickets(ctx context.Context) ([]domain.Ticket, error) {
	const op = "service.query.Tickets"

	tickets, err := s.store.Tickets(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return tickets, nil
}

// Buyers returns the ledger joined with ticket status, newest purchase first.
func (s *Service) Buyers(ctx context.Context) ([]domain.BuyerWithStatus, error) {
	const op = "service.query.Buyers"

	buyers, err := s.store.Buyers(ctx, repository.ByCreatedDesc)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return buyers, nil
}

// BuyersByTicket returns the ledger in ticket-number order, the shape the
// export consumes.
func (s *Service) BuyersByTicket(ctx context.Context) ([]domain.BuyerWithStatus, error) {
	const op = "service.query.BuyersByTicket"

	buyers, err := s.store.Buyers(ctx, repository.ByTicketAsc)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return buyers, nil
}

// Stats reports counters plus revenue = sold × current price. A missing or
// malformed price setting counts as zero rather than failing the stats call.
func (s *Service) Stats(ctx context.Context) (domain.Stats, error) {
	const op = "service.query.Stats"

	counts, err := s.store.Counts(ctx)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("%s:%w", op, err)
	}

	var price float64
	raw, err := s.settings.Get(ctx, domain.SettingPrice)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return domain.Stats{}, fmt.Errorf("%s:%w", op, err)
	}
	if err == nil {
		price, _ = strconv.ParseFloat(raw, 64)
	}

	return domain.Stats{
		Total:     counts.Total,
		Sold:      counts.Sold,
		Available: counts.Available,
		Revenue:   float64(counts.Sold) * price,
	}, nil
}

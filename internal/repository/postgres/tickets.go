package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/granrifa/rifa-go/internal/domain"
	"github.com/granrifa/rifa-go/internal/repository"
)

// Ticket retrieves a single ticket by number.
//
// Returns repository.ErrNotFound for numbers outside the seeded range.
func (s *Store) Ticket(ctx context.Context, number int) (domain.Ticket, error) {
	const op = "postgres.Store.Ticket"

	var t domain.Ticket
	err := s.pool.QueryRow(ctx,
		`SELECT number, status, buyer_id, sold_at
		 FROM tickets WHERE number = $1`,
		number,
	).Scan(&t.Number, &t.Status, &t.BuyerID, &t.SoldAt)
	if err != nil {
		return domain.Ticket{}, wrapDBErr(op, err)
	}

	return t, nil
}

// Tickets returns every ticket ordered by number.
func (s *Store) Tickets(ctx context.Context) ([]domain.Ticket, error) {
	const op = "postgres.Store.Tickets"

	rows, err := s.pool.Query(ctx,
		`SELECT number, status, buyer_id, sold_at
		 FROM tickets ORDER BY number`,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	tickets, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Ticket, error) {
		var t domain.Ticket
		err := row.Scan(&t.Number, &t.Status, &t.BuyerID, &t.SoldAt)
		return t, err
	})
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return tickets, nil
}

// Counts returns the total/sold/available ticket counters.
func (s *Store) Counts(ctx context.Context) (domain.TicketCounts, error) {
	const op = "postgres.Store.Counts"

	var c domain.TicketCounts
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE status = 'sold'),
		        COUNT(*) FILTER (WHERE status = 'available')
		 FROM tickets`,
	).Scan(&c.Total, &c.Sold, &c.Available)
	if err != nil {
		return domain.TicketCounts{}, wrapDBErr(op, err)
	}

	return c, nil
}

// TicketForUpdate reads a ticket and takes its row lock for the remainder of
// the transaction. A concurrent unit targeting the same number blocks here
// until this one commits or rolls back.
func (t *storeTx) TicketForUpdate(ctx context.Context, number int) (domain.Ticket, error) {
	const op = "postgres.storeTx.TicketForUpdate"

	var tk domain.Ticket
	err := t.db.QueryRow(ctx,
		`SELECT number, status, buyer_id, sold_at
		 FROM tickets WHERE number = $1
		 FOR UPDATE`,
		number,
	).Scan(&tk.Number, &tk.Status, &tk.BuyerID, &tk.SoldAt)
	if err != nil {
		return domain.Ticket{}, wrapDBErr(op, err)
	}

	return tk, nil
}

func (t *storeTx) SetTicketSold(ctx context.Context, number int, buyerID int64, soldAt time.Time) error {
	const op = "postgres.storeTx.SetTicketSold"

	tag, err := t.db.Exec(ctx,
		`UPDATE tickets
		 SET status = 'sold', buyer_id = $2, sold_at = $3
		 WHERE number = $1`,
		number, buyerID, soldAt,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}

func (t *storeTx) ClearTicket(ctx context.Context, number int) error {
	const op = "postgres.storeTx.ClearTicket"

	tag, err := t.db.Exec(ctx,
		`UPDATE tickets
		 SET status = 'available', buyer_id = NULL, sold_at = NULL
		 WHERE number = $1`,
		number,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}

func (t *storeTx) ResetTickets(ctx context.Context) error {
	const op = "postgres.storeTx.ResetTickets"

	_, err := t.db.Exec(ctx,
		`UPDATE tickets
		 SET status = 'available', buyer_id = NULL, sold_at = NULL`,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

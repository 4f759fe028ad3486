package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/granrifa/rifa-go/internal/domain"
	"github.com/granrifa/rifa-go/internal/repository"
)

// Buyers lists the ledger joined with each ticket's current status.
func (s *Store) Buyers(ctx context.Context, order repository.BuyerOrder) ([]domain.BuyerWithStatus, error) {
	const op = "postgres.Store.Buyers"

	orderBy := `b.created_at DESC`
	if order == repository.ByTicketAsc {
		orderBy = `b.ticket_number ASC`
	}

	rows, err := s.pool.Query(ctx,
		`SELECT b.id, b.name, b.phone, b.payment_method, b.ticket_number, b.created_at,
		        COALESCE(t.status, 'available')
		 FROM buyers b
		 LEFT JOIN tickets t ON t.number = b.ticket_number
		 ORDER BY `+orderBy,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	buyers, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.BuyerWithStatus, error) {
		var b domain.BuyerWithStatus
		err := row.Scan(
			&b.ID, &b.Name, &b.Phone, &b.PaymentMethod,
			&b.TicketNumber, &b.CreatedAt, &b.TicketStatus,
		)
		return b, err
	})
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return buyers, nil
}

func (t *storeTx) InsertBuyer(ctx context.Context, b domain.Buyer) (int64, error) {
	const op = "postgres.storeTx.InsertBuyer"

	var id int64
	err := t.db.QueryRow(ctx,
		`INSERT INTO buyers (name, phone, payment_method, ticket_number)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		b.Name, b.Phone, b.PaymentMethod, b.TicketNumber,
	).Scan(&id)
	if err != nil {
		return 0, wrapDBErr(op, err)
	}

	return id, nil
}

func (t *storeTx) DeleteBuyersByTicket(ctx context.Context, number int) (int64, error) {
	const op = "postgres.storeTx.DeleteBuyersByTicket"

	tag, err := t.db.Exec(ctx, `DELETE FROM buyers WHERE ticket_number = $1`, number)
	if err != nil {
		return 0, wrapDBErr(op, err)
	}

	return tag.RowsAffected(), nil
}

func (t *storeTx) DeleteAllBuyers(ctx context.Context) error {
	const op = "postgres.storeTx.DeleteAllBuyers"

	if _, err := t.db.Exec(ctx, `DELETE FROM buyers`); err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

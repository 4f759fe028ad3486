// Package reservation holds the ticket state machine. Every transition runs
// as one exclusive transactional unit spanning the ticket store and the buyer
// ledger, with broadcast publication registered as an after-commit hook.
package reservation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/granrifa/rifa-go/internal/broadcast"
	"github.com/granrifa/rifa-go/internal/domain"
	"github.com/granrifa/rifa-go/internal/repository"
	redisrepo "github.com/granrifa/rifa-go/internal/repository/redis"
	"github.com/granrifa/rifa-go/internal/uow"
)

// Defaults recorded by the admin override when no buyer details are given.
const (
	defaultAdminName    = "Admin"
	defaultAdminPhone   = "N/A"
	defaultAdminPayment = "Manual"

	// Settlement happens off-system via a WhatsApp handoff; public purchases
	// record that as the payment method.
	publicPaymentMethod = "WhatsApp"
)

type Config struct {
	TicketCount int
}

type Service struct {
	store   repository.Store
	hub     *broadcast.Hub
	limiter *redisrepo.SlidingWindowLimiter
	uow     *uow.UoW
	logger  *slog.Logger
	cfg     Config
}

func New(
	store repository.Store,
	hub *broadcast.Hub,
	limiter *redisrepo.SlidingWindowLimiter,
	logger *slog.Logger,
	cfg Config,
) *Service {
	if cfg.TicketCount <= 0 {
		cfg.TicketCount = 400
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		store:   store,
		hub:     hub,
		limiter: limiter,
		uow:     uow.New(store),
		logger:  logger,
		cfg:     cfg,
	}
}

// Purchase transitions an available ticket to sold on behalf of a public
// buyer. Exactly one of any number of concurrent purchases for the same
// ticket succeeds; the rest get ErrTicketSold with no side effects.
//
// rlKey scopes the optional rate limiter (typically the client IP); pass ""
// to skip limiting.
func (s *Service) Purchase(
	ctx context.Context,
	number int,
	name, phone string,
	rlKey string,
) (domain.Ticket, error) {
	const op = "service.reservation.Purchase"

	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if name == "" || phone == "" {
		return domain.Ticket{}, fmt.Errorf("%s:%w", op, ErrMissingBuyer)
	}
	if number < 1 || number > s.cfg.TicketCount {
		return domain.Ticket{}, fmt.Errorf("%s:%w", op, ErrInvalidNumber)
	}

	if s.limiter != nil && rlKey != "" {
		ok, _, retry, err := s.limiter.Allow(ctx, rlKey)
		if err != nil {
			return domain.Ticket{}, fmt.Errorf("%s:%w", op, err)
		}
		if !ok {
			return domain.Ticket{}, fmt.Errorf("%s:%w", op, RateLimitedError{RetryAfter: retry})
		}
	}

	var sold domain.Ticket

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx repository.Tx,
		after func(uow.AfterCommit),
	) error {
		t, err := tx.TicketForUpdate(ctx, number)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s:%w", op, ErrTicketNotFound)
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		if t.Status != domain.TicketAvailable {
			return fmt.Errorf("%s:%w", op, ErrTicketSold)
		}

		buyerID, err := tx.InsertBuyer(ctx, domain.Buyer{
			Name:          name,
			Phone:         phone,
			PaymentMethod: publicPaymentMethod,
			TicketNumber:  number,
		})
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		soldAt := time.Now()
		if err := tx.SetTicketSold(ctx, number, buyerID, soldAt); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		sold = domain.Ticket{
			Number:  number,
			Status:  domain.TicketSold,
			BuyerID: &buyerID,
			SoldAt:  &soldAt,
		}

		after(func(ctx context.Context) {
			s.publish(broadcast.TicketUpdated{Number: number, Status: domain.TicketSold})
		})

		return nil
	})
	if err != nil {
		return domain.Ticket{}, err
	}

	return sold, nil
}

// SetSold is the admin override: it always wins. Any existing buyer for the
// ticket is deleted first and replaced with the supplied details (or the
// admin defaults), regardless of current status.
func (s *Service) SetSold(ctx context.Context, number int, name, phone, payment string) error {
	const op = "service.reservation.SetSold"

	if number < 1 || number > s.cfg.TicketCount {
		return fmt.Errorf("%s:%w", op, ErrInvalidNumber)
	}

	if name = strings.TrimSpace(name); name == "" {
		name = defaultAdminName
	}
	if phone = strings.TrimSpace(phone); phone == "" {
		phone = defaultAdminPhone
	}
	if payment = strings.TrimSpace(payment); payment == "" {
		payment = defaultAdminPayment
	}

	return s.uow.Do(ctx, func(
		ctx context.Context,
		tx repository.Tx,
		after func(uow.AfterCommit),
	) error {
		if _, err := tx.TicketForUpdate(ctx, number); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s:%w", op, ErrTicketNotFound)
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		replaced, err := tx.DeleteBuyersByTicket(ctx, number)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}
		if replaced > 0 {
			// Deliberate overwrite-without-audit; the log line is the only
			// trace of the discarded contact details.
			s.logger.Warn("admin override replaced existing buyer",
				"ticket", number, "replaced_rows", replaced)
		}

		buyerID, err := tx.InsertBuyer(ctx, domain.Buyer{
			Name:          name,
			Phone:         phone,
			PaymentMethod: payment,
			TicketNumber:  number,
		})
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		if err := tx.SetTicketSold(ctx, number, buyerID, time.Now()); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		after(func(ctx context.Context) {
			s.publish(broadcast.TicketUpdated{Number: number, Status: domain.TicketSold})
		})

		return nil
	})
}

// Release returns a ticket to available and removes its buyer row. Releasing
// an already-available ticket is a no-op success.
func (s *Service) Release(ctx context.Context, number int) error {
	const op = "service.reservation.Release"

	if number < 1 || number > s.cfg.TicketCount {
		return fmt.Errorf("%s:%w", op, ErrInvalidNumber)
	}

	return s.uow.Do(ctx, func(
		ctx context.Context,
		tx repository.Tx,
		after func(uow.AfterCommit),
	) error {
		if _, err := tx.TicketForUpdate(ctx, number); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s:%w", op, ErrTicketNotFound)
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		if _, err := tx.DeleteBuyersByTicket(ctx, number); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		if err := tx.ClearTicket(ctx, number); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		after(func(ctx context.Context) {
			s.publish(broadcast.TicketUpdated{Number: number, Status: domain.TicketAvailable})
		})

		return nil
	})
}

// Reset deletes every buyer row and returns all tickets to available.
// Irreversible.
func (s *Service) Reset(ctx context.Context) error {
	const op = "service.reservation.Reset"

	return s.uow.Do(ctx, func(
		ctx context.Context,
		tx repository.Tx,
		after func(uow.AfterCommit),
	) error {
		if err := tx.DeleteAllBuyers(ctx); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		if err := tx.ResetTickets(ctx); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		after(func(ctx context.Context) {
			s.publish(broadcast.RaffleReset{})
		})

		return nil
	})
}

func (s *Service) publish(evt broadcast.Event) {
	if s.hub != nil {
		s.hub.Publish(evt)
	}
}

package reservation_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/granrifa/rifa-go/internal/broadcast"
	"github.com/granrifa/rifa-go/internal/domain"
	"github.com/granrifa/rifa-go/internal/repository"
	"github.com/granrifa/rifa-go/internal/repository/inmemory"
	"github.com/granrifa/rifa-go/internal/service/reservation"
)

func newService(t *testing.T, ticketCount int) (*reservation.Service, *inmemory.Store, *broadcast.Hub) {
	t.Helper()

	store := inmemory.NewStore(ticketCount, map[string]string{domain.SettingPrice: "50"})
	hub := broadcast.NewHub(nil)
	svc := reservation.New(store, hub, nil, nil, reservation.Config{TicketCount: ticketCount})

	return svc, store, hub
}

func TestPurchase(t *testing.T) {
	ctx := context.Background()
	svc, store, hub := newService(t, 10)
	sub := hub.Subscribe()

	ticket, err := svc.Purchase(ctx, 3, "Maria", "555-0100", "")
	if err != nil {
		t.Fatalf("Purchase failed: %v", err)
	}
	if ticket.Number != 3 || ticket.Status != domain.TicketSold {
		t.Fatalf("got ticket %+v, want number 3 sold", ticket)
	}
	if ticket.BuyerID == nil || ticket.SoldAt == nil {
		t.Fatal("sold ticket must carry buyer id and sold time")
	}

	// The store must agree with the returned snapshot.
	stored, err := store.Ticket(ctx, 3)
	if err != nil {
		t.Fatalf("Ticket failed: %v", err)
	}
	if stored.Status != domain.TicketSold {
		t.Fatalf("stored status %q, want sold", stored.Status)
	}

	buyers, err := store.Buyers(ctx, repository.ByTicketAsc)
	if err != nil {
		t.Fatalf("Buyers failed: %v", err)
	}
	if len(buyers) != 1 {
		t.Fatalf("got %d buyers, want 1", len(buyers))
	}
	if buyers[0].Name != "Maria" || buyers[0].Phone != "555-0100" {
		t.Fatalf("buyer %+v does not match purchase details", buyers[0].Buyer)
	}
	if buyers[0].PaymentMethod != "WhatsApp" {
		t.Fatalf("payment method %q, want WhatsApp", buyers[0].PaymentMethod)
	}

	evt := <-sub.Events()
	tu, ok := evt.(broadcast.TicketUpdated)
	if !ok || tu.Number != 3 || tu.Status != domain.TicketSold {
		t.Fatalf("got event %v, want ticket_updated for 3 sold", evt)
	}
}

func TestPurchaseSoldTicket(t *testing.T) {
	ctx := context.Background()
	svc, store, hub := newService(t, 10)

	if _, err := svc.Purchase(ctx, 5, "First", "111", ""); err != nil {
		t.Fatalf("first purchase failed: %v", err)
	}

	sub := hub.Subscribe()

	_, err := svc.Purchase(ctx, 5, "Second", "222", "")
	if !errors.Is(err, reservation.ErrTicketSold) {
		t.Fatalf("got %v, want ErrTicketSold", err)
	}

	// The losing attempt must leave no trace: no ledger row, no event.
	buyers, err := store.Buyers(ctx, repository.ByTicketAsc)
	if err != nil {
		t.Fatalf("Buyers failed: %v", err)
	}
	if len(buyers) != 1 || buyers[0].Name != "First" {
		t.Fatalf("ledger %v, want only the winning buyer", buyers)
	}

	select {
	case evt := <-sub.Events():
		t.Fatalf("failed purchase published event %v", evt)
	default:
	}
}

func TestPurchaseValidation(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t, 10)

	cases := []struct {
		name    string
		number  int
		buyer   string
		phone   string
		wantErr error
	}{
		{"number zero", 0, "A", "1", reservation.ErrInvalidNumber},
		{"number too high", 11, "A", "1", reservation.ErrInvalidNumber},
		{"missing name", 1, "", "1", reservation.ErrMissingBuyer},
		{"missing phone", 1, "A", "", reservation.ErrMissingBuyer},
		{"whitespace name", 1, "   ", "1", reservation.ErrMissingBuyer},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Purchase(ctx, tc.number, tc.buyer, tc.phone, "")
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestPurchaseConcurrentSameTicket(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newService(t, 10)

	const attempts = 50

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		wins     int
		soldErrs int
	)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Purchase(ctx, 7, "Buyer", "555", "")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, reservation.ErrTicketSold):
				soldErrs++
			default:
				t.Errorf("attempt %d: unexpected error %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("got %d successful purchases, want exactly 1", wins)
	}
	if soldErrs != attempts-1 {
		t.Fatalf("got %d ErrTicketSold, want %d", soldErrs, attempts-1)
	}

	buyers, err := store.Buyers(ctx, repository.ByTicketAsc)
	if err != nil {
		t.Fatalf("Buyers failed: %v", err)
	}
	if len(buyers) != 1 {
		t.Fatalf("got %d ledger rows, want 1", len(buyers))
	}
}

func TestPurchaseConcurrentDistinctTickets(t *testing.T) {
	ctx := context.Background()
	const tickets = 40
	svc, store, _ := newService(t, tickets)

	var wg sync.WaitGroup
	errs := make([]error, tickets)
	for n := 1; n <= tickets; n++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, errs[n-1] = svc.Purchase(ctx, n, "Buyer", "555", "")
		}(n)
	}
	wg.Wait()

	for n, err := range errs {
		if err != nil {
			t.Fatalf("ticket %d: %v", n+1, err)
		}
	}

	counts, err := store.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts failed: %v", err)
	}
	if counts.Sold != tickets || counts.Available != 0 {
		t.Fatalf("counts %+v, want all %d sold", counts, tickets)
	}
}

func TestSetSoldOverwritesExistingBuyer(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newService(t, 10)

	if _, err := svc.Purchase(ctx, 2, "Public Buyer", "111", ""); err != nil {
		t.Fatalf("purchase failed: %v", err)
	}

	if err := svc.SetSold(ctx, 2, "Walk-in", "222", "Cash"); err != nil {
		t.Fatalf("SetSold failed: %v", err)
	}

	buyers, err := store.Buyers(ctx, repository.ByTicketAsc)
	if err != nil {
		t.Fatalf("Buyers failed: %v", err)
	}
	if len(buyers) != 1 {
		t.Fatalf("got %d ledger rows, want 1 after overwrite", len(buyers))
	}
	if buyers[0].Name != "Walk-in" || buyers[0].PaymentMethod != "Cash" {
		t.Fatalf("buyer %+v, want the override details", buyers[0].Buyer)
	}
}

func TestSetSoldDefaults(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newService(t, 10)

	if err := svc.SetSold(ctx, 4, "", "", ""); err != nil {
		t.Fatalf("SetSold failed: %v", err)
	}

	buyers, err := store.Buyers(ctx, repository.ByTicketAsc)
	if err != nil {
		t.Fatalf("Buyers failed: %v", err)
	}
	if len(buyers) != 1 {
		t.Fatalf("got %d ledger rows, want 1", len(buyers))
	}
	b := buyers[0]
	if b.Name != "Admin" || b.Phone != "N/A" || b.PaymentMethod != "Manual" {
		t.Fatalf("buyer %+v, want the admin defaults", b.Buyer)
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newService(t, 10)

	if _, err := svc.Purchase(ctx, 6, "Buyer", "555", ""); err != nil {
		t.Fatalf("purchase failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := svc.Release(ctx, 6); err != nil {
			t.Fatalf("Release call %d failed: %v", i+1, err)
		}
	}

	ticket, err := store.Ticket(ctx, 6)
	if err != nil {
		t.Fatalf("Ticket failed: %v", err)
	}
	if ticket.Status != domain.TicketAvailable || ticket.BuyerID != nil || ticket.SoldAt != nil {
		t.Fatalf("released ticket %+v, want clean available state", ticket)
	}

	buyers, err := store.Buyers(ctx, repository.ByTicketAsc)
	if err != nil {
		t.Fatalf("Buyers failed: %v", err)
	}
	if len(buyers) != 0 {
		t.Fatalf("got %d ledger rows, want 0 after release", len(buyers))
	}
}

func TestReleasedTicketCanBeRepurchased(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t, 10)

	if _, err := svc.Purchase(ctx, 1, "First", "111", ""); err != nil {
		t.Fatalf("purchase failed: %v", err)
	}
	if err := svc.Release(ctx, 1); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if _, err := svc.Purchase(ctx, 1, "Second", "222", ""); err != nil {
		t.Fatalf("repurchase failed: %v", err)
	}
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	svc, store, hub := newService(t, 10)

	for n := 1; n <= 5; n++ {
		if _, err := svc.Purchase(ctx, n, "Buyer", "555", ""); err != nil {
			t.Fatalf("purchase %d failed: %v", n, err)
		}
	}

	sub := hub.Subscribe()

	if err := svc.Reset(ctx); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	counts, err := store.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts failed: %v", err)
	}
	if counts.Sold != 0 || counts.Available != 10 {
		t.Fatalf("counts %+v, want all available after reset", counts)
	}

	buyers, err := store.Buyers(ctx, repository.ByTicketAsc)
	if err != nil {
		t.Fatalf("Buyers failed: %v", err)
	}
	if len(buyers) != 0 {
		t.Fatalf("got %d ledger rows, want 0 after reset", len(buyers))
	}

	if evt := <-sub.Events(); evt.Name() != "raffle_reset" {
		t.Fatalf("got event %q, want raffle_reset", evt.Name())
	}
}

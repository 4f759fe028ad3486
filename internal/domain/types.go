package domain

import "time"

type TicketStatus string

const (
	TicketAvailable TicketStatus = "available"
	TicketSold      TicketStatus = "sold"
)

// Ticket is one numbered raffle entry. The full range 1..N is seeded once at
// startup; tickets are never created or deleted afterwards, only cycled
// between available and sold. Status is sold iff BuyerID is set.
type Ticket struct {
	Number  int          `json:"number"`
	Status  TicketStatus `json:"status"`
	BuyerID *int64       `json:"buyer_id,omitempty"`
	SoldAt  *time.Time   `json:"sold_at,omitempty"`
}

// Buyer is the ledger record created when a ticket is sold and removed when
// the ticket is released or the raffle is reset.
type Buyer struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Phone         string    `json:"phone"`
	PaymentMethod string    `json:"payment_method"`
	TicketNumber  int       `json:"ticket_number"`
	CreatedAt     time.Time `json:"created_at"`
}

// BuyerWithStatus joins a buyer with the current status of its ticket for the
// admin listing.
type BuyerWithStatus struct {
	Buyer
	TicketStatus TicketStatus `json:"ticket_status"`
}

type TicketCounts struct {
	Total     int64 `json:"total"`
	Sold      int64 `json:"sold"`
	Available int64 `json:"available"`
}

type Stats struct {
	Total     int64   `json:"total"`
	Sold      int64   `json:"sold"`
	Available int64   `json:"available"`
	Revenue   float64 `json:"revenue"`
}

// Settings is the small key-value map read by both front-ends.
type Settings map[string]string

// Well-known settings keys.
const (
	SettingPrice      = "price"
	SettingRaffleName = "raffle_name"
	SettingMotoImage  = "moto_image"
)

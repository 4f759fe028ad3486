package broadcast

import "github.com/granrifa/rifa-go/internal/domain"

// Event is the closed set of state-change notifications pushed to connected
// viewers. Events are fire-and-forget: there is no replay, and clients pull
// full state over the query API when they (re)connect.
type Event interface {
	// Name is the wire-level event name.
	Name() string
}

// TicketUpdated signals a single ticket's status transition.
type TicketUpdated struct {
	Number int                 `json:"number"`
	Status domain.TicketStatus `json:"status"`
}

func (TicketUpdated) Name() string { return "ticket_updated" }

// SettingsUpdated carries only the keys that changed.
type SettingsUpdated struct {
	Changed map[string]string `json:"changed"`
}

func (SettingsUpdated) Name() string { return "settings_updated" }

// RaffleReset has no payload; clients reset every local ticket view to
// available or refetch.
type RaffleReset struct{}

func (RaffleReset) Name() string { return "raffle_reset" }

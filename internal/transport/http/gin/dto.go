package httpgin

import (
	"encoding/json"

	"github.com/granrifa/rifa-go/internal/domain"
)

type PurchaseRequest struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone" binding:"required"`
}

type BuyerEcho struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type PurchaseResponse struct {
	Success bool          `json:"success"`
	Ticket  domain.Ticket `json:"ticket"`
	Buyer   BuyerEcho     `json:"buyer"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
}

// AdminTicketRequest toggles a ticket. Buyer fields apply to status=sold only
// and fall back to the admin defaults when omitted.
type AdminTicketRequest struct {
	Status        string `json:"status" binding:"required"`
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	PaymentMethod string `json:"payment_method"`
}

// UpdateSettingsRequest carries only the keys to overwrite. Price arrives as
// a JSON number from the admin panel.
type UpdateSettingsRequest struct {
	Price      *json.Number `json:"price"`
	RaffleName *string      `json:"raffle_name"`
}

type UploadResponse struct {
	Success bool   `json:"success"`
	Path    string `json:"path"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

package httpgin_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/granrifa/rifa-go/internal/broadcast"
	"github.com/granrifa/rifa-go/internal/domain"
	"github.com/granrifa/rifa-go/internal/repository/inmemory"
	"github.com/granrifa/rifa-go/internal/service"
	"github.com/granrifa/rifa-go/internal/service/auth"
	"github.com/granrifa/rifa-go/internal/service/reservation"
	httpgin "github.com/granrifa/rifa-go/internal/transport/http/gin"
)

func newTestRouter(t *testing.T) (*gin.Engine, *auth.Service) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	store := inmemory.NewStore(10, map[string]string{
		domain.SettingPrice:      "50",
		domain.SettingRaffleName: "Test Raffle",
	})
	hub := broadcast.NewHub(nil)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svcs := service.NewServices(store, store, hub, nil, logger, service.Config{
		Reservation: reservation.Config{TicketCount: 10},
	})

	authSvc, err := auth.New(auth.Config{
		Username:  "admin",
		Password:  "secret",
		JWTSecret: "test-secret",
	})
	if err != nil {
		t.Fatalf("auth.New failed: %v", err)
	}

	return httpgin.NewRouter(svcs, authSvc, hub, nil, logger, httpgin.Dirs{}), authSvc
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func adminToken(t *testing.T, authSvc *auth.Service) string {
	t.Helper()

	token, err := authSvc.Login("admin", "secret")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	return token
}

func TestPurchaseEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	body := map[string]string{"name": "Maria", "phone": "555-0100"}

	w := doJSON(t, r, http.MethodPost, "/api/tickets/3/purchase", "", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d, want 200: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Success bool `json:"success"`
		Ticket  struct {
			Number int    `json:"number"`
			Status string `json:"status"`
		} `json:"ticket"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.Ticket.Number != 3 || resp.Ticket.Status != "sold" {
		t.Fatalf("response %s, want successful sale of ticket 3", w.Body.String())
	}

	// Second purchase of the same ticket conflicts.
	w = doJSON(t, r, http.MethodPost, "/api/tickets/3/purchase", "", body)
	if w.Code != http.StatusConflict {
		t.Fatalf("status %d, want 409", w.Code)
	}
}

func TestPurchaseEndpointValidation(t *testing.T) {
	r, _ := newTestRouter(t)

	cases := []struct {
		name string
		path string
		body map[string]string
		want int
	}{
		{"missing buyer fields", "/api/tickets/1/purchase", map[string]string{}, http.StatusBadRequest},
		{"non-numeric ticket", "/api/tickets/abc/purchase", map[string]string{"name": "A", "phone": "1"}, http.StatusBadRequest},
		{"out of range ticket", "/api/tickets/999/purchase", map[string]string{"name": "A", "phone": "1"}, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, tc.path, "", tc.body)
			if w.Code != tc.want {
				t.Fatalf("status %d, want %d: %s", w.Code, tc.want, w.Body.String())
			}
		})
	}
}

func TestAdminRoutesRequireToken(t *testing.T) {
	r, _ := newTestRouter(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/admin/buyers"},
		{http.MethodGet, "/api/admin/stats"},
		{http.MethodPost, "/api/admin/reset"},
		{http.MethodGet, "/api/admin/export"},
	}

	for _, p := range paths {
		w := doJSON(t, r, p.method, p.path, "", nil)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: status %d, want 401", p.method, p.path, w.Code)
		}
	}

	w := doJSON(t, r, http.MethodGet, "/api/admin/stats", "not-a-token", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: status %d, want 401", w.Code)
	}
}

func TestLoginEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/admin/login", "", map[string]string{
		"username": "admin",
		"password": "secret",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status %d, want 200: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.Token == "" {
		t.Fatalf("response %s, want a token", w.Body.String())
	}

	w = doJSON(t, r, http.MethodPost, "/api/admin/login", "", map[string]string{
		"username": "admin",
		"password": "wrong",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", w.Code)
	}
}

func TestAdminTicketToggle(t *testing.T) {
	r, authSvc := newTestRouter(t)
	token := adminToken(t, authSvc)

	// Mark sold with explicit buyer details.
	w := doJSON(t, r, http.MethodPut, "/api/admin/tickets/5", token, map[string]string{
		"status": "sold",
		"name":   "Walk-in",
		"phone":  "555",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("set sold: status %d, want 200: %s", w.Code, w.Body.String())
	}

	// Release back to available.
	w = doJSON(t, r, http.MethodPut, "/api/admin/tickets/5", token, map[string]string{
		"status": "available",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("release: status %d, want 200: %s", w.Code, w.Body.String())
	}

	// Unknown status.
	w = doJSON(t, r, http.MethodPut, "/api/admin/tickets/5", token, map[string]string{
		"status": "reserved",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad status: status %d, want 400", w.Code)
	}
}

func TestUpdateSettingsEndpoint(t *testing.T) {
	r, authSvc := newTestRouter(t)
	token := adminToken(t, authSvc)

	w := doJSON(t, r, http.MethodPut, "/api/admin/settings", token, map[string]any{
		"price":       75,
		"raffle_name": "New Name",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status %d, want 200: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/api/settings", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", w.Code)
	}

	var settings map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &settings); err != nil {
		t.Fatalf("decode settings: %v", err)
	}
	if settings["price"] != "75" || settings["raffle_name"] != "New Name" {
		t.Fatalf("settings %v, want updated price and name", settings)
	}
}

func TestStatsAndResetEndpoints(t *testing.T) {
	r, authSvc := newTestRouter(t)
	token := adminToken(t, authSvc)

	for _, n := range []string{"1", "2"} {
		w := doJSON(t, r, http.MethodPost, "/api/tickets/"+n+"/purchase", "", map[string]string{
			"name": "Buyer", "phone": "555",
		})
		if w.Code != http.StatusOK {
			t.Fatalf("purchase %s: status %d", n, w.Code)
		}
	}

	w := doJSON(t, r, http.MethodGet, "/api/admin/stats", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stats: status %d", w.Code)
	}

	var stats struct {
		Total   int64   `json:"total"`
		Sold    int64   `json:"sold"`
		Revenue float64 `json:"revenue"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Sold != 2 || stats.Revenue != 100 {
		t.Fatalf("stats %+v, want 2 sold at 50 each", stats)
	}

	w = doJSON(t, r, http.MethodPost, "/api/admin/reset", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("reset: status %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/admin/stats", token, nil)
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Sold != 0 {
		t.Fatalf("sold %d after reset, want 0", stats.Sold)
	}
}

func TestExportEndpoint(t *testing.T) {
	r, authSvc := newTestRouter(t)
	token := adminToken(t, authSvc)

	w := doJSON(t, r, http.MethodPost, "/api/tickets/4/purchase", "", map[string]string{
		"name": "Maria", "phone": "555",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("purchase: status %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/admin/export", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export: status %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Fatalf("content type %q, want xlsx", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); cd != `attachment; filename=raffle_buyers.xlsx` {
		t.Fatalf("content disposition %q", cd)
	}
	if w.Body.Len() == 0 {
		t.Fatal("empty export body")
	}
}

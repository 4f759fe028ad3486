package httpgin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/granrifa/rifa-go/internal/broadcast"
	"github.com/granrifa/rifa-go/internal/domain"
	redisrepo "github.com/granrifa/rifa-go/internal/repository/redis"
	"github.com/granrifa/rifa-go/internal/service"
	"github.com/granrifa/rifa-go/internal/service/auth"
	"github.com/granrifa/rifa-go/internal/service/export"
	"github.com/granrifa/rifa-go/internal/service/reservation"
)

const (
	maxUploadBytes = 10 << 20 // one promo image, hard cap
	uploadURLBase  = "/uploads"
	uploadBaseName = "moto"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Dirs points the router at the static storefront and the upload target.
type Dirs struct {
	Public  string
	Uploads string
}

func NewRouter(
	svcs *service.Services,
	authSvc *auth.Service,
	hub *broadcast.Hub,
	idem *redisrepo.IdempotencyStore,
	logger *slog.Logger,
	dirs Dirs,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), LoggingMiddleware(logger), RequestIDMiddleware(), CORS())

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// health
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// realtime push
	r.GET("/ws", handleWebsocket(hub))

	// Public API
	api := r.Group("/api")
	{
		api.GET("/tickets", handleListTickets(svcs))
		api.GET("/settings", handleGetSettings(svcs))
		api.POST("/tickets/:num/purchase", handlePurchase(svcs, idem))
		api.POST("/admin/login", handleLogin(authSvc))
	}

	// Admin API
	admin := api.Group("/admin", AuthRequired(authSvc))
	{
		admin.GET("/buyers", handleListBuyers(svcs))
		admin.GET("/stats", handleStats(svcs))
		admin.PUT("/tickets/:num", handleAdminSetTicket(svcs))
		admin.PUT("/settings", handleUpdateSettings(svcs))
		admin.POST("/upload", handleUpload(svcs, dirs.Uploads))
		admin.POST("/reset", handleReset(svcs))
		admin.GET("/export", handleExport(svcs))
	}

	// Storefront + admin panel static assets; uploaded promo image.
	if dirs.Uploads != "" {
		r.Static(uploadURLBase, dirs.Uploads)
	}
	if dirs.Public != "" {
		r.NoRoute(staticFallback(dirs.Public))
	}

	return r
}

// staticFallback serves the storefront files for everything that is not an
// API route.
func staticFallback(publicDir string) gin.HandlerFunc {
	fs := http.FileServer(http.Dir(publicDir))
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
			return
		}
		fs.ServeHTTP(c.Writer, c.Request)
	}
}

// --- Handlers ---

// @Summary  List all tickets
// @Success  200  {array}  domain.Ticket
// @Router   /api/tickets [get]
func handleListTickets(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		tickets, err := svcs.Query.Tickets(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, tickets)
	}
}

// @Summary  Get raffle settings
// @Success  200  {object}  domain.Settings
// @Router   /api/settings [get]
func handleGetSettings(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		settings, err := svcs.Settings.All(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, settings)
	}
}

// @Summary  Purchase a ticket
// @Param    num  path  int  true  "Ticket number"
// @Param    req  body  PurchaseRequest  true  "buyer details"
// @Success  200  {object}  PurchaseResponse
// @Failure  400  {object}  ErrorResponse
// @Failure  409  {object}  ErrorResponse  "ticket already sold"
// @Failure  429  {object}  ErrorResponse  "rate limited"
// @Router   /api/tickets/{num}/purchase [post]
func handlePurchase(svcs *service.Services, idem *redisrepo.IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		num, ok := parseIntParam(c, "num")
		if !ok {
			return
		}

		var req PurchaseRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "buyer name and phone are required")
			return
		}

		idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		var idemStorageKey string
		if idem != nil && idemKey != "" {
			idemStorageKey = redisrepo.KeyIdemPurchase(num, idemKey)

			if payload, ok, _ := idem.GetResult(c.Request.Context(), idemStorageKey); ok {
				c.Header("Idempotency-Key", idemKey)
				c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(payload))
				return
			}

			locked, err := idem.AcquireLock(c.Request.Context(), idemStorageKey, 60*time.Second)
			if err != nil {
				respondErr(c, err)
				return
			}
			if !locked {
				c.Header("Retry-After", "1")
				c.JSON(http.StatusConflict, ErrorResponse{Error: "purchase already in progress"})
				return
			}
		}

		ticket, err := svcs.Reservation.Purchase(
			c.Request.Context(),
			num,
			req.Name,
			req.Phone,
			"ip:"+c.ClientIP(),
		)
		if err != nil {
			if idemStorageKey != "" && idem != nil {
				_ = idem.Release(c.Request.Context(), idemStorageKey)
			}
			respondErr(c, err)
			return
		}

		resp := PurchaseResponse{
			Success: true,
			Ticket:  ticket,
			Buyer:   BuyerEcho{Name: req.Name, Phone: req.Phone},
		}

		if idemStorageKey != "" && idem != nil {
			b, _ := json.Marshal(resp)
			_ = idem.SaveResult(c.Request.Context(), idemStorageKey, string(b))
			c.Header("Idempotency-Key", idemKey)
		}

		c.JSON(http.StatusOK, resp)
	}
}

// @Summary  Admin login
// @Param    req  body  LoginRequest  true  "credentials"
// @Success  200  {object}  LoginResponse
// @Failure  401  {object}  ErrorResponse
// @Router   /api/admin/login [post]
func handleLogin(authSvc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "username and password are required")
			return
		}

		token, err := authSvc.Login(req.Username, req.Password)
		if err != nil {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
			return
		}

		c.JSON(http.StatusOK, LoginResponse{Success: true, Token: token})
	}
}

// @Summary  List buyers with ticket status
// @Success  200  {array}  domain.BuyerWithStatus
// @Router   /api/admin/buyers [get]
// @Security BearerAuth
func handleListBuyers(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		buyers, err := svcs.Query.Buyers(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, buyers)
	}
}

// @Summary  Raffle statistics
// @Success  200  {object}  domain.Stats
// @Router   /api/admin/stats [get]
// @Security BearerAuth
func handleStats(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := svcs.Query.Stats(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

// @Summary  Admin toggle ticket status
// @Param    num  path  int  true  "Ticket number"
// @Param    req  body  AdminTicketRequest  true  "target status and optional buyer details"
// @Success  200  {object}  SuccessResponse
// @Failure  400  {object}  ErrorResponse
// @Router   /api/admin/tickets/{num} [put]
// @Security BearerAuth
func handleAdminSetTicket(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		num, ok := parseIntParam(c, "num")
		if !ok {
			return
		}

		var req AdminTicketRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "status is required")
			return
		}

		ctx := c.Request.Context()

		var err error
		switch domain.TicketStatus(req.Status) {
		case domain.TicketSold:
			err = svcs.Reservation.SetSold(ctx, num, req.Name, req.Phone, req.PaymentMethod)
		case domain.TicketAvailable:
			err = svcs.Reservation.Release(ctx, num)
		default:
			badRequest(c, "status must be available or sold")
			return
		}
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, SuccessResponse{Success: true})
	}
}

// @Summary  Update raffle settings
// @Param    req  body  UpdateSettingsRequest  true  "keys to overwrite"
// @Success  200  {object}  SuccessResponse
// @Router   /api/admin/settings [put]
// @Security BearerAuth
func handleUpdateSettings(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateSettingsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		changed := map[string]string{}
		if req.Price != nil {
			changed[domain.SettingPrice] = req.Price.String()
		}
		if req.RaffleName != nil {
			changed[domain.SettingRaffleName] = *req.RaffleName
		}

		if err := svcs.Settings.Update(c.Request.Context(), changed); err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, SuccessResponse{Success: true})
	}
}

// @Summary  Upload the promo image
// @Accept   multipart/form-data
// @Param    image  formData  file  true  "image file, max 10MB"
// @Success  200  {object}  UploadResponse
// @Failure  400  {object}  ErrorResponse
// @Router   /api/admin/upload [post]
// @Security BearerAuth
func handleUpload(svcs *service.Services, uploadDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, err := c.FormFile("image")
		if err != nil {
			badRequest(c, "image file is required")
			return
		}
		if file.Size > maxUploadBytes {
			badRequest(c, "image exceeds 10MB limit")
			return
		}

		// Fixed basename: each upload overwrites the previous image.
		ext := strings.ToLower(filepath.Ext(file.Filename))
		name := uploadBaseName + ext
		if err := c.SaveUploadedFile(file, filepath.Join(uploadDir, name)); err != nil {
			respondErr(c, err)
			return
		}

		path := uploadURLBase + "/" + name
		if err := svcs.Settings.SetImagePath(c.Request.Context(), path); err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, UploadResponse{Success: true, Path: path})
	}
}

// @Summary  Reset the raffle
// @Success  200  {object}  SuccessResponse
// @Router   /api/admin/reset [post]
// @Security BearerAuth
func handleReset(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svcs.Reservation.Reset(c.Request.Context()); err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, SuccessResponse{Success: true})
	}
}

// @Summary  Export buyers as xlsx
// @Produce  application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success  200  {file}  binary
// @Router   /api/admin/export [get]
// @Security BearerAuth
func handleExport(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		buyers, err := svcs.Query.BuyersByTicket(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}

		buf, err := export.BuyersWorkbook(buyers)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.Header("Content-Disposition", `attachment; filename=`+export.Filename)
		c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
	}
}

// --- Helpers ---

func parseIntParam(c *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	var rateLimited reservation.RateLimitedError
	if errors.As(err, &rateLimited) {
		c.Header("Retry-After", strconv.Itoa(int(rateLimited.RetryAfter.Seconds())+1))
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "too many purchase attempts"})
		return
	}

	switch {
	case errors.Is(err, reservation.ErrTicketSold):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "ticket already sold"})
	case errors.Is(err, reservation.ErrInvalidNumber),
		errors.Is(err, reservation.ErrMissingBuyer),
		errors.Is(err, reservation.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: userMessage(err)})
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	default:
		// ErrTicketNotFound lands here as well: with the fixed seeded range
		// it is unreachable through validated input.
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, reservation.ErrInvalidNumber):
		return "ticket number out of range"
	case errors.Is(err, reservation.ErrMissingBuyer):
		return "buyer name and phone are required"
	case errors.Is(err, reservation.ErrInvalidStatus):
		return "status must be available or sold"
	default:
		return err.Error()
	}
}

// Package httpapi exposes the journal over HTTP using gin.
package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"tradejournal/internal/app"
	"tradejournal/internal/ports"

	"github.com/gin-gonic/gin"
)

const userIDKey = "userID"

// Config holds the collaborators of the HTTP API.
type Config struct {
	Ledger   *app.LedgerService
	Journal  *app.JournalService
	Resolver ports.IdentityResolver
	Logger   ports.Logger
	// Now is used to validate dates in requests. Defaults to time.Now.
	Now func() time.Time
}

// Server routes HTTP requests to the ledger and journal services.
type Server struct {
	ledger   *app.LedgerService
	journal  *app.JournalService
	resolver ports.IdentityResolver
	logger   ports.Logger
	now      func() time.Time
	router   *gin.Engine
}

// NewServer builds the router.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Ledger == nil || cfg.Journal == nil || cfg.Resolver == nil || cfg.Logger == nil {
		return nil, fmt.Errorf("missing required dependencies for HTTP server")
	}
	s := &Server{
		ledger:   cfg.Ledger,
		journal:  cfg.Journal,
		resolver: cfg.Resolver,
		logger:   cfg.Logger,
		now:      cfg.Now,
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	s.router = s.routes()
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.Any("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, envelope{Message: "Welcome to Trade Journal API"})
	})

	authed := r.Group("/", s.authRequired())

	capital := authed.Group("/capital-deposits")
	capital.GET("", s.listCapitalMovements)
	capital.POST("", s.createCapitalMovement)
	capital.GET("/total-capital", s.totalCapital)
	capital.GET("/:id", s.readCapitalMovement)
	capital.DELETE("/:id", s.deleteCapitalMovement)

	stocks := authed.Group("/stocks")
	stocks.GET("", s.listStocks(nil))
	stocks.POST("", s.createStock)
	stocks.GET("/open", s.listStocks(boolPtr(true)))
	stocks.GET("/close", s.listStocks(boolPtr(false)))
	stocks.GET("/:id", s.readStock)
	stocks.PUT("/:id/notes", s.updateStockNotes)

	txs := authed.Group("/transactions")
	txs.GET("", s.listTransactions)
	txs.POST("", s.createTransaction)
	txs.GET("/:id", s.readTransaction)
	txs.PUT("/:id", s.updateTransaction)

	r.NoRoute(func(c *gin.Context) {
		s.respondError(c, ports.NotFound("Route not found"))
	})
	return r
}

func boolPtr(b bool) *bool { return &b }

package httpapi

import (
	"net/http"

	"tradejournal/internal/app"
	"tradejournal/internal/ports"

	"github.com/gin-gonic/gin"
)

type stockRequest struct {
	Symbol string `json:"symbol"`
	Notes  string `json:"notes"`
}

type notesRequest struct {
	Notes string `json:"notes"`
}

func (s *Server) listStocks(open *bool) gin.HandlerFunc {
	message := "Stocks listed successfully"
	if open != nil && *open {
		message = "Open stocks listed successfully"
	} else if open != nil {
		message = "Closed stocks listed successfully"
	}
	return func(c *gin.Context) {
		stocks, err := s.journal.Stocks(c.Request.Context(), currentUser(c), ports.StockFilter{Open: open})
		if err != nil {
			s.respondError(c, err)
			return
		}
		s.respond(c, http.StatusOK, message, mapViews(stocks, toStockView))
	}
}

func (s *Server) createStock(c *gin.Context) {
	var req stockRequest
	if err := bindJSON(c, &req); err != nil {
		s.respondError(c, err)
		return
	}
	cmd, err := app.NewStockCommand(currentUser(c), req.Symbol, req.Notes)
	if err != nil {
		s.respondError(c, err)
		return
	}
	stock, err := s.ledger.CreateStock(c.Request.Context(), cmd)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.respond(c, http.StatusCreated, "Stock created successfully", toStockView(stock))
}

func (s *Server) readStock(c *gin.Context) {
	stock, err := s.journal.Stock(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.respond(c, http.StatusOK, "Stock retrieved successfully", toStockView(stock))
}

func (s *Server) updateStockNotes(c *gin.Context) {
	var req notesRequest
	if err := bindJSON(c, &req); err != nil {
		s.respondError(c, err)
		return
	}
	stock, err := s.journal.UpdateStockNotes(c.Request.Context(), currentUser(c), c.Param("id"), req.Notes)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.respond(c, http.StatusOK, "Stock updated successfully", toStockView(stock))
}

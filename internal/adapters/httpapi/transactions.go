package httpapi

import (
	"net/http"

	"tradejournal/internal/app"
	"tradejournal/internal/ports"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type transactionRequest struct {
	StockID         string          `json:"stockId"`
	TransactionType string          `json:"transactionType"`
	Quantity        decimal.Decimal `json:"quantity"`
	Price           decimal.Decimal `json:"price"`
	TransactionDate *jsonDate       `json:"transactionDate"`
	Comment         string          `json:"comment"`
}

type transactionPatchRequest struct {
	StockID         *string          `json:"stockId"`
	TransactionType *string          `json:"transactionType"`
	Quantity        *decimal.Decimal `json:"quantity"`
	Price           *decimal.Decimal `json:"price"`
	TransactionDate *jsonDate        `json:"transactionDate"`
	Comment         *string          `json:"comment"`
}

func (s *Server) listTransactions(c *gin.Context) {
	filter := ports.TransactionFilter{StockID: c.Query("stockId")}
	txs, err := s.journal.Transactions(c.Request.Context(), currentUser(c), filter)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.respond(c, http.StatusOK, "Transactions listed successfully", mapViews(txs, toTransactionView))
}

func (s *Server) createTransaction(c *gin.Context) {
	var req transactionRequest
	if err := bindJSON(c, &req); err != nil {
		s.respondError(c, err)
		return
	}
	cmd, err := app.NewTradeCommand(currentUser(c), req.StockID, req.TransactionType,
		req.Quantity, req.Price, req.TransactionDate.ptr(), req.Comment, s.now())
	if err != nil {
		s.respondError(c, err)
		return
	}
	res, err := s.ledger.ApplyTrade(c.Request.Context(), cmd)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tradeEnvelope{
		envelope:     envelope{Message: "Transaction created successfully", Data: toTransactionView(res.Transaction)},
		UpdatedStock: toStockView(res.Stock),
		TotalCapital: res.TotalCapital.String(),
	})
}

func (s *Server) readTransaction(c *gin.Context) {
	tx, err := s.journal.Transaction(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.respond(c, http.StatusOK, "Transaction retrieved successfully", toTransactionView(tx))
}

func (s *Server) updateTransaction(c *gin.Context) {
	var req transactionPatchRequest
	if err := bindJSON(c, &req); err != nil {
		s.respondError(c, err)
		return
	}
	patch := app.TransactionPatch{
		StockID:  req.StockID,
		Type:     req.TransactionType,
		Quantity: req.Quantity,
		Price:    req.Price,
		Date:     req.TransactionDate.ptr(),
		Comment:  req.Comment,
	}
	tx, err := s.journal.UpdateTransaction(c.Request.Context(), currentUser(c), c.Param("id"), patch)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.respond(c, http.StatusOK, "Transaction updated successfully", toTransactionView(tx))
}

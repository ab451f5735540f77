package httpapi

import (
	"net/http"

	"tradejournal/internal/app"
	"tradejournal/internal/domain"
	"tradejournal/internal/ports"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type capitalMovementRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	Description string          `json:"description"`
	Date        *jsonDate       `json:"date"`
}

func (s *Server) listCapitalMovements(c *gin.Context) {
	filter := ports.CapitalFilter{Type: domain.MovementType(c.Query("type"))}
	movements, err := s.journal.CapitalMovements(c.Request.Context(), currentUser(c), filter)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.respond(c, http.StatusOK, "Capital deposits listed successfully", mapViews(movements, toCapitalMovementView))
}

func (s *Server) createCapitalMovement(c *gin.Context) {
	var req capitalMovementRequest
	if err := bindJSON(c, &req); err != nil {
		s.respondError(c, err)
		return
	}
	cmd, err := app.NewCapitalMovementCommand(currentUser(c), req.Amount, req.Type, req.Description, req.Date.ptr(), s.now())
	if err != nil {
		s.respondError(c, err)
		return
	}
	res, err := s.ledger.ApplyCapitalMovement(c.Request.Context(), cmd)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, capitalEnvelope{
		envelope:     envelope{Message: "Capital deposit created successfully", Data: toCapitalMovementView(res.Movement)},
		TotalCapital: res.TotalCapital.String(),
	})
}

func (s *Server) totalCapital(c *gin.Context) {
	total, err := s.journal.TotalCapital(c.Request.Context(), currentUser(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.respond(c, http.StatusOK, "Total capital retrieved successfully", gin.H{"totalCapital": total.String()})
}

func (s *Server) readCapitalMovement(c *gin.Context) {
	m, err := s.journal.CapitalMovement(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.respond(c, http.StatusOK, "Capital deposit retrieved successfully", toCapitalMovementView(m))
}

func (s *Server) deleteCapitalMovement(c *gin.Context) {
	res, err := s.ledger.ReverseCapitalMovement(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, capitalEnvelope{
		envelope:     envelope{Message: "Capital deposit deleted successfully", Data: toCapitalMovementView(res.Movement)},
		TotalCapital: res.TotalCapital.String(),
	})
}

type capitalEnvelope struct {
	envelope
	TotalCapital string `json:"totalCapital"`
}

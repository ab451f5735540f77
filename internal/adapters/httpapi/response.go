package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"tradejournal/internal/ports"

	"github.com/gin-gonic/gin"
)

type envelope struct {
	Error   bool        `json:"error"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type tradeEnvelope struct {
	envelope
	UpdatedStock stockView `json:"updatedStock"`
	TotalCapital string    `json:"totalCapital"`
}

func (s *Server) respond(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, envelope{Message: message, Data: data})
}

// respondError maps err onto a status code. Storage failures are logged and
// reported without detail.
func (s *Server) respondError(c *gin.Context, err error) {
	kind := ports.KindOf(err)
	if kind == ports.KindStorage {
		s.logger.Error(c.Request.Context(), err, "Request failed", ports.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		})
	}
	c.JSON(ports.StatusOf(kind), envelope{Error: true, Message: ports.MessageOf(err)})
}

func bindJSON(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return ports.Validation("Invalid request body")
	}
	return nil
}

// jsonDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
type jsonDate struct {
	time.Time
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

func (d *jsonDate) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			d.Time = t
			return nil
		}
	}
	return fmt.Errorf("unsupported date format %q", raw)
}

func (d *jsonDate) ptr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

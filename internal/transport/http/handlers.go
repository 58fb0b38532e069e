package http

import (
	"net/http"
	"time"

	"github.com/dkeye/CodeLens/internal/app/orch"
	"github.com/dkeye/CodeLens/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Response is the envelope every JSON endpoint answers with.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

type HealthResponse struct {
	Status      string    `json:"status"`
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
	Rooms       int       `json:"rooms"`
	Connections int       `json:"connections"`
}

// Handlers exposes read-only views of the collaboration state.
type Handlers struct {
	Orch *orch.Orchestrator
	Now  func() time.Time
}

func NewHandlers(o *orch.Orchestrator) *Handlers {
	return &Handlers{Orch: o, Now: time.Now}
}

func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:      "ok",
		Message:     "CodeLens API is running",
		Timestamp:   h.Now().UTC(),
		Rooms:       len(h.Orch.Rooms.List()),
		Connections: h.Orch.Registry.Count(),
	})
}

func (h *Handlers) ListRooms(c *gin.Context) {
	c.JSON(http.StatusOK, Response{Success: true, Data: h.Orch.Rooms.List()})
}

func (h *Handlers) ListParticipants(c *gin.Context) {
	id := domain.ReviewID(c.Param("reviewId"))
	room, ok := h.Orch.Rooms.GetRoom(id)
	if !ok {
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "review room not active"})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: room.MembersSnapshot()})
}

func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, Response{Success: false, Error: "Route not found"})
}

// Recovered answers a panicking request with the error envelope.
func Recovered(c *gin.Context, err any) {
	log.Error().Str("module", "transport.http").Str("path", c.Request.URL.Path).Interface("panic", err).Msg("request panicked")
	c.AbortWithStatusJSON(http.StatusInternalServerError, Response{Success: false, Error: "Something went wrong!"})
}

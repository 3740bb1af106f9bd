package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/dkeye/Huddle/internal/app/orch"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Handlers is the room lifecycle and introspection surface used by
// clients and the admin console.
type Handlers struct {
	Orch *orch.Orchestrator
}

type CreateRoomResponse struct {
	RoomID   domain.RoomID `json:"room_id"`
	RoomName string        `json:"room_name"`
}

type ListRoomsResponse struct {
	Rooms []domain.RoomView `json:"rooms"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	orch.Stats
}

func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Stats:     h.Orch.Stats(),
	})
}

func (h *Handlers) CreateRoom(c *gin.Context) {
	room := h.Orch.CreateRoom()
	log.Info().Str("module", "adapters.http").Str("room_id", string(room.ID)).Msg("room created")
	c.JSON(http.StatusCreated, CreateRoomResponse{RoomID: room.ID, RoomName: room.Name})
}

func (h *Handlers) ListRooms(c *gin.Context) {
	c.JSON(http.StatusOK, ListRoomsResponse{Rooms: h.Orch.ListActiveRooms()})
}

func (h *Handlers) GetRoom(c *gin.Context) {
	room, err := h.Orch.GetRoom(domain.RoomID(c.Param("id")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

func (h *Handlers) DeleteRoom(c *gin.Context) {
	id := domain.RoomID(c.Param("id"))
	if err := h.Orch.DeleteRoom(id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "room deleted", "room_id": id})
}

func (h *Handlers) GetUser(c *gin.Context) {
	p, err := h.Orch.Participant(domain.ParticipantID(c.Param("id")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidRequest):
		status = http.StatusBadRequest
	default:
		log.Error().Err(err).Str("module", "adapters.http").Str("path", c.FullPath()).Msg("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

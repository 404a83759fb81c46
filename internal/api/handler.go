package api

import (
	"laundry-reserve-backend/internal/engine"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	engine *engine.Engine
}

// NewHandler creates a new API handler.
func NewHandler(eng *engine.Engine) *Handler {
	return &Handler{engine: eng}
}

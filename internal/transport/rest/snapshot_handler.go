// Package rest hosts the query boundary and the websocket endpoint.
// Handlers stay thin: all state lives in the pipeline components.
package rest

import (
	"net/http"

	"github.com/tantulabs/cascade-hardware-monitor-sub000/internal/composer"
)

type SnapshotHandler struct {
	composer *composer.Composer
}

func NewSnapshotHandler(c *composer.Composer) *SnapshotHandler {
	return &SnapshotHandler{composer: c}
}

// Latest serves the cached snapshot, falling back to a forced live
// poll before the first timer cycle has completed.
func (h *SnapshotHandler) Latest(w http.ResponseWriter, r *http.Request) {
	snap := h.composer.LastSnapshot()
	if snap == nil {
		snap = h.composer.Poll(r.Context())
	}

	JSONSuccess(w, http.StatusOK, APIResponse{Data: snap})
}

// Live always performs a fresh collection cycle.
func (h *SnapshotHandler) Live(w http.ResponseWriter, r *http.Request) {
	JSONSuccess(w, http.StatusOK, APIResponse{Data: h.composer.Poll(r.Context())})
}

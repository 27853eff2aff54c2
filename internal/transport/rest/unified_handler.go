package rest

import (
	"net/http"

	"github.com/tantulabs/cascade-hardware-monitor-sub000/internal/unified"
)

type UnifiedHandler struct {
	normalizer *unified.Normalizer
}

func NewUnifiedHandler(n *unified.Normalizer) *UnifiedHandler {
	return &UnifiedHandler{normalizer: n}
}

// Index pulls all unified sources on demand and serves the merged,
// status-annotated sensor list.
func (h *UnifiedHandler) Index(w http.ResponseWriter, r *http.Request) {
	JSONSuccess(w, http.StatusOK, APIResponse{Data: h.normalizer.Collect(r.Context())})
}

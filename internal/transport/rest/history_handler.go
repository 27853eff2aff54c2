package rest

import (
	"net/http"
	"strconv"
	"time"

	"github.com/tantulabs/cascade-hardware-monitor-sub000/internal/domain"
	"github.com/tantulabs/cascade-hardware-monitor-sub000/internal/history"
)

type HistoryHandler struct {
	store *history.Store
}

func NewHistoryHandler(store *history.Store) *HistoryHandler {
	return &HistoryHandler{store: store}
}

// Query serves the range query: ?start=&end=&resolution=&limit=.
// Timestamps are unix milliseconds. An empty or inverted window yields
// an empty list, not an error.
func (h *HistoryHandler) Query(w http.ResponseWriter, r *http.Request) {
	q := domain.HistoryQuery{
		Start:      queryInt64(r, "start"),
		End:        queryInt64(r, "end"),
		Resolution: domain.Resolution(r.URL.Query().Get("resolution")),
		Limit:      int(queryInt64(r, "limit")),
	}

	JSONSuccess(w, http.StatusOK, APIResponse{Data: h.store.Query(q)})
}

// Sensor serves the per-path trailing series:
// /history/sensors/{path}?duration=15m.
func (h *HistoryHandler) Sensor(w http.ResponseWriter, r *http.Request) {
	path := r.PathValue("path")
	if path == "" {
		JSONError(w, http.StatusBadRequest, "Missing sensor path")
		return
	}

	window := 15 * time.Minute
	if raw := r.URL.Query().Get("duration"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			JSONError(w, http.StatusBadRequest, "Invalid duration")
			return
		}
		window = parsed
	}

	JSONSuccess(w, http.StatusOK, APIResponse{Data: h.store.SensorHistory(path, window)})
}

// Latest serves the most recent value of every known sensor key.
func (h *HistoryHandler) Latest(w http.ResponseWriter, r *http.Request) {
	JSONSuccess(w, http.StatusOK, APIResponse{Data: h.store.Latest()})
}

func (h *HistoryHandler) Stats(w http.ResponseWriter, r *http.Request) {
	JSONSuccess(w, http.StatusOK, APIResponse{Data: h.store.Stats()})
}

func (h *HistoryHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.store.Clear()
	JSONSuccess(w, http.StatusOK, APIResponse{Message: "History cleared."})
}

func queryInt64(r *http.Request, key string) int64 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0
	}

	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

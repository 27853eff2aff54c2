package rest

import (
	"net/http"
	"slices"

	"github.com/tantulabs/cascade-hardware-monitor-sub000/internal/config"
	"github.com/tantulabs/cascade-hardware-monitor-sub000/internal/hub"
)

type RouterDeps struct {
	WS       *hub.Handler
	Snapshot *SnapshotHandler
	History  *HistoryHandler
	Alert    *AlertHandler
	Unified  *UnifiedHandler
}

func NewRouter(cfg *config.Config, deps *RouterDeps) http.Handler {
	mux := http.NewServeMux()

	// HEALTH
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// WEBSOCKET
	mux.HandleFunc("GET /ws", deps.WS.Serve)

	// SNAPSHOT
	mux.HandleFunc("GET /snapshot", deps.Snapshot.Latest)
	mux.HandleFunc("GET /snapshot/live", deps.Snapshot.Live)

	// HISTORY
	mux.HandleFunc("GET /history", deps.History.Query)
	mux.HandleFunc("GET /history/sensors/{path}", deps.History.Sensor)
	mux.HandleFunc("GET /history/latest", deps.History.Latest)
	mux.HandleFunc("GET /history/stats", deps.History.Stats)
	mux.HandleFunc("DELETE /history", deps.History.Clear)

	// UNIFIED SENSORS
	mux.HandleFunc("GET /sensors/unified", deps.Unified.Index)

	// ALERTS
	mux.HandleFunc("GET /alerts", deps.Alert.Index)
	mux.HandleFunc("POST /alerts", deps.Alert.Store)
	mux.HandleFunc("GET /alerts/{id}", deps.Alert.Show)
	mux.HandleFunc("PUT /alerts/{id}", deps.Alert.Update)
	mux.HandleFunc("DELETE /alerts/{id}", deps.Alert.Destroy)
	mux.HandleFunc("POST /alerts/{id}/enable", deps.Alert.Enable)
	mux.HandleFunc("POST /alerts/{id}/disable", deps.Alert.Disable)
	mux.HandleFunc("GET /alerts/events/history", deps.Alert.Events)
	mux.HandleFunc("POST /alerts/events/{id}/ack", deps.Alert.Acknowledge)

	return cors(cfg.AllowedOrigins)(mux)
}

func cors(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && slices.Contains(allowedOrigins, origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

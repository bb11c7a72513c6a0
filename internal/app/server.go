package app

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vk/nodeflow/internal/ctxlog"
	"github.com/vk/nodeflow/internal/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Browsers connect from arbitrary frontend origins.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Router builds the full HTTP surface of the server.
func (a *App) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/health", a.handleHealth)
	r.Get("/object_info", a.handleObjectInfo)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws/run", a.handleRun)

	return r
}

func (a *App) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleObjectInfo serves the node type catalog the frontend uses to build
// its palette.
func (a *App) handleObjectInfo(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(a.registry.Catalog()); err != nil {
		a.logger.Error("Failed to encode node catalog.", "error", err)
	}
}

// handleRun upgrades the connection to a websocket and hands it to a
// session, which owns the connection until the client disconnects.
func (a *App) handleRun(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.logger.Error("Websocket upgrade failed.", "error", err)
		return
	}
	defer conn.Close()

	sess := session.New(conn, a.engine)
	sess.Serve(ctxlog.WithLogger(r.Context(), a.logger))
}

// Package api exposes the plot engine over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/volcano-viz/server/internal/service"
)

// RouterConfig carries the router's dependencies.
type RouterConfig struct {
	Service     *service.PlotService
	CORSOrigins []string
	InstanceID  string
	StartedAt   time.Time
}

// NewRouter builds the HTTP router.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	h := &handler{svc: cfg.Service, instanceID: cfg.InstanceID, startedAt: cfg.StartedAt}

	r.Get("/health", h.health)
	r.Route("/api", func(r chi.Router) {
		r.Get("/plot/volcano", h.volcano)
		r.Get("/plot/pca", h.pca)
		r.Get("/stats", h.stats)
		r.Get("/cache/status", h.cacheStatus)
		r.Post("/cache/clear", h.cacheClear)
		r.Post("/cache/warm", h.cacheWarm)
	})

	return r
}

type handler struct {
	svc        *service.PlotService
	instanceID string
	startedAt  time.Time
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) volcano(w http.ResponseWriter, r *http.Request) {
	req, err := parseVolcanoRequest(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}
	data, err := h.svc.VolcanoJSON(req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSONBytes(w, data)
}

func (h *handler) pca(w http.ResponseWriter, r *http.Request) {
	req, err := parsePCARequest(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}
	data, err := h.svc.PCAJSON(req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSONBytes(w, data)
}

func (h *handler) stats(w http.ResponseWriter, r *http.Request) {
	st := h.svc.CacheStatus()
	writeJSON(w, http.StatusOK, map[string]any{
		"instance_id":      h.instanceID,
		"uptime_seconds":   int64(time.Since(h.startedAt).Seconds()),
		"datasets":         st,
		"cached_responses": h.svc.ResponseCacheLen(),
	})
}

func (h *handler) cacheStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.CacheStatus())
}

func (h *handler) cacheClear(w http.ResponseWriter, r *http.Request) {
	removed := h.svc.ClearCache()
	log.Printf("[api] cache cleared, %d datasets removed", removed)
	writeJSON(w, http.StatusOK, map[string]int{"removed_count": removed})
}

func (h *handler) cacheWarm(w http.ResponseWriter, r *http.Request) {
	sizes, err := parseWarmSizes(r)
	if err != nil {
		writeError(w, err)
		return
	}
	warmed := h.svc.WarmCache(sizes)
	writeJSON(w, http.StatusOK, map[string]any{"cached_sizes": warmed})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[api] failed to write response: %v", err)
	}
}

func writeJSONBytes(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(data); err != nil {
		log.Printf("[api] failed to write response: %v", err)
	}
}

// writeError maps service errors onto HTTP statuses. Internal errors are
// logged in full and returned as a generic message.
func writeError(w http.ResponseWriter, err error) {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": ve.Error(),
			"field": ve.Field,
		})
		return
	}

	var re *service.ResourceLimitError
	if errors.As(err, &re) {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{
			"error": re.Error(),
		})
		return
	}

	log.Printf("[api] internal error: %v", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "internal error",
	})
}

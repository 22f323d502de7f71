package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/amityadav/refiner/internal/config"
	"github.com/amityadav/refiner/internal/errs"
	"github.com/amityadav/refiner/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxBodyBytes = 10 << 20

type response struct {
	Success    bool              `json:"success"`
	Message    string            `json:"message,omitempty"`
	Data       interface{}       `json:"data,omitempty"`
	Pagination *store.Pagination `json:"pagination,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// NewRouter creates the REST API endpoints
func NewRouter(services Services, cfg config.Config) http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(requestLogger)
	r.Use(corsMiddleware)

	r.Get("/", handleRoot)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		if cfg.APIRateLimit > 0 {
			r.Use(newIPLimiter(cfg.APIRateLimit, rateLimitWindow).middleware)
		}

		r.Get("/health", handleHealth)
		r.Post("/enrich/run", handleEnrichRun(services.Trigger, cfg.AdminAPIKey))

		h := &articleHandler{store: services.Store}
		r.Route("/articles", func(r chi.Router) {
			r.Get("/", h.list)
			r.Post("/", h.create)
			r.Get("/stats", h.stats)
			r.Get("/{id}", h.get)
			r.Put("/{id}", h.update)
			r.Delete("/{id}", h.delete)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, response{Message: "Route not found", Error: r.URL.Path})
	})
	return r
}

func handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, response{Success: true, Message: "Article refiner API is running"})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, response{
		Success: true,
		Message: "API is healthy",
		Data:    map[string]string{"timestamp": time.Now().UTC().Format(time.RFC3339)},
	})
}

func handleEnrichRun(trigger Trigger, adminAPIKey string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if adminAPIKey == "" {
			writeJSON(w, http.StatusServiceUnavailable, response{Message: "ADMIN_API_KEY not configured on server"})
			return
		}
		if r.Header.Get("X-API-Key") != adminAPIKey {
			writeJSON(w, http.StatusUnauthorized, response{Message: "unauthorized - invalid or missing X-API-Key header"})
			return
		}
		if trigger == nil {
			writeJSON(w, http.StatusServiceUnavailable, response{Message: "Enrichment is disabled"})
			return
		}

		if !trigger.TryRun() {
			writeJSON(w, http.StatusConflict, response{Message: "An enrichment run is already in progress"})
			return
		}
		log.Printf("[REST] Enrichment run triggered from %s", r.RemoteAddr)
		writeJSON(w, http.StatusAccepted, response{Success: true, Message: "Enrichment run started in background"})
	}
}

type articleHandler struct {
	store store.Store
}

func (h *articleHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := store.ListParams{
		Page:   queryInt(q.Get("page"), 1),
		Limit:  queryInt(q.Get("limit"), 10),
		Oldest: q.Get("sort") == "oldest",
	}
	if v := q.Get("isUpdated"); v != "" {
		updated := v == "true"
		params.IsUpdated = &updated
	}

	articles, pagination, err := h.store.ListArticles(r.Context(), params)
	if err != nil {
		writeStoreError(w, "Failed to fetch articles", err)
		return
	}
	if articles == nil {
		articles = []store.Article{}
	}
	writeJSON(w, http.StatusOK, response{Success: true, Data: articles, Pagination: &pagination})
}

func (h *articleHandler) get(w http.ResponseWriter, r *http.Request) {
	article, err := h.store.GetArticle(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, "Failed to fetch article", err)
		return
	}
	writeJSON(w, http.StatusOK, response{Success: true, Data: article})
}

func (h *articleHandler) create(w http.ResponseWriter, r *http.Request) {
	var in store.Article
	if !decodeBody(w, r, &in) {
		return
	}

	article, err := h.store.CreateArticle(r.Context(), &in)
	if err != nil {
		writeStoreError(w, "Failed to create article", err)
		return
	}
	log.Printf("[REST] Created article %s", article.ID)
	writeJSON(w, http.StatusCreated, response{Success: true, Message: "Article created successfully", Data: article})
}

func (h *articleHandler) update(w http.ResponseWriter, r *http.Request) {
	var patch store.ArticlePatch
	if !decodeBody(w, r, &patch) {
		return
	}

	article, err := h.store.UpdateArticle(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeStoreError(w, "Failed to update article", err)
		return
	}
	writeJSON(w, http.StatusOK, response{Success: true, Message: "Article updated successfully", Data: article})
}

func (h *articleHandler) delete(w http.ResponseWriter, r *http.Request) {
	article, err := h.store.DeleteArticle(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, "Failed to delete article", err)
		return
	}
	log.Printf("[REST] Deleted article %s", article.ID)
	writeJSON(w, http.StatusOK, response{Success: true, Message: "Article deleted successfully", Data: article})
}

func (h *articleHandler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		writeStoreError(w, "Failed to fetch statistics", err)
		return
	}
	writeJSON(w, http.StatusOK, response{Success: true, Data: stats})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, response{Message: "Invalid request body", Error: err.Error()})
		return false
	}
	return true
}

func queryInt(v string, def int) int {
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return n
	}
	return def
}

// writeStoreError maps store error classes onto HTTP statuses
func writeStoreError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, errs.ErrValidation):
		writeJSON(w, http.StatusBadRequest, response{Message: err.Error()})
	case errors.Is(err, errs.ErrNotFound):
		writeJSON(w, http.StatusNotFound, response{Message: "Article not found"})
	default:
		log.Printf("[REST] %s: %v", message, err)
		writeJSON(w, http.StatusInternalServerError, response{Message: message, Error: err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[REST] Failed to encode response: %v", err)
	}
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/neexbeast/travel-catalog/internal/idempotency"
	"github.com/neexbeast/travel-catalog/internal/travel"
)

const (
	defaultPageNum  = 0
	defaultPageSize = 10
	maxBodyBytes    = 1 << 20

	idempotencyHeader = "Idempotency-Key"
	replayedHeader    = "Idempotent-Replayed"
)

// Handlers holds the dependencies for all HTTP handlers.
type Handlers struct {
	catalog   Catalog
	idem      IdempotencyStore // nil when idempotent creation is disabled
	validator *requestValidator
	log       *slog.Logger
}

// NewHandlers constructs Handlers. idem may be nil.
func NewHandlers(catalog Catalog, idem IdempotencyStore, log *slog.Logger) *Handlers {
	return &Handlers{
		catalog:   catalog,
		idem:      idem,
		validator: newRequestValidator(),
		log:       log,
	}
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeInternal(w http.ResponseWriter) {
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// paging reads pageNum and pageSize, defaulting to 0 and 10.
// Range checks are left to the repository.
func paging(r *http.Request) (size, num int, err error) {
	size, num = defaultPageSize, defaultPageNum
	q := r.URL.Query()
	if v := q.Get("pageSize"); v != "" {
		if size, err = strconv.Atoi(v); err != nil {
			return 0, 0, errors.New("pageSize must be an integer")
		}
	}
	if v := q.Get("pageNum"); v != "" {
		if num, err = strconv.Atoi(v); err != nil {
			return 0, 0, errors.New("pageNum must be an integer")
		}
	}
	return size, num, nil
}

func travelID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// search returns the trimmed {search} path parameter, or "" if it is blank.
func search(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "search"))
}

// ListTravels handles GET /api/v1/catalog/travel.
func (h *Handlers) ListTravels(w http.ResponseWriter, r *http.Request) {
	size, num, err := paging(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	travels, err := h.catalog.List(r.Context(), size, num)
	if err != nil {
		h.writeListError(w, "list travels failed", err)
		return
	}

	writeJSON(w, http.StatusOK, travels)
}

// GetTravel handles GET /api/v1/catalog/travel/{id}.
func (h *Handlers) GetTravel(w http.ResponseWriter, r *http.Request) {
	id, err := travelID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid travel id")
		return
	}

	t, err := h.catalog.GetByID(r.Context(), id)
	if err != nil {
		h.log.Error("get travel failed", "id", id, "err", err)
		writeInternal(w)
		return
	}
	if t == nil {
		writeError(w, http.StatusNotFound, "travel not found")
		return
	}

	writeJSON(w, http.StatusOK, t)
}

// FindFirstTravelByCountry handles GET /api/v1/catalog/travel/{search}.
func (h *Handlers) FindFirstTravelByCountry(w http.ResponseWriter, r *http.Request) {
	q := search(r)
	if q == "" {
		writeError(w, http.StatusBadRequest, "search must not be empty")
		return
	}

	t, err := h.catalog.FindFirstByCountry(r.Context(), q)
	if err != nil {
		h.log.Error("find travel by country failed", "search", q, "err", err)
		writeInternal(w)
		return
	}
	if t == nil {
		writeError(w, http.StatusNotFound, "no travel found for country "+strconv.Quote(q))
		return
	}

	writeJSON(w, http.StatusOK, t)
}

// FindTravelsByCountry handles GET /api/v1/catalog/trip/{search}.
func (h *Handlers) FindTravelsByCountry(w http.ResponseWriter, r *http.Request) {
	q := search(r)
	if q == "" {
		writeError(w, http.StatusBadRequest, "search must not be empty")
		return
	}
	size, num, err := paging(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	travels, err := h.catalog.FindByCountry(r.Context(), q, size, num)
	if err != nil {
		h.writeListError(w, "find travels by country failed", err)
		return
	}

	writeJSON(w, http.StatusOK, travels)
}

func (h *Handlers) writeListError(w http.ResponseWriter, msg string, err error) {
	if errors.Is(err, travel.ErrOutOfRange) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.log.Error(msg, "err", err)
	writeInternal(w)
}

// DeleteTravel handles DELETE /api/v1/catalog/travel/{id}.
// Unknown ids answer 404; otherwise the travel is removed and 204 is returned.
func (h *Handlers) DeleteTravel(w http.ResponseWriter, r *http.Request) {
	id, err := travelID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid travel id")
		return
	}

	t, err := h.catalog.GetByID(r.Context(), id)
	if err != nil {
		h.log.Error("get travel before delete failed", "id", id, "err", err)
		writeInternal(w)
		return
	}
	if t == nil {
		writeError(w, http.StatusNotFound, "unknown travel")
		return
	}

	if err := h.catalog.Remove(r.Context(), id); err != nil {
		h.log.Error("remove travel failed", "id", id, "err", err)
		writeInternal(w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type createTravelResponse struct {
	ID int64 `json:"id"`
}

// CreateTravel handles POST /api/v1/catalog/travel.
// With an Idempotency-Key header, a retry of the same body returns the
// original id instead of creating a second travel.
func (h *Handlers) CreateTravel(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSpace(r.Header.Get(idempotencyHeader))
	if key != "" {
		if _, err := uuid.Parse(key); err != nil {
			writeError(w, http.StatusBadRequest, idempotencyHeader+" must be a UUID")
			return
		}
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "request body too large or unreadable")
		return
	}

	if key != "" && h.idem != nil {
		rec, err := h.idem.Get(r.Context(), key)
		if err != nil {
			h.log.Warn("idempotency lookup failed, proceeding without it", "key", key, "err", err)
		}
		if rec != nil {
			if !rec.SameRequest(body) {
				writeError(w, http.StatusUnprocessableEntity, idempotencyHeader+" was already used with a different request")
				return
			}
			w.Header().Set(replayedHeader, "true")
			writeJSON(w, http.StatusOK, createTravelResponse{ID: rec.TravelID})
			return
		}
	}

	var req createTravelRequest
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if details := h.validator.validate(req); details != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "validation failed",
			"details": details,
		})
		return
	}

	id, err := h.catalog.Add(r.Context(), req.toNewTravel())
	if err != nil {
		if errors.Is(err, travel.ErrUnresolvedReference) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		if errors.Is(err, travel.ErrInvalidTravel) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error("add travel failed", "name", req.Name, "err", err)
		writeInternal(w)
		return
	}

	if key != "" && h.idem != nil {
		rec := idempotency.Record{TravelID: id, BodyHash: idempotency.Fingerprint(body), CreatedAt: time.Now().UTC()}
		if err := h.idem.Save(r.Context(), key, rec); err != nil {
			h.log.Warn("idempotency save failed", "key", key, "id", id, "err", err)
		}
	}

	writeJSON(w, http.StatusCreated, createTravelResponse{ID: id})
}

// HealthHandlerFunc returns an http.HandlerFunc that pings the database and,
// when configured, Redis in parallel. It answers 200 when every dependency is
// reachable and 503 otherwise. redis may be nil.
func HealthHandlerFunc(db, redis pinger, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		dbStatus, redisStatus := "ok", "disabled"

		var g errgroup.Group
		g.Go(func() error {
			if err := db.Ping(ctx); err != nil {
				log.Error("health check: db ping failed", "err", err)
				dbStatus = "error"
				return err
			}
			return nil
		})
		if redis != nil {
			redisStatus = "ok"
			g.Go(func() error {
				if err := redis.Ping(ctx); err != nil {
					log.Error("health check: redis ping failed", "err", err)
					redisStatus = "error"
					return err
				}
				return nil
			})
		}

		status, overall := http.StatusOK, "ok"
		if err := g.Wait(); err != nil {
			status, overall = http.StatusServiceUnavailable, "degraded"
		}

		writeJSON(w, status, map[string]string{
			"status": overall,
			"db":     dbStatus,
			"redis":  redisStatus,
		})
	}
}

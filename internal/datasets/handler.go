package datasets

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/itembank/backend/internal/irt"
	"github.com/itembank/backend/internal/models"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers dataset endpoints on the protected subrouter.
func (h *Handler) RegisterRoutes(protected *mux.Router) {
	protected.HandleFunc("/datasets", h.Upload).Methods("POST")
	protected.HandleFunc("/datasets", h.List).Methods("GET")
	protected.HandleFunc("/datasets/{id}", h.Get).Methods("GET")
	protected.HandleFunc("/datasets/{id}", h.Delete).Methods("DELETE")
	protected.HandleFunc("/datasets/{id}/stats", h.Stats).Methods("GET")
}

// getUserID extracts the authenticated user ID from the request context.
func getUserID(r *http.Request) (int64, bool) {
	uid, ok := r.Context().Value("user_id").(int64)
	return uid, ok
}

func datasetID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	var req models.UploadDatasetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "name is required"})
		return
	}

	ds, err := h.service.Upload(userID, req)
	if err != nil {
		switch {
		case errors.Is(err, irt.ErrEmptyMatrix):
			writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "matrix must have at least one person and one item"})
		case errors.Is(err, irt.ErrRaggedMatrix):
			writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "matrix rows must all have the same length"})
		case errors.Is(err, irt.ErrInvalidResponse):
			writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "matrix cells must be 0, 1, or null"})
		default:
			log.Printf("[handler] Upload dataset error: %v", err)
			writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to store dataset"})
		}
		return
	}

	writeJSON(w, http.StatusCreated, ds)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	datasets, err := h.service.List(userID)
	if err != nil {
		log.Printf("[handler] List datasets error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to list datasets"})
		return
	}

	writeJSON(w, http.StatusOK, datasets)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	id, err := datasetID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid dataset ID"})
		return
	}

	resp, err := h.service.Get(userID, id)
	if errors.Is(err, ErrNotFound) {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Dataset not found"})
		return
	}
	if err != nil {
		log.Printf("[handler] Get dataset error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load dataset"})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	id, err := datasetID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid dataset ID"})
		return
	}

	if err := h.service.Delete(userID, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Dataset not found"})
			return
		}
		log.Printf("[handler] Delete dataset error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to delete dataset"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ── Statistics ──────────────────────────────────────────

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	id, err := datasetID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid dataset ID"})
		return
	}

	stats, err := h.service.Stats(userID, id)
	if errors.Is(err, ErrNotFound) {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Dataset not found"})
		return
	}
	if err != nil {
		log.Printf("[handler] Dataset stats error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to compute statistics"})
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// ── Helpers ─────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

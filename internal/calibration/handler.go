package calibration

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/itembank/backend/internal/datasets"
	"github.com/itembank/backend/internal/irt"
	"github.com/itembank/backend/internal/models"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers calibration endpoints on the protected subrouter.
func (h *Handler) RegisterRoutes(protected *mux.Router) {
	protected.HandleFunc("/calibrations", h.Create).Methods("POST")
	protected.HandleFunc("/calibrations", h.List).Methods("GET")
	protected.HandleFunc("/calibrations/{id}", h.Get).Methods("GET")
	protected.HandleFunc("/calibrations/{id}", h.Delete).Methods("DELETE")
}

// getUserID extracts the authenticated user ID from the request context.
func getUserID(r *http.Request) (int64, bool) {
	uid, ok := r.Context().Value("user_id").(int64)
	return uid, ok
}

func jobID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	var req models.CreateCalibrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if req.DatasetID <= 0 {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "dataset_id is required"})
		return
	}
	if req.Model == "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "model is required"})
		return
	}
	if req.MaxIterations != nil && *req.MaxIterations <= 0 {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "max_iterations must be positive"})
		return
	}
	if req.Tolerance != nil && *req.Tolerance <= 0 {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "tolerance must be positive"})
		return
	}
	if req.ParamTolerance != nil && *req.ParamTolerance <= 0 {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "param_tolerance must be positive"})
		return
	}
	if req.LearningRate != nil && *req.LearningRate <= 0 {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "learning_rate must be positive"})
		return
	}
	if req.DecayFactor != nil && (*req.DecayFactor <= 0 || *req.DecayFactor > 1) {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "decay_factor must be in (0, 1]"})
		return
	}

	job, err := h.service.Create(userID, req)
	if err != nil {
		switch {
		case errors.Is(err, datasets.ErrNotFound):
			writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Dataset not found"})
		case errors.Is(err, irt.ErrUnknownModel):
			writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "model must be 1pl, 2pl, or 3pl"})
		case errors.Is(err, irt.ErrUnknownStrategy):
			writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "missing_strategy must be ignore, treat_as_incorrect, or treat_as_correct"})
		default:
			log.Printf("[handler] Create calibration error: %v", err)
			writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to create calibration job"})
		}
		return
	}

	writeJSON(w, http.StatusCreated, job)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	status := models.JobStatus(r.URL.Query().Get("status"))
	if status != "" && !models.ValidJobStatuses[status] {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "status must be pending, running, completed, or failed"})
		return
	}

	var datasetID int64
	if v := r.URL.Query().Get("dataset_id"); v != "" {
		var err error
		datasetID, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid dataset_id"})
			return
		}
	}

	jobs, err := h.service.List(userID, status, datasetID)
	if err != nil {
		log.Printf("[handler] List calibrations error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to list calibration jobs"})
		return
	}

	writeJSON(w, http.StatusOK, jobs)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	id, err := jobID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid job ID"})
		return
	}

	result, err := h.service.Get(userID, id)
	if errors.Is(err, ErrNotFound) {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Calibration job not found"})
		return
	}
	if err != nil {
		log.Printf("[handler] Get calibration error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load calibration job"})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	id, err := jobID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid job ID"})
		return
	}

	if err := h.service.Delete(userID, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Calibration job not found"})
			return
		}
		log.Printf("[handler] Delete calibration error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to delete calibration job"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ── Helpers ─────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

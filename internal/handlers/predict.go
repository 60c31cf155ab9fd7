package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/dsxlab/analytics-extension/internal/models"
	"github.com/dsxlab/analytics-extension/internal/services"
)

type PredictHandler struct {
	service *services.ExtensionService
}

func NewPredictHandler(service *services.ExtensionService) *PredictHandler {
	return &PredictHandler{service: service}
}

func (h *PredictHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/predict", h.handlePredict)
	mux.HandleFunc("/healthz", h.handleHealth)
	mux.HandleFunc("/logs", h.handleLogs)
}

func (h *PredictHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type predictRequest struct {
	models.Request
	Keyed bool `json:"keyed,omitempty"`
}

func (h *PredictHandler) handlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}

	var httpReq predictRequest
	if err := json.NewDecoder(r.Body).Decode(&httpReq); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if httpReq.ReqID == "" {
		httpReq.ReqID = fmt.Sprintf("http-%d", time.Now().UnixNano())
	}
	if traceID := r.Header.Get("X-Trace-ID"); traceID != "" {
		httpReq.TraceID = traceID
	}

	response, err := h.service.ProcessPredict(r.Context(), httpReq.Request, httpReq.Keyed, "http.predict", "http-worker")

	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}
	_ = json.NewEncoder(w).Encode(response)
}

func (h *PredictHandler) handleLogs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			limit = n
		}
	}

	logs, err := h.service.GetRequestLogs(r.Context(), limit)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to get logs: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(logs)
}

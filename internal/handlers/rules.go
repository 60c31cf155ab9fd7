package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dsxlab/analytics-extension/internal/models"
	"github.com/dsxlab/analytics-extension/internal/services"
)

type RulesHandler struct {
	service *services.ExtensionService
}

func NewRulesHandler(service *services.ExtensionService) *RulesHandler {
	return &RulesHandler{service: service}
}

func (h *RulesHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/rules", h.handleRules)
}

func (h *RulesHandler) handleRules(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}

	var httpReq models.Request
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

	response, err := h.service.ProcessRules(r.Context(), httpReq, "http.rules", "http-worker")

	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}
	_ = json.NewEncoder(w).Encode(response)
}

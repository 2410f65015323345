package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/fleetpro/fleet-maintenance/internal/advisor"
	"github.com/fleetpro/fleet-maintenance/internal/fleet"
	"github.com/fleetpro/fleet-maintenance/internal/models"
)

// Advisor is the external advisory collaborator.
type Advisor interface {
	Advise(ctx context.Context, vehicles []models.Vehicle, query string) (string, error)
	AnalyzeImage(ctx context.Context, image []byte, mimeType string) (advisor.VehicleDetails, error)
}

// AdvisorHandler handles advisory requests
type AdvisorHandler struct {
	advisor Advisor
	fleet   *fleet.Fleet
}

// NewAdvisorHandler creates a new advisory handler
func NewAdvisorHandler(a Advisor, f *fleet.Fleet) *AdvisorHandler {
	return &AdvisorHandler{advisor: a, fleet: f}
}

// AdviceRequest is a free-text question about the fleet.
type AdviceRequest struct {
	Query string `json:"query"`
}

// AdviceResponse carries the advisory answer.
type AdviceResponse struct {
	Answer string `json:"answer"`
}

// Advice sends a fleet snapshot plus the query to the advisory service.
// Advisory failures never touch fleet state; they surface as 502.
func (h *AdvisorHandler) Advice(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var req AdviceRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		http.Error(w, "Query is required", http.StatusBadRequest)
		return
	}

	answer, err := h.advisor.Advise(r.Context(), h.fleet.Vehicles(), req.Query)
	if err != nil {
		log.WithError(err).Error("Advisory call failed")
		http.Error(w, "Advisory service unavailable", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, AdviceResponse{Answer: answer})
}

// AnalyzeImageRequest carries a base64-encoded vehicle photo.
type AnalyzeImageRequest struct {
	Image    string `json:"image"`
	MimeType string `json:"mime_type,omitempty"`
}

// AnalyzeImage extracts vehicle details from a photo
func (h *AdvisorHandler) AnalyzeImage(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var req AnalyzeImageRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Image == "" {
		http.Error(w, "Image is required", http.StatusBadRequest)
		return
	}

	// Tolerate data URLs from browser capture
	if idx := strings.Index(req.Image, ","); idx != -1 && strings.HasPrefix(req.Image, "data:") {
		req.Image = req.Image[idx+1:]
	}
	image, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		http.Error(w, "Invalid base64 image", http.StatusBadRequest)
		return
	}

	details, err := h.advisor.AnalyzeImage(r.Context(), image, req.MimeType)
	if err != nil {
		log.WithError(err).Error("Image analysis failed")
		http.Error(w, "Advisory service unavailable", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

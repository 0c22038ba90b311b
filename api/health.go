package api

import (
	"net/http"
	"os"

	"github.com/save-ai/save/internal/config"
	"github.com/save-ai/save/internal/tools"
)

// HealthHandler serves liveness and capability probes.
type HealthHandler struct {
	cfg         *config.Config
	descriptors []tools.Descriptor
}

// NewHealthHandler creates the health handler.
func NewHealthHandler(cfg *config.Config, descriptors []tools.Descriptor) *HealthHandler {
	return &HealthHandler{cfg: cfg, descriptors: descriptors}
}

// RegisterRoutes registers health endpoints on mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /api/capabilities", h.Capabilities)
}

// Health handles GET /health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// CapabilitiesResponse reports which upstreams are configured and
// which tools are live. Key values are booleans, never the keys.
type CapabilitiesResponse struct {
	Model string             `json:"model"`
	Keys  map[string]bool    `json:"keys"`
	Tools []tools.Descriptor `json:"tools"`
}

// Capabilities handles GET /api/capabilities.
func (h *HealthHandler) Capabilities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, CapabilitiesResponse{
		Model: h.cfg.ModelName,
		Keys: map[string]bool{
			"gemini": os.Getenv("GEMINI_API_KEY") != "",
			"usda":   h.cfg.HasUSDA(),
			"tavily": h.cfg.HasTavily(),
		},
		Tools: h.descriptors,
	})
}

package api

import (
	"net/http"

	"github.com/seenimoa/equiscore/internal/config"
)

// ConfigResponse is the JSON envelope returned by GET /api/v1/config.
type ConfigResponse struct {
	ConfigFile string             `json:"config_file,omitempty"` // empty when running on defaults
	Settings   []config.Setting   `json:"settings"`
	Weights    map[string]float64 `json:"weights,omitempty"`
}

// handleGetConfig returns the running configuration with the source of
// each tracked setting.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: ConfigResponse{
			ConfigFile: s.cfg.File,
			Settings:   config.Settings(s.cfg),
			Weights:    s.cfg.Scoring.Weights,
		},
	})
}

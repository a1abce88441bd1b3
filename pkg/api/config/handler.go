package config

import (
	"encoding/json"
	"net/http"

	coreConfig "wacc_simulator/pkg/core/config"
	"wacc_simulator/pkg/core/wacc"
)

type Response struct {
	Source         string                        `json:"source"`
	Data           coreConfig.DataConfig         `json:"data"`
	Simulation     coreConfig.SimulationDefaults `json:"simulation"`
	ChunkSize      int                           `json:"chunk_size"`
	WeightPolicies []string                      `json:"weight_policies"`
}

// Handler holds dependencies for config endpoints
type Handler struct {
	Config     *coreConfig.Config
	SourceName string
}

// NewHandler creates a new config handler
func NewHandler(cfg *coreConfig.Config, sourceName string) *Handler {
	return &Handler{
		Config:     cfg,
		SourceName: sourceName,
	}
}

func (h *Handler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	// Add CORS headers for local dev
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	resp := Response{
		Source:     h.SourceName,
		Data:       h.Config.Data,
		Simulation: h.Config.Simulation,
		ChunkSize:  wacc.ChunkSize,
		WeightPolicies: []string{
			string(wacc.WeightPassthrough),
			string(wacc.WeightNormalize),
			string(wacc.WeightReject),
		},
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

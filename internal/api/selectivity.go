package api

import (
	"encoding/json"
	"net/http"

	"github.com/terrasift/terrasift/internal/criteria"
	"github.com/terrasift/terrasift/internal/selectivity"
)

type SelectivityHandler struct {
	stats    *selectivity.Stats
	detector *selectivity.Detector
}

func NewSelectivityHandler(stats *selectivity.Stats, det *selectivity.Detector) *SelectivityHandler {
	return &SelectivityHandler{stats: stats, detector: det}
}

type SelectivityResponse struct {
	Estimates []selectivity.Estimate `json:"estimates"`
	Findings  []selectivity.Finding  `json:"findings"`
}

// Estimate handles POST /api/v1/selectivity — live feedback while a
// configuration is being edited, before anything runs.
func (h *SelectivityHandler) Estimate(w http.ResponseWriter, r *http.Request) {
	var cfg criteria.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := cfg.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	resp := SelectivityResponse{
		Estimates: h.stats.EstimateConfig(&cfg),
		Findings:  h.detector.Check(&cfg),
	}
	if resp.Estimates == nil {
		resp.Estimates = []selectivity.Estimate{}
	}
	if resp.Findings == nil {
		resp.Findings = []selectivity.Finding{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Stats handles GET /api/v1/stats
func (h *SelectivityHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.stats.Summary())
}

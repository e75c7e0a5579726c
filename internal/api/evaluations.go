package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/terrasift/terrasift/internal/criteria"
	"github.com/terrasift/terrasift/internal/engine"
	"github.com/terrasift/terrasift/internal/site"
)

type EvaluationsHandler struct {
	runs     *engine.Runs
	defaults Defaults
}

func NewEvaluationsHandler(runs *engine.Runs, defaults Defaults) *EvaluationsHandler {
	return &EvaluationsHandler{runs: runs, defaults: defaults}
}

// CreateEvaluationRequest starts a run. Callers either hand over explicit
// tiers or a single config, optionally expanded into the standard
// relaxation chain with auto_relax.
type CreateEvaluationRequest struct {
	Config        *criteria.Config    `json:"config,omitempty"`
	Tiers         []engine.Tier       `json:"tiers,omitempty"`
	AutoRelax     bool                `json:"auto_relax,omitempty"`
	TopN          int                 `json:"top_n,omitempty"`
	MinAcceptable int                 `json:"min_acceptable,omitempty"`
	Modifiers     []criteria.Modifier `json:"modifiers,omitempty"`
}

// Create handles POST /api/v1/evaluations
func (h *EvaluationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateEvaluationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	tiers := req.Tiers
	if len(tiers) == 0 {
		if req.Config == nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "config or tiers required"})
			return
		}
		// Validate first: it also fills in defaulted kinds, which the
		// relaxation chain needs to widen the right fields.
		if err := req.Config.Validate(); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		if req.AutoRelax {
			tiers = engine.DefaultFallbacks(*req.Config)
		} else {
			tiers = []engine.Tier{{Label: "primary", Config: *req.Config}}
		}
	}

	topN := req.TopN
	if topN <= 0 {
		topN = h.defaults.TopN
	}
	minAcceptable := req.MinAcceptable
	if minAcceptable <= 0 {
		minAcceptable = h.defaults.MinAcceptable
	}

	id, err := h.runs.Start(&engine.Request{
		Tiers:         tiers,
		TopN:          topN,
		MinAcceptable: minAcceptable,
		Modifiers:     req.Modifiers,
	})
	if err != nil {
		var cfgErr *criteria.ConfigError
		if errors.As(err, &cfgErr) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": cfgErr.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"run_id": id.String(),
		"status": string(engine.StatusRunning),
	})
}

// Get handles GET /api/v1/evaluations/{id}
func (h *EvaluationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	run, ok := h.runs.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// Cancel handles DELETE /api/v1/evaluations/{id}
func (h *EvaluationsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	if !h.runs.Cancel(id) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "cancelling"})
}

// Breakdown handles GET /api/v1/evaluations/{id}/breakdown/{site_id}
func (h *EvaluationsHandler) Breakdown(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	siteID, err := strconv.ParseInt(chi.URLParam(r, "site_id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid site id"})
		return
	}

	run, ok := h.runs.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
		return
	}
	if run.Result == nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "run still in progress"})
		return
	}
	for i := range run.Result.Entries {
		e := &run.Result.Entries[i]
		if e.SiteID == site.ID(siteID) {
			writeJSON(w, http.StatusOK, e)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "site not in the ranked results"})
}

package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"qmrisk/app"
	"qmrisk/domain/core"
	"qmrisk/domain/exposure"
	"qmrisk/domain/risk"
	"qmrisk/internal/errors"
)

// createRunRequest is the POST /api/v1/runs body. Seed and iterations
// override the scenario's own values when non-zero.
type createRunRequest struct {
	Scenario   *risk.Scenario `json:"scenario"`
	Seed       int64          `json:"seed,omitempty"`
	Iterations int            `json:"iterations,omitempty"`
	Persist    bool           `json:"persist,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// scenarioInfo is the compact listing shape for discovered scenario files
type scenarioInfo struct {
	ID          core.ScenarioID `json:"id"`
	Name        string          `json:"name"`
	Pathogen    core.PathogenID `json:"pathogen"`
	Route       exposure.Route  `json:"route"`
	Iterations  int             `json:"iterations"`
	Individuals int             `json:"individuals"`
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"persistence": a.repo != nil,
	})
}

func (a *App) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req createRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, http.StatusBadRequest, errors.CodeInvalidInput, "request body is not valid JSON")
		return
	}
	if req.Scenario == nil {
		a.writeError(w, http.StatusBadRequest, errors.CodeInvalidInput, "scenario is required")
		return
	}

	summary, err := a.runs.Execute(r.Context(), app.RunRequest{
		Scenario:           req.Scenario,
		SeedOverride:       req.Seed,
		IterationsOverride: req.Iterations,
		Persist:            req.Persist,
	})
	if err != nil {
		a.writeDomainError(w, err)
		return
	}

	a.writeJSON(w, http.StatusCreated, summary)
}

func (a *App) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if a.repo == nil {
		a.writeError(w, http.StatusServiceUnavailable, errors.CodeConfigInvalid, "persistence is not configured")
		return
	}

	id := chi.URLParam(r, "id")
	summary, err := a.repo.Get(r.Context(), core.RunID(id))
	if err != nil {
		a.writeDomainError(w, err)
		return
	}

	a.writeJSON(w, http.StatusOK, summary)
}

func (a *App) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if a.repo == nil {
		a.writeError(w, http.StatusServiceUnavailable, errors.CodeConfigInvalid, "persistence is not configured")
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			a.writeError(w, http.StatusBadRequest, errors.CodeInvalidInput, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	var summaries []*risk.Summary
	var err error
	if pathogen := r.URL.Query().Get("pathogen"); pathogen != "" {
		summaries, err = a.repo.ListByPathogen(r.Context(), pathogen, limit)
	} else {
		summaries, err = a.repo.ListRecent(r.Context(), limit)
	}
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	if summaries == nil {
		summaries = []*risk.Summary{}
	}

	a.writeJSON(w, http.StatusOK, summaries)
}

func (a *App) handleListPathogens(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, risk.Pathogens())
}

func (a *App) handleListScenarios(w http.ResponseWriter, r *http.Request) {
	if a.loader == nil || a.scenarioDir == "" {
		a.writeError(w, http.StatusServiceUnavailable, errors.CodeConfigInvalid, "scenario directory is not configured")
		return
	}

	scenarios, err := a.loader.LoadDir(r.Context(), a.scenarioDir)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}

	infos := make([]scenarioInfo, 0, len(scenarios))
	for _, sc := range scenarios {
		infos = append(infos, scenarioInfo{
			ID:          sc.ID,
			Name:        sc.Name,
			Pathogen:    sc.Pathogen,
			Route:       sc.Route,
			Iterations:  sc.Iterations,
			Individuals: sc.Individuals,
		})
	}

	a.writeJSON(w, http.StatusOK, infos)
}

func (a *App) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.Error("failed to encode response: %v", err)
	}
}

func (a *App) writeError(w http.ResponseWriter, status int, code, message string) {
	a.writeJSON(w, status, errorResponse{Error: message, Code: code})
}

// writeDomainError maps service and domain errors onto HTTP statuses via
// their application error code.
func (a *App) writeDomainError(w http.ResponseWriter, err error) {
	appErr := errors.FromDomain(err)
	a.writeError(w, statusForCode(appErr.Code), appErr.Code, appErr.Message)
}

func statusForCode(code string) int {
	switch code {
	case errors.CodeValidationError, errors.CodeInvalidInput, errors.CodeConfigInvalid:
		return http.StatusBadRequest
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeResourceLimit, errors.CodeNumericDomain:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

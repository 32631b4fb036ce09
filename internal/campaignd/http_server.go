package campaignd

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/argonlab/campaign-core/pkg/logger"
)

type HTTPServer struct {
	mux      *http.ServeMux
	store    *CampaignStore
	Executor *Executor
}

func NewHTTPServer(store *CampaignStore, executor *Executor) *HTTPServer {
	s := &HTTPServer{
		mux:      http.NewServeMux(),
		store:    store,
		Executor: executor,
	}

	s.mux.HandleFunc("/healthz", s.handleHealthz)
	s.mux.HandleFunc("/v1/campaigns", s.handleCampaigns)
	s.mux.HandleFunc("/v1/campaigns/", s.handleCampaignByID)

	return s
}

func (s *HTTPServer) Handler() http.Handler {
	return s.mux
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		http.Error(w, `{"error":"encode failed"}`, http.StatusInternalServerError)
	}
}

// handleCampaigns handles /v1/campaigns
func (s *HTTPServer) handleCampaigns(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateCampaign(w, r)
	case http.MethodGet:
		s.handleListCampaigns(w, r)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleCampaignByID handles /v1/campaigns/{id} and related endpoints
func (s *HTTPServer) handleCampaignByID(w http.ResponseWriter, r *http.Request) {
	// Parse path: /v1/campaigns/{id}, {id}:start, {id}:stop,
	// {id}/observations, or {id}/records
	path := strings.TrimPrefix(r.URL.Path, "/v1/campaigns/")
	if path == "" {
		s.writeError(w, http.StatusBadRequest, "campaign ID is required")
		return
	}

	if strings.HasSuffix(path, ":start") {
		id := strings.TrimSuffix(path, ":start")
		if r.Method == http.MethodPost {
			s.handleStartCampaign(w, r, id)
		} else {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	if strings.HasSuffix(path, ":stop") {
		id := strings.TrimSuffix(path, ":stop")
		if r.Method == http.MethodPost {
			s.handleStopCampaign(w, r, id)
		} else {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	if strings.HasSuffix(path, "/observations") {
		id := strings.TrimSuffix(path, "/observations")
		if r.Method == http.MethodGet {
			s.handleGetObservations(w, r, id)
		} else {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	if strings.HasSuffix(path, "/records") {
		id := strings.TrimSuffix(path, "/records")
		if r.Method == http.MethodGet {
			s.handleGetRecords(w, r, id)
		} else {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	if r.Method == http.MethodGet {
		s.handleGetCampaign(w, r, path)
	} else {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleCreateCampaign handles POST /v1/campaigns
func (s *HTTPServer) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CampaignID string         `json:"campaign_id,omitempty"`
		Input      *CampaignInput `json:"input"`
		Start      bool           `json:"start,omitempty"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if req.Input == nil || strings.TrimSpace(req.Input.ConfigYAML) == "" {
		s.writeError(w, http.StatusBadRequest, "input.config_yaml is required")
		return
	}

	entry, err := s.store.Create(req.CampaignID, req.Input)
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			s.writeError(w, http.StatusConflict, err.Error())
		} else {
			s.writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	if req.Start {
		if entry, err = s.Executor.Start(entry.Meta.ID); err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	logger.Info("campaign created", "campaign_id", entry.Meta.ID, "started", req.Start)
	s.writeJSON(w, http.StatusCreated, map[string]any{
		"campaign": convertCampaignToJSON(entry),
	})
}

// handleListCampaigns handles GET /v1/campaigns with pagination and filtering
func (s *HTTPServer) handleListCampaigns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
			if limit > 1000 {
				limit = 1000
			}
		}
	}

	var statusFilter Status
	if statusStr := r.URL.Query().Get("status"); statusStr != "" {
		statusFilter = Status(strings.ToLower(statusStr))
	}

	entries := s.store.List(limit, statusFilter)
	campaignsJSON := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		campaignsJSON = append(campaignsJSON, convertCampaignToJSON(entry))
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"campaigns": campaignsJSON,
		"count":     len(entries),
	})
}

// handleGetCampaign handles GET /v1/campaigns/{id}
func (s *HTTPServer) handleGetCampaign(w http.ResponseWriter, _ *http.Request, id string) {
	entry, ok := s.store.Get(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, "campaign not found")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"campaign": convertCampaignToJSON(entry),
	})
}

// handleStartCampaign handles POST /v1/campaigns/{id}:start
func (s *HTTPServer) handleStartCampaign(w http.ResponseWriter, _ *http.Request, id string) {
	entry, err := s.Executor.Start(id)
	if err != nil {
		s.writeExecutorError(w, err)
		return
	}

	logger.Info("campaign started", "campaign_id", id)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"campaign": convertCampaignToJSON(entry),
	})
}

// handleStopCampaign handles POST /v1/campaigns/{id}:stop
func (s *HTTPServer) handleStopCampaign(w http.ResponseWriter, _ *http.Request, id string) {
	entry, err := s.Executor.Stop(id)
	if err != nil {
		s.writeExecutorError(w, err)
		return
	}

	logger.Info("campaign cancelled", "campaign_id", id)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"campaign": convertCampaignToJSON(entry),
	})
}

// handleGetObservations handles GET /v1/campaigns/{id}/observations
func (s *HTTPServer) handleGetObservations(w http.ResponseWriter, _ *http.Request, id string) {
	entry, ok := s.store.Get(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, "campaign not found")
		return
	}
	if entry.Data == nil {
		s.writeError(w, http.StatusPreconditionFailed, "observations not available")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"campaign_id": id,
		"n":           entry.Data.N(),
		"x":           entry.Data.X(),
		"y":           entry.Data.Y(),
	})
}

// handleGetRecords handles GET /v1/campaigns/{id}/records
func (s *HTTPServer) handleGetRecords(w http.ResponseWriter, _ *http.Request, id string) {
	entry, ok := s.store.Get(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, "campaign not found")
		return
	}
	if entry.Data == nil {
		s.writeError(w, http.StatusPreconditionFailed, "records not available")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"campaign_id": id,
		"records":     entry.Data.Records(),
	})
}

func (s *HTTPServer) writeExecutorError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrCampaignNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrCampaignIDMissing):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrCampaignTerminal):
		s.writeError(w, http.StatusConflict, err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *HTTPServer) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", "error", err)
	}
}

func (s *HTTPServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]any{
		"error": message,
	})
}

func convertCampaignToJSON(entry *CampaignEntry) map[string]any {
	out := map[string]any{
		"id":                 entry.Meta.ID,
		"name":               entry.Meta.Name,
		"experiment":         entry.Meta.Experiment,
		"status":             entry.Meta.Status,
		"created_at_unix_ms": entry.Meta.CreatedAtUnixMs,
		"started_at_unix_ms": entry.Meta.StartedAtUnixMs,
		"ended_at_unix_ms":   entry.Meta.EndedAtUnixMs,
		"error":              entry.Meta.Error,
	}
	if entry.Data != nil {
		out["observations"] = entry.Data.N()
		out["iterations"] = entry.Data.Iterations()
	}
	if entry.Best != nil {
		out["best"] = entry.Best
	}
	return out
}

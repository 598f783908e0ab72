// Package admin exposes the run over HTTP: state snapshots, the
// waypoint API, resolution callbacks, and a websocket notification
// stream for map frontends.
package admin

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"eremos-run/internal/detection"
	"eremos-run/internal/encounter"
	"eremos-run/internal/extraction"
	"eremos-run/internal/hexmap"
	"eremos-run/internal/journey"
	"eremos-run/internal/loot"
	"eremos-run/internal/run"
)

// Server serves one run's control surface.
type Server struct {
	store   *run.Store
	orc     *journey.Orchestrator
	det     *detection.Manager
	ext     *extraction.Controller
	log     *slog.Logger
	mux     *http.ServeMux
	deploys []encounter.DeployTemplate
}

// NewServer wires the handlers onto a private mux.
func NewServer(store *run.Store, orc *journey.Orchestrator, det *detection.Manager, ext *extraction.Controller, log *slog.Logger) *Server {
	s := &Server{store: store, orc: orc, det: det, ext: ext, log: log, mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/state", s.handleState)
	s.mux.HandleFunc("/waypoints/add", s.handleAddWaypoint)
	s.mux.HandleFunc("/waypoints/remove", s.handleRemoveWaypoint)
	s.mux.HandleFunc("/waypoints/clear", s.handleClearWaypoints)
	s.mux.HandleFunc("/journey/commence", s.handleCommence)
	s.mux.HandleFunc("/journey/pause", s.handlePause)
	s.mux.HandleFunc("/journey/stop", s.handleStop)
	s.mux.HandleFunc("/resolve/proceed", s.handleProceed)
	s.mux.HandleFunc("/resolve/quick-deploy", s.handleQuickDeploy)
	s.mux.HandleFunc("/deploys", s.handleDeploys)
	s.mux.HandleFunc("/resolve/escape", s.handleEscape)
	s.mux.HandleFunc("/resolve/escape-check", s.handleEscapeCheck)
	s.mux.HandleFunc("/resolve/evade", s.handleEvade)
	s.mux.HandleFunc("/salvage/attempt", s.handleSalvageAttempt)
	s.mux.HandleFunc("/salvage/engage", s.handleSalvageEngage)
	s.mux.HandleFunc("/salvage/leave", s.handleSalvageLeave)
	s.mux.HandleFunc("/salvage/quit", s.handleSalvageQuit)
	s.mux.HandleFunc("/extraction/request", s.handleExtractionRequest)
	s.mux.HandleFunc("/extraction/confirm", s.handleExtractionConfirm)
	s.mux.HandleFunc("/extraction/cancel", s.handleExtractionCancel)
	s.mux.HandleFunc("/extraction/bypass", s.handleExtractionBypass)
	s.mux.HandleFunc("/items/dampener", s.handleDampener)
	s.mux.HandleFunc("/abandon", s.handleAbandon)
	s.mux.HandleFunc("/ws", s.handleWS)
}

// Start serves until the listener fails.
func (s *Server) Start(addr string) error {
	return http.ListenAndServe(addr, s.mux)
}

// ServeHTTP makes the server mountable and testable.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// stateView is the /state payload: the run snapshot plus the journey
// surface the map frontend renders.
type stateView struct {
	Active    bool               `json:"active"`
	State     *run.State         `json:"state,omitempty"`
	Phase     journey.Phase      `json:"phase"`
	Waypoints []journey.Waypoint `json:"waypoints"`
	Prompt    *journey.Prompt    `json:"prompt,omitempty"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	view := stateView{
		Phase:     s.orc.Phase(),
		Waypoints: s.orc.Waypoints(),
	}
	if st, ok := s.store.State(); ok {
		view.Active = true
		view.State = &st
	}
	if p, ok := s.orc.Pending(); ok {
		view.Prompt = &p
	}
	writeJSON(w, view)
}

func (s *Server) handleAddWaypoint(w http.ResponseWriter, r *http.Request) {
	hex, err := hexParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	route := journey.Route(r.URL.Query().Get("route"))
	if route == "" {
		route = journey.RouteDirect
	}
	if err := s.orc.AddWaypointVia(hex, route); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	writeJSON(w, s.orc.Waypoints())
}

func (s *Server) handleRemoveWaypoint(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(r.URL.Query().Get("index"))
	if err != nil {
		http.Error(w, "index is not a number", http.StatusBadRequest)
		return
	}
	if err := s.orc.RemoveWaypoint(idx); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	writeJSON(w, s.orc.Waypoints())
}

func (s *Server) handleClearWaypoints(w http.ResponseWriter, r *http.Request) {
	s.orc.ClearAllWaypoints()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCommence(w http.ResponseWriter, r *http.Request) {
	if err := s.orc.CommenceJourney(); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]bool{"paused": s.orc.TogglePause()})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.orc.StopMovement()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleProceed(w http.ResponseWriter, r *http.Request) {
	tok, err := tokenParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.orc.ResumeEncounterProceed(tok); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetDeployTemplates installs saved deploy templates, selectable by name
// in quick-deploy requests. Call before Start.
func (s *Server) SetDeployTemplates(tpls []encounter.DeployTemplate) {
	s.deploys = tpls
}

func (s *Server) handleDeploys(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.deploys)
}

// quickDeployRequest carries the template and roster for validation. A
// non-empty TemplateName selects a saved template instead.
type quickDeployRequest struct {
	Template     encounter.DeployTemplate `json:"template"`
	TemplateName string                   `json:"template_name,omitempty"`
	Roster       []string                 `json:"roster"`
}

func (s *Server) handleQuickDeploy(w http.ResponseWriter, r *http.Request) {
	tok, err := tokenParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req quickDeployRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}
	tpl := req.Template
	if req.TemplateName != "" {
		found := false
		for _, t := range s.deploys {
			if t.Name == req.TemplateName {
				tpl, found = t, true
				break
			}
		}
		if !found {
			http.Error(w, "unknown deploy template", http.StatusNotFound)
			return
		}
	}
	reasons, err := s.orc.ResumeEncounterQuickDeploy(tok, tpl, req.Roster)
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	writeJSON(w, map[string]any{"valid": len(reasons) == 0, "reasons": reasons})
}

func (s *Server) handleEscape(w http.ResponseWriter, r *http.Request) {
	tok, err := tokenParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := s.orc.ResumeEncounterEscape(tok)
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	writeJSON(w, res)
}

func (s *Server) handleEscapeCheck(w http.ResponseWriter, r *http.Request) {
	tok, err := tokenParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	check, err := s.orc.CheckEscape(tok)
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	writeJSON(w, check)
}

func (s *Server) handleEvade(w http.ResponseWriter, r *http.Request) {
	tok, err := tokenParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	reduction, err := s.orc.ResumeEncounterEvade(tok)
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	writeJSON(w, map[string]float64{"reduction": reduction})
}

func (s *Server) handleSalvageAttempt(w http.ResponseWriter, r *http.Request) {
	tok, err := tokenParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	content, triggered, err := s.orc.SalvageAttempt(tok)
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	writeJSON(w, map[string]any{
		"kind":             content.Kind(),
		"label":            content.Label(),
		"combat_triggered": triggered,
	})
}

func (s *Server) handleSalvageEngage(w http.ResponseWriter, r *http.Request) {
	tok, err := tokenParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.orc.SalvageEngage(tok); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSalvageLeave(w http.ResponseWriter, r *http.Request) {
	tok, err := tokenParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.orc.SalvageLeave(tok); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSalvageQuit(w http.ResponseWriter, r *http.Request) {
	tok, err := tokenParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.orc.SalvageQuit(tok); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExtractionRequest(w http.ResponseWriter, r *http.Request) {
	if !s.atGate(w) {
		return
	}
	writeJSON(w, s.ext.CompleteExtraction(nil))
}

// extractionConfirm selects collected-loot indexes to keep.
type extractionConfirm struct {
	Indexes []int `json:"indexes"`
}

func (s *Server) handleExtractionConfirm(w http.ResponseWriter, r *http.Request) {
	if !s.atGate(w) {
		return
	}
	st, ok := s.store.State()
	if !ok {
		http.Error(w, "run is over", http.StatusConflict)
		return
	}
	var req extractionConfirm
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}
	selected := make([]loot.Item, 0, len(req.Indexes))
	for _, i := range req.Indexes {
		if i < 0 || i >= len(st.CollectedLoot) {
			http.Error(w, "loot index out of range", http.StatusBadRequest)
			return
		}
		selected = append(selected, st.CollectedLoot[i])
	}
	writeJSON(w, s.ext.CompleteExtraction(selected))
}

func (s *Server) handleExtractionCancel(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.ext.CancelExtraction())
}

func (s *Server) handleExtractionBypass(w http.ResponseWriter, r *http.Request) {
	if !s.atGate(w) {
		return
	}
	writeJSON(w, s.ext.InitiateExtractionWithItem(true))
}

func (s *Server) handleDampener(w http.ResponseWriter, r *http.Request) {
	reduction, ok := s.det.UseDampener()
	if !ok {
		http.Error(w, "no dampener charges left", http.StatusConflict)
		return
	}
	writeJSON(w, map[string]float64{"reduction": reduction, "detection": s.det.Current()})
}

func (s *Server) handleAbandon(w http.ResponseWriter, r *http.Request) {
	s.orc.Abandon()
	w.WriteHeader(http.StatusNoContent)
}

// atGate rejects extraction calls away from a gate hex.
func (s *Server) atGate(w http.ResponseWriter) bool {
	st, ok := s.store.State()
	if !ok {
		http.Error(w, "run is over", http.StatusConflict)
		return false
	}
	if !st.Map.IsGate(st.PlayerPosition) {
		http.Error(w, "not at a gate", http.StatusConflict)
		return false
	}
	return true
}

func hexParam(r *http.Request) (hexmap.Axial, error) {
	var a hexmap.Axial
	q, err := strconv.Atoi(r.URL.Query().Get("q"))
	if err != nil {
		return a, err
	}
	rr, err := strconv.Atoi(r.URL.Query().Get("r"))
	if err != nil {
		return a, err
	}
	a.Q, a.R = q, rr
	return a, nil
}

func tokenParam(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(r.URL.Query().Get("token"))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

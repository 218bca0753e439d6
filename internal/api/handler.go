package api

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gyaneshwarpardhi/casegraph/internal/config"
	"github.com/gyaneshwarpardhi/casegraph/internal/export"
	"github.com/gyaneshwarpardhi/casegraph/internal/fetch"
	"github.com/gyaneshwarpardhi/casegraph/internal/mutator"
	"github.com/gyaneshwarpardhi/casegraph/internal/search"
	"github.com/gyaneshwarpardhi/casegraph/internal/session"
	"github.com/gyaneshwarpardhi/casegraph/internal/visible"
)

// limitNotice is shown when a pull-in was truncated.
const limitNotice = "pull-in limit reached; pull in again to show more neighbours"

// Handler holds all HTTP handler dependencies.
type Handler struct {
	sessions *session.Manager
	fetcher  session.Fetcher
	loader   *config.Loader
	mux      *http.ServeMux
}

// New creates an HTTP handler and registers all routes.
func New(sessions *session.Manager, fetcher session.Fetcher, loader *config.Loader) http.Handler {
	h := &Handler{sessions: sessions, fetcher: fetcher, loader: loader, mux: http.NewServeMux()}

	h.mux.HandleFunc("POST /v1/sessions", h.createSession)
	h.mux.HandleFunc("GET /v1/sessions/{id}", h.getSession)
	h.mux.HandleFunc("DELETE /v1/sessions/{id}", h.deleteSession)
	h.mux.HandleFunc("POST /v1/sessions/{id}/reload", h.reloadSession)
	h.mux.HandleFunc("POST /v1/sessions/{id}/actions", h.dispatch)
	h.mux.HandleFunc("POST /v1/sessions/{id}/undo", h.undo)
	h.mux.HandleFunc("POST /v1/sessions/{id}/redo", h.redo)
	h.mux.HandleFunc("POST /v1/sessions/{id}/jump", h.jump)
	h.mux.HandleFunc("POST /v1/sessions/{id}/selection", h.selection)
	h.mux.HandleFunc("POST /v1/sessions/{id}/reveal", h.reveal)
	h.mux.HandleFunc("POST /v1/sessions/{id}/types", h.toggleType)
	h.mux.HandleFunc("GET /v1/sessions/{id}/search", h.searchNodes)
	h.mux.HandleFunc("GET /v1/sessions/{id}/export", h.exportView)
	h.mux.HandleFunc("GET /v1/mutators", h.listMutators)
	h.mux.HandleFunc("GET /v1/config", h.getConfig)
	h.mux.HandleFunc("POST /v1/config/reload", h.reloadConfig)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(h.mux)
}

type transitionResponse struct {
	Transition session.Transition `json:"transition"`
	Notice     string             `json:"notice,omitempty"`
	View       session.View       `json:"view"`
}

type historyResponse struct {
	Changed bool         `json:"changed"`
	View    session.View `json:"view"`
}

// lookup resolves the {id} path value, writing a 404 when it is unknown.
func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := h.sessions.Get(r.PathValue("id"))
	if err != nil {
		writeErr(w, http.StatusNotFound, err)
		return nil, false
	}
	return s, true
}

// POST /v1/sessions: open a session and load its case.
func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	s, err := h.sessions.Create(req.CaseID)
	if err != nil {
		writeErr(w, http.StatusTooManyRequests, err)
		return
	}
	if err := s.LoadFrom(r.Context(), h.fetcher); err != nil {
		_ = h.sessions.Delete(s.ID())
		writeErr(w, loadStatus(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, s.View())
}

// GET /v1/sessions/{id}
func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

// DELETE /v1/sessions/{id}: close the view; loads in flight are discarded.
func (h *Handler) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(r.PathValue("id")); err != nil {
		writeErr(w, http.StatusNotFound, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /v1/sessions/{id}/reload: re-fetch the case graph and reseed the view.
func (h *Handler) reloadSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := s.LoadFrom(r.Context(), h.fetcher); err != nil {
		writeErr(w, loadStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

func loadStatus(err error) int {
	switch {
	case errors.Is(err, fetch.ErrCaseNotFound):
		return http.StatusNotFound
	case errors.Is(err, fetch.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, session.ErrStaleLoad):
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

// POST /v1/sessions/{id}/actions: apply one visible-graph action.
func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var cmd visible.Command
	if err := decode(r, &cmd); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	a, err := cmd.Action()
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	tr, err := s.Dispatch(a)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, mutator.ErrUnknown) {
			status = http.StatusUnprocessableEntity
		}
		writeErr(w, status, err)
		return
	}
	h.writeTransition(w, s, tr)
}

func (h *Handler) writeTransition(w http.ResponseWriter, s *session.Session, tr session.Transition) {
	resp := transitionResponse{Transition: tr, View: s.View()}
	if tr.LimitReached {
		resp.Notice = limitNotice
	}
	writeJSON(w, http.StatusOK, resp)
}

// POST /v1/sessions/{id}/undo
func (h *Handler) undo(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	changed := s.Undo()
	writeJSON(w, http.StatusOK, historyResponse{Changed: changed, View: s.View()})
}

// POST /v1/sessions/{id}/redo
func (h *Handler) redo(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	changed := s.Redo()
	writeJSON(w, http.StatusOK, historyResponse{Changed: changed, View: s.View()})
}

// POST /v1/sessions/{id}/jump: return to a recorded view; 0 is the oldest.
func (h *Handler) jump(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var req jumpRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	if !s.JumpToPast(*req.Index) {
		writeError(w, http.StatusUnprocessableEntity, "index "+strconv.Itoa(*req.Index)+" is outside the recorded history")
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{Changed: true, View: s.View()})
}

// POST /v1/sessions/{id}/selection: select or clear a node or edge.
func (h *Handler) selection(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var req selectionRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	if req.Target == "node" {
		s.SelectNode(req.ID)
	} else {
		s.SelectEdge(req.ID)
	}
	writeJSON(w, http.StatusOK, s.View())
}

// POST /v1/sessions/{id}/reveal: show and select a node, e.g. a search hit.
func (h *Handler) reveal(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var req revealRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	tr, err := s.Reveal(*req.Node)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	h.writeTransition(w, s, tr)
}

// POST /v1/sessions/{id}/types: toggle one node or edge type.
func (h *Handler) toggleType(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var req toggleTypeRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	var (
		tr  session.Transition
		err error
	)
	if req.Target == "node" {
		tr, err = s.ToggleNodeType(req.Type, req.Visible)
	} else {
		tr, err = s.ToggleEdgeType(req.Type, req.Visible)
	}
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	h.writeTransition(w, s, tr)
}

// GET /v1/sessions/{id}/search?q=: search every node of the case.
func (h *Handler) searchNodes(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	groups := search.Nodes(s.Graph().Nodes(), r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total":  search.Count(groups),
		"groups": groups,
	})
}

// GET /v1/sessions/{id}/export?style=markdown|jira: tables of the visible view.
func (h *Handler) exportView(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	style, err := export.ParseStyle(r.URL.Query().Get("style"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	st := s.State()
	var buf bytes.Buffer
	if err := export.Write(&buf, style, st.Nodes, st.Edges); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// GET /v1/mutators: registered traversal names and descriptions, plus the
// action kinds accepted by /actions.
func (h *Handler) listMutators(w http.ResponseWriter, r *http.Request) {
	reg := h.sessions.Engine().Mutators()
	type entry struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	desc := reg.Describe()
	out := make([]entry, 0, len(desc))
	for _, name := range reg.Names() {
		out = append(out, entry{Name: name, Description: desc[name]})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"mutators": out,
		"actions":  visible.Kinds,
	})
}

// GET /v1/config: the running configuration.
func (h *Handler) getConfig(w http.ResponseWriter, r *http.Request) {
	cfg := h.loader.Config()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"version":  cfg.Version,
		"upstream": cfg.Upstream,
		"view":     cfg.View,
	})
}

// POST /v1/config/reload: re-read the config file now.
func (h *Handler) reloadConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.loader.Reload()
	if err != nil {
		writeErr(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reloaded": true,
		"version":  cfg.Version,
	})
}

// GET /healthz: always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz: 503 once more than 80% of the session slots are taken.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	open := h.sessions.Len()
	limit := h.loader.Config().Server.MaxSessions
	util := 0.0
	if limit > 0 {
		util = float64(open) / float64(limit)
	}
	status, code := "ready", http.StatusOK
	if util > 0.8 {
		status, code = "overloaded", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]interface{}{
		"status":              status,
		"sessions":            open,
		"session_utilization": util,
	})
}

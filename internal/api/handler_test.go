package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/casegraph/internal/api"
	"github.com/gyaneshwarpardhi/casegraph/internal/config"
	"github.com/gyaneshwarpardhi/casegraph/internal/fetch"
	"github.com/gyaneshwarpardhi/casegraph/internal/mutator"
	"github.com/gyaneshwarpardhi/casegraph/internal/session"
	"github.com/gyaneshwarpardhi/casegraph/internal/visible"
)

const caseDocument = `{
  "nodes": [
    {"id": 1, "_node_type": "Alert", "_display": "Beacon", "_color": "#f00", "properties": {"alert_name": "Beacon"}},
    {"id": 2, "_node_type": "Host", "_display": "ws-17", "properties": {"hostname": "ws-17"}},
    {"id": 3, "_node_type": "File", "_display": "payload.dll", "properties": {"file_name": "payload.dll"}}
  ],
  "links": [
    {"id": 10, "source": 1, "target": 2, "type": "Triggered", "properties": {"data": [{"timestamp": 1600000000}]}},
    {"id": 11, "source": 2, "target": 3, "type": "Wrote", "properties": {"data": [{"timestamp": 1600000100, "bytes": 512}]}}
  ]
}`

type nodeBody struct {
	ID int64 `json:"id"`
}

type viewBody struct {
	SessionID    string     `json:"session_id"`
	CaseID       string     `json:"case_id"`
	VisibleNodes []nodeBody `json:"visible_nodes"`
	SelectedNode *nodeBody  `json:"selected_node"`
	UndoDepth    int        `json:"undo_depth"`
	RedoDepth    int        `json:"redo_depth"`
}

func (v viewBody) ids() []int64 {
	out := make([]int64, 0, len(v.VisibleNodes))
	for _, n := range v.VisibleNodes {
		out = append(out, n.ID)
	}
	return out
}

type harness struct {
	t       *testing.T
	handler http.Handler
	manager *session.Manager
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/graph/42" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(caseDocument))
	}))
	t.Cleanup(upstream.Close)

	path := filepath.Join(t.TempDir(), "casegraph.yaml")
	body := "version: '1'\nserver:\n  max_sessions: 4\nupstream:\n  base_url: " + upstream.URL + "\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	loader, err := config.NewLoader(path)
	require.NoError(t, err)

	client, err := fetch.New(fetch.Options{BaseURL: upstream.URL})
	require.NoError(t, err)

	mgr := session.NewManager(visible.NewEngine(mutator.Default()), session.DefaultOptions())
	mgr.SetMaxSessions(loader.Config().Server.MaxSessions)
	return &harness{t: t, handler: api.New(mgr, client, loader), manager: mgr}
}

func (h *harness) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

func (h *harness) open() viewBody {
	h.t.Helper()
	rec := h.do(http.MethodPost, "/v1/sessions", map[string]string{"case_id": "42"})
	require.Equal(h.t, http.StatusCreated, rec.Code, rec.Body.String())
	var v viewBody
	decodeBody(h.t, rec, &v)
	return v
}

func TestCreateSessionSeedsView(t *testing.T) {
	h := newHarness(t)
	v := h.open()

	assert.NotEmpty(t, v.SessionID)
	assert.Equal(t, "42", v.CaseID)
	assert.Equal(t, []int64{1, 2}, v.ids())
	assert.Equal(t, 0, v.UndoDepth)
	assert.Equal(t, 1, h.manager.Len())
}

func TestCreateSessionErrors(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodPost, "/v1/sessions", map[string]string{"case_id": "missing"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 0, h.manager.Len(), "a failed load closes the session")

	rec = h.do(http.MethodPost, "/v1/sessions", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "case_id is required")

	rec = h.do(http.MethodPost, "/v1/sessions", map[string]string{"case_id": "42", "extra": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestActionsAndHistory(t *testing.T) {
	h := newHarness(t)
	v := h.open()
	base := "/v1/sessions/" + v.SessionID

	rec := h.do(http.MethodPost, base+"/actions", map[string]interface{}{"kind": "pull_in_neighbors", "node": 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Transition session.Transition `json:"transition"`
		Notice     string             `json:"notice"`
		View       viewBody           `json:"view"`
	}
	decodeBody(t, rec, &resp)
	assert.Equal(t, []int64{3}, resp.Transition.Added)
	assert.Empty(t, resp.Notice)
	assert.Equal(t, []int64{1, 2, 3}, resp.View.ids())
	assert.Equal(t, 1, resp.View.UndoDepth)

	rec = h.do(http.MethodPost, base+"/undo", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var hist struct {
		Changed bool     `json:"changed"`
		View    viewBody `json:"view"`
	}
	decodeBody(t, rec, &hist)
	assert.True(t, hist.Changed)
	assert.Equal(t, []int64{1, 2}, hist.View.ids())

	rec = h.do(http.MethodPost, base+"/undo", nil)
	decodeBody(t, rec, &hist)
	assert.False(t, hist.Changed, "the initial load is not undoable")

	rec = h.do(http.MethodPost, base+"/redo", nil)
	decodeBody(t, rec, &hist)
	assert.True(t, hist.Changed)
	assert.Equal(t, []int64{1, 2, 3}, hist.View.ids())

	rec = h.do(http.MethodPost, base+"/jump", map[string]int{"index": 5})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	rec = h.do(http.MethodPost, base+"/jump", map[string]int{"index": 0})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &hist)
	assert.Equal(t, []int64{1, 2}, hist.View.ids())
}

func TestActionValidation(t *testing.T) {
	h := newHarness(t)
	base := "/v1/sessions/" + h.open().SessionID

	rec := h.do(http.MethodPost, base+"/actions", map[string]interface{}{"kind": "teleport", "node": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodPost, base+"/actions", map[string]interface{}{"kind": "hide_node"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodPost, base+"/actions", map[string]interface{}{"kind": "run_mutator_from_node", "node": 1, "mutator": "sideways"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = h.do(http.MethodPost, base+"/actions", map[string]interface{}{"kind": "run_mutator_from_node", "node": 1, "mutator": mutator.NameForwardTravel})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"added":[3]`)
}

func TestSelectionRevealAndTypes(t *testing.T) {
	h := newHarness(t)
	base := "/v1/sessions/" + h.open().SessionID

	rec := h.do(http.MethodPost, base+"/selection", map[string]interface{}{"target": "node", "id": 2})
	require.Equal(t, http.StatusOK, rec.Code)
	var v viewBody
	decodeBody(t, rec, &v)
	require.NotNil(t, v.SelectedNode)
	assert.Equal(t, int64(2), v.SelectedNode.ID)

	rec = h.do(http.MethodPost, base+"/selection", map[string]interface{}{"target": "vertex", "id": 2})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "target must be one of")

	rec = h.do(http.MethodPost, base+"/reveal", map[string]interface{}{"node": 3})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		View viewBody `json:"view"`
	}
	decodeBody(t, rec, &resp)
	assert.Equal(t, []int64{3, 1, 2}, resp.View.ids())
	require.NotNil(t, resp.View.SelectedNode)
	assert.Equal(t, int64(3), resp.View.SelectedNode.ID)

	rec = h.do(http.MethodPost, base+"/types", map[string]interface{}{"target": "node", "type": "Alert", "visible": false})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &resp)
	assert.Equal(t, []int64{3, 2}, resp.View.ids())
}

func TestSearchAndExport(t *testing.T) {
	h := newHarness(t)
	base := "/v1/sessions/" + h.open().SessionID

	rec := h.do(http.MethodGet, base+"/search?q=PAYLOAD", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var found struct {
		Total  int `json:"total"`
		Groups []struct {
			NodeType string     `json:"node_type"`
			Results  []nodeBody `json:"results"`
		} `json:"groups"`
	}
	decodeBody(t, rec, &found)
	assert.Equal(t, 1, found.Total)
	require.Len(t, found.Groups, 1)
	assert.Equal(t, "File", found.Groups[0].NodeType)

	rec = h.do(http.MethodGet, base+"/export?style=jira", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	out := rec.Body.String()
	assert.True(t, strings.HasPrefix(out, "h3. Alert\n"))
	assert.Contains(t, out, "|Beacon|ws-17|Triggered|{}|2020-09-13T12:26:40.000Z|")

	rec = h.do(http.MethodGet, base+"/export?style=pdf", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteSession(t *testing.T) {
	h := newHarness(t)
	base := "/v1/sessions/" + h.open().SessionID

	assert.Equal(t, http.StatusNoContent, h.do(http.MethodDelete, base, nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, base, nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodDelete, base, nil).Code)
}

func TestServiceEndpoints(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/v1/mutators", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), mutator.NameBackwardTravel)
	var listing struct {
		Actions []string `json:"actions"`
	}
	decodeBody(t, rec, &listing)
	assert.Len(t, listing.Actions, 8)
	assert.Contains(t, listing.Actions, "run_mutator_from_node")

	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/healthz", nil).Code)
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/readyz", nil).Code)

	rec = h.do(http.MethodGet, "/v1/config", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"version":"1"`)

	for i := 0; i < 4; i++ {
		h.open()
	}
	assert.Equal(t, http.StatusServiceUnavailable, h.do(http.MethodGet, "/readyz", nil).Code)
	rec = h.do(http.MethodPost, "/v1/sessions", map[string]string{"case_id": "42"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

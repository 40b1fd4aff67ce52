package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/railgen/pkg/buildinfo"
	"github.com/matzehuels/railgen/pkg/cache"
	"github.com/matzehuels/railgen/pkg/httputil"
	mapio "github.com/matzehuels/railgen/pkg/io"
	"github.com/matzehuels/railgen/pkg/observability"
	"github.com/matzehuels/railgen/pkg/pipeline"
	"github.com/matzehuels/railgen/pkg/store"
)

const createBody = `{"width":40,"height":40,"max_cities":4,"max_rail_pairs_in_city":1,"grid_mode":true,"seed":42}`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := log.New(io.Discard)
	runner := pipeline.NewRunner(cache.NewNullCache(), nil, logger)
	return New(runner, store.NewMemoryStore(), logger)
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func createMap(t *testing.T, s *Server) CreateResponse {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/maps", createBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp CreateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.ID)
	assert.Equal(t, "/maps/"+resp.ID, rec.Header().Get("Location"))
	return resp
}

func problem(t *testing.T, rec *httptest.ResponseRecorder) httputil.Problem {
	t.Helper()
	var p httputil.Problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	return p
}

func TestHealthz(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var h Health
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &h))
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, buildinfo.Get(), h.Info)
}

func TestCreateAndGetMap(t *testing.T) {
	s := newTestServer(t)
	resp := createMap(t, s)
	assert.False(t, resp.Cached)
	assert.Equal(t, 4, resp.Report.RequestedCities)
	assert.NotEmpty(t, resp.Links)

	rec := do(t, s, http.MethodGet, "/maps/"+resp.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	m, err := mapio.Unmarshal(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 40, m.Grid.Width())
	assert.Equal(t, resp.Report, m.Report)
}

func TestListMaps(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/maps", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	resp := createMap(t, s)
	rec = do(t, s, http.MethodGet, "/maps", "")
	var summaries []store.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, resp.ID, summaries[0].ID)
	assert.Equal(t, uint64(42), summaries[0].Seed)
}

func TestCreateMapSeedZero(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/maps", `{"width":40,"height":40,"max_cities":4,"seed":0}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, s, http.MethodGet, "/maps", "")
	var summaries []store.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, uint64(0), summaries[0].Seed)
}

func TestCreateMapRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
	}{
		{"too wide", `{"width":1000}`, "INVALID_INPUT"},
		{"too many cities", `{"max_cities":500}`, "INVALID_INPUT"},
		{"too many rail pairs", `{"max_rail_pairs_in_city":9223372036854775805}`, "INVALID_INPUT"},
		{"too many corridor rails", `{"max_rails_between_cities":100000}`, "INVALID_INPUT"},
		{"bad format", `{"formats":["bmp"]}`, "INVALID_FORMAT"},
		{"unknown field", `{"colour":"red"}`, "INVALID_INPUT"},
		{"not json", `width=40`, "INVALID_INPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newTestServer(t), http.MethodPost, "/maps", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.code, string(problem(t, rec).Code))
		})
	}
}

func TestRenderMap(t *testing.T) {
	s := newTestServer(t)
	id := createMap(t, s).ID

	rec := do(t, s, http.MethodGet, "/maps/"+id+"/render/svg?stations=true&cell_size=8", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Contains(t, rec.Body.String(), "<svg")

	rec = do(t, s, http.MethodGet, "/maps/"+id+"/render/txt", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Len(t, strings.Split(strings.TrimRight(rec.Body.String(), "\n"), "\n"), 40)
}

func TestRenderMapErrors(t *testing.T) {
	s := newTestServer(t)
	id := createMap(t, s).ID

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"unknown format", "/maps/" + id + "/render/bmp", http.StatusBadRequest},
		{"bad bool", "/maps/" + id + "/render/svg?grid=maybe", http.StatusBadRequest},
		{"bad cell size", "/maps/" + id + "/render/svg?cell_size=0", http.StatusBadRequest},
		{"missing map", "/maps/00000000-0000-0000-0000-000000000000/render/svg", http.StatusNotFound},
		{"invalid id", "/maps/ZZZ/render/svg", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, tt.path, "")
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestScheduleMap(t *testing.T) {
	s := newTestServer(t)
	id := createMap(t, s).ID

	rec := do(t, s, http.MethodPost, "/maps/"+id+"/schedule", `{"agents":3}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var sched struct {
		Line struct {
			Positions []json.RawMessage `json:"positions"`
		} `json:"line"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sched))
	assert.Len(t, sched.Line.Positions, 3)

	rec = do(t, s, http.MethodPost, "/maps/"+id+"/schedule", `{"agents":-1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/maps/"+id+"/schedule", `{"malfunction":"meteor"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteMap(t *testing.T) {
	s := newTestServer(t)
	id := createMap(t, s).ID

	rec := do(t, s, http.MethodDelete, "/maps/"+id, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodGet, "/maps/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "MAP_NOT_FOUND", string(problem(t, rec).Code))

	rec = do(t, s, http.MethodDelete, "/maps/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// recordingHooks captures HTTP hook calls.
type recordingHooks struct {
	mu        sync.Mutex
	requests  []string
	responses []string
	statuses  []int
}

func (h *recordingHooks) OnRequest(_ context.Context, method, path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.requests = append(h.requests, method+" "+path)
}

func (h *recordingHooks) OnResponse(_ context.Context, method, route string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.responses = append(h.responses, method+" "+route)
	h.statuses = append(h.statuses, status)
}

func TestHTTPHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetHTTPHooks(hooks)
	t.Cleanup(observability.Reset)

	s := newTestServer(t)
	do(t, s, http.MethodGet, "/healthz", "")
	do(t, s, http.MethodGet, "/maps/ZZZ", "")

	assert.Equal(t, []string{"GET /healthz", "GET /maps/ZZZ"}, hooks.requests)
	assert.Equal(t, []string{"GET /healthz", "GET /maps/{id}"}, hooks.responses)
	assert.Equal(t, []int{http.StatusOK, http.StatusBadRequest}, hooks.statuses)
}

func TestCreateMapBodyLimit(t *testing.T) {
	s := newTestServer(t)
	body := bytes.Repeat([]byte(" "), httputil.MaxBodyBytes+10)
	req := httptest.NewRequest(http.MethodPost, "/maps", bytes.NewReader(append(body, []byte(createBody)...)))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func readEvent(t *testing.T, ctx context.Context, conn *websocket.Conn) Event {
	t.Helper()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var ev Event
	require.NoError(t, json.Unmarshal(data, &ev))
	return ev
}

func TestEventsStream(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/events", nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	assert.Equal(t, EventHello, readEvent(t, ctx, conn).Type)

	resp, err := http.Post(ts.URL+"/maps", "application/json", strings.NewReader(createBody))
	require.NoError(t, err)
	var created CreateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()

	ev := readEvent(t, ctx, conn)
	assert.Equal(t, EventMapCreated, ev.Type)
	assert.Equal(t, created.ID, ev.ID)
	require.NotNil(t, ev.Report)
	assert.Equal(t, created.Report, *ev.Report)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/maps/"+created.ID, nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	ev = readEvent(t, ctx, conn)
	assert.Equal(t, EventMapDeleted, ev.Type)
	assert.Equal(t, created.ID, ev.ID)
}

func TestHubCloseAll(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/events", nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")
	readEvent(t, ctx, conn)

	s.hub.closeAll()

	_, _, err = conn.Read(ctx)
	assert.Equal(t, websocket.StatusGoingAway, websocket.CloseStatus(err))
}

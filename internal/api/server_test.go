package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/annel0/worldsim/internal/auth"
	"github.com/annel0/worldsim/internal/game"
	"github.com/annel0/worldsim/internal/logging"
	"github.com/annel0/worldsim/internal/vec"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWorld struct {
	mu        sync.Mutex
	announced []string
}

func (w *fakeWorld) Stats() game.Snapshot {
	return game.Snapshot{Online: 2, Creatures: 7, Light: 250}
}

func (w *fakeWorld) OnlinePlayers() []game.PlayerInfo {
	return []game.PlayerInfo{
		{ID: 1, Name: "Eldrin", Location: vec.Location{X: 100, Y: 100, Z: 7}},
		{ID: 2, Name: "Mira", Location: vec.Location{X: 101, Y: 100, Z: 7}},
	}
}

func (w *fakeWorld) Broadcast(_ context.Context, author, text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.announced = append(w.announced, author+": "+text)
	return true
}

type harness struct {
	srv   *Server
	world *fakeWorld
	reg   *prometheus.Registry
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	adminHash, err := auth.HashPassword("keeper-pw")
	require.NoError(t, err)
	watchHash, err := auth.HashPassword("watch-pw")
	require.NoError(t, err)

	ops, err := auth.NewMemoryOperatorRepo([]auth.OperatorSeed{
		{Username: "keeper", PasswordHash: adminHash, Admin: true},
		{Username: "watcher", PasswordHash: watchHash},
	})
	require.NoError(t, err)
	tokens, err := auth.NewTokenIssuer("", "worldsim-test", time.Hour)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	world := &fakeWorld{}
	srv, err := New(Config{
		World:      world,
		Operators:  ops,
		Tokens:     tokens,
		Logger:     logging.NewDiscardLogger(),
		Registerer: reg,
		Gatherer:   reg,
	})
	require.NoError(t, err)
	return &harness{srv: srv, world: world, reg: reg}
}

func (h *harness) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func (h *harness) login(t *testing.T, user, pw string) string {
	t.Helper()
	rec := h.do(http.MethodPost, "/api/auth/login", "", LoginRequest{Username: user, Password: pw})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	return resp.Token
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestLogin_WrongPassword(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodPost, "/api/auth/login", "", LoginRequest{Username: "keeper", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(http.MethodPost, "/api/auth/login", "", map[string]string{"username": "keeper"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/api/status", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/api/players", "garbage", nil).Code)

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := httptest.NewRecorder()
	h.srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStatusAndPlayers(t *testing.T) {
	h := newHarness(t)
	token := h.login(t, "watcher", "watch-pw")

	rec := h.do(http.MethodGet, "/api/status", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var status struct {
		Data struct {
			World game.Snapshot `json:"world"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, 2, status.Data.World.Online)
	assert.Equal(t, 7, status.Data.World.Creatures)

	rec = h.do(http.MethodGet, "/api/players", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var players struct {
		Data []game.PlayerInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &players))
	require.Len(t, players.Data, 2)
	assert.Equal(t, "Eldrin", players.Data[0].Name)
}

func TestBroadcast_AdminOnly(t *testing.T) {
	h := newHarness(t)

	watcher := h.login(t, "watcher", "watch-pw")
	rec := h.do(http.MethodPost, "/api/admin/broadcast", watcher, BroadcastRequest{Text: "hello"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	keeper := h.login(t, "keeper", "keeper-pw")
	rec = h.do(http.MethodPost, "/api/admin/broadcast", keeper, BroadcastRequest{Text: "Server save in 5 minutes."})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"keeper: Server save in 5 minutes."}, h.world.announced)

	rec = h.do(http.MethodPost, "/api/admin/broadcast", keeper, BroadcastRequest{Text: "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodPost, "/api/admin/broadcast", keeper, BroadcastRequest{Text: strings.Repeat("a", maxBroadcastText+1)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t)
	h.do(http.MethodGet, "/health", "", nil)
	h.do(http.MethodGet, "/api/status", "", nil)

	rec := h.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "admin_api_http_request_duration_seconds")
	assert.Contains(t, body, `admin_api_http_request_errors_total{method="GET",path="/api/status",status="401"} 1`)
}

func TestFormatUptime(t *testing.T) {
	assert.Equal(t, "5с", formatUptime(5*time.Second))
	assert.Equal(t, "2м 5с", formatUptime(2*time.Minute+5*time.Second))
	assert.Equal(t, "1ч 0м 0с", formatUptime(time.Hour))
	assert.Equal(t, "1д 2ч 3м 4с", formatUptime(26*time.Hour+3*time.Minute+4*time.Second))
}

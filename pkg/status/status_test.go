package status

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v5"

	"interbot/pkg/bus"
	"interbot/pkg/config"
	"interbot/pkg/cron"
	"interbot/pkg/logger"
	"interbot/pkg/slash"
)

const testSecret = "status-test-secret"

type fakeSession struct{}

func (fakeSession) Latency() time.Duration { return 42 * time.Millisecond }
func (fakeSession) GuildCount() int        { return 3 }

type fakeJobs struct{ jobs []cron.Job }

func (f fakeJobs) Jobs() []cron.Job { return f.jobs }

func newTestServer(deps Deps) *Server {
	cfg := config.StatusConfig{Host: "127.0.0.1", Port: 0, JWTSecret: testSecret}
	log := logger.NewNop()
	return NewServer(cfg, log, NewHub(log), deps)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("unmarshal payload failed: %v (body %q)", err, rec.Body.String())
	}
}

func TestHandleStatus_ReturnsRuntimeAndSessionFields(t *testing.T) {
	s := newTestServer(Deps{Session: fakeSession{}})
	s.startedAt = time.Now().Add(-3 * time.Second)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := s.handleStatus(c); err != nil {
		t.Fatalf("handleStatus failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var payload map[string]interface{}
	decode(t, rec, &payload)

	required := []string{
		"version", "commit", "build_time", "os", "arch", "go_version", "pid",
		"uptime", "uptime_seconds", "memory_alloc_bytes", "memory_sys_bytes",
		"guilds", "latency_ms", "feed_clients",
	}
	for _, key := range required {
		if _, ok := payload[key]; !ok {
			t.Fatalf("expected key %q in status payload", key)
		}
	}
	if payload["guilds"].(float64) != 3 {
		t.Fatalf("expected 3 guilds, got %v", payload["guilds"])
	}
	if payload["latency_ms"].(float64) != 42 {
		t.Fatalf("expected latency 42ms, got %v", payload["latency_ms"])
	}
	if payload["uptime_seconds"].(float64) < 3 {
		t.Fatalf("expected uptime >= 3s, got %v", payload["uptime_seconds"])
	}
	if _, ok := payload["command_count"]; ok {
		t.Fatalf("command_count should be omitted without a registry")
	}
}

func TestHandleStats_ReturnsSnapshot(t *testing.T) {
	stats := slash.NewStats()
	stats.Record("ping", slash.OutcomeCompleted)
	stats.Record("ping", slash.OutcomeFailed)
	s := newTestServer(Deps{Stats: stats})

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/stats", nil), rec)
	if err := s.handleStats(c); err != nil {
		t.Fatalf("handleStats failed: %v", err)
	}

	var snap slash.StatsSnapshot
	decode(t, rec, &snap)
	if snap.Total != 2 {
		t.Fatalf("expected total 2, got %d", snap.Total)
	}
	if snap.Commands["ping"] != 2 || snap.Failures["ping"] != 1 {
		t.Fatalf("unexpected per-command counts: %+v", snap)
	}
}

func TestHandleStats_WithoutStats(t *testing.T) {
	s := newTestServer(Deps{})
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/stats", nil), rec)
	if err := s.handleStats(c); err != nil {
		t.Fatalf("handleStats failed: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHandleJobsAndMetrics(t *testing.T) {
	next := time.Now().Add(time.Minute).Truncate(time.Second)
	s := newTestServer(Deps{
		Jobs: fakeJobs{jobs: []cron.Job{{Name: "stats-snapshot", Schedule: "@every 5m", NextRun: next}}},
		Metrics: map[string]MetricsSource{
			"workers": func() map[string]uint64 { return map[string]uint64{"submitted": 7} },
			"bus":     func() map[string]uint64 { return map[string]uint64{"published": 2} },
		},
	})
	e := echo.New()

	rec := httptest.NewRecorder()
	if err := s.handleJobs(e.NewContext(httptest.NewRequest(http.MethodGet, "/api/jobs", nil), rec)); err != nil {
		t.Fatalf("handleJobs failed: %v", err)
	}
	var jobs []cron.Job
	decode(t, rec, &jobs)
	if len(jobs) != 1 || jobs[0].Name != "stats-snapshot" || !jobs[0].NextRun.Equal(next) {
		t.Fatalf("unexpected jobs: %+v", jobs)
	}

	rec = httptest.NewRecorder()
	if err := s.handleMetrics(e.NewContext(httptest.NewRequest(http.MethodGet, "/api/metrics", nil), rec)); err != nil {
		t.Fatalf("handleMetrics failed: %v", err)
	}
	var metrics map[string]map[string]uint64
	decode(t, rec, &metrics)
	if metrics["workers"]["submitted"] != 7 || metrics["bus"]["published"] != 2 {
		t.Fatalf("unexpected metrics: %+v", metrics)
	}
}

func TestHandleCommands_WithoutRegistry(t *testing.T) {
	s := newTestServer(Deps{})
	e := echo.New()
	rec := httptest.NewRecorder()
	if err := s.handleCommands(e.NewContext(httptest.NewRequest(http.MethodGet, "/api/commands", nil), rec)); err != nil {
		t.Fatalf("handleCommands failed: %v", err)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("expected empty list, got %q", rec.Body.String())
	}
}

func TestAPI_RequiresToken(t *testing.T) {
	s := newTestServer(Deps{Session: fakeSession{}})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	if rec.Code == http.StatusOK {
		t.Fatalf("expected unauthenticated request to be rejected")
	}

	token, err := IssueToken(testSecret, "operator", time.Minute)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d: %s", rec.Code, rec.Body.String())
	}

	other, err := IssueToken("another-secret", "operator", time.Minute)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("Authorization", "Bearer "+other)
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for foreign token, got %d", rec.Code)
	}
}

func TestHealthz_IsPublic(t *testing.T) {
	s := newTestServer(Deps{})
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestTokens(t *testing.T) {
	token, err := IssueToken(testSecret, "operator", time.Minute)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	sub, err := ParseSubject(testSecret, token)
	if err != nil || sub != "operator" {
		t.Fatalf("ParseSubject = %q, %v", sub, err)
	}
	if _, err := ParseSubject("wrong", token); err == nil {
		t.Fatalf("expected wrong secret to fail")
	}

	expired, err := IssueToken(testSecret, "operator", -time.Minute)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	if _, err := ParseSubject(testSecret, expired); err == nil {
		t.Fatalf("expected expired token to fail")
	}

	if _, err := IssueToken("", "operator", time.Minute); err == nil {
		t.Fatalf("expected empty secret to fail")
	}
	if _, err := IssueToken(testSecret, " ", time.Minute); err == nil {
		t.Fatalf("expected empty subject to fail")
	}
}

func TestFailureFeed_StreamsBusMessages(t *testing.T) {
	s := newTestServer(Deps{})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/failures/ws"

	if _, resp, err := websocket.DefaultDialer.Dial(wsURL, nil); err == nil {
		t.Fatalf("expected dial without token to fail")
	} else if resp != nil && resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}

	token, err := IssueToken(testSecret, "operator", time.Minute)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+token, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var welcome FeedMessage
	if err := conn.ReadJSON(&welcome); err != nil {
		t.Fatalf("read welcome failed: %v", err)
	}
	if welcome.Type != "system" {
		t.Fatalf("expected system welcome, got %+v", welcome)
	}
	if s.hub.Clients() != 1 {
		t.Fatalf("expected 1 feed client, got %d", s.hub.Clients())
	}

	msg, err := bus.NewMessage(bus.TopicFailure, "test", map[string]string{"command": "ping"})
	if err != nil {
		t.Fatalf("NewMessage failed: %v", err)
	}
	if err := s.hub.HandleMessage(context.Background(), msg); err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}

	var frame FeedMessage
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read failure frame failed: %v", err)
	}
	if frame.Type != "failure" {
		t.Fatalf("expected failure frame, got %+v", frame)
	}
	var payload map[string]string
	if err := json.Unmarshal(frame.Payload, &payload); err != nil {
		t.Fatalf("payload decode failed: %v", err)
	}
	if payload["command"] != "ping" {
		t.Fatalf("unexpected payload: %v", payload)
	}
}

func TestHub_DropsForSlowClients(t *testing.T) {
	h := NewHub(logger.NewNop())
	c := &feedClient{send: make(chan []byte, 1)}
	h.register(c)

	h.broadcast([]byte("a"))
	h.broadcast([]byte("b"))

	if got := string(<-c.send); got != "a" {
		t.Fatalf("expected first frame, got %q", got)
	}
	if h.dropped != 1 {
		t.Fatalf("expected 1 dropped frame, got %d", h.dropped)
	}
	h.unregister(c)
	if h.Clients() != 0 {
		t.Fatalf("expected no clients after unregister")
	}
}

func TestHub_WelcomeQueuedBeforeBroadcasts(t *testing.T) {
	h := NewHub(logger.NewNop())
	c := newFeedClient(nil)
	h.register(c)

	// Flood more frames than the buffer holds; none of this may block.
	for i := 0; i < 64; i++ {
		h.broadcast([]byte("frame"))
	}

	var first FeedMessage
	if err := json.Unmarshal(<-c.send, &first); err != nil {
		t.Fatalf("decode first frame: %v", err)
	}
	if first.Type != "system" {
		t.Fatalf("expected welcome first, got %+v", first)
	}
	want := uint64(64 - (cap(c.send) - 1))
	if h.dropped != want {
		t.Fatalf("expected %d dropped frames, got %d", want, h.dropped)
	}
}

package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/robalobadob/emojiworld/apps/go-server/internal/auth"
	"github.com/robalobadob/emojiworld/apps/go-server/internal/chat"
	"github.com/robalobadob/emojiworld/apps/go-server/internal/presence"
	"github.com/robalobadob/emojiworld/apps/go-server/internal/stats"
	"github.com/robalobadob/emojiworld/apps/go-server/internal/store"
	"github.com/robalobadob/emojiworld/apps/go-server/internal/store/storetest"
)

const testSecret = "test_secret"

type testServer struct {
	srv   *Server
	store *storetest.Failing
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	st := storetest.NewFailing(store.NewMemoryStore())
	reg := presence.NewRegistry(st)
	log := chat.NewLog(st)
	srv := New(Deps{
		Players:       reg,
		Chat:          log,
		Stats:         stats.NewAggregator(reg, log, nil),
		Verifier:      auth.NewVerifier(testSecret, "emoji_token"),
		PlayerTimeout: 30 * time.Second,
		Version:       "test",
	})
	return &testServer{srv: srv, store: st}
}

func token(t *testing.T, id, name string) string {
	t.Helper()
	tok, _, err := auth.NewSigner(testSecret, time.Hour).Sign(id, name)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

// do sends a request and decodes the JSON response into a map.
func (ts *testServer) do(t *testing.T, method, path, body, tok string) (int, map[string]any) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	ts.srv.Handler().ServeHTTP(w, req)

	var resp map[string]any
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("%s %s: decode: %v", method, path, err)
	}
	return w.Code, resp
}

func TestPositionFlow(t *testing.T) {
	ts := newTestServer(t)
	body := `{"x":10,"y":20,"emoji":"🙂"}`

	code, _ := ts.do(t, http.MethodPost, "/api/player/position", body, "")
	if code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", code)
	}

	code, resp := ts.do(t, http.MethodPost, "/api/player/position", body, token(t, "u1", "Alice"))
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", code, resp)
	}
	pos, _ := resp["position"].(map[string]any)
	if resp["success"] != true || resp["playerId"] != "u1" || pos["x"] != float64(10) || pos["y"] != float64(20) {
		t.Fatalf("unexpected response %v", resp)
	}
	if resp["totalPlayers"] != float64(1) {
		t.Fatalf("expected totalPlayers 1, got %v", resp["totalPlayers"])
	}

	code, resp = ts.do(t, http.MethodGet, "/api/players", "", "")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	players, _ := resp["players"].([]any)
	if len(players) != 1 || resp["count"] != float64(1) {
		t.Fatalf("unexpected players %v", resp)
	}
	p := players[0].(map[string]any)
	if p["id"] != "u1" || p["x"] != float64(10) || p["y"] != float64(20) || p["name"] != "Alice" || p["emoji"] != "🙂" {
		t.Fatalf("unexpected player %v", p)
	}
}

func TestUnauthenticatedWritesNeverTouchStore(t *testing.T) {
	ts := newTestServer(t)
	for _, path := range []string{"/api/player/position", "/api/player/logout", "/api/chat"} {
		code, resp := ts.do(t, http.MethodPost, path, `{"x":1,"y":1,"emoji":"🙂","message":"hi"}`, "bogus")
		if code != http.StatusUnauthorized || resp["error"] != "unauthorized" {
			t.Fatalf("%s: expected 401, got %d %v", path, code, resp)
		}
	}
	if ts.store.GetCalls() != 0 || ts.store.SetCalls() != 0 {
		t.Fatalf("store touched by unauthenticated writes: gets=%d sets=%d", ts.store.GetCalls(), ts.store.SetCalls())
	}
}

func TestPositionInvalidInput(t *testing.T) {
	ts := newTestServer(t)
	tok := token(t, "u1", "Alice")
	for name, body := range map[string]string{
		"missing x":     `{"y":1,"emoji":"🙂"}`,
		"string x":      `{"x":"1","y":1,"emoji":"🙂"}`,
		"missing emoji": `{"x":1,"y":1}`,
		"unknown emoji": `{"x":1,"y":1,"emoji":"nope"}`,
		"bad json":      `{"x":`,
		"empty body":    ``,
		"trailing data": `{"x":1,"y":1,"emoji":"🙂"} trailing garbage`,
		"two objects":   `{"x":1,"y":1,"emoji":"🙂"}{"x":2}`,
	} {
		code, resp := ts.do(t, http.MethodPost, "/api/player/position", body, tok)
		if code != http.StatusBadRequest || resp["error"] != "invalid_input" {
			t.Fatalf("%s: expected 400 invalid_input, got %d %v", name, code, resp)
		}
	}
}

func TestPositionStoreFailure(t *testing.T) {
	ts := newTestServer(t)
	ts.store.FailSets(true)
	code, resp := ts.do(t, http.MethodPost, "/api/player/position", `{"x":1,"y":1,"emoji":"🙂"}`, token(t, "u1", "A"))
	if code != http.StatusInternalServerError || resp["error"] != "store_unavailable" {
		t.Fatalf("expected 500 store_unavailable, got %d %v", code, resp)
	}
	if strings.Contains(resp["error"].(string), "injected") {
		t.Fatalf("raw store error leaked: %v", resp)
	}
}

func TestPlayersDegradeOnStoreFailure(t *testing.T) {
	ts := newTestServer(t)
	ts.store.FailGets(true)
	code, resp := ts.do(t, http.MethodGet, "/api/players", "", "")
	if code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", code)
	}
	players, ok := resp["players"].([]any)
	if !ok || len(players) != 0 || resp["count"] != float64(0) {
		t.Fatalf("expected empty player list, got %v", resp)
	}
}

func TestLogoutTwice(t *testing.T) {
	ts := newTestServer(t)
	tok := token(t, "u1", "Alice")
	_, _ = ts.do(t, http.MethodPost, "/api/player/position", `{"x":1,"y":1,"emoji":"🙂"}`, tok)

	code, resp := ts.do(t, http.MethodPost, "/api/player/logout", "", tok)
	if code != http.StatusOK || resp["playerRemoved"] != true || resp["playerId"] != "u1" || resp["remainingPlayers"] != float64(0) {
		t.Fatalf("unexpected first logout %d %v", code, resp)
	}
	code, resp = ts.do(t, http.MethodPost, "/api/player/logout", "", tok)
	if code != http.StatusOK || resp["playerRemoved"] != false {
		t.Fatalf("unexpected second logout %d %v", code, resp)
	}
}

func TestChatFlow(t *testing.T) {
	ts := newTestServer(t)
	tok := token(t, "u1", "Alice")

	code, resp := ts.do(t, http.MethodPost, "/api/chat", `{"message":"   "}`, tok)
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank message, got %d %v", code, resp)
	}

	code, resp = ts.do(t, http.MethodPost, "/api/chat", `{"message":"`+strings.Repeat("x", 500)+`"}`, tok)
	if code != http.StatusOK || resp["success"] != true || resp["totalMessages"] != float64(1) {
		t.Fatalf("unexpected send response %d %v", code, resp)
	}
	m := resp["message"].(map[string]any)
	if len(m["message"].(string)) != 200 || m["playerName"] != "Alice" || m["playerId"] != "u1" {
		t.Fatalf("unexpected stored message %v", m)
	}

	for i := 0; i < 3; i++ {
		_, _ = ts.do(t, http.MethodPost, "/api/chat", `{"message":"hi"}`, tok)
	}
	code, resp = ts.do(t, http.MethodGet, "/api/chat?limit=2", "", "")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if msgs := resp["messages"].([]any); len(msgs) != 2 || resp["totalMessages"] != float64(4) {
		t.Fatalf("unexpected chat tail %v", resp)
	}
}

func TestChatLongBodyIsTruncated(t *testing.T) {
	ts := newTestServer(t)
	tok := token(t, "u1", "Alice")

	code, resp := ts.do(t, http.MethodPost, "/api/chat", `{"message":"`+strings.Repeat("y", 70000)+`"}`, tok)
	if code != http.StatusOK || resp["success"] != true {
		t.Fatalf("expected 200 for long message, got %d %v", code, resp)
	}
	if m := resp["message"].(map[string]any); len(m["message"].(string)) != 200 {
		t.Fatalf("expected message truncated to 200, got %d", len(m["message"].(string)))
	}
}

func TestOversizedBodyIsRejected(t *testing.T) {
	ts := newTestServer(t)
	tok := token(t, "u1", "Alice")

	code, resp := ts.do(t, http.MethodPost, "/api/chat", `{"message":"`+strings.Repeat("z", maxBodyBytes+1)+`"}`, tok)
	if code != http.StatusRequestEntityTooLarge || resp["error"] != "payload_too_large" {
		t.Fatalf("expected 413 payload_too_large, got %d %v", code, resp)
	}
	if got := ts.store.SetCalls(); got != 0 {
		t.Fatalf("expected no store writes, got %d", got)
	}
}

func TestChatListDegradesOnStoreFailure(t *testing.T) {
	ts := newTestServer(t)
	ts.store.FailGets(true)
	code, resp := ts.do(t, http.MethodGet, "/api/chat", "", "")
	if code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", code)
	}
	if msgs, ok := resp["messages"].([]any); !ok || len(msgs) != 0 {
		t.Fatalf("expected empty messages, got %v", resp)
	}
}

func TestCleanupEndpoint(t *testing.T) {
	st := store.NewMemoryStore()
	old := time.Now().Add(-time.Hour)
	stale := presence.NewRegistry(st, presence.WithClock(func() time.Time { return old }))
	_, _, _ = stale.Upsert(context.Background(), "idle", "Idle", 1, 1, "🙂")

	reg := presence.NewRegistry(st)
	_, _, _ = reg.Upsert(context.Background(), "active", "Active", 2, 2, "🙂")
	log := chat.NewLog(st)
	ts := &testServer{srv: New(Deps{
		Players:       reg,
		Chat:          log,
		Stats:         stats.NewAggregator(reg, log, nil),
		Verifier:      auth.NewVerifier(testSecret, ""),
		PlayerTimeout: 30 * time.Second,
	})}

	code, resp := ts.do(t, http.MethodPost, "/api/cleanup", "", "")
	if code != http.StatusOK || resp["removedPlayers"] != float64(1) || resp["activePlayers"] != float64(1) {
		t.Fatalf("unexpected cleanup response %d %v", code, resp)
	}
}

func TestStatsAndHealth(t *testing.T) {
	ts := newTestServer(t)
	tok := token(t, "u1", "Alice")
	_, _ = ts.do(t, http.MethodPost, "/api/player/position", `{"x":1,"y":1,"emoji":"🙂"}`, tok)
	_, _ = ts.do(t, http.MethodPost, "/api/chat", `{"message":"hello"}`, tok)

	code, resp := ts.do(t, http.MethodGet, "/api/stats", "", "")
	if code != http.StatusOK || resp["activePlayers"] != float64(1) || resp["totalMessages"] != float64(1) || resp["version"] != "test" {
		t.Fatalf("unexpected stats %d %v", code, resp)
	}
	if recent := resp["recentMessages"].([]any); len(recent) != 1 {
		t.Fatalf("unexpected recent messages %v", resp["recentMessages"])
	}

	code, resp = ts.do(t, http.MethodGet, "/health", "", "")
	if code != http.StatusOK || resp["status"] != "ok" || resp["players"] != float64(1) || resp["messages"] != float64(1) {
		t.Fatalf("unexpected health %d %v", code, resp)
	}

	ts.store.FailGets(true)
	code, resp = ts.do(t, http.MethodGet, "/health", "", "")
	if code != http.StatusServiceUnavailable || resp["status"] != "error" {
		t.Fatalf("expected degraded health, got %d %v", code, resp)
	}
	code, resp = ts.do(t, http.MethodGet, "/api/stats", "", "")
	if code != http.StatusInternalServerError || resp["activePlayers"] != float64(0) {
		t.Fatalf("expected zeroed stats with 500, got %d %v", code, resp)
	}
}

func TestUnmatchedRoutes(t *testing.T) {
	ts := newTestServer(t)

	code, resp := ts.do(t, http.MethodGet, "/api/nope", "", "")
	if code != http.StatusNotFound || resp["error"] != "not_found" {
		t.Fatalf("expected 404, got %d %v", code, resp)
	}
	if eps, _ := resp["endpoints"].([]any); len(eps) == 0 {
		t.Fatalf("expected endpoint list in 404 body")
	}

	code, resp = ts.do(t, http.MethodDelete, "/api/players", "", "")
	if code != http.StatusMethodNotAllowed || resp["error"] != "method_not_allowed" {
		t.Fatalf("expected 405, got %d %v", code, resp)
	}

	code, _ = ts.do(t, http.MethodPut, "/api/whatever", "", "")
	if code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown PUT path, got %d", code)
	}
}

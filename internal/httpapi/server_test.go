package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"kingo/internal/cachestore"
	"kingo/internal/coordinator"
	"kingo/internal/lyrics"
)

func newTestServer(t *testing.T) (*Server, *cachestore.Store) {
	t.Helper()
	dir := t.TempDir()
	cache := cachestore.New(dir, 10, zerolog.Nop())
	coord := coordinator.New(nil, nil, cache, nil, func() string { return "http://localhost:15123" }, zerolog.Nop())
	relay := lyrics.New()
	return New(cache, coord, relay, func() string { return "http://localhost:15123" }, zerolog.Nop()), cache
}

func TestHandleVideoStatus_CacheHit(t *testing.T) {
	s, cache := newTestServer(t)
	if err := os.WriteFile(filepath.Join(cache.Dir(), "abc.webm"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest("GET", "/video/status?id=abc", nil)
	w := httptest.NewRecorder()
	s.handleVideoStatus(w, req)

	var got response
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if !got.Success || got.URL == nil || *got.URL != "http://localhost:15123/video/files/abc.webm" {
		t.Errorf("got %+v, want success with the cache file URL", got)
	}
}

func TestHandleVideoStatus_CacheMiss(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest("GET", "/video/status?id=nope", nil)
	w := httptest.NewRecorder()
	s.handleVideoStatus(w, req)

	var got response
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Success {
		t.Errorf("got success=true for an uncached id")
	}
}

func TestHandleVideoRequest_InvalidID(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest("GET", "/video/request?id=", nil)
	w := httptest.NewRecorder()
	s.handleVideoRequest(w, req)

	if w.Code != 400 {
		t.Errorf("status = %d, want 400 for an empty id", w.Code)
	}
}

func TestHandleLyricsGetNow_NoData(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest("GET", "/lyrics/getnow", nil)
	w := httptest.NewRecorder()
	s.handleLyricsGetNow(w, req)

	if w.Code != 200 {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if w.Body.String() != "null\n" {
		t.Errorf("body = %q, want null when no lyrics/progress are set", w.Body.String())
	}
}

func TestLyricsSenderAndGetFullRoundTrip(t *testing.T) {
	s, _ := newTestServer(t)

	body := `{"track":{"title":"T","artist":"A","album":"Alb","duration":180},"lyrics":[{"startTime":0,"text":"hi"}],"isSynced":true}`
	req := httptest.NewRequest("POST", "/lyrics/sender", strings.NewReader(body))
	w := httptest.NewRecorder()
	s.handleLyricsSender(w, req)
	if w.Code != 204 {
		t.Fatalf("sender status = %d, want 204", w.Code)
	}

	req2 := httptest.NewRequest("GET", "/lyrics/getfull", nil)
	w2 := httptest.NewRecorder()
	s.handleLyricsGetFull(w2, req2)

	var got lyrics.Lyrics
	if err := json.NewDecoder(w2.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Track.Title != "T" || len(got.Lines) != 1 {
		t.Errorf("got %+v, want round-tripped payload", got)
	}
}

func TestCORSPreflightHandled(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest("OPTIONS", "/health", nil)
	w := httptest.NewRecorder()
	cors(http.HandlerFunc(s.handleHealth)).ServeHTTP(w, req)

	if w.Code != 204 {
		t.Errorf("preflight status = %d, want 204", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("missing permissive CORS header")
	}
}

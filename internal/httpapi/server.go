// Package httpapi is the HTTP Front-End (C5) plus the Lyrics/Progress
// Relay's wire surface (C6): a loopback-bound net/http server exposing the
// video acquisition routes and the lyrics routes the browser extension
// polls and pushes to.
package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/rs/zerolog"

	"kingo/internal/cachestore"
	"kingo/internal/constants"
	"kingo/internal/coordinator"
	"kingo/internal/lyrics"
	"kingo/internal/validate"
)

// response is the uniform JSON shape for every /video/* route, per §6.
type response struct {
	Success bool    `json:"success"`
	VideoID string  `json:"video_id"`
	URL     *string `json:"url"`
	Message *string `json:"message"`
}

// Server binds the video and lyrics routes to loopback:15123.
type Server struct {
	cache   *cachestore.Store
	coord   *coordinator.Coordinator
	relay   *lyrics.Relay
	baseURL func() string
	log     zerolog.Logger
	httpSrv *http.Server
}

// New builds a Server. baseURL mirrors coordinator.New's — a func so a
// future configurable port is honoured without reconstruction.
func New(cache *cachestore.Store, coord *coordinator.Coordinator, relay *lyrics.Relay, baseURL func() string, log zerolog.Logger) *Server {
	return &Server{cache: cache, coord: coord, relay: relay, baseURL: baseURL, log: log}
}

// Start binds the listener and serves in the background. addr is typically
// "127.0.0.1:15123" (constants.HTTPPort).
func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/video/request", s.handleVideoRequest)
	mux.HandleFunc("/video/status", s.handleVideoStatus)
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/video/files/", http.StripPrefix("/video/files/", http.FileServer(http.Dir(s.cache.Dir()))))

	mux.HandleFunc("/lyrics/sender", s.handleLyricsSender)
	mux.HandleFunc("/lyrics/progress", s.handleLyricsProgress)
	mux.HandleFunc("/lyrics/getfull", s.handleLyricsGetFull)
	mux.HandleFunc("/lyrics/getnow", s.handleLyricsGetNow)
	mux.HandleFunc("/lyrics/health", s.handleHealth)

	s.httpSrv = &http.Server{
		Addr:    addr,
		Handler: cors(mux),
	}

	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error().Err(err).Msg("httpapi: server error")
		}
	}()

	s.log.Info().Str("addr", addr).Msg("httpapi: listening")
	return nil
}

// Close shuts the server down.
func (s *Server) Close() error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Close()
}

// cors wraps a handler with the permissive policy required because the
// browser extension caller runs from an unrelated origin.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprint(w, "OK")
}

// handleVideoStatus is a pure cache query: no subscription, no launch.
func (s *Server) handleVideoStatus(w http.ResponseWriter, r *http.Request) {
	id, err := validate.VideoID(r.URL.Query().Get("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, response{Success: false, Message: strPtr(err.Error())})
		return
	}

	if path, ok := s.cache.Path(id); ok {
		url := s.fileURL(path)
		writeJSON(w, http.StatusOK, response{Success: true, VideoID: id, URL: &url})
		return
	}
	writeJSON(w, http.StatusOK, response{Success: false, VideoID: id})
}

// handleVideoRequest is the main acquisition entrypoint: a cache hit
// short-circuits to the same JSON shape as handleVideoStatus; a miss opens
// an SSE stream over the coordinator's broadcast.
func (s *Server) handleVideoRequest(w http.ResponseWriter, r *http.Request) {
	id, err := validate.VideoID(r.URL.Query().Get("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, response{Success: false, Message: strPtr(err.Error())})
		return
	}

	if path, ok := s.cache.Path(id); ok {
		url := s.fileURL(path)
		writeJSON(w, http.StatusOK, response{Success: true, VideoID: id, URL: &url})
		return
	}

	s.streamSSE(w, r, id)
}

func (s *Server) streamSSE(w http.ResponseWriter, r *http.Request, id string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sub := s.coord.StartOrSubscribe(id)
	defer sub.Close()

	ctx := r.Context()
	for {
		select {
		case event, ok := <-sub.Events:
			if !ok {
				return
			}
			frameType := "progress"
			if isTerminal(event.Status) {
				frameType = "complete"
			}
			if err := writeSSEFrame(w, frameType, event); err != nil {
				return
			}
			flusher.Flush()
			if isTerminal(event.Status) {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func isTerminal(status string) bool {
	switch status {
	case constants.StatusCompleted, constants.StatusAlreadyExists, constants.StatusError:
		return true
	default:
		return false
	}
}

func writeSSEFrame(w http.ResponseWriter, eventType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, data)
	return err
}

func (s *Server) fileURL(path string) string {
	return fmt.Sprintf("%s/video/files/%s", s.baseURL(), filepath.Base(path))
}

// --- lyrics routes (C6) ---

func (s *Server) handleLyricsSender(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var payload lyrics.Lyrics
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	s.relay.SetLyrics(payload)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLyricsProgress(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var payload lyrics.Progress
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}
		s.relay.SetProgress(payload)
		w.WriteHeader(http.StatusNoContent)
	case http.MethodGet:
		writeJSONBody(w, http.StatusOK, s.relay.Progress())
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleLyricsGetFull(w http.ResponseWriter, r *http.Request) {
	writeJSONBody(w, http.StatusOK, s.relay.Lyrics())
}

func (s *Server) handleLyricsGetNow(w http.ResponseWriter, r *http.Request) {
	writeJSONBody(w, http.StatusOK, s.relay.CurrentLine())
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, status int, body response) {
	writeJSONBody(w, status, body)
}

func writeJSONBody(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func strPtr(s string) *string { return &s }

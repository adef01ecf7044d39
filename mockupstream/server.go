// Package mockupstream runs a local HTTP server speaking the Anthropic
// messages wire format. Used for testing and development without
// requiring real API keys: point a pipeline's BaseURL at Server.URL and
// every call stays on the loopback interface.
package mockupstream

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	loremgen "github.com/bozaro/golorem"
)

// Options shapes the canned replies.
type Options struct {
	// Reply is the text returned on both paths. Empty means a random
	// lorem ipsum sentence per request.
	Reply string

	// StatusCode, when non-zero and not 200, makes every request fail
	// with that status and a JSON error body.
	StatusCode int
}

// Server is the in-process upstream. It records the last request body
// so tests can assert on the exact outbound payload.
type Server struct {
	*httptest.Server

	generator *loremgen.Lorem
	opts      Options

	mu       sync.Mutex
	lastBody []byte
}

// New starts a server with the given options. Callers own the returned
// server and must Close it.
func New(opts Options) *Server {
	s := &Server{
		generator: loremgen.New(),
		opts:      opts,
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// LastRequestBody returns the raw body of the most recent request.
func (s *Server) LastRequestBody() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastBody
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.lastBody = body
	s.mu.Unlock()

	if s.opts.StatusCode != 0 && s.opts.StatusCode != http.StatusOK {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(s.opts.StatusCode)
		fmt.Fprintf(w, `{"type":"error","error":{"type":"invalid_request_error","message":"mock upstream error"}}`)
		return
	}

	var req struct {
		Stream bool `json:"stream"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	reply := s.opts.Reply
	if reply == "" {
		reply = s.generator.Sentence(5, 15)
	}

	if req.Stream {
		s.streamReply(w, reply)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"content": []map[string]any{
			{"type": "text", "text": reply},
		},
	})
}

// streamReply emits the reply word by word as server-sent events: a
// content_block_start with empty text, one content_block_delta per
// word, then message_stop.
func (s *Server) streamReply(w http.ResponseWriter, reply string) {
	w.Header().Set("Content-Type", "text/event-stream")
	flusher, _ := w.(http.Flusher)

	writeEvent := func(kind string, payload any) {
		data, _ := json.Marshal(payload)
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", kind, data)
		if flusher != nil {
			flusher.Flush()
		}
	}

	writeEvent("content_block_start", map[string]any{
		"type":          "content_block_start",
		"index":         0,
		"content_block": map[string]any{"type": "text", "text": ""},
	})

	words := strings.Fields(reply)
	for i, word := range words {
		if i < len(words)-1 {
			word += " "
		}
		writeEvent("content_block_delta", map[string]any{
			"type":  "content_block_delta",
			"index": 0,
			"delta": map[string]any{"type": "text_delta", "text": word},
		})
	}

	writeEvent("message_stop", map[string]any{"type": "message_stop"})
}

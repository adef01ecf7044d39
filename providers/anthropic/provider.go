// Package anthropic implements the message adapter between the host
// chat application and the Anthropic messages API: it normalizes host
// turns into wire content blocks, assembles the outbound request, and
// decodes the reply on both the blocking and the streaming path.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	llmpipeline "github.com/haowjy/llm-pipelines-go"
)

// chunkBuffer sizes the streaming channels; buffered to keep the SSE
// reader from stalling on a slow consumer.
const chunkBuffer = 10

// Pipeline is the host-facing adapter instance. It holds the static
// configuration, the cached outbound headers, and the HTTP client; all
// other state is request-scoped. Config updates between calls are
// last-writer-wins and do not affect in-flight calls, which keep the
// header set they started with.
type Pipeline struct {
	cfg     llmpipeline.Config
	headers http.Header
	client  *http.Client
	logger  zerolog.Logger
}

// NewPipeline creates an adapter with defaults applied. Construction
// without an API key is allowed; OnStartup warns about it and any live
// call will fail upstream.
func NewPipeline(cfg llmpipeline.Config) *Pipeline {
	cfg = cfg.WithDefaults()
	p := &Pipeline{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: log.With().Str("pipeline", "anthropic").Logger(),
	}
	p.rebuildHeaders()
	return p
}

// rebuildHeaders recomputes the cached header set from the current
// config. The map is replaced wholesale so in-flight calls keep the
// clone they took.
func (p *Pipeline) rebuildHeaders() {
	h := make(http.Header)
	h.Set("anthropic-version", p.cfg.APIVersion)
	h.Set("Content-Type", "application/json")
	h.Set("x-api-key", p.cfg.APIKey)
	p.headers = h
}

// Config returns the active configuration.
func (p *Pipeline) Config() llmpipeline.Config {
	return p.cfg
}

// Models returns the static model catalog for host model selection.
func (p *Pipeline) Models() []llmpipeline.Model {
	return llmpipeline.Models()
}

// OnStartup is the host's initialize hook.
func (p *Pipeline) OnStartup(ctx context.Context) error {
	p.logger.Info().Msg("starting anthropic pipeline")
	if p.cfg.APIKey == "" {
		p.logger.Warn().Msg("no API key configured; live calls will fail")
	}
	return nil
}

// OnShutdown is the host's teardown hook.
func (p *Pipeline) OnShutdown(ctx context.Context) error {
	p.logger.Info().Msg("shutting down anthropic pipeline")
	return nil
}

// OnConfigUpdated is the host's configuration-changed hook. It swaps in
// the new config and rebuilds the cached headers.
func (p *Pipeline) OnConfigUpdated(cfg llmpipeline.Config) {
	p.cfg = cfg.WithDefaults()
	p.client.Timeout = p.cfg.Timeout
	p.rebuildHeaders()
}

// PipeResult is the host-facing outcome of one call: either a complete
// text or a stream of text chunks, never both.
type PipeResult struct {
	// Text is the complete reply, or the rendered error description
	Text string

	// Chunks is the streamed reply; nil on the non-streaming path
	Chunks <-chan string
}

// Streaming returns true when the result carries a chunk stream.
func (r PipeResult) Streaming() bool {
	return r.Chunks != nil
}

// Pipe is the top-level entry point for the host. It coerces the
// options body, assembles the outbound request, and dispatches on the
// stream flag. Pipe never lets a fault escape: every failure is
// converted into a renderable text result or, mid-stream, a final text
// chunk.
func (p *Pipeline) Pipe(ctx context.Context, model string, turns []llmpipeline.Turn, body map[string]any) PipeResult {
	params := llmpipeline.ParamsFromMap(body)

	req, err := BuildRequest(p.cfg, model, turns, params)
	if err != nil {
		p.logger.Error().Err(err).Str("model", model).Msg("pipeline error")
		return PipeResult{Text: "Error: " + err.Error()}
	}

	if req.Stream {
		chunks, err := p.Stream(ctx, req)
		if err != nil {
			p.logger.Error().Err(err).Str("model", model).Msg("streaming error")
			return PipeResult{Text: "Error during streaming: " + err.Error()}
		}
		return PipeResult{Chunks: renderChunks(chunks)}
	}

	text, err := p.Complete(ctx, req)
	if err != nil {
		p.logger.Error().Err(err).Str("model", model).Msg("completion error")
		return PipeResult{Text: "Error getting completion: " + err.Error()}
	}
	return PipeResult{Text: text}
}

// renderChunks converts the typed chunk stream into the host's plain
// text stream, rendering a terminal error as one final text chunk.
func renderChunks(chunks <-chan llmpipeline.Chunk) <-chan string {
	out := make(chan string, chunkBuffer)
	go func() {
		defer close(out)
		for chunk := range chunks {
			if chunk.Err != nil {
				out <- "Error during streaming: " + chunk.Err.Error()
				return
			}
			out <- chunk.Text
		}
	}()
	return out
}

// Complete issues the request on the blocking path and returns the
// first content block's text, or "" when the reply carries no blocks.
func (p *Pipeline) Complete(ctx context.Context, req *Request) (string, error) {
	resp, err := p.post(ctx, req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &llmpipeline.UpstreamError{
			StatusCode: resp.StatusCode,
			Body:       string(body),
			Err:        llmpipeline.ErrUpstream,
		}
	}

	var parsed Response
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if len(parsed.Content) == 0 {
		return "", nil
	}
	return parsed.Content[0].Text, nil
}

// post marshals and sends the request with the cached header set.
func (p *Pipeline) post(ctx context.Context, req *Request) (*http.Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header = p.headers.Clone()

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("anthropic HTTP request failed: %w", err)
	}
	return resp, nil
}

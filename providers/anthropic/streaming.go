package anthropic

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	llmpipeline "github.com/haowjy/llm-pipelines-go"
)

// EventType discriminates the stream events the upstream emits. Only
// the three kinds below are acted on; everything else (message_start,
// content_block_stop, message_delta, ping, future kinds) is skipped.
type EventType string

const (
	EventContentBlockStart EventType = "content_block_start"
	EventContentBlockDelta EventType = "content_block_delta"
	EventMessageStop       EventType = "message_stop"
)

// StreamEvent is the decoded data payload of one server-sent event.
// Text fields are pointers: a nil pointer means the event did not carry
// the expected field and the whole event is dropped.
type StreamEvent struct {
	Type         EventType   `json:"type"`
	ContentBlock *EventBlock `json:"content_block,omitempty"`
	Delta        *EventDelta `json:"delta,omitempty"`
}

// EventBlock is the content_block payload of a content_block_start event.
type EventBlock struct {
	Type string  `json:"type"`
	Text *string `json:"text"`
}

// EventDelta is the delta payload of a content_block_delta event.
type EventDelta struct {
	Type string  `json:"type"`
	Text *string `json:"text"`
}

// Stream issues the request with streaming enabled and decodes the
// server-sent events into a finite, in-order chunk sequence. The
// returned channel is closed on message_stop, on stream end, or after
// one terminal error chunk when the transport fails mid-stream; it is
// single-consumer and cannot be restarted.
//
// A non-success status fails immediately with an UpstreamError, before
// any chunk is produced.
func (p *Pipeline) Stream(ctx context.Context, req *Request) (<-chan llmpipeline.Chunk, error) {
	streamReq := *req
	streamReq.Stream = true

	resp, err := p.post(ctx, &streamReq)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return nil, &llmpipeline.UpstreamError{
			StatusCode: resp.StatusCode,
			Body:       string(body),
			Err:        llmpipeline.ErrUpstream,
		}
	}

	chunks := make(chan llmpipeline.Chunk, chunkBuffer)

	go func() {
		defer close(chunks)
		defer resp.Body.Close()

		if err := p.decodeEvents(ctx, resp.Body, chunks); err != nil {
			chunks <- llmpipeline.Chunk{Err: err}
		}
	}()

	return chunks, nil
}

// decodeEvents consumes the SSE body and emits one chunk per text-
// carrying event. A malformed event - unparseable JSON, an unrecognized
// type, or a missing text field - is logged and dropped whole; the
// stream continues with the next event.
func (p *Pipeline) decodeEvents(ctx context.Context, body io.Reader, chunks chan<- llmpipeline.Chunk) error {
	scanner := bufio.NewScanner(body)
	// Base64-heavy deltas can exceed the default 64KB token limit.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()

		// Skip blanks, comments, and the event:/id: framing lines;
		// dispatch runs on the JSON type discriminator instead.
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")

		var event StreamEvent
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			p.logger.Debug().Err(err).Str("data", data).Msg("failed to parse stream event")
			continue
		}

		var text string
		switch event.Type {
		case EventContentBlockStart:
			if event.ContentBlock == nil || event.ContentBlock.Text == nil {
				p.logger.Debug().Str("event_type", string(event.Type)).Msg("stream event missing text payload")
				continue
			}
			text = *event.ContentBlock.Text

		case EventContentBlockDelta:
			if event.Delta == nil || event.Delta.Text == nil {
				p.logger.Debug().Str("event_type", string(event.Type)).Msg("stream event missing text payload")
				continue
			}
			text = *event.Delta.Text

		case EventMessageStop:
			return nil

		default:
			p.logger.Debug().Str("event_type", string(event.Type)).Msg("skipping unhandled stream event")
			continue
		}

		select {
		case chunks <- llmpipeline.Chunk{Text: text}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading stream: %w", err)
	}
	return nil
}

package anthropic

import (
	llmpipeline "github.com/haowjy/llm-pipelines-go"
)

// Wire block and source type discriminators.
const (
	BlockTypeText  = "text"
	BlockTypeImage = "image"

	SourceTypeBase64 = "base64"
	SourceTypeURL    = "url"
)

// Request is the outbound messages-endpoint payload. It is built fresh
// for every call and not retained afterwards.
type Request struct {
	Model         string    `json:"model"`
	Messages      []Message `json:"messages"`
	MaxTokens     int       `json:"max_tokens"`
	Temperature   float64   `json:"temperature"`
	TopK          int       `json:"top_k"`
	TopP          float64   `json:"top_p"`
	StopSequences []string  `json:"stop_sequences"`
	Stream        bool      `json:"stream"`
	System        string    `json:"system,omitempty"`
}

// Message is one conversation turn in wire form. The system turn never
// appears here; it travels in Request.System.
type Message struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

// ContentBlock is one unit of turn content on the wire: text or image.
type ContentBlock struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *ImageSource `json:"source,omitempty"`
}

// ImageSource carries an image either inline (base64 + media type) or
// by reference (url).
type ImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type,omitempty"`
	Data      string `json:"data,omitempty"`
	URL       string `json:"url,omitempty"`
}

// NewTextBlock builds a text content block.
func NewTextBlock(text string) ContentBlock {
	return ContentBlock{Type: BlockTypeText, Text: text}
}

// NewBase64ImageBlock builds an inline image block.
func NewBase64ImageBlock(mediaType, data string) ContentBlock {
	return ContentBlock{
		Type: BlockTypeImage,
		Source: &ImageSource{
			Type:      SourceTypeBase64,
			MediaType: mediaType,
			Data:      data,
		},
	}
}

// NewURLImageBlock builds an image block referencing a URL.
func NewURLImageBlock(url string) ContentBlock {
	return ContentBlock{
		Type:   BlockTypeImage,
		Source: &ImageSource{Type: SourceTypeURL, URL: url},
	}
}

// BuildRequest assembles the outbound payload from the caller's model
// identifier, conversation turns, and coerced parameters.
//
// A leading system turn is extracted and attached as the separate
// system field (omitted entirely when absent); the remaining turns are
// normalized into wire content blocks under the per-call image limits
// configured in cfg. Every generation parameter the caller omitted
// falls back to its configured default.
func BuildRequest(cfg llmpipeline.Config, model string, turns []llmpipeline.Turn, params *llmpipeline.RequestParams) (*Request, error) {
	if params == nil {
		params = &llmpipeline.RequestParams{}
	}

	system, rest := llmpipeline.PopSystemTurn(turns)

	// Image limits accumulate across all turns of one call.
	norm := newNormalizer(cfg)

	messages := make([]Message, 0, len(rest))
	for _, turn := range rest {
		content, err := norm.normalizeContent(turn.Content)
		if err != nil {
			return nil, err
		}
		messages = append(messages, Message{Role: turn.Role, Content: content})
	}

	req := &Request{
		Model:         model,
		Messages:      messages,
		MaxTokens:     params.GetMaxTokens(cfg.DefaultMaxTokens),
		Temperature:   params.GetTemperature(cfg.DefaultTemperature),
		TopK:          params.GetTopK(cfg.DefaultTopK),
		TopP:          params.GetTopP(cfg.DefaultTopP),
		StopSequences: params.GetStop(),
		Stream:        params.GetStream(),
	}

	if system != nil {
		req.System = system.AsText()
	}

	return req, nil
}

// Response is the non-streaming reply. Only the content blocks matter
// to the adapter; everything else in the reply is ignored.
type Response struct {
	Content []ResponseBlock `json:"content"`
}

// ResponseBlock is one reply content block.
type ResponseBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

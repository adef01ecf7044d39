package llmpipeline

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Role constants for conversation turns.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Content item kinds as sent by the host application.
const (
	ItemTypeText     = "text"
	ItemTypeImageURL = "image_url"
)

// Turn is a single message in the conversation as delivered by the host.
// The host sends content either as a plain string or as an ordered list
// of typed items; TurnContent accepts both wire shapes.
type Turn struct {
	// Role is "system", "user" or "assistant"
	Role string `json:"role"`

	// Content is the turn's content (plain text or item list)
	Content TurnContent `json:"content"`
}

// ContentItem is one element of a list-form turn content.
type ContentItem struct {
	// Type is the item kind: "text" or "image_url"
	Type string `json:"type"`

	// Text carries the text for "text" items
	Text string `json:"text,omitempty"`

	// ImageURL carries the image reference for "image_url" items
	ImageURL *ImageRef `json:"image_url,omitempty"`
}

// ImageRef is the host's image reference. The URL is either a regular
// URL or a data URI (`data:image/...;base64,...`).
type ImageRef struct {
	URL string `json:"url"`
}

// TurnContent holds a turn's content in either of the two shapes the
// host produces. Exactly one of Plain and Items is meaningful: Plain is
// non-nil for string content, Items is used otherwise.
type TurnContent struct {
	Plain *string
	Items []ContentItem
}

// TextContent builds a plain-string TurnContent.
func TextContent(text string) TurnContent {
	return TurnContent{Plain: &text}
}

// ListContent builds a list-form TurnContent.
func ListContent(items ...ContentItem) TurnContent {
	return TurnContent{Items: items}
}

// IsList returns true if the content arrived as an item list.
func (c TurnContent) IsList() bool {
	return c.Plain == nil
}

// AsText coerces the content to a plain string. String content passes
// through unchanged; list content joins its text items with newlines
// (image items contribute nothing).
func (c TurnContent) AsText() string {
	if c.Plain != nil {
		return *c.Plain
	}

	parts := make([]string, 0, len(c.Items))
	for _, item := range c.Items {
		if item.Type == ItemTypeText {
			parts = append(parts, item.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// UnmarshalJSON accepts both content shapes: a bare JSON string or an
// array of typed items.
func (c *TurnContent) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "\"") {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		c.Plain = &s
		c.Items = nil
		return nil
	}

	var items []ContentItem
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("turn content must be a string or an item list: %w", err)
	}
	c.Plain = nil
	c.Items = items
	return nil
}

// MarshalJSON emits the shape the content arrived in.
func (c TurnContent) MarshalJSON() ([]byte, error) {
	if c.Plain != nil {
		return json.Marshal(*c.Plain)
	}
	return json.Marshal(c.Items)
}

// PopSystemTurn extracts the system instruction from the conversation.
// If the first turn has role "system", its content is returned and the
// remaining turns follow; otherwise the content is nil and the input is
// returned unchanged. Only the first turn is ever treated as the system
// turn - a system-role turn anywhere else passes through as a normal
// turn.
func PopSystemTurn(turns []Turn) (*TurnContent, []Turn) {
	if len(turns) == 0 {
		return nil, turns
	}
	if turns[0].Role != RoleSystem {
		return nil, turns
	}
	content := turns[0].Content
	return &content, turns[1:]
}

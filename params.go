package llmpipeline

// RequestParams represents the generation parameters a caller may attach
// to a single call. All fields are optional pointers to distinguish "not
// set" from "set to zero value"; unset fields fall back to the adapter's
// configured defaults at request-assembly time.
type RequestParams struct {
	// MaxTokens sets the maximum number of tokens to generate
	MaxTokens *int `json:"max_tokens,omitempty"`

	// Temperature controls randomness
	Temperature *float64 `json:"temperature,omitempty"`

	// TopK limits sampling to the top K tokens
	TopK *int `json:"top_k,omitempty"`

	// TopP (nucleus sampling) - cumulative probability cutoff
	TopP *float64 `json:"top_p,omitempty"`

	// Stop sequences - generation stops if any of these are generated
	Stop []string `json:"stop,omitempty"`

	// Stream selects the streaming response path
	Stream *bool `json:"stream,omitempty"`
}

// ParamsFromMap coerces the host's loosely-typed options map into typed
// parameters. Recognized keys: max_tokens, temperature, top_k, top_p,
// stop, stream. A key that is absent or carries an ill-typed value
// leaves the field unset, so it falls back to the configured default.
//
// Bookkeeping keys the host attaches to the body (user, chat_id, title)
// are never read here and can never reach the outbound payload.
func ParamsFromMap(body map[string]any) *RequestParams {
	params := &RequestParams{}
	if body == nil {
		return params
	}

	if v, ok := intFromAny(body["max_tokens"]); ok {
		params.MaxTokens = &v
	}
	if v, ok := floatFromAny(body["temperature"]); ok {
		params.Temperature = &v
	}
	if v, ok := intFromAny(body["top_k"]); ok {
		params.TopK = &v
	}
	if v, ok := floatFromAny(body["top_p"]); ok {
		params.TopP = &v
	}
	if v, ok := stringsFromAny(body["stop"]); ok {
		params.Stop = v
	}
	if v, ok := body["stream"].(bool); ok {
		params.Stream = &v
	}

	return params
}

// intFromAny accepts the integer encodings seen in decoded JSON bodies.
func intFromAny(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

// floatFromAny accepts the float encodings seen in decoded JSON bodies.
func floatFromAny(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// stringsFromAny accepts a string slice in either its typed form or the
// []any form produced by json.Unmarshal. Non-string elements disqualify
// the whole value.
func stringsFromAny(v any) ([]string, bool) {
	switch list := v.(type) {
	case []string:
		return list, true
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

// GetMaxTokens returns max_tokens with default fallback
func (rp *RequestParams) GetMaxTokens(defaultValue int) int {
	if rp.MaxTokens != nil {
		return *rp.MaxTokens
	}
	return defaultValue
}

// GetTemperature returns temperature with default fallback
func (rp *RequestParams) GetTemperature(defaultValue float64) float64 {
	if rp.Temperature != nil {
		return *rp.Temperature
	}
	return defaultValue
}

// GetTopK returns top_k with default fallback
func (rp *RequestParams) GetTopK(defaultValue int) int {
	if rp.TopK != nil {
		return *rp.TopK
	}
	return defaultValue
}

// GetTopP returns top_p with default fallback
func (rp *RequestParams) GetTopP(defaultValue float64) float64 {
	if rp.TopP != nil {
		return *rp.TopP
	}
	return defaultValue
}

// GetStop returns the stop sequences, never nil. The outbound payload
// always carries stop_sequences, as [] when the caller sent none.
func (rp *RequestParams) GetStop() []string {
	if rp.Stop == nil {
		return []string{}
	}
	return rp.Stop
}

// GetStream returns the stream flag, defaulting to false.
func (rp *RequestParams) GetStream() bool {
	return rp.Stream != nil && *rp.Stream
}

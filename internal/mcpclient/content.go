package mcpclient

import (
	"encoding/json"
	"errors"
)

// toolsCallResult and contentItem mirror the wire shape a tools/call
// response actually carries: a list of content blocks rather than a plain
// JSON result.
type toolsCallResult struct {
	Content []contentItem `json:"content"`
	IsError bool          `json:"isError"`
}

type contentItem struct {
	Type     string  `json:"type"`
	Text     *string `json:"text"`
	MimeType *string `json:"mimeType"`
}

// normalizeToolResult lifts the first content block of a tools/call
// response into a flat JSON payload, with a structured echo when the
// block is itself valid JSON.
func normalizeToolResult(result toolsCallResult) (CallResult, error) {
	if len(result.Content) == 0 {
		return CallResult{}, errors.New("mcpclient: empty content in tool result")
	}
	item := result.Content[0]
	var payload json.RawMessage
	var structured json.RawMessage

	if item.Text != nil {
		textBytes := []byte(*item.Text)
		if json.Valid(textBytes) {
			payload = append(json.RawMessage(nil), textBytes...)
			structured = append(json.RawMessage(nil), textBytes...)
		} else {
			marshaled, err := json.Marshal(*item.Text)
			if err != nil {
				return CallResult{}, err
			}
			payload = marshaled
		}
	}
	if len(payload) == 0 {
		return CallResult{}, errors.New("mcpclient: tool returned no text content")
	}
	return CallResult{Result: payload, Structured: structured, IsError: result.IsError}, nil
}

package describe

import (
	"encoding/json"
	"strings"
)

// messageContent is the tagged union for the content field of a chat
// message: either a plain string or a sequence of structured parts.
// Audio-capable models have been observed returning both shapes.
type messageContent struct {
	Text  string
	Parts []contentPart
}

type contentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func (m *messageContent) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		m.Text = text
		m.Parts = nil
		return nil
	}

	var parts []contentPart
	if err := json.Unmarshal(data, &parts); err == nil {
		m.Parts = parts
		m.Text = ""
		return nil
	}

	// Neither shape matched; keep the raw representation so extraction
	// can still fall back to something rather than failing the request.
	m.Text = string(data)
	m.Parts = nil
	return nil
}

// extract joins whatever text the content carries. Plain text wins; for
// structured parts only text-bearing part types contribute.
func (m *messageContent) extract() string {
	if m.Parts == nil {
		return strings.TrimSpace(m.Text)
	}

	texts := make([]string, 0, len(m.Parts))
	for _, part := range m.Parts {
		if part.Type == "text" || part.Type == "output_text" {
			texts = append(texts, part.Text)
		}
	}
	return strings.TrimSpace(strings.Join(texts, " "))
}

// extractMessageText pulls the assistant text out of a raw chat message
// JSON object, tolerating both content shapes.
func extractMessageText(rawMessage []byte) string {
	var msg struct {
		Content messageContent `json:"content"`
	}
	if err := json.Unmarshal(rawMessage, &msg); err != nil {
		return strings.TrimSpace(string(rawMessage))
	}
	return msg.Content.extract()
}

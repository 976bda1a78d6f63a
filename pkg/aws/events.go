package aws

import "encoding/json"

// eventType extracts the top-level "event_type" field of a JSON message.
func eventType(message []byte) string {
	var envelope struct {
		EventType string `json:"event_type"`
	}
	if err := json.Unmarshal(message, &envelope); err != nil {
		return ""
	}
	return envelope.EventType
}

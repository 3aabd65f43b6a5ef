package core

import (
	"encoding/json"
)

// Event is websocket root packet model
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data"`
}

// MessageReceived is the payload of EventMessageReceived
type MessageReceived struct {
	Message Message `json:"message"`
}

// PublicKeyReleased is the payload of EventPublicKeyReleased
type PublicKeyReleased struct {
	Key    string `json:"key"`
	UserID string `json:"userID"`
}

// Package events defines the frames pushed to connected clients over the
// real-time channel. Every frame is a JSON object {"event": ..., "data": ...}.
package events

import "encoding/json"

const (
	// OnlineUsers carries the full list of online user ids.
	OnlineUsers = "getOnlineUsers"
	// NewMessage carries a persisted message addressed to the receiver.
	NewMessage = "newMessage"
)

type Frame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Encode serializes a frame once so it can be fanned out to many connections.
func Encode(event string, data any) ([]byte, error) {
	return json.Marshal(Frame{Event: event, Data: data})
}

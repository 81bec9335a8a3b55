package stream

import (
	"encoding/json"
	"time"
)

// Channel names.
const (
	ChannelAll          = "devices"
	channelDevicePrefix = "device:"
)

// Client message types.
const (
	MessageSubscribe   = "subscribe"
	MessageUnsubscribe = "unsubscribe"
)

// EventMetrics is the event name of a latest metrics report.
const EventMetrics = "metrics"

// ChannelDevice returns the channel of one device.
func ChannelDevice(id string) string {
	return channelDevicePrefix + id
}

// ClientMessage is a control message sent by a client.
type ClientMessage struct {
	Type    string `json:"type"`
	Channel string `json:"channel"`
}

// Event is a message pushed to clients.
type Event struct {
	Channel   string    `json:"channel"`
	Event     string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// Subscription binds a client to a channel.
type Subscription struct {
	client  *Client
	channel string
}

type outbound struct {
	channel string
	message []byte
}

func encodeEvent(e *Event) ([]byte, error) {
	return json.Marshal(e)
}

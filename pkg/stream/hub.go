package stream

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// Hub tracks clients and their channel subscriptions. All state is owned
// by the Run goroutine.
type Hub struct {
	clients  map[*Client]struct{}
	channels map[string]map[*Client]struct{}

	register    chan *Client
	unregister  chan *Client
	subscribe   chan *Subscription
	unsubscribe chan *Subscription
	events      chan outbound
	exec        chan func()

	done chan struct{}
}

// NewHub returns a Hub; start it with Run.
func NewHub() *Hub {
	return &Hub{
		clients:  make(map[*Client]struct{}),
		channels: make(map[string]map[*Client]struct{}),

		register:    make(chan *Client),
		unregister:  make(chan *Client),
		subscribe:   make(chan *Subscription),
		unsubscribe: make(chan *Subscription),
		events:      make(chan outbound, 100),
		exec:        make(chan func()),

		done: make(chan struct{}),
	}
}

// Run serves the hub until ctx is done, then disconnects every client.
func (h *Hub) Run(ctx context.Context) error {
	defer func() {
		for c := range h.clients {
			h.remove(c)
		}
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case c := <-h.register:
			h.clients[c] = struct{}{}
			streamClients.Set(float64(len(h.clients)))
			slog.Debug("stream client registered", "id", c.ID, "clients", len(h.clients))

		case c := <-h.unregister:
			h.remove(c)

		case sub := <-h.subscribe:
			if _, ok := h.clients[sub.client]; !ok {
				continue
			}
			if h.channels[sub.channel] == nil {
				h.channels[sub.channel] = make(map[*Client]struct{})
			}
			h.channels[sub.channel][sub.client] = struct{}{}
			slog.Debug("stream client subscribed", "id", sub.client.ID, "channel", sub.channel)

		case sub := <-h.unsubscribe:
			h.drop(sub.client, sub.channel)

		case ev := <-h.events:
			h.deliver(ev)

		case fn := <-h.exec:
			fn()
		}
	}
}

func (h *Hub) remove(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	for channel := range h.channels {
		h.drop(c, channel)
	}
	streamClients.Set(float64(len(h.clients)))
	slog.Debug("stream client unregistered", "id", c.ID, "clients", len(h.clients))
}

func (h *Hub) drop(c *Client, channel string) {
	subs, ok := h.channels[channel]
	if !ok {
		return
	}
	delete(subs, c)
	if len(subs) == 0 {
		delete(h.channels, channel)
	}
}

// deliver sends to the channel's subscribers and, for device channels, to
// the subscribers of ChannelAll.
func (h *Hub) deliver(ev outbound) {
	targets := make(map[*Client]struct{})
	for c := range h.channels[ev.channel] {
		targets[c] = struct{}{}
	}
	if strings.HasPrefix(ev.channel, channelDevicePrefix) {
		for c := range h.channels[ChannelAll] {
			targets[c] = struct{}{}
		}
	}

	for c := range targets {
		select {
		case c.send <- ev.message:
		default:
			streamDrops.Inc()
			slog.Warn("stream client too slow, disconnecting", "id", c.ID)
			h.remove(c)
		}
	}
}

// Publish queues an event for the subscribers of channel. It never blocks
// once the hub has stopped.
func (h *Hub) Publish(channel, event string, payload any) error {
	msg, err := encodeEvent(&Event{
		Channel:   channel,
		Event:     event,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
	if err != nil {
		return err
	}
	select {
	case h.events <- outbound{channel: channel, message: msg}:
		streamEvents.WithLabelValues(event).Inc()
	case <-h.done:
	}
	return nil
}

// do runs fn on the hub goroutine. It reports false once stopped.
func (h *Hub) do(fn func()) bool {
	finished := make(chan struct{})
	select {
	case h.exec <- func() { fn(); close(finished) }:
		<-finished
		return true
	case <-h.done:
		return false
	}
}

// Clients returns the number of connected clients, or 0 once stopped.
func (h *Hub) Clients() int {
	n := 0
	h.do(func() { n = len(h.clients) })
	return n
}

// Subscribers returns the number of clients subscribed to channel.
func (h *Hub) Subscribers(channel string) int {
	n := 0
	h.do(func() { n = len(h.channels[channel]) })
	return n
}

func (h *Hub) send(ch chan *Client, c *Client) {
	select {
	case ch <- c:
	case <-h.done:
	}
}

func (h *Hub) sendSub(ch chan *Subscription, sub *Subscription) {
	select {
	case ch <- sub:
	case <-h.done:
	}
}

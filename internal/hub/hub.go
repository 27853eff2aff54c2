// Package hub owns subscriber connections and fans pipeline events out
// to them. Producers push typed events into the hub's channel; there is
// no ambient event bus.
package hub

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tantulabs/cascade-hardware-monitor-sub000/internal/domain"
	"github.com/tantulabs/cascade-hardware-monitor-sub000/internal/logger"
)

// Resolver answers get{resource} requests on demand.
type Resolver func(ctx context.Context, resource string) (any, error)

type inbound struct {
	client *Client
	msg    domain.WsClientMessage
}

type outbound struct {
	client *Client
	msg    domain.WsServerMessage
}

type Hub struct {
	authEnabled bool
	authKey     string
	resolve     Resolver
	log         logger.Logger

	register   chan *Client
	unregister chan *Client
	messages   chan inbound
	events     chan domain.WsEvent
	replies    chan outbound

	done      chan struct{}
	closeOnce sync.Once

	// clients is touched only by the run loop.
	clients map[*Client]bool
}

func New(authEnabled bool, authKey string, resolve Resolver, log logger.Logger) *Hub {
	return &Hub{
		authEnabled: authEnabled,
		authKey:     authKey,
		resolve:     resolve,
		log:         log,

		register:   make(chan *Client),
		unregister: make(chan *Client),
		messages:   make(chan inbound, 64),
		events:     make(chan domain.WsEvent, 100),
		replies:    make(chan outbound, 64),
		done:       make(chan struct{}),

		clients: make(map[*Client]bool),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.log.Info("hub: subscriber connected", "id", client.id, "total", len(h.clients))
			h.send(client, domain.WsServerMessage{Type: domain.WsConnected, ID: client.id})

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.log.Info("hub: subscriber disconnected", "id", client.id, "total", len(h.clients))
			}

		case in := <-h.messages:
			h.handleMessage(in.client, in.msg)

		case event := <-h.events:
			h.broadcast(event)

		case out := <-h.replies:
			// The requester may have disconnected while its resolve ran;
			// its send channel is closed then, so membership gates the
			// reply.
			if _, ok := h.clients[out.client]; ok {
				h.send(out.client, out.msg)
			}

		case <-h.done:
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			return
		}
	}
}

// Broadcast queues an event for delivery to every authenticated
// subscriber of its channel. Never blocks the producer.
func (h *Hub) Broadcast(channel string, payload any) {
	select {
	case h.events <- domain.WsEvent{Channel: channel, Payload: payload}:
	case <-h.done:
	default:
		h.log.Warn("hub: event queue full, dropping", "channel", channel)
	}
}

// Close shuts the hub down and drops every subscriber. Safe to call
// repeatedly.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// broadcast runs on the hub goroutine. A full subscriber buffer drops
// that one message; the subscriber itself is left for natural
// disconnect cleanup rather than being removed mid-broadcast.
func (h *Hub) broadcast(event domain.WsEvent) {
	raw, err := json.Marshal(domain.WsServerMessage{
		Type:    event.Channel,
		Channel: event.Channel,
		Payload: event.Payload,
	})
	if err != nil {
		h.log.Error("hub: failed to marshal event", "channel", event.Channel, "error", err)
		return
	}

	for client := range h.clients {
		if !client.authed || !client.subs[event.Channel] {
			continue
		}

		select {
		case client.send <- raw:
		default:
			h.log.Warn("hub: subscriber buffer full, dropping event", "id", client.id, "channel", event.Channel)
		}
	}
}

func (h *Hub) handleMessage(client *Client, msg domain.WsClientMessage) {
	switch msg.Type {
	case domain.WsAuth:
		ok := h.verifyKey(msg.Key)
		if ok {
			client.authed = true
		}
		h.send(client, domain.WsServerMessage{Type: domain.WsAuthResult, Success: &ok})

	case domain.WsPing:
		h.send(client, domain.WsServerMessage{Type: domain.WsPong})

	case domain.WsSubscribe:
		if !h.requireAuth(client) {
			return
		}
		for _, channel := range msg.Channels {
			client.subs[channel] = true
		}
		h.send(client, domain.WsServerMessage{Type: domain.WsSubscribed, Channels: channelList(client.subs)})

	case domain.WsUnsubscribe:
		if !h.requireAuth(client) {
			return
		}
		for _, channel := range msg.Channels {
			delete(client.subs, channel)
		}
		h.send(client, domain.WsServerMessage{Type: domain.WsUnsubscribed, Channels: channelList(client.subs)})

	case domain.WsGet:
		if !h.requireAuth(client) {
			return
		}
		h.handleGet(client, msg.Resource)

	default:
		h.send(client, domain.WsServerMessage{Type: domain.WsError, Message: "unknown message type"})
	}
}

// handleGet resolves a named resource off the run loop, so a slow
// resolve (a forced live poll, say) cannot stall delivery to other
// subscribers. The reply goes only to the requester.
func (h *Hub) handleGet(client *Client, resource string) {
	if h.resolve == nil {
		h.send(client, domain.WsServerMessage{Type: domain.WsError, Message: "resource queries not available"})
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		var msg domain.WsServerMessage
		payload, err := h.resolve(ctx, resource)
		if err != nil {
			msg = domain.WsServerMessage{Type: domain.WsError, Message: err.Error()}
		} else {
			msg = domain.WsServerMessage{Type: domain.WsData, Resource: resource, Payload: payload}
		}

		select {
		case h.replies <- outbound{client: client, msg: msg}:
		case <-h.done:
		}
	}()
}

func (h *Hub) requireAuth(client *Client) bool {
	if client.authed {
		return true
	}
	h.send(client, domain.WsServerMessage{Type: domain.WsError, Message: "authentication required"})
	return false
}

// verifyKey accepts the shared key itself or an HMAC token signed with
// it.
func (h *Hub) verifyKey(key string) bool {
	if key == "" || h.authKey == "" {
		return false
	}
	if key == h.authKey {
		return true
	}

	parsed, err := jwt.Parse(key, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(h.authKey), nil
	})
	if err != nil {
		h.log.Warn("hub: token verification failed", "error", err)
		return false
	}

	return parsed.Valid
}

func (h *Hub) send(client *Client, msg domain.WsServerMessage) {
	raw, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("hub: failed to marshal message", "type", msg.Type, "error", err)
		return
	}

	select {
	case client.send <- raw:
	default:
		h.log.Warn("hub: subscriber buffer full, dropping reply", "id", client.id, "type", msg.Type)
	}
}

func channelList(subs map[string]bool) []string {
	out := make([]string, 0, len(subs))
	for channel := range subs {
		out = append(out, channel)
	}
	return out
}

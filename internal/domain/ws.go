package domain

const (
	WsChannelSnapshot = "snapshot"
	WsChannelReadings = "readings"
	WsChannelAlerts   = "alerts"
)

const (
	WsAuth        = "auth"
	WsSubscribe   = "subscribe"
	WsUnsubscribe = "unsubscribe"
	WsPing        = "ping"
	WsGet         = "get"
)

const (
	WsConnected    = "connected"
	WsAuthResult   = "auth"
	WsSubscribed   = "subscribed"
	WsUnsubscribed = "unsubscribed"
	WsData         = "data"
	WsPong         = "pong"
	WsError        = "error"
)

// WsClientMessage is the inbound frame from a subscriber.
type WsClientMessage struct {
	Type     string   `json:"type"`
	Key      string   `json:"key,omitempty"`
	Channels []string `json:"channels,omitempty"`
	Resource string   `json:"resource,omitempty"`
}

// WsServerMessage is the outbound frame. Push events use the channel
// name as Type (snapshot, readings, alerts) with the payload attached.
type WsServerMessage struct {
	Type     string   `json:"type"`
	ID       string   `json:"id,omitempty"`
	Success  *bool    `json:"success,omitempty"`
	Channel  string   `json:"channel,omitempty"`
	Channels []string `json:"channels,omitempty"`
	Resource string   `json:"resource,omitempty"`
	Payload  any      `json:"payload,omitempty"`
	Message  string   `json:"message,omitempty"`
}

// WsEvent is a typed event pushed into the hub by pipeline producers.
type WsEvent struct {
	Channel string
	Payload any
}

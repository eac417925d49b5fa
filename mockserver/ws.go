package mockserver

import (
	"encoding/json"

	"golang.org/x/net/websocket"

	"github.com/ouroborosapi/ouroboros/document"
)

// ChannelHandler serves a WebSocket mock for one AsyncAPI channel: every
// inbound text frame is answered with a payload generated from the channel's
// resolved receive-message schema. The connection closes when the peer
// disconnects or a write fails.
func ChannelHandler(payload *document.Map, log document.Logger) websocket.Handler {
	if log == nil {
		log = document.NopLogger{}
	}
	return func(ws *websocket.Conn) {
		for {
			var inbound string
			if err := websocket.Message.Receive(ws, &inbound); err != nil {
				log.Debug("websocket mock connection closed", "error", err)
				return
			}
			body := GenerateValue(payload)
			data, err := json.Marshal(body)
			if err != nil {
				log.Error("failed to serialize websocket mock payload", "error", err)
				return
			}
			if err := websocket.Message.Send(ws, string(data)); err != nil {
				log.Debug("websocket mock send failed", "error", err)
				return
			}
		}
	}
}

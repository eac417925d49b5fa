package mockserver

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/ouroborosapi/ouroboros/document"
)

func TestChannelHandlerEchoesGeneratedPayload(t *testing.T) {
	payload := document.MapOf(
		"type", "object",
		"properties", document.MapOf(
			"text", document.MapOf("type", "string", document.ExtMock, "hello"),
		),
	)

	srv := httptest.NewServer(ChannelHandler(payload, nil))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, err := websocket.Dial(url, "", "http://localhost/")
	require.NoError(t, err)
	defer conn.Close()

	// Every inbound frame produces one generated payload frame.
	for range 2 {
		require.NoError(t, websocket.Message.Send(conn, "ping"))
		var reply string
		require.NoError(t, websocket.Message.Receive(conn, &reply))

		var body map[string]any
		require.NoError(t, json.Unmarshal([]byte(reply), &body))
		assert.Equal(t, "hello", body["text"])
	}
}

package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/hongminglow/tweeter-be/internal/auth"
)

type tokenTable map[string]auth.Claims

func (tt tokenTable) Authenticate(token string) (auth.Claims, error) {
	if c, ok := tt[token]; ok {
		return c, nil
	}
	return auth.Claims{}, auth.ErrInvalidToken
}

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(tokenTable{"good": {UserID: "u1", Username: "alice"}}, nil, nil)
	srv := httptest.NewServer(hub)
	return hub, srv
}

func wsURL(srv *httptest.Server, query string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/?" + query
}

func TestHub_EmitReachesSubscriber(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	hub, srv := startHub(t)
	defer srv.Close()

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, "token=good"), nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Emit("tweets", map[string]string{"text": "hello", "userId": "u1"}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Event   string            `json:"event"`
		Payload map[string]string `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "tweets", msg.Event)
	assert.Equal(t, "hello", msg.Payload["text"])
	assert.Equal(t, "u1", msg.Payload["userId"])

	hub.Close()
	assert.Equal(t, 0, hub.ClientCount())
	assert.ErrorIs(t, hub.Emit("tweets", nil), ErrClosed)
}

func TestHub_RejectsMissingOrBadToken(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	hub, srv := startHub(t)
	defer srv.Close()
	defer hub.Close()

	for _, q := range []string{"", "token=bad"} {
		_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, q), nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, auth.MsgAuthError, body["message"])
		_ = resp.Body.Close()
	}
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_ClientDisconnectUnregisters(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	hub, srv := startHub(t)
	defer srv.Close()
	defer hub.Close()

	header := http.Header{"Authorization": []string{"Bearer good"}}
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, ""), header)
	require.NoError(t, err)
	_ = resp.Body.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_EmitWithoutSubscribers(t *testing.T) {
	hub := NewHub(tokenTable{}, nil, nil)
	defer hub.Close()
	require.NoError(t, hub.Emit("tweets", map[string]string{"text": "nobody listening"}))
}

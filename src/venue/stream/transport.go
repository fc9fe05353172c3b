package stream

import (
	"context"
	"sync"
	"time"

	"chart-bridge/src/interfaces"

	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// WebsocketTransport
//
// The production request gateway: one websocket connection, one read pump.
// The session is the only writer, so Send needs no lock; Close is idempotent
// because the session invokes it on every exit path.
// -----------------------------------------------------------------------------

const (
	dialTimeout  = 10 * time.Second
	writeTimeout = 5 * time.Second
)

type WebsocketTransport struct {
	conn      *websocket.Conn
	events    chan interfaces.MStreamEvent
	closeOnce sync.Once
}

// -----------------------------------------------------------------------------

func NewWebsocketTransport() *WebsocketTransport {
	return &WebsocketTransport{
		events: make(chan interfaces.MStreamEvent, 32),
	}
}

// -----------------------------------------------------------------------------

func (t *WebsocketTransport) Open(ctx context.Context, url string) error {
	dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return err
	}
	t.conn = conn
	t.events <- interfaces.MStreamEvent{Kind: interfaces.StreamOpen}
	go t.readPump()
	return nil
}

// -----------------------------------------------------------------------------

func (t *WebsocketTransport) Send(frame []byte) error {
	if t.conn == nil {
		return websocket.ErrCloseSent
	}
	t.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return t.conn.WriteMessage(websocket.TextMessage, frame)
}

// -----------------------------------------------------------------------------

func (t *WebsocketTransport) Events() <-chan interfaces.MStreamEvent {
	return t.events
}

// -----------------------------------------------------------------------------

func (t *WebsocketTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		if t.conn != nil {
			err = t.conn.Close()
		}
	})
	return err
}

// -----------------------------------------------------------------------------

// readPump forwards inbound text frames until the connection dies, then
// reports the close exactly once and shuts the event stream.
func (t *WebsocketTransport) readPump() {
	for {
		_, message, err := t.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				t.events <- interfaces.MStreamEvent{Kind: interfaces.StreamClosed}
			} else {
				t.events <- interfaces.MStreamEvent{Kind: interfaces.StreamClosed, Err: err}
			}
			close(t.events)
			return
		}
		t.events <- interfaces.MStreamEvent{Kind: interfaces.StreamFrame, Data: message}
	}
}

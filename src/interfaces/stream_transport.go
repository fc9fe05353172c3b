package interfaces

import "context"

// -----------------------------------------------------------------------------
// IStreamTransport is the request gateway the streaming session drives. The
// session only consumes "open", "frame", "error" and "closed" events from
// it and never touches the socket directly.
// -----------------------------------------------------------------------------

type StreamEventKind int

const (
	StreamOpen StreamEventKind = iota
	StreamFrame
	StreamError
	StreamClosed
)

type MStreamEvent struct {
	Kind StreamEventKind
	Data []byte
	Err  error
}

// -----------------------------------------------------------------------------

type IStreamTransport interface {

	// Open dials the venue. Events (including the open notification) are
	// delivered on the Events channel.
	Open(ctx context.Context, url string) error

	// -----------------------------------------------------------------------------

	// Send writes one text frame.
	Send(frame []byte) error

	// -----------------------------------------------------------------------------

	// Events returns the inbound event stream. The channel is closed after a
	// StreamClosed event has been delivered.
	Events() <-chan MStreamEvent

	// -----------------------------------------------------------------------------

	// Close tears the connection down. Must be idempotent: the session calls
	// it on every exit path.
	Close() error
}

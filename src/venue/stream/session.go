package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"chart-bridge/src/helpers"
	"chart-bridge/src/interfaces"
	"chart-bridge/src/logger"
	"chart-bridge/src/models"
)

// -----------------------------------------------------------------------------
// SessionState
//
// Transitions are monotonic (heartbeats never touch the state). Failed and
// Closed are reachable from any non-terminal state; the failure reason on a
// remote close is derived from the last state reached.
// -----------------------------------------------------------------------------

type SessionState int

const (
	StateIdle SessionState = iota
	StateConnecting
	StateSocketOpen
	StateHandshakeComplete
	StateAuthenticating
	StateAuthenticated
	StateRequestingData
	StateCompleted
	StateFailed
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateSocketOpen:
		return "socket-open"
	case StateHandshakeComplete:
		return "handshake-complete"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateRequestingData:
		return "requesting-data"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// StreamingSession
//
// Owns one streaming connection's lifecycle: connect, handshake,
// authenticate, request, accumulate, settle. A single goroutine (the
// FetchBars caller) runs the event loop, so state, timer and buffer need no
// locking. Exactly one of {bars, typed error, cancelled} settles the
// session, and cleanup (timer, heartbeat, transport) runs on every exit
// path.
// -----------------------------------------------------------------------------

type StreamingSession struct {
	Config    *models.MConfig
	Logger    *logger.Logger
	transport interfaces.IStreamTransport

	timer      *PhaseTimer
	state      SessionState
	socketOpen bool
	corrID     int64
	buffer     []models.MBarRaw

	settled    bool
	resultBars []models.MBar
	resultErr  error

	abort     chan struct{}
	abortOnce sync.Once
}

// -----------------------------------------------------------------------------

func NewStreamingSession(cfg *models.MConfig, transport interfaces.IStreamTransport, log *logger.Logger) *StreamingSession {
	return &StreamingSession{
		Config:    cfg,
		Logger:    log,
		transport: transport,
		timer:     NewPhaseTimer(),
		state:     StateIdle,
		abort:     make(chan struct{}),
	}
}

// -----------------------------------------------------------------------------

// Abort settles the session with a Cancelled outcome and performs the same
// cleanup as a timeout, so a caller navigating away mid-fetch leaks neither
// a socket nor a timer.
func (s *StreamingSession) Abort() {
	s.abortOnce.Do(func() { close(s.abort) })
}

// -----------------------------------------------------------------------------

// State exposes the current phase (heartbeat logging, tests).
func (s *StreamingSession) State() SessionState {
	return s.state
}

// -----------------------------------------------------------------------------

// FetchBars drives the full exchange and blocks until the session settles.
func (s *StreamingSession) FetchBars(ctx context.Context, token, symbol, interval string) ([]models.MBar, error) {
	phase := time.Duration(s.Config.Stream.PhaseTimeoutSeconds) * time.Second
	authDelay := time.Duration(s.Config.Stream.AuthDelayMs) * time.Millisecond

	heartbeat := time.NewTicker(time.Duration(s.Config.Stream.HeartbeatSeconds) * time.Second)
	defer heartbeat.Stop()
	defer s.cleanup()

	s.state = StateConnecting
	s.timer.Arm(TimerConnect, phase)

	if err := s.transport.Open(ctx, s.Config.Venue.WsURL); err != nil {
		s.fail(&helpers.FetchError{ChartBridgeError: helpers.ChartBridgeError{
			Message: "failed to connect to venue",
			Cause:   err,
		}})
		return nil, s.resultErr
	}

	events := s.transport.Events()

	for !s.settled {
		select {
		case <-ctx.Done():
			s.cancel(ctx.Err())

		case <-s.abort:
			s.cancel(nil)

		case kind := <-s.timer.Fired():
			// A fire that raced the next phase's Arm carries a stale kind.
			if !s.timer.Live(kind) {
				continue
			}
			s.onTimer(kind, token, symbol, interval, phase)

		case <-heartbeat.C:
			s.sendHeartbeat()

		case ev, ok := <-events:
			if !ok {
				s.onClosed(nil)
				continue
			}
			s.onEvent(ev, symbol, interval, phase, authDelay)
		}
	}

	return s.resultBars, s.resultErr
}

// -----------------------------------------------------------------------------
// Timers
// -----------------------------------------------------------------------------

func (s *StreamingSession) onTimer(kind TimerKind, token, symbol, interval string, phase time.Duration) {
	switch kind {
	case TimerConnect:
		s.fail(&helpers.ConnectionTimeoutError{ChartBridgeError: helpers.ChartBridgeError{
			Message: fmt.Sprintf("no handshake within %s", phase),
		}})

	case TimerAuthDelay:
		// The venue rejects an authorize sent in the same tick as the
		// handshake, hence the inserted delay.
		s.sendAuthorize(token, phase)

	case TimerAuth:
		s.fail(&helpers.AuthTimeoutError{ChartBridgeError: helpers.ChartBridgeError{
			Message: fmt.Sprintf("no authorization response within %s", phase),
		}})

	case TimerData:
		s.fail(&helpers.DataRequestTimeoutError{ChartBridgeError: helpers.ChartBridgeError{
			Message: fmt.Sprintf("no historical data within %s", phase),
		}})
	}
}

// -----------------------------------------------------------------------------
// Transport Events
// -----------------------------------------------------------------------------

func (s *StreamingSession) onEvent(ev interfaces.MStreamEvent, symbol, interval string, phase, authDelay time.Duration) {
	switch ev.Kind {
	case interfaces.StreamOpen:
		if s.state == StateConnecting {
			s.state = StateSocketOpen
			s.socketOpen = true
		}

	case interfaces.StreamFrame:
		s.onFrame(ev.Data, symbol, interval, phase, authDelay)

	case interfaces.StreamError, interfaces.StreamClosed:
		s.onClosed(ev.Err)
	}
}

// -----------------------------------------------------------------------------

func (s *StreamingSession) onFrame(data []byte, symbol, interval string, phase, authDelay time.Duration) {
	frame := string(data)

	// Heartbeats are consumed silently in any state, echoed while the
	// transport is open, and never touch the state machine or its timers.
	if frame == models.FrameHeartbeat {
		if s.socketOpen {
			if err := s.transport.Send([]byte(models.FrameHeartbeat)); err != nil {
				s.Logger.Debug("Heartbeat echo failed: %v", err)
			}
		}
		return
	}

	if s.state == StateSocketOpen {
		if frame != models.FrameHandshake {
			s.fail(&helpers.ProtocolError{ChartBridgeError: helpers.ChartBridgeError{
				Message: fmt.Sprintf("expected handshake marker as first frame, got %q", truncate(frame, 64)),
			}})
			return
		}
		s.state = StateHandshakeComplete
		s.timer.Arm(TimerAuthDelay, authDelay)
		return
	}

	s.onJSONFrame(data, symbol, interval, phase)
}

// -----------------------------------------------------------------------------

func (s *StreamingSession) onJSONFrame(data []byte, symbol, interval string, phase time.Duration) {
	var envelope models.MEventEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		s.fail(&helpers.ProtocolError{ChartBridgeError: helpers.ChartBridgeError{
			Message: "malformed frame",
			Cause:   err,
		}})
		return
	}

	switch envelope.Event {
	case models.EventAuthorize:
		// Out-of-phase responses are a non-event, not a transition.
		if s.state != StateAuthenticating {
			s.Logger.Debug("Ignoring authorize response in state %s", s.state)
			return
		}
		s.onAuthorizeResponse(data, symbol, interval, phase)

	case models.EventHistoricalData:
		if s.state != StateRequestingData {
			s.Logger.Debug("Ignoring historical data frame in state %s", s.state)
			return
		}
		s.onHistoricalFrame(data)

	default:
		s.fail(&helpers.ProtocolError{ChartBridgeError: helpers.ChartBridgeError{
			Message: fmt.Sprintf("unexpected event %q", envelope.Event),
		}})
	}
}

// -----------------------------------------------------------------------------

func (s *StreamingSession) onAuthorizeResponse(data []byte, symbol, interval string, phase time.Duration) {
	var resp models.MAuthorizeResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		s.fail(&helpers.ProtocolError{ChartBridgeError: helpers.ChartBridgeError{
			Message: "malformed authorize response",
			Cause:   err,
		}})
		return
	}

	if !resp.Success {
		message := resp.Error
		if message == "" {
			message = "venue rejected authorization"
		}
		s.fail(&helpers.AuthenticationError{ChartBridgeError: helpers.ChartBridgeError{
			Message: message,
		}})
		return
	}

	s.state = StateAuthenticated
	s.sendHistoricalRequest(symbol, interval, phase)
}

// -----------------------------------------------------------------------------

func (s *StreamingSession) onHistoricalFrame(data []byte) {
	var resp models.MHistoricalResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		s.fail(&helpers.ProtocolError{ChartBridgeError: helpers.ChartBridgeError{
			Message: "malformed historical data frame",
			Cause:   err,
		}})
		return
	}

	if resp.ID != s.corrID {
		s.Logger.Debug("Dropping frame with foreign correlation id %d (want %d)", resp.ID, s.corrID)
		return
	}

	// An error frame fails the session regardless of accumulated partial
	// data; there is no partial-success contract.
	if resp.Error != "" {
		s.fail(&helpers.FetchError{ChartBridgeError: helpers.ChartBridgeError{
			Message: resp.Error,
		}})
		return
	}

	s.buffer = append(s.buffer, resp.D...)

	if !resp.Completed {
		return
	}

	bars, err := NormalizeSeries(s.buffer)
	if err != nil {
		s.fail(err)
		return
	}
	s.complete(bars)
}

// -----------------------------------------------------------------------------
// Outbound Frames
// -----------------------------------------------------------------------------

func (s *StreamingSession) sendHeartbeat() {
	if !s.socketOpen || s.settled {
		return
	}
	if err := s.transport.Send([]byte(models.FrameHeartbeat)); err != nil {
		s.Logger.Debug("Heartbeat send failed: %v", err)
	}
}

// -----------------------------------------------------------------------------

func (s *StreamingSession) sendAuthorize(token string, phase time.Duration) {
	payload, _ := json.Marshal(models.MAuthorizeRequest{
		Event: models.EventAuthorize,
		Token: token,
		Md:    true,
	})
	if err := s.transport.Send(payload); err != nil {
		s.fail(&helpers.FetchError{ChartBridgeError: helpers.ChartBridgeError{
			Message: "failed to send authorize frame",
			Cause:   err,
		}})
		return
	}
	s.state = StateAuthenticating
	s.timer.Arm(TimerAuth, phase)
}

// -----------------------------------------------------------------------------

func (s *StreamingSession) sendHistoricalRequest(symbol, interval string, phase time.Duration) {
	chart, err := chartDescriptorFor(interval)
	if err != nil {
		s.fail(err)
		return
	}

	// Correlation id derived from current time so overlapping sessions on
	// fresh connections never collide.
	s.corrID = time.Now().UnixNano()

	root, maturity := splitMaturity(symbol)
	payload, _ := json.Marshal(models.MHistoricalRequest{
		Event:    models.EventHistoricalReq,
		Symbol:   root,
		Maturity: maturity,
		Chart:    chart,
		ID:       s.corrID,
	})
	if err := s.transport.Send(payload); err != nil {
		s.fail(&helpers.FetchError{ChartBridgeError: helpers.ChartBridgeError{
			Message: "failed to send historical data request",
			Cause:   err,
		}})
		return
	}

	s.state = StateRequestingData
	s.timer.Arm(TimerData, phase)
}

// -----------------------------------------------------------------------------
// Close Mapping
// -----------------------------------------------------------------------------

// onClosed maps a remote close onto a failure derived from the last state
// reached, so callers can tell a transient network drop from a venue-side
// rejection.
func (s *StreamingSession) onClosed(cause error) {
	if s.settled {
		return
	}

	switch s.state {
	case StateConnecting:
		s.fail(&helpers.FetchError{ChartBridgeError: helpers.ChartBridgeError{
			Message: "connection closed before socket open",
			Cause:   cause,
		}})

	case StateSocketOpen:
		s.fail(&helpers.ProtocolError{ChartBridgeError: helpers.ChartBridgeError{
			Message: "connection closed before handshake",
			Cause:   cause,
		}})

	case StateHandshakeComplete, StateAuthenticating:
		s.fail(&helpers.AuthenticationError{ChartBridgeError: helpers.ChartBridgeError{
			Message: "connection closed before authentication completed",
			Cause:   cause,
		}})

	case StateAuthenticated, StateRequestingData:
		if len(s.buffer) == 0 {
			s.fail(&helpers.EmptyResultError{ChartBridgeError: helpers.ChartBridgeError{
				Message: "venue closed the connection with no data",
				Cause:   cause,
			}})
		} else {
			s.fail(&helpers.ProtocolError{ChartBridgeError: helpers.ChartBridgeError{
				Message: "connection closed before the series completed",
				Cause:   cause,
			}})
		}

	default:
		s.fail(&helpers.FetchError{ChartBridgeError: helpers.ChartBridgeError{
			Message: "connection closed",
			Cause:   cause,
		}})
	}
}

// -----------------------------------------------------------------------------
// Settlement
// -----------------------------------------------------------------------------

func (s *StreamingSession) fail(err error) {
	if s.settled {
		return
	}
	s.state = StateFailed
	s.resultErr = err
	s.settled = true
	s.cleanup()
}

func (s *StreamingSession) complete(bars []models.MBar) {
	if s.settled {
		return
	}
	s.state = StateCompleted
	s.resultBars = bars
	s.settled = true
	s.cleanup()
}

func (s *StreamingSession) cancel(cause error) {
	if s.settled {
		return
	}
	s.state = StateClosed
	s.resultErr = &helpers.CancelledError{ChartBridgeError: helpers.ChartBridgeError{
		Message: "bar fetch cancelled",
		Cause:   cause,
	}}
	s.settled = true
	s.cleanup()
}

// cleanup is idempotent and runs on every exit path, success included.
func (s *StreamingSession) cleanup() {
	s.timer.Stop()
	s.socketOpen = false
	if err := s.transport.Close(); err != nil {
		s.Logger.Debug("Transport close: %v", err)
	}
}

// -----------------------------------------------------------------------------
// Request Shaping
// -----------------------------------------------------------------------------

// chartDescriptorFor expects an already-normalized interval ("1D", "1W" or
// "<N>min").
func chartDescriptorFor(interval string) (models.MChartDescriptor, error) {
	switch {
	case interval == "1D":
		return models.MChartDescriptor{UnderlyingType: "DailyBar", ElementSize: 1, ElementSizeUnit: "Day"}, nil
	case interval == "1W":
		return models.MChartDescriptor{UnderlyingType: "WeeklyBar", ElementSize: 1, ElementSizeUnit: "Week"}, nil
	case strings.HasSuffix(interval, "min"):
		minutes, err := strconv.Atoi(strings.TrimSuffix(interval, "min"))
		if err != nil || minutes <= 0 {
			return models.MChartDescriptor{}, &helpers.ValidationError{ChartBridgeError: helpers.ChartBridgeError{
				Message: fmt.Sprintf("invalid interval %q", interval),
			}}
		}
		return models.MChartDescriptor{UnderlyingType: "MinuteBar", ElementSize: minutes, ElementSizeUnit: "Min"}, nil
	default:
		return models.MChartDescriptor{}, &helpers.ValidationError{ChartBridgeError: helpers.ChartBridgeError{
			Message: fmt.Sprintf("invalid interval %q", interval),
		}}
	}
}

// -----------------------------------------------------------------------------

var futuresMonthCodes = "FGHJKMNQUVXZ"

// splitMaturity separates a futures contract code ("ESU5") into root and
// maturity. Symbols without a month-code suffix pass through unchanged.
func splitMaturity(symbol string) (string, string) {
	if len(symbol) < 4 {
		return symbol, ""
	}
	last := symbol[len(symbol)-1]
	month := symbol[len(symbol)-2]
	if last >= '0' && last <= '9' && strings.ContainsRune(futuresMonthCodes, rune(month)) {
		return symbol[:len(symbol)-2], symbol[len(symbol)-2:]
	}
	return symbol, ""
}

// -----------------------------------------------------------------------------

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

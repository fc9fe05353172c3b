package stream

import "time"

// -----------------------------------------------------------------------------
// PhaseTimer
//
// One owned timer handle per session. Arming a phase replaces (clears, then
// sets) whatever the previous phase armed, so there is never more than one
// live timer. The session goroutine is the only caller of Arm/Stop and the
// only reader of Fired; a fire that raced an Arm is detected by comparing the
// delivered kind against the currently armed one.
// -----------------------------------------------------------------------------

type TimerKind int

const (
	TimerNone TimerKind = iota
	TimerConnect
	TimerAuthDelay
	TimerAuth
	TimerData
)

func (k TimerKind) String() string {
	switch k {
	case TimerConnect:
		return "connect"
	case TimerAuthDelay:
		return "auth-delay"
	case TimerAuth:
		return "auth"
	case TimerData:
		return "data"
	default:
		return "none"
	}
}

// -----------------------------------------------------------------------------

type PhaseTimer struct {
	timer *time.Timer
	fired chan TimerKind
	armed TimerKind
}

func NewPhaseTimer() *PhaseTimer {
	return &PhaseTimer{
		fired: make(chan TimerKind, 1),
	}
}

// -----------------------------------------------------------------------------

// Arm replaces the live timer with one for the given phase.
func (p *PhaseTimer) Arm(kind TimerKind, d time.Duration) {
	p.Stop()
	p.armed = kind
	p.timer = time.AfterFunc(d, func() {
		select {
		case p.fired <- kind:
		default:
		}
	})
}

// -----------------------------------------------------------------------------

// Stop clears the live timer and discards any undelivered fire.
func (p *PhaseTimer) Stop() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.armed = TimerNone
	select {
	case <-p.fired:
	default:
	}
}

// -----------------------------------------------------------------------------

// Fired delivers at most one pending fire.
func (p *PhaseTimer) Fired() <-chan TimerKind {
	return p.fired
}

// -----------------------------------------------------------------------------

// Live reports whether a delivered fire is still current. A fire queued just
// before the session armed the next phase carries the stale kind and must be
// ignored.
func (p *PhaseTimer) Live(kind TimerKind) bool {
	return p.armed == kind
}

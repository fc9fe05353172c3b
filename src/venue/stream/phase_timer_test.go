package stream

import (
	"testing"
	"time"
)

// -----------------------------------------------------------------------------

func TestPhaseTimerFires(t *testing.T) {
	timer := NewPhaseTimer()
	timer.Arm(TimerConnect, 10*time.Millisecond)

	select {
	case kind := <-timer.Fired():
		if kind != TimerConnect {
			t.Fatalf("expected connect fire, got %s", kind)
		}
		if !timer.Live(kind) {
			t.Error("fire of the armed kind should be live")
		}
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}
}

// -----------------------------------------------------------------------------

func TestPhaseTimerArmReplacesPrevious(t *testing.T) {
	timer := NewPhaseTimer()
	timer.Arm(TimerConnect, 10*time.Millisecond)
	timer.Arm(TimerAuth, 50*time.Millisecond)

	select {
	case kind := <-timer.Fired():
		if kind != TimerAuth {
			t.Fatalf("expected only the auth phase to fire, got %s", kind)
		}
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}

	select {
	case kind := <-timer.Fired():
		t.Fatalf("unexpected second fire: %s", kind)
	case <-time.After(100 * time.Millisecond):
	}
}

// -----------------------------------------------------------------------------

func TestPhaseTimerStaleFireIsNotLive(t *testing.T) {
	timer := NewPhaseTimer()
	timer.Arm(TimerConnect, time.Millisecond)

	// Leave the connect fire queued, then move to the next phase.
	time.Sleep(20 * time.Millisecond)
	timer.armed = TimerAuth

	select {
	case kind := <-timer.Fired():
		if timer.Live(kind) {
			t.Error("a fire queued for a replaced phase must not be live")
		}
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}
}

// -----------------------------------------------------------------------------

func TestPhaseTimerStopDiscardsPendingFire(t *testing.T) {
	timer := NewPhaseTimer()
	timer.Arm(TimerData, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	timer.Stop()

	select {
	case kind := <-timer.Fired():
		t.Fatalf("expected the pending fire to be discarded, got %s", kind)
	case <-time.After(50 * time.Millisecond):
	}
	if timer.Live(TimerData) {
		t.Error("nothing should be live after Stop")
	}
}

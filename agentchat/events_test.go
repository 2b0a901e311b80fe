package agentchat

import (
	"testing"
	"time"
)

func TestEmitterDeliversInOrder(t *testing.T) {
	emitter := NewEventEmitter("s1", 8)

	emitter.Emit(TokenEvent("a"))
	emitter.Emit(TokenEvent("b"))
	emitter.Emit(DoneEvent(nil))
	emitter.Close()

	var kinds []EventKind
	var text string
	for ev := range emitter.Events() {
		kinds = append(kinds, ev.Kind)
		text += ev.Text
		if ev.SessionID != "s1" {
			t.Errorf("event missing session id: %+v", ev)
		}
		if ev.Timestamp.IsZero() {
			t.Error("event missing timestamp")
		}
	}

	if len(kinds) != 3 || kinds[2] != EventDone {
		t.Fatalf("unexpected event sequence: %v", kinds)
	}
	if text != "ab" {
		t.Errorf("expected text ab, got %q", text)
	}
}

func TestEmitterBlocksInsteadOfDropping(t *testing.T) {
	emitter := NewEventEmitter("s1", 1)

	produced := make(chan struct{})
	go func() {
		emitter.Emit(TokenEvent("1"))
		emitter.Emit(TokenEvent("2")) // blocks until the consumer reads
		emitter.Emit(TokenEvent("3"))
		emitter.Close()
		close(produced)
	}()

	// Let the producer fill the buffer and block.
	time.Sleep(20 * time.Millisecond)

	var got []string
	for ev := range emitter.Events() {
		got = append(got, ev.Text)
	}
	<-produced

	if len(got) != 3 {
		t.Fatalf("expected all 3 events, got %v", got)
	}
}

func TestEmitterCancelReleasesBlockedProducer(t *testing.T) {
	emitter := NewEventEmitter("s1", 1)

	done := make(chan struct{})
	go func() {
		emitter.Emit(TokenEvent("1"))
		emitter.Emit(TokenEvent("2")) // blocks, no consumer
		emitter.Emit(TokenEvent("3")) // discarded after cancel
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	emitter.Cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Cancel did not release the blocked producer")
	}
}

func TestEmitterCancelIdempotent(t *testing.T) {
	emitter := NewEventEmitter("s1", 1)
	emitter.Cancel()
	emitter.Cancel()

	select {
	case <-emitter.Cancelled():
	default:
		t.Error("Cancelled channel should be closed")
	}
}

func TestEmitterEmitAfterCancelDiscarded(t *testing.T) {
	emitter := NewEventEmitter("s1", 4)
	emitter.Cancel()
	emitter.Emit(TokenEvent("late"))
	emitter.Close()

	for range emitter.Events() {
		t.Error("no events should be delivered after Cancel")
	}
}

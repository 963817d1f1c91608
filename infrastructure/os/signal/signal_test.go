package signal

import (
	"testing"
	"time"
)

func TestInterruptListenerShutdownRequest(t *testing.T) {
	interrupt := InterruptListener()
	if InterruptRequested(interrupt) {
		t.Fatalf("TestInterruptListenerShutdownRequest: interrupted before any request")
	}

	ShutdownRequestChannel <- struct{}{}

	select {
	case <-interrupt:
	case <-time.After(5 * time.Second):
		t.Fatalf("TestInterruptListenerShutdownRequest: interrupt channel wasn't closed")
	}
	if !InterruptRequested(interrupt) {
		t.Fatalf("TestInterruptListenerShutdownRequest: InterruptRequested should be true after shutdown")
	}
}

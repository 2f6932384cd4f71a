//go:build !nng && !zmq
// +build !nng,!zmq

package announce

import (
	"errors"
	"testing"
)

// TestNewPublisher_NoTransport tests the default build configuration
func TestNewPublisher_NoTransport(t *testing.T) {
	p, err := NewPublisher("tcp://127.0.0.1:9410")
	if !errors.Is(err, ErrTransportUnavailable) {
		t.Errorf("Expected ErrTransportUnavailable, got %v", err)
	}
	if p != nil {
		t.Errorf("Expected nil publisher, got %v", p)
	}
}

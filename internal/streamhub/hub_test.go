package streamhub

import (
	"encoding/json"
	"testing"
	"time"

	"arbitrage/internal/trade"
)

func TestNewHub(t *testing.T) {
	hub := NewHub()
	if hub == nil {
		t.Fatal("NewHub returned nil")
	}
	if hub.ClientCount() != 0 {
		t.Errorf("expected 0 clients, got %d", hub.ClientCount())
	}
}

func TestOriginChecker_Check(t *testing.T) {
	checker := &OriginChecker{
		allowedOrigins: map[string]struct{}{
			"http://localhost:3000": {},
		},
		allowAll: false,
	}

	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://localhost:3000", true},
		{"http://evil.com", false},
	}

	for _, tt := range tests {
		if got := checker.Check(tt.origin); got != tt.want {
			t.Errorf("Check(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}
}

func TestOriginChecker_AllowAll(t *testing.T) {
	checker := &OriginChecker{allowAll: true}
	if !checker.Check("https://anything.example.org") {
		t.Error("allowAll=true but Check returned false")
	}
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := &Client{hub: hub, send: make(chan []byte, clientSendBufferSize)}
	hub.register <- client
	time.Sleep(10 * time.Millisecond)
	if hub.ClientCount() != 1 {
		t.Fatalf("expected 1 client after register, got %d", hub.ClientCount())
	}

	hub.unregister <- client
	time.Sleep(10 * time.Millisecond)
	if hub.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unregister, got %d", hub.ClientCount())
	}
}

func TestHub_PublishFansOutCandidatesMessage(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := &Client{hub: hub, send: make(chan []byte, clientSendBufferSize)}
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	chain := trade.Chain{
		trade.New("m", "USD", "BTC", 1000, 50000, 0.02),
		trade.New("m", "BTC", "USD", 0.02, 50000, 1.05),
	}
	hub.Publish([]trade.Chain{chain})

	select {
	case msg := <-client.send:
		var decoded CandidatesMessage
		if err := json.Unmarshal(msg, &decoded); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if decoded.Type != MessageTypeCandidates {
			t.Errorf("expected type %q, got %q", MessageTypeCandidates, decoded.Type)
		}
		if len(decoded.Candidates) != 1 {
			t.Fatalf("expected 1 candidate, got %d", len(decoded.Candidates))
		}
		if len(decoded.Candidates[0].Steps) != 2 {
			t.Errorf("expected 2 steps, got %d", len(decoded.Candidates[0].Steps))
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast message")
	}
}

func TestHub_SlowClientEvicted(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := &Client{hub: hub, send: make(chan []byte)} // unbuffered, never drained
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	hub.Publish(nil)
	hub.Publish(nil)

	time.Sleep(50 * time.Millisecond)
	if hub.ClientCount() != 0 {
		t.Errorf("expected slow client to be evicted, got %d clients", hub.ClientCount())
	}
}

func TestNewCandidatesMessage_Empty(t *testing.T) {
	msg := NewCandidatesMessage(nil)
	if msg.Type != MessageTypeCandidates {
		t.Errorf("unexpected type %q", msg.Type)
	}
	if len(msg.Candidates) != 0 {
		t.Errorf("expected 0 candidates, got %d", len(msg.Candidates))
	}
}

package alert

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

func waitAlert(t *testing.T, ch <-chan []byte) SafetyAlert {
	t.Helper()
	select {
	case msg := <-ch:
		var a SafetyAlert
		if err := json.Unmarshal(msg, &a); err != nil {
			t.Fatalf("unmarshal alert: %v", err)
		}
		return a
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for alert")
		return SafetyAlert{}
	}
}

func TestHubBroadcastsToAllConnections(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()
	defer hub.Shutdown()

	first := &Connection{AdminID: uuid.New(), Send: make(chan []byte, 4)}
	second := &Connection{AdminID: uuid.New(), Send: make(chan []byte, 4)}
	hub.Register(first)
	hub.Register(second)

	// Register hands the connection to Run asynchronously; wait until
	// both landed before broadcasting.
	deadline := time.Now().Add(2 * time.Second)
	for hub.GetConnectionCount() != 2 {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for registrations")
		}
		time.Sleep(5 * time.Millisecond)
	}

	pub := NewPublisher(nil, hub)
	sent := New(KindMinorContact, uuid.New(), "CRITICAL", "contact attempt on a minor account")
	pub.Publish(context.Background(), sent)

	for _, conn := range []*Connection{first, second} {
		got := waitAlert(t, conn.Send)
		if got.Kind != KindMinorContact {
			t.Errorf("expected kind %s, got %s", KindMinorContact, got.Kind)
		}
		if got.UserID != sent.UserID {
			t.Errorf("expected user %s, got %s", sent.UserID, got.UserID)
		}
	}
}

func TestHubUnregisterStopsDelivery(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()
	defer hub.Shutdown()

	conn := &Connection{AdminID: uuid.New(), Send: make(chan []byte, 4)}
	hub.Register(conn)
	hub.Unregister(conn)

	// Unregister closes Send; wait for it so the broadcast below cannot race.
	select {
	case _, ok := <-conn.Send:
		if ok {
			t.Fatal("expected closed send channel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for unregister")
	}

	if n := hub.GetConnectionCount(); n != 0 {
		t.Fatalf("expected 0 connections, got %d", n)
	}

	pub := NewPublisher(nil, hub)
	pub.Publish(context.Background(), New(KindRiskLevelChange, uuid.New(), "HIGH", ""))
}

func TestNopPublisherDiscards(t *testing.T) {
	NopPublisher{}.Publish(context.Background(), New(KindPermanentBlock, uuid.New(), "", ""))
}

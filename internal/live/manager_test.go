package live

import (
	"strconv"
	"sync"
	"testing"

	"github.com/coder/websocket"
)

func TestManager_Register(t *testing.T) {
	m := NewManager()
	conn := &websocket.Conn{}

	m.Register("session-1", conn)

	if active := m.GetActive("session-1"); active != conn {
		t.Errorf("Expected connection %v, got %v", conn, active)
	}
}

func TestManager_Unregister(t *testing.T) {
	m := NewManager()
	conn := &websocket.Conn{}

	m.Register("session-1", conn)
	m.Unregister("session-1", conn)

	if active := m.GetActive("session-1"); active != nil {
		t.Errorf("Expected nil connection, got %v", active)
	}
}

func TestManager_UnregisterStale(t *testing.T) {
	m := NewManager()
	conn1 := &websocket.Conn{}
	conn2 := &websocket.Conn{}

	m.Register("session-1", conn1)
	m.Register("session-2", conn2)

	// A stale unregister must not drop another session's connection.
	m.Unregister("session-2", conn1)

	if active := m.GetActive("session-2"); active != conn2 {
		t.Errorf("Expected connection %v, got %v", conn2, active)
	}
	if m.Count() != 2 {
		t.Errorf("Expected 2 connections, got %d", m.Count())
	}
}

func TestManager_CloseUnknownSession(t *testing.T) {
	m := NewManager()
	m.CloseSession("missing")
	if m.Count() != 0 {
		t.Errorf("Expected no connections, got %d", m.Count())
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	m := NewManager()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			m.Register("session-"+strconv.Itoa(i), &websocket.Conn{})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			m.GetActive("session-" + strconv.Itoa(i))
		}
	}()
	wg.Wait()

	if m.Count() != 1000 {
		t.Errorf("Expected 1000 connections, got %d", m.Count())
	}
}

package connectivity

import (
	"testing"
)

func TestManualInitialState(t *testing.T) {
	if !NewManual(true).Online() {
		t.Error("expected online")
	}
	if NewManual(false).Online() {
		t.Error("expected offline")
	}
}

func TestManualNotifiesOnChangeOnly(t *testing.T) {
	m := NewManual(true)

	var got []bool
	unsub := m.Subscribe(func(online bool) {
		got = append(got, online)
	})
	defer unsub()

	m.SetOnline(true) // no change
	m.SetOnline(false)
	m.SetOnline(false) // no change
	m.SetOnline(true)

	if len(got) != 2 {
		t.Fatalf("notifications = %d, want 2 (change only)", len(got))
	}
	if got[0] != false || got[1] != true {
		t.Errorf("got %v, want [false true]", got)
	}
}

func TestManualUnsubscribe(t *testing.T) {
	m := NewManual(true)

	calls := 0
	unsub := m.Subscribe(func(bool) { calls++ })
	m.SetOnline(false)
	unsub()
	m.SetOnline(true)

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestManualMultipleSubscribers(t *testing.T) {
	m := NewManual(true)

	a, b := 0, 0
	m.Subscribe(func(bool) { a++ })
	m.Subscribe(func(bool) { b++ })
	m.SetOnline(false)

	if a != 1 || b != 1 {
		t.Errorf("a = %d, b = %d, want both 1", a, b)
	}
}

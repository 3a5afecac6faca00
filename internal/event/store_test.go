package event

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func testEvent(ip string, threat bool) Event {
	return Event{
		ID:          "ev-" + ip,
		Timestamp:   time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		SourceIP:    ip,
		Description: "failed login",
		Country:     "Unknown",
		City:        "Unknown",
		IsThreat:    threat,
	}
}

func TestStoreInsertionOrder(t *testing.T) {
	s := NewStore()
	ips := []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"}
	for _, ip := range ips {
		s.Append(testEvent(ip, false))
	}

	got := s.All()
	if len(got) != len(ips) {
		t.Fatalf("All() returned %d events, want %d", len(got), len(ips))
	}
	for i, ip := range ips {
		if got[i].SourceIP != ip {
			t.Errorf("All()[%d].SourceIP = %q, want %q", i, got[i].SourceIP, ip)
		}
	}
}

func TestStoreSnapshotIsolation(t *testing.T) {
	s := NewStore()
	s.Append(testEvent("10.0.0.1", false))

	snap := s.All()
	s.Append(testEvent("10.0.0.2", false))

	if len(snap) != 1 {
		t.Fatalf("snapshot grew after a later append: len = %d, want 1", len(snap))
	}

	// Mutating the snapshot must not leak into the store.
	snap[0].SourceIP = "mutated"
	if s.All()[0].SourceIP != "10.0.0.1" {
		t.Error("mutating a snapshot changed the stored event")
	}
}

func TestStoreThreats(t *testing.T) {
	s := NewStore()
	s.Append(testEvent("1.1.1.1", false))
	s.Append(testEvent("185.60.216.35", true))
	s.Append(testEvent("8.8.8.8", false))
	s.Append(testEvent("103.21.244.0", true))

	threats := s.Threats()
	if len(threats) != 2 {
		t.Fatalf("Threats() returned %d events, want 2", len(threats))
	}
	if threats[0].SourceIP != "185.60.216.35" || threats[1].SourceIP != "103.21.244.0" {
		t.Errorf("Threats() order = [%s %s], want insertion order preserved",
			threats[0].SourceIP, threats[1].SourceIP)
	}
	for _, ev := range threats {
		if !ev.IsThreat {
			t.Errorf("Threats() returned non-threat event %s", ev.SourceIP)
		}
	}
}

func TestStoreConcurrentAppend(t *testing.T) {
	const n = 100
	s := NewStore()

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Append(testEvent(fmt.Sprintf("10.0.%d.%d", i/256, i%256), i%2 == 0))
		}(i)
	}
	wg.Wait()

	if got := s.Len(); got != n {
		t.Fatalf("Len() = %d after %d concurrent appends, want %d", got, n, n)
	}

	seen := make(map[string]bool, n)
	for _, ev := range s.All() {
		if seen[ev.SourceIP] {
			t.Errorf("duplicate event for %s", ev.SourceIP)
		}
		seen[ev.SourceIP] = true
	}
	if len(seen) != n {
		t.Errorf("stored %d distinct addresses, want %d", len(seen), n)
	}
}

func TestStoreConcurrentReadWrite(t *testing.T) {
	s := NewStore()
	done := make(chan struct{})

	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			s.Append(testEvent(fmt.Sprintf("10.1.%d.%d", i/256, i%256), true))
		}
	}()

	// Reads racing with the writer must always observe a consistent prefix.
	for i := 0; i < 50; i++ {
		snap := s.All()
		for j := 1; j < len(snap); j++ {
			if snap[j].SourceIP == snap[j-1].SourceIP {
				t.Fatalf("snapshot contains adjacent duplicate %s", snap[j].SourceIP)
			}
		}
	}
	<-done

	if got := s.Len(); got != 200 {
		t.Fatalf("Len() = %d, want 200", got)
	}
}

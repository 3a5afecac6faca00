package alert

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"siemlite/internal/event"
)

type sendCall struct {
	subject string
	body    string
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []sendCall
	err   error
}

func (f *fakeNotifier) Send(subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, sendCall{subject: subject, body: body})
	return f.err
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeNotifier) call(i int) sendCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[i]
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func threatEvent(addr string) event.Event {
	return event.Event{
		ID:          "ev-" + addr,
		Timestamp:   time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		SourceIP:    addr,
		Description: "port scan detected",
		Country:     "Netherlands",
		City:        "Amsterdam",
		IsThreat:    true,
	}
}

// waitForLedgerEntry blocks until the worker has recorded a successful
// send for addr, so follow-up dispatches see a settled ledger.
func waitForLedgerEntry(t *testing.T, d *Dispatcher, addr string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		d.mu.Lock()
		_, ok := d.lastSent[addr]
		d.mu.Unlock()
		if ok {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("no ledger entry for %s within 2s", addr)
}

func waitForSends(t *testing.T, f *fakeNotifier, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if f.count() >= n {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("notifier saw %d sends within 2s, want %d", f.count(), n)
}

func TestDispatcherFirstDispatchSends(t *testing.T) {
	f := &fakeNotifier{}
	d := New(f, Options{Enabled: true, Cooldown: 10 * time.Minute})

	d.MaybeDispatch(threatEvent("185.60.216.35"))
	d.Close()

	if f.count() != 1 {
		t.Fatalf("notifier saw %d sends, want 1", f.count())
	}
	got := f.call(0)
	if got.subject != "SIEM Lite Alert: Suspicious IP 185.60.216.35" {
		t.Errorf("subject = %q", got.subject)
	}
	for _, line := range []string{
		"Suspicious event detected",
		"Timestamp: 2026-03-14 09:26:53",
		"IP: 185.60.216.35",
		"Event: port scan detected",
		"Country: Netherlands",
		"City: Amsterdam",
		"This is an automated alert from your SIEM Lite.",
	} {
		if !strings.Contains(got.body, line) {
			t.Errorf("body missing %q:\n%s", line, got.body)
		}
	}
}

func TestDispatcherSuppressesWithinCooldown(t *testing.T) {
	f := &fakeNotifier{}
	clock := newFakeClock()
	d := New(f, Options{Enabled: true, Cooldown: 10 * time.Minute})
	d.now = clock.Now

	d.MaybeDispatch(threatEvent("185.60.216.35"))
	waitForLedgerEntry(t, d, "185.60.216.35")

	clock.Advance(5 * time.Second)
	d.MaybeDispatch(threatEvent("185.60.216.35"))
	d.Close()

	if f.count() != 1 {
		t.Fatalf("notifier saw %d sends, want exactly 1 (second suppressed)", f.count())
	}
}

func TestDispatcherReEligibleAfterCooldown(t *testing.T) {
	f := &fakeNotifier{}
	clock := newFakeClock()
	d := New(f, Options{Enabled: true, Cooldown: 10 * time.Minute})
	d.now = clock.Now

	d.MaybeDispatch(threatEvent("185.60.216.35"))
	waitForLedgerEntry(t, d, "185.60.216.35")

	clock.Advance(10*time.Minute + time.Second)
	d.MaybeDispatch(threatEvent("185.60.216.35"))
	d.Close()

	if f.count() != 2 {
		t.Fatalf("notifier saw %d sends, want 2 after cooldown elapsed", f.count())
	}
}

func TestDispatcherCooldownIsPerAddress(t *testing.T) {
	f := &fakeNotifier{}
	d := New(f, Options{Enabled: true, Cooldown: 10 * time.Minute})

	d.MaybeDispatch(threatEvent("185.60.216.35"))
	waitForLedgerEntry(t, d, "185.60.216.35")
	d.MaybeDispatch(threatEvent("103.21.244.0"))
	d.Close()

	if f.count() != 2 {
		t.Fatalf("notifier saw %d sends, want 2 (cooldown must not leak across addresses)", f.count())
	}
}

func TestDispatcherFailedSendLeavesLedgerUntouched(t *testing.T) {
	f := &fakeNotifier{err: errors.New("smtp: connection refused")}
	d := New(f, Options{Enabled: true, Cooldown: 10 * time.Minute})

	d.MaybeDispatch(threatEvent("185.60.216.35"))
	waitForSends(t, f, 1)

	// The failure recorded nothing, so the very next event qualifies.
	d.MaybeDispatch(threatEvent("185.60.216.35"))
	waitForSends(t, f, 2)
	d.Close()

	if f.count() != 2 {
		t.Fatalf("notifier saw %d sends, want 2 attempts", f.count())
	}
	d.mu.Lock()
	_, recorded := d.lastSent["185.60.216.35"]
	d.mu.Unlock()
	if recorded {
		t.Error("failed sends must not advance the cooldown ledger")
	}
}

func TestDispatcherDisabledIsNoop(t *testing.T) {
	f := &fakeNotifier{}
	d := New(f, Options{Enabled: false, Cooldown: 10 * time.Minute})

	d.MaybeDispatch(threatEvent("185.60.216.35"))
	d.MaybeDispatch(threatEvent("103.21.244.0"))
	d.Close()

	if f.count() != 0 {
		t.Fatalf("disabled dispatcher sent %d alerts, want 0", f.count())
	}
	d.mu.Lock()
	entries := len(d.lastSent)
	d.mu.Unlock()
	if entries != 0 {
		t.Errorf("disabled dispatcher wrote %d ledger entries, want 0", entries)
	}
}

func TestDispatcherZeroCooldownNeverSuppresses(t *testing.T) {
	f := &fakeNotifier{}
	d := New(f, Options{Enabled: true, Cooldown: 0})

	d.MaybeDispatch(threatEvent("185.60.216.35"))
	waitForLedgerEntry(t, d, "185.60.216.35")
	d.MaybeDispatch(threatEvent("185.60.216.35"))
	d.Close()

	if f.count() != 2 {
		t.Fatalf("notifier saw %d sends, want 2 with zero cooldown", f.count())
	}
}

type blockingNotifier struct {
	started chan struct{}
	release chan struct{}
	sends   atomic.Int64
}

func (b *blockingNotifier) Send(subject, body string) error {
	b.started <- struct{}{}
	<-b.release
	b.sends.Add(1)
	return nil
}

func TestDispatcherFullQueueDropsWithoutBlocking(t *testing.T) {
	b := &blockingNotifier{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	d := New(b, Options{Enabled: true, Cooldown: 10 * time.Minute, QueueSize: 1})

	// First alert occupies the worker inside Send.
	d.MaybeDispatch(threatEvent("185.60.216.35"))
	<-b.started

	// Second fills the queue, third must be dropped immediately.
	d.MaybeDispatch(threatEvent("103.21.244.0"))
	done := make(chan struct{})
	go func() {
		d.MaybeDispatch(threatEvent("45.133.1.87"))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("MaybeDispatch blocked on a full queue")
	}

	close(b.release)
	<-b.started // worker picks up the queued second alert
	d.Close()

	if got := b.sends.Load(); got != 2 {
		t.Fatalf("notifier completed %d sends, want 2 (third dropped)", got)
	}
}

func TestDispatcherCloseDrainsQueue(t *testing.T) {
	f := &fakeNotifier{}
	d := New(f, Options{Enabled: true, Cooldown: 10 * time.Minute})

	addrs := []string{"185.60.216.35", "103.21.244.0", "45.133.1.87", "185.220.101.4"}
	for _, addr := range addrs {
		d.MaybeDispatch(threatEvent(addr))
	}
	d.Close()

	if f.count() != len(addrs) {
		t.Fatalf("notifier saw %d sends after Close, want %d", f.count(), len(addrs))
	}
}

package alert

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"siemlite/internal/event"
	"siemlite/internal/metrics"
)

const defaultQueueSize = 64

// Options configures a Dispatcher.
type Options struct {
	// Enabled gates all dispatching. A disabled dispatcher treats
	// MaybeDispatch as a no-op.
	Enabled bool
	// Cooldown is the minimum interval between two successful
	// notifications for the same address. Zero disables suppression.
	Cooldown time.Duration
	// QueueSize bounds pending sends; zero means the default.
	QueueSize int
}

// Dispatcher wraps a Notifier with a per-address cooldown ledger and
// an asynchronous send path. MaybeDispatch never waits on network I/O:
// the cooldown decision is a ledger read under its own mutex, and
// qualifying alerts are handed to a single worker goroutine through a
// bounded queue.
type Dispatcher struct {
	notifier Notifier
	enabled  bool
	cooldown time.Duration
	now      func() time.Time

	queue chan job
	wg    sync.WaitGroup

	mu       sync.Mutex
	lastSent map[string]time.Time
}

type job struct {
	addr    string
	subject string
	body    string
}

// New creates a Dispatcher and starts its worker. Callers own the
// shutdown ordering: stop producing, then Close.
func New(n Notifier, opts Options) *Dispatcher {
	size := opts.QueueSize
	if size <= 0 {
		size = defaultQueueSize
	}
	d := &Dispatcher{
		notifier: n,
		enabled:  opts.Enabled,
		cooldown: opts.Cooldown,
		now:      time.Now,
		queue:    make(chan job, size),
		lastSent: make(map[string]time.Time),
	}
	d.wg.Add(1)
	go d.worker()
	return d
}

// MaybeDispatch requests a notification about ev. When alerting is
// disabled or the address sits inside its cooldown window it returns
// immediately; a full queue drops the alert rather than block the
// ingestion path.
func (d *Dispatcher) MaybeDispatch(ev event.Event) {
	if !d.enabled {
		return
	}

	d.mu.Lock()
	last, seen := d.lastSent[ev.SourceIP]
	suppressed := seen && d.now().Sub(last) < d.cooldown
	d.mu.Unlock()
	if suppressed {
		metrics.AlertsSuppressed.Inc()
		slog.Debug("alert suppressed by cooldown", "source_ip", ev.SourceIP)
		return
	}

	subject, body := formatAlert(ev)
	select {
	case d.queue <- job{addr: ev.SourceIP, subject: subject, body: body}:
	default:
		metrics.AlertsDropped.Inc()
		slog.Warn("alert queue full, dropping alert", "source_ip", ev.SourceIP)
	}
}

// Close stops the worker after it drains the queued sends. The caller
// must have stopped calling MaybeDispatch.
func (d *Dispatcher) Close() {
	close(d.queue)
	d.wg.Wait()
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for j := range d.queue {
		start := time.Now()
		err := d.notifier.Send(j.subject, j.body)
		metrics.AlertSendSeconds.Observe(time.Since(start).Seconds())
		if err != nil {
			// No ledger update: the next qualifying event for this
			// address gets another attempt.
			metrics.AlertsFailed.Inc()
			slog.Error("alert send failed", "source_ip", j.addr, "err", err)
			continue
		}
		metrics.AlertsSent.Inc()
		slog.Info("alert sent", "source_ip", j.addr)

		d.mu.Lock()
		d.lastSent[j.addr] = d.now()
		d.mu.Unlock()
	}
}

func formatAlert(ev event.Event) (subject, body string) {
	subject = "SIEM Lite Alert: Suspicious IP " + ev.SourceIP
	body = fmt.Sprintf(
		"Suspicious event detected\n\n"+
			"Timestamp: %s\n"+
			"IP: %s\n"+
			"Event: %s\n"+
			"Country: %s\n"+
			"City: %s\n\n"+
			"This is an automated alert from your SIEM Lite.",
		ev.Timestamp.Format(event.TimeLayout), ev.SourceIP, ev.Description, ev.Country, ev.City)
	return subject, body
}

package ingest

import (
	"time"

	"github.com/google/uuid"

	"siemlite/internal/event"
	"siemlite/internal/geo"
	"siemlite/internal/metrics"
)

// ThreatIndex classifies a source address.
type ThreatIndex interface {
	Contains(addr string) bool
}

// AlertDispatcher receives classified threat events for notification.
type AlertDispatcher interface {
	MaybeDispatch(ev event.Event)
}

// Pipeline turns raw submissions into enriched, classified, stored
// events. It holds no state of its own and every collaborator does its
// own locking, so Ingest is safe for concurrent callers.
type Pipeline struct {
	resolver   geo.Resolver
	index      ThreatIndex
	store      *event.Store
	dispatcher AlertDispatcher
	now        func() time.Time
}

func NewPipeline(r geo.Resolver, idx ThreatIndex, store *event.Store, d AlertDispatcher) *Pipeline {
	return &Pipeline{
		resolver:   r,
		index:      idx,
		store:      store,
		dispatcher: d,
		now:        time.Now,
	}
}

// Ingest records one raw event and returns the stored value. It never
// fails: enrichment degrades to Unknown and classification of an
// unlisted address is simply false. Threat events are handed to the
// dispatcher after storage; the send itself happens off this path.
func (p *Pipeline) Ingest(description, sourceAddr string) event.Event {
	ts := p.now().Truncate(time.Second)
	loc := p.resolver.Resolve(sourceAddr)

	ev := event.Event{
		ID:          uuid.NewString(),
		Timestamp:   ts,
		SourceIP:    sourceAddr,
		Description: description,
		Country:     loc.Country,
		City:        loc.City,
		Latitude:    loc.Latitude,
		Longitude:   loc.Longitude,
		IsThreat:    p.index.Contains(sourceAddr),
	}

	p.store.Append(ev)
	metrics.EventsIngested.Inc()
	metrics.StoredEvents.Set(float64(p.store.Len()))

	if ev.IsThreat {
		metrics.ThreatEvents.Inc()
		p.dispatcher.MaybeDispatch(ev)
	}
	return ev
}

// Events returns a snapshot of everything ingested, oldest first.
func (p *Pipeline) Events() []event.Event {
	return p.store.All()
}

// Threats returns the threat-classified subset, same order.
func (p *Pipeline) Threats() []event.Event {
	return p.store.Threats()
}

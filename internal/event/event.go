package event

import (
	"time"

	"github.com/goccy/go-json"
)

// TimeLayout is the wire rendering of event timestamps, second resolution.
const TimeLayout = "2006-01-02 15:04:05"

// Event is a single classified security event. Events are immutable once
// assembled by the ingestion pipeline: they are appended to the store and
// never updated or deleted.
type Event struct {
	ID          string
	Timestamp   time.Time
	SourceIP    string
	Description string
	Country     string
	City        string
	Latitude    *float64
	Longitude   *float64
	IsThreat    bool
}

// eventWire is the JSON shape consumed by the dashboard and API clients.
// Key names and the timestamp format are a compatibility contract.
type eventWire struct {
	ID        string   `json:"id"`
	Timestamp string   `json:"timestamp"`
	SourceIP  string   `json:"source_ip"`
	Event     string   `json:"event"`
	Country   string   `json:"country"`
	City      string   `json:"city"`
	Lat       *float64 `json:"lat"`
	Lon       *float64 `json:"lon"`
	IsThreat  bool     `json:"is_threat"`
}

// MarshalJSON renders the event in the dashboard wire format. Missing
// coordinates serialize as null.
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(eventWire{
		ID:        e.ID,
		Timestamp: e.Timestamp.Format(TimeLayout),
		SourceIP:  e.SourceIP,
		Event:     e.Description,
		Country:   e.Country,
		City:      e.City,
		Lat:       e.Latitude,
		Lon:       e.Longitude,
		IsThreat:  e.IsThreat,
	})
}

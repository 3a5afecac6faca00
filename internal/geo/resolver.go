package geo

import (
	"log/slog"
	"net"

	"github.com/oschwald/geoip2-golang"

	"siemlite/internal/metrics"
)

// Result carries the location derived from a source address. Latitude
// and Longitude are nil when the lookup produced no fix.
type Result struct {
	Country   string
	City      string
	Latitude  *float64
	Longitude *float64
}

// Unknown is the degraded result used whenever resolution fails.
func Unknown() Result {
	return Result{Country: "Unknown", City: "Unknown"}
}

// Resolver maps a source address to a location. Implementations never
// fail: anything unresolvable comes back as Unknown().
type Resolver interface {
	Resolve(addr string) Result
}

// Database resolves addresses against a local MaxMind GeoLite2-City file.
type Database struct {
	reader *geoip2.Reader
}

// Open loads the database at path. A missing or unreadable file is not
// fatal: the returned Database resolves every address to Unknown() so
// ingestion keeps running without enrichment.
func Open(path string) *Database {
	if path == "" {
		slog.Warn("no geoip database configured, enrichment disabled")
		return &Database{}
	}
	reader, err := geoip2.Open(path)
	if err != nil {
		slog.Warn("geoip database unavailable, enrichment disabled", "path", path, "err", err)
		return &Database{}
	}
	return &Database{reader: reader}
}

// Available reports whether lookups are backed by an open database.
func (d *Database) Available() bool {
	return d.reader != nil
}

// Close releases the underlying reader. Safe on a degraded Database.
func (d *Database) Close() error {
	if d.reader == nil {
		return nil
	}
	return d.reader.Close()
}

// Resolve looks up addr in the database. Unparseable addresses, reader
// errors, and addresses absent from the database all degrade to
// Unknown(); a record found without a country or city name keeps the
// "Unknown" placeholder for that field only.
func (d *Database) Resolve(addr string) Result {
	if d.reader == nil {
		metrics.GeoUnresolved.Inc()
		return Unknown()
	}
	ip := net.ParseIP(addr)
	if ip == nil {
		metrics.GeoUnresolved.Inc()
		return Unknown()
	}
	rec, err := d.reader.City(ip)
	if err != nil {
		metrics.GeoUnresolved.Inc()
		return Unknown()
	}
	// An address the database has never heard of decodes as an empty
	// record rather than an error.
	if rec.Country.IsoCode == "" && len(rec.City.Names) == 0 {
		metrics.GeoUnresolved.Inc()
		return Unknown()
	}

	res := Unknown()
	if name := rec.Country.Names["en"]; name != "" {
		res.Country = name
	}
	if name := rec.City.Names["en"]; name != "" {
		res.City = name
	}
	lat, lon := rec.Location.Latitude, rec.Location.Longitude
	res.Latitude = &lat
	res.Longitude = &lon
	return res
}

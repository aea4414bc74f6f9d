package enrichment

import (
	"context"
	"net"

	geoip2 "github.com/oschwald/geoip2-golang"
)

// Location holds derived geo fields. Any field may be empty when the lookup
// fails or returns partial data.
type Location struct {
	Country string
	Region  string
	City    string
}

// GeoResolver resolves an IP address to a location. Implementations may be
// backed by a local database or a remote service; callers bound the lookup
// with the context deadline.
type GeoResolver interface {
	Lookup(ctx context.Context, ip string) (Location, error)
}

// GeoIPResolver resolves IP addresses using a GeoIP2/GeoLite2 database file.
type GeoIPResolver struct {
	db *geoip2.Reader
}

var _ GeoResolver = (*GeoIPResolver)(nil)

// NewGeoIPResolver opens the GeoIP2 database at the given path.
// Returns error if the database file cannot be opened or is corrupt.
func NewGeoIPResolver(dbPath string) (*GeoIPResolver, error) {
	db, err := geoip2.Open(dbPath)
	if err != nil {
		return nil, err
	}
	return &GeoIPResolver{db: db}, nil
}

// Close closes the GeoIP database reader.
func (g *GeoIPResolver) Close() error {
	return g.db.Close()
}

// Lookup returns the location for the given IP address. Invalid IPs and
// lookup misses return an empty Location, not an error.
func (g *GeoIPResolver) Lookup(_ context.Context, ipStr string) (Location, error) {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return Location{}, nil
	}

	record, err := g.db.City(ip)
	if err != nil {
		return Location{}, err
	}

	loc := Location{
		Country: record.Country.IsoCode,
		City:    record.City.Names["en"],
	}
	if len(record.Subdivisions) > 0 {
		loc.Region = record.Subdivisions[0].Names["en"]
	}
	return loc, nil
}

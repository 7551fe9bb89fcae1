/**
 * @description
 * Timezone normalizer.
 * All fixture instants are stored as UTC; "today" and date-range queries are
 * bounded midnight-to-midnight in the requested zone, not in UTC. The same
 * calendar date therefore selects different UTC ranges for different zones,
 * and the resolved zone must flow into the query, the cache key and the
 * response annotation together.
 *
 * @dependencies
 * - standard "time"
 */

package tz

import "time"

// DefaultZone is used when a request omits its timezone or names an unknown
// one. Overridable via DEFAULT_TIMEZONE; this constant is the compiled-in
// fallback of last resort.
const DefaultZone = "America/Lima"

// DateLayout is the wire format for date parameters.
const DateLayout = "2006-01-02"

// Resolver resolves IANA zone names against a configured default.
type Resolver struct {
	def *time.Location
}

// NewResolver builds a Resolver. An unloadable default zone name falls back
// to DefaultZone, and failing that to UTC.
func NewResolver(defaultZone string) *Resolver {
	loc, err := time.LoadLocation(defaultZone)
	if err != nil {
		loc, err = time.LoadLocation(DefaultZone)
		if err != nil {
			loc = time.UTC
		}
	}
	return &Resolver{def: loc}
}

// Default returns the resolver's default location.
func (r *Resolver) Default() *time.Location {
	return r.def
}

// Resolve maps an IANA zone name to a location. Empty or invalid names fall
// back to the default; fellBack reports that the caller should annotate the
// response. Resolve never fails a request.
func (r *Resolver) Resolve(name string) (loc *time.Location, fellBack bool) {
	if name == "" {
		return r.def, false
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return r.def, true
	}
	return loc, false
}

// ToZone converts a stored UTC instant to the given zone.
func ToZone(instant time.Time, loc *time.Location) time.Time {
	return instant.In(loc)
}

// DayBounds returns the half-open UTC range [startUTC, endUTC) covering the
// local calendar day `date` in loc. Midnight is taken in loc, so the UTC
// bounds shift with the zone's offset (including DST transitions on that
// date: the "day" may be 23 or 25 hours long).
func DayBounds(date time.Time, loc *time.Location) (startUTC, endUTC time.Time) {
	y, m, d := date.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)
	return start.UTC(), end.UTC()
}

// ParseDate parses a YYYY-MM-DD date parameter. The zero time plus ok=false
// is returned for malformed input.
func ParseDate(value string) (time.Time, bool) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

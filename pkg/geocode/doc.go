// Package geocode resolves a free-text query to a single coordinate using
// Mapbox, Google or Nominatim.
//
// Client.Geocode never fails loudly: ordinary failures (blank query, missing
// key, transport errors, non-2xx responses, empty or malformed payloads) are
// logged, counted and reported as "no result". Client.Lookup returns the same
// outcome with the underlying error for callers that want to report it.
package geocode

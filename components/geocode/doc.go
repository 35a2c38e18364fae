// Package geocode provides the net/http endpoint the map-point widget calls to
// resolve a free-text query to coordinates.
//
// The handler answers GET and HEAD requests with {"data": {"lng", "lat"}} or
// {"data": null}. API keys are resolved server side from the configured plugin
// options and environment keys; a request can pick a provider but never
// supplies a key. The endpoint is described by an embedded OpenAPI document
// served next to it.
package geocode

// Package options holds the map-point configuration bag shared by the schema
// annotator, the widget and the geocode endpoint.
//
// Values resolve key by key with the most specific source winning: a field's
// admin.mapPoint override, then the plugin-level options, then keys found in
// the environment. Environment access is always injected through a Lookup so
// resolution stays pure and testable.
package options

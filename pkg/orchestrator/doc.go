// Package orchestrator wires the schema source → transformers → renderer
// pipeline behind a single Generate call. Transformers (the map-point
// annotator, presets) run in registration order before a collection is
// rendered.
package orchestrator

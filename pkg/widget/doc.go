// Package widget implements the map-point field widget: a map with a marker,
// an optional search bar and a footer with the current coordinates and a
// Clear action.
//
// The host binding is the single source of truth for the value. The widget
// moves between Idle (no value) and Set (a point) through Pick, Search and
// Clear, and keeps the map adapter's marker in step with the binding.
package widget

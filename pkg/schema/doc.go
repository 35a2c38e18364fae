// Package schema models the host's declarative field tree: collections and
// globals holding fields, where container fields (group, array, row,
// collapsible, blocks, tabs) nest further field lists.
//
// Documents are decoded from YAML or JSON. Keys the model does not know about
// are kept in Extra maps so a decode/encode cycle preserves them.
package schema

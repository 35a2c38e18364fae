package components

import (
	"strings"

	"github.com/goliatone/go-mappoint/pkg/options"
)

// Canonical component names used by the vanilla renderer and default registry.
const (
	NameText        = "text"
	NameGroup       = "group"
	NameRow         = "row"
	NameCollapsible = "collapsible"
	NameArray       = "array"
	NameBlocks      = "blocks"
	NameTabs        = "tabs"
	NameMapPoint    = "map-point"
)

// MapPointName returns the per-provider map-point descriptor name. Each
// provider carries its own stylesheet and script dependencies.
func MapPointName(provider options.MapProvider) string {
	p := strings.TrimSpace(string(provider))
	if p == "" {
		p = string(options.DefaultMapProvider)
	}
	return NameMapPoint + ":" + p
}

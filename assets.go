package mappoint

import (
	"io/fs"

	"github.com/goliatone/go-mappoint/pkg/renderers/vanilla"
)

// RuntimeAssetsFS exposes the browser runtime (mappoint.js and mappoint.css)
// so Go applications can serve it without a build step.
//
// Typical mount:
//
//	mux.Handle("/assets/",
//	  http.StripPrefix("/assets/",
//	    http.FileServerFS(mappoint.RuntimeAssetsFS()),
//	  ),
//	)
func RuntimeAssetsFS() fs.FS {
	return vanilla.AssetsFS()
}

// EmbeddedTemplates exposes the built-in vanilla renderer templates so callers
// can reuse or extend them without importing the renderer package directly.
func EmbeddedTemplates() fs.FS {
	return vanilla.TemplatesFS()
}

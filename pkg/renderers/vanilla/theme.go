package vanilla

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-mappoint/pkg/maps"
)

// ErrNoThemeManifest is returned when a selection carries no manifest.
var ErrNoThemeManifest = errors.New("vanilla: theme selection has no manifest")

// DefaultThemeName names the built-in manifest registered by NewThemeSelector.
const DefaultThemeName = "mappoint"

// DefaultThemeManifest is the built-in theme: no tokens or assets, only the
// light and dark variants that drive the map styles.
func DefaultThemeManifest() *theme.Manifest {
	return &theme.Manifest{
		Name:    DefaultThemeName,
		Version: "1.0.0",
		Variants: map[string]theme.Variant{
			string(maps.ThemeLight): {Description: "Light map styles"},
			string(maps.ThemeDark):  {Description: "Dark map styles"},
		},
	}
}

// NewThemeSelector registers the built-in manifest plus manifests. Selections
// default to the built-in theme's light variant.
func NewThemeSelector(manifests ...*theme.Manifest) (theme.ThemeSelector, error) {
	registry := theme.NewRegistry()
	for _, manifest := range append([]*theme.Manifest{DefaultThemeManifest()}, manifests...) {
		if manifest == nil {
			continue
		}
		if err := registry.Register(manifest); err != nil {
			return nil, fmt.Errorf("vanilla: register theme %q: %w", manifest.Name, err)
		}
	}
	return theme.Selector{
		Registry:       registry,
		DefaultTheme:   DefaultThemeName,
		DefaultVariant: string(maps.ThemeLight),
	}, nil
}

// LoadTheme builds the renderer theme for name and variant. manifestPath, when
// set, names a go-theme manifest (JSON or YAML) in fsys registered next to the
// built-in theme. An empty name selects the manifest's theme, or the built-in
// one without a manifest.
func LoadTheme(fsys fs.FS, manifestPath, name, variant string) (*theme.RendererConfig, error) {
	var manifests []*theme.Manifest
	if strings.TrimSpace(manifestPath) != "" {
		if fsys == nil {
			return nil, errors.New("vanilla: theme filesystem is nil")
		}
		manifest, err := theme.LoadFile(fsys, manifestPath)
		if err != nil {
			return nil, fmt.Errorf("vanilla: load theme: %w", err)
		}
		manifests = append(manifests, manifest)
		if strings.TrimSpace(name) == "" {
			name = manifest.Name
		}
	}
	selector, err := NewThemeSelector(manifests...)
	if err != nil {
		return nil, err
	}
	return SelectTheme(selector, name, strings.ToLower(strings.TrimSpace(variant)))
}

// SelectTheme resolves name and variant through selector and flattens the
// result into a RendererConfig.
func SelectTheme(selector theme.ThemeSelector, name, variant string) (*theme.RendererConfig, error) {
	if selector == nil {
		return nil, errors.New("vanilla: theme selector is nil")
	}
	selection, err := selector.Select(name, variant)
	if err != nil {
		return nil, fmt.Errorf("vanilla: select theme %q: %w", name, err)
	}
	return ThemeFromSelection(selection)
}

// ThemeFromSelection merges the selected variant over its manifest. Tokens
// become CSS custom properties; AssetURL resolves the manifest's asset keys
// against the effective prefix and returns "" for unknown keys.
func ThemeFromSelection(selection *theme.Selection) (*theme.RendererConfig, error) {
	if selection == nil || selection.Manifest == nil {
		return nil, ErrNoThemeManifest
	}
	manifest := selection.Manifest
	name := selection.Theme
	if name == "" {
		name = manifest.Name
	}

	tokens := mergeStrings(manifest.Tokens, nil)
	partials := mergeStrings(manifest.Templates, nil)
	files := mergeStrings(manifest.Assets.Files, nil)
	prefix := manifest.Assets.Prefix
	if variant, ok := manifest.Variants[selection.Variant]; ok {
		tokens = mergeStrings(tokens, variant.Tokens)
		partials = mergeStrings(partials, variant.Templates)
		files = mergeStrings(files, variant.Assets.Files)
		if strings.TrimSpace(variant.Assets.Prefix) != "" {
			prefix = variant.Assets.Prefix
		}
	}

	cssVars := make(map[string]string, len(tokens))
	for key, value := range tokens {
		cssVars["--"+strings.TrimPrefix(key, "--")] = value
	}

	return &theme.RendererConfig{
		Theme:    name,
		Variant:  selection.Variant,
		Partials: partials,
		Tokens:   tokens,
		CSSVars:  cssVars,
		AssetURL: assetResolver(prefix, files),
	}, nil
}

// MapTheme picks the map style for a theme variant.
func MapTheme(cfg *theme.RendererConfig) maps.Theme {
	if cfg == nil {
		return maps.ThemeLight
	}
	return maps.ParseTheme(cfg.Variant)
}

func assetResolver(prefix string, files map[string]string) func(string) string {
	prefix = strings.TrimRight(strings.TrimSpace(prefix), "/")
	return func(key string) string {
		if key == "" {
			return ""
		}
		file, ok := files[key]
		if !ok || file == "" {
			return ""
		}
		if isAbsoluteAsset(file) || prefix == "" {
			return file
		}
		if strings.Contains(prefix, "://") {
			return prefix + "/" + strings.TrimLeft(file, "/")
		}
		return path.Join(prefix, file)
	}
}

func mergeStrings(base, overrides map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(overrides))
	for key, value := range base {
		out[key] = value
	}
	for key, value := range overrides {
		out[key] = value
	}
	return out
}

// cssVarsStyle renders CSS custom properties as a sorted declaration list.
func cssVarsStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	var builder strings.Builder
	for _, key := range keys {
		value := strings.NewReplacer(";", "", "{", "", "}", "", "<", "", ">", "").Replace(vars[key])
		builder.WriteString(key)
		builder.WriteString(": ")
		builder.WriteString(value)
		builder.WriteString("; ")
	}
	return strings.TrimSpace(builder.String())
}

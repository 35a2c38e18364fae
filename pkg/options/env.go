package options

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// MapboxEnvVars lists the variables consulted for a Mapbox token, in priority
// order. The first non-empty value wins.
var MapboxEnvVars = []string{
	"NEXT_PUBLIC_MAPBOX_API_KEY",
	"NEXT_PUBLIC_MAPBOX_TOKEN",
	"VITE_PUBLIC_MAPBOX_API_KEY",
	"VITE_PUBLIC_MAPBOX_TOKEN",
	"MAPBOX_PUBLIC_TOKEN",
	"MAPBOX_API_KEY",
	"MAPBOX_TOKEN",
}

// GoogleEnvVars lists the variables consulted for a Google Maps key.
var GoogleEnvVars = []string{
	"NEXT_PUBLIC_GOOGLE_MAPS_API_KEY",
	"VITE_PUBLIC_GOOGLE_MAPS_API_KEY",
	"GOOGLE_MAPS_API_KEY",
}

// Lookup resolves an environment variable.
type Lookup func(key string) (string, bool)

// EnvKeys holds the fallback keys discovered at startup.
type EnvKeys struct {
	Mapbox string
	Google string
}

// EnvFromLookup resolves both key families through lookup. A nil lookup
// yields empty keys.
func EnvFromLookup(lookup Lookup) EnvKeys {
	if lookup == nil {
		return EnvKeys{}
	}
	return EnvKeys{
		Mapbox: firstNonEmpty(lookup, MapboxEnvVars),
		Google: firstNonEmpty(lookup, GoogleEnvVars),
	}
}

// ForFamily returns the google key for "google" and the mapbox key for
// anything else.
func (e EnvKeys) ForFamily(provider string) string {
	if strings.EqualFold(strings.TrimSpace(provider), string(MapProviderGoogle)) {
		return e.Google
	}
	return e.Mapbox
}

// OSLookup reads the process environment.
func OSLookup() Lookup {
	return os.LookupEnv
}

// MapLookup serves values from a static map.
func MapLookup(values map[string]string) Lookup {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}

// ChainLookup consults each lookup in order and returns the first non-empty
// value.
func ChainLookup(lookups ...Lookup) Lookup {
	return func(key string) (string, bool) {
		for _, lookup := range lookups {
			if lookup == nil {
				continue
			}
			if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
				return value, true
			}
		}
		return "", false
	}
}

// DotEnvLookup reads the given .env files without touching the process
// environment. Missing files are skipped; earlier files win on conflicts.
func DotEnvLookup(paths ...string) (Lookup, error) {
	values := make(map[string]string)
	for _, path := range paths {
		if strings.TrimSpace(path) == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("options: stat %s: %w", path, err)
		}
		parsed, err := godotenv.Read(path)
		if err != nil {
			return nil, fmt.Errorf("options: read env file %s: %w", path, err)
		}
		for key, value := range parsed {
			if _, exists := values[key]; exists {
				continue
			}
			values[key] = value
		}
	}
	return MapLookup(values), nil
}

func firstNonEmpty(lookup Lookup, names []string) string {
	for _, name := range names {
		if value, ok := lookup(name); ok {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}

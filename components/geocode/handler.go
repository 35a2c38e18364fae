package geocode

import (
	"errors"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	geocoder "github.com/goliatone/go-mappoint/pkg/geocode"
	"github.com/goliatone/go-mappoint/pkg/keys"
	"github.com/goliatone/go-mappoint/pkg/options"
)

type HTTPError interface {
	error
	StatusCode() int
}

type StatusError struct {
	Code int
	Err  error
}

func (e StatusError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e StatusError) Unwrap() error { return e.Err }

func (e StatusError) StatusCode() int {
	if e.Code <= 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

// Coordinates is the JSON shape of a resolved point.
type Coordinates struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// Response is the endpoint payload. Data is null when nothing was found.
type Response struct {
	Data *Coordinates `json:"data"`
}

// Handler builds a net/http handler with default options plus any overrides.
func Handler(fns ...OptionFn) http.Handler {
	return NewHandler(fns...)
}

func NewHandler(fns ...OptionFn) http.Handler {
	opts := NewOptions(fns...)
	return HandlerWithOptions(opts)
}

// HandlerWithOptions builds a net/http handler from a pre-constructed Options
// value. Without a Resolver a pkg/geocode client is created once here.
func HandlerWithOptions(opts Options) http.Handler {
	opts = NewOptions(func(o *Options) { *o = opts })
	resolver := opts.Resolver
	if resolver == nil {
		resolver = geocoder.New(geocoder.WithLogger(opts.Logger))
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r == nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", http.MethodGet+", "+http.MethodHead)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		if opts.Guard != nil {
			if err := opts.Guard(r); err != nil {
				writeGuardError(w, err)
				return
			}
		}

		settings, ok := resolveSettings(r.URL.Query().Get(opts.FieldParam), opts)
		if !ok {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		query := r.URL.Query().Get(opts.QueryParam)
		provider, ok := resolveProvider(r.URL.Query().Get(opts.ProviderParam), settings.Options)
		if !ok {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}

		var resp Response
		if r.Method == http.MethodGet {
			pt, err := resolver.Lookup(r.Context(), geocoder.Request{
				Provider: provider,
				APIKey:   resolveKey(provider, settings, opts.Env),
				Query:    query,
			})
			if err == nil {
				resp.Data = &Coordinates{Lng: pt.Lng(), Lat: pt.Lat()}
			} else if !errors.Is(err, geocoder.ErrEmptyQuery) {
				opts.Logger.Debug().Err(err).Str("provider", string(provider)).Msg("geocode endpoint returned no result")
			}
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodHead {
			return
		}
		_ = json.NewEncoder(w).Encode(resp)
	})
}

// resolveProvider returns the requested provider, or the configured default
// when the request names none.
func resolveProvider(requested string, cfg *options.MapPointOptions) (options.GeocoderProvider, bool) {
	requested = strings.ToLower(strings.TrimSpace(requested))
	if requested != "" {
		provider := options.GeocoderProvider(requested)
		return provider, provider.Valid()
	}
	var configured options.GeocoderProvider
	if cfg != nil && cfg.Geocoder != nil {
		configured = cfg.Geocoder.Provider
	}
	return keys.DefaultGeocoder(configured, cfg.MapProviderOrDefault()), true
}

// resolveSettings picks the options keys come from. A named field replaces
// the plugin options with its merged field options; an unknown field fails.
func resolveSettings(id string, opts Options) (FieldSettings, bool) {
	id = strings.TrimSpace(id)
	if id == "" || opts.Fields == nil {
		return FieldSettings{Options: opts.Plugin}, true
	}
	settings, ok := opts.Fields(id)
	if !ok {
		return FieldSettings{}, false
	}
	if settings.Options == nil {
		settings.Options = opts.Plugin
	}
	return settings, true
}

func resolveKey(provider options.GeocoderProvider, settings FieldSettings, env options.EnvKeys) string {
	cfg := settings.Options
	req := keys.GeocoderRequest{
		Geocoder:    provider,
		MapProvider: cfg.MapProviderOrDefault(),
		Fallback:    settings.Fallback,
	}
	if cfg != nil && cfg.Geocoder != nil {
		req.GeocoderKey = cfg.Geocoder.APIKey
	}
	if cfg != nil && cfg.Map != nil {
		req.MapKey = cfg.Map.APIKey
	}
	return keys.ResolveGeocoderKey(req, env)
}

func writeGuardError(w http.ResponseWriter, err error) {
	if w == nil {
		return
	}
	if err == nil {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}
	code := http.StatusForbidden
	var httpErr HTTPError
	if errors.As(err, &httpErr) && httpErr != nil {
		code = httpErr.StatusCode()
		if code <= 0 {
			code = http.StatusForbidden
		}
	}
	http.Error(w, http.StatusText(code), code)
}

package geocode

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"

	geocoder "github.com/goliatone/go-mappoint/pkg/geocode"
	"github.com/goliatone/go-mappoint/pkg/options"
	"github.com/goliatone/go-mappoint/pkg/point"
)

type stubResolver struct {
	result point.Point
	err    error
	reqs   []geocoder.Request
}

func (s *stubResolver) Lookup(_ context.Context, req geocoder.Request) (point.Point, error) {
	s.reqs = append(s.reqs, req)
	return s.result, s.err
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var payload Response
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return payload
}

func TestHandler_ReturnsCoordinates(t *testing.T) {
	resolver := &stubResolver{result: point.Must(10.75, 59.91)}
	h := NewHandler(WithResolver(resolver))

	req := httptest.NewRequest(http.MethodGet, "/api/geocode?q=Oslo", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("expected JSON content-type, got %q", ct)
	}
	want := Response{Data: &Coordinates{Lng: 10.75, Lat: 59.91}}
	if diff := cmp.Diff(want, decodeResponse(t, rec)); diff != "" {
		t.Fatalf("response mismatch (-want +got):\n%s", diff)
	}
	if len(resolver.reqs) != 1 || resolver.reqs[0].Query != "Oslo" {
		t.Fatalf("unexpected requests %+v", resolver.reqs)
	}
}

func TestHandler_NoResultIsNullData(t *testing.T) {
	h := NewHandler(WithResolver(&stubResolver{err: geocoder.ErrNoResult}))

	req := httptest.NewRequest(http.MethodGet, "/api/geocode?q=nowhere", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"data":null}` {
		t.Fatalf("expected null data, got %s", got)
	}
}

func TestHandler_KeysResolvedServerSide(t *testing.T) {
	resolver := &stubResolver{result: point.Must(1, 2)}
	plugin := &options.MapPointOptions{
		Map:      &options.MapOptions{Provider: options.MapProviderMapbox, APIKey: "pk.map"},
		Geocoder: &options.GeocoderOptions{APIKey: "sk.geo"},
	}
	h := NewHandler(WithResolver(resolver), WithPlugin(plugin))

	req := httptest.NewRequest(http.MethodGet, "/api/geocode?q=Bergen&key=attacker", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)

	want := []geocoder.Request{{Provider: options.GeocoderMapbox, APIKey: "sk.geo", Query: "Bergen"}}
	if diff := cmp.Diff(want, resolver.reqs); diff != "" {
		t.Fatalf("request mismatch (-want +got):\n%s", diff)
	}
}

func TestHandler_ProviderParamAndEnvFallback(t *testing.T) {
	resolver := &stubResolver{result: point.Must(1, 2)}
	h := NewHandler(
		WithResolver(resolver),
		WithPlugin(&options.MapPointOptions{Map: &options.MapOptions{Provider: options.MapProviderGoogle}}),
		WithEnv(options.EnvKeys{Google: "env-google"}),
	)

	for _, tc := range []struct {
		query string
		want  geocoder.Request
	}{
		{"?q=a", geocoder.Request{Provider: options.GeocoderGoogle, APIKey: "env-google", Query: "a"}},
		{"?q=b&provider=Nominatim", geocoder.Request{Provider: options.GeocoderNominatim, Query: "b"}},
	} {
		resolver.reqs = nil
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/geocode"+tc.query, nil))
		if diff := cmp.Diff([]geocoder.Request{tc.want}, resolver.reqs); diff != "" {
			t.Fatalf("%s: request mismatch (-want +got):\n%s", tc.query, diff)
		}
	}
}

func TestHandler_FieldKeysTakePrecedence(t *testing.T) {
	resolver := &stubResolver{result: point.Must(10.75, 59.91)}
	fields := map[string]FieldSettings{
		"venues.location": {Options: &options.MapPointOptions{
			Map:      &options.MapOptions{Provider: options.MapProviderLeaflet},
			Geocoder: &options.GeocoderOptions{Provider: options.GeocoderGoogle, APIKey: "FIELDKEY"},
		}},
		"venues.legacy": {
			Options:  &options.MapPointOptions{Map: &options.MapOptions{Provider: options.MapProviderGoogle}},
			Fallback: "legacy-key",
		},
	}
	h := NewHandler(
		WithResolver(resolver),
		WithPlugin(&options.MapPointOptions{
			Map:      &options.MapOptions{Provider: options.MapProviderLeaflet},
			Geocoder: &options.GeocoderOptions{APIKey: "plugin-key"},
		}),
		WithFieldLookup(func(id string) (FieldSettings, bool) {
			settings, ok := fields[id]
			return settings, ok
		}),
	)

	for _, tc := range []struct {
		query string
		want  geocoder.Request
	}{
		{"?q=Oslo&provider=google&field=venues.location", geocoder.Request{Provider: options.GeocoderGoogle, APIKey: "FIELDKEY", Query: "Oslo"}},
		{"?q=Oslo&field=venues.location", geocoder.Request{Provider: options.GeocoderGoogle, APIKey: "FIELDKEY", Query: "Oslo"}},
		{"?q=Oslo&field=venues.legacy", geocoder.Request{Provider: options.GeocoderGoogle, APIKey: "legacy-key", Query: "Oslo"}},
		{"?q=Oslo&provider=mapbox", geocoder.Request{Provider: options.GeocoderMapbox, APIKey: "plugin-key", Query: "Oslo"}},
	} {
		resolver.reqs = nil
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/geocode"+tc.query, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected status 200, got %d", tc.query, rec.Code)
		}
		if diff := cmp.Diff([]geocoder.Request{tc.want}, resolver.reqs); diff != "" {
			t.Fatalf("%s: request mismatch (-want +got):\n%s", tc.query, diff)
		}
	}
}

func TestHandler_UnknownField(t *testing.T) {
	resolver := &stubResolver{}
	h := NewHandler(
		WithResolver(resolver),
		WithFieldLookup(func(string) (FieldSettings, bool) { return FieldSettings{}, false }),
	)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/geocode?q=x&field=venues.missing", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if len(resolver.reqs) != 0 {
		t.Fatalf("expected no lookup, got %+v", resolver.reqs)
	}
}

func TestHandler_UnknownProvider(t *testing.T) {
	resolver := &stubResolver{}
	h := NewHandler(WithResolver(resolver))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/geocode?q=x&provider=bing", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if len(resolver.reqs) != 0 {
		t.Fatalf("expected no lookup, got %+v", resolver.reqs)
	}
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	h := NewHandler(WithResolver(&stubResolver{}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/geocode?q=x", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", rec.Code)
	}
	if allow := rec.Header().Get("Allow"); allow != "GET, HEAD" {
		t.Fatalf("unexpected Allow header %q", allow)
	}
}

func TestHandler_HeadSkipsLookup(t *testing.T) {
	resolver := &stubResolver{}
	h := NewHandler(WithResolver(resolver))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/api/geocode?q=x", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("expected empty body, got %q", rec.Body.String())
	}
	if len(resolver.reqs) != 0 {
		t.Fatalf("expected no lookup for HEAD")
	}
}

func TestHandler_GuardStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"plain error", errors.New("nope"), http.StatusForbidden},
		{"status error", StatusError{Code: http.StatusUnauthorized}, http.StatusUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resolver := &stubResolver{}
			h := NewHandler(WithResolver(resolver), WithGuard(func(*http.Request) error { return tc.err }))

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/geocode?q=x", nil))
			if rec.Code != tc.want {
				t.Fatalf("expected status %d, got %d", tc.want, rec.Code)
			}
			if len(resolver.reqs) != 0 {
				t.Fatalf("guard should block the lookup")
			}
		})
	}
}

func TestHandler_DefaultResolverBlankQuery(t *testing.T) {
	h := NewHandler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/geocode?q=%20%20", nil))

	if got := strings.TrimSpace(rec.Body.String()); got != `{"data":null}` {
		t.Fatalf("expected null data without a network call, got %s", got)
	}
}

package geocode

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/goliatone/go-mappoint/pkg/options"
	"github.com/goliatone/go-mappoint/pkg/point"
)

type stubServer struct {
	*httptest.Server
	calls    atomic.Int32
	mu       sync.Mutex
	requests []*http.Request
}

func newStub(t *testing.T, status int, body string) *stubServer {
	t.Helper()
	stub := &stubServer{}
	stub.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stub.calls.Add(1)
		stub.mu.Lock()
		stub.requests = append(stub.requests, r.Clone(context.Background()))
		stub.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(stub.Close)
	return stub
}

func (s *stubServer) last(t *testing.T) *http.Request {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		t.Fatalf("no request recorded")
	}
	return s.requests[len(s.requests)-1]
}

func newClient(stub *stubServer, opts ...Option) *Client {
	base := []Option{
		WithBaseURL(options.GeocoderMapbox, stub.URL),
		WithBaseURL(options.GeocoderGoogle, stub.URL),
		WithBaseURL(options.GeocoderNominatim, stub.URL),
		WithRateLimit(rate.Inf, 1),
	}
	return New(append(base, opts...)...)
}

type recorded struct {
	provider, outcome string
	duration          time.Duration
}

type fakeRecorder struct {
	mu   sync.Mutex
	seen []recorded
}

func (f *fakeRecorder) ObserveGeocode(provider, outcome string, duration time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, recorded{provider, outcome, duration})
}

func TestNominatimOsloStub(t *testing.T) {
	stub := newStub(t, http.StatusOK, `[{"lat":"59.91","lon":"10.75"}]`)
	client := newClient(stub, WithUserAgent("mappoint-test"))

	pt, ok := client.Geocode(context.Background(), Request{Provider: options.GeocoderNominatim, Query: "Oslo"})
	if !ok {
		t.Fatalf("expected a result")
	}
	if pt != point.Must(10.75, 59.91) {
		t.Fatalf("point = %v, want (10.75, 59.91)", pt)
	}

	req := stub.last(t)
	if req.URL.Path != "/search" {
		t.Fatalf("path = %q", req.URL.Path)
	}
	q := req.URL.Query()
	if q.Get("q") != "Oslo" || q.Get("format") != "json" || q.Get("limit") != "1" {
		t.Fatalf("unexpected query %v", q)
	}
	if req.Header.Get("Accept-Language") != "en" {
		t.Fatalf("Accept-Language = %q", req.Header.Get("Accept-Language"))
	}
	if req.Header.Get("User-Agent") != "mappoint-test" {
		t.Fatalf("User-Agent = %q", req.Header.Get("User-Agent"))
	}
}

func TestEmptyProviderDefaultsToNominatim(t *testing.T) {
	stub := newStub(t, http.StatusOK, `[{"lat":59.91,"lon":10.75}]`)
	pt, err := newClient(stub).Lookup(context.Background(), Request{Query: "Oslo"})
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if pt != point.Must(10.75, 59.91) {
		t.Fatalf("numeric coordinates not accepted: %v", pt)
	}
}

func TestBlankQueryMakesNoCall(t *testing.T) {
	stub := newStub(t, http.StatusOK, `[{"lat":"1","lon":"2"}]`)
	rec := &fakeRecorder{}
	client := newClient(stub, WithRecorder(rec))

	for _, provider := range []options.GeocoderProvider{options.GeocoderMapbox, options.GeocoderGoogle, options.GeocoderNominatim} {
		_, err := client.Lookup(context.Background(), Request{Provider: provider, APIKey: "k", Query: "   "})
		if !errors.Is(err, ErrEmptyQuery) {
			t.Fatalf("%s: expected ErrEmptyQuery, got %v", provider, err)
		}
	}
	if got := stub.calls.Load(); got != 0 {
		t.Fatalf("expected 0 network calls, got %d", got)
	}
	if len(rec.seen) != 3 || rec.seen[0].outcome != "empty_query" || rec.seen[0].duration != 0 {
		t.Fatalf("unexpected observations %+v", rec.seen)
	}
}

func TestMissingKeyMakesNoCall(t *testing.T) {
	stub := newStub(t, http.StatusOK, `{}`)
	client := newClient(stub)
	for _, provider := range []options.GeocoderProvider{options.GeocoderMapbox, options.GeocoderGoogle} {
		if _, err := client.Lookup(context.Background(), Request{Provider: provider, Query: "Oslo"}); !errors.Is(err, ErrMissingKey) {
			t.Fatalf("%s: expected ErrMissingKey, got %v", provider, err)
		}
	}
	if stub.calls.Load() != 0 {
		t.Fatalf("expected no calls without a key")
	}
}

func TestEmptyResultsAreNoResult(t *testing.T) {
	cases := map[options.GeocoderProvider]string{
		options.GeocoderMapbox:    `{"features":[]}`,
		options.GeocoderGoogle:    `{"status":"ZERO_RESULTS","results":[]}`,
		options.GeocoderNominatim: `[]`,
	}
	for provider, body := range cases {
		t.Run(string(provider), func(t *testing.T) {
			stub := newStub(t, http.StatusOK, body)
			_, err := newClient(stub).Lookup(context.Background(), Request{Provider: provider, APIKey: "k", Query: "nowhere"})
			if !errors.Is(err, ErrNoResult) {
				t.Fatalf("expected ErrNoResult, got %v", err)
			}
		})
	}
}

func TestMapboxFirstFeatureWins(t *testing.T) {
	stub := newStub(t, http.StatusOK, `{"features":[{"center":[10.75,59.91]},{"center":[1,1]}]}`)
	pt, ok := newClient(stub).Geocode(context.Background(), Request{
		Provider: options.GeocoderMapbox,
		APIKey:   "pk.test",
		Query:    "Oslo S",
	})
	if !ok || pt != point.Must(10.75, 59.91) {
		t.Fatalf("got %v ok=%v", pt, ok)
	}
	req := stub.last(t)
	if !strings.HasPrefix(req.URL.EscapedPath(), "/geocoding/v5/mapbox.places/Oslo%20S.json") {
		t.Fatalf("path = %q", req.URL.EscapedPath())
	}
	if req.URL.Query().Get("access_token") != "pk.test" {
		t.Fatalf("missing access token: %v", req.URL.Query())
	}
}

func TestGoogleLocation(t *testing.T) {
	stub := newStub(t, http.StatusOK, `{"status":"OK","results":[{"geometry":{"location":{"lat":59.91,"lng":10.75}}}]}`)
	pt, ok := newClient(stub).Geocode(context.Background(), Request{
		Provider: options.GeocoderGoogle,
		APIKey:   "g-key",
		Query:    "Oslo",
	})
	if !ok || pt != point.Must(10.75, 59.91) {
		t.Fatalf("got %v ok=%v", pt, ok)
	}
	q := stub.last(t).URL.Query()
	if stub.last(t).URL.Path != "/maps/api/geocode/json" || q.Get("address") != "Oslo" || q.Get("key") != "g-key" {
		t.Fatalf("unexpected request %v", stub.last(t).URL)
	}
}

func TestSoftFailures(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `oops`},
		{name: "malformed json", status: http.StatusOK, body: `{not json`},
		{name: "bad coordinate", status: http.StatusOK, body: `[{"lat":"north","lon":"10"}]`},
		{name: "missing lon", status: http.StatusOK, body: `[{"lat":"59.91"}]`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := newStub(t, tc.status, tc.body)
			rec := &fakeRecorder{}
			pt, ok := newClient(stub, WithRecorder(rec)).Geocode(context.Background(), Request{Query: "Oslo"})
			if ok || pt != (point.Point{}) {
				t.Fatalf("expected no result, got %v", pt)
			}
			if len(rec.seen) != 1 || rec.seen[0].outcome == "ok" {
				t.Fatalf("unexpected observations %+v", rec.seen)
			}
		})
	}
}

func TestUnsupportedProvider(t *testing.T) {
	stub := newStub(t, http.StatusOK, `[]`)
	_, err := newClient(stub).Lookup(context.Background(), Request{Provider: "bing", Query: "Oslo"})
	if !errors.Is(err, ErrUnsupportedProvider) {
		t.Fatalf("expected ErrUnsupportedProvider, got %v", err)
	}
}

type fixedBackend struct{ pt point.Point }

func (f fixedBackend) Provider() options.GeocoderProvider { return "fixed" }
func (f fixedBackend) NeedsKey() bool                     { return false }
func (f fixedBackend) Lookup(context.Context, string, string) (point.Point, error) {
	return f.pt, nil
}

func TestCustomBackend(t *testing.T) {
	client := New(WithBackend(fixedBackend{pt: point.Must(1, 2)}))
	pt, ok := client.Geocode(context.Background(), Request{Provider: "fixed", Query: "anything"})
	if !ok || pt != point.Must(1, 2) {
		t.Fatalf("got %v ok=%v", pt, ok)
	}
	providers := client.Providers()
	if len(providers) != 4 || providers[3] != "fixed" {
		t.Fatalf("providers = %v", providers)
	}
}

func TestNominatimRateLimitHonoursContext(t *testing.T) {
	stub := newStub(t, http.StatusOK, `[{"lat":"1","lon":"2"}]`)
	client := newClient(stub, WithRateLimit(rate.Every(time.Hour), 1))

	if _, ok := client.Geocode(context.Background(), Request{Query: "first"}); !ok {
		t.Fatalf("first request should pass the limiter")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, ok := client.Geocode(ctx, Request{Query: "second"}); ok {
		t.Fatalf("second request should be throttled")
	}
	if stub.calls.Load() != 1 {
		t.Fatalf("expected a single upstream call, got %d", stub.calls.Load())
	}
}

package geocode

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-mappoint/pkg/point"
)

func TestMountPath_JoinsBasePath(t *testing.T) {
	if got := MountPath("/admin"); got != "/admin/api/geocode" {
		t.Fatalf("unexpected mount path: %q", got)
	}
	if got := MountPath("admin"); got != "/admin/api/geocode" {
		t.Fatalf("unexpected mount path: %q", got)
	}
	if got := MountPath("/admin/", WithRoutePath("geo")); got != "/admin/geo" {
		t.Fatalf("unexpected mount path: %q", got)
	}
	if got := MountPath(""); got != "/api/geocode" {
		t.Fatalf("unexpected mount path: %q", got)
	}
}

func TestRegisterRoutes_RegistersHandlerAndDocs(t *testing.T) {
	mux := http.NewServeMux()
	pattern, err := RegisterRoutes(mux, "/admin", WithResolver(&stubResolver{result: point.Must(1, 2)}))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if pattern != "/admin/api/geocode" {
		t.Fatalf("unexpected registered pattern: %q", pattern)
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, pattern+"?q=x", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"lng":1`) {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, pattern+OpenAPIPath, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected docs status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"/admin/api/geocode"`) {
		t.Fatalf("expected docs keyed by mount path, got %s", rec.Body.String())
	}
}

func TestRegisterRoutes_MissingMux(t *testing.T) {
	if _, err := RegisterRoutes(nil, "/"); err == nil {
		t.Fatalf("expected error for nil mux")
	}
}

func TestEndpointConfig(t *testing.T) {
	got := New(WithQueryParam("query")).EndpointConfig("/admin")
	want := Endpoint{
		URL:           "/admin/api/geocode",
		Method:        http.MethodGet,
		QueryParam:    "query",
		ProviderParam: "provider",
		FieldParam:    "field",
		OpenAPI:       "/admin/api/geocode/openapi.json",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("endpoint mismatch (-want +got):\n%s", diff)
	}
}

func TestComponent_NilUsesDefaults(t *testing.T) {
	var c *Component
	if got := c.Options().RoutePath; got != "/api/geocode" {
		t.Fatalf("unexpected default route %q", got)
	}
}

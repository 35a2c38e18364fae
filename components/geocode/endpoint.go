package geocode

import "net/http"

// Endpoint tells the browser runtime how to call the geocode handler.
type Endpoint struct {
	URL           string `json:"url"`
	Method        string `json:"method"`
	QueryParam    string `json:"queryParam"`
	ProviderParam string `json:"providerParam"`
	FieldParam    string `json:"fieldParam"`
	OpenAPI       string `json:"openapi"`
}

// EndpointConfig returns the Endpoint for a handler mounted under basePath.
func EndpointConfig(basePath string, fns ...OptionFn) Endpoint {
	opts := NewOptions(fns...)
	url := mountPath(basePath, opts.RoutePath)
	return Endpoint{
		URL:           url,
		Method:        http.MethodGet,
		QueryParam:    opts.QueryParam,
		ProviderParam: opts.ProviderParam,
		FieldParam:    opts.FieldParam,
		OpenAPI:       url + OpenAPIPath,
	}
}

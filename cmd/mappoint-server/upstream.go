package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"
)

const maxUpstreamBody = 1 << 20

var errUpstream = errors.New("server: upstream request failed")

// documentSink receives every document that passed form decoding.
type documentSink interface {
	Save(ctx context.Context, slug string, doc map[string]any) error
}

// rejection is returned when the upstream refused a document with field
// errors. Paths are the upstream's own (dotted, JSON pointer, bracketed).
type rejection struct {
	Status int
	Errors map[string][]string
}

func (r *rejection) Error() string {
	return fmt.Sprintf("server: upstream rejected document with status %d", r.Status)
}

// upstreamSink posts documents as JSON to <base>/<slug>.
type upstreamSink struct {
	base   string
	client *http.Client
}

func newUpstreamSink(base string, client *http.Client) (*upstreamSink, error) {
	parsed, err := url.Parse(strings.TrimSpace(base))
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("server: invalid upstream url %q", base)
	}
	if client == nil {
		client = &http.Client{Timeout: requestTimeout}
	}
	return &upstreamSink{base: strings.TrimRight(parsed.String(), "/"), client: client}, nil
}

func (u *upstreamSink) Save(ctx context.Context, slug string, doc map[string]any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("server: encode document: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.base+"/"+url.PathEscape(slug), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", errUpstream, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := u.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", errUpstream, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxUpstreamBody))
		return nil
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		payload, err := decodeUpstreamErrors(io.LimitReader(resp.Body, maxUpstreamBody))
		if err != nil || len(payload) == 0 {
			return fmt.Errorf("%w: status %d", errUpstream, resp.StatusCode)
		}
		return &rejection{Status: resp.StatusCode, Errors: payload}
	default:
		return fmt.Errorf("%w: status %d", errUpstream, resp.StatusCode)
	}
}

type upstreamError struct {
	Path    string `json:"path"`
	Field   string `json:"field"`
	Pointer string `json:"pointer"`
	Message string `json:"message"`
	Data    *struct {
		Errors []upstreamError `json:"errors"`
	} `json:"data"`
}

// decodeUpstreamErrors reads {"errors": {...}} keyed by path, or
// {"errors": [...]} listing path and message pairs, nested one level under
// data.errors when the upstream wraps them. Entries without a path are
// form-level.
func decodeUpstreamErrors(r io.Reader) (map[string][]string, error) {
	var envelope struct {
		Errors json.RawMessage `json:"errors"`
	}
	if err := json.NewDecoder(r).Decode(&envelope); err != nil {
		return nil, err
	}
	out := make(map[string][]string)
	if len(envelope.Errors) == 0 {
		return out, nil
	}

	var keyed map[string]json.RawMessage
	if err := json.Unmarshal(envelope.Errors, &keyed); err == nil {
		for path, raw := range keyed {
			var list []string
			if err := json.Unmarshal(raw, &list); err == nil {
				out[path] = append(out[path], list...)
				continue
			}
			var single string
			if err := json.Unmarshal(raw, &single); err == nil {
				out[path] = append(out[path], single)
			}
		}
		return out, nil
	}

	var list []upstreamError
	if err := json.Unmarshal(envelope.Errors, &list); err != nil {
		return nil, err
	}
	collectUpstreamErrors(list, out)
	return out, nil
}

func collectUpstreamErrors(list []upstreamError, out map[string][]string) {
	for _, item := range list {
		if item.Data != nil && len(item.Data.Errors) > 0 {
			collectUpstreamErrors(item.Data.Errors, out)
			continue
		}
		path := item.Path
		for _, candidate := range []string{item.Field, item.Pointer} {
			if strings.TrimSpace(path) == "" {
				path = candidate
			}
		}
		out[path] = append(out[path], item.Message)
	}
}

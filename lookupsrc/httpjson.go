package lookupsrc

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/feathr-ai/feathr-online/value"
)

// HTTPJSONConfig configures an HTTP JSON API lookup source: the key is
// substituted into a URL template (a literal "$" token), or carried as a
// query parameter, and each requested field is extracted from the JSON
// response body by its own JSON-path.
type HTTPJSONConfig struct {
	Name string

	// URLTemplate contains a literal "$" that is replaced with the key's
	// string form, e.g. "https://api.example.com/users/$". REQUIRED unless
	// QueryParam is set.
	URLTemplate string

	// QueryParam, if non-empty, appends "?<QueryParam>=<key>" to URL
	// instead of substituting into URLTemplate. OPTIONAL.
	QueryParam string
	URL        string

	// FieldPaths maps a requested field name to its gjson path within the
	// response body, e.g. {"age": "profile.age"}. A field absent from this
	// map falls back to using the field name itself as the path.
	FieldPaths map[string]string

	Timeout time.Duration
}

// HTTPJSONSource is the lookup source built from an HTTPJSONConfig.
type HTTPJSONSource struct {
	cfg    HTTPJSONConfig
	client *http.Client
}

// NewHTTPJSONSource builds a Source backed by cfg, using a bounded-timeout
// http.Client (default 5s if cfg.Timeout is zero).
func NewHTTPJSONSource(cfg HTTPJSONConfig) *HTTPJSONSource {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPJSONSource{cfg: cfg, client: &http.Client{Timeout: timeout}}
}

func (s *HTTPJSONSource) Name() string { return s.cfg.Name }

func (s *HTTPJSONSource) Lookup(ctx context.Context, key value.Value, fields []string) ([]value.Row, error) {
	target, err := s.buildURL(key)
	if err != nil {
		return nil, fmt.Errorf("lookupsrc.httpjson %q: %w", s.cfg.Name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("lookupsrc.httpjson %q: %w", s.cfg.Name, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lookupsrc.httpjson %q: %w", s.cfg.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("lookupsrc.httpjson %q: reading body: %w", s.cfg.Name, err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("lookupsrc.httpjson %q: status %d", s.cfg.Name, resp.StatusCode)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("lookupsrc.httpjson %q: invalid JSON response", s.cfg.Name)
	}

	doc := gjson.ParseBytes(body)
	row := make(value.Row, len(fields))
	for _, f := range fields {
		path := f
		if p, ok := s.cfg.FieldPaths[f]; ok {
			path = p
		}
		row[f] = gjsonToValue(doc.Get(path))
	}
	return []value.Row{row}, nil
}

func (s *HTTPJSONSource) buildURL(key value.Value) (string, error) {
	keyStr := key.String()
	if s.cfg.QueryParam != "" {
		u, err := url.Parse(s.cfg.URL)
		if err != nil {
			return "", err
		}
		q := u.Query()
		q.Set(s.cfg.QueryParam, keyStr)
		u.RawQuery = q.Encode()
		return u.String(), nil
	}
	return strings.Replace(s.cfg.URLTemplate, "$", url.PathEscape(keyStr), 1), nil
}

// gjsonToValue converts one gjson.Result into a value.Value, // JSON value mapping (a result that doesn't exist in the document is Null).
func gjsonToValue(r gjson.Result) value.Value {
	if !r.Exists() {
		return value.Null()
	}
	switch r.Type {
	case gjson.Null:
		return value.Null()
	case gjson.False:
		return value.Bool(false)
	case gjson.True:
		return value.Bool(true)
	case gjson.Number:
		if r.Num == float64(int64(r.Num)) {
			return value.Int(int64(r.Num))
		}
		return value.Double(r.Num)
	case gjson.String:
		return value.String(r.Str)
	case gjson.JSON:
		if r.IsArray() {
			var items []value.Value
			r.ForEach(func(_, v gjson.Result) bool {
				items = append(items, gjsonToValue(v))
				return true
			})
			return value.List(items)
		}
		var keys []string
		m := make(map[string]value.Value)
		r.ForEach(func(k, v gjson.Result) bool {
			keys = append(keys, k.Str)
			m[k.Str] = gjsonToValue(v)
			return true
		})
		return value.Map(keys, m)
	default:
		return value.Null()
	}
}

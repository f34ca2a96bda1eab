package lookupsrc

import (
	"sort"

	"github.com/goccy/go-json"

	"github.com/feathr-ai/feathr-online/value"
)

// decodeJSONDocument decodes one JSON object into a name-to-Value map,
// using goccy/go-json in place of encoding/json for the same reason the
// HTTP boundary does (JSON value mapping, applied here to a
// document-store row instead of a request/response body).
func decodeJSONDocument(doc []byte) (map[string]value.Value, error) {
	var raw map[string]any
	if err := json.Unmarshal(doc, &raw); err != nil {
		return nil, err
	}
	out := make(map[string]value.Value, len(raw))
	for k, v := range raw {
		out[k] = anyToValue(v)
	}
	return out, nil
}

// anyToValue converts a value produced by json.Unmarshal into a value.Value
// of the appropriate kind.
func anyToValue(v any) value.Value {
	switch x := v.(type) {
	case nil:
		return value.Null()
	case bool:
		return value.Bool(x)
	case float64:
		if x == float64(int64(x)) {
			return value.Int(int64(x))
		}
		return value.Double(x)
	case string:
		return value.String(x)
	case []any:
		items := make([]value.Value, len(x))
		for i, item := range x {
			items[i] = anyToValue(item)
		}
		return value.List(items)
	case map[string]any:
		keys := make([]string, 0, len(x))
		m := make(map[string]value.Value, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			m[k] = anyToValue(x[k])
		}
		return value.Map(keys, m)
	default:
		return value.Null()
	}
}

// Package udlf bridges an externally-registered asynchronous lookup
// callable into the lookup.Source capability. The callable
// itself lives across a host-language boundary that is out of scope here;
// Adapter only owns the wire protocol and the row-shape contract.
package udlf

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/feathr-ai/feathr-online/internal/msgpack"
	"github.com/feathr-ai/feathr-online/value"
)

// Transport invokes the externally-registered callable with a
// msgpack-encoded request and returns its msgpack-encoded reply. An error
// from Invoke represents an exception raised by the callable itself.
type Transport interface {
	Invoke(ctx context.Context, payload []byte) ([]byte, error)
}

// request is the wire shape of one call to f(key, fields).
type request struct {
	Key    any      `msgpack:"key"`
	Fields []string `msgpack:"fields"`
}

// reply is the wire shape of the callable's result: a list of rows, each a
// list of values aligned positionally with the request's Fields.
type reply struct {
	Rows [][]any `msgpack:"rows"`
}

// Adapter implements lookup.Source on top of a Transport.
type Adapter struct {
	name      string
	transport Transport
	logger    *slog.Logger
}

// NewAdapter builds an Adapter named name, calling t for every Lookup. A nil
// logger falls back to slog.Default().
func NewAdapter(name string, t Transport, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{name: name, transport: t, logger: logger}
}

func (a *Adapter) Name() string { return a.name }

// Lookup encodes (key, fields) as msgpack, invokes the transport, and
// decodes the reply. A Transport error (the callable's own exception)
// is returned as-is; ops.Lookup and ops.Join turn it into the join-kind
// dependent row count describes. A malformed reply instead
// becomes an InternalError on every requested field, since it is this
// adapter's own failure rather than the callable's.
func (a *Adapter) Lookup(ctx context.Context, key value.Value, fields []string) ([]value.Row, error) {
	req := request{Key: valueToAny(key), Fields: fields}
	payload, err := msgpack.Encode(req)
	if err != nil {
		return []value.Row{rowError(fields, value.KindInternal, "udlf %q: encode request: %v", a.name, err)}, nil
	}

	respBytes, err := a.transport.Invoke(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("udlf %q: %w", a.name, err)
	}

	var rep reply
	if err := msgpack.Decode(respBytes, &rep); err != nil {
		return []value.Row{rowError(fields, value.KindInternal, "udlf %q: decode reply: %v", a.name, err)}, nil
	}

	rows := make([]value.Row, len(rep.Rows))
	for i, inner := range rep.Rows {
		rows[i] = a.alignRow(inner, fields, i)
	}
	return rows, nil
}

// alignRow pads a short inner list with Null and truncates a long one,
// logging a warning with the received and expected value counts.
func (a *Adapter) alignRow(inner []any, fields []string, rowIdx int) value.Row {
	if len(inner) > len(fields) {
		a.logger.Warn("udlf reply row longer than requested fields, truncating",
			"source", a.name, "row", rowIdx, "got", len(inner), "want", len(fields))
		inner = inner[:len(fields)]
	}
	row := make(value.Row, len(fields))
	for i, f := range fields {
		if i < len(inner) {
			row[f] = anyToValue(inner[i])
			continue
		}
		row[f] = value.Null()
	}
	return row
}

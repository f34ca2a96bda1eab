package eval

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/feathr-ai/feathr-online/value"
)

// Handler is a scalar function body: it receives already-evaluated,
// already-error-checked arguments and returns a single Value.
type Handler func(args []value.Value) value.Value

// FuncRecord is the registry's entry for one function name: an arity range
// and an indirect call. Dispatch runs through a name-indexed table of
// records rather than polymorphism on a base type.
type FuncRecord struct {
	MinArity int
	MaxArity int // -1 means unbounded (variadic)
	Handler  Handler
	IsUDF    bool
}

// Registry is the process-wide, read-only-after-construction table of
// scalar functions. UDFs are merged in at construction time.
type Registry struct {
	funcs  map[string]*FuncRecord
	logger *slog.Logger
}

// NewRegistry builds a Registry pre-populated with every built-in scalar
// function. A nil logger falls back to slog.Default().
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{funcs: make(map[string]*FuncRecord), logger: logger}
	registerMath(r)
	registerString(r)
	registerCollection(r)
	registerTypeConv(r)
	registerDatetime(r)
	registerUtil(r)
	return r
}

func (r *Registry) register(name string, min, max int, h Handler) {
	r.funcs[name] = &FuncRecord{MinArity: min, MaxArity: max, Handler: h}
}

// RegisterUDF adds a caller-provided scalar function to the registry. UDFs
// are invoked through the same dispatch path as built-ins, so they inherit
// arity checking and error-propagation for free, and are wrapped with panic
// recovery so a panicking UDF can't crash a request.
func (r *Registry) RegisterUDF(name string, minArity, maxArity int, fn Handler) error {
	if _, exists := r.funcs[name]; exists {
		return fmt.Errorf("eval: function %q already registered", name)
	}
	r.funcs[name] = &FuncRecord{MinArity: minArity, MaxArity: maxArity, Handler: fn, IsUDF: true}
	return nil
}

// Lookup returns the FuncRecord for name, or nil if unknown.
func (r *Registry) Lookup(name string) *FuncRecord {
	return r.funcs[name]
}

// Invoke dispatches name with args, applying arity checking and the
// error-propagation rule before calling the handler. No function, built-in
// or UDF, is ever invoked with an Error argument; UDF calls are additionally
// guarded against panics.
func (r *Registry) Invoke(name string, args []value.Value) value.Value {
	rec, ok := r.funcs[name]
	if !ok {
		return value.NewError(value.KindSemantic, "unknown function %q", name)
	}
	if errv, ok := value.FirstError(args...); ok {
		return errv
	}
	if len(args) < rec.MinArity || (rec.MaxArity >= 0 && len(args) > rec.MaxArity) {
		return value.NewError(value.KindSemantic, "function %q called with %d arguments, expected %s", name, len(args), arityDesc(rec))
	}
	if rec.IsUDF {
		return r.safeInvoke(name, rec.Handler, args)
	}
	return rec.Handler(args)
}

func arityDesc(rec *FuncRecord) string {
	if rec.MaxArity < 0 {
		return fmt.Sprintf("at least %d", rec.MinArity)
	}
	if rec.MinArity == rec.MaxArity {
		return fmt.Sprintf("%d", rec.MinArity)
	}
	return fmt.Sprintf("between %d and %d", rec.MinArity, rec.MaxArity)
}

// safeInvoke wraps a UDF call with panic recovery, converting any panic
// into a TypeError cell value rather than crashing the request, following
// the recover-log-convert shape of internal/recovery.RecoverToValue.
func (r *Registry) safeInvoke(name string, h Handler, args []value.Value) (result value.Value) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("udf panic recovered",
				"function", name,
				"panic", rec,
				"stack", string(debug.Stack()),
			)
			result = value.NewError(value.KindType, "udf %q panicked: %v", name, rec)
		}
	}()
	return h(args)
}

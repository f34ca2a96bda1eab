package eval

import "github.com/feathr-ai/feathr-online/value"

// Accumulator folds a stream of per-row argument tuples into a single
// aggregation result, used by the `summarize` operator.
// Add receives already-evaluated arguments for one input row. The summarize
// operator passes them through unfiltered, so an argument can be an Error;
// each accumulator treats an Error like any other value of its kind.
type Accumulator interface {
	Add(args []value.Value)
	Result() value.Value
}

// AggConstructor builds a fresh Accumulator for one summarize column.
type AggConstructor func() Accumulator

var aggConstructors = map[string]AggConstructor{
	"count":          func() Accumulator { return &countAgg{} },
	"count_distinct": func() Accumulator { return &countDistinctAgg{seen: map[any]struct{}{}} },
	"sum":            func() Accumulator { return &sumAgg{} },
	"avg":            func() Accumulator { return &avgAgg{} },
	"min":            func() Accumulator { return &minMaxAgg{min: true} },
	"max":            func() Accumulator { return &minMaxAgg{min: false} },
	"any":            func() Accumulator { return &anyAllAgg{any: true} },
	"all":            func() Accumulator { return &anyAllAgg{any: false, all: true} },
	"array_agg":      func() Accumulator { return &arrayAgg{} },
	"first":          func() Accumulator { return &firstLastAgg{first: true} },
	"last":           func() Accumulator { return &firstLastAgg{first: false} },
}

// NewAccumulator looks up an aggregation function by name. ok is false for
// an unknown aggregation name (a semantic error at pipeline build time).
func NewAccumulator(name string) (Accumulator, bool) {
	ctor, ok := aggConstructors[name]
	if !ok {
		return nil, false
	}
	return ctor(), true
}

type countAgg struct{ n int64 }

func (a *countAgg) Add(args []value.Value) {
	// count() with no arguments counts rows; count(expr) counts non-null.
	if len(args) == 0 || !args[0].IsNull() {
		a.n++
	}
}
func (a *countAgg) Result() value.Value { return value.Int(a.n) }

type countDistinctAgg struct {
	seen map[any]struct{}
}

func (a *countDistinctAgg) Add(args []value.Value) {
	if len(args) == 0 || args[0].IsNull() {
		return
	}
	a.seen[value.HashKey(args[0])] = struct{}{}
}
func (a *countDistinctAgg) Result() value.Value { return value.Int(int64(len(a.seen))) }

type sumAgg struct {
	sum     float64
	sawFloat bool
	any     bool
}

func (a *sumAgg) Add(args []value.Value) {
	if len(args) == 0 || args[0].IsNull() || !args[0].IsNumeric() {
		return
	}
	a.any = true
	if args[0].Kind() != value.KindInt {
		a.sawFloat = true
	}
	f, _ := args[0].AsFloat64()
	a.sum += f
}
func (a *sumAgg) Result() value.Value {
	if !a.any {
		return value.Int(0)
	}
	if a.sawFloat {
		return value.Double(a.sum)
	}
	return value.Int(int64(a.sum))
}

type avgAgg struct {
	sum   float64
	count int64
}

func (a *avgAgg) Add(args []value.Value) {
	if len(args) == 0 || args[0].IsNull() || !args[0].IsNumeric() {
		return
	}
	f, _ := args[0].AsFloat64()
	a.sum += f
	a.count++
}
func (a *avgAgg) Result() value.Value {
	if a.count == 0 {
		return value.Null()
	}
	return value.Double(a.sum / float64(a.count))
}

type minMaxAgg struct {
	min  bool
	set  bool
	cur  value.Value
}

func (a *minMaxAgg) Add(args []value.Value) {
	if len(args) == 0 || args[0].IsNull() {
		return
	}
	v := args[0]
	if !a.set {
		a.cur, a.set = v, true
		return
	}
	ord, ok := value.Compare(v, a.cur)
	if !ok {
		return
	}
	if (a.min && ord == value.Less) || (!a.min && ord == value.Greater) {
		a.cur = v
	}
}
func (a *minMaxAgg) Result() value.Value {
	if !a.set {
		return value.Null()
	}
	return a.cur
}

type anyAllAgg struct {
	any, all bool
	result   bool
	any_set  bool
}

func (a *anyAllAgg) Add(args []value.Value) {
	if len(args) == 0 || args[0].Kind() != value.KindBool {
		return
	}
	if !a.any_set {
		if a.all {
			a.result = true
		}
		a.any_set = true
	}
	if a.all {
		a.result = a.result && args[0].Bool()
	} else {
		a.result = a.result || args[0].Bool()
	}
}
func (a *anyAllAgg) Result() value.Value { return value.Bool(a.result) }

type arrayAgg struct{ items []value.Value }

func (a *arrayAgg) Add(args []value.Value) {
	if len(args) == 0 {
		return
	}
	a.items = append(a.items, args[0])
}
func (a *arrayAgg) Result() value.Value { return value.List(a.items) }

type firstLastAgg struct {
	first bool
	set   bool
	val   value.Value
}

func (a *firstLastAgg) Add(args []value.Value) {
	if len(args) == 0 {
		return
	}
	if a.first && a.set {
		return
	}
	a.val, a.set = args[0], true
}
func (a *firstLastAgg) Result() value.Value {
	if !a.set {
		return value.Null()
	}
	return a.val
}

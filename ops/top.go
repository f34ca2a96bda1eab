package ops

import (
	"container/heap"
	"context"
	"sort"

	"github.com/feathr-ai/feathr-online/dsl"
	"github.com/feathr-ai/feathr-online/eval"
	"github.com/feathr-ai/feathr-online/stream"
	"github.com/feathr-ai/feathr-online/value"
)

// Top performs the deterministic bounded selection of : a
// max-size-n heap keyed by the sort tuple, tie-broken by stable arrival
// order, emitting the n highest-priority rows in sorted order. Comparisons
// involving Error treat Error as larger than any value in asc and smaller
// in desc, so Error rows always sort to the bottom of the result.
func Top(in stream.Stream, n int64, terms []dsl.SortTerm, reg *eval.Registry) stream.Stream {
	if n < 0 {
		n = 0
	}
	schema := in.Schema()
	var result []topItem
	var resultPos int
	started := false

	return stream.New(schema, func(ctx context.Context) (value.Row, bool, error) {
		if !started {
			started = true
			items, err := collectTop(ctx, in, terms, reg, n)
			if err != nil {
				return nil, false, err
			}
			result = items
		}
		if resultPos >= len(result) {
			return nil, false, nil
		}
		row := result[resultPos].row
		resultPos++
		return row, true, nil
	})
}

type topItem struct {
	row     value.Row
	keys    []value.Value
	arrival int64
}

// topHeap is a min-heap over priority: Pop/root is the current *worst*
// item among the n being kept, so a better incoming row can evict it in
// O(log n).
type topHeap struct {
	items []topItem
	terms []dsl.SortTerm
}

func (h *topHeap) Len() int { return len(h.items) }
func (h *topHeap) Less(i, j int) bool {
	// i is "less" (worse priority, evicted first) than j.
	return !higherPriority(h.items[i], h.items[j], h.terms)
}
func (h *topHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *topHeap) Push(x any)    { h.items = append(h.items, x.(topItem)) }
func (h *topHeap) Pop() any {
	old := h.items
	n := len(old)
	it := old[n-1]
	h.items = old[:n-1]
	return it
}

// higherPriority reports whether a should be output before b, per the sort
// terms: the first term that differs decides; a tie falls through to
// earlier arrival order.
func higherPriority(a, b topItem, terms []dsl.SortTerm) bool {
	for i, term := range terms {
		cmp := compareForSort(a.keys[i], b.keys[i], term.Desc)
		if cmp != 0 {
			return cmp < 0
		}
	}
	return a.arrival < b.arrival
}

// compareForSort returns <0 if a sorts before b, 0 if tied, >0 otherwise,
// honoring desc and the documented Error placement (always last).
func compareForSort(a, b value.Value, desc bool) int {
	aErr, bErr := a.IsError(), b.IsError()
	if aErr && bErr {
		return 0
	}
	if aErr {
		return 1 // a (Error) always sorts after b, in both asc and desc
	}
	if bErr {
		return -1
	}
	ord, ok := value.Compare(a, b)
	if !ok {
		return 0
	}
	c := int(ord)
	if desc {
		c = -c
	}
	return c
}

func collectTop(ctx context.Context, in stream.Stream, terms []dsl.SortTerm, reg *eval.Registry, n int64) ([]topItem, error) {
	h := &topHeap{terms: terms}
	heap.Init(h)
	var arrival int64

	for {
		row, ok, err := in.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		keys := make([]value.Value, len(terms))
		for i, t := range terms {
			keys[i] = eval.Eval(t.Expr, row, reg)
		}
		item := topItem{row: row, keys: keys, arrival: arrival}
		arrival++

		if n == 0 {
			continue
		}
		if int64(h.Len()) < n {
			heap.Push(h, item)
			continue
		}
		// h.items[0] is the current worst kept item; replace it if item
		// outranks it.
		if higherPriority(item, h.items[0], terms) {
			heap.Pop(h)
			heap.Push(h, item)
		}
	}

	items := append([]topItem(nil), h.items...)
	sort.SliceStable(items, func(i, j int) bool {
		return higherPriority(items[i], items[j], terms)
	})
	return items, nil
}

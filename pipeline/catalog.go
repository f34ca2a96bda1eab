// Package pipeline implements the pipeline catalog and executor: a
// process-wide, read-only-after-construction mapping from pipeline name to
// its parsed AST and input schema, plus the per-request execution path
// that drives an input row through an operator chain.
package pipeline

import (
	"errors"
	"fmt"

	"github.com/feathr-ai/feathr-online/dsl"
	"github.com/feathr-ai/feathr-online/eval"
	"github.com/feathr-ai/feathr-online/lookup"
)

// Sentinel errors for catalog construction and lookup.
var (
	ErrUnknownPipeline = errors.New("pipeline: unknown pipeline name")
	ErrUnknownColumn   = errors.New("pipeline: unknown column reference")
	ErrUnknownFunction = errors.New("pipeline: unknown function reference")
	ErrUnknownSource   = errors.New("pipeline: unknown lookup source")
)

// entry is one compiled pipeline: its AST plus whatever the operator chain
// needs at run time that isn't re-derivable from the AST alone.
type entry struct {
	pl *dsl.Pipeline
}

// Catalog is the process-wide, immutable-after-construction table of
// compiled pipelines. Build it once at startup with Build; a Catalog has no mutating
// methods.
type Catalog struct {
	pipelines map[string]*entry
	sources   map[string]lookup.Source
	registry  *eval.Registry
}

// Build parses script into one or more pipeline declarations, binds every
// `lookup`/`join` clause's named source against sources, and performs the
// semantic validation defers to "after parsing": unknown column
// reference, unknown function, scalar function arity, unknown lookup
// source, unknown aggregation. Aggregation argument counts are not checked.
// A failure here is fatal at load time, the
// way airport.CatalogBuilder.Build validates its whole schema graph before
// returning a usable Catalog.
func Build(script string, sources map[string]lookup.Source, registry *eval.Registry) (*Catalog, error) {
	pipelines, err := dsl.Parse(script)
	if err != nil {
		return nil, fmt.Errorf("pipeline: parse: %w", err)
	}
	if sources == nil {
		sources = map[string]lookup.Source{}
	}

	cat := &Catalog{
		pipelines: make(map[string]*entry, len(pipelines)),
		sources:   sources,
		registry:  registry,
	}
	for _, pl := range pipelines {
		if err := validatePipeline(pl, sources, registry); err != nil {
			return nil, fmt.Errorf("pipeline %q: %w", pl.Name, err)
		}
		cat.pipelines[pl.Name] = &entry{pl: pl}
	}
	return cat, nil
}

// Lookup resolves name to its compiled pipeline, or ErrUnknownPipeline.
func (c *Catalog) Lookup(name string) (*dsl.Pipeline, error) {
	e, ok := c.pipelines[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPipeline, name)
	}
	return e.pl, nil
}

// Names returns every registered pipeline name, for diagnostics and /metrics.
func (c *Catalog) Names() []string {
	out := make([]string, 0, len(c.pipelines))
	for name := range c.pipelines {
		out = append(out, name)
	}
	return out
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline turns raw chemical names into resolved reagent records.
// Implements: prd003-selection (R1-R4);
//
//	docs/ARCHITECTURE § Pipeline.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/pdiddy/autochemlab/internal/chem"
	"github.com/pdiddy/autochemlab/internal/lookup"
	"github.com/pdiddy/autochemlab/pkg/types"
)

// Sources recorded on resolved reagents.
const (
	SourceCommonChem = "commonchem"
	SourceCache      = "cache"
	SourceDirect     = "casrn"
)

// Registry resolves chemical names to CAS numbers and fetches properties.
// The production implementation is lookup.Client; tests substitute fakes.
type Registry interface {
	ResolveCAS(ctx context.Context, name string, cfg types.LookupConfig) (lookup.Match, error)
	FetchProperties(ctx context.Context, casrn string, cfg types.LookupConfig) (types.ChemicalProperties, error)
}

// Cache persists successful lookups between runs. Cache errors degrade to
// registry calls, never to item failures (R2.4).
type Cache interface {
	GetCAS(ctx context.Context, name string) (casrn, matchedName string, ok bool, err error)
	PutCAS(ctx context.Context, name, casrn, matchedName string) error
	GetProperties(ctx context.Context, casrn string) (*types.ChemicalProperties, error)
	PutProperties(ctx context.Context, casrn string, props types.ChemicalProperties) error
}

// Chooser answers the boiling-vs-melting question for a chemical that has
// both values. The interactive implementation is
// prompt.Prompter.ChooseTemperature.
type Chooser func(name string, bp, mp float64) (types.TemperatureKind, error)

// Picker selects among multiple registry candidates for one name, consulted
// only under the "prompt" ambiguity policy.
type Picker func(name string, candidates []lookup.Match) (lookup.Match, error)

// Pipeline resolves a batch of chemical names end to end: normalize, find
// the CAS number, fetch properties, pick the reported temperature.
type Pipeline struct {
	Registry Registry
	Cache    Cache     // nil disables caching
	Choose   Chooser   // nil selects the boiling point without asking
	Pick     Picker    // nil falls back to the first candidate
	Config   types.PipelineConfig
	Progress io.Writer // nil discards
}

// Summary tallies a batch outcome.
type Summary struct {
	Resolved int // CAS number and properties recorded
	Partial  int // CAS number found, properties or selection failed
	Failed   int // no CAS number
}

// Total returns the number of names processed.
func (s Summary) Total() int {
	return s.Resolved + s.Partial + s.Failed
}

// HasFailures reports whether any name resolved incompletely.
func (s Summary) HasFailures() bool {
	return s.Partial > 0 || s.Failed > 0
}

// Run resolves each raw name independently, printing per-item status and
// applying the polite delay between consecutive items (R1.3). Individual
// failures are recorded on the reagent and the batch continues (R1.2); the
// output holds exactly one reagent per input, in input order (R1.1), so the
// caller can align reagents with form rows by position. Names are never
// deduplicated: each occurrence resolves on its own.
func (p *Pipeline) Run(ctx context.Context, rawNames []string) ([]types.Reagent, Summary) {
	w := p.Progress
	if w == nil {
		w = io.Discard
	}
	norm := chem.NewNormalizer(p.Config.Normalize)

	var sum Summary
	reagents := make([]types.Reagent, 0, len(rawNames))
	for i, raw := range rawNames {
		if i > 0 && p.Config.Lookup.RequestDelay > 0 {
			time.Sleep(p.Config.Lookup.RequestDelay)
		}
		r := p.resolveOne(ctx, raw, norm, w)
		reagents = append(reagents, r)
		switch {
		case r.LookupErr == "":
			sum.Resolved++
		case r.CASRN != "":
			sum.Partial++
		default:
			sum.Failed++
		}
	}

	fmt.Fprintf(w, "\nLookup summary: %d resolved, %d partial, %d failed (total: %d)\n",
		sum.Resolved, sum.Partial, sum.Failed, sum.Total())
	return reagents, sum
}

// resolveOne processes a single raw name. Failures land on the returned
// reagent's LookupErr, never as an error.
func (p *Pipeline) resolveOne(ctx context.Context, raw string, norm *chem.Normalizer, w io.Writer) types.Reagent {
	name := norm.Normalize(raw)
	r := types.Reagent{RawName: raw, Name: name, TemperatureKind: types.TemperatureNone}

	if name == "" {
		r.LookupErr = "empty name after cleanup"
		fmt.Fprintf(w, "failed:  %q (empty name after cleanup)\n", raw)
		return r
	}

	match, source, err := p.findCAS(ctx, name, w)
	if err != nil {
		r.LookupErr = err.Error()
		fmt.Fprintf(w, "failed:  %s (%v)\n", name, err)
		return r
	}
	r.CASRN = match.CASRN
	r.MatchedName = match.Name
	r.Source = source
	switch source {
	case SourceCache:
		fmt.Fprintf(w, "cached:  %s (%s)\n", name, match.CASRN)
	case SourceDirect:
		fmt.Fprintf(w, "direct:  %s\n", match.CASRN)
	default:
		fmt.Fprintf(w, "resolved: %s (%s)\n", name, match.CASRN)
	}

	props, err := p.findProperties(ctx, match.CASRN, w)
	if err != nil {
		r.LookupErr = fmt.Sprintf("properties: %v", err)
		fmt.Fprintf(w, "  warning: property fetch failed for %s: %v\n", match.CASRN, err)
		return r
	}
	r.Properties = &props

	kind, value, err := SelectTemperature(name, r.Properties, p.Choose)
	if err != nil {
		r.LookupErr = fmt.Sprintf("temperature selection: %v", err)
		fmt.Fprintf(w, "  warning: temperature selection failed for %s: %v\n", name, err)
		return r
	}
	r.TemperatureKind = kind
	r.TemperatureValue = value
	return r
}

// findCAS resolves a normalized name to a CAS number, through the cache
// when one is wired (R2.4). A not-found answer gets one more try without
// the locant prefix before the name is given up (R2.3); the registry
// indexes some common solvents that way.
func (p *Pipeline) findCAS(ctx context.Context, name string, w io.Writer) (lookup.Match, string, error) {
	// A name that is already a CAS number needs no search; lab sheets
	// sometimes list one in place of a name.
	if chem.ValidCASRN(name) {
		return lookup.Match{CASRN: name}, SourceDirect, nil
	}

	if p.Cache != nil {
		casrn, matched, ok, err := p.Cache.GetCAS(ctx, name)
		if err != nil {
			fmt.Fprintf(w, "  warning: cache read failed: %v\n", err)
		} else if ok {
			return lookup.Match{CASRN: casrn, Name: matched}, SourceCache, nil
		}
	}

	match, err := p.searchOnce(ctx, name)
	if errors.Is(err, lookup.ErrNotFound) {
		if alt := chem.StripLocantPrefix(name); alt != name {
			fmt.Fprintf(w, "  retrying without locant prefix: %s\n", alt)
			match, err = p.searchOnce(ctx, alt)
		}
	}
	if err != nil {
		return lookup.Match{}, "", err
	}

	if p.Cache != nil {
		if err := p.Cache.PutCAS(ctx, name, match.CASRN, match.Name); err != nil {
			fmt.Fprintf(w, "  warning: cache write failed: %v\n", err)
		}
	}
	return match, SourceCommonChem, nil
}

// searchOnce performs one registry search and applies the ambiguity policy
// (R2.2): "first" takes the top candidate, matching the registry's own
// ranking; "prompt" hands the list to the Pick collaborator.
func (p *Pipeline) searchOnce(ctx context.Context, name string) (lookup.Match, error) {
	match, err := p.Registry.ResolveCAS(ctx, name, p.Config.Lookup)
	var amb *lookup.AmbiguousError
	if !errors.As(err, &amb) {
		return match, err
	}
	if p.Config.Lookup.Ambiguous == types.AmbiguousPrompt && p.Pick != nil {
		return p.Pick(name, amb.Candidates)
	}
	return amb.Candidates[0], nil
}

// findProperties fetches properties for a CAS number, through the cache
// when one is wired. Only successful fetches are cached, so transient
// registry failures stay re-checkable (R2.5).
func (p *Pipeline) findProperties(ctx context.Context, casrn string, w io.Writer) (types.ChemicalProperties, error) {
	if p.Cache != nil {
		props, err := p.Cache.GetProperties(ctx, casrn)
		if err != nil {
			fmt.Fprintf(w, "  warning: cache read failed: %v\n", err)
		} else if props != nil {
			return *props, nil
		}
	}

	props, err := p.Registry.FetchProperties(ctx, casrn, p.Config.Lookup)
	if err != nil {
		return types.ChemicalProperties{}, err
	}

	if p.Cache != nil {
		if err := p.Cache.PutProperties(ctx, casrn, props); err != nil {
			fmt.Fprintf(w, "  warning: cache write failed: %v\n", err)
		}
	}
	return props, nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/pdiddy/autochemlab/internal/lookup"
	"github.com/pdiddy/autochemlab/pkg/types"
)

func fptr(v float64) *float64 {
	return &v
}

// fakeRegistry serves matches and properties from maps and records calls.
type fakeRegistry struct {
	matches    map[string]lookup.Match
	resolveErr map[string]error
	props      map[string]types.ChemicalProperties
	propsErr   map[string]error

	resolveCalls []string
	fetchCalls   []string
}

func (f *fakeRegistry) ResolveCAS(_ context.Context, name string, _ types.LookupConfig) (lookup.Match, error) {
	f.resolveCalls = append(f.resolveCalls, name)
	if err, ok := f.resolveErr[name]; ok {
		return lookup.Match{}, err
	}
	if m, ok := f.matches[name]; ok {
		return m, nil
	}
	return lookup.Match{}, fmt.Errorf("%q: %w", name, lookup.ErrNotFound)
}

func (f *fakeRegistry) FetchProperties(_ context.Context, casrn string, _ types.LookupConfig) (types.ChemicalProperties, error) {
	f.fetchCalls = append(f.fetchCalls, casrn)
	if err, ok := f.propsErr[casrn]; ok {
		return types.ChemicalProperties{}, err
	}
	return f.props[casrn], nil
}

// fakeCache is an in-memory Cache that records writes.
type fakeCache struct {
	cas    map[string][2]string // name → casrn, matched name
	props  map[string]types.ChemicalProperties
	getErr error
	putErr error

	casPuts  int
	propPuts int
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		cas:   make(map[string][2]string),
		props: make(map[string]types.ChemicalProperties),
	}
}

func (f *fakeCache) GetCAS(_ context.Context, name string) (string, string, bool, error) {
	if f.getErr != nil {
		return "", "", false, f.getErr
	}
	if v, ok := f.cas[name]; ok {
		return v[0], v[1], true, nil
	}
	return "", "", false, nil
}

func (f *fakeCache) PutCAS(_ context.Context, name, casrn, matched string) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.cas[name] = [2]string{casrn, matched}
	f.casPuts++
	return nil
}

func (f *fakeCache) GetProperties(_ context.Context, casrn string) (*types.ChemicalProperties, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if p, ok := f.props[casrn]; ok {
		return &p, nil
	}
	return nil, nil
}

func (f *fakeCache) PutProperties(_ context.Context, casrn string, props types.ChemicalProperties) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.props[casrn] = props
	f.propPuts++
	return nil
}

func testPipeline(reg *fakeRegistry) (*Pipeline, *bytes.Buffer) {
	var buf bytes.Buffer
	p := &Pipeline{
		Registry: reg,
		Config: types.PipelineConfig{
			Normalize: types.NormalizeConfig{RestoreLocants: true},
		},
		Progress: &buf,
	}
	return p, &buf
}

func ethanolProps() types.ChemicalProperties {
	return types.ChemicalProperties{
		MolecularWeight: fptr(46.07),
		BoilingPoint:    fptr(78.37),
		MeltingPoint:    fptr(-114.1),
		Density:         fptr(0.7893),
	}
}

func TestRunResolvesNoisyName(t *testing.T) {
	reg := &fakeRegistry{
		matches: map[string]lookup.Match{
			"Ethanol": {CASRN: "64-17-5", Name: "Ethanol"},
		},
		props: map[string]types.ChemicalProperties{
			"64-17-5": ethanolProps(),
		},
	}
	p, buf := testPipeline(reg)

	chooserCalls := 0
	p.Choose = func(name string, bp, mp float64) (types.TemperatureKind, error) {
		chooserCalls++
		if name != "Ethanol" || bp != 78.37 || mp != -114.1 {
			t.Errorf("chooser saw (%q, %g, %g)", name, bp, mp)
		}
		return types.TemperatureBoiling, nil
	}

	reagents, sum := p.Run(context.Background(), []string{" Ethanol1 "})
	if len(reagents) != 1 {
		t.Fatalf("got %d reagents, want 1", len(reagents))
	}
	r := reagents[0]
	if r.RawName != " Ethanol1 " || r.Name != "Ethanol" {
		t.Errorf("names = (%q, %q), want raw preserved and cleaned name", r.RawName, r.Name)
	}
	if r.CASRN != "64-17-5" || r.MatchedName != "Ethanol" || r.Source != SourceCommonChem {
		t.Errorf("resolution = (%q, %q, %q)", r.CASRN, r.MatchedName, r.Source)
	}
	if r.Properties == nil || *r.Properties.MolecularWeight != 46.07 || *r.Properties.Density != 0.7893 {
		t.Errorf("properties = %+v", r.Properties)
	}
	if r.TemperatureKind != types.TemperatureBoiling || r.TemperatureValue == nil || *r.TemperatureValue != 78.37 {
		t.Errorf("temperature = (%q, %v)", r.TemperatureKind, r.TemperatureValue)
	}
	if r.LookupErr != "" {
		t.Errorf("LookupErr = %q, want empty", r.LookupErr)
	}
	if chooserCalls != 1 {
		t.Errorf("chooser called %d times, want exactly 1", chooserCalls)
	}
	if sum.Resolved != 1 || sum.Partial != 0 || sum.Failed != 0 {
		t.Errorf("summary = %+v", sum)
	}
	if !strings.Contains(buf.String(), "resolved: Ethanol (64-17-5)") {
		t.Errorf("progress missing resolved line: %q", buf.String())
	}
}

func TestRunNotFound(t *testing.T) {
	reg := &fakeRegistry{}
	p, buf := testPipeline(reg)

	reagents, sum := p.Run(context.Background(), []string{"Unobtainium"})
	if len(reagents) != 1 {
		t.Fatalf("got %d reagents, want 1", len(reagents))
	}
	r := reagents[0]
	if r.CASRN != "" || r.Properties != nil {
		t.Errorf("unresolvable name produced data: %+v", r)
	}
	if r.TemperatureKind != types.TemperatureNone || r.TemperatureValue != nil {
		t.Errorf("temperature = (%q, %v), want none", r.TemperatureKind, r.TemperatureValue)
	}
	if !strings.Contains(r.LookupErr, "not found") {
		t.Errorf("LookupErr = %q", r.LookupErr)
	}
	if sum.Failed != 1 || sum.Resolved != 0 {
		t.Errorf("summary = %+v", sum)
	}
	if !strings.Contains(buf.String(), "failed:  Unobtainium") {
		t.Errorf("progress missing failed line: %q", buf.String())
	}
}

func TestRunBatchContinuesAfterFailure(t *testing.T) {
	reg := &fakeRegistry{
		matches: map[string]lookup.Match{
			"Ethanol": {CASRN: "64-17-5", Name: "Ethanol"},
			"acetone": {CASRN: "67-64-1", Name: "Acetone"},
			"toluene": {CASRN: "108-88-3", Name: "Toluene"},
			"benzene": {CASRN: "71-43-2", Name: "Benzene"},
		},
		resolveErr: map[string]error{
			"mystery": fmt.Errorf("%w: registry returned HTTP 500", lookup.ErrServiceUnavailable),
		},
		props: map[string]types.ChemicalProperties{
			"64-17-5":  {BoilingPoint: fptr(78.37)},
			"67-64-1":  {BoilingPoint: fptr(56.0)},
			"108-88-3": {BoilingPoint: fptr(110.6)},
			"71-43-2":  {BoilingPoint: fptr(80.1)},
		},
	}
	p, buf := testPipeline(reg)

	inputs := []string{"Ethanol", "acetone", "mystery", "toluene", "benzene"}
	reagents, sum := p.Run(context.Background(), inputs)

	if len(reagents) != 5 {
		t.Fatalf("got %d reagents, want one per input", len(reagents))
	}
	for i, r := range reagents {
		if r.RawName != inputs[i] {
			t.Errorf("reagent %d is %q, want input order preserved (%q)", i, r.RawName, inputs[i])
		}
	}
	wantCAS := []string{"64-17-5", "67-64-1", "", "108-88-3", "71-43-2"}
	for i, r := range reagents {
		if r.CASRN != wantCAS[i] {
			t.Errorf("reagent %d CASRN = %q, want %q", i, r.CASRN, wantCAS[i])
		}
	}
	if reagents[2].Properties != nil || reagents[2].LookupErr == "" {
		t.Errorf("failed item carries data: %+v", reagents[2])
	}
	if sum.Resolved != 4 || sum.Partial != 0 || sum.Failed != 1 {
		t.Errorf("summary = %+v", sum)
	}
	if !strings.Contains(buf.String(), "Lookup summary: 4 resolved, 0 partial, 1 failed (total: 5)") {
		t.Errorf("missing summary line: %q", buf.String())
	}
}

func TestRunLocantPrefixFallback(t *testing.T) {
	reg := &fakeRegistry{
		matches: map[string]lookup.Match{
			"trichloroethane": {CASRN: "79-00-5", Name: "1,1,2-Trichloroethane"},
		},
		props: map[string]types.ChemicalProperties{
			"79-00-5": {BoilingPoint: fptr(113.8)},
		},
	}
	p, buf := testPipeline(reg)

	reagents, sum := p.Run(context.Background(), []string{"1,1,2-trichloroethane"})
	r := reagents[0]
	if r.CASRN != "79-00-5" {
		t.Fatalf("CASRN = %q, want fallback resolution", r.CASRN)
	}
	if r.Name != "1,1,2-trichloroethane" {
		t.Errorf("Name = %q, want the full name kept on the record", r.Name)
	}
	if len(reg.resolveCalls) != 2 || reg.resolveCalls[0] != "1,1,2-trichloroethane" || reg.resolveCalls[1] != "trichloroethane" {
		t.Errorf("resolve calls = %v, want full name then stripped variant", reg.resolveCalls)
	}
	if sum.Resolved != 1 {
		t.Errorf("summary = %+v", sum)
	}
	if !strings.Contains(buf.String(), "retrying without locant prefix: trichloroethane") {
		t.Errorf("progress missing retry note: %q", buf.String())
	}
}

func TestRunLocantFallbackStopsAfterOneVariant(t *testing.T) {
	reg := &fakeRegistry{}
	p, _ := testPipeline(reg)

	reagents, _ := p.Run(context.Background(), []string{"1,4-unknownium"})
	if reagents[0].CASRN != "" {
		t.Fatalf("unexpected resolution: %+v", reagents[0])
	}
	if len(reg.resolveCalls) != 2 {
		t.Errorf("resolve calls = %v, want exactly the name and one variant", reg.resolveCalls)
	}
}

func TestRunDirectCASNumber(t *testing.T) {
	reg := &fakeRegistry{
		props: map[string]types.ChemicalProperties{
			"64-17-5": {BoilingPoint: fptr(78.37)},
		},
	}
	p, buf := testPipeline(reg)

	reagents, sum := p.Run(context.Background(), []string{" 64-17-5 "})
	r := reagents[0]
	if r.CASRN != "64-17-5" || r.Source != SourceDirect {
		t.Errorf("got (%q, %q), want the CAS number taken as-is", r.CASRN, r.Source)
	}
	if len(reg.resolveCalls) != 0 {
		t.Errorf("name search ran for a CAS number input: %v", reg.resolveCalls)
	}
	if len(reg.fetchCalls) != 1 || reg.fetchCalls[0] != "64-17-5" {
		t.Errorf("fetch calls = %v", reg.fetchCalls)
	}
	if r.TemperatureKind != types.TemperatureBoiling {
		t.Errorf("temperature = %q", r.TemperatureKind)
	}
	if sum.Resolved != 1 {
		t.Errorf("summary = %+v", sum)
	}
	if !strings.Contains(buf.String(), "direct:  64-17-5") {
		t.Errorf("progress missing direct line: %q", buf.String())
	}
}

func TestRunAmbiguousFirstPolicy(t *testing.T) {
	reg := &fakeRegistry{
		resolveErr: map[string]error{
			"xylene": &lookup.AmbiguousError{Name: "xylene", Candidates: []lookup.Match{
				{CASRN: "108-38-3", Name: "m-Xylene"},
				{CASRN: "95-47-6", Name: "o-Xylene"},
			}},
		},
		props: map[string]types.ChemicalProperties{
			"108-38-3": {BoilingPoint: fptr(139.1)},
		},
	}
	p, _ := testPipeline(reg)

	reagents, sum := p.Run(context.Background(), []string{"xylene"})
	r := reagents[0]
	if r.CASRN != "108-38-3" || r.MatchedName != "m-Xylene" {
		t.Errorf("got (%q, %q), want the first candidate", r.CASRN, r.MatchedName)
	}
	if sum.Resolved != 1 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestRunAmbiguousPromptPolicy(t *testing.T) {
	reg := &fakeRegistry{
		resolveErr: map[string]error{
			"xylene": &lookup.AmbiguousError{Name: "xylene", Candidates: []lookup.Match{
				{CASRN: "108-38-3", Name: "m-Xylene"},
				{CASRN: "95-47-6", Name: "o-Xylene"},
			}},
		},
		props: map[string]types.ChemicalProperties{
			"95-47-6": {BoilingPoint: fptr(144.4)},
		},
	}
	p, _ := testPipeline(reg)
	p.Config.Lookup.Ambiguous = types.AmbiguousPrompt

	pickCalls := 0
	p.Pick = func(name string, candidates []lookup.Match) (lookup.Match, error) {
		pickCalls++
		if name != "xylene" || len(candidates) != 2 {
			t.Errorf("picker saw (%q, %d candidates)", name, len(candidates))
		}
		return candidates[1], nil
	}

	reagents, _ := p.Run(context.Background(), []string{"xylene"})
	if reagents[0].CASRN != "95-47-6" {
		t.Errorf("CASRN = %q, want the picked candidate", reagents[0].CASRN)
	}
	if pickCalls != 1 {
		t.Errorf("picker called %d times, want exactly 1", pickCalls)
	}
}

func TestRunPropertyFetchFailureIsPartial(t *testing.T) {
	reg := &fakeRegistry{
		matches: map[string]lookup.Match{
			"Ethanol": {CASRN: "64-17-5", Name: "Ethanol"},
		},
		propsErr: map[string]error{
			"64-17-5": fmt.Errorf("%w: registry returned HTTP 502", lookup.ErrServiceUnavailable),
		},
	}
	p, buf := testPipeline(reg)

	reagents, sum := p.Run(context.Background(), []string{"Ethanol"})
	r := reagents[0]
	if r.CASRN != "64-17-5" {
		t.Fatalf("CASRN = %q", r.CASRN)
	}
	if r.Properties != nil || r.TemperatureKind != types.TemperatureNone {
		t.Errorf("failed fetch left data: %+v", r)
	}
	if !strings.HasPrefix(r.LookupErr, "properties:") {
		t.Errorf("LookupErr = %q", r.LookupErr)
	}
	if sum.Partial != 1 || sum.Resolved != 0 || sum.Failed != 0 {
		t.Errorf("summary = %+v", sum)
	}
	if !strings.Contains(buf.String(), "warning: property fetch failed for 64-17-5") {
		t.Errorf("progress missing warning: %q", buf.String())
	}
}

func TestRunChooserFailureIsPartial(t *testing.T) {
	reg := &fakeRegistry{
		matches: map[string]lookup.Match{
			"Ethanol": {CASRN: "64-17-5", Name: "Ethanol"},
		},
		props: map[string]types.ChemicalProperties{
			"64-17-5": ethanolProps(),
		},
	}
	p, buf := testPipeline(reg)
	p.Choose = func(name string, bp, mp float64) (types.TemperatureKind, error) {
		return types.TemperatureNone, fmt.Errorf("input closed")
	}

	reagents, sum := p.Run(context.Background(), []string{"Ethanol"})
	r := reagents[0]
	if r.CASRN != "64-17-5" || r.Properties == nil {
		t.Fatalf("resolution should survive a chooser failure: %+v", r)
	}
	if r.TemperatureKind != types.TemperatureNone || !strings.HasPrefix(r.LookupErr, "temperature selection:") {
		t.Errorf("got (%q, %q)", r.TemperatureKind, r.LookupErr)
	}
	if sum.Partial != 1 {
		t.Errorf("summary = %+v", sum)
	}
	if !strings.Contains(buf.String(), "warning: temperature selection failed") {
		t.Errorf("progress missing warning: %q", buf.String())
	}
}

func TestRunEmptyNameSkipsRegistry(t *testing.T) {
	reg := &fakeRegistry{}
	p, _ := testPipeline(reg)

	reagents, sum := p.Run(context.Background(), []string{"   "})
	if reagents[0].LookupErr != "empty name after cleanup" {
		t.Errorf("LookupErr = %q", reagents[0].LookupErr)
	}
	if len(reg.resolveCalls) != 0 {
		t.Errorf("registry consulted for an empty name: %v", reg.resolveCalls)
	}
	if sum.Failed != 1 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestRunCacheHitSkipsRegistry(t *testing.T) {
	reg := &fakeRegistry{}
	cache := newFakeCache()
	cache.cas["Ethanol"] = [2]string{"64-17-5", "Ethanol"}
	cache.props["64-17-5"] = ethanolProps()

	p, buf := testPipeline(reg)
	p.Cache = cache
	chooserCalls := 0
	p.Choose = func(name string, bp, mp float64) (types.TemperatureKind, error) {
		chooserCalls++
		return types.TemperatureMelting, nil
	}

	reagents, sum := p.Run(context.Background(), []string{"Ethanol"})
	r := reagents[0]
	if r.CASRN != "64-17-5" || r.Source != SourceCache {
		t.Errorf("got (%q, %q), want cached resolution", r.CASRN, r.Source)
	}
	if r.TemperatureKind != types.TemperatureMelting {
		t.Errorf("temperature = %q, want the chooser consulted on cached data too", r.TemperatureKind)
	}
	if chooserCalls != 1 {
		t.Errorf("chooser called %d times, want 1", chooserCalls)
	}
	if len(reg.resolveCalls) != 0 || len(reg.fetchCalls) != 0 {
		t.Errorf("registry consulted despite cache hit: %v %v", reg.resolveCalls, reg.fetchCalls)
	}
	if sum.Resolved != 1 {
		t.Errorf("summary = %+v", sum)
	}
	if !strings.Contains(buf.String(), "cached:  Ethanol (64-17-5)") {
		t.Errorf("progress missing cached line: %q", buf.String())
	}
}

func TestRunPopulatesCache(t *testing.T) {
	reg := &fakeRegistry{
		matches: map[string]lookup.Match{
			"Ethanol": {CASRN: "64-17-5", Name: "Ethanol"},
		},
		props: map[string]types.ChemicalProperties{
			"64-17-5": {BoilingPoint: fptr(78.37)},
		},
	}
	cache := newFakeCache()
	p, _ := testPipeline(reg)
	p.Cache = cache

	p.Run(context.Background(), []string{"Ethanol"})
	if cache.casPuts != 1 || cache.propPuts != 1 {
		t.Fatalf("cache writes = (%d, %d), want one each", cache.casPuts, cache.propPuts)
	}
	if got := cache.cas["Ethanol"]; got != [2]string{"64-17-5", "Ethanol"} {
		t.Errorf("cached lookup = %v", got)
	}

	// A second run is served entirely from the cache.
	p.Run(context.Background(), []string{"Ethanol"})
	if len(reg.resolveCalls) != 1 || len(reg.fetchCalls) != 1 {
		t.Errorf("second run hit the registry: %v %v", reg.resolveCalls, reg.fetchCalls)
	}
}

func TestRunCacheErrorsDegradeToRegistry(t *testing.T) {
	reg := &fakeRegistry{
		matches: map[string]lookup.Match{
			"Ethanol": {CASRN: "64-17-5", Name: "Ethanol"},
		},
		props: map[string]types.ChemicalProperties{
			"64-17-5": {BoilingPoint: fptr(78.37)},
		},
	}
	cache := newFakeCache()
	cache.getErr = fmt.Errorf("database locked")
	cache.putErr = fmt.Errorf("database locked")

	p, buf := testPipeline(reg)
	p.Cache = cache

	reagents, sum := p.Run(context.Background(), []string{"Ethanol"})
	if reagents[0].CASRN != "64-17-5" || sum.Resolved != 1 {
		t.Fatalf("cache failure broke resolution: %+v %+v", reagents[0], sum)
	}
	if strings.Count(buf.String(), "cache read failed") != 2 {
		t.Errorf("want a read warning per cache lookup: %q", buf.String())
	}
	if strings.Count(buf.String(), "cache write failed") != 2 {
		t.Errorf("want a write warning per cache store: %q", buf.String())
	}
}

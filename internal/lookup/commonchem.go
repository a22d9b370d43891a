// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package lookup resolves chemical names to CAS registry numbers and
// retrieves physical properties from the CAS Common Chemistry API.
// Implements: prd002-lookup (R1-R5);
//
//	docs/ARCHITECTURE § Lookup.
package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/pdiddy/autochemlab/internal/chem"
	"github.com/pdiddy/autochemlab/internal/httputil"
	"github.com/pdiddy/autochemlab/pkg/types"
)

// Common Chemistry endpoints. Declared as vars so tests can substitute an
// httptest server.
var (
	commonChemSearchBase = "https://commonchemistry.cas.org/api/search"
	commonChemDetailBase = "https://commonchemistry.cas.org/api/detail"
)

// Experimental property names as the registry spells them.
const (
	propBoilingPoint = "Boiling Point"
	propMeltingPoint = "Melting Point"
	propDensity      = "Density"
)

// Client queries the Common Chemistry API (R2.1, R2.2).
type Client struct {
	Client *http.Client
	// Progress receives rate-limit backoff notices; nil discards them.
	Progress io.Writer
}

// Match is one registry entry returned for a name search.
type Match struct {
	CASRN string `json:"casrn"`
	Name  string `json:"name"`
}

// ResolveCAS looks up a normalized chemical name and returns its registry
// match (R2.1). Outcomes: exactly one candidate resolves; zero candidates
// is ErrNotFound; several candidates is an *AmbiguousError carrying all of
// them; transport or server trouble is ErrServiceUnavailable.
func (c *Client) ResolveCAS(ctx context.Context, name string, cfg types.LookupConfig) (Match, error) {
	params := url.Values{"q": {name}}
	reqURL := commonChemSearchBase + "?" + params.Encode()

	var sr searchResponse
	if err := c.getJSON(ctx, reqURL, cfg, &sr); err != nil {
		return Match{}, fmt.Errorf("searching %q: %w", name, err)
	}

	switch {
	case sr.Count == 0 || len(sr.Results) == 0:
		return Match{}, fmt.Errorf("%q: %w", name, ErrNotFound)
	case sr.Count == 1:
		return Match{CASRN: sr.Results[0].RN, Name: sr.Results[0].Name}, nil
	default:
		ae := &AmbiguousError{Name: name}
		for _, r := range sr.Results {
			ae.Candidates = append(ae.Candidates, Match{CASRN: r.RN, Name: r.Name})
		}
		return Match{}, ae
	}
}

// FetchProperties retrieves physical properties for a CASRN (R2.2). Any
// subset of properties may be absent from the registry record; that is not
// an error (R3.2). An unknown CASRN is ErrNotFound.
func (c *Client) FetchProperties(ctx context.Context, casrn string, cfg types.LookupConfig) (types.ChemicalProperties, error) {
	params := url.Values{"cas_rn": {casrn}}
	reqURL := commonChemDetailBase + "?" + params.Encode()

	var dr detailResponse
	if err := c.getJSON(ctx, reqURL, cfg, &dr); err != nil {
		return types.ChemicalProperties{}, fmt.Errorf("fetching properties for %s: %w", casrn, err)
	}

	var props types.ChemicalProperties
	if v, ok := chem.ParseNumber(dr.MolecularMass); ok {
		props.MolecularWeight = &v
	}

	// Later entries for the same property win, matching registry order of
	// preference. Property strings without a parseable number are skipped.
	for _, p := range dr.ExperimentalProperties {
		v, ok := chem.ParseNumber(p.Property)
		if !ok {
			continue
		}
		value := v
		switch p.Name {
		case propBoilingPoint:
			props.BoilingPoint = &value
		case propMeltingPoint:
			props.MeltingPoint = &value
		case propDensity:
			props.Density = &value
		}
	}

	return props, nil
}

// getJSON performs a GET with rate-limit backoff and decodes the JSON body
// into out. Failures are classified into the package error kinds.
func (c *Client) getJSON(ctx context.Context, reqURL string, cfg types.LookupConfig, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	if cfg.APIKey != "" {
		req.Header.Set("x-api-key", cfg.APIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, c.Client, req, cfg.MaxRetries, c.Progress)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: registry returned HTTP %d", ErrServiceUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: parsing registry response: %v", ErrServiceUnavailable, err)
	}
	return nil
}

// Common Chemistry API JSON structures.
type searchResponse struct {
	Count   int            `json:"count"`
	Results []searchResult `json:"results"`
}

type searchResult struct {
	RN   string `json:"rn"`
	Name string `json:"name"`
}

type detailResponse struct {
	RN                     string                 `json:"rn"`
	Name                   string                 `json:"name"`
	MolecularMass          string                 `json:"molecularMass"`
	ExperimentalProperties []experimentalProperty `json:"experimentalProperties"`
}

type experimentalProperty struct {
	Name         string `json:"name"`
	Property     string `json:"property"`
	SourceNumber int    `json:"sourceNumber"`
}

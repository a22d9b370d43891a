package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "autochemlab/0.1"). Per prd002-lookup R5.2.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// AmbiguousPolicy selects how multi-candidate lookup results are resolved.
// Per prd002-lookup R4.3.
type AmbiguousPolicy string

const (
	// AmbiguousFirst takes the first candidate the database returns.
	AmbiguousFirst AmbiguousPolicy = "first"
	// AmbiguousPrompt asks the user to pick a candidate interactively.
	AmbiguousPrompt AmbiguousPolicy = "prompt"
)

// LookupConfig holds settings for the CAS registry lookup stage.
// Per prd002-lookup R1.3, R5.1-R5.4.
type LookupConfig struct {
	HTTPConfig `yaml:",inline"`

	// RequestDelay is the delay between consecutive API calls (default 1s).
	RequestDelay time.Duration `json:"request_delay" yaml:"request_delay"`

	// MaxRetries bounds backoff retries on HTTP 429 responses (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// APIKey is an optional Common Chemistry API key for higher rate limits.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Ambiguous selects handling of multi-candidate results: first or prompt.
	Ambiguous AmbiguousPolicy `json:"ambiguous" yaml:"ambiguous"`
}

// NormalizeConfig holds settings for chemical name cleanup.
// Per prd001-normalization R2.1-R2.4.
type NormalizeConfig struct {
	// FootnoteRunes lists the characters stripped from the end of a name as
	// footnote markers (default digits plus *†‡§).
	FootnoteRunes string `json:"footnote_runes" yaml:"footnote_runes"`

	// RestoreLocants enables reinsertion of commas and hyphens lost from
	// locant prefixes in PDF field names (default true).
	RestoreLocants bool `json:"restore_locants" yaml:"restore_locants"`
}

// FormConfig describes the fixed form-field layout of the lab PDF.
// Per prd004-form-io R1.2, R3.1-R3.5.
type FormConfig struct {
	// NamePrefix is the field-name prefix that marks hazard rows; the
	// chemical name is the remainder of the field name (default "Hazards").
	NamePrefix string `json:"name_prefix" yaml:"name_prefix"`

	// Output field name patterns. Each contains one %d expanded with the
	// 1-based row number.
	CASField      string `json:"cas_field" yaml:"cas_field"`
	WeightField   string `json:"weight_field" yaml:"weight_field"`
	DensityField  string `json:"density_field" yaml:"density_field"`
	TempField     string `json:"temp_field" yaml:"temp_field"`
	TempKindField string `json:"temp_kind_field" yaml:"temp_kind_field"`
}

// CacheConfig holds settings for the local lookup cache.
// Per prd006-cache R1.1, R1.4.
type CacheConfig struct {
	// Enabled turns the SQLite lookup cache on (default off).
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Path is the cache database file (default "autochemlab-cache.db").
	Path string `json:"path" yaml:"path"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Normalize NormalizeConfig `json:"normalize" yaml:"normalize"`
	Lookup    LookupConfig    `json:"lookup" yaml:"lookup"`
	Form      FormConfig      `json:"form" yaml:"form"`
	Cache     CacheConfig     `json:"cache" yaml:"cache"`
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// TemperatureKind records which phase-change temperature was chosen for a
// reagent. Per prd003-selection R2.4.
type TemperatureKind string

const (
	TemperatureNone    TemperatureKind = "none"
	TemperatureBoiling TemperatureKind = "boiling_point"
	TemperatureMelting TemperatureKind = "melting_point"
)

// Label returns the short form used on the lab sheet ("BP", "MP", or "").
func (k TemperatureKind) Label() string {
	switch k {
	case TemperatureBoiling:
		return "BP"
	case TemperatureMelting:
		return "MP"
	default:
		return ""
	}
}

// ChemicalProperties holds physical properties retrieved for a chemical.
// Fields are pointers: nil means the database had no value. Units are g/mol
// for weight, °C for temperatures, and g/mL for density.
type ChemicalProperties struct {
	MolecularWeight *float64 `json:"molecular_weight,omitempty" yaml:"molecular_weight,omitempty"`
	BoilingPoint    *float64 `json:"boiling_point,omitempty" yaml:"boiling_point,omitempty"`
	MeltingPoint    *float64 `json:"melting_point,omitempty" yaml:"melting_point,omitempty"`
	Density         *float64 `json:"density,omitempty" yaml:"density,omitempty"`
}

// Empty reports whether no property value is present.
func (p ChemicalProperties) Empty() bool {
	return p.MolecularWeight == nil && p.BoilingPoint == nil &&
		p.MeltingPoint == nil && p.Density == nil
}

// Reagent is the resolution record for one chemical from the lab form.
// Per prd002-lookup R3.1: a reagent without a CAS number carries no
// properties, and one is emitted per input name regardless of lookup
// outcome.
type Reagent struct {
	// RawName is the name as read from the PDF field or typed by the user.
	RawName string `json:"raw_name" yaml:"raw_name"`

	// Name is the normalized form used as the lookup key.
	Name string `json:"name" yaml:"name"`

	// CASRN is the CAS registry number (e.g. "64-17-5"); empty when the
	// lookup did not produce a confident match.
	CASRN string `json:"casrn,omitempty" yaml:"casrn,omitempty"`

	// MatchedName is the name the registry lists for the matched CASRN.
	MatchedName string `json:"matched_name,omitempty" yaml:"matched_name,omitempty"`

	// Properties holds retrieved physical properties; nil without a CASRN.
	Properties *ChemicalProperties `json:"properties,omitempty" yaml:"properties,omitempty"`

	// TemperatureKind and TemperatureValue record the phase-change
	// temperature chosen for the form. Kind is TemperatureNone exactly when
	// neither a boiling nor a melting point is available.
	TemperatureKind  TemperatureKind `json:"temperature_kind" yaml:"temperature_kind"`
	TemperatureValue *float64        `json:"temperature_value,omitempty" yaml:"temperature_value,omitempty"`

	// Source identifies where the resolution came from: "commonchem",
	// "cache", or "casrn" when the input was already a CAS number.
	Source string `json:"source,omitempty" yaml:"source,omitempty"`

	// LookupErr describes a per-reagent lookup failure; empty on success.
	LookupErr string `json:"lookup_error,omitempty" yaml:"lookup_error,omitempty"`
}

// Resolved reports whether the reagent carries a CAS number.
func (r Reagent) Resolved() bool {
	return r.CASRN != ""
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdfform reads and fills the AcroForm fields of the lab form.
// Implements: prd004-form-io (R1-R4);
//
//	docs/ARCHITECTURE § Form I/O.
//
// The source form embeds each chemical name in a hazards field name
// ("HazardsEthanol"), one field per table row. Resolved data goes back into
// numbered output fields ("CASRN1", "Temperature1", ...) whose row numbers
// follow the hazard fields' document order.
package pdfform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	pdftypes "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/pdiddy/autochemlab/pkg/types"
)

// ErrMalformedInput marks PDFs a run cannot proceed with: unreadable files,
// documents without an AcroForm, forms without hazard fields. Unlike
// per-chemical lookup failures this is fatal to the whole run.
var ErrMalformedInput = errors.New("malformed input PDF")

// Layout names the form fields a run reads and writes. The output entries
// are printf patterns taking the row number; rows count from 1.
type Layout struct {
	NamePrefix    string
	CASField      string
	WeightField   string
	DensityField  string
	TempField     string
	TempKindField string
}

// DefaultLayout matches the course lab form.
func DefaultLayout() Layout {
	return Layout{
		NamePrefix:    "Hazards",
		CASField:      "CASRN%d",
		WeightField:   "MolecularWeight%d",
		DensityField:  "Density%d",
		TempField:     "Temperature%d",
		TempKindField: "TemperatureKind%d",
	}
}

// NewLayout builds a Layout from config, keeping the default for any entry
// left empty.
func NewLayout(cfg types.FormConfig) Layout {
	l := DefaultLayout()
	if cfg.NamePrefix != "" {
		l.NamePrefix = cfg.NamePrefix
	}
	if cfg.CASField != "" {
		l.CASField = cfg.CASField
	}
	if cfg.WeightField != "" {
		l.WeightField = cfg.WeightField
	}
	if cfg.DensityField != "" {
		l.DensityField = cfg.DensityField
	}
	if cfg.TempField != "" {
		l.TempField = cfg.TempField
	}
	if cfg.TempKindField != "" {
		l.TempKindField = cfg.TempKindField
	}
	return l
}

// Field is one AcroForm field as listed by the inspect command.
type Field struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value string `json:"value,omitempty"`
}

// ReadNames returns the chemical names embedded in the form's hazard field
// names, in document order (R1.1, R1.2). Names come back raw, noise
// included; cleanup belongs to the pipeline. An empty suffix stays in the
// result so row numbering still lines up with the form.
func ReadNames(path string, layout Layout) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	defer f.Close()

	ctx, err := readContext(f)
	if err != nil {
		return nil, err
	}
	fields, err := formFields(ctx)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, ff := range fields {
		if !strings.HasPrefix(ff.name, layout.NamePrefix) {
			continue
		}
		names = append(names, strings.TrimPrefix(ff.name, layout.NamePrefix))
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no fields named %s* in %s", ErrMalformedInput, layout.NamePrefix, path)
	}
	return names, nil
}

// ListFields returns every form field with its type and current value, in
// document order (R4.2).
func ListFields(path string) ([]Field, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	defer f.Close()

	ctx, err := readContext(f)
	if err != nil {
		return nil, err
	}
	fields, err := formFields(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Field, 0, len(fields))
	for _, ff := range fields {
		out = append(out, Field{Name: ff.name, Type: typeName(ff.fieldType), Value: ff.value})
	}
	return out, nil
}

// FillFields writes one row of resolved data per reagent into the output
// fields (R3.1-R3.4), row i+1 taking reagents[i]. Absent attributes write
// an empty value, clearing stale data from earlier runs. Output fields the
// form does not have are skipped. The document goes to outPath through a
// temp file, with NeedAppearances set so viewers regenerate field
// appearances. Returns the number of fields written.
func FillFields(inPath, outPath string, layout Layout, reagents []types.Reagent) (int, error) {
	f, err := os.Open(inPath)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	defer f.Close()

	ctx, err := readContext(f)
	if err != nil {
		return 0, err
	}
	acroDict, err := acroForm(ctx)
	if err != nil {
		return 0, err
	}
	fields, err := formFields(ctx)
	if err != nil {
		return 0, err
	}

	byName := make(map[string]formField, len(fields))
	for _, ff := range fields {
		byName[ff.name] = ff
	}

	written := 0
	for i, r := range reagents {
		row := i + 1
		var mw, density *float64
		if r.Properties != nil {
			mw = r.Properties.MolecularWeight
			density = r.Properties.Density
		}
		for _, entry := range []struct {
			pattern string
			value   string
		}{
			{layout.CASField, r.CASRN},
			{layout.WeightField, formatFloat(mw)},
			{layout.DensityField, formatFloat(density)},
			{layout.TempField, formatFloat(r.TemperatureValue)},
			{layout.TempKindField, r.TemperatureKind.Label()},
		} {
			name := fmt.Sprintf(entry.pattern, row)
			ff, ok := byName[name]
			if !ok {
				continue
			}
			if ff.fieldType != "" && ff.fieldType != "Tx" {
				continue
			}
			ff.dict.Update("V", pdftypes.StringLiteral(entry.value))
			// Stale appearance streams would shadow the new value.
			delete(ff.dict, "AP")
			written++
		}
	}
	acroDict.Update("NeedAppearances", pdftypes.Boolean(true))

	tmp, err := os.CreateTemp(filepath.Dir(outPath), ".autochemlab-*.pdf")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("closing temp file: %w", err)
	}
	if err := api.WriteContextFile(ctx, tmpPath); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("writing filled form: %w", err)
	}
	f.Close()
	if err := os.Rename(tmpPath, outPath); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("renaming filled form: %w", err)
	}
	return written, nil
}

// readContext parses a PDF under relaxed validation; the lab forms come out
// of office tooling and rarely validate strictly.
func readContext(f *os.File) (*model.Context, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(f, conf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	return ctx, nil
}

// acroForm returns the document's AcroForm dictionary.
func acroForm(ctx *model.Context) (pdftypes.Dict, error) {
	rootDict, err := ctx.Catalog()
	if err != nil {
		return nil, fmt.Errorf("%w: reading catalog: %v", ErrMalformedInput, err)
	}
	obj, found := rootDict.Find("AcroForm")
	if !found {
		return nil, fmt.Errorf("%w: document has no form", ErrMalformedInput)
	}
	dict, err := ctx.DereferenceDict(obj)
	if err != nil || dict == nil {
		return nil, fmt.Errorf("%w: document has no form", ErrMalformedInput)
	}
	return dict, nil
}

// formField is one entry of the AcroForm Fields array, with its dictionary
// kept for writing.
type formField struct {
	name      string
	fieldType string // FT name: Tx, Btn, Ch, Sig
	value     string
	dict      pdftypes.Dict
}

// formFields walks the AcroForm Fields array in document order. The lab
// form uses merged field/widget dictionaries, so a flat walk sees every
// field.
func formFields(ctx *model.Context) ([]formField, error) {
	acroDict, err := acroForm(ctx)
	if err != nil {
		return nil, err
	}
	fieldsObj, found := acroDict.Find("Fields")
	if !found {
		return nil, fmt.Errorf("%w: form has no fields", ErrMalformedInput)
	}
	arr, err := ctx.DereferenceArray(fieldsObj)
	if err != nil {
		return nil, fmt.Errorf("%w: reading field array: %v", ErrMalformedInput, err)
	}

	var out []formField
	for _, obj := range arr {
		dict, err := ctx.DereferenceDict(obj)
		if err != nil || dict == nil {
			continue
		}
		ff := formField{dict: dict}
		if nameObj, found := dict.Find("T"); found {
			if name, err := ctx.DereferenceStringOrHexLiteral(nameObj, model.V10, nil); err == nil {
				ff.name = name
			}
		}
		if ftObj, found := dict.Find("FT"); found {
			if ft, err := ctx.DereferenceName(ftObj, model.V10, nil); err == nil {
				ff.fieldType = string(ft)
			}
		}
		if valObj, found := dict.Find("V"); found {
			if v, err := ctx.DereferenceStringOrHexLiteral(valObj, model.V10, nil); err == nil {
				ff.value = v
			}
		}
		out = append(out, ff)
	}
	return out, nil
}

func typeName(ft string) string {
	switch ft {
	case "Tx":
		return "text"
	case "Btn":
		return "button"
	case "Ch":
		return "choice"
	case "Sig":
		return "signature"
	default:
		return "unknown"
	}
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders resolved reagent records for people and
// spreadsheets.
// Implements: prd005-reporting (R1-R4);
//
//	docs/ARCHITECTURE § Reporting.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/autochemlab/pkg/types"
)

// WriteText prints the per-chemical report (R1.1): a banner per reagent,
// then one line per known value. Absent values print nothing.
func WriteText(w io.Writer, reagents []types.Reagent) {
	for _, r := range reagents {
		name := r.Name
		if name == "" {
			name = fmt.Sprintf("%q", r.RawName)
		}
		fmt.Fprintf(w, "===== %s =====\n", name)
		if r.CASRN != "" {
			fmt.Fprintf(w, "CAS Number: %s\n", r.CASRN)
		}
		if r.MatchedName != "" && r.MatchedName != r.Name {
			fmt.Fprintf(w, "Matched Name: %s\n", r.MatchedName)
		}
		if r.Properties != nil {
			if v := r.Properties.MolecularWeight; v != nil {
				fmt.Fprintf(w, "Molecular Weight: %g g/mol\n", *v)
			}
			if v := r.Properties.BoilingPoint; v != nil {
				fmt.Fprintf(w, "Boiling Point: %g °C\n", *v)
			}
			if v := r.Properties.MeltingPoint; v != nil {
				fmt.Fprintf(w, "Melting Point: %g °C\n", *v)
			}
			if v := r.Properties.Density; v != nil {
				fmt.Fprintf(w, "Density: %g g/mL\n", *v)
			}
		}
		if r.TemperatureKind != types.TemperatureNone && r.TemperatureValue != nil {
			fmt.Fprintf(w, "Reported: %s %g °C\n", r.TemperatureKind.Label(), *r.TemperatureValue)
		}
		if r.LookupErr != "" {
			fmt.Fprintf(w, "Error: %s\n", r.LookupErr)
		}
	}
}

// WriteJSON writes the records as indented JSON (R1.2).
func WriteJSON(w io.Writer, reagents []types.Reagent) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(reagents)
}

// WriteYAML writes the records to a YAML file (R2.1), the format the rest
// of the course tooling ingests.
func WriteYAML(path string, reagents []types.Reagent) error {
	data, err := yaml.Marshal(reagents)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// xlsxHeaders is the column order of the spreadsheet export.
var xlsxHeaders = []string{
	"Name", "CAS Number", "Matched Name", "Molecular Weight (g/mol)",
	"Boiling Point (°C)", "Melting Point (°C)", "Density (g/mL)",
	"Temperature (°C)", "Temperature Kind", "Source", "Error",
}

// WriteXLSX writes the records as a spreadsheet, one row per reagent under
// a header row (R3.1).
func WriteXLSX(path string, reagents []types.Reagent) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Reagents"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	for col, h := range xlsxHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, r := range reagents {
		var mw, bp, mp, density *float64
		if r.Properties != nil {
			mw = r.Properties.MolecularWeight
			bp = r.Properties.BoilingPoint
			mp = r.Properties.MeltingPoint
			density = r.Properties.Density
		}
		values := []any{
			r.Name, r.CASRN, r.MatchedName, cellValue(mw),
			cellValue(bp), cellValue(mp), cellValue(density),
			cellValue(r.TemperatureValue), r.TemperatureKind.Label(),
			r.Source, r.LookupErr,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return fmt.Errorf("data cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("writing row %d: %w", i+1, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func cellValue(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"

	"github.com/pdiddy/autochemlab/pkg/types"
)

// SelectTemperature picks the temperature a reagent record reports
// (R3.1-R3.3): a lone boiling or melting point wins automatically, and when
// both are present the chooser decides, asked exactly once per chemical.
// With no data (or nil properties) nothing is selected. A nil chooser takes
// the boiling point.
func SelectTemperature(name string, props *types.ChemicalProperties, choose Chooser) (types.TemperatureKind, *float64, error) {
	if props == nil {
		return types.TemperatureNone, nil, nil
	}
	bp, mp := props.BoilingPoint, props.MeltingPoint
	switch {
	case bp != nil && mp != nil:
		if choose == nil {
			return types.TemperatureBoiling, bp, nil
		}
		kind, err := choose(name, *bp, *mp)
		if err != nil {
			return types.TemperatureNone, nil, fmt.Errorf("choosing temperature for %s: %w", name, err)
		}
		if kind == types.TemperatureMelting {
			return types.TemperatureMelting, mp, nil
		}
		return types.TemperatureBoiling, bp, nil
	case bp != nil:
		return types.TemperatureBoiling, bp, nil
	case mp != nil:
		return types.TemperatureMelting, mp, nil
	default:
		return types.TemperatureNone, nil, nil
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package prompt implements the console prompts the pipeline uses when a
// decision needs the chemist: choosing between boiling and melting point,
// disambiguating registry candidates, and manual name entry.
// Implements: prd003-selection R3.1-R3.3.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pdiddy/autochemlab/internal/lookup"
	"github.com/pdiddy/autochemlab/pkg/types"
)

// Prompter reads answers from In and writes questions to Out. A single
// Prompter must be reused across questions: it owns the input buffering.
type Prompter struct {
	scanner *bufio.Scanner
	out     io.Writer
}

// New builds a Prompter over the given streams (stdin/stdout in the CLI,
// scripted buffers in tests).
func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{scanner: bufio.NewScanner(in), out: out}
}

func (p *Prompter) readLine() (string, error) {
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(p.scanner.Text()), nil
}

// ChooseTemperature asks which phase-change temperature goes on the sheet
// when both are known. It re-asks until it gets a recognizable answer and
// fails only when input ends.
func (p *Prompter) ChooseTemperature(name string, bp, mp float64) (types.TemperatureKind, error) {
	fmt.Fprintf(p.out, "%s: boiling point %g °C, melting point %g °C\n", name, bp, mp)
	for {
		fmt.Fprintf(p.out, "use [b]oiling or [m]elting point? ")
		line, err := p.readLine()
		if err != nil {
			return types.TemperatureNone, fmt.Errorf("reading temperature choice for %s: %w", name, err)
		}
		switch strings.ToLower(line) {
		case "b", "bp", "boiling":
			return types.TemperatureBoiling, nil
		case "m", "mp", "melting":
			return types.TemperatureMelting, nil
		}
		fmt.Fprintln(p.out, "please answer b or m")
	}
}

// PickCandidate asks the user to pick one of several registry matches for
// an ambiguous name.
func (p *Prompter) PickCandidate(name string, candidates []lookup.Match) (lookup.Match, error) {
	fmt.Fprintf(p.out, "%q matches %d registry entries:\n", name, len(candidates))
	for i, c := range candidates {
		fmt.Fprintf(p.out, "  %d) %-12s %s\n", i+1, c.CASRN, c.Name)
	}
	for {
		fmt.Fprintf(p.out, "pick 1-%d: ", len(candidates))
		line, err := p.readLine()
		if err != nil {
			return lookup.Match{}, fmt.Errorf("reading candidate choice for %s: %w", name, err)
		}
		if idx, convErr := strconv.Atoi(line); convErr == nil && idx >= 1 && idx <= len(candidates) {
			return candidates[idx-1], nil
		}
		fmt.Fprintln(p.out, "enter a number from the list")
	}
}

// ReadNames collects chemical names typed one per line, ending on a blank
// line or end of input. Used by the manual mode that runs without a PDF.
func (p *Prompter) ReadNames() ([]string, error) {
	fmt.Fprintln(p.out, "enter chemical names, one per line (blank line to finish):")
	var names []string
	for {
		line, err := p.readLine()
		if errors.Is(err, io.EOF) {
			return names, nil
		}
		if err != nil {
			return names, fmt.Errorf("reading names: %w", err)
		}
		if line == "" {
			return names, nil
		}
		names = append(names, line)
	}
}

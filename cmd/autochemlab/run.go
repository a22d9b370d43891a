// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/autochemlab/internal/cache"
	"github.com/pdiddy/autochemlab/internal/lookup"
	"github.com/pdiddy/autochemlab/internal/pdfform"
	"github.com/pdiddy/autochemlab/internal/pipeline"
	"github.com/pdiddy/autochemlab/internal/prompt"
	"github.com/pdiddy/autochemlab/internal/report"
	"github.com/pdiddy/autochemlab/internal/secrets"
	"github.com/pdiddy/autochemlab/pkg/types"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultDelay     = 1 * time.Second
	defaultUserAgent = "autochemlab/0.1"
)

var runCmd = &cobra.Command{
	Use:   "run [form.pdf]",
	Short: "Resolve chemicals from a PDF form and fill in their data",
	Long: `Run reads chemical names from the hazard fields of a lab report PDF form,
resolves each against the CAS Common Chemistry registry, and writes CAS
numbers, molecular weights, densities, and phase-change temperatures back
into the form's output fields.

Without a PDF argument, run enters manual mode: chemical names are read from
standard input (one per line, blank line to finish) and the results are
printed without touching any file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().String("output", "", "output PDF path (default <input>-filled.pdf)")
	runCmd.Flags().Bool("in-place", false, "overwrite the input PDF instead of writing a copy")
	runCmd.Flags().String("prefix", "", "hazard field name prefix (default Hazards)")
	runCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")
	runCmd.Flags().Duration("delay", 0, "delay between consecutive registry requests (default 1s)")
	runCmd.Flags().Int("max-retries", 0, "retries on HTTP 429 (default 5)")
	runCmd.Flags().String("api-key", "", "CAS Common Chemistry API key (default from .secrets/cas-api-key)")
	runCmd.Flags().String("ambiguous", "", "ambiguous match policy: first or prompt (default first)")
	runCmd.Flags().Bool("cache", false, "cache lookups in a local SQLite database")
	runCmd.Flags().String("cache-path", "", "cache database path (default "+cache.DefaultPath+")")
	runCmd.Flags().Bool("no-locants", false, "disable locant restoration during name cleanup")
	runCmd.Flags().String("report", "", "also write a YAML report to this path")
	runCmd.Flags().String("xlsx", "", "also write an XLSX reagent table to this path")
	runCmd.Flags().Bool("json", false, "print the report as JSON instead of text")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfigFromFlags(cmd)

	jsonOutput, _ := cmd.Flags().GetBool("json")
	// With --json, stdout carries only the report; progress moves to stderr.
	progress := io.Writer(os.Stdout)
	if jsonOutput {
		progress = os.Stderr
	}

	prompter := prompt.New(os.Stdin, os.Stderr)
	pipe, closeCache, err := newPipeline(cfg, prompter, progress)
	if err != nil {
		return err
	}
	defer closeCache()

	var (
		names   []string
		pdfPath string
		layout  pdfform.Layout
	)
	if len(args) == 1 {
		pdfPath = args[0]
		if _, err := pdfform.Validate(pdfPath); err != nil {
			return err
		}
		layout = pdfform.NewLayout(cfg.Form)
		names, err = pdfform.ReadNames(pdfPath, layout)
		if err != nil {
			return err
		}
		fmt.Fprintf(progress, "Found %d hazard field(s) in %s\n", len(names), pdfPath)
	} else {
		names, err = prompter.ReadNames()
		if err != nil {
			return err
		}
		if len(names) == 0 {
			return fmt.Errorf("no chemical names entered")
		}
	}

	reagents, _ := pipe.Run(context.Background(), names)

	// Individual lookup failures are already reported per chemical and in the
	// summary; only a broken PDF or an unwritable output is fatal.
	if pdfPath != "" {
		outPath, err := outputPath(cmd, pdfPath)
		if err != nil {
			return err
		}
		written, err := pdfform.FillFields(pdfPath, outPath, layout, reagents)
		if err != nil {
			return err
		}
		fmt.Fprintf(progress, "Filled %d field(s): %s\n", written, outPath)
	}

	return writeReports(cmd, reagents, jsonOutput)
}

// outputPath resolves the destination PDF from --output / --in-place.
func outputPath(cmd *cobra.Command, pdfPath string) (string, error) {
	out, _ := cmd.Flags().GetString("output")
	inPlace, _ := cmd.Flags().GetBool("in-place")

	switch {
	case inPlace && out != "":
		return "", fmt.Errorf("--output and --in-place are mutually exclusive")
	case inPlace:
		return pdfPath, nil
	case out != "":
		return out, nil
	default:
		ext := filepath.Ext(pdfPath)
		return strings.TrimSuffix(pdfPath, ext) + "-filled" + ext, nil
	}
}

// writeReports prints the report to stdout and writes any requested files.
func writeReports(cmd *cobra.Command, reagents []types.Reagent, jsonOutput bool) error {
	if jsonOutput {
		if err := report.WriteJSON(os.Stdout, reagents); err != nil {
			return err
		}
	} else {
		report.WriteText(os.Stdout, reagents)
	}

	if path, _ := cmd.Flags().GetString("report"); path != "" {
		if err := report.WriteYAML(path, reagents); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Wrote report to %s\n", path)
	}
	if path, _ := cmd.Flags().GetString("xlsx"); path != "" {
		if err := report.WriteXLSX(path, reagents); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Wrote reagent table to %s\n", path)
	}
	return nil
}

// --- shared configuration helpers ---

// lookupConfigFromFlags assembles the registry client configuration with
// flag, then secrets/config file, then built-in default precedence.
func lookupConfigFromFlags(cmd *cobra.Command) types.LookupConfig {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = viper.GetDuration("lookup.timeout")
	}
	if timeout == 0 {
		timeout = defaultTimeout
	}

	delay, _ := cmd.Flags().GetDuration("delay")
	if delay == 0 {
		delay = viper.GetDuration("lookup.request_delay")
	}
	if delay == 0 {
		delay = defaultDelay
	}

	maxRetries, _ := cmd.Flags().GetInt("max-retries")
	if maxRetries == 0 {
		maxRetries = viper.GetInt("lookup.max_retries")
	}

	apiKey, _ := cmd.Flags().GetString("api-key")
	apiKey = secretDefault(secrets.CASAPIKeyFile, apiKey)
	if apiKey == "" {
		apiKey = viper.GetString("lookup.api_key")
	}

	ambiguous, _ := cmd.Flags().GetString("ambiguous")
	if ambiguous == "" {
		ambiguous = viper.GetString("lookup.ambiguous")
	}

	return types.LookupConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		},
		RequestDelay: delay,
		MaxRetries:   maxRetries,
		APIKey:       apiKey,
		Ambiguous:    types.AmbiguousPolicy(ambiguous),
	}
}

// pipelineConfigFromFlags assembles the full pipeline configuration.
func pipelineConfigFromFlags(cmd *cobra.Command) types.PipelineConfig {
	noLocants, _ := cmd.Flags().GetBool("no-locants")
	restoreLocants := !noLocants
	if !noLocants && viper.IsSet("normalize.restore_locants") {
		restoreLocants = viper.GetBool("normalize.restore_locants")
	}

	cacheEnabled, _ := cmd.Flags().GetBool("cache")
	if !cacheEnabled {
		cacheEnabled = viper.GetBool("cache.enabled")
	}
	cachePath, _ := cmd.Flags().GetString("cache-path")
	if cachePath == "" {
		cachePath = viper.GetString("cache.path")
	}
	if cachePath == "" {
		cachePath = cache.DefaultPath
	}

	prefix, _ := cmd.Flags().GetString("prefix")
	if prefix == "" {
		prefix = viper.GetString("form.name_prefix")
	}

	return types.PipelineConfig{
		Normalize: types.NormalizeConfig{
			FootnoteRunes:  viper.GetString("normalize.footnote_runes"),
			RestoreLocants: restoreLocants,
		},
		Lookup: lookupConfigFromFlags(cmd),
		Form: types.FormConfig{
			NamePrefix:    prefix,
			CASField:      viper.GetString("form.cas_field"),
			WeightField:   viper.GetString("form.weight_field"),
			DensityField:  viper.GetString("form.density_field"),
			TempField:     viper.GetString("form.temp_field"),
			TempKindField: viper.GetString("form.temp_kind_field"),
		},
		Cache: types.CacheConfig{Enabled: cacheEnabled, Path: cachePath},
	}
}

// newPipeline wires the registry client, interactive prompter, and optional
// cache store into a pipeline. The returned cleanup closes the cache.
func newPipeline(cfg types.PipelineConfig, prompter *prompt.Prompter, progress io.Writer) (*pipeline.Pipeline, func(), error) {
	client := &lookup.Client{
		Client:   &http.Client{Timeout: cfg.Lookup.Timeout},
		Progress: progress,
	}

	pipe := &pipeline.Pipeline{
		Registry: client,
		Choose:   prompter.ChooseTemperature,
		Pick:     prompter.PickCandidate,
		Config:   cfg,
		Progress: progress,
	}

	cleanup := func() {}
	if cfg.Cache.Enabled {
		store, err := cache.Open(cfg.Cache.Path)
		if err != nil {
			return nil, nil, err
		}
		pipe.Cache = store
		cleanup = func() { store.Close() }
	}
	return pipe, cleanup, nil
}

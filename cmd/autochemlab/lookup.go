package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/autochemlab/internal/cache"
	"github.com/pdiddy/autochemlab/internal/prompt"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup [names...]",
	Short: "Resolve chemical names against the CAS registry",
	Long: `Lookup resolves the given chemical names to CAS numbers and physical
properties without touching any PDF. Names go through the same cleanup,
registry search, and temperature selection as the run subcommand.`,
	RunE: runLookup,
}

func init() {
	lookupCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")
	lookupCmd.Flags().Duration("delay", 0, "delay between consecutive registry requests (default 1s)")
	lookupCmd.Flags().Int("max-retries", 0, "retries on HTTP 429 (default 5)")
	lookupCmd.Flags().String("api-key", "", "CAS Common Chemistry API key (default from .secrets/cas-api-key)")
	lookupCmd.Flags().String("ambiguous", "", "ambiguous match policy: first or prompt (default first)")
	lookupCmd.Flags().Bool("cache", false, "cache lookups in a local SQLite database")
	lookupCmd.Flags().String("cache-path", "", "cache database path (default "+cache.DefaultPath+")")
	lookupCmd.Flags().Bool("no-locants", false, "disable locant restoration during name cleanup")
	lookupCmd.Flags().Bool("json", false, "print the report as JSON instead of text")

	rootCmd.AddCommand(lookupCmd)
}

func runLookup(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more chemical names")
	}

	cfg := pipelineConfigFromFlags(cmd)

	jsonOutput, _ := cmd.Flags().GetBool("json")
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

	reagents, _ := pipe.Run(context.Background(), args)

	return writeReports(cmd, reagents, jsonOutput)
}

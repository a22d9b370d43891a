package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/autochemlab/internal/pdfform"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <form.pdf>",
	Short: "List the form fields of a PDF",
	Long: `Inspect validates a PDF and lists its form fields with their types and
current values. Use it to confirm a form's field layout before running the
pipeline against it, or to check what a run wrote.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().Bool("json", false, "output the field listing as JSON")

	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	path := args[0]

	pages, err := pdfform.Validate(path)
	if err != nil {
		return err
	}
	fields, err := pdfform.ListFields(path)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		out := struct {
			Path   string          `json:"path"`
			Pages  int             `json:"pages"`
			Fields []pdfform.Field `json:"fields"`
		}{path, pages, fields}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Printf("%s: %d page(s), %d form field(s)\n\n", path, pages, len(fields))

	fmt.Fprintf(os.Stdout, "%-40s  %-10s  %s\n", "Field", "Type", "Value")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 70))
	for _, f := range fields {
		name := f.Name
		if len(name) > 40 {
			name = name[:37] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-40s  %-10s  %s\n", name, f.Type, f.Value)
	}

	return nil
}

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ocragent/ocr-agent/internal/docprocessing/domain"
	"github.com/ocragent/ocr-agent/internal/docprocessing/export"
	"github.com/ocragent/ocr-agent/internal/docprocessing/processor"
)

func newExportCmd() *cobra.Command {
	var (
		docType    string
		out        string
		confidence float64
	)

	cmd := &cobra.Command{
		Use:   "export --type dni|nif|permis --out results.xlsx FILE...",
		Short: "Validate OCR text files and write the results to a spreadsheet",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkConfidence(confidence); err != nil {
				return err
			}
			proc, err := lookupProcessor(docType)
			if err != nil {
				return err
			}

			rows := make([]export.Row, 0, len(args))
			valid := 0
			for _, path := range args {
				text, err := readText(cmd, path)
				if err != nil {
					return err
				}
				res := processor.Process(proc, text, domain.EngineTesseract, confidence)
				if res.Valid {
					valid++
				}
				rows = append(rows, export.Row{Source: path, Result: res})
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("creating %s: %w", out, err)
			}
			if err := export.WriteXLSX(f, rows); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("closing %s: %w", out, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s %d documents, %d valid → %s\n",
				passStyle.Render("exported"), len(rows), valid, out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&docType, "type", "t", "", "Document type: dni, nif or permis")
	cmd.Flags().StringVarP(&out, "out", "o", "results.xlsx", "Output spreadsheet path")
	cmd.Flags().Float64Var(&confidence, "engine-confidence", 90, "OCR engine confidence (0-100)")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}

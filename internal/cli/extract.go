package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ocragent/ocr-agent/internal/docprocessing/contract"
	"github.com/ocragent/ocr-agent/internal/docprocessing/domain"
	"github.com/ocragent/ocr-agent/internal/docprocessing/processor"
)

type fileResult struct {
	File   string                   `json:"file"`
	Result *domain.ValidationResult `json:"result"`
}

func newExtractCmd() *cobra.Command {
	var (
		docType    string
		engine     string
		confidence float64
		strict     bool
		summary    bool
	)

	cmd := &cobra.Command{
		Use:   "extract --type dni|nif|permis FILE...",
		Short: "Extract and validate documents from OCR text files",
		Long:  "Run extraction and validation on each OCR text file and print the JSON result. Use - to read from stdin.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkConfidence(confidence); err != nil {
				return err
			}
			proc, err := lookupProcessor(docType)
			if err != nil {
				return err
			}

			results := make([]fileResult, 0, len(args))
			for _, path := range args {
				text, err := readText(cmd, path)
				if err != nil {
					return err
				}
				res := processor.Process(proc, text, engine, confidence)
				if strict {
					if err := contract.ValidateResult(res); err != nil {
						return fmt.Errorf("%s: %w", path, err)
					}
				}
				results = append(results, fileResult{File: path, Result: res})
			}

			if summary {
				for _, r := range results {
					fmt.Fprintln(cmd.OutOrStdout(), renderResult(r.File, r.Result))
				}
				return nil
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if len(results) == 1 {
				return enc.Encode(results[0].Result)
			}
			return enc.Encode(results)
		},
	}

	cmd.Flags().StringVarP(&docType, "type", "t", "", "Document type: dni, nif or permis")
	cmd.Flags().StringVar(&engine, "engine", domain.EngineTesseract, "Engine name reported in the result")
	cmd.Flags().Float64Var(&confidence, "engine-confidence", 90, "OCR engine confidence (0-100)")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail when a result does not match the JSON contract")
	cmd.Flags().BoolVar(&summary, "summary", false, "Print a human-readable summary instead of JSON")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}

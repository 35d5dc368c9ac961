package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

func newEscalateCmd() *cobra.Command {
	var (
		docType    string
		confidence float64
	)

	cmd := &cobra.Command{
		Use:   "escalate --type dni|nif|permis --confidence N FILE",
		Short: "Decide whether OCR text should be re-read by the costed engine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkConfidence(confidence); err != nil {
				return err
			}
			proc, err := lookupProcessor(docType)
			if err != nil {
				return err
			}
			text, err := readText(cmd, args[0])
			if err != nil {
				return err
			}

			decision := proc.ShouldEscalate(proc.Extract(text), confidence)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(decision)
		},
	}

	cmd.Flags().StringVarP(&docType, "type", "t", "", "Document type: dni, nif or permis")
	cmd.Flags().Float64Var(&confidence, "confidence", 0, "Confidence reported by the cheap engine (0-100)")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("confidence")

	return cmd
}

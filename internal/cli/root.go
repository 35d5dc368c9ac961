// Package cli implements the docscan command line tool, which runs the
// extraction and validation pipeline on OCR text files.
package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/ocragent/ocr-agent/internal/docprocessing/processor"
)

var version = "dev"

// now is the reference time for date checks.
var now = time.Now

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "docscan",
		Short:         "Extract and validate Spanish identity, tax and vehicle documents from OCR text",
		Long:          "docscan reads OCR text of a DNI/NIE, a NIF tax card or a circulation permit, extracts its fields and validates them.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newExtractCmd())
	cmd.AddCommand(newEscalateCmd())
	cmd.AddCommand(newExportCmd())
	cmd.AddCommand(newChecksumCmd())
	return cmd
}

// NewRootCmdForTest returns the root command for testing.
func NewRootCmdForTest() *cobra.Command {
	return newRootCmd()
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

func registry() *processor.Registry {
	return processor.DefaultRegistry(processor.WithClock(now))
}

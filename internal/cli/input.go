package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ocragent/ocr-agent/internal/docprocessing/domain"
	"github.com/ocragent/ocr-agent/internal/docprocessing/processor"
)

func lookupProcessor(name string) (processor.Processor, error) {
	docType, ok := domain.ParseDocumentType(name)
	if !ok {
		return nil, fmt.Errorf("unknown document type %q (use dni, nif or permis)", name)
	}
	return registry().FindProcessor(docType), nil
}

// readText reads an OCR text file, or stdin when path is "-".
func readText(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(b), nil
}

func checkConfidence(c float64) error {
	if c < 0 || c > 100 {
		return fmt.Errorf("confidence must be between 0 and 100, got %g", c)
	}
	return nil
}

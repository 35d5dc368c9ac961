package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ocragent/ocr-agent/internal/docprocessing/checksum"
)

func newChecksumCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "checksum dni|cif|vin|plate VALUE",
		Short:     "Check a single identifier",
		Long:      "Check the control character of a DNI/NIE or CIF, the check digit of a VIN, or the format of a registration plate.",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"dni", "cif", "vin", "plate"},
		RunE: func(cmd *cobra.Command, args []string) error {
			valid, detail, err := runChecksum(args[0], args[1])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if valid {
				fmt.Fprintf(w, "%s %s\n", passStyle.Render("✓ valid"), detail)
				return nil
			}
			fmt.Fprintf(w, "%s %s\n", failStyle.Render("✗ invalid"), detail)
			return fmt.Errorf("%s %s is not valid", args[0], args[1])
		},
	}
	return cmd
}

func runChecksum(kind, value string) (bool, string, error) {
	switch strings.ToLower(kind) {
	case "dni", "nie":
		r := checksum.ValidateID(value)
		return r.Valid, describe(string(r.Kind), r.Normalized, r.Expected, r.Message), nil
	case "cif":
		r := checksum.ValidateCIF(value)
		return r.Valid, describe(string(r.Kind), r.Normalized, r.Expected, r.Message), nil
	case "vin":
		r := checksum.ValidateVIN(value)
		detail := r.Normalized
		switch r.Problem {
		case checksum.VINBadLength:
			detail += dimStyle.Render(" (must be 17 characters)")
		case checksum.VINBadChars:
			detail += dimStyle.Render(" (I, O and Q are not allowed)")
		case checksum.VINBadCheckDigit:
			detail += dimStyle.Render(fmt.Sprintf(" (check digit %s, expected %s)", r.Observed, r.Expected))
		}
		return r.Valid(), detail, nil
	case "plate":
		r := checksum.ValidatePlate(value)
		detail := strings.ToUpper(strings.TrimSpace(value))
		switch {
		case r.Legacy:
			detail += dimStyle.Render(" (provincial format)")
		case r.BadLetters != "":
			detail += dimStyle.Render(" (letters not allowed: " + r.BadLetters + ")")
		case r.Message != "":
			detail += dimStyle.Render(" (" + r.Message + ")")
		}
		return r.Valid, detail, nil
	}
	return false, "", fmt.Errorf("unknown identifier kind %q (use dni, cif, vin or plate)", kind)
}

func describe(kind, normalized, expected, message string) string {
	var b strings.Builder
	b.WriteString(normalized)
	if kind != "" {
		b.WriteString(dimStyle.Render(" " + kind))
	}
	if message != "" {
		b.WriteString(dimStyle.Render(" (" + message + ")"))
	} else if expected != "" {
		b.WriteString(dimStyle.Render(" control " + expected))
	}
	return b.String()
}

// Package export writes batches of validation results to spreadsheets.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ocragent/ocr-agent/internal/docprocessing/domain"
)

// Sheet names.
const (
	SheetResults  = "Resultados"
	SheetFindings = "Hallazgos"
)

// Row is one processed file.
type Row struct {
	Source string
	Result *domain.ValidationResult
}

var resultHeaders = []string{
	"Fichero",
	"Tipo",
	"Válido",
	"Confianza",
	"Motor OCR",
	"Confianza OCR",
	"Identificador",
	"Alertas",
	"Errores",
	"Mensaje",
}

var findingHeaders = []string{
	"Fichero",
	"Lista",
	"Código",
	"Gravedad",
	"Campo",
	"Mensaje",
	"Evidencia",
	"Corrección sugerida",
}

// WriteXLSX writes rows as a workbook with one summary sheet and one
// sheet listing every finding.
func WriteXLSX(w io.Writer, rows []Row) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	// the default sheet becomes the summary
	if err := f.SetSheetName(f.GetSheetName(0), SheetResults); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetFindings); err != nil {
		return fmt.Errorf("new sheet: %w", err)
	}

	if err := writeRow(f, SheetResults, 1, toAny(resultHeaders)); err != nil {
		return err
	}
	if err := writeRow(f, SheetFindings, 1, toAny(findingHeaders)); err != nil {
		return err
	}

	resultRow, findingRow := 2, 2
	for _, r := range rows {
		res := r.Result
		if res == nil {
			continue
		}
		subject := ""
		if res.Data != nil {
			if id := res.Data.SubjectID(); id != nil {
				subject = *id
			}
		}
		values := []any{
			r.Source,
			string(res.DocumentType),
			yesNo(res.Valid),
			res.Confidence,
			res.Raw.Engine,
			res.Raw.Confidence,
			subject,
			joinCodes(res.Alerts),
			joinCodes(res.Errors),
			res.Meta.Message,
		}
		if err := writeRow(f, SheetResults, resultRow, values); err != nil {
			return err
		}
		resultRow++

		for _, list := range []struct {
			name  string
			items []domain.Finding
		}{{"alerta", res.Alerts}, {"error", res.Errors}} {
			for _, item := range list.items {
				values := []any{r.Source, list.name, item.Code, string(item.Severity), item.Field, item.Message, item.Evidence, item.SuggestedFix}
				if err := writeRow(f, SheetFindings, findingRow, values); err != nil {
					return err
				}
				findingRow++
			}
		}
	}

	_ = f.SetColWidth(SheetResults, "A", "A", 32) // file
	_ = f.SetColWidth(SheetResults, "G", "G", 16) // id
	_ = f.SetColWidth(SheetResults, "H", "I", 40) // codes
	_ = f.SetColWidth(SheetResults, "J", "J", 48)
	_ = f.SetColWidth(SheetFindings, "A", "A", 32)
	_ = f.SetColWidth(SheetFindings, "C", "C", 28)
	_ = f.SetColWidth(SheetFindings, "F", "H", 48)

	if err := f.SetPanes(SheetResults, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func joinCodes(items []domain.Finding) string {
	codes := make([]string, len(items))
	for i, item := range items {
		codes[i] = item.Code
	}
	return strings.Join(codes, ", ")
}

func yesNo(b bool) string {
	if b {
		return "sí"
	}
	return "no"
}

package ocr

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ocragent/ocr-agent/internal/docprocessing/domain"
)

// TesseractConfig configures the local Tesseract engine.
type TesseractConfig struct {
	Enabled bool
	Binary  string // binary name or absolute path; if empty -> "tesseract"
	Lang    string // default "spa+cat+eng"
	PSM     int    // 6 treats the card as one uniform block of text
}

// Tesseract runs the tesseract binary with the image on stdin and reads
// text and word confidences from its TSV output.
type Tesseract struct {
	cfg    TesseractConfig
	runner Runner
}

// NewTesseract creates a Tesseract engine. A nil runner uses os/exec.
func NewTesseract(cfg TesseractConfig, runner Runner) *Tesseract {
	if cfg.Binary == "" {
		cfg.Binary = "tesseract"
	}
	if cfg.Lang == "" {
		cfg.Lang = "spa+cat+eng"
	}
	if cfg.PSM == 0 {
		cfg.PSM = 6
	}
	if runner == nil {
		runner = execRunner{}
	}
	return &Tesseract{cfg: cfg, runner: runner}
}

func (t *Tesseract) Name() string { return domain.EngineTesseract }

// Available reports whether the engine is enabled and the binary answers
// a version query.
func (t *Tesseract) Available(ctx context.Context) bool {
	if !t.cfg.Enabled {
		return false
	}
	_, _, err := t.runner.Run(ctx, nil, t.cfg.Binary, "--version")
	return err == nil
}

func (t *Tesseract) Recognize(ctx context.Context, image []byte) (Result, error) {
	if !t.cfg.Enabled {
		return Result{}, fmt.Errorf("tesseract: %w", ErrUnavailable)
	}

	// tesseract stdin stdout -l <lang> --psm <n> tsv
	args := []string{"stdin", "stdout", "-l", t.cfg.Lang, "--psm", strconv.Itoa(t.cfg.PSM), "tsv"}
	out, errb, err := t.runner.Run(ctx, image, t.cfg.Binary, args...)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, fmt.Errorf("tesseract: %w", ctx.Err())
		}
		return Result{}, fmt.Errorf("tesseract: %w: %s", err, truncate(strings.TrimSpace(string(errb)), 512))
	}
	return parseTSV(string(out)), nil
}

// tsv columns: level page_num block_num par_num line_num word_num
// left top width height conf text
const (
	tsvBlock = 2
	tsvPar   = 3
	tsvLine  = 4
	tsvConf  = 10
	tsvText  = 11
	tsvCols  = 12
)

// parseTSV rebuilds the page text line by line, with a blank line between
// paragraphs, and averages the positive word confidences.
func parseTSV(tsv string) Result {
	var (
		sb       strings.Builder
		line     []string
		lineKey  string
		paraKey  string
		sum      float64
		n        int
		flushRow = func() {
			if len(line) == 0 {
				return
			}
			sb.WriteString(strings.Join(line, " "))
			sb.WriteByte('\n')
			line = line[:0]
		}
	)

	for i, ln := range strings.Split(tsv, "\n") {
		if i == 0 || len(ln) == 0 {
			continue
		}
		cols := strings.Split(strings.TrimRight(ln, "\r"), "\t")
		if len(cols) < tsvCols {
			continue
		}
		word := strings.TrimSpace(cols[tsvText])
		if word == "" {
			continue
		}

		pk := cols[tsvBlock] + "." + cols[tsvPar]
		lk := pk + "." + cols[tsvLine]
		if lk != lineKey {
			flushRow()
			if paraKey != "" && pk != paraKey {
				sb.WriteByte('\n')
			}
			lineKey, paraKey = lk, pk
		}
		line = append(line, word)

		if c, err := strconv.ParseFloat(cols[tsvConf], 64); err == nil && c > 0 {
			sum += c
			n++
		}
	}
	flushRow()

	res := Result{Text: sb.String()}
	if n > 0 {
		res.Confidence = round2(sum / float64(n))
	}
	return res
}

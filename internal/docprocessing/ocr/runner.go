package ocr

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/ocragent/ocr-agent/pkg/logger"
)

// Runner lets us stub external commands in tests.
type Runner interface {
	Run(ctx context.Context, stdin []byte, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct {
	log *logger.Logger
}

// NewExecRunner runs commands with os/exec.
func NewExecRunner(log *logger.Logger) Runner {
	return execRunner{log: log}
}

func (r execRunner) Run(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	dur := time.Since(start)

	if r.log != nil {
		if err != nil {
			r.log.Error().Err(err).
				Str("cmd", name).
				Str("args", strings.Join(args, " ")).
				Int64("duration_ms", dur.Milliseconds()).
				Str("stderr", truncate(errb.String(), 8<<10)).
				Msg("exec failed")
		} else {
			r.log.Debug().
				Str("cmd", name).
				Str("args", strings.Join(args, " ")).
				Int64("duration_ms", dur.Milliseconds()).
				Int("stdout_bytes", out.Len()).
				Msg("exec ok")
		}
	}

	return out.Bytes(), errb.Bytes(), err
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}

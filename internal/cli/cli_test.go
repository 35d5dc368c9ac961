package cli_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocragent/ocr-agent/internal/cli"
)

func mrzLine(s string) string {
	return s + strings.Repeat("<", 30-len(s))
}

var dniText = strings.Join([]string{
	mrzLine("IDESPBHV122738077612097T"),
	mrzLine("7301245M2808288ESP"),
	mrzLine("COLL<CEREZO<<JOAQUIN"),
}, "\n")

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := cli.NewRootCmdForTest()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestExtractCommand(t *testing.T) {
	path := writeFile(t, "dni.txt", dniText)

	out, err := run(t, "", "extract", "--type", "dni", "--strict", path)
	require.NoError(t, err)

	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &res), out)
	assert.Equal(t, "dni", res["tipo_documento"])
	datos := res["datos"].(map[string]any)
	assert.Equal(t, "77612097T", datos["numero_documento"])
	assert.Equal(t, "1973-01-24", datos["fecha_nacimiento"])
}

func TestExtractCommand_Stdin(t *testing.T) {
	out, err := run(t, dniText, "extract", "-t", "nie", "--engine", "google_vision", "-")
	require.NoError(t, err)
	assert.Contains(t, out, `"ocr_engine": "google_vision"`)
}

func TestExtractCommand_MultipleFiles(t *testing.T) {
	a := writeFile(t, "a.txt", dniText)
	b := writeFile(t, "b.txt", "texto ilegible")

	out, err := run(t, "", "extract", "--type", "dni", a, b)
	require.NoError(t, err)

	var results []struct {
		File   string         `json:"file"`
		Result map[string]any `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)
	assert.Equal(t, a, results[0].File)
	assert.Equal(t, false, results[1].Result["valido"])
}

func TestExtractCommand_Summary(t *testing.T) {
	path := writeFile(t, "dni.txt", dniText)

	out, err := run(t, "", "extract", "--type", "dni", "--summary", path)
	require.NoError(t, err)
	assert.Contains(t, out, "dni.txt")
	assert.Contains(t, out, "77612097T")
}

func TestExtractCommand_Errors(t *testing.T) {
	path := writeFile(t, "dni.txt", dniText)

	tests := []struct {
		name string
		args []string
	}{
		{"missing type", []string{"extract", path}},
		{"unknown type", []string{"extract", "--type", "pasaporte", path}},
		{"confidence out of range", []string{"extract", "--type", "dni", "--engine-confidence", "120", path}},
		{"missing file", []string{"extract", "--type", "dni", filepath.Join(t.TempDir(), "none.txt")}},
		{"no files", []string{"extract", "--type", "dni"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, "", tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestEscalateCommand(t *testing.T) {
	path := writeFile(t, "nif.txt", "sin datos")

	out, err := run(t, "", "escalate", "--type", "nif", "--confidence", "80", path)
	require.NoError(t, err)

	var decision struct {
		Escalate bool   `json:"escalate"`
		Reason   string `json:"reason"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decision))
	assert.True(t, decision.Escalate)
	assert.Equal(t, "cif_absent", decision.Reason)
}

func TestExportCommand(t *testing.T) {
	a := writeFile(t, "a.txt", dniText)
	out := filepath.Join(t.TempDir(), "out.xlsx")

	stdout, err := run(t, "", "export", "--type", "dni", "--out", out, a)
	require.NoError(t, err)
	assert.Contains(t, stdout, "1 documents")

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestChecksumCommand(t *testing.T) {
	tests := []struct {
		kind  string
		value string
		valid bool
	}{
		{"dni", "12345678Z", true},
		{"dni", "12345678A", false},
		{"nie", "X1234567L", true},
		{"cif", "B76261874", true},
		{"vin", "1M8GDM9AXKP042788", true},
		{"vin", "1M8GDM9A1KP042788", false},
		{"plate", "1234BCD", true},
		{"plate", "1234ABC", false},
	}
	for _, tt := range tests {
		t.Run(tt.kind+"_"+tt.value, func(t *testing.T) {
			out, err := run(t, "", "checksum", tt.kind, tt.value)
			if tt.valid {
				assert.NoError(t, err)
				assert.Contains(t, out, "valid")
			} else {
				assert.Error(t, err)
				assert.Contains(t, out, "invalid")
			}
		})
	}

	t.Run("unknown kind", func(t *testing.T) {
		_, err := run(t, "", "checksum", "iban", "ES00")
		assert.Error(t, err)
	})
}

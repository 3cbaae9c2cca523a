package script

import (
	"math"
	"strings"
	"testing"

	"github.com/shane01526/ElegantPraat/internal/audio"
	"github.com/shane01526/ElegantPraat/internal/dsp"
)

// testClip builds a one second 440 Hz sine clip
func testClip(t *testing.T) *audio.Clip {
	t.Helper()
	sampleRate := 8000
	samples := make([]float64, sampleRate)
	for i := range samples {
		samples[i] = 0.5 * math.Sin(2*math.Pi*440*float64(i)/float64(sampleRate))
	}
	clip, err := audio.NewClip(samples, sampleRate)
	if err != nil {
		t.Fatalf("NewClip failed: %v", err)
	}
	return clip
}

func run(t *testing.T, source string) string {
	t.Helper()
	out, err := New(testClip(t), dsp.DefaultPitchOptions()).Run(source)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	return out
}

func TestDefaultScript(t *testing.T) {
	out := run(t, DefaultScript)

	// The default script reports the duration to two decimals
	if out != "Total Duration: 1.00 s\n" {
		t.Errorf("Unexpected default script output: %q", out)
	}
}

func TestQueries(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"appendInfoLine: Get total duration", "1\n"},
		{"appendInfoLine: Get number of samples", "8000\n"},
		{"appendInfoLine: Get sampling frequency", "8000\n"},
		{"n = Get number of samples\nappendInfoLine: n / 2", "4000\n"},
	}

	for _, tt := range tests {
		if got := run(t, tt.source); got != tt.want {
			t.Errorf("Script %q: expected %q, got %q", tt.source, tt.want, got)
		}
	}
}

func TestSamplingPeriod(t *testing.T) {
	source := `p = Get sampling period
appendInfoLine: fixed$(p, 6)
`
	out := run(t, source)
	if out != "0.000125\n" {
		t.Errorf("Unexpected sampling period output: %q", out)
	}
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"appendInfoLine: 2 + 3 * 4", "14\n"},
		{"appendInfoLine: (2 + 3) * 4", "20\n"},
		{"appendInfoLine: -5 + 2", "-3\n"},
		{"appendInfoLine: 10 / 4", "2.500000\n"},
	}

	for _, tt := range tests {
		if got := run(t, tt.source); got != tt.want {
			t.Errorf("Script %q: expected %q, got %q", tt.source, tt.want, got)
		}
	}
}

func TestStringVariables(t *testing.T) {
	source := `name$ = "speech"
appendInfoLine: "File: " + name$
`
	if got := run(t, source); got != "File: speech\n" {
		t.Errorf("Unexpected output: %q", got)
	}
}

func TestEscapedQuotesInLiteral(t *testing.T) {
	out := run(t, `appendInfoLine: "a ""b"" c"`)
	if out != `a "b" c`+"\n" {
		t.Errorf("Unexpected output: %q", out)
	}
}

func TestWriteInfoLineResets(t *testing.T) {
	source := `appendInfoLine: "first"
writeInfoLine: "second"
`
	if got := run(t, source); got != "second\n" {
		t.Errorf("Expected writeInfoLine to clear earlier output, got %q", got)
	}
}

func TestClearinfo(t *testing.T) {
	source := `appendInfoLine: "gone"
clearinfo
appendInfo: "a"
appendInfo: "b"
`
	if got := run(t, source); got != "ab" {
		t.Errorf("Unexpected output: %q", got)
	}
}

func TestCommentsAndBlankLines(t *testing.T) {
	source := `# leading comment
; alternative comment

appendInfoLine: "ok"
`
	if got := run(t, source); got != "ok\n" {
		t.Errorf("Unexpected output: %q", got)
	}
}

func TestMultipleArguments(t *testing.T) {
	out := run(t, `appendInfoLine: "x = ", fixed$(1.5, 1), ", y = ", 2 + 1`)
	if out != "x = 1.5, y = 3\n" {
		t.Errorf("Unexpected output: %q", out)
	}
}

func TestErrorsNameTheLine(t *testing.T) {
	source := `appendInfoLine: "ok"
bogus command here
`
	out, err := New(testClip(t), dsp.DefaultPitchOptions()).Run(source)
	if err == nil {
		t.Fatal("Expected an error for an unknown command")
	}
	if !strings.HasPrefix(err.Error(), "line 2:") {
		t.Errorf("Expected the error to name line 2, got %q", err.Error())
	}
	// Output produced before the failure is preserved
	if out != "ok\n" {
		t.Errorf("Expected partial output to survive, got %q", out)
	}
}

func TestErrorCases(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"unknown command", "Play"},
		{"undefined variable", "appendInfoLine: missing"},
		{"undefined string variable", "appendInfoLine: missing$"},
		{"division by zero", "appendInfoLine: 1 / 0"},
		{"string minus string", `appendInfoLine: "a" - "b"`},
		{"number plus string", `appendInfoLine: 1 + "b"`},
		{"string to numeric variable", `x = "text"`},
		{"number to string variable", `x$ = 5`},
		{"unterminated string", `appendInfoLine: "open`},
		{"missing paren", "appendInfoLine: (1 + 2"},
		{"fixed missing argument", "appendInfoLine: fixed$(1.5)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(testClip(t), dsp.DefaultPitchOptions()).Run(tt.source); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}

func TestBareQueryIsSilent(t *testing.T) {
	source := `Get total duration
appendInfoLine: "done"
`
	if got := run(t, source); got != "done\n" {
		t.Errorf("Expected bare queries to produce no output, got %q", got)
	}
}

func TestFormatNumber(t *testing.T) {
	if got := formatNumber(5); got != "5" {
		t.Errorf("Expected integer formatting, got %q", got)
	}
	if got := formatNumber(1.25); got != "1.250000" {
		t.Errorf("Expected six decimals, got %q", got)
	}
}

package textgrid

import (
	"testing"
	"unicode/utf16"
)

const longFormat = `File type = "ooTextFile"
Object class = "TextGrid"

xmin = 0
xmax = 2.5
tiers? <exists>
size = 2
item []:
    item [1]:
        class = "IntervalTier"
        name = "words"
        xmin = 0
        xmax = 2.5
        intervals: size = 3
        intervals [1]:
            xmin = 0
            xmax = 0.8
            text = "hello"
        intervals [2]:
            xmin = 0.8
            xmax = 1.6
            text = ""
        intervals [3]:
            xmin = 1.6
            xmax = 2.5
            text = "world"
    item [2]:
        class = "TextTier"
        name = "events"
        xmin = 0
        xmax = 2.5
        points: size = 2
        points [1]:
            number = 0.5
            mark = "peak"
        points [2]:
            number = 1.9
            mark = "dip"
`

const shortFormat = `File type = "ooTextFile"
Object class = "TextGrid"

0
2.5
<exists>
1
"IntervalTier"
"phones"
0
2.5
2
0
1.2
"a"
1.2
2.5
"b"
`

func TestParseLongFormat(t *testing.T) {
	tg, err := Parse([]byte(longFormat))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if tg.XMin != 0 || tg.XMax != 2.5 {
		t.Errorf("Expected domain [0, 2.5], got [%f, %f]", tg.XMin, tg.XMax)
	}

	if len(tg.Tiers) != 2 {
		t.Fatalf("Expected 2 tiers, got %d", len(tg.Tiers))
	}

	words := tg.Tiers[0]
	if words.Name != "words" {
		t.Errorf("Expected tier name 'words', got %q", words.Name)
	}
	if words.Kind != IntervalTier {
		t.Errorf("Expected an interval tier, got %v", words.Kind)
	}
	if words.Size() != 3 {
		t.Fatalf("Expected 3 intervals, got %d", words.Size())
	}
	if words.Intervals[0].Text != "hello" {
		t.Errorf("Expected first interval 'hello', got %q", words.Intervals[0].Text)
	}
	if words.Intervals[1].Text != "" {
		t.Errorf("Expected empty second interval, got %q", words.Intervals[1].Text)
	}
	if words.Intervals[2].XMax != 2.5 {
		t.Errorf("Expected last interval to end at 2.5, got %f", words.Intervals[2].XMax)
	}

	events := tg.Tiers[1]
	if events.Kind != PointTier {
		t.Errorf("Expected a point tier, got %v", events.Kind)
	}
	if events.Size() != 2 {
		t.Fatalf("Expected 2 points, got %d", events.Size())
	}
	if events.Points[0].Time != 0.5 || events.Points[0].Text != "peak" {
		t.Errorf("Unexpected first point: %+v", events.Points[0])
	}
}

func TestParseShortFormat(t *testing.T) {
	tg, err := Parse([]byte(shortFormat))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(tg.Tiers) != 1 {
		t.Fatalf("Expected 1 tier, got %d", len(tg.Tiers))
	}

	phones := tg.Tiers[0]
	if phones.Name != "phones" {
		t.Errorf("Expected tier name 'phones', got %q", phones.Name)
	}
	if phones.Size() != 2 {
		t.Fatalf("Expected 2 intervals, got %d", phones.Size())
	}
	if phones.Intervals[1].XMin != 1.2 {
		t.Errorf("Expected second interval at 1.2, got %f", phones.Intervals[1].XMin)
	}
}

func TestParsePreservesTierOrder(t *testing.T) {
	tg, err := Parse([]byte(longFormat))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if tg.Tiers[0].Name != "words" || tg.Tiers[1].Name != "events" {
		t.Errorf("Tier order not preserved: %q, %q", tg.Tiers[0].Name, tg.Tiers[1].Name)
	}
}

func TestParseEscapedQuotes(t *testing.T) {
	src := `File type = "ooTextFile"
Object class = "TextGrid"
0
1
<exists>
1
"IntervalTier"
"notes"
0
1
1
0
1
"say ""hi"" now"
`
	tg, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	got := tg.Tiers[0].Intervals[0].Text
	if got != `say "hi" now` {
		t.Errorf("Expected escaped quotes to be unescaped, got %q", got)
	}
}

func TestParseUTF8BOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte(shortFormat)...)
	if _, err := Parse(data); err != nil {
		t.Errorf("Parse with UTF-8 BOM failed: %v", err)
	}
}

func TestParseUTF16(t *testing.T) {
	units := utf16.Encode([]rune(shortFormat))

	// big endian with BOM
	data := []byte{0xFE, 0xFF}
	for _, u := range units {
		data = append(data, byte(u>>8), byte(u))
	}

	tg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse UTF-16 failed: %v", err)
	}
	if len(tg.Tiers) != 1 || tg.Tiers[0].Name != "phones" {
		t.Errorf("Unexpected UTF-16 parse result: %+v", tg)
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"empty", ""},
		{"not a praat file", `File type = "Garbage"` + "\n0\n1\n"},
		{"wrong object class", `File type = "ooTextFile"` + "\n" + `Object class = "Sound"` + "\n0\n1\n"},
		{"unterminated string", `File type = "ooTextFile`},
		{"truncated tier", `File type = "ooTextFile"` + "\n" + `Object class = "TextGrid"` + "\n0\n1\n<exists>\n1\n\"IntervalTier\"\n"},
		{"unknown tier class", `File type = "ooTextFile"` + "\n" + `Object class = "TextGrid"` + "\n0\n1\n<exists>\n1\n\"PitchTier\"\n\"x\"\n0\n1\n0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.src)); err == nil {
				t.Error("Expected parse error")
			}
		})
	}
}

func TestTierKindString(t *testing.T) {
	if IntervalTier.String() != "IntervalTier" {
		t.Errorf("Unexpected interval tier class name: %s", IntervalTier.String())
	}
	if PointTier.String() != "TextTier" {
		t.Errorf("Unexpected point tier class name: %s", PointTier.String())
	}
}

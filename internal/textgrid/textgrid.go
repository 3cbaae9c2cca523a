package textgrid

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// TierKind distinguishes interval tiers from point tiers
type TierKind int

const (
	// IntervalTier holds labeled time intervals
	IntervalTier TierKind = iota
	// PointTier holds labeled time points (a Praat "TextTier")
	PointTier
)

// String returns the Praat class name for the tier kind
func (k TierKind) String() string {
	if k == PointTier {
		return "TextTier"
	}
	return "IntervalTier"
}

// Interval is a labeled time span within an interval tier
type Interval struct {
	XMin float64 `json:"xmin"`
	XMax float64 `json:"xmax"`
	Text string  `json:"text"`
}

// Point is a labeled time point within a point tier
type Point struct {
	Time float64 `json:"time"`
	Text string  `json:"text"`
}

// Tier is one annotation layer: an ordered sequence of intervals or points
type Tier struct {
	Name      string     `json:"name"`
	Kind      TierKind   `json:"-"`
	XMin      float64    `json:"xmin"`
	XMax      float64    `json:"xmax"`
	Intervals []Interval `json:"intervals,omitempty"`
	Points    []Point    `json:"points,omitempty"`
}

// Size returns the number of intervals or points in the tier
func (t *Tier) Size() int {
	if t.Kind == PointTier {
		return len(t.Points)
	}
	return len(t.Intervals)
}

// TextGrid is a time-aligned annotation set: an ordered sequence of tiers
// sharing one time domain. It is read-only after parsing.
type TextGrid struct {
	XMin  float64 `json:"xmin"`
	XMax  float64 `json:"xmax"`
	Tiers []Tier  `json:"tiers"`
}

// Parse reads a TextGrid from its Praat text serialization. Both the long
// (annotated) and short form are accepted, as are UTF-8 and UTF-16 files.
func Parse(data []byte) (*TextGrid, error) {
	text, err := decodeText(data)
	if err != nil {
		return nil, err
	}

	tokens, err := tokenize(text)
	if err != nil {
		return nil, err
	}

	p := &parser{tokens: tokens}
	return p.parseTextGrid()
}

// ParseFile reads and parses a TextGrid file from disk
func ParseFile(path string) (*TextGrid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read TextGrid file %s: %w", path, err)
	}
	return Parse(data)
}

// decodeText converts raw file bytes to a string, honoring UTF-16 byte
// order marks that Praat writes by default on some platforms.
func decodeText(data []byte) (string, error) {
	if len(data) >= 2 {
		if data[0] == 0xFE && data[1] == 0xFF {
			return decodeUTF16(data[2:], true)
		}
		if data[0] == 0xFF && data[1] == 0xFE {
			return decodeUTF16(data[2:], false)
		}
	}

	// Strip a UTF-8 BOM if present
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		data = data[3:]
	}

	if !utf8.Valid(data) {
		return "", fmt.Errorf("TextGrid file is not valid UTF-8 or UTF-16 text")
	}

	return string(data), nil
}

func decodeUTF16(data []byte, bigEndian bool) (string, error) {
	if len(data)%2 != 0 {
		return "", fmt.Errorf("truncated UTF-16 TextGrid data")
	}

	units := make([]uint16, len(data)/2)
	for i := range units {
		if bigEndian {
			units[i] = uint16(data[2*i])<<8 | uint16(data[2*i+1])
		} else {
			units[i] = uint16(data[2*i+1])<<8 | uint16(data[2*i])
		}
	}

	return string(utf16.Decode(units)), nil
}

// token is either a number, a quoted string, or a <flag>
type token struct {
	text     string
	isString bool
	isFlag   bool
}

// tokenize reduces a TextGrid serialization to its value tokens: quoted
// strings, bare numbers and <exists>-style flags. Field names, equals
// signs and bracketed indices carry no information and are skipped, which
// makes the long and short forms parse identically.
func tokenize(text string) ([]token, error) {
	var tokens []token
	runes := []rune(text)
	i := 0

	for i < len(runes) {
		r := runes[i]
		switch {
		case r == '"':
			// Quoted string; Praat escapes embedded quotes by doubling
			var sb strings.Builder
			i++
			for {
				if i >= len(runes) {
					return nil, fmt.Errorf("unterminated string in TextGrid")
				}
				if runes[i] == '"' {
					if i+1 < len(runes) && runes[i+1] == '"' {
						sb.WriteRune('"')
						i += 2
						continue
					}
					i++
					break
				}
				sb.WriteRune(runes[i])
				i++
			}
			tokens = append(tokens, token{text: sb.String(), isString: true})

		case r == '<':
			j := i + 1
			for j < len(runes) && runes[j] != '>' {
				j++
			}
			if j >= len(runes) {
				return nil, fmt.Errorf("unterminated flag in TextGrid")
			}
			tokens = append(tokens, token{text: string(runes[i+1 : j]), isFlag: true})
			i = j + 1

		case r == '[':
			// Bracketed indices like "item [1]:" are decorative
			for i < len(runes) && runes[i] != ']' {
				i++
			}
			i++

		case r >= '0' && r <= '9', r == '-' && i+1 < len(runes) && runes[i+1] >= '0' && runes[i+1] <= '9':
			j := i + 1
			for j < len(runes) && (runes[j] >= '0' && runes[j] <= '9' || runes[j] == '.' || runes[j] == 'e' || runes[j] == 'E' || runes[j] == '-' || runes[j] == '+') {
				j++
			}
			tokens = append(tokens, token{text: string(runes[i:j])})
			i = j

		default:
			i++
		}
	}

	return tokens, nil
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) next() (token, error) {
	if p.pos >= len(p.tokens) {
		return token{}, fmt.Errorf("unexpected end of TextGrid data")
	}
	t := p.tokens[p.pos]
	p.pos++
	return t, nil
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.tokens) {
		return token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *parser) number(field string) (float64, error) {
	t, err := p.next()
	if err != nil {
		return 0, fmt.Errorf("missing %s: %w", field, err)
	}
	if t.isString || t.isFlag {
		return 0, fmt.Errorf("expected number for %s, got %q", field, t.text)
	}
	v, err := strconv.ParseFloat(t.text, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number for %s: %q", field, t.text)
	}
	return v, nil
}

func (p *parser) str(field string) (string, error) {
	t, err := p.next()
	if err != nil {
		return "", fmt.Errorf("missing %s: %w", field, err)
	}
	if !t.isString {
		return "", fmt.Errorf("expected string for %s, got %q", field, t.text)
	}
	return t.text, nil
}

func (p *parser) parseTextGrid() (*TextGrid, error) {
	fileType, err := p.str("file type")
	if err != nil {
		return nil, err
	}
	if fileType != "ooTextFile" {
		return nil, fmt.Errorf("not a Praat text file: file type %q", fileType)
	}

	objClass, err := p.str("object class")
	if err != nil {
		return nil, err
	}
	if objClass != "TextGrid" {
		return nil, fmt.Errorf("not a TextGrid: object class %q", objClass)
	}

	tg := &TextGrid{}
	if tg.XMin, err = p.number("xmin"); err != nil {
		return nil, err
	}
	if tg.XMax, err = p.number("xmax"); err != nil {
		return nil, err
	}

	// The tiers flag: <exists> followed by a size, or <absent>
	t, ok := p.peek()
	if !ok {
		return tg, nil
	}
	if t.isFlag {
		p.pos++
		if t.text != "exists" {
			return tg, nil
		}
	}

	size, err := p.number("number of tiers")
	if err != nil {
		return nil, err
	}
	if size < 0 || size > 10000 {
		return nil, fmt.Errorf("implausible tier count: %g", size)
	}

	for i := 0; i < int(size); i++ {
		tier, err := p.parseTier(i + 1)
		if err != nil {
			return nil, err
		}
		tg.Tiers = append(tg.Tiers, *tier)
	}

	return tg, nil
}

func (p *parser) parseTier(index int) (*Tier, error) {
	class, err := p.str("tier class")
	if err != nil {
		return nil, fmt.Errorf("tier %d: %w", index, err)
	}

	tier := &Tier{}
	switch class {
	case "IntervalTier":
		tier.Kind = IntervalTier
	case "TextTier":
		tier.Kind = PointTier
	default:
		return nil, fmt.Errorf("tier %d: unknown tier class %q", index, class)
	}

	if tier.Name, err = p.str("tier name"); err != nil {
		return nil, fmt.Errorf("tier %d: %w", index, err)
	}
	if tier.XMin, err = p.number("tier xmin"); err != nil {
		return nil, fmt.Errorf("tier %d: %w", index, err)
	}
	if tier.XMax, err = p.number("tier xmax"); err != nil {
		return nil, fmt.Errorf("tier %d: %w", index, err)
	}

	count, err := p.number("tier size")
	if err != nil {
		return nil, fmt.Errorf("tier %d: %w", index, err)
	}
	if count < 0 || count > 1_000_000 {
		return nil, fmt.Errorf("tier %d: implausible element count: %g", index, count)
	}

	for j := 0; j < int(count); j++ {
		if tier.Kind == IntervalTier {
			var iv Interval
			if iv.XMin, err = p.number("interval xmin"); err != nil {
				return nil, fmt.Errorf("tier %d interval %d: %w", index, j+1, err)
			}
			if iv.XMax, err = p.number("interval xmax"); err != nil {
				return nil, fmt.Errorf("tier %d interval %d: %w", index, j+1, err)
			}
			if iv.Text, err = p.str("interval text"); err != nil {
				return nil, fmt.Errorf("tier %d interval %d: %w", index, j+1, err)
			}
			tier.Intervals = append(tier.Intervals, iv)
		} else {
			var pt Point
			if pt.Time, err = p.number("point time"); err != nil {
				return nil, fmt.Errorf("tier %d point %d: %w", index, j+1, err)
			}
			if pt.Text, err = p.str("point mark"); err != nil {
				return nil, fmt.Errorf("tier %d point %d: %w", index, j+1, err)
			}
			tier.Points = append(tier.Points, pt)
		}
	}

	return tier, nil
}

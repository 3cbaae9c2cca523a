package script

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shane01526/ElegantPraat/internal/audio"
	"github.com/shane01526/ElegantPraat/internal/dsp"
)

// DefaultScript is the example script pre-filled in the scripting box
const DefaultScript = `# Example: compute the total duration
dur = Get total duration
appendInfoLine: "Total Duration: " + fixed$(dur, 2) + " s"
`

// Interpreter executes analysis scripts against one loaded clip. It
// supports the query-assign-report subset of the Praat scripting
// language: object queries, numeric and string expressions, and the
// appendInfo family of output commands.
type Interpreter struct {
	clip      *audio.Clip
	pitchOpts dsp.PitchOptions

	vars map[string]value
	out  strings.Builder
}

// value is a tagged number-or-string
type value struct {
	num   float64
	str   string
	isStr bool
}

func (v value) String() string {
	if v.isStr {
		return v.str
	}
	return formatNumber(v.num)
}

// formatNumber renders a number the way Praat's info window does:
// integers without a decimal point, everything else with up to six
// significant decimals.
func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', 0, 64)
	}
	return strconv.FormatFloat(f, 'f', 6, 64)
}

// New creates an interpreter bound to a clip
func New(clip *audio.Clip, pitchOpts dsp.PitchOptions) *Interpreter {
	return &Interpreter{
		clip:      clip,
		pitchOpts: pitchOpts,
		vars:      make(map[string]value),
	}
}

// Run executes the script and returns its accumulated info output. Any
// failure aborts execution; the error message names the offending line.
func (i *Interpreter) Run(source string) (string, error) {
	lines := strings.Split(source, "\n")
	for n, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}

		if err := i.execLine(line); err != nil {
			return i.out.String(), fmt.Errorf("line %d: %w", n+1, err)
		}
	}
	return i.out.String(), nil
}

func (i *Interpreter) execLine(line string) error {
	switch {
	case strings.HasPrefix(line, "writeInfoLine:"):
		i.out.Reset()
		return i.appendArgs(strings.TrimPrefix(line, "writeInfoLine:"), true)

	case strings.HasPrefix(line, "appendInfoLine:"):
		return i.appendArgs(strings.TrimPrefix(line, "appendInfoLine:"), true)

	case strings.HasPrefix(line, "appendInfo:"):
		return i.appendArgs(strings.TrimPrefix(line, "appendInfo:"), false)

	case strings.HasPrefix(line, "clearinfo"):
		i.out.Reset()
		return nil
	}

	// Assignment: name = <query or expression>
	if name, rhs, ok := splitAssignment(line); ok {
		v, err := i.evalRHS(rhs)
		if err != nil {
			return err
		}
		if strings.HasSuffix(name, "$") != v.isStr {
			if v.isStr {
				return fmt.Errorf("cannot assign a string to the numeric variable %q", name)
			}
			return fmt.Errorf("cannot assign a number to the string variable %q", name)
		}
		i.vars[name] = v
		return nil
	}

	// A bare query evaluates silently, matching the scripting engine's
	// behavior outside interactive mode.
	if _, ok := i.query(line); ok {
		return nil
	}

	return fmt.Errorf("unknown command: %q", line)
}

// splitAssignment recognizes "name = rhs" where name is an identifier,
// optionally with the $ suffix of string variables.
func splitAssignment(line string) (string, string, bool) {
	eq := strings.Index(line, "=")
	if eq <= 0 {
		return "", "", false
	}
	name := strings.TrimSpace(line[:eq])
	if !isIdentifier(name) {
		return "", "", false
	}
	return name, strings.TrimSpace(line[eq+1:]), true
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	body := strings.TrimSuffix(s, "$")
	if body == "" {
		return false
	}
	for idx, r := range body {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_', r == '.':
		case r >= '0' && r <= '9':
			if idx == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// appendArgs evaluates a comma-separated argument list and appends the
// concatenated results to the info output.
func (i *Interpreter) appendArgs(args string, newline bool) error {
	for _, arg := range splitArgs(args) {
		arg = strings.TrimSpace(arg)
		if arg == "" {
			continue
		}
		v, err := i.evalRHS(arg)
		if err != nil {
			return err
		}
		i.out.WriteString(v.String())
	}
	if newline {
		i.out.WriteString("\n")
	}
	return nil
}

// splitArgs splits on commas that are not inside string literals or
// parentheses.
func splitArgs(s string) []string {
	var args []string
	depth := 0
	inStr := false
	start := 0
	for idx := 0; idx < len(s); idx++ {
		switch s[idx] {
		case '"':
			inStr = !inStr
		case '(':
			if !inStr {
				depth++
			}
		case ')':
			if !inStr {
				depth--
			}
		case ',':
			if !inStr && depth == 0 {
				args = append(args, s[start:idx])
				start = idx + 1
			}
		}
	}
	args = append(args, s[start:])
	return args
}

// evalRHS evaluates either an object query ("Get total duration") or an
// expression.
func (i *Interpreter) evalRHS(rhs string) (value, error) {
	if v, ok := i.query(rhs); ok {
		return v, nil
	}

	p := &exprParser{interp: i, input: rhs}
	v, err := p.parse()
	if err != nil {
		return value{}, err
	}
	return v, nil
}

// query evaluates the supported object queries against the bound clip
func (i *Interpreter) query(cmd string) (value, bool) {
	switch strings.TrimSpace(cmd) {
	case "Get total duration", "Get duration":
		return value{num: i.clip.Duration()}, true
	case "Get number of samples":
		return value{num: float64(i.clip.Len())}, true
	case "Get sampling frequency":
		return value{num: float64(i.clip.SampleRate())}, true
	case "Get sampling period":
		return value{num: 1.0 / float64(i.clip.SampleRate())}, true
	case "Get minimum":
		minVal, _ := i.clip.MinMax()
		return value{num: minVal}, true
	case "Get maximum":
		_, maxVal := i.clip.MinMax()
		return value{num: maxVal}, true
	case "Get mean pitch":
		mean, err := dsp.MeanPitch(i.clip, i.pitchOpts)
		if err != nil {
			return value{num: math.NaN()}, true
		}
		return value{num: mean}, true
	}
	return value{}, false
}

// exprParser is a small recursive-descent evaluator for numeric and
// string expressions: literals, variables, + - * /, parentheses and the
// fixed$ formatting function.
type exprParser struct {
	interp *Interpreter
	input  string
	pos    int
}

func (p *exprParser) parse() (value, error) {
	v, err := p.parseSum()
	if err != nil {
		return value{}, err
	}
	p.skipSpace()
	if p.pos < len(p.input) {
		return value{}, fmt.Errorf("unexpected %q in expression %q", p.input[p.pos:], p.input)
	}
	return v, nil
}

func (p *exprParser) skipSpace() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
}

func (p *exprParser) parseSum() (value, error) {
	left, err := p.parseProduct()
	if err != nil {
		return value{}, err
	}

	for {
		p.skipSpace()
		if p.pos >= len(p.input) {
			return left, nil
		}
		op := p.input[p.pos]
		if op != '+' && op != '-' {
			return left, nil
		}
		p.pos++

		right, err := p.parseProduct()
		if err != nil {
			return value{}, err
		}

		if left.isStr || right.isStr {
			if op != '+' {
				return value{}, fmt.Errorf("cannot subtract strings")
			}
			if !left.isStr || !right.isStr {
				return value{}, fmt.Errorf("cannot add a number and a string; use fixed$ () to format numbers")
			}
			left = value{str: left.str + right.str, isStr: true}
			continue
		}

		if op == '+' {
			left = value{num: left.num + right.num}
		} else {
			left = value{num: left.num - right.num}
		}
	}
}

func (p *exprParser) parseProduct() (value, error) {
	left, err := p.parseUnary()
	if err != nil {
		return value{}, err
	}

	for {
		p.skipSpace()
		if p.pos >= len(p.input) {
			return left, nil
		}
		op := p.input[p.pos]
		if op != '*' && op != '/' {
			return left, nil
		}
		p.pos++

		right, err := p.parseUnary()
		if err != nil {
			return value{}, err
		}

		if left.isStr || right.isStr {
			return value{}, fmt.Errorf("cannot multiply or divide strings")
		}

		if op == '*' {
			left = value{num: left.num * right.num}
		} else {
			if right.num == 0 {
				return value{}, fmt.Errorf("division by zero")
			}
			left = value{num: left.num / right.num}
		}
	}
}

func (p *exprParser) parseUnary() (value, error) {
	p.skipSpace()
	if p.pos < len(p.input) && p.input[p.pos] == '-' {
		p.pos++
		v, err := p.parseUnary()
		if err != nil {
			return value{}, err
		}
		if v.isStr {
			return value{}, fmt.Errorf("cannot negate a string")
		}
		return value{num: -v.num}, nil
	}
	return p.parsePrimary()
}

func (p *exprParser) parsePrimary() (value, error) {
	p.skipSpace()
	if p.pos >= len(p.input) {
		return value{}, fmt.Errorf("unexpected end of expression %q", p.input)
	}

	c := p.input[p.pos]
	switch {
	case c == '(':
		p.pos++
		v, err := p.parseSum()
		if err != nil {
			return value{}, err
		}
		p.skipSpace()
		if p.pos >= len(p.input) || p.input[p.pos] != ')' {
			return value{}, fmt.Errorf("missing closing parenthesis in %q", p.input)
		}
		p.pos++
		return v, nil

	case c == '"':
		return p.parseString()

	case c >= '0' && c <= '9' || c == '.':
		return p.parseNumber()

	case c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_':
		return p.parseIdentifier()
	}

	return value{}, fmt.Errorf("unexpected character %q in expression %q", string(c), p.input)
}

func (p *exprParser) parseString() (value, error) {
	// consume opening quote
	p.pos++
	var sb strings.Builder
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c == '"' {
			if p.pos+1 < len(p.input) && p.input[p.pos+1] == '"' {
				sb.WriteByte('"')
				p.pos += 2
				continue
			}
			p.pos++
			return value{str: sb.String(), isStr: true}, nil
		}
		sb.WriteByte(c)
		p.pos++
	}
	return value{}, fmt.Errorf("unterminated string in expression %q", p.input)
}

func (p *exprParser) parseNumber() (value, error) {
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c >= '0' && c <= '9' || c == '.' || c == 'e' || c == 'E' {
			p.pos++
			continue
		}
		break
	}
	f, err := strconv.ParseFloat(p.input[start:p.pos], 64)
	if err != nil {
		return value{}, fmt.Errorf("invalid number %q", p.input[start:p.pos])
	}
	return value{num: f}, nil
}

func (p *exprParser) parseIdentifier() (value, error) {
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '.' {
			p.pos++
			continue
		}
		break
	}
	name := p.input[start:p.pos]

	// String-typed names carry a $ suffix
	if p.pos < len(p.input) && p.input[p.pos] == '$' {
		p.pos++
		name += "$"

		if name == "fixed$" {
			return p.parseFixed()
		}

		v, ok := p.interp.vars[name]
		if !ok {
			return value{}, fmt.Errorf("undefined string variable %q", name)
		}
		return v, nil
	}

	v, ok := p.interp.vars[name]
	if !ok {
		return value{}, fmt.Errorf("undefined variable %q", name)
	}
	return v, nil
}

// parseFixed evaluates fixed$ (number, digits): fixed decimal formatting
func (p *exprParser) parseFixed() (value, error) {
	p.skipSpace()
	if p.pos >= len(p.input) || p.input[p.pos] != '(' {
		return value{}, fmt.Errorf("fixed$ requires parenthesized arguments")
	}
	p.pos++

	num, err := p.parseSum()
	if err != nil {
		return value{}, err
	}
	if num.isStr {
		return value{}, fmt.Errorf("fixed$ expects a number as its first argument")
	}

	p.skipSpace()
	if p.pos >= len(p.input) || p.input[p.pos] != ',' {
		return value{}, fmt.Errorf("fixed$ requires two arguments")
	}
	p.pos++

	digits, err := p.parseSum()
	if err != nil {
		return value{}, err
	}
	if digits.isStr {
		return value{}, fmt.Errorf("fixed$ expects a number of digits as its second argument")
	}

	p.skipSpace()
	if p.pos >= len(p.input) || p.input[p.pos] != ')' {
		return value{}, fmt.Errorf("missing closing parenthesis after fixed$ arguments")
	}
	p.pos++

	nd := int(digits.num)
	if nd < 0 || nd > 17 {
		return value{}, fmt.Errorf("fixed$ digit count out of range: %d", nd)
	}

	return value{str: strconv.FormatFloat(num.num, 'f', nd, 64), isStr: true}, nil
}

// Package rules provides structural validation for rules source files.
//
// Validation is a lint gate, not a compiler: it catches sources that no
// rules engine could load (unbalanced braces, unterminated strings,
// missing service declaration) while leaving full semantic checking to
// the engines that consume published rulesets.
package rules

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	serviceRE       = regexp.MustCompile(`\bservice\s+([A-Za-z][A-Za-z0-9._-]*)\s*\{`)
	rulesVersionRE  = regexp.MustCompile(`\brules_version\b`)
	versionAssignRE = regexp.MustCompile(`\brules_version\s*=\s*(['"])`)
)

type stringLiteral struct {
	off   int
	value string
}

// Validate checks one rules source file for structural problems and returns
// one error per finding, each prefixed with its [line:column] position.
// A nil return means the source passed the gate.
func Validate(source string) []error {
	if strings.TrimSpace(source) == "" {
		return []error{fmt.Errorf("[1:1] source is empty")}
	}
	if !utf8.ValidString(source) {
		line, col := posAt(source, invalidUTF8Index(source))
		return []error{fmt.Errorf("[%d:%d] source is not valid UTF-8", line, col)}
	}
	if i := strings.IndexByte(source, 0); i >= 0 {
		line, col := posAt(source, i)
		return []error{fmt.Errorf("[%d:%d] source contains a NUL byte", line, col)}
	}

	sc := &scanner{src: source, code: []byte(source)}
	errs := sc.run()

	code := string(sc.code)
	errs = append(errs, checkServices(code)...)
	errs = append(errs, checkRulesVersion(source, code, sc.literals)...)

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// scanner walks the source once, tracking delimiter balance and blanking
// comment and string interiors so later regexp checks only see code.
type scanner struct {
	src      string
	code     []byte
	literals []stringLiteral
	line     int
	col      int
	i        int
}

type openDelim struct {
	ch   byte
	line int
	col  int
}

func (s *scanner) run() []error {
	var errs []error
	var stack []openDelim
	s.line, s.col = 1, 1

	for s.i < len(s.src) {
		c := s.src[s.i]
		switch {
		case c == '\n':
			s.i++
			s.line++
			s.col = 1
			continue
		case c == '/' && s.peek() == '/':
			s.blankLineComment()
			continue
		case c == '/' && s.peek() == '*':
			if err := s.blankBlockComment(); err != nil {
				errs = append(errs, err)
			}
			continue
		case c == '\'' || c == '"':
			if err := s.blankString(c); err != nil {
				errs = append(errs, err)
			}
			continue
		case c == '{' || c == '(' || c == '[':
			stack = append(stack, openDelim{c, s.line, s.col})
		case c == '}' || c == ')' || c == ']':
			want := openerFor(c)
			if len(stack) == 0 {
				errs = append(errs, fmt.Errorf("[%d:%d] unexpected %q", s.line, s.col, string(c)))
				break
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if top.ch != want {
				errs = append(errs, fmt.Errorf("[%d:%d] mismatched %q, open %q at [%d:%d]",
					s.line, s.col, string(c), string(top.ch), top.line, top.col))
			}
		}
		s.advance()
	}

	for _, o := range stack {
		errs = append(errs, fmt.Errorf("[%d:%d] unclosed %q", o.line, o.col, string(o.ch)))
	}
	return errs
}

func (s *scanner) peek() byte {
	if s.i+1 < len(s.src) {
		return s.src[s.i+1]
	}
	return 0
}

// advance moves past the rune at the cursor without blanking it.
func (s *scanner) advance() {
	_, size := utf8.DecodeRuneInString(s.src[s.i:])
	s.i += size
	s.col++
}

// blank overwrites the rune at the cursor with spaces and moves past it.
func (s *scanner) blank() {
	_, size := utf8.DecodeRuneInString(s.src[s.i:])
	for k := 0; k < size; k++ {
		s.code[s.i+k] = ' '
	}
	s.i += size
	s.col++
}

func (s *scanner) blankLineComment() {
	for s.i < len(s.src) && s.src[s.i] != '\n' {
		s.blank()
	}
}

func (s *scanner) blankBlockComment() error {
	startLine, startCol := s.line, s.col
	s.blank() // '/'
	s.blank() // '*'
	for s.i < len(s.src) {
		if s.src[s.i] == '*' && s.peek() == '/' {
			s.blank()
			s.blank()
			return nil
		}
		if s.src[s.i] == '\n' {
			s.i++
			s.line++
			s.col = 1
			continue
		}
		s.blank()
	}
	return fmt.Errorf("[%d:%d] unterminated block comment", startLine, startCol)
}

// blankString consumes a quoted literal, keeping the quote characters in the
// code view so assignment checks can still see where literals sat. Strings
// do not span lines.
func (s *scanner) blankString(quote byte) error {
	startLine, startCol := s.line, s.col
	startOff := s.i
	s.advance() // opening quote stays visible
	var value strings.Builder
	for s.i < len(s.src) {
		c := s.src[s.i]
		if c == '\n' {
			break
		}
		if c == '\\' && s.i+1 < len(s.src) && s.src[s.i+1] != '\n' {
			value.WriteByte(c)
			s.blank()
			value.WriteString(s.src[s.i : s.i+runeLen(s.src[s.i:])])
			s.blank()
			continue
		}
		if c == quote {
			s.advance() // closing quote stays visible
			s.literals = append(s.literals, stringLiteral{off: startOff, value: value.String()})
			return nil
		}
		value.WriteString(s.src[s.i : s.i+runeLen(s.src[s.i:])])
		s.blank()
	}
	return fmt.Errorf("[%d:%d] unterminated string literal", startLine, startCol)
}

func runeLen(s string) int {
	_, size := utf8.DecodeRuneInString(s)
	return size
}

func openerFor(closer byte) byte {
	switch closer {
	case '}':
		return '{'
	case ')':
		return '('
	default:
		return '['
	}
}

func checkServices(code string) []error {
	matches := serviceRE.FindAllStringSubmatchIndex(code, -1)
	if len(matches) == 0 {
		return []error{fmt.Errorf("[1:1] missing service declaration")}
	}
	var errs []error
	seen := make(map[string]int)
	for _, m := range matches {
		name := code[m[2]:m[3]]
		line, col := posAt(code, m[0])
		if prev, ok := seen[name]; ok {
			prevLine, prevCol := posAt(code, prev)
			errs = append(errs, fmt.Errorf("[%d:%d] duplicate service declaration %q, first at [%d:%d]",
				line, col, name, prevLine, prevCol))
			continue
		}
		seen[name] = m[0]
	}
	return errs
}

func checkRulesVersion(source, code string, literals []stringLiteral) []error {
	occurrences := rulesVersionRE.FindAllStringIndex(code, -1)
	if len(occurrences) == 0 {
		return nil
	}

	var errs []error
	for _, occ := range occurrences[1:] {
		line, col := posAt(code, occ[0])
		errs = append(errs, fmt.Errorf("[%d:%d] duplicate rules_version statement", line, col))
	}

	first := occurrences[0]
	line, col := posAt(code, first[0])
	if svc := serviceRE.FindStringIndex(code); svc != nil && svc[0] < first[0] {
		errs = append(errs, fmt.Errorf("[%d:%d] rules_version must precede service declarations", line, col))
	}

	assign := versionAssignRE.FindStringSubmatchIndex(code[first[0]:])
	if assign == nil || assign[0] != 0 {
		errs = append(errs, fmt.Errorf("[%d:%d] rules_version must be assigned a quoted string", line, col))
		return errs
	}
	quoteOff := first[0] + assign[2]
	value, ok := literalAt(literals, quoteOff)
	if !ok {
		errs = append(errs, fmt.Errorf("[%d:%d] rules_version must be assigned a quoted string", line, col))
		return errs
	}
	if value != "1" && value != "2" {
		errs = append(errs, fmt.Errorf("[%d:%d] unsupported rules_version %q", line, col, value))
	}
	return errs
}

func literalAt(literals []stringLiteral, off int) (string, bool) {
	for _, lit := range literals {
		if lit.off == off {
			return lit.value, true
		}
	}
	return "", false
}

func posAt(s string, off int) (line, col int) {
	line, col = 1, 1
	for i := 0; i < off && i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == '\n' {
			line++
			col = 1
		} else {
			col++
		}
		i += size
	}
	return line, col
}

func invalidUTF8Index(s string) int {
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return 0
}

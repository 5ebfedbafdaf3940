package diagram

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Verb is a diagram command name.
type Verb string

const (
	VerbAdd       Verb = "add"
	VerbConnect   Verb = "connect"
	VerbDelete    Verb = "delete"
	VerbDeleteAll Verb = "delete-all"
)

// Endpoint is one end of a connect command.
type Endpoint struct {
	X, Y int
	Side string // as written; validated when applied
}

// Command is one parsed diagram command. Vocabulary and range checks happen
// when the command is applied.
type Command struct {
	Verb     Verb
	Raw      string
	NodeType string // add
	X, Y     int    // add, delete
	Label    string // add, optional
	From, To Endpoint
}

func (c Command) String() string {
	return "{" + c.Raw + "}"
}

// ParseError describes a span that is not a well-formed command.
type ParseError struct {
	Raw    string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q: %s", e.Raw, e.Reason)
}

// Result is either a Command or a parse error.
type Result struct {
	Command *Command
	Err     *ParseError
}

// Parse extracts every {...} span from text and parses it. It never fails:
// malformed spans come back as Results carrying an error. A "{" inside an
// open span starts a new span; the text it cuts off is reported as an error.
func Parse(text string) []Result {
	var results []Result
	for _, sp := range spans(text) {
		if sp.cut {
			raw := strings.TrimSpace("{" + sp.body)
			results = append(results, Result{Err: &ParseError{Raw: raw, Reason: "unbalanced braces"}})
			continue
		}
		results = append(results, parseSpan(sp.body))
	}
	return results
}

// ParsePiped parses commands separated by "|", with or without braces.
func ParsePiped(text string) []Result {
	var results []Result
	for _, part := range strings.Split(text, "|") {
		part = strings.TrimSpace(part)
		part = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(part, "{"), "}"))
		if part == "" {
			continue
		}
		if hasBareBrace(part) {
			results = append(results, Result{Err: &ParseError{Raw: part, Reason: "unbalanced braces"}})
			continue
		}
		results = append(results, parseSpan(part))
	}
	return results
}

// Preamble returns the prose before the first closed command span.
func Preamble(text string) string {
	for _, sp := range spans(text) {
		if !sp.cut {
			return strings.TrimSpace(text[:sp.start])
		}
	}
	return strings.TrimSpace(text)
}

type span struct {
	start int // offset of the opening "{"
	body  string
	cut   bool // never closed, or cut off by a later "{"
}

// spans returns the innermost brace spans of text. Braces inside a quoted
// field are part of the field. A quote only opens at the start of a field
// and closes at the matching quote or the end of the line.
func spans(text string) []span {
	var out []span
	open := -1
	var quote rune
	var prev rune // last non-space rune inside the open span
	for i, r := range text {
		if open < 0 {
			if r == '{' {
				open, prev = i, '{'
			}
			continue
		}
		if quote != 0 {
			if r == quote || r == '\n' {
				quote, prev = 0, r
			}
			continue
		}
		switch {
		case r == '{':
			out = append(out, span{start: open, body: text[open+1 : i], cut: true})
			open, prev = i, '{'
		case r == '}':
			out = append(out, span{start: open, body: text[open+1 : i]})
			open = -1
		case (r == '"' || r == '\'') && prev == ',':
			quote = r
		case !unicode.IsSpace(r):
			prev = r
		}
	}
	if open >= 0 {
		out = append(out, span{start: open, body: text[open+1:], cut: true})
	}
	return out
}

// hasBareBrace reports whether s holds a brace outside a quoted field.
func hasBareBrace(s string) bool {
	sps := spans("{" + s + "}")
	return len(sps) != 1 || sps[0].cut || sps[0].body != s
}

func parseSpan(span string) Result {
	raw := strings.TrimSpace(span)
	fail := func(format string, args ...any) Result {
		return Result{Err: &ParseError{Raw: raw, Reason: fmt.Sprintf(format, args...)}}
	}
	rawFields := strings.Split(raw, ",")
	fields := make([]string, len(rawFields))
	copy(fields, rawFields)
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	verb := Verb(strings.ToLower(fields[0]))
	args := fields[1:]
	cmd := Command{Verb: verb, Raw: raw}

	switch verb {
	case VerbDeleteAll:
		if len(args) > 0 && strings.Join(args, "") != "" {
			return fail("delete-all takes no arguments")
		}

	case VerbAdd:
		if len(args) < 3 {
			return fail("add needs <type>,<x>,<y>[,<label>]")
		}
		x, y, err := coords(args[1], args[2])
		if err != nil {
			return fail("%v", err)
		}
		cmd.NodeType = strings.ToLower(args[0])
		cmd.X, cmd.Y = x, y
		if len(args) > 3 {
			cmd.Label = unquote(strings.TrimSpace(strings.Join(rawFields[4:], ",")))
		}

	case VerbConnect:
		if len(args) != 6 {
			return fail("connect needs <x1>,<y1>,<side1>,<x2>,<y2>,<side2>")
		}
		x1, y1, err := coords(args[0], args[1])
		if err != nil {
			return fail("%v", err)
		}
		x2, y2, err := coords(args[3], args[4])
		if err != nil {
			return fail("%v", err)
		}
		cmd.From = Endpoint{X: x1, Y: y1, Side: strings.ToLower(args[2])}
		cmd.To = Endpoint{X: x2, Y: y2, Side: strings.ToLower(args[5])}

	case VerbDelete:
		if len(args) != 2 {
			return fail("delete needs <x>,<y>")
		}
		x, y, err := coords(args[0], args[1])
		if err != nil {
			return fail("%v", err)
		}
		cmd.X, cmd.Y = x, y

	default:
		return fail("unknown command %q", fields[0])
	}
	return Result{Command: &cmd}
}

func coords(xs, ys string) (int, int, error) {
	x, err := strconv.Atoi(xs)
	if err != nil {
		return 0, 0, fmt.Errorf("non-numeric coordinate %q", xs)
	}
	y, err := strconv.Atoi(ys)
	if err != nil {
		return 0, 0, fmt.Errorf("non-numeric coordinate %q", ys)
	}
	return x, y, nil
}

// unquote strips one pair of matching surrounding quotes.
func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return strings.TrimSpace(s[1 : len(s)-1])
		}
	}
	return s
}

package runtime

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/tanema/turffile/src/pack"
)

// refKey marks an identifier inside the json arguments of a statement.
const refKey = "\x00ref"

var identPattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*`)

// Exec runs a single call statement such as pack([[1, 2.5]], ["a"]). Arguments
// are json values or the identifiers require, undefined, _ (the last result)
// and the names of the exports. Incomplete statements return io.ErrUnexpectedEOF.
func (m *Module) Exec(src string) ([]any, error) {
	name, argSrc, err := parseCall(src)
	if err != nil {
		return nil, err
	}

	callee, err := m.lookup(name)
	if err != nil {
		return nil, err
	}
	fn, isFn := callee.(*GoFunc)
	if !isFn {
		return nil, fmt.Errorf("%v: %w", name, notFunctionErr(callee))
	}

	val, err := pack.ParseJSON([]byte("[" + argSrc + "]"))
	if err != nil {
		return nil, fmt.Errorf("invalid arguments to %v: %w", name, err)
	}
	resolved, err := m.resolveRefs(val)
	if err != nil {
		return nil, err
	}

	res, err := m.call(fn, resolved.([]any))
	if err != nil {
		return nil, err
	}
	if len(res) > 0 {
		m.setLastResult(res[0])
	}
	return res, nil
}

// Run executes every statement read from src, writing each result to out.
// Statements may span lines. The first failing statement stops the run.
func (m *Module) Run(src io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	var buf strings.Builder
	for scanner.Scan() {
		buf.WriteString(scanner.Text())
		buf.WriteByte('\n')
		if strings.TrimSpace(buf.String()) == "" {
			buf.Reset()
			continue
		}
		res, err := m.Exec(buf.String())
		if errors.Is(err, io.ErrUnexpectedEOF) {
			continue
		} else if err != nil {
			return err
		}
		buf.Reset()
		if err := printResults(out, res); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	} else if strings.TrimSpace(buf.String()) != "" {
		return fmt.Errorf("unexpected end of input in %q", strings.TrimSpace(buf.String()))
	}
	return nil
}

func printResults(out io.Writer, res []any) error {
	if len(res) == 0 {
		return nil
	}
	strParts := make([]string, len(res))
	for i, val := range res {
		strParts[i] = ToString(val)
	}
	_, err := fmt.Fprintln(out, strings.Join(strParts, "\t"))
	return err
}

func (m *Module) lookup(name string) (any, error) {
	switch name {
	case "require":
		return Require, nil
	case "undefined":
		return nil, nil
	case "_":
		return m.lastResult(), nil
	}
	if fn, found := m.exports[name]; found {
		return fn, nil
	}
	return nil, fmt.Errorf("%v is not defined", name)
}

func (m *Module) resolveRefs(val any) (any, error) {
	switch tval := val.(type) {
	case []any:
		for i, item := range tval {
			resolved, err := m.resolveRefs(item)
			if err != nil {
				return nil, err
			}
			tval[i] = resolved
		}
		return tval, nil
	case map[string]any:
		if name, isRef := tval[refKey].(string); isRef && len(tval) == 1 {
			return m.lookup(name)
		}
		for key, item := range tval {
			resolved, err := m.resolveRefs(item)
			if err != nil {
				return nil, err
			}
			tval[key] = resolved
		}
		return tval, nil
	default:
		return val, nil
	}
}

// parseCall splits a statement into the callee name and its argument list,
// rewriting bare identifiers in the arguments into json reference objects.
func parseCall(src string) (string, string, error) {
	src = strings.TrimSpace(src)
	name := identPattern.FindString(src)
	if name == "" {
		return "", "", fmt.Errorf("expected a call but found %q", src)
	}
	rest := strings.TrimSpace(src[len(name):])
	if rest == "" {
		return "", "", io.ErrUnexpectedEOF
	} else if rest[0] != '(' {
		return "", "", fmt.Errorf("expected '(' after %v", name)
	}

	var out strings.Builder
	depth := 0
	for i := 0; i < len(rest); {
		ch := rest[i]
		switch {
		case ch == '"':
			end := stringEnd(rest, i)
			if end < 0 {
				return "", "", io.ErrUnexpectedEOF
			}
			out.WriteString(rest[i:end])
			i = end
			continue
		case ch == '(' || ch == '[' || ch == '{':
			depth++
		case ch == ')' || ch == ']' || ch == '}':
			depth--
			if depth == 0 {
				if ch != ')' {
					return "", "", fmt.Errorf("unexpected %q in call to %v", ch, name)
				}
				trailing := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(rest[i+1:]), ";"))
				if trailing != "" {
					return "", "", fmt.Errorf("unexpected %q after call to %v", trailing, name)
				}
				return name, out.String()[1:], nil
			}
		case isNumberStart(ch):
			j := i + 1
			for j < len(rest) && strings.IndexByte("0123456789.eE+-", rest[j]) >= 0 {
				j++
			}
			out.WriteString(rest[i:j])
			i = j
			continue
		case identPattern.MatchString(rest[i:]):
			ident := identPattern.FindString(rest[i:])
			switch ident {
			case "true", "false", "null":
				out.WriteString(ident)
			default:
				fmt.Fprintf(&out, `{"\u0000ref":%q}`, ident)
			}
			i += len(ident)
			continue
		}
		out.WriteByte(ch)
		i++
	}
	return "", "", io.ErrUnexpectedEOF
}

func isNumberStart(ch byte) bool {
	return ch == '-' || (ch >= '0' && ch <= '9')
}

// stringEnd returns the index after the closing quote of the string starting at
// start or -1 if the string is not terminated.
func stringEnd(src string, start int) int {
	for i := start + 1; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case '"':
			return i + 1
		}
	}
	return -1
}

// Package render fills {name} placeholders in script and command templates.
//
// The syntax follows the format strings users already write in their configs:
// "{name}" is replaced by the bound value and "{{" / "}}" produce literal braces,
// so shell expansions such as "${{SLURM_JOB_ID}}" survive rendering as
// "${SLURM_JOB_ID}". Every placeholder must be bound; rendering never leaves
// placeholder text in its output.
package render

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrMalformedTemplate indicates an unbalanced or empty brace in a template.
var ErrMalformedTemplate = errors.New("malformed template")

// MissingPlaceholderError lists placeholders that had no binding.
type MissingPlaceholderError struct {
	Names []string
}

func (e *MissingPlaceholderError) Error() string {
	return fmt.Sprintf("missing template bindings: %s", strings.Join(e.Names, ", "))
}

// IsMissingPlaceholder checks if an error is a MissingPlaceholderError
func IsMissingPlaceholder(err error) bool {
	var mp *MissingPlaceholderError
	return errors.As(err, &mp)
}

// Formatter turns bound values into text. Render uses fmt's %v when nil.
type Formatter func(any) string

// Render substitutes bindings into tmpl using %v formatting.
func Render(tmpl string, bindings map[string]any) (string, error) {
	return RenderWith(tmpl, bindings, nil)
}

// RenderWith substitutes bindings into tmpl, formatting values with format.
func RenderWith(tmpl string, bindings map[string]any, format Formatter) (string, error) {
	if format == nil {
		format = func(v any) string { return fmt.Sprintf("%v", v) }
	}

	tokens, err := scan(tmpl)
	if err != nil {
		return "", err
	}

	var missing []string
	var sb strings.Builder
	for _, tok := range tokens {
		if !tok.placeholder {
			sb.WriteString(tok.text)
			continue
		}
		v, ok := bindings[tok.text]
		if !ok {
			missing = append(missing, tok.text)
			continue
		}
		sb.WriteString(format(v))
	}

	if len(missing) > 0 {
		return "", &MissingPlaceholderError{Names: uniqueSorted(missing)}
	}
	return sb.String(), nil
}

// Placeholders returns the sorted set of placeholder names declared by tmpl.
func Placeholders(tmpl string) ([]string, error) {
	tokens, err := scan(tmpl)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, tok := range tokens {
		if tok.placeholder {
			names = append(names, tok.text)
		}
	}
	return uniqueSorted(names), nil
}

type token struct {
	text        string
	placeholder bool
}

func scan(tmpl string) ([]token, error) {
	var tokens []token
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			tokens = append(tokens, token{text: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		switch c {
		case '{':
			if i+1 < len(tmpl) && tmpl[i+1] == '{' {
				lit.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexAny(tmpl[i+1:], "{}")
			if end < 0 || tmpl[i+1+end] != '}' {
				return nil, fmt.Errorf("%w: unclosed '{' at offset %d", ErrMalformedTemplate, i)
			}
			name := strings.TrimSpace(tmpl[i+1 : i+1+end])
			if name == "" {
				return nil, fmt.Errorf("%w: empty placeholder at offset %d", ErrMalformedTemplate, i)
			}
			flush()
			tokens = append(tokens, token{text: name, placeholder: true})
			i += end + 1
		case '}':
			if i+1 < len(tmpl) && tmpl[i+1] == '}' {
				lit.WriteByte('}')
				i++
				continue
			}
			return nil, fmt.Errorf("%w: single '}' at offset %d", ErrMalformedTemplate, i)
		default:
			lit.WriteByte(c)
		}
	}
	flush()
	return tokens, nil
}

func uniqueSorted(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

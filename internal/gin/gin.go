// Package gin reads gin-style binding files ("Configurable.param = value") into
// a registry that can be queried by parameter name.
package gin

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ezeeEric/batchbuddha/internal/utils"
)

// ErrSyntax indicates a statement the parser does not understand.
var ErrSyntax = errors.New("gin syntax error")

// trailingComma matches the Python-style comma before a closing bracket.
var trailingComma = regexp.MustCompile(`,\s*([\]}])`)

// maxIncludeDepth bounds nested include statements.
const maxIncludeDepth = 16

// Registry holds parsed gin bindings. Later bindings of the same name override
// earlier ones.
type Registry struct {
	values map[string]any
	order  []string
	files  []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{values: make(map[string]any)}
}

// Query returns the value bound to name.
func (r *Registry) Query(name string) (any, bool) {
	if r == nil {
		return nil, false
	}
	v, ok := r.values[name]
	return v, ok
}

// Names returns bound parameter names in first-binding order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Files returns every file parsed so far, in parse order.
func (r *Registry) Files() []string {
	return append([]string(nil), r.files...)
}

// Bind sets name to value.
func (r *Registry) Bind(name string, value any) {
	if _, ok := r.values[name]; !ok {
		r.order = append(r.order, name)
	}
	r.values[name] = value
}

// ParseFile parses a gin file. Relative include paths resolve against the
// including file's directory.
func (r *Registry) ParseFile(path string) error {
	return r.parseFile(path, 0)
}

func (r *Registry) parseFile(path string, depth int) error {
	if depth > maxIncludeDepth {
		return fmt.Errorf("%w: include depth exceeds %d at %s", ErrSyntax, maxIncludeDepth, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open gin file: %w", err)
	}
	defer f.Close()

	utils.PrintDebug("Parsing gin file %s", utils.StylePath(path))
	r.files = append(r.files, path)
	return r.parse(f, path, depth)
}

// Parse reads gin statements from rd. name is used in error messages and as
// the base for relative includes.
func (r *Registry) Parse(rd io.Reader, name string) error {
	return r.parse(rd, name, 0)
}

// ParseBinding parses a single "name = value" statement, as given on the command line.
func (r *Registry) ParseBinding(binding string) error {
	return r.Parse(strings.NewReader(binding), "<binding>")
}

func (r *Registry) parse(rd io.Reader, name string, depth int) error {
	scanner := bufio.NewScanner(rd)
	var stmt strings.Builder
	startLine := 0
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := stripComment(scanner.Text())
		if strings.TrimSpace(line) == "" && stmt.Len() == 0 {
			continue
		}
		if stmt.Len() == 0 {
			startLine = lineNo
		} else {
			stmt.WriteString(" ")
		}
		stmt.WriteString(strings.TrimSpace(line))

		if !balanced(stmt.String()) {
			continue
		}
		if err := r.statement(stmt.String(), name, startLine, depth); err != nil {
			return err
		}
		stmt.Reset()
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading %s: %w", name, err)
	}
	if stmt.Len() > 0 {
		return fmt.Errorf("%w: %s:%d: unterminated value", ErrSyntax, name, startLine)
	}
	return nil
}

func (r *Registry) statement(stmt, name string, line, depth int) error {
	switch {
	case strings.HasPrefix(stmt, "import "):
		// module imports only matter to the Python side
		return nil
	case strings.HasPrefix(stmt, "include "):
		target := unquote(strings.TrimSpace(strings.TrimPrefix(stmt, "include ")))
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(name), target)
		}
		return r.parseFile(target, depth+1)
	}

	key, raw, ok := strings.Cut(stmt, "=")
	key = strings.TrimSpace(key)
	raw = strings.TrimSpace(raw)
	if !ok || key == "" || raw == "" || strings.ContainsAny(key, " \t") {
		return fmt.Errorf("%w: %s:%d: %q", ErrSyntax, name, line, stmt)
	}

	r.Bind(key, parseValue(raw))
	return nil
}

// parseValue decodes a gin literal. Lists, numbers, booleans and quoted strings
// go through the YAML flow decoder; references (@fn, %MACRO) and anything YAML
// rejects are kept verbatim.
func parseValue(raw string) any {
	if strings.HasPrefix(raw, "@") || strings.HasPrefix(raw, "%") {
		return raw
	}
	var v any
	if err := yaml.Unmarshal([]byte(trailingComma.ReplaceAllString(raw, "$1")), &v); err != nil || v == nil {
		return raw
	}
	return v
}

// stripComment drops a trailing # comment that is not inside quotes.
func stripComment(line string) string {
	var quote rune
	for i, c := range line {
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '#':
			return line[:i]
		}
	}
	return line
}

// balanced reports whether all brackets outside quotes are closed.
func balanced(s string) bool {
	depth := 0
	var quote rune
	for _, c := range s {
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '[' || c == '(' || c == '{':
			depth++
		case c == ']' || c == ')' || c == '}':
			depth--
		}
	}
	return depth <= 0 && quote == 0
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

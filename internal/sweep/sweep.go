// Package sweep expands a set of swept parameters into one job per combination
// of candidate values and derives a stable identity for each job.
package sweep

import (
	"reflect"
	"strings"

	"github.com/ezeeEric/batchbuddha/internal/utils"
)

// Namespace is a secondary parameter registry (gin bindings) queried by name.
// ok is false when the name is not defined in the namespace.
type Namespace interface {
	Query(name string) (value any, ok bool)
}

// Binding pairs a parameter name with one of its candidate values.
type Binding struct {
	Name  string
	Value any
}

// String renders the binding as a key=value fragment.
func (b Binding) String() string {
	return b.Name + "=" + FormatValue(b.Value)
}

// Pair is one (key, value) entry of the flat standard configuration.
type Pair struct {
	Key   string
	Value any
}

// ParameterSet maps each swept parameter name to its ordered candidate bindings.
// Names keeps insertion order, which is the enumeration order of the product.
type ParameterSet struct {
	names  []string
	values map[string][]Binding
	ns     Namespace
}

// NewParameterSet returns an empty set whose bindings are classified against ns.
// A nil ns behaves like an empty namespace.
func NewParameterSet(ns Namespace) *ParameterSet {
	if ns == nil {
		ns = emptyNamespace{}
	}
	return &ParameterSet{
		values: make(map[string][]Binding),
		ns:     ns,
	}
}

// AddBindings appends bindings under name, registering name on first use.
func (ps *ParameterSet) AddBindings(name string, bindings ...Binding) {
	if _, ok := ps.values[name]; !ok {
		ps.names = append(ps.names, name)
	}
	ps.values[name] = append(ps.values[name], bindings...)
}

// Add appends one binding per value under name.
func (ps *ParameterSet) Add(name string, values ...any) {
	bindings := make([]Binding, 0, len(values))
	for _, v := range values {
		bindings = append(bindings, Binding{Name: name, Value: v})
	}
	ps.AddBindings(name, bindings...)
}

// Names returns the swept parameter names in enumeration order.
func (ps *ParameterSet) Names() []string {
	return append([]string(nil), ps.names...)
}

// Values returns the candidate bindings for name.
func (ps *ParameterSet) Values(name string) []Binding {
	return append([]Binding(nil), ps.values[name]...)
}

// Len returns the number of swept parameters.
func (ps *ParameterSet) Len() int { return len(ps.names) }

// Count returns the number of jobs the set expands to.
func (ps *ParameterSet) Count() int {
	n := 1
	for _, name := range ps.names {
		n *= len(ps.values[name])
	}
	return n
}

// BuildParameterSet resolves each loopable name, first in the secondary namespace
// and then in the standard configuration pairs. Only list-valued parameters are
// swept; anything else is skipped with a log message.
//
// A name defined in the namespace is never looked up in pairs, even when its
// namespace value is not a list. Repeated names are swept once.
func BuildParameterSet(loopableNames []string, ns Namespace, pairs []Pair) *ParameterSet {
	ps := NewParameterSet(ns)
	seen := make(map[string]bool, len(loopableNames))

	for _, name := range loopableNames {
		if seen[name] {
			utils.PrintWarning("%s is listed more than once, sweeping it once", utils.StyleName(name))
			continue
		}
		seen[name] = true

		if val, ok := ps.ns.Query(name); ok {
			items, isList := listItems(val)
			if !isList {
				utils.PrintMessage("Skipping %s: gin parameter is not a list (%v)", utils.StyleName(name), val)
				continue
			}
			ps.Add(name, items...)
			continue
		}

		found := false
		for _, pair := range pairs {
			if !strings.EqualFold(pair.Key, name) {
				continue
			}
			items, isList := listItems(pair.Value)
			if !isList {
				continue
			}
			utils.PrintDebug("%s is a standard config entry", name)
			ps.Add(name, items...)
			found = true
		}
		if !found {
			utils.PrintMessage("Skipping %s: not a list-valued entry in gin or standard config", utils.StyleName(name))
		}
	}

	utils.PrintDebug("Created parameter set: %s", ps)
	return ps
}

// String lists the set as name=[v1 v2] entries.
func (ps *ParameterSet) String() string {
	var sb strings.Builder
	sb.WriteString("{")
	for i, name := range ps.names {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(name)
		sb.WriteString("=[")
		for j, b := range ps.values[name] {
			if j > 0 {
				sb.WriteString(" ")
			}
			sb.WriteString(FormatValue(b.Value))
		}
		sb.WriteString("]")
	}
	sb.WriteString("}")
	return sb.String()
}

// NormalizeNames turns the loopableConfigEntries setting into a list of names.
// It accepts a comma-separated string or a list.
func NormalizeNames(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		return utils.SplitList(t)
	case []string:
		var out []string
		for _, s := range t {
			out = append(out, utils.SplitList(s)...)
		}
		return out
	}
	if items, ok := listItems(v); ok {
		var out []string
		for _, item := range items {
			out = append(out, utils.SplitList(FormatValue(item))...)
		}
		return out
	}
	return utils.SplitList(FormatValue(v))
}

// listItems returns the elements of v if v is a slice or array (strings excluded).
func listItems(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	if items, ok := v.([]any); ok {
		return items, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		// []byte is a scalar blob, not a list of candidates
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

type emptyNamespace struct{}

func (emptyNamespace) Query(string) (any, bool) { return nil, false }

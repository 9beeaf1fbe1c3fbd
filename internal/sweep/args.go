package sweep

import (
	"fmt"
	"strings"
)

// ParseArgs recovers name→value bindings from a job's rendered flags, split
// into shell words. The gin flag consumes key=value words until the next
// "--" flag. Values containing whitespace do not survive the round trip.
func ParseArgs(tokens []string) (map[string]string, error) {
	out := make(map[string]string)

	for i := 0; i < len(tokens); {
		name, ok := strings.CutPrefix(tokens[i], "--")
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: unexpected token %q", ErrMalformedArgs, tokens[i])
		}
		i++

		if name == GinFlag {
			n := 0
			for ; i < len(tokens) && !strings.HasPrefix(tokens[i], "--"); i++ {
				k, v, ok := strings.Cut(tokens[i], "=")
				if !ok || k == "" {
					return nil, fmt.Errorf("%w: gin binding %q is not key=value", ErrMalformedArgs, tokens[i])
				}
				out[k] = v
				n++
			}
			if n == 0 {
				return nil, fmt.Errorf("%w: --%s without bindings", ErrMalformedArgs, GinFlag)
			}
			continue
		}

		if i >= len(tokens) {
			return nil, fmt.Errorf("%w: --%s has no value", ErrMalformedArgs, name)
		}
		out[name] = tokens[i]
		i++
	}

	return out, nil
}

// BindingMap returns the job's bindings as name→rendered value.
func (j *JobSpec) BindingMap() map[string]string {
	out := make(map[string]string, len(j.Bindings))
	for _, b := range j.Bindings {
		out[b.Name] = FormatValue(b.Value)
	}
	return out
}

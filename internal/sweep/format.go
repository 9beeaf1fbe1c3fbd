package sweep

import (
	"fmt"
	"math"
	"strconv"
)

// FormatValue renders a candidate value the way it is written into flags,
// job IDs and gin bindings. Integral floats keep a trailing ".0" so that a
// sweep over [0.5, 1.0] produces "0.5" and "1.0". Bools and nil use the gin
// literals True, False and None.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "None"
	case string:
		return t
	case bool:
		// gin only parses the capitalized literals
		if t {
			return "True"
		}
		return "False"
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float32:
		return formatFloat(float64(t), 32)
	case float64:
		return formatFloat(t, 64)
	case fmt.Stringer:
		return t.String()
	}
	return fmt.Sprintf("%v", v)
}

func formatFloat(f float64, bitSize int) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e16 {
		return strconv.FormatFloat(f, 'f', 1, bitSize)
	}
	return strconv.FormatFloat(f, 'g', -1, bitSize)
}

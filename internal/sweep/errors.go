package sweep

import (
	"errors"
	"fmt"
)

// ErrMalformedArgs indicates a flag list that ParseArgs cannot decompose.
var ErrMalformedArgs = errors.New("malformed job arguments")

// MalformedCombinationError reports a combination element that does not
// decompose into the expected name and value. It points at a bug in how the
// parameter set was built and aborts job generation.
type MalformedCombinationError struct {
	Index    int     // job index within the expansion
	Position int     // parameter position within the combination
	Key      string  // parameter set key at Position
	Binding  Binding // offending binding
}

func (e *MalformedCombinationError) Error() string {
	return fmt.Sprintf("malformed combination for job %d: element %d under %q has name %q",
		e.Index, e.Position, e.Key, e.Binding.Name)
}

// IsMalformedCombination checks if an error is a MalformedCombinationError
func IsMalformedCombination(err error) bool {
	var me *MalformedCombinationError
	return errors.As(err, &me)
}

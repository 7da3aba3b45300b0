package bus

import (
	"fmt"

	"github.com/plasmavault/fusebus/word"
)

// ReadError reports a read past the end of a sequence (or from a
// sequence that was never written).
type ReadError struct {
	Addr  word.Address
	Dir   Direction
	Index int
	Len   int
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("bus: no value at %s/%s[%d] (len %d)", e.Addr, e.Dir, e.Index, e.Len)
}

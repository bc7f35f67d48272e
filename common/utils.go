package common

import "fmt"

// Assert panics with a formatted message if cond is false. It documents an
// invariant the engine relies on internally, as opposed to an error
// condition a caller might reasonably trigger (which should be returned as
// a DBError instead).
func Assert(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf(format, args...))
	}
}

package nodule

import "fmt"

// Assert panics with a formatted message when cond is false. Reserved
// for invariants that can never legitimately fail in a correct program
// (P1-P5); conditions a caller can trigger (missing key, I/O failure)
// are returned as errors instead. Grounded on common.Assert
// (iotaledger-trie.go/common/util.go).
func Assert(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(fmt.Sprintf(format, args...))
	}
}

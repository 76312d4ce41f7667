package nodule

import "io"

// KeyCodec serializes and sizes a node's key type. It plays the role
// the teacher's CommitmentModel plays for commitments (common/model.go):
// an abstraction the generic tree logic depends on, with one or more
// concrete implementations supplied by the caller. K is fixed by the
// tree's configured value schema (spec.md: "K = V::K").
type KeyCodec[K any] interface {
	WriteKey(w io.Writer, k K) error
	ReadKey(r io.Reader) (K, error)
	// SizeKey returns the encoded size of k, used for footprint
	// accounting without re-running WriteKey through a counting writer
	// on every insert.
	SizeKey(k K) int
	// Less reports whether a orders before b.
	Less(a, b K) bool
}

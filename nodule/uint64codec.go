package nodule

import "io"

import "github.com/infinit-contrib/proton/wire"

// Uint64Codec is the default KeyCodec, used throughout the test suite
// and by protonctl's demo tree. The scenario suite in spec.md section 8
// uses u32 keys; Uint64Codec is the natural Go-idiomatic superset.
type Uint64Codec struct{}

var _ KeyCodec[uint64] = Uint64Codec{}

func (Uint64Codec) WriteKey(w io.Writer, k uint64) error {
	return wire.WriteUint64(w, k)
}

func (Uint64Codec) ReadKey(r io.Reader) (uint64, error) {
	var v uint64
	if err := wire.ReadUint64(r, &v); err != nil {
		return 0, err
	}
	return v, nil
}

func (Uint64Codec) SizeKey(uint64) int { return 8 }

func (Uint64Codec) Less(a, b uint64) bool { return a < b }

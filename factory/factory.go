// Package factory maps wire components to concrete node constructors
// and computes the footprint calibration (extent/sparse thresholds)
// that drives split and merge decisions elsewhere in the tree.
//
// Grounded on the teacher's model-selection pattern (iotaledger-trie.go
// models/trie_blake2b, models/trie_kzg_bn256: a small fixed set of
// concrete implementations chosen by a constant, not a runtime
// registry) and on hole::Hole::Descriptor.{extent,contention} from
// original_source/XXX/Seam.hxx, which drives Split's target size.
package factory

import (
	"io"

	"golang.org/x/xerrors"

	"github.com/infinit-contrib/proton/nodule"
	"github.com/infinit-contrib/proton/quill"
	"github.com/infinit-contrib/proton/seam"
	"github.com/infinit-contrib/proton/wire"
)

// Calibration holds the size thresholds that govern when a node must
// split (Footprint > Extent) or is eligible to merge with a sibling
// (Footprint < Sparse).
type Calibration struct {
	Extent int
	Sparse int
}

// Calibrate derives a Calibration for keys of type K from a target
// block extent and a contention ratio (0, 1]: sparse is the footprint
// below which a node is considered under-filled and a merge candidate,
// mirroring hole::Hole::Descriptor.contention used by Seam::Split to
// size the left half after a split.
func Calibrate[K any](codec nodule.KeyCodec[K], extent int, contention float64) (Calibration, error) {
	if extent <= 0 {
		return Calibration{}, xerrors.New("factory: extent must be positive")
	}
	if contention <= 0 || contention > 1 {
		return Calibration{}, xerrors.New("factory: contention must be in (0, 1]")
	}
	return Calibration{
		Extent: extent,
		Sparse: int(float64(extent) * contention / 2),
	}, nil
}

// Decode reads a framed node payload (already opened/verified by
// package address) and constructs the concrete Seam or Quill it
// encodes, based on the wire header's Component field.
func Decode[K any](hdr wire.Header, payload []byte, codec nodule.KeyCodec[K]) (nodule.Nodule[K], error) {
	r := byteReader(payload)
	switch hdr.Component {
	case wire.ComponentSeam:
		return seam.Decode[K](r, codec)
	case wire.ComponentQuill:
		return quill.Decode[K](r, codec)
	default:
		return nil, xerrors.Errorf("factory: decode: %w: unknown component %d", nodule.ErrSchemaMismatch, hdr.Component)
	}
}

// Component returns the wire component a node's canonical serialization
// carries.
func Component[K any](n nodule.Nodule[K]) wire.Component {
	if n.Kind() == nodule.KindSeam {
		return wire.ComponentSeam
	}
	return wire.ComponentQuill
}

func byteReader(b []byte) io.Reader {
	return &sliceReader{b: b}
}

type sliceReader struct {
	b []byte
	i int
}

func (s *sliceReader) Read(p []byte) (int, error) {
	if s.i >= len(s.b) {
		return 0, io.EOF
	}
	n := copy(p, s.b[s.i:])
	s.i += n
	return n, nil
}

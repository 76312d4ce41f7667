// Package wire implements the canonical binary framing shared by every
// block the tree writes: a fixed header followed by the node's
// length-prefixed payload. See spec.md section 6, "External interfaces".
package wire

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
)

// Magic identifies a Proton block. It is the first four bytes of every
// encrypted block written to the store.
var Magic = [4]byte{'P', 'R', 'O', 'T'}

const Version = 1

// Family distinguishes block classes; Component distinguishes the
// schema within a family (spec.md section 6).
type Family uint16

const (
	FamilyContentHash Family = iota + 1
)

type Component uint16

const (
	ComponentSeam Component = iota + 1
	ComponentQuill
	// ComponentValue frames an opaque leaf payload stored by a caller of
	// the tree (protonctl put/get) rather than a Seam or Quill.
	ComponentValue
)

// Header is the fixed preamble written ahead of every block's payload.
type Header struct {
	Family    Family
	Component Component
}

var ErrTruncated = errors.New("wire: truncated block")

// WriteFramed writes magic|version|family|component|payload_len|payload.
func WriteFramed(w io.Writer, hdr Header, payload []byte) error {
	if len(payload) > math.MaxUint32 {
		panic("wire: payload too large")
	}
	if _, err := w.Write(Magic[:]); err != nil {
		return err
	}
	if err := WriteByte(w, Version); err != nil {
		return err
	}
	if err := WriteUint16(w, uint16(hdr.Family)); err != nil {
		return err
	}
	if err := WriteUint16(w, uint16(hdr.Component)); err != nil {
		return err
	}
	if err := WriteUint32(w, uint32(len(payload))); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// ReadFramed reverses WriteFramed, returning the header and payload.
func ReadFramed(r io.Reader) (Header, []byte, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return Header{}, nil, ErrTruncated
	}
	if magic != Magic {
		return Header{}, nil, errors.New("wire: bad magic")
	}
	version, err := ReadByte(r)
	if err != nil {
		return Header{}, nil, ErrTruncated
	}
	if version != Version {
		return Header{}, nil, errors.New("wire: unsupported version")
	}
	var family, component uint16
	if err := ReadUint16(r, &family); err != nil {
		return Header{}, nil, ErrTruncated
	}
	if err := ReadUint16(r, &component); err != nil {
		return Header{}, nil, ErrTruncated
	}
	var payloadLen uint32
	if err := ReadUint32(r, &payloadLen); err != nil {
		return Header{}, nil, ErrTruncated
	}
	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Header{}, nil, ErrTruncated
	}
	return Header{Family: Family(family), Component: Component(component)}, payload, nil
}

// ---------------------------------------------------------------------------
// canonical read/write primitives used by node bodies (parent handle,
// state, footprint, ascending-key inlet list).

func ReadByte(r io.Reader) (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func WriteByte(w io.Writer, val byte) error {
	_, err := w.Write([]byte{val})
	return err
}

func ReadUint16(r io.Reader, pval *uint16) error {
	var tmp [2]byte
	if _, err := io.ReadFull(r, tmp[:]); err != nil {
		return err
	}
	*pval = binary.BigEndian.Uint16(tmp[:])
	return nil
}

func WriteUint16(w io.Writer, val uint16) error {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], val)
	_, err := w.Write(tmp[:])
	return err
}

func ReadUint32(r io.Reader, pval *uint32) error {
	var tmp [4]byte
	if _, err := io.ReadFull(r, tmp[:]); err != nil {
		return err
	}
	*pval = binary.BigEndian.Uint32(tmp[:])
	return nil
}

func WriteUint32(w io.Writer, val uint32) error {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], val)
	_, err := w.Write(tmp[:])
	return err
}

func ReadUint64(r io.Reader, pval *uint64) error {
	var tmp [8]byte
	if _, err := io.ReadFull(r, tmp[:]); err != nil {
		return err
	}
	*pval = binary.BigEndian.Uint64(tmp[:])
	return nil
}

func WriteUint64(w io.Writer, val uint64) error {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], val)
	_, err := w.Write(tmp[:])
	return err
}

func ReadBytes32(r io.Reader) ([]byte, error) {
	var length uint32
	if err := ReadUint32(r, &length); err != nil {
		return nil, err
	}
	if length == 0 {
		return []byte{}, nil
	}
	ret := make([]byte, length)
	if _, err := io.ReadFull(r, ret); err != nil {
		return nil, err
	}
	return ret, nil
}

func WriteBytes32(w io.Writer, data []byte) error {
	if len(data) > math.MaxUint32 {
		panic("wire: data too large for 32-bit length prefix")
	}
	if err := WriteUint32(w, uint32(len(data))); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}

// sizeCounter is an io.Writer that only counts bytes written; it backs
// footprint calibration (factory.Calibrate) the same way the teacher's
// byteCounter backs common.MustSize.
type sizeCounter int

func (c *sizeCounter) Write(p []byte) (int, error) {
	*c += sizeCounter(len(p))
	return len(p), nil
}

// Size runs w's canonical encoder against a counting writer and returns
// the resulting byte count without allocating the encoded bytes.
func Size(encode func(io.Writer) error) (int, error) {
	var c sizeCounter
	if err := encode(&c); err != nil {
		return 0, err
	}
	return int(c), nil
}

// MustSize is Size but panics on error, for use at calibration time
// where the encoder of an empty node cannot fail.
func MustSize(encode func(io.Writer) error) int {
	n, err := Size(encode)
	if err != nil {
		panic(err)
	}
	return n
}

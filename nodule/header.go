package nodule

import (
	"io"

	"golang.org/x/xerrors"

	"github.com/infinit-contrib/proton/wire"
)

// EncodeHeader writes the common node header shared by Seam and Quill:
// parent_handle | state | footprint.size (spec.md section 6).
func EncodeHeader(w io.Writer, parent Handle, state State, footprint int) error {
	if err := wire.WriteBytes32(w, parent.Addr[:]); err != nil {
		return err
	}
	if err := wire.WriteBytes32(w, parent.Secret[:]); err != nil {
		return err
	}
	if err := wire.WriteByte(w, byte(state)); err != nil {
		return err
	}
	return wire.WriteUint32(w, uint32(footprint))
}

// DecodeHeader reverses EncodeHeader. A decoded node is always
// Consistent regardless of the state byte on disk: a block freshly
// read from the store, by definition, agrees with its own address.
func DecodeHeader(r io.Reader) (parent Handle, footprint int, err error) {
	addrBytes, err := wire.ReadBytes32(r)
	if err != nil {
		return Handle{}, 0, err
	}
	if len(addrBytes) != len(parent.Addr) {
		return Handle{}, 0, xerrors.New("nodule: malformed parent address")
	}
	copy(parent.Addr[:], addrBytes)

	secretBytes, err := wire.ReadBytes32(r)
	if err != nil {
		return Handle{}, 0, err
	}
	if len(secretBytes) != len(parent.Secret) {
		return Handle{}, 0, xerrors.New("nodule: malformed parent secret")
	}
	copy(parent.Secret[:], secretBytes)

	if _, err := wire.ReadByte(r); err != nil {
		return Handle{}, 0, err
	}
	var fp uint32
	if err := wire.ReadUint32(r, &fp); err != nil {
		return Handle{}, 0, err
	}
	return parent, int(fp), nil
}

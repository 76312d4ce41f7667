// Package address computes and verifies the content-hash address of a
// block: Address = H(network_id ‖ family ‖ component ‖ ciphertext).
// Grounded on nucleus/proton/ContentHashBlock.cc (original_source):
// "the address of a CHB becomes hash(content) which happens to be
// hash(network, family, component, ...)".
package address

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/xerrors"

	"github.com/infinit-contrib/proton/crypto"
	"github.com/infinit-contrib/proton/wire"
)

// Address is the content hash of an encrypted block. It changes
// whenever the node's bytes change (spec.md section 3).
type Address [sha256.Size]byte

// Null is the distinguished empty address, used by a Null Handle.
var Null Address

func (a Address) IsNull() bool { return a == Null }

func (a Address) String() string { return hex.EncodeToString(a[:]) }

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	b, err := hex.DecodeString(string(text))
	if err != nil {
		return xerrors.Errorf("address: decoding hex: %w", err)
	}
	if len(b) != len(a) {
		return xerrors.Errorf("address: expected %d bytes, got %d", len(a), len(b))
	}
	copy(a[:], b)
	return nil
}

var (
	ErrCorruptBlock   = xerrors.New("address: corrupt block")
	ErrSchemaMismatch = xerrors.New("address: schema mismatch")
)

// compute derives the content address of a framed, already-encrypted
// block exactly as ContentHashBlock::Bind does: hash the network id,
// family, component and ciphertext together, never the header framing
// bytes themselves, so re-framing (e.g. a version bump) does not change
// identity.
func compute(networkID []byte, hdr wire.Header, ciphertext []byte) Address {
	h := sha256.New()
	h.Write(networkID)
	_ = wire.WriteUint16(h, uint16(hdr.Family))
	_ = wire.WriteUint16(h, uint16(hdr.Component))
	h.Write(ciphertext)
	var addr Address
	copy(addr[:], h.Sum(nil))
	return addr
}

// Encode seals canonical under secret, frames it with hdr, and returns
// the bytes to store plus the resulting content address.
func Encode(networkID []byte, hdr wire.Header, secret crypto.Secret, canonical []byte) (framed []byte, addr Address, err error) {
	ciphertext, err := crypto.Seal(secret, canonical)
	if err != nil {
		return nil, Address{}, xerrors.Errorf("address: sealing block: %w", err)
	}
	addr = compute(networkID, hdr, ciphertext)

	var buf bytes.Buffer
	if err := wire.WriteFramed(&buf, hdr, ciphertext); err != nil {
		return nil, Address{}, xerrors.Errorf("address: framing block: %w", err)
	}
	return buf.Bytes(), addr, nil
}

// Verify recomputes the address of a framed block and compares it to
// addr, without decrypting. Used by a standalone scrub pass.
func Verify(networkID []byte, addr Address, framed []byte) error {
	hdr, ciphertext, err := splitFramed(framed)
	if err != nil {
		return err
	}
	if compute(networkID, hdr, ciphertext) != addr {
		return xerrors.Errorf("address: %w: hash mismatch", ErrCorruptBlock)
	}
	return nil
}

// Open verifies and decrypts a framed block, returning its header and
// canonical payload.
func Open(networkID []byte, addr Address, secret crypto.Secret, framed []byte) (wire.Header, []byte, error) {
	hdr, ciphertext, err := splitFramed(framed)
	if err != nil {
		return wire.Header{}, nil, err
	}
	if compute(networkID, hdr, ciphertext) != addr {
		return wire.Header{}, nil, xerrors.Errorf("address: %w: hash mismatch", ErrCorruptBlock)
	}
	canonical, err := crypto.Open(secret, ciphertext)
	if err != nil {
		return wire.Header{}, nil, xerrors.Errorf("address: %w: %v", ErrCorruptBlock, err)
	}
	return hdr, canonical, nil
}

func splitFramed(framed []byte) (wire.Header, []byte, error) {
	hdr, ciphertext, err := wire.ReadFramed(bytes.NewReader(framed))
	if err != nil {
		return wire.Header{}, nil, xerrors.Errorf("address: %w: %v", ErrCorruptBlock, err)
	}
	return hdr, ciphertext, nil
}

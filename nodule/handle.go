package nodule

import "github.com/infinit-contrib/proton/address"
import "github.com/infinit-contrib/proton/crypto"

// Handle is an opaque reference to a stored block: a content address
// plus the symmetric secret needed to decrypt it (spec.md section 3).
// The zero value is the distinguished Null handle. Two handles are
// equal iff their addresses and secrets are equal, which falls out of
// Handle being a plain comparable struct.
type Handle struct {
	Addr   address.Address
	Secret crypto.Secret
}

// Null is the distinguished empty handle — a seam's parent link at the
// root, or an unset inlet value.
var Null Handle

func (h Handle) IsNull() bool { return h == Null }

// Rebind returns a copy of h pointing at a new address, used when
// Ambit writes back a dirty node under a new content hash and the
// parent inlet must be updated to reference it (spec.md section 4.3).
func (h Handle) Rebind(addr address.Address) Handle {
	h.Addr = addr
	return h
}

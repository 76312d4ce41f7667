package nodule

import "io"

import "github.com/infinit-contrib/proton/wire"

// EncodeInlet writes one inlet: key | value.addr | value.secret. Shared
// by Seam and Quill so both node kinds serialize inlets identically
// (spec.md section 6).
func EncodeInlet[K any](w io.Writer, codec KeyCodec[K], in Inlet[K]) error {
	if err := codec.WriteKey(w, in.Key); err != nil {
		return err
	}
	if err := wire.WriteBytes32(w, in.Value.Addr[:]); err != nil {
		return err
	}
	return wire.WriteBytes32(w, in.Value.Secret[:])
}

// DecodeInlet reverses EncodeInlet, recomputing the inlet's footprint
// rather than trusting a value carried on the wire.
func DecodeInlet[K any](r io.Reader, codec KeyCodec[K]) (Inlet[K], error) {
	var in Inlet[K]
	key, err := codec.ReadKey(r)
	if err != nil {
		return in, err
	}
	addrBytes, err := wire.ReadBytes32(r)
	if err != nil {
		return in, err
	}
	var handle Handle
	copy(handle.Addr[:], addrBytes)

	secretBytes, err := wire.ReadBytes32(r)
	if err != nil {
		return in, err
	}
	copy(handle.Secret[:], secretBytes)

	in.Key = key
	in.Value = handle
	in.Footprint = InletFootprint(codec, key)
	return in, nil
}

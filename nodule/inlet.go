package nodule

// Inlet is one entry inside a node: a key, the child or value handle
// it routes to, and the estimated serialized footprint of that entry
// (spec.md section 3). An inlet is owned exclusively by the node that
// contains it.
type Inlet[K any] struct {
	Key       K
	Value     Handle
	Footprint int
}

// InletFootprint computes the serialized size of one inlet: its key
// plus its handle (address + secret), matching the node canonical
// serialization in spec.md section 6 ("key | value_handle |
// inlet_footprint").
func InletFootprint[K any](codec KeyCodec[K], key K) int {
	const handleSize = len(Handle{}.Addr) + len(Handle{}.Secret)
	return codec.SizeKey(key) + handleSize
}

package x12

// newByteSetRange returns the set of all bytes
// in [x0, x1] inclusive.
func newByteSetRange(x0, x1 uint8) *byteSet {
	var set byteSet
	for x := x0; x >= x0 && x <= x1; x++ {
		set.set(x)
	}
	return &set
}

type byteSet [4]uint64

// get reports whether b holds the byte x.
func (b *byteSet) get(x uint8) bool {
	return b[x>>6]&(1<<(x&63)) != 0
}

// set ensures that x is in the set.
func (b *byteSet) set(x uint8) {
	b[x>>6] |= 1 << (x & 63)
}

// union returns the union of b and b1.
func (b *byteSet) union(b1 *byteSet) *byteSet {
	r := *b
	for i := range r {
		r[i] |= b1[i]
	}
	return &r
}

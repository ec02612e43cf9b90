package x12

import (
	"fmt"
	"io"
)

const (
	// When the buffer is grown, it will be grown by a minimum of 8K.
	minGrow = 8192
	// The buffer will be grown if there's less than minRead space available
	// to read into.
	minRead = minGrow / 2

	// defaultFieldsPerSeg is the initial capacity of a segment's field
	// list. Most real segments carry far fewer elements; ISA carries 17.
	defaultFieldsPerSeg = 32
)

// scanState is the tokenizer's mode between two consumed bytes.
type scanState byte

const (
	// scanInField: ordinary data bytes accumulate into the current field.
	scanInField scanState = iota
	// scanInSegTerm: a segment-delimiter byte has been seen; trailing
	// terminator bytes are absorbed until a segment-starter letter arrives.
	scanInSegTerm
	// scanAtEOF: the stream is exhausted and the final segment, if any,
	// has been emitted.
	scanAtEOF
	// scanErrored: the underlying reader failed; the reader is fused.
	scanErrored
)

// SegmentReader reads raw X12 segments from a byte stream, one Read call at
// a time. It matches only the first byte of each delimiter: extra bytes of a
// multi-byte segment terminator (and any stray whitespace between segments)
// are absorbed until the next segment-starter letter, which tolerates the
// '~', '~\n' and '~\r\n' terminator variants without pinning down the exact
// terminator length.
//
// The reader does not own the underlying source and never seeks it; closing
// the source remains the caller's responsibility.
type SegmentReader struct {
	// rd holds the underlying reader.
	rd io.Reader

	// buf holds data that's been read.
	buf []byte

	// r0 holds the earliest read position in buf.
	// Data in buf[0:r0] is considered to be discarded.
	r0 int

	// r1 holds the read position in buf. Data in buf[r1:] is
	// next to be read. Data in buf[len(buf):cap(buf)] is
	// available for reading into.
	r1 int

	// complete holds whether the data in buffer
	// is known to be all the data that's available.
	complete bool

	// err holds any non-EOF error that was returned from rd.
	err error

	delims Delimiters
	state  scanState

	// pos is the absolute stream offset of the next byte to consume.
	pos int64

	// segStart is the offset of the current segment's first byte.
	segStart int64

	// index is the ordinal assigned to the next emitted segment.
	index int64

	// raw accumulates every byte consumed for the current segment.
	// rawTerm is len(raw) just after the most recent segment-delimiter
	// byte was appended: bytes absorbed past it belong to the gap before
	// the next segment and are dropped from Raw on emission.
	raw     []byte
	rawTerm int

	// field and fields accumulate the current element and the closed
	// elements of the current segment.
	field  []byte
	fields [][]byte

	// stats records features about the data that's being read.
	stats Stats
}

// NewSegmentReader returns a reader that splits the stream from r into
// segments using the given delimiters. Both delimiter sequences must be
// non-empty (NewStreamer guarantees this); NewSegmentReader panics otherwise.
func NewSegmentReader(r io.Reader, delims Delimiters) *SegmentReader {
	if len(delims.Element) == 0 || len(delims.Segment) == 0 {
		panic("x12: NewSegmentReader called with empty delimiter")
	}
	return &SegmentReader{
		rd:     r,
		delims: delims,
		fields: make([][]byte, 0, defaultFieldsPerSeg),
	}
}

// NewStreamer detects the document's delimiters from its ISA prefix and
// returns a segment reader for the rewound stream. It is the usual entry
// point of the package:
//
//	r, err := x12.NewStreamer(src)
//	if err != nil {
//		...
//	}
//	x12.Stream(r, handler)
func NewStreamer(rs io.ReadSeeker) (*SegmentReader, error) {
	delims, err := DetectDelimiters(rs)
	if err != nil {
		return nil, err
	}
	return NewSegmentReader(rs, delims), nil
}

// Delimiters returns the delimiters the reader splits on.
func (r *SegmentReader) Delimiters() Delimiters {
	return r.delims
}

// Stats returns features observed in the data read so far.
func (r *SegmentReader) Stats() Stats {
	return r.stats
}

// Read returns the next segment of the stream. It returns io.EOF once the
// stream is exhausted. If the underlying reader fails, the error is returned
// exactly once and the reader is fused: every later call returns io.EOF.
//
// Segments are emitted lazily: a segment is produced when the first byte of
// the following segment arrives, or by the end-of-stream flush. A stream
// that ends without a final segment terminator still yields its last
// segment, built from whatever had accumulated.
func (r *SegmentReader) Read() (*Segment, error) {
	switch r.state {
	case scanAtEOF, scanErrored:
		return nil, io.EOF
	}
	for {
		r.reset()
		if !r.ensure(1) {
			if r.err != nil {
				r.state = scanErrored
				return nil, fmt.Errorf("x12: reading segment at offset %d: %w", r.pos, r.err)
			}
			return r.flush()
		}
		c := r.at(0)
		cur := r.pos
		r.advance(1)
		if seg := r.consume(c, cur); seg != nil {
			return seg, nil
		}
	}
}

// consume feeds one byte at stream offset cur into the state machine and
// returns the segment it completes, if any.
func (r *SegmentReader) consume(c byte, cur int64) *Segment {
	switch {
	case c == r.delims.Element[0]:
		r.state = scanInField
		r.raw = append(r.raw, c)
		r.closeField(true)
	case c == r.delims.Segment[0]:
		r.state = scanInSegTerm
		r.raw = append(r.raw, c)
		r.rawTerm = len(r.raw)
		// The terminator closes the field but does not clear it; only an
		// element delimiter does that.
		r.closeField(false)
	case r.state == scanInSegTerm:
		if segmentStarters.get(c) {
			// The previous segment is complete: it ends at the byte
			// before this one, and its Raw stops at the terminator.
			seg := r.buildSegment(r.raw[:r.rawTerm], cur-1)
			r.startSegment(c, cur)
			return seg
		}
		// Trailing byte of a multi-byte segment terminator, or stray
		// whitespace between segments. Absorb it.
		r.raw = append(r.raw, c)
		r.stats |= 1 << StatTerminatorRun
		if !delimHasByte(r.delims.Segment, c) {
			r.stats |= 1 << StatStrayByte
		}
	default:
		r.raw = append(r.raw, c)
		r.field = append(r.field, c)
	}
	return nil
}

// flush emits the final segment at end of stream, if any bytes accumulated
// for one, and moves the reader to its terminal state.
func (r *SegmentReader) flush() (*Segment, error) {
	prev := r.state
	r.state = scanAtEOF
	if len(r.raw) == 0 && len(r.fields) == 0 {
		return nil, io.EOF
	}
	if prev != scanInSegTerm {
		// The stream ended mid-field, so the terminator never closed it.
		r.closeField(false)
		r.stats |= 1 << StatNoFinalTerminator
	}
	return r.buildSegment(r.raw, r.pos-1), nil
}

// closeField appends a copy of the current field to the segment's field
// list, clearing the accumulator only when clear is set.
func (r *SegmentReader) closeField(clear bool) {
	f := make([]byte, len(r.field))
	copy(f, r.field)
	if len(f) == 0 {
		r.stats |= 1 << StatEmptyField
	}
	r.fields = append(r.fields, f)
	if clear {
		r.field = r.field[:0]
	}
}

// buildSegment assembles the accumulated state into an independently owned
// Segment ending at stream offset end.
func (r *SegmentReader) buildSegment(raw []byte, end int64) *Segment {
	seg := &Segment{
		Fields:      r.fields,
		Raw:         append([]byte(nil), raw...),
		StartOffset: r.segStart,
		EndOffset:   end,
		Index:       r.index,
	}
	if len(seg.Fields) > 0 {
		seg.Tag = append([]byte(nil), seg.Fields[0]...)
	}
	return seg
}

// startSegment begins accumulating a new segment whose first byte is c at
// stream offset cur. The field list is reallocated because the previous one
// was handed off to the emitted segment.
func (r *SegmentReader) startSegment(c byte, cur int64) {
	r.raw = r.raw[:0]
	r.rawTerm = 0
	r.field = r.field[:0]
	r.fields = make([][]byte, 0, defaultFieldsPerSeg)
	r.raw = append(r.raw, c)
	r.field = append(r.field, c)
	r.state = scanInField
	r.segStart = cur
	r.index++
}

func delimHasByte(delim []byte, c byte) bool {
	for _, d := range delim {
		if d == c {
			return true
		}
	}
	return false
}

// reset discards the already-consumed prefix of the buffer. Every consumed
// byte has been copied into the segment accumulators, so nothing before r1
// is ever needed again.
func (r *SegmentReader) reset() {
	if r.r1 == len(r.buf) {
		// No bytes in the buffer, so we can start from the beginning without
		// needing to copy anything (and get better cache behaviour too).
		r.buf = r.buf[:0]
		r.r1 = 0
	}
	r.r0 = r.r1
}

// advance advances the read point by n.
// This should only be used when it's known that
// there are already n bytes available in the buffer.
func (r *SegmentReader) advance(n int) {
	r.r1 += n
	r.pos += int64(n)
}

// at returns the byte at i bytes after the current read position.
// It assumes that the index has already been ensured.
// If there's no byte there, it returns zero.
func (r *SegmentReader) at(i int) byte {
	if r.r1+i < len(r.buf) {
		return r.buf[r.r1+i]
	}
	return 0
}

// ensure ensures that there are at least n bytes available in
// r.buf[r.r1:], reading more bytes if necessary.
// It reports whether enough bytes are available.
func (r *SegmentReader) ensure(n int) bool {
	if r.r1+n <= len(r.buf) {
		// There are enough bytes available.
		return true
	}
	return r.ensure1(n)
}

// ensure1 is factored out of ensure so that ensure
// itself can be inlined.
func (r *SegmentReader) ensure1(n int) bool {
	for {
		if r.complete {
			// No possibility of more data.
			return false
		}
		r.readMore()
		if r.r1+n <= len(r.buf) {
			// There are enough bytes available.
			return true
		}
	}
}

// readMore reads more data into r.buf.
func (r *SegmentReader) readMore() {
	if r.complete {
		return
	}
	n := cap(r.buf) - len(r.buf)
	if n < minRead {
		// There's not enough available space at the end of the buffer to read into.
		if r.r0+n >= minRead {
			// There's enough space when we take into account already-used
			// part of buf, so slide the data to the front.
			copy(r.buf, r.buf[r.r0:])
			r.buf = r.buf[:len(r.buf)-r.r0]
			r.r1 -= r.r0
			r.r0 = 0
		} else {
			// We need to grow the buffer. Note that we don't have to copy
			// the unused part of the buffer (r.buf[:r.r0]).
			used := len(r.buf) - r.r0
			n1 := cap(r.buf) * 2
			if n1-used < minGrow {
				n1 = used + minGrow
			}
			buf1 := make([]byte, used, n1)
			copy(buf1, r.buf[r.r0:])
			r.buf = buf1
			r.r1 -= r.r0
			r.r0 = 0
		}
	}
	n, err := r.rd.Read(r.buf[len(r.buf):cap(r.buf)])
	r.buf = r.buf[:len(r.buf)+n]
	if err == nil {
		return
	}
	r.complete = true
	if err != io.EOF {
		r.err = err
	}
}

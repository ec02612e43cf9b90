// Package x12 implements streaming parsing of ASC X12 EDI documents:
// delimiter auto-detection from the leading ISA segment, a lazy byte-level
// segment tokenizer, and an envelope interpreter that reports interchange,
// functional-group and transaction boundaries to a handler even when the
// input is missing envelope terminators.
package x12

// Segment is one X12 segment: a tag followed by element-delimited fields,
// normally ended by the segment delimiter. All byte slices are owned by the
// segment; the reader that produced it retains no reference to them.
type Segment struct {
	// Tag is the segment identifier, e.g. "ISA" or "GS".
	// It is a copy of Fields[0], or empty if the segment had no fields.
	Tag []byte

	// Fields holds the element values in order, the tag included as
	// Fields[0]. An element delimiter immediately before the segment
	// terminator yields a final empty field.
	Fields [][]byte

	// Raw holds the bytes consumed to produce this segment, internal
	// delimiters included. Trailing whitespace of a multi-byte segment
	// terminator that precedes the next segment's first byte is not
	// included, so len(Raw) can be smaller than the offset span.
	Raw []byte

	// StartOffset and EndOffset are inclusive byte indexes into the
	// original stream: the first tag byte, and the last byte consumed for
	// this segment. That is the byte just before the next segment's first
	// byte, so any absorbed terminator bytes are counted; for the final
	// segment it is the last byte of the stream.
	StartOffset int64
	EndOffset   int64

	// Index is the zero-based ordinal of this segment among all segments
	// emitted from the stream.
	Index int64
}

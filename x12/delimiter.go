package x12

import (
	"fmt"
	"io"
)

const (
	// isaElemDelimCount is the number of element delimiters in a complete
	// ISA segment: 17 fixed-width fields, the tag included, separated by
	// 16 delimiters.
	isaElemDelimCount = 16

	// maxISAScan bounds how many bytes the detector reads while counting
	// element delimiters. Any legal ISA segment is far shorter; the bound
	// keeps the detector from scanning an arbitrarily long non-EDI stream.
	maxISAScan = 212
)

// segmentStarters holds the bytes that can begin a segment tag. Delimiters
// must never be drawn from this set, which holds in all real X12 because
// producers choose non-alphanumeric delimiter characters.
var segmentStarters = newByteSetRange('A', 'Z').union(newByteSetRange('a', 'z'))

// Delimiters holds the delimiter byte sequences in use by one document.
// Element is a single byte. Segment is one or more bytes; any byte after the
// first is trailing whitespace, such as '\n', that the producer appends to
// every segment terminator.
type Delimiters struct {
	Element []byte
	Segment []byte
}

// DetectDelimiters infers the element and segment delimiters of the document
// from the fixed-layout ISA segment that starts every X12 stream: the byte at
// offset 3 is the element delimiter, and the bytes between the one-character
// ISA16 element and the next segment's leading letter form the segment
// delimiter. On success the source is rewound to offset 0.
//
// A stream that ends before both delimiters have been seen fails with an
// error wrapping io.ErrUnexpectedEOF; read and seek errors from the source
// are returned wrapped.
func DetectDelimiters(rs io.ReadSeeker) (Delimiters, error) {
	if _, err := rs.Seek(3, io.SeekStart); err != nil {
		return Delimiters{}, fmt.Errorf("x12: cannot seek to element delimiter: %w", err)
	}
	var buf [1]byte
	readByte := func() (byte, error) {
		// io.ReadFull turns a zero-byte read into io.EOF for us.
		_, err := io.ReadFull(rs, buf[:])
		return buf[0], err
	}
	elem, err := readByte()
	if err != nil {
		return Delimiters{}, fmt.Errorf("x12: cannot read element delimiter: %w", unexpectedEOF(err))
	}
	// Count the remaining element delimiters of the ISA segment. The
	// segment is fixed-width, so once all 16 have been seen the reader sits
	// right before the one-character ISA16 element.
	for found, scanned := 1, 0; found < isaElemDelimCount; scanned++ {
		if scanned > maxISAScan {
			return Delimiters{}, fmt.Errorf("x12: ISA segment too long: %w", io.ErrUnexpectedEOF)
		}
		c, err := readByte()
		if err != nil {
			return Delimiters{}, fmt.Errorf("x12: cannot scan ISA elements: %w", unexpectedEOF(err))
		}
		if c == elem {
			found++
		}
	}
	// Skip the ISA16 data byte; the byte after it begins the segment
	// terminator.
	if _, err := readByte(); err != nil {
		return Delimiters{}, fmt.Errorf("x12: cannot read final ISA element: %w", unexpectedEOF(err))
	}
	c, err := readByte()
	if err != nil {
		return Delimiters{}, fmt.Errorf("x12: cannot read segment delimiter: %w", unexpectedEOF(err))
	}
	// Everything up to the next segment's leading letter belongs to the
	// terminator: producers commonly append '\n' or '\r\n' to it. Hitting
	// end of stream here is fine as long as at least one terminator byte
	// has been collected.
	var seg []byte
	for !segmentStarters.get(c) {
		seg = append(seg, c)
		c, err = readByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Delimiters{}, fmt.Errorf("x12: cannot read segment delimiter: %w", err)
		}
	}
	if len(seg) == 0 {
		return Delimiters{}, fmt.Errorf("x12: no segment delimiter before next segment: %w", io.ErrUnexpectedEOF)
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return Delimiters{}, fmt.Errorf("x12: cannot rewind source: %w", err)
	}
	return Delimiters{
		Element: []byte{elem},
		Segment: seg,
	}, nil
}

// unexpectedEOF maps a bare io.EOF to io.ErrUnexpectedEOF: the detector runs
// against a prefix that is never allowed to just stop.
func unexpectedEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

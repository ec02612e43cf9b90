package x12

import (
	"errors"
	"io"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
)

// isaLine is a complete ISA segment with '*' element and '~' segment
// delimiters.
const isaLine = "ISA*00*TSI       *01*92511930  *01*ME             *12*BRADLEY        *970815*1732*U*00201*000000050*0*T*>~"

var detectDelimitersTests = []struct {
	testName string
	input    string
	element  string
	segment  string
	// wantEOF is set when detection must fail with premature end of input.
	wantEOF bool
}{{
	testName: "simple-delimiter-set",
	input:    isaLine,
	element:  "*",
	segment:  "~",
}, {
	testName: "multibyte-delimiter-at-eof",
	input:    isaLine + "\n",
	element:  "*",
	segment:  "~\n",
}, {
	testName: "multibyte-delimiter-followed-by-segment",
	input:    isaLine + "\nIEA",
	element:  "*",
	segment:  "~\n",
}, {
	testName: "crlf-delimiter",
	input:    strings.TrimSuffix(isaLine, "~") + "~\r\nGS*PO~\r\n",
	element:  "*",
	segment:  "~\r\n",
}, {
	testName: "empty-input",
	input:    "",
	wantEOF:  true,
}, {
	testName: "ends-mid-isa",
	input:    "ISA*00*TSI",
	wantEOF:  true,
}, {
	testName: "missing-final-element-delimiter",
	input:    strings.Replace(isaLine, "*T*>", "*T>", 1),
	wantEOF:  true,
}, {
	testName: "next-segment-touches-final-element",
	input:    strings.TrimSuffix(isaLine, "~") + "ISA",
	wantEOF:  true,
}, {
	testName: "element-delimiter-never-repeats",
	input:    "ISA*" + strings.Repeat("x", 300),
	wantEOF:  true,
}}

func TestDetectDelimiters(t *testing.T) {
	c := qt.New(t)
	for _, test := range detectDelimitersTests {
		test := test
		c.Run(test.testName, func(c *qt.C) {
			d, err := DetectDelimiters(strings.NewReader(test.input))
			if test.wantEOF {
				c.Assert(err, qt.IsNotNil)
				c.Assert(errors.Is(err, io.ErrUnexpectedEOF), qt.IsTrue, qt.Commentf("got error %v", err))
				return
			}
			c.Assert(err, qt.IsNil)
			c.Assert(string(d.Element), qt.Equals, test.element)
			c.Assert(string(d.Segment), qt.Equals, test.segment)
		})
	}
}

func TestDetectDelimitersRewindsSource(t *testing.T) {
	c := qt.New(t)
	rs := strings.NewReader(isaLine + "\nIEA*1~\n")
	_, err := DetectDelimiters(rs)
	c.Assert(err, qt.IsNil)
	// The reader must be back at the start of the stream so that the
	// tokenizer sees the ISA segment too.
	buf := make([]byte, 3)
	_, err = io.ReadFull(rs, buf)
	c.Assert(err, qt.IsNil)
	c.Assert(string(buf), qt.Equals, "ISA")
}

type failReadSeeker struct {
	err error
}

func (f *failReadSeeker) Read(p []byte) (int, error) {
	return 0, f.err
}

func (f *failReadSeeker) Seek(offset int64, whence int) (int64, error) {
	return offset, nil
}

func TestDetectDelimitersReadError(t *testing.T) {
	c := qt.New(t)
	errBang := errors.New("bang")
	_, err := DetectDelimiters(&failReadSeeker{err: errBang})
	c.Assert(err, qt.IsNotNil)
	c.Assert(errors.Is(err, errBang), qt.IsTrue, qt.Commentf("got error %v", err))
}

package x12

import (
	"strings"
	"testing"
	"testing/iotest"

	qt "github.com/frankban/quicktest"
	"github.com/google/go-cmp/cmp"
)

// eventRecorder is a StreamHandler that flattens every callback into a
// string so that whole event sequences can be diffed at once.
type eventRecorder struct {
	EnvelopeTracker
	events     []string
	errs       []error
	streamEnds int
}

func (r *eventRecorder) add(kind string, seg *Segment) {
	if seg == nil {
		r.events = append(r.events, kind+" synthesized")
		return
	}
	r.events = append(r.events, kind+" "+string(seg.Tag))
}

func (r *eventRecorder) Segment(seg *Segment) {
	r.events = append(r.events, "segment "+string(seg.Tag))
}

func (r *eventRecorder) InterchangeStart(seg *Segment) {
	r.EnterInterchange()
	r.add("interchange_start", seg)
}

func (r *eventRecorder) InterchangeEnd(seg *Segment) {
	r.LeaveInterchange()
	r.add("interchange_end", seg)
}

func (r *eventRecorder) FunctionalGroupStart(seg *Segment) {
	r.EnterFunctionalGroup()
	r.add("functional_group_start", seg)
}

func (r *eventRecorder) FunctionalGroupEnd(seg *Segment) {
	r.LeaveFunctionalGroup()
	r.add("functional_group_end", seg)
}

func (r *eventRecorder) TransactionStart(seg *Segment) {
	r.EnterTransaction()
	r.add("transaction_start", seg)
}

func (r *eventRecorder) TransactionEnd(seg *Segment) {
	r.LeaveTransaction()
	r.add("transaction_end", seg)
}

func (r *eventRecorder) StreamEnd() {
	r.streamEnds++
	r.events = append(r.events, "stream_end")
}

func (r *eventRecorder) Error(err error) {
	r.errs = append(r.errs, err)
	r.events = append(r.events, "error")
}

var streamTests = []struct {
	testName string
	input    string
	events   []string
}{{
	testName: "single-interchange-missing-iea",
	input:    isaLine,
	events: []string{
		"interchange_start ISA",
		"segment ISA",
		"interchange_end synthesized",
		"stream_end",
	},
}, {
	testName: "single-interchange-trailing-newline",
	input:    isaLine + "\n",
	events: []string{
		"interchange_start ISA",
		"segment ISA",
		"interchange_end synthesized",
		"stream_end",
	},
}, {
	testName: "complete-envelope",
	input:    isaLine + "\nGS**~\nST~\nSE~\nGE~\nIEA~\n",
	events: []string{
		"interchange_start ISA",
		"segment ISA",
		"functional_group_start GS",
		"segment GS",
		"transaction_start ST",
		"segment ST",
		"segment SE",
		"transaction_end SE",
		"segment GE",
		"functional_group_end GE",
		"segment IEA",
		"interchange_end IEA",
		"stream_end",
	},
}, {
	testName: "plain-segments-pass-through",
	input:    isaLine + "\nGS~\nST~\nREF*X~\nSE~\n",
	events: []string{
		"interchange_start ISA",
		"segment ISA",
		"functional_group_start GS",
		"segment GS",
		"transaction_start ST",
		"segment ST",
		"segment REF",
		"segment SE",
		"transaction_end SE",
		"functional_group_end synthesized",
		"interchange_end synthesized",
		"stream_end",
	},
}, {
	testName: "isa-inside-interchange",
	input:    isaLine + "\nISA~\nIEA~\n",
	events: []string{
		"interchange_start ISA",
		"segment ISA",
		"interchange_end synthesized",
		"interchange_start ISA",
		"segment ISA",
		"segment IEA",
		"interchange_end IEA",
		"stream_end",
	},
}, {
	testName: "isa-inside-transaction",
	input:    isaLine + "\nGS~\nST~\nISA~\n",
	events: []string{
		"interchange_start ISA",
		"segment ISA",
		"functional_group_start GS",
		"segment GS",
		"transaction_start ST",
		"segment ST",
		"transaction_end synthesized",
		"functional_group_end synthesized",
		"interchange_end synthesized",
		"interchange_start ISA",
		"segment ISA",
		"interchange_end synthesized",
		"stream_end",
	},
}, {
	testName: "ge-closes-group-and-open-transaction",
	input:    isaLine + "\nGS~\nST~\nGE~\nIEA~\n",
	events: []string{
		"interchange_start ISA",
		"segment ISA",
		"functional_group_start GS",
		"segment GS",
		"transaction_start ST",
		"segment ST",
		"transaction_end synthesized",
		"segment GE",
		"functional_group_end GE",
		"segment IEA",
		"interchange_end IEA",
		"stream_end",
	},
}, {
	testName: "gs-inside-transaction-starts-new-group",
	input:    isaLine + "\nGS~\nST~\nGS~\n",
	events: []string{
		"interchange_start ISA",
		"segment ISA",
		"functional_group_start GS",
		"segment GS",
		"transaction_start ST",
		"segment ST",
		"transaction_end synthesized",
		"functional_group_end synthesized",
		"functional_group_start GS",
		"segment GS",
		"functional_group_end synthesized",
		"interchange_end synthesized",
		"stream_end",
	},
}, {
	testName: "iea-inside-transaction",
	input:    isaLine + "\nGS~\nST~\nIEA~\n",
	events: []string{
		"interchange_start ISA",
		"segment ISA",
		"functional_group_start GS",
		"segment GS",
		"transaction_start ST",
		"segment ST",
		"transaction_end synthesized",
		"functional_group_end synthesized",
		"segment IEA",
		"interchange_end IEA",
		"stream_end",
	},
}, {
	testName: "segments-outside-any-interchange",
	input:    isaLine + "\nIEA~\nGE~\nSE~\n",
	events: []string{
		"interchange_start ISA",
		"segment ISA",
		"segment IEA",
		"interchange_end IEA",
		"segment GE",
		"segment SE",
		"stream_end",
	},
}}

func TestStream(t *testing.T) {
	c := qt.New(t)
	for _, test := range streamTests {
		test := test
		c.Run(test.testName, func(c *qt.C) {
			r, err := NewStreamer(strings.NewReader(test.input))
			c.Assert(err, qt.IsNil)
			rec := &eventRecorder{}
			Stream(r, rec)
			c.Assert(cmp.Diff(test.events, rec.events), qt.Equals, "")
			c.Assert(rec.errs, qt.HasLen, 0)
			c.Assert(rec.streamEnds, qt.Equals, 1)
			c.Assert(rec.Level(), qt.Equals, LevelNone)
			checkWellNested(c, rec.events)
		})
	}
}

// TestStreamISAInsideFunctionalGroup pins down the behavior for an ISA tag
// arriving inside a functional group with no open transaction: the group and
// the interchange are closed synthetically and a new interchange starts.
func TestStreamISAInsideFunctionalGroup(t *testing.T) {
	c := qt.New(t)
	r, err := NewStreamer(strings.NewReader(isaLine + "\nGS~\nISA~\n"))
	c.Assert(err, qt.IsNil)
	rec := &eventRecorder{}
	Stream(r, rec)
	c.Assert(cmp.Diff([]string{
		"interchange_start ISA",
		"segment ISA",
		"functional_group_start GS",
		"segment GS",
		"functional_group_end synthesized",
		"interchange_end synthesized",
		"interchange_start ISA",
		"segment ISA",
		"interchange_end synthesized",
		"stream_end",
	}, rec.events), qt.Equals, "")
	c.Assert(rec.Level(), qt.Equals, LevelNone)
}

func TestStreamReadError(t *testing.T) {
	c := qt.New(t)
	r := NewSegmentReader(iotest.TimeoutReader(strings.NewReader("ISA*1~GS")), starDelims)
	rec := &eventRecorder{}
	Stream(r, rec)
	// The first segment is delivered, then the error fires once and the
	// stream stops without StreamEnd.
	c.Assert(cmp.Diff([]string{
		"interchange_start ISA",
		"segment ISA",
		"error",
	}, rec.events), qt.Equals, "")
	c.Assert(rec.errs, qt.HasLen, 1)
	c.Assert(rec.streamEnds, qt.Equals, 0)
}

// checkWellNested replays the event sequence against the envelope depth
// rules: every start goes one level deeper from its expected parent level,
// every end returns exactly one level, and the stream ends at depth zero.
func checkWellNested(c *qt.C, events []string) {
	depth := 0
	for _, ev := range events {
		kind := ev
		if i := strings.IndexByte(ev, ' '); i >= 0 {
			kind = ev[:i]
		}
		switch kind {
		case "interchange_start":
			c.Assert(depth, qt.Equals, 0, qt.Commentf("event %q", ev))
			depth = 1
		case "interchange_end":
			c.Assert(depth, qt.Equals, 1, qt.Commentf("event %q", ev))
			depth = 0
		case "functional_group_start":
			c.Assert(depth, qt.Equals, 1, qt.Commentf("event %q", ev))
			depth = 2
		case "functional_group_end":
			c.Assert(depth, qt.Equals, 2, qt.Commentf("event %q", ev))
			depth = 1
		case "transaction_start":
			c.Assert(depth, qt.Equals, 2, qt.Commentf("event %q", ev))
			depth = 3
		case "transaction_end":
			c.Assert(depth, qt.Equals, 3, qt.Commentf("event %q", ev))
			depth = 2
		case "stream_end":
			c.Assert(depth, qt.Equals, 0, qt.Commentf("event %q", ev))
		}
	}
	c.Assert(depth, qt.Equals, 0)
}

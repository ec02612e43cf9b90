package x12

import (
	"bytes"
	"io"
)

// Envelope tags that drive the interpreter's state machine.
var (
	tagISA = []byte("ISA")
	tagIEA = []byte("IEA")
	tagGS  = []byte("GS")
	tagGE  = []byte("GE")
	tagST  = []byte("ST")
	tagSE  = []byte("SE")
)

// StreamHandler receives the envelope-level event stream for an X12
// document. The *End callbacks receive the closing segment, or nil when the
// close was synthesized because the terminating segment was missing from the
// input. The level predicates must reflect the handler's current envelope
// level; Stream consults them to decide how each segment is dispatched.
// Embedding an EnvelopeTracker and calling its transition methods from the
// start/end callbacks keeps them truthful.
//
// For any closing segment the delivery order is Segment then the matching
// *End; for any opening segment it is *Start then Segment. Synthesized
// closes fire before the opener that displaced them.
type StreamHandler interface {
	// Segment is invoked for every segment of the stream, in order.
	Segment(seg *Segment)

	InterchangeStart(seg *Segment)
	InterchangeEnd(seg *Segment)

	FunctionalGroupStart(seg *Segment)
	FunctionalGroupEnd(seg *Segment)

	TransactionStart(seg *Segment)
	TransactionEnd(seg *Segment)

	// StreamEnd is invoked exactly once, after every started envelope has
	// been closed. It is not invoked when Error has been invoked.
	StreamEnd()

	// Error is invoked at most once, with the reader's terminal error.
	Error(err error)

	InInterchange() bool
	InFunctionalGroup() bool
	InTransaction() bool
}

// Stream pulls every segment from r and drives h with the resulting envelope
// events. Malformed nesting is never an error: missing SE/GE/IEA segments,
// or a new envelope opening mid-transaction, are resolved with synthesized
// closes so that the event stream stays well nested. A read error is
// surfaced through h.Error and terminates the stream without StreamEnd; any
// other termination closes the open envelopes, innermost first, and then
// invokes StreamEnd.
func Stream(r *SegmentReader, h StreamHandler) {
	for {
		seg, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			h.Error(err)
			return
		}
		dispatch(h, seg)
	}
	switch {
	case h.InTransaction():
		h.TransactionEnd(nil)
		h.FunctionalGroupEnd(nil)
		h.InterchangeEnd(nil)
	case h.InFunctionalGroup():
		h.FunctionalGroupEnd(nil)
		h.InterchangeEnd(nil)
	case h.InInterchange():
		h.InterchangeEnd(nil)
	}
	h.StreamEnd()
}

func dispatch(h StreamHandler, seg *Segment) {
	switch {
	case h.InTransaction():
		dispatchInTransaction(h, seg)
	case h.InFunctionalGroup():
		dispatchInFunctionalGroup(h, seg)
	case h.InInterchange():
		dispatchInInterchange(h, seg)
	default:
		dispatchOutside(h, seg)
	}
}

func dispatchOutside(h StreamHandler, seg *Segment) {
	if bytes.Equal(seg.Tag, tagISA) {
		h.InterchangeStart(seg)
	}
	h.Segment(seg)
}

func dispatchInInterchange(h StreamHandler, seg *Segment) {
	switch {
	case bytes.Equal(seg.Tag, tagGS):
		h.FunctionalGroupStart(seg)
		h.Segment(seg)
	case bytes.Equal(seg.Tag, tagIEA):
		h.Segment(seg)
		h.InterchangeEnd(seg)
	case bytes.Equal(seg.Tag, tagISA):
		h.InterchangeEnd(nil)
		h.InterchangeStart(seg)
		h.Segment(seg)
	default:
		h.Segment(seg)
	}
}

func dispatchInFunctionalGroup(h StreamHandler, seg *Segment) {
	switch {
	case bytes.Equal(seg.Tag, tagGS):
		h.FunctionalGroupEnd(nil)
		h.FunctionalGroupStart(seg)
		h.Segment(seg)
	case bytes.Equal(seg.Tag, tagGE):
		h.Segment(seg)
		h.FunctionalGroupEnd(seg)
	case bytes.Equal(seg.Tag, tagST):
		h.TransactionStart(seg)
		h.Segment(seg)
	case bytes.Equal(seg.Tag, tagIEA):
		h.FunctionalGroupEnd(nil)
		h.Segment(seg)
		h.InterchangeEnd(seg)
	case bytes.Equal(seg.Tag, tagISA):
		// A new interchange opening inside a functional group closes the
		// group and the interchange, the same cascade as one level down.
		h.FunctionalGroupEnd(nil)
		h.InterchangeEnd(nil)
		h.InterchangeStart(seg)
		h.Segment(seg)
	default:
		h.Segment(seg)
	}
}

func dispatchInTransaction(h StreamHandler, seg *Segment) {
	switch {
	case bytes.Equal(seg.Tag, tagSE):
		h.Segment(seg)
		h.TransactionEnd(seg)
	case bytes.Equal(seg.Tag, tagST):
		h.TransactionEnd(nil)
		h.TransactionStart(seg)
		h.Segment(seg)
	case bytes.Equal(seg.Tag, tagGE):
		h.TransactionEnd(nil)
		h.Segment(seg)
		h.FunctionalGroupEnd(seg)
	case bytes.Equal(seg.Tag, tagGS):
		h.TransactionEnd(nil)
		h.FunctionalGroupEnd(nil)
		h.FunctionalGroupStart(seg)
		h.Segment(seg)
	case bytes.Equal(seg.Tag, tagIEA):
		h.TransactionEnd(nil)
		h.FunctionalGroupEnd(nil)
		h.Segment(seg)
		h.InterchangeEnd(seg)
	case bytes.Equal(seg.Tag, tagISA):
		h.TransactionEnd(nil)
		h.FunctionalGroupEnd(nil)
		h.InterchangeEnd(nil)
		h.InterchangeStart(seg)
		h.Segment(seg)
	default:
		h.Segment(seg)
	}
}

// Level identifies the envelope depth of a stream handler.
type Level int

const (
	LevelNone Level = iota
	LevelInterchange
	LevelFunctionalGroup
	LevelTransaction
)

func (l Level) String() string {
	switch l {
	case LevelNone:
		return "none"
	case LevelInterchange:
		return "interchange"
	case LevelFunctionalGroup:
		return "functional-group"
	case LevelTransaction:
		return "transaction"
	}
	return "unknown"
}

// EnvelopeTracker implements the three StreamHandler level predicates over a
// single Level value. Being in a transaction implies being in a functional
// group and an interchange. The zero value starts at LevelNone.
type EnvelopeTracker struct {
	level Level
}

// Level returns the current envelope level.
func (t *EnvelopeTracker) Level() Level {
	return t.level
}

func (t *EnvelopeTracker) InInterchange() bool {
	return t.level >= LevelInterchange
}

func (t *EnvelopeTracker) InFunctionalGroup() bool {
	return t.level >= LevelFunctionalGroup
}

func (t *EnvelopeTracker) InTransaction() bool {
	return t.level == LevelTransaction
}

func (t *EnvelopeTracker) EnterInterchange() { t.level = LevelInterchange }
func (t *EnvelopeTracker) LeaveInterchange() { t.level = LevelNone }

func (t *EnvelopeTracker) EnterFunctionalGroup() { t.level = LevelFunctionalGroup }
func (t *EnvelopeTracker) LeaveFunctionalGroup() { t.level = LevelInterchange }

func (t *EnvelopeTracker) EnterTransaction() { t.level = LevelTransaction }
func (t *EnvelopeTracker) LeaveTransaction() { t.level = LevelFunctionalGroup }

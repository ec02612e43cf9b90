// Command x12dump reads an X12 EDI stream from standard input and prints
// one JSON object per envelope event to standard output, which is handy for
// eyeballing how a stream will be interpreted.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/edistream/edi-streamer/x12"
)

type event struct {
	Event       string `json:"event"`
	Tag         string `json:"tag,omitempty"`
	Start       int64  `json:"start"`
	End         int64  `json:"end"`
	Index       int64  `json:"index"`
	Synthesized bool   `json:"synthesized,omitempty"`
}

type dumper struct {
	x12.EnvelopeTracker
	enc    *json.Encoder
	failed bool
}

func (d *dumper) emit(kind string, seg *x12.Segment) {
	ev := event{Event: kind}
	if seg == nil {
		ev.Synthesized = true
	} else {
		ev.Tag = string(seg.Tag)
		ev.Start = seg.StartOffset
		ev.End = seg.EndOffset
		ev.Index = seg.Index
	}
	if err := d.enc.Encode(ev); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		d.failed = true
	}
}

func (d *dumper) Segment(seg *x12.Segment) { d.emit("segment", seg) }

func (d *dumper) InterchangeStart(seg *x12.Segment) {
	d.EnterInterchange()
	d.emit("interchange_start", seg)
}

func (d *dumper) InterchangeEnd(seg *x12.Segment) {
	d.LeaveInterchange()
	d.emit("interchange_end", seg)
}

func (d *dumper) FunctionalGroupStart(seg *x12.Segment) {
	d.EnterFunctionalGroup()
	d.emit("functional_group_start", seg)
}

func (d *dumper) FunctionalGroupEnd(seg *x12.Segment) {
	d.LeaveFunctionalGroup()
	d.emit("functional_group_end", seg)
}

func (d *dumper) TransactionStart(seg *x12.Segment) {
	d.EnterTransaction()
	d.emit("transaction_start", seg)
}

func (d *dumper) TransactionEnd(seg *x12.Segment) {
	d.LeaveTransaction()
	d.emit("transaction_end", seg)
}

func (d *dumper) StreamEnd() {
	if err := d.enc.Encode(event{Event: "stream_end"}); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		d.failed = true
	}
}

func (d *dumper) Error(err error) {
	fmt.Fprintf(os.Stderr, "%v\n", err)
	d.failed = true
}

func main() {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	r, err := x12.NewStreamer(bytes.NewReader(data))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	d := &dumper{enc: json.NewEncoder(os.Stdout)}
	x12.Stream(r, d)
	if d.failed {
		os.Exit(1)
	}
}

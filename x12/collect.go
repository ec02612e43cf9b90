package x12

// Transaction is one closed ST..SE transaction set.
type Transaction struct {
	Segments []*Segment
}

// FunctionalGroup is one closed GS..GE functional group and the transaction
// sets it contained.
type FunctionalGroup struct {
	Transactions []*Transaction
	Segments     []*Segment
}

// Interchange is one closed ISA..IEA interchange and the functional groups
// it contained.
type Interchange struct {
	FunctionalGroups []*FunctionalGroup
	Segments         []*Segment
}

// Collector is a StreamHandler that aggregates the event stream into a tree
// of interchanges, functional groups and transaction sets, together with the
// flat ordered segment list. The same *Segment is shared between the flat
// list and every envelope that was open when it arrived, so segments must be
// treated as read-only.
//
// The zero value is ready to use:
//
//	var col x12.Collector
//	x12.Stream(r, &col)
type Collector struct {
	EnvelopeTracker

	// Interchanges holds the closed interchanges in stream order,
	// including those closed synthetically at end of stream.
	Interchanges []*Interchange

	// Segments holds every segment of the stream in order.
	Segments []*Segment

	// Err holds the reader error that terminated the stream, if any.
	Err error

	interchange *Interchange
	group       *FunctionalGroup
	transaction *Transaction
}

func (c *Collector) InterchangeStart(seg *Segment) {
	c.EnterInterchange()
	c.interchange = &Interchange{}
}

func (c *Collector) InterchangeEnd(seg *Segment) {
	c.LeaveInterchange()
	if c.interchange != nil {
		c.Interchanges = append(c.Interchanges, c.interchange)
	}
	c.interchange = nil
}

func (c *Collector) FunctionalGroupStart(seg *Segment) {
	c.EnterFunctionalGroup()
	c.group = &FunctionalGroup{}
}

func (c *Collector) FunctionalGroupEnd(seg *Segment) {
	c.LeaveFunctionalGroup()
	if c.interchange != nil && c.group != nil {
		c.interchange.FunctionalGroups = append(c.interchange.FunctionalGroups, c.group)
	}
	c.group = nil
}

func (c *Collector) TransactionStart(seg *Segment) {
	c.EnterTransaction()
	c.transaction = &Transaction{}
}

func (c *Collector) TransactionEnd(seg *Segment) {
	c.LeaveTransaction()
	if c.group != nil && c.transaction != nil {
		c.group.Transactions = append(c.group.Transactions, c.transaction)
	}
	c.transaction = nil
}

// Segment appends seg to the flat list and to every open envelope. Openers
// arrive after their *Start event and closers before their *End event, so an
// opening segment lands in the envelope it opens and a closing segment in
// the envelope it closes.
func (c *Collector) Segment(seg *Segment) {
	c.Segments = append(c.Segments, seg)
	if c.InTransaction() && c.transaction != nil {
		c.transaction.Segments = append(c.transaction.Segments, seg)
	}
	if c.InFunctionalGroup() && c.group != nil {
		c.group.Segments = append(c.group.Segments, seg)
	}
	if c.InInterchange() && c.interchange != nil {
		c.interchange.Segments = append(c.interchange.Segments, seg)
	}
}

func (c *Collector) StreamEnd() {}

func (c *Collector) Error(err error) {
	c.Err = err
}

// Command x12verify reads an X12 EDI stream from standard input and checks
// that it parses. Errors are reported on standard error and the exit status
// is 1 if any were found.
package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/edistream/edi-streamer/x12"
)

func main() {
	// The delimiter detector needs a seekable source, so slurp stdin.
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
	var col x12.Collector
	x12.Stream(r, &col)
	if col.Err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", col.Err)
		os.Exit(1)
	}
	fmt.Printf("%d segments, %d interchanges\n", len(col.Segments), len(col.Interchanges))
	if stats := r.Stats(); stats != 0 {
		fmt.Printf("input oddities: %v\n", stats)
	}
}

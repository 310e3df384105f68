// Package source resolves path specifications into readable byte streams.
// The rest of the pipeline treats a path spec as an opaque token; only this
// package gives it meaning.
package source

import "io"

// ByteSource is a sequential, read-once stream over one file. End-of-data is
// signalled exactly once via io.EOF.
type ByteSource interface {
	io.ReadCloser

	// Size returns the total length in bytes when it was determinable
	// before the first read, along with whether it is known at all.
	Size() (int64, bool)
}

// Seeker is implemented by sources that can reposition to an absolute
// offset. Sources without it can only resume an upload if the remote offset
// still falls inside the transfer's buffered window.
type Seeker interface {
	SeekTo(offset int64) error
}

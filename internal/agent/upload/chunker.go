package upload

import (
	"io"

	"filecollect/internal/agent/source"
)

// chunker produces fixed-size chunks from a byte source and detects
// end-of-data one chunk early, so the final chunk can be tagged with the
// total size on its way out. It reads ahead at most one byte; the read-ahead
// is carried into the next chunk to keep chunk sizes aligned.
type chunker struct {
	src      source.ByteSource
	carry    []byte
	consumed int64 // absolute offset of the next byte next() will return
	eof      bool
}

func newChunker(src source.ByteSource) *chunker {
	return &chunker{src: src}
}

// next returns up to size bytes and whether this chunk is the last one.
// A (nil, true, nil) return means the source was already exhausted.
func (c *chunker) next(size int) ([]byte, bool, error) {
	if c.eof {
		return nil, true, nil
	}

	buf := make([]byte, 0, size)
	buf = append(buf, c.carry...)
	c.carry = nil

	for len(buf) < size {
		n, err := c.src.Read(buf[len(buf):size])
		buf = buf[:len(buf)+n]
		if err == io.EOF {
			c.eof = true
			c.consumed += int64(len(buf))
			return buf, true, nil
		}
		if err != nil {
			return nil, false, err
		}
	}

	// Full chunk. Peek one byte to learn whether the source ends here.
	var peek [1]byte
	for {
		n, err := c.src.Read(peek[:])
		if n == 1 {
			c.carry = peek[:1:1]
			break
		}
		if err == io.EOF {
			c.eof = true
			break
		}
		if err != nil {
			return nil, false, err
		}
	}

	c.consumed += int64(len(buf))
	return buf, c.eof && len(c.carry) == 0, nil
}

// reset repositions the chunker after the underlying source was sought to
// an absolute offset. Any buffered read-ahead is stale and dropped.
func (c *chunker) reset(offset int64) {
	c.carry = nil
	c.eof = false
	c.consumed = offset
}

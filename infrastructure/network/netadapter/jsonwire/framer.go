package jsonwire

import (
	"bytes"

	"github.com/pkg/errors"
)

// DefaultMaxFrameSize is the largest frame, excluding its newline, accepted
// when no other limit is configured.
const DefaultMaxFrameSize = 1024 * 1024

// ErrFrameTooLarge is returned when more than the maximum frame size is
// buffered without a terminating newline.
var ErrFrameTooLarge = errors.New("frame exceeds the maximum frame size")

// Framer accumulates bytes read from a stream and splits them into
// newline-terminated frames. Bytes after the last newline stay buffered
// until more input arrives.
//
// A Framer is not safe for concurrent use.
type Framer struct {
	buffer       bytes.Buffer
	maxFrameSize int
}

// NewFramer returns a Framer that rejects frames longer than maxFrameSize.
func NewFramer(maxFrameSize int) *Framer {
	if maxFrameSize <= 0 {
		maxFrameSize = DefaultMaxFrameSize
	}
	return &Framer{maxFrameSize: maxFrameSize}
}

// Write appends p to the buffer. It never fails.
func (f *Framer) Write(p []byte) (int, error) {
	return f.buffer.Write(p)
}

// Next extracts the oldest complete frame from the buffer, without its
// terminating newline or a trailing carriage return. ok is false when no
// complete frame is buffered yet.
func (f *Framer) Next() (frame []byte, ok bool, err error) {
	buffered := f.buffer.Bytes()
	newlineIndex := bytes.IndexByte(buffered, '\n')
	if newlineIndex < 0 {
		if len(buffered) > f.maxFrameSize {
			return nil, false, errors.Wrapf(ErrFrameTooLarge,
				"%d bytes buffered without a newline, limit is %d", len(buffered), f.maxFrameSize)
		}
		return nil, false, nil
	}
	if newlineIndex > f.maxFrameSize {
		return nil, false, errors.Wrapf(ErrFrameTooLarge,
			"frame of %d bytes, limit is %d", newlineIndex, f.maxFrameSize)
	}

	frame = make([]byte, newlineIndex)
	copy(frame, buffered[:newlineIndex])
	f.buffer.Next(newlineIndex + 1)

	return bytes.TrimSuffix(frame, []byte{'\r'}), true, nil
}

// Buffered returns the number of bytes waiting for a newline.
func (f *Framer) Buffered() int {
	return f.buffer.Len()
}

package streams

import (
	"bytes"
	"io"
)

// EmbeddedStreams demultiplexes a byte source containing zero or more
// embedded streams. Content outside any stream is forwarded to the side
// writer in its original order, without added framing.
type EmbeddedStreams struct {
	buf  *sharedBuffer
	side io.Writer
	done bool
}

// NewEmbeddedStreams creates a demultiplexer over reader. Non-stream output
// is written to side.
func NewEmbeddedStreams(reader io.Reader, side io.Writer) *EmbeddedStreams {
	return &EmbeddedStreams{
		buf:  newSharedBuffer(reader, NeedleMaxLen+1),
		side: side,
	}
}

// ForEach drives the source to exhaustion, invoking handler once per
// embedded stream. The handler may read any prefix of the stream, including
// none at all; whatever it leaves unread is drained and discarded before
// scanning resumes, so the cursor always lands exactly after the stream's
// closing marker. A side-writer failure or a source I/O error ends the scan
// early with no further delivery.
func (s *EmbeddedStreams) ForEach(handler func(*EmbeddedStream)) {
	for !s.done {
		if !s.buf.pending() {
			s.buf.compact()
			s.buf.refill()
			if s.buf.failed() || s.buf.available == 0 {
				s.done = true
				return
			}
			window := s.buf.window()
			switch start := FindNeedleStart(window); {
			case start < 0:
				// only a partial marker prefix can straddle the window edge
				s.buf.clear(len(needleStart))
			case start > 0:
				// only safe to flush up to the candidate marker
				s.buf.clearTo(start)
			default:
				if _, end, ok := FindNeedle(window); ok {
					// a span FindNeedle reports always parses: it starts
					// with START, ends with END and contains a separator
					needle, err := ParseNeedle(window[:end])
					if err != nil {
						s.buf.clearTo(len(needleStart))
						break
					}
					token := append([]byte(nil), window[:end]...)
					s.buf.skip(end)
					stream := &EmbeddedStream{buf: s.buf, needle: token, meta: needle}
					handler(stream)
					if !stream.ended {
						stream.drain()
					}
					continue
				}
				if s.buf.err == nil && !s.buf.full() {
					// the marker may still complete on the next refill
					continue
				}
				// marker never completes within the window: release the
				// START run and rescan one step further on
				s.buf.clearTo(len(needleStart))
			}
		}
		if s.buf.pending() {
			n, err := s.side.Write(s.buf.buf[s.buf.consumed:s.buf.checked])
			s.buf.consumed += n
			if err != nil {
				s.done = true
				return
			}
		}
	}
}

// EmbeddedStream is a single named stream inside an EmbeddedStreams source.
// It borrows the demultiplexer's buffer for the duration of one handler
// invocation and reads its content up to, but not including, the closing
// marker. After the closing marker (or the end of the source) is reached,
// Read returns io.EOF forever.
type EmbeddedStream struct {
	buf    *sharedBuffer
	needle []byte
	meta   Needle
	ended  bool
}

// Name returns the stream name, conventionally a file path.
func (e *EmbeddedStream) Name() string { return e.meta.Name() }

// Kind returns the optional kind tag.
func (e *EmbeddedStream) Kind() (string, bool) { return e.meta.Kind() }

// Read implements io.Reader over the stream content.
func (e *EmbeddedStream) Read(p []byte) (int, error) {
	if e.ended {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}
	for !e.buf.pending() {
		e.buf.compact()
		e.buf.refill()
		if e.buf.failed() || e.buf.available == 0 {
			e.ended = true
			return 0, io.EOF
		}
		switch i := bytes.Index(e.buf.window(), e.needle); {
		case i == 0:
			e.buf.skip(len(e.needle))
			e.ended = true
			return 0, io.EOF
		case i > 0:
			e.buf.clearTo(i)
		default:
			e.buf.clear(len(e.needle))
		}
	}
	return e.buf.take(p), nil
}

// drain consumes and discards the remainder of the stream.
func (e *EmbeddedStream) drain() {
	var sink [4096]byte
	for !e.ended {
		if _, err := e.Read(sink[:]); err != nil {
			return
		}
	}
}

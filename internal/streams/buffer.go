package streams

import "io"

// sharedBuffer is the sliding window over the raw source shared by a
// demultiplexer and whichever embedded stream is currently open. Three
// cursors bound its regions:
//
//	consumed <= checked <= available <= len(buf)
//
// Bytes below checked are proven free of any partial marker prefix and are
// safe to deliver; bytes in [checked, available) might still begin a marker
// that straddles the next refill. The buffer is exclusively owned by one
// EmbeddedStreams instance; an EmbeddedStream only borrows it for the
// duration of one handler call.
type sharedBuffer struct {
	src       io.Reader
	buf       []byte
	consumed  int
	checked   int
	available int
	err       error
}

// newSharedBuffer allocates a window of the given capacity, which must
// exceed the longest marker by at least one byte so every refill makes real
// progress.
func newSharedBuffer(src io.Reader, capacity int) *sharedBuffer {
	return &sharedBuffer{src: src, buf: make([]byte, capacity)}
}

// pending reports whether cleared bytes are still awaiting delivery.
func (b *sharedBuffer) pending() bool { return b.checked > b.consumed }

// compact discards delivered bytes, moving any unchecked tail (a possible
// partial marker prefix) to the front of the window.
func (b *sharedBuffer) compact() {
	if b.checked >= b.available {
		b.consumed, b.checked, b.available = 0, 0, 0
		return
	}
	n := copy(b.buf, b.buf[b.checked:b.available])
	b.consumed, b.checked, b.available = 0, 0, n
}

// refill grows the window with a single read, so cleared bytes reach their
// destination as soon as the source produces them. The watermark rules in
// clear keep marker detection independent of how the producer chunks its
// writes.
func (b *sharedBuffer) refill() {
	if b.err != nil || b.available == len(b.buf) {
		return
	}
	n, err := b.src.Read(b.buf[b.available:])
	b.available += n
	if err != nil {
		b.err = err
	} else if n == 0 {
		b.err = io.EOF
	}
}

// full reports that the window cannot grow any further.
func (b *sharedBuffer) full() bool { return b.available == len(b.buf) }

// failed reports a real I/O error, as opposed to plain end of data.
func (b *sharedBuffer) failed() bool { return b.err != nil && b.err != io.EOF }

// window returns the filled portion of the buffer.
func (b *sharedBuffer) window() []byte { return b.buf[:b.available] }

// clear applies the watermark rules after a scan for a marker of length
// needleLen found nothing: once the source is exhausted only a complete
// marker could still have matched, so everything is deliverable; otherwise a
// tail of up to needleLen-1 bytes is retained as a possible partial prefix
// that the next refill may complete.
func (b *sharedBuffer) clear(needleLen int) {
	if b.err != nil {
		b.checked = b.available
		return
	}
	if keep := needleLen - 1; b.available > keep {
		b.checked = b.available - keep
	}
}

// clearTo marks bytes up to offset as deliverable.
func (b *sharedBuffer) clearTo(offset int) { b.checked = offset }

// skip advances both cursors past a consumed marker.
func (b *sharedBuffer) skip(n int) {
	b.consumed = n
	b.checked = n
}

// take copies deliverable bytes into p, advancing the consumed cursor.
func (b *sharedBuffer) take(p []byte) int {
	n := copy(p, b.buf[b.consumed:b.checked])
	b.consumed += n
	return n
}

package streams

import "io"

// TrimFilterReader filters a byte source down to printable, non-whitespace
// US-ASCII, for cleaning an embedded stream before base64 decoding. Bytes
// <= 0x20 and >= 0x80 are dropped.
type TrimFilterReader struct {
	src io.Reader
	buf []byte
	pos int
	n   int
	err error
}

// NewTrimFilterReader wraps src with the default staging capacity.
func NewTrimFilterReader(src io.Reader) *TrimFilterReader {
	return NewTrimFilterReaderSize(src, NeedleMaxLen)
}

// NewTrimFilterReaderSize wraps src with an explicit staging capacity.
func NewTrimFilterReaderSize(src io.Reader, capacity int) *TrimFilterReader {
	if capacity < 1 {
		capacity = 1
	}
	return &TrimFilterReader{src: src, buf: make([]byte, capacity)}
}

// Read fills p with filtered bytes. It keeps pulling from the source until it
// can return at least one byte or the source is exhausted; a zero count is
// only returned together with the source's terminal error.
func (r *TrimFilterReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	total := 0
	for {
		for r.pos < r.n && total < len(p) {
			if c := r.buf[r.pos]; c > 0x20 && c < 0x80 {
				p[total] = c
				total++
			}
			r.pos++
		}
		if total > 0 {
			return total, nil
		}
		if r.err != nil {
			return 0, r.err
		}
		n, err := r.src.Read(r.buf)
		r.pos, r.n = 0, n
		if err != nil {
			r.err = err
		} else if n == 0 {
			// a reader that returns (0, nil) has nothing more to give
			r.err = io.EOF
		}
	}
}

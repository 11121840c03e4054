// Package streams implements the embedded-stream multiplexing protocol used
// to carry named byte streams (test reports, attachments) inline within an
// arbitrary byte channel such as a wrapped command's stdout.
//
// Wire Format:
//
//	\n[[juxr::stream::<ID>::[<KIND>::]<NAME>]]\n
//
// A stream's payload sits between an opening marker and a byte-identical
// closing marker. Everything outside a marker pair is ordinary passthrough
// content and is forwarded untouched by the demultiplexer.
package streams

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const (
	// needleStart is the marker prefix for an embedded stream.
	needleStart = "\n[[juxr::stream::"
	// needleMetadata separates the fields within a stream marker.
	needleMetadata = "::"
	// needleEnd is the marker suffix for an embedded stream.
	needleEnd = "]]\n"

	// NeedleMaxLen is the maximum valid rendered length of a stream marker.
	// Longer markers degrade to "not found" and pass through unrecognised.
	NeedleMaxLen = 8192
)

// ErrInvalidNeedle is returned when bytes do not form a well-formed stream
// marker: the START prefix, END suffix or the internal separator is missing.
var ErrInvalidNeedle = errors.New("invalid needle")

// Needle is the delimiter token marking the start or end of an embedded
// stream. It carries a random id unique to the emission, the name of the
// stream (conventionally a file path) and an optional kind tag. A Needle is
// immutable once constructed.
//
// Rendering does not escape the separator or end sequences; a name containing
// "::" or "]]\n" will corrupt parsing. Known limitation.
type Needle struct {
	id   string
	kind string
	name string
}

// NewNeedle creates a needle for the named stream with a fresh random id.
func NewNeedle(name string) Needle {
	return Needle{id: uuid.NewString(), name: name}
}

// NewNeedleWithKind creates a needle carrying an additional kind tag.
func NewNeedleWithKind(name, kind string) Needle {
	return Needle{id: uuid.NewString(), kind: kind, name: name}
}

// ParseNeedle parses a complete rendered marker. The first separator splits
// the id from the remainder; the last separator, when distinct from the
// first, splits the kind from the name.
func ParseNeedle(buf []byte) (Needle, error) {
	if !bytes.HasPrefix(buf, []byte(needleStart)) || !bytes.HasSuffix(buf, []byte(needleEnd)) {
		return Needle{}, ErrInvalidNeedle
	}
	body := buf[len(needleStart) : len(buf)-len(needleEnd)]
	first := bytes.Index(body, []byte(needleMetadata))
	if first < 0 {
		return Needle{}, ErrInvalidNeedle
	}
	last := bytes.LastIndex(body, []byte(needleMetadata))
	if last == first {
		return Needle{
			id:   string(body[:first]),
			name: string(body[first+len(needleMetadata):]),
		}, nil
	}
	return Needle{
		id:   string(body[:first]),
		kind: string(body[first+len(needleMetadata) : last]),
		name: string(body[last+len(needleMetadata):]),
	}, nil
}

// Name returns the stream name.
func (n Needle) Name() string { return n.name }

// Kind returns the kind tag and whether one is present.
func (n Needle) Kind() (string, bool) { return n.kind, n.kind != "" }

// ID returns the random token identifying this emission.
func (n Needle) ID() string { return n.id }

// String renders the needle in its wire form.
func (n Needle) String() string {
	if n.kind == "" {
		return fmt.Sprintf("%s%s%s%s%s", needleStart, n.id, needleMetadata, n.name, needleEnd)
	}
	return fmt.Sprintf("%s%s%s%s%s%s%s",
		needleStart, n.id, needleMetadata, n.kind, needleMetadata, n.name, needleEnd)
}

// Render returns the wire form as bytes.
func (n Needle) Render() []byte { return []byte(n.String()) }

// FindNeedleStart returns the offset of the first START sequence in buf, or
// -1 when absent.
func FindNeedleStart(buf []byte) int {
	return bytes.Index(buf, []byte(needleStart))
}

// FindNeedle locates a complete marker within buf and returns its span.
// Partial markers are never reported.
func FindNeedle(buf []byte) (start, end int, ok bool) {
	start = FindNeedleStart(buf)
	if start < 0 {
		return 0, 0, false
	}
	mid := bytes.Index(buf[start+len(needleStart):], []byte(needleMetadata))
	if mid < 0 {
		return 0, 0, false
	}
	mid += start + len(needleStart)
	tail := bytes.Index(buf[mid+len(needleMetadata):], []byte(needleEnd))
	if tail < 0 {
		return 0, 0, false
	}
	end = mid + len(needleMetadata) + tail + len(needleEnd)
	return start, end, true
}

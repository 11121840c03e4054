// Package importer recovers files that were framed into a console stream and
// writes them to disk.
package importer

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cloudbees-oss/juxr/internal/export"
	"github.com/cloudbees-oss/juxr/internal/logging"
	"github.com/cloudbees-oss/juxr/internal/reports"
	"github.com/cloudbees-oss/juxr/internal/streams"
)

// ErrIncomplete reports that at least one embedded file could not be fully
// imported. The remaining files are still written.
var ErrIncomplete = errors.New("some files could not be imported")

// Importer extracts embedded files from a stream into Dir.
type Importer struct {
	// Dir is the directory imported files are written under.
	Dir string
	// Processor post-processes JUnit XML reports, relocating their
	// attachment references into Dir.
	Processor *reports.Processor
	Log       logging.Logger
}

// Run scans in for embedded files, copying everything else to side. Embedded
// names are taken as paths relative to Dir; a leading slash is stripped.
func (i *Importer) Run(ctx context.Context, in io.Reader, side io.Writer) error {
	processor := i.Processor
	if processor == nil {
		processor = reports.NewProcessor()
	}
	ok := true
	streams.NewEmbeddedStreams(in, side).ForEach(func(stream *streams.EmbeddedStream) {
		name := stream.Name()
		kind, _ := stream.Kind()
		path := filepath.Join(i.Dir, filepath.FromSlash(strings.TrimPrefix(name, "/")))
		i.Log.Debug(ctx, "decoding", "file", path)

		if parent := filepath.Dir(path); parent != "" {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				i.Log.Error(ctx, err, "could not create directory", "dir", parent)
				ok = false
				return
			}
		}
		f, err := os.Create(path)
		if err != nil {
			i.Log.Error(ctx, err, "could not create file", "file", name)
			ok = false
			return
		}
		defer f.Close()

		decoder := base64.NewDecoder(base64.StdEncoding, streams.NewTrimFilterReader(stream))
		if kind == export.ReportKind {
			processor.Reset()
			processor.AttachmentPrefix(i.Dir)
			err = processor.Process(decoder, f)
		} else {
			_, err = io.Copy(f, decoder)
		}
		if err != nil {
			i.Log.Error(ctx, err, "could not complete writing file", "file", name)
			ok = false
		}
	})
	if !ok {
		return ErrIncomplete
	}
	return nil
}

// Package export writes JUnit XML reports, their attachments and arbitrary
// extra files to a single output stream, each framed by a marker so they can
// be recovered from mixed console output on the other side.
package export

import (
	"context"
	"encoding/base64"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/cloudbees-oss/juxr/internal/logging"
	"github.com/cloudbees-oss/juxr/internal/reports"
	"github.com/cloudbees-oss/juxr/internal/streams"
)

// ReportKind tags exported JUnit XML reports so the importing side knows to
// post-process them.
const ReportKind = "junit-test-report"

// Skip reports whether the given skip-export setting means exporting is
// disabled.
func Skip(value string) bool {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "true", "skip", "1", "y", "yes", "t":
		return true
	default:
		return false
	}
}

// Exporter frames reports and files onto an output stream.
type Exporter struct {
	// Reports holds glob patterns of JUnit XML reports, supporting * and **.
	Reports []string
	// Files holds glob patterns of additional files to export verbatim.
	Files []string
	// Processor rewrites each report on the way out and collects the
	// attachments it references.
	Processor *reports.Processor
	Log       logging.Logger
}

// Export writes all matched reports, their attachments, and extra files to
// out. Unreadable attachments are silently skipped; a report that fails to
// parse is logged and its frame closed so the stream stays consistent.
func (e *Exporter) Export(ctx context.Context, out io.Writer) error {
	processor := e.Processor
	if processor == nil {
		processor = reports.NewProcessor()
	}
	for _, pattern := range e.Reports {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return err
		}
		for _, match := range matches {
			if !regularFile(match) {
				continue
			}
			name := exportName(match)
			processor.Reset()
			e.Log.Debug(ctx, "exporting report", "path", match)
			if err := e.writeFramed(out, streams.NewNeedleWithKind(name, ReportKind), func(w io.Writer) error {
				f, err := os.Open(match)
				if err != nil {
					return err
				}
				defer f.Close()
				return processor.Process(f, w)
			}); err != nil {
				e.Log.Error(ctx, err, "could not export report", "path", match)
			}
			for _, attachment := range processor.Attachments() {
				if !regularFile(attachment) {
					continue
				}
				f, err := os.Open(attachment)
				if err != nil {
					continue
				}
				err = e.writeFramed(out, streams.NewNeedle(attachment), func(w io.Writer) error {
					_, err := io.Copy(w, f)
					return err
				})
				f.Close()
				if err != nil {
					return err
				}
			}
		}
	}
	for _, pattern := range e.Files {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return err
		}
		for _, match := range matches {
			if !regularFile(match) {
				continue
			}
			name := exportName(match)
			e.Log.Debug(ctx, "exporting file", "path", match)
			f, err := os.Open(match)
			if err != nil {
				continue
			}
			err = e.writeFramed(out, streams.NewNeedle(name), func(w io.Writer) error {
				_, err := io.Copy(w, f)
				return err
			})
			f.Close()
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// writeFramed writes the marker, the base64 encoded body, and the identical
// closing marker.
func (e *Exporter) writeFramed(out io.Writer, needle streams.Needle, body func(io.Writer) error) error {
	marker := needle.Render()
	if _, err := out.Write(marker); err != nil {
		return err
	}
	enc := base64.NewEncoder(base64.StdEncoding, out)
	bodyErr := body(enc)
	if err := enc.Close(); err != nil {
		return err
	}
	if _, err := out.Write(marker); err != nil {
		return err
	}
	return bodyErr
}

// regularFile reports whether path names a regular file. A ** glob also
// matches the directories along the way; only files get framed.
func regularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// exportName relativizes a matched path against the working directory so the
// importing side recreates the same layout.
func exportName(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return filepath.ToSlash(abs)
	}
	rel, err := filepath.Rel(cwd, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(rel)
}

package importer_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/cloudbees-oss/juxr/internal/export"
	"github.com/cloudbees-oss/juxr/internal/importer"
	"github.com/cloudbees-oss/juxr/internal/logging"
	"github.com/cloudbees-oss/juxr/internal/streams"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() logging.Logger {
	return logging.NewLogger(&logging.LoggerConfig{Level: logging.LevelError, Output: io.Discard})
}

func frame(name, kind, content string) string {
	var needle streams.Needle
	if kind == "" {
		needle = streams.NewNeedle(name)
	} else {
		needle = streams.NewNeedleWithKind(name, kind)
	}
	marker := string(needle.Render())
	return marker + base64.StdEncoding.EncodeToString([]byte(content)) + marker
}

func TestImportWritesFiles(t *testing.T) {
	dir := t.TempDir()
	input := "build output\n" + frame("logs/build.log", "", "all fine") + "more output\n"

	var side bytes.Buffer
	imp := &importer.Importer{Dir: dir, Log: quietLogger()}
	require.NoError(t, imp.Run(context.Background(), bytes.NewReader([]byte(input)), &side))

	data, err := os.ReadFile(filepath.Join(dir, "logs", "build.log"))
	require.NoError(t, err)
	assert.Equal(t, "all fine", string(data))
	assert.Equal(t, "build output\nmore output\n", side.String())
}

func TestImportStripsLeadingSlash(t *testing.T) {
	dir := t.TempDir()
	input := frame("/etc/passwd-like", "", "not really")

	var side bytes.Buffer
	imp := &importer.Importer{Dir: dir, Log: quietLogger()}
	require.NoError(t, imp.Run(context.Background(), bytes.NewReader([]byte(input)), &side))

	data, err := os.ReadFile(filepath.Join(dir, "etc", "passwd-like"))
	require.NoError(t, err)
	assert.Equal(t, "not really", string(data))
}

func TestImportProcessesReports(t *testing.T) {
	dir := t.TempDir()
	report := `<?xml version="1.0" encoding="UTF-8"?>
<testsuite name="sample" tests="1" failures="0" skipped="0" errors="0" time="0.5">
  <testcase name="works" classname="sample.Class" time="0.5">
    <system-out>[[ATTACHMENT|/evidence.png]]</system-out>
  </testcase>
</testsuite>`
	input := frame("TEST-sample.xml", export.ReportKind, report)

	var side bytes.Buffer
	imp := &importer.Importer{Dir: dir, Log: quietLogger()}
	require.NoError(t, imp.Run(context.Background(), bytes.NewReader([]byte(input)), &side))

	data, err := os.ReadFile(filepath.Join(dir, "TEST-sample.xml"))
	require.NoError(t, err)
	// attachment references are relocated under the output directory
	assert.Contains(t, string(data), "[[ATTACHMENT|"+dir+"/evidence.png]]")
}

func TestImportRoundTrip(t *testing.T) {
	src := t.TempDir()
	report := `<?xml version="1.0" encoding="UTF-8"?>
<testsuite name="sample" tests="1" failures="0" skipped="0" errors="0" time="0.5">
  <testcase name="works" classname="sample.Class" time="0.5"></testcase>
</testsuite>`
	require.NoError(t, os.WriteFile(filepath.Join(src, "TEST-sample.xml"), []byte(report), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "notes.txt"), []byte("keep me"), 0o644))
	t.Chdir(src)

	var wire bytes.Buffer
	e := &export.Exporter{
		Reports: []string{"TEST-*.xml"},
		Files:   []string{"notes.txt"},
		Log:     quietLogger(),
	}
	require.NoError(t, e.Export(context.Background(), &wire))

	dst := t.TempDir()
	var side bytes.Buffer
	imp := &importer.Importer{Dir: dst, Log: quietLogger()}
	require.NoError(t, imp.Run(context.Background(), &wire, &side))

	imported, err := os.ReadFile(filepath.Join(dst, "TEST-sample.xml"))
	require.NoError(t, err)
	assert.Equal(t, report, string(imported))

	notes, err := os.ReadFile(filepath.Join(dst, "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "keep me", string(notes))
}

func TestImportContinuesAfterBadPayload(t *testing.T) {
	dir := t.TempDir()
	needle := streams.NewNeedleWithKind("broken.xml", export.ReportKind)
	marker := string(needle.Render())
	// not valid base64-wrapped XML
	bad := marker + base64.StdEncoding.EncodeToString([]byte("<unclosed")) + marker
	good := frame("ok.txt", "", "fine")

	var side bytes.Buffer
	imp := &importer.Importer{Dir: dir, Log: quietLogger()}
	err := imp.Run(context.Background(), bytes.NewReader([]byte(bad+good)), &side)
	assert.ErrorIs(t, err, importer.ErrIncomplete)

	data, readErr := os.ReadFile(filepath.Join(dir, "ok.txt"))
	require.NoError(t, readErr)
	assert.Equal(t, "fine", string(data))
}

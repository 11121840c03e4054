package reports_test

import (
	"bytes"
	"encoding/xml"
	"strings"
	"testing"
	"time"

	"github.com/cloudbees-oss/juxr/internal/reports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuiteStartLine(t *testing.T) {
	s := reports.NewSuite("foo")
	assert.Equal(t, "Running foo", s.StartLine())
}

func TestSuiteEmpty(t *testing.T) {
	s := reports.NewSuite("foo")
	assert.Equal(t, time.Duration(0), s.Time())
	assert.Equal(t, 0, s.TestCount())
	assert.Equal(t, 0, s.FailureCount())
	assert.Equal(t, 0, s.SkippedCount())
	assert.Equal(t, 0, s.ErrorCount())
	assert.Equal(t, 0, s.ExitCode())
	assert.Equal(t,
		"Tests run: 0, Failures: 0, Errors: 0, Skipped: 0, Time elapsed: 0 sec  - in foo",
		s.EndLine())
}

func TestSuiteSuccess(t *testing.T) {
	s := reports.NewSuite("foo")
	s.Add(reports.NewCase("a", "foo", reports.Success(), 1000*time.Millisecond))
	s.Add(reports.NewCase("b", "foo", reports.Success(), 500*time.Millisecond))
	assert.Equal(t, 1500*time.Millisecond, s.Time())
	assert.Equal(t, 2, s.TestCount())
	assert.Equal(t, 0, s.FailureCount())
	assert.Equal(t, 0, s.SkippedCount())
	assert.Equal(t, 0, s.ErrorCount())
	assert.Equal(t, 0, s.ExitCode())
	assert.Equal(t,
		"Tests run: 2, Failures: 0, Errors: 0, Skipped: 0, Time elapsed: 1.5 sec  - in foo",
		s.EndLine())
}

func TestSuiteSkipped(t *testing.T) {
	s := reports.NewSuite("foo")
	s.Add(reports.NewCase("a", "foo", reports.Success(), 1000*time.Millisecond))
	s.Add(reports.NewCase("b", "foo", reports.Skipped("because"), 500*time.Millisecond))
	assert.Equal(t, 2, s.TestCount())
	assert.Equal(t, 1, s.SkippedCount())
	assert.Equal(t, 0, s.ExitCode())
	assert.Equal(t,
		"Tests run: 2, Failures: 0, Errors: 0, Skipped: 1, Time elapsed: 1.5 sec  - in foo",
		s.EndLine())
}

func TestSuiteFailed(t *testing.T) {
	s := reports.NewSuite("foo")
	s.Add(reports.NewCase("a", "foo", reports.Success(), 1000*time.Millisecond))
	s.Add(reports.NewCase("b", "foo", reports.Failure("because"), 500*time.Millisecond))
	assert.Equal(t, 1, s.FailureCount())
	assert.Equal(t, 1, s.ExitCode())
	assert.Equal(t,
		"Tests run: 2, Failures: 1, Errors: 0, Skipped: 0, Time elapsed: 1.5 sec <<< FAILURE - in foo\n"+
			"b(foo) Time elapsed: 0.5 <<< FAILURE!\n\tassertion: because",
		s.EndLine())
}

func TestSuiteError(t *testing.T) {
	s := reports.NewSuite("foo")
	s.Add(reports.NewCase("a", "foo", reports.Success(), 1000*time.Millisecond))
	s.Add(reports.NewCase("b", "foo", reports.Error("because"), 500*time.Millisecond))
	assert.Equal(t, 1, s.ErrorCount())
	assert.Equal(t, 1, s.ExitCode())
	assert.Equal(t,
		"Tests run: 2, Failures: 0, Errors: 1, Skipped: 0, Time elapsed: 1.5 sec <<< ERROR - in foo\n"+
			"b(foo) Time elapsed: 0.5 <<< ERROR!\n\terror: because",
		s.EndLine())
}

func TestSuiteMixedFailureAndError(t *testing.T) {
	s := reports.NewSuite("foo")
	s.Add(reports.NewCase("a", "foo", reports.Error("that's the why"), 1000*time.Millisecond))
	s.Add(reports.NewCase("b", "foo", reports.Failure("because"), 500*time.Millisecond))
	assert.Equal(t, 1, s.FailureCount())
	assert.Equal(t, 1, s.ErrorCount())
	assert.Equal(t, 1, s.ExitCode())
	assert.Equal(t,
		"Tests run: 2, Failures: 1, Errors: 1, Skipped: 0, Time elapsed: 1.5 sec <<< FAILURE - in foo\n"+
			"a(foo) Time elapsed: 1 <<< ERROR!\n\terror: that's the why\n"+
			"b(foo) Time elapsed: 0.5 <<< FAILURE!\n\tassertion: because",
		s.EndLine())
}

func TestSuiteWriteXML(t *testing.T) {
	s := reports.NewSuite("my.suite")
	s.Add(reports.NewCase("ok", "my.Class", reports.Success(), 1500*time.Millisecond))
	s.Add(reports.NewCaseWithOutput("bad", "my.Class", reports.Failure("expected 1 got 2"),
		"hello stdout", "hello stderr", 250*time.Millisecond))
	s.Add(reports.NewCase("meh", "my.Class", reports.Skipped("not today"), 0))

	var buf bytes.Buffer
	require.NoError(t, s.WriteXML(&buf))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, xml.Header))
	assert.Contains(t, out, `xsi:noNamespaceSchemaLocation="https://maven.apache.org/surefire/maven-surefire-plugin/xsd/surefire-test-report.xsd"`)
	assert.Contains(t, out, `xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"`)
	assert.Contains(t, out, `name="my.suite"`)
	assert.Contains(t, out, `tests="3"`)
	assert.Contains(t, out, `failures="1"`)
	assert.Contains(t, out, `skipped="1"`)
	assert.Contains(t, out, `errors="0"`)
	assert.Contains(t, out, `time="1.75"`)
	assert.Contains(t, out, `<failure message="expected 1 got 2" type="assertion">`)
	assert.Contains(t, out, `<skipped message="not today">`)
	assert.Contains(t, out, "<![CDATA[hello stdout]]>")
	assert.Contains(t, out, "<![CDATA[hello stderr]]>")

	// the document must parse back with matching structure
	var parsed struct {
		Name  string `xml:"name,attr"`
		Cases []struct {
			Name    string `xml:"name,attr"`
			Class   string `xml:"classname,attr"`
			Time    string `xml:"time,attr"`
			Failure *struct {
				Message string `xml:"message,attr"`
			} `xml:"failure"`
			Skipped *struct {
				Message string `xml:"message,attr"`
			} `xml:"skipped"`
		} `xml:"testcase"`
	}
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &parsed))
	require.Len(t, parsed.Cases, 3)
	assert.Equal(t, "my.suite", parsed.Name)
	assert.Equal(t, "ok", parsed.Cases[0].Name)
	assert.Equal(t, "1.5", parsed.Cases[0].Time)
	assert.Nil(t, parsed.Cases[0].Failure)
	require.NotNil(t, parsed.Cases[1].Failure)
	assert.Equal(t, "expected 1 got 2", parsed.Cases[1].Failure.Message)
	require.NotNil(t, parsed.Cases[2].Skipped)
	assert.Equal(t, "not today", parsed.Cases[2].Skipped.Message)
}

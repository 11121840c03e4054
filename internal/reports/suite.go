package reports

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

const (
	surefireSchema = "https://maven.apache.org/surefire/maven-surefire-plugin/xsd/surefire-test-report.xsd"
	xsiNamespace   = "http://www.w3.org/2001/XMLSchema-instance"
)

// Suite is a named collection of test cases.
type Suite struct {
	name  string
	cases []Case
}

// NewSuite creates an empty suite.
func NewSuite(name string) *Suite {
	return &Suite{name: name}
}

// Name returns the suite name.
func (s *Suite) Name() string { return s.name }

// Rename changes the suite name.
func (s *Suite) Rename(name string) {
	s.name = name
}

// Add appends a case to the suite.
func (s *Suite) Add(c Case) {
	s.cases = append(s.cases, c)
}

// Cases returns the cases in insertion order.
func (s *Suite) Cases() []Case { return s.cases }

type totals struct {
	tests    int
	failures int
	skipped  int
	errors   int
	elapsed  time.Duration
}

func (s *Suite) totals() totals {
	var t totals
	for _, c := range s.cases {
		t.tests++
		t.elapsed += c.Time()
		switch c.Result().Status() {
		case StatusFailure:
			t.failures++
		case StatusError:
			t.errors++
		case StatusSkipped:
			t.skipped++
		}
	}
	return t
}

// TestCount returns the number of cases.
func (s *Suite) TestCount() int { return s.totals().tests }

// FailureCount returns the number of failed cases.
func (s *Suite) FailureCount() int { return s.totals().failures }

// SkippedCount returns the number of skipped cases.
func (s *Suite) SkippedCount() int { return s.totals().skipped }

// ErrorCount returns the number of errored cases.
func (s *Suite) ErrorCount() int { return s.totals().errors }

// Time returns the total duration across all cases.
func (s *Suite) Time() time.Duration { return s.totals().elapsed }

// ExitCode returns 1 when any case failed or errored, 0 otherwise.
func (s *Suite) ExitCode() int {
	for _, c := range s.cases {
		switch c.Result().Status() {
		case StatusFailure, StatusError:
			return 1
		}
	}
	return 0
}

// StartLine renders the console line announcing the suite run.
func (s *Suite) StartLine() string {
	return fmt.Sprintf("Running %s", s.name)
}

// EndLine renders the surefire-style console summary, including one line per
// failed or errored case.
func (s *Suite) EndLine() string {
	t := s.totals()
	var verdict string
	if t.failures > 0 {
		verdict = "<<< FAILURE"
	} else if t.errors > 0 {
		verdict = "<<< ERROR"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Tests run: %d, Failures: %d, Errors: %d, Skipped: %d, Time elapsed: %s sec %s - in %s",
		t.tests, t.failures, t.errors, t.skipped, seconds(t.elapsed), verdict, s.name)
	for _, c := range s.cases {
		message, _ := c.Result().Message()
		switch c.Result().Status() {
		case StatusFailure:
			fmt.Fprintf(&b, "\n%s(%s) Time elapsed: %s <<< FAILURE!\n\t%s: %s",
				c.Name(), c.Class(), seconds(c.Time()), c.Result().Type(), message)
		case StatusError:
			fmt.Fprintf(&b, "\n%s(%s) Time elapsed: %s <<< ERROR!\n\t%s: %s",
				c.Name(), c.Class(), seconds(c.Time()), c.Result().Type(), message)
		}
	}
	return b.String()
}

// WriteXML writes a complete, indented report document to w.
func (s *Suite) WriteXML(w io.Writer) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")

	t := s.totals()
	start := xml.StartElement{
		Name: xml.Name{Local: "testsuite"},
		Attr: []xml.Attr{
			attr("xsi:noNamespaceSchemaLocation", surefireSchema),
			attr("xmlns:xsi", xsiNamespace),
			attr("name", s.name),
			attr("tests", strconv.Itoa(t.tests)),
			attr("failures", strconv.Itoa(t.failures)),
			attr("skipped", strconv.Itoa(t.skipped)),
			attr("errors", strconv.Itoa(t.errors)),
			attr("time", seconds(t.elapsed)),
		},
	}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	for _, c := range s.cases {
		if err := c.writeXML(enc); err != nil {
			return err
		}
	}
	if err := enc.EncodeToken(start.End()); err != nil {
		return err
	}
	return enc.Flush()
}

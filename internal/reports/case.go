package reports

import (
	"encoding/xml"
	"strconv"
	"time"
)

// Case represents the execution of a single test case.
type Case struct {
	name   string
	class  string
	stdout string
	stderr string
	result Result
	time   time.Duration
}

// NewCase creates a test case without captured output.
func NewCase(name, class string, result Result, elapsed time.Duration) Case {
	return Case{name: name, class: class, result: result, time: elapsed}
}

// NewCaseWithOutput creates a test case with captured stdout and stderr.
func NewCaseWithOutput(name, class string, result Result, stdout, stderr string, elapsed time.Duration) Case {
	return Case{
		name:   name,
		class:  class,
		stdout: stdout,
		stderr: stderr,
		result: result,
		time:   elapsed,
	}
}

// Name returns the test case name.
func (c Case) Name() string { return c.name }

// Class returns the test group name.
func (c Case) Class() string { return c.class }

// Stdout returns the captured standard output.
func (c Case) Stdout() string { return c.stdout }

// Stderr returns the captured standard error.
func (c Case) Stderr() string { return c.stderr }

// Result returns the test outcome.
func (c Case) Result() Result { return c.result }

// Time returns the test duration.
func (c Case) Time() time.Duration { return c.time }

// seconds renders a duration as fractional seconds the way surefire reports
// do: no exponent, no trailing zeros.
func seconds(d time.Duration) string {
	return strconv.FormatFloat(float64(d.Milliseconds())/1000.0, 'f', -1, 64)
}

type cdata struct {
	Text string `xml:",cdata"`
}

func attr(name, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: value}
}

func element(name string) xml.StartElement {
	return xml.StartElement{Name: xml.Name{Local: name}}
}

// writeXML emits the <testcase> element for this case.
func (c Case) writeXML(enc *xml.Encoder) error {
	start := xml.StartElement{
		Name: xml.Name{Local: "testcase"},
		Attr: []xml.Attr{
			attr("name", c.name),
			attr("classname", c.class),
			attr("time", seconds(c.time)),
		},
	}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}

	message, _ := c.result.Message()
	switch c.result.Status() {
	case StatusFailure:
		el := element("failure")
		el.Attr = []xml.Attr{attr("message", message), attr("type", c.result.Type())}
		if err := encodeEmpty(enc, el); err != nil {
			return err
		}
	case StatusError:
		el := element("error")
		el.Attr = []xml.Attr{attr("message", message), attr("type", c.result.Type())}
		if err := encodeEmpty(enc, el); err != nil {
			return err
		}
	case StatusSkipped:
		el := element("skipped")
		el.Attr = []xml.Attr{attr("message", message)}
		if err := encodeEmpty(enc, el); err != nil {
			return err
		}
	}

	if c.stdout != "" {
		if err := enc.EncodeElement(cdata{c.stdout}, element("system-out")); err != nil {
			return err
		}
	}
	if c.stderr != "" {
		if err := enc.EncodeElement(cdata{c.stderr}, element("system-err")); err != nil {
			return err
		}
	}

	return enc.EncodeToken(start.End())
}

func encodeEmpty(enc *xml.Encoder, start xml.StartElement) error {
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	return enc.EncodeToken(start.End())
}

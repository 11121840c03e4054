// Package tap parses Test Anything Protocol streams into test suites.
//
// Version 12 and version 13 streams are understood. A leading "TAP version"
// line below 13 is rejected; an absent version line means version 12.
package tap

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cloudbees-oss/juxr/internal/reports"
)

var (
	versionLine = regexp.MustCompile(`^TAP version (?P<version>\d+)$`)
	planLine    = regexp.MustCompile(`^1\.\.(?P<count>\d+)(\s+#.*)?$`)
	testLine    = regexp.MustCompile(`^(?P<result>(not )?ok)(\s+(?P<number>[0-9][0-9]*))?(\s+(?P<name>[^0-9 ][^#]*))?(#\s*(?P<directive>\S+)\s+(?P<message>.*)?)?$`)
	bailLine    = regexp.MustCompile(`^Bail out!\s*(?P<description>.*)?$`)
	diagLine    = regexp.MustCompile(`^#\s?(?P<line>.*)`)
	yamlStart   = regexp.MustCompile(`^(?P<indent>\s+)---`)
	yamlEnd     = regexp.MustCompile(`^(?P<indent>\s+)\.\.\.`)
)

// pendingTest is a test line whose trailing diagnostics have not been seen
// yet. It gets turned into a case when the next test line or the end of the
// stream arrives.
type pendingTest struct {
	result    string
	number    int
	name      string
	directive string
	message   string
}

func group(re *regexp.Regexp, match []string, name string) (string, bool) {
	i := re.SubexpIndex(name)
	if i < 0 || i >= len(match) {
		return "", false
	}
	return match[i], match[i] != ""
}

func missingCase(number int) reports.Case {
	return reports.NewCase(fmt.Sprintf("test %d", number), "tap", reports.Failure("missing"), 0)
}

// Read parses a TAP stream into a suite named "tap". Tests declared by the
// plan but never run are reported as failures.
func Read(r io.Reader) (*reports.Suite, error) {
	suite := reports.NewSuite("tap")

	version := 0
	plan := -1
	var pending *pendingTest
	var output []string
	testNumber := 0
	testStart := time.Now()
	yamlIndent := ""
	inYAML := false

	flush := func() {
		if pending == nil {
			return
		}
		suite.Add(toCase(pending, output, time.Since(testStart)))
		pending = nil
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
scan:
	for scanner.Scan() {
		line := scanner.Text()
		if version == 0 {
			if m := versionLine.FindStringSubmatch(line); m != nil {
				v, _ := strconv.Atoi(m[versionLine.SubexpIndex("version")])
				if v < 13 {
					return nil, fmt.Errorf("TAP version specified as %d. When specified, the TAP version must be at least 13", v)
				}
				version = v
				continue
			}
			version = 12
		}
		if inYAML {
			if m := yamlEnd.FindStringSubmatch(line); m != nil && m[yamlEnd.SubexpIndex("indent")] == yamlIndent {
				inYAML = false
				continue
			}
			if strings.HasPrefix(line, yamlIndent) {
				output = append(output, line[len(yamlIndent):])
				continue
			}
			inYAML = false
		}

		switch {
		case planLine.MatchString(line):
			if plan >= 0 {
				return nil, fmt.Errorf("More than one test plan in the supplied input")
			}
			m := planLine.FindStringSubmatch(line)
			plan, _ = strconv.Atoi(m[planLine.SubexpIndex("count")])
			if testNumber > 0 {
				// the plan is at the end
				for testNumber < plan {
					suite.Add(missingCase(testNumber))
					testNumber++
				}
				break scan
			}
			testStart = time.Now()
		case testLine.MatchString(line):
			flush()
			m := testLine.FindStringSubmatch(line)
			testNumber++
			number := testNumber
			if s, ok := group(testLine, m, "number"); ok {
				number, _ = strconv.Atoi(s)
			}
			for testNumber < number {
				suite.Add(missingCase(testNumber))
				testNumber++
			}
			result, _ := group(testLine, m, "result")
			name, _ := group(testLine, m, "name")
			directive, _ := group(testLine, m, "directive")
			message, _ := group(testLine, m, "message")
			pending = &pendingTest{
				result:    result,
				number:    number,
				name:      name,
				directive: strings.ToUpper(directive),
				message:   message,
			}
			output = nil
			testStart = time.Now()
		case bailLine.MatchString(line):
			break scan
		case diagLine.MatchString(line):
			m := diagLine.FindStringSubmatch(line)
			output = append(output, m[diagLine.SubexpIndex("line")])
		case yamlStart.MatchString(line):
			m := yamlStart.FindStringSubmatch(line)
			yamlIndent = m[yamlStart.SubexpIndex("indent")]
			inYAML = true
			output = append(output, "---")
		default:
			// unknown lines are ignored
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()
	if plan >= 0 {
		for testNumber < plan {
			suite.Add(missingCase(testNumber))
			testNumber++
		}
	}
	return suite, nil
}

func toCase(t *pendingTest, output []string, elapsed time.Duration) reports.Case {
	var result reports.Result
	switch t.result {
	case "ok":
		switch t.directive {
		case "SKIP":
			result = reports.Skipped(t.message)
		case "TODO":
			result = reports.Failure(t.message)
		default:
			result = reports.Success()
		}
	case "not ok":
		switch t.directive {
		case "SKIP":
			result = reports.Skipped(t.message)
		case "TODO":
			result = reports.Success()
		default:
			result = reports.Failure(t.message)
		}
	default:
		result = reports.Error("unexpected test result")
	}
	name := t.name
	if name == "" {
		name = fmt.Sprintf("test %d", t.number)
	}
	return reports.NewCaseWithOutput(name, "tap", result, strings.Join(output, "\n"), "", elapsed)
}

package reports

import (
	"encoding/xml"
	"errors"
	"io"
	"regexp"
	"sort"
	"strings"
)

// attachmentPattern matches the Jenkins junit-attachments plugin convention
// for declaring attachments inside test output.
var attachmentPattern = regexp.MustCompile(`(\s*)\[\[ATTACHMENT\|([^\]]+)]](\s*)`)

// Processor rewrites a JUnit XML report as it streams through. It can rename
// suites, cases and classes, redact secrets from output and properties, and
// collect and relocate declared attachments.
type Processor struct {
	suitePrefix    string
	suiteSuffix    string
	casePrefix     string
	caseSuffix     string
	classPrefix    string
	classSuffix    string
	attachmentBase string
	windowsPaths   bool
	attachments    []string
	secrets        []string
}

// NewProcessor creates a Processor that passes reports through unchanged.
func NewProcessor() *Processor {
	return &Processor{}
}

// Reset clears the attachments collected by previous Process calls while
// keeping the configured transformations.
func (p *Processor) Reset() {
	p.attachments = nil
}

// SuitePrefix sets the prefix added to testsuite names.
func (p *Processor) SuitePrefix(prefix string) *Processor {
	p.suitePrefix = prefix
	return p
}

// SuiteSuffix sets the suffix added to testsuite names.
func (p *Processor) SuiteSuffix(suffix string) *Processor {
	p.suiteSuffix = suffix
	return p
}

// CasePrefix sets the prefix added to testcase names.
func (p *Processor) CasePrefix(prefix string) *Processor {
	p.casePrefix = prefix
	return p
}

// CaseSuffix sets the suffix added to testcase names.
func (p *Processor) CaseSuffix(suffix string) *Processor {
	p.caseSuffix = suffix
	return p
}

// ClassPrefix sets the prefix added to testcase class names.
func (p *Processor) ClassPrefix(prefix string) *Processor {
	p.classPrefix = prefix
	return p
}

// ClassSuffix sets the suffix added to testcase class names.
func (p *Processor) ClassSuffix(suffix string) *Processor {
	p.classSuffix = suffix
	return p
}

// AttachmentPrefix sets the path prepended to attachment references.
func (p *Processor) AttachmentPrefix(prefix string) *Processor {
	p.attachmentBase = prefix
	return p
}

// WindowsPaths makes rewritten attachment references use backslash
// separators.
func (p *Processor) WindowsPaths(enabled bool) *Processor {
	p.windowsPaths = enabled
	return p
}

// AddSecret registers a string to redact from test output and property
// values.
func (p *Processor) AddSecret(secret string) *Processor {
	p.secrets = append(p.secrets, secret)
	p.orderSecrets()
	return p
}

// Secrets replaces the registered secrets.
func (p *Processor) Secrets(secrets []string) *Processor {
	p.secrets = append([]string(nil), secrets...)
	p.orderSecrets()
	return p
}

// orderSecrets sorts so that a secret containing another is redacted first,
// then removes duplicates. Without this "some text" would never match after
// "text" had already been replaced.
func (p *Processor) orderSecrets() {
	sort.SliceStable(p.secrets, func(i, j int) bool {
		a, b := p.secrets[i], p.secrets[j]
		if a == b {
			return false
		}
		if strings.Contains(a, b) {
			return true
		}
		if strings.Contains(b, a) {
			return false
		}
		return a < b
	})
	deduped := p.secrets[:0]
	for _, s := range p.secrets {
		if len(deduped) == 0 || deduped[len(deduped)-1] != s {
			deduped = append(deduped, s)
		}
	}
	p.secrets = deduped
}

// Attachments returns the attachment paths seen so far, sorted with
// duplicates removed and backslashes normalized to forward slashes.
func (p *Processor) Attachments() []string {
	return append([]string(nil), p.attachments...)
}

func (p *Processor) redact(text string) string {
	for _, secret := range p.secrets {
		text = strings.ReplaceAll(text, secret, "****")
	}
	return text
}

func (p *Processor) rewriteText(text string) string {
	text = attachmentPattern.ReplaceAllStringFunc(text, func(m string) string {
		caps := attachmentPattern.FindStringSubmatch(m)
		name := caps[2]
		p.attachments = append(p.attachments, strings.ReplaceAll(name, "\\", "/"))
		if p.windowsPaths {
			name = strings.ReplaceAll(name, "/", "\\")
		}
		return caps[1] + "[[ATTACHMENT|" + p.attachmentBase + name + "]]" + caps[3]
	})
	return p.redact(text)
}

// Process streams the report from r to w applying the configured
// transformations. Attachment paths found along the way accumulate and can be
// read with Attachments after the call returns.
//
// Output is written token by token with minimal escaping so that a report
// with no transformations configured round trips byte for byte, modulo
// entity and CDATA normalization.
func (p *Processor) Process(r io.Reader, w io.Writer) error {
	dec := xml.NewDecoder(r)
	sink := &tokenWriter{w: w}
	prefixes := map[string]string{}
	var stack []string
	path := ""
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			stack = append(stack, path)
			path = path + "/" + t.Name.Local
			out := xml.StartElement{Name: fixName(t.Name, prefixes)}
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" {
					prefixes[a.Value] = a.Name.Local
				}
				a.Name = fixName(a.Name, prefixes)
				switch {
				case path == "/testsuite" && a.Name.Local == "name":
					a.Value = p.suitePrefix + a.Value + p.suiteSuffix
				case path == "/testsuite/testcase" && a.Name.Local == "name":
					a.Value = p.casePrefix + a.Value + p.caseSuffix
				case path == "/testsuite/testcase" && a.Name.Local == "classname":
					a.Value = p.classPrefix + a.Value + p.classSuffix
				case path == "/testsuite/properties/property" && a.Name.Local == "value":
					a.Value = p.redact(a.Value)
				}
				out.Attr = append(out.Attr, a)
			}
			sink.startElement(out)
		case xml.EndElement:
			if n := len(stack); n > 0 {
				path = stack[n-1]
				stack = stack[:n-1]
			} else {
				path = ""
			}
			sink.endElement(fixName(t.Name, prefixes))
		case xml.CharData:
			sink.charData(p.rewriteText(string(t)))
		case xml.Comment:
			sink.raw("<!--" + string(t) + "-->")
		case xml.ProcInst:
			sink.raw("<?" + t.Target + " " + string(t.Inst) + "?>")
		case xml.Directive:
			sink.raw("<!" + string(t) + ">")
		}
		if sink.err != nil {
			return sink.err
		}
	}
	sort.Strings(p.attachments)
	deduped := p.attachments[:0]
	for _, a := range p.attachments {
		if len(deduped) == 0 || deduped[len(deduped)-1] != a {
			deduped = append(deduped, a)
		}
	}
	p.attachments = deduped
	return nil
}

// tokenWriter serializes tokens preserving the source layout. The standard
// encoder escapes newlines in character data, which would mangle formatted
// reports on the round trip.
type tokenWriter struct {
	w   io.Writer
	err error
}

func (t *tokenWriter) raw(s string) {
	if t.err == nil {
		_, t.err = io.WriteString(t.w, s)
	}
}

func (t *tokenWriter) startElement(start xml.StartElement) {
	t.raw("<" + start.Name.Local)
	for _, a := range start.Attr {
		t.raw(" " + a.Name.Local + `="` + escapeAttr(a.Value) + `"`)
	}
	t.raw(">")
}

func (t *tokenWriter) endElement(name xml.Name) {
	t.raw("</" + name.Local + ">")
}

func (t *tokenWriter) charData(s string) {
	t.raw(escapeText(s))
}

var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

var attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", `"`, "&quot;")

func escapeText(s string) string { return textEscaper.Replace(s) }

func escapeAttr(s string) string { return attrEscaper.Replace(s) }

// fixName undoes the decoder's namespace resolution so names survive the
// round trip. Prefixes are recovered from xmlns declarations already seen;
// unknown namespaces fall back to the bare local name.
func fixName(name xml.Name, prefixes map[string]string) xml.Name {
	if name.Space == "" {
		return name
	}
	if name.Space == "xmlns" {
		return xml.Name{Local: "xmlns:" + name.Local}
	}
	if prefix, ok := prefixes[name.Space]; ok {
		return xml.Name{Local: prefix + ":" + name.Local}
	}
	return xml.Name{Local: name.Local}
}

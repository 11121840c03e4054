// Package plan reads YAML test plans and runs the commands they describe.
//
// A plan maps test names to commands. Each entry is either a shell command
// string, an argv list, or a mapping with the command plus the exit codes to
// interpret as success, failure or skipped:
//
//	check-disk: df -h
//	check-args: ["echo", "hello world"]
//	check-net:
//	  command: ping -c 1 gateway
//	  success: 0
//	  failure: [1, 2]
//	  skipped: 68
package plan

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Command is what a plan test executes: either a shell command line or an
// argv vector run directly.
type Command struct {
	shell string
	argv  []string
	exec  bool
}

// ShellCommand returns a command run through the shell.
func ShellCommand(cmd string) Command {
	return Command{shell: cmd}
}

// ExecCommand returns a command run directly from an argv vector.
func ExecCommand(argv ...string) Command {
	return Command{argv: argv, exec: true}
}

// Shell returns the shell command line and whether this is a shell command.
func (c Command) Shell() (string, bool) { return c.shell, !c.exec }

// Argv returns the argv vector and whether this is a direct exec command.
func (c Command) Argv() ([]string, bool) { return c.argv, c.exec }

// Display renders the command for log and error messages.
func (c Command) Display() string {
	if c.exec {
		return strings.Join(c.argv, " ")
	}
	return fmt.Sprintf("sh -c '%s'", c.shell)
}

// UnmarshalYAML accepts either a scalar shell command or a sequence argv.
func (c *Command) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		return node.Decode(&c.shell)
	case yaml.SequenceNode:
		c.exec = true
		return node.Decode(&c.argv)
	default:
		return fmt.Errorf("line %d: command must be a string or a list", node.Line)
	}
}

// MarshalYAML renders the command back in its short form.
func (c Command) MarshalYAML() (interface{}, error) {
	if c.exec {
		return c.argv, nil
	}
	return c.shell, nil
}

// exitCodes accepts either a single exit code or a list of them.
type exitCodes []int

func (e *exitCodes) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var code int
		if err := node.Decode(&code); err != nil {
			return err
		}
		*e = exitCodes{code}
		return nil
	case yaml.SequenceNode:
		var codes []int
		if err := node.Decode(&codes); err != nil {
			return err
		}
		*e = codes
		return nil
	default:
		return fmt.Errorf("line %d: exit codes must be an integer or a list", node.Line)
	}
}

// Test is a single named entry in a plan.
type Test struct {
	Command Command
	Success []int
	Failure []int
	Skipped []int
}

// UnmarshalYAML accepts the scalar, sequence and mapping entry forms.
func (t *Test) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode, yaml.SequenceNode:
		return node.Decode(&t.Command)
	case yaml.MappingNode:
		var detail struct {
			Command *Command   `yaml:"command"`
			Cmd     *Command   `yaml:"cmd"`
			Success *exitCodes `yaml:"success"`
			Failure *exitCodes `yaml:"failure"`
			Skipped *exitCodes `yaml:"skipped"`
		}
		if err := node.Decode(&detail); err != nil {
			return err
		}
		switch {
		case detail.Command != nil:
			t.Command = *detail.Command
		case detail.Cmd != nil:
			t.Command = *detail.Cmd
		default:
			return fmt.Errorf("line %d: test entry has no command", node.Line)
		}
		if detail.Success != nil {
			t.Success = *detail.Success
		}
		if detail.Failure != nil {
			t.Failure = *detail.Failure
		}
		if detail.Skipped != nil {
			t.Skipped = *detail.Skipped
		}
		return nil
	default:
		return fmt.Errorf("line %d: test entry must be a command or a mapping", node.Line)
	}
}

// Plan is a named set of tests, iterated in name order.
type Plan struct {
	tests map[string]Test
}

// New creates an empty plan.
func New() *Plan {
	return &Plan{tests: map[string]Test{}}
}

// Read parses a plan document.
func Read(r io.Reader) (*Plan, error) {
	var tests map[string]Test
	if err := yaml.NewDecoder(r).Decode(&tests); err != nil {
		return nil, err
	}
	if tests == nil {
		tests = map[string]Test{}
	}
	return &Plan{tests: tests}, nil
}

// Parse parses a plan document from a string.
func Parse(s string) (*Plan, error) {
	return Read(strings.NewReader(s))
}

// Len returns the number of tests in the plan.
func (p *Plan) Len() int { return len(p.tests) }

// Get looks a test up by name.
func (p *Plan) Get(name string) (Test, bool) {
	t, ok := p.tests[name]
	return t, ok
}

// Insert adds or replaces a test.
func (p *Plan) Insert(name string, test Test) {
	p.tests[name] = test
}

// Names returns the test names in sorted order.
func (p *Plan) Names() []string {
	names := make([]string, 0, len(p.tests))
	for name := range p.tests {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

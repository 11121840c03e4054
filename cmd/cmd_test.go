package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with the supplied arguments and returns the
// combined stdout along with the error.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCommandRegistration(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"exec", "export", "import", "run", "tap", "test", "version"} {
		assert.True(t, names[want], "command %q should be registered", want)
	}
}

func TestTestCommandWritesReport(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, "", "test", "-n", "smoke", "-t", "echoes", "-o", dir, "--", "echo", "hello")
	require.NoError(t, err)
	assert.Contains(t, out, "Running smoke")
	assert.Contains(t, out, "Tests run: 1, Failures: 0, Errors: 0, Skipped: 0")

	data, err := os.ReadFile(filepath.Join(dir, "TEST-smoke.xml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `name="smoke"`)
	assert.Contains(t, string(data), `name="echoes"`)
	assert.Contains(t, string(data), "hello")
}

func TestTestCommandPropagatesFailure(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, "", "test", "-n", "smoke", "-t", "fails", "-o", dir, "--", "sh", "-c", "exit 1")
	require.Error(t, err)
	var ec *ExitCodeError
	require.ErrorAs(t, err, &ec)
	assert.Equal(t, 1, ec.Code)
	assert.Contains(t, out, "Failures: 1")
}

func TestTapCommandReadsStdin(t *testing.T) {
	dir := t.TempDir()
	input := "TAP version 13\n1..2\nok 1 - first\nok 2 - second\n"

	out, err := execute(t, input, "tap", "-n", "checks", "-o", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Running checks")
	assert.Contains(t, out, "Tests run: 2, Failures: 0, Errors: 0, Skipped: 0")

	data, err := os.ReadFile(filepath.Join(dir, "TEST-checks.xml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `name="checks"`)
	assert.Contains(t, string(data), `tests="2"`)
}

func TestTapCommandRejectsBadStream(t *testing.T) {
	dir := t.TempDir()
	input := "TAP version 12\n1..1\nok 1\n"

	_, err := execute(t, input, "tap", "-n", "checks", "-o", dir)
	require.Error(t, err)
	var ec *ExitCodeError
	require.ErrorAs(t, err, &ec)
	assert.Equal(t, 11, ec.Code)
}

func TestRunCommandExecutesPlan(t *testing.T) {
	dir := t.TempDir()
	planPath := filepath.Join(dir, "smoke-tests.yaml")
	require.NoError(t, os.WriteFile(planPath, []byte("greets: echo hello\nlists: [ls, /]\n"), 0o644))

	out, err := execute(t, "", "run", "-o", dir, planPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Running smoke-tests")
	assert.Contains(t, out, "Tests run: 2, Failures: 0, Errors: 0, Skipped: 0")
	assert.FileExists(t, filepath.Join(dir, "TEST-smoke-tests.xml"))
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "", "version", "--short")
	require.NoError(t, err)
	assert.NotEmpty(t, strings.TrimSpace(out))
}

func TestResolveEnvFallback(t *testing.T) {
	t.Setenv("JUXR_SUITE_PREFIX", "ci-")

	var opts rewriteFlags
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	opts.register(flags)
	require.NoError(t, flags.Parse(nil))

	resolveEnv(flags)
	assert.Equal(t, "ci-", opts.suitePrefix)

	require.NoError(t, flags.Parse([]string{"--test-suite-prefix", "explicit-"}))
	resolveEnv(flags)
	assert.Equal(t, "explicit-", opts.suitePrefix)
}

func TestProcessorReadsSecretValues(t *testing.T) {
	t.Setenv("DEPLOY_TOKEN", "hunter2")

	opts := rewriteFlags{secretVars: []string{"DEPLOY_TOKEN"}}
	p := opts.processor(rootCmd)

	report := `<testsuite name="s" tests="1" failures="0" errors="0" skipped="0" time="0">` +
		`<testcase name="c" classname="s" time="0"><system-out>token is hunter2</system-out></testcase>` +
		`</testsuite>`
	var out bytes.Buffer
	require.NoError(t, p.Process(strings.NewReader(report), &out))
	assert.Contains(t, out.String(), "token is ****")
	assert.NotContains(t, out.String(), "hunter2")
}

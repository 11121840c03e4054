package plan

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"time"

	"github.com/cloudbees-oss/juxr/internal/reports"
)

// Run executes the test command and classifies its exit code. The returned
// case carries the command's captured stdout and stderr. A direct exec entry
// with an empty argv yields no case.
func (t Test) Run(ctx context.Context, class, method string) *reports.Case {
	var cmd *exec.Cmd
	if argv, ok := t.Command.Argv(); ok {
		if len(argv) == 0 {
			return nil
		}
		cmd = exec.CommandContext(ctx, argv[0], argv[1:]...)
	} else {
		shell, _ := t.Command.Shell()
		if runtime.GOOS == "windows" {
			cmd = exec.CommandContext(ctx, "cmd", "/C", shell)
		} else {
			cmd = exec.CommandContext(ctx, "sh", "-c", shell)
		}
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		result := reports.Error(fmt.Sprintf("The `%s` command failed to start: %v", t.Command.Display(), err))
		c := reports.NewCase(method, class, result, elapsed)
		return &c
	}

	code := cmd.ProcessState.ExitCode()
	if code < 0 {
		// killed by a signal
		code = 0
	}

	successCodes := t.Success
	if successCodes == nil {
		successCodes = []int{0}
	}
	failureCodes := t.Failure
	if failureCodes == nil {
		failureCodes = []int{1}
	}
	skippedCodes := t.Skipped

	message := fmt.Sprintf("Terminated with exit code %d, expected %v", code, successCodes)
	var result reports.Result
	switch {
	case contains(successCodes, code):
		result = reports.Success()
	case contains(failureCodes, code):
		result = reports.Failure(message)
	case contains(skippedCodes, code):
		result = reports.Skipped(message)
	default:
		result = reports.Error(message)
	}

	c := reports.NewCaseWithOutput(method, class, result, stdout.String(), stderr.String(), elapsed)
	return &c
}

func contains(codes []int, code int) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}

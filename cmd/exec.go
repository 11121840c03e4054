package cmd

import (
	"bufio"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/spf13/cobra"
)

var (
	execOpts          exportFlags
	execRedirectErr   bool
	execIgnoreFailure bool
)

var execCmd = &cobra.Command{
	Use:   "exec [flags] -- command [args...]",
	Short: "Runs a command that generates JUnit XML Reports and exports them to STDOUT",
	Long: `Runs the supplied command, passing its output through line by line, and
once it finishes exports the matched reports (and any referenced
attachments) to STDOUT before propagating the command's exit code.

The child's output is flushed line by line so that report frames emitted
later are never interleaved with partially written console lines.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resolveEnv(cmd.Flags())
		ctx := cmd.Context()

		child := exec.CommandContext(ctx, args[0], args[1:]...)
		childOut, err := child.StdoutPipe()
		if err != nil {
			return err
		}
		childErr, err := child.StderrPipe()
		if err != nil {
			return err
		}
		log.Debug(ctx, "forking", "command", strings.Join(args, " "))
		if err := child.Start(); err != nil {
			log.Error(ctx, err, "command failed to start", "command", strings.Join(args, " "))
			return exitCode(11)
		}

		errDest := cmd.ErrOrStderr()
		if execRedirectErr {
			errDest = cmd.OutOrStdout()
		}
		var pumps sync.WaitGroup
		pumps.Add(2)
		go pumpLines(&pumps, childOut, cmd.OutOrStdout())
		go pumpLines(&pumps, childErr, errDest)
		pumps.Wait()

		status := 0
		if err := child.Wait(); err != nil {
			if exitErr, ok := err.(*exec.ExitError); ok {
				status = exitErr.ExitCode()
			} else {
				log.Error(ctx, err, "command did not finish", "command", strings.Join(args, " "))
				return exitCode(11)
			}
		}
		log.Debug(ctx, "command finished", "command", strings.Join(args, " "), "status", status)

		if execOpts.skip() {
			log.Info(ctx, "exporting skipped")
		} else if err := execOpts.exporter(cmd).Export(ctx, cmd.OutOrStdout()); err != nil {
			log.Error(ctx, err, "could not export")
			return exitCode(1)
		}
		if execIgnoreFailure {
			return nil
		}
		return exitCode(status)
	},
}

// pumpLines copies src to dst one line at a time so each line lands intact.
func pumpLines(wg *sync.WaitGroup, src io.Reader, dst io.Writer) {
	defer wg.Done()
	reader := bufio.NewReader(src)
	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 {
			dst.Write(line)
		}
		if err != nil {
			return
		}
	}
}

func init() {
	rootCmd.AddCommand(execCmd)
	execOpts.register(execCmd.Flags())
	execCmd.Flags().BoolVar(&execRedirectErr, "redirect-err-to-out", false,
		"Redirects the child processes STDERR to STDOUT, useful in cases where buffering is corrupting the export")
	execCmd.Flags().BoolVar(&execIgnoreFailure, "ignore-failures", false,
		"The command's exit code will not affect the exit code")
}

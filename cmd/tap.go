package cmd

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cloudbees-oss/juxr/internal/reports"
	"github.com/cloudbees-oss/juxr/internal/tap"
)

var (
	tapOutput        string
	tapSuite         string
	tapIgnoreFailure bool
)

var tapCmd = &cobra.Command{
	Use:   "tap [flags] [-- command [args...]]",
	Short: "Parses TAP formatted results into JUnit XML report format",
	Long: `Parses TAP formatted results into JUnit XML report format. When a command
is supplied after --, the command is run and its standard output is parsed as
a TAP stream while its standard error passes through. Otherwise the TAP
stream is read from standard input.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		dir, err := outputDir(tapOutput)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Running %s\n", tapSuite)

		status := 0
		var suite *reports.Suite
		var parseErr error
		if len(args) > 0 {
			child := exec.CommandContext(ctx, args[0], args[1:]...)
			childOut, err := child.StdoutPipe()
			if err != nil {
				return err
			}
			child.Stderr = cmd.ErrOrStderr()
			log.Debug(ctx, "forking", "command", strings.Join(args, " "))
			if err := child.Start(); err != nil {
				log.Error(ctx, err, "command failed to start", "command", strings.Join(args, " "))
				return exitCode(11)
			}
			suite, parseErr = tap.Read(childOut)
			if err := child.Wait(); err != nil {
				if exitErr, ok := err.(*exec.ExitError); ok {
					status = exitErr.ExitCode()
				} else {
					log.Error(ctx, err, "command did not finish", "command", strings.Join(args, " "))
					return exitCode(11)
				}
			}
		} else {
			suite, parseErr = tap.Read(cmd.InOrStdin())
		}
		if parseErr != nil {
			log.Error(ctx, parseErr, "could not parse TAP results")
			return exitCode(11)
		}
		suite.Rename(tapSuite)

		fmt.Fprintln(cmd.OutOrStdout(), suite.EndLine())
		if err := writeSuiteReport(dir, suite); err != nil {
			log.Error(ctx, err, "could not write test results")
			return exitCode(11)
		}
		switch {
		case tapIgnoreFailure:
			return nil
		case status > 0:
			return exitCode(status)
		default:
			return exitCode(suite.ExitCode())
		}
	},
}

func init() {
	rootCmd.AddCommand(tapCmd)
	tapCmd.Flags().StringVarP(&tapOutput, "output", "o", ".", "Directory in which to write the test result")
	tapCmd.Flags().StringVarP(&tapSuite, "name", "n", "", "The name of the test suite")
	tapCmd.Flags().BoolVar(&tapIgnoreFailure, "ignore-failures", false,
		"Test failures/errors will not affect the exit code")
	tapCmd.MarkFlagRequired("name")
}

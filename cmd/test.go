package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cloudbees-oss/juxr/internal/plan"
	"github.com/cloudbees-oss/juxr/internal/reports"
)

var (
	testSuccess       []int
	testFailure       []int
	testSkipped       []int
	testName          string
	testSuite         string
	testOutput        string
	testIgnoreFailure bool
)

var testCmd = &cobra.Command{
	Use:   "test [flags] -- command [args...]",
	Short: "Runs a single command as a test and captures the result in JUnit XML format",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := outputDir(testOutput)
		if err != nil {
			return err
		}
		test := plan.Test{
			Command: plan.ExecCommand(args...),
			Success: testSuccess,
			Failure: testFailure,
			Skipped: testSkipped,
		}
		suite := reports.NewSuite(testSuite)
		fmt.Fprintln(cmd.OutOrStdout(), suite.StartLine())
		if c := test.Run(cmd.Context(), testSuite, testName); c != nil {
			suite.Add(*c)
		}
		fmt.Fprintln(cmd.OutOrStdout(), suite.EndLine())

		if err := writeSuiteReport(dir, suite); err != nil {
			log.Error(cmd.Context(), err, "could not write test results")
			return exitCode(1)
		}
		if testIgnoreFailure {
			return nil
		}
		return exitCode(suite.ExitCode())
	},
}

// writeSuiteReport writes the suite to TEST-<name>.xml in dir.
func writeSuiteReport(dir string, suite *reports.Suite) error {
	path := filepath.Join(dir, fmt.Sprintf("TEST-%s.xml", suite.Name()))
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := suite.WriteXML(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func init() {
	rootCmd.AddCommand(testCmd)
	testCmd.Flags().IntSliceVar(&testSuccess, "success", []int{0},
		"A comma separated list of exit codes of the command indicating a successful test result")
	testCmd.Flags().IntSliceVar(&testFailure, "failure", []int{1},
		"A comma separated list of exit codes of the command indicating a failed test result")
	testCmd.Flags().IntSliceVar(&testSkipped, "skipped", nil,
		"A comma separated list of exit codes of the command indicating a skipped test")
	testCmd.Flags().StringVarP(&testName, "test", "t", "", "The name of the test case")
	testCmd.Flags().StringVarP(&testSuite, "name", "n", "", "The name of the test suite")
	testCmd.Flags().StringVarP(&testOutput, "output", "o", ".", "Directory in which to write the test result")
	testCmd.Flags().BoolVar(&testIgnoreFailure, "ignore-failures", false,
		"Test failures/errors will not affect the exit code")
	testCmd.MarkFlagRequired("test")
	testCmd.MarkFlagRequired("name")
}

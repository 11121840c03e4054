package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cloudbees-oss/juxr/internal/plan"
	"github.com/cloudbees-oss/juxr/internal/reports"
)

var (
	runOutput        string
	runIgnoreFailure bool
)

var runCmd = &cobra.Command{
	Use:   "run [flags] suite.yaml [suite.yaml...]",
	Short: "Runs a set of tests expressed in a simplified YAML format",
	Long: `Runs a basic set of tests as expressed in a simplified YAML format and
captures their results as a JUnit XML format test report. Each YAML file
becomes one test suite named after the file.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := outputDir(runOutput)
		if err != nil {
			return err
		}
		status := 0
		for _, path := range args {
			f, err := os.Open(path)
			if err != nil {
				log.Error(cmd.Context(), err, "could not open test definitions", "file", path)
				status = 1
				continue
			}
			tests, err := plan.Read(f)
			f.Close()
			if err != nil {
				log.Error(cmd.Context(), err, "could not read tests", "file", path)
				status = 1
				continue
			}
			name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

			suite := reports.NewSuite(name)
			fmt.Fprintln(cmd.OutOrStdout(), suite.StartLine())
			for _, testName := range tests.Names() {
				test, _ := tests.Get(testName)
				if c := test.Run(cmd.Context(), name, testName); c != nil {
					suite.Add(*c)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), suite.EndLine())

			if err := writeSuiteReport(dir, suite); err != nil {
				log.Error(cmd.Context(), err, "could not write test results", "suite", name)
				status = 1
			}
			if suite.ExitCode() != 0 {
				status = 1
			}
		}
		if runIgnoreFailure {
			return nil
		}
		return exitCode(status)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runOutput, "output", "o", ".", "Directory in which to write the test results")
	runCmd.Flags().BoolVar(&runIgnoreFailure, "ignore-failures", false,
		"Test failures/errors will not affect the exit code")
}

// Package cmd provides the juxr command-line interface.
//
// Configuration follows flags-over-environment precedence: every option that
// matters in CI can also be supplied through a JUXR_ environment variable
// (JUXR_REPORTS, JUXR_SECRETS, JUXR_SUITE_PREFIX and friends), so pipelines
// can configure the tool without editing the command lines baked into their
// build scripts.
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cloudbees-oss/juxr/internal/logging"
)

var (
	debugLogging bool
	log          logging.Logger = logging.NewLogger(nil)
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "juxr",
	Short: "JUnit XML report toolkit for CI pipelines",
	Long: `juxr moves JUnit XML test reports across container and console
boundaries, and turns other result formats into JUnit XML.

Reports are exported to stdout interleaved with regular console output and
recovered on the other side, so results survive pipelines where the console
is the only channel out of the build environment.

Typical flows:
  juxr exec -- make test | juxr import -o results/
  juxr tap -n checks -- ./run-checks.sh
  juxr run smoke-tests.yaml`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := logging.LevelInfo
		if debugLogging || viper.GetBool("debug") {
			level = logging.LevelDebug
		}
		log = logging.NewLogger(&logging.LoggerConfig{
			Level:  level,
			Format: viper.GetString("log-format"),
			Output: cmd.ErrOrStderr(),
		})
	},
}

// Execute runs the root command. The returned error may carry an exit code,
// see ExitCodeError.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().BoolVarP(&debugLogging, "debug", "d", false, "Turn on debug logging")
	rootCmd.PersistentFlags().String("log-format", "text", "Log output format (text, json)")
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("log-format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// initConfig wires the JUXR_ environment prefix into viper so that any bound
// option can be set as JUXR_<OPTION>.
func initConfig() {
	viper.SetEnvPrefix("JUXR")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
}

// ExitCodeError carries the process exit code a command decided on, for
// example the exit status of a wrapped child process or the failure marker
// of a test run.
type ExitCodeError struct {
	Code int
	Err  error
}

func (e *ExitCodeError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit code %d", e.Code)
}

func (e *ExitCodeError) Unwrap() error { return e.Err }

// exitCode wraps a bare code with no message to print.
func exitCode(code int) error {
	if code == 0 {
		return nil
	}
	return &ExitCodeError{Code: code}
}

package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/cloudbees-oss/juxr/internal/export"
	"github.com/cloudbees-oss/juxr/internal/reports"
)

// rewriteFlags holds the report rewriting options shared by every command
// that pushes reports through a Processor.
type rewriteFlags struct {
	suitePrefix string
	suiteSuffix string
	namePrefix  string
	nameSuffix  string
	classPrefix string
	classSuffix string
	secretVars  []string
	secretsList string
	skipExport  string
}

// envFallbacks maps flag names to the environment variables consulted when
// the flag is not set on the command line.
var envFallbacks = map[string]string{
	"test-suite-prefix": "JUXR_SUITE_PREFIX",
	"test-suite-suffix": "JUXR_SUITE_SUFFIX",
	"test-name-prefix":  "JUXR_NAME_PREFIX",
	"test-name-suffix":  "JUXR_NAME_SUFFIX",
	"test-class-prefix": "JUXR_CLASS_PREFIX",
	"test-class-suffix": "JUXR_CLASS_SUFFIX",
	"secrets":           "JUXR_SECRETS",
	"skip-export":       "JUXR_SKIP_EXPORT",
	"reports":           "JUXR_REPORTS",
	"files":             "JUXR_FILES",
}

func (o *rewriteFlags) register(flags *pflag.FlagSet) {
	flags.StringVar(&o.suitePrefix, "test-suite-prefix", "", "A string to prepend to each test suite name")
	flags.StringVar(&o.suiteSuffix, "test-suite-suffix", "", "A string to append to each test suite name")
	flags.StringVar(&o.namePrefix, "test-name-prefix", "", "A string to prepend to each test case name")
	flags.StringVar(&o.nameSuffix, "test-name-suffix", "", "A string to append to each test case name")
	flags.StringVar(&o.classPrefix, "test-class-prefix", "", "A string to prepend to each test case class name")
	flags.StringVar(&o.classSuffix, "test-class-suffix", "", "A string to append to each test case class name")
	flags.StringSliceVarP(&o.secretVars, "secret", "s", nil,
		"Name of an environment variable with a value that should be redacted from the reports")
	flags.StringVar(&o.secretsList, "secrets", "",
		"A comma separated list of environment variable names with values that should be redacted from the reports")
	flags.StringVar(&o.skipExport, "skip-export", "false",
		"Set to `true` to skip exporting, for use in scripts / containers where you do not always want to export reports")
}

// resolveEnv applies the JUXR_ environment fallbacks for flags the user did
// not set explicitly.
func resolveEnv(flags *pflag.FlagSet) {
	for name, env := range envFallbacks {
		f := flags.Lookup(name)
		if f == nil || f.Changed {
			continue
		}
		if value, ok := os.LookupEnv(env); ok {
			flags.Set(name, value)
		}
	}
}

// processor builds the report processor configured by these flags. Secrets
// are named environment variables; their values are what gets redacted.
func (o *rewriteFlags) processor(cmd *cobra.Command) *reports.Processor {
	p := reports.NewProcessor().
		SuitePrefix(o.suitePrefix).
		SuiteSuffix(o.suiteSuffix).
		CasePrefix(o.namePrefix).
		CaseSuffix(o.nameSuffix).
		ClassPrefix(o.classPrefix).
		ClassSuffix(o.classSuffix)
	names := append([]string(nil), o.secretVars...)
	if o.secretsList != "" {
		names = append(names, strings.Split(o.secretsList, ",")...)
	}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if value, ok := os.LookupEnv(name); ok && value != "" {
			log.Debug(cmd.Context(), "redacting value of environment variable from reports", "var", name)
			p.AddSecret(value)
		}
	}
	return p
}

// exportFlags adds the glob selection options on top of the rewrite options.
type exportFlags struct {
	rewriteFlags
	reports []string
	files   []string
}

func (o *exportFlags) register(flags *pflag.FlagSet) {
	o.rewriteFlags.register(flags)
	flags.StringSliceVarP(&o.reports, "reports", "r", nil,
		"The JUnit XML report file(s) to export, supports * and ** style globs")
	flags.StringSliceVar(&o.files, "files", nil,
		"Additional files to export, supports * and ** style globs")
}

func (o *exportFlags) exporter(cmd *cobra.Command) *export.Exporter {
	return &export.Exporter{
		Reports:   o.reports,
		Files:     o.files,
		Processor: o.processor(cmd),
		Log:       log,
	}
}

func (o *exportFlags) skip() bool {
	return export.Skip(o.skipExport)
}

// outputDir resolves and creates the directory a command writes results to.
func outputDir(path string) (string, error) {
	if path == "" {
		path = "."
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return "", err
	}
	return abs, nil
}

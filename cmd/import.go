package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/cloudbees-oss/juxr/internal/importer"
	"github.com/cloudbees-oss/juxr/internal/reports"
)

var importOutput string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Imports JUnit XML Reports and attachments from STDIN",
	Long: `Scans STDIN for files embedded by the export and exec commands and writes
them under the output directory. Everything that is not an embedded file is
passed through to STDOUT unchanged, so the command can sit in the middle of
a console pipeline without eating the build log.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := outputDir(importOutput)
		if err != nil {
			return err
		}
		imp := &importer.Importer{
			Dir:       dir,
			Processor: reports.NewProcessor(),
			Log:       log.WithComponent("importer"),
		}
		err = imp.Run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		if errors.Is(err, importer.ErrIncomplete) {
			return exitCode(1)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringVarP(&importOutput, "output", "o", ".", "Directory in which to write imported files")
}

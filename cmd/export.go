package cmd

import (
	"github.com/spf13/cobra"
)

var exportOpts exportFlags

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export JUnit XML Reports (and any referenced attachments) to STDOUT",
	Long: `Writes the matched reports, the attachments they reference, and any
additional files to STDOUT framed so that an import command on the other
side of the console boundary can recover them.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		resolveEnv(cmd.Flags())
		if exportOpts.skip() {
			log.Info(cmd.Context(), "exporting skipped")
			return nil
		}
		return exportOpts.exporter(cmd).Export(cmd.Context(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportOpts.register(exportCmd.Flags())
}

package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cloudbees-oss/juxr/internal/version"
)

var (
	versionFormat string
	versionShort  bool
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Display version information for juxr including the semantic version,
git commit hash, build timestamp, Go version and target platform.

Examples:
  juxr version               # Show version details
  juxr version --short       # Show short version only
  juxr version --format json # Output as JSON`,
	RunE: func(cmd *cobra.Command, args []string) error {
		switch versionFormat {
		case "json":
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(version.GetBuildInfo())
		case "text":
			if versionShort {
				fmt.Fprintln(cmd.OutOrStdout(), version.GetShortVersion())
				return nil
			}
			info := version.GetBuildInfo()
			fmt.Fprintf(cmd.OutOrStdout(), "juxr %s", info.Version)
			if info.GitCommit != "unknown" && len(info.GitCommit) >= 7 {
				fmt.Fprintf(cmd.OutOrStdout(), " (%s)", info.GitCommit[:7])
			}
			if version.IsDirty() {
				fmt.Fprint(cmd.OutOrStdout(), " (dirty)")
			}
			fmt.Fprintln(cmd.OutOrStdout())
			if !info.BuildTime.IsZero() {
				fmt.Fprintf(cmd.OutOrStdout(), "Built: %s\n", info.BuildTime.Format("2006-01-02 15:04:05 UTC"))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Go: %s\n", info.GoVersion)
			fmt.Fprintf(cmd.OutOrStdout(), "Platform: %s\n", info.Platform)
			return nil
		default:
			return fmt.Errorf("unsupported format: %s (supported: text, json)", versionFormat)
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().StringVarP(&versionFormat, "format", "f", "text", "Output format (text, json)")
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Show short version only")
}

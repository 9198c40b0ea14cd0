package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"texdb/internal/startup"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		info := startup.GetBuildInfo()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "texdb %s\n", info.Version)
		fmt.Fprintf(out, "  commit: %s\n", info.Commit)
		fmt.Fprintf(out, "  built:  %s\n", info.BuildTime)
		fmt.Fprintf(out, "  go:     %s %s/%s\n", info.GoVersion, info.OS, info.Arch)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

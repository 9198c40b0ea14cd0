package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"texdb/internal/startup"
)

var (
	cfgViper = viper.New()
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "texdb",
	Short: "Texture group database for game projects",
	Long: `texdb indexes the texture group manifests of a project, keeps the index in
a local catalog and generates a Go helper file naming every group.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			cfgViper.Set(startup.KeyLogLevel, "debug")
		}
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringP(startup.KeyProject, "p", ".", "Project directory")
	flags.String(startup.KeyDataDir, ".texdb", "Catalog directory, relative to the project")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	_ = cfgViper.BindPFlag(startup.KeyProject, flags.Lookup(startup.KeyProject))
	_ = cfgViper.BindPFlag(startup.KeyDataDir, flags.Lookup(startup.KeyDataDir))
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	if version != "" {
		startup.Version = version
	}
	if commit != "" {
		startup.Commit = commit
	}
	if date != "" {
		startup.BuildTime = date
	}
	rootCmd.Version = startup.Version
	return rootCmd.Execute()
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write the Go helper file for the indexed texture groups",
	RunE:  runGenerate,
}

func init() {
	generateCmd.Flags().String("helper-output", "", "Helper file path, relative to the project")
	generateCmd.Flags().String("helper-package", "", "Package name of the helper file")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	for _, key := range []string{"helper-output", "helper-package"} {
		if f := cmd.Flags().Lookup(key); f.Changed {
			cfgViper.Set(key, f.Value.String())
		}
	}

	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.index.Generate(cmd.Context(), true, false); err != nil {
		return fmt.Errorf("generating helper: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d texture groups)\n", s.gen.OutputPath(), len(s.index.Entries()))
	return nil
}

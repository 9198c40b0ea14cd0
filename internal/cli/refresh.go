package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	refreshNoSave bool
	refreshRescan bool
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Rebuild the index from every texture group in the project",
	RunE:  runRefresh,
}

func init() {
	refreshCmd.Flags().BoolVar(&refreshNoSave, "no-save", false, "Do not save modified assets")
	refreshCmd.Flags().BoolVar(&refreshRescan, "rescan", false, "Rescan the project after saving")
	rootCmd.AddCommand(refreshCmd)
}

func runRefresh(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.index.RefreshAll(cmd.Context(), !refreshNoSave, refreshRescan); err != nil {
		return fmt.Errorf("refreshing index: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d texture groups indexed in %q\n", len(s.index.Entries()), s.index.Name())
	return nil
}

package cli

import (
	"fmt"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"texdb/internal/texindex"
)

var addCmd = &cobra.Command{
	Use:   "add <manifest>",
	Short: "Validate one texture group and add it to the index",
	Long: `Validate the texture group described by a manifest and add it to the index,
regenerating the helper file. Invalid groups are discarded.`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

func init() {
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	path := args[0]
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.cfg.ProjectDir, path)
	}

	ctx := cmd.Context()
	if err := s.index.Rescan(ctx); err != nil {
		return err
	}
	g, err := s.store.Load(ctx, path)
	if err != nil {
		return fmt.Errorf("loading %s: %w", args[0], err)
	}

	if err := s.index.RefreshRecord(ctx, g, texindex.RefreshOptions{Persist: true, RegenerateHelper: true}); err != nil {
		return err
	}

	if !slices.Contains(s.index.Entries(), g) {
		return fmt.Errorf("texture group %s is invalid and was discarded", args[0])
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s > %s (%d textures)\n", g.Category(), g.Name(), g.TextureCount())
	return nil
}

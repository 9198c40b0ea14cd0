package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"texdb/internal/preview"
)

var (
	previewOutput  string
	previewCell    int
	previewColumns int
)

var previewCmd = &cobra.Command{
	Use:   "preview <category> <name>",
	Short: "Render a contact sheet of a texture group to a PNG file",
	Args:  cobra.ExactArgs(2),
	RunE:  runPreview,
}

func init() {
	previewCmd.Flags().StringVarP(&previewOutput, "output", "o", "", "Output PNG file (required)")
	previewCmd.Flags().IntVar(&previewCell, "cell", 0, "Cell size in pixels (defaults to preview-cell)")
	previewCmd.Flags().IntVar(&previewColumns, "columns", 0, "Cells per row (defaults to preview-columns)")
	_ = previewCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	g, ok := s.index.Lookup(args[0], args[1])
	if !ok {
		return fmt.Errorf("texture group %q not found in category %q", args[1], args[0])
	}

	opts := previewOptions(s)
	if previewCell > 0 {
		opts.Cell = previewCell
	}
	if previewColumns > 0 {
		opts.Columns = previewColumns
	}

	sheet, err := preview.ContactSheet(cmd.Context(), g, opts)
	if err != nil {
		return err
	}
	if err := preview.Save(previewOutput, sheet); err != nil {
		return err
	}
	b := sheet.Bounds()
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%dx%d)\n", previewOutput, b.Dx(), b.Dy())
	return nil
}

func previewOptions(s *session) preview.Options {
	opts := preview.DefaultOptions()
	if s.cfg.PreviewCell > 0 {
		opts.Cell = s.cfg.PreviewCell
	}
	if s.cfg.PreviewColumns > 0 {
		opts.Columns = s.cfg.PreviewColumns
	}
	return opts
}

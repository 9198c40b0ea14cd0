package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var lookupJSON bool

var lookupCmd = &cobra.Command{
	Use:   "lookup <category> <name>",
	Short: "Find a texture group by category and name",
	Args:  cobra.ExactArgs(2),
	RunE:  runLookup,
}

func init() {
	lookupCmd.Flags().BoolVar(&lookupJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(lookupCmd)
}

func runLookup(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	g, ok := s.index.Lookup(args[0], args[1])
	if !ok {
		return fmt.Errorf("texture group %q not found in category %q", args[1], args[0])
	}

	out := cmd.OutOrStdout()
	if lookupJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(g.Info())
	}

	info := g.Info()
	fmt.Fprintf(out, "%s > %s\n", info.Category, info.Name)
	fmt.Fprintf(out, "  ID:       %s\n", info.ID)
	fmt.Fprintf(out, "  Path:     %s\n", info.Path)
	fmt.Fprintf(out, "  Version:  %s\n", info.Version)
	fmt.Fprintf(out, "  Textures: %d\n", len(info.Textures))
	for _, t := range info.Textures {
		fmt.Fprintf(out, "    %-24s %4dx%-4d %s\n", t.Name, t.Width, t.Height, t.File)
	}
	return nil
}

package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the indexed texture groups",
	RunE:  runList,
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(listCmd)
}

// listEntry represents an indexed group for display.
type listEntry struct {
	Category string `json:"category"`
	Name     string `json:"name"`
	Textures int    `json:"textures"`
	Path     string `json:"path"`
}

func runList(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	entries := make([]listEntry, 0, s.index.Len())
	for _, g := range s.index.Entries() {
		path := g.Path()
		if rel, err := filepath.Rel(s.cfg.ProjectDir, path); err == nil {
			path = rel
		}
		entries = append(entries, listEntry{
			Category: g.Category(),
			Name:     g.Name(),
			Textures: g.TextureCount(),
			Path:     path,
		})
	}

	out := cmd.OutOrStdout()
	if listJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(out, "No texture groups indexed yet. Run 'texdb refresh'.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CATEGORY\tNAME\tTEXTURES\tPATH")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", e.Category, e.Name, e.Textures, e.Path)
	}
	return w.Flush()
}

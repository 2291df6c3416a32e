package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gurisko/shipyard/internal/manifest"
	"github.com/gurisko/shipyard/internal/session"
)

type openResp struct {
	ProjectPath string             `json:"project_path"`
	Form        session.Form       `json:"form"`
	Fixes       []manifest.Fix     `json:"fixes,omitempty"`
	Manifest    *manifest.Manifest `json:"manifest"`
}

var openJSON bool

var openCmd = &cobra.Command{
	Use:   "open [dir]",
	Short: "Open a project and fix what packaging needs",
	Long: `Read package.json in dir (default: the working directory), correct the
fields electron-builder depends on, write it back when something changed,
and print the editable fields.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := projectDir(args)
		if err != nil {
			return err
		}
		s, err := session.Open(dir, settings.Policy())
		if err != nil {
			return err
		}
		remember(s.Dir())

		if openJSON {
			return printJSON(openResp{ProjectPath: s.Dir(), Form: s.Form(), Fixes: s.Fixes(), Manifest: s.Manifest()})
		}
		printFixes(s.Fixes())
		return printForm(s)
	},
}

func init() {
	rootCmd.AddCommand(openCmd)
	openCmd.Flags().BoolVar(&openJSON, "json", false, "print JSON")
}

func printFixes(fixes []manifest.Fix) {
	for _, f := range fixes {
		fmt.Printf("fixed: %s\n", f)
	}
}

func printForm(s *session.Session) error {
	m := s.Manifest()
	f := s.Form()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Project:\t%s\n", s.Dir())
	fmt.Fprintf(w, "Name:\t%s\n", m.Name)
	fmt.Fprintf(w, "Product name:\t%s\n", f.ProductName)
	fmt.Fprintf(w, "Version:\t%s\n", f.Version)
	fmt.Fprintf(w, "Icon:\t%s\n", f.Icon)
	fmt.Fprintf(w, "Output:\t%s\n", m.OutputDir())
	return w.Flush()
}

package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gurisko/shipyard/internal/manifest"
	"github.com/gurisko/shipyard/internal/session"
)

var templateListJSON bool

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "List and apply build templates",
	Long: `Templates preset package.json and its build section. Besides the
built-in ones, every .md file in the templates directory is a template whose
YAML front matter holds key, summary and preset.`,
}

var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := loadCatalog()
		if err != nil {
			return err
		}
		if templateListJSON {
			return printJSON(catalog)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "KEY\tSUMMARY")
		for _, t := range catalog {
			fmt.Fprintf(w, "%s\t%s\n", t.Key, t.Summary)
		}
		return w.Flush()
	},
}

var templateApplyCmd = &cobra.Command{
	Use:   "apply <key> [dir]",
	Short: "Merge a template into a project's package.json",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := loadCatalog()
		if err != nil {
			return err
		}
		t, err := manifest.Lookup(catalog, args[0])
		if err != nil {
			return err
		}
		dir, err := projectDir(args[1:])
		if err != nil {
			return err
		}
		s, err := session.Open(dir, settings.Policy())
		if err != nil {
			return err
		}
		printFixes(s.Fixes())

		s.ApplyTemplate(t)
		if err := s.Save(); err != nil {
			return err
		}
		remember(s.Dir())
		fmt.Printf("Applied template %s\n", t.Key)
		return printForm(s)
	},
}

func init() {
	rootCmd.AddCommand(templateCmd)
	templateCmd.AddCommand(templateListCmd)
	templateCmd.AddCommand(templateApplyCmd)
	templateListCmd.Flags().BoolVar(&templateListJSON, "json", false, "print JSON")
}

func loadCatalog() ([]manifest.Template, error) {
	user, err := manifest.LoadTemplates(settings.Paths.Templates)
	if err != nil {
		return nil, err
	}
	return manifest.Catalog(user), nil
}

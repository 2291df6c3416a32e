//go:build unix

package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/gurisko/shipyard/internal/apiclient"
	"github.com/gurisko/shipyard/internal/daemon"
)

var listJSON bool

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := apiclient.New(settings.Paths.Socket)
		var out daemon.ListProjectsResponse
		if err := c.GetJSON(cmd.Context(), "/api/projects", &out); err != nil {
			return err
		}
		if listJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}
		if len(out.Projects) == 0 {
			fmt.Println("No projects registered")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tPATH\tLAST USED")
		for _, p := range out.Projects {
			used := "-"
			if !p.LastOpenedAt.IsZero() {
				used = p.LastOpenedAt.Local().Format(time.RFC3339)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Path, used)
		}
		return w.Flush()
	},
}

func init() {
	projectsCmd.AddCommand(projectsListCmd)
	projectsListCmd.Flags().BoolVar(&listJSON, "json", false, "print JSON")
}

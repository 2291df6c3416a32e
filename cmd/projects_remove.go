//go:build unix

package cmd

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gurisko/shipyard/internal/apiclient"
)

var rmJSON bool

var projectsRemoveCmd = &cobra.Command{
	Use:   "remove <project-id>",
	Short: "Forget a project by id (its files are untouched)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := apiclient.New(settings.Paths.Socket)
		id := strings.TrimSpace(args[0])

		// refuse to prompt on non-tty unless -y; --json implies yes
		if !rmJSON {
			ok, err := newTerminal().Confirm(fmt.Sprintf("Remove project %s?", id))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("aborted")
				return nil
			}
		}

		if err := c.Delete(cmd.Context(), "/api/projects/"+url.PathEscape(id)); err != nil {
			return err
		}

		if rmJSON {
			// API returns 204; supply a tiny confirmation object for scripting
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{"removed": true, "id": id})
		}
		fmt.Println("Removed", id)
		return nil
	},
}

func init() {
	projectsCmd.AddCommand(projectsRemoveCmd)
	projectsRemoveCmd.Flags().BoolVar(&rmJSON, "json", false, "print JSON")
}

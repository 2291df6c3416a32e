//go:build unix

package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gurisko/shipyard/internal/apiclient"
	"github.com/gurisko/shipyard/internal/daemon"
	"github.com/gurisko/shipyard/internal/manifest"
)

var regName, regPath string
var regJSON bool

var projectsRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a project directory",
	Long: `Register the Electron project at --path (default: the working directory).
The name defaults to the name in its package.json.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		regName = strings.TrimSpace(regName)
		regPath = strings.TrimSpace(regPath)
		if regPath == "" {
			regPath = "."
		}
		// client-side friendliness: expand ~ and make absolute (daemon also validates)
		if strings.HasPrefix(regPath, "~") {
			if home, _ := os.UserHomeDir(); home != "" {
				regPath = filepath.Join(home, strings.TrimPrefix(regPath, "~"))
			}
		}
		if abs, err := filepath.Abs(regPath); err == nil {
			regPath = abs
		}
		m, err := manifest.ReadFile(regPath)
		if err != nil {
			return err
		}
		if regName == "" {
			regName = m.Name
		}

		c := apiclient.New(settings.Paths.Socket)
		var out daemon.RegisterProjectResponse
		if err := c.PostJSON(cmd.Context(), "/api/projects", daemon.RegisterProjectRequest{Name: regName, Path: regPath}, &out); err != nil {
			return err
		}
		if regJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}
		fmt.Printf("Registered %q at %s (id=%s)\n", out.Project.Name, out.Project.Path, out.Project.ID)
		return nil
	},
}

func init() {
	projectsCmd.AddCommand(projectsRegisterCmd)
	projectsRegisterCmd.Flags().StringVarP(&regName, "name", "n", "", "project name (default: package.json name)")
	projectsRegisterCmd.Flags().StringVarP(&regPath, "path", "p", "", "project path (default: working directory)")
	projectsRegisterCmd.Flags().BoolVar(&regJSON, "json", false, "print JSON")
}

package cmd

import (
	"errors"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gurisko/shipyard/internal/session"
	"github.com/gurisko/shipyard/internal/ui"
)

var (
	setProductName string
	setVersion     string
	setIcon        string
	setPickIcon    bool
)

var setCmd = &cobra.Command{
	Use:   "set [dir]",
	Short: "Edit product name, version or icon",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		if !flags.Changed("product-name") && !flags.Changed("version") && !flags.Changed("icon") && !setPickIcon {
			return errors.New("nothing to set; use --product-name, --version, --icon or --pick-icon")
		}
		dir, err := projectDir(args)
		if err != nil {
			return err
		}
		s, err := session.Open(dir, settings.Policy())
		if err != nil {
			return err
		}
		printFixes(s.Fixes())

		if flags.Changed("product-name") {
			s.SetProductName(setProductName)
		}
		if flags.Changed("version") {
			s.SetVersion(setVersion)
		}
		icon := setIcon
		if setPickIcon {
			picked, ok, err := newTerminal().PickFile("Icon", ui.ImageFilters)
			if err != nil {
				return err
			}
			if !ok {
				return errors.New("no icon selected")
			}
			icon = picked
		}
		if icon != "" {
			// Relative paths on the command line are relative to the shell.
			if abs, err := filepath.Abs(icon); err == nil {
				icon = abs
			}
			if err := s.SetIcon(icon); err != nil {
				return err
			}
		}

		if err := s.Save(); err != nil {
			return err
		}
		remember(s.Dir())
		return printForm(s)
	},
}

func init() {
	rootCmd.AddCommand(setCmd)
	setCmd.Flags().StringVar(&setProductName, "product-name", "", "product name")
	setCmd.Flags().StringVar(&setVersion, "version", "", "version")
	setCmd.Flags().StringVar(&setIcon, "icon", "", "icon file (png, ico or icns)")
	setCmd.Flags().BoolVar(&setPickIcon, "pick-icon", false, "prompt for the icon file")
	setCmd.MarkFlagsMutuallyExclusive("icon", "pick-icon")
}

package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/gurisko/shipyard/internal/history"
)

var (
	historyLimit int
	historyAll   bool
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history [dir]",
	Short: "Show recent builds",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := ""
		if !historyAll {
			d, err := projectDir(args)
			if err != nil {
				return err
			}
			dir = d
		}

		store, err := history.Open(settings.Paths.History)
		if err != nil {
			return err
		}
		defer store.Close()

		builds, err := store.List(cmd.Context(), dir, historyLimit)
		if err != nil {
			return err
		}
		if historyJSON {
			if builds == nil {
				builds = []history.Record{}
			}
			return printJSON(builds)
		}
		if len(builds) == 0 {
			fmt.Println("No builds recorded")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		if historyAll {
			fmt.Fprintln(w, "STARTED\tPLATFORMS\tRESULT\tDURATION\tPROJECT")
		} else {
			fmt.Fprintln(w, "STARTED\tPLATFORMS\tRESULT\tDURATION")
		}
		for _, b := range builds {
			result := "ok"
			if !b.Success {
				result = "failed"
				if b.FailedStage != "" {
					result += " (" + b.FailedStage + ")"
				}
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s", b.StartedAt.Local().Format(time.RFC3339), b.Platforms, result, b.Duration().Round(time.Second))
			if historyAll {
				fmt.Fprintf(w, "\t%s", b.ProjectPath)
			}
			fmt.Fprintln(w)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", history.DefaultLimit, "number of builds to show")
	historyCmd.Flags().BoolVar(&historyAll, "all", false, "show builds of every project")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "print JSON")
}

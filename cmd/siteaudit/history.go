package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/amosWeiskopf/siteaudit/internal/store"
	"github.com/amosWeiskopf/siteaudit/pkg/crawler"
	"github.com/amosWeiskopf/siteaudit/pkg/reporter"
)

var historyCmd = &cobra.Command{
	Use:   "history [URL]",
	Short: "List stored report snapshots, or print one with --show",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := cli.openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		if id, _ := cmd.Flags().GetString("show"); id != "" {
			report, err := s.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			format, err := reporter.ParseFormat(cli.cfg.Report.Format)
			if err != nil {
				return err
			}
			output, _ := cmd.Flags().GetString("output")
			return writeOutput(cmd, output, func(w io.Writer) error {
				return cli.newReporter().Write(w, report, format)
			})
		}

		rootURL := ""
		if len(args) == 1 {
			if rootURL, err = crawler.NormalizeRootURL(args[0]); err != nil {
				return err
			}
		}
		limit, _ := cmd.Flags().GetInt("limit")
		snapshots, err := s.List(cmd.Context(), rootURL, limit)
		if err != nil {
			return err
		}
		return printSnapshots(cmd.OutOrStdout(), snapshots)
	},
}

func printSnapshots(w io.Writer, snapshots []store.Snapshot) error {
	if len(snapshots) == 0 {
		_, err := fmt.Fprintln(w, "No snapshots stored.")
		return err
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Site", "Generated", "Pages", "Issues", "Score", "Grade"})
	for _, snap := range snapshots {
		t.AppendRow(table.Row{
			snap.ID,
			snap.RootURL,
			snap.GeneratedAt.Format("2006-01-02 15:04"),
			snap.Pages,
			snap.Issues,
			fmt.Sprintf("%.1f", snap.Score),
			snap.Grade,
		})
	}
	t.Render()
	return nil
}

func init() {
	historyCmd.Flags().Int("limit", 20, "Maximum snapshots to list (0 for all)")
	historyCmd.Flags().String("show", "", "Print the snapshot with this ID")
	historyCmd.Flags().String("format", "json", "Format for --show ("+reporter.FormatList()+")")
	historyCmd.Flags().String("output", "", "Output file for --show (default stdout)")
	historyCmd.Flags().String("storage-path", "./data", "Snapshot database directory")
}

package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/cryptobot/journal"
	"github.com/rustyeddy/cryptobot/pkg/id"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query journaled backtest runs",
	Long: `Query and display runs recorded in the SQLite journal.

Subcommands:
  runs   - List recent runs
  show   - Print a run and its trades as Org
  day    - List trades closed on a specific day

Examples:
  cryptobot journal runs --limit 5
  cryptobot journal show 01HZX3R5T7ABCDEFGHJKMNPQRS
  cryptobot journal day 2020-06-01`,
}

var journalRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent runs",
	Args:  cobra.NoArgs,
	RunE:  runJournalRuns,
}

var journalShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print a run and its trades as Org",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalShow,
}

var journalDayCmd = &cobra.Command{
	Use:   "day <YYYY-MM-DD>",
	Short: "List trades closed on a specific day",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalDay,
}

var (
	journalDBPath string
	journalLimit  int
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalRunsCmd)
	journalCmd.AddCommand(journalShowCmd)
	journalCmd.AddCommand(journalDayCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "./cryptobot.sqlite", "path to SQLite journal DB")
	journalRunsCmd.Flags().IntVarP(&journalLimit, "limit", "n", 20, "number of runs to list (0 for all)")
}

func runJournalRuns(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	runs, err := j.ListRuns(cmd.Context(), journalLimit)
	if err != nil {
		return fmt.Errorf("query runs: %w", err)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tCREATED\tSYMBOL\tSTRATEGY\tTRADES\tFINAL VALUE\tRETURN %")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%.2f\n",
			r.RunID,
			r.Created.Format("2006-01-02 15:04"),
			r.Symbol,
			r.Strategy,
			r.Trades,
			r.FinalValue.StringFixed(2),
			r.ReturnPct,
		)
	}
	return tw.Flush()
}

func runJournalShow(cmd *cobra.Command, args []string) error {
	if _, err := id.Time(args[0]); err != nil {
		return fmt.Errorf("invalid run id %q: %w", args[0], err)
	}

	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	ctx := cmd.Context()
	run, err := j.GetRun(ctx, args[0])
	if err != nil {
		return fmt.Errorf("get run: %w", err)
	}
	trades, err := j.ListTrades(ctx, run.RunID)
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}

	return run.WriteOrg(cmd.OutOrStdout(), trades)
}

func runJournalDay(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	start, end, err := dayBounds(time.UTC, args[0])
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}

	recs, err := j.ListTradesClosedBetween(cmd.Context(), start, end)
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), journal.FormatTradesOrg(recs))
	return nil
}

// dayBounds returns [midnight, next midnight) of day in loc. Bars are daily
// UTC, so callers pass time.UTC.
func dayBounds(loc *time.Location, day string) (time.Time, time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", day, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1), nil
}

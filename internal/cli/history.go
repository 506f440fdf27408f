package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var (
	historyCharacter string
	historyLimit     int
	historyJSON      bool
)

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyClearCmd)
	historyListCmd.Flags().StringVarP(&historyCharacter, "character", "c", "", "Only swaps this character took part in")
	historyListCmd.Flags().IntVarP(&historyLimit, "lines", "n", 0, "Show at most this many recent swaps")
	historyListCmd.Flags().BoolVar(&historyJSON, "json", false, "Print records as JSON")
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Persisted swap history",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List persisted swaps, oldest first",
	RunE:  runHistoryList,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the persisted swap history",
	RunE:  runHistoryClear,
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	c, err := startCore(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	records, err := c.StoredHistory(ctx)
	if err != nil {
		return err
	}
	if historyCharacter != "" {
		kept := records[:0]
		for _, r := range records {
			if r.Source == historyCharacter || r.Target == historyCharacter {
				kept = append(kept, r)
			}
		}
		records = kept
	}
	if historyLimit > 0 && len(records) > historyLimit {
		records = records[len(records)-historyLimit:]
	}

	if historyJSON {
		return printJSON(cmd, records)
	}
	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No swaps recorded.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tSOURCE -> TARGET\tGARMENT\tZONES\tSTATUS")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s -> %s\t%s\t%s\t%s\n",
			r.ID, r.Timestamp.Format(time.RFC3339), r.Source, r.Target,
			r.Garment.ID, strings.Join(r.Zones, ","), r.Status)
	}
	return w.Flush()
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	c, err := startCore(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.ClearHistory(ctx); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Swap history cleared.")
	return nil
}

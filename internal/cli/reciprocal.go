package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ppiankov/threadshift/internal/client"
	"github.com/ppiankov/threadshift/internal/reciprocal"
)

var (
	pairA        string
	pairB        string
	pairGarments []string
	pairRemote   string
	pairJSON     bool
)

func init() {
	for _, c := range []*cobra.Command{previewCmd, reciprocalCmd} {
		rootCmd.AddCommand(c)
		c.Flags().StringVarP(&pairA, "char-a", "a", "", "First body map or character JSON (required)")
		c.Flags().StringVarP(&pairB, "char-b", "b", "", "Second body map or character JSON (required)")
		c.Flags().StringSliceVarP(&pairGarments, "garments", "g", nil, "Garments worn (references or type names)")
		c.Flags().StringVar(&pairRemote, "remote", "", "Run on a threadshift server at host:port instead of in-process")
		c.MarkFlagRequired("char-a")
		c.MarkFlagRequired("char-b")
	}
	previewCmd.Flags().BoolVar(&pairJSON, "json", false, "Print the preview as JSON")

	rootCmd.AddCommand(batchCmd)
}

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Show what a reciprocal swap would exchange, without performing it",
	RunE:  runPreview,
}

var reciprocalCmd = &cobra.Command{
	Use:   "reciprocal",
	Short: "Exchange every zone the worn garments cover between two body maps",
	RunE:  runReciprocal,
}

var batchCmd = &cobra.Command{
	Use:   "batch <pairs.json>",
	Short: "Run reciprocal swaps for a list of pairs",
	Long:  "Reads a JSON array of {\"charA\", \"charB\", \"garmentsWorn\"} objects. A failing pair\nis reported in place and does not stop the others.",
	Args:  cobra.ExactArgs(1),
	RunE:  runBatch,
}

func runPreview(cmd *cobra.Command, args []string) error {
	a, err := readBody(pairA)
	if err != nil {
		return err
	}
	b, err := readBody(pairB)
	if err != nil {
		return err
	}

	ctx := context.Background()
	var p reciprocal.Preview
	if pairRemote != "" {
		cl, err := client.New(pairRemote)
		if err != nil {
			return err
		}
		defer cl.Close()
		p, err = cl.Preview(ctx, a, b, pairGarments)
		if err != nil {
			return err
		}
	} else {
		c, err := startCore(ctx)
		if err != nil {
			return err
		}
		defer c.Close()
		p, err = c.Orchestrator().Preview(a, b, pairGarments)
		if err != nil {
			return err
		}
	}

	if pairJSON {
		return printJSON(cmd, p)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Garments: %v | Zones: %d | Swappable: %d\n\n", p.Garments, p.TotalZones, p.SwappableZones)
	fmt.Fprintln(w, "ZONE\tA RECEIVES\tB RECEIVES\tNOTE")
	for _, e := range p.Entries {
		note := e.Warning
		if e.CanSwap {
			note = "ok"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Zone, e.AWillReceive, e.BWillReceive, note)
	}
	return w.Flush()
}

func runReciprocal(cmd *cobra.Command, args []string) error {
	a, err := readBody(pairA)
	if err != nil {
		return err
	}
	b, err := readBody(pairB)
	if err != nil {
		return err
	}

	ctx := context.Background()
	var res reciprocal.Result
	if pairRemote != "" {
		cl, err := client.New(pairRemote)
		if err != nil {
			return err
		}
		defer cl.Close()
		res, err = cl.Reciprocal(ctx, a, b, pairGarments)
		if err != nil {
			return err
		}
	} else {
		c, err := startCore(ctx)
		if err != nil {
			return err
		}
		defer c.Close()
		res, err = c.Orchestrator().Swap(a, b, pairGarments)
		if err != nil {
			return err
		}
	}
	return printJSON(cmd, res)
}

func runBatch(cmd *cobra.Command, args []string) error {
	var pairs []reciprocal.Pair
	if err := readJSON(args[0], &pairs); err != nil {
		return err
	}

	c, err := startCore(context.Background())
	if err != nil {
		return err
	}
	defer c.Close()

	return printJSON(cmd, c.Orchestrator().Batch(pairs))
}

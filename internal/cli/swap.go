package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/threadshift/internal/client"
	"github.com/ppiankov/threadshift/internal/model"
	"github.com/ppiankov/threadshift/internal/server"
)

var (
	swapSource  string
	swapTarget  string
	swapGarment string
	swapRemote  string
	swapInPlace bool

	reverseRemote string
)

func init() {
	rootCmd.AddCommand(swapCmd)
	swapCmd.Flags().StringVarP(&swapSource, "source", "s", "", "Source character JSON (required)")
	swapCmd.Flags().StringVarP(&swapTarget, "target", "t", "", "Target character JSON (required)")
	swapCmd.Flags().StringVarP(&swapGarment, "garment", "g", "", "Garment reference, e.g. 5.0103 (required)")
	swapCmd.Flags().StringVar(&swapRemote, "remote", "", "Run on a threadshift server at host:port instead of in-process")
	swapCmd.Flags().BoolVar(&swapInPlace, "in-place", false, "Write the updated characters back to their files")
	swapCmd.MarkFlagRequired("source")
	swapCmd.MarkFlagRequired("target")
	swapCmd.MarkFlagRequired("garment")

	rootCmd.AddCommand(reverseCmd)
	reverseCmd.Flags().StringVar(&reverseRemote, "remote", "", "threadshift server holding the swap (required)")
	reverseCmd.MarkFlagRequired("remote")
}

var swapCmd = &cobra.Command{
	Use:   "swap",
	Short: "Swap the zones a garment covers from source onto target",
	Long: `Copies every zone the garment covers from the source character onto the
target. With bidirectional swaps on, the target's displaced zones are mirrored
back onto the source. Prints both updated characters and the swap record.

Reversal needs the live swap, so swaps meant to be reversed should run
against a server (--remote).`,
	RunE: runSwap,
}

var reverseCmd = &cobra.Command{
	Use:   "reverse <swap-id>",
	Short: "Reverse an active swap on a threadshift server",
	Args:  cobra.ExactArgs(1),
	RunE:  runReverse,
}

func runSwap(cmd *cobra.Command, args []string) error {
	source, err := readCharacter(swapSource)
	if err != nil {
		return err
	}
	target, err := readCharacter(swapTarget)
	if err != nil {
		return err
	}

	ctx := context.Background()
	var resp server.SwapResponse

	if swapRemote != "" {
		cl, err := client.New(swapRemote)
		if err != nil {
			return err
		}
		defer cl.Close()
		if resp, err = cl.Swap(ctx, source, target, swapGarment); err != nil {
			return err
		}
	} else {
		c, err := startCore(ctx)
		if err != nil {
			return err
		}
		defer c.Close()

		eng := c.Engine()
		id, err := eng.PerformSwap(ctx, source, target, swapGarment)
		if err != nil {
			return err
		}
		rec, _ := eng.Swap(id)
		resp = server.SwapResponse{SwapID: id, Source: source, Target: target, Record: rec}
	}

	if swapInPlace {
		if err := writeCharacter(swapSource, resp.Source); err != nil {
			return err
		}
		if err := writeCharacter(swapTarget, resp.Target); err != nil {
			return err
		}
	}
	return printJSON(cmd, resp)
}

func runReverse(cmd *cobra.Command, args []string) error {
	cl, err := client.New(reverseRemote)
	if err != nil {
		return err
	}
	defer cl.Close()

	resp, err := cl.Reverse(context.Background(), args[0])
	if err != nil {
		return err
	}
	return printJSON(cmd, resp)
}

func writeCharacter(path string, c *model.Character) error {
	if c == nil {
		return nil
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

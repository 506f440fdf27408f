package cli

import (
	"context"
	"fmt"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ppiankov/threadshift/internal/garment"
	"github.com/ppiankov/threadshift/internal/zone"
)

func init() {
	rootCmd.AddCommand(garmentCmd)
	rootCmd.AddCommand(zonesCmd)
}

var garmentCmd = &cobra.Command{
	Use:   "garment <ref>",
	Short: "Resolve a garment reference to its type and covered zones",
	Long:  "Parses a reference of the form <characterId>.<typeCode><sequence> (e.g. 5.0103)\nand prints the zones it covers under the active profile and overrides.",
	Args:  cobra.ExactArgs(1),
	RunE:  runGarment,
}

var zonesCmd = &cobra.Command{
	Use:   "zones",
	Short: "Print the zone vocabulary and the effective garment table",
	RunE:  runZones,
}

func runGarment(cmd *cobra.Command, args []string) error {
	g, err := garment.ParseRef(args[0])
	if err != nil {
		return err
	}

	c, err := startCore(context.Background())
	if err != nil {
		return err
	}
	defer c.Close()

	return printJSON(cmd, map[string]any{
		"garment": g,
		"zones":   c.Mapper().ZonesForGarmentType(string(g.Type)),
	})
}

func runZones(cmd *cobra.Command, args []string) error {
	c, err := startCore(context.Background())
	if err != nil {
		return err
	}
	defer c.Close()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CODE\tZONE")
	for _, z := range zone.Vocabulary() {
		n, _ := zone.Number(z)
		fmt.Fprintf(w, "%d\t%s\n", n, z)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "GARMENT\tTYPE CODE\tZONES")
	for _, t := range effectiveTypes(c.Mapper()) {
		code, ok := garment.CodeForType(garment.ParseType(t))
		if !ok {
			code = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%v\n", t, code, c.Mapper().ZonesForGarmentType(t))
	}
	return w.Flush()
}

// effectiveTypes lists every garment type the default table or an override
// knows, sorted.
func effectiveTypes(m *zone.Mapper) []string {
	seen := map[string]bool{}
	for t := range zone.DefaultTable() {
		seen[t] = true
	}
	for t := range m.Overrides() {
		seen[t] = true
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

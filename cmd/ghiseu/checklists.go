package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hrygo/ghiseu/plugin/ai/agent"
	"github.com/hrygo/ghiseu/plugin/ai/checklist"
	"github.com/hrygo/ghiseu/plugin/ai/docs"
)

var checklistsCmd = &cobra.Command{
	Use:   "checklists [dir]",
	Short: "Validate and print the program checklists",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := ""
		if len(args) == 1 {
			dir = args[0]
		}
		set, err := checklist.LoadDir(dir)
		if err != nil {
			return err
		}
		lang, _ := cmd.Flags().GetString("lang")

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, c := range set.All() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", c.Program, c.Agent, c.TitleFor(lang))
			fmt.Fprintf(w, "\ttypes\t%s\n", strings.Join(c.Types, ", "))
			if c.NeedsReason() {
				fmt.Fprintf(w, "\treasons\t%s\n", strings.Join(c.Reasons, ", "))
			}
			for _, typ := range c.Types {
				reason, _ := c.ForcedReason(typ)
				required, err := c.RequiredDocs(typ, reason)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "\tdocs[%s]\t%s\n", typ, labels(required, lang))
			}
		}
		return w.Flush()
	},
}

func init() {
	checklistsCmd.Flags().String("lang", agent.DefaultLang, "label language (ro or en)")
}

func labels(kinds []docs.Kind, lang string) string {
	out := make([]string, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, k.Label(lang))
	}
	return strings.Join(out, ", ")
}

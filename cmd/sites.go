package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "List the supported sites and their aliases",
	Run: func(_ *cobra.Command, _ []string) {
		a := mustApp()
		registry := a.client.Registry()

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SITE\tALIASES\tNSFW\tRANDOM")

		for _, key := range registry.Keys() {
			s, _ := registry.Get(key)
			fmt.Fprintf(w, "%s\t%s\t%t\t%t\n", key, strings.Join(s.Aliases, ", "), s.NSFW, s.NativeRandom)
		}

		_ = w.Flush()
	},
}

package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/dumpmerge/internal/core"
)

func newFormatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List the supported input formats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tLABEL\tMATCHES")
			for _, def := range core.Formats() {
				matches := append([]string(nil), def.Extensions...)
				for _, s := range def.Schemes {
					matches = append(matches, s+"://")
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", def.Key, def.Label, strings.Join(matches, " "))
			}
			return tw.Flush()
		},
	}
}
